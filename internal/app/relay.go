// Package app coordinates the core registries with the transport adapters.
package app

import (
	"encoding/json"

	"github.com/eakgun/intervo/internal/core"
	"github.com/eakgun/intervo/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Relay brokers signaling between peers of a room: join/leave bookkeeping,
// membership events, and verbatim forwarding of peer payloads (offers,
// answers, ICE candidates). It never interprets relayed payloads beyond the
// type discriminator.
type Relay struct {
	Rooms *core.Rooms
}

func NewRelay(rooms *core.Rooms) *Relay {
	return &Relay{Rooms: rooms}
}

type roomEvent struct {
	RoomID    domain.RoomID `json:"room_id"`
	UserCount int           `json:"user_count"`
}

type eventMsg struct {
	Type string    `json:"type"`
	Data roomEvent `json:"data"`
}

// Join registers conn, tells the other members someone arrived, and gives the
// newcomer the room snapshot. Both events carry the member count after the
// join and both happen before any peer payload reaches the newcomer.
func (r *Relay) Join(room domain.RoomID, conn core.Conn) {
	count := r.Rooms.Join(room, conn)
	log.Info().Str("module", "app.relay").Str("room", string(room)).Int("count", count).Msg("peer joined")

	r.broadcastJSON(room, conn, eventMsg{Type: "user-joined", Data: roomEvent{RoomID: room, UserCount: count}})
	r.sendJSON(conn, eventMsg{Type: "room-info", Data: roomEvent{RoomID: room, UserCount: count}})
}

// HandleFrame processes one inbound signaling frame from conn.
func (r *Relay) HandleFrame(room domain.RoomID, conn core.Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("room", string(room)).Msg("bad json frame")
		return
	}

	switch env.Type {
	case "ping":
		// Answered directly, never broadcast.
		r.sendJSON(conn, map[string]string{"type": "pong"})
	case "pong":
		// Absorbed.
	case "ice-candidate":
		r.checkCandidate(room, data)
		r.relay(room, conn, data)
	default:
		// offer, answer and any application-defined payload pass through
		// verbatim.
		r.relay(room, conn, data)
	}
}

// checkCandidate is best-effort validation: a malformed candidate is still
// relayed (the payload is opaque to us) but worth a log line.
func (r *Relay) checkCandidate(room domain.RoomID, data []byte) {
	var msg struct {
		Data webrtc.ICECandidateInit `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Data.Candidate == "" {
		log.Warn().Str("module", "app.relay").Str("room", string(room)).Msg("ice-candidate payload did not parse")
	}
}

func (r *Relay) relay(room domain.RoomID, sender core.Conn, data []byte) {
	for _, failed := range r.Rooms.Broadcast(room, sender, core.Frame(data)) {
		r.Disconnect(room, failed)
	}
}

// Disconnect removes conn from the room and notifies the remaining members.
// Safe to call more than once; only the call that actually removes the member
// emits the user-left event. When the last member leaves the room is gone and
// there is no one left to notify.
func (r *Relay) Disconnect(room domain.RoomID, conn core.Conn) {
	removed, remaining := r.Rooms.Leave(room, conn)
	if !removed {
		return
	}
	conn.Close()
	log.Info().Str("module", "app.relay").Str("room", string(room)).Int("count", remaining).Msg("peer left")
	if remaining == 0 {
		return
	}
	r.broadcastJSON(room, conn, eventMsg{Type: "user-left", Data: roomEvent{RoomID: room, UserCount: remaining}})
}

func (r *Relay) sendJSON(conn core.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("sendJSON marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Msg("sendJSON failed")
	}
}

func (r *Relay) broadcastJSON(room domain.RoomID, sender core.Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("broadcastJSON marshal")
		return
	}
	for _, failed := range r.Rooms.Broadcast(room, sender, b) {
		r.Disconnect(room, failed)
	}
}
