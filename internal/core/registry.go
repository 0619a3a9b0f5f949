package core

import (
	"sync"

	"github.com/eakgun/intervo/internal/domain"
	"github.com/rs/zerolog/log"
)

// Rooms is a threadsafe in-memory registry of signaling connections grouped
// by room. It owns membership only and never closes adapter-owned transports.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[Conn]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.RoomID]map[Conn]struct{})}
}

// Join registers conn under room, creating the room on first use.
// Returns the member count after the join.
func (r *Rooms) Join(room domain.RoomID, conn Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[room]
	if !ok {
		set = make(map[Conn]struct{})
		r.rooms[room] = set
	}
	set[conn] = struct{}{}
	log.Info().Str("module", "core.rooms").Str("room", string(room)).Int("count", len(set)).Msg("member joined")
	return len(set)
}

// Leave removes conn from room. The room entry is deleted when its set
// becomes empty. Reports whether the conn was actually a member and how many
// members remain.
func (r *Rooms) Leave(room domain.RoomID, conn Conn) (removed bool, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.rooms[room]
	if !ok {
		return false, 0
	}
	if _, ok := set[conn]; !ok {
		return false, len(set)
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(r.rooms, room)
	}
	log.Info().Str("module", "core.rooms").Str("room", string(room)).Int("count", len(set)).Msg("member left")
	return true, len(set)
}

func (r *Rooms) Count(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

func (r *Rooms) Has(room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room]
	return ok
}

// Snapshot returns the current members so callers can iterate without holding
// the lock while membership mutates underneath them.
func (r *Rooms) Snapshot(room domain.RoomID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		out = append(out, c)
	}
	return out
}

// Broadcast delivers frame to every member of room except sender. A failed
// send never aborts delivery to the rest; the failed connections are returned
// so the caller can decide what to do with them.
func (r *Rooms) Broadcast(room domain.RoomID, sender Conn, frame Frame) []Conn {
	var failed []Conn
	for _, c := range r.Snapshot(room) {
		if c == sender {
			continue
		}
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "core.rooms").Str("room", string(room)).Msg("broadcast send failed")
			failed = append(failed, c)
		}
	}
	return failed
}
