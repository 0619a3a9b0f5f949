package core

import (
	"encoding/json"
	"sync"

	"github.com/eakgun/intervo/internal/domain"
	"github.com/rs/zerolog/log"
)

// TranscriptHub fans live transcript lines out to passive viewer connections,
// grouped by interview session. Subscribers are kept in append order and a
// failed send is treated as a disconnect: the subscriber is pruned on the spot.
type TranscriptHub struct {
	mu   sync.Mutex
	subs map[domain.SessionID][]Conn
}

func NewTranscriptHub() *TranscriptHub {
	return &TranscriptHub{subs: make(map[domain.SessionID][]Conn)}
}

// Subscribe appends conn to the session's subscriber list.
func (h *TranscriptHub) Subscribe(session domain.SessionID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[session] = append(h.subs[session], conn)
	log.Info().Str("module", "core.transcript").Str("session", string(session)).Int("subs", len(h.subs[session])).Msg("subscriber added")
}

// Unsubscribe removes conn by identity. Absent conns are not an error.
func (h *TranscriptHub) Unsubscribe(session domain.SessionID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(session, conn)
}

// remove must be called with h.mu held.
func (h *TranscriptHub) remove(session domain.SessionID, conn Conn) {
	list := h.subs[session]
	for i, c := range list {
		if c == conn {
			h.subs[session] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Subscribers reports the current subscriber count for a session.
func (h *TranscriptHub) Subscribers(session domain.SessionID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[session])
}

// Publish delivers {role, text} to every current subscriber of session.
// With no subscribers it is a logged no-op. Per-subscriber failures are
// isolated; the failing subscriber is removed from the list.
func (h *TranscriptHub) Publish(session domain.SessionID, role domain.Role, text string) {
	frame, err := json.Marshal(domain.TranscriptLine{Role: role.Display(), Text: text})
	if err != nil {
		log.Error().Err(err).Str("module", "core.transcript").Msg("marshal transcript line")
		return
	}

	h.mu.Lock()
	list := make([]Conn, len(h.subs[session]))
	copy(list, h.subs[session])
	h.mu.Unlock()

	if len(list) == 0 {
		log.Debug().Str("module", "core.transcript").Str("session", string(session)).Msg("publish with no subscribers")
		return
	}

	for _, c := range list {
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "core.transcript").Str("session", string(session)).Msg("subscriber send failed, pruning")
			h.mu.Lock()
			h.remove(session, c)
			h.mu.Unlock()
		}
	}
}
