package app

import (
	"context"
	"sync"

	"github.com/eakgun/intervo/internal/core"
	"github.com/eakgun/intervo/internal/domain"
	"github.com/rs/zerolog/log"
)

// Ingest owns the per-session dispatch state machines. State is created
// lazily on the first audio chunk for a session and discarded unconditionally
// when that session's STT connection ends; buffered audio never survives a
// reconnect.
type Ingest struct {
	mu       sync.Mutex
	cfg      core.DispatchConfig
	stt      core.Transcriber
	out      core.Publisher
	sessions map[domain.SessionID]*core.Dispatcher
}

func NewIngest(cfg core.DispatchConfig, stt core.Transcriber, out core.Publisher) *Ingest {
	return &Ingest{
		cfg:      cfg,
		stt:      stt,
		out:      out,
		sessions: make(map[domain.SessionID]*core.Dispatcher),
	}
}

// Feed routes one audio chunk to the session's dispatcher. Only the map
// lookup is serialized; the transcription call inside the dispatcher runs
// under the session's own lock so a slow backend stalls one session only.
func (s *Ingest) Feed(ctx context.Context, session domain.SessionID, role domain.Role, chunk []byte) {
	s.mu.Lock()
	d, ok := s.sessions[session]
	if !ok {
		d = core.NewDispatcher(session, role, s.cfg, s.stt, s.out)
		s.sessions[session] = d
		log.Info().Str("module", "app.ingest").Str("session", string(session)).Str("role", string(role)).Msg("session state created")
	}
	s.mu.Unlock()

	d.Ingest(ctx, chunk)
}

// EndSession drops all buffered state for session. Idempotent: ending an
// already-ended or never-started session is a no-op. No final sub-threshold
// dispatch happens at teardown; losing at most one tail window is accepted.
func (s *Ingest) EndSession(session domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session]; !ok {
		return
	}
	delete(s.sessions, session)
	log.Info().Str("module", "app.ingest").Str("session", string(session)).Msg("session state discarded")
}

// Active reports whether dispatch state currently exists for session.
func (s *Ingest) Active(session domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[session]
	return ok
}
