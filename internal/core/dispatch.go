package core

import (
	"context"
	"strings"
	"sync"

	"github.com/eakgun/intervo/internal/domain"
	"github.com/rs/zerolog/log"
)

// DispatchConfig holds the thresholds of the audio dispatch policy.
type DispatchConfig struct {
	// NoiseFloor: chunks below this many bytes are recorder noise or
	// keep-alives and are discarded without touching the buffer.
	NoiseFloor int
	// MinFirst: no transcription call happens before the buffer reaches
	// this size. Too little audio yields garbage.
	MinFirst int
	// MinDelta: after a call, the buffer must grow by at least this much
	// before the next call. Trades latency for call volume.
	MinDelta int
	// MaxBuffer: once the buffer reaches this size a dispatch is forced
	// even if the delta condition does not hold, and after it succeeds the
	// window is rotated: the buffer is dropped and accumulation starts over.
	// Keeps per-session memory near MaxBuffer while the transcriber is
	// reachable.
	MaxBuffer int
	// Language hint passed to the transcriber.
	Language string
}

func (c DispatchConfig) withDefaults() DispatchConfig {
	if c.NoiseFloor <= 0 {
		c.NoiseFloor = 100
	}
	if c.MinFirst <= 0 {
		c.MinFirst = 40000
	}
	if c.MinDelta <= 0 {
		c.MinDelta = 20000
	}
	if c.MaxBuffer <= 0 {
		c.MaxBuffer = 8 << 20
	}
	if c.Language == "" {
		c.Language = "tr"
	}
	return c
}

// Dispatcher accumulates one session's raw audio and periodically hands the
// entire buffer to the transcriber. The full buffer is authoritative: streaming
// backends may revise earlier words given more context, so only the complete
// window is trusted, and the newly produced text is derived by prefix-diffing
// against the previous full transcript.
type Dispatcher struct {
	mu      sync.Mutex
	cfg     DispatchConfig
	session domain.SessionID
	role    domain.Role
	stt     Transcriber
	out     Publisher

	buf      []byte
	lastSize int    // buffer size at the last successful dispatch
	lastText string // full transcript returned by the last successful dispatch
}

func NewDispatcher(session domain.SessionID, role domain.Role, cfg DispatchConfig, stt Transcriber, out Publisher) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg.withDefaults(),
		session: session,
		role:    role,
		stt:     stt,
		out:     out,
	}
}

// Ingest handles one received audio chunk: append, check thresholds, and if
// they are met, transcribe the whole buffer and publish the new suffix.
// The transcription call may take seconds; it only blocks this session.
func (d *Dispatcher) Ingest(ctx context.Context, chunk []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(chunk) < d.cfg.NoiseFloor {
		return
	}
	d.buf = append(d.buf, chunk...)

	if len(d.buf) < d.cfg.MinFirst {
		return
	}
	forced := len(d.buf) >= d.cfg.MaxBuffer
	if len(d.buf)-d.lastSize < d.cfg.MinDelta && !forced {
		return
	}

	size := len(d.buf)
	window := make([]byte, size)
	copy(window, d.buf)

	text, err := d.stt.Transcribe(ctx, window, d.cfg.Language)
	if err != nil {
		// No state advance: the same (or larger) window is retried on the
		// next chunk once the thresholds are met again.
		log.Warn().Err(err).Str("module", "core.dispatch").Str("session", string(d.session)).Int("bytes", size).Msg("transcription failed")
		return
	}

	fresh := d.diff(text)

	if forced {
		// Rotate the window: drop the dispatched audio and start a fresh
		// accumulation, so the buffer stays near MaxBuffer and the next
		// dispatch has to earn MinFirst again.
		log.Info().Str("module", "core.dispatch").Str("session", string(d.session)).Int("bytes", size).Msg("buffer cap reached, rotating window")
		d.buf = nil
		d.lastSize = 0
		d.lastText = ""
	} else {
		// State advances even when the remainder is empty, otherwise the
		// same audio window would be re-dispatched forever.
		d.lastSize = size
		d.lastText = text
	}

	if strings.TrimSpace(fresh) == "" {
		return
	}
	log.Info().Str("module", "core.dispatch").Str("session", string(d.session)).Str("role", string(d.role)).Int("bytes", size).Msg("transcript segment")
	d.out.Publish(d.session, d.role, fresh)
}

// diff derives the newly produced text from a re-requested full transcript.
// When the backend revised earlier words the prefix no longer matches; in that
// case guessing at a diff would drop or mangle words, so the whole text is
// returned and the mismatch is logged as an anomaly.
func (d *Dispatcher) diff(text string) string {
	if strings.HasPrefix(text, d.lastText) {
		return strings.TrimSpace(text[len(d.lastText):])
	}
	log.Warn().Str("module", "core.dispatch").Str("session", string(d.session)).Msg("transcript prefix mismatch, broadcasting full text")
	return strings.TrimSpace(text)
}

// BufferedBytes reports the current accumulation size.
func (d *Dispatcher) BufferedBytes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}
