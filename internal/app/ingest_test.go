package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eakgun/intervo/internal/domain"
)

type staticSTT struct {
	mu    sync.Mutex
	text  string
	calls int
}

func (s *staticSTT) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.text, nil
}

type recordPublisher struct {
	mu    sync.Mutex
	lines []domain.TranscriptLine
	sess  []domain.SessionID
}

func (p *recordPublisher) Publish(session domain.SessionID, role domain.Role, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sess = append(p.sess, session)
	p.lines = append(p.lines, domain.TranscriptLine{Role: string(role), Text: text})
}

func TestSessionStateCreatedLazily(t *testing.T) {
	svc := NewIngest(testDispatchConfig(), &staticSTT{text: "hi"}, &recordPublisher{})

	require.False(t, svc.Active("s1"))
	svc.Feed(context.Background(), "s1", domain.RoleCandidate, make([]byte, 1000))
	require.True(t, svc.Active("s1"))
}

func TestEndSessionIdempotent(t *testing.T) {
	svc := NewIngest(testDispatchConfig(), &staticSTT{}, &recordPublisher{})

	// Ending a session that never existed must not panic.
	svc.EndSession("ghost")
	require.False(t, svc.Active("ghost"))

	svc.Feed(context.Background(), "s1", domain.RoleCandidate, make([]byte, 1000))
	require.True(t, svc.Active("s1"))

	svc.EndSession("s1")
	svc.EndSession("s1")
	require.False(t, svc.Active("s1"))
}

func TestNoCrossConnectionReuse(t *testing.T) {
	stt := &staticSTT{text: "words"}
	svc := NewIngest(testDispatchConfigSmall(), stt, &recordPublisher{})

	// Fill just below the floor, then tear down: the buffered audio is gone.
	svc.Feed(context.Background(), "s1", domain.RoleCandidate, make([]byte, 3000))
	svc.EndSession("s1")

	// A fresh connection starts from zero and must reach the floor again.
	svc.Feed(context.Background(), "s1", domain.RoleCandidate, make([]byte, 3000))
	require.Equal(t, 0, stt.calls)
	svc.Feed(context.Background(), "s1", domain.RoleCandidate, make([]byte, 1000))
	require.Equal(t, 1, stt.calls)
}

func TestSessionsAreIndependent(t *testing.T) {
	stt := &staticSTT{text: "ok"}
	out := &recordPublisher{}
	svc := NewIngest(testDispatchConfigSmall(), stt, out)

	svc.Feed(context.Background(), "s1", domain.RoleCandidate, make([]byte, 4000))
	svc.Feed(context.Background(), "s2", domain.RoleInterviewer, make([]byte, 4000))

	require.ElementsMatch(t, []domain.SessionID{"s1", "s2"}, out.sess)
	svc.EndSession("s1")
	require.False(t, svc.Active("s1"))
	require.True(t, svc.Active("s2"))
}
