package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eakgun/intervo/internal/domain"
)

// scriptedSTT returns canned results per call and records the window sizes it
// was handed.
type scriptedSTT struct {
	mu      sync.Mutex
	results []string
	errs    []error
	sizes   []int
}

func (s *scriptedSTT) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := len(s.sizes)
	s.sizes = append(s.sizes, len(audio))
	var err error
	if call < len(s.errs) {
		err = s.errs[call]
	}
	var text string
	if call < len(s.results) {
		text = s.results[call]
	}
	return text, err
}

func (s *scriptedSTT) calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.sizes...)
}

type capturePublisher struct {
	mu    sync.Mutex
	lines []string
	roles []domain.Role
}

func (p *capturePublisher) Publish(_ domain.SessionID, role domain.Role, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, text)
	p.roles = append(p.roles, role)
}

func (p *capturePublisher) texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

func testConfig() DispatchConfig {
	return DispatchConfig{NoiseFloor: 100, MinFirst: 40000, MinDelta: 20000, MaxBuffer: 8 << 20, Language: "tr"}
}

func feed(d *Dispatcher, n int) {
	d.Ingest(context.Background(), make([]byte, n))
}

func TestDispatchThresholds(t *testing.T) {
	stt := &scriptedSTT{results: []string{"a", "a b"}}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, testConfig(), stt, out)

	// Below the first-dispatch floor: no call, no matter how many chunks.
	feed(d, 10000)
	feed(d, 10000)
	feed(d, 10000)
	require.Empty(t, stt.calls())

	// Floor reached at 40000: first dispatch over the whole buffer.
	feed(d, 10000)
	require.Equal(t, []int{40000}, stt.calls())

	// Growth below the delta: no second call.
	feed(d, 10000)
	require.Equal(t, []int{40000}, stt.calls())

	// Delta reached at 60000: second dispatch, again the full buffer.
	feed(d, 10000)
	require.Equal(t, []int{40000, 60000}, stt.calls())
}

func TestNoiseFloorChunksDiscarded(t *testing.T) {
	stt := &scriptedSTT{}
	d := NewDispatcher("s1", domain.RoleCandidate, testConfig(), stt, &capturePublisher{})

	for i := 0; i < 1000; i++ {
		feed(d, 50) // below the 100-byte floor
	}
	require.Equal(t, 0, d.BufferedBytes())
	require.Empty(t, stt.calls())
}

func TestPrefixDiffBroadcastsOnlySuffix(t *testing.T) {
	stt := &scriptedSTT{results: []string{"Hello", "Hello world"}}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, testConfig(), stt, out)

	feed(d, 40000)
	feed(d, 20000)
	require.Equal(t, []string{"Hello", "world"}, out.texts())
}

func TestPrefixMismatchBroadcastsFullText(t *testing.T) {
	stt := &scriptedSTT{results: []string{"Hello", "Goodbye"}}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, testConfig(), stt, out)

	feed(d, 40000)
	feed(d, 20000)
	require.Equal(t, []string{"Hello", "Goodbye"}, out.texts())
}

func TestEmptyResultStillAdvancesState(t *testing.T) {
	stt := &scriptedSTT{results: []string{"", "spoke"}}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, testConfig(), stt, out)

	feed(d, 40000)
	require.Equal(t, []int{40000}, stt.calls())
	require.Empty(t, out.texts())

	// The empty window must not be re-dispatched: the next call needs
	// another full delta of growth.
	feed(d, 10000)
	require.Equal(t, []int{40000}, stt.calls())
	feed(d, 10000)
	require.Equal(t, []int{40000, 60000}, stt.calls())
	require.Equal(t, []string{"spoke"}, out.texts())
}

func TestTranscriberErrorDoesNotAdvanceState(t *testing.T) {
	stt := &scriptedSTT{
		results: []string{"", "recovered"},
		errs:    []error{errors.New("backend down"), nil},
	}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, testConfig(), stt, out)

	feed(d, 40000)
	require.Empty(t, out.texts())

	// State did not advance, so the very next chunk retries with a larger
	// window instead of waiting for a fresh delta.
	feed(d, 100)
	require.Equal(t, []int{40000, 40100}, stt.calls())
	require.Equal(t, []string{"recovered"}, out.texts())
}

func TestBufferCapForcesDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBuffer = 50000
	stt := &scriptedSTT{results: []string{"one", "one two"}}
	d := NewDispatcher("s1", domain.RoleCandidate, cfg, stt, &capturePublisher{})

	feed(d, 40000)
	require.Equal(t, []int{40000}, stt.calls())

	// 10000 of growth is below the delta, but the cap forces the call.
	feed(d, 10000)
	require.Equal(t, []int{40000, 50000}, stt.calls())
}

func TestBufferCapRotatesWindow(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBuffer = 50000
	stt := &scriptedSTT{results: []string{"one", "one two", "three"}}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, cfg, stt, out)

	feed(d, 40000)
	feed(d, 10000) // cap hit: forced dispatch, then the buffer is dropped
	require.Equal(t, []int{40000, 50000}, stt.calls())
	require.Equal(t, 0, d.BufferedBytes())

	// After the rotation the gates apply as if the session were new: small
	// chunks must not each fire a call against an ever-growing buffer.
	for i := 0; i < 5; i++ {
		feed(d, 100)
	}
	require.Equal(t, []int{40000, 50000}, stt.calls())
	require.Equal(t, 500, d.BufferedBytes())

	// Once MinFirst is earned again the fresh window dispatches, and its
	// transcript stands alone rather than diffing against the old one.
	feed(d, 39500)
	require.Equal(t, []int{40000, 50000, 40000}, stt.calls())
	require.Equal(t, []string{"one", "two", "three"}, out.texts())
}

func TestBufferCapDispatchFailureKeepsBuffer(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBuffer = 50000
	stt := &scriptedSTT{
		results: []string{"", "kept"},
		errs:    []error{errors.New("backend down"), nil},
	}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleCandidate, cfg, stt, out)

	feed(d, 50000)
	require.Equal(t, []int{50000}, stt.calls())

	// The failed forced dispatch must not drop audio: the retry carries the
	// whole window, and only the successful call rotates.
	feed(d, 100)
	require.Equal(t, []int{50000, 50100}, stt.calls())
	require.Equal(t, []string{"kept"}, out.texts())
	require.Equal(t, 0, d.BufferedBytes())
}

func TestRolePassedThrough(t *testing.T) {
	stt := &scriptedSTT{results: []string{"text"}}
	out := &capturePublisher{}
	d := NewDispatcher("s1", domain.RoleInterviewer, testConfig(), stt, out)

	feed(d, 40000)
	require.Equal(t, []domain.Role{domain.RoleInterviewer}, out.roles)
}
