package core

import (
	"context"

	"github.com/eakgun/intervo/internal/domain"
)

// Frame is a raw payload delivered over a connection (JSON text or audio bytes).
type Frame []byte

// Conn abstracts a system messaging transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// Transcriber turns accumulated audio bytes into a full transcript text.
// Implementations fail soft from the caller's point of view: any error means
// "no new transcript this cycle", never a protocol error to the client.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Publisher delivers a role-tagged transcript line to a session's subscribers.
type Publisher interface {
	Publish(session domain.SessionID, role domain.Role, text string)
}
