// Package ws wraps gorilla WebSocket connections behind core.Conn.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/core"
)

var ErrBackpressure = errors.New("backpressure")
var ErrClosed = errors.New("connection closed")

var Upgrader = websocket.Upgrader{
	// The browser frontend is served from a different origin in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// Conn is a transport endpoint with a buffered outbound queue. Sends never
// block the caller: a full queue or a closed connection surfaces as an error
// so registries can treat the peer as gone.
type Conn struct {
	ws   *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func NewConn(wsc *websocket.Conn, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 32
	}
	return &Conn{ws: wsc, send: make(chan core.Frame, buffer)}
}

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
}

// ReadMessage blocks for the next inbound frame.
func (c *Conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

func (c *Conn) SetReadLimit(limit int64) {
	if limit > 0 {
		c.ws.SetReadLimit(limit)
	}
}

// StartWriteLoop pumps queued frames to the network as text messages.
// The adapter owns the transport; the loop closes it on exit.
func (c *Conn) StartWriteLoop(ctx context.Context) {
	go func() {
		defer c.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case data, ok := <-c.send:
				if !ok {
					return
				}
				if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					log.Error().Err(err).Str("module", "ws").Msg("set write deadline")
					return
				}
				if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Warn().Err(err).Str("module", "ws").Msg("write failed")
					return
				}
			}
		}
	}()
}
