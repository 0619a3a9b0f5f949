// Package transcript is the WebSocket adapter for live transcript viewers.
package transcript

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/adapters/ws"
	"github.com/eakgun/intervo/internal/core"
	"github.com/eakgun/intervo/internal/domain"
)

type Controller struct {
	Hub       *core.TranscriptHub
	IdleProbe time.Duration
}

func NewController(hub *core.TranscriptHub, idleProbe time.Duration) *Controller {
	if idleProbe <= 0 {
		idleProbe = 30 * time.Second
	}
	return &Controller{Hub: hub, IdleProbe: idleProbe}
}

// HandleTranscript subscribes the connection to its session's transcript feed.
// The connection exists to receive; the only inbound traffic honored is a
// literal "ping", answered with "pong".
func (ctl *Controller) HandleTranscript(ctx context.Context, c *gin.Context) {
	session := domain.SessionID(c.Query("session_id"))
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}

	wsc, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "transcript").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "transcript").Str("session", string(session)).Msg("new transcript subscriber")

	conn := ws.NewConn(wsc, 64)
	connCtx, cancel := context.WithCancel(ctx)
	conn.StartWriteLoop(connCtx)

	ctl.Hub.Subscribe(session, conn)

	activity := make(chan struct{}, 1)
	go ctl.prober(connCtx, conn, activity)
	go ctl.readPump(connCtx, cancel, session, conn, activity)
}

// prober sends a bare "ping" when the client has been silent for the idle
// window. Failure to send terminates the connection's lifecycle immediately.
func (ctl *Controller) prober(ctx context.Context, conn *ws.Conn, activity <-chan struct{}) {
	timer := time.NewTimer(ctl.IdleProbe)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-activity:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(ctl.IdleProbe)
		case <-timer.C:
			if err := conn.TrySend(core.Frame("ping")); err != nil {
				log.Info().Err(err).Str("module", "transcript").Msg("idle probe failed, closing")
				conn.Close()
				return
			}
			timer.Reset(ctl.IdleProbe)
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, session domain.SessionID, conn *ws.Conn, activity chan<- struct{}) {
	defer func() {
		cancel()
		ctl.Hub.Unsubscribe(session, conn)
		conn.Close()
		log.Info().Str("module", "transcript").Str("session", string(session)).Msg("subscriber closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			select {
			case activity <- struct{}{}:
			default:
			}
			if mt == websocket.TextMessage && string(data) == "ping" {
				_ = conn.TrySend(core.Frame("pong"))
			}
		}
	}
}
