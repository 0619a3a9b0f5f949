// Package signal is the WebSocket adapter for WebRTC signaling rooms.
package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/adapters/ws"
	"github.com/eakgun/intervo/internal/app"
	"github.com/eakgun/intervo/internal/domain"
)

type Controller struct {
	Relay      *app.Relay
	PingPeriod time.Duration
	ReadLimit  int64
	limiter    *ConnectLimiter
}

func NewController(relay *app.Relay, pingPeriod time.Duration, readLimit int64) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = 25 * time.Second
	}
	return &Controller{
		Relay:      relay,
		PingPeriod: pingPeriod,
		ReadLimit:  readLimit,
		limiter:    NewConnectLimiter(10, time.Minute),
	}
}

// HandleSignal upgrades the request and runs the connection's lifecycle:
// join, pumps, heartbeat, and teardown with a user-left notification.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	room := domain.RoomID(c.Param("room_id"))
	token := c.GetString("client_token")

	if !ctl.limiter.Allow(token) {
		log.Warn().Str("module", "signal").Str("room", string(room)).Msg("connect rate limit hit")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many connection attempts"})
		return
	}

	wsc, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("room", string(room)).Str("sid", token).Msg("new signaling connection")

	conn := ws.NewConn(wsc, 32)
	conn.SetReadLimit(ctl.ReadLimit)

	connCtx, cancel := context.WithCancel(ctx)
	conn.StartWriteLoop(connCtx)

	ctl.Relay.Join(room, conn)

	go ctl.heartbeat(connCtx, conn)
	go ctl.readPump(connCtx, cancel, room, conn)
}

// heartbeat keeps NATed connections alive with an application-level ping.
// A failed send means the connection is dead and the task just stops; closing
// the transport is the read pump's job.
func (ctl *Controller) heartbeat(ctx context.Context, conn *ws.Conn) {
	ping, _ := json.Marshal(map[string]string{"type": "ping"})
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.TrySend(ping); err != nil {
				log.Info().Err(err).Str("module", "signal").Msg("heartbeat send failed, stopping")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, room domain.RoomID, conn *ws.Conn) {
	defer func() {
		cancel()
		ctl.Relay.Disconnect(room, conn)
		conn.Close()
		log.Info().Str("module", "signal").Str("room", string(room)).Msg("readPump closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("room", string(room)).Msg("read error")
				return
			}
			ctl.Relay.HandleFrame(room, conn, data)
		}
	}
}
