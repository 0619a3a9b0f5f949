// Package ingest is the WebSocket adapter for the raw audio stream feeding
// the transcription pipeline.
package ingest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/adapters/ws"
	"github.com/eakgun/intervo/internal/app"
	"github.com/eakgun/intervo/internal/domain"
)

type Controller struct {
	Ingest    *app.Ingest
	ReadLimit int64
}

func NewController(svc *app.Ingest, readLimit int64) *Controller {
	return &Controller{Ingest: svc, ReadLimit: readLimit}
}

// HandleSTT receives binary audio frames for one session. Nothing is written
// back on this stream; transcripts flow out on the subscribe endpoint. All
// session state is discarded when the connection ends, however it ends.
func (ctl *Controller) HandleSTT(ctx context.Context, c *gin.Context) {
	session := domain.SessionID(c.Query("session_id"))
	if session == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id is required"})
		return
	}
	role := domain.ParseRole(c.Query("role"))

	wsc, err := ws.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ingest").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		wsc.SetReadLimit(ctl.ReadLimit)
	}
	log.Info().Str("module", "ingest").Str("session", string(session)).Str("role", string(role)).Msg("new audio connection")

	go ctl.readPump(ctx, session, role, wsc)
}

func (ctl *Controller) readPump(ctx context.Context, session domain.SessionID, role domain.Role, wsc *websocket.Conn) {
	defer func() {
		ctl.Ingest.EndSession(session)
		_ = wsc.Close()
		log.Info().Str("module", "ingest").Str("session", string(session)).Msg("audio connection closed")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			mt, data, err := wsc.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ingest").Str("session", string(session)).Msg("read error")
				return
			}
			if mt != websocket.BinaryMessage {
				// The recorder only sends binary frames; anything else is
				// ignored rather than treated as a protocol violation.
				continue
			}
			ctl.Ingest.Feed(ctx, session, role, data)
		}
	}
}
