package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/eakgun/intervo/internal/adapters/ingest"
	"github.com/eakgun/intervo/internal/adapters/signal"
	"github.com/eakgun/intervo/internal/adapters/transcript"
	"github.com/eakgun/intervo/internal/config"
)

// ClientTokenMiddleware pins an anonymous identity to the browser so the
// connect limiter has something stable to key on.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// SetupRouter wires the WebSocket endpoints and the REST API.
func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	signalCtl *signal.Controller,
	transcriptCtl *transcript.Controller,
	ingestCtl *ingest.Controller,
	interviews *InterviewAPI,
) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	// The frontend is hosted separately; allow it in from anywhere.
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowCredentials = false
	r.Use(cors.New(corsCfg))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("IntervoSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api/v1")

	api.GET("/signaling/ws/:room_id", func(c *gin.Context) {
		signalCtl.HandleSignal(ctx, c)
	})
	api.GET("/ws/transcript", func(c *gin.Context) {
		transcriptCtl.HandleTranscript(ctx, c)
	})
	api.GET("/ws/stt", func(c *gin.Context) {
		ingestCtl.HandleSTT(ctx, c)
	})

	api.GET("/webrtc/config", func(c *gin.Context) {
		servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
		for _, u := range cfg.ICEServers {
			servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
		}
		c.JSON(http.StatusOK, gin.H{"iceServers": servers})
	})

	api.POST("/interviews", interviews.CreateInterview)
	api.POST("/ai/questions", interviews.SuggestQuestions)

	return r
}
