package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/eakgun/intervo/internal/adapters/http"
	ingestws "github.com/eakgun/intervo/internal/adapters/ingest"
	signalws "github.com/eakgun/intervo/internal/adapters/signal"
	transcriptws "github.com/eakgun/intervo/internal/adapters/transcript"
	"github.com/eakgun/intervo/internal/app"
	"github.com/eakgun/intervo/internal/config"
	"github.com/eakgun/intervo/internal/core"
	"github.com/eakgun/intervo/internal/report"
	"github.com/eakgun/intervo/internal/store"
	"github.com/eakgun/intervo/internal/stt"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	transcriber := newTranscriber(ctx, cfg)

	rooms := core.NewRooms()
	hub := core.NewTranscriptHub()
	relay := app.NewRelay(rooms)
	ingestSvc := app.NewIngest(core.DispatchConfig{
		NoiseFloor: cfg.STT.NoiseFloor,
		MinFirst:   cfg.STT.MinFirst,
		MinDelta:   cfg.STT.MinDelta,
		MaxBuffer:  cfg.STT.MaxBuffer,
		Language:   cfg.STT.Language,
	}, transcriber, hub)

	var reports *report.Generator
	if cfg.GeminiAPIKey != "" {
		reports, err = report.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.ReportModel)
		if err != nil {
			log.Error().Err(err).Msg("report generator init failed")
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, report endpoints disabled")
	}
	supabase := store.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey)

	r := router.SetupRouter(ctx, cfg,
		signalws.NewController(relay, cfg.PingPeriod, cfg.ReadLimit),
		transcriptws.NewController(hub, cfg.IdleProbe),
		ingestws.NewController(ingestSvc, cfg.ReadLimit),
		router.NewInterviewAPI(reports, supabase),
	)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Intervo server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func newTranscriber(ctx context.Context, cfg *config.Config) core.Transcriber {
	switch cfg.STT.Provider {
	case "gemini":
		g, err := stt.NewGemini(ctx, cfg.GeminiAPIKey, cfg.STT.Model)
		if err != nil {
			log.Error().Err(err).Msg("gemini transcriber init failed, falling back to whisper")
			return stt.NewWhisper(cfg.OpenAIAPIKey, "")
		}
		return g
	default:
		return stt.NewWhisper(cfg.OpenAIAPIKey, cfg.STT.Model)
	}
}
