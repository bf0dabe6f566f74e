package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/StageStream/internal/adapters/events"
	router "github.com/dkeye/StageStream/internal/adapters/http"
	"github.com/dkeye/StageStream/internal/adapters/rtc"
	"github.com/dkeye/StageStream/internal/app"
	"github.com/dkeye/StageStream/internal/app/media"
	"github.com/dkeye/StageStream/internal/app/signaling"
	"github.com/dkeye/StageStream/internal/app/stage"
	"github.com/dkeye/StageStream/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	factory, err := rtc.NewFactory(rtc.WebRTCConfig(cfg.ICEServers), zerolog.WarnLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init webrtc")
	}

	// Sessions outlive requests and the signal context; Shutdown closes them.
	svcCtx, svcCancel := context.WithCancel(context.Background())
	defer svcCancel()

	hub := app.NewHub(app.SimplePolicy{})
	svc := signaling.NewService(svcCtx, app.NewRegistry(), factory, hub, signaling.Config{
		Mode:      signaling.Mode(cfg.Negotiation),
		Transform: cfg.Stream.Transform,
		Pump: media.PumpConfig{
			FPS: cfg.Stream.FPS,
			MTU: uint16(cfg.Stream.MTU),
		},
	})

	h := &router.Handlers{
		Streams:       svc,
		Stage:         stage.LogMover{},
		GatherTimeout: cfg.GatherTimeout,
	}
	if cfg.RateLimit.Start > 0 {
		h.StartLimiter = router.NewRateLimiter(cfg.RateLimit.Start, cfg.RateLimit.Interval)
	}

	r := router.SetupRouter(ctx, cfg, h, events.NewWSController(hub, cfg.Events.Buffer))
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("StageStream server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	svc.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
