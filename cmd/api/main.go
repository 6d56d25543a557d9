package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/api"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/audit"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/blink"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/config"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/database"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/face"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/frame"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/repository"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/service"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/webhook"
	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// pinger is implemented by landmark providers that run out of process
type pinger interface {
	Ping(ctx context.Context) error
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Blinkcheck",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.LandmarkProvider),
		slog.Float64("blink_threshold", cfg.BlinkThreshold),
		slog.Int("blink_frames", cfg.BlinkFrames),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	landmarkProvider, err := face.NewLandmarkProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create landmark provider: %w", err)
	}

	tracker := blink.NewTracker(blink.Config{
		Threshold: cfg.BlinkThreshold,
		MinFrames: cfg.BlinkFrames,
	}, logger)

	frameOpts := frame.DefaultOptions()
	frameOpts.MaxBytes = cfg.MaxFrameBytes
	frameOpts.MaxWidth = cfg.FrameMaxWidth

	hub := ws.NewHub(logger)

	svc := service.NewLivenessService(tracker, landmarkProvider).
		WithBroadcaster(hub).
		WithFrameOptions(frameOpts).
		WithVerifiedScore(cfg.VerifiedScore).
		WithLogger(logger)

	var checks []handler.ReadinessCheck
	if p, ok := landmarkProvider.(pinger); ok {
		checks = append(checks, handler.ReadinessCheck{Name: "provider", Check: p.Ping})
	}

	auditLoggers := []audit.Logger{audit.NewSlogLogger(logger)}

	// Event log
	if cfg.EventLogEnabled() {
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		repo := repository.NewEventRepository(pool)
		auditLoggers = append(auditLoggers, audit.NewStoreLogger(repo))
		svc.WithEventReader(repo)

		checks = append(checks, handler.ReadinessCheck{
			Name:  "database",
			Check: func(ctx context.Context) error { return database.HealthCheck(ctx, pool) },
		})

		logger.Info("event log enabled")
	}

	// Webhook notifications
	if cfg.WebhookEnabled() {
		whConfig := webhook.DefaultConfig()
		whConfig.URL = cfg.WebhookURL
		whConfig.Secret = cfg.WebhookSecret
		whConfig.MaxAttempts = cfg.WebhookMaxAttempts
		whConfig.Events = make([]audit.EventType, 0, len(cfg.WebhookEvents))
		for _, e := range cfg.WebhookEvents {
			whConfig.Events = append(whConfig.Events, audit.EventType(e))
		}

		notifier := webhook.NewNotifier(whConfig, logger)
		go notifier.Run(ctx)
		defer notifier.Stop()

		auditLoggers = append(auditLoggers, notifier)
	}

	svc.WithAuditLogger(audit.NewMultiLogger(auditLoggers...))

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Service:       svc,
		Hub:           hub,
		Checks:        checks,
		RateLimitMax:  cfg.RateLimitMax,
		MaxFrameBytes: cfg.MaxFrameBytes,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")

	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")

	return nil
}
