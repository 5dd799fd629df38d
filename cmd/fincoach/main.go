package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fincoach/internal/backend"
	"fincoach/internal/cache"
	"fincoach/internal/cli"
	apphttp "fincoach/internal/http"
	"fincoach/internal/log"
	"fincoach/internal/services"
	"fincoach/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	engine, err := cli.NewEngine(cfg)
	if err != nil {
		logger.Error("Failed to build engine", log.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	ledger, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger backend", log.FieldError, err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}

	publisher, err := factory.CreateAuditPublisher(backendCfg)
	if err != nil {
		// the journal is optional; answers never wait on it
		logger.Warn("Advice audit journal unavailable", log.FieldError, err)
	}

	defaults := cli.DefaultSettings(cfg)
	sessions := session.NewStore(session.StoreConfig{
		MaxSessions: cfg.SessionMax,
		TTL:         cfg.SessionTTL,
		Defaults:    defaults,
	}, ledger.Backend, logger)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(sessions.Cleaner())
	cacheManager.StartCleanup(time.Minute)

	coach := services.NewCoachService(engine, sessions, publisher, logger)

	srv := apphttp.NewServer(":"+cfg.Port, coach, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SessionTTL:         cfg.SessionTTL,
		Defaults:           defaults,
		Ready:              ledger.Ping,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := coach.Close(); err != nil {
			logger.Error("Coach shutdown error", log.FieldError, err)
		}
		if ledger.Cleanup != nil {
			if err := ledger.Cleanup(); err != nil {
				logger.Error("Ledger cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting fincoach server",
		"port", cfg.Port,
		"backend", cfg.LedgerBackend,
		log.FieldWindow, engine.Policy().Describe(time.Now()),
		"audit_journal", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
