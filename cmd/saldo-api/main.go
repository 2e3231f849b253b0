package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"saldo/internal/backend"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/events"
	apphttp "saldo/internal/http"
	"saldo/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(log.ComponentApp, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	bus := events.NewBus()
	registry := core.NewRegistry(core.PresetCategories)

	backendCfg, err := backend.FromAppConfig(cfg, registry)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger, bus).
		CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		Registry:           registry,
		Bus:                bus,
		Logger:             logger,
	}, result.Service)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting saldo API",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", cfg.AMQPURL != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = result.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
