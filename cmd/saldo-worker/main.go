package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"saldo/internal/amqp"
	"saldo/internal/apiclient"
	"saldo/internal/cli"
	"saldo/internal/config"
	"saldo/internal/log"
	gsheet "saldo/internal/sheets/google"
	"saldo/internal/store"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(log.ComponentWorker, cfg.LogLevel)
	logger.Info("Starting saldo-worker")

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	mirror, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	// the API is only needed to read back transactions; the worker runs without it
	var source store.TransactionStore
	if err := cfg.ValidateClient(); err != nil {
		logger.Warn("API source disabled", "error", err)
	} else if client, err := apiclient.New(cfg.APIBaseURL, cfg.APITimeout); err != nil {
		logger.Warn("API source disabled", "error", err)
	} else {
		source = client
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	metrics := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err, "addr", cfg.WorkerMetricsAddr)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := metrics.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown error", "error", err)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	mirrorWorker := worker.NewMirrorWorker(mirror, source)

	// catch up on changes missed while the worker was down
	logger.Info("Performing startup reconcile...")
	if err := mirrorWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", "error", err)
	}

	go func() {
		if err := amqpClient.ConsumeChanges(ctx, mirrorWorker.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
