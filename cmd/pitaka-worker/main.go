package main

import (
	"context"
	"errors"
	"os"
	"time"

	"pitaka/internal/amqp"
	"pitaka/internal/cli"
	"pitaka/internal/log"
	"pitaka/internal/services"
	"pitaka/internal/sheets"
	gsheet "pitaka/internal/sheets/google"
	memsheet "pitaka/internal/sheets/memory"
	"pitaka/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting pitaka-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	st, closeStore := cli.InitStore(context.Background(), logger, cfg)

	// The worker only reads records, so it neither notifies nor publishes.
	records := services.NewRecordService(st, services.Options{
		Location:   cfg.Location(),
		DateLayout: cfg.DisplayDateLayout,
	}, logger)

	var writer sheets.HistoryWriter
	if cfg.MirrorEnabled() {
		client, err := gsheet.NewFromConfig(context.Background(), cfg, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memsheet.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, history kept in memory")
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(records, writer, cfg.SyncBatchSize, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
		if closeStore != nil {
			if err := closeStore(); err != nil {
				logger.Error("Failed to close store", log.FieldError, err)
			}
		}
	})

	go func() {
		if err := amqpClient.ConsumeRecordChanges(ctx, syncWorker.HandleRecordChanged); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	// Retries users whose mirror failed, in case no further change arrives.
	go syncWorker.Run(ctx, cfg.SyncInterval)

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval,
		"batch_size", cfg.SyncBatchSize)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
