package main

import (
	"context"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateWorkerConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	journal, err := backend.NewFactory(logger).CreateJournal(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize journal", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Journal initialized", "kind", journal.Kind)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(journal.Journal)
	if err := syncWorker.Prepare(ctx); err != nil {
		// Appends still work on a sheet without a header row.
		logger.Error("Failed to prepare journal", log.FieldError, err)
	}

	err = cli.Run(ctx, logger, 10*time.Second,
		func(ctx context.Context) error {
			return amqpClient.ConsumeTransactionEvents(ctx, syncWorker.HandleEventMessage)
		},
		func(context.Context) error { return amqpClient.Close() })
	if err != nil {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
