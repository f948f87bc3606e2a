package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/cli"
	"saldo/internal/remote/firestore"
	"saldo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting saldo-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// SQLite holds the states the worker reads and the sync markers
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	// Firestore client is the push target (optional)
	var remote *firestore.Client
	var err error
	if cfg.FirestoreProjectID != "" {
		remote, err = firestore.New(context.Background(), firestore.Config{
			ProjectID:       cfg.FirestoreProjectID,
			DatabaseID:      cfg.FirestoreDatabaseID,
			Collection:      cfg.FirestoreCollection,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Firestore client", "error", err)
			os.Exit(1)
		}
		logger.Info("Firestore client initialized",
			"project", cfg.FirestoreProjectID,
			"collection", cfg.FirestoreCollection)
	} else {
		logger.Info("Firestore disabled - no FIRESTORE_PROJECT_ID provided")
	}

	// AMQP client for consuming sync messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if remote == nil {
		logger.Info("Skipping sync operations - no remote store available")
		waitForShutdown(ctx, logger)
		return
	}

	syncWorker := worker.NewSyncWorker(sqliteRepo, remote, cfg.SyncBatchSize)

	// On startup, push any states that might have been missed
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	// Consume messages and sweep pending states until shutdown
	go func() {
		if err := syncWorker.Run(ctx, amqpClient, cfg.SyncInterval); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Sync worker stopped", "error", err)
			}
			cancel()
		}
	}()

	waitForShutdown(ctx, logger)

	// Graceful shutdown
	logger.Info("Shutting down worker...")
	cancel()

	// Give worker time to finish current operations
	time.Sleep(5 * time.Second)
	logger.Info("Worker shutdown complete")
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}
}
