package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saldo/internal/backend"
	"saldo/internal/cli"
	"saldo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting rollover-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	service := services.NewBudgetService(result.Backend, result.AMQPClient)
	processor := services.NewRolloverProcessor(result.Backend, service)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Rollover processor configured",
		"interval", cfg.RolloverInterval,
		"backend", cfg.DataBackend)

	ticker := time.NewTicker(cfg.RolloverInterval)
	defer ticker.Stop()

	// Run an initial sweep on startup
	logger.Info("Running initial rollover sweep...")
	if count, err := processor.ProcessStaleGroups(ctx, time.Now()); err != nil {
		logger.Error("Initial sweep failed", "error", err)
	} else {
		logger.Info("Initial sweep complete", "groups_rolled", count)
	}

	// Start periodic processing
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessStaleGroups(ctx, now)
				if err != nil {
					logger.Error("Periodic sweep failed", "error", err)
				} else {
					logger.Info("Periodic sweep complete",
						"groups_rolled", count,
						"next_check", now.Add(cfg.RolloverInterval).Format("15:04:05"))
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down rollover-worker...")
	cancel()

	// Give the sweep time to finish the current group
	time.Sleep(2 * time.Second)
	logger.Info("Rollover-worker shutdown complete")
}
