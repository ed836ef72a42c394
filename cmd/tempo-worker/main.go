package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tempo/internal/amqp"
	"tempo/internal/config"
	"tempo/internal/store/remote"
	"tempo/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting tempo-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.RemoteEnabled() {
		logger.Error("Worker requires a configured remote backend (SUPABASE_URL, SUPABASE_ANON_KEY)")
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("Worker requires AMQP_URL")
		os.Exit(1)
	}

	remoteStore := remote.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(remoteStore)

	go func() {
		if err := amqpClient.ConsumeRecordSync(ctx, func(msg *amqp.RecordSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		}); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
			}
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()

	// Give in-flight deliveries a moment to settle before exiting.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
