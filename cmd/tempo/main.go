package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tempo/internal/amqp"
	"tempo/internal/config"
	"tempo/internal/db"
	apphttp "tempo/internal/http"
	"tempo/internal/store"
	"tempo/internal/store/local"
	"tempo/internal/store/remote"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	localStore, err := local.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open local store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer localStore.Close()

	var remoteStore store.RemoteStore
	if cfg.RemoteEnabled() {
		remoteStore = remote.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
		logger.Info("Remote backend configured", "url", cfg.SupabaseURL)
	} else {
		logger.Info("Remote backend not configured, running on local store only")
	}

	var sync db.SyncPublisher
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The app still works without background sync; fallback writes
			// just stay local until the next manual reconciliation.
			logger.Warn("AMQP unavailable, fallback writes will not be replayed", "error", err)
		} else {
			defer amqpClient.Close()
			sync = amqpClient
			logger.Info("AMQP sync enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	data := db.New(remoteStore, localStore, sync)

	initCtx, initCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := data.Initialize(initCtx); err != nil {
		logger.Error("Initialization failed, continuing with per-call fallback", "error", err)
	}
	initCancel()

	srv := apphttp.NewServer(":"+cfg.Port, data, cfg.DefaultHourlyRate, cfg.ReportCacheTTL)
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tempo server", "port", cfg.Port, "remote_enabled", cfg.RemoteEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
