package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvrepair/internal/config"
	"github.com/JonMunkholm/csvrepair/internal/core"
	"github.com/JonMunkholm/csvrepair/internal/history"
	"github.com/JonMunkholm/csvrepair/internal/logging"
	"github.com/JonMunkholm/csvrepair/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"line_ending", cfg.Repair.LineEnding,
		"repair_max_concurrent", cfg.Repair.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_persistent", cfg.Database.Enabled(),
	)

	ctx := context.Background()
	store, backend, closeStore, err := openHistory(ctx, &cfg.Database)
	if err != nil {
		slog.Error("failed to open repair history", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := core.NewService(store, serviceOptions(cfg))
	server := web.NewServer(service, cfg, backend)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight repairs to complete (with timeout)
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for repairs to complete", "active", status.Active)
			if err := service.WaitForRepairs(shutdownCtx); err != nil {
				slog.Warn("repairs did not complete in time", "error", err)
			} else {
				slog.Info("all repairs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// openHistory connects the Postgres store when a database URL is configured
// and falls back to an in-memory store otherwise. The returned func releases
// the pool.
func openHistory(ctx context.Context, cfg *config.DatabaseConfig) (history.Store, string, func(), error) {
	if !cfg.Enabled() {
		slog.Info("no database configured, keeping repair history in memory")
		return history.NewMemStore(history.DefaultMemCapacity), "memory", func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, "", nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, "", nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, "", nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := history.NewPgStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, "", nil, fmt.Errorf("ensure history schema: %w", err)
	}

	return store, "postgres", pool.Close, nil
}

// serviceOptions maps configuration onto the repair service.
func serviceOptions(cfg *config.Config) core.Options {
	return core.Options{
		Pipeline:            cfg.Repair.PipelineOptions(),
		Guard:               cfg.Repair.InjectionGuard(),
		MaxConcurrent:       cfg.Repair.MaxConcurrent,
		MaxWait:             cfg.Repair.MaxWaitTime,
		DefaultHistoryLimit: cfg.History.DefaultLimit,
		MaxHistoryLimit:     cfg.History.MaxLimit,
	}
}
