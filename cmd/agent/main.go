// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

// Command agent is the entry point for the Solace client core.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the secure keystore (file or Redis backend).
//  4. Open the structured datastore (sqlite or postgres backend),
//     running migrations for postgres.
//  5. Wire device identity, auth service, and session monitor.
//  6. Wire the sync engine over the shared datastore and cache.
//  7. Run until SIGINT/SIGTERM, then tear down timers and connections.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/solacehq/solace/internal/data"
	"github.com/solacehq/solace/internal/identity/auth"
	"github.com/solacehq/solace/internal/identity/device"
	"github.com/solacehq/solace/internal/keystore"
	"github.com/solacehq/solace/internal/platform/config"
	"github.com/solacehq/solace/internal/platform/constants"
	"github.com/solacehq/solace/internal/platform/migration"
	pgstore "github.com/solacehq/solace/internal/platform/postgres"
	redisstore "github.com/solacehq/solace/internal/platform/redis"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Solace] agent_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("keystore_backend", cfg.KeystoreBackend),
		slog.String("datastore_backend", cfg.DatastoreBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Secure Keystore ────────────────────────────────────────────────
	var secureStore keystore.Store
	switch cfg.KeystoreBackend {
	case "redis":
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
		secureStore = keystore.NewRedisStore(rdb, constants.AppName, log)
	default:
		fileStore, err := keystore.NewFileStore(cfg.KeystorePath, cfg.KeystorePassphrase, log)
		must(log, err, "open keystore")
		secureStore = fileStore
	}

	// ── 4. Structured Datastore ───────────────────────────────────────────
	var datastore data.Store
	switch cfg.DatastoreBackend {
	case "postgres":
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")
		datastore = data.NewPostgresStore(pool)
	default:
		sqliteStore, err := data.NewSQLiteStore(cfg.SQLitePath, log)
		must(log, err, "open sqlite datastore")
		datastore = sqliteStore
	}
	defer func() {
		log.Info("closing datastore")
		if cerr := datastore.Close(); cerr != nil {
			log.Error("datastore close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Identity & Auth ────────────────────────────────────────────────
	deviceProvider := device.NewProvider(secureStore, device.RuntimeInfo)

	authClient := auth.NewClient(cfg.AuthAPIBaseURL, nil, log)
	authService := auth.NewService(secureStore, authClient, deviceProvider, auth.Options{
		SessionTTL:        cfg.SessionTTL,
		InactivityTimeout: cfg.InactivityTimeout,
		SessionTick:       cfg.SessionTick,
		RefreshTick:       cfg.RefreshTick,
		TokenExpiry:       cfg.DefaultTokenExpiry,
		RefreshThreshold:  cfg.RefreshThreshold,
		MaxLoginAttempts:  cfg.MaxLoginAttempts,
		LockoutDuration:   cfg.LockoutDuration,
	}, log)

	// Resume monitoring if a session survived the restart.
	if authService.IsAuthenticated(context.Background()) {
		log.Info("persisted_session_found")
		authService.StartMonitor()
	}

	// ── 6. Sync Engine ────────────────────────────────────────────────────
	connectivity := data.NewConnectivity(true)
	queryCache := data.NewQueryCache(cfg.CacheTTL)

	syncClient := data.NewSyncClient(cfg.SyncAPIBaseURL, nil, authService.AccessToken,
		cfg.SyncRPS, cfg.SyncBurst, log)

	engine := data.NewEngine(datastore, syncClient, queryCache, connectivity,
		cfg.SyncInterval, cfg.SyncMaxRetries, log)
	engine.Start()

	// Drain any backlog left over from the previous run right away
	// instead of waiting out the first interval.
	engine.SyncNow()

	log.Info("agent_started")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	sig := <-quit
	log.Info("shutdown signal received", slog.String("signal", sig.String()))

	engine.Stop()
	authService.Stop()

	log.Info("agent stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
