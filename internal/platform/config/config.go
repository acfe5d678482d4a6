// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (keystore, auth, sync) via constructors.
  - Zero Hidden State: No global variables are used to store config.

Every timer interval, TTL, and threshold the core uses is declared here so
that tests can inject short cadences instead of sleeping through real ones.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Solace core.
type Config struct {

	// Agent settings
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Remote API endpoints
	AuthAPIBaseURL string `env:"AUTH_API_BASE_URL,required"`
	SyncAPIBaseURL string `env:"SYNC_API_BASE_URL,required"`

	// Secure key-value store
	KeystoreBackend    string `env:"KEYSTORE_BACKEND"    envDefault:"file"` // "file" or "redis"
	KeystorePath       string `env:"KEYSTORE_PATH"       envDefault:"./data/keystore.bin"`
	KeystorePassphrase string `env:"KEYSTORE_PASSPHRASE,required"`

	// Key-Value store (Redis, only when KeystoreBackend=redis)
	RedisURL string `env:"REDIS_URL"`

	// Local structured store
	DatastoreBackend string `env:"DATASTORE_BACKEND" envDefault:"sqlite"` // "sqlite" or "postgres"
	SQLitePath       string `env:"SQLITE_PATH"       envDefault:"./data/solace.db"`
	DatabaseURL      string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory
	// (postgres backend only; sqlite migrates itself).
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Session lifecycle
	SessionTTL         time.Duration `env:"SESSION_TTL"          envDefault:"24h"`
	InactivityTimeout  time.Duration `env:"INACTIVITY_TIMEOUT"   envDefault:"15m"`
	SessionTick        time.Duration `env:"SESSION_TICK"         envDefault:"60s"`
	RefreshTick        time.Duration `env:"REFRESH_TICK"         envDefault:"30s"`
	RefreshThreshold   time.Duration `env:"REFRESH_THRESHOLD"    envDefault:"2m"`
	DefaultTokenExpiry time.Duration `env:"DEFAULT_TOKEN_EXPIRY" envDefault:"1h"`

	// Login rate limiting
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION"   envDefault:"15m"`

	// Sync engine
	SyncInterval   time.Duration `env:"SYNC_INTERVAL"    envDefault:"30s"`
	SyncMaxRetries int           `env:"SYNC_MAX_RETRIES" envDefault:"3"`
	SyncRPS        float64       `env:"SYNC_RPS"         envDefault:"5"`
	SyncBurst      int           `env:"SYNC_BURST"       envDefault:"10"`

	// Read cache
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Cross-field requirements that tags cannot express.
	if cfg.KeystoreBackend == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("config: REDIS_URL is required when KEYSTORE_BACKEND=redis")
	}
	if cfg.DatastoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required when DATASTORE_BACKEND=postgres")
	}

	return cfg, nil
}

// IsDevelopment reports whether the agent is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the agent is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
