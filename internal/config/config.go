// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package config

import (
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

// Config holds all application configuration.
//
// Loading order (Koanf v2):
//  1. Defaults
//  2. Config file (config.yaml)
//  3. Environment variables
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	db, err := database.New(&cfg.Database)
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Database  DatabaseConfig   `koanf:"database"`
	API       APIConfig        `koanf:"api"`
	Security  SecurityConfig   `koanf:"security"`
	Audit     AuditConfig      `koanf:"audit"`
	NATS      NATSConfig       `koanf:"nats"`
	Logging   LoggingConfig    `koanf:"logging"`
	Directory models.Directory `koanf:"directory"` // Optional: site/zone/camera catalog
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`       // 0 = NumCPU
	SeedFixtures bool   `koanf:"seed_fixtures"` // Development only
	FixtureCount int    `koanf:"fixture_count"`
	FixtureSeed  uint64 `koanf:"fixture_seed"`
}

// APIConfig holds pagination and export settings
type APIConfig struct {
	PageSize      int `koanf:"page_size"`
	MaxPageSize   int `koanf:"max_page_size"`
	ExportMaxRows int `koanf:"export_max_rows"`
}

// SecurityConfig holds authentication and authorization settings
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	AdminUsername     string        `koanf:"admin_username"`
	AdminPassword     string        `koanf:"admin_password"`
	AdminRole         string        `koanf:"admin_role"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// AuditConfig holds evidence access trail storage settings
type AuditConfig struct {
	// Store is "badger" (persistent) or "memory".
	Store string `koanf:"store"`

	// Path is the BadgerDB directory when Store is badger.
	Path string `koanf:"path"`

	// Retention is how long access records are kept. 0 keeps them forever.
	Retention time.Duration `koanf:"retention"`
}

// NATSConfig holds violation ingest settings.
type NATSConfig struct {
	// Enabled controls whether the ingest subscriber runs.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server with JetStream.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory.
	StoreDir string `koanf:"store_dir"`

	// Topic is the subject detections are published on.
	Topic string `koanf:"topic"`

	// Stream is the JetStream stream bound to Topic.
	Stream string `koanf:"stream"`

	// DurableName is the JetStream durable consumer name.
	DurableName string `koanf:"durable_name"`

	// QueueGroup load-balances subscribers across instances.
	QueueGroup string `koanf:"queue_group"`

	// SubscribersCount is the number of concurrent subscribers.
	SubscribersCount int `koanf:"subscribers_count"`

	// AckWait is how long JetStream waits for an ack before redelivery.
	AckWait time.Duration `koanf:"ack_wait"`

	// MaxDeliver bounds redelivery attempts for a message.
	MaxDeliver int `koanf:"max_deliver"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to log entries.
	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// DefaultConfig returns the built-in defaults. Tests and tools use it as a
// starting point.
func DefaultConfig() *Config {
	return defaultConfig()
}
