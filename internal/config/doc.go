// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package config provides centralized configuration management for Vigil.

Configuration is layered with Koanf v2:

 1. Defaults from defaultConfig()
 2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/vigil/config.yaml)
 3. Environment variables

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT, SERVER_TIMEOUT, ENVIRONMENT

Database:
  - DUCKDB_PATH: database file, or ":memory:"
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS
  - SEED_FIXTURES: seed development violations on an empty database
  - FIXTURE_COUNT, FIXTURE_SEED

API:
  - API_PAGE_SIZE (default 12), API_MAX_PAGE_SIZE (default 100)
  - EXPORT_MAX_ROWS

Security:
  - AUTH_MODE: jwt or none
  - JWT_SECRET, SESSION_TIMEOUT
  - ADMIN_USERNAME, ADMIN_PASSWORD, ADMIN_ROLE
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - CORS_ORIGINS: comma separated

Audit:
  - AUDIT_STORE: badger or memory
  - AUDIT_PATH

NATS ingest:
  - NATS_ENABLED, NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR
  - NATS_TOPIC, NATS_DURABLE_NAME

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Config is immutable after Load and safe for concurrent reads.
*/
package config
