// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package main is the entry point for the Vigil server.

Vigil lets safety reviewers search detected PPE and zone violations,
inspect redacted evidence, annotate violations with an append-only comment
log and record dispositions (false positive, resolved). Every evidence
access is written to an audit trail.

# Application Architecture

Long-lived components run under Suture v4 supervision:

	RootSupervisor ("vigil")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   ├── audit-retention (when AUDIT_RETENTION > 0)
	│   └── lockout-prune
	├── IngestSupervisor ("ingest-layer")
	│   └── violation-ingest (NATS_ENABLED=true, -tags nats)
	└── APISupervisor ("api-layer")
	    └── http-server

Initialization order:

 1. Configuration: Koanf v2 defaults, config file, environment
 2. Logging: zerolog, bridged to slog for sutureslog
 3. Database: DuckDB violation store, optional fixture seeding
 4. Audit: BadgerDB (or memory) evidence access trail
 5. Authentication: JWT, local credentials, login lockout
 6. Authorization: Casbin role model
 7. Forensics engine, HTTP handlers and Chi router
 8. Ingest subscriber (optional)
 9. Supervisor tree

# Build Tags

	go build ./cmd/server               # HTTP API only
	go build -tags nats ./cmd/server    # with JetStream violation ingest

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to 10 seconds, the ingest router finishes in-flight messages, then the
audit logger, audit store and database are closed in that order.

# Example Usage

Development with fixtures and no authentication:

	export AUTH_MODE=none
	export SEED_FIXTURES=true
	./vigil

Production:

	export JWT_SECRET=$(openssl rand -base64 32)
	export DUCKDB_PATH=/data/vigil.duckdb
	export AUDIT_PATH=/data/audit
	export NATS_ENABLED=true
	./vigil
*/
package main
