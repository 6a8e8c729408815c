// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package database

import (
	"context"
	"fmt"
)

// Timestamps are stored as UTC TIMESTAMP values.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS violations (
		id VARCHAR PRIMARY KEY,
		detection_type VARCHAR NOT NULL,
		severity VARCHAR NOT NULL,
		confidence_score DOUBLE NOT NULL,
		description VARCHAR NOT NULL DEFAULT '',
		site_id VARCHAR NOT NULL,
		site_name VARCHAR NOT NULL DEFAULT '',
		zone_id VARCHAR NOT NULL,
		zone_name VARCHAR NOT NULL DEFAULT '',
		camera_id VARCHAR NOT NULL,
		camera_name VARCHAR NOT NULL DEFAULT '',
		detected_at TIMESTAMP NOT NULL,
		status VARCHAR NOT NULL,
		is_false_positive BOOLEAN NOT NULL DEFAULT FALSE,
		false_positive_reason VARCHAR,
		false_positive_marked_by VARCHAR,
		resolved_at TIMESTAMP,
		resolved_by VARCHAR,
		detected_objects VARCHAR NOT NULL DEFAULT '[]',
		ingested_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS evidence (
		id VARCHAR PRIMARY KEY,
		violation_id VARCHAR NOT NULL,
		seq INTEGER NOT NULL,
		media_type VARCHAR NOT NULL,
		original_url VARCHAR NOT NULL,
		blurred_url VARCHAR NOT NULL,
		thumbnail_url VARCHAR NOT NULL DEFAULT '',
		duration_seconds DOUBLE,
		file_size_bytes BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id VARCHAR PRIMARY KEY,
		violation_id VARCHAR NOT NULL,
		seq BIGINT NOT NULL,
		user_id VARCHAR NOT NULL,
		user_name VARCHAR NOT NULL DEFAULT '',
		content VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		acknowledged_at TIMESTAMP,
		acknowledged_by VARCHAR
	)`,
	`CREATE SEQUENCE IF NOT EXISTS comment_seq START 1`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_violations_detected_at ON violations(detected_at, id)`,
	`CREATE INDEX IF NOT EXISTS idx_violations_site_zone ON violations(site_id, zone_id, camera_id)`,
	`CREATE INDEX IF NOT EXISTS idx_violations_severity ON violations(severity)`,
	`CREATE INDEX IF NOT EXISTS idx_violations_status ON violations(status)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_violation ON evidence(violation_id, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_violation ON comments(violation_id, seq)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (db *DB) createIndexes(ctx context.Context) error {
	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
