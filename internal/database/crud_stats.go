// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// Summary implements forensics.Store.
func (db *DB) Summary(ctx context.Context, since time.Time) (sum models.StatsSummary, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("summary", start, err) }()

	since = since.UTC()
	sum = models.StatsSummary{
		Since:           since,
		ByDetectionType: make(map[models.DetectionType]int),
		BySeverity:      make(map[models.Severity]int),
	}

	var avg float64
	err = db.conn.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE confidence_score >= ?),
			COUNT(*) FILTER (WHERE is_false_positive),
			COUNT(*) FILTER (WHERE status = ?),
			COALESCE(AVG(confidence_score), 0)
		FROM violations WHERE detected_at >= ?`,
		forensics.HighConfidenceThreshold, string(models.StatusResolved), since,
	).Scan(&sum.TotalViolations, &sum.HighConfidenceCount, &sum.FalsePositiveCount, &sum.ResolvedCount, &avg)
	if err != nil {
		return models.StatsSummary{}, fmt.Errorf("failed to aggregate violations: %w", err)
	}

	denom := float64(max(sum.TotalViolations, 1))
	sum.HighConfidencePercentage = forensics.RoundTo(float64(sum.HighConfidenceCount)/denom*100, 1)
	sum.AverageConfidence = forensics.RoundTo(avg, 3)

	if err = db.groupCounts(ctx, "detection_type", since, func(k string, n int) {
		sum.ByDetectionType[models.DetectionType(k)] = n
	}); err != nil {
		return models.StatsSummary{}, err
	}
	if err = db.groupCounts(ctx, "severity", since, func(k string, n int) {
		sum.BySeverity[models.Severity(k)] = n
	}); err != nil {
		return models.StatsSummary{}, err
	}
	return sum, nil
}

// groupCounts runs a GROUP BY over column, which must be a trusted
// identifier.
func (db *DB) groupCounts(ctx context.Context, column string, since time.Time, set func(key string, n int)) error {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM violations WHERE detected_at >= ? GROUP BY "+column, since)
	if err != nil {
		return fmt.Errorf("failed to group violations by %s: %w", column, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		set(key, n)
	}
	return rows.Err()
}
