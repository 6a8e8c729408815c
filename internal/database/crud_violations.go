// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
)

const violationColumns = `v.id, v.detection_type, v.severity, v.confidence_score, v.description,
	v.site_id, v.site_name, v.zone_id, v.zone_name, v.camera_id, v.camera_name,
	v.detected_at, v.status, v.is_false_positive, v.false_positive_reason, v.false_positive_marked_by,
	v.resolved_at, v.resolved_by, v.detected_objects,
	(SELECT COUNT(*) FROM comments c WHERE c.violation_id = v.id) AS comment_count`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanViolation(row rowScanner) (models.Violation, error) {
	var (
		v            models.Violation
		detType      string
		severity     string
		status       string
		fpReason     sql.NullString
		fpMarkedBy   sql.NullString
		resolvedAt   sql.NullTime
		resolvedBy   sql.NullString
		objectsJSON  string
		commentCount int64
	)
	err := row.Scan(
		&v.ID, &detType, &severity, &v.ConfidenceScore, &v.Description,
		&v.SiteID, &v.SiteName, &v.ZoneID, &v.ZoneName, &v.CameraID, &v.CameraName,
		&v.DetectedAt, &status, &v.IsFalsePositive, &fpReason, &fpMarkedBy,
		&resolvedAt, &resolvedBy, &objectsJSON, &commentCount,
	)
	if err != nil {
		return models.Violation{}, err
	}

	v.DetectionType = models.DetectionType(detType)
	v.Severity = models.Severity(severity)
	v.Status = models.Status(status)
	v.DetectedAt = v.DetectedAt.UTC()
	v.FalsePositiveReason = fpReason.String
	v.FalsePositiveMarkedBy = fpMarkedBy.String
	v.ResolvedAt = timePtr(resolvedAt)
	v.ResolvedBy = resolvedBy.String
	v.CommentCount = int(commentCount)
	v.Evidence = []models.Evidence{}
	v.Comments = []models.Comment{}

	if objectsJSON != "" && objectsJSON != "[]" {
		if err := json.Unmarshal([]byte(objectsJSON), &v.DetectedObjects); err != nil {
			logging.Warn().Err(err).Str("violation_id", v.ID).Msg("Failed to decode detected objects")
		}
	}
	return v, nil
}

// SearchViolations implements forensics.Store.
func (db *DB) SearchViolations(ctx context.Context, spec models.FilterSpec) (items []models.Violation, total int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("search_violations", start, err) }()

	where, args := buildViolationConditions(&spec)

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM violations v"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count violations: %w", err)
	}

	items = make([]models.Violation, 0, spec.PageSize)
	if total == 0 || spec.Offset() >= total {
		return items, total, nil
	}

	query := "SELECT " + violationColumns + " FROM violations v" + where +
		" ORDER BY v.detected_at DESC, v.id DESC LIMIT ? OFFSET ?"
	pageArgs := append(append([]interface{}{}, args...), spec.PageSize, spec.Offset())

	rows, err := db.conn.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search violations: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		v, scanErr := scanViolation(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan violation: %w", scanErr)
			return nil, 0, err
		}
		items = append(items, v)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate violations: %w", err)
	}

	if err = db.attachEvidence(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetViolation implements forensics.Store.
func (db *DB) GetViolation(ctx context.Context, id string) (v *models.Violation, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("get_violation", start, err) }()

	return db.getViolation(ctx, db.conn, id)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (db *DB) getViolation(ctx context.Context, q querier, id string) (*models.Violation, error) {
	row := q.QueryRowContext(ctx, "SELECT "+violationColumns+" FROM violations v WHERE v.id = ?", id)
	v, err := scanViolation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, forensics.NewNotFoundError("violation", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get violation %s: %w", id, err)
	}

	evidence, err := db.loadEvidence(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	v.Evidence = evidence[id]
	if v.Evidence == nil {
		v.Evidence = []models.Evidence{}
	}

	comments, err := db.loadComments(ctx, q, id)
	if err != nil {
		return nil, err
	}
	v.Comments = comments
	v.CommentCount = len(comments)
	return &v, nil
}

// attachEvidence loads evidence for every item in one query.
func (db *DB) attachEvidence(ctx context.Context, items []models.Violation) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	evidence, err := db.loadEvidence(ctx, db.conn, ids)
	if err != nil {
		return err
	}
	for i := range items {
		if ev, ok := evidence[items[i].ID]; ok {
			items[i].Evidence = ev
		}
	}
	return nil
}

func (db *DB) loadEvidence(ctx context.Context, q querier, violationIDs []string) (map[string][]models.Evidence, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(violationIDs)), ",")
	args := make([]interface{}, len(violationIDs))
	for i, id := range violationIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `SELECT id, violation_id, media_type, original_url, blurred_url, thumbnail_url,
		duration_seconds, file_size_bytes, created_at
		FROM evidence WHERE violation_id IN (`+placeholders+`) ORDER BY violation_id, seq`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence: %w", err)
	}
	defer closeWithLog(rows, "rows")

	out := make(map[string][]models.Evidence, len(violationIDs))
	for rows.Next() {
		var (
			ev        models.Evidence
			mediaType string
			duration  sql.NullFloat64
		)
		if err := rows.Scan(&ev.ID, &ev.ViolationID, &mediaType, &ev.OriginalURL, &ev.BlurredURL, &ev.ThumbnailURL,
			&duration, &ev.FileSizeBytes, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		ev.Type = models.MediaType(mediaType)
		ev.CreatedAt = ev.CreatedAt.UTC()
		if duration.Valid {
			d := duration.Float64
			ev.DurationSeconds = &d
		}
		out[ev.ViolationID] = append(out[ev.ViolationID], ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate evidence: %w", err)
	}
	return out, nil
}

// InsertViolation implements forensics.Store. The violation, its evidence
// and any pipeline-supplied comments are written in one transaction.
func (db *DB) InsertViolation(ctx context.Context, v models.Violation) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert_violation", start, err) }()

	objects := []byte("[]")
	if len(v.DetectedObjects) > 0 {
		if objects, err = json.Marshal(v.DetectedObjects); err != nil {
			return fmt.Errorf("failed to encode detected objects: %w", err)
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM violations WHERE id = ?", v.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check violation %s: %w", v.ID, err)
	}
	if exists > 0 {
		err = forensics.ErrDuplicateViolation
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO violations (
		id, detection_type, severity, confidence_score, description,
		site_id, site_name, zone_id, zone_name, camera_id, camera_name,
		detected_at, status, is_false_positive, false_positive_reason, false_positive_marked_by,
		resolved_at, resolved_by, detected_objects
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, string(v.DetectionType), string(v.Severity), v.ConfidenceScore, v.Description,
		v.SiteID, v.SiteName, v.ZoneID, v.ZoneName, v.CameraID, v.CameraName,
		v.DetectedAt.UTC(), string(v.Status), v.IsFalsePositive, nullString(v.FalsePositiveReason), nullString(v.FalsePositiveMarkedBy),
		nullTime(v.ResolvedAt), nullString(v.ResolvedBy), string(objects),
	)
	if err != nil {
		if isConstraintViolation(err) {
			err = forensics.ErrDuplicateViolation
			return err
		}
		return fmt.Errorf("failed to insert violation %s: %w", v.ID, err)
	}

	for i, ev := range v.Evidence {
		var duration sql.NullFloat64
		if ev.DurationSeconds != nil {
			duration = sql.NullFloat64{Float64: *ev.DurationSeconds, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO evidence (
			id, violation_id, seq, media_type, original_url, blurred_url, thumbnail_url,
			duration_seconds, file_size_bytes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, v.ID, i, string(ev.Type), ev.OriginalURL, ev.BlurredURL, ev.ThumbnailURL,
			duration, ev.FileSizeBytes, ev.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert evidence %s: %w", ev.ID, err)
		}
	}

	for _, c := range v.Comments {
		c.ViolationID = v.ID
		if err = insertComment(ctx, tx, c); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit violation %s: %w", v.ID, err)
	}
	return nil
}

// UpdateDisposition implements forensics.Store. DuckDB uses optimistic
// concurrency, so conflicting updates are retried with a short backoff.
func (db *DB) UpdateDisposition(ctx context.Context, id string, mutate func(v *models.Violation) error) (v *models.Violation, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("update_disposition", start, err) }()

	for attempt := 0; ; attempt++ {
		v, err = db.updateDispositionOnce(ctx, id, mutate)
		if err == nil || !isTransactionConflict(err) || attempt >= db.maxConflictRetries {
			return v, err
		}
		logging.Ctx(ctx).Debug().Str("violation_id", id).Int("attempt", attempt+1).Msg("Retrying disposition update after transaction conflict")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(db.conflictBackoff * time.Duration(attempt+1)):
		}
	}
}

func (db *DB) updateDispositionOnce(ctx context.Context, id string, mutate func(v *models.Violation) error) (v *models.Violation, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	v, err = db.getViolation(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err = mutate(v); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE violations SET
		status = ?, is_false_positive = ?, false_positive_reason = ?, false_positive_marked_by = ?,
		resolved_at = ?, resolved_by = ?
		WHERE id = ?`,
		string(v.Status), v.IsFalsePositive, nullString(v.FalsePositiveReason), nullString(v.FalsePositiveMarkedBy),
		nullTime(v.ResolvedAt), nullString(v.ResolvedBy), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update violation %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit violation %s: %w", id, err)
	}
	return v, nil
}

// CountViolations returns the number of stored violations.
func (db *DB) CountViolations(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM violations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count violations: %w", err)
	}
	return n, nil
}
