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
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertComment(ctx context.Context, ex execer, c models.Comment) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO comments (
		id, violation_id, seq, user_id, user_name, content, created_at, acknowledged_at, acknowledged_by
	) VALUES (?, ?, nextval('comment_seq'), ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ViolationID, c.UserID, c.UserName, c.Content, c.CreatedAt.UTC(),
		nullTime(c.AcknowledgedAt), nullString(c.AcknowledgedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment %s: %w", c.ID, err)
	}
	return nil
}

// AppendComment implements forensics.Store.
func (db *DB) AppendComment(ctx context.Context, c models.Comment) (out models.Comment, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("append_comment", start, err) }()

	if err = db.requireViolation(ctx, db.conn, c.ViolationID); err != nil {
		return models.Comment{}, err
	}
	if err = insertComment(ctx, db.conn, c); err != nil {
		return models.Comment{}, err
	}
	return c.Clone(), nil
}

// AcknowledgeComment implements forensics.Store. The update only matches an
// unacknowledged row, so concurrent acknowledgments have a single winner.
func (db *DB) AcknowledgeComment(ctx context.Context, violationID, commentID, userID string, at time.Time) (c models.Comment, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() {
		if errors.Is(err, forensics.ErrAlreadyAcknowledged) {
			observe("acknowledge_comment", start, nil)
			return
		}
		observe("acknowledge_comment", start, err)
	}()

	if err = db.requireViolation(ctx, db.conn, violationID); err != nil {
		return models.Comment{}, err
	}

	res, err := db.conn.ExecContext(ctx, `UPDATE comments SET acknowledged_at = ?, acknowledged_by = ?
		WHERE id = ? AND violation_id = ? AND acknowledged_at IS NULL`,
		at.UTC(), userID, commentID, violationID)
	if err != nil {
		if isTransactionConflict(err) {
			// Another writer got there first; report its result.
			stored, getErr := db.getComment(ctx, violationID, commentID)
			if getErr != nil {
				return models.Comment{}, getErr
			}
			return stored, forensics.ErrAlreadyAcknowledged
		}
		return models.Comment{}, fmt.Errorf("failed to acknowledge comment %s: %w", commentID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to acknowledge comment %s: %w", commentID, err)
	}

	stored, err := db.getComment(ctx, violationID, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if affected == 0 {
		return stored, forensics.ErrAlreadyAcknowledged
	}
	return stored, nil
}

func (db *DB) requireViolation(ctx context.Context, q querier, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM violations WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up violation %s: %w", id, err)
	}
	if n == 0 {
		return forensics.NewNotFoundError("violation", id)
	}
	return nil
}

const commentColumns = `id, violation_id, user_id, user_name, content, created_at, acknowledged_at, acknowledged_by`

func scanComment(row rowScanner) (models.Comment, error) {
	var (
		c     models.Comment
		ackAt sql.NullTime
		ackBy sql.NullString
	)
	if err := row.Scan(&c.ID, &c.ViolationID, &c.UserID, &c.UserName, &c.Content, &c.CreatedAt, &ackAt, &ackBy); err != nil {
		return models.Comment{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.AcknowledgedAt = timePtr(ackAt)
	c.AcknowledgedBy = ackBy.String
	return c, nil
}

func (db *DB) getComment(ctx context.Context, violationID, commentID string) (models.Comment, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE id = ? AND violation_id = ?",
		commentID, violationID)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, forensics.NewNotFoundError("comment", commentID)
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to get comment %s: %w", commentID, err)
	}
	return c, nil
}

// loadComments returns the comment log of a violation in append order.
func (db *DB) loadComments(ctx context.Context, q querier, violationID string) ([]models.Comment, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+commentColumns+" FROM comments WHERE violation_id = ? ORDER BY seq",
		violationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	defer closeWithLog(rows, "rows")

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}
