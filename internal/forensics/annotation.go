// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/models"
)

// NewCommentID returns an id of the form CMT-XXXXXXXX.
func NewCommentID() string {
	return "CMT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// AnnotationLedger is the append-only comment log of each violation.
// Comments are never edited or deleted.
type AnnotationLedger struct {
	store Store
	now   func() time.Time
	newID func() string
}

// NewAnnotationLedger creates a ledger over store.
func NewAnnotationLedger(store Store, now func() time.Time) *AnnotationLedger {
	if now == nil {
		now = time.Now
	}
	return &AnnotationLedger{store: store, now: now, newID: NewCommentID}
}

// AddComment appends a comment to the end of the violation's log.
// Whitespace-only content is rejected with a *ValidationError.
func (l *AnnotationLedger) AddComment(ctx context.Context, violationID, userID, userName, content string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		metrics.RecordOperation("add_comment", "validation")
		return models.Comment{}, NewValidationError("content", "content is required")
	}
	if userID == "" {
		metrics.RecordOperation("add_comment", "validation")
		return models.Comment{}, NewValidationError("user_id", "user_id is required")
	}

	c, err := l.store.AppendComment(ctx, models.Comment{
		ID:          l.newID(),
		ViolationID: violationID,
		UserID:      userID,
		UserName:    userName,
		Content:     content,
		CreatedAt:   l.now().UTC(),
	})
	metrics.RecordOperation("add_comment", outcome(err))
	if err != nil {
		return models.Comment{}, err
	}

	logging.Ctx(ctx).Info().
		Str("violation_id", violationID).
		Str("comment_id", c.ID).
		Str("user_id", userID).
		Msg("Comment added")
	return c, nil
}

// Acknowledge marks a comment as acknowledged by ackUserID.
//
// Acknowledgment is first-writer-wins: for an already acknowledged comment
// the stored comment is returned unchanged together with
// ErrAlreadyAcknowledged.
func (l *AnnotationLedger) Acknowledge(ctx context.Context, violationID, commentID, ackUserID string) (models.Comment, error) {
	if ackUserID == "" {
		metrics.RecordOperation("acknowledge_comment", "validation")
		return models.Comment{}, NewValidationError("user_id", "user_id is required")
	}

	c, err := l.store.AcknowledgeComment(ctx, violationID, commentID, ackUserID, l.now().UTC())
	metrics.RecordOperation("acknowledge_comment", outcome(err))
	switch {
	case errors.Is(err, ErrAlreadyAcknowledged):
		logging.Ctx(ctx).Debug().
			Str("comment_id", commentID).
			Str("acknowledged_by", c.AcknowledgedBy).
			Msg("Comment already acknowledged")
		return c, err
	case err != nil:
		return models.Comment{}, err
	}

	logging.Ctx(ctx).Info().
		Str("violation_id", violationID).
		Str("comment_id", commentID).
		Str("user_id", ackUserID).
		Msg("Comment acknowledged")
	return c, nil
}
