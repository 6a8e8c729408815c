// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

// ErrDuplicateViolation is returned by InsertViolation when the id exists.
var ErrDuplicateViolation = errors.New("violation already exists")

// Store is the persistence contract the engine relies on.
//
// Implementations must be safe for concurrent use and must return
// *NotFoundError for unknown ids. Returned values must not alias internal
// state.
type Store interface {
	// SearchViolations returns the page of violations matching spec together
	// with the size of the whole filtered population. spec is already
	// validated; Page >= 1 and PageSize >= 1. Items are ordered by
	// detected_at DESC, id DESC and carry evidence and CommentCount but no
	// comment bodies.
	SearchViolations(ctx context.Context, spec models.FilterSpec) ([]models.Violation, int, error)

	// GetViolation returns a violation with evidence and comments.
	GetViolation(ctx context.Context, id string) (*models.Violation, error)

	// AppendComment appends c to its violation's comment log.
	AppendComment(ctx context.Context, c models.Comment) (models.Comment, error)

	// AcknowledgeComment sets the acknowledgment fields once. When the
	// comment is already acknowledged it returns the stored comment and
	// ErrAlreadyAcknowledged without modifying it.
	AcknowledgeComment(ctx context.Context, violationID, commentID, userID string, at time.Time) (models.Comment, error)

	// UpdateDisposition loads the violation, applies mutate and persists the
	// status, false-positive and resolution fields atomically. An error from
	// mutate aborts the update and is returned as is.
	UpdateDisposition(ctx context.Context, id string, mutate func(v *models.Violation) error) (*models.Violation, error)

	// Summary aggregates violations detected at or after since.
	Summary(ctx context.Context, since time.Time) (models.StatsSummary, error)

	// InsertViolation stores a pipeline-produced violation. It is only used
	// by the ingest path; the engine never creates violations.
	InsertViolation(ctx context.Context, v models.Violation) error
}
