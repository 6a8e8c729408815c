// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/models"
)

// DispositionTracker governs status and false-positive transitions.
//
// Status and the false-positive flag are independent: marking a violation
// as a false positive never changes its status, and resolving never touches
// the flag.
//
//	pending_review --resolve--> resolved
//	active         --resolve--> resolved
//	resolved       --reopen---> active
type DispositionTracker struct {
	store Store
	now   func() time.Time
}

// NewDispositionTracker creates a tracker over store.
func NewDispositionTracker(store Store, now func() time.Time) *DispositionTracker {
	if now == nil {
		now = time.Now
	}
	return &DispositionTracker{store: store, now: now}
}

// MarkFalsePositive flags the violation with reason. The reason must
// contain non-whitespace text.
func (d *DispositionTracker) MarkFalsePositive(ctx context.Context, id, reason, markedBy string) (*models.Violation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		metrics.RecordOperation("mark_false_positive", "validation")
		return nil, NewValidationError("reason", "reason is required")
	}

	v, err := d.store.UpdateDisposition(ctx, id, func(v *models.Violation) error {
		v.IsFalsePositive = true
		v.FalsePositiveReason = reason
		v.FalsePositiveMarkedBy = markedBy
		return nil
	})
	metrics.RecordOperation("mark_false_positive", outcome(err))
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("violation_id", id).
		Str("marked_by", markedBy).
		Msg("Violation marked as false positive")
	return v, nil
}

// UnmarkFalsePositive clears the flag, reason and marker.
func (d *DispositionTracker) UnmarkFalsePositive(ctx context.Context, id string) (*models.Violation, error) {
	v, err := d.store.UpdateDisposition(ctx, id, func(v *models.Violation) error {
		v.IsFalsePositive = false
		v.FalsePositiveReason = ""
		v.FalsePositiveMarkedBy = ""
		return nil
	})
	metrics.RecordOperation("unmark_false_positive", outcome(err))
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("violation_id", id).Msg("False positive mark removed")
	return v, nil
}

// Resolve moves an active or pending violation to resolved.
func (d *DispositionTracker) Resolve(ctx context.Context, id, resolvedBy string) (*models.Violation, error) {
	v, err := d.store.UpdateDisposition(ctx, id, func(v *models.Violation) error {
		if v.Status == models.StatusResolved {
			return NewValidationError("status", "violation is already resolved")
		}
		at := d.now().UTC()
		v.Status = models.StatusResolved
		v.ResolvedAt = &at
		v.ResolvedBy = resolvedBy
		return nil
	})
	metrics.RecordOperation("resolve", outcome(err))
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("violation_id", id).Str("resolved_by", resolvedBy).Msg("Violation resolved")
	return v, nil
}

// Reopen moves a resolved violation back to active.
func (d *DispositionTracker) Reopen(ctx context.Context, id string) (*models.Violation, error) {
	v, err := d.store.UpdateDisposition(ctx, id, func(v *models.Violation) error {
		if v.Status != models.StatusResolved {
			return NewValidationError("status", "only resolved violations can be reopened")
		}
		v.Status = models.StatusActive
		v.ResolvedAt = nil
		v.ResolvedBy = ""
		return nil
	})
	metrics.RecordOperation("reopen", outcome(err))
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("violation_id", id).Msg("Violation reopened")
	return v, nil
}
