// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

func TestValidateIncoming(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *models.Violation)
		field  string
	}{
		{"valid", func(v *models.Violation) {}, ""},
		{"bad id", func(v *models.Violation) { v.ID = "V-1" }, "id"},
		{"unknown detection type", func(v *models.Violation) { v.DetectionType = "ppe_boots" }, "detection_type"},
		{"unknown severity", func(v *models.Violation) { v.Severity = "urgent" }, "severity"},
		{"unknown status", func(v *models.Violation) { v.Status = "closed" }, "status"},
		{"confidence above 1", func(v *models.Violation) { v.ConfidenceScore = 1.2 }, "confidence_score"},
		{"zero time", func(v *models.Violation) { v.DetectedAt = time.Time{} }, "detected_at"},
		{"no evidence", func(v *models.Violation) { v.Evidence = nil }, "evidence"},
		{"blurred equals original", func(v *models.Violation) { v.Evidence[0].BlurredURL = v.Evidence[0].OriginalURL }, "evidence"},
		{"flag without reason", func(v *models.Violation) { v.IsFalsePositive = true }, "false_positive_reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testViolation(1, models.SeverityHigh, 0.9, testNow)
			tt.mutate(&v)
			err := ValidateIncoming(&v)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected ValidationError on %q, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateIncoming_Defaults(t *testing.T) {
	v := testViolation(1, models.SeverityHigh, 0.9, testNow)
	v.Status = ""
	v.Comments = nil
	v.Evidence[0].ViolationID = ""

	if err := ValidateIncoming(&v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != models.StatusPendingReview {
		t.Errorf("expected pending_review default, got %s", v.Status)
	}
	if v.Comments == nil {
		t.Error("comments should default to an empty slice")
	}
	if v.Evidence[0].ViolationID != v.ID {
		t.Error("evidence violation id should default to the parent id")
	}
}

func TestMemoryStore_InsertDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := t.Context()
	v := testViolation(1, models.SeverityHigh, 0.9, testNow)

	if err := store.InsertViolation(ctx, v); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.InsertViolation(ctx, v); !errors.Is(err, ErrDuplicateViolation) {
		t.Errorf("expected ErrDuplicateViolation, got %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 violation, got %d", store.Len())
	}
}
