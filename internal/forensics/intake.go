// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"regexp"
	"strings"

	"github.com/tomtom215/vigil/internal/models"
)

var violationIDPattern = regexp.MustCompile(`^VIO-\d{5,}$`)

// ValidateIncoming checks a pipeline-produced violation before it is
// stored. Missing status defaults to pending_review and nil comment logs
// become empty.
func ValidateIncoming(v *models.Violation) error {
	if !violationIDPattern.MatchString(v.ID) {
		return NewValidationError("id", "id must match VIO-NNNNN")
	}
	if !v.DetectionType.Valid() {
		return NewValidationError("detection_type", "unknown detection type "+string(v.DetectionType))
	}
	if !v.Severity.Valid() {
		return NewValidationError("severity", "unknown severity "+string(v.Severity))
	}
	if v.Status == "" {
		v.Status = models.StatusPendingReview
	}
	if !v.Status.Valid() {
		return NewValidationError("status", "unknown status "+string(v.Status))
	}
	if v.ConfidenceScore < 0 || v.ConfidenceScore > 1 {
		return NewValidationError("confidence_score", "confidence_score must be within [0, 1]")
	}
	if v.DetectedAt.IsZero() {
		return NewValidationError("detected_at", "detected_at is required")
	}
	if v.SiteID == "" || v.ZoneID == "" || v.CameraID == "" {
		return NewValidationError("camera_id", "site_id, zone_id and camera_id are required")
	}
	if len(v.Evidence) == 0 {
		return NewValidationError("evidence", "at least one evidence item is required")
	}
	for i := range v.Evidence {
		ev := &v.Evidence[i]
		if ev.ViolationID == "" {
			ev.ViolationID = v.ID
		}
		if ev.ViolationID != v.ID {
			return NewValidationError("evidence", "evidence "+ev.ID+" belongs to "+ev.ViolationID)
		}
		if err := CheckRedacted(*ev); err != nil {
			return NewValidationError("evidence", err.Error())
		}
	}
	if v.IsFalsePositive && strings.TrimSpace(v.FalsePositiveReason) == "" {
		return NewValidationError("false_positive_reason", "false_positive_reason is required when flagged")
	}
	if v.Comments == nil {
		v.Comments = []models.Comment{}
	}
	return nil
}
