// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package database

import (
	"strings"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// buildViolationConditions translates the facets of spec into a
// parameterized WHERE clause. Pagination fields are ignored. The returned
// clause is empty when spec sets no facet.
//
//	WHERE detected_at >= ? AND detected_at <= ?
//	  AND site_id = ? AND zone_id = ? AND camera_id = ?
//	  AND detection_type = ? AND severity = ? AND status = ?
//	  AND confidence_score >= ? AND is_false_positive = ?
//	  AND contains(lower(description), lower(?))
func buildViolationConditions(spec *models.FilterSpec) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	if spec.DateFrom != nil {
		add("detected_at >= ?", spec.DateFrom.UTC())
	}
	if spec.DateTo != nil {
		add("detected_at <= ?", spec.DateTo.UTC())
	}
	if spec.SiteID != "" {
		add("site_id = ?", spec.SiteID)
	}
	if spec.ZoneID != "" {
		add("zone_id = ?", spec.ZoneID)
	}
	if spec.CameraID != "" {
		add("camera_id = ?", spec.CameraID)
	}
	if spec.DetectionType != "" {
		add("detection_type = ?", string(spec.DetectionType))
	}
	if spec.Severity != "" {
		add("severity = ?", string(spec.Severity))
	}
	if spec.Status != "" {
		add("status = ?", string(spec.Status))
	}
	if spec.MinConfidence != nil {
		add("confidence_score >= ?", forensics.MinConfidenceScore(*spec.MinConfidence))
	}
	if spec.IsFalsePositive != nil {
		add("is_false_positive = ?", *spec.IsFalsePositive)
	}
	if spec.SearchText != "" {
		add("contains(lower(description), lower(?))", spec.SearchText)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
