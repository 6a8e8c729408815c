// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"strings"

	"github.com/tomtom215/vigil/internal/models"
	"github.com/tomtom215/vigil/internal/validation"
)

// ValidateFilter checks field formats and the cascading site/zone/camera
// constraint against dir. An empty directory skips the cascade checks.
func ValidateFilter(spec *models.FilterSpec, dir *models.Directory) error {
	if verr := validation.ValidateStruct(spec); verr != nil {
		return NewValidationError(verr.FirstField(), verr.Error())
	}
	if dir == nil {
		return nil
	}

	if spec.ZoneID != "" && len(dir.Zones) > 0 {
		zone, ok := dir.Zone(spec.ZoneID)
		if !ok {
			return NewValidationError("zone_id", "unknown zone "+spec.ZoneID)
		}
		if spec.SiteID != "" && zone.SiteID != spec.SiteID {
			return NewValidationError("zone_id", "zone "+spec.ZoneID+" does not belong to site "+spec.SiteID)
		}
	}

	if spec.CameraID != "" && len(dir.Cameras) > 0 {
		cam, ok := dir.Camera(spec.CameraID)
		if !ok {
			return NewValidationError("camera_id", "unknown camera "+spec.CameraID)
		}
		if spec.ZoneID != "" && cam.ZoneID != spec.ZoneID {
			return NewValidationError("camera_id", "camera "+spec.CameraID+" does not belong to zone "+spec.ZoneID)
		}
		if spec.SiteID != "" && spec.ZoneID == "" {
			if zone, ok := dir.Zone(cam.ZoneID); ok && zone.SiteID != spec.SiteID {
				return NewValidationError("camera_id", "camera "+spec.CameraID+" does not belong to site "+spec.SiteID)
			}
		}
	}
	return nil
}

// Matches reports whether v satisfies every set facet of spec.
// Pagination fields are ignored.
func Matches(v *models.Violation, spec *models.FilterSpec) bool {
	if spec.DateFrom != nil && v.DetectedAt.Before(*spec.DateFrom) {
		return false
	}
	if spec.DateTo != nil && v.DetectedAt.After(*spec.DateTo) {
		return false
	}
	if spec.SiteID != "" && v.SiteID != spec.SiteID {
		return false
	}
	if spec.ZoneID != "" && v.ZoneID != spec.ZoneID {
		return false
	}
	if spec.CameraID != "" && v.CameraID != spec.CameraID {
		return false
	}
	if spec.DetectionType != "" && v.DetectionType != spec.DetectionType {
		return false
	}
	if spec.Severity != "" && v.Severity != spec.Severity {
		return false
	}
	if spec.Status != "" && v.Status != spec.Status {
		return false
	}
	if spec.MinConfidence != nil && v.ConfidenceScore < MinConfidenceScore(*spec.MinConfidence) {
		return false
	}
	if spec.IsFalsePositive != nil && v.IsFalsePositive != *spec.IsFalsePositive {
		return false
	}
	if spec.SearchText != "" &&
		!strings.Contains(strings.ToLower(v.Description), strings.ToLower(spec.SearchText)) {
		return false
	}
	return true
}

// MinConfidenceScore converts an integer percentage to a score threshold.
func MinConfidenceScore(pct int) float64 {
	return float64(pct) / 100
}

// Less orders a before b in result order: detected_at DESC, id DESC.
func Less(a, b *models.Violation) bool {
	if !a.DetectedAt.Equal(b.DetectedAt) {
		return a.DetectedAt.After(b.DetectedAt)
	}
	return a.ID > b.ID
}
