// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package models

import (
	"math"
	"time"
)

// DefaultPageSize is the logical page size used when a deployment does not
// configure one.
const DefaultPageSize = 12

// FilterSpec is the normalized search request.
//
// Every set field narrows the result (logical AND); a nil or empty field
// imposes no constraint. Date bounds are inclusive on DetectedAt.
//
// Fields:
//   - DateFrom/DateTo: inclusive bounds on detected_at
//   - SiteID/ZoneID/CameraID: exact matches; ZoneID must belong to SiteID
//   - DetectionType/Severity/Status: exact matches
//   - MinConfidence: integer percentage 0-100, compared as score >= n/100
//   - IsFalsePositive: tri-state, nil matches both
//   - SearchText: case-insensitive substring of the description
//   - Page: 1-based page number
//   - PageSize: page length, fixed per deployment
//
// The With* helpers return a copy with Page reset to 1, since any facet
// change starts a new query.
type FilterSpec struct {
	DateFrom        *time.Time    `json:"date_from,omitempty"`
	DateTo          *time.Time    `json:"date_to,omitempty"`
	SiteID          string        `json:"site_id,omitempty" validate:"omitempty,max=64"`
	ZoneID          string        `json:"zone_id,omitempty" validate:"omitempty,max=64"`
	CameraID        string        `json:"camera_id,omitempty" validate:"omitempty,max=64"`
	DetectionType   DetectionType `json:"detection_type,omitempty" validate:"omitempty,detection_type"`
	Severity        Severity      `json:"severity,omitempty" validate:"omitempty,oneof=critical high medium low"`
	MinConfidence   *int          `json:"min_confidence,omitempty" validate:"omitempty,min=0,max=100"`
	IsFalsePositive *bool         `json:"is_false_positive,omitempty"`
	Status          Status        `json:"status,omitempty" validate:"omitempty,oneof=active resolved pending_review"`
	SearchText      string        `json:"search_text,omitempty" validate:"omitempty,max=200"`

	Page     int `json:"page" validate:"min=0"`
	PageSize int `json:"page_size" validate:"min=0,max=1000"`
}

// InvertedDates reports whether both date bounds are set and DateFrom is
// after DateTo. Such a filter matches nothing.
func (f *FilterSpec) InvertedDates() bool {
	return f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo)
}

// Offset returns the zero-based offset of the first item on the page.
// It saturates at math.MaxInt, so any page past the end of the result
// yields an offset beyond every total.
func (f *FilterSpec) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PageSize
}

// SameFacets reports whether f and o constrain the population identically,
// ignoring pagination.
func (f FilterSpec) SameFacets(o FilterSpec) bool {
	f.Page, o.Page = 0, 0
	f.PageSize, o.PageSize = 0, 0
	return timePtrEqual(f.DateFrom, o.DateFrom) && timePtrEqual(f.DateTo, o.DateTo) &&
		f.SiteID == o.SiteID && f.ZoneID == o.ZoneID && f.CameraID == o.CameraID &&
		f.DetectionType == o.DetectionType && f.Severity == o.Severity &&
		intPtrEqual(f.MinConfidence, o.MinConfidence) &&
		boolPtrEqual(f.IsFalsePositive, o.IsFalsePositive) &&
		f.Status == o.Status && f.SearchText == o.SearchText
}

// WithPage returns a copy positioned on page.
func (f FilterSpec) WithPage(page int) FilterSpec {
	f.Page = page
	return f
}

// WithDateRange returns a copy with new date bounds, reset to page 1.
func (f FilterSpec) WithDateRange(from, to *time.Time) FilterSpec {
	f.DateFrom, f.DateTo = from, to
	f.Page = 1
	return f
}

// WithSite returns a copy scoped to siteID, reset to page 1. The zone and
// camera selections are cleared because they may not belong to the new site.
func (f FilterSpec) WithSite(siteID string) FilterSpec {
	if f.SiteID != siteID {
		f.ZoneID = ""
		f.CameraID = ""
	}
	f.SiteID = siteID
	f.Page = 1
	return f
}

// WithZone returns a copy scoped to zoneID, reset to page 1.
func (f FilterSpec) WithZone(zoneID string) FilterSpec {
	if f.ZoneID != zoneID {
		f.CameraID = ""
	}
	f.ZoneID = zoneID
	f.Page = 1
	return f
}

// WithCamera returns a copy scoped to cameraID, reset to page 1.
func (f FilterSpec) WithCamera(cameraID string) FilterSpec {
	f.CameraID = cameraID
	f.Page = 1
	return f
}

// WithDetectionType returns a copy with the detection type facet, reset to page 1.
func (f FilterSpec) WithDetectionType(dt DetectionType) FilterSpec {
	f.DetectionType = dt
	f.Page = 1
	return f
}

// WithSeverity returns a copy with the severity facet, reset to page 1.
func (f FilterSpec) WithSeverity(s Severity) FilterSpec {
	f.Severity = s
	f.Page = 1
	return f
}

// WithStatus returns a copy with the status facet, reset to page 1.
func (f FilterSpec) WithStatus(s Status) FilterSpec {
	f.Status = s
	f.Page = 1
	return f
}

// WithMinConfidence returns a copy with the confidence floor, reset to page 1.
func (f FilterSpec) WithMinConfidence(pct *int) FilterSpec {
	f.MinConfidence = pct
	f.Page = 1
	return f
}

// WithFalsePositive returns a copy with the tri-state false-positive facet,
// reset to page 1.
func (f FilterSpec) WithFalsePositive(v *bool) FilterSpec {
	f.IsFalsePositive = v
	f.Page = 1
	return f
}

// WithSearchText returns a copy with the free-text facet, reset to page 1.
func (f FilterSpec) WithSearchText(text string) FilterSpec {
	f.SearchText = text
	f.Page = 1
	return f
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
