// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package models

import (
	"strings"
	"time"
)

// DetectionType identifies the kind of safety violation detected.
type DetectionType string

const (
	DetectionPPEHardhat         DetectionType = "ppe_hardhat"
	DetectionPPEVest            DetectionType = "ppe_vest"
	DetectionPPEMask            DetectionType = "ppe_mask"
	DetectionPPEGloves          DetectionType = "ppe_gloves"
	DetectionPPEGoggles         DetectionType = "ppe_goggles"
	DetectionProximityMachinery DetectionType = "proximity_machinery"
	DetectionProximityVehicle   DetectionType = "proximity_vehicle"
	DetectionExclusionZone      DetectionType = "exclusion_zone"
	DetectionUnsafeBehavior     DetectionType = "unsafe_behavior"
	DetectionFallHazard         DetectionType = "fall_hazard"
	DetectionFireHazard         DetectionType = "fire_hazard"
)

// DetectionTypeOption is one entry of the detection type catalog.
type DetectionTypeOption struct {
	Value DetectionType `json:"value"`
	Label string        `json:"label"`
}

// detectionCatalog is ordered for display.
var detectionCatalog = []DetectionTypeOption{
	{DetectionPPEHardhat, "Missing Hard Hat"},
	{DetectionPPEVest, "Missing Safety Vest"},
	{DetectionPPEMask, "Missing Face Mask"},
	{DetectionPPEGloves, "Missing Gloves"},
	{DetectionPPEGoggles, "Missing Goggles"},
	{DetectionProximityMachinery, "Machinery Proximity"},
	{DetectionProximityVehicle, "Vehicle Proximity"},
	{DetectionExclusionZone, "Exclusion Zone Breach"},
	{DetectionUnsafeBehavior, "Unsafe Behavior"},
	{DetectionFallHazard, "Fall Hazard"},
	{DetectionFireHazard, "Fire Hazard"},
}

// DetectionTypes returns a copy of the detection type catalog.
func DetectionTypes() []DetectionTypeOption {
	out := make([]DetectionTypeOption, len(detectionCatalog))
	copy(out, detectionCatalog)
	return out
}

// Valid reports whether d is part of the catalog.
func (d DetectionType) Valid() bool {
	for _, opt := range detectionCatalog {
		if opt.Value == d {
			return true
		}
	}
	return false
}

// Label returns the display label, or a title-cased fallback.
func (d DetectionType) Label() string {
	for _, opt := range detectionCatalog {
		if opt.Value == d {
			return opt.Label
		}
	}
	return strings.ReplaceAll(string(d), "_", " ")
}

// Severity is an ordered enum; critical ranks highest.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists all severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Rank returns 4 for critical down to 1 for low, 0 when unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// Status is the review status of a violation.
type Status string

const (
	StatusActive        Status = "active"
	StatusResolved      Status = "resolved"
	StatusPendingReview Status = "pending_review"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusResolved, StatusPendingReview:
		return true
	}
	return false
}

// MediaType is the kind of captured evidence.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Violation is a detected safety event under review.
type Violation struct {
	ID              string        `json:"id"`
	DetectionType   DetectionType `json:"detection_type"`
	Severity        Severity      `json:"severity"`
	ConfidenceScore float64       `json:"confidence_score"` // 0.0 - 1.0
	Description     string        `json:"description"`

	SiteID     string `json:"site_id"`
	SiteName   string `json:"site_name"`
	ZoneID     string `json:"zone_id"`
	ZoneName   string `json:"zone_name"`
	CameraID   string `json:"camera_id"`
	CameraName string `json:"camera_name"`

	DetectedAt time.Time `json:"detected_at"`
	Status     Status    `json:"status"`

	IsFalsePositive       bool   `json:"is_false_positive"`
	FalsePositiveReason   string `json:"false_positive_reason,omitempty"`
	FalsePositiveMarkedBy string `json:"false_positive_marked_by,omitempty"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`

	DetectedObjects []DetectedObject `json:"detected_objects,omitempty"`
	Evidence        []Evidence       `json:"evidence"`
	Comments        []Comment        `json:"comments"`
	CommentCount    int              `json:"comment_count"`
}

// DetectedObject is a bounding box reported by the detector.
type DetectedObject struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"`
}

// Clone returns a deep copy so callers cannot alias store state.
func (v *Violation) Clone() Violation {
	out := *v
	if v.ResolvedAt != nil {
		t := *v.ResolvedAt
		out.ResolvedAt = &t
	}
	out.DetectedObjects = append([]DetectedObject(nil), v.DetectedObjects...)
	out.Evidence = append([]Evidence(nil), v.Evidence...)
	out.Comments = make([]Comment, len(v.Comments))
	for i := range v.Comments {
		out.Comments[i] = v.Comments[i].Clone()
	}
	return out
}

// FindEvidence returns the evidence item with the given id.
func (v *Violation) FindEvidence(id string) (Evidence, bool) {
	for _, e := range v.Evidence {
		if e.ID == id {
			return e, true
		}
	}
	return Evidence{}, false
}

// Evidence is one captured artifact for a violation.
type Evidence struct {
	ID              string    `json:"id"`
	ViolationID     string    `json:"violation_id"`
	Type            MediaType `json:"media_type"`
	OriginalURL     string    `json:"original_url"`
	BlurredURL      string    `json:"blurred_url"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"` // video only
	FileSizeBytes   int64     `json:"file_size_bytes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Comment is an append-only reviewer annotation.
type Comment struct {
	ID             string     `json:"id"`
	ViolationID    string     `json:"violation_id"`
	UserID         string     `json:"user_id"`
	UserName       string     `json:"user_name"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
}

// Acknowledged reports whether the comment has been acknowledged.
func (c *Comment) Acknowledged() bool {
	return c.AcknowledgedAt != nil
}

// Clone returns a copy that does not share the acknowledgment timestamp.
func (c *Comment) Clone() Comment {
	out := *c
	if c.AcknowledgedAt != nil {
		t := *c.AcknowledgedAt
		out.AcknowledgedAt = &t
	}
	return out
}
