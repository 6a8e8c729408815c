// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

// DefaultDirectory returns the development site/zone/camera catalog.
func DefaultDirectory() *models.Directory {
	return &models.Directory{
		Sites: []models.Site{
			{ID: "site-001", Name: "Main Construction Site"},
			{ID: "site-002", Name: "Warehouse Complex B"},
			{ID: "site-003", Name: "Manufacturing Plant"},
		},
		Zones: []models.Zone{
			{ID: "zone-001", Name: "Heavy Equipment Area", SiteID: "site-001"},
			{ID: "zone-002", Name: "Loading Dock", SiteID: "site-001"},
			{ID: "zone-003", Name: "Assembly Line", SiteID: "site-002"},
			{ID: "zone-004", Name: "Storage Area", SiteID: "site-003"},
		},
		Cameras: []models.Camera{
			{ID: "cam-001", Name: "Entrance Camera", ZoneID: "zone-001"},
			{ID: "cam-002", Name: "Dock Camera", ZoneID: "zone-002"},
			{ID: "cam-003", Name: "Line Camera 1", ZoneID: "zone-003"},
			{ID: "cam-004", Name: "Storage Camera", ZoneID: "zone-004"},
		},
	}
}

// FixtureGenerator synthesizes violations for development and tests.
// The same seed and reference time always yield the same violations.
// Production data comes only from the detection pipeline.
type FixtureGenerator struct {
	rng       *rand.Rand
	directory *models.Directory
	now       time.Time
}

// NewFixtureGenerator creates a generator. A nil directory uses
// DefaultDirectory. Detection times fall within 30 days before now.
func NewFixtureGenerator(seed uint64, directory *models.Directory, now time.Time) *FixtureGenerator {
	if directory == nil {
		directory = DefaultDirectory()
	}
	return &FixtureGenerator{
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		directory: directory,
		now:       now.UTC().Truncate(time.Second),
	}
}

// Generate returns count violations numbered VIO-00001 upward.
func (g *FixtureGenerator) Generate(count int) []models.Violation {
	out := make([]models.Violation, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, g.Violation(i))
	}
	return out
}

// Violation synthesizes the violation with sequence number n.
func (g *FixtureGenerator) Violation(n int) models.Violation {
	cams := g.directory.Cameras
	cam := cams[g.rng.IntN(len(cams))]
	zone, _ := g.directory.Zone(cam.ZoneID)
	site, _ := g.directory.Site(zone.SiteID)

	types := models.DetectionTypes()
	dt := types[g.rng.IntN(len(types))].Value
	statuses := []models.Status{models.StatusActive, models.StatusResolved, models.StatusPendingReview}
	status := statuses[g.rng.IntN(len(statuses))]

	confidence := RoundTo(0.75+g.rng.Float64()*0.24, 3)
	detectedAt := g.now.
		Add(-time.Duration(g.rng.IntN(31)) * 24 * time.Hour).
		Add(-time.Duration(g.rng.IntN(24)) * time.Hour)

	id := fmt.Sprintf("VIO-%05d", n)
	v := models.Violation{
		ID:              id,
		DetectionType:   dt,
		Severity:        models.Severities[g.rng.IntN(len(models.Severities))],
		ConfidenceScore: confidence,
		Description:     "Detected " + strings.ReplaceAll(string(dt), "_", " ") + " violation",
		SiteID:          site.ID,
		SiteName:        site.Name,
		ZoneID:          zone.ID,
		ZoneName:        zone.Name,
		CameraID:        cam.ID,
		CameraName:      cam.Name,
		DetectedAt:      detectedAt,
		Status:          status,
		DetectedObjects: []models.DetectedObject{{
			Type:       "person",
			Confidence: RoundTo(0.85+g.rng.Float64()*0.14, 2),
			BBox:       [4]int{100, 100, 200, 300},
		}},
		Evidence: []models.Evidence{g.evidence(n, id, detectedAt)},
		Comments: []models.Comment{},
	}

	if g.rng.Float64() < 0.05 {
		v.IsFalsePositive = true
		v.FalsePositiveReason = "Flagged during fixture generation"
		v.FalsePositiveMarkedBy = "fixtures"
	}
	if status == models.StatusResolved {
		at := detectedAt.Add(time.Duration(1+g.rng.IntN(48)) * time.Hour)
		v.ResolvedAt = &at
		v.ResolvedBy = "fixtures"
	}
	return v
}

func (g *FixtureGenerator) evidence(n int, violationID string, at time.Time) models.Evidence {
	ev := models.Evidence{
		ID:            fmt.Sprintf("EVD-%05d-001", n),
		ViolationID:   violationID,
		Type:          models.MediaImage,
		OriginalURL:   fmt.Sprintf("/media/evidence/%05d_original.mp4", n),
		BlurredURL:    fmt.Sprintf("/media/evidence/%05d_blurred.mp4", n),
		ThumbnailURL:  fmt.Sprintf("/media/evidence/%05d_thumb.jpg", n),
		FileSizeBytes: int64(500000 + g.rng.IntN(4500001)),
		CreatedAt:     at,
	}
	if g.rng.Float64() > 0.3 {
		ev.Type = models.MediaVideo
		d := RoundTo(10+g.rng.Float64()*5, 1)
		ev.DurationSeconds = &d
	}
	return ev
}
