// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

var reviewer = AuthContext{UserID: "reviewer-1", UserName: "Jane", Role: "reviewer", Token: "tok"}

// testViolation builds a violation in site-001/zone-001/cam-001.
func testViolation(n int, sev models.Severity, confidence float64, at time.Time) models.Violation {
	id := fmt.Sprintf("VIO-%05d", n)
	return models.Violation{
		ID:              id,
		DetectionType:   models.DetectionPPEHardhat,
		Severity:        sev,
		ConfidenceScore: confidence,
		Description:     "Detected ppe hardhat violation",
		SiteID:          "site-001",
		SiteName:        "Main Construction Site",
		ZoneID:          "zone-001",
		ZoneName:        "Heavy Equipment Area",
		CameraID:        "cam-001",
		CameraName:      "Entrance Camera",
		DetectedAt:      at,
		Status:          models.StatusActive,
		Evidence: []models.Evidence{{
			ID:           fmt.Sprintf("EVD-%05d-001", n),
			ViolationID:  id,
			Type:         models.MediaImage,
			OriginalURL:  fmt.Sprintf("/media/evidence/%05d_original.mp4", n),
			BlurredURL:   fmt.Sprintf("/media/evidence/%05d_blurred.mp4", n),
			ThumbnailURL: fmt.Sprintf("/media/evidence/%05d_thumb.jpg", n),
			CreatedAt:    at,
		}},
		Comments: []models.Comment{},
	}
}

// population returns 100 violations of which the first 20 are critical.
func population() []models.Violation {
	out := make([]models.Violation, 0, 100)
	for i := 1; i <= 100; i++ {
		sev := models.SeverityLow
		if i <= 20 {
			sev = models.SeverityCritical
		}
		conf := 0.80 + float64(i%20)/100
		out = append(out, testViolation(i, sev, conf, testNow.Add(-time.Duration(i)*time.Hour)))
	}
	return out
}

// tiedPopulation returns n violations sharing one detection timestamp.
func tiedPopulation(n int) []models.Violation {
	out := make([]models.Violation, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, testViolation(i, models.SeverityHigh, 0.9, testNow.Add(-time.Hour)))
	}
	return out
}

// recordingRecorder captures evidence accesses.
type recordingRecorder struct {
	mu       sync.Mutex
	accesses []EvidenceAccess
	err      error
}

func (r *recordingRecorder) RecordEvidenceAccess(_ context.Context, a EvidenceAccess) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.accesses = append(r.accesses, a)
	return nil
}

// roleAuthorizer grants permissions per role.
type roleAuthorizer map[string][]Permission

func (a roleAuthorizer) Authorize(_ context.Context, auth AuthContext, perm Permission) (bool, error) {
	for _, p := range a[auth.Role] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

var testRoles = roleAuthorizer{
	"viewer":       {PermViolationRead},
	"reviewer":     {PermViolationRead, PermViolationWrite, PermViolationExport},
	"investigator": {PermViolationRead, PermViolationWrite, PermViolationExport, PermEvidenceOriginal},
}

// failingStore fails every mutation with err.
type failingStore struct {
	*MemoryStore
	err error
}

func (s *failingStore) AppendComment(context.Context, models.Comment) (models.Comment, error) {
	return models.Comment{}, s.err
}

func (s *failingStore) SearchViolations(context.Context, models.FilterSpec) ([]models.Violation, int, error) {
	return nil, 0, s.err
}

var errBackend = errors.New("backend unavailable")

func newTestEngine(seed ...models.Violation) (*Engine, *MemoryStore, *recordingRecorder) {
	store := NewMemoryStore(seed...)
	rec := &recordingRecorder{}
	e := New(store, Config{
		PageSize:    12,
		MaxPageSize: 100,
		Directory:   DefaultDirectory(),
		Authorizer:  testRoles,
		Recorder:    rec,
		Clock:       fixedClock,
	})
	return e, store, rec
}

func intPtr(i int) *int { return &i }
func boolPtr(b bool) *bool { return &b }
func timePtr(t time.Time) *time.Time { return &t }
