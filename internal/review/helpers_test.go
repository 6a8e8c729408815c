// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package review

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

var testAuth = forensics.AuthContext{UserID: "local:jane", UserName: "Jane", Role: "reviewer", Token: "tok"}

func fixedClock() time.Time { return testNow }

func reviewViolation(n int, sev models.Severity) models.Violation {
	id := fmt.Sprintf("VIO-%05d", n)
	at := testNow.Add(-time.Duration(n) * time.Hour)
	return models.Violation{
		ID:              id,
		DetectionType:   models.DetectionPPEVest,
		Severity:        sev,
		ConfidenceScore: 0.9,
		Description:     "Worker without vest",
		SiteID:          "site-001",
		ZoneID:          "zone-001",
		CameraID:        "cam-001",
		DetectedAt:      at,
		Status:          models.StatusActive,
		Evidence: []models.Evidence{{
			ID:          fmt.Sprintf("EVD-%05d-001", n),
			ViolationID: id,
			Type:        models.MediaVideo,
			OriginalURL: fmt.Sprintf("/media/evidence/%05d_original.mp4", n),
			BlurredURL:  fmt.Sprintf("/media/evidence/%05d_blurred.mp4", n),
			CreatedAt:   at,
		}},
		Comments: []models.Comment{},
	}
}

// fakeBackend runs against a real engine and lets tests gate, fail or
// block individual calls.
type fakeBackend struct {
	Backend

	mu           sync.Mutex
	searchCalls  int
	searchErr    error
	searchGates  map[string]chan struct{}
	searchCtxs   map[string]context.Context
	mutationErr  error
	mutationGate chan struct{}
	entered      chan struct{}
	mutations    int
	holdDownload bool
	downloading  chan struct{}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	seed := make([]models.Violation, 0, 100)
	for i := 1; i <= 100; i++ {
		sev := models.SeverityLow
		if i <= 20 {
			sev = models.SeverityCritical
		}
		seed = append(seed, reviewViolation(i, sev))
	}
	engine := forensics.New(forensics.NewMemoryStore(seed...), forensics.Config{
		PageSize:    12,
		MaxPageSize: 100,
		Directory:   forensics.DefaultDirectory(),
		Clock:       fixedClock,
	})
	return &fakeBackend{
		Backend:     Local(engine, testAuth),
		searchGates: make(map[string]chan struct{}),
		searchCtxs:  make(map[string]context.Context),
	}
}

func newTestSession(t *testing.T, b Backend) *Session {
	t.Helper()
	return NewSession(Config{
		Backend:   b,
		Directory: forensics.DefaultDirectory(),
		Reviewer:  Reviewer{ID: testAuth.UserID, Name: testAuth.UserName},
		PageSize:  12,
		Clock:     fixedClock,
	})
}

// Search ignores cancellation once released so a late response still
// reaches the session.
func (f *fakeBackend) Search(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error) {
	f.mu.Lock()
	f.searchCalls++
	gate := f.searchGates[spec.SearchText]
	f.searchCtxs[spec.SearchText] = ctx
	err := f.searchErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.PagedResult{}, err
	}
	return f.Backend.Search(context.Background(), spec)
}

func (f *fakeBackend) searchCtx(text string) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCtxs[text]
}

func (f *fakeBackend) calls() (search, mutations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.mutations
}

func (f *fakeBackend) setSearchErr(err error) {
	f.mu.Lock()
	f.searchErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) setMutationErr(err error) {
	f.mu.Lock()
	f.mutationErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) beforeMutation() error {
	f.mu.Lock()
	f.mutations++
	gate, entered, err := f.mutationGate, f.entered, f.mutationErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeBackend) AddComment(ctx context.Context, violationID, content string) (models.Comment, error) {
	if err := f.beforeMutation(); err != nil {
		return models.Comment{}, err
	}
	return f.Backend.AddComment(ctx, violationID, content)
}

func (f *fakeBackend) AcknowledgeComment(ctx context.Context, violationID, commentID string) (models.Comment, error) {
	if err := f.beforeMutation(); err != nil {
		return models.Comment{}, err
	}
	return f.Backend.AcknowledgeComment(ctx, violationID, commentID)
}

func (f *fakeBackend) MarkFalsePositive(ctx context.Context, id, reason string) (*models.Violation, error) {
	if err := f.beforeMutation(); err != nil {
		return nil, err
	}
	return f.Backend.MarkFalsePositive(ctx, id, reason)
}

func (f *fakeBackend) Resolve(ctx context.Context, id string) (*models.Violation, error) {
	if err := f.beforeMutation(); err != nil {
		return nil, err
	}
	return f.Backend.Resolve(ctx, id)
}

func (f *fakeBackend) DownloadEvidence(ctx context.Context, violationID, evidenceID string, revealOriginal bool) (models.DownloadTicket, error) {
	f.mu.Lock()
	hold, started := f.holdDownload, f.downloading
	f.mu.Unlock()
	if hold {
		if started != nil {
			started <- struct{}{}
		}
		<-ctx.Done()
		return models.DownloadTicket{}, ctx.Err()
	}
	return f.Backend.DownloadEvidence(ctx, violationID, evidenceID, revealOriginal)
}

func transient(op string) error {
	return &forensics.TransientNetworkError{Op: op, Err: fmt.Errorf("connection reset")}
}
