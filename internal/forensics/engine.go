// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
)

// DefaultExportMaxRows bounds an export when Config leaves it unset.
const DefaultExportMaxRows = 10000

// Config configures an Engine.
type Config struct {
	PageSize      int
	MaxPageSize   int
	ExportMaxRows int
	Directory     *models.Directory
	Authorizer    Authorizer
	Recorder      AccessRecorder
	Clock         func() time.Time
}

// Engine is the forensics facade used by the API layer. Every operation
// takes the caller's AuthContext explicitly.
type Engine struct {
	store       Store
	directory   *models.Directory
	authorizer  Authorizer
	clock       func() time.Time
	exportLimit int

	search      *SearchQueryExecutor
	evidence    *EvidenceAccessor
	annotations *AnnotationLedger
	disposition *DispositionTracker
	exporter    ExportFormatter
}

// New creates an Engine over store.
func New(store Store, cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Directory == nil {
		cfg.Directory = &models.Directory{}
	}
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = DefaultExportMaxRows
	}
	return &Engine{
		store:       store,
		directory:   cfg.Directory,
		authorizer:  cfg.Authorizer,
		clock:       cfg.Clock,
		exportLimit: cfg.ExportMaxRows,
		search:      NewSearchQueryExecutor(store, cfg.Directory, cfg.PageSize, cfg.MaxPageSize),
		evidence:    NewEvidenceAccessor(store, cfg.Authorizer, cfg.Recorder, cfg.Clock),
		annotations: NewAnnotationLedger(store, cfg.Clock),
		disposition: NewDispositionTracker(store, cfg.Clock),
	}
}

// Directory returns the site/zone/camera catalog.
func (e *Engine) Directory() *models.Directory {
	return e.directory
}

// PageSize returns the deployment page length.
func (e *Engine) PageSize() int {
	return e.search.PageSize()
}

func (e *Engine) authorize(ctx context.Context, auth AuthContext, perm Permission) error {
	return requireAuth(ctx, e.authorizer, auth, perm)
}

// SearchViolations returns one page of violations matching spec. Evidence
// in the items is redacted.
func (e *Engine) SearchViolations(ctx context.Context, auth AuthContext, spec models.FilterSpec) (models.PagedResult, error) {
	if err := e.authorize(ctx, auth, PermViolationRead); err != nil {
		return models.PagedResult{}, err
	}
	res, err := e.search.Search(ctx, spec)
	if err != nil {
		return models.PagedResult{}, err
	}
	for i := range res.Items {
		res.Items[i].Evidence = Redact(res.Items[i].Evidence)
	}
	return res, nil
}

// GetViolation returns a violation with its comments and redacted evidence.
func (e *Engine) GetViolation(ctx context.Context, auth AuthContext, id string) (*models.Violation, error) {
	if err := e.authorize(ctx, auth, PermViolationRead); err != nil {
		return nil, err
	}
	v, err := e.store.GetViolation(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Evidence = Redact(v.Evidence)
	return v, nil
}

// ListEvidence returns the redacted evidence of a violation.
func (e *Engine) ListEvidence(ctx context.Context, auth AuthContext, violationID string) ([]models.Evidence, error) {
	if err := e.authorize(ctx, auth, PermViolationRead); err != nil {
		return nil, err
	}
	return e.evidence.List(ctx, violationID)
}

// DownloadEvidence resolves a download of one evidence item.
func (e *Engine) DownloadEvidence(ctx context.Context, auth AuthContext, violationID, evidenceID string, revealOriginal bool) (models.DownloadTicket, error) {
	return e.evidence.Download(ctx, auth, violationID, evidenceID, revealOriginal)
}

// AddComment appends a comment authored by the caller.
func (e *Engine) AddComment(ctx context.Context, auth AuthContext, violationID, content string) (models.Comment, error) {
	if err := e.authorize(ctx, auth, PermViolationWrite); err != nil {
		return models.Comment{}, err
	}
	return e.annotations.AddComment(ctx, violationID, auth.UserID, auth.UserName, content)
}

// AcknowledgeComment acknowledges a comment on behalf of the caller.
func (e *Engine) AcknowledgeComment(ctx context.Context, auth AuthContext, violationID, commentID string) (models.Comment, error) {
	if err := e.authorize(ctx, auth, PermViolationWrite); err != nil {
		return models.Comment{}, err
	}
	return e.annotations.Acknowledge(ctx, violationID, commentID, auth.UserID)
}

// MarkFalsePositive flags a violation as a false positive.
func (e *Engine) MarkFalsePositive(ctx context.Context, auth AuthContext, id, reason string) (*models.Violation, error) {
	if err := e.authorize(ctx, auth, PermViolationWrite); err != nil {
		return nil, err
	}
	return e.redacted(e.disposition.MarkFalsePositive(ctx, id, reason, auth.UserName))
}

// UnmarkFalsePositive clears the false-positive flag.
func (e *Engine) UnmarkFalsePositive(ctx context.Context, auth AuthContext, id string) (*models.Violation, error) {
	if err := e.authorize(ctx, auth, PermViolationWrite); err != nil {
		return nil, err
	}
	return e.redacted(e.disposition.UnmarkFalsePositive(ctx, id))
}

// Resolve resolves a violation.
func (e *Engine) Resolve(ctx context.Context, auth AuthContext, id string) (*models.Violation, error) {
	if err := e.authorize(ctx, auth, PermViolationWrite); err != nil {
		return nil, err
	}
	return e.redacted(e.disposition.Resolve(ctx, id, auth.UserName))
}

// Reopen reopens a resolved violation.
func (e *Engine) Reopen(ctx context.Context, auth AuthContext, id string) (*models.Violation, error) {
	if err := e.authorize(ctx, auth, PermViolationWrite); err != nil {
		return nil, err
	}
	return e.redacted(e.disposition.Reopen(ctx, id))
}

func (e *Engine) redacted(v *models.Violation, err error) (*models.Violation, error) {
	if err != nil {
		return nil, err
	}
	v.Evidence = Redact(v.Evidence)
	return v, nil
}

// ExportSearch serializes every violation matching spec, in result order,
// up to the configured row limit. Pagination fields of spec are ignored.
func (e *Engine) ExportSearch(ctx context.Context, auth AuthContext, spec models.FilterSpec, format string) ([]byte, string, error) {
	if err := e.authorize(ctx, auth, PermViolationExport); err != nil {
		return nil, "", err
	}
	if !SupportedFormat(format) {
		return nil, "", NewValidationError("format", "unsupported export format "+format)
	}

	spec.Page = 1
	spec.PageSize = e.search.maxPageSize
	items := make([]models.Violation, 0, spec.PageSize)
	for {
		res, err := e.search.Search(ctx, spec)
		if err != nil {
			return nil, "", err
		}
		items = append(items, res.Items...)
		if !res.HasNext || len(items) >= e.exportLimit {
			break
		}
		spec.Page++
	}
	if len(items) > e.exportLimit {
		logging.Ctx(ctx).Warn().
			Int("limit", e.exportLimit).
			Int("matched", len(items)).
			Msg("Export truncated to row limit")
		items = items[:e.exportLimit]
	}

	data, contentType, err := e.exporter.Export(items, format)
	if err != nil {
		return nil, "", fmt.Errorf("export: %w", err)
	}
	logging.Ctx(ctx).Info().
		Str("format", format).
		Int("rows", len(items)).
		Str("user_id", auth.UserID).
		Msg("Search exported")
	return data, contentType, nil
}

// DetectionTypes returns the detection type catalog.
func (e *Engine) DetectionTypes() []models.DetectionTypeOption {
	return models.DetectionTypes()
}

// Zones returns the zones selectable for siteID.
func (e *Engine) Zones(ctx context.Context, auth AuthContext, siteID string) ([]models.Zone, error) {
	if err := e.authorize(ctx, auth, PermViolationRead); err != nil {
		return nil, err
	}
	if siteID != "" && len(e.directory.Sites) > 0 {
		if _, ok := e.directory.Site(siteID); !ok {
			return nil, NewValidationError("site_id", "unknown site "+siteID)
		}
	}
	return models.ValidZones(siteID, e.directory.Zones), nil
}

// Summary aggregates violations detected in the last days days.
func (e *Engine) Summary(ctx context.Context, auth AuthContext, days int) (models.StatsSummary, error) {
	if err := e.authorize(ctx, auth, PermViolationRead); err != nil {
		return models.StatsSummary{}, err
	}
	if days < 1 || days > 365 {
		return models.StatsSummary{}, NewValidationError("days", "days must be between 1 and 365")
	}
	since := e.clock().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	sum, err := e.store.Summary(ctx, since)
	if err != nil {
		return models.StatsSummary{}, fmt.Errorf("summary: %w", err)
	}
	sum.Days = days
	return sum, nil
}
