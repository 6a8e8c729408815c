// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
)

var (
	// ErrSuperseded is returned by a search whose response arrived after a
	// newer search was issued. Its result was discarded.
	ErrSuperseded = errors.New("search superseded by a newer query")

	// ErrNoViolationOpen is returned by detail operations when the detail
	// view is closed.
	ErrNoViolationOpen = errors.New("no violation open")
)

// Reviewer identifies the session user on optimistic local records.
type Reviewer struct {
	ID   string
	Name string
}

// Config configures a Session.
type Config struct {
	Backend   Backend
	Directory *models.Directory
	Reviewer  Reviewer
	PageSize  int
	Clock     func() time.Time
}

// State is a snapshot of the list view.
type State struct {
	Filter     models.FilterSpec
	Result     models.PagedResult
	Generation uint64
	Loading    bool

	// Err is the last search failure. Result is then the last good page
	// and Filter the one that failed.
	Err error
}

// Session is one reviewer's investigation. It is safe for concurrent use.
type Session struct {
	backend  Backend
	dir      *models.Directory
	reviewer Reviewer
	pageSize int
	now      func() time.Time
	logger   zerolog.Logger

	mu           sync.Mutex
	filter       models.FilterSpec
	result       models.PagedResult
	searchErr    error
	issued       uint64
	applied      uint64
	cancelSearch context.CancelFunc

	detail  *detailView
	pending uint64
}

// NewSession creates a session with an empty filter on page 1.
func NewSession(cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Directory == nil {
		cfg.Directory = &models.Directory{}
	}
	return &Session{
		backend:  cfg.Backend,
		dir:      cfg.Directory,
		reviewer: cfg.Reviewer,
		pageSize: cfg.PageSize,
		now:      cfg.Clock,
		logger:   logging.WithComponent("review"),
		filter:   models.FilterSpec{Page: 1, PageSize: cfg.PageSize},
		result:   models.NewPagedResult(nil, 0, 1, cfg.PageSize),
	}
}

// State returns a snapshot of the list view.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Filter:     s.filter,
		Result:     s.result,
		Generation: s.applied,
		Loading:    s.issued != s.applied && s.cancelSearch != nil,
		Err:        s.searchErr,
	}
}

// ZoneOptions returns the zones selectable under the current site facet.
func (s *Session) ZoneOptions() []models.Zone {
	s.mu.Lock()
	siteID := s.filter.SiteID
	s.mu.Unlock()
	return models.ValidZones(siteID, s.dir.Zones)
}

// CameraOptions returns the cameras selectable under the current site and
// zone facets.
func (s *Session) CameraOptions() []models.Camera {
	s.mu.Lock()
	siteID, zoneID := s.filter.SiteID, s.filter.ZoneID
	s.mu.Unlock()
	return models.ValidCameras(siteID, zoneID, s.dir.Zones, s.dir.Cameras)
}

// ApplyFilter searches with spec. If any facet differs from the current
// filter the page is reset to 1.
func (s *Session) ApplyFilter(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error) {
	s.mu.Lock()
	if !spec.SameFacets(s.filter) || spec.Page < 1 {
		spec.Page = 1
	}
	if spec.PageSize == 0 {
		spec.PageSize = s.pageSize
	}
	s.mu.Unlock()
	return s.Search(ctx, spec)
}

// Refine applies fn to the current filter and searches. Use the
// FilterSpec With* helpers, which reset the page.
func (s *Session) Refine(ctx context.Context, fn func(models.FilterSpec) models.FilterSpec) (models.PagedResult, error) {
	s.mu.Lock()
	spec := fn(s.filter)
	s.mu.Unlock()
	return s.ApplyFilter(ctx, spec)
}

// GoToPage searches the current filter on another page.
func (s *Session) GoToPage(ctx context.Context, page int) (models.PagedResult, error) {
	s.mu.Lock()
	spec := s.filter.WithPage(page)
	s.mu.Unlock()
	return s.Search(ctx, spec)
}

// Retry repeats the current filter, typically after a transient failure.
func (s *Session) Retry(ctx context.Context) (models.PagedResult, error) {
	s.mu.Lock()
	spec := s.filter
	s.mu.Unlock()
	return s.Search(ctx, spec)
}

// Search issues spec as the newest query. Any in-flight search is
// canceled. The state is updated only if no newer search was issued while
// this one ran.
func (s *Session) Search(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error) {
	if err := forensics.ValidateFilter(&spec, s.dir); err != nil {
		return models.PagedResult{}, err
	}

	searchCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancelSearch != nil {
		s.cancelSearch()
	}
	s.issued++
	gen := s.issued
	s.cancelSearch = cancel
	s.mu.Unlock()

	res, err := s.backend.Search(searchCtx, spec)

	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.issued {
		s.logger.Debug().Uint64("generation", gen).Uint64("latest", s.issued).Msg("Discarding superseded search response")
		return models.PagedResult{}, ErrSuperseded
	}
	s.cancelSearch = nil

	// The filter is kept on failure so Retry repeats it.
	s.filter = spec
	s.applied = gen
	if err != nil {
		s.searchErr = err
		if forensics.IsTransient(err) {
			s.logger.Warn().Err(err).Uint64("generation", gen).Msg("Search failed, keeping previous results")
		}
		return models.PagedResult{}, err
	}

	s.result = res
	s.searchErr = nil
	return res, nil
}
