// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"fmt"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/models"
)

// SearchQueryExecutor evaluates FilterSpecs against a Store.
type SearchQueryExecutor struct {
	store       Store
	directory   *models.Directory
	pageSize    int
	maxPageSize int
}

// NewSearchQueryExecutor creates an executor. pageSize is the deployment
// page length used when a spec leaves PageSize unset; maxPageSize caps
// explicit requests.
func NewSearchQueryExecutor(store Store, directory *models.Directory, pageSize, maxPageSize int) *SearchQueryExecutor {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &SearchQueryExecutor{
		store:       store,
		directory:   directory,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
	}
}

// PageSize returns the deployment page length.
func (e *SearchQueryExecutor) PageSize() int {
	return e.pageSize
}

// Normalize validates spec and fills pagination defaults. A zero Page
// means the first page; a Page beyond the last page is left as is.
func (e *SearchQueryExecutor) Normalize(spec models.FilterSpec) (models.FilterSpec, error) {
	if err := ValidateFilter(&spec, e.directory); err != nil {
		return spec, err
	}
	if spec.Page == 0 {
		spec.Page = 1
	}
	if spec.PageSize == 0 {
		spec.PageSize = e.pageSize
	}
	if spec.PageSize > e.maxPageSize {
		return spec, NewValidationError("page_size", fmt.Sprintf("page_size must be at most %d", e.maxPageSize))
	}
	return spec, nil
}

// Search returns the requested page of violations matching spec.
//
// A spec whose DateFrom is after its DateTo matches nothing: the result is
// empty with Total 0 and the store is not consulted.
func (e *SearchQueryExecutor) Search(ctx context.Context, spec models.FilterSpec) (models.PagedResult, error) {
	spec, err := e.Normalize(spec)
	if err != nil {
		metrics.RecordOperation("search", outcome(err))
		return models.PagedResult{}, err
	}

	if spec.InvertedDates() {
		logging.Ctx(ctx).Debug().
			Time("date_from", *spec.DateFrom).
			Time("date_to", *spec.DateTo).
			Msg("Inverted date range, returning empty result")
		metrics.RecordOperation("search", "success")
		metrics.RecordSearch(0)
		return models.NewPagedResult(nil, 0, spec.Page, spec.PageSize), nil
	}

	items, total, err := e.store.SearchViolations(ctx, spec)
	if err != nil {
		metrics.RecordOperation("search", outcome(err))
		return models.PagedResult{}, fmt.Errorf("search violations: %w", err)
	}

	metrics.RecordOperation("search", "success")
	metrics.RecordSearch(total)
	return models.NewPagedResult(items, total, spec.Page, spec.PageSize), nil
}
