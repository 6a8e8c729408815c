// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// Search handles POST /api/v1/forensics/search
//
// @Summary Search violations
// @Description Returns one page of violations matching the filter, newest first. Evidence URLs are redacted.
// @Tags Forensics
// @Accept json
// @Produce json
// @Param filter body FilterRequest false "Search filter"
// @Success 200 {object} models.APIResponse{data=models.PagedResult}
// @Failure 400 {object} models.APIResponse "Invalid filter"
// @Router /forensics/search [post]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	h.search(w, r, req)
}

// ListViolations handles GET /api/v1/forensics/violations with the filter
// in query parameters.
//
// @Summary List violations
// @Tags Forensics
// @Produce json
// @Param date_from query string false "RFC 3339 or YYYY-MM-DD"
// @Param date_to query string false "RFC 3339 or YYYY-MM-DD (whole day)"
// @Param site_id query string false "Site"
// @Param zone_id query string false "Zone"
// @Param camera_id query string false "Camera"
// @Param detection_type query string false "Detection type"
// @Param severity query string false "critical, high, medium, low"
// @Param min_confidence query int false "Minimum confidence percentage (0-100)"
// @Param is_false_positive query bool false "False positive flag"
// @Param status query string false "active, resolved, pending_review"
// @Param search_text query string false "Description contains"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.APIResponse{data=models.PagedResult}
// @Router /forensics/violations [get]
func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	req, err := filterRequestFromQuery(r.URL.Query())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.search(w, r, req)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, req FilterRequest) {
	start := time.Now()

	spec, err := req.ToFilterSpec()
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	res, err := h.engine.SearchViolations(r.Context(), caller(r), spec)
	if err != nil {
		h.engineError(w, r, forensics.PermViolationRead, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, res, start)
}

// GetViolation handles GET /api/v1/forensics/violations/{id}
//
// @Summary Get a violation
// @Description Returns the violation with its comment log and redacted evidence.
// @Tags Forensics
// @Produce json
// @Param id path string true "Violation ID"
// @Success 200 {object} models.APIResponse{data=models.Violation}
// @Failure 404 {object} models.APIResponse
// @Router /forensics/violations/{id} [get]
func (h *Handler) GetViolation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	v, err := h.engine.GetViolation(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.engineError(w, r, forensics.PermViolationRead, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, v, start)
}

// MarkFalsePositive handles POST /api/v1/forensics/violations/{id}/false-positive
//
// @Summary Mark a violation as a false positive
// @Description Requires a non-blank reason. The status is left unchanged.
// @Tags Forensics
// @Accept json
// @Produce json
// @Param id path string true "Violation ID"
// @Param body body models.FalsePositiveRequest true "Reason"
// @Success 200 {object} models.APIResponse{data=models.Violation}
// @Failure 400 {object} models.APIResponse
// @Router /forensics/violations/{id}/false-positive [post]
func (h *Handler) MarkFalsePositive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	var req models.FalsePositiveRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	v, err := h.engine.MarkFalsePositive(r.Context(), caller(r), id, req.Reason)
	if err != nil {
		h.engineError(w, r, forensics.PermViolationWrite, err)
		return
	}
	h.logReview(r, audit.EventTypeFalsePositive, id, "", "Marked false positive: "+req.Reason)
	respondSuccess(w, r, http.StatusOK, v, start)
}

// UnmarkFalsePositive handles DELETE /api/v1/forensics/violations/{id}/false-positive
//
// @Summary Clear the false positive flag
// @Tags Forensics
// @Produce json
// @Param id path string true "Violation ID"
// @Success 200 {object} models.APIResponse{data=models.Violation}
// @Router /forensics/violations/{id}/false-positive [delete]
func (h *Handler) UnmarkFalsePositive(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.UnmarkFalsePositive, audit.EventTypeFalsePositiveCleared, "False positive flag cleared")
}

// Resolve handles POST /api/v1/forensics/violations/{id}/resolve
//
// @Summary Resolve a violation
// @Tags Forensics
// @Produce json
// @Param id path string true "Violation ID"
// @Success 200 {object} models.APIResponse{data=models.Violation}
// @Router /forensics/violations/{id}/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.Resolve, audit.EventTypeResolved, "Violation resolved")
}

// Reopen handles POST /api/v1/forensics/violations/{id}/reopen
//
// @Summary Reopen a resolved violation
// @Tags Forensics
// @Produce json
// @Param id path string true "Violation ID"
// @Success 200 {object} models.APIResponse{data=models.Violation}
// @Router /forensics/violations/{id}/reopen [post]
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.engine.Reopen, audit.EventTypeReopened, "Violation reopened")
}

type dispositionFunc func(ctx context.Context, auth forensics.AuthContext, id string) (*models.Violation, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn dispositionFunc, eventType audit.EventType, description string) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	v, err := fn(r.Context(), caller(r), id)
	if err != nil {
		h.engineError(w, r, forensics.PermViolationWrite, err)
		return
	}
	h.logReview(r, eventType, id, "", description)
	respondSuccess(w, r, http.StatusOK, v, start)
}
