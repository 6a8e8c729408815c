// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/forensics"
)

// maxAuditLimit caps a single audit query.
const maxAuditLimit = 1000

// AuditPage is one window of the access trail.
type AuditPage struct {
	Events []audit.Event `json:"events"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
}

// AuditEvents handles GET /api/v1/audit/events
//
// @Summary Query the access trail
// @Description Newest first. Requires audit:read.
// @Tags Audit
// @Produce json
// @Param type query []string false "Event types" collectionFormat(multi)
// @Param actor_id query string false "Actor"
// @Param target_id query string false "Violation ID"
// @Param start_time query string false "RFC 3339"
// @Param end_time query string false "RFC 3339"
// @Param limit query int false "Max events (default 100, max 1000)"
// @Success 200 {object} models.APIResponse{data=AuditPage}
// @Router /audit/events [get]
func (h *Handler) AuditEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, err := auditFilterFromRequest(r)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	h.queryAudit(w, r, filter, start)
}

// ViolationAccessLog handles GET /api/v1/audit/violations/{id}
//
// @Summary Access trail of one violation
// @Tags Audit
// @Produce json
// @Param id path string true "Violation ID"
// @Success 200 {object} models.APIResponse{data=AuditPage}
// @Router /audit/violations/{id} [get]
func (h *Handler) ViolationAccessLog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	filter, err := auditFilterFromRequest(r)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	filter.TargetID = chi.URLParam(r, "id")
	h.queryAudit(w, r, filter, start)
}

func (h *Handler) queryAudit(w http.ResponseWriter, r *http.Request, filter audit.QueryFilter, start time.Time) {
	if h.audit == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Audit trail is not configured", nil)
		return
	}

	events, err := h.audit.Query(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query audit events", err)
		return
	}
	countFilter := filter
	countFilter.Limit = 0
	total, err := h.audit.Count(r.Context(), countFilter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count audit events", err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	respondSuccess(w, r, http.StatusOK, AuditPage{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
	}, start)
}

func auditFilterFromRequest(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.DefaultQueryFilter()

	limit, err := intParam(r, "limit", filter.Limit)
	if err != nil {
		return filter, err
	}
	if limit < 1 || limit > maxAuditLimit {
		return filter, forensics.NewValidationError("limit", "limit must be between 1 and 1000")
	}
	filter.Limit = limit

	for _, t := range q["type"] {
		filter.Types = append(filter.Types, audit.EventType(t))
	}
	filter.ActorID = q.Get("actor_id")
	filter.TargetID = q.Get("target_id")

	for key, dst := range map[string]**time.Time{"start_time": &filter.StartTime, "end_time": &filter.EndTime} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, forensics.NewValidationError(key, "must be RFC 3339")
		}
		*dst = &t
	}
	return filter, nil
}
