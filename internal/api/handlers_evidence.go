// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/vigil/internal/forensics"
)

// ListEvidence handles GET /api/v1/forensics/violations/{id}/evidence
//
// @Summary List evidence
// @Description Returns evidence in capture order. Original URLs are never included.
// @Tags Evidence
// @Produce json
// @Param id path string true "Violation ID"
// @Success 200 {object} models.APIResponse{data=[]models.Evidence}
// @Router /forensics/violations/{id}/evidence [get]
func (h *Handler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	evidence, err := h.engine.ListEvidence(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		h.engineError(w, r, forensics.PermViolationRead, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, evidence, start)
}

// DownloadEvidence handles GET /api/v1/forensics/violations/{id}/evidence/{evidenceId}/download
//
// The blurred rendition is returned unless reveal_original=true is passed
// explicitly. Revealing requires the evidence:original permission and is
// recorded in the access trail before the URL is released.
//
// @Summary Resolve an evidence download
// @Tags Evidence
// @Produce json
// @Param id path string true "Violation ID"
// @Param evidenceId path string true "Evidence ID"
// @Param reveal_original query bool false "Return the unblurred original"
// @Success 200 {object} models.APIResponse{data=models.DownloadTicket}
// @Failure 403 {object} models.APIResponse
// @Router /forensics/violations/{id}/evidence/{evidenceId}/download [get]
func (h *Handler) DownloadEvidence(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	reveal, err := boolParam(r, "reveal_original")
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	perm := forensics.PermViolationRead
	if reveal {
		perm = forensics.PermEvidenceOriginal
	}

	ticket, err := h.engine.DownloadEvidence(r.Context(), caller(r), chi.URLParam(r, "id"), chi.URLParam(r, "evidenceId"), reveal)
	if err != nil {
		h.engineError(w, r, perm, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, ticket, start)
}
