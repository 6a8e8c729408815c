// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// DetectionTypes handles GET /api/v1/forensics/detection-types
//
// @Summary Detection type catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.DetectionTypeOption}
// @Router /forensics/detection-types [get]
func (h *Handler) DetectionTypes(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, h.engine.DetectionTypes(), time.Now())
}

// Zones handles GET /api/v1/forensics/directory/zones?site_id=
//
// @Summary Zones selectable for a site
// @Description Without site_id every zone is returned.
// @Tags Catalog
// @Produce json
// @Param site_id query string false "Site"
// @Success 200 {object} models.APIResponse{data=[]models.Zone}
// @Router /forensics/directory/zones [get]
func (h *Handler) Zones(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	zones, err := h.engine.Zones(r.Context(), caller(r), r.URL.Query().Get("site_id"))
	if err != nil {
		h.engineError(w, r, forensics.PermViolationRead, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, zones, start)
}

// Sites handles GET /api/v1/forensics/directory/sites
//
// @Summary Site catalog
// @Tags Catalog
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Site}
// @Router /forensics/directory/sites [get]
func (h *Handler) Sites(w http.ResponseWriter, r *http.Request) {
	sites := h.engine.Directory().Sites
	if sites == nil {
		sites = []models.Site{}
	}
	respondSuccess(w, r, http.StatusOK, sites, time.Now())
}

// Cameras handles GET /api/v1/forensics/directory/cameras?site_id=&zone_id=
//
// @Summary Cameras selectable for a site and zone
// @Tags Catalog
// @Produce json
// @Param site_id query string false "Site"
// @Param zone_id query string false "Zone"
// @Success 200 {object} models.APIResponse{data=[]models.Camera}
// @Router /forensics/directory/cameras [get]
func (h *Handler) Cameras(w http.ResponseWriter, r *http.Request) {
	dir := h.engine.Directory()
	q := r.URL.Query()
	cameras := models.ValidCameras(q.Get("site_id"), q.Get("zone_id"), dir.Zones, dir.Cameras)
	respondSuccess(w, r, http.StatusOK, cameras, time.Now())
}

// Summary handles GET /api/v1/forensics/stats/summary?days=
//
// @Summary Violation statistics
// @Description Aggregates violations detected in the trailing window (1-365 days, default 7).
// @Tags Stats
// @Produce json
// @Param days query int false "Window in days"
// @Success 200 {object} models.APIResponse{data=models.StatsSummary}
// @Router /forensics/stats/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	days, err := intParam(r, "days", 7)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	sum, err := h.engine.Summary(r.Context(), caller(r), days)
	if err != nil {
		h.engineError(w, r, forensics.PermViolationRead, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, sum, start)
}
