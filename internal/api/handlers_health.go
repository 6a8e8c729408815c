// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/vigil/internal/middleware"
)

// readyTimeout bounds all readiness probes together.
const readyTimeout = 3 * time.Second

// HealthStatus is the body of /health and /health/ready.
type HealthStatus struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	AuthMode   string            `json:"auth_mode"`
	Uptime     float64           `json:"uptime_seconds"`
	Components map[string]string `json:"components,omitempty"`
}

// Health handles GET /api/v1/health
//
// @Summary System health
// @Description Reports each dependency as ok or its error. Always 200; use /health/ready for gating.
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, _ := h.checkComponents(r.Context())
	respondSuccess(w, r, http.StatusOK, status, time.Now())
}

// HealthLive handles GET /api/v1/health/live
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=HealthStatus}
// @Failure 503 {object} models.APIResponse{data=HealthStatus}
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status, ready := h.checkComponents(r.Context())
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, r, code, status, time.Now())
}

// Performance handles GET /api/v1/health/performance
//
// @Summary Per-route latency percentiles
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]middleware.RouteStats}
// @Router /health/performance [get]
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	stats := []middleware.RouteStats{}
	if h.monitor != nil {
		stats = h.monitor.Stats()
	}
	respondSuccess(w, r, http.StatusOK, stats, time.Now())
}

func (h *Handler) checkComponents(ctx context.Context) (HealthStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	names := make([]string, 0, len(h.healthChecks))
	for name := range h.healthChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.healthChecks[name](ctx); err != nil {
			components[name] = err.Error()
			ready = false
			continue
		}
		components[name] = "ok"
	}

	status := "healthy"
	if !ready {
		status = "degraded"
	}
	return HealthStatus{
		Status:     status,
		Version:    h.version,
		AuthMode:   h.authMode.String(),
		Uptime:     time.Since(h.startTime).Seconds(),
		Components: components,
	}, ready
}
