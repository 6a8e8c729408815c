// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/authz"
	"github.com/tomtom215/vigil/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	authn         *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
	monitor       *middleware.Monitor
}

// NewRouter creates a Router. monitor may be nil.
func NewRouter(handler *Handler, authn *auth.Middleware, authzMiddleware *authz.Middleware, chiMiddleware *ChiMiddleware, monitor *middleware.Monitor) *Router {
	if chiMiddleware == nil {
		chiMiddleware = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		authn:         authn,
		authz:         authzMiddleware,
		chiMiddleware: chiMiddleware,
		monitor:       monitor,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	if router.monitor != nil {
		r.Use(router.monitor.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
		r.Get("/performance", h.Performance)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitLogin)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(router.authn.Authenticate).Get("/me", h.Me)
	})

	// ========================
	// Forensics Endpoints
	// ========================
	// The engine authorizes each operation against the caller's role.
	r.Route("/api/v1/forensics", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.Compression)
		r.Use(router.authn.Authenticate)

		r.Post("/search", h.Search)
		r.Get("/violations", h.ListViolations)

		r.Route("/violations/{id}", func(r chi.Router) {
			r.Get("/", h.GetViolation)
			r.Post("/false-positive", h.MarkFalsePositive)
			r.Delete("/false-positive", h.UnmarkFalsePositive)
			r.Post("/resolve", h.Resolve)
			r.Post("/reopen", h.Reopen)

			r.Post("/comments", h.AddComment)
			r.Post("/comments/{commentId}/acknowledge", h.AcknowledgeComment)

			r.Get("/evidence", h.ListEvidence)
			r.Get("/evidence/{evidenceId}/download", h.DownloadEvidence)
		})

		r.With(router.chiMiddleware.RateLimitCustom(RateLimitExport)).Post("/export", h.Export)

		r.Get("/detection-types", h.DetectionTypes)
		r.Get("/directory/sites", h.Sites)
		r.Get("/directory/zones", h.Zones)
		r.Get("/directory/cameras", h.Cameras)
		r.Get("/stats/summary", h.Summary)
	})

	// ========================
	// Audit Endpoints
	// ========================
	r.Route("/api/v1/audit", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.authn.Authenticate)
		r.Use(router.authz.Require(authz.PermAuditRead))

		r.Get("/events", h.AuditEvents)
		r.Get("/violations/{id}", h.ViolationAccessLog)
	})

	return r
}
