// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/authz"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/middleware"
)

// HealthCheck probes one dependency for the readiness endpoint.
type HealthCheck func(ctx context.Context) error

// HandlerDeps collects the Handler's collaborators. Engine is required;
// everything else is optional and the matching endpoints degrade or
// return 503 when absent.
type HandlerDeps struct {
	Engine      *forensics.Engine
	Audit       *audit.Logger
	JWT         *auth.JWTManager
	Credentials *auth.CredentialStore
	Lockout     *auth.LockoutManager
	Enforcer    *authz.Enforcer
	Monitor     *middleware.Monitor
	AuthMode    auth.AuthMode
	Version     string

	// HealthChecks are run by /health/ready, keyed by component name.
	HealthChecks map[string]HealthCheck
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_violations.go: search, detail and disposition
//   - handlers_comments.go: comment log
//   - handlers_evidence.go: evidence listing and download
//   - handlers_export.go: CSV/JSON export
//   - handlers_catalog.go: detection types, zones, stats summary
//   - handlers_auth.go: development login and identity
//   - handlers_audit.go: access trail query
//   - handlers_health.go: health and performance
type Handler struct {
	engine       *forensics.Engine
	audit        *audit.Logger
	jwt          *auth.JWTManager
	credentials  *auth.CredentialStore
	lockout      *auth.LockoutManager
	enforcer     *authz.Enforcer
	monitor      *middleware.Monitor
	authMode     auth.AuthMode
	version      string
	healthChecks map[string]HealthCheck
	startTime    time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps HandlerDeps) *Handler {
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{
		engine:       deps.Engine,
		audit:        deps.Audit,
		jwt:          deps.JWT,
		credentials:  deps.Credentials,
		lockout:      deps.Lockout,
		enforcer:     deps.Enforcer,
		monitor:      deps.Monitor,
		authMode:     deps.AuthMode,
		version:      deps.Version,
		healthChecks: deps.HealthChecks,
		startTime:    time.Now(),
	}
}

// engineError responds with the mapped engine error and records
// authorization denials in the audit trail.
func (h *Handler) engineError(w http.ResponseWriter, r *http.Request, perm forensics.Permission, err error) {
	var aerr *forensics.AuthorizationError
	if h.audit != nil && errors.As(err, &aerr) && caller(r).Authenticated() {
		h.audit.LogAuthzDenied(r.Context(), audit.ActorFromAuth(caller(r)), audit.SourceFromRequest(r), perm.Object(), perm.Action())
	}
	respondEngineError(w, r, err)
}

// logReview records a successful review action.
func (h *Handler) logReview(r *http.Request, eventType audit.EventType, violationID, childID, description string) {
	if h.audit == nil {
		return
	}
	h.audit.LogReviewAction(r.Context(), eventType, audit.ActorFromAuth(caller(r)), audit.SourceFromRequest(r), violationID, childID, description)
}
