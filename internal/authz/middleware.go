// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package authz

import (
	"net/http"

	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
)

// Middleware guards routes with a permission check.
type Middleware struct {
	authorizer forensics.Authorizer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(authorizer forensics.Authorizer) *Middleware {
	return &Middleware{authorizer: authorizer}
}

// Require returns chi middleware that rejects callers lacking perm. It must
// run after auth.Middleware.Authenticate.
func (m *Middleware) Require(perm forensics.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := auth.FromContext(r.Context())
			if !ok {
				auth.WriteAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: no authentication context")
				return
			}

			allowed, err := m.authorizer.Authorize(r.Context(), caller, perm)
			if err != nil {
				logging.CtxErr(r.Context(), err).Msg("Authorization error")
				auth.WriteAuthError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Authorization check failed")
				return
			}
			if !allowed {
				auth.WriteAuthError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden: role "+caller.Role+" lacks "+string(perm))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
