// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/forensics"
)

type errAuthorizer struct{}

func (errAuthorizer) Authorize(context.Context, forensics.AuthContext, forensics.Permission) (bool, error) {
	return false, errors.New("backend down")
}

func TestMiddleware_Require(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		name       string
		authorizer forensics.Authorizer
		caller     *forensics.AuthContext
		perm       forensics.Permission
		wantStatus int
	}{
		{"no auth context", e, nil, PermAuditRead, http.StatusUnauthorized},
		{"allowed", e, &forensics.AuthContext{UserID: "u", Role: "investigator", Token: "t"}, PermAuditRead, http.StatusOK},
		{"denied", e, &forensics.AuthContext{UserID: "u", Role: "viewer", Token: "t"}, PermAuditRead, http.StatusForbidden},
		{"authorizer error", errAuthorizer{}, &forensics.AuthContext{UserID: "u", Role: "admin", Token: "t"}, PermAuditRead, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			h := NewMiddleware(tt.authorizer).Require(tt.perm)(next)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/events", nil)
			if tt.caller != nil {
				req = req.WithContext(auth.WithAuth(req.Context(), *tt.caller))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
