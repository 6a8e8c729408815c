// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"context"
	"errors"

	"github.com/tomtom215/vigil/internal/forensics"
)

// AuthMode represents the authentication strategy.
type AuthMode string

const (
	// AuthModeNone disables authentication
	AuthModeNone AuthMode = "none"

	// AuthModeJWT uses JWT Bearer tokens
	AuthModeJWT AuthMode = "jwt"
)

// ParseAuthMode converts a string to AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch s {
	case "none":
		return AuthModeNone, nil
	case "jwt", "":
		return AuthModeJWT, nil
	default:
		return "", errors.New("invalid auth mode: " + s)
	}
}

// String returns the string representation of AuthMode.
func (m AuthMode) String() string {
	return string(m)
}

// AnonymousAdmin is the identity used when authentication is disabled.
var AnonymousAdmin = forensics.AuthContext{
	UserID:   "anonymous",
	UserName: "Anonymous",
	Role:     "admin",
	Token:    "auth-disabled",
}

type contextKey struct{}

// WithAuth returns a copy of ctx carrying auth.
func WithAuth(ctx context.Context, auth forensics.AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, auth)
}

// FromContext returns the AuthContext stored by the middleware.
func FromContext(ctx context.Context) (forensics.AuthContext, bool) {
	auth, ok := ctx.Value(contextKey{}).(forensics.AuthContext)
	return auth, ok
}
