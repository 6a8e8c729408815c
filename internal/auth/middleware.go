// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
)

// FailureObserver is notified of rejected credentials.
type FailureObserver interface {
	ObserveAuthFailure(ctx context.Context, r *http.Request, reason string)
}

// Middleware authenticates API requests.
type Middleware struct {
	jwtManager *JWTManager
	authMode   AuthMode
	observer   FailureObserver
}

// NewMiddleware creates a new authentication middleware. jwtManager may be
// nil when mode is AuthModeNone.
func NewMiddleware(jwtManager *JWTManager, mode AuthMode) *Middleware {
	if mode == AuthModeNone {
		logging.Warn().Msg("Authentication is DISABLED: every request runs as an anonymous admin")
	}
	return &Middleware{
		jwtManager: jwtManager,
		authMode:   mode,
	}
}

// SetFailureObserver registers an observer for rejected credentials.
func (m *Middleware) SetFailureObserver(o FailureObserver) {
	m.observer = o
}

// Mode returns the configured auth mode.
func (m *Middleware) Mode() AuthMode {
	return m.authMode
}

// Authenticate is middleware that enforces authentication and stores the
// caller's AuthContext on the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone {
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), AnonymousAdmin)))
			return
		}

		token, err := extractToken(r)
		if err != nil {
			m.reject(w, r, err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			m.reject(w, r, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), claims.AuthContext(token))))
	})
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, reason string) {
	if m.observer != nil {
		m.observer.ObserveAuthFailure(r.Context(), r, reason)
	}
	w.Header().Set("WWW-Authenticate", `Bearer realm="vigil"`)
	WriteAuthError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: "+reason)
}

// extractToken extracts the JWT from the Authorization header or the
// "token" cookie.
func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil || cookie.Value == "" {
			return "", errors.New("missing token")
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}

// WriteAuthError writes the standard JSON error envelope.
func WriteAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	data, err := json.Marshal(&models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{Code: code, Message: message},
	})
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write auth error response")
	}
}
