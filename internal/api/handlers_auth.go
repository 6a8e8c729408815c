// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
)

// Login handles POST /api/v1/auth/login
//
// Development login: verifies a configured local account and issues a JWT,
// also set as an HttpOnly cookie.
//
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse{data=models.LoginResponse}
// @Failure 401 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse "Account locked"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.authMode != auth.AuthModeJWT || h.jwt == nil || h.credentials == nil {
		respondError(w, r, http.StatusForbidden, "FORBIDDEN", "Login is not available in this authentication mode", nil)
		return
	}

	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if h.lockout != nil {
		if locked, remaining := h.lockout.CheckLocked(req.Username); locked {
			h.loginFailed(r, req.Username, "account locked")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Account temporarily locked", nil)
			return
		}
	}

	user, err := h.credentials.Verify(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Login failed", err)
			return
		}
		h.loginFailed(r, req.Username, "invalid credentials")
		if h.lockout != nil {
			h.lockout.RecordFailedAttempt(req.Username)
		}
		respondError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil)
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(user)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to generate authentication token", err)
		return
	}
	if h.lockout != nil {
		h.lockout.RecordSuccessfulLogin(req.Username)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	if h.audit != nil {
		h.audit.LogAuthSuccess(r.Context(), audit.Actor{
			ID:   user.ID,
			Type: "user",
			Name: user.Username,
			Role: user.Role,
		}, audit.SourceFromRequest(r), "password")
	}
	logging.Ctx(r.Context()).Info().
		Str("username", sanitizeLogValue(user.Username)).
		Str("role", user.Role).
		Msg("User logged in")

	respondSuccess(w, r, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		Username:  user.Username,
		Role:      user.Role,
	}, start)
}

func (h *Handler) loginFailed(r *http.Request, username, reason string) {
	if h.audit != nil {
		h.audit.LogAuthFailure(r.Context(), username, audit.SourceFromRequest(r), reason)
	}
	logging.Ctx(r.Context()).Warn().
		Str("username", sanitizeLogValue(username)).
		Str("reason", reason).
		Msg("Login failed")
}

// Logout handles POST /api/v1/auth/logout by clearing the token cookie.
// Bearer tokens remain valid until they expire.
//
// @Summary Log out
// @Tags Auth
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Identity describes the caller for the review UI.
type Identity struct {
	UserID      string                 `json:"user_id"`
	UserName    string                 `json:"username"`
	Role        string                 `json:"role"`
	Permissions []forensics.Permission `json:"permissions"`
	AuthMode    string                 `json:"auth_mode"`
}

// Me handles GET /api/v1/auth/me
//
// @Summary Current identity and permissions
// @Tags Auth
// @Produce json
// @Success 200 {object} models.APIResponse{data=Identity}
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	c := caller(r)
	id := Identity{
		UserID:      c.UserID,
		UserName:    c.UserName,
		Role:        c.Role,
		Permissions: []forensics.Permission{},
		AuthMode:    h.authMode.String(),
	}
	if h.enforcer != nil {
		id.Permissions = h.enforcer.Permissions(c.Role)
	}
	respondSuccess(w, r, http.StatusOK, id, time.Now())
}
