// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package auth turns request credentials into the forensics.AuthContext that
every engine operation takes.

Key Components:

  - JWTManager: HS256 token issue and validation (golang-jwt/jwt/v5)
  - CredentialStore: local accounts with bcrypt password hashes, used by the
    login endpoint
  - LockoutManager: per-username lockout after repeated login failures
  - Middleware: chi-compatible middleware that validates the bearer token
    (or "token" cookie) and stores the AuthContext on the request context

Authentication Modes (AUTH_MODE):

 1. jwt (default): every /api/v1 request other than login needs a token
 2. none: development only; every request runs as an anonymous admin

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(jwtManager, auth.AuthModeJWT)
	r.With(mw.Authenticate).Get("/api/v1/violations", h.SearchViolations)

	// in a handler
	authCtx, ok := auth.FromContext(r.Context())
*/
package auth
