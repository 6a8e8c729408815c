// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package models

// CommentRequest is the body of an add-comment call.
type CommentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=4000"`
}

// FalsePositiveRequest is the body of a mark-false-positive call.
type FalsePositiveRequest struct {
	Reason string `json:"reason" validate:"required,notblank,max=1000"`
}

// LoginRequest is the body of the development login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginResponse carries an issued bearer token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}
