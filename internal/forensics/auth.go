// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"strings"
)

// AuthContext is the reviewer identity and credential passed into every
// engine operation. It is produced by the identity layer (JWT middleware
// or the review client) and never read from ambient state.
type AuthContext struct {
	UserID   string
	UserName string
	Role     string
	Token    string
}

// Authenticated reports whether the context carries an identity and a
// credential.
func (a AuthContext) Authenticated() bool {
	return a.UserID != "" && a.Token != ""
}

// Permission names an action guarded by the Authorizer, as "object:action".
type Permission string

const (
	PermViolationRead    Permission = "violation:read"
	PermViolationWrite   Permission = "violation:write"
	PermViolationExport  Permission = "violation:export"
	PermEvidenceOriginal Permission = "evidence:original"
)

// Object returns the object half of the permission.
func (p Permission) Object() string {
	obj, _, _ := strings.Cut(string(p), ":")
	return obj
}

// Action returns the action half of the permission.
func (p Permission) Action() string {
	_, act, _ := strings.Cut(string(p), ":")
	return act
}

// Authorizer decides whether a reviewer holds a permission.
type Authorizer interface {
	Authorize(ctx context.Context, auth AuthContext, perm Permission) (bool, error)
}

// requireAuth returns an *AuthorizationError when auth carries no
// credential or, with a non-nil authorizer, lacks perm.
func requireAuth(ctx context.Context, authorizer Authorizer, auth AuthContext, perm Permission) error {
	if !auth.Authenticated() {
		return &AuthorizationError{Reason: "missing credential"}
	}
	if authorizer == nil {
		return nil
	}
	ok, err := authorizer.Authorize(ctx, auth, perm)
	if err != nil {
		return &AuthorizationError{Reason: "authorization check failed: " + err.Error()}
	}
	if !ok {
		return &AuthorizationError{Reason: "role " + auth.Role + " lacks " + string(perm)}
	}
	return nil
}
