// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package authz decides which reviewer roles hold which permissions, using
// Casbin RBAC with role inheritance.
//
// The embedded policy (policy.csv) defines:
//
//	viewer        violation:read
//	reviewer      + violation:write, violation:export
//	investigator  + evidence:original, audit:read
//	admin         everything
//
// POLICY_PATH / MODEL_PATH may point at files that replace the embedded
// ones. Decisions are cached per (role, object, action) for CacheTTL.
//
// Enforcer implements forensics.Authorizer, so the engine checks
// permissions itself; Middleware guards routes that bypass the engine such
// as the audit log.
package authz
