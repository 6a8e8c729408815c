// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package audit records who looked at what.
//
// Every evidence download passes through the audit trail, and a request to
// reveal an unblurred original is refused unless its access record is
// persisted first. Reviewer actions on violations (comments,
// acknowledgments, dispositions, exports) and authentication outcomes are
// logged asynchronously.
//
// # Event Types
//
// Evidence:
//   - evidence.viewed: blurred rendition downloaded
//   - evidence.original_revealed: unblurred original downloaded
//
// Review:
//   - violation.commented, violation.acknowledged
//   - violation.false_positive, violation.resolved, violation.reopened
//   - data.export
//
// Authentication:
//   - auth.success, auth.failure, authz.denied
//
// # Storage
//
// Two Store implementations are provided:
//   - MemoryStore: bounded in-memory ring, for development and tests
//   - BadgerStore: BadgerDB keyed by time with a secondary index by target,
//     so the access history of one violation is a prefix scan
//
// # Usage
//
//	store, err := audit.OpenBadgerStore(audit.BadgerConfig{Path: "/data/audit", Retention: 365 * 24 * time.Hour})
//	logger := audit.NewLogger(store, nil)
//	defer logger.Close()
//
//	engine := forensics.New(db, forensics.Config{Recorder: logger})
//
//	events, err := logger.Query(ctx, audit.QueryFilter{TargetID: "VIO-00042"})
package audit
