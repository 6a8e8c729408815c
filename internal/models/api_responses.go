// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package models

import "time"

// APIResponse is the envelope of every JSON response.
//
// Success:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2024-03-01T12:00:00Z", "query_time_ms": 4}
//	}
//
// Error:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "zone does not belong to site", "details": {"field": "zone_id"}},
//	  "metadata": {"timestamp": "2024-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is a machine-readable error.
//
// Codes:
//   - VALIDATION_ERROR: invalid filter or body
//   - UNAUTHORIZED: missing or invalid credential
//   - FORBIDDEN: role lacks the permission
//   - NOT_FOUND: unknown violation, evidence or comment
//   - CONFLICT: comment already acknowledged, duplicate violation
//   - RATE_LIMIT_EXCEEDED: too many requests
//   - SERVICE_UNAVAILABLE: store or audit trail temporarily failing
//   - DATABASE_ERROR: anything else
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Conflict reasons reported in details.reason of CONFLICT errors.
const (
	ConflictAlreadyAcknowledged = "already_acknowledged"
	ConflictNotRedacted         = "not_redacted"
)
