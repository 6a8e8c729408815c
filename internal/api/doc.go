// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package api provides the review REST API on a chi router.

Every JSON response uses the models.APIResponse envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": "...", "query_time_ms": 3, "request_id": "..."},
	  "error": {"code": "NOT_FOUND", "message": "...", "details": {...}}
	}

Engine errors map to HTTP as follows:

	forensics.ValidationError     400 VALIDATION_ERROR
	missing credential            401 UNAUTHORIZED
	forensics.AuthorizationError  403 FORBIDDEN
	forensics.NotFoundError       404 NOT_FOUND
	ErrAlreadyAcknowledged        409 CONFLICT (stored comment in data)
	anything else                 500 DATABASE_ERROR

Routes under /api/v1/forensics require a bearer token (or the "token"
cookie) unless the server runs with auth_mode none. Reviewer actions are
written to the audit trail; evidence downloads are recorded by the engine
itself before a URL is released.

Rate limits are per client IP via go-chi/httprate: the API default from
configuration, 5 logins per 5 minutes, 10 exports per minute.
*/
package api
