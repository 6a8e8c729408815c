// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package client is the Go client for the forensics REST API.

It implements the same operations as the server-side engine so a review
session can drive a remote Vigil instance. Errors come back as the
forensics error kinds:

	400 VALIDATION_ERROR      -> *forensics.ValidationError
	401/403                   -> *forensics.AuthorizationError
	404 NOT_FOUND             -> *forensics.NotFoundError
	409 already_acknowledged  -> forensics.ErrAlreadyAcknowledged (with the comment)
	409 not_redacted          -> forensics.ErrEvidenceNotRedacted
	429, 5xx, transport       -> *forensics.TransientNetworkError

Requests are paced by a token bucket (golang.org/x/time/rate) and guarded
by a circuit breaker (sony/gobreaker). Only transient failures count
against the breaker; while it is open calls fail fast with a
TransientNetworkError wrapping gobreaker.ErrOpenState.

Example:

	c := client.New(client.Config{BaseURL: "http://localhost:8080", Token: token})
	page, err := c.Search(ctx, models.FilterSpec{Severity: models.SeverityCritical})
*/
package client
