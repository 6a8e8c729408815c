// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package services adapts Vigil components to suture's Serve pattern.

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService wraps an *http.Server, translating ListenAndServe into a
context-aware Serve with a bounded graceful shutdown.

PeriodicService runs a housekeeping task on a fixed interval: audit
retention cleanup and lockout pruning are registered this way in the
maintenance layer.

Each wrapper implements fmt.Stringer so suture can name it in logs.
*/
package services
