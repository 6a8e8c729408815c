// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package middleware provides the HTTP middleware shared by the review API.
//
// All middleware uses the chi signature func(http.Handler) http.Handler and
// is mounted by api.NewRouter in this order:
//
//	RequestID          X-Request-ID propagation into context and logs
//	PrometheusMetrics  request count, latency and in-flight gauge
//	Monitor            slow-request log and per-route latency percentiles
//	Compression        gzip for JSON and CSV responses above MinCompressSize
//
// Metrics are labelled with the chi route pattern
// ("/api/v1/violations/{id}") rather than the raw path so violation IDs do
// not explode label cardinality.
package middleware
