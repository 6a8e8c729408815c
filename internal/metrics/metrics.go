// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package metrics exposes Prometheus instrumentation for Vigil.
//
// Collectors are registered on the default registry at package init and
// served by the /metrics endpoint. Label values are kept to small, fixed
// sets (operation names, outcomes) so cardinality stays bounded.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_db_query_errors_total",
			Help: "Total number of failed store queries",
		},
		[]string{"operation"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	// Forensics Metrics
	ForensicsOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_forensics_operations_total",
			Help: "Engine operations by name and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: success, validation, not_found, unauthorized, error
	)

	SearchResultTotal = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vigil_search_result_total",
			Help:    "Size of the filtered population per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	EvidenceAccessTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_evidence_access_total",
			Help: "Evidence downloads by variant and outcome",
		},
		[]string{"variant", "outcome"}, // variant: blurred, original
	)

	// Ingest Metrics
	IngestMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_ingest_messages_total",
			Help: "Pipeline messages handled by outcome",
		},
		[]string{"outcome"}, // stored, duplicate, rejected, failed
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_authz_decisions_total",
			Help: "Authorization decisions by permission and result",
		},
		[]string{"permission", "result"}, // result: allow, deny
	)
)

// RecordDBQuery records a store query duration and error.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordOperation records the outcome of an engine operation.
func RecordOperation(operation, outcome string) {
	ForensicsOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordSearch records the filtered population size of a search.
func RecordSearch(total int) {
	SearchResultTotal.Observe(float64(total))
}

// RecordEvidenceAccess records an evidence download attempt.
func RecordEvidenceAccess(revealOriginal bool, outcome string) {
	variant := "blurred"
	if revealOriginal {
		variant = "original"
	}
	EvidenceAccessTotal.WithLabelValues(variant, outcome).Inc()
}

// RecordIngest records the outcome of one pipeline message.
func RecordIngest(outcome string) {
	IngestMessagesTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthzDecision records an authorization decision.
func RecordAuthzDecision(permission string, allowed bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	AuthzDecisions.WithLabelValues(permission, result).Inc()
}
