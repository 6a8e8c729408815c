// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
)

// DefaultSlowThreshold is the latency above which a request is logged.
const DefaultSlowThreshold = time.Second

// RouteStats contains latency statistics for one route.
type RouteStats struct {
	Route        string  `json:"route"`
	RequestCount int64   `json:"request_count"`
	ErrorCount   int64   `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	P99MS        int64   `json:"p99_ms"`
	MaxMS        int64   `json:"max_ms"`
}

type sample struct {
	route      string
	durationMS int64
	failed     bool
}

// Monitor keeps a sliding window of request latencies for the
// /api/v1/health/performance endpoint and logs slow requests.
type Monitor struct {
	mu            sync.RWMutex
	window        []sample
	next          int
	full          bool
	slowThreshold time.Duration
}

// NewMonitor creates a monitor holding the last windowSize requests.
func NewMonitor(windowSize int, slowThreshold time.Duration) *Monitor {
	if windowSize <= 0 {
		windowSize = 1000
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &Monitor{
		window:        make([]sample, windowSize),
		slowThreshold: slowThreshold,
	}
}

func (m *Monitor) record(s sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window[m.next] = s
	m.next = (m.next + 1) % len(m.window)
	if m.next == 0 {
		m.full = true
	}
}

// Stats aggregates the window per route, busiest first.
func (m *Monitor) Stats() []RouteStats {
	m.mu.RLock()
	n := m.next
	if m.full {
		n = len(m.window)
	}
	samples := make([]sample, n)
	copy(samples, m.window[:n])
	m.mu.RUnlock()

	type acc struct {
		durations []int64
		errors    int64
	}
	byRoute := make(map[string]*acc)
	for _, s := range samples {
		a, ok := byRoute[s.route]
		if !ok {
			a = &acc{}
			byRoute[s.route] = a
		}
		a.durations = append(a.durations, s.durationMS)
		if s.failed {
			a.errors++
		}
	}

	stats := make([]RouteStats, 0, len(byRoute))
	for route, a := range byRoute {
		sort.Slice(a.durations, func(i, j int) bool { return a.durations[i] < a.durations[j] })
		var sum int64
		for _, d := range a.durations {
			sum += d
		}
		stats = append(stats, RouteStats{
			Route:        route,
			RequestCount: int64(len(a.durations)),
			ErrorCount:   a.errors,
			AvgMS:        float64(sum) / float64(len(a.durations)),
			P50MS:        percentile(a.durations, 0.50),
			P95MS:        percentile(a.durations, 0.95),
			P99MS:        percentile(a.durations, 0.99),
			MaxMS:        a.durations[len(a.durations)-1],
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RequestCount != stats[j].RequestCount {
			return stats[i].RequestCount > stats[j].RequestCount
		}
		return stats[i].Route < stats[j].Route
	})
	return stats
}

// Middleware records each request into the window.
func (m *Monitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := newStatusWriter(w)

		next.ServeHTTP(sw, r)

		elapsed := time.Since(start)
		route := r.Method + " " + routePattern(r)
		m.record(sample{
			route:      route,
			durationMS: elapsed.Milliseconds(),
			failed:     sw.statusCode >= http.StatusInternalServerError,
		})

		if elapsed > m.slowThreshold {
			logging.Ctx(r.Context()).Warn().
				Str("route", route).
				Int("status", sw.statusCode).
				Dur("duration", elapsed).
				Msg("Slow request detected")
		}
	})
}

// percentile reads p from an ascending slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
