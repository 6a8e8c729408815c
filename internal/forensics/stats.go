// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"math"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

// HighConfidenceThreshold is the score at or above which a detection
// counts as high confidence in summaries.
const HighConfidenceThreshold = 0.95

// Summarize aggregates recent, which must already be limited to violations
// detected at or after since.
func Summarize(recent []models.Violation, since time.Time) models.StatsSummary {
	sum := models.StatsSummary{
		Since:           since,
		TotalViolations: len(recent),
		ByDetectionType: make(map[models.DetectionType]int),
		BySeverity:      make(map[models.Severity]int),
	}

	var confidenceTotal float64
	for i := range recent {
		v := &recent[i]
		sum.ByDetectionType[v.DetectionType]++
		sum.BySeverity[v.Severity]++
		if v.ConfidenceScore >= HighConfidenceThreshold {
			sum.HighConfidenceCount++
		}
		if v.IsFalsePositive {
			sum.FalsePositiveCount++
		}
		if v.Status == models.StatusResolved {
			sum.ResolvedCount++
		}
		confidenceTotal += v.ConfidenceScore
	}

	denom := float64(max(len(recent), 1))
	sum.HighConfidencePercentage = RoundTo(float64(sum.HighConfidenceCount)/denom*100, 1)
	sum.AverageConfidence = RoundTo(confidenceTotal/denom, 3)
	return sum
}

// RoundTo rounds x half away from zero to the given decimal places.
func RoundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
