// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package models

import "time"

// PagedResult is one ordered window of a search.
//
// Total counts the whole filtered population; TotalPages is
// ceil(Total/PageSize). Items is empty when Page is beyond TotalPages.
type PagedResult struct {
	Items       []Violation `json:"items"`
	Total       int         `json:"total"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`
	TotalPages  int         `json:"total_pages"`
	HasNext     bool        `json:"has_next"`
	HasPrevious bool        `json:"has_previous"`
}

// NewPagedResult computes the pagination arithmetic for a window.
func NewPagedResult(items []Violation, total, page, pageSize int) PagedResult {
	if items == nil {
		items = []Violation{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PagedResult{
		Items:       items,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// DownloadTicket is the resolved location of one evidence artifact.
type DownloadTicket struct {
	ViolationID string `json:"violation_id"`
	EvidenceID  string `json:"evidence_id"`
	Blurred     bool   `json:"blurred"`
	DownloadURL string `json:"download_url"`
}

// StatsSummary aggregates violations detected within a trailing window.
type StatsSummary struct {
	Days                     int                   `json:"days"`
	Since                    time.Time             `json:"since"`
	TotalViolations          int                   `json:"total_violations"`
	ByDetectionType          map[DetectionType]int `json:"by_detection_type"`
	BySeverity               map[Severity]int      `json:"by_severity"`
	HighConfidenceCount      int                   `json:"high_confidence_count"`
	HighConfidencePercentage float64               `json:"high_confidence_percentage"`
	FalsePositiveCount       int                   `json:"false_positive_count"`
	ResolvedCount            int                   `json:"resolved_count"`
	AverageConfidence        float64               `json:"average_confidence"`
}
