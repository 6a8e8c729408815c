// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/models"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// csvHeader is the fixed column order of CSV exports.
var csvHeader = []string{
	"id",
	"detection_type",
	"severity",
	"site_name",
	"zone_name",
	"camera_name",
	"detected_at",
	"status",
	"confidence_score",
}

// ExportFormatter serializes a result window.
type ExportFormatter struct{}

// ToCSV renders items as CSV with a header row. Fields containing the
// delimiter, a quote or a line break are quoted and inner quotes doubled.
func (ExportFormatter) ToCSV(items []models.Violation) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write csv header: %w", err)
	}
	for i := range items {
		v := &items[i]
		record := []string{
			v.ID,
			string(v.DetectionType),
			string(v.Severity),
			v.SiteName,
			v.ZoneName,
			v.CameraName,
			v.DetectedAt.UTC().Format(time.RFC3339),
			string(v.Status),
			FormatConfidence(v.ConfidenceScore),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write csv row %s: %w", v.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// ToJSON renders items as a JSON array with comment bodies omitted.
func (ExportFormatter) ToJSON(items []models.Violation) ([]byte, error) {
	out := make([]models.Violation, len(items))
	for i := range items {
		out[i] = items[i].Clone()
		out[i].Comments = []models.Comment{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return data, nil
}

// Export renders items in format and returns the payload with its
// content type.
func (f ExportFormatter) Export(items []models.Violation, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		s, err := f.ToCSV(items)
		if err != nil {
			return nil, "", err
		}
		return []byte(s), "text/csv; charset=utf-8", nil
	case FormatJSON:
		data, err := f.ToJSON(items)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// SupportedFormat reports whether format can be exported. An empty format
// means CSV.
func SupportedFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", FormatCSV, FormatJSON:
		return true
	}
	return false
}

// FormatConfidence renders a score in [0,1] as a one-decimal percentage.
func FormatConfidence(score float64) string {
	return strconv.FormatFloat(score*100, 'f', 1, 64) + "%"
}
