// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

const dateOnly = "2006-01-02"

// FilterRequest is the wire form of a search. Dates accept RFC 3339 or a
// bare YYYY-MM-DD; a bare date_to covers the whole day.
type FilterRequest struct {
	DateFrom        string `json:"date_from,omitempty"`
	DateTo          string `json:"date_to,omitempty"`
	SiteID          string `json:"site_id,omitempty"`
	ZoneID          string `json:"zone_id,omitempty"`
	CameraID        string `json:"camera_id,omitempty"`
	DetectionType   string `json:"detection_type,omitempty"`
	Severity        string `json:"severity,omitempty"`
	MinConfidence   *int   `json:"min_confidence,omitempty"`
	IsFalsePositive *bool  `json:"is_false_positive,omitempty"`
	Status          string `json:"status,omitempty"`
	SearchText      string `json:"search_text,omitempty"`
	Page            int    `json:"page,omitempty"`
	PageSize        int    `json:"page_size,omitempty"`
}

// ToFilterSpec converts the request. Facet validation happens in the
// engine; only wire-format errors are reported here.
func (f *FilterRequest) ToFilterSpec() (models.FilterSpec, error) {
	from, err := parseDate("date_from", f.DateFrom, false)
	if err != nil {
		return models.FilterSpec{}, err
	}
	to, err := parseDate("date_to", f.DateTo, true)
	if err != nil {
		return models.FilterSpec{}, err
	}

	return models.FilterSpec{
		DateFrom:        from,
		DateTo:          to,
		SiteID:          strings.TrimSpace(f.SiteID),
		ZoneID:          strings.TrimSpace(f.ZoneID),
		CameraID:        strings.TrimSpace(f.CameraID),
		DetectionType:   models.DetectionType(f.DetectionType),
		Severity:        models.Severity(f.Severity),
		MinConfidence:   f.MinConfidence,
		IsFalsePositive: f.IsFalsePositive,
		Status:          models.Status(f.Status),
		SearchText:      strings.TrimSpace(f.SearchText),
		Page:            f.Page,
		PageSize:        f.PageSize,
	}, nil
}

// parseDate accepts RFC 3339 or YYYY-MM-DD. A bare end date is moved to the
// last instant of that day so the day itself is included.
func parseDate(field, value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateOnly, value)
	if err != nil {
		return nil, forensics.NewValidationError(field, "must be RFC 3339 or YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// filterRequestFromQuery reads a FilterRequest from URL query parameters.
func filterRequestFromQuery(q url.Values) (FilterRequest, error) {
	req := FilterRequest{
		DateFrom:      q.Get("date_from"),
		DateTo:        q.Get("date_to"),
		SiteID:        q.Get("site_id"),
		ZoneID:        q.Get("zone_id"),
		CameraID:      q.Get("camera_id"),
		DetectionType: q.Get("detection_type"),
		Severity:      q.Get("severity"),
		Status:        q.Get("status"),
		SearchText:    q.Get("search_text"),
	}

	var err error
	if req.MinConfidence, err = optionalInt(q, "min_confidence"); err != nil {
		return req, err
	}
	if v := q.Get("is_false_positive"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return req, forensics.NewValidationError("is_false_positive", "must be true or false")
		}
		req.IsFalsePositive = &b
	}
	if p, err := optionalInt(q, "page"); err != nil {
		return req, err
	} else if p != nil {
		req.Page = *p
	}
	if ps, err := optionalInt(q, "page_size"); err != nil {
		return req, err
	} else if ps != nil {
		req.PageSize = *ps
	}
	return req, nil
}

func optionalInt(q url.Values, key string) (*int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, forensics.NewValidationError(key, "must be an integer")
	}
	return &n, nil
}

// intParam reads an integer query parameter, returning def when absent.
func intParam(r *http.Request, key string, def int) (int, error) {
	n, err := optionalInt(r.URL.Query(), key)
	if err != nil || n == nil {
		return def, err
	}
	return *n, nil
}

// boolParam reads a boolean query parameter, returning false when absent.
func boolParam(r *http.Request, key string) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, forensics.NewValidationError(key, "must be true or false")
	}
	return b, nil
}
