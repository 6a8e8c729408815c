// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package client

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// envelope is the wire form of models.APIResponse with deferred data.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// StatusError is returned for responses that map to no forensics kind.
type StatusError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d %s: %s", e.Op, e.StatusCode, e.Code, e.Message)
}

// decodeError maps a non-2xx response to a forensics error kind.
func decodeError(op string, resp *response) error {
	var env envelope
	apiErr := &models.APIError{Message: http.StatusText(resp.status)}
	if err := json.Unmarshal(resp.body, &env); err == nil && env.Error != nil {
		apiErr = env.Error
	}

	switch resp.status {
	case http.StatusBadRequest:
		return forensics.NewValidationError(detail(apiErr, "field"), apiErr.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return &forensics.AuthorizationError{Reason: apiErr.Message}
	case http.StatusNotFound:
		kind := detail(apiErr, "kind")
		if kind == "" {
			kind = "resource"
		}
		return forensics.NewNotFoundError(kind, detail(apiErr, "id"))
	case http.StatusConflict:
		switch detail(apiErr, "reason") {
		case models.ConflictAlreadyAcknowledged:
			return fmt.Errorf("%s: %w", op, forensics.ErrAlreadyAcknowledged)
		case models.ConflictNotRedacted:
			return fmt.Errorf("%s: %w", op, forensics.ErrEvidenceNotRedacted)
		}
	case http.StatusTooManyRequests:
		return &forensics.TransientNetworkError{
			Op:  op,
			Err: fmt.Errorf("rate limited (retry after %q)", resp.header.Get("Retry-After")),
		}
	}
	return &StatusError{Op: op, StatusCode: resp.status, Code: apiErr.Code, Message: apiErr.Message}
}

func detail(apiErr *models.APIError, key string) string {
	if apiErr.Details == nil {
		return ""
	}
	s, _ := apiErr.Details[key].(string)
	return s
}
