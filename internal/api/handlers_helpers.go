// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/models"
	"github.com/tomtom215/vigil/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON envelope. Review data is per-user and mutable,
// so responses are never cached.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	response.Metadata.RequestID = logging.RequestIDFromContext(r.Context())
	if response.Metadata.Timestamp.IsZero() {
		response.Metadata.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to write JSON response")
	}
}

// respondSuccess sends data with the elapsed time since start.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, start time.Time) {
	respondJSON(w, r, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError sends an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondAPIError sends a prepared APIError.
func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	respondJSON(w, r, status, &models.APIResponse{
		Status: "error",
		Error:  apiErr,
	})
}

// respondEngineError maps forensics error kinds to HTTP statuses.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *forensics.ValidationError
		nerr *forensics.NotFoundError
		aerr *forensics.AuthorizationError
	)

	switch {
	case errors.As(err, &verr):
		details := map[string]interface{}{}
		if verr.Field != "" {
			details["field"] = verr.Field
		}
		respondAPIError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    "VALIDATION_ERROR",
			Message: verr.Message,
			Details: details,
		})
	case errors.As(err, &nerr):
		respondAPIError(w, r, http.StatusNotFound, &models.APIError{
			Code:    "NOT_FOUND",
			Message: nerr.Error(),
			Details: map[string]interface{}{"kind": nerr.Kind, "id": nerr.ID},
		})
	case errors.As(err, &aerr):
		status, code := http.StatusForbidden, "FORBIDDEN"
		if !caller(r).Authenticated() {
			status, code = http.StatusUnauthorized, "UNAUTHORIZED"
		}
		respondError(w, r, status, code, aerr.Error(), err)
	case errors.Is(err, forensics.ErrAlreadyAcknowledged):
		respondAPIError(w, r, http.StatusConflict, &models.APIError{
			Code:    "CONFLICT",
			Message: err.Error(),
			Details: map[string]interface{}{"reason": models.ConflictAlreadyAcknowledged},
		})
	case errors.Is(err, forensics.ErrEvidenceNotRedacted):
		logging.CtxErr(r.Context(), err).Msg("Evidence has no redacted rendition")
		respondAPIError(w, r, http.StatusConflict, &models.APIError{
			Code:    "CONFLICT",
			Message: "Evidence has no redacted rendition",
			Details: map[string]interface{}{"reason": models.ConflictNotRedacted},
		})
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Request canceled", err)
	default:
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Internal error", err)
	}
}

// validateRequest validates a struct using go-playground/validator.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// decodeJSON decodes a bounded request body into v. An empty body leaves v
// unchanged when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusRequestEntityTooLarge, "VALIDATION_ERROR", "Request body too large", err)
		return false
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		if allowEmpty {
			return true
		}
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Request body is required", nil)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err)
		return false
	}
	return true
}

// decodeAndValidate decodes a required body and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if !decodeJSON(w, r, v, false) {
		return false
	}
	if apiErr := validateRequest(v); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return false
	}
	return true
}

// caller returns the authenticated identity placed in the context by
// auth.Middleware. Routes are only reachable behind that middleware, so a
// missing identity yields an empty AuthContext the engine rejects.
func caller(r *http.Request) forensics.AuthContext {
	a, _ := auth.FromContext(r.Context())
	return a
}
