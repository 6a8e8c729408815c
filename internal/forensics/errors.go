// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyAcknowledged is returned with the unchanged comment when a
	// comment is acknowledged a second time.
	ErrAlreadyAcknowledged = errors.New("comment already acknowledged")

	// ErrEvidenceNotRedacted marks evidence whose blurred URL is missing or
	// equal to the original. Such evidence is never served.
	ErrEvidenceNotRedacted = errors.New("evidence has no distinct blurred rendition")

	// ErrUnsupportedFormat is wrapped when an export format is unknown.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Kind string // violation, comment, evidence
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// AuthorizationError reports a missing or insufficient credential.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

// TransientNetworkError reports a failed or timed out remote call. The
// operation may succeed when retried.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAuthorization reports whether err is or wraps an *AuthorizationError.
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsTransient reports whether err is or wraps a *TransientNetworkError.
func IsTransient(err error) bool {
	var target *TransientNetworkError
	return errors.As(err, &target)
}

// outcome maps an error to the metrics outcome label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case IsAuthorization(err):
		return "unauthorized"
	case errors.Is(err, ErrAlreadyAcknowledged):
		return "already_acknowledged"
	default:
		return "error"
	}
}
