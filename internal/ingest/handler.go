// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/models"
)

// Outcome labels recorded per message.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Inserter is the slice of forensics.Store the handler writes through.
type Inserter interface {
	InsertViolation(ctx context.Context, v models.Violation) error
}

// Handler validates and stores pipeline violations.
type Handler struct {
	store  Inserter
	logger zerolog.Logger
}

// NewHandler creates a Handler writing to store.
func NewHandler(store Inserter) *Handler {
	return &Handler{
		store:  store,
		logger: logging.WithComponent("ingest"),
	}
}

// Handle processes one message. A nil return acks the message; an error
// leaves it to the router's retry and nack handling.
func (h *Handler) Handle(msg *message.Message) error {
	outcome, err := h.process(msg)
	metrics.RecordIngest(outcome)
	return err
}

func (h *Handler) process(msg *message.Message) (string, error) {
	var v models.Violation
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		h.logger.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Int("payload_bytes", len(msg.Payload)).
			Msg("Dropping malformed violation message")
		return OutcomeRejected, nil
	}

	if err := forensics.ValidateIncoming(&v); err != nil {
		h.logger.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Str("violation_id", v.ID).
			Msg("Dropping invalid violation")
		return OutcomeRejected, nil
	}

	err := h.store.InsertViolation(msg.Context(), v)
	switch {
	case err == nil:
		h.logger.Debug().
			Str("violation_id", v.ID).
			Str("detection_type", string(v.DetectionType)).
			Str("camera_id", v.CameraID).
			Msg("Violation stored")
		return OutcomeStored, nil
	case errors.Is(err, forensics.ErrDuplicateViolation):
		h.logger.Debug().Str("violation_id", v.ID).Msg("Duplicate violation ignored")
		return OutcomeDuplicate, nil
	default:
		h.logger.Error().
			Err(err).
			Str("message_uuid", msg.UUID).
			Str("violation_id", v.ID).
			Msg("Failed to store violation")
		return OutcomeFailed, fmt.Errorf("store violation %s: %w", v.ID, err)
	}
}
