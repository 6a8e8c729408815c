// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

//go:build !nats

package ingest

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/vigil/internal/config"
)

// NATSSubscriber is unavailable without the nats build tag.
type NATSSubscriber struct{}

// NewNATSSubscriber reports that JetStream ingest was not compiled in.
func NewNATSSubscriber(_ context.Context, _ config.NATSConfig) (*NATSSubscriber, error) {
	return nil, fmt.Errorf("NATS ingest not available: build with -tags=nats")
}

// Subscribe implements message.Subscriber.
func (s *NATSSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	return nil, fmt.Errorf("NATS ingest not available: build with -tags=nats")
}

// Close implements message.Subscriber.
func (s *NATSSubscriber) Close() error {
	return nil
}
