// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package main

import (
	"context"

	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/ingest"
	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/supervisor"
)

// initIngest wires the JetStream violation subscriber into the ingest
// layer. The returned func closes the subscriber after the tree stops.
// Without the nats build tag, enabling ingest is a startup error.
func initIngest(ctx context.Context, cfg *config.Config, store forensics.Store, tree *supervisor.SupervisorTree) (func(), error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("Violation ingest disabled (NATS_ENABLED=false)")
		return func() {}, nil
	}

	sub, err := ingest.NewNATSSubscriber(ctx, cfg.NATS)
	if err != nil {
		return nil, err
	}

	svc, err := ingest.NewService(ingest.DefaultConfig(cfg.NATS.Topic), sub, ingest.NewHandler(store))
	if err != nil {
		_ = sub.Close()
		return nil, err
	}
	tree.AddIngestService(svc)

	logging.Info().
		Str("topic", cfg.NATS.Topic).
		Str("stream", cfg.NATS.Stream).
		Bool("embedded", cfg.NATS.EmbeddedServer).
		Msg("Violation ingest added to supervisor tree")

	return func() {
		if err := sub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ingest subscriber")
		}
	}, nil
}
