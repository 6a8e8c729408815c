// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/logging"
)

// SeedFixtures inserts count generated violations when the violations table
// is empty. It returns the number inserted.
func (db *DB) SeedFixtures(ctx context.Context, gen *forensics.FixtureGenerator, count int) (int, error) {
	existing, err := db.CountViolations(ctx)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		logging.Info().Int("existing", existing).Msg("Skipping fixture seeding, violations already present")
		return 0, nil
	}

	inserted := 0
	for _, v := range gen.Generate(count) {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		if err := db.InsertViolation(ctx, v); err != nil {
			if errors.Is(err, forensics.ErrDuplicateViolation) {
				continue
			}
			return inserted, fmt.Errorf("failed to seed violation %s: %w", v.ID, err)
		}
		inserted++
	}

	logging.Info().Int("count", inserted).Msg("Seeded fixture violations")
	return inserted, nil
}
