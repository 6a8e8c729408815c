// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package database provides the DuckDB-backed violation store.

DB implements forensics.Store on three tables:

  - violations: one row per detection, including disposition fields
  - evidence: captured media per violation, ordered by seq
  - comments: append-only reviewer annotations

Search queries are built from a models.FilterSpec by
buildViolationConditions and always order by detected_at DESC, id DESC so
that pages are stable. Comment bodies are loaded only for single-violation
reads; search results carry a comment_count instead.

Disposition updates run in a transaction and are retried on DuckDB
transaction conflicts. Comment acknowledgment is a conditional UPDATE on
acknowledged_at IS NULL, which makes the first writer win.

Use ":memory:" as the path for tests.
*/
package database
