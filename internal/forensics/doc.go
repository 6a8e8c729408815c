// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package forensics implements the search and evidence review engine.

Components:

  - SearchQueryExecutor: applies a FilterSpec to the violation population and
    returns one ordered page plus totals
  - EvidenceAccessor: resolves evidence URLs, blurred unless the caller
    explicitly asks for the original
  - AnnotationLedger: append-only comments with first-writer-wins acknowledgment
  - DispositionTracker: status and false-positive transitions
  - ExportFormatter: CSV and JSON serialization of result windows

Engine composes the components and checks the caller's AuthContext on every
operation. Persistence is behind the Store interface; MemoryStore in this
package and database.DB both satisfy it.

Result Ordering:

Results are ordered by detected_at descending with id descending as tie
break. The ordering is total, so paging through a population that does not
change never skips or repeats an item.

Error Kinds:

  - *ValidationError: malformed input, rejected before any store call
  - *NotFoundError: unknown violation, comment or evidence id
  - *AuthorizationError: missing credential or permission
  - *TransientNetworkError: a remote call failed or timed out (client side)
*/
package forensics
