// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package models defines the data structures shared across Vigil.

Key Components:

  - Violation: a reviewed detection event with its evidence and comments
  - Evidence: one captured artifact, always available blurred and original
  - Comment: a reviewer annotation with a one-time acknowledgment
  - FilterSpec: the normalized set of search facets plus pagination
  - PagedResult: one ordered window of a search plus its totals
  - Directory: the externally supplied site/zone/camera catalog

Violations and evidence are produced by the detection pipeline. The only
fields this service mutates are Status, the false-positive fields,
resolution fields and the Comments collection.
*/
package models
