// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

/*
Package review holds the state of one reviewer's investigation: the
current filter and result page, and the violation open in the detail view.

A Session talks to a Backend, either the REST client (internal/client) or
an in-process forensics.Engine via Local.

Ordering guarantees:

  - Search supersession: every search gets a generation number. Issuing a
    new search cancels the previous one, and only the response for the
    newest generation updates state. Older responses return ErrSuperseded.
  - Transient failures keep the rendered page. A TransientNetworkError
    from Search leaves the previous result in place and is exposed through
    State().Err until the next successful search.
  - Optimistic mutations: comments, acknowledgments and disposition
    changes are applied to local state before the backend call and rolled
    back if it fails. The failure is returned to the caller.
  - Detail cancellation: evidence downloads run on the detail view's
    context. CloseViolation cancels them; list searches are unaffected.

Input errors (blank comment, blank false positive reason, a zone outside
the selected site) are reported as *forensics.ValidationError before any
backend call is made.
*/
package review
