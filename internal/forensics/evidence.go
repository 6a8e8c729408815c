// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/models"
)

// EvidenceAccess describes one evidence download for the access trail.
type EvidenceAccess struct {
	ViolationID string
	EvidenceID  string
	UserID      string
	UserName    string
	Role        string
	Blurred     bool
	At          time.Time
	RequestID   string
}

// AccessRecorder persists evidence accesses.
type AccessRecorder interface {
	RecordEvidenceAccess(ctx context.Context, access EvidenceAccess) error
}

// Resolve returns the URL a viewer should load for ev. Without an explicit
// revealOriginal it always returns the blurred rendition.
func Resolve(ev models.Evidence, revealOriginal bool) string {
	if revealOriginal {
		return ev.OriginalURL
	}
	return ev.BlurredURL
}

// CheckRedacted verifies that ev has a blurred rendition distinct from its
// original.
func CheckRedacted(ev models.Evidence) error {
	if ev.BlurredURL == "" || ev.BlurredURL == ev.OriginalURL {
		return fmt.Errorf("evidence %s: %w", ev.ID, ErrEvidenceNotRedacted)
	}
	return nil
}

// Redact returns copies of evidence with the original URL removed, for
// listings that must not expose unblurred media.
func Redact(evidence []models.Evidence) []models.Evidence {
	out := make([]models.Evidence, len(evidence))
	for i, ev := range evidence {
		ev.OriginalURL = ""
		out[i] = ev
	}
	return out
}

// EvidenceAccessor resolves evidence for viewing and download.
// It never mutates evidence.
type EvidenceAccessor struct {
	store      Store
	authorizer Authorizer
	recorder   AccessRecorder
	now        func() time.Time
}

// NewEvidenceAccessor creates an accessor. authorizer and recorder may be
// nil; without an authorizer any authenticated caller may reveal originals.
func NewEvidenceAccessor(store Store, authorizer Authorizer, recorder AccessRecorder, now func() time.Time) *EvidenceAccessor {
	if now == nil {
		now = time.Now
	}
	return &EvidenceAccessor{store: store, authorizer: authorizer, recorder: recorder, now: now}
}

// List returns the evidence of a violation in capture order with original
// URLs removed.
func (a *EvidenceAccessor) List(ctx context.Context, violationID string) ([]models.Evidence, error) {
	v, err := a.store.GetViolation(ctx, violationID)
	if err != nil {
		return nil, err
	}
	return Redact(v.Evidence), nil
}

// Download resolves the download location of one evidence item.
//
// The caller must present a credential. Revealing the original also
// requires PermEvidenceOriginal and is recorded in the access trail; if the
// access cannot be recorded the original is not released.
func (a *EvidenceAccessor) Download(ctx context.Context, auth AuthContext, violationID, evidenceID string, revealOriginal bool) (models.DownloadTicket, error) {
	perm := PermViolationRead
	if revealOriginal {
		perm = PermEvidenceOriginal
	}
	if err := requireAuth(ctx, a.authorizer, auth, perm); err != nil {
		metrics.RecordEvidenceAccess(revealOriginal, "denied")
		logging.Ctx(ctx).Warn().
			Str("violation_id", violationID).
			Str("evidence_id", evidenceID).
			Bool("reveal_original", revealOriginal).
			Str("user_id", auth.UserID).
			Msg("Evidence access denied")
		return models.DownloadTicket{}, err
	}

	v, err := a.store.GetViolation(ctx, violationID)
	if err != nil {
		metrics.RecordEvidenceAccess(revealOriginal, outcome(err))
		return models.DownloadTicket{}, err
	}
	ev, ok := v.FindEvidence(evidenceID)
	if !ok {
		metrics.RecordEvidenceAccess(revealOriginal, "not_found")
		return models.DownloadTicket{}, NewNotFoundError("evidence", evidenceID)
	}
	if err := CheckRedacted(ev); err != nil {
		metrics.RecordEvidenceAccess(revealOriginal, "error")
		return models.DownloadTicket{}, err
	}

	if a.recorder != nil {
		rerr := a.recorder.RecordEvidenceAccess(ctx, EvidenceAccess{
			ViolationID: violationID,
			EvidenceID:  evidenceID,
			UserID:      auth.UserID,
			UserName:    auth.UserName,
			Role:        auth.Role,
			Blurred:     !revealOriginal,
			At:          a.now(),
			RequestID:   logging.RequestIDFromContext(ctx),
		})
		if rerr != nil {
			if revealOriginal {
				metrics.RecordEvidenceAccess(true, "error")
				return models.DownloadTicket{}, fmt.Errorf("record evidence access: %w", rerr)
			}
			logging.CtxErr(ctx, rerr).Str("evidence_id", evidenceID).Msg("Failed to record blurred evidence access")
		}
	}

	if revealOriginal {
		logging.Ctx(ctx).Info().
			Str("violation_id", violationID).
			Str("evidence_id", evidenceID).
			Str("user_id", auth.UserID).
			Msg("Original evidence revealed")
	}
	metrics.RecordEvidenceAccess(revealOriginal, "success")

	return models.DownloadTicket{
		ViolationID: violationID,
		EvidenceID:  evidenceID,
		Blurred:     !revealOriginal,
		DownloadURL: Resolve(ev, revealOriginal),
	}, nil
}
