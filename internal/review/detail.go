// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

// detailView is the violation open for inspection. Its context bounds
// evidence requests made from the view.
type detailView struct {
	violation models.Violation
	ctx       context.Context
	cancel    context.CancelFunc
}

// OpenViolation loads id into the detail view, closing the previous one.
// ctx bounds the lifetime of the view.
func (s *Session) OpenViolation(ctx context.Context, id string) (*models.Violation, error) {
	viewCtx, cancel := context.WithCancel(ctx)
	view := &detailView{ctx: viewCtx, cancel: cancel}

	s.mu.Lock()
	if s.detail != nil {
		s.detail.cancel()
	}
	s.detail = view
	s.mu.Unlock()

	v, err := s.backend.GetViolation(viewCtx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail != view {
		// Closed or replaced while loading.
		return nil, ErrNoViolationOpen
	}
	if err != nil {
		cancel()
		s.detail = nil
		return nil, err
	}
	view.violation = v.Clone()
	out := view.violation.Clone()
	return &out, nil
}

// CloseViolation closes the detail view and cancels its pending evidence
// requests. In-flight searches continue.
func (s *Session) CloseViolation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail != nil {
		s.detail.cancel()
		s.detail = nil
	}
}

// Violation returns a copy of the open violation.
func (s *Session) Violation() (*models.Violation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail == nil || s.detail.violation.ID == "" {
		return nil, false
	}
	out := s.detail.violation.Clone()
	return &out, true
}

// DownloadEvidence resolves an evidence URL for the open violation. The
// request is canceled if the view is closed first.
func (s *Session) DownloadEvidence(evidenceID string, revealOriginal bool) (models.DownloadTicket, error) {
	viewCtx, id, err := s.openView()
	if err != nil {
		return models.DownloadTicket{}, err
	}
	return s.backend.DownloadEvidence(viewCtx, id, evidenceID, revealOriginal)
}

// AddComment appends a comment. It is visible locally at once under a
// pending id and replaced by the stored comment, or removed on failure.
func (s *Session) AddComment(ctx context.Context, content string) (models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return models.Comment{}, forensics.NewValidationError("content", "comment content is required")
	}

	s.mu.Lock()
	view := s.detail
	if view == nil || view.violation.ID == "" {
		s.mu.Unlock()
		return models.Comment{}, ErrNoViolationOpen
	}
	id := view.violation.ID
	s.pending++
	pending := models.Comment{
		ID:          fmt.Sprintf("pending-%d", s.pending),
		ViolationID: id,
		UserID:      s.reviewer.ID,
		UserName:    s.reviewer.Name,
		Content:     content,
		CreatedAt:   s.now().UTC(),
	}
	s.applyLocked(id, func(v *models.Violation, detail bool) {
		if detail {
			v.Comments = append(v.Comments, pending)
		}
		v.CommentCount++
	})
	s.mu.Unlock()

	stored, err := s.backend.AddComment(ctx, id, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.applyLocked(id, func(v *models.Violation, detail bool) {
			if detail {
				v.Comments = removeComment(v.Comments, pending.ID)
			}
			v.CommentCount--
		})
		s.logger.Warn().Err(err).Str("violation_id", id).Msg("Comment rolled back")
		return models.Comment{}, err
	}
	s.applyLocked(id, func(v *models.Violation, detail bool) {
		if detail {
			replaceComment(v.Comments, pending.ID, stored)
		}
	})
	return stored, nil
}

// AcknowledgeComment acknowledges a comment of the open violation.
// Acknowledging an acknowledged comment returns it unchanged.
func (s *Session) AcknowledgeComment(ctx context.Context, commentID string) (models.Comment, error) {
	s.mu.Lock()
	view := s.detail
	if view == nil || view.violation.ID == "" {
		s.mu.Unlock()
		return models.Comment{}, ErrNoViolationOpen
	}
	id := view.violation.ID
	prev, ok := findComment(view.violation.Comments, commentID)
	if !ok {
		s.mu.Unlock()
		return models.Comment{}, forensics.NewNotFoundError("comment", commentID)
	}
	if prev.Acknowledged() {
		s.mu.Unlock()
		return prev, nil
	}
	now := s.now().UTC()
	optimistic := prev.Clone()
	optimistic.AcknowledgedAt = &now
	optimistic.AcknowledgedBy = s.reviewer.ID
	s.applyLocked(id, func(v *models.Violation, detail bool) {
		if detail {
			replaceComment(v.Comments, commentID, optimistic)
		}
	})
	s.mu.Unlock()

	stored, err := s.backend.AcknowledgeComment(ctx, id, commentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, forensics.ErrAlreadyAcknowledged) && stored.ID != "" {
		err = nil
	}
	if err != nil {
		s.applyLocked(id, func(v *models.Violation, detail bool) {
			if detail {
				replaceComment(v.Comments, commentID, prev)
			}
		})
		s.logger.Warn().Err(err).Str("violation_id", id).Str("comment_id", commentID).Msg("Acknowledgment rolled back")
		return models.Comment{}, err
	}
	s.applyLocked(id, func(v *models.Violation, detail bool) {
		if detail {
			replaceComment(v.Comments, commentID, stored)
		}
	})
	return stored, nil
}

// MarkFalsePositive flags the open violation. The status is unchanged.
func (s *Session) MarkFalsePositive(ctx context.Context, reason string) (*models.Violation, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, forensics.NewValidationError("reason", "a false positive reason is required")
	}
	return s.changeDisposition(ctx, "mark false positive", func(v *models.Violation) error {
		v.IsFalsePositive = true
		v.FalsePositiveReason = reason
		v.FalsePositiveMarkedBy = s.reviewer.ID
		return nil
	}, func(ctx context.Context, id string) (*models.Violation, error) {
		return s.backend.MarkFalsePositive(ctx, id, reason)
	})
}

// UnmarkFalsePositive clears the false positive flag of the open violation.
func (s *Session) UnmarkFalsePositive(ctx context.Context) (*models.Violation, error) {
	return s.changeDisposition(ctx, "unmark false positive", func(v *models.Violation) error {
		v.IsFalsePositive = false
		v.FalsePositiveReason = ""
		v.FalsePositiveMarkedBy = ""
		return nil
	}, s.backend.UnmarkFalsePositive)
}

// Resolve marks the open violation resolved.
func (s *Session) Resolve(ctx context.Context) (*models.Violation, error) {
	return s.changeDisposition(ctx, "resolve", func(v *models.Violation) error {
		if v.Status == models.StatusResolved {
			return forensics.NewValidationError("status", "violation is already resolved")
		}
		now := s.now().UTC()
		v.Status = models.StatusResolved
		v.ResolvedAt = &now
		v.ResolvedBy = s.reviewer.ID
		return nil
	}, s.backend.Resolve)
}

// Reopen returns the open violation to active.
func (s *Session) Reopen(ctx context.Context) (*models.Violation, error) {
	return s.changeDisposition(ctx, "reopen", func(v *models.Violation) error {
		if v.Status != models.StatusResolved {
			return forensics.NewValidationError("status", "only resolved violations can be reopened")
		}
		v.Status = models.StatusActive
		v.ResolvedAt = nil
		v.ResolvedBy = ""
		return nil
	}, s.backend.Reopen)
}

// disposition is the mutable review state of a violation.
type disposition struct {
	status        models.Status
	falsePositive bool
	reason        string
	markedBy      string
	resolvedAt    *time.Time
	resolvedBy    string
}

func dispositionOf(v *models.Violation) disposition {
	return disposition{
		status:        v.Status,
		falsePositive: v.IsFalsePositive,
		reason:        v.FalsePositiveReason,
		markedBy:      v.FalsePositiveMarkedBy,
		resolvedAt:    v.ResolvedAt,
		resolvedBy:    v.ResolvedBy,
	}
}

func (d disposition) apply(v *models.Violation, _ bool) {
	v.Status = d.status
	v.IsFalsePositive = d.falsePositive
	v.FalsePositiveReason = d.reason
	v.FalsePositiveMarkedBy = d.markedBy
	v.ResolvedAt = d.resolvedAt
	v.ResolvedBy = d.resolvedBy
}

func (s *Session) changeDisposition(
	ctx context.Context,
	op string,
	change func(v *models.Violation) error,
	call func(ctx context.Context, id string) (*models.Violation, error),
) (*models.Violation, error) {
	s.mu.Lock()
	view := s.detail
	if view == nil || view.violation.ID == "" {
		s.mu.Unlock()
		return nil, ErrNoViolationOpen
	}
	id := view.violation.ID
	before := dispositionOf(&view.violation)
	next := view.violation
	if err := change(&next); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.applyLocked(id, dispositionOf(&next).apply)
	s.mu.Unlock()

	v, err := call(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.applyLocked(id, before.apply)
		s.logger.Warn().Err(err).Str("violation_id", id).Str("op", op).Msg("Disposition change rolled back")
		return nil, err
	}
	s.applyLocked(id, dispositionOf(v).apply)
	return v, nil
}

// applyLocked applies fn to every local copy of violation id: the detail
// view (detail=true) and matching list items.
func (s *Session) applyLocked(id string, fn func(v *models.Violation, detail bool)) {
	if s.detail != nil && s.detail.violation.ID == id {
		fn(&s.detail.violation, true)
	}
	for i := range s.result.Items {
		if s.result.Items[i].ID == id {
			fn(&s.result.Items[i], false)
		}
	}
}

func (s *Session) openView() (context.Context, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail == nil || s.detail.violation.ID == "" {
		return nil, "", ErrNoViolationOpen
	}
	return s.detail.ctx, s.detail.violation.ID, nil
}

func findComment(comments []models.Comment, id string) (models.Comment, bool) {
	for i := range comments {
		if comments[i].ID == id {
			return comments[i].Clone(), true
		}
	}
	return models.Comment{}, false
}

func replaceComment(comments []models.Comment, id string, c models.Comment) {
	for i := range comments {
		if comments[i].ID == id {
			comments[i] = c
			return
		}
	}
}

func removeComment(comments []models.Comment, id string) []models.Comment {
	out := comments[:0]
	for _, c := range comments {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
