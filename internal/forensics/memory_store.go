// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

// MemoryStore implements Store in memory.
// Suitable for development and tests. Data is lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	violations map[string]*models.Violation
}

// NewMemoryStore creates a store holding a copy of seed.
func NewMemoryStore(seed ...models.Violation) *MemoryStore {
	s := &MemoryStore{violations: make(map[string]*models.Violation, len(seed))}
	for i := range seed {
		v := seed[i].Clone()
		v.CommentCount = len(v.Comments)
		s.violations[v.ID] = &v
	}
	return s
}

// SearchViolations implements Store.
func (s *MemoryStore) SearchViolations(ctx context.Context, spec models.FilterSpec) ([]models.Violation, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Violation, 0, len(s.violations))
	for _, v := range s.violations {
		if Matches(v, &spec) {
			matched = append(matched, v)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return Less(matched[i], matched[j]) })

	total := len(matched)
	start := min(spec.Offset(), total)
	end := total
	if spec.PageSize < total-start {
		end = start + spec.PageSize
	}

	items := make([]models.Violation, 0, end-start)
	for _, v := range matched[start:end] {
		c := v.Clone()
		c.Comments = []models.Comment{}
		items = append(items, c)
	}

	return items, total, nil
}

// GetViolation implements Store.
func (s *MemoryStore) GetViolation(ctx context.Context, id string) (*models.Violation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.violations[id]
	if !ok {
		return nil, NewNotFoundError("violation", id)
	}
	out := v.Clone()
	return &out, nil
}

// AppendComment implements Store.
func (s *MemoryStore) AppendComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return models.Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.violations[c.ViolationID]
	if !ok {
		return models.Comment{}, NewNotFoundError("violation", c.ViolationID)
	}
	v.Comments = append(v.Comments, c.Clone())
	v.CommentCount = len(v.Comments)
	return c.Clone(), nil
}

// AcknowledgeComment implements Store.
func (s *MemoryStore) AcknowledgeComment(ctx context.Context, violationID, commentID, userID string, at time.Time) (models.Comment, error) {
	if err := ctx.Err(); err != nil {
		return models.Comment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.violations[violationID]
	if !ok {
		return models.Comment{}, NewNotFoundError("violation", violationID)
	}
	for i := range v.Comments {
		c := &v.Comments[i]
		if c.ID != commentID {
			continue
		}
		if c.Acknowledged() {
			return c.Clone(), ErrAlreadyAcknowledged
		}
		ackAt := at
		c.AcknowledgedAt = &ackAt
		c.AcknowledgedBy = userID
		return c.Clone(), nil
	}
	return models.Comment{}, NewNotFoundError("comment", commentID)
}

// UpdateDisposition implements Store.
func (s *MemoryStore) UpdateDisposition(ctx context.Context, id string, mutate func(v *models.Violation) error) (*models.Violation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.violations[id]
	if !ok {
		return nil, NewNotFoundError("violation", id)
	}

	work := v.Clone()
	if err := mutate(&work); err != nil {
		return nil, err
	}

	v.Status = work.Status
	v.IsFalsePositive = work.IsFalsePositive
	v.FalsePositiveReason = work.FalsePositiveReason
	v.FalsePositiveMarkedBy = work.FalsePositiveMarkedBy
	v.ResolvedAt = work.ResolvedAt
	v.ResolvedBy = work.ResolvedBy

	out := v.Clone()
	return &out, nil
}

// Summary implements Store.
func (s *MemoryStore) Summary(ctx context.Context, since time.Time) (models.StatsSummary, error) {
	if err := ctx.Err(); err != nil {
		return models.StatsSummary{}, err
	}
	s.mu.RLock()
	recent := make([]models.Violation, 0, len(s.violations))
	for _, v := range s.violations {
		if !v.DetectedAt.Before(since) {
			recent = append(recent, *v)
		}
	}
	s.mu.RUnlock()
	return Summarize(recent, since), nil
}

// InsertViolation implements Store.
func (s *MemoryStore) InsertViolation(ctx context.Context, v models.Violation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.violations[v.ID]; exists {
		return ErrDuplicateViolation
	}
	c := v.Clone()
	if c.Comments == nil {
		c.Comments = []models.Comment{}
	}
	c.CommentCount = len(c.Comments)
	s.violations[c.ID] = &c
	return nil
}

// Len returns the number of stored violations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.violations)
}
