// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package forensics

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/vigil/internal/models"
)

func TestAnnotationLedger_AddCommentRejectsBlank(t *testing.T) {
	store := NewMemoryStore(testViolation(1, models.SeverityHigh, 0.9, testNow))
	ledger := NewAnnotationLedger(store, fixedClock)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := ledger.AddComment(context.Background(), "VIO-00001", "reviewer-1", "Jane", content)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("content %q: expected ValidationError, got %v", content, err)
		}
		if verr.Field != "content" {
			t.Errorf("expected field content, got %q", verr.Field)
		}
	}

	v, _ := store.GetViolation(context.Background(), "VIO-00001")
	if len(v.Comments) != 0 {
		t.Errorf("rejected comments must not be stored, got %d", len(v.Comments))
	}
}

func TestAnnotationLedger_AddCommentAppends(t *testing.T) {
	store := NewMemoryStore(testViolation(1, models.SeverityHigh, 0.9, testNow))
	ledger := NewAnnotationLedger(store, fixedClock)
	ctx := context.Background()

	first, err := ledger.AddComment(ctx, "VIO-00001", "reviewer-1", "Jane", "  Hard hat clearly missing  ")
	if err != nil {
		t.Fatalf("add comment failed: %v", err)
	}
	if _, err := ledger.AddComment(ctx, "VIO-00001", "reviewer-2", "Sam", "Agreed"); err != nil {
		t.Fatalf("add comment failed: %v", err)
	}

	if !regexp.MustCompile(`^CMT-[0-9A-F]{8}$`).MatchString(first.ID) {
		t.Errorf("unexpected comment id %q", first.ID)
	}
	if first.Content != "Hard hat clearly missing" {
		t.Errorf("content should be trimmed, got %q", first.Content)
	}
	if !first.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %v, got %v", testNow, first.CreatedAt)
	}

	v, err := store.GetViolation(ctx, "VIO-00001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(v.Comments) != 2 || v.CommentCount != 2 {
		t.Fatalf("expected 2 comments, got %d (count %d)", len(v.Comments), v.CommentCount)
	}
	if v.Comments[0].ID != first.ID || v.Comments[1].UserID != "reviewer-2" {
		t.Error("comments must keep append order")
	}
}

func TestAnnotationLedger_AddCommentUnknownViolation(t *testing.T) {
	ledger := NewAnnotationLedger(NewMemoryStore(), fixedClock)

	_, err := ledger.AddComment(context.Background(), "VIO-00404", "reviewer-1", "Jane", "note")
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestAnnotationLedger_AcknowledgeIsFirstWriterWins(t *testing.T) {
	store := NewMemoryStore(testViolation(1, models.SeverityHigh, 0.9, testNow))
	clock := testNow
	ledger := NewAnnotationLedger(store, func() time.Time { return clock })
	ctx := context.Background()

	c, err := ledger.AddComment(ctx, "VIO-00001", "reviewer-1", "Jane", "please check")
	if err != nil {
		t.Fatalf("add comment failed: %v", err)
	}

	clock = testNow.Add(time.Minute)
	acked, err := ledger.Acknowledge(ctx, "VIO-00001", c.ID, "supervisor-1")
	if err != nil {
		t.Fatalf("acknowledge failed: %v", err)
	}
	if acked.AcknowledgedBy != "supervisor-1" || acked.AcknowledgedAt == nil {
		t.Fatalf("comment not acknowledged: %+v", acked)
	}

	clock = testNow.Add(time.Hour)
	again, err := ledger.Acknowledge(ctx, "VIO-00001", c.ID, "supervisor-2")
	if !errors.Is(err, ErrAlreadyAcknowledged) {
		t.Fatalf("expected ErrAlreadyAcknowledged, got %v", err)
	}
	if again.AcknowledgedBy != "supervisor-1" || !again.AcknowledgedAt.Equal(*acked.AcknowledgedAt) {
		t.Errorf("second acknowledgment changed the comment: %+v", again)
	}

	v, _ := store.GetViolation(ctx, "VIO-00001")
	if v.Comments[0].AcknowledgedBy != "supervisor-1" {
		t.Errorf("stored acknowledgment changed to %q", v.Comments[0].AcknowledgedBy)
	}
}

func TestAnnotationLedger_AcknowledgeUnknownComment(t *testing.T) {
	store := NewMemoryStore(testViolation(1, models.SeverityHigh, 0.9, testNow))
	ledger := NewAnnotationLedger(store, fixedClock)

	_, err := ledger.Acknowledge(context.Background(), "VIO-00001", "CMT-NOPE0000", "supervisor-1")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "comment" {
		t.Errorf("expected comment NotFoundError, got %v", err)
	}
}

func TestAnnotationLedger_ConcurrentAcknowledge(t *testing.T) {
	store := NewMemoryStore(testViolation(1, models.SeverityHigh, 0.9, testNow))
	ledger := NewAnnotationLedger(store, fixedClock)
	ctx := context.Background()

	c, err := ledger.AddComment(ctx, "VIO-00001", "reviewer-1", "Jane", "check")
	if err != nil {
		t.Fatalf("add comment failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Acknowledge(ctx, "VIO-00001", c.ID, "supervisor"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly one successful acknowledgment, got %d", winners)
	}
}

func TestEngine_CommentsUseCallerIdentity(t *testing.T) {
	e, _, _ := newTestEngine(population()...)
	ctx := context.Background()

	c, err := e.AddComment(ctx, reviewer, "VIO-00001", "looks valid")
	if err != nil {
		t.Fatalf("add comment failed: %v", err)
	}
	if c.UserID != "reviewer-1" || c.UserName != "Jane" {
		t.Errorf("comment author not taken from auth context: %+v", c)
	}

	if _, err := e.AddComment(ctx, reviewer, "VIO-00001", ""); !IsValidation(err) {
		t.Errorf("expected ValidationError for empty content, got %v", err)
	}

	acked, err := e.AcknowledgeComment(ctx, reviewer, "VIO-00001", c.ID)
	if err != nil || acked.AcknowledgedBy != "reviewer-1" {
		t.Errorf("acknowledge failed: %v %+v", err, acked)
	}

	res, _ := e.SearchViolations(ctx, reviewer, models.FilterSpec{PageSize: 100})
	for _, v := range res.Items {
		if v.ID == "VIO-00001" {
			if v.CommentCount != 1 || len(v.Comments) != 0 {
				t.Errorf("search item should carry count only, got count=%d comments=%d", v.CommentCount, len(v.Comments))
			}
		}
	}
}
