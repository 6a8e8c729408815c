// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/models"
)

func openTestViolation(t *testing.T, s *Session, id string) {
	t.Helper()
	if _, err := s.ApplyFilter(context.Background(), models.FilterSpec{Severity: models.SeverityCritical}); err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}
	if _, err := s.OpenViolation(context.Background(), id); err != nil {
		t.Fatalf("OpenViolation() error = %v", err)
	}
}

func listItem(t *testing.T, s *Session, id string) models.Violation {
	t.Helper()
	for _, v := range s.State().Result.Items {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("%s not on the current page", id)
	return models.Violation{}
}

func TestDetail_RequiresOpenViolation(t *testing.T) {
	s := newTestSession(t, newFakeBackend(t))
	ctx := context.Background()

	if _, err := s.AddComment(ctx, "hello"); !errors.Is(err, ErrNoViolationOpen) {
		t.Errorf("AddComment error = %v", err)
	}
	if _, err := s.Resolve(ctx); !errors.Is(err, ErrNoViolationOpen) {
		t.Errorf("Resolve error = %v", err)
	}
	if _, err := s.DownloadEvidence("EVD-1", false); !errors.Is(err, ErrNoViolationOpen) {
		t.Errorf("DownloadEvidence error = %v", err)
	}

	if _, err := s.OpenViolation(ctx, "VIO-99999"); !forensics.IsNotFound(err) {
		t.Errorf("OpenViolation unknown error = %v", err)
	}
	if _, ok := s.Violation(); ok {
		t.Error("failed open left a violation in the detail view")
	}
}

func TestAddComment_Optimistic(t *testing.T) {
	f := newFakeBackend(t)
	s := newTestSession(t, f)
	openTestViolation(t, s, "VIO-00002")
	ctx := context.Background()

	if _, err := s.AddComment(ctx, "  \n "); !forensics.IsValidation(err) {
		t.Fatalf("blank comment error = %v, want validation", err)
	}
	if _, mutations := f.calls(); mutations != 0 {
		t.Fatalf("blank comment reached the backend")
	}

	gate := make(chan struct{})
	f.mutationGate = gate
	f.entered = make(chan struct{})

	done := make(chan error, 1)
	var stored models.Comment
	go func() {
		var err error
		stored, err = s.AddComment(ctx, "PPE reminder issued")
		done <- err
	}()
	<-f.entered

	v, _ := s.Violation()
	if len(v.Comments) != 1 || !strings.HasPrefix(v.Comments[0].ID, "pending-") || v.CommentCount != 1 {
		t.Fatalf("comments while pending = %+v", v.Comments)
	}
	if listItem(t, s, "VIO-00002").CommentCount != 1 {
		t.Error("list item comment count not updated optimistically")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	v, _ = s.Violation()
	if len(v.Comments) != 1 || v.Comments[0].ID != stored.ID || strings.HasPrefix(stored.ID, "pending-") {
		t.Errorf("comments after success = %+v, stored %+v", v.Comments, stored)
	}

	f.mutationGate, f.entered = nil, nil
	f.setMutationErr(transient("add comment"))
	if _, err := s.AddComment(ctx, "second"); !forensics.IsTransient(err) {
		t.Fatalf("error = %v, want transient", err)
	}
	v, _ = s.Violation()
	if len(v.Comments) != 1 || v.CommentCount != 1 {
		t.Errorf("after rollback comments = %d count = %d, want 1 1", len(v.Comments), v.CommentCount)
	}
	if listItem(t, s, "VIO-00002").CommentCount != 1 {
		t.Error("list item comment count not rolled back")
	}
}

func TestAcknowledgeComment(t *testing.T) {
	f := newFakeBackend(t)
	s := newTestSession(t, f)
	openTestViolation(t, s, "VIO-00003")
	ctx := context.Background()

	c, err := s.AddComment(ctx, "Check the footage")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.AcknowledgeComment(ctx, "CMT-NOPE"); !forensics.IsNotFound(err) {
		t.Errorf("unknown comment error = %v", err)
	}

	f.setMutationErr(transient("acknowledge"))
	if _, err := s.AcknowledgeComment(ctx, c.ID); !forensics.IsTransient(err) {
		t.Fatalf("error = %v, want transient", err)
	}
	v, _ := s.Violation()
	if v.Comments[0].Acknowledged() {
		t.Fatal("failed acknowledgment was not rolled back")
	}

	f.setMutationErr(nil)
	acked, err := s.AcknowledgeComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("AcknowledgeComment() error = %v", err)
	}
	if !acked.Acknowledged() || acked.AcknowledgedBy != testAuth.UserID {
		t.Errorf("acked = %+v", acked)
	}

	_, before := f.calls()
	again, err := s.AcknowledgeComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("second acknowledgment error = %v", err)
	}
	if _, after := f.calls(); after != before {
		t.Error("second acknowledgment called the backend")
	}
	if !again.AcknowledgedAt.Equal(*acked.AcknowledgedAt) {
		t.Errorf("second acknowledgment changed the timestamp")
	}
}

func TestAcknowledgeComment_AlreadyAcknowledgedRemotely(t *testing.T) {
	f := newFakeBackend(t)
	s := newTestSession(t, f)
	openTestViolation(t, s, "VIO-00004")
	ctx := context.Background()

	c, err := s.AddComment(ctx, "Escalated")
	if err != nil {
		t.Fatal(err)
	}
	remote, err := f.Backend.AcknowledgeComment(ctx, "VIO-00004", c.ID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.AcknowledgeComment(ctx, c.ID)
	if err != nil {
		t.Fatalf("error = %v, want nil for an already acknowledged comment", err)
	}
	if !got.AcknowledgedAt.Equal(*remote.AcknowledgedAt) || got.AcknowledgedBy != remote.AcknowledgedBy {
		t.Errorf("got %+v, want the stored acknowledgment %+v", got, remote)
	}
}

func TestDisposition_RollbackOnFailure(t *testing.T) {
	f := newFakeBackend(t)
	s := newTestSession(t, f)
	openTestViolation(t, s, "VIO-00005")
	ctx := context.Background()

	if _, err := s.MarkFalsePositive(ctx, "   "); !forensics.IsValidation(err) {
		t.Fatalf("blank reason error = %v, want validation", err)
	}

	f.setMutationErr(transient("mark false positive"))
	if _, err := s.MarkFalsePositive(ctx, "Reflection"); !forensics.IsTransient(err) {
		t.Fatalf("error = %v, want transient", err)
	}
	v, _ := s.Violation()
	if v.IsFalsePositive || v.FalsePositiveReason != "" {
		t.Errorf("detail after rollback = %+v", v)
	}
	if listItem(t, s, "VIO-00005").IsFalsePositive {
		t.Error("list item not rolled back")
	}

	f.setMutationErr(nil)
	marked, err := s.MarkFalsePositive(ctx, "Reflection")
	if err != nil {
		t.Fatalf("MarkFalsePositive() error = %v", err)
	}
	if !marked.IsFalsePositive || marked.Status != models.StatusActive {
		t.Errorf("marked = %+v, want flagged with status unchanged", marked)
	}
	if item := listItem(t, s, "VIO-00005"); !item.IsFalsePositive || item.FalsePositiveReason != "Reflection" {
		t.Errorf("list item = %+v", item)
	}

	cleared, err := s.UnmarkFalsePositive(ctx)
	if err != nil || cleared.IsFalsePositive {
		t.Fatalf("UnmarkFalsePositive() = %+v, %v", cleared, err)
	}
}

func TestResolveAndReopen(t *testing.T) {
	f := newFakeBackend(t)
	s := newTestSession(t, f)
	openTestViolation(t, s, "VIO-00006")
	ctx := context.Background()

	if _, err := s.Reopen(ctx); !forensics.IsValidation(err) {
		t.Errorf("reopen active error = %v, want validation", err)
	}

	f.setMutationErr(transient("resolve"))
	if _, err := s.Resolve(ctx); !forensics.IsTransient(err) {
		t.Fatalf("error = %v", err)
	}
	if v, _ := s.Violation(); v.Status != models.StatusActive || v.ResolvedAt != nil {
		t.Errorf("after rollback status = %s resolved_at = %v", v.Status, v.ResolvedAt)
	}

	f.setMutationErr(nil)
	resolved, err := s.Resolve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Status != models.StatusResolved || resolved.ResolvedAt == nil {
		t.Errorf("resolved = %+v", resolved)
	}
	if _, err := s.Resolve(ctx); !forensics.IsValidation(err) {
		t.Errorf("double resolve error = %v, want validation", err)
	}

	reopened, err := s.Reopen(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Status != models.StatusActive || listItem(t, s, "VIO-00006").Status != models.StatusActive {
		t.Errorf("reopened = %+v", reopened)
	}
}

func TestCloseViolation_CancelsEvidenceNotSearch(t *testing.T) {
	f := newFakeBackend(t)
	s := newTestSession(t, f)
	openTestViolation(t, s, "VIO-00007")

	ticket, err := s.DownloadEvidence("EVD-00007-001", false)
	if err != nil {
		t.Fatalf("DownloadEvidence() error = %v", err)
	}
	if !ticket.Blurred || !strings.HasSuffix(ticket.DownloadURL, "_blurred.mp4") {
		t.Errorf("ticket = %+v", ticket)
	}

	f.mu.Lock()
	f.holdDownload = true
	f.downloading = make(chan struct{}, 1)
	f.mu.Unlock()

	searchGate := make(chan struct{})
	f.searchGates["vest"] = searchGate
	searchDone := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), models.FilterSpec{SearchText: "vest", Page: 1})
		searchDone <- err
	}()

	downloadDone := make(chan error, 1)
	go func() {
		_, err := s.DownloadEvidence("EVD-00007-001", true)
		downloadDone <- err
	}()

	deadline := time.After(2 * time.Second)
	for f.searchCtx("vest") == nil {
		select {
		case <-deadline:
			t.Fatal("search never reached the backend")
		case <-time.After(time.Millisecond):
		}
	}

	select {
	case <-f.downloading:
	case <-time.After(2 * time.Second):
		t.Fatal("download never reached the backend")
	}

	s.CloseViolation()

	select {
	case err := <-downloadDone:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("download error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("download was not canceled by CloseViolation")
	}

	if err := f.searchCtx("vest").Err(); err != nil {
		t.Errorf("search context canceled by CloseViolation: %v", err)
	}
	close(searchGate)
	if err := <-searchDone; err != nil {
		t.Errorf("search error = %v", err)
	}
	if _, ok := s.Violation(); ok {
		t.Error("detail view still open")
	}
}
