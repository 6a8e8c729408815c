// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package ingest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/metrics"
	"github.com/tomtom215/vigil/internal/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// flakyStore fails the first failures inserts.
type flakyStore struct {
	*forensics.MemoryStore
	failures atomic.Int32
	calls    atomic.Int32
}

func (s *flakyStore) InsertViolation(ctx context.Context, v models.Violation) error {
	s.calls.Add(1)
	if s.failures.Add(-1) >= 0 {
		return errors.New("disk full")
	}
	return s.MemoryStore.InsertViolation(ctx, v)
}

func newFlakyStore(failures int32) *flakyStore {
	s := &flakyStore{MemoryStore: forensics.NewMemoryStore()}
	s.failures.Store(failures)
	return s
}

func violationPayload(t *testing.T, n int, mutate func(v *models.Violation)) []byte {
	t.Helper()
	v := forensics.NewFixtureGenerator(7, nil, testNow).Violation(n)
	if mutate != nil {
		mutate(&v)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal violation: %v", err)
	}
	return payload
}

func outcomeCount(outcome string) float64 {
	return testutil.ToFloat64(metrics.IngestMessagesTotal.WithLabelValues(outcome))
}

func TestHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		payload  func(t *testing.T) []byte
		failures int32
		seed     bool
		outcome  string
		wantErr  bool
		stored   int
	}{
		{
			name:    "valid violation",
			payload: func(t *testing.T) []byte { return violationPayload(t, 1, nil) },
			outcome: OutcomeStored,
			stored:  1,
		},
		{
			name:    "duplicate violation",
			payload: func(t *testing.T) []byte { return violationPayload(t, 1, nil) },
			seed:    true,
			outcome: OutcomeDuplicate,
			stored:  1,
		},
		{
			name:    "malformed json",
			payload: func(t *testing.T) []byte { return []byte(`{"id": "VIO-00001",`) },
			outcome: OutcomeRejected,
		},
		{
			name: "invalid id",
			payload: func(t *testing.T) []byte {
				return violationPayload(t, 1, func(v *models.Violation) { v.ID = "V-1" })
			},
			outcome: OutcomeRejected,
		},
		{
			name: "unredacted evidence",
			payload: func(t *testing.T) []byte {
				return violationPayload(t, 1, func(v *models.Violation) {
					v.Evidence[0].BlurredURL = v.Evidence[0].OriginalURL
				})
			},
			outcome: OutcomeRejected,
		},
		{
			name:     "store failure",
			payload:  func(t *testing.T) []byte { return violationPayload(t, 1, nil) },
			failures: 1,
			outcome:  OutcomeFailed,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFlakyStore(tt.failures)
			if tt.seed {
				v := forensics.NewFixtureGenerator(7, nil, testNow).Violation(1)
				if err := store.MemoryStore.InsertViolation(context.Background(), v); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			h := NewHandler(store)
			before := outcomeCount(tt.outcome)

			err := h.Handle(message.NewMessage(watermill.NewUUID(), tt.payload(t)))

			if (err != nil) != tt.wantErr {
				t.Fatalf("Handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := outcomeCount(tt.outcome) - before; got != 1 {
				t.Errorf("%s outcome incremented by %v, want 1", tt.outcome, got)
			}
			if got := store.Len(); got != tt.stored {
				t.Errorf("stored %d violations, want %d", got, tt.stored)
			}
		})
	}
}

func TestHandler_DefaultsApplied(t *testing.T) {
	store := forensics.NewMemoryStore()
	payload := violationPayload(t, 3, func(v *models.Violation) {
		v.Status = ""
		v.Comments = nil
	})

	if err := NewHandler(store).Handle(message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got, err := store.GetViolation(context.Background(), "VIO-00003")
	if err != nil {
		t.Fatalf("GetViolation() error = %v", err)
	}
	if got.Status != models.StatusPendingReview {
		t.Errorf("status = %s, want pending_review", got.Status)
	}
}

func TestNewService_Validation(t *testing.T) {
	pubSub := NewGoChannel(1)
	defer pubSub.Close()
	h := NewHandler(forensics.NewMemoryStore())

	if _, err := NewService(DefaultConfig(""), pubSub, h); err == nil {
		t.Error("expected error for empty topic")
	}
	if _, err := NewService(DefaultConfig("violation.detected"), nil, h); err == nil {
		t.Error("expected error for nil subscriber")
	}
	if _, err := NewService(DefaultConfig("violation.detected"), pubSub, nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

// runService starts svc and waits until its router is consuming.
func runService(t *testing.T, svc *Service) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-svc.Running():
	case err := <-done:
		cancel()
		t.Fatalf("service stopped early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("service did not start")
	}

	return func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("service did not stop")
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func testServiceConfig() Config {
	cfg := DefaultConfig("violation.detected")
	cfg.CloseTimeout = time.Second
	cfg.RetryMaxRetries = 1
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	return cfg
}

func TestService_StoresPublishedViolations(t *testing.T) {
	pubSub := NewGoChannel(16)
	defer pubSub.Close()
	store := forensics.NewMemoryStore()

	svc, err := NewService(testServiceConfig(), pubSub, NewHandler(store))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	stop := runService(t, svc)
	defer stop()

	msgs := []*message.Message{
		message.NewMessage(watermill.NewUUID(), violationPayload(t, 1, nil)),
		message.NewMessage(watermill.NewUUID(), []byte("not json")),
		message.NewMessage(watermill.NewUUID(), violationPayload(t, 2, nil)),
		message.NewMessage(watermill.NewUUID(), violationPayload(t, 1, nil)),
	}
	if err := pubSub.Publish("violation.detected", msgs...); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return store.Len() == 2 })

	for _, id := range []string{"VIO-00001", "VIO-00002"} {
		if _, err := store.GetViolation(context.Background(), id); err != nil {
			t.Errorf("GetViolation(%s) error = %v", id, err)
		}
	}
}

func TestService_StoreFailureRedelivered(t *testing.T) {
	pubSub := NewGoChannel(16)
	defer pubSub.Close()
	// Retry middleware attempts twice per delivery, so four failures
	// force at least one nack and redelivery.
	store := newFlakyStore(4)

	svc, err := NewService(testServiceConfig(), pubSub, NewHandler(store))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	stop := runService(t, svc)
	defer stop()

	if err := pubSub.Publish("violation.detected",
		message.NewMessage(watermill.NewUUID(), violationPayload(t, 5, nil))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	waitFor(t, func() bool { return store.Len() == 1 })

	if calls := store.calls.Load(); calls != 5 {
		t.Errorf("InsertViolation called %d times, want 5", calls)
	}
}

func TestService_String(t *testing.T) {
	pubSub := NewGoChannel(1)
	defer pubSub.Close()
	svc, err := NewService(testServiceConfig(), pubSub, NewHandler(forensics.NewMemoryStore()))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.String() != "violation-ingest" {
		t.Errorf("String() = %q", svc.String())
	}
}
