// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// MockService counts Serve calls. With a fail count set, the first n
// calls fail immediately; later calls block until cancellation.
type MockService struct {
	name     string
	starts   atomic.Int32
	stops    atomic.Int32
	attempts atomic.Int32
	failN    atomic.Int32
}

func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)

	if m.attempts.Add(1) <= m.failN.Load() {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockService) SetFailCount(n int) { m.failN.Store(int32(n)) }

func (m *MockService) StartCount() int32 { return m.starts.Load() }

func (m *MockService) StopCount() int32 { return m.stops.Load() }

func (m *MockService) String() string { return m.name }
