// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package services

import (
	"context"
	"time"
)

// PeriodicService runs task every interval until the context ends. The
// first run happens one interval after Serve starts.
//
//	tree.AddMaintenanceService(services.NewPeriodicService("lockout-prune", time.Hour,
//	    func(context.Context) { lockout.Prune() }))
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context)
}

// NewPeriodicService creates the wrapper. A non-positive interval means
// one hour.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context)) *PeriodicService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service. A panicking task is left to suture,
// which logs it and restarts the service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.task(ctx)
		}
	}
}

// String implements fmt.Stringer.
func (p *PeriodicService) String() string {
	return p.name
}
