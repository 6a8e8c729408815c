// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/vigil/internal/logging"
)

// LockoutConfig holds configuration for the login lockout.
type LockoutConfig struct {
	// MaxAttempts is the number of failed attempts before lockout.
	MaxAttempts int

	// LockoutDuration is the base lockout period.
	LockoutDuration time.Duration

	// MaxLockoutDuration caps the doubling lockout period.
	MaxLockoutDuration time.Duration
}

// DefaultLockoutConfig returns sensible defaults.
func DefaultLockoutConfig() LockoutConfig {
	return LockoutConfig{
		MaxAttempts:        5,
		LockoutDuration:    15 * time.Minute,
		MaxLockoutDuration: 24 * time.Hour,
	}
}

// lockoutEntry tracks failed login attempts for a username.
type lockoutEntry struct {
	failedAttempts int
	lockoutCount   int
	lastAttempt    time.Time
	lockedUntil    time.Time
}

// LockoutManager locks a username after repeated failures. Each
// subsequent lockout doubles in length up to MaxLockoutDuration.
type LockoutManager struct {
	config  LockoutConfig
	mu      sync.Mutex
	entries map[string]*lockoutEntry
	now     func() time.Time
}

// NewLockoutManager creates a new lockout manager.
func NewLockoutManager(config LockoutConfig) *LockoutManager {
	if config.MaxAttempts <= 0 {
		config = DefaultLockoutConfig()
	}
	return &LockoutManager{
		config:  config,
		entries: make(map[string]*lockoutEntry),
		now:     time.Now,
	}
}

func subjectKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CheckLocked reports whether username is locked and for how long.
func (m *LockoutManager) CheckLocked(username string) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[subjectKey(username)]
	if !ok {
		return false, 0
	}
	now := m.now()
	if now.Before(entry.lockedUntil) {
		return true, entry.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailedAttempt counts a failure and returns whether it caused a
// lockout.
func (m *LockoutManager) RecordFailedAttempt(username string) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := subjectKey(username)
	entry, ok := m.entries[key]
	if !ok {
		entry = &lockoutEntry{}
		m.entries[key] = entry
	}

	now := m.now()
	entry.failedAttempts++
	entry.lastAttempt = now
	if entry.failedAttempts < m.config.MaxAttempts {
		return false, 0
	}

	duration := m.config.LockoutDuration << entry.lockoutCount
	if m.config.MaxLockoutDuration > 0 && (duration > m.config.MaxLockoutDuration || duration <= 0) {
		duration = m.config.MaxLockoutDuration
	}
	entry.lockoutCount++
	entry.failedAttempts = 0
	entry.lockedUntil = now.Add(duration)

	logging.Warn().
		Str("username", key).
		Dur("duration", duration).
		Int("lockout_count", entry.lockoutCount).
		Msg("Account locked after repeated login failures")
	return true, duration
}

// RecordSuccessfulLogin clears the failure history of username.
func (m *LockoutManager) RecordSuccessfulLogin(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, subjectKey(username))
}

// Prune drops entries idle for a day that are not locked and returns how
// many were removed.
func (m *LockoutManager) Prune() int {
	m.mu.Lock()
	removed := 0
	now := m.now()
	threshold := now.Add(-24 * time.Hour)
	for key, entry := range m.entries {
		if entry.lastAttempt.Before(threshold) && !now.Before(entry.lockedUntil) {
			delete(m.entries, key)
			removed++
		}
	}
	m.mu.Unlock()

	if removed > 0 {
		logging.Debug().Int("count", removed).Msg("Cleaned up lockout entries")
	}
	return removed
}
