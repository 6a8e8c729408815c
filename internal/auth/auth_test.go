// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/vigil/internal/config"
)

const testSecret = "k3Jd9sLq0ZpX7vB2nM5cR8tY1wE4uI6o"

func init() {
	bcryptCost = bcrypt.MinCost
}

var testUser = User{ID: "user-42", Username: "jane", DisplayName: "Jane Doe", Role: "reviewer"}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); err == nil {
		t.Error("NewJWTManager() error = nil, want error for empty secret")
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := newTestJWTManager(t)

	token, expiresAt, err := m.GenerateToken(testUser)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if d := time.Until(expiresAt); d < 59*time.Minute || d > time.Hour+time.Second {
		t.Errorf("expiresAt in %v, want about 1h", d)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	got := claims.AuthContext(token)
	if got.UserID != "user-42" || got.UserName != "Jane Doe" || got.Role != "reviewer" || got.Token != token {
		t.Errorf("AuthContext() = %+v", got)
	}
	if !got.Authenticated() {
		t.Error("AuthContext().Authenticated() = false")
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m := newTestJWTManager(t)
	valid, _, err := m.GenerateToken(testUser)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("z", 32), SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	foreign, _, _ := other.GenerateToken(testUser)

	expired := newTestJWTManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, _ := expired.GenerateToken(testUser)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "jane", Role: "admin"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username:         "jane",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
		{"wrong secret", foreign},
		{"expired", stale},
		{"alg none", unsigned},
		{"missing role", noRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() error = nil, want rejection")
			}
		})
	}
}

func TestCredentialStore(t *testing.T) {
	store, err := NewCredentialStore()
	if err != nil {
		t.Fatalf("NewCredentialStore() error = %v", err)
	}
	if err := store.AddUser(User{Username: "Admin", Role: "admin"}, "Correct-Horse-42!"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{"valid", "Admin", "Correct-Horse-42!", false},
		{"username case insensitive", "admin", "Correct-Horse-42!", false},
		{"wrong password", "Admin", "wrong-password", true},
		{"unknown user", "mallory", "Correct-Horse-42!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := store.Verify(tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Errorf("Verify() error = %v, want ErrInvalidCredentials", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if user.ID != "local:Admin" || user.Role != "admin" || user.DisplayName != "Admin" {
				t.Errorf("Verify() = %+v", user)
			}
		})
	}

	if err := store.AddUser(User{Username: " ", Role: "admin"}, "x"); err == nil {
		t.Error("AddUser(blank username) error = nil")
	}
	if err := store.AddUser(User{Username: "bob"}, "Correct-Horse-42!"); err == nil {
		t.Error("AddUser(no role) error = nil")
	}
}

func TestLockoutManager(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewLockoutManager(LockoutConfig{MaxAttempts: 3, LockoutDuration: time.Minute, MaxLockoutDuration: 3 * time.Minute})
	m.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if locked, _ := m.RecordFailedAttempt("Jane"); locked {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	locked, d := m.RecordFailedAttempt("jane")
	if !locked || d != time.Minute {
		t.Fatalf("RecordFailedAttempt() = %v, %v; want locked for 1m", locked, d)
	}
	if locked, remaining := m.CheckLocked("JANE"); !locked || remaining != time.Minute {
		t.Errorf("CheckLocked() = %v, %v", locked, remaining)
	}

	// Second lockout doubles, third is capped.
	now = now.Add(2 * time.Minute)
	if locked, _ := m.CheckLocked("jane"); locked {
		t.Error("CheckLocked() after expiry = true")
	}
	for i := 0; i < 3; i++ {
		locked, d = m.RecordFailedAttempt("jane")
	}
	if !locked || d != 2*time.Minute {
		t.Errorf("second lockout = %v, %v; want 2m", locked, d)
	}
	now = now.Add(5 * time.Minute)
	for i := 0; i < 3; i++ {
		locked, d = m.RecordFailedAttempt("jane")
	}
	if !locked || d != 3*time.Minute {
		t.Errorf("third lockout = %v, %v; want capped 3m", locked, d)
	}

	m.RecordSuccessfulLogin("jane")
	if locked, _ := m.CheckLocked("jane"); locked {
		t.Error("CheckLocked() after success = true")
	}
}

func TestLockoutManager_Cleanup(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewLockoutManager(DefaultLockoutConfig())
	m.now = func() time.Time { return now }

	m.RecordFailedAttempt("old")
	now = now.Add(25 * time.Hour)
	m.RecordFailedAttempt("fresh")

	if removed := m.Prune(); removed != 1 {
		t.Errorf("cleanup() = %d, want 1", removed)
	}
}

func TestParseAuthMode(t *testing.T) {
	tests := []struct {
		in      string
		want    AuthMode
		wantErr bool
	}{
		{"jwt", AuthModeJWT, false},
		{"", AuthModeJWT, false},
		{"none", AuthModeNone, false},
		{"basic", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAuthMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseAuthMode(%q) = %q, %v", tt.in, got, err)
		}
	}
}
