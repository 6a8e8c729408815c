// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown user or wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// bcryptCost is lowered by tests.
var bcryptCost = 12

// User is a local account.
type User struct {
	ID          string
	Username    string
	DisplayName string
	Role        string
}

type account struct {
	user         User
	passwordHash []byte
}

// CredentialStore holds local accounts with bcrypt password hashes.
type CredentialStore struct {
	mu       sync.RWMutex
	accounts map[string]account
	// dummyHash keeps unknown-user checks as slow as real ones.
	dummyHash []byte
}

// NewCredentialStore creates an empty store.
func NewCredentialStore() (*CredentialStore, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("vigil-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &CredentialStore{
		accounts:  make(map[string]account),
		dummyHash: dummy,
	}, nil
}

// AddUser registers an account. The password is hashed once here.
func (s *CredentialStore) AddUser(user User, password string) error {
	username := strings.TrimSpace(user.Username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if user.Role == "" {
		return fmt.Errorf("role is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.Username = username
	if user.ID == "" {
		user.ID = "local:" + username
	}
	if user.DisplayName == "" {
		user.DisplayName = username
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(username)] = account{user: user, passwordHash: hash}
	return nil
}

// Verify checks a username and password and returns the account.
func (s *CredentialStore) Verify(username, password string) (User, error) {
	s.mu.RLock()
	acct, ok := s.accounts[strings.ToLower(strings.TrimSpace(username))]
	s.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return acct.user, nil
}

// Len returns the number of accounts.
func (s *CredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}
