// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines requirements for the development login password.
type PasswordPolicy struct {
	MinLength             int
	RequireUppercase      bool
	RequireLowercase      bool
	RequireDigit          bool
	RequireSpecial        bool
	MaxConsecutiveRepeats int // 0 = disabled
	ForbidUsername        bool
}

// DefaultPasswordPolicy returns the policy applied to ADMIN_PASSWORD.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:             12,
		RequireUppercase:      true,
		RequireLowercase:      true,
		RequireDigit:          true,
		RequireSpecial:        true,
		MaxConsecutiveRepeats: 3,
		ForbidUsername:        true,
	}
}

// Validate returns an error listing every unmet requirement.
func (p PasswordPolicy) Validate(password, username string) error {
	var problems []string

	if len(password) < p.MinLength {
		problems = append(problems, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if p.RequireUppercase && !hasUpper {
		problems = append(problems, "must contain an uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		problems = append(problems, "must contain a lowercase letter")
	}
	if p.RequireDigit && !hasDigit {
		problems = append(problems, "must contain a digit")
	}
	if p.RequireSpecial && !hasSpecial {
		problems = append(problems, "must contain a special character")
	}
	if p.MaxConsecutiveRepeats > 0 && maxConsecutiveRepeats(password) > p.MaxConsecutiveRepeats {
		problems = append(problems, fmt.Sprintf("must not repeat a character more than %d times in a row", p.MaxConsecutiveRepeats))
	}
	if p.ForbidUsername && username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		problems = append(problems, "must not contain the username")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("password " + strings.Join(problems, ", "))
}

func maxConsecutiveRepeats(password string) int {
	longest, run := 0, 0
	var prev rune
	for i, r := range password {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		prev = r
		if run > longest {
			longest = run
		}
	}
	return longest
}
