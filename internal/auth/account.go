// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultRole is assigned to accounts created without an explicit role.
const DefaultRole = "user"

// AdminRole marks operator accounts.
const AdminRole = "admin"

// Roles lists every role an account may hold.
var Roles = []string{DefaultRole, AdminRole}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

// RoleMessage is the field message for a role outside Roles.
func RoleMessage() string {
	return "Role must be one of " + strings.Join(Roles, ", ")
}

// Account is a registered user's durable identity record.
//
// Reset and verification tokens are held as SHA-256 digests; the plaintext
// only ever leaves the service through a Notifier.
type Account struct {
	ID                  ulid.ULID
	Username            string
	Email               string
	PasswordHash        string
	IsActive            bool
	Role                string
	CreatedAt           time.Time
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	EmailVerified       bool
	VerificationHash    *string
}

// NewAccount creates an active, unverified account with a fresh ID.
func NewAccount(username, email, passwordHash string, now time.Time) (*Account, error) {
	if username == "" {
		return nil, oops.Code("ACCOUNT_INVALID").Errorf("username cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("ACCOUNT_INVALID").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID").Errorf("password hash cannot be empty")
	}
	return &Account{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		Role:         DefaultRole,
		CreatedAt:    now.UTC(),
	}, nil
}

// ResetPending reports whether a password reset token is outstanding.
func (a *Account) ResetPending() bool {
	return a.ResetTokenHash != nil
}

// ResetTokenValid reports whether the outstanding reset token is still usable
// at now. The expiry is exclusive: a token expiring exactly at now is invalid.
func (a *Account) ResetTokenValid(now time.Time) bool {
	if a.ResetTokenHash == nil || a.ResetTokenExpiresAt == nil {
		return false
	}
	return now.Before(*a.ResetTokenExpiresAt)
}

// BeginReset records a pending reset. Any earlier token is replaced.
func (a *Account) BeginReset(tokenHash string, expiresAt time.Time) {
	exp := expiresAt.UTC()
	a.ResetTokenHash = &tokenHash
	a.ResetTokenExpiresAt = &exp
}

// CompleteReset replaces the password hash and clears the reset token.
func (a *Account) CompleteReset(passwordHash string) {
	a.PasswordHash = passwordHash
	a.ResetTokenHash = nil
	a.ResetTokenExpiresAt = nil
}

// IssueVerification records a pending email verification.
func (a *Account) IssueVerification(tokenHash string) {
	a.VerificationHash = &tokenHash
}

// MarkVerified sets the account verified and clears the verification token.
func (a *Account) MarkVerified() {
	a.EmailVerified = true
	a.VerificationHash = nil
}
