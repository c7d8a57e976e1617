// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// AccountStore opens transactions against account persistence.
type AccountStore interface {
	// Begin starts a transaction. Every workflow call uses exactly one.
	Begin(ctx context.Context) (AccountTx, error)
}

// AccountTx is a transaction-scoped handle to account persistence.
// Lookups return an error wrapping ErrNotFound when nothing matches.
type AccountTx interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// FindByResetToken looks up the account holding the reset token digest.
	FindByResetToken(ctx context.Context, tokenHash string) (*Account, error)

	// FindByVerificationToken looks up the account holding the verification
	// token digest.
	FindByVerificationToken(ctx context.Context, tokenHash string) (*Account, error)

	// Insert stores a new account. A unique violation is reported as a
	// KindDuplicateKey error naming the field.
	Insert(ctx context.Context, account *Account) error

	// Update replaces every mutable field of an existing account.
	Update(ctx context.Context, account *Account) error

	Commit(ctx context.Context) error

	// Rollback aborts the transaction. It is safe to call after Commit.
	Rollback(ctx context.Context) error
}
