// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements auth.AccountStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/accountd/internal/auth"
)

// txBeginner is satisfied by *pgxpool.Pool and pgxmock pools.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// constraintFields maps unique constraints to the input field they guard.
var constraintFields = map[string]string{
	"accounts_username_key":                "username",
	"accounts_email_key":                   "email",
	"accounts_reset_token_hash_key":        "reset_token",
	"accounts_verification_token_hash_key": "verification_token",
}

const accountColumns = `id, username, email, password_hash, is_active, role, created_at,
	reset_token_hash, reset_token_expires_at, email_verified, verification_token_hash`

// AccountStore implements auth.AccountStore using PostgreSQL.
type AccountStore struct {
	pool txBeginner
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool txBeginner) *AccountStore {
	return &AccountStore{pool: pool}
}

// Begin starts a transaction.
func (s *AccountStore) Begin(ctx context.Context) (auth.AccountTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, oops.Code("ACCOUNT_TX_BEGIN_FAILED").With("operation", "begin transaction").Wrap(err)
	}
	return &accountTx{tx: tx}, nil
}

type accountTx struct {
	tx pgx.Tx
}

// FindByUsername retrieves an account by exact username.
func (t *accountTx) FindByUsername(ctx context.Context, username string) (*auth.Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return t.scan(row, "find account by username", "username", username)
}

// FindByEmail retrieves an account by exact email.
func (t *accountTx) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return t.scan(row, "find account by email", "email", email)
}

// FindByID retrieves and locks an account by ID.
func (t *accountTx) FindByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id.String())
	return t.scan(row, "find account by id", "id", id.String())
}

// FindByResetToken retrieves and locks the account holding a reset token
// digest. A concurrent consumer waits and then sees no row.
func (t *accountTx) FindByResetToken(ctx context.Context, tokenHash string) (*auth.Account, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE reset_token_hash = $1 FOR UPDATE`, tokenHash)
	return t.scan(row, "find account by reset token", "", "")
}

// FindByVerificationToken retrieves and locks the account holding a
// verification token digest.
func (t *accountTx) FindByVerificationToken(ctx context.Context, tokenHash string) (*auth.Account, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE verification_token_hash = $1 FOR UPDATE`, tokenHash)
	return t.scan(row, "find account by verification token", "", "")
}

// Insert stores a new account.
func (t *accountTx) Insert(ctx context.Context, a *auth.Account) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		a.ID.String(),
		a.Username,
		a.Email,
		a.PasswordHash,
		a.IsActive,
		a.Role,
		a.CreatedAt,
		a.ResetTokenHash,
		a.ResetTokenExpiresAt,
		a.EmailVerified,
		a.VerificationHash,
	)
	if err != nil {
		return classify(err, "insert account", a.ID)
	}
	return nil
}

// Update overwrites every mutable column of an existing account.
func (t *accountTx) Update(ctx context.Context, a *auth.Account) error {
	result, err := t.tx.Exec(ctx, `
		UPDATE accounts SET
			username = $2,
			email = $3,
			password_hash = $4,
			is_active = $5,
			role = $6,
			reset_token_hash = $7,
			reset_token_expires_at = $8,
			email_verified = $9,
			verification_token_hash = $10
		WHERE id = $1
	`,
		a.ID.String(),
		a.Username,
		a.Email,
		a.PasswordHash,
		a.IsActive,
		a.Role,
		a.ResetTokenHash,
		a.ResetTokenExpiresAt,
		a.EmailVerified,
		a.VerificationHash,
	)
	if err != nil {
		return classify(err, "update account", a.ID)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", a.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Commit commits the transaction.
func (t *accountTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return classify(err, "commit", ulid.ULID{})
	}
	return nil
}

// Rollback aborts the transaction. Rolling back a finished transaction is
// a no-op.
func (t *accountTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return oops.Code("ACCOUNT_TX_ROLLBACK_FAILED").Wrap(err)
	}
	return nil
}

func (t *accountTx) scan(row pgx.Row, operation, key, value string) (*auth.Account, error) {
	var (
		a         auth.Account
		idStr     string
		createdAt time.Time
		expiresAt *time.Time
	)
	err := row.Scan(
		&idStr,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&a.IsActive,
		&a.Role,
		&createdAt,
		&a.ResetTokenHash,
		&expiresAt,
		&a.EmailVerified,
		&a.VerificationHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		b := oops.Code("ACCOUNT_NOT_FOUND")
		if key != "" {
			b = b.With(key, value)
		}
		return nil, b.Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_QUERY_FAILED").With("operation", operation).Wrap(err)
	}

	a.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	a.CreatedAt = createdAt.UTC()
	if expiresAt != nil {
		exp := expiresAt.UTC()
		a.ResetTokenExpiresAt = &exp
	}
	return &a, nil
}

// classify maps unique violations to auth.NewDuplicateKeyError.
func classify(err error, operation string, id ulid.ULID) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = "account"
		}
		return auth.NewDuplicateKeyError(field, err)
	}
	b := oops.Code("ACCOUNT_QUERY_FAILED").With("operation", operation)
	if !id.IsZero() {
		b = b.With("id", id.String())
	}
	return b.Wrap(err)
}

var (
	_ auth.AccountStore = (*AccountStore)(nil)
	_ auth.AccountTx    = (*accountTx)(nil)
)
