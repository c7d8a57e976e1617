// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RequestPasswordReset issues a reset token for the account registered
// under email. Unknown addresses succeed without effect so callers cannot
// probe for accounts.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (err error) {
	ctx, done := e.observe(ctx, OpRequestPasswordReset)
	defer func() { done(err) }()

	token, digest, err := GenerateOpaqueToken()
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").With("operation", "generate reset token").Wrap(err)
	}

	var (
		account   *Account
		expiresAt time.Time
	)
	err = e.withTx(ctx, func(tx AccountTx) error {
		acct, lookupErr := tx.FindByEmail(ctx, email)
		exists, lookupErr := found(lookupErr, "find account by email")
		if lookupErr != nil || !exists {
			return lookupErr
		}

		expiresAt = e.Now().Add(ResetTokenExpiry)
		acct.BeginReset(digest, expiresAt)
		if updateErr := tx.Update(ctx, acct); updateErr != nil {
			return persistErr("store reset token", updateErr)
		}
		account = acct
		return nil
	})
	if err != nil {
		return err
	}
	if account == nil {
		e.logger.DebugContext(ctx, "password reset requested for unknown email")
		return nil
	}

	if notifyErr := e.notifier.PasswordResetIssued(ctx, account, token, expiresAt); notifyErr != nil {
		e.logger.WarnContext(ctx, "reset delivery failed",
			"account_id", account.ID.String(), "error", notifyErr)
	}
	return nil
}

// ConfirmPasswordReset consumes a reset token and replaces the password.
// Unknown and expired tokens fail identically; an expired token is left
// in place.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (err error) {
	ctx, done := e.observe(ctx, OpConfirmPasswordReset)
	defer func() { done(err) }()

	invalid := func() error {
		return fail(CodeInvalidOrExpiredToken, KindInvalidOrExpiredToken, "invalid or expired reset token")
	}
	if token == "" {
		return invalid()
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_CONFIRM_FAILED").With("operation", "hash password").Wrap(err)
	}

	return e.withTx(ctx, func(tx AccountTx) error {
		account, lookupErr := tx.FindByResetToken(ctx, HashOpaqueToken(token))
		exists, lookupErr := found(lookupErr, "find account by reset token")
		if lookupErr != nil {
			return lookupErr
		}
		if !exists || !account.ResetTokenValid(e.Now()) {
			return invalid()
		}

		account.CompleteReset(hash)
		if updateErr := tx.Update(ctx, account); updateErr != nil {
			return persistErr("consume reset token", updateErr)
		}
		return nil
	})
}

// ChangePassword replaces the password of accountID after checking the
// current one.
func (e *Engine) ChangePassword(ctx context.Context, accountID ulid.ULID, currentPassword, newPassword string) (err error) {
	ctx, done := e.observe(ctx, OpChangePassword)
	defer func() { done(err) }()

	return e.withTx(ctx, func(tx AccountTx) error {
		account, lookupErr := e.findByID(ctx, tx, accountID)
		if lookupErr != nil {
			return lookupErr
		}
		if !e.hasher.Verify(currentPassword, account.PasswordHash) {
			return oops.Code(CodeCurrentPasswordInvalid).
				With("account_id", accountID.String()).
				Wrap(&Error{Kind: KindCurrentPasswordInvalid, msg: "current password is incorrect"})
		}

		hash, hashErr := e.hasher.Hash(newPassword)
		if hashErr != nil {
			return oops.Code("PASSWORD_CHANGE_FAILED").With("operation", "hash password").Wrap(hashErr)
		}
		account.PasswordHash = hash
		if updateErr := tx.Update(ctx, account); updateErr != nil {
			return persistErr("update password", updateErr)
		}
		return nil
	})
}

// VerifyEmail consumes a verification token and marks the account
// verified.
func (e *Engine) VerifyEmail(ctx context.Context, token string) (err error) {
	ctx, done := e.observe(ctx, OpVerifyEmail)
	defer func() { done(err) }()

	invalid := func() error {
		return fail(CodeInvalidVerificationToken, KindInvalidVerificationToken, "invalid verification token")
	}
	if token == "" {
		return invalid()
	}

	return e.withTx(ctx, func(tx AccountTx) error {
		account, lookupErr := tx.FindByVerificationToken(ctx, HashOpaqueToken(token))
		exists, lookupErr := found(lookupErr, "find account by verification token")
		if lookupErr != nil {
			return lookupErr
		}
		if !exists {
			return invalid()
		}

		account.MarkVerified()
		if updateErr := tx.Update(ctx, account); updateErr != nil {
			return persistErr("consume verification token", updateErr)
		}
		return nil
	})
}
