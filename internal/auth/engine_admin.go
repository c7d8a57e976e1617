// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// NewAccountInput describes an account provisioned by an operator rather
// than through self-registration.
type NewAccountInput struct {
	Username string
	Email    string
	// Password is hashed when set; otherwise PasswordHash must hold an
	// argon2id digest.
	Password      string
	PasswordHash  string
	Role          string
	Disabled      bool
	EmailVerified bool
}

// CreateAccount provisions an account. Reserved username patterns do not
// apply. Role must be empty or one of Roles. A duplicate username or email fails with KindDuplicateKey.
func (e *Engine) CreateAccount(ctx context.Context, in NewAccountInput) (account *Account, err error) {
	ctx, done := e.observe(ctx, OpCreateAccount)
	defer func() { done(err) }()

	if in.Role != "" && !ValidRole(in.Role) {
		return nil, NewValidationError(FieldErrors{"role": {RoleMessage()}})
	}

	hash := in.PasswordHash
	if in.Password != "" {
		hash, err = e.hasher.Hash(in.Password)
		if err != nil {
			return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "hash password").Wrap(err)
		}
	} else if digestErr := CheckDigest(hash); digestErr != nil {
		return nil, NewValidationError(FieldErrors{"password_hash": {digestErr.Error()}})
	}

	account, err = NewAccount(in.Username, in.Email, hash, e.now())
	if err != nil {
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "create account").Wrap(err)
	}
	if in.Role != "" {
		account.Role = in.Role
	}
	account.IsActive = !in.Disabled

	var verifyToken string
	if in.EmailVerified {
		account.EmailVerified = true
	} else {
		var digest string
		verifyToken, digest, err = GenerateOpaqueToken()
		if err != nil {
			return nil, oops.Code("ACCOUNT_CREATE_FAILED").With("operation", "generate verification token").Wrap(err)
		}
		account.IssueVerification(digest)
	}

	err = e.withTx(ctx, func(tx AccountTx) error {
		if insertErr := tx.Insert(ctx, account); insertErr != nil {
			return persistErr("insert account", insertErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verifyToken != "" {
		if notifyErr := e.notifier.VerificationIssued(ctx, account, verifyToken); notifyErr != nil {
			e.logger.WarnContext(ctx, "verification delivery failed",
				"account_id", account.ID.String(), "error", notifyErr)
		}
	}
	return account, nil
}

// SetActive enables or disables the account registered under username.
// Disabled accounts cannot log in; existing session tokens stay valid
// until they expire or are revoked.
func (e *Engine) SetActive(ctx context.Context, username string, active bool) (account *Account, err error) {
	ctx, done := e.observe(ctx, OpSetActive)
	defer func() { done(err) }()

	err = e.withTx(ctx, func(tx AccountTx) error {
		acct, lookupErr := tx.FindByUsername(ctx, username)
		exists, lookupErr := found(lookupErr, "find account by username")
		if lookupErr != nil {
			return lookupErr
		}
		if !exists {
			return oops.Code(CodeAccountNotFound).
				With("username", username).
				Wrap(&Error{Kind: KindAccountNotFound, msg: "account not found"})
		}
		if acct.IsActive == active {
			account = acct
			return nil
		}

		acct.IsActive = active
		if updateErr := tx.Update(ctx, acct); updateErr != nil {
			return persistErr("update account status", updateErr)
		}
		account = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
