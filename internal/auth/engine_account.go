// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Register creates an active, unverified account and signs the caller in.
// The input must already have passed ValidateRegister.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	ctx, done := e.observe(ctx, OpRegister)
	defer func() { done(err) }()

	fields := FieldErrors{}
	e.checkReserved(fields, &in.Username)
	if !fields.Empty() {
		return nil, NewValidationError(fields)
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}
	verifyToken, verifyDigest, err := GenerateOpaqueToken()
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "generate verification token").Wrap(err)
	}

	err = e.withTx(ctx, func(tx AccountTx) error {
		exists, lookupErr := found(lookupErrOnly(tx.FindByUsername(ctx, in.Username)), "find account by username")
		if lookupErr != nil {
			return lookupErr
		}
		if exists {
			return fail(CodeUsernameTaken, KindUsernameTaken, "username already exists")
		}

		exists, lookupErr = found(lookupErrOnly(tx.FindByEmail(ctx, in.Email)), "find account by email")
		if lookupErr != nil {
			return lookupErr
		}
		if exists {
			return fail(CodeEmailTaken, KindEmailTaken, "email already exists")
		}

		account, newErr := NewAccount(in.Username, in.Email, hash, e.now())
		if newErr != nil {
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "create account").Wrap(newErr)
		}
		account.IssueVerification(verifyDigest)

		if insertErr := tx.Insert(ctx, account); insertErr != nil {
			return persistErr("insert account", insertErr)
		}

		session, issueErr := e.sessions.Issue(account.ID)
		if issueErr != nil {
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "issue session token").Wrap(issueErr)
		}
		res = &AuthResult{Account: account, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notifyErr := e.notifier.VerificationIssued(ctx, res.Account, verifyToken); notifyErr != nil {
		e.logger.WarnContext(ctx, "verification delivery failed",
			"account_id", res.Account.ID.String(), "error", notifyErr)
	}
	return res, nil
}

// Login verifies credentials and issues a session token. An unknown
// username and a wrong password produce the same failure.
func (e *Engine) Login(ctx context.Context, username, password string) (res *AuthResult, err error) {
	ctx, done := e.observe(ctx, OpLogin)
	defer func() { done(err) }()

	err = e.withTx(ctx, func(tx AccountTx) error {
		account, lookupErr := tx.FindByUsername(ctx, username)
		exists, lookupErr := found(lookupErr, "find account by username")
		if lookupErr != nil {
			return lookupErr
		}

		// Always verify so both miss and mismatch pay the hashing cost.
		var target string
		if exists {
			target = account.PasswordHash
		} else {
			target = e.dummy()
		}
		valid := e.hasher.Verify(password, target)

		if !exists || !valid {
			return fail(CodeInvalidCredentials, KindInvalidCredentials, "invalid username or password")
		}
		if !account.IsActive {
			return oops.Code(CodeAccountDisabled).
				With("account_id", account.ID.String()).
				Wrap(&Error{Kind: KindAccountDisabled, msg: "account is disabled"})
		}

		session, issueErr := e.sessions.Issue(account.ID)
		if issueErr != nil {
			return oops.Code("AUTH_LOGIN_FAILED").With("operation", "issue session token").Wrap(issueErr)
		}
		res = &AuthResult{Account: account, Session: session}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetProfile returns the account identified by accountID.
func (e *Engine) GetProfile(ctx context.Context, accountID ulid.ULID) (account *Account, err error) {
	ctx, done := e.observe(ctx, OpGetProfile)
	defer func() { done(err) }()

	err = e.withTx(ctx, func(tx AccountTx) error {
		var lookupErr error
		account, lookupErr = e.findByID(ctx, tx, accountID)
		return lookupErr
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateProfile replaces the username and/or email of an account. Fields
// left nil are unchanged. Uniqueness is enforced by the store.
func (e *Engine) UpdateProfile(ctx context.Context, accountID ulid.ULID, upd ProfileUpdate) (account *Account, err error) {
	ctx, done := e.observe(ctx, OpUpdateProfile)
	defer func() { done(err) }()

	fields := FieldErrors{}
	e.checkReserved(fields, upd.Username)
	if !fields.Empty() {
		return nil, NewValidationError(fields)
	}

	err = e.withTx(ctx, func(tx AccountTx) error {
		var lookupErr error
		account, lookupErr = e.findByID(ctx, tx, accountID)
		if lookupErr != nil {
			return lookupErr
		}
		if upd.Empty() {
			return nil
		}

		if upd.Username != nil {
			account.Username = *upd.Username
		}
		if upd.Email != nil {
			account.Email = *upd.Email
		}

		if updateErr := tx.Update(ctx, account); updateErr != nil {
			return persistErr("update profile", updateErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// findByID maps a miss to KindAccountNotFound.
func (e *Engine) findByID(ctx context.Context, tx AccountTx, accountID ulid.ULID) (*Account, error) {
	account, err := tx.FindByID(ctx, accountID)
	exists, err := found(err, "find account by id")
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, oops.Code(CodeAccountNotFound).
			With("account_id", accountID.String()).
			Wrap(&Error{Kind: KindAccountNotFound, msg: "account not found"})
	}
	return account, nil
}

// lookupErrOnly discards the account of a lookup used as an existence check.
func lookupErrOnly(_ *Account, err error) error {
	return err
}
