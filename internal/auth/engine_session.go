// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// Authenticate decodes a session token and rejects revoked ones.
func (e *Engine) Authenticate(ctx context.Context, token string) (claims *SessionClaims, err error) {
	ctx, done := e.observe(ctx, OpAuthenticate)
	defer func() { done(err) }()

	claims, err = e.sessions.Decode(token)
	if err != nil {
		return nil, err
	}
	if e.revoker == nil {
		return claims, nil
	}

	revoked, err := e.revoker.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, storageFailure("check session revocation", err)
	}
	if revoked {
		return nil, oops.Code(CodeTokenRevoked).
			With("account_id", claims.AccountID.String()).
			Wrap(&Error{Kind: KindTokenRevoked, msg: "session token has been revoked"})
	}
	return claims, nil
}

// Logout revokes the session described by claims until it would have
// expired. Without a Revoker, logout is left to the client.
func (e *Engine) Logout(ctx context.Context, claims *SessionClaims) (err error) {
	ctx, done := e.observe(ctx, OpLogout)
	defer func() { done(err) }()

	if claims == nil {
		return fail(CodeTokenInvalid, KindTokenInvalid, "no session to log out")
	}
	if e.revoker == nil {
		return nil
	}
	if err := e.revoker.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return storageFailure("revoke session", err)
	}
	return nil
}

// Revocable reports whether Logout revokes tokens server-side.
func (e *Engine) Revocable() bool {
	return e.revoker != nil
}
