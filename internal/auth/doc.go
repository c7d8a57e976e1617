// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements the account credential and token lifecycle.
//
// # Domain Types
//
// Account is created with NewAccount, which assigns a fresh ID and marks the
// account active and unverified. State transitions are methods on Account:
//   - BeginReset / CompleteReset - password reset pending and consumed
//   - IssueVerification / MarkVerified - email verification
//
// # Collaborators
//
//   - PasswordHasher - Argon2idHasher, salted argon2id PHC digests
//   - SessionIssuer - JWTIssuer, signed 24h session tokens
//   - AccountStore / AccountTx - transactional persistence (see auth/postgres)
//   - Notifier - delivery of reset and verification tokens
//   - Revoker - optional server-side logout
//
// # Engine
//
// Engine runs each workflow (Register, Login, RequestPasswordReset,
// ConfirmPasswordReset, ChangePassword, VerifyEmail, UpdateProfile, ...) in a
// single AccountTx. Failures are classified errors; use KindOf to map them
// to a response.
//
// Input validation is done by the caller with the Validate* functions
// before invoking the engine.
package auth
