// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"log/slog"
	"time"
)

// Notifier delivers single-use tokens to account holders. Delivery happens
// after the issuing transaction commits; a delivery failure does not undo it.
type Notifier interface {
	PasswordResetIssued(ctx context.Context, account *Account, token string, expiresAt time.Time) error
	VerificationIssued(ctx context.Context, account *Account, token string) error
}

// Revoker records session tokens that were logged out before expiry.
type Revoker interface {
	// Revoke denies tokenID until expiresAt.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MetricsRecorder receives one observation per workflow call.
type MetricsRecorder interface {
	RecordOperation(operation, outcome string, duration time.Duration)
}

// LogNotifier writes token issuance to a logger. Token values are only
// included when RevealTokens is set, which is meant for local development.
type LogNotifier struct {
	Logger       *slog.Logger
	RevealTokens bool
}

// PasswordResetIssued logs a reset token issuance.
func (n *LogNotifier) PasswordResetIssued(ctx context.Context, account *Account, token string, expiresAt time.Time) error {
	attrs := []any{
		"account_id", account.ID.String(),
		"expires_at", expiresAt,
	}
	if n.RevealTokens {
		attrs = append(attrs, "token", token)
	}
	n.logger().InfoContext(ctx, "password reset token issued", attrs...)
	return nil
}

// VerificationIssued logs a verification token issuance.
func (n *LogNotifier) VerificationIssued(ctx context.Context, account *Account, token string) error {
	attrs := []any{"account_id", account.ID.String()}
	if n.RevealTokens {
		attrs = append(attrs, "token", token)
	}
	n.logger().InfoContext(ctx, "email verification token issued", attrs...)
	return nil
}

func (n *LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, string, time.Duration) {}
