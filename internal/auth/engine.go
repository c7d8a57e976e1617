// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/holomush/accountd/pkg/errutil"
)

// Workflow operation names, used for metrics, spans and logs.
const (
	OpRegister             = "register"
	OpLogin                = "login"
	OpRequestPasswordReset = "request_password_reset"
	OpConfirmPasswordReset = "confirm_password_reset"
	OpChangePassword       = "change_password"
	OpVerifyEmail          = "verify_email"
	OpUpdateProfile        = "update_profile"
	OpGetProfile           = "get_profile"
	OpAuthenticate         = "authenticate"
	OpLogout               = "logout"
	OpCreateAccount        = "create_account"
	OpSetActive            = "set_active"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

const tracerName = "github.com/holomush/accountd/internal/auth"

// dummyPasswordHash is verified against when a username does not exist so
// that unknown users and wrong passwords cost the same.
// It is replaced at first use by a digest computed with the engine's hasher.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// AuthResult is returned by workflows that authenticate the caller.
type AuthResult struct {
	Account *Account
	Session *SessionToken
}

// Engine runs the account workflows. It holds no per-account state; each
// call runs inside one store transaction.
type Engine struct {
	store    AccountStore
	hasher   PasswordHasher
	sessions SessionIssuer
	notifier Notifier
	revoker  Revoker
	reserved *ReservedNames
	metrics  MetricsRecorder
	logger   *slog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock sets the time source for token expiry and creation timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithNotifier sets the token delivery hook. Default: LogNotifier.
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithRevoker enables server-side logout.
func WithRevoker(r Revoker) EngineOption {
	return func(e *Engine) { e.revoker = r }
}

// WithReservedNames rejects matching usernames at register and profile update.
func WithReservedNames(r *ReservedNames) EngineOption {
	return func(e *Engine) { e.reserved = r }
}

// WithMetrics sets the per-operation metrics recorder.
func WithMetrics(m MetricsRecorder) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine.
func NewEngine(store AccountStore, hasher PasswordHasher, sessions SessionIssuer, opts ...EngineOption) (*Engine, error) {
	if store == nil {
		return nil, oops.Code("ENGINE_INVALID").Errorf("account store is required")
	}
	if hasher == nil {
		return nil, oops.Code("ENGINE_INVALID").Errorf("password hasher is required")
	}
	if sessions == nil {
		return nil, oops.Code("ENGINE_INVALID").Errorf("session issuer is required")
	}
	e := &Engine{
		store:    store,
		hasher:   hasher,
		sessions: sessions,
		metrics:  noopMetrics{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = &LogNotifier{Logger: e.logger}
	}
	return e, nil
}

// Now returns the engine's current time in UTC.
func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// withTx runs fn in a new transaction, committing on success and rolling
// back on error or panic.
func (e *Engine) withTx(ctx context.Context, fn func(tx AccountTx) error) (err error) {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return storageFailure("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx) //nolint:errcheck // re-panicking
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				e.logger.DebugContext(ctx, "rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		// Deferred constraints surface at commit.
		return persistErr("commit transaction", err)
	}
	return nil
}

// observe starts a span for op and returns a completion func recording the
// outcome. Unexpected failures are logged; expected outcomes are not.
func (e *Engine) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "auth."+op)
	start := time.Now()

	return ctx, func(err error) {
		outcome := OutcomeSuccess
		if err != nil {
			outcome = string(KindOf(err))
			if outcome == "" {
				outcome = OutcomeError
			}
			span.RecordError(err)
			if unexpected(err) {
				span.SetStatus(codes.Error, "unexpected failure")
				errutil.LogErrorContext(ctx, e.logger, "auth operation failed", err, "operation", op)
			}
		}
		span.SetAttributes(
			attribute.String("auth.operation", op),
			attribute.String("auth.outcome", outcome),
		)
		span.End()
		e.metrics.RecordOperation(op, outcome, time.Since(start))
	}
}

// unexpected reports whether err is outside the typed outcome set.
func unexpected(err error) bool {
	switch KindOf(err) {
	case KindStorageFailure, KindUnknown:
		return true
	default:
		return false
	}
}

// dummy returns a digest shaped like the hasher's real digests.
func (e *Engine) dummy() string {
	e.dummyOnce.Do(func() {
		e.dummyHash = dummyPasswordHash
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return
		}
		if h, err := e.hasher.Hash(base64.RawStdEncoding.EncodeToString(buf)); err == nil {
			e.dummyHash = h
		}
	})
	return e.dummyHash
}

// found distinguishes a miss from a storage failure.
func found(err error, operation string) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, storageFailure(operation, err)
}

// persistErr passes duplicate key failures through and classifies
// everything else as a storage failure.
func persistErr(operation string, err error) error {
	if KindOf(err) == KindDuplicateKey {
		return err
	}
	return storageFailure(operation, err)
}

func (e *Engine) checkReserved(fields FieldErrors, username *string) {
	if username != nil {
		e.reserved.Check(fields, "username", *username)
	}
}
