// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store owns the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry policy.
const (
	DefaultConnectAttempts = 5
	DefaultConnectBackoff  = 500 * time.Millisecond
	readyTimeout           = 2 * time.Second
)

// pinger is the part of *pgxpool.Pool used to verify connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// ConnectOptions configures Connect.
type ConnectOptions struct {
	// Attempts is the number of connection attempts. Zero uses
	// DefaultConnectAttempts.
	Attempts uint64
	// Backoff is the initial delay between attempts, doubled each retry.
	Backoff  time.Duration
	MaxConns int32
	Logger   *slog.Logger
}

// DB wraps the pgx pool shared by the account store and readiness probes.
type DB struct {
	pool   *pgxpool.Pool
	pinger pinger
}

// Connect opens a pool for databaseURL and waits until the database
// answers a ping, retrying with exponential backoff.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := pingWithRetry(ctx, pool, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{pool: pool, pinger: pool}, nil
}

func pingWithRetry(ctx context.Context, p pinger, opts ConnectOptions) error {
	attempts := opts.Attempts
	if attempts == 0 {
		attempts = DefaultConnectAttempts
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = DefaultConnectBackoff
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attempt := 0
	b := retry.WithMaxRetries(attempts-1, retry.NewExponential(backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not reachable", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}

// Pool returns the underlying pool.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// Ready reports whether the database answers a ping.
func (d *DB) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()
	return d.pinger.Ping(ctx) == nil
}

// Close closes the pool.
func (d *DB) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}
