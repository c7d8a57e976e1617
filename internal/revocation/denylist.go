// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package revocation keeps logged-out session token ids in Redis until the
// tokens would have expired on their own.
package revocation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/accountd/internal/auth"
)

// DefaultKeyPrefix namespaces denylist keys.
const DefaultKeyPrefix = "accountd:revoked:"

// Denylist implements auth.Revoker on a Redis keyspace. Each revoked token
// id is a key whose TTL ends at the token's expiry.
type Denylist struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a Denylist.
type Option func(*Denylist)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(d *Denylist) { d.prefix = prefix }
}

// WithClock sets the time source used to compute key TTLs.
func WithClock(now func() time.Time) Option {
	return func(d *Denylist) { d.now = now }
}

// New creates a Denylist on client.
func New(client redis.UniversalClient, opts ...Option) *Denylist {
	d := &Denylist{client: client, prefix: DefaultKeyPrefix, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").With("operation", "parse redis url").Wrap(err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", opts.Addr).Wrap(err)
	}
	return client, nil
}

func (d *Denylist) key(tokenID string) string {
	return d.prefix + tokenID
}

// Revoke denies tokenID until expiresAt. Tokens already past expiry are
// not stored.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return oops.Code("REVOCATION_INVALID").Errorf("token id is required")
	}
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(tokenID), expiresAt.Unix(), ttl).Err(); err != nil {
		return oops.Code("REVOCATION_WRITE_FAILED").With("token_id", tokenID).Wrap(err)
	}
	return nil
}

// IsRevoked reports whether tokenID is on the denylist.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, oops.Code("REVOCATION_READ_FAILED").With("token_id", tokenID).Wrap(err)
	}
	return n > 0, nil
}

// Ready reports whether Redis answers a ping.
func (d *Denylist) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return d.client.Ping(ctx).Err() == nil
}

var _ auth.Revoker = (*Denylist)(nil)
