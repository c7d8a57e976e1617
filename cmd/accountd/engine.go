// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"crypto/rand"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/auth/postgres"
	"github.com/holomush/accountd/internal/config"
)

// newEngine builds the account engine for cfg over store. secret signs
// session tokens.
func newEngine(cfg *config.Config, store auth.AccountStore, secret []byte, logger *slog.Logger, opts ...auth.EngineOption) (*auth.Engine, error) {
	sessions, err := auth.NewJWTIssuer(secret,
		auth.WithTokenTTL(cfg.Session.TTL),
		auth.WithTokenIssuer(cfg.Session.Issuer),
	)
	if err != nil {
		return nil, err
	}

	reserved, err := auth.NewReservedNames(cfg.Accounts.ReservedUsernames)
	if err != nil {
		return nil, err
	}

	opts = append([]auth.EngineOption{
		auth.WithReservedNames(reserved),
		auth.WithLogger(logger),
		auth.WithNotifier(&auth.LogNotifier{Logger: logger, RevealTokens: cfg.Accounts.RevealTokens}),
	}, opts...)
	return auth.NewEngine(store, auth.NewArgon2idHasher(), sessions, opts...)
}

// adminSecret returns the configured session secret, or a random one when
// none is set. Admin commands never issue tokens.
func adminSecret(cfg *config.Config) ([]byte, error) {
	if cfg.Session.Secret != "" {
		return []byte(cfg.Session.Secret), nil
	}
	secret := make([]byte, auth.MinSessionSecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, oops.Code("SESSION_SECRET_FAILED").Wrap(err)
	}
	return secret, nil
}

// openAdminEngine connects to the database and builds an engine for the
// one-shot admin commands.
func openAdminEngine(ctx context.Context, cfg *config.Config) (AccountAdmin, func(), error) {
	secret, err := adminSecret(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := connectDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := newEngine(cfg, postgres.NewAccountStore(db.Pool()), secret, slog.Default())
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return engine, db.Close, nil
}
