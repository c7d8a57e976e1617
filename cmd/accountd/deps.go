// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/auth/postgres"
	"github.com/holomush/accountd/internal/config"
	"github.com/holomush/accountd/internal/httpapi"
	"github.com/holomush/accountd/internal/observability"
	"github.com/holomush/accountd/internal/revocation"
	"github.com/holomush/accountd/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// DatabaseConnector opens the account database.
	// Default: store.Connect
	DatabaseConnector func(ctx context.Context, cfg *config.Config) (Database, error)

	// RevocationConnector opens the session revocation list. It is only
	// called when a Redis URL is configured.
	// Default: revocation.Connect
	RevocationConnector func(ctx context.Context, cfg *config.Config) (RevocationList, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// APIServerFactory creates the HTTP API server.
	// Default: httpapi.NewServer
	APIServerFactory func(addr string, handler *httpapi.Handler) APIServer
}

// AdminDeps contains injectable dependencies for the seed and account
// commands.
type AdminDeps struct {
	// EngineOpener connects to the database and returns the account engine
	// plus a func releasing its resources.
	// Default: openAdminEngine
	EngineOpener func(ctx context.Context, cfg *config.Config) (AccountAdmin, func(), error)

	// PasswordReader prompts for a password without echo.
	// Default: readPassword
	PasswordReader func(prompt string) (string, error)
}

// Database wraps the methods serve uses from store.DB.
type Database interface {
	AccountStore() auth.AccountStore
	Ready() bool
	Close()
}

// RevocationList wraps the methods serve uses from revocation.Denylist.
type RevocationList interface {
	auth.Revoker
	Ready() bool
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// APIServer wraps the methods used from httpapi.Server.
type APIServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// AccountAdmin is the engine surface used by the admin commands.
type AccountAdmin interface {
	CreateAccount(ctx context.Context, in auth.NewAccountInput) (*auth.Account, error)
	SetActive(ctx context.Context, username string, active bool) (*auth.Account, error)
}

// pgDatabase adapts store.DB to Database.
type pgDatabase struct {
	*store.DB
}

func (d pgDatabase) AccountStore() auth.AccountStore {
	return postgres.NewAccountStore(d.Pool())
}

// redisRevocation couples a denylist with the client it owns.
type redisRevocation struct {
	*revocation.Denylist
	client *redis.Client
}

func (r redisRevocation) Close() error {
	return r.client.Close()
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*store.DB, error) {
	return store.Connect(ctx, cfg.Database.URL, store.ConnectOptions{
		Attempts: cfg.Database.ConnectAttempts,
		Backoff:  cfg.Database.ConnectBackoff,
		MaxConns: cfg.Database.MaxConns,
	})
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	out := ServeDeps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseConnector == nil {
		out.DatabaseConnector = func(ctx context.Context, cfg *config.Config) (Database, error) {
			db, err := connectDatabase(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return pgDatabase{db}, nil
		}
	}
	if out.RevocationConnector == nil {
		out.RevocationConnector = func(ctx context.Context, cfg *config.Config) (RevocationList, error) {
			client, err := revocation.Connect(ctx, cfg.Redis.URL)
			if err != nil {
				return nil, err
			}
			denylist := revocation.New(client, revocation.WithKeyPrefix(cfg.Redis.KeyPrefix))
			return redisRevocation{Denylist: denylist, client: client}, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.APIServerFactory == nil {
		out.APIServerFactory = func(addr string, handler *httpapi.Handler) APIServer {
			return httpapi.NewServer(addr, handler)
		}
	}
	return &out
}

func (d *AdminDeps) withDefaults() *AdminDeps {
	out := AdminDeps{}
	if d != nil {
		out = *d
	}
	if out.EngineOpener == nil {
		out.EngineOpener = openAdminEngine
	}
	if out.PasswordReader == nil {
		out.PasswordReader = readPassword
	}
	return &out
}
