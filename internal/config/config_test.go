// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/pkg/errutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accountd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvRedisURL, "")
	for _, name := range []string{EnvDatabaseURL, EnvJWTSecret, EnvRedisURL} {
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, uint64(5), cfg.Database.ConnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Database.ConnectBackoff)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "accountd", cfg.Session.Issuer)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Accounts.ReservedUsernames)
	assert.False(t, cfg.Accounts.RevealTokens)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, strings.Join([]string{
		"http:",
		"  addr: \":9000\"",
		"database:",
		"  url: postgres://file@localhost/accounts",
		"  max_conns: 7",
		"session:",
		"  ttl: 2h",
		"log:",
		"  level: debug",
		"accounts:",
		"  reserved_usernames: [\"admin*\", root]",
	}, "\n"))

	cfg, err := Load(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://file@localhost/accounts", cfg.Database.URL)
	assert.Equal(t, int32(7), cfg.Database.MaxConns)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"admin*", "root"}, cfg.Accounts.ReservedUsernames)
	// Untouched keys keep flag defaults.
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExplicitFlagsOverrideFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "http:\n  addr: \":9000\"\nlog:\n  level: debug\n")

	cfg, err := Load(path, newFlags(t, "--http-addr", ":7000", "--session-ttl", "30m"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentFillsEmptySecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDatabaseURL, "postgres://env@localhost/accounts")
	t.Setenv(EnvJWTSecret, testSecret)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load("", newFlags(t, "--database-url", "postgres://flag@localhost/accounts"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://flag@localhost/accounts", cfg.Database.URL)
	assert.Equal(t, testSecret, cfg.Session.Secret)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), newFlags(t))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "http: [unterminated")
	_, err := Load(path, newFlags(t))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
}

func validConfig() *Config {
	return &Config{
		HTTP:     HTTPConfig{Addr: ":8080", ShutdownTimeout: time.Second},
		Metrics:  MetricsConfig{Addr: ":9100"},
		Database: DatabaseConfig{URL: "postgres://localhost/accounts"},
		Session:  SessionConfig{Secret: testSecret, TTL: time.Hour},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
		field  string
	}{
		{"missing database url", func(c *Config) { c.Database.URL = "" }, "CONFIG_INVALID", "database.url"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "LOG_LEVEL_INVALID", "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "CONFIG_INVALID", "log.format"},
		{"bad reserved pattern", func(c *Config) { c.Accounts.ReservedUsernames = []string{"[oops"} }, "RESERVED_PATTERN_INVALID", "accounts.reserved_usernames"},
		{"short secret", func(c *Config) { c.Session.Secret = "short" }, "CONFIG_INVALID", "session.secret"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "CONFIG_INVALID", "session.ttl"},
		{"empty http addr", func(c *Config) { c.HTTP.Addr = "" }, "CONFIG_INVALID", "http.addr"},
		{"shared listener", func(c *Config) { c.Metrics.Addr = c.HTTP.Addr }, "CONFIG_INVALID", "metrics.addr"},
		{"zero shutdown timeout", func(c *Config) { c.HTTP.ShutdownTimeout = 0 }, "CONFIG_INVALID", "http.shutdown_timeout"},
	}

	require.NoError(t, validConfig().ValidateServe())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.ValidateServe()
			require.Error(t, err)
			// Wrapped causes keep their own, more specific code.
			errutil.AssertErrorCode(t, err, tt.code)
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}
}

func TestConfig_ValidateIgnoresServeSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Secret = ""
	cfg.HTTP.Addr = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_LoggingOptions(t *testing.T) {
	opts := validConfig().LoggingOptions("accountd", "1.2.3")
	assert.Equal(t, "accountd", opts.Service)
	assert.Equal(t, "1.2.3", opts.Version)
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, "json", opts.Format)
}
