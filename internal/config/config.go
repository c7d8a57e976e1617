// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads accountd settings from flag defaults, an optional
// YAML file, explicitly set flags and a few environment variables, in that
// order of increasing precedence (environment only fills empty secrets).
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/logging"
)

// Environment variables consulted when the matching setting is empty.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvJWTSecret   = "JWT_SECRET"
	EnvRedisURL    = "REDIS_URL"
)

// Config is the complete accountd configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Session  SessionConfig  `koanf:"session"`
	Log      LogConfig      `koanf:"log"`
	Accounts AccountsConfig `koanf:"accounts"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MetricsConfig configures the metrics and health probe listener. An empty
// address disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	ConnectAttempts uint64        `koanf:"connect_attempts"`
	ConnectBackoff  time.Duration `koanf:"connect_backoff"`
}

// RedisConfig configures the session revocation list. An empty URL makes
// logout stateless.
type RedisConfig struct {
	URL       string `koanf:"url"`
	KeyPrefix string `koanf:"key_prefix"`
}

// SessionConfig configures session tokens.
type SessionConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
	Issuer string        `koanf:"issuer"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// AccountsConfig holds account policy settings.
type AccountsConfig struct {
	// ReservedUsernames are glob patterns refused at registration.
	ReservedUsernames []string `koanf:"reserved_usernames"`
	// RevealTokens logs reset and verification token values. Development only.
	RevealTokens bool `koanf:"reveal_tokens"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"http-addr":                "http.addr",
	"shutdown-timeout":         "http.shutdown_timeout",
	"metrics-addr":             "metrics.addr",
	"database-url":             "database.url",
	"database-max-conns":       "database.max_conns",
	"database-connect-tries":   "database.connect_attempts",
	"database-connect-backoff": "database.connect_backoff",
	"redis-url":                "redis.url",
	"redis-key-prefix":         "redis.key_prefix",
	"session-secret":           "session.secret",
	"session-ttl":              "session.ttl",
	"session-issuer":           "session.issuer",
	"log-level":                "log.level",
	"log-format":               "log.format",
	"reserved-usernames":       "accounts.reserved_usernames",
	"reveal-tokens":            "accounts.reveal_tokens",
}

// BindFlags registers every configuration flag with its default.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", ":8080", "API listen address")
	fs.Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	fs.String("metrics-addr", "127.0.0.1:9100", "metrics and health probe address (empty to disable)")
	fs.String("database-url", "", "PostgreSQL URL (env "+EnvDatabaseURL+")")
	fs.Int32("database-max-conns", 0, "maximum pool connections (0 uses the pgx default)")
	fs.Uint64("database-connect-tries", 5, "database connection attempts at startup")
	fs.Duration("database-connect-backoff", 500*time.Millisecond, "initial delay between connection attempts")
	fs.String("redis-url", "", "Redis URL for session revocation (env "+EnvRedisURL+")")
	fs.String("redis-key-prefix", "accountd:revoked:", "Redis key prefix for revoked sessions")
	fs.String("session-secret", "", "session token signing secret (env "+EnvJWTSecret+")")
	fs.Duration("session-ttl", auth.SessionTokenExpiry, "session token lifetime")
	fs.String("session-issuer", auth.DefaultTokenIssuer, "session token issuer")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "json", "log format (json, text)")
	fs.StringSlice("reserved-usernames", nil, "glob patterns of usernames refused at registration")
	fs.Bool("reveal-tokens", false, "log reset and verification token values (development only)")
}

// Load builds a Config. path may be empty. fs must have been passed to
// BindFlags; flags the user did not set only supply defaults.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode").Wrap(err)
	}
	cfg.applyEnv(os.LookupEnv)
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&c.Database.URL, EnvDatabaseURL)
	fill(&c.Session.Secret, EnvJWTSecret)
	fill(&c.Redis.URL, EnvRedisURL)
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("field", "database.url").
			Errorf("database url is required (set --database-url or %s)", EnvDatabaseURL)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").With("field", "log.level").Wrap(err)
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("field", "log.format").
			Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	if _, err := auth.NewReservedNames(c.Accounts.ReservedUsernames); err != nil {
		return oops.Code("CONFIG_INVALID").With("field", "accounts.reserved_usernames").Wrap(err)
	}
	return nil
}

// ValidateServe checks the additional settings the API server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.HTTP.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("field", "http.addr").Errorf("http address is required")
	}
	if c.HTTP.Addr == c.Metrics.Addr {
		return oops.Code("CONFIG_INVALID").
			With("field", "metrics.addr").
			Errorf("metrics address must differ from http address %q", c.HTTP.Addr)
	}
	if len(c.Session.Secret) < auth.MinSessionSecretSize {
		return oops.Code("CONFIG_INVALID").
			With("field", "session.secret").
			Errorf("session secret must be at least %d bytes (set --session-secret or %s)",
				auth.MinSessionSecretSize, EnvJWTSecret)
	}
	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").With("field", "session.ttl").Errorf("session ttl must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "http.shutdown_timeout").
			Errorf("shutdown timeout must be positive")
	}
	return nil
}

// LoggingOptions converts the log settings for logging.Setup.
func (c *Config) LoggingOptions(service, version string) logging.Options {
	return logging.Options{
		Service: service,
		Version: version,
		Format:  c.Log.Format,
		Level:   c.Log.Level,
	}
}
