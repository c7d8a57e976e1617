// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package seed provisions accounts from a YAML file. Seeding is
// idempotent: accounts whose username or email already exist are skipped.
package seed

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/accountd/internal/auth"
)

// SupportedVersions is the range of seed file versions this build reads.
const SupportedVersions = "^1.0.0"

// File is a seed file.
type File struct {
	Version  string    `yaml:"version" json:"version" jsonschema:"description=Seed file format version (semver)"`
	Accounts []Account `yaml:"accounts" json:"accounts" jsonschema:"minItems=1"`
}

// Account is one account to provision. Exactly one of Password and
// PasswordHash must be set.
type Account struct {
	Username      string `yaml:"username" json:"username" jsonschema:"minLength=3,maxLength=80"`
	Email         string `yaml:"email" json:"email" jsonschema:"maxLength=254"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty" jsonschema:"description=Plaintext password; hashed before storage"`
	PasswordHash  string `yaml:"password_hash,omitempty" json:"password_hash,omitempty" jsonschema:"description=argon2id PHC digest"`
	Role          string `yaml:"role,omitempty" json:"role,omitempty" jsonschema:"enum=user,enum=admin"`
	Disabled      bool   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	EmailVerified bool   `yaml:"email_verified,omitempty" json:"email_verified,omitempty"`
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return f, nil
}

// Parse validates data against the schema, the supported version range and
// the account rules, and decodes it.
func Parse(data []byte) (*File, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code("SEED_INVALID").With("operation", "decode").Wrap(err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func checkVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return oops.Code("SEED_VERSION_INVALID").With("version", raw).Wrap(err)
	}
	c, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return oops.Code("SEED_VERSION_INVALID").With("constraint", SupportedVersions).Wrap(err)
	}
	if !c.Check(v) {
		return oops.Code("SEED_VERSION_UNSUPPORTED").
			With("version", raw).
			With("supported", SupportedVersions).
			Errorf("seed file version %s is not supported", raw)
	}
	return nil
}

func (f *File) validate() error {
	usernames := make(map[string]int, len(f.Accounts))
	emails := make(map[string]int, len(f.Accounts))

	for i, a := range f.Accounts {
		fields := auth.ValidateProfileUpdate(auth.ProfileUpdate{Username: &a.Username, Email: &a.Email})
		switch {
		case a.Password != "" && a.PasswordHash != "":
			fields.Add("password", "Set either password or password_hash, not both")
		case a.Password != "":
			for _, msg := range auth.PasswordPolicy(a.Password) {
				fields.Add("password", msg)
			}
		case a.PasswordHash != "":
			if err := auth.CheckDigest(a.PasswordHash); err != nil {
				fields.Add("password_hash", err.Error())
			}
		default:
			fields.Add("password", "One of password or password_hash is required")
		}

		if a.Role != "" && !auth.ValidRole(a.Role) {
			fields.Add("role", auth.RoleMessage())
		}

		if prev, dup := usernames[a.Username]; dup {
			fields.Add("username", "Duplicate of account "+strconv.Itoa(prev))
		}
		if prev, dup := emails[a.Email]; dup {
			fields.Add("email", "Duplicate of account "+strconv.Itoa(prev))
		}
		usernames[a.Username] = i
		emails[a.Email] = i

		if !fields.Empty() {
			return oops.Code("SEED_INVALID").
				With("account", i).
				With("username", a.Username).
				Wrap(auth.NewValidationError(fields))
		}
	}
	return nil
}

// AccountCreator provisions accounts. *auth.Engine implements it.
type AccountCreator interface {
	CreateAccount(ctx context.Context, in auth.NewAccountInput) (*auth.Account, error)
}

// UpgradeChecker reports digests hashed with weaker parameters than the
// current policy.
type UpgradeChecker interface {
	NeedsUpgrade(digest string) bool
}

// Result lists the usernames created and skipped by Apply.
type Result struct {
	Created []string
	Skipped []string
}

// Seeder applies seed files.
type Seeder struct {
	creator AccountCreator
	checker UpgradeChecker
	logger  *slog.Logger
}

// NewSeeder creates a Seeder. checker may be nil.
func NewSeeder(creator AccountCreator, checker UpgradeChecker, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{creator: creator, checker: checker, logger: logger}
}

// Apply creates every account in f, skipping those that already exist.
// It stops at the first other failure; accounts created before it remain.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}
	for _, a := range f.Accounts {
		if a.PasswordHash != "" && s.checker != nil && s.checker.NeedsUpgrade(a.PasswordHash) {
			s.logger.WarnContext(ctx, "seed password hash uses weaker parameters than the current policy",
				"username", a.Username)
		}

		_, err := s.creator.CreateAccount(ctx, auth.NewAccountInput{
			Username:      a.Username,
			Email:         a.Email,
			Password:      a.Password,
			PasswordHash:  a.PasswordHash,
			Role:          a.Role,
			Disabled:      a.Disabled,
			EmailVerified: a.EmailVerified,
		})
		switch {
		case err == nil:
			res.Created = append(res.Created, a.Username)
			s.logger.InfoContext(ctx, "seeded account", "username", a.Username)
		case auth.KindOf(err) == auth.KindDuplicateKey:
			field, _ := auth.DuplicateField(err)
			res.Skipped = append(res.Skipped, a.Username)
			s.logger.InfoContext(ctx, "account already exists, skipping", "username", a.Username, "field", field)
		default:
			return res, oops.Code("SEED_FAILED").With("username", a.Username).Wrap(err)
		}
	}
	return res, nil
}
