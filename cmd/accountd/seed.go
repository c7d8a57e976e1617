// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/seed"
)

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Provision accounts from a YAML seed file",
		Long: `Create the accounts listed in a YAML seed file. Accounts whose
username or email already exists are skipped, so a seed file can be applied
repeatedly. Run "accountd seed schema" for the file's JSON Schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts, args[0], dryRun, nil)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without touching the database")

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the seed file JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := seed.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	return cmd
}

func runSeed(cmd *cobra.Command, opts *rootOptions, path string, dryRun bool, deps *AdminDeps) error {
	deps = deps.withDefaults()

	f, err := seed.Load(path)
	if err != nil {
		return err
	}
	if dryRun {
		cmd.Printf("Seed file is valid: %d account(s)\n", len(f.Accounts))
		return nil
	}

	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	admin, closeFn, err := deps.EngineOpener(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := seed.NewSeeder(admin, auth.NewArgon2idHasher(), logger).Apply(cmd.Context(), f)
	if res != nil {
		cmd.Printf("Created %d account(s), skipped %d existing\n", len(res.Created), len(res.Skipped))
	}
	return err
}
