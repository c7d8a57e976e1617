// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/config"
	"github.com/holomush/accountd/internal/logging"
	"github.com/holomush/accountd/internal/xdg"
)

// rootOptions holds the global flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

// NewRootCmd creates the root command for the accountd CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "accountd",
		Short: "accountd - account registration and authentication service",
		Long: `accountd registers accounts, issues session tokens and runs the
password reset, password change, email verification and profile workflows
over a JSON API backed by PostgreSQL.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (YAML, default: XDG_CONFIG_HOME/accountd/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewSeedCmd(opts))
	cmd.AddCommand(NewAccountCmd(opts))

	return cmd
}

// loadConfig reads the configuration for cmd, whose flag set includes the
// inherited persistent flags once cobra has parsed them. Without --config
// the XDG config file is used when present.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := o.configFile
	if path == "" {
		if found, ok := xdg.FindConfigFile(); ok {
			path = found
		}
	}
	return config.Load(path, cmd.Flags())
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	return logging.SetDefault(cfg.LoggingOptions(serviceName, version))
}
