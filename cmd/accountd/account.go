// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/holomush/accountd/internal/auth"
)

// createOptions holds the account create flags.
type createOptions struct {
	username string
	email    string
	role     string
	verified bool
	disabled bool
}

// NewAccountCmd creates the account subcommand.
func NewAccountCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Administer accounts",
	}

	create := &createOptions{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: `Create an account without the self-registration checks on reserved
usernames. The password is read from the terminal, or from the first two
lines of standard input when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAccountCreate(cmd, opts, create, nil)
		},
	}
	createCmd.Flags().StringVar(&create.username, "username", "", "account username")
	createCmd.Flags().StringVar(&create.email, "email", "", "account email address")
	createCmd.Flags().StringVar(&create.role, "role", auth.DefaultRole, "account role ("+strings.Join(auth.Roles, " or ")+")")
	createCmd.Flags().BoolVar(&create.verified, "verified", false, "mark the email address as verified")
	createCmd.Flags().BoolVar(&create.disabled, "disabled", false, "create the account disabled")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "disable <username>",
		Short: "Prevent an account from logging in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetActive(cmd, opts, args[0], false, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "enable <username>",
		Short: "Allow a disabled account to log in again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetActive(cmd, opts, args[0], true, nil)
		},
	})

	return cmd
}

// validate checks the flags and passwords before anything touches the
// database.
func (o *createOptions) validate(password, confirm string) error {
	fields := auth.ValidateProfileUpdate(auth.ProfileUpdate{Username: &o.username, Email: &o.email})
	if password == "" {
		fields.Add("password", auth.MsgRequired)
	} else {
		for _, msg := range auth.PasswordPolicy(password) {
			fields.Add("password", msg)
		}
	}
	if password != confirm {
		fields.Add("confirm_password", auth.MsgPasswordsMismatch)
	}
	if !auth.ValidRole(o.role) {
		fields.Add("role", auth.RoleMessage())
	}
	if fields.Empty() {
		return nil
	}
	return oops.Code("ACCOUNT_INVALID").
		With("username", o.username).
		Wrap(auth.NewValidationError(fields))
}

func runAccountCreate(cmd *cobra.Command, opts *rootOptions, create *createOptions, deps *AdminDeps) error {
	deps = deps.withDefaults()

	password, err := deps.PasswordReader("Password: ")
	if err != nil {
		return err
	}
	confirm, err := deps.PasswordReader("Confirm password: ")
	if err != nil {
		return err
	}
	if err := create.validate(password, confirm); err != nil {
		if fields, ok := auth.ValidationFields(err); ok {
			cmd.PrintErrln("Invalid account: " + fields.String())
		}
		return err
	}

	admin, closeFn, err := openAdmin(cmd, opts, deps)
	if err != nil {
		return err
	}
	defer closeFn()

	account, err := admin.CreateAccount(cmd.Context(), auth.NewAccountInput{
		Username:      create.username,
		Email:         create.email,
		Password:      password,
		Role:          create.role,
		Disabled:      create.disabled,
		EmailVerified: create.verified,
	})
	if err != nil {
		if field, ok := auth.DuplicateField(err); ok {
			cmd.PrintErrf("An account with that %s already exists\n", field)
		}
		return err
	}

	cmd.Printf("Created account %s (%s)\n", account.Username, account.ID)
	return nil
}

func runSetActive(cmd *cobra.Command, opts *rootOptions, username string, active bool, deps *AdminDeps) error {
	deps = deps.withDefaults()

	admin, closeFn, err := openAdmin(cmd, opts, deps)
	if err != nil {
		return err
	}
	defer closeFn()

	account, err := admin.SetActive(cmd.Context(), username, active)
	if err != nil {
		return err
	}
	state := "disabled"
	if account.IsActive {
		state = "enabled"
	}
	cmd.Printf("Account %s is %s\n", account.Username, state)
	return nil
}

func openAdmin(cmd *cobra.Command, opts *rootOptions, deps *AdminDeps) (AccountAdmin, func(), error) {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if _, err := setupLogging(cfg); err != nil {
		return nil, nil, err
	}
	return deps.EngineOpener(cmd.Context(), cfg)
}

var (
	stdinOnce   sync.Once
	stdinReader *bufio.Reader
)

// readPassword prompts on stderr and reads a password from the terminal
// without echo. Piped input is read one line at a time.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return string(raw), nil
	}

	stdinOnce.Do(func() { stdinReader = bufio.NewReader(os.Stdin) })
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
