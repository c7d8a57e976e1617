// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/pkg/errutil"
)

func TestRunAccountCreate(t *testing.T) {
	admin := &fakeAdmin{}
	deps, closed := adminDeps(admin, "Adm1n!pass", "Adm1n!pass")
	cmd, out, _ := newFlagCmd(t, "--database-url", "postgres://db/accounts", "--log-level", "error")
	create := &createOptions{username: "admin", email: "admin@example.com", role: "admin", verified: true}

	require.NoError(t, runAccountCreate(cmd, &rootOptions{}, create, deps))

	require.Len(t, admin.created, 1)
	assert.Equal(t, auth.NewAccountInput{
		Username: "admin", Email: "admin@example.com", Password: "Adm1n!pass",
		Role: "admin", EmailVerified: true,
	}, admin.created[0])
	assert.Contains(t, out.String(), "Created account admin (")
	assert.True(t, *closed)
}

func TestRunAccountCreate_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		create    createOptions
		passwords []string
		field     string
	}{
		{
			name:      "short username",
			create:    createOptions{username: "ab", email: "a@example.com", role: "user"},
			passwords: []string{"Abcdef1!", "Abcdef1!"},
			field:     "username",
		},
		{
			name:      "bad email",
			create:    createOptions{username: "alice", email: "not-an-email", role: "user"},
			passwords: []string{"Abcdef1!", "Abcdef1!"},
			field:     "email",
		},
		{
			name:      "weak password",
			create:    createOptions{username: "alice", email: "a@example.com", role: "user"},
			passwords: []string{"abc", "abc"},
			field:     "password",
		},
		{
			name:      "empty password",
			create:    createOptions{username: "alice", email: "a@example.com", role: "user"},
			passwords: []string{"", ""},
			field:     "password",
		},
		{
			name:      "mismatched confirmation",
			create:    createOptions{username: "alice", email: "a@example.com", role: "user"},
			passwords: []string{"Abcdef1!", "Abcdef2!"},
			field:     "confirm_password",
		},
		{
			name:      "unknown role",
			create:    createOptions{username: "alice", email: "a@example.com", role: "root"},
			passwords: []string{"Abcdef1!", "Abcdef1!"},
			field:     "role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := &fakeAdmin{}
			deps, _ := adminDeps(admin, tt.passwords...)
			cmd, _, errOut := newFlagCmd(t, "--database-url", "postgres://db/accounts")

			err := runAccountCreate(cmd, &rootOptions{}, &tt.create, deps)
			require.Error(t, err)
			assert.Equal(t, auth.KindValidationFailed, auth.KindOf(err))
			errutil.AssertErrorContext(t, err, "username", tt.create.username)
			fields, ok := auth.ValidationFields(err)
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
			assert.Contains(t, errOut.String(), "Invalid account: ")
			assert.Empty(t, admin.created)
		})
	}
}

func TestRunAccountCreate_Duplicate(t *testing.T) {
	admin := &fakeAdmin{createErr: auth.NewDuplicateKeyError("email", errors.New("unique violation"))}
	deps, _ := adminDeps(admin, "Abcdef1!", "Abcdef1!")
	cmd, _, errOut := newFlagCmd(t, "--database-url", "postgres://db/accounts", "--log-level", "error")
	create := &createOptions{username: "alice", email: "a@example.com", role: "user"}

	err := runAccountCreate(cmd, &rootOptions{}, create, deps)
	require.Error(t, err)
	assert.Equal(t, auth.KindDuplicateKey, auth.KindOf(err))
	assert.Contains(t, errOut.String(), "An account with that email already exists")
}

func TestRunSetActive(t *testing.T) {
	for _, active := range []bool{false, true} {
		admin := &fakeAdmin{}
		deps, closed := adminDeps(admin)
		cmd, out, _ := newFlagCmd(t, "--database-url", "postgres://db/accounts", "--log-level", "error")

		require.NoError(t, runSetActive(cmd, &rootOptions{}, "alice", active, deps))
		assert.Equal(t, map[string]bool{"alice": active}, admin.setActive)
		assert.True(t, *closed)
		if active {
			assert.Contains(t, out.String(), "Account alice is enabled")
		} else {
			assert.Contains(t, out.String(), "Account alice is disabled")
		}
	}
}

func TestRunSetActive_NotFound(t *testing.T) {
	admin := &fakeAdmin{setErr: errors.New("account not found")}
	deps, _ := adminDeps(admin)
	cmd, _, _ := newFlagCmd(t, "--database-url", "postgres://db/accounts", "--log-level", "error")

	require.Error(t, runSetActive(cmd, &rootOptions{}, "ghost", false, deps))
}

func TestAccountCmd_Flags(t *testing.T) {
	cmd := NewAccountCmd(&rootOptions{})
	create, _, err := cmd.Find([]string{"create"})
	require.NoError(t, err)

	role, err := create.Flags().GetString("role")
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultRole, role)
	for _, name := range []string{"username", "email", "verified", "disabled"} {
		assert.NotNil(t, create.Flags().Lookup(name), name)
	}
}
