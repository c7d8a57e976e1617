// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// MsgUsernameReserved is reported for usernames matching a reserved pattern.
const MsgUsernameReserved = "Username is reserved"

// ReservedNames matches usernames that may not be registered, using glob
// patterns such as "admin*" or "{root,system}". Matching ignores case.
type ReservedNames struct {
	patterns []string
	globs    []glob.Glob
}

// NewReservedNames compiles patterns. An empty list reserves nothing.
func NewReservedNames(patterns []string) (*ReservedNames, error) {
	r := &ReservedNames{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, oops.Code("RESERVED_PATTERN_INVALID").With("pattern", p).Wrap(err)
		}
		r.patterns = append(r.patterns, p)
		r.globs = append(r.globs, g)
	}
	return r, nil
}

// Match returns the first pattern matching username.
func (r *ReservedNames) Match(username string) (string, bool) {
	if r == nil {
		return "", false
	}
	lower := strings.ToLower(username)
	for i, g := range r.globs {
		if g.Match(lower) {
			return r.patterns[i], true
		}
	}
	return "", false
}

// Check adds MsgUsernameReserved under field when username is reserved.
func (r *ReservedNames) Check(errs FieldErrors, field, username string) {
	if _, ok := r.Match(username); ok {
		errs.Add(field, MsgUsernameReserved)
	}
}
