// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// Single-use token configuration.
const (
	OpaqueTokenBytes = 32        // 32 bytes = 43 URL-safe chars
	ResetTokenExpiry = time.Hour // reset tokens only; verification tokens do not expire
)

// GenerateOpaqueToken creates a URL-safe random token and its SHA-256 digest.
// The plaintext is handed to the account holder; only the digest is stored.
func GenerateOpaqueToken() (token, digest string, err error) {
	raw := make([]byte, OpaqueTokenBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", "", oops.Code("TOKEN_GENERATE_FAILED").Wrap(err)
	}

	token = base64.RawURLEncoding.EncodeToString(raw)
	return token, HashOpaqueToken(token), nil
}

// HashOpaqueToken computes the stored digest of a single-use token.
func HashOpaqueToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
