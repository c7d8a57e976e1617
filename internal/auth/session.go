// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenExpiry   = 24 * time.Hour
	SessionTokenType     = "bearer"
	MinSessionSecretSize = 32
	DefaultTokenIssuer   = "accountd"
)

// SessionToken is an issued, signed session credential.
type SessionToken struct {
	AccessToken string
	TokenType   string
	ID          string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	AccountID ulid.ULID
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionIssuer issues and decodes session tokens.
type SessionIssuer interface {
	Issue(accountID ulid.ULID) (*SessionToken, error)

	// Decode verifies token and returns its claims. Failures are classified
	// as KindTokenInvalid or KindTokenExpired.
	Decode(token string) (*SessionClaims, error)
}

// JWTIssuer implements SessionIssuer with HS256-signed JWTs.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTOption configures a JWTIssuer.
type JWTOption func(*JWTIssuer)

// WithTokenTTL overrides SessionTokenExpiry.
func WithTokenTTL(ttl time.Duration) JWTOption {
	return func(i *JWTIssuer) { i.ttl = ttl }
}

// WithTokenIssuer sets the iss claim written and required on decode.
func WithTokenIssuer(issuer string) JWTOption {
	return func(i *JWTIssuer) { i.issuer = issuer }
}

// WithTokenClock sets the time source used for iat, exp and validation.
func WithTokenClock(now func() time.Time) JWTOption {
	return func(i *JWTIssuer) { i.now = now }
}

// NewJWTIssuer creates a JWTIssuer signing with secret.
func NewJWTIssuer(secret []byte, opts ...JWTOption) (*JWTIssuer, error) {
	if len(secret) < MinSessionSecretSize {
		return nil, oops.Code("SESSION_SECRET_INVALID").
			With("min_bytes", MinSessionSecretSize).
			Errorf("session signing secret must be at least %d bytes", MinSessionSecretSize)
	}
	i := &JWTIssuer{
		secret: secret,
		issuer: DefaultTokenIssuer,
		ttl:    SessionTokenExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.ttl <= 0 {
		return nil, oops.Code("SESSION_TTL_INVALID").With("ttl", i.ttl).Errorf("session TTL must be positive")
	}
	return i, nil
}

// Issue signs a new session token for accountID.
func (i *JWTIssuer) Issue(accountID ulid.ULID) (*SessionToken, error) {
	// JWT timestamps have second precision.
	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(i.ttl)
	id := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   accountID.String(),
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, oops.Code("SESSION_TOKEN_SIGN_FAILED").
			With("account_id", accountID.String()).
			Wrap(err)
	}

	return &SessionToken{
		AccessToken: signed,
		TokenType:   SessionTokenType,
		ID:          id,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// Decode verifies the signature, issuer and expiry of token.
func (i *JWTIssuer) Decode(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, fail(CodeTokenInvalid, KindTokenInvalid, "session token cannot be empty")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fail(CodeTokenExpired, KindTokenExpired, "session token has expired")
		}
		return nil, oops.Code(CodeTokenInvalid).
			Wrap(&Error{Kind: KindTokenInvalid, msg: "invalid session token", err: err})
	}

	accountID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return nil, oops.Code(CodeTokenInvalid).
			Wrap(&Error{Kind: KindTokenInvalid, msg: "invalid session subject", err: err})
	}
	if claims.ID == "" || claims.IssuedAt == nil {
		return nil, fail(CodeTokenInvalid, KindTokenInvalid, "session token is missing required claims")
	}

	return &SessionClaims{
		AccountID: accountID,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

var _ SessionIssuer = (*JWTIssuer)(nil)
