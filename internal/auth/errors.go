// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"sort"
	"strings"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Kind classifies a workflow failure. Transports map kinds to status codes.
type Kind string

// Failure kinds.
const (
	KindUnknown                  Kind = ""
	KindValidationFailed         Kind = "validation_failed"
	KindUsernameTaken            Kind = "username_taken"
	KindEmailTaken               Kind = "email_taken"
	KindDuplicateKey             Kind = "duplicate_key"
	KindInvalidCredentials       Kind = "invalid_credentials"
	KindAccountDisabled          Kind = "account_disabled"
	KindInvalidOrExpiredToken    Kind = "invalid_or_expired_token"
	KindInvalidVerificationToken Kind = "invalid_verification_token"
	KindAccountNotFound          Kind = "account_not_found"
	KindCurrentPasswordInvalid   Kind = "current_password_invalid"
	KindTokenInvalid             Kind = "token_invalid"
	KindTokenExpired             Kind = "token_expired"
	KindTokenRevoked             Kind = "token_revoked"
	KindStorageFailure           Kind = "storage_failure"
)

// Error codes attached to workflow failures.
const (
	CodeValidationFailed         = "AUTH_VALIDATION_FAILED"
	CodeUsernameTaken            = "AUTH_USERNAME_TAKEN"
	CodeEmailTaken               = "AUTH_EMAIL_TAKEN"
	CodeDuplicateKey             = "ACCOUNT_DUPLICATE_KEY"
	CodeInvalidCredentials       = "AUTH_INVALID_CREDENTIALS"
	CodeAccountDisabled          = "AUTH_ACCOUNT_DISABLED"
	CodeInvalidOrExpiredToken    = "RESET_TOKEN_INVALID"
	CodeInvalidVerificationToken = "VERIFICATION_TOKEN_INVALID"
	CodeAccountNotFound          = "ACCOUNT_NOT_FOUND"
	CodeCurrentPasswordInvalid   = "AUTH_CURRENT_PASSWORD_INVALID"
	CodeTokenInvalid             = "SESSION_TOKEN_INVALID"
	CodeTokenExpired             = "SESSION_TOKEN_EXPIRED"
	CodeTokenRevoked             = "SESSION_TOKEN_REVOKED"
	CodeStorageFailure           = "AUTH_STORAGE_FAILURE"
)

// Error is a classified failure. It is usually wrapped in an oops error
// carrying a code and context; use KindOf to classify.
type Error struct {
	Kind Kind
	// Field names the offending unique column for KindDuplicateKey.
	Field string
	// Fields holds per-field messages for KindValidationFailed.
	Fields FieldErrors
	msg    string
	err    error
}

func (e *Error) Error() string {
	switch {
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.err }

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// DuplicateField returns the unique field named by a duplicate key failure.
func DuplicateField(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindDuplicateKey {
		return e.Field, true
	}
	return "", false
}

// ValidationFields returns the field messages carried by a validation failure.
func ValidationFields(err error) (FieldErrors, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindValidationFailed {
		return e.Fields, true
	}
	return nil, false
}

// fail builds a classified error with the given code.
func fail(code string, kind Kind, msg string) error {
	return oops.Code(code).Wrap(&Error{Kind: kind, msg: msg})
}

// NewDuplicateKeyError reports a unique constraint violation on field.
func NewDuplicateKeyError(field string, cause error) error {
	return oops.Code(CodeDuplicateKey).
		With("field", field).
		Wrap(&Error{Kind: KindDuplicateKey, Field: field, msg: field + " already exists", err: cause})
}

// NewValidationError wraps field messages as a validation failure.
func NewValidationError(fields FieldErrors) error {
	return oops.Code(CodeValidationFailed).
		With("fields", fields.Keys()).
		Wrap(&Error{Kind: KindValidationFailed, Fields: fields, msg: "validation failed"})
}

// storageFailure wraps an unexpected persistence error.
func storageFailure(operation string, cause error) error {
	return oops.Code(CodeStorageFailure).
		With("operation", operation).
		Wrap(&Error{Kind: KindStorageFailure, msg: operation, err: cause})
}

// FieldErrors maps an input field to its validation messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Merge copies every message from other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		f[field] = append(f[field], msgs...)
	}
}

// Empty reports whether no messages were recorded.
func (f FieldErrors) Empty() bool { return len(f) == 0 }

// Keys returns the sorted field names.
func (f FieldErrors) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the messages as "field: msg; ..." for logs and CLI output.
func (f FieldErrors) String() string {
	parts := make([]string, 0, len(f))
	for _, k := range f.Keys() {
		parts = append(parts, k+": "+strings.Join(f[k], ", "))
	}
	return strings.Join(parts, "; ")
}
