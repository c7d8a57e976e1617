// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package response turns workflow results and failures into the JSON
// bodies and status codes of the account API.
package response

import (
	"net/http"
	"time"

	"github.com/holomush/accountd/internal/auth"
)

// Field key for messages not tied to an input field.
const GeneralField = "_error"

// Success messages.
const (
	MsgRegistered       = "Registration successful"
	MsgLoggedIn         = "Login successful"
	MsgResetRequested   = "If email exists, reset instructions will be sent"
	MsgPasswordReset    = "Password successfully reset"
	MsgPasswordChanged  = "Password successfully changed"
	MsgEmailVerified    = "Email successfully verified"
	MsgProfileRetrieved = "Profile retrieved"
	MsgProfileUpdated   = "Profile updated successfully"
	MsgLoggedOut        = "Logout successful"
)

// Failure messages.
const (
	MsgValidation             = "Validation error"
	MsgInvalidResetToken      = "Invalid or expired reset token"
	MsgInvalidVerification    = "Invalid verification token"
	MsgUserNotFound           = "User not found"
	MsgCurrentPasswordInvalid = "Current password is incorrect"
	MsgInvalidToken           = "Invalid token"
	MsgTokenExpired           = "Token has expired"
	MsgTokenRevoked           = "Token has been revoked"
	MsgMissingToken           = "Missing authorization token"
	MsgInternal               = "Internal server error"
)

// failureMessages is the top-level message of a failed operation.
var failureMessages = map[string]string{
	auth.OpRegister:             "Registration failed",
	auth.OpLogin:                "Login failed",
	auth.OpRequestPasswordReset: "Failed to process reset request",
	auth.OpConfirmPasswordReset: "Failed to reset password",
	auth.OpChangePassword:       "Failed to change password",
	auth.OpVerifyEmail:          "Failed to verify email",
	auth.OpUpdateProfile:        "Failed to update profile",
	auth.OpGetProfile:           "Failed to retrieve profile",
	auth.OpLogout:               "Failed to log out",
	auth.OpAuthenticate:         "Authentication failed",
}

// Token is the session credential returned on register and login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the public view of an account.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	CreatedAt     string `json:"created_at"`
	IsActive      bool   `json:"is_active"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Result is a response body plus its status code.
type Result struct {
	Status  int              `json:"-"`
	Message string           `json:"message"`
	Token   *Token           `json:"token,omitempty"`
	User    *User            `json:"user,omitempty"`
	Errors  auth.FieldErrors `json:"errors,omitempty"`
}

// NewUser builds the public view of account. Credentials and token digests
// are never included.
func NewUser(account *auth.Account) *User {
	if account == nil {
		return nil
	}
	return &User{
		ID:            account.ID.String(),
		Username:      account.Username,
		Email:         account.Email,
		CreatedAt:     account.CreatedAt.UTC().Format(time.RFC3339),
		IsActive:      account.IsActive,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
	}
}

func newToken(session *auth.SessionToken) *Token {
	if session == nil {
		return nil
	}
	return &Token{AccessToken: session.AccessToken, TokenType: auth.SessionTokenType}
}

func authenticated(status int, msg string, res *auth.AuthResult) Result {
	r := Result{Status: status, Message: msg}
	if res != nil {
		r.Token = newToken(res.Session)
		r.User = NewUser(res.Account)
	}
	return r
}

// Registered is the body of a successful registration.
func Registered(res *auth.AuthResult) Result {
	return authenticated(http.StatusCreated, MsgRegistered, res)
}

// LoggedIn is the body of a successful login.
func LoggedIn(res *auth.AuthResult) Result {
	return authenticated(http.StatusOK, MsgLoggedIn, res)
}

// Profile carries an account with msg.
func Profile(msg string, account *auth.Account) Result {
	return Result{Status: http.StatusOK, Message: msg, User: NewUser(account)}
}

// OK is a message-only success.
func OK(msg string) Result {
	return Result{Status: http.StatusOK, Message: msg}
}

// ValidationFailed reports per-field input errors.
func ValidationFailed(fields auth.FieldErrors) Result {
	return Result{Status: http.StatusBadRequest, Message: MsgValidation, Errors: fields}
}

// Unauthorized is the body returned for a missing or rejected session token.
func Unauthorized(msg string) Result {
	return Result{Status: http.StatusUnauthorized, Message: msg}
}

// Failure maps a workflow error of operation op to its response. Failures
// outside the typed outcome set become a 500 with a generic message; the
// cause is left to the caller's log.
func Failure(op string, err error) Result {
	opMsg, ok := failureMessages[op]
	if !ok {
		opMsg = MsgInternal
	}
	single := func(field, msg string) auth.FieldErrors {
		return auth.FieldErrors{field: {msg}}
	}

	switch auth.KindOf(err) {
	case auth.KindValidationFailed:
		fields, _ := auth.ValidationFields(err)
		return ValidationFailed(fields)
	case auth.KindUsernameTaken:
		return Result{Status: http.StatusBadRequest, Message: opMsg, Errors: single("username", "Username already exists")}
	case auth.KindEmailTaken:
		return Result{Status: http.StatusBadRequest, Message: opMsg, Errors: single("email", "Email already exists")}
	case auth.KindDuplicateKey:
		field, _ := auth.DuplicateField(err)
		return Result{Status: http.StatusBadRequest, Message: opMsg, Errors: duplicateErrors(field)}
	case auth.KindInvalidCredentials:
		return Result{Status: http.StatusUnauthorized, Message: opMsg, Errors: single(GeneralField, "Invalid username or password")}
	case auth.KindAccountDisabled:
		return Result{Status: http.StatusUnauthorized, Message: opMsg, Errors: single(GeneralField, "Account is disabled")}
	case auth.KindInvalidOrExpiredToken:
		return Result{Status: http.StatusBadRequest, Message: MsgInvalidResetToken, Errors: single("token", "Invalid or expired token")}
	case auth.KindInvalidVerificationToken:
		return Result{Status: http.StatusBadRequest, Message: MsgInvalidVerification}
	case auth.KindAccountNotFound:
		return Result{Status: http.StatusNotFound, Message: MsgUserNotFound}
	case auth.KindCurrentPasswordInvalid:
		return Result{Status: http.StatusBadRequest, Message: MsgCurrentPasswordInvalid, Errors: single("current_password", "Invalid password")}
	case auth.KindTokenInvalid:
		return Unauthorized(MsgInvalidToken)
	case auth.KindTokenExpired:
		return Unauthorized(MsgTokenExpired)
	case auth.KindTokenRevoked:
		return Unauthorized(MsgTokenRevoked)
	default:
		return Result{Status: http.StatusInternalServerError, Message: opMsg, Errors: single(GeneralField, MsgInternal)}
	}
}

func duplicateErrors(field string) auth.FieldErrors {
	switch field {
	case "username":
		return auth.FieldErrors{"username": {"Username already exists"}}
	case "email":
		return auth.FieldErrors{"email": {"Email already exists"}}
	default:
		return auth.FieldErrors{GeneralField: {"Account already exists"}}
	}
}

// Internal reports whether r hides an unexpected failure.
func (r Result) Internal() bool {
	return r.Status >= http.StatusInternalServerError
}
