// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Username and password constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MaxEmailLength    = 254
	MinPasswordLength = 8
	PasswordSpecials  = `!@#$%^&*(),.?":{}|<>`
)

// Validation messages.
const (
	MsgRequired          = "Missing data for required field."
	MsgUsernameTooShort  = "Username must be at least 3 characters long"
	MsgUsernameTooLong   = "Username must be less than 80 characters"
	MsgInvalidEmail      = "Not a valid email address."
	MsgPasswordTooShort  = "Password must be at least 8 characters long"
	MsgPasswordNoDigit   = "Password must contain at least one number"
	MsgPasswordNoUpper   = "Password must contain at least one uppercase letter"
	MsgPasswordNoLower   = "Password must contain at least one lowercase letter"
	MsgPasswordsMismatch = "Passwords must match"
)

// MsgPasswordNoSpecial is reported when no character from PasswordSpecials is present.
var MsgPasswordNoSpecial = fmt.Sprintf("Password must contain at least one special character (%s)", PasswordSpecials)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResetRequestInput asks for a password reset token.
type ResetRequestInput struct {
	Email string `json:"email"`
}

// ResetConfirmInput consumes a password reset token.
type ResetConfirmInput struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePasswordInput replaces the password of an authenticated account.
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// VerifyEmailInput consumes an email verification token.
type VerifyEmailInput struct {
	Token string `json:"token"`
}

// ProfileUpdate holds the mutable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Username == nil && p.Email == nil
}

// ValidateRegister checks a registration payload.
func ValidateRegister(in RegisterInput) FieldErrors {
	errs := FieldErrors{}
	validateUsername(errs, "username", in.Username)
	validateEmail(errs, "email", in.Email)
	validatePassword(errs, "password", in.Password)
	validateConfirmation(errs, in.Password, in.ConfirmPassword)
	return errs
}

// ValidateLogin checks that both credentials are present. Credential
// policy is not applied to logins.
func ValidateLogin(in LoginInput) FieldErrors {
	errs := FieldErrors{}
	required(errs, "username", in.Username)
	required(errs, "password", in.Password)
	return errs
}

// ValidateResetRequest checks a reset request payload.
func ValidateResetRequest(in ResetRequestInput) FieldErrors {
	errs := FieldErrors{}
	validateEmail(errs, "email", in.Email)
	return errs
}

// ValidateResetConfirm checks a reset confirmation payload.
func ValidateResetConfirm(in ResetConfirmInput) FieldErrors {
	errs := FieldErrors{}
	required(errs, "token", in.Token)
	validatePassword(errs, "new_password", in.NewPassword)
	validateConfirmation(errs, in.NewPassword, in.ConfirmPassword)
	return errs
}

// ValidateChangePassword checks a change password payload.
func ValidateChangePassword(in ChangePasswordInput) FieldErrors {
	errs := FieldErrors{}
	required(errs, "current_password", in.CurrentPassword)
	validatePassword(errs, "new_password", in.NewPassword)
	validateConfirmation(errs, in.NewPassword, in.ConfirmPassword)
	return errs
}

// ValidateVerifyEmail checks a verification payload.
func ValidateVerifyEmail(in VerifyEmailInput) FieldErrors {
	errs := FieldErrors{}
	required(errs, "token", in.Token)
	return errs
}

// ValidateProfileUpdate checks the fields present in a profile update.
func ValidateProfileUpdate(in ProfileUpdate) FieldErrors {
	errs := FieldErrors{}
	if in.Username != nil {
		validateUsername(errs, "username", *in.Username)
	}
	if in.Email != nil {
		validateEmail(errs, "email", *in.Email)
	}
	return errs
}

// PasswordPolicy returns the policy violations of password, in a stable order.
func PasswordPolicy(password string) []string {
	var msgs []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		msgs = append(msgs, MsgPasswordTooShort)
	}

	var digit, upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
		if strings.ContainsRune(PasswordSpecials, r) {
			special = true
		}
	}
	if !digit {
		msgs = append(msgs, MsgPasswordNoDigit)
	}
	if !upper {
		msgs = append(msgs, MsgPasswordNoUpper)
	}
	if !lower {
		msgs = append(msgs, MsgPasswordNoLower)
	}
	if !special {
		msgs = append(msgs, MsgPasswordNoSpecial)
	}
	return msgs
}

func required(errs FieldErrors, field, value string) bool {
	if value == "" {
		errs.Add(field, MsgRequired)
		return false
	}
	return true
}

func validateUsername(errs FieldErrors, field, username string) {
	if !required(errs, field, username) {
		return
	}
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		errs.Add(field, MsgUsernameTooShort)
	}
	if n > MaxUsernameLength {
		errs.Add(field, MsgUsernameTooLong)
	}
}

func validateEmail(errs FieldErrors, field, email string) {
	if !required(errs, field, email) {
		return
	}
	if !validEmail(email) {
		errs.Add(field, MsgInvalidEmail)
	}
}

func validatePassword(errs FieldErrors, field, password string) {
	if !required(errs, field, password) {
		return
	}
	for _, msg := range PasswordPolicy(password) {
		errs.Add(field, msg)
	}
}

func validateConfirmation(errs FieldErrors, password, confirm string) {
	if !required(errs, "confirm_password", confirm) {
		return
	}
	if password != "" && password != confirm {
		errs.Add("confirm_password", MsgPasswordsMismatch)
	}
}

// validEmail accepts a bare addr-spec with a non-empty local part and domain.
func validEmail(email string) bool {
	if len(email) > MaxEmailLength || strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".") && !strings.Contains(domain, "..")
}
