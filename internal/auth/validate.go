// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"regexp"
	"unicode/utf8"
)

// Username and password constraints. Lengths are counted in characters,
// not bytes.
const (
	MinUsernameLength = 6
	MaxUsernameLength = 25
	MinPasswordLength = 6
)

// Reason codes reported in FieldErrors.
const (
	ReasonInvalidLength = "invalid length"
	ReasonInvalidEmail  = "invalid email"
	ReasonRequired      = "required"
)

// emailRegex accepts addresses of the common local@domain.tld shape. It is a
// structural check, not an RFC 5322 parser; deliverability is not verified.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CreateUserRequest carries registration input. Password is plaintext and
// transient; it must not outlive the request.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks all structural constraints and reports every failing field.
// Returns nil when the request is valid.
func (r CreateUserRequest) Validate() error {
	fields := FieldErrors{}
	if n := utf8.RuneCountInString(r.Username); n < MinUsernameLength || n > MaxUsernameLength {
		fields["username"] = ReasonInvalidLength
	}
	if !emailRegex.MatchString(r.Email) {
		fields["email"] = ReasonInvalidEmail
	}
	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		fields["password"] = ReasonInvalidLength
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// LoginRequest carries login input.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks presence only. Login input is not validated for shape;
// anything beyond non-empty fields is settled by the credential check itself.
func (r LoginRequest) Validate() error {
	fields := FieldErrors{}
	if r.Username == "" {
		fields["username"] = ReasonRequired
	}
	if r.Password == "" {
		fields["password"] = ReasonRequired
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// ChangePasswordRequest carries a password change. The old password
// re-authenticates the user; the new one must meet registration constraints.
type ChangePasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Validate checks presence of the credentials and shape of the new password.
func (r ChangePasswordRequest) Validate() error {
	fields := FieldErrors{}
	if r.Username == "" {
		fields["username"] = ReasonRequired
	}
	if r.OldPassword == "" {
		fields["oldPassword"] = ReasonRequired
	}
	if utf8.RuneCountInString(r.NewPassword) < MinPasswordLength {
		fields["newPassword"] = ReasonInvalidLength
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}
