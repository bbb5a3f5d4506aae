// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
//
// PasswordHash is never serialized outward; the json tag enforces that for
// every response body that embeds a User.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AuthResult is the success payload of registration and login.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UserRepository manages user persistence.
//
// Username and email are each globally unique; implementations must report a
// violated unique constraint from Create as ErrAlreadyRegistered so the
// orchestrator can distinguish a lost registration race from a real failure.
type UserRepository interface {
	// Create stores a new user as a single atomic insert.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by username.
	// Returns ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// ExistsByUsernameOrEmail counts users matching the username or email.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (int64, error)

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
