// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Service orchestrates registration, login, and password changes.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

// NewService creates a Service. All collaborators are required.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) (*Service, error) {
	return NewServiceWithLogger(users, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("logger is required")
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}, nil
}

// dummyPasswordDigest is used when a user doesn't exist so login still runs a
// full verification and response time does not reveal whether the username is
// registered. It is not a real credential and matches no password.
//
//nolint:gosec // G101: intentionally fake digest for timing equalization, not a credential.
const dummyPasswordDigest = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Register creates a new account and issues its first token.
//
// The existence pre-check is advisory: it produces the friendly error and
// skips wasted hashing in the common case, but the unique indexes on insert
// remain the authority. A registration that loses the race between pre-check
// and insert still reports ErrAlreadyRegistered, not an internal failure.
func (s *Service) Register(ctx context.Context, req CreateUserRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	count, err := s.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, oops.Code("AUTH_PERSIST_FAILED").
			With("operation", "check user exists").
			Wrap(err)
	}
	if count > 0 {
		return nil, ErrAlreadyRegistered
	}

	digest, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			// Another registration committed between pre-check and insert.
			return nil, ErrAlreadyRegistered
		}
		return nil, oops.Code("AUTH_PERSIST_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	token, err := s.tokens.Issue(user.ID.String(), now)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))

	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a token.
//
// An unknown username and a wrong password produce the same
// ErrBadCredentials, and a dummy verification keeps the unknown-username path
// from returning measurably faster.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetByUsername(ctx, req.Username)

	targetDigest := dummyPasswordDigest
	userExists := false
	switch {
	case lookupErr == nil:
		targetDigest = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Fall through with the dummy digest.
	default:
		return nil, oops.Code("AUTH_PERSIST_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(ctx, req.Password, targetDigest)
	if verifyErr != nil {
		if !userExists {
			return nil, ErrBadCredentials
		}
		return nil, oops.Code("AUTH_HASH_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, ErrBadCredentials
	}

	now := time.Now().UTC()
	token, err := s.tokens.Issue(user.ID.String(), now)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))

	return &AuthResult{Token: token, User: user}, nil
}

// ChangePassword re-authenticates the user with the old password and replaces
// the stored digest with one derived from the new password.
func (s *Service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrBadCredentials
		}
		return oops.Code("AUTH_PERSIST_FAILED").
			With("operation", "get user by username").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(ctx, req.OldPassword, user.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}
	if !valid {
		return ErrBadCredentials
	}

	digest, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, digest); err != nil {
		return oops.Code("AUTH_PERSIST_FAILED").
			With("operation", "update password").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))

	return nil
}
