// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keycroft/keycroft/internal/auth"
	"github.com/keycroft/keycroft/internal/auth/postgres"
)

func cleanupUser(t *testing.T, id uuid.UUID) {
	t.Cleanup(func() {
		_, _ = testPool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id.String())
	})
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &auth.User{
		ID:           uuid.New(),
		Username:     "roundtrip_user",
		Email:        "roundtrip@email.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$salt$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	require.NoError(t, repo.Create(ctx, user))
	cleanupUser(t, user.ID)

	stored, err := repo.GetByUsername(ctx, "roundtrip_user")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Equal(t, user.Email, stored.Email)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	count, err := repo.ExistsByUsernameOrEmail(ctx, "roundtrip_user", "other@email.com")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUserRepositoryUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := &auth.User{
		ID:           uuid.New(),
		Username:     "unique_user",
		Email:        "unique@email.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, first))
	cleanupUser(t, first.ID)

	t.Run("duplicate username", func(t *testing.T) {
		dup := &auth.User{
			ID:           uuid.New(),
			Username:     "unique_user",
			Email:        "other@email.com",
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, auth.ErrAlreadyRegistered)
	})

	t.Run("duplicate email", func(t *testing.T) {
		dup := &auth.User{
			ID:           uuid.New(),
			Username:     "other_user_name",
			Email:        "unique@email.com",
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, auth.ErrAlreadyRegistered)
	})
}
