// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// DefaultHashConcurrency caps simultaneous argon2 operations. Each operation
// holds 64 MB, so the cap bounds memory pressure under a registration flood.
const DefaultHashConcurrency = 8

// BoundedHasher wraps a PasswordHasher with a weighted semaphore so a burst
// of requests cannot run an unbounded number of argon2 computations at once.
//
// Acquisition honors context cancellation: a caller that disconnects while
// queued never starts the hash at all.
type BoundedHasher struct {
	hasher PasswordHasher
	sem    *semaphore.Weighted
}

// NewBoundedHasher creates a BoundedHasher admitting at most limit concurrent
// operations. A non-positive limit falls back to DefaultHashConcurrency.
func NewBoundedHasher(hasher PasswordHasher, limit int64) *BoundedHasher {
	if limit <= 0 {
		limit = DefaultHashConcurrency
	}
	return &BoundedHasher{
		hasher: hasher,
		sem:    semaphore.NewWeighted(limit),
	}
}

// Hash waits for an execution slot, then delegates to the wrapped hasher.
func (b *BoundedHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	defer b.sem.Release(1)

	return b.hasher.Hash(ctx, password)
}

// Verify waits for an execution slot, then delegates to the wrapped hasher.
func (b *BoundedHasher) Verify(ctx context.Context, password, digest string) (bool, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}
	defer b.sem.Release(1)

	return b.hasher.Verify(ctx, password, digest)
}
