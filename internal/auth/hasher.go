// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher derives and verifies salted password digests.
//
// Both operations are CPU- and memory-expensive; callers must not assume
// sub-millisecond latency. The context lets a caller abandon work it no
// longer needs.
type PasswordHasher interface {
	// Hash produces a self-describing argon2id digest of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// on a malformed digest. A malformed digest is never reported as a
	// plain mismatch.
	Verify(ctx context.Context, password, digest string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id.
//
// Digests use the PHC string format
// ($argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>), so verification reads every
// parameter from the digest itself rather than from configuration.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id digest with a fresh random salt.
func (h *Argon2idHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if err := ctx.Err(); err != nil {
		return "", oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	digest := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return digest, nil
}

// Verify recomputes the digest using the parameters embedded in it and
// compares in constant time.
func (h *Argon2idHasher) Verify(ctx context.Context, password, digest string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, oops.Code("AUTH_HASH_CANCELLED").Wrap(err)
	}

	salt, expected, params, err := parseDigest(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

// parseDigest splits a PHC-format argon2id string into salt, key, and cost
// parameters. Any structural problem yields an AUTH_INVALID_DIGEST error.
func parseDigest(digest string) ([]byte, []byte, argon2Params, error) {
	var params argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Errorf("invalid digest format")
	}
	if parts[1] != "argon2id" {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}

	// Threads must fit in uint8 to avoid silent truncation
	if threads > 255 {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Errorf("threads value %d exceeds uint8 max", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<30 {
		return nil, nil, params, oops.Code("AUTH_INVALID_DIGEST").Errorf("invalid digest key length: %d", len(key))
	}

	params.memory = memory
	params.time = time
	params.threads = uint8(threads)
	return salt, key, params, nil
}
