// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors form the closed, externally mappable failure set. Internal
// failures (hashing, persistence, token signing) are wrapped with oops codes
// and deliberately do not match any of these.
var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyRegistered is returned when the username or email is taken,
	// whether caught by the pre-check or by the unique index on insert.
	ErrAlreadyRegistered = errors.New("user already registered")

	// ErrBadCredentials is returned on any username/password mismatch.
	ErrBadCredentials = errors.New("bad credentials")
)

// FieldErrors maps field names to reason codes, e.g. "invalid length".
// All failing fields are reported together.
type FieldErrors map[string]string

// Error returns a deterministic summary of the failing fields.
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("error validating fields")
	for _, field := range fields {
		fmt.Fprintf(&b, "; %s: %s", field, f[field])
	}
	return b.String()
}
