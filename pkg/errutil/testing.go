// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertCode asserts that err is an oops error carrying the given code.
// Optional key/value pairs assert entries of the error's context map.
func AssertCode(t *testing.T, err error, code string, kv ...any) {
	t.Helper()
	require.Zero(t, len(kv)%2, "kv must be key/value pairs")

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())

	ctx := oopsErr.Context()
	for i := 0; i < len(kv); i += 2 {
		key, keyOK := kv[i].(string)
		require.True(t, keyOK, "context key at %d must be a string", i)
		assert.Contains(t, ctx, key)
		assert.Equal(t, kv[i+1], ctx[key])
	}
}
