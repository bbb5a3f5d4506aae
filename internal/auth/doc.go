// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

// Package auth provides the credential authentication core for Keycroft.
//
// # Domain Types
//
// User is the persisted account record. Request types (CreateUserRequest,
// LoginRequest, ChangePasswordRequest) carry transient plaintext credentials
// and validate themselves before any other work happens; plaintext is never
// stored or logged.
//
// # Services
//
// Service orchestrates registration, login, and password changes over three
// collaborators:
//   - UserRepository - durable storage keyed by unique username/email
//   - PasswordHasher - argon2id digest derivation and verification
//   - TokenIssuer - stateless signed bearer tokens
//
// The repository's unique indexes are the authority for uniqueness; the
// existence pre-check during registration only improves the common-case error
// and avoids wasted hashing work.
package auth
