// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// TokenTTL is the validity window of issued bearer tokens.
const TokenTTL = 4 * time.Hour

// TokenIssuer builds and signs bearer tokens.
//
// Issuance is stateless: no registry, no revocation list. Validity is purely
// a function of signature and expiry.
type TokenIssuer interface {
	// Issue returns a signed token for the subject, valid from now until
	// now + TokenTTL.
	Issue(subject string, now time.Time) (string, error)
}

// JWTIssuer implements TokenIssuer with HS256-signed JWTs.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTIssuer creates a JWTIssuer signing with the given symmetric secret.
// The secret is immutable after construction and safe for concurrent reads.
func NewJWTIssuer(secret []byte) (*JWTIssuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("AUTH_SECRET_MISSING").Errorf("token signing secret is required")
	}
	return &JWTIssuer{secret: secret, ttl: TokenTTL}, nil
}

// Issue signs claims {sub, iat, exp} for the subject.
func (i *JWTIssuer) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}
