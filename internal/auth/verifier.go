// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package auth resolves bearer tokens into user records. Verification
// sits behind the TokenVerifier interface so deployments can swap the
// HS256 verifier for an external identity provider without touching the
// request path.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification.
// The cause is deliberately not exposed to callers.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified identity carried by a token.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// TokenVerifier verifies a bearer token and extracts the identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// idClaims are the claims Archivus reads from an ID token. The subject
// is the user id.
type idClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256-signed ID tokens.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier over a shared secret. The secret
// must be at least 32 characters.
func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

// Verify checks the signature, algorithm, and time claims, and returns
// the embedded identity.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &idClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*idClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{UID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// Mint issues a signed token for the given identity. Used by tests and
// development deployments; production tokens come from the identity
// provider that shares the secret.
func (v *JWTVerifier) Mint(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &idClaims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
