// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package auth

import (
	"context"
	"fmt"
	"strings"
)

// InsecureVerifier accepts any non-empty bearer token and uses the token
// itself as the user ID. Development only: it performs no signature checks.
type InsecureVerifier struct{}

// NewInsecureVerifier returns a verifier for auth mode "none".
func NewInsecureVerifier() *InsecureVerifier {
	return &InsecureVerifier{}
}

// Verify treats the raw token as the uid. Tokens with path or whitespace
// characters are rejected so they stay usable as document IDs.
func (v *InsecureVerifier) Verify(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, "/ \t\n") {
		return Identity{}, fmt.Errorf("%w: unusable uid token", ErrInvalidToken)
	}
	return Identity{
		UID:  token,
		Name: token,
	}, nil
}
