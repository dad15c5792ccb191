// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package config

import (
	"fmt"
)

// minJWTSecretLength is the minimum acceptable JWT secret length.
const minJWTSecretLength = 32

// Validate checks the configuration for invalid or unsafe combinations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Auth.Mode {
	case "jwt":
		if len(c.Auth.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("auth.jwt_secret must be at least %d characters when auth.mode=jwt", minJWTSecretLength)
		}
	case "none":
		if !c.IsDevelopment() {
			return fmt.Errorf("auth.mode=none is not allowed in production")
		}
	default:
		return fmt.Errorf("auth.mode must be 'jwt' or 'none', got %q", c.Auth.Mode)
	}

	if c.Store.Path == "" && !c.Store.InMemory {
		return fmt.Errorf("store.path is required unless store.in_memory=true")
	}

	if c.Vector.Dimension <= 0 {
		return fmt.Errorf("vector.dimension must be positive, got %d", c.Vector.Dimension)
	}

	if c.Analytics.SampleLimit <= 0 {
		return fmt.Errorf("analytics.sample_limit must be positive, got %d", c.Analytics.SampleLimit)
	}
	if c.Analytics.MinConfidence < 0 || c.Analytics.MinConfidence > 1 {
		return fmt.Errorf("analytics.min_confidence must be in [0,1], got %g", c.Analytics.MinConfidence)
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}

	if c.Cache.SearchMaxEntries <= 0 || c.Cache.AuthMaxEntries <= 0 {
		return fmt.Errorf("cache capacities must be positive")
	}

	return nil
}
