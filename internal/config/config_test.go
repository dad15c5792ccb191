// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	return cfg
}

func TestDefaultsAreValidWithSecret(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config with secret should validate: %v", err)
	}
}

func TestValidateRejectsShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short jwt secret")
	}
}

func TestValidateRejectsAuthNoneInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.Mode = "none"
	cfg.Server.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for auth.mode=none in production")
	}

	cfg.Server.Environment = "development"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("auth.mode=none should be allowed in development: %v", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestValidateRejectsZeroDimension(t *testing.T) {
	cfg := validConfig()
	cfg.Vector.Dimension = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero vector dimension")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"ARCHIVUS_SERVER_PORT", "server.port"},
		{"ARCHIVUS_CACHE_SEARCH_TTL", "cache.search_ttl"},
		{"ARCHIVUS_AUTH_JWT_SECRET", "auth.jwt_secret"},
		{"ARCHIVUS_STORE_IN_MEMORY", "store.in_memory"},
		{"ARCHIVUS_SEED_ENABLED", "seed.enabled"},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Vector.Dimension != 384 {
		t.Errorf("expected embedding dimension 384, got %d", cfg.Vector.Dimension)
	}
	if cfg.Analytics.SampleLimit != 500 {
		t.Errorf("expected analytics sample limit 500, got %d", cfg.Analytics.SampleLimit)
	}
	if cfg.Search.MaxResults != 20 {
		t.Errorf("expected max search results 20, got %d", cfg.Search.MaxResults)
	}
	if !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
}
