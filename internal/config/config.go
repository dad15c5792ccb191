// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package config provides layered configuration loading for Archivus using
// Koanf v2. Precedence (highest wins): environment variables, YAML config
// file, built-in defaults.
package config

import (
	"time"
)

// Config is the root configuration for the Archivus server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Vector    VectorConfig    `koanf:"vector"`
	NLP       NLPConfig       `koanf:"nlp"`
	Cache     CacheConfig     `koanf:"cache"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Search    SearchConfig    `koanf:"search"`
	Auth      AuthConfig      `koanf:"auth"`
	Seed      SeedConfig      `koanf:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development or production
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	// Path is the BadgerDB data directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// VectorConfig holds similarity index settings.
type VectorConfig struct {
	// Dimension is the embedding vector length. Every vector added to the
	// index must match it.
	Dimension int `koanf:"dimension"`
}

// NLPConfig holds extraction, classification and embedding settings.
type NLPConfig struct {
	MaxExtractedQuestions int           `koanf:"max_extracted_questions"`
	MinQuestionLength     int           `koanf:"min_question_length"`
	BreakerMaxFailures    uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout    time.Duration `koanf:"breaker_open_timeout"`
}

// CacheConfig holds per-cache TTLs and capacities.
type CacheConfig struct {
	SearchTTL        time.Duration `koanf:"search_ttl"`
	SearchMaxEntries int           `koanf:"search_max_entries"`
	StatsTTL         time.Duration `koanf:"stats_ttl"`
	AuthTTL          time.Duration `koanf:"auth_ttl"`
	AuthMaxEntries   int           `koanf:"auth_max_entries"`
}

// AnalyticsConfig holds aggregation engine settings.
type AnalyticsConfig struct {
	// SampleLimit bounds the number of records scanned per recompute.
	SampleLimit          int     `koanf:"sample_limit"`
	FrequentQuestions    int     `koanf:"frequent_questions"`
	MinConfidence        float64 `koanf:"min_confidence"`
	ProgressionCompanies int     `koanf:"progression_companies"`
	ProgressionTopics    int     `koanf:"progression_topics"`
}

// SearchConfig holds search orchestrator settings.
type SearchConfig struct {
	MaxResults        int `koanf:"max_results"`
	OverfetchFactor   int `koanf:"overfetch_factor"`
	OverfetchFloor    int `koanf:"overfetch_floor"`
	FilterScanLimit   int `koanf:"filter_scan_limit"`
	HydrateBatchLimit int `koanf:"hydrate_batch_limit"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Mode selects the token verifier: "jwt" or "none" (development only).
	Mode              string        `koanf:"mode"`
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	NameCooldown      time.Duration `koanf:"name_cooldown"`
}

// SeedConfig controls sample-corpus seeding for empty deployments.
type SeedConfig struct {
	Enabled bool `koanf:"enabled"`
}

// defaultConfig returns a Config with all default values applied. Defaults
// are layered first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8394,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Path:     "/data/archivus",
			InMemory: false,
		},
		Vector: VectorConfig{
			Dimension: 384,
		},
		NLP: NLPConfig{
			MaxExtractedQuestions: 20,
			MinQuestionLength:     12,
			BreakerMaxFailures:    5,
			BreakerOpenTimeout:    30 * time.Second,
		},
		Cache: CacheConfig{
			SearchTTL:        2 * time.Minute,
			SearchMaxEntries: 100,
			StatsTTL:         5 * time.Minute,
			AuthTTL:          5 * time.Minute,
			AuthMaxEntries:   500,
		},
		Analytics: AnalyticsConfig{
			SampleLimit:          500,
			FrequentQuestions:    10,
			MinConfidence:        0.7,
			ProgressionCompanies: 6,
			ProgressionTopics:    5,
		},
		Search: SearchConfig{
			MaxResults:        20,
			OverfetchFactor:   5,
			OverfetchFloor:    50,
			FilterScanLimit:   500,
			HydrateBatchLimit: 30,
		},
		Auth: AuthConfig{
			Mode:              "jwt",
			JWTSecret:         "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			NameCooldown:      30 * 24 * time.Hour,
		},
		Seed: SeedConfig{
			Enabled: false,
		},
	}
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment != "production"
}
