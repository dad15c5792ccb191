// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package main is the entry point for the Archivus server.
//
// Archivus archives campus placement interview experiences, enriches them
// with question extraction, topic classification, and embeddings, and serves
// keyword and semantic search plus aggregate analytics over the corpus.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (env vars over config.yaml over defaults)
//  2. Document store: BadgerDB-backed collections with Firestore-style sentinels
//  3. Vector index: brute-force cosine index restored from its store snapshot
//  4. NLP pipeline: extraction, classification, summary, circuit-broken embedder
//  5. Services: analytics engine, search orchestrator, practice lists, auth
//  6. Ingestion: Watermill in-process bus plus the enrichment consumer
//  7. HTTP API: chi router under the suture supervisor tree
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the supervisor
// cancels every service, the HTTP server drains in-flight requests, and the
// store is closed last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/placementlabs/archivus/internal/analytics"
	"github.com/placementlabs/archivus/internal/api"
	"github.com/placementlabs/archivus/internal/auth"
	"github.com/placementlabs/archivus/internal/config"
	"github.com/placementlabs/archivus/internal/experience"
	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/metrics"
	"github.com/placementlabs/archivus/internal/nlp"
	"github.com/placementlabs/archivus/internal/practice"
	"github.com/placementlabs/archivus/internal/search"
	"github.com/placementlabs/archivus/internal/seed"
	"github.com/placementlabs/archivus/internal/store"
	"github.com/placementlabs/archivus/internal/supervisor"
	"github.com/placementlabs/archivus/internal/vector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Int("vector_dimension", cfg.Vector.Dimension).
		Str("auth_mode", cfg.Auth.Mode).
		Msg("Starting Archivus")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document store
	st, err := store.Open(store.Options{Path: cfg.Store.Path, InMemory: cfg.Store.InMemory})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	// Vector index, restored from its snapshot if one exists
	idx, err := vector.New(cfg.Vector.Dimension, vector.NewStorePersister(st))
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	if err := idx.Load(ctx); err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	metrics.VectorIndexSize.Set(float64(idx.Count()))
	logging.Info().Int("vectors", idx.Count()).Msg("Vector index loaded")

	// NLP pipeline with a circuit-broken embedder
	embedder := nlp.NewBreakerEmbedder(
		nlp.NewHashingEmbedder(cfg.Vector.Dimension),
		nlp.BreakerConfig{
			FailureThreshold: cfg.NLP.BreakerMaxFailures,
			ResetTimeout:     cfg.NLP.BreakerOpenTimeout,
		},
	)
	pipeline := nlp.NewPipelineWithConfig(embedder, nlp.PipelineConfig{
		MinQuestionLength:     cfg.NLP.MinQuestionLength,
		MaxExtractedQuestions: cfg.NLP.MaxExtractedQuestions,
	})

	// Domain services
	engine := analytics.NewEngine(st, analytics.Config{
		SampleLimit:          cfg.Analytics.SampleLimit,
		FrequentQuestions:    cfg.Analytics.FrequentQuestions,
		MinConfidence:        cfg.Analytics.MinConfidence,
		ProgressionCompanies: cfg.Analytics.ProgressionCompanies,
		ProgressionTopics:    cfg.Analytics.ProgressionTopics,
		CacheTTL:             cfg.Cache.StatsTTL,
		CacheSize:            1, // the engine caches a single corpus-wide snapshot
	})
	searcher := search.New(st, idx, embedder, search.Config{
		MaxResults:        cfg.Search.MaxResults,
		OverfetchFactor:   cfg.Search.OverfetchFactor,
		OverfetchFloor:    cfg.Search.OverfetchFloor,
		FilterScanLimit:   cfg.Search.FilterScanLimit,
		HydrateBatchLimit: cfg.Search.HydrateBatchLimit,
		CacheTTL:          cfg.Cache.SearchTTL,
		CacheSize:         cfg.Cache.SearchMaxEntries,
	})
	practiceSvc := practice.NewService(st)

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return err
	}
	authenticator := auth.NewAuthenticator(verifier, st, auth.Config{
		CacheTTL:     cfg.Cache.AuthTTL,
		CacheSize:    cfg.Cache.AuthMaxEntries,
		NameCooldown: cfg.Auth.NameCooldown,
	})

	// Ingestion bus and experience service
	bus := experience.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	experiences := experience.NewService(st, pipeline, idx, bus, engine, searcher)

	// Counter reconciliation repairs practice list roll-ups that a crash
	// mid-batch may have left stale.
	if repaired, err := practiceSvc.Reconcile(ctx); err != nil {
		logging.Warn().Err(err).Msg("Practice list reconciliation failed")
	} else if repaired > 0 {
		logging.Info().Int("lists", repaired).Msg("Practice list counters reconciled")
	}

	// Optional sample corpus for empty deployments
	if cfg.Seed.Enabled {
		report, err := seed.New(st, pipeline, idx).EnsureSeeded(ctx, seed.DefaultCount)
		if err != nil {
			return fmt.Errorf("seed corpus: %w", err)
		}
		logging.Info().Int("count", report.Count).Int("created", report.Created).Msg("Seed corpus ready")
		metrics.VectorIndexSize.Set(float64(idx.Count()))
	}

	// Warm the analytics cache off the startup path.
	go func() {
		engine.GetOrCompute(ctx)
	}()

	// HTTP surface
	router := api.NewRouter(authenticator, experiences, searcher, engine, practiceSvc, api.Config{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Auth.RateLimitReqs,
		RateLimitWindow:   cfg.Auth.RateLimitWindow,
		RateLimitDisabled: cfg.Auth.RateLimitDisabled,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervisor tree: enrichment consumer in the pipeline layer, HTTP
	// server in the API layer.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddPipelineService(experience.NewConsumer(bus, experiences))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

// buildVerifier selects the token verifier for the configured auth mode.
func buildVerifier(cfg *config.Config) (auth.TokenVerifier, error) {
	switch cfg.Auth.Mode {
	case "none":
		if !cfg.IsDevelopment() {
			return nil, errors.New("auth mode none is not allowed in production")
		}
		logging.Warn().Msg("Auth mode none: tokens are NOT verified (development only)")
		return auth.NewInsecureVerifier(), nil
	case "jwt", "":
		verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("configure jwt verifier: %w", err)
		}
		return verifier, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
