// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package seed populates an empty deployment with a realistic sample corpus
// of campus placement interview experiences. Seeding is idempotent: a marker
// document in the metadata collection records completion, and re-running
// against a seeded store is a no-op.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/nlp"
	"github.com/placementlabs/archivus/internal/store"
	"github.com/placementlabs/archivus/internal/vector"
)

const (
	// Version tags the marker document so a future corpus revision can
	// reseed without clashing with the old marker.
	Version = "v1"

	// DefaultCount is the number of sample experiences generated.
	DefaultCount = 180

	// UID owns every seeded record.
	UID = "seed-bot"

	randSeed = 42
)

// Report summarizes a seeding run.
type Report struct {
	Seeded  bool `json:"seeded"`
	Count   int  `json:"count"`
	Created int  `json:"created"`
}

// Seeder generates and persists the sample corpus, running each record
// through the NLP pipeline so seeded data is searchable immediately.
type Seeder struct {
	store    *store.Store
	pipeline *nlp.Pipeline
	index    *vector.Index
}

// New builds a Seeder over the given store, pipeline, and vector index.
func New(s *store.Store, pipeline *nlp.Pipeline, idx *vector.Index) *Seeder {
	return &Seeder{store: s, pipeline: pipeline, index: idx}
}

// EnsureSeeded creates count sample experiences unless the marker document
// says a previous run already finished. Records that already carry an
// embedding are skipped, so an interrupted run resumes where it stopped.
func (sd *Seeder) EnsureSeeded(ctx context.Context, count int) (Report, error) {
	if count <= 0 {
		count = DefaultCount
	}
	markerID := "seed_" + Version

	marker, err := sd.store.Get(ctx, models.CollectionMetadata, markerID)
	if err == nil {
		if done, _ := marker["seeded"].(bool); done {
			n, _ := marker["count"].(float64)
			return Report{Seeded: true, Count: int(n)}, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return Report{}, fmt.Errorf("read seed marker: %w", err)
	}

	if err := sd.ensureSeedUser(ctx); err != nil {
		return Report{}, err
	}

	rng := rand.New(rand.NewSource(randSeed))
	records := generate(count, rng)

	created := 0
	for _, rec := range records {
		ok, err := sd.seedOne(ctx, rec)
		if err != nil {
			return Report{}, fmt.Errorf("seed %s: %w", rec.DocID, err)
		}
		if ok {
			created++
		}
	}

	err = sd.store.Set(ctx, models.CollectionMetadata, markerID, map[string]any{
		"seeded":    true,
		"count":     count,
		"created":   created,
		"version":   Version,
		"seeded_at": store.ServerTimestamp(),
	})
	if err != nil {
		return Report{}, fmt.Errorf("write seed marker: %w", err)
	}

	logging.Info().Int("count", count).Int("created", created).Msg("sample corpus seeded")
	return Report{Seeded: true, Count: count, Created: created}, nil
}

func (sd *Seeder) ensureSeedUser(ctx context.Context) error {
	user := models.User{
		UID:         UID,
		Name:        "Aarav Sharma",
		DisplayName: "Aarav S.",
		Email:       "aarav.sharma+seed@placementlabs.local",
		Role:        models.RoleContributor,
		CreatedAt:   store.Timestamp(time.Now()),
	}
	doc, err := store.DocumentFrom(user)
	if err != nil {
		return fmt.Errorf("encode seed user: %w", err)
	}
	if err := sd.store.Set(ctx, models.CollectionUsers, UID, doc); err != nil {
		return fmt.Errorf("write seed user: %w", err)
	}
	return nil
}

// seedOne writes a single record, skipping documents that already carry an
// embedding from a previous run. Returns true when a record was created.
func (sd *Seeder) seedOne(ctx context.Context, rec record) (bool, error) {
	existing, err := sd.store.Get(ctx, models.CollectionExperiences, rec.DocID)
	if err == nil {
		if _, enriched := existing["embedding_id"]; enriched && existing["embedding_id"] != nil {
			return false, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	result, err := sd.pipeline.Process(ctx, rec.RawText)
	if err != nil {
		return false, fmt.Errorf("process: %w", err)
	}
	topics := result.Topics
	if len(topics) == 0 {
		topics = rec.Topics
	}

	ordinal, err := sd.index.Add(ctx, result.Embedding, rec.DocID)
	if err != nil {
		return false, fmt.Errorf("index: %w", err)
	}

	exp := models.Experience{
		ID:                 rec.DocID,
		Company:            rec.Company,
		Role:               rec.Role,
		Year:               rec.Year,
		Round:              rec.Rounds,
		Difficulty:         rec.Difficulty,
		RawText:            rec.RawText,
		ExtractedQuestions: result.Questions,
		Questions:          models.QuestionSet{UserProvided: []models.Question{}, AIExtracted: result.Questions},
		Stats: models.QuestionStats{
			ExtractedQuestionCount: len(result.Questions),
			TotalQuestionCount:     len(result.Questions),
		},
		Topics:      topics,
		Summary:     result.Summary,
		EmbeddingID: &ordinal,
		CreatedBy:   UID,
		Author:      models.Author{UID: UID, Visibility: models.VisibilityPublic},
		CreatedAt:   store.Timestamp(time.Now()),
		IsActive:    true,
		NLPStatus:   models.EnrichmentDone,
		EditHistory: []models.EditEntry{},
	}
	doc, err := store.DocumentFrom(exp)
	if err != nil {
		return false, fmt.Errorf("encode: %w", err)
	}
	if err := sd.store.Set(ctx, models.CollectionExperiences, rec.DocID, doc); err != nil {
		return false, err
	}
	return true, nil
}
