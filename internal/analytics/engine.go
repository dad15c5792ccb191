// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package analytics computes corpus-wide aggregates for the dashboard:
// company and topic counters, frequently repeated questions, and per
// company interview progressions. Results resolve through a process
// cache, then a persisted snapshot, then a full recompute. Aggregation
// failures degrade to empty data; they never surface to the caller.
package analytics

import (
	"context"
	"time"

	"github.com/placementlabs/archivus/internal/cache"
	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/metrics"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

// Defaults applied when the corresponding Config field is zero.
const (
	frequentQuestionLimit = 10
	progressionLimit      = 6
	topicsPerRecord       = 3
	topicsPerStage        = 5
	minConfidence         = 0.7

	statsCacheKey = "aggregate_stats"
)

// Engine resolves and recomputes the aggregate snapshot.
type Engine struct {
	store                *store.Store
	cache                *cache.Cache[models.AggregateStats]
	sampleLimit          int
	frequentQuestions    int
	minConfidence        float64
	progressionCompanies int
	progressionTopics    int

	// now is swapped in tests.
	now func() time.Time
}

// Config bounds the aggregation pass. Zero values take the package
// defaults.
type Config struct {
	// SampleLimit caps how many experience documents one recompute reads.
	SampleLimit int
	// CacheTTL and CacheSize bound the process cache.
	CacheTTL  time.Duration
	CacheSize int
	// FrequentQuestions caps the repeated-question table.
	FrequentQuestions int
	// MinConfidence filters low-quality extracted questions out of the
	// frequency table.
	MinConfidence float64
	// ProgressionCompanies caps how many companies carry a derived
	// interview flow; ProgressionTopics caps topics per stage.
	ProgressionCompanies int
	ProgressionTopics    int
}

// NewEngine builds an engine over the document store.
func NewEngine(s *store.Store, cfg Config) *Engine {
	if cfg.FrequentQuestions <= 0 {
		cfg.FrequentQuestions = frequentQuestionLimit
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = minConfidence
	}
	if cfg.ProgressionCompanies <= 0 {
		cfg.ProgressionCompanies = progressionLimit
	}
	if cfg.ProgressionTopics <= 0 {
		cfg.ProgressionTopics = topicsPerStage
	}
	return &Engine{
		store:                s,
		cache:                cache.New[models.AggregateStats](cfg.CacheTTL, cfg.CacheSize),
		sampleLimit:          cfg.SampleLimit,
		frequentQuestions:    cfg.FrequentQuestions,
		minConfidence:        cfg.MinConfidence,
		progressionCompanies: cfg.ProgressionCompanies,
		progressionTopics:    cfg.ProgressionTopics,
		now:                  time.Now,
	}
}

// GetOrCompute returns the current snapshot: process cache first, then
// the persisted snapshot if structurally complete, then a recompute.
func (e *Engine) GetOrCompute(ctx context.Context) *models.AggregateStats {
	if stats, ok := e.cache.Get(statsCacheKey); ok {
		metrics.CacheEvents.WithLabelValues("stats", "hit").Inc()
		return &stats
	}
	metrics.CacheEvents.WithLabelValues("stats", "miss").Inc()

	doc, err := e.store.Get(ctx, models.CollectionMetadata, models.StatsDocID)
	if err == nil && snapshotComplete(doc) {
		var stats models.AggregateStats
		if decodeErr := store.Decode(doc, &stats); decodeErr == nil {
			e.cache.Put(statsCacheKey, stats)
			return &stats
		}
	}
	// Missing, stale, or undecodable snapshots all fall through.
	return e.Recompute(ctx)
}

// Recompute rebuilds the snapshot from up to SampleLimit stored
// experiences, persists it best-effort, and refreshes the cache.
func (e *Engine) Recompute(ctx context.Context) *models.AggregateStats {
	experiences, err := e.loadActive(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("analytics recompute failed, serving empty stats")
		return emptyStats(e.now())
	}

	stats := e.aggregate(experiences)

	fields, err := store.DocumentFrom(stats)
	if err == nil {
		if writeErr := e.store.Set(ctx, models.CollectionMetadata, models.StatsDocID, fields); writeErr != nil {
			logging.Warn().Err(writeErr).Msg("failed to persist stats snapshot")
		}
	}
	e.cache.Put(statsCacheKey, *stats)
	return stats
}

// Invalidate drops the process cache entry so the next read consults
// the store again. Called after writes that change the corpus.
func (e *Engine) Invalidate() {
	e.cache.Invalidate(statsCacheKey)
}

// snapshotComplete checks the persisted document for every required
// analytics field. Snapshots written by older code versions fail this
// and are recomputed rather than served.
func snapshotComplete(doc store.Document) bool {
	for _, field := range models.RequiredStatsFields {
		if _, ok := doc[field]; !ok {
			return false
		}
	}
	return true
}

type record struct {
	id  string
	exp models.Experience
}

func (e *Engine) loadActive(ctx context.Context) ([]record, error) {
	results, err := e.store.Query(models.CollectionExperiences).
		Limit(e.sampleLimit).
		Documents(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]record, 0, len(results))
	for _, r := range results {
		// Absent is_active means active; only explicit soft deletes drop out.
		if active, ok := r.Doc["is_active"].(bool); ok && !active {
			continue
		}
		var exp models.Experience
		if err := store.Decode(r.Doc, &exp); err != nil {
			logging.Warn().Err(err).Str("id", r.ID).Msg("skipping undecodable experience")
			continue
		}
		records = append(records, record{id: r.ID, exp: exp})
	}
	return records, nil
}

func emptyStats(now time.Time) *models.AggregateStats {
	return &models.AggregateStats{
		SchemaVersion:          models.StatsSchemaVersion,
		TopicTotals:            map[string]int{},
		DifficultyDistribution: map[string]int{},
		CompanyTopicCounts:     map[string]map[string]int{},
		FrequentQuestions:      []models.FrequentQuestion{},
		InterviewProgression:   map[string]models.CompanyProgression{},
		ComputedAt:             store.Timestamp(now),
	}
}

func (e *Engine) aggregate(records []record) *models.AggregateStats {
	stats := emptyStats(e.now())
	if len(records) == 0 {
		return stats
	}

	companyCounts := map[string]int{}
	for _, r := range records {
		company := orUnknown(r.exp.Company)
		difficulty := orUnknown(r.exp.Difficulty)

		companyCounts[company]++
		stats.DifficultyDistribution[difficulty]++
		for _, topic := range r.exp.Topics {
			stats.TopicTotals[topic]++
			if stats.CompanyTopicCounts[company] == nil {
				stats.CompanyTopicCounts[company] = map[string]int{}
			}
			stats.CompanyTopicCounts[company][topic]++
		}
	}

	stats.TotalExperiences = len(records)
	stats.TopCompany = topKey(companyCounts)
	stats.TopTopic = topKey(stats.TopicTotals)
	stats.FrequentQuestions = e.frequentQuestionTable(records)
	stats.InterviewProgression = e.interviewProgression(records)
	return stats
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// topKey returns the highest-count key. Ties resolve to the
// lexicographically smallest key so repeated aggregation over the same
// corpus is stable.
func topKey(counts map[string]int) string {
	best := ""
	bestCount := 0
	for k, n := range counts {
		if n > bestCount || (n == bestCount && bestCount > 0 && k < best) {
			best = k
			bestCount = n
		}
	}
	return best
}
