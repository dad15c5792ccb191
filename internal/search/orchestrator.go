// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package search answers archive queries in two modes: semantic, which
// ranks by vector similarity, and keyword, which matches substrings
// over stored text. The orchestrator is read-only apart from its
// result cache and never exposes raw narrative text.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/placementlabs/archivus/internal/cache"
	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/metrics"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/nlp"
	"github.com/placementlabs/archivus/internal/store"
	"github.com/placementlabs/archivus/internal/vector"
)

// Search modes.
const (
	ModeSemantic = "semantic"
	ModeKeyword  = "keyword"
)

// Params is one normalized search request.
type Params struct {
	Query      string
	Mode       string
	Company    string
	Role       string
	Year       int
	Topics     []string
	Difficulty string
	Limit      int
}

// Page is one search response.
type Page struct {
	Results []models.Experience `json:"results"`
	Total   int                 `json:"total"`
}

// Config bounds the orchestrator. Zero values take the defaults below.
type Config struct {
	// MaxResults caps the per-request limit.
	MaxResults int
	// CacheTTL and CacheSize bound the result cache.
	CacheTTL  time.Duration
	CacheSize int
	// OverfetchFactor and OverfetchFloor size the candidate set pulled
	// from the index in semantic mode: max(limit*factor, floor).
	OverfetchFactor int
	OverfetchFloor  int
	// FilterScanLimit caps how many documents one keyword query scans.
	FilterScanLimit int
	// HydrateBatchLimit caps store reads per semantic request.
	HydrateBatchLimit int
}

// Orchestrator coordinates the vector index, the document store, and
// the result cache.
type Orchestrator struct {
	store           *store.Store
	index           *vector.Index
	embedder        nlp.Embedder
	cache           *cache.Cache[Page]
	maxResults      int
	overfetchFactor int
	overfetchFloor  int
	filterScanLimit int
	hydrateLimit    int
}

// New builds an orchestrator.
func New(s *store.Store, idx *vector.Index, embedder nlp.Embedder, cfg Config) *Orchestrator {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = 5
	}
	if cfg.OverfetchFloor <= 0 {
		cfg.OverfetchFloor = 50
	}
	if cfg.FilterScanLimit <= 0 {
		cfg.FilterScanLimit = 500
	}
	if cfg.HydrateBatchLimit <= 0 {
		cfg.HydrateBatchLimit = cfg.OverfetchFloor
	}
	return &Orchestrator{
		store:           s,
		index:           idx,
		embedder:        embedder,
		cache:           cache.New[Page](cfg.CacheTTL, cfg.CacheSize),
		maxResults:      cfg.MaxResults,
		overfetchFactor: cfg.OverfetchFactor,
		overfetchFloor:  cfg.OverfetchFloor,
		filterScanLimit: cfg.FilterScanLimit,
		hydrateLimit:    cfg.HydrateBatchLimit,
	}
}

// normalize canonicalizes the request so equivalent queries share a
// cache entry: topics upper-cased, difficulty title-cased, limit
// clamped to [1, MaxResults].
func (o *Orchestrator) normalize(p Params) Params {
	p.Query = strings.TrimSpace(p.Query)
	if p.Mode != ModeKeyword {
		p.Mode = ModeSemantic
	}
	p.Company = strings.TrimSpace(p.Company)
	p.Role = strings.TrimSpace(p.Role)
	p.Difficulty = titleCase(strings.TrimSpace(p.Difficulty))

	topics := make([]string, 0, len(p.Topics))
	for _, t := range p.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, strings.ToUpper(t))
		}
	}
	p.Topics = topics

	if p.Limit <= 0 || p.Limit > o.maxResults {
		p.Limit = o.maxResults
	}
	return p
}

func (p Params) cacheKey() string {
	return cache.Key(
		p.Query, p.Mode, p.Company, p.Role,
		strconv.Itoa(p.Year),
		strings.Join(p.Topics, ","),
		p.Difficulty,
		strconv.Itoa(p.Limit),
	)
}

// Search runs one query. Results never include raw narrative text.
func (o *Orchestrator) Search(ctx context.Context, params Params) (*Page, error) {
	p := o.normalize(params)

	key := p.cacheKey()
	if page, ok := o.cache.Get(key); ok {
		metrics.CacheEvents.WithLabelValues("search", "hit").Inc()
		return &page, nil
	}
	metrics.CacheEvents.WithLabelValues("search", "miss").Inc()

	var (
		page *Page
		err  error
	)
	if p.Mode == ModeSemantic && p.Query != "" {
		page, err = o.semantic(ctx, p)
	} else {
		page, err = o.keyword(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	o.cache.Put(key, *page)
	return page, nil
}

// InvalidateCache drops all cached pages. Called after corpus writes.
func (o *Orchestrator) InvalidateCache() {
	o.cache.Clear()
}

func (o *Orchestrator) semantic(ctx context.Context, p Params) (*Page, error) {
	queryVec, err := o.embedder.Embed(ctx, p.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch so post-filters still leave a full page.
	k := p.Limit * o.overfetchFactor
	if k < o.overfetchFloor {
		k = o.overfetchFloor
	}
	hits, err := o.index.Search(queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	if len(hits) == 0 {
		return &Page{Results: []models.Experience{}}, nil
	}

	queryLower := strings.ToLower(p.Query)
	results := make([]models.Experience, 0, p.Limit)
	// Re-enrichment can leave more than one vector per experience; hits
	// arrive best-first, so the first occurrence wins.
	seen := make(map[string]struct{}, len(hits))
	hydrated := 0
	for _, hit := range hits {
		if _, dup := seen[hit.ID]; dup {
			continue
		}
		seen[hit.ID] = struct{}{}
		if hydrated >= o.hydrateLimit {
			break
		}
		hydrated++
		exp, ok := o.hydrate(ctx, hit.ID)
		if !ok || !exp.Active() {
			continue
		}
		if !matchesFilters(exp, p) {
			continue
		}
		exp.Score = math.Round(float64(hit.Score)*10000) / 10000
		exp.MatchReason = explain(exp, p, exp.Score, matchedQuestion(exp, queryLower))
		exp.RawText = ""
		results = append(results, *exp)
		if len(results) >= p.Limit {
			break
		}
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	return &Page{Results: results, Total: len(results)}, nil
}

func (o *Orchestrator) keyword(ctx context.Context, p Params) (*Page, error) {
	q := o.store.Query(models.CollectionExperiences)
	if p.Year != 0 {
		q = q.Where("year", store.OpEqual, p.Year)
	}
	if p.Difficulty != "" {
		q = q.Where("difficulty", store.OpEqual, p.Difficulty)
	}
	// A single topic pushes down; multiple topics post-filter.
	if len(p.Topics) == 1 {
		q = q.Where("topics", store.OpArrayContains, p.Topics[0])
	}

	rows, err := q.Limit(o.filterScanLimit).Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyword scan: %w", err)
	}

	queryLower := strings.ToLower(p.Query)
	results := make([]models.Experience, 0, p.Limit)
	for _, row := range rows {
		var exp models.Experience
		if err := store.Decode(row.Doc, &exp); err != nil {
			continue
		}
		exp.ID = row.ID
		if active, ok := row.Doc["is_active"].(bool); ok && !active {
			continue
		}
		exp.IsActive = true
		if !matchesFilters(&exp, p) {
			continue
		}
		if queryLower != "" && !strings.Contains(haystack(&exp), queryLower) {
			continue
		}
		exp.MatchReason = explain(&exp, p, 0, "")
		exp.RawText = ""
		results = append(results, exp)
		if len(results) >= p.Limit {
			break
		}
	}
	return &Page{Results: results, Total: len(results)}, nil
}

func (o *Orchestrator) hydrate(ctx context.Context, id string) (*models.Experience, bool) {
	doc, err := o.store.Get(ctx, models.CollectionExperiences, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Str("id", id).Msg("hydrate failed")
		}
		return nil, false
	}
	// Absent is_active means active.
	if active, ok := doc["is_active"].(bool); ok && !active {
		return nil, false
	}
	var exp models.Experience
	if err := store.Decode(doc, &exp); err != nil {
		return nil, false
	}
	exp.ID = id
	exp.IsActive = true
	return &exp, true
}

// matchedQuestion returns the first stored question containing the
// query as a substring, used to explain semantic hits.
func matchedQuestion(exp *models.Experience, queryLower string) string {
	if queryLower == "" {
		return ""
	}
	questions := exp.AllQuestions()
	if len(questions) == 0 {
		questions = exp.ExtractedQuestions
	}
	for _, q := range questions {
		if q.QuestionText != "" && strings.Contains(strings.ToLower(q.QuestionText), queryLower) {
			return q.QuestionText
		}
	}
	return ""
}

func matchesFilters(exp *models.Experience, p Params) bool {
	if p.Company != "" && !strings.Contains(normalizeText(exp.Company), normalizeText(p.Company)) {
		return false
	}
	if p.Role != "" && !strings.Contains(normalizeText(exp.Role), normalizeText(p.Role)) {
		return false
	}
	if p.Year != 0 && exp.Year != p.Year {
		return false
	}
	if p.Difficulty != "" && titleCase(exp.Difficulty) != p.Difficulty {
		return false
	}
	if len(p.Topics) > 0 {
		upper := make(map[string]struct{}, len(exp.Topics))
		for _, t := range exp.Topics {
			upper[strings.ToUpper(t)] = struct{}{}
		}
		found := false
		for _, t := range p.Topics {
			if _, ok := upper[t]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func haystack(exp *models.Experience) string {
	return strings.ToLower(strings.Join([]string{
		exp.Company, exp.Role, exp.Summary, exp.RawText,
		strings.Join(exp.Topics, " "),
	}, " "))
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
