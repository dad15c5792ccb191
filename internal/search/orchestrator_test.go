// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package search

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/nlp"
	"github.com/placementlabs/archivus/internal/store"
	"github.com/placementlabs/archivus/internal/vector"
)

const testDim = 128

type fixture struct {
	orch     *Orchestrator
	store    *store.Store
	index    *vector.Index
	embedder nlp.Embedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	idx, err := vector.New(testDim, vector.NewStorePersister(s))
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	embedder := nlp.NewHashingEmbedder(testDim)
	orch := New(s, idx, embedder, Config{
		MaxResults: 20,
		CacheTTL:   2 * time.Minute,
		CacheSize:  100,
	})
	return &fixture{orch: orch, store: s, index: idx, embedder: embedder}
}

// seed stores an experience and indexes its summary.
func (f *fixture) seed(t *testing.T, id string, exp models.Experience, indexed bool) {
	t.Helper()
	ctx := context.Background()
	fields, err := store.DocumentFrom(exp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	delete(fields, "id")
	if err := f.store.Set(ctx, models.CollectionExperiences, id, fields); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	if indexed {
		vec, err := f.embedder.Embed(ctx, exp.Summary+" "+strings.Join(exp.Topics, " "))
		if err != nil {
			t.Fatalf("embed: %v", err)
		}
		if _, err := f.index.Add(ctx, vec, id); err != nil {
			t.Fatalf("index %s: %v", id, err)
		}
	}
}

func activeExp(company, role string, year int, difficulty, summary string, topics ...string) models.Experience {
	return models.Experience{
		Company:    company,
		Role:       role,
		Year:       year,
		Difficulty: difficulty,
		Summary:    summary,
		Topics:     topics,
		RawText:    "full narrative text that must never leave the orchestrator",
		IsActive:   true,
	}
}

func TestSemanticSearchRanksBySimilarity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "dsa", activeExp("Acme", "SDE", 2025, "Hard",
		"Coding round on binary trees and graph traversal problems", "DSA"), true)
	f.seed(t, "hr", activeExp("Beta", "SDE", 2025, "Easy",
		"Relaxed discussion about salary expectations and team culture", "HR"), true)

	page, err := f.orch.Search(ctx, Params{Query: "binary trees graph traversal", Mode: ModeSemantic})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total < 1 {
		t.Fatal("expected results")
	}
	first := page.Results[0]
	if first.ID != "dsa" {
		t.Fatalf("top result = %s", first.ID)
	}
	if first.Score <= 0 {
		t.Fatalf("score = %v", first.Score)
	}
	if first.RawText != "" {
		t.Fatal("raw_text leaked")
	}
	if !strings.HasPrefix(first.MatchReason, "Matched: ") {
		t.Fatalf("match reason = %q", first.MatchReason)
	}
}

func TestSemanticSkipsInactiveAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deleted := activeExp("Acme", "SDE", 2025, "Hard", "binary trees everywhere", "DSA")
	deleted.IsActive = false
	f.seed(t, "gone", deleted, true)

	// Indexed but never stored: a dangling mapping entry.
	vec, _ := f.embedder.Embed(ctx, "binary trees")
	if _, err := f.index.Add(ctx, vec, "phantom"); err != nil {
		t.Fatalf("index: %v", err)
	}

	page, err := f.orch.Search(ctx, Params{Query: "binary trees", Mode: ModeSemantic})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("expected no results, got %+v", page.Results)
	}
}

func TestSemanticPostFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme Corp", "Backend SDE", 2025, "Hard",
		"Questions about operating system paging and threads", "OS"), true)
	f.seed(t, "b", activeExp("Beta Ltd", "Backend SDE", 2024, "Easy",
		"Questions about operating system scheduling", "OS"), true)

	page, err := f.orch.Search(ctx, Params{
		Query: "operating system questions", Mode: ModeSemantic,
		Company: "acme", Year: 2025, Difficulty: "hard", Topics: []string{"os"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 || page.Results[0].ID != "a" {
		t.Fatalf("results = %+v", page.Results)
	}
	reason := page.Results[0].MatchReason
	for _, want := range []string{"covers OS", "from Acme Corp", "Hard difficulty"} {
		if !strings.Contains(reason, want) {
			t.Fatalf("reason %q missing %q", reason, want)
		}
	}
}

func TestQuestionLevelMatchLeadsExplanation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exp := activeExp("Acme", "SDE", 2025, "Medium", "coding round with tree problems", "DSA")
	exp.Questions.AIExtracted = []models.Question{{
		QuestionText: "How do you invert a binary tree?",
		Confidence:   1.0,
	}}
	f.seed(t, "a", exp, true)

	page, err := f.orch.Search(ctx, Params{Query: "binary tree", Mode: ModeSemantic})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("results = %+v", page.Results)
	}
	if !strings.Contains(page.Results[0].MatchReason, `question matches: "How do you invert a binary tree?"`) {
		t.Fatalf("reason = %q", page.Results[0].MatchReason)
	}
}

func TestKeywordModeSubstring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme", "SDE Intern", 2025, "Medium",
		"summary mentioning kubernetes operators", "System Design"), false)
	f.seed(t, "b", activeExp("Beta", "Analyst", 2025, "Medium",
		"summary about spreadsheets", "HR"), false)

	page, err := f.orch.Search(ctx, Params{Query: "kubernetes", Mode: ModeKeyword})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 || page.Results[0].ID != "a" {
		t.Fatalf("results = %+v", page.Results)
	}
	if !strings.Contains(page.Results[0].MatchReason, `contains "kubernetes"`) {
		t.Fatalf("reason = %q", page.Results[0].MatchReason)
	}
	if page.Results[0].RawText != "" {
		t.Fatal("raw_text leaked")
	}
}

func TestKeywordPushdownFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme", "SDE", 2025, "Hard", "sum a", "DSA", "OS"), false)
	f.seed(t, "b", activeExp("Acme", "SDE", 2024, "Hard", "sum b", "DSA"), false)
	f.seed(t, "c", activeExp("Acme", "SDE", 2025, "Easy", "sum c", "HR"), false)

	page, err := f.orch.Search(ctx, Params{
		Mode: ModeKeyword, Year: 2025, Difficulty: "Hard", Topics: []string{"dsa"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 || page.Results[0].ID != "a" {
		t.Fatalf("results = %+v", page.Results)
	}
}

func TestEmptyQuerySemanticFallsBackToKeyword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme", "SDE", 2025, "Hard", "any summary", "DSA"), false)

	page, err := f.orch.Search(ctx, Params{Query: "   ", Mode: ModeSemantic})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("results = %+v", page.Results)
	}
	// No query, no filters: metadata-based reason.
	if !strings.Contains(page.Results[0].MatchReason, "topics: DSA") {
		t.Fatalf("reason = %q", page.Results[0].MatchReason)
	}
}

func TestSemanticOverfetchBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "near", activeExp("Beta", "SDE", 2025, "Hard",
		"binary trees and graph traversal problems", "DSA"), true)
	f.seed(t, "far", activeExp("Acme", "SDE", 2025, "Hard",
		"short note mentioning binary trees", "DSA"), true)

	p := Params{Query: "binary trees graph traversal", Mode: ModeSemantic, Company: "Acme", Limit: 1}

	// A one-candidate window only sees the nearest vector, which the
	// company filter then rejects.
	tight := New(f.store, f.index, f.embedder, Config{
		MaxResults: 20, CacheTTL: time.Minute, CacheSize: 10,
		OverfetchFactor: 1, OverfetchFloor: 1,
	})
	page, err := tight.Search(ctx, p)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("tight window results = %+v", page.Results)
	}

	// The default window is wide enough to reach the filtered match.
	wide, err := f.orch.Search(ctx, p)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if wide.Total != 1 || wide.Results[0].ID != "far" {
		t.Fatalf("wide window results = %+v", wide.Results)
	}
}

func TestSemanticHydrateBatchLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme", "SDE", 2025, "Hard",
		"coding round on binary trees", "DSA"), true)
	f.seed(t, "b", activeExp("Beta", "SDE", 2025, "Hard",
		"another round on binary trees", "DSA"), true)

	orch := New(f.store, f.index, f.embedder, Config{
		MaxResults: 20, CacheTTL: time.Minute, CacheSize: 10,
		HydrateBatchLimit: 1,
	})
	page, err := orch.Search(ctx, Params{Query: "binary trees", Mode: ModeSemantic, Limit: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("store reads not capped: %+v", page.Results)
	}
}

func TestKeywordFilterScanLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme", "SDE", 2025, "Hard", "sum a", "DSA"), false)
	f.seed(t, "b", activeExp("Acme", "SDE", 2025, "Hard", "sum b", "DSA"), false)
	f.seed(t, "c", activeExp("Acme", "SDE", 2025, "Hard", "sum c", "DSA"), false)

	orch := New(f.store, f.index, f.embedder, Config{
		MaxResults: 20, CacheTTL: time.Minute, CacheSize: 10,
		FilterScanLimit: 2,
	})
	page, err := orch.Search(ctx, Params{Mode: ModeKeyword})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("scan not bounded: %+v", page.Results)
	}
}

func TestResultCaching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, "a", activeExp("Acme", "SDE", 2025, "Hard", "cached summary", "DSA"), false)

	first, err := f.orch.Search(ctx, Params{Mode: ModeKeyword, Company: "Acme"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if first.Total != 1 {
		t.Fatalf("first = %+v", first)
	}

	// New record is invisible until the cache is cleared.
	f.seed(t, "b", activeExp("Acme", "SDE", 2025, "Hard", "another one", "DSA"), false)
	cached, _ := f.orch.Search(ctx, Params{Mode: ModeKeyword, Company: "Acme"})
	if cached.Total != 1 {
		t.Fatalf("cached = %+v", cached)
	}

	f.orch.InvalidateCache()
	fresh, _ := f.orch.Search(ctx, Params{Mode: ModeKeyword, Company: "Acme"})
	if fresh.Total != 2 {
		t.Fatalf("fresh = %+v", fresh)
	}
}

func TestExplainTruncatesQuestionOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("ツリーの反転は", 20) + "?"
	reason := explain(&models.Experience{}, Params{Mode: ModeSemantic, Query: "tree"}, 0.1, long)
	if !utf8.ValidString(reason) {
		t.Fatalf("reason is not valid UTF-8: %q", reason)
	}
	if !strings.Contains(reason, string([]rune(long)[:80])) {
		t.Fatalf("reason = %q", reason)
	}
	if strings.Contains(reason, long) {
		t.Fatal("question was not truncated")
	}
	if strings.ContainsRune(reason, utf8.RuneError) {
		t.Fatalf("replacement rune leaked into %q", reason)
	}
}

func TestLimitClampAndNormalization(t *testing.T) {
	f := newFixture(t)

	p := f.orch.normalize(Params{
		Mode: "bogus", Topics: []string{" dsa ", "", "os"},
		Difficulty: "very hard", Limit: 500,
	})
	if p.Mode != ModeSemantic {
		t.Fatalf("mode = %q", p.Mode)
	}
	if len(p.Topics) != 2 || p.Topics[0] != "DSA" || p.Topics[1] != "OS" {
		t.Fatalf("topics = %v", p.Topics)
	}
	if p.Difficulty != "Very Hard" {
		t.Fatalf("difficulty = %q", p.Difficulty)
	}
	if p.Limit != 20 {
		t.Fatalf("limit = %d", p.Limit)
	}
}
