// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package vector

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/placementlabs/archivus/internal/store"
)

func newTestIndex(t *testing.T, dim int) (*Index, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	idx, err := New(dim, NewStorePersister(s))
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	return idx, s
}

func TestEmptyIndexSearch(t *testing.T) {
	idx, _ := newTestIndex(t, 3)
	hits, err := idx.Search([]float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty result, got %d hits", len(hits))
	}
}

func TestAddAndSearchOrdering(t *testing.T) {
	idx, _ := newTestIndex(t, 3)
	ctx := context.Background()

	vectors := map[string][]float32{
		"east":  {1, 0, 0},
		"north": {0, 1, 0},
		"diag":  {1, 1, 0},
	}
	for id, v := range vectors {
		if _, err := idx.Add(ctx, v, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	hits, err := idx.Search([]float32{1, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "east" {
		t.Fatalf("best hit = %s (%f)", hits[0].ID, hits[0].Score)
	}
	if hits[0].Score < hits[1].Score {
		t.Fatal("hits must be ordered by descending score")
	}
}

func TestAddAssignsSequentialOrdinals(t *testing.T) {
	idx, _ := newTestIndex(t, 2)
	ctx := context.Background()

	for want := 0; want < 3; want++ {
		got, err := idx.Add(ctx, []float32{1, float32(want)}, "doc")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if got != want {
			t.Fatalf("ordinal = %d, want %d", got, want)
		}
	}
	if idx.Count() != 3 {
		t.Fatalf("count = %d", idx.Count())
	}
}

func TestDimensionMismatch(t *testing.T) {
	idx, _ := newTestIndex(t, 3)
	ctx := context.Background()

	if _, err := idx.Add(ctx, []float32{1, 0}, "short"); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("add: expected dimension error, got %v", err)
	}
	if _, err := idx.Search([]float32{1, 0, 0, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("search: expected dimension error, got %v", err)
	}
	if err := idx.Rebuild(ctx, [][]float32{{1, 0}}, []string{"a"}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("rebuild: expected dimension error, got %v", err)
	}
}

func TestNormalizationMakesScaleIrrelevant(t *testing.T) {
	idx, _ := newTestIndex(t, 2)
	ctx := context.Background()

	if _, err := idx.Add(ctx, []float32{100, 0}, "big"); err != nil {
		t.Fatalf("add: %v", err)
	}
	hits, _ := idx.Search([]float32{0.001, 0}, 1)
	if len(hits) != 1 {
		t.Fatal("expected one hit")
	}
	if math.Abs(float64(hits[0].Score)-1) > 1e-5 {
		t.Fatalf("score = %f, want ~1 for parallel vectors", hits[0].Score)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	idx, s := newTestIndex(t, 2)
	ctx := context.Background()

	if _, err := idx.Add(ctx, []float32{1, 0}, "a"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := idx.Add(ctx, []float32{0, 1}, "b"); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Simulate a restart against the same store.
	restored, err := New(2, NewStorePersister(s))
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Count() != 2 {
		t.Fatalf("restored count = %d", restored.Count())
	}
	hits, _ := restored.Search([]float32{0, 1}, 1)
	if len(hits) != 1 || hits[0].ID != "b" {
		t.Fatalf("restored search = %v", hits)
	}
}

func TestLoadCorruptSnapshotStartsEmpty(t *testing.T) {
	idx, s := newTestIndex(t, 2)
	ctx := context.Background()
	if _, err := idx.Add(ctx, []float32{1, 0}, "a"); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Drop a mapping entry so persisted count and mapping disagree.
	if err := s.Update(ctx, "metadata", "vector_index", map[string]any{
		"mapping": []string{},
	}, false); err != nil {
		t.Fatalf("corrupt snapshot: %v", err)
	}

	restored, _ := New(2, NewStorePersister(s))
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load should tolerate corruption: %v", err)
	}
	if restored.Count() != 0 {
		t.Fatalf("corrupt snapshot must not load, count = %d", restored.Count())
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	idx, s := newTestIndex(t, 2)
	ctx := context.Background()
	if _, err := idx.Add(ctx, []float32{1, 0}, "old"); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := idx.Rebuild(ctx,
		[][]float32{{0, 1}, {1, 1}},
		[]string{"n1", "n2"},
	)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if idx.Count() != 2 {
		t.Fatalf("count = %d", idx.Count())
	}
	hits, _ := idx.Search([]float32{0, 1}, 3)
	for _, h := range hits {
		if h.ID == "old" {
			t.Fatal("rebuild must discard previous contents")
		}
	}

	// Rebuild persists, so a restart sees the new contents.
	restored, _ := New(2, NewStorePersister(s))
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Count() != 2 {
		t.Fatalf("restored count = %d", restored.Count())
	}
}

func TestRebuildLengthMismatch(t *testing.T) {
	idx, _ := newTestIndex(t, 2)
	err := idx.Rebuild(context.Background(), [][]float32{{1, 0}}, []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx, _ := newTestIndex(t, 2)
	ctx := context.Background()
	if _, err := idx.Add(ctx, []float32{1, 0}, "only"); err != nil {
		t.Fatalf("add: %v", err)
	}
	hits, _ := idx.Search([]float32{1, 0}, 50)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}
