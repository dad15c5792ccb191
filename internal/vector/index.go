// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package vector implements the in-process similarity index backing
// semantic search. Vectors are unit-normalized float32 slices compared
// by inner product, which equals cosine similarity after normalization.
// The index is small enough that a brute-force scan beats the cost and
// operational weight of an approximate structure.
package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/placementlabs/archivus/internal/logging"
)

// ErrDimensionMismatch is returned when a vector's length does not
// match the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hit is one search result: the external document ID and its
// similarity score in [-1, 1].
type Hit struct {
	ID    string
	Score float32
}

// Index is an append-only flat index. vectors[i] corresponds to
// mapping[i]; both grow together under mu and are persisted together,
// so a restart can never observe one without the other.
type Index struct {
	mu      sync.Mutex
	dim     int
	vectors [][]float32
	mapping []string
	store   Persister
}

// Persister saves and restores index snapshots. The document store
// satisfies it through the adapter in persist.go.
type Persister interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	LoadSnapshot(ctx context.Context) (Snapshot, bool, error)
}

// New creates an empty index of the given dimension.
func New(dim int, store Persister) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	return &Index{dim: dim, store: store}, nil
}

// Load restores the persisted snapshot, if any. A snapshot whose
// mapping length disagrees with its vector count is corrupt; the index
// starts empty and logs the condition so an operator can trigger a
// rebuild.
func (idx *Index) Load(ctx context.Context) error {
	if idx.store == nil {
		return nil
	}
	snap, found, err := idx.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load vector snapshot: %w", err)
	}
	if !found {
		logging.Info().Int("dim", idx.dim).Msg("no vector snapshot found, starting empty")
		return nil
	}
	if snap.Dim != idx.dim {
		logging.Warn().
			Int("snapshot_dim", snap.Dim).
			Int("configured_dim", idx.dim).
			Msg("vector snapshot dimension mismatch, starting empty")
		return nil
	}
	if len(snap.Mapping) != len(snap.Vectors) {
		logging.Warn().
			Int("vectors", len(snap.Vectors)).
			Int("mapping", len(snap.Mapping)).
			Msg("vector snapshot corrupt, starting empty until rebuild")
		return nil
	}

	idx.mu.Lock()
	idx.vectors = snap.Vectors
	idx.mapping = snap.Mapping
	idx.mu.Unlock()

	logging.Info().Int("count", len(snap.Vectors)).Msg("vector index restored")
	return nil
}

// Add normalizes vec, appends it with its external ID, persists the
// snapshot synchronously, and returns the assigned ordinal.
func (idx *Index) Add(ctx context.Context, vec []float32, externalID string) (int, error) {
	if len(vec) != idx.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), idx.dim)
	}
	normalized := normalize(vec)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vectors = append(idx.vectors, normalized)
	idx.mapping = append(idx.mapping, externalID)
	ordinal := len(idx.vectors) - 1

	if err := idx.persistLocked(ctx); err != nil {
		// Roll back the append so memory and disk stay consistent.
		idx.vectors = idx.vectors[:ordinal]
		idx.mapping = idx.mapping[:ordinal]
		return 0, fmt.Errorf("persist after add: %w", err)
	}
	return ordinal, nil
}

// Search returns up to k hits ordered by descending score. An empty
// index or non-positive k yields an empty slice. Ordinals missing a
// mapping entry are skipped rather than surfaced.
func (idx *Index) Search(vec []float32, k int) ([]Hit, error) {
	if len(vec) != idx.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), idx.dim)
	}
	if k <= 0 {
		return []Hit{}, nil
	}
	query := normalize(vec)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.vectors) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		if i >= len(idx.mapping) {
			break
		}
		hits = append(hits, Hit{ID: idx.mapping[i], Score: dot(query, v)})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Rebuild replaces the index contents wholesale and persists the new
// snapshot. Used after bulk re-embedding.
func (idx *Index) Rebuild(ctx context.Context, vecs [][]float32, ids []string) error {
	if len(vecs) != len(ids) {
		return fmt.Errorf("rebuild: %d vectors but %d ids", len(vecs), len(ids))
	}
	normalized := make([][]float32, len(vecs))
	for i, v := range vecs {
		if len(v) != idx.dim {
			return fmt.Errorf("%w at position %d: got %d, want %d", ErrDimensionMismatch, i, len(v), idx.dim)
		}
		normalized[i] = normalize(v)
	}
	mapping := make([]string, len(ids))
	copy(mapping, ids)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	oldVectors, oldMapping := idx.vectors, idx.mapping
	idx.vectors = normalized
	idx.mapping = mapping

	if err := idx.persistLocked(ctx); err != nil {
		idx.vectors, idx.mapping = oldVectors, oldMapping
		return fmt.Errorf("persist after rebuild: %w", err)
	}
	logging.Info().Int("count", len(normalized)).Msg("vector index rebuilt")
	return nil
}

// Count reports the number of indexed vectors.
func (idx *Index) Count() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.vectors)
}

// Dim reports the index dimension.
func (idx *Index) Dim() int {
	return idx.dim
}

func (idx *Index) persistLocked(ctx context.Context) error {
	if idx.store == nil {
		return nil
	}
	return idx.store.SaveSnapshot(ctx, Snapshot{
		Dim:     idx.dim,
		Vectors: idx.vectors,
		Mapping: idx.mapping,
	})
}

// normalize returns a unit-length copy of v. The zero vector is
// returned as an all-zero copy so it scores zero against everything.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
