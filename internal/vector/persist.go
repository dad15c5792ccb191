// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package vector

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

// Snapshot is the persisted form of the index. Vectors are packed as
// little-endian float32 and base64-encoded into a single field so the
// whole index round-trips through one document write.
type Snapshot struct {
	Dim     int
	Vectors [][]float32
	Mapping []string
}

const snapshotDocID = "vector_index"

// StorePersister persists snapshots in the metadata collection.
type StorePersister struct {
	store *store.Store
}

// NewStorePersister wraps the document store as a Persister.
func NewStorePersister(s *store.Store) *StorePersister {
	return &StorePersister{store: s}
}

// SaveSnapshot writes the full snapshot document, replacing the
// previous one.
func (p *StorePersister) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	return p.store.Set(ctx, models.CollectionMetadata, snapshotDocID, map[string]any{
		"dimension":  snap.Dim,
		"count":      len(snap.Vectors),
		"vectors":    encodeVectors(snap.Vectors),
		"mapping":    snap.Mapping,
		"updated_at": store.ServerTimestamp(),
	})
}

// LoadSnapshot reads the snapshot document. found is false when no
// snapshot has ever been written.
func (p *StorePersister) LoadSnapshot(ctx context.Context) (Snapshot, bool, error) {
	doc, err := p.store.Get(ctx, models.CollectionMetadata, snapshotDocID)
	if errors.Is(err, store.ErrNotFound) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}

	dim, _ := asInt(doc["dimension"])
	count, _ := asInt(doc["count"])

	encoded, _ := doc["vectors"].(string)
	vectors, err := decodeVectors(encoded, dim, count)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("decode vectors: %w", err)
	}

	var mapping []string
	if raw, ok := doc["mapping"].([]any); ok {
		mapping = make([]string, 0, len(raw))
		for _, v := range raw {
			s, _ := v.(string)
			mapping = append(mapping, s)
		}
	}

	return Snapshot{Dim: dim, Vectors: vectors, Mapping: mapping}, true, nil
}

func encodeVectors(vecs [][]float32) string {
	if len(vecs) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(vecs)*len(vecs[0])*4)
	var scratch [4]byte
	for _, v := range vecs {
		for _, x := range v {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(x))
			buf = append(buf, scratch[:]...)
		}
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeVectors(encoded string, dim, count int) ([][]float32, error) {
	if encoded == "" || dim <= 0 || count <= 0 {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	want := dim * count * 4
	if len(raw) != want {
		return nil, fmt.Errorf("payload is %d bytes, want %d for %d x %d", len(raw), want, count, dim)
	}
	vecs := make([][]float32, count)
	off := 0
	for i := range vecs {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
			off += 4
		}
		vecs[i] = v
	}
	return vecs, nil
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
