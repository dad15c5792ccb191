// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package nlp

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Embedder turns text into a fixed-dimension vector. Implementations
// must be deterministic for identical input so that re-embedding a
// record on rebuild reproduces its position in the index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dim() int
}

var tokenRe = regexp.MustCompile(`[a-z0-9]+`)

// HashingEmbedder is the default in-process embedder. Tokens and token
// bigrams are hashed into a fixed number of buckets with a signed
// feature-hashing scheme, giving a cheap bag-of-words vector that
// still places texts sharing vocabulary near each other.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates an embedder producing dim-length vectors.
func NewHashingEmbedder(dim int) *HashingEmbedder {
	return &HashingEmbedder{dim: dim}
}

// Dim reports the output dimension.
func (e *HashingEmbedder) Dim() int { return e.dim }

// Embed hashes the text's tokens into a normalized vector. Empty or
// tokenless text yields the zero vector.
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return vec, nil
	}

	add := func(feature string) {
		h := fnv.New64a()
		h.Write([]byte(feature))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dim))
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[bucket] += sign
	}

	for i, tok := range tokens {
		add(tok)
		if i+1 < len(tokens) {
			add(tok + "_" + tokens[i+1])
		}
	}
	return normalize(vec), nil
}

// normalize scales v to unit length in place safe fashion, returning a
// zero vector unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		if i >= len(b) {
			break
		}
		sum += a[i] * b[i]
	}
	return sum
}
