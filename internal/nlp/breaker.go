// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package nlp

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/placementlabs/archivus/internal/logging"
)

// BreakerConfig tunes the embedding circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// circuit.
	FailureThreshold uint32
	// ResetTimeout is how long the circuit stays open before probing.
	ResetTimeout time.Duration
}

// BreakerEmbedder wraps an Embedder in a circuit breaker so a
// misbehaving embedding backend fails fast instead of stalling every
// enrichment worker. The default hashing embedder never trips it, but
// swapping in a remote embedder keeps the same protection.
type BreakerEmbedder struct {
	inner   Embedder
	breaker *gobreaker.CircuitBreaker[[]float32]
}

// NewBreakerEmbedder wraps inner with the given breaker settings.
func NewBreakerEmbedder(inner Embedder, cfg BreakerConfig) *BreakerEmbedder {
	settings := gobreaker.Settings{
		Name:    "embedder",
		Timeout: cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedder circuit breaker state change")
		},
	}
	return &BreakerEmbedder{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[[]float32](settings),
	}
}

// Embed delegates through the breaker. While the circuit is open the
// call returns gobreaker.ErrOpenState without touching the backend.
func (e *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.breaker.Execute(func() ([]float32, error) {
		return e.inner.Embed(ctx, text)
	})
}

// Dim reports the wrapped embedder's dimension.
func (e *BreakerEmbedder) Dim() int { return e.inner.Dim() }
