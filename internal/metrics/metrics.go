// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package metrics defines the Prometheus instrumentation for Archivus.
// All collectors are registered on the default registry and exposed on
// /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern, and
	// status class.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivus",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests processed, labeled by method, route, and status.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency per route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "archivus",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	// EnrichmentJobsTotal counts background enrichment outcomes.
	EnrichmentJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivus",
		Subsystem: "enrichment",
		Name:      "jobs_total",
		Help:      "Enrichment jobs processed, labeled by kind and outcome.",
	}, []string{"kind", "outcome"})

	// SearchesTotal counts search requests by mode.
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivus",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Search requests, labeled by mode.",
	}, []string{"mode"})

	// VectorIndexSize tracks the number of vectors held in memory.
	VectorIndexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "archivus",
		Subsystem: "vector",
		Name:      "index_size",
		Help:      "Vectors currently held by the similarity index.",
	})

	// CacheEvents counts hits and misses per cache.
	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archivus",
		Subsystem: "cache",
		Name:      "events_total",
		Help:      "Cache lookups, labeled by cache name and outcome.",
	}, []string{"cache", "outcome"})
)

// ObserveHTTPRequest records one completed request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
