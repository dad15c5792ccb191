// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package experience

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/placementlabs/archivus/internal/logging"
)

// TopicEnrichment carries enrichment requests from the synchronous
// ingestion path to the background consumer.
const TopicEnrichment = "experience.enrich"

// Enrichment kinds.
const (
	// KindCreate runs the full pipeline: extraction, classification,
	// summary, embedding.
	KindCreate = "create"
	// KindQuestions re-classifies user questions added after
	// submission and refreshes the embedding.
	KindQuestions = "questions"
)

// EnrichmentRequested is the bus payload for one enrichment job.
type EnrichmentRequested struct {
	ExperienceID string `json:"experience_id"`
	Kind         string `json:"kind"`
}

// NewBus builds the in-process pub/sub used between ingestion and the
// enrichment consumer. Fire-and-forget: messages published with no
// subscriber running are dropped, which matches enrichment's
// best-effort contract (a failed job leaves nlp_status pending or
// failed, never blocks the submit).
func NewBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		logging.NewWatermillAdapter(),
	)
}

func publishEnrichment(pub message.Publisher, ev EnrichmentRequested) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode enrichment event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := pub.Publish(TopicEnrichment, msg); err != nil {
		return fmt.Errorf("publish enrichment event: %w", err)
	}
	return nil
}
