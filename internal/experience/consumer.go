// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package experience

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/metrics"
)

// defaultJobRate caps enrichment throughput so a burst of submissions
// cannot starve the API goroutines of CPU during embedding.
const defaultJobRate = rate.Limit(4)

// Consumer drains the enrichment topic and runs jobs one at a time.
// It implements suture.Service so the supervisor restarts it if the
// subscription drops.
type Consumer struct {
	subscriber message.Subscriber
	service    *Service
	limiter    *rate.Limiter
}

// NewConsumer builds the enrichment consumer over a bus subscriber.
// Jobs are paced at a few per second with a small burst allowance.
func NewConsumer(sub message.Subscriber, svc *Service) *Consumer {
	return &Consumer{
		subscriber: sub,
		service:    svc,
		limiter:    rate.NewLimiter(defaultJobRate, 8),
	}
}

// Serve blocks until ctx is canceled, processing enrichment requests.
// Every message is acked: a failed job is recorded on the document, and
// redelivering it would fail the same way.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, TopicEnrichment)
	if err != nil {
		return err
	}
	logging.Info().Str("topic", TopicEnrichment).Msg("enrichment consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			if err := c.limiter.Wait(ctx); err != nil {
				msg.Ack()
				return err
			}
			c.handle(ctx, msg)
			msg.Ack()
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	var ev EnrichmentRequested
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		logging.Error().Err(err).Str("message_id", msg.UUID).Msg("dropping malformed enrichment event")
		metrics.EnrichmentJobsTotal.WithLabelValues("unknown", "malformed").Inc()
		return
	}

	var err error
	switch ev.Kind {
	case KindCreate:
		err = c.service.Enrich(ctx, ev.ExperienceID)
	case KindQuestions:
		err = c.service.EnrichQuestions(ctx, ev.ExperienceID)
	default:
		logging.Warn().Str("kind", ev.Kind).Str("experience_id", ev.ExperienceID).
			Msg("dropping enrichment event with unknown kind")
		metrics.EnrichmentJobsTotal.WithLabelValues(ev.Kind, "dropped").Inc()
		return
	}
	if err != nil {
		logging.Error().Err(err).
			Str("experience_id", ev.ExperienceID).
			Str("kind", ev.Kind).
			Msg("enrichment handler error")
		metrics.EnrichmentJobsTotal.WithLabelValues(ev.Kind, "error").Inc()
		return
	}
	metrics.EnrichmentJobsTotal.WithLabelValues(ev.Kind, "ok").Inc()
	metrics.VectorIndexSize.Set(float64(c.service.index.Count()))
}

// String names the service in supervisor logs.
func (c *Consumer) String() string { return "experience-enrichment-consumer" }
