// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package experience

import (
	"context"
	"errors"
	"fmt"

	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

// Enrich runs the full pipeline over one submission: AI question
// extraction, user-question classification, topic derivation, summary,
// and embedding, all folded into a single update that never touches
// identity or visibility fields. Failures mark the record "failed" and
// are swallowed so the bus never redelivers a poison job.
func (s *Service) Enrich(ctx context.Context, experienceID string) error {
	exp, err := s.load(ctx, experienceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logging.Warn().Str("experience_id", experienceID).Msg("enrichment target vanished")
			return nil
		}
		return s.markFailed(ctx, experienceID, err)
	}

	result, err := s.pipeline.Process(ctx, exp.RawText)
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("process narrative: %w", err))
	}

	ts := store.Timestamp(s.now())
	aiQuestions := result.Questions
	for i := range aiQuestions {
		aiQuestions[i].CreatedAt = ts
	}

	userQuestions := s.classifyUserQuestions(exp.Questions.UserProvided, ts)
	flat := flatQuestions(userQuestions, aiQuestions)
	topics := questionTopics(result.Topics, flat)

	vec, err := s.pipeline.Embed(ctx, fullContext(&models.Experience{
		RawText:   exp.RawText,
		Questions: models.QuestionSet{UserProvided: userQuestions, AIExtracted: aiQuestions},
	}))
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("embed context: %w", err))
	}
	ordinal, err := s.index.Add(ctx, vec, experienceID)
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("index experience: %w", err))
	}

	history := append(exp.EditHistory, historyEntry(ts, "nlp", "ai_enrichment", nil, nil))
	err = s.store.Update(ctx, models.CollectionExperiences, experienceID, map[string]any{
		"questions.user_provided": userQuestions,
		"questions.ai_extracted":  aiQuestions,
		"extracted_questions":     flat,
		"stats": map[string]any{
			"user_question_count":      len(userQuestions),
			"extracted_question_count": len(aiQuestions),
			"total_question_count":     len(flat),
		},
		"topics":       topics,
		"summary":      result.Summary,
		"embedding_id": ordinal,
		"nlp_status":   models.EnrichmentDone,
		"edit_history": history,
	}, false)
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("write enrichment: %w", err))
	}

	s.invalidate()
	logging.Info().
		Str("experience_id", experienceID).
		Int("ai_questions", len(aiQuestions)).
		Int("topics", len(topics)).
		Msg("experience enriched")
	return nil
}

// EnrichQuestions re-classifies user questions added after submission
// and refreshes the embedding so the new questions become searchable.
func (s *Service) EnrichQuestions(ctx context.Context, experienceID string) error {
	exp, err := s.load(ctx, experienceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logging.Warn().Str("experience_id", experienceID).Msg("enrichment target vanished")
			return nil
		}
		return err
	}

	ts := store.Timestamp(s.now())
	userQuestions := s.classifyUserQuestions(exp.Questions.UserProvided, ts)
	flat := flatQuestions(userQuestions, exp.Questions.AIExtracted)
	topics := questionTopics(exp.Topics, flat)

	vec, err := s.pipeline.Embed(ctx, fullContext(&models.Experience{
		RawText:   exp.RawText,
		Questions: models.QuestionSet{UserProvided: userQuestions, AIExtracted: exp.Questions.AIExtracted},
	}))
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("embed context: %w", err))
	}
	ordinal, err := s.index.Add(ctx, vec, experienceID)
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("index experience: %w", err))
	}

	err = s.store.Update(ctx, models.CollectionExperiences, experienceID, map[string]any{
		"questions.user_provided": userQuestions,
		"extracted_questions":     flat,
		"topics":                  topics,
		"embedding_id":            ordinal,
		"nlp_status":              models.EnrichmentDone,
	}, false)
	if err != nil {
		return s.markFailed(ctx, experienceID, fmt.Errorf("write question enrichment: %w", err))
	}

	s.invalidate()
	return nil
}

// classifyUserQuestions assigns topics to user questions that still
// carry the "General" placeholder. Text, source, and confidence are
// preserved verbatim; user questions are authoritative.
func (s *Service) classifyUserQuestions(questions []models.Question, ts string) []models.Question {
	out := make([]models.Question, len(questions))
	copy(out, questions)
	for i, q := range out {
		if q.Source != models.SourceUser || (q.Topic != "" && q.Topic != "General") {
			continue
		}
		c := s.pipeline.Classify(q.QuestionText)
		out[i].Topic = c.Topic
		out[i].Category = c.Category
		out[i].UpdatedAt = ts
	}
	return out
}

// markFailed records the failure on the document and logs it. The
// original submission stays intact and visible.
func (s *Service) markFailed(ctx context.Context, experienceID string, cause error) error {
	logging.Error().Err(cause).Str("experience_id", experienceID).Msg("enrichment failed")
	err := s.store.Update(ctx, models.CollectionExperiences, experienceID, map[string]any{
		"nlp_status": models.EnrichmentFailed,
	}, false)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.Error().Err(err).Str("experience_id", experienceID).Msg("could not record enrichment failure")
	}
	return nil
}
