// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package experience owns the interview-experience lifecycle: the
// synchronous ingestion write, the background enrichment that extracts
// and classifies questions, and the metadata operations contributors
// run on their own records. Ingestion never waits on enrichment; a
// submitted record is readable immediately with nlp_status "pending".
package experience

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/nlp"
	"github.com/placementlabs/archivus/internal/store"
	"github.com/placementlabs/archivus/internal/vector"
)

// mineLimit bounds the per-user listing.
const mineLimit = 100

// StatsInvalidator drops cached aggregate analytics after a write.
type StatsInvalidator interface {
	Invalidate()
}

// SearchInvalidator drops cached search pages after a write.
type SearchInvalidator interface {
	InvalidateCache()
}

// Service implements the experience lifecycle over the document store,
// the vector index, and the enrichment bus.
type Service struct {
	store     *store.Store
	pipeline  *nlp.Pipeline
	index     *vector.Index
	publisher message.Publisher
	stats     StatsInvalidator
	search    SearchInvalidator
	now       func() time.Time
}

// NewService wires the experience service. The invalidators may be nil
// when the corresponding subsystem is not running.
func NewService(st *store.Store, pipeline *nlp.Pipeline, idx *vector.Index, pub message.Publisher, stats StatsInvalidator, search SearchInvalidator) *Service {
	return &Service{
		store:     st,
		pipeline:  pipeline,
		index:     idx,
		publisher: pub,
		stats:     stats,
		search:    search,
		now:       time.Now,
	}
}

// CreateInput is one interview-experience submission.
type CreateInput struct {
	Company         string   `json:"company"`
	Role            string   `json:"role"`
	Year            int      `json:"year"`
	Round           string   `json:"round"`
	Difficulty      string   `json:"difficulty"`
	RawText         string   `json:"raw_text"`
	Questions       []string `json:"questions"`
	IsAnonymous     bool     `json:"is_anonymous"`
	ShowName        bool     `json:"show_name"`
	AllowContact    bool     `json:"allow_contact"`
	ContactLinkedIn string   `json:"contact_linkedin"`
	ContactEmail    string   `json:"contact_email"`
}

// Create persists a submission and schedules background enrichment.
// User-provided questions are stored verbatim with full confidence so
// later pipeline passes can classify but never rewrite them. The first
// submission upgrades a viewer to contributor.
func (s *Service) Create(ctx context.Context, user models.User, in CreateInput) (*models.Experience, error) {
	company := strings.TrimSpace(in.Company)
	role := strings.TrimSpace(in.Role)
	rawText := strings.TrimSpace(in.RawText)
	if company == "" || role == "" || rawText == "" {
		return nil, fmt.Errorf("%w: company, role, and raw_text are required", models.ErrValidation)
	}

	id := store.NewID()
	ts := store.Timestamp(s.now())

	userQuestions := make([]models.Question, 0, len(in.Questions))
	for _, text := range in.Questions {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		userQuestions = append(userQuestions, models.Question{
			QuestionText: text,
			Topic:        "General",
			Category:     "theory",
			Confidence:   1.0,
			QuestionType: "user_provided",
			Source:       models.SourceUser,
			CreatedAt:    ts,
		})
	}

	displayName := user.DisplayName
	if displayName == "" {
		displayName = models.DeriveDisplayName(user.Name)
	}

	exp := models.Experience{
		ID:                 id,
		Company:            company,
		Role:               role,
		Year:               in.Year,
		Round:              strings.TrimSpace(in.Round),
		Difficulty:         strings.TrimSpace(in.Difficulty),
		RawText:            rawText,
		ExtractedQuestions: userQuestions,
		Questions: models.QuestionSet{
			UserProvided: userQuestions,
			AIExtracted:  []models.Question{},
		},
		Stats: models.QuestionStats{
			UserQuestionCount:  len(userQuestions),
			TotalQuestionCount: len(userQuestions),
		},
		Topics:      []string{},
		CreatedBy:   user.UID,
		ShowName:    in.ShowName,
		IsAnonymous: in.IsAnonymous,
		IsActive:    true,
		NLPStatus:   models.EnrichmentPending,
		EditHistory: []models.EditEntry{
			historyEntry(ts, "experience", "created", nil, nil),
		},
	}

	if in.IsAnonymous {
		exp.Author = models.Author{Visibility: models.VisibilityAnonymous}
		exp.ShowName = false
	} else {
		exp.Author = models.Author{
			UID:         user.UID,
			Visibility:  models.VisibilityPublic,
			PublicLabel: displayName,
		}
		if in.ShowName {
			exp.ContributorName = displayName
		}
		exp.AllowContact = in.AllowContact
		if in.AllowContact {
			exp.ContactLinkedIn = strings.TrimSpace(in.ContactLinkedIn)
			exp.ContactEmail = strings.TrimSpace(in.ContactEmail)
		}
	}

	doc, err := store.DocumentFrom(exp)
	if err != nil {
		return nil, fmt.Errorf("encode experience: %w", err)
	}
	doc["created_at"] = store.ServerTimestamp()

	batch := s.store.Batch()
	batch.Set(models.CollectionExperiences, id, doc)
	if user.Role == models.RoleViewer {
		batch.Upsert(models.CollectionUsers, user.UID, map[string]any{
			"role": models.RoleContributor,
		})
	}
	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("persist experience: %w", err)
	}

	s.publish(EnrichmentRequested{ExperienceID: id, Kind: KindCreate})

	stored, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	maskOwner(stored)
	return stored, nil
}

// Get returns one experience. Inactive records are visible only to
// their creator; anonymous records hide the creator from everyone else.
func (s *Service) Get(ctx context.Context, id, viewerUID string) (*models.Experience, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exp.IsActive && exp.CreatedBy != viewerUID {
		return nil, models.ErrNotFound
	}
	if exp.CreatedBy != viewerUID {
		maskOwner(exp)
	}
	return exp, nil
}

// Mine lists the caller's own submissions newest first, soft-deleted
// ones included so they can be restored.
func (s *Service) Mine(ctx context.Context, uid string) ([]models.Experience, error) {
	results, err := s.store.Query(models.CollectionExperiences).
		Where("created_by", store.OpEqual, uid).
		OrderBy("created_at", true).
		Limit(mineLimit).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list own experiences: %w", err)
	}
	out := make([]models.Experience, 0, len(results))
	for _, res := range results {
		var exp models.Experience
		if err := store.Decode(res.Doc, &exp); err != nil {
			logging.Warn().Err(err).Str("experience_id", res.ID).Msg("skipping undecodable experience")
			continue
		}
		exp.ID = res.ID
		out = append(out, exp)
	}
	return out, nil
}

// SoftDelete hides an experience from search and analytics without
// destroying it. Idempotent.
func (s *Service) SoftDelete(ctx context.Context, id, uid string) error {
	return s.setActive(ctx, id, uid, false)
}

// Restore reverses a soft delete. Idempotent.
func (s *Service) Restore(ctx context.Context, id, uid string) error {
	return s.setActive(ctx, id, uid, true)
}

func (s *Service) setActive(ctx context.Context, id, uid string, active bool) error {
	exp, err := s.ownedExperience(ctx, id, uid)
	if err != nil {
		return err
	}
	if exp.IsActive == active {
		return nil
	}
	oldVal := strconv.FormatBool(exp.IsActive)
	newVal := strconv.FormatBool(active)
	history := append(exp.EditHistory,
		historyEntry(store.Timestamp(s.now()), "is_active", "visibility_change", &oldVal, &newVal))
	err = s.store.Update(ctx, models.CollectionExperiences, id, map[string]any{
		"is_active":    active,
		"edit_history": history,
	}, false)
	if err != nil {
		return fmt.Errorf("update visibility: %w", err)
	}
	s.invalidate()
	return nil
}

// MetadataPatch carries the mutable experience metadata. Nil fields are
// left untouched; everything else on the record is immutable after
// submission.
type MetadataPatch struct {
	Role       *string `json:"role"`
	Year       *int    `json:"year"`
	Round      *string `json:"round"`
	Difficulty *string `json:"difficulty"`
}

// PatchMetadata applies a partial metadata update with a per-field
// audit trail. A patch that changes nothing is rejected.
func (s *Service) PatchMetadata(ctx context.Context, id, uid string, patch MetadataPatch) (*models.Experience, error) {
	exp, err := s.ownedExperience(ctx, id, uid)
	if err != nil {
		return nil, err
	}

	ts := store.Timestamp(s.now())
	updates := map[string]any{}
	history := exp.EditHistory

	setString := func(field string, current string, next *string) {
		if next == nil {
			return
		}
		val := strings.TrimSpace(*next)
		if val == current {
			return
		}
		updates[field] = val
		old := current
		history = append(history, historyEntry(ts, field, "metadata_change", &old, &val))
	}
	setString("role", exp.Role, patch.Role)
	setString("round", exp.Round, patch.Round)
	setString("difficulty", exp.Difficulty, patch.Difficulty)
	if patch.Year != nil && *patch.Year != exp.Year {
		updates["year"] = *patch.Year
		old := strconv.Itoa(exp.Year)
		val := strconv.Itoa(*patch.Year)
		history = append(history, historyEntry(ts, "year", "metadata_change", &old, &val))
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields in patch", models.ErrValidation)
	}
	updates["edit_history"] = history

	if err := s.store.Update(ctx, models.CollectionExperiences, id, updates, false); err != nil {
		return nil, fmt.Errorf("patch metadata: %w", err)
	}
	s.invalidate()
	return s.load(ctx, id)
}

// minAddedQuestionLength rejects stub entries like "Q1".
const minAddedQuestionLength = 5

// AddQuestions appends user-remembered questions to an existing
// experience. The write is synchronous and verbatim; classification and
// re-embedding happen on the bus afterwards.
func (s *Service) AddQuestions(ctx context.Context, id, uid string, texts []string) (*models.Experience, error) {
	exp, err := s.ownedExperience(ctx, id, uid)
	if err != nil {
		return nil, err
	}
	if !exp.IsActive {
		return nil, models.ErrNotFound
	}

	ts := store.Timestamp(s.now())
	added := make([]models.Question, 0, len(texts))
	for _, text := range texts {
		text = strings.TrimSpace(text)
		if len(text) < minAddedQuestionLength {
			continue
		}
		added = append(added, models.Question{
			QuestionText: text,
			Topic:        "General",
			Category:     "theory",
			Confidence:   1.0,
			QuestionType: "user_provided",
			Source:       models.SourceUser,
			AddedLater:   true,
			CreatedAt:    ts,
		})
	}
	if len(added) == 0 {
		return nil, fmt.Errorf("%w: no valid questions to add", models.ErrValidation)
	}

	userQuestions := append(exp.Questions.UserProvided, added...)
	flat := flatQuestions(userQuestions, exp.Questions.AIExtracted)
	count := strconv.Itoa(len(added))
	history := append(exp.EditHistory, historyEntry(ts, "questions", "added_later", nil, &count))

	err = s.store.Update(ctx, models.CollectionExperiences, id, map[string]any{
		"questions.user_provided": userQuestions,
		"extracted_questions":     flat,
		"stats": map[string]any{
			"user_question_count":      len(userQuestions),
			"extracted_question_count": len(exp.Questions.AIExtracted),
			"total_question_count":     len(userQuestions) + len(exp.Questions.AIExtracted),
		},
		"edit_history": history,
	}, false)
	if err != nil {
		return nil, fmt.Errorf("append questions: %w", err)
	}

	s.publish(EnrichmentRequested{ExperienceID: id, Kind: KindQuestions})
	s.invalidate()
	return s.load(ctx, id)
}

// RebuildIndex re-embeds every active experience and swaps in a fresh
// vector index, then rewrites each record's embedding ordinal. Returns
// how many experiences were indexed.
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	results, err := s.store.Query(models.CollectionExperiences).Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan experiences: %w", err)
	}

	var vecs [][]float32
	var ids []string
	for _, res := range results {
		var exp models.Experience
		if err := store.Decode(res.Doc, &exp); err != nil {
			continue
		}
		if active, ok := res.Doc["is_active"].(bool); ok && !active {
			continue
		}
		exp.ID = res.ID
		vec, err := s.pipeline.Embed(ctx, fullContext(&exp))
		if err != nil {
			return 0, fmt.Errorf("embed experience %s: %w", res.ID, err)
		}
		vecs = append(vecs, vec)
		ids = append(ids, res.ID)
	}

	if err := s.index.Rebuild(ctx, vecs, ids); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	batch := s.store.Batch()
	for ordinal, id := range ids {
		batch.Update(models.CollectionExperiences, id, map[string]any{
			"embedding_id": ordinal,
		})
	}
	if batch.Len() > 0 {
		if err := batch.Commit(ctx); err != nil {
			return 0, fmt.Errorf("record embedding ordinals: %w", err)
		}
	}
	s.invalidate()
	return len(ids), nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Experience, error) {
	doc, err := s.store.Get(ctx, models.CollectionExperiences, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("load experience: %w", err)
	}
	var exp models.Experience
	if err := store.Decode(doc, &exp); err != nil {
		return nil, fmt.Errorf("decode experience: %w", err)
	}
	exp.ID = id
	return &exp, nil
}

func (s *Service) ownedExperience(ctx context.Context, id, uid string) (*models.Experience, error) {
	exp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp.CreatedBy != uid {
		return nil, models.ErrForbidden
	}
	return exp, nil
}

func (s *Service) publish(ev EnrichmentRequested) {
	if s.publisher == nil {
		return
	}
	if err := publishEnrichment(s.publisher, ev); err != nil {
		logging.Error().Err(err).
			Str("experience_id", ev.ExperienceID).
			Str("kind", ev.Kind).
			Msg("failed to schedule enrichment")
	}
}

func (s *Service) invalidate() {
	if s.stats != nil {
		s.stats.Invalidate()
	}
	if s.search != nil {
		s.search.InvalidateCache()
	}
}

// maskOwner hides the creator of anonymous submissions. The stored
// document keeps the real uid for moderation.
func maskOwner(exp *models.Experience) {
	if exp.IsAnonymous {
		exp.CreatedBy = models.AnonymousDisplayID
	}
}

// flatQuestions is the legacy flat view: user-provided first, then
// AI-extracted.
func flatQuestions(user, ai []models.Question) []models.Question {
	out := make([]models.Question, 0, len(user)+len(ai))
	out = append(out, user...)
	out = append(out, ai...)
	return out
}

// fullContext is the text an experience is embedded from: the narrative
// plus every question, so question-heavy records stay searchable.
func fullContext(exp *models.Experience) string {
	var sb strings.Builder
	sb.WriteString(exp.RawText)
	for _, q := range exp.AllQuestions() {
		sb.WriteString(" ")
		sb.WriteString(q.QuestionText)
	}
	return sb.String()
}

// questionTopics collects the non-General topics across a question set,
// sorted for stable storage.
func questionTopics(existing []string, questions []models.Question) []string {
	set := make(map[string]struct{})
	for _, t := range existing {
		if t != "" && t != "General" {
			set[t] = struct{}{}
		}
	}
	for _, q := range questions {
		if q.Topic != "" && q.Topic != "General" {
			set[q.Topic] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func historyEntry(ts, field, action string, oldVal, newVal *string) models.EditEntry {
	return models.EditEntry{
		Timestamp: ts,
		Field:     field,
		Action:    action,
		OldValue:  oldVal,
		NewValue:  newVal,
	}
}
