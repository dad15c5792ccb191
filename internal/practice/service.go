// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package practice manages user practice lists and their questions.
// Parent lists carry denormalized roll-up counters (question count,
// status buckets, topic distribution) so list views never iterate
// children. Every child mutation commits the child write and the
// parent counter deltas in one atomic batch; revised_percent is a
// secondary write recomputed from a fresh parent read afterwards.
package practice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

// Service is the counter ledger over practice lists.
type Service struct {
	store *store.Store
	now   func() time.Time
}

// NewService builds the service.
func NewService(s *store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// CreateList creates an empty practice list owned by uid.
func (s *Service) CreateList(ctx context.Context, uid, name string) (*models.PracticeList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: list name required", models.ErrValidation)
	}

	list := models.PracticeList{
		ID:                store.NewID(),
		Name:              name,
		UserID:            uid,
		CreatedAt:         store.Timestamp(s.now()),
		TopicDistribution: map[string]int{},
	}
	fields, err := store.DocumentFrom(list)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")
	if err := s.store.Set(ctx, models.CollectionPracticeLists, list.ID, fields); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return &list, nil
}

// ListsFor returns uid's lists, newest first. Counter reads only; no
// child documents are touched.
func (s *Service) ListsFor(ctx context.Context, uid string) ([]models.PracticeList, error) {
	results, err := s.store.Query(models.CollectionPracticeLists).
		Where("user_id", store.OpEqual, uid).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list practice lists: %w", err)
	}

	lists := make([]models.PracticeList, 0, len(results))
	for _, r := range results {
		var list models.PracticeList
		if err := store.Decode(r.Doc, &list); err != nil {
			logging.Warn().Err(err).Str("id", r.ID).Msg("skipping undecodable practice list")
			continue
		}
		list.ID = r.ID
		lists = append(lists, list)
	}
	sort.Slice(lists, func(a, b int) bool { return lists[a].CreatedAt > lists[b].CreatedAt })
	return lists, nil
}

// RenameList renames an owned list.
func (s *Service) RenameList(ctx context.Context, uid, listID, name string) (*models.PracticeList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: list name required", models.ErrValidation)
	}
	list, err := s.ownedList(ctx, uid, listID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, models.CollectionPracticeLists, listID, map[string]any{"name": name}, false); err != nil {
		return nil, fmt.Errorf("rename list: %w", err)
	}
	list.Name = name
	return list, nil
}

// DeleteList removes a list and every question in it in one batch.
func (s *Service) DeleteList(ctx context.Context, uid, listID string) error {
	if _, err := s.ownedList(ctx, uid, listID); err != nil {
		return err
	}
	children, err := s.childQuestions(ctx, listID)
	if err != nil {
		return err
	}

	batch := s.store.Batch()
	for _, child := range children {
		batch.Delete(models.CollectionPracticeQuestions, child.ID)
	}
	batch.Delete(models.CollectionPracticeLists, listID)
	if err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

// Questions returns an owned list's questions, newest first.
func (s *Service) Questions(ctx context.Context, uid, listID string) ([]models.PracticeQuestion, error) {
	if _, err := s.ownedList(ctx, uid, listID); err != nil {
		return nil, err
	}
	results, err := s.childQuestions(ctx, listID)
	if err != nil {
		return nil, err
	}

	questions := make([]models.PracticeQuestion, 0, len(results))
	for _, r := range results {
		var q models.PracticeQuestion
		if err := store.Decode(r.Doc, &q); err != nil {
			continue
		}
		q.ID = r.ID
		questions = append(questions, q)
	}
	sort.Slice(questions, func(a, b int) bool { return questions[a].CreatedAt > questions[b].CreatedAt })
	return questions, nil
}

// QuestionInput is the payload for adding a question to a list.
type QuestionInput struct {
	QuestionText       string
	Topic              string
	Difficulty         string
	Source             string
	SourceExperienceID string
	SourceCompany      string
}

// AddQuestion appends a question to an owned list. The child create
// and the parent counter increments commit in one batch; the new
// question always starts unvisited.
func (s *Service) AddQuestion(ctx context.Context, uid, listID string, input QuestionInput) (*models.PracticeQuestion, error) {
	if strings.TrimSpace(input.QuestionText) == "" {
		return nil, fmt.Errorf("%w: question text required", models.ErrValidation)
	}
	if _, err := s.ownedList(ctx, uid, listID); err != nil {
		return nil, err
	}

	topic := input.Topic
	if topic == "" {
		topic = "General"
	}
	source := input.Source
	if source == "" {
		source = "manual"
	}
	q := models.PracticeQuestion{
		ID:                 store.NewID(),
		ListID:             listID,
		QuestionText:       strings.TrimSpace(input.QuestionText),
		Topic:              topic,
		Difficulty:         input.Difficulty,
		Status:             models.StatusUnvisited,
		Source:             source,
		SourceExperienceID: input.SourceExperienceID,
		SourceCompany:      input.SourceCompany,
		CreatedAt:          store.Timestamp(s.now()),
	}
	fields, err := store.DocumentFrom(q)
	if err != nil {
		return nil, err
	}
	delete(fields, "id")

	err = s.store.Batch().
		Set(models.CollectionPracticeQuestions, q.ID, fields).
		Update(models.CollectionPracticeLists, listID, map[string]any{
			"question_count":              store.Increment(1),
			"unvisited_count":             store.Increment(1),
			"topic_distribution." + topic: store.Increment(1),
		}).
		Commit(ctx)
	if err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}

	s.finalizeCounters(ctx, listID)
	return &q, nil
}

// QuestionUpdate carries optional field changes; nil means unchanged.
type QuestionUpdate struct {
	QuestionText *string
	Topic        *string
	Difficulty   *string
	Status       *string
}

// UpdateQuestion applies a partial update to an owned question. A
// status change moves one count between buckets, and a topic change in
// the same call moves one count between topics, all in the same batch
// as the child write.
func (s *Service) UpdateQuestion(ctx context.Context, uid, listID, questionID string, update QuestionUpdate) (*models.PracticeQuestion, error) {
	if _, err := s.ownedList(ctx, uid, listID); err != nil {
		return nil, err
	}
	current, err := s.ownedQuestion(ctx, listID, questionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if update.QuestionText != nil {
		updates["question_text"] = *update.QuestionText
	}
	if update.Topic != nil {
		updates["topic"] = *update.Topic
	}
	if update.Difficulty != nil {
		updates["difficulty"] = *update.Difficulty
	}
	if update.Status != nil {
		if models.StatusCounterField(*update.Status) == "" {
			return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, *update.Status)
		}
		updates["status"] = *update.Status
	}
	if len(updates) == 0 {
		return current, nil
	}

	oldStatus := statusOrDefault(current.Status)
	oldTopic := topicOrDefault(current.Topic)
	newStatus := oldStatus
	if update.Status != nil {
		newStatus = *update.Status
	}
	newTopic := oldTopic
	if update.Topic != nil && *update.Topic != "" {
		newTopic = *update.Topic
	}

	if newStatus != oldStatus {
		counterUpdates := map[string]any{
			models.StatusCounterField(oldStatus): store.Increment(-1),
			models.StatusCounterField(newStatus): store.Increment(1),
		}
		if newTopic != oldTopic {
			counterUpdates["topic_distribution."+oldTopic] = store.Increment(-1)
			counterUpdates["topic_distribution."+newTopic] = store.Increment(1)
		}
		err = s.store.Batch().
			Update(models.CollectionPracticeQuestions, questionID, updates).
			Update(models.CollectionPracticeLists, listID, counterUpdates).
			Commit(ctx)
		if err != nil {
			return nil, fmt.Errorf("update question: %w", err)
		}
		s.finalizeCounters(ctx, listID)
	} else {
		if err := s.store.Update(ctx, models.CollectionPracticeQuestions, questionID, updates, false); err != nil {
			return nil, fmt.Errorf("update question: %w", err)
		}
		if newTopic != oldTopic {
			if err := s.store.Update(ctx, models.CollectionPracticeLists, listID, map[string]any{
				"topic_distribution." + oldTopic: store.Increment(-1),
				"topic_distribution." + newTopic: store.Increment(1),
			}, false); err != nil {
				return nil, fmt.Errorf("update topic counters: %w", err)
			}
			s.finalizeCounters(ctx, listID)
		}
	}

	return s.ownedQuestion(ctx, listID, questionID)
}

// DeleteQuestion removes a question and decrements the parent's
// question count, status bucket, and topic counter in one batch.
func (s *Service) DeleteQuestion(ctx context.Context, uid, listID, questionID string) error {
	if _, err := s.ownedList(ctx, uid, listID); err != nil {
		return err
	}
	current, err := s.ownedQuestion(ctx, listID, questionID)
	if err != nil {
		return err
	}

	err = s.store.Batch().
		Delete(models.CollectionPracticeQuestions, questionID).
		Update(models.CollectionPracticeLists, listID, map[string]any{
			"question_count": store.Increment(-1),
			models.StatusCounterField(statusOrDefault(current.Status)): store.Increment(-1),
			"topic_distribution." + topicOrDefault(current.Topic):      store.Increment(-1),
		}).
		Commit(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	s.finalizeCounters(ctx, listID)
	return nil
}

// finalizeCounters recomputes revised_percent from a fresh parent read
// and drops topic counters that reached zero. Best-effort: the batched
// counters are already correct, this write only repairs derived data.
func (s *Service) finalizeCounters(ctx context.Context, listID string) {
	doc, err := s.store.Get(ctx, models.CollectionPracticeLists, listID)
	if err != nil {
		logging.Warn().Err(err).Str("list_id", listID).Msg("revised_percent refresh skipped")
		return
	}
	var list models.PracticeList
	if err := store.Decode(doc, &list); err != nil {
		return
	}

	fixups := map[string]any{
		"revised_percent": revisedPercent(list.RevisedCount, list.QuestionCount),
	}
	for topic, count := range list.TopicDistribution {
		if count <= 0 {
			fixups["topic_distribution."+topic] = store.Delete()
		}
	}
	if err := s.store.Update(ctx, models.CollectionPracticeLists, listID, fixups, false); err != nil {
		logging.Warn().Err(err).Str("list_id", listID).Msg("revised_percent refresh failed")
	}
}

// Reconcile rescans every list's children and rewrites the roll-up
// counters from scratch. Idempotent; run at startup to repair counters
// left stale by interrupted writes or older code paths. Returns the
// number of lists repaired.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	lists, err := s.store.Query(models.CollectionPracticeLists).Documents(ctx)
	if err != nil {
		return 0, fmt.Errorf("scan practice lists: %w", err)
	}

	repaired := 0
	for _, l := range lists {
		children, err := s.childQuestions(ctx, l.ID)
		if err != nil {
			return repaired, err
		}

		counters := map[string]int{
			models.StatusUnvisited:  0,
			models.StatusPracticing: 0,
			models.StatusRevised:    0,
		}
		topics := map[string]int{}
		for _, child := range children {
			var q models.PracticeQuestion
			if err := store.Decode(child.Doc, &q); err != nil {
				continue
			}
			counters[statusOrDefault(q.Status)]++
			topics[topicOrDefault(q.Topic)]++
		}

		total := len(children)
		fields := map[string]any{
			"question_count":     total,
			"unvisited_count":    counters[models.StatusUnvisited],
			"practicing_count":   counters[models.StatusPracticing],
			"revised_count":      counters[models.StatusRevised],
			"topic_distribution": topics,
			"revised_percent":    revisedPercent(counters[models.StatusRevised], total),
		}
		if err := s.store.Update(ctx, models.CollectionPracticeLists, l.ID, fields, false); err != nil {
			return repaired, fmt.Errorf("repair list %s: %w", l.ID, err)
		}
		repaired++
	}
	if repaired > 0 {
		logging.Info().Int("lists", repaired).Msg("practice list counters reconciled")
	}
	return repaired, nil
}

func (s *Service) ownedList(ctx context.Context, uid, listID string) (*models.PracticeList, error) {
	doc, err := s.store.Get(ctx, models.CollectionPracticeLists, listID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("list %s: %w", listID, models.ErrNotFound)
		}
		return nil, err
	}
	var list models.PracticeList
	if err := store.Decode(doc, &list); err != nil {
		return nil, err
	}
	list.ID = listID
	if list.UserID != uid {
		return nil, fmt.Errorf("list %s: %w", listID, models.ErrForbidden)
	}
	return &list, nil
}

func (s *Service) ownedQuestion(ctx context.Context, listID, questionID string) (*models.PracticeQuestion, error) {
	doc, err := s.store.Get(ctx, models.CollectionPracticeQuestions, questionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("question %s: %w", questionID, models.ErrNotFound)
		}
		return nil, err
	}
	var q models.PracticeQuestion
	if err := store.Decode(doc, &q); err != nil {
		return nil, err
	}
	if q.ListID != listID {
		return nil, fmt.Errorf("question %s: %w", questionID, models.ErrNotFound)
	}
	q.ID = questionID
	return &q, nil
}

func (s *Service) childQuestions(ctx context.Context, listID string) ([]store.QueryResult, error) {
	results, err := s.store.Query(models.CollectionPracticeQuestions).
		Where("list_id", store.OpEqual, listID).
		Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan questions of %s: %w", listID, err)
	}
	return results, nil
}

func statusOrDefault(status string) string {
	if models.StatusCounterField(status) == "" {
		return models.StatusUnvisited
	}
	return status
}

func topicOrDefault(topic string) string {
	if topic == "" {
		return "General"
	}
	return topic
}

func revisedPercent(revised, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(revised)/float64(total)*1000) / 10
}
