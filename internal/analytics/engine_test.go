// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package analytics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	e := NewEngine(s, Config{SampleLimit: 500, CacheTTL: 5 * time.Minute, CacheSize: 4})
	return e, s
}

func seedExperience(t *testing.T, s *store.Store, id string, exp models.Experience) {
	t.Helper()
	fields, err := store.DocumentFrom(exp)
	if err != nil {
		t.Fatalf("encode experience: %v", err)
	}
	if err := s.Set(context.Background(), models.CollectionExperiences, id, fields); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func question(text string, confidence float64) models.Question {
	return models.Question{QuestionText: text, Confidence: confidence, Source: models.SourceAI}
}

func TestRecomputeEmptyCorpus(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	stats := e.Recompute(ctx)
	if stats.TotalExperiences != 0 || stats.TopCompany != "" || stats.TopTopic != "" {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.FrequentQuestions == nil || stats.InterviewProgression == nil {
		t.Fatal("empty stats must use empty containers, not nil")
	}

	// Even the empty snapshot is persisted and structurally complete.
	doc, err := s.Get(ctx, models.CollectionMetadata, models.StatsDocID)
	if err != nil {
		t.Fatalf("snapshot not persisted: %v", err)
	}
	if !snapshotComplete(doc) {
		t.Fatalf("persisted snapshot incomplete: %v", doc)
	}
}

func TestRecomputeCounters(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedExperience(t, s, "a", models.Experience{Company: "Acme", Difficulty: "Hard", Topics: []string{"DSA", "OS"}, IsActive: true})
	seedExperience(t, s, "b", models.Experience{Company: "Acme", Difficulty: "Medium", Topics: []string{"DSA"}, IsActive: true})
	seedExperience(t, s, "c", models.Experience{Company: "Beta", Difficulty: "Hard", Topics: []string{"HR"}, IsActive: true})
	seedExperience(t, s, "d", models.Experience{Company: "Gone", Topics: []string{"DSA"}, IsActive: false})

	stats := e.Recompute(ctx)
	if stats.TotalExperiences != 3 {
		t.Fatalf("total = %d", stats.TotalExperiences)
	}
	if stats.TopCompany != "Acme" {
		t.Fatalf("top company = %q", stats.TopCompany)
	}
	if stats.TopTopic != "DSA" {
		t.Fatalf("top topic = %q", stats.TopTopic)
	}
	if stats.TopicTotals["DSA"] != 2 || stats.TopicTotals["OS"] != 1 {
		t.Fatalf("topic totals = %v", stats.TopicTotals)
	}
	if stats.DifficultyDistribution["Hard"] != 2 {
		t.Fatalf("difficulty = %v", stats.DifficultyDistribution)
	}
	if stats.CompanyTopicCounts["Acme"]["DSA"] != 2 {
		t.Fatalf("company topics = %v", stats.CompanyTopicCounts)
	}
}

func TestTopKeyTieBreak(t *testing.T) {
	if got := topKey(map[string]int{"Zeta": 2, "Acme": 2, "Mid": 1}); got != "Acme" {
		t.Fatalf("topKey = %q, want lexicographically smallest on tie", got)
	}
	if got := topKey(map[string]int{}); got != "" {
		t.Fatalf("topKey of empty = %q", got)
	}
}

func TestFrequentQuestionsGrouping(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	// Case and punctuation variants of the same question group together.
	seedExperience(t, s, "a", models.Experience{IsActive: true, Questions: models.QuestionSet{
		AIExtracted: []models.Question{question("What is a Process?", 1.0)},
	}})
	seedExperience(t, s, "b", models.Experience{IsActive: true, Questions: models.QuestionSet{
		AIExtracted: []models.Question{question("what is a process", 0.9)},
	}})
	// Repeated within one record still counts that record once.
	seedExperience(t, s, "c", models.Experience{IsActive: true, Questions: models.QuestionSet{
		AIExtracted: []models.Question{
			question("Explain deadlock.", 1.0),
			question("explain deadlock", 1.0),
		},
	}})
	// Low confidence is excluded entirely.
	seedExperience(t, s, "d", models.Experience{IsActive: true, Questions: models.QuestionSet{
		AIExtracted: []models.Question{question("What is a process?", 0.5)},
	}})

	stats := e.Recompute(ctx)
	if len(stats.FrequentQuestions) != 1 {
		t.Fatalf("frequent = %+v", stats.FrequentQuestions)
	}
	fq := stats.FrequentQuestions[0]
	if fq.Count != 2 {
		t.Fatalf("count = %d", fq.Count)
	}
	if normalizeQuestionKey(fq.Question) != "what is a process" {
		t.Fatalf("representative = %q", fq.Question)
	}
}

func TestNormalizeQuestionKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"What is a Process?", "what is a process"},
		{"  what   IS a process!! ", "what is a process"},
		{"Explain B+ trees.", "explain b trees"},
	}
	for _, tc := range tests {
		if got := normalizeQuestionKey(tc.in); got != tc.want {
			t.Errorf("normalizeQuestionKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFrequentQuestionsLegacyFallback(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	legacy := []models.Question{question("What is normalization?", 1.0)}
	seedExperience(t, s, "a", models.Experience{IsActive: true, ExtractedQuestions: legacy})
	seedExperience(t, s, "b", models.Experience{IsActive: true, ExtractedQuestions: legacy})

	stats := e.Recompute(ctx)
	if len(stats.FrequentQuestions) != 1 || stats.FrequentQuestions[0].Count != 2 {
		t.Fatalf("legacy fallback = %+v", stats.FrequentQuestions)
	}
}

func TestInterviewProgression(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedExperience(t, s, "a", models.Experience{Company: "Acme", Round: "Technical Round", Topics: []string{"DSA", "OS", "CN", "DBMS"}, IsActive: true})
	seedExperience(t, s, "b", models.Experience{Company: "Acme", Round: "Technical Round", Topics: []string{"DSA"}, IsActive: true})
	seedExperience(t, s, "c", models.Experience{Company: "Acme", Round: "HR Round", Topics: []string{"HR"}, IsActive: true})
	// No round named, contributes nothing to progression.
	seedExperience(t, s, "d", models.Experience{Company: "Acme", Topics: []string{"DSA"}, IsActive: true})
	seedExperience(t, s, "e", models.Experience{Company: "Beta", Round: "Online Test", IsActive: true})

	stats := e.Recompute(ctx)
	acme, ok := stats.InterviewProgression["Acme"]
	if !ok {
		t.Fatalf("progression = %v", stats.InterviewProgression)
	}
	if acme.TotalExperiences != 3 {
		t.Fatalf("acme total = %d", acme.TotalExperiences)
	}
	if len(acme.Stages) != 2 || acme.Stages[0].Round != "Technical Round" || acme.Stages[0].Frequency != 2 {
		t.Fatalf("stages = %+v", acme.Stages)
	}
	// Only the first three topics of each record feed a stage.
	for _, topic := range acme.Stages[0].Topics {
		if topic == "DBMS" {
			t.Fatal("fourth topic of a record must not appear")
		}
	}
	if _, ok := stats.InterviewProgression["Beta"]; !ok {
		t.Fatal("round-bearing company missing from progression")
	}
}

func TestConfigBoundsOverrideDefaults(t *testing.T) {
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	e := NewEngine(s, Config{
		SampleLimit:          500,
		CacheTTL:             time.Minute,
		CacheSize:            1,
		FrequentQuestions:    1,
		MinConfidence:        0.95,
		ProgressionCompanies: 1,
		ProgressionTopics:    1,
	})
	ctx := context.Background()

	popular := question("What is a deadlock and how is it avoided?", 1.0)
	seedExperience(t, s, "a", models.Experience{Company: "Acme", Round: "Technical Round", Topics: []string{"OS", "DSA"}, IsActive: true,
		Questions: models.QuestionSet{AIExtracted: []models.Question{popular}}})
	seedExperience(t, s, "b", models.Experience{Company: "Acme", Round: "Technical Round", Topics: []string{"OS"}, IsActive: true,
		Questions: models.QuestionSet{AIExtracted: []models.Question{popular}}})
	seedExperience(t, s, "c", models.Experience{Company: "Beta", Round: "HR Round", IsActive: true,
		Questions: models.QuestionSet{AIExtracted: []models.Question{
			question("Explain normalization with an example?", 1.0),
			question("Tell me about yourself", 0.9),
		}}})

	stats := e.Recompute(ctx)

	// The table is capped at one entry and the 0.9 question is below
	// the raised confidence floor.
	if len(stats.FrequentQuestions) != 1 {
		t.Fatalf("frequent = %+v", stats.FrequentQuestions)
	}
	if stats.FrequentQuestions[0].Count != 2 {
		t.Fatalf("representative = %+v", stats.FrequentQuestions[0])
	}

	// Only the busiest company survives, with one topic per stage.
	if len(stats.InterviewProgression) != 1 {
		t.Fatalf("progression = %v", stats.InterviewProgression)
	}
	acme, ok := stats.InterviewProgression["Acme"]
	if !ok {
		t.Fatalf("progression = %v", stats.InterviewProgression)
	}
	if len(acme.Stages) != 1 || len(acme.Stages[0].Topics) != 1 || acme.Stages[0].Topics[0] != "OS" {
		t.Fatalf("stages = %+v", acme.Stages)
	}
}

func TestGetOrComputeResolutionOrder(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedExperience(t, s, "a", models.Experience{Company: "Acme", IsActive: true})
	first := e.GetOrCompute(ctx)
	if first.TotalExperiences != 1 {
		t.Fatalf("first = %+v", first)
	}

	// A new record is invisible until invalidation: cache still serves.
	seedExperience(t, s, "b", models.Experience{Company: "Beta", IsActive: true})
	if again := e.GetOrCompute(ctx); again.TotalExperiences != 1 {
		t.Fatalf("cached read = %d", again.TotalExperiences)
	}

	// After invalidation the persisted snapshot (still old) is served;
	// a recompute refreshes it.
	e.Invalidate()
	if snap := e.GetOrCompute(ctx); snap.TotalExperiences != 1 {
		t.Fatalf("snapshot read = %d", snap.TotalExperiences)
	}
	if fresh := e.Recompute(ctx); fresh.TotalExperiences != 2 {
		t.Fatalf("recompute = %d", fresh.TotalExperiences)
	}
}

func TestIncompleteSnapshotTriggersRecompute(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedExperience(t, s, "a", models.Experience{Company: "Acme", IsActive: true})

	// A snapshot written by an older code version lacks required fields.
	if err := s.Set(ctx, models.CollectionMetadata, models.StatsDocID, map[string]any{
		"total_experiences": 99,
	}); err != nil {
		t.Fatalf("seed stale snapshot: %v", err)
	}

	stats := e.GetOrCompute(ctx)
	if stats.TotalExperiences != 1 {
		t.Fatalf("stale snapshot was served: %+v", stats)
	}
}

func TestInsights(t *testing.T) {
	stats := &models.AggregateStats{
		TopicTotals:            map[string]int{"DSA": 5, "OS": 3, "CN": 2, "HR": 1},
		DifficultyDistribution: map[string]int{"Hard": 4, "Easy": 1},
		CompanyTopicCounts: map[string]map[string]int{
			"Acme": {"DSA": 5, "OS": 1},
			"Beta": {"HR": 1},
		},
	}
	insights := Insights(stats)
	if len(insights) != 3 {
		t.Fatalf("insights = %v", insights)
	}
	if !strings.Contains(insights[0], "DSA, OS, CN") {
		t.Fatalf("topic insight = %q", insights[0])
	}
	if !strings.Contains(insights[1], "'Hard'") {
		t.Fatalf("difficulty insight = %q", insights[1])
	}
	if !strings.Contains(insights[2], "Acme emphasizes DSA") {
		t.Fatalf("company insight = %q", insights[2])
	}

	if got := Insights(&models.AggregateStats{}); len(got) != 0 {
		t.Fatalf("empty stats insights = %v", got)
	}
}

func TestContributionFor(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedExperience(t, s, "a", models.Experience{CreatedBy: "u1", IsActive: true,
		Stats: models.QuestionStats{TotalQuestionCount: 4}})
	seedExperience(t, s, "b", models.Experience{CreatedBy: "u1", IsActive: true,
		ExtractedQuestions: []models.Question{question("One?", 1), question("Two?", 1)}})
	seedExperience(t, s, "c", models.Experience{CreatedBy: "u2", IsActive: true})

	impact := e.ContributionFor(ctx, "u1", 3)
	if impact.ExperiencesSubmitted != 2 || impact.QuestionsExtracted != 6 || impact.ArchiveSize != 3 {
		t.Fatalf("impact = %+v", impact)
	}

	if none := e.ContributionFor(ctx, "", 3); none.ExperiencesSubmitted != 0 || none.ArchiveSize != 3 {
		t.Fatalf("anonymous impact = %+v", none)
	}
}
