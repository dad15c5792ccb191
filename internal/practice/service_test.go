// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package practice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewService(s), s
}

func loadList(t *testing.T, s *store.Store, id string) models.PracticeList {
	t.Helper()
	doc, err := s.Get(context.Background(), models.CollectionPracticeLists, id)
	if err != nil {
		t.Fatalf("load list: %v", err)
	}
	var list models.PracticeList
	if err := store.Decode(doc, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	list.ID = id
	return list
}

func assertInvariant(t *testing.T, list models.PracticeList) {
	t.Helper()
	if sum := list.UnvisitedCount + list.PracticingCount + list.RevisedCount; sum != list.QuestionCount {
		t.Fatalf("bucket sum %d != question_count %d", sum, list.QuestionCount)
	}
	topicSum := 0
	for _, n := range list.TopicDistribution {
		topicSum += n
	}
	if topicSum != list.QuestionCount {
		t.Fatalf("topic sum %d != question_count %d", topicSum, list.QuestionCount)
	}
}

func TestCreateListDefaults(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, err := svc.CreateList(ctx, "u1", "  OS prep  ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if list.Name != "OS prep" || list.UserID != "u1" {
		t.Fatalf("list = %+v", list)
	}
	stored := loadList(t, s, list.ID)
	if stored.QuestionCount != 0 || stored.RevisedPercent != 0 {
		t.Fatalf("stored = %+v", stored)
	}

	if _, err := svc.CreateList(ctx, "u1", "   "); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("blank name: %v", err)
	}
}

func TestOwnershipChecks(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "owner", "mine")

	if _, err := svc.RenameList(ctx, "intruder", list.ID, "stolen"); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("rename: %v", err)
	}
	if err := svc.DeleteList(ctx, "intruder", list.ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Questions(ctx, "intruder", list.ID); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("questions: %v", err)
	}
	if _, err := svc.RenameList(ctx, "owner", "missing", "x"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing list: %v", err)
	}
}

func TestAddQuestionUpdatesCounters(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "dsa")
	q, err := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{
		QuestionText: "Reverse a linked list",
		Topic:        "DSA",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if q.Status != models.StatusUnvisited {
		t.Fatalf("status = %q", q.Status)
	}

	stored := loadList(t, s, list.ID)
	if stored.QuestionCount != 1 || stored.UnvisitedCount != 1 || stored.TopicDistribution["DSA"] != 1 {
		t.Fatalf("counters = %+v", stored)
	}
	assertInvariant(t, stored)

	// Empty topic defaults to General.
	if _, err := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Tell me about yourself"}); err != nil {
		t.Fatalf("add default topic: %v", err)
	}
	stored = loadList(t, s, list.ID)
	if stored.TopicDistribution["General"] != 1 {
		t.Fatalf("topics = %v", stored.TopicDistribution)
	}

	if _, err := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("empty text: %v", err)
	}
}

func TestStatusTransitionMovesBuckets(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "dsa")
	q, _ := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Explain BFS", Topic: "DSA"})

	revised := models.StatusRevised
	updated, err := svc.UpdateQuestion(ctx, "u1", list.ID, q.ID, QuestionUpdate{Status: &revised})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.StatusRevised {
		t.Fatalf("status = %q", updated.Status)
	}

	stored := loadList(t, s, list.ID)
	if stored.UnvisitedCount != 0 || stored.RevisedCount != 1 {
		t.Fatalf("buckets = %+v", stored)
	}
	if stored.RevisedPercent != 100.0 {
		t.Fatalf("revised_percent = %v", stored.RevisedPercent)
	}
	assertInvariant(t, stored)

	bogus := "finished"
	if _, err := svc.UpdateQuestion(ctx, "u1", list.ID, q.ID, QuestionUpdate{Status: &bogus}); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("bogus status: %v", err)
	}
}

func TestStatusAndTopicChangeSameMutation(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "mixed")
	q, _ := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Explain joins", Topic: "DBMS"})

	practicing := models.StatusPracticing
	topic := "SQL"
	if _, err := svc.UpdateQuestion(ctx, "u1", list.ID, q.ID, QuestionUpdate{Status: &practicing, Topic: &topic}); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored := loadList(t, s, list.ID)
	if stored.PracticingCount != 1 || stored.UnvisitedCount != 0 {
		t.Fatalf("buckets = %+v", stored)
	}
	if stored.TopicDistribution["SQL"] != 1 {
		t.Fatalf("topics = %v", stored.TopicDistribution)
	}
	if _, lingering := stored.TopicDistribution["DBMS"]; lingering {
		t.Fatalf("old topic still present: %v", stored.TopicDistribution)
	}
	assertInvariant(t, stored)
}

func TestTopicOnlyChange(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "l")
	q, _ := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "What is paging?", Topic: "OS"})

	topic := "Memory"
	if _, err := svc.UpdateQuestion(ctx, "u1", list.ID, q.ID, QuestionUpdate{Topic: &topic}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stored := loadList(t, s, list.ID)
	if stored.TopicDistribution["Memory"] != 1 {
		t.Fatalf("topics = %v", stored.TopicDistribution)
	}
	assertInvariant(t, stored)
}

func TestDeleteRevisedQuestionRecomputesPercent(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "drill")
	var ids []string
	for i := 0; i < 5; i++ {
		q, err := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Question number " + string(rune('a'+i)), Topic: "DSA"})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, q.ID)
	}
	revised := models.StatusRevised
	for _, id := range ids[:2] {
		if _, err := svc.UpdateQuestion(ctx, "u1", list.ID, id, QuestionUpdate{Status: &revised}); err != nil {
			t.Fatalf("revise: %v", err)
		}
	}

	stored := loadList(t, s, list.ID)
	if stored.QuestionCount != 5 || stored.RevisedCount != 2 || stored.RevisedPercent != 40.0 {
		t.Fatalf("before delete = %+v", stored)
	}

	// Deleting a revised question: 5/2 -> 4/1, 25.0%.
	if err := svc.DeleteQuestion(ctx, "u1", list.ID, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	stored = loadList(t, s, list.ID)
	if stored.QuestionCount != 4 || stored.RevisedCount != 1 {
		t.Fatalf("after delete = %+v", stored)
	}
	if stored.RevisedPercent != 25.0 {
		t.Fatalf("revised_percent = %v", stored.RevisedPercent)
	}
	assertInvariant(t, stored)
}

func TestDeleteLastTopicQuestionCleansCounter(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "l")
	q, _ := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Only CN question here", Topic: "CN"})
	if err := svc.DeleteQuestion(ctx, "u1", list.ID, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stored := loadList(t, s, list.ID)
	if _, present := stored.TopicDistribution["CN"]; present {
		t.Fatalf("zero-count topic not cleaned: %v", stored.TopicDistribution)
	}
	if stored.QuestionCount != 0 || stored.RevisedPercent != 0 {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestDeleteListRemovesChildren(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "l")
	q, _ := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Doomed question text"})

	if err := svc.DeleteList(ctx, "u1", list.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if _, err := s.Get(ctx, models.CollectionPracticeLists, list.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("list survived: %v", err)
	}
	if _, err := s.Get(ctx, models.CollectionPracticeQuestions, q.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("child survived: %v", err)
	}
}

func TestQuestionFromOtherListNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	listA, _ := svc.CreateList(ctx, "u1", "a")
	listB, _ := svc.CreateList(ctx, "u1", "b")
	q, _ := svc.AddQuestion(ctx, "u1", listA.ID, QuestionInput{QuestionText: "Belongs to list A"})

	if err := svc.DeleteQuestion(ctx, "u1", listB.ID, q.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("cross-list delete: %v", err)
	}
}

func TestReconcileRepairsCounters(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "l")
	svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "First question text", Topic: "DSA"})
	q2, _ := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{QuestionText: "Second question text", Topic: "OS"})
	revised := models.StatusRevised
	svc.UpdateQuestion(ctx, "u1", list.ID, q2.ID, QuestionUpdate{Status: &revised})

	// Corrupt the parent counters, simulating an interrupted older write.
	if err := s.Update(ctx, models.CollectionPracticeLists, list.ID, map[string]any{
		"question_count":  99,
		"unvisited_count": 0,
		"revised_count":   42,
		"revised_percent": 3.0,
	}, false); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	repaired, err := svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d", repaired)
	}

	stored := loadList(t, s, list.ID)
	if stored.QuestionCount != 2 || stored.UnvisitedCount != 1 || stored.RevisedCount != 1 {
		t.Fatalf("repaired counters = %+v", stored)
	}
	if stored.RevisedPercent != 50.0 {
		t.Fatalf("revised_percent = %v", stored.RevisedPercent)
	}
	assertInvariant(t, stored)

	// Running again changes nothing.
	if again, err := svc.Reconcile(ctx); err != nil || again != 1 {
		t.Fatalf("second reconcile = %d, %v", again, err)
	}
}

func TestConcurrentMutationsKeepInvariant(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	list, _ := svc.CreateList(ctx, "u1", "hot")
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				q, err := svc.AddQuestion(ctx, "u1", list.ID, QuestionInput{
					QuestionText: "Concurrent question item",
					Topic:        "DSA",
				})
				if err != nil {
					t.Errorf("add: %v", err)
					return
				}
				if g%2 == 0 {
					revised := models.StatusRevised
					if _, err := svc.UpdateQuestion(ctx, "u1", list.ID, q.ID, QuestionUpdate{Status: &revised}); err != nil {
						t.Errorf("update: %v", err)
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()

	stored := loadList(t, s, list.ID)
	if stored.QuestionCount != 20 || stored.RevisedCount != 10 {
		t.Fatalf("counters = %+v", stored)
	}
	assertInvariant(t, stored)
}

func TestListsForSortedNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.CreateList(ctx, "u1", "first")
	svc.CreateList(ctx, "u1", "second")
	svc.CreateList(ctx, "other", "not mine")

	lists, err := svc.ListsFor(ctx, "u1")
	if err != nil {
		t.Fatalf("lists: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("lists = %+v", lists)
	}
	if lists[0].CreatedAt < lists[1].CreatedAt {
		t.Fatal("expected newest first")
	}
}
