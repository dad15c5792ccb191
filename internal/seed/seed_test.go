// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package seed

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/nlp"
	"github.com/placementlabs/archivus/internal/store"
	"github.com/placementlabs/archivus/internal/vector"
)

func newSeeder(t *testing.T) (*Seeder, *store.Store, *vector.Index) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	idx, err := vector.New(64, vector.NewStorePersister(s))
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	pipeline := nlp.NewPipeline(nlp.NewHashingEmbedder(64))
	return New(s, pipeline, idx), s, idx
}

func TestEnsureSeededCreatesCorpus(t *testing.T) {
	sd, s, idx := newSeeder(t)
	ctx := context.Background()

	report, err := sd.EnsureSeeded(ctx, 8)
	if err != nil {
		t.Fatalf("EnsureSeeded: %v", err)
	}
	if !report.Seeded || report.Created != 8 {
		t.Fatalf("report = %+v, want 8 created", report)
	}
	if idx.Count() != 8 {
		t.Fatalf("index has %d vectors, want 8", idx.Count())
	}

	doc, err := s.Get(ctx, models.CollectionExperiences, "seed_000")
	if err != nil {
		t.Fatalf("get seed_000: %v", err)
	}
	var exp models.Experience
	if err := store.Decode(doc, &exp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if exp.CreatedBy != UID {
		t.Fatalf("created_by = %q, want %q", exp.CreatedBy, UID)
	}
	if exp.NLPStatus != models.EnrichmentDone {
		t.Fatalf("nlp_status = %q, want done", exp.NLPStatus)
	}
	if exp.EmbeddingID == nil {
		t.Fatal("embedding_id not set")
	}
	if len(exp.Topics) == 0 {
		t.Fatal("topics empty after enrichment")
	}
	if !strings.Contains(exp.RawText, "Questions asked:") {
		t.Fatalf("raw text missing question section: %q", exp.RawText)
	}

	userDoc, err := s.Get(ctx, models.CollectionUsers, UID)
	if err != nil {
		t.Fatalf("seed user missing: %v", err)
	}
	if userDoc["role"] != models.RoleContributor {
		t.Fatalf("seed user role = %v, want contributor", userDoc["role"])
	}
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	sd, _, idx := newSeeder(t)
	ctx := context.Background()

	if _, err := sd.EnsureSeeded(ctx, 5); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := sd.EnsureSeeded(ctx, 5)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Created != 0 {
		t.Fatalf("second run created %d records, want 0", report.Created)
	}
	if idx.Count() != 5 {
		t.Fatalf("index grew to %d vectors on rerun", idx.Count())
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := generate(10, rand.New(rand.NewSource(randSeed)))
	b := generate(10, rand.New(rand.NewSource(randSeed)))
	for i := range a {
		if a[i].RawText != b[i].RawText {
			t.Fatalf("record %d differs between runs", i)
		}
	}
	seen := make(map[string]bool)
	for _, rec := range a {
		if seen[rec.DocID] {
			t.Fatalf("duplicate doc id %s", rec.DocID)
		}
		seen[rec.DocID] = true
		if len(rec.Questions) != 4 {
			t.Fatalf("%s has %d questions, want 4", rec.DocID, len(rec.Questions))
		}
		if !contains(rec.Topics, "DSA") {
			t.Fatalf("%s missing DSA topic", rec.DocID)
		}
	}
}
