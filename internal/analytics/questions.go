// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package analytics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/placementlabs/archivus/internal/models"
)

var (
	punctRe = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	wsRe    = regexp.MustCompile(`\s+`)
)

// normalizeQuestionKey reduces a question to its grouping key:
// lowercase, punctuation stripped, whitespace collapsed. Identical
// keys always group together, so the table is deterministic across
// recomputes regardless of input order.
func normalizeQuestionKey(text string) string {
	lowered := strings.ToLower(text)
	lowered = punctRe.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(lowered, " "))
}

type questionGroup struct {
	key            string
	representative string
	experienceIDs  map[string]struct{}
}

// frequentQuestionTable groups near-duplicate questions across the
// corpus by normalized key and keeps groups asked in at least two
// distinct experiences. A question repeated within one record counts
// once.
func (e *Engine) frequentQuestionTable(records []record) []models.FrequentQuestion {
	groups := map[string]*questionGroup{}
	var order []string

	for _, r := range records {
		questions := r.exp.AllQuestions()
		if len(questions) == 0 {
			questions = r.exp.ExtractedQuestions
		}
		for _, q := range questions {
			if q.QuestionText == "" || q.Confidence < e.minConfidence {
				continue
			}
			key := normalizeQuestionKey(q.QuestionText)
			if key == "" {
				continue
			}
			g, ok := groups[key]
			if !ok {
				g = &questionGroup{
					key:            key,
					representative: q.QuestionText,
					experienceIDs:  map[string]struct{}{},
				}
				groups[key] = g
				order = append(order, key)
			}
			g.experienceIDs[r.id] = struct{}{}
		}
	}

	var frequent []models.FrequentQuestion
	// Keys sorted so ties resolve identically on every recompute.
	sort.Strings(order)
	for _, key := range order {
		g := groups[key]
		if len(g.experienceIDs) >= 2 {
			frequent = append(frequent, models.FrequentQuestion{
				Question: g.representative,
				Count:    len(g.experienceIDs),
			})
		}
	}
	sort.SliceStable(frequent, func(a, b int) bool {
		return frequent[a].Count > frequent[b].Count
	})
	if len(frequent) > e.frequentQuestions {
		frequent = frequent[:e.frequentQuestions]
	}
	if frequent == nil {
		frequent = []models.FrequentQuestion{}
	}
	return frequent
}
