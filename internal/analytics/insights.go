// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/placementlabs/archivus/internal/logging"
	"github.com/placementlabs/archivus/internal/models"
	"github.com/placementlabs/archivus/internal/store"
)

// Insights derives short actionable strings from a snapshot for the
// dashboard's charts view.
func Insights(stats *models.AggregateStats) []string {
	insights := []string{}

	if len(stats.TopicTotals) > 0 {
		topics := sortedKeysByCount(stats.TopicTotals)
		if len(topics) > 3 {
			topics = topics[:3]
		}
		insights = append(insights, fmt.Sprintf(
			"Focus revision on %s; these show up the most across interviews.",
			strings.Join(topics, ", ")))
	}

	if len(stats.DifficultyDistribution) > 0 {
		hardest := topKey(stats.DifficultyDistribution)
		insights = append(insights, fmt.Sprintf(
			"Most experiences are labeled '%s'. Plan prep depth accordingly.", hardest))
	}

	if len(stats.CompanyTopicCounts) > 0 {
		company := companyWithMostTopicMentions(stats.CompanyTopicCounts)
		if topics := stats.CompanyTopicCounts[company]; len(topics) > 0 {
			insights = append(insights, fmt.Sprintf(
				"%s emphasizes %s. Tailor your prep for that company accordingly.",
				company, topKey(topics)))
		}
	}
	return insights
}

func companyWithMostTopicMentions(counts map[string]map[string]int) string {
	best := ""
	bestTotal := -1
	for company, topics := range counts {
		total := 0
		for _, n := range topics {
			total += n
		}
		if total > bestTotal || (total == bestTotal && company < best) {
			best = company
			bestTotal = total
		}
	}
	return best
}

// ContributionFor summarizes one user's footprint: experiences
// submitted and questions contributed, alongside the archive size.
// Store failures yield zeros, mirroring the rest of the dashboard's
// degrade-quietly behavior.
func (e *Engine) ContributionFor(ctx context.Context, uid string, archiveSize int) models.ContributionImpact {
	impact := models.ContributionImpact{ArchiveSize: archiveSize}
	if uid == "" {
		return impact
	}

	results, err := e.store.Query(models.CollectionExperiences).
		Where("created_by", store.OpEqual, uid).
		Limit(100).
		Documents(ctx)
	if err != nil {
		logging.Warn().Err(err).Str("uid", uid).Msg("contribution lookup failed")
		return impact
	}

	impact.ExperiencesSubmitted = len(results)
	for _, r := range results {
		var exp models.Experience
		if err := store.Decode(r.Doc, &exp); err != nil {
			continue
		}
		if exp.Stats.TotalQuestionCount > 0 {
			impact.QuestionsExtracted += exp.Stats.TotalQuestionCount
		} else {
			impact.QuestionsExtracted += len(exp.ExtractedQuestions)
		}
	}
	return impact
}
