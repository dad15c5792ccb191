// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package analytics

import (
	"sort"
	"strings"

	"github.com/placementlabs/archivus/internal/models"
)

type roundObservation struct {
	round  string
	topics []string
}

// interviewProgression derives the common interview flow per company
// from records that name their round. Only the top companies by
// round-bearing record count are kept.
func (e *Engine) interviewProgression(records []record) map[string]models.CompanyProgression {
	byCompany := map[string][]roundObservation{}
	for _, r := range records {
		round := strings.TrimSpace(r.exp.Round)
		if round == "" {
			continue
		}
		topics := r.exp.Topics
		if len(topics) > topicsPerRecord {
			topics = topics[:topicsPerRecord]
		}
		company := orUnknown(r.exp.Company)
		byCompany[company] = append(byCompany[company], roundObservation{round: round, topics: topics})
	}

	companies := make([]string, 0, len(byCompany))
	for c := range byCompany {
		companies = append(companies, c)
	}
	sort.Slice(companies, func(a, b int) bool {
		na, nb := len(byCompany[companies[a]]), len(byCompany[companies[b]])
		if na != nb {
			return na > nb
		}
		return companies[a] < companies[b]
	})
	if len(companies) > e.progressionCompanies {
		companies = companies[:e.progressionCompanies]
	}

	result := make(map[string]models.CompanyProgression, len(companies))
	for _, company := range companies {
		observations := byCompany[company]
		roundFreq := map[string]int{}
		roundTopics := map[string]map[string]int{}
		for _, obs := range observations {
			roundFreq[obs.round]++
			if roundTopics[obs.round] == nil {
				roundTopics[obs.round] = map[string]int{}
			}
			for _, t := range obs.topics {
				roundTopics[obs.round][t]++
			}
		}

		rounds := sortedKeysByCount(roundFreq)
		stages := make([]models.ProgressionStage, 0, len(rounds))
		for _, round := range rounds {
			topics := sortedKeysByCount(roundTopics[round])
			if len(topics) > e.progressionTopics {
				topics = topics[:e.progressionTopics]
			}
			stages = append(stages, models.ProgressionStage{
				Round:     round,
				Topics:    topics,
				Frequency: roundFreq[round],
			})
		}
		result[company] = models.CompanyProgression{
			Stages:           stages,
			TotalExperiences: len(observations),
		}
	}
	return result
}

// sortedKeysByCount orders keys by descending count, names ascending
// on ties.
func sortedKeysByCount(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if counts[keys[a]] != counts[keys[b]] {
			return counts[keys[a]] > counts[keys[b]]
		}
		return keys[a] < keys[b]
	})
	return keys
}
