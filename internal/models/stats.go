// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package models

// StatsSchemaVersion identifies the current snapshot shape. Snapshots written
// by older code versions fail the required-field check and are recomputed,
// never served.
const StatsSchemaVersion = 2

// StatsDocID is the metadata document holding the aggregate snapshot.
const StatsDocID = "dashboard_stats"

// RequiredStatsFields must all be present on a stored snapshot for it to be
// served. A snapshot missing any of them is stale, not an error.
var RequiredStatsFields = []string{
	"total_experiences",
	"frequent_questions",
	"interview_progression",
}

// FrequentQuestion is one near-duplicate question group: the representative
// text and how many distinct experiences contributed it.
type FrequentQuestion struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// ProgressionStage is one interview round within a company progression,
// with its observed frequency and most common topics.
type ProgressionStage struct {
	Round     string   `json:"round"`
	Topics    []string `json:"topics"`
	Frequency int      `json:"frequency"`
}

// CompanyProgression summarizes the interview flow observed for one company.
type CompanyProgression struct {
	Stages           []ProgressionStage `json:"stages"`
	TotalExperiences int                `json:"total_experiences"`
}

// AggregateStats is one versioned snapshot of corpus-wide analytics.
//
// Top-value tie-breaking is pinned: highest frequency wins, ties resolved by
// the lexicographically smallest key.
type AggregateStats struct {
	SchemaVersion          int                           `json:"schema_version"`
	TotalExperiences       int                           `json:"total_experiences"`
	TopCompany             string                        `json:"top_company,omitempty"`
	TopTopic               string                        `json:"top_topic,omitempty"`
	TopicTotals            map[string]int                `json:"topic_totals"`
	DifficultyDistribution map[string]int                `json:"difficulty_distribution"`
	CompanyTopicCounts     map[string]map[string]int     `json:"company_topic_counts"`
	FrequentQuestions      []FrequentQuestion            `json:"frequent_questions"`
	InterviewProgression   map[string]CompanyProgression `json:"interview_progression"`
	ComputedAt             string                        `json:"computed_at"`
}

// ContributionImpact summarizes one user's footprint in the archive.
type ContributionImpact struct {
	ExperiencesSubmitted int `json:"experiences_submitted"`
	QuestionsExtracted   int `json:"questions_extracted"`
	ArchiveSize          int `json:"archive_size"`
}
