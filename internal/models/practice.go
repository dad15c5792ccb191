// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package models

// Practice question statuses. Every question is in exactly one bucket; the
// bucket counters on the parent list must always sum to the question count.
const (
	StatusUnvisited  = "unvisited"
	StatusPracticing = "practicing"
	StatusRevised    = "revised"
)

// StatusCounterField maps a question status to its counter field on the
// parent practice list. Returns "" for unknown statuses.
func StatusCounterField(status string) string {
	switch status {
	case StatusUnvisited:
		return "unvisited_count"
	case StatusPracticing:
		return "practicing_count"
	case StatusRevised:
		return "revised_count"
	default:
		return ""
	}
}

// PracticeList is a user-owned collection of practice questions with
// denormalized roll-up counters maintained by the counter ledger.
type PracticeList struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	UserID            string         `json:"user_id"`
	CreatedAt         string         `json:"created_at"`
	QuestionCount     int            `json:"question_count"`
	RevisedCount      int            `json:"revised_count"`
	PracticingCount   int            `json:"practicing_count"`
	UnvisitedCount    int            `json:"unvisited_count"`
	TopicDistribution map[string]int `json:"topic_distribution"`
	RevisedPercent    float64        `json:"revised_percent"`
}

// PracticeQuestion is a single question inside a practice list.
type PracticeQuestion struct {
	ID                 string `json:"id"`
	ListID             string `json:"list_id"`
	QuestionText       string `json:"question_text"`
	Topic              string `json:"topic"`
	Difficulty         string `json:"difficulty,omitempty"`
	Status             string `json:"status"`
	Source             string `json:"source"`
	SourceExperienceID string `json:"source_experience_id,omitempty"`
	SourceCompany      string `json:"source_company,omitempty"`
	CreatedAt          string `json:"created_at"`
}
