// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package models defines the persisted document shapes shared across the
// Archivus services: interview experiences, practice lists, users, and the
// aggregate analytics snapshot.
package models

// Collection names in the document store.
const (
	CollectionExperiences       = "interview_experiences"
	CollectionUsers             = "users"
	CollectionPracticeLists     = "practice_lists"
	CollectionPracticeQuestions = "practice_questions"
	CollectionMetadata          = "metadata"
)

// Question sources.
const (
	SourceUser = "user"
	SourceAI   = "ai"
)

// Enrichment statuses recorded on an experience.
const (
	EnrichmentPending = "pending"
	EnrichmentDone    = "done"
	EnrichmentFailed  = "failed"
)

// Author visibility values.
const (
	VisibilityPublic    = "public"
	VisibilityAnonymous = "anonymous"
)

// AnonymousDisplayID masks the creator of anonymous submissions in responses.
// The real UID stays on the stored document for moderation.
const AnonymousDisplayID = "anonymous"

// Question is a single interview question attached to an experience, either
// provided by the contributor or extracted from the narrative.
type Question struct {
	QuestionText string  `json:"question_text"`
	Topic        string  `json:"topic"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	QuestionType string  `json:"question_type"`
	Source       string  `json:"source"`
	AddedLater   bool    `json:"added_later"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// QuestionSet partitions questions by origin. User-provided questions are
// authoritative and are never filtered, merged, or dropped by enrichment.
type QuestionSet struct {
	UserProvided []Question `json:"user_provided"`
	AIExtracted  []Question `json:"ai_extracted"`
}

// QuestionStats is the explicit per-experience question tally.
type QuestionStats struct {
	UserQuestionCount      int `json:"user_question_count"`
	ExtractedQuestionCount int `json:"extracted_question_count"`
	TotalQuestionCount     int `json:"total_question_count"`
}

// Author is the immutable identity snapshot taken at submission time.
// Anonymous submissions carry no uid and no public label.
type Author struct {
	UID         string `json:"uid,omitempty"`
	Visibility  string `json:"visibility"`
	PublicLabel string `json:"public_label,omitempty"`
}

// EditEntry records one change to an experience for the audit trail.
type EditEntry struct {
	Timestamp string  `json:"timestamp"`
	Field     string  `json:"field"`
	Action    string  `json:"action"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
}

// Experience is a persisted interview-experience contribution.
type Experience struct {
	ID                 string        `json:"id"`
	Company            string        `json:"company"`
	Role               string        `json:"role"`
	Year               int           `json:"year"`
	Round              string        `json:"round"`
	Difficulty         string        `json:"difficulty"`
	RawText            string        `json:"raw_text,omitempty"`
	ExtractedQuestions []Question    `json:"extracted_questions"`
	Questions          QuestionSet   `json:"questions"`
	Stats              QuestionStats `json:"stats"`
	Topics             []string      `json:"topics"`
	Summary            string        `json:"summary"`
	EmbeddingID        *int          `json:"embedding_id"`
	CreatedBy          string        `json:"created_by"`
	ContributorName    string        `json:"contributor_name,omitempty"`
	Author             Author        `json:"author"`
	ShowName           bool          `json:"show_name"`
	CreatedAt          string        `json:"created_at"`
	IsAnonymous        bool          `json:"is_anonymous"`
	IsActive           bool          `json:"is_active"`
	NLPStatus          string        `json:"nlp_status"`
	AllowContact       bool          `json:"allow_contact"`
	ContactLinkedIn    string        `json:"contact_linkedin,omitempty"`
	ContactEmail       string        `json:"contact_email,omitempty"`
	EditHistory        []EditEntry   `json:"edit_history"`

	// Search-time fields, never persisted.
	Score       float64 `json:"score,omitempty"`
	MatchReason string  `json:"match_reason,omitempty"`
}

// Active reports whether the experience participates in search and analytics.
func (e *Experience) Active() bool {
	return e.IsActive
}

// AllQuestions returns user-provided then AI-extracted questions as one flat
// list, the order the legacy clients expect.
func (e *Experience) AllQuestions() []Question {
	out := make([]Question, 0, len(e.Questions.UserProvided)+len(e.Questions.AIExtracted))
	out = append(out, e.Questions.UserProvided...)
	out = append(out, e.Questions.AIExtracted...)
	return out
}
