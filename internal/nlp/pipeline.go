// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

// Package nlp extracts interview questions from free-form narratives,
// classifies them by topic, and produces extractive summaries and text
// embeddings. Everything is heuristic and deterministic; there are no
// model downloads or external calls on this path.
package nlp

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/placementlabs/archivus/internal/models"
)

// Question prefixes that mark a line as an asked question.
var questionPrefixes = []string{
	"q:", "q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8", "q9", "q10",
	"question", "asked", "they asked", "we were asked",
}

// Section headers and labels that must never be treated as questions.
var headerPattern = regexp.MustCompile(`(?i)^(questions?\s*asked` +
	`|round\s*\d+` +
	`|technical\s*round` +
	`|hr\s*round` +
	`|coding\s*round` +
	`|managerial\s*round` +
	`|online\s*(test|assessment|round)` +
	`|tips?` +
	`|advice` +
	`|overall\s*difficulty` +
	`|summary` +
	`|experience` +
	`|interview\s*process` +
	`|preparation` +
	`|project\s*discussion` +
	`|topics?\s*covered` +
	`|rounds?` +
	`)\s*:?\s*$`)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	numberPrefixRe  = regexp.MustCompile(`^[Qq]\d*[\s:.\-]+`)
	wordPrefixRe    = regexp.MustCompile(`(?i)^(question|asked|they\s+asked|we\s+were\s+asked)\s*[:.\-]+\s*`)
	sentenceSplitRe = regexp.MustCompile(`([.!?])\s+`)
)

// MinQuestionLength filters out stubs like "Q1?".
const MinQuestionLength = 12

// maxExtractedQuestions caps how many questions one narrative yields.
const maxExtractedQuestions = 20

// Classification is the topic assignment for a single question.
type Classification struct {
	Topic      string
	Category   string
	Confidence float64
}

// Classifier assigns a topic to one question text.
type Classifier interface {
	Classify(text string) Classification
}

// Result is the output of processing one narrative.
type Result struct {
	CleanedText string
	Questions   []models.Question
	Topics      []string
	Summary     string
	Embedding   []float32
}

// Pipeline runs the extraction, classification, summary, and embedding
// stages. Safe for concurrent use.
type Pipeline struct {
	embedder       Embedder
	minQuestionLen int
	maxQuestions   int
}

// PipelineConfig tunes the extraction stage. Zero values take the
// package defaults.
type PipelineConfig struct {
	// MinQuestionLength drops extraction candidates shorter than this
	// after prefix stripping.
	MinQuestionLength int
	// MaxExtractedQuestions caps how many questions one narrative yields.
	MaxExtractedQuestions int
}

// NewPipeline builds a pipeline over the given embedder with default
// extraction bounds.
func NewPipeline(embedder Embedder) *Pipeline {
	return NewPipelineWithConfig(embedder, PipelineConfig{})
}

// NewPipelineWithConfig builds a pipeline with explicit extraction
// bounds.
func NewPipelineWithConfig(embedder Embedder, cfg PipelineConfig) *Pipeline {
	if cfg.MinQuestionLength <= 0 {
		cfg.MinQuestionLength = MinQuestionLength
	}
	if cfg.MaxExtractedQuestions <= 0 {
		cfg.MaxExtractedQuestions = maxExtractedQuestions
	}
	return &Pipeline{
		embedder:       embedder,
		minQuestionLen: cfg.MinQuestionLength,
		maxQuestions:   cfg.MaxExtractedQuestions,
	}
}

// CleanText collapses runs of whitespace so downstream stages and
// embeddings see consistent input.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// SplitSentences breaks cleaned text into sentences on terminal
// punctuation. A trailing fragment without punctuation still counts.
func SplitSentences(text string) []string {
	marked := sentenceSplitRe.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// ClassifyTopic returns the best-scoring topic for a question, or
// "General" when no keyword matches.
func ClassifyTopic(text string) string {
	lowered := strings.ToLower(text)
	bestTopic := "General"
	bestScore := 0
	for _, topic := range topicOrder {
		score := 0
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lowered, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestTopic = topic
		}
	}
	return bestTopic
}

// categoryFor maps a topic to its question category.
func categoryFor(topic string) string {
	if topic == "General" {
		return "theory"
	}
	return strings.ToLower(topic)
}

// Confidence scores extraction quality: 1.0 for a proper question mark
// ending, 0.9 for a recognized prefix, 0.7 otherwise.
func Confidence(text string) float64 {
	stripped := strings.TrimSpace(text)
	if strings.HasSuffix(stripped, "?") && len(stripped) >= MinQuestionLength {
		return 1.0
	}
	lowered := strings.ToLower(stripped)
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return 0.9
		}
	}
	return 0.7
}

// NormalizeQuestion strips leading markers like "Q1:" or "Asked:" and
// capitalizes the first letter.
func NormalizeQuestion(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimSpace(numberPrefixRe.ReplaceAllString(cleaned, ""))
	cleaned = strings.TrimSpace(wordPrefixRe.ReplaceAllString(cleaned, ""))
	runes := []rune(cleaned)
	if len(runes) > 0 && unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
		cleaned = string(runes)
	}
	return cleaned
}

func isSectionHeader(text string) bool {
	stripped := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ":"))
	if headerPattern.MatchString(stripped) {
		return true
	}
	return len(stripped) < 8 && !strings.HasSuffix(stripped, "?")
}

func hasQuestionPrefix(lowered string) bool {
	for _, prefix := range questionPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

// ExtractQuestions pulls interview questions out of a raw narrative
// using the default bounds.
func ExtractQuestions(rawText string, sentences []string) []models.Question {
	return extractQuestions(rawText, sentences, MinQuestionLength, maxExtractedQuestions)
}

// extractQuestions pulls interview questions out of a raw narrative.
// Line-based extraction catches bullet lists and "Q1:" prefixes; the
// sentence pass catches inline questions. Headers and stubs are
// dropped, duplicates collapse on their normalized lowercase form, and
// the result is capped at maxQuestions.
func extractQuestions(rawText string, sentences []string, minLen, maxQuestions int) []models.Question {
	var candidates []string

	for _, line := range strings.Split(rawText, "\n") {
		stripped := strings.TrimSpace(strings.Trim(line, "-• \t"))
		if stripped == "" || isSectionHeader(stripped) {
			continue
		}
		if strings.HasSuffix(stripped, "?") || hasQuestionPrefix(strings.ToLower(stripped)) {
			candidates = append(candidates, stripped)
		}
	}
	for _, sentence := range sentences {
		stripped := strings.TrimSpace(sentence)
		if strings.HasSuffix(stripped, "?") && !isSectionHeader(stripped) {
			candidates = append(candidates, stripped)
		}
	}

	seen := make(map[string]struct{})
	var deduped []string
	for _, raw := range candidates {
		normalized := NormalizeQuestion(raw)
		if len(normalized) < minLen {
			continue
		}
		key := whitespaceRe.ReplaceAllString(strings.Trim(strings.ToLower(normalized), "? "), " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, normalized)
	}
	if len(deduped) > maxQuestions {
		deduped = deduped[:maxQuestions]
	}

	questions := make([]models.Question, 0, len(deduped))
	for _, text := range deduped {
		topic := ClassifyTopic(text)
		questions = append(questions, models.Question{
			QuestionText: text,
			Topic:        topic,
			Category:     categoryFor(topic),
			Confidence:   Confidence(text),
			QuestionType: "extracted",
			Source:       models.SourceAI,
		})
	}
	return questions
}

// ClassifyTopics returns every topic with at least one keyword hit, in
// stable order.
func ClassifyTopics(text string) []string {
	lowered := strings.ToLower(text)
	var topics []string
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lowered, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	return topics
}

// GenerateSummary picks the three sentences most similar to the whole
// document and joins them in their original order. Short narratives
// are returned verbatim.
func (p *Pipeline) GenerateSummary(ctx context.Context, sentences []string, docEmbedding []float32) (string, error) {
	if len(sentences) == 0 {
		return "No summary available yet. Add more detail to improve the summary.", nil
	}
	if len(sentences) <= 2 {
		return strings.Join(sentences, " "), nil
	}

	type scored struct {
		index int
		score float32
	}
	ranked := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		emb, err := p.embedder.Embed(ctx, s)
		if err != nil {
			return "", fmt.Errorf("embed sentence %d: %w", i, err)
		}
		ranked = append(ranked, scored{index: i, score: dot(normalize(emb), docEmbedding)})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
	top := ranked[:3]
	sort.Slice(top, func(a, b int) bool { return top[a].index < top[b].index })

	parts := make([]string, len(top))
	for i, s := range top {
		parts[i] = sentences[s.index]
	}
	return strings.Join(parts, " "), nil
}

// Embed produces the unit-normalized document vector for arbitrary text.
func (p *Pipeline) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, err := p.embedder.Embed(ctx, CleanText(text))
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	return normalize(emb), nil
}

// Process runs the full pipeline over one narrative.
func (p *Pipeline) Process(ctx context.Context, rawText string) (*Result, error) {
	cleaned := CleanText(rawText)
	sentences := SplitSentences(cleaned)

	embedding, err := p.embedder.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed narrative: %w", err)
	}
	embedding = normalize(embedding)

	summary, err := p.GenerateSummary(ctx, sentences, embedding)
	if err != nil {
		return nil, err
	}

	return &Result{
		CleanedText: cleaned,
		Questions:   extractQuestions(rawText, sentences, p.minQuestionLen, p.maxQuestions),
		Topics:      ClassifyTopics(cleaned),
		Summary:     summary,
		Embedding:   embedding,
	}, nil
}

// Classify classifies one user-provided question, normalizing its text
// the same way extraction does. Satisfies Classifier.
func (p *Pipeline) Classify(text string) Classification {
	normalized := NormalizeQuestion(text)
	topic := ClassifyTopic(normalized)
	return Classification{
		Topic:      topic,
		Category:   categoryFor(topic),
		Confidence: Confidence(normalized),
	}
}
