package model

import (
	"fmt"
	"strings"
)

// QuestionKind classifies a question as conceptual or numerical/applied.
type QuestionKind string

const (
	KindTheoretical QuestionKind = "theoretical"
	KindPractical   QuestionKind = "practical"
)

// Valid reports whether k is one of the known kinds.
func (k QuestionKind) Valid() bool {
	return k == KindTheoretical || k == KindPractical
}

// Question is one exam question as stored in the bank.
type Question struct {
	QuestionID           string       `json:"questionId"`
	Subject              string       `json:"subject"`
	Chapter              string       `json:"chapter"`
	Subtopic             string       `json:"subtopic"`
	QuestionText         string       `json:"question_text"`
	Options              []string     `json:"options,omitempty"`
	CorrectAnswer        *string      `json:"correct_answer,omitempty"`
	Year                 int          `json:"year"`
	Marks                int          `json:"marks"`
	TheoreticalPractical QuestionKind `json:"theoretical_practical"`
	HasDiagram           bool         `json:"has_diagram"`
	Provenance           string       `json:"provenance"`
	Confidence           float64      `json:"confidence"`
	// VectorEmbedding stays nil until the embedding pipeline fills it in.
	VectorEmbedding []float32 `json:"-"`
}

// HasEmbedding reports whether the question carries a usable vector.
func (q *Question) HasEmbedding() bool {
	return len(q.VectorEmbedding) > 0
}

// SimilarQuestion is a ranked neighbour of some target question.
type SimilarQuestion struct {
	Question
	SimilarityScore  float64 `json:"similarityScore"`
	SimilarityReason string  `json:"similarityReason"`
}

// QuestionDetail is the single-question view with the resolved answer index.
type QuestionDetail struct {
	Question
	CorrectOptionIndex *int `json:"correctOptionIndex"`
}

// NewQuestionDetail resolves the correct option of q for display.
func NewQuestionDetail(q Question) QuestionDetail {
	d := QuestionDetail{Question: q}
	if idx, ok := ResolveCorrectOption(q.Options, q.CorrectAnswer); ok {
		d.CorrectOptionIndex = &idx
	}
	return d
}

// DeriveQuestionID builds the stable id assigned at ingest from the paper
// coordinates, e.g. (2021, "Set 2", 7) -> "2021-set-2-q7".
func DeriveQuestionID(year int, paper string, number int) string {
	return fmt.Sprintf("%d-%s-q%d", year, slug(paper), number)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "paper"
	}
	return out
}
