package model

// ListQuestionsQuery is the raw query string of the question list endpoints.
// Numeric fields stay strings here so a malformed value is reported back
// instead of silently becoming zero.
type ListQuestionsQuery struct {
	Subject  string `form:"subject" json:"subject" binding:"omitempty,max=200"`
	Year     string `form:"year" json:"year" binding:"omitempty,numeric"`
	Marks    string `form:"marks" json:"marks" binding:"omitempty,numeric"`
	Type     string `form:"type" json:"type" binding:"omitempty,oneof=theoretical practical"`
	Subtopic string `form:"subtopic" json:"subtopic" binding:"omitempty,max=200"`
	Search   string `form:"search" json:"search" binding:"omitempty,max=200"`
	Sort     string `form:"sort" json:"sort"`
	Limit    string `form:"limit" json:"limit" binding:"omitempty,number"`
	Offset   string `form:"offset" json:"offset" binding:"omitempty,number"`
}

// SimilarQuestionsQuery is the query string of the similar-questions endpoints.
type SimilarQuestionsQuery struct {
	Limit      string `form:"limit" binding:"omitempty,number"`
	UseVectors string `form:"useVectors" binding:"omitempty,oneof=true false 1 0"`
}

// SubtopicQuery narrows the subtopic menu.
type SubtopicQuery struct {
	Subject string `form:"subject" binding:"omitempty,max=200"`
	Chapter string `form:"chapter" binding:"omitempty,max=200"`
}

// IngestRecord is one row of a bulk import file.
type IngestRecord struct {
	Year                 int       `json:"year" binding:"required,min=1900,max=2100"`
	Paper                string    `json:"paper" binding:"required,max=50"`
	QuestionNumber       int       `json:"question_number" binding:"required,min=1"`
	Subject              string    `json:"subject" binding:"required,max=200"`
	Chapter              string    `json:"chapter" binding:"required,max=200"`
	Subtopic             string    `json:"subtopic" binding:"required,max=200"`
	QuestionText         string    `json:"question_text" binding:"required"`
	Options              []string  `json:"options" binding:"omitempty,max=10,dive,required"`
	CorrectAnswer        *string   `json:"correct_answer"`
	Marks                int       `json:"marks" binding:"required,min=1,max=100"`
	TheoreticalPractical string    `json:"theoretical_practical" binding:"required,oneof=theoretical practical"`
	HasDiagram           bool      `json:"has_diagram"`
	Provenance           string    `json:"provenance" binding:"omitempty,max=500"`
	Confidence           float64   `json:"confidence" binding:"min=0,max=1"`
	VectorEmbedding      []float32 `json:"vector_embedding"`
}

// ToQuestion converts a validated record into a Question with its derived id.
func (r IngestRecord) ToQuestion() Question {
	var options []string
	if len(r.Options) > 0 {
		options = append([]string(nil), r.Options...)
	}
	var embedding []float32
	if len(r.VectorEmbedding) > 0 {
		embedding = append([]float32(nil), r.VectorEmbedding...)
	}
	return Question{
		QuestionID:           DeriveQuestionID(r.Year, r.Paper, r.QuestionNumber),
		Subject:              r.Subject,
		Chapter:              r.Chapter,
		Subtopic:             r.Subtopic,
		QuestionText:         r.QuestionText,
		Options:              options,
		CorrectAnswer:        r.CorrectAnswer,
		Year:                 r.Year,
		Marks:                r.Marks,
		TheoreticalPractical: QuestionKind(r.TheoreticalPractical),
		HasDiagram:           r.HasDiagram,
		Provenance:           r.Provenance,
		Confidence:           r.Confidence,
		VectorEmbedding:      embedding,
	}
}
