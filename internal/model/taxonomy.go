package model

import "time"

// SubjectAggregate is a cached per-subject count, rebuilt on every ingest.
type SubjectAggregate struct {
	Name          string    `json:"name"`
	QuestionCount int       `json:"questionCount"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ChapterAggregate is a cached per-chapter count, rebuilt on every ingest.
type ChapterAggregate struct {
	Name          string    `json:"name"`
	Subject       string    `json:"subject"`
	QuestionCount int       `json:"questionCount"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SubtopicAggregate groups subtopic spellings under one display name.
type SubtopicAggregate struct {
	Name          string    `json:"name"`
	Key           string    `json:"key"`
	Chapter       string    `json:"chapter"`
	Subject       string    `json:"subject"`
	QuestionCount int       `json:"questionCount"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Aggregates is the full derived menu state produced from one corpus.
type Aggregates struct {
	Subjects  []SubjectAggregate
	Chapters  []ChapterAggregate
	Subtopics []SubtopicAggregate
}

// SubjectOverview merges a static catalog entry with its live count.
type SubjectOverview struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Icon          string `json:"icon"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

// CorpusStats is the analytics dashboard summary.
type CorpusStats struct {
	TotalQuestions    int            `json:"totalQuestions"`
	BySubject         map[string]int `json:"bySubject"`
	ByYear            map[int]int    `json:"byYear"`
	ByMarks           map[int]int    `json:"byMarks"`
	ByType            map[string]int `json:"byType"`
	WithDiagram       int            `json:"withDiagram"`
	AverageConfidence float64        `json:"averageConfidence"`
	YearRange         [2]int         `json:"yearRange"`
}
