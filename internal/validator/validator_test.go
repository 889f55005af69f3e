package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/qbank-backend/internal/model"
)

func validRecord() model.IngestRecord {
	return model.IngestRecord{
		Year:                 2021,
		Paper:                "Set 1",
		QuestionNumber:       4,
		Subject:              "Algorithms",
		Chapter:              "Sorting",
		Subtopic:             "Merge Sort",
		QuestionText:         "Which sort is stable?",
		Marks:                1,
		TheoreticalPractical: "theoretical",
		Confidence:           0.9,
	}
}

func TestStructAcceptsValidRecord(t *testing.T) {
	r := validRecord()
	assert.Nil(t, Struct(&r))
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	r := validRecord()
	r.QuestionText = ""
	r.TheoreticalPractical = "essay"
	r.Confidence = 1.5

	fields := Struct(&r)
	require.NotNil(t, fields)
	assert.Contains(t, fields, "question_text")
	assert.Contains(t, fields, "theoretical_practical")
	assert.Contains(t, fields, "confidence")
	assert.NotContains(t, fields, "year")
}
