// Package taxonomy derives the subject/chapter/subtopic menus and the
// analytics summary from a question corpus. Results are always recomputed
// from scratch; nothing here patches previous counts.
package taxonomy

import (
	"sort"
	"strings"
	"time"

	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/textnorm"
)

// Build recomputes every aggregate from questions. Output is sorted by
// subject, then chapter, then subtopic display name.
func Build(questions []model.Question, now time.Time) model.Aggregates {
	subjects := map[string]*model.SubjectAggregate{}
	chapters := map[[2]string]*model.ChapterAggregate{}
	subtopics := map[[3]string]*model.SubtopicAggregate{}

	for _, q := range questions {
		if q.Subject == "" {
			continue
		}
		s, ok := subjects[q.Subject]
		if !ok {
			s = &model.SubjectAggregate{Name: q.Subject, UpdatedAt: now}
			subjects[q.Subject] = s
		}
		s.QuestionCount++

		if q.Chapter == "" {
			continue
		}
		ck := [2]string{q.Subject, q.Chapter}
		c, ok := chapters[ck]
		if !ok {
			c = &model.ChapterAggregate{Name: q.Chapter, Subject: q.Subject, UpdatedAt: now}
			chapters[ck] = c
		}
		c.QuestionCount++

		key := textnorm.Normalize(q.Subtopic)
		if key == "" {
			continue
		}
		tk := [3]string{q.Subject, q.Chapter, key}
		t, ok := subtopics[tk]
		if !ok {
			t = &model.SubtopicAggregate{
				Name:      textnorm.DisplayForm(q.Subtopic),
				Key:       key,
				Chapter:   q.Chapter,
				Subject:   q.Subject,
				UpdatedAt: now,
			}
			subtopics[tk] = t
		}
		t.QuestionCount++
	}

	out := model.Aggregates{
		Subjects:  make([]model.SubjectAggregate, 0, len(subjects)),
		Chapters:  make([]model.ChapterAggregate, 0, len(chapters)),
		Subtopics: make([]model.SubtopicAggregate, 0, len(subtopics)),
	}
	for _, s := range subjects {
		out.Subjects = append(out.Subjects, *s)
	}
	for _, c := range chapters {
		out.Chapters = append(out.Chapters, *c)
	}
	for _, t := range subtopics {
		out.Subtopics = append(out.Subtopics, *t)
	}

	sort.Slice(out.Subjects, func(i, j int) bool { return out.Subjects[i].Name < out.Subjects[j].Name })
	sort.Slice(out.Chapters, func(i, j int) bool {
		a, b := out.Chapters[i], out.Chapters[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Name < b.Name
	})
	sort.Slice(out.Subtopics, func(i, j int) bool {
		a, b := out.Subtopics[i], out.Subtopics[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		return a.Name < b.Name
	})
	return out
}

// ChaptersOf returns the chapter aggregates of one subject (case-insensitive).
// An empty subject returns all chapters.
func ChaptersOf(agg []model.ChapterAggregate, subject string) []model.ChapterAggregate {
	out := make([]model.ChapterAggregate, 0, len(agg))
	for _, c := range agg {
		if subject == "" || strings.EqualFold(c.Subject, subject) {
			out = append(out, c)
		}
	}
	return out
}

// SubtopicsFor lists the distinct subtopic display names of the questions
// in the given subject and chapter. Empty filters match everything.
func SubtopicsFor(questions []model.Question, subject, chapter string) []string {
	raw := make([]string, 0, len(questions))
	for _, q := range questions {
		if subject != "" && !strings.EqualFold(q.Subject, subject) {
			continue
		}
		if chapter != "" && !strings.EqualFold(q.Chapter, chapter) {
			continue
		}
		raw = append(raw, q.Subtopic)
	}
	return textnorm.UniqueDisplayValues(raw)
}

// Overview joins the static subject catalog with live counts. Subjects that
// have questions but no catalog entry are appended with a generated slug.
func Overview(catalog []config.SubjectInfo, subjects []model.SubjectAggregate) []model.SubjectOverview {
	counts := make(map[string]int, len(subjects))
	for _, s := range subjects {
		counts[strings.ToLower(s.Name)] += s.QuestionCount
	}

	out := make([]model.SubjectOverview, 0, len(catalog)+len(subjects))
	seen := make(map[string]bool, len(catalog))
	for _, c := range catalog {
		key := strings.ToLower(c.Name)
		seen[key] = true
		out = append(out, model.SubjectOverview{
			Name:          c.Name,
			Slug:          c.Slug,
			Icon:          c.Icon,
			Description:   c.Description,
			QuestionCount: counts[key],
		})
	}
	for _, s := range subjects {
		key := strings.ToLower(s.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.SubjectOverview{
			Name:          s.Name,
			Slug:          strings.ReplaceAll(key, " ", "-"),
			QuestionCount: counts[key],
		})
	}
	return out
}

// Summarize computes the dashboard statistics for a corpus.
func Summarize(questions []model.Question) model.CorpusStats {
	stats := model.CorpusStats{
		TotalQuestions: len(questions),
		BySubject:      map[string]int{},
		ByYear:         map[int]int{},
		ByMarks:        map[int]int{},
		ByType:         map[string]int{},
	}
	if len(questions) == 0 {
		return stats
	}

	var confidence float64
	minYear, maxYear := questions[0].Year, questions[0].Year
	for _, q := range questions {
		stats.BySubject[q.Subject]++
		stats.ByYear[q.Year]++
		stats.ByMarks[q.Marks]++
		stats.ByType[string(q.TheoreticalPractical)]++
		if q.HasDiagram {
			stats.WithDiagram++
		}
		confidence += q.Confidence
		minYear = min(minYear, q.Year)
		maxYear = max(maxYear, q.Year)
	}
	stats.AverageConfidence = confidence / float64(len(questions))
	stats.YearRange = [2]int{minYear, maxYear}
	return stats
}
