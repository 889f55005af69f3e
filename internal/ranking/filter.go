// Package ranking holds the pure question filtering and similarity ranking
// functions. Nothing here touches storage; callers pass a corpus snapshot in.
package ranking

import (
	"sort"
	"strings"

	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/textnorm"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// SortOrder selects the single sort key of a filter call.
type SortOrder string

const (
	SortNone      SortOrder = ""
	SortYearDesc  SortOrder = "year-desc"
	SortYearAsc   SortOrder = "year-asc"
	SortMarksDesc SortOrder = "marks-desc"
	SortMarksAsc  SortOrder = "marks-asc"
)

// ParseSortOrder maps the sort query value. An absent value means the default
// year-desc; an unknown value disables sorting rather than failing.
func ParseSortOrder(raw string) SortOrder {
	switch SortOrder(strings.TrimSpace(raw)) {
	case "":
		return SortYearDesc
	case SortYearDesc:
		return SortYearDesc
	case SortYearAsc:
		return SortYearAsc
	case SortMarksDesc:
		return SortMarksDesc
	case SortMarksAsc:
		return SortMarksAsc
	default:
		return SortNone
	}
}

// Predicates are the optional filter conditions. Zero values mean "absent".
type Predicates struct {
	Subject  string
	Year     *int
	Marks    *int
	Type     model.QuestionKind
	Subtopic string
	Search   string
}

// Page is an offset/limit window over the sorted matches.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalized() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// FilterResult is one page of matches plus the pre-pagination count.
type FilterResult struct {
	Items   []model.Question
	Total   int
	Offset  int
	Limit   int
	HasMore bool
}

// Filter applies every supplied predicate (AND), sorts stably by the chosen
// key and slices out the requested page. The corpus is not modified.
func Filter(corpus []model.Question, p Predicates, order SortOrder, page Page) FilterResult {
	page = page.normalized()
	m := newMatcher(p)

	matches := make([]model.Question, 0, len(corpus))
	for i := range corpus {
		if m.match(&corpus[i]) {
			matches = append(matches, corpus[i])
		}
	}

	sortQuestions(matches, order)

	total := len(matches)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)

	return FilterResult{
		Items:   matches[start:end:end],
		Total:   total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: hasMore(page, total),
	}
}

// hasMore reports offset+limit < total without risking int overflow on a
// huge offset.
func hasMore(page Page, total int) bool {
	return page.Offset < total && page.Limit < total-page.Offset
}

// matcher holds the predicates with their comparison keys computed once.
type matcher struct {
	p           Predicates
	subject     string
	subtopicKey string
	search      string
}

func newMatcher(p Predicates) matcher {
	m := matcher{p: p}
	if s := strings.TrimSpace(p.Subject); s != "" {
		m.subject = s
	}
	if p.Subtopic != "" {
		m.subtopicKey = textnorm.Normalize(p.Subtopic)
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		m.search = strings.ToLower(s)
	}
	return m
}

func (m matcher) match(q *model.Question) bool {
	if m.subject != "" && !strings.EqualFold(q.Subject, m.subject) {
		return false
	}
	if m.p.Year != nil && q.Year != *m.p.Year {
		return false
	}
	if m.p.Marks != nil && q.Marks != *m.p.Marks {
		return false
	}
	if m.p.Type != "" && q.TheoreticalPractical != m.p.Type {
		return false
	}
	if m.subtopicKey != "" && textnorm.Normalize(q.Subtopic) != m.subtopicKey {
		return false
	}
	if m.search != "" &&
		!strings.Contains(strings.ToLower(q.QuestionText), m.search) &&
		!strings.Contains(strings.ToLower(q.Subtopic), m.search) &&
		!strings.Contains(strings.ToLower(q.Chapter), m.search) {
		return false
	}
	return true
}

func sortQuestions(qs []model.Question, order SortOrder) {
	var less func(a, b *model.Question) bool
	switch order {
	case SortYearDesc:
		less = func(a, b *model.Question) bool { return a.Year > b.Year }
	case SortYearAsc:
		less = func(a, b *model.Question) bool { return a.Year < b.Year }
	case SortMarksDesc:
		less = func(a, b *model.Question) bool { return a.Marks > b.Marks }
	case SortMarksAsc:
		less = func(a, b *model.Question) bool { return a.Marks < b.Marks }
	default:
		return
	}
	sort.SliceStable(qs, func(i, j int) bool { return less(&qs[i], &qs[j]) })
}
