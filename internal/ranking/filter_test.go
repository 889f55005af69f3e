package ranking

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/qbank-backend/internal/model"
)

func intPtr(n int) *int { return &n }

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.QuestionID
	}
	return out
}

func sampleCorpus() []model.Question {
	return []model.Question{
		{QuestionID: "q1", Subject: "Algorithms", Chapter: "Sorting", Subtopic: "Merge Sort", QuestionText: "Is merge sort stable?", Year: 2019, Marks: 1, TheoreticalPractical: model.KindTheoretical},
		{QuestionID: "q2", Subject: "Data Structures", Chapter: "Trees", Subtopic: "Binary Trees.", QuestionText: "Height of a complete tree", Year: 2021, Marks: 2, TheoreticalPractical: model.KindPractical},
		{QuestionID: "q3", Subject: "algorithms", Chapter: "Graphs", Subtopic: "Shortest Paths", QuestionText: "Run Dijkstra on the graph", Year: 2021, Marks: 2, TheoreticalPractical: model.KindPractical},
		{QuestionID: "q4", Subject: "Data Structures", Chapter: "Trees", Subtopic: "binary  trees", QuestionText: "Count leaves", Year: 2018, Marks: 1, TheoreticalPractical: model.KindTheoretical},
		{QuestionID: "q5", Subject: "Operating Systems", Chapter: "Scheduling", Subtopic: "CPU Scheduling", QuestionText: "Round robin waiting time", Year: 2021, Marks: 2, TheoreticalPractical: model.KindPractical},
		{QuestionID: "q6", Subject: "Algorithms", Chapter: "Sorting", Subtopic: "Quick Sort", QuestionText: "Worst case of quicksort on binary input", Year: 2023, Marks: 1, TheoreticalPractical: model.KindTheoretical},
	}
}

func TestFilterNoPredicatesMatchesAll(t *testing.T) {
	res := Filter(sampleCorpus(), Predicates{}, SortNone, Page{})

	assert.Equal(t, 6, res.Total)
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5", "q6"}, ids(res.Items))
	assert.Equal(t, DefaultPageLimit, res.Limit)
	assert.False(t, res.HasMore)
}

func TestFilterPredicates(t *testing.T) {
	cases := []struct {
		name string
		p    Predicates
		want []string
	}{
		{name: "subject is case-insensitive", p: Predicates{Subject: "ALGORITHMS"}, want: []string{"q1", "q3", "q6"}},
		{name: "year", p: Predicates{Year: intPtr(2021)}, want: []string{"q2", "q3", "q5"}},
		{name: "marks", p: Predicates{Marks: intPtr(1)}, want: []string{"q1", "q4", "q6"}},
		{name: "type", p: Predicates{Type: model.KindPractical}, want: []string{"q2", "q3", "q5"}},
		{name: "subtopic uses normalized key", p: Predicates{Subtopic: "Binary Trees"}, want: []string{"q2", "q4"}},
		{name: "search question text", p: Predicates{Search: "DIJKSTRA"}, want: []string{"q3"}},
		{name: "search chapter", p: Predicates{Search: "schedul"}, want: []string{"q5"}},
		{name: "search spans fields", p: Predicates{Search: "binary"}, want: []string{"q2", "q4", "q6"}},
		{name: "and semantics", p: Predicates{Subject: "algorithms", Year: intPtr(2021), Marks: intPtr(2)}, want: []string{"q3"}},
		{name: "nothing matches", p: Predicates{Year: intPtr(1999)}, want: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Filter(sampleCorpus(), tc.p, SortNone, Page{})
			assert.Equal(t, tc.want, ids(res.Items))
			assert.Equal(t, len(tc.want), res.Total)
		})
	}
}

func TestFilterSubtopicNormalizationInsensitive(t *testing.T) {
	a := Filter(sampleCorpus(), Predicates{Subtopic: "Binary Trees."}, SortYearDesc, Page{})
	b := Filter(sampleCorpus(), Predicates{Subtopic: "binary trees"}, SortYearDesc, Page{})
	assert.Equal(t, a, b)
	assert.Equal(t, 2, a.Total)
}

func TestFilterIsIdempotent(t *testing.T) {
	corpus := sampleCorpus()
	p := Predicates{Search: "sort"}
	first := Filter(corpus, p, SortMarksDesc, Page{Limit: 2})
	second := Filter(corpus, p, SortMarksDesc, Page{Limit: 2})
	assert.Equal(t, first, second)
	assert.Equal(t, sampleCorpus(), corpus, "corpus must not be reordered")
}

func TestFilterAddingPredicatesOnlyShrinks(t *testing.T) {
	corpus := sampleCorpus()
	steps := []Predicates{
		{},
		{Subject: "Algorithms"},
		{Subject: "Algorithms", Type: model.KindTheoretical},
		{Subject: "Algorithms", Type: model.KindTheoretical, Marks: intPtr(1)},
		{Subject: "Algorithms", Type: model.KindTheoretical, Marks: intPtr(1), Search: "quick"},
	}

	prev := map[string]bool{}
	for i, p := range steps {
		res := Filter(corpus, p, SortNone, Page{Limit: MaxPageLimit})
		cur := map[string]bool{}
		for _, q := range res.Items {
			cur[q.QuestionID] = true
			if i > 0 {
				assert.True(t, prev[q.QuestionID], "step %d added %s", i, q.QuestionID)
			}
		}
		prev = cur
	}
}

func TestFilterSortIsStable(t *testing.T) {
	res := Filter(sampleCorpus(), Predicates{}, SortYearDesc, Page{})
	assert.Equal(t, []string{"q6", "q2", "q3", "q5", "q1", "q4"}, ids(res.Items))

	res = Filter(sampleCorpus(), Predicates{}, SortMarksAsc, Page{})
	assert.Equal(t, []string{"q1", "q4", "q6", "q2", "q3", "q5"}, ids(res.Items))

	res = Filter(sampleCorpus(), Predicates{}, SortYearAsc, Page{})
	assert.Equal(t, []string{"q4", "q1", "q2", "q3", "q5", "q6"}, ids(res.Items))

	res = Filter(sampleCorpus(), Predicates{}, SortMarksDesc, Page{})
	assert.Equal(t, []string{"q2", "q3", "q5", "q1", "q4", "q6"}, ids(res.Items))
}

func TestFilterPaginationExhaustive(t *testing.T) {
	var corpus []model.Question
	for i := 0; i < 23; i++ {
		corpus = append(corpus, model.Question{
			QuestionID: fmt.Sprintf("q%02d", i),
			Year:       2015 + i%4,
			Marks:      1 + i%2,
		})
	}

	full := Filter(corpus, Predicates{}, SortYearDesc, Page{Limit: MaxPageLimit})
	require.Equal(t, 23, full.Total)

	for _, limit := range []int{1, 4, 5, 10, 23, 50} {
		var pages []model.Question
		for offset := 0; offset < full.Total; offset += limit {
			res := Filter(corpus, Predicates{}, SortYearDesc, Page{Offset: offset, Limit: limit})
			assert.Equal(t, 23, res.Total)
			assert.Equal(t, offset+limit < 23, res.HasMore)
			pages = append(pages, res.Items...)
		}
		assert.Equal(t, ids(full.Items), ids(pages), "limit %d", limit)
	}
}

func TestFilterYearPageScenario(t *testing.T) {
	var corpus []model.Question
	for i := 0; i < 5; i++ {
		corpus = append(corpus, model.Question{QuestionID: fmt.Sprintf("y%d", i), Year: 2023})
	}
	corpus = append(corpus, model.Question{QuestionID: "other", Year: 2022})

	res := Filter(corpus, Predicates{Year: intPtr(2023)}, SortYearDesc, Page{Offset: 0, Limit: 2})
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 5, res.Total)
	assert.True(t, res.HasMore)
}

func TestFilterPageBounds(t *testing.T) {
	res := Filter(sampleCorpus(), Predicates{}, SortNone, Page{Offset: 50, Limit: 10})
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 6, res.Total)
	assert.False(t, res.HasMore)

	res = Filter(sampleCorpus(), Predicates{}, SortNone, Page{Limit: 5000})
	assert.Equal(t, MaxPageLimit, res.Limit)

	res = Filter(sampleCorpus(), Predicates{}, SortNone, Page{Offset: math.MaxInt, Limit: MaxPageLimit})
	assert.Empty(t, res.Items)
	assert.Equal(t, 6, res.Total)
	assert.False(t, res.HasMore, "a huge offset must not wrap around")

	res = Filter(sampleCorpus(), Predicates{}, SortNone, Page{Offset: 5, Limit: 1})
	assert.Len(t, res.Items, 1)
	assert.False(t, res.HasMore)
}

func TestParseParamsHugeOffset(t *testing.T) {
	p, err := ParseParams(model.ListQuestionsQuery{Offset: "9223372036854775807"})
	require.NoError(t, err)

	res := Filter(sampleCorpus(), p.Predicates, p.Sort, p.Page)
	assert.Empty(t, res.Items)
	assert.False(t, res.HasMore)
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortYearDesc, ParseSortOrder(""))
	assert.Equal(t, SortYearAsc, ParseSortOrder("year-asc"))
	assert.Equal(t, SortMarksDesc, ParseSortOrder("marks-desc"))
	assert.Equal(t, SortMarksAsc, ParseSortOrder("marks-asc"))
	assert.Equal(t, SortNone, ParseSortOrder("popularity"))
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(model.ListQuestionsQuery{
		Subject: " Algorithms ", Year: "2021", Marks: "2", Type: "practical",
		Subtopic: "Sorting.", Search: "heap", Sort: "marks-asc", Limit: "5000", Offset: "20",
	})
	require.NoError(t, err)

	assert.Equal(t, "Algorithms", p.Predicates.Subject)
	assert.Equal(t, 2021, *p.Predicates.Year)
	assert.Equal(t, 2, *p.Predicates.Marks)
	assert.Equal(t, model.KindPractical, p.Predicates.Type)
	assert.Equal(t, SortMarksAsc, p.Sort)
	assert.Equal(t, Page{Offset: 20, Limit: MaxPageLimit}, p.Page)
}

func TestParseParamsDefaults(t *testing.T) {
	p, err := ParseParams(model.ListQuestionsQuery{})
	require.NoError(t, err)

	assert.Nil(t, p.Predicates.Year)
	assert.Nil(t, p.Predicates.Marks)
	assert.Equal(t, SortYearDesc, p.Sort)
	assert.Equal(t, Page{Offset: 0, Limit: DefaultPageLimit}, p.Page)
}

func TestParseParamsRejectsMalformedNumbers(t *testing.T) {
	_, err := ParseParams(model.ListQuestionsQuery{Year: "twenty", Marks: "2.5", Limit: "0", Offset: "-1", Type: "essay"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPredicate))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "year")
	assert.Contains(t, ve.Fields, "marks")
	assert.Contains(t, ve.Fields, "limit")
	assert.Contains(t, ve.Fields, "offset")
	assert.Contains(t, ve.Fields, "type")
}
