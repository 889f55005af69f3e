package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stemsi/qbank-backend/internal/model"
)

// ErrInvalidPredicate marks a filter parameter that could not be parsed.
var ErrInvalidPredicate = errors.New("invalid filter parameter")

// ValidationError lists the offending parameters with a message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s: %s", ErrInvalidPredicate, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPredicate }

// Params is a fully parsed filter request.
type Params struct {
	Predicates Predicates
	Sort       SortOrder
	Page       Page
}

// ParseParams converts the raw list query into typed predicates. Malformed
// numbers are rejected with a *ValidationError, never coerced to zero.
// Limits above MaxPageLimit are capped.
func ParseParams(q model.ListQuestionsQuery) (Params, error) {
	fields := map[string]string{}

	year, ok := parseOptionalInt(q.Year)
	if !ok {
		fields["year"] = "year must be a whole number"
	}
	marks, ok := parseOptionalInt(q.Marks)
	if !ok {
		fields["marks"] = "marks must be a whole number"
	}

	kind := model.QuestionKind(strings.TrimSpace(q.Type))
	if kind != "" && !kind.Valid() {
		fields["type"] = "type must be one of [theoretical practical]"
	}

	page := Page{Limit: DefaultPageLimit}
	if limit, ok := parseOptionalInt(q.Limit); !ok || (limit != nil && *limit < 1) {
		fields["limit"] = "limit must be a positive whole number"
	} else if limit != nil {
		page.Limit = min(*limit, MaxPageLimit)
	}
	if offset, ok := parseOptionalInt(q.Offset); !ok || (offset != nil && *offset < 0) {
		fields["offset"] = "offset must be zero or a positive whole number"
	} else if offset != nil {
		page.Offset = *offset
	}

	if len(fields) > 0 {
		return Params{}, &ValidationError{Fields: fields}
	}

	return Params{
		Predicates: Predicates{
			Subject:  strings.TrimSpace(q.Subject),
			Year:     year,
			Marks:    marks,
			Type:     kind,
			Subtopic: q.Subtopic,
			Search:   q.Search,
		},
		Sort: ParseSortOrder(q.Sort),
		Page: page,
	}, nil
}

// parseOptionalInt returns (nil, true) for an empty value.
func parseOptionalInt(raw string) (*int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &n, true
}
