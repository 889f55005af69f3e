package model

import (
	"strconv"
	"strings"
)

// ResolveCorrectOption maps a free-text correct answer onto a zero-based
// index into options. The answer is tried, in order, as
//
//  1. the full text of an option (trimmed, case-insensitive),
//  2. an option letter A-D, optionally wrapped as "(A)", "A." or "A)",
//  3. a 1-based option number.
//
// It returns false when there are no options, no answer, or nothing matches.
func ResolveCorrectOption(options []string, answer *string) (int, bool) {
	if len(options) == 0 || answer == nil {
		return -1, false
	}
	raw := strings.TrimSpace(*answer)
	if raw == "" {
		return -1, false
	}

	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), raw) {
			return i, true
		}
	}

	token := strings.TrimPrefix(raw, "(")
	token = strings.TrimRight(token, ".)")
	token = strings.TrimSpace(token)

	if len(token) == 1 {
		c := token[0] | 0x20 // ASCII lower-case
		if c >= 'a' && c <= 'd' {
			idx := int(c - 'a')
			if idx < len(options) {
				return idx, true
			}
			return -1, false
		}
	}

	if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= len(options) {
		return n - 1, true
	}
	return -1, false
}
