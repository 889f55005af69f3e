// Package textnorm canonicalizes the free-text classification fields of a
// question (mostly subtopic names) for comparison and for display.
package textnorm

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// displayExceptions maps a normalized key to its exact display form.
// Add entries here when generic title-casing mangles an acronym.
var displayExceptions = map[string]string{
	"tcp":             "TCP",
	"udp":             "UDP",
	"ip":              "IP",
	"dns":             "DNS",
	"http":            "HTTP",
	"sql":             "SQL",
	"cpu scheduling":  "CPU Scheduling",
	"dma":             "DMA",
	"lr parsing":      "LR Parsing",
	"ll(1) parsing":   "LL(1) Parsing",
	"np-completeness": "NP-Completeness",
	"er model":        "ER Model",
	"b and b+ trees":  "B and B+ Trees",
	"tcp/ip model":    "TCP/IP Model",
	"osi model":       "OSI Model",
	"mac protocols":   "MAC Protocols",
	"dfa":             "DFA",
	"nfa":             "NFA",
	"pda":             "PDA",

	"i/o interface (interrupt and dma mode)": "I/O Interface (Interrupt and DMA Mode)",
}

// stopwords stay lower-case in a title unless they open it.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "into": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "via": true, "vs": true, "with": true,
}

// Normalize returns the comparison key of text: trimmed, internal whitespace
// collapsed to single spaces, one trailing period removed, lower-cased.
// Never use the key for display.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	collapsed = strings.TrimSuffix(collapsed, ".")
	collapsed = strings.TrimRightFunc(collapsed, unicode.IsSpace)
	return strings.ToLower(collapsed)
}

// DisplayForm returns the canonical presentation of text. Known acronyms and
// phrases come from the exception table; everything else is title-cased with
// short connecting words kept lower-case.
func DisplayForm(text string) string {
	key := Normalize(text)
	if key == "" {
		return ""
	}
	if v, ok := displayExceptions[key]; ok {
		return v
	}

	words := strings.Split(key, " ")
	for i, w := range words {
		if i > 0 && stopwords[w] {
			continue
		}
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

// UniqueDisplayValues collapses values that share a Normalize key and returns
// one display form per key, sorted alphabetically.
func UniqueDisplayValues(values []string) []string {
	seen := make(map[string]string, len(values))
	for _, v := range values {
		key := Normalize(v)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = DisplayForm(v)
		}
	}

	out := make([]string, 0, len(seen))
	for _, display := range seen {
		out = append(out, display)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether a and b share a comparison key.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
