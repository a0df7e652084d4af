package search

import (
	"strings"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
)

// Origin tags where a matched term came from.
type Origin string

const (
	Original Origin = "original"
	Expanded Origin = "expanded"
)

// TermSet is the query split into the user's literal terms and the terms
// added by expansion. Degraded is set when expansion failed and Expanded
// therefore holds nothing.
type TermSet struct {
	Original []string `json:"original" yaml:"original"`
	Expanded []string `json:"expanded" yaml:"expanded"`
	Degraded bool     `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// SplitQuery splits a raw query on commas and newlines, trims each part,
// drops one-rune parts and removes case-insensitive duplicates.
func SplitQuery(query string) []string {
	parts := strings.FieldsFunc(query, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	return keywords.Dedupe(parts)
}

// NewTermSet builds an unexpanded term set from a raw query.
func NewTermSet(query string) TermSet {
	return TermSet{Original: SplitQuery(query)}
}

// Candidates returns originals followed by expanded terms. Duplicates are
// kept; scoring counts distinct matches.
func (ts TermSet) Candidates() []string {
	out := make([]string, 0, len(ts.Original)+len(ts.Expanded))
	out = append(out, ts.Original...)
	return append(out, ts.Expanded...)
}

// OriginOf classifies a term as original when it equals, contains or is
// contained in one of the original terms, compared case-insensitively.
func (ts TermSet) OriginOf(term string) Origin {
	t := strings.ToLower(strings.Join(strings.Fields(term), " "))
	if t == "" {
		return Expanded
	}
	for _, o := range ts.Original {
		ol := strings.ToLower(strings.Join(strings.Fields(o), " "))
		if ol == "" {
			continue
		}
		if t == ol || strings.Contains(t, ol) || strings.Contains(ol, t) {
			return Original
		}
	}
	return Expanded
}
