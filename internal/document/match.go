package document

import (
	"strings"
	"unicode"
)

// IsWordRune reports whether r counts as part of a word for boundary checks.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// NormalizeTerm trims a term, collapses internal whitespace to single spaces
// and lowercases it rune by rune (rune count is preserved by unicode.ToLower).
func NormalizeTerm(term string) string {
	return strings.Join(strings.Fields(lowerRunes(term)), " ")
}

func lowerRunes(s string) string {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return string(rs)
}

func lowerRuneSlice(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// Span is a half-open rune range [Start, End) in a page text.
type Span struct {
	Start int
	End   int
}

// matchAt checks whether the normalized term matches the lowered page runes
// starting at offset start. A space in the term matches one or more
// whitespace runes in the page. It returns the exclusive end offset.
func matchAt(page []rune, start int, term []rune) (int, bool) {
	i := start
	for j := 0; j < len(term); j++ {
		if i >= len(page) {
			return 0, false
		}
		if term[j] == ' ' {
			if !unicode.IsSpace(page[i]) {
				return 0, false
			}
			for i < len(page) && unicode.IsSpace(page[i]) {
				i++
			}
			continue
		}
		if page[i] != term[j] {
			return 0, false
		}
		i++
	}
	return i, true
}

// boundaryOK enforces that a match does not start or end inside a word.
func boundaryOK(page []rune, span Span, term []rune) bool {
	if len(term) == 0 {
		return false
	}
	if IsWordRune(term[0]) && span.Start > 0 && IsWordRune(page[span.Start-1]) {
		return false
	}
	if IsWordRune(term[len(term)-1]) && span.End < len(page) && IsWordRune(page[span.End]) {
		return false
	}
	return true
}

// FindAll returns every non-overlapping match of term in text using the
// word-boundary rule. Offsets are rune offsets into text.
func FindAll(text, term string) []Span {
	norm := []rune(NormalizeTerm(term))
	if len(norm) == 0 {
		return nil
	}
	return findAllLowered(lowerRuneSlice([]rune(text)), norm)
}

// Contains reports whether term occurs in text under the word-boundary rule.
func Contains(text, term string) bool {
	return len(FindAll(text, term)) > 0
}

func findAllLowered(page, term []rune) []Span {
	var spans []Span
	for i := 0; i < len(page); {
		end, ok := matchAt(page, i, term)
		if ok {
			span := Span{Start: i, End: end}
			if boundaryOK(page, span, term) {
				spans = append(spans, span)
				i = end
				continue
			}
		}
		i++
	}
	return spans
}
