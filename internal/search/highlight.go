package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

const (
	markOriginal = `<mark class="hl-original">`
	markExpanded = `<mark class="hl-expanded">`
	markClose    = `</mark>`
)

type markSpan struct {
	span   document.Span
	origin Origin
}

// Highlight wraps every occurrence of the matched terms in raw with a mark
// element whose class tells original and expanded terms apart. Longer terms
// are placed first; a shorter term never lands inside or across an existing
// mark.
func Highlight(raw string, matched, originals []string) string {
	if raw == "" || len(matched) == 0 {
		return raw
	}
	ts := TermSet{Original: originals}

	terms := append([]string(nil), matched...)
	sort.SliceStable(terms, func(i, j int) bool {
		return utf8.RuneCountInString(terms[i]) > utf8.RuneCountInString(terms[j])
	})

	runes := []rune(raw)
	taken := make([]bool, len(runes))
	var marks []markSpan
	for _, term := range terms {
		origin := ts.OriginOf(term)
	spans:
		for _, sp := range document.FindAll(raw, term) {
			for i := sp.Start; i < sp.End; i++ {
				if taken[i] {
					continue spans
				}
			}
			for i := sp.Start; i < sp.End; i++ {
				taken[i] = true
			}
			marks = append(marks, markSpan{span: sp, origin: origin})
		}
	}
	if len(marks) == 0 {
		return raw
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].span.Start < marks[j].span.Start })

	var b strings.Builder
	b.Grow(len(raw) + len(marks)*(len(markOriginal)+len(markClose)))
	pos := 0
	for _, m := range marks {
		b.WriteString(string(runes[pos:m.span.Start]))
		if m.origin == Original {
			b.WriteString(markOriginal)
		} else {
			b.WriteString(markExpanded)
		}
		b.WriteString(string(runes[m.span.Start:m.span.End]))
		b.WriteString(markClose)
		pos = m.span.End
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// StripHighlight removes the markup inserted by Highlight.
func StripHighlight(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for {
		open, tag := nextMark(s)
		if open < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:open])
		rest := s[open+len(tag):]
		end := strings.Index(rest, markClose)
		if end < 0 {
			// Unpaired opening tag: not ours.
			b.WriteString(s[open : open+len(tag)])
			s = rest
			continue
		}
		b.WriteString(rest[:end])
		s = rest[end+len(markClose):]
	}
}

func nextMark(s string) (int, string) {
	o := strings.Index(s, markOriginal)
	e := strings.Index(s, markExpanded)
	switch {
	case o < 0 && e < 0:
		return -1, ""
	case e < 0 || (o >= 0 && o < e):
		return o, markOriginal
	default:
		return e, markExpanded
	}
}
