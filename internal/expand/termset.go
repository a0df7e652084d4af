package expand

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

// BuildTermSet splits query into original terms and asks exp for related
// terms. The expander's terms are kept as returned, overlap with the
// originals included: the search engine decides provenance per match and
// counts every expanded term in its denominator. Only blank and one-rune
// terms are dropped, and the list is capped at limit (MaxExpandedTerms when
// limit <= 0). When exp fails or returns nothing usable the set holds the
// originals only and is marked Degraded. A nil exp yields an unexpanded,
// non-degraded set.
func BuildTermSet(ctx context.Context, query string, p Perspective, exp Expander, limit int) search.TermSet {
	ts := search.NewTermSet(query)
	if exp == nil || len(ts.Original) == 0 {
		return ts
	}
	if limit <= 0 {
		limit = MaxExpandedTerms
	}

	terms, err := exp.Expand(ctx, strings.Join(ts.Original, ", "), p)
	if err != nil {
		ts.Degraded = true
		return ts
	}
	ts.Expanded = usableTerms(terms, limit)
	if len(ts.Expanded) == 0 {
		ts.Degraded = true
	}
	return ts
}

// usableTerms trims terms, drops blank and one-rune ones and keeps at most
// limit of the rest in order. Duplicates stay.
func usableTerms(terms []string, limit int) []string {
	var out []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if utf8.RuneCountInString(t) <= 1 {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
