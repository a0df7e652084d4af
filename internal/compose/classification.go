package compose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/ampel"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

// ClassificationEntries turns classification results into one entry per
// category and page, grouped by category in name order.
func ClassificationEntries(results ampel.Results) []Entry {
	var entries []Entry
	for _, name := range results.Names() {
		res := results[name]
		if res.Status != ampel.Green {
			continue
		}

		keywords := make([]string, 0, len(res.PageLocations))
		for kw := range res.PageLocations {
			keywords = append(keywords, kw)
		}
		sort.Strings(keywords)

		byPage := make(map[int]*Entry)
		firstPos := make(map[int]int)
		var pages []int
		for _, kw := range keywords {
			for _, occ := range res.PageLocations[kw] {
				e, ok := byPage[occ.Page]
				if !ok {
					e = &Entry{
						Page:          occ.Page,
						Category:      name,
						Confidence:    res.Confidence,
						HasConfidence: true,
					}
					byPage[occ.Page] = e
					firstPos[occ.Page] = -1
					pages = append(pages, occ.Page)
				}
				if !containsFold(e.Terms, kw) {
					e.Terms = append(e.Terms, kw)
				}
				if firstPos[occ.Page] < 0 || occ.Position < firstPos[occ.Page] {
					firstPos[occ.Page] = occ.Position
					e.Context = occ.Context
				}
			}
		}
		sort.Ints(pages)
		for _, p := range pages {
			e := byPage[p]
			e.Original = e.Terms
			entries = append(entries, *e)
		}
	}
	return entries
}

// ComposeClassification renders classification results, one outline group
// per green category.
func (c *Composer) ComposeClassification(ctx context.Context, source []byte, doc *document.Document, results ampel.Results) (*Artifact, error) {
	s := results.Summary()
	notes := []string{fmt.Sprintf("Kategorien: %d grün, %d rot", s.Green, s.Red)}
	var red []string
	for _, name := range results.Names() {
		if results[name].Status != ampel.Green {
			red = append(red, name)
		}
	}
	if len(red) > 0 {
		notes = append(notes, "Ohne Treffer: "+strings.Join(red, ", "))
	}

	return c.Compose(ctx, source, Input{
		Title:    "Ampel-Klassifizierung",
		Notes:    notes,
		Entries:  ClassificationEntries(results),
		Grouping: ByCategory,
		Document: doc,
	})
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
