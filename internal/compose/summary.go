package compose

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// A4 portrait in points.
const (
	pageWidth    = 595.0
	pageHeight   = 842.0
	margin       = 56.0
	maxLineRunes = 100
)

type group struct {
	Key     string
	Entries []Entry
}

// groupEntries buckets entries by grouping key in discovery order. Term
// grouping puts an entry under every term it matched.
func groupEntries(entries []Entry, by Grouping, maxPage int) []group {
	var groups []group
	index := make(map[string]int)
	add := func(key string, e Entry) {
		norm := strings.ToLower(strings.Join(strings.Fields(key), " "))
		i, ok := index[norm]
		if !ok {
			i = len(groups)
			index[norm] = i
			groups = append(groups, group{Key: strings.TrimSpace(key)})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}

	for _, e := range entries {
		if e.Page < 1 || e.Page > maxPage {
			continue
		}
		if by == ByCategory {
			key := e.Category
			if strings.TrimSpace(key) == "" {
				key = "Ohne Kategorie"
			}
			add(key, e)
			continue
		}
		seen := make(map[string]bool, len(e.Terms))
		for _, t := range e.Terms {
			k := strings.ToLower(strings.Join(strings.Fields(t), " "))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			add(t, e)
		}
	}
	return groups
}

type line struct {
	text string
	size float64
	bold bool
}

func (l line) leading() float64 {
	if l.size == 0 {
		return 8 // blank spacer
	}
	return l.size * 1.45
}

// summaryLines lays out the summary as a flat list of lines.
func (c *Composer) summaryLines(in Input, groups []group) []line {
	title := in.Title
	if title == "" {
		title = "Zusammenfassung"
	}
	lines := []line{{text: truncate(title, maxLineRunes), size: 16, bold: true}, {}}

	if in.Query != "" {
		lines = append(lines, line{text: truncate("Suchanfrage: "+in.Query, maxLineRunes), size: 10})
		if in.Perspective != "" {
			lines = append(lines, line{text: truncate("Perspektive: "+in.Perspective, maxLineRunes), size: 10})
		}
		lines = append(lines, line{text: fmt.Sprintf("Strenge: %.2f", in.Strictness), size: 10})
	}
	for _, n := range in.Notes {
		lines = append(lines, line{text: truncate(n, maxLineRunes), size: 10})
	}
	total := 0
	for _, e := range in.Entries {
		if e.Page >= 1 {
			total++
		}
	}
	lines = append(lines,
		line{text: fmt.Sprintf("Treffer: %d in %d Gruppen", total, len(groups)), size: 10},
		line{},
	)

	if len(groups) > 0 {
		lines = append(lines, line{text: "Übersicht", size: 12, bold: true})
		for _, g := range groups {
			lines = append(lines, line{text: truncate(fmt.Sprintf("%s: %d", g.Key, len(g.Entries)), maxLineRunes), size: 10})
		}
		lines = append(lines, line{})
	}

	for _, g := range groups {
		lines = append(lines, line{text: truncate(fmt.Sprintf("%s (%d)", g.Key, len(g.Entries)), maxLineRunes), size: 12, bold: true})
		for i, e := range g.Entries {
			if i == c.maxInline {
				lines = append(lines, line{text: fmt.Sprintf("+%d weitere", len(g.Entries)-c.maxInline), size: 10})
				break
			}
			lines = append(lines, line{text: c.entryLine(e), size: 10})
		}
		lines = append(lines, line{})
	}
	return lines
}

func (c *Composer) entryLine(e Entry) string {
	s := fmt.Sprintf("S. %d: %s", e.Page, truncate(e.Context, c.contextChars))
	switch {
	case e.Category != "" && e.HasConfidence:
		s += fmt.Sprintf(" [%s, %.0f%%]", e.Category, e.Confidence*100)
	case e.Category != "":
		s += fmt.Sprintf(" [%s]", e.Category)
	}
	return truncate(s, maxLineRunes)
}

// pageTree gives access to the root Pages node for appending.
type pageTree struct {
	ref   types.IndirectRef
	dict  types.Dict
	fonts types.Dict
}

func openPageTree(pctx *model.Context) (*pageTree, error) {
	catalog, err := pctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	ref, ok := catalog["Pages"].(types.IndirectRef)
	if !ok {
		return nil, fmt.Errorf("catalog has no page tree reference")
	}
	dict, err := pctx.DereferenceDict(ref)
	if err != nil || dict == nil {
		return nil, fmt.Errorf("failed to read page tree: %v", err)
	}

	fonts := types.Dict{}
	for name, base := range map[string]string{"F1": "Helvetica", "F2": "Helvetica-Bold"} {
		fontRef, err := pctx.IndRefForNewObject(types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name(base),
			"Encoding": types.Name("WinAnsiEncoding"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add font: %w", err)
		}
		fonts[name] = *fontRef
	}
	return &pageTree{ref: ref, dict: dict, fonts: fonts}, nil
}

// appendPage adds a page with the given content stream at the end of the
// document.
func (t *pageTree) appendPage(pctx *model.Context, content []byte) error {
	sd, err := pctx.NewStreamDictForBuf(content)
	if err != nil {
		return fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("failed to encode content stream: %w", err)
	}
	contentRef, err := pctx.IndRefForNewObject(*sd)
	if err != nil {
		return fmt.Errorf("failed to add content stream: %w", err)
	}

	pageRef, err := pctx.IndRefForNewObject(types.Dict{
		"Type":      types.Name("Page"),
		"Parent":    t.ref,
		"MediaBox":  types.NewNumberArray(0, 0, pageWidth, pageHeight),
		"Resources": types.Dict{"Font": t.fonts},
		"Contents":  *contentRef,
	})
	if err != nil {
		return fmt.Errorf("failed to add page: %w", err)
	}

	kids, err := pctx.DereferenceArray(t.dict["Kids"])
	if err != nil {
		return fmt.Errorf("failed to read page tree kids: %w", err)
	}
	t.dict["Kids"] = append(kids, *pageRef)
	count := 0
	if n, ok := t.dict["Count"].(types.Integer); ok {
		count = int(n)
	}
	t.dict["Count"] = types.Integer(count + 1)
	pctx.PageCount++
	return nil
}

// appendSummary renders the summary lines onto as many A4 pages as needed.
// Each page goes into the context as soon as it is full.
func (c *Composer) appendSummary(ctx context.Context, pctx *model.Context, in Input, groups []group) (int, error) {
	tree, err := openPageTree(pctx)
	if err != nil {
		return 0, err
	}

	pages := 0
	var content bytes.Buffer
	y := pageHeight - margin
	flush := func() error {
		if content.Len() == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(&content, "BT /F1 8 Tf %.2f %.2f Td (%s) Tj ET\n", margin, margin/2, winAnsi(fmt.Sprintf("Seite %d", pctx.PageCount+1)))
		if err := tree.appendPage(pctx, content.Bytes()); err != nil {
			return err
		}
		pages++
		content.Reset()
		y = pageHeight - margin
		return nil
	}

	for _, l := range c.summaryLines(in, groups) {
		if y-l.leading() < margin {
			if err := flush(); err != nil {
				return pages, err
			}
		}
		y -= l.leading()
		if l.size == 0 {
			continue
		}
		font := "F1"
		if l.bold {
			font = "F2"
		}
		fmt.Fprintf(&content, "BT /%s %.0f Tf %.2f %.2f Td (%s) Tj ET\n", font, l.size, margin, y, winAnsi(l.text))
	}
	if err := flush(); err != nil {
		return pages, err
	}
	return pages, nil
}
