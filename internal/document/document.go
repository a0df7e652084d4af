// Package document extracts per-page text and glyph geometry from PDF bytes
// and answers term-occurrence queries against a positional index.
package document

import (
	"math"
	"strings"
)

// ContextRadius is the number of runes kept on each side of an occurrence.
const ContextRadius = 50

// BBox is a rectangle in PDF user space (origin bottom-left).
// The zero value means "no geometry available".
type BBox struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// IsZero reports whether the box carries no geometry.
func (b BBox) IsZero() bool {
	return b == BBox{}
}

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	if b.IsZero() {
		return o
	}
	if o.IsZero() {
		return b
	}
	return BBox{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Occurrence is a single located instance of a term.
type Occurrence struct {
	Term     string `json:"term" yaml:"term"`
	Page     int    `json:"page" yaml:"page"` // 1-based
	Context  string `json:"context" yaml:"context"`
	BBox     BBox   `json:"bbox" yaml:"bbox"`
	Position int    `json:"position" yaml:"position"` // rune offset in page text
}

// Glyph is one decoded rune drawn on a page.
type Glyph struct {
	S    string
	X    float64
	Y    float64
	W    float64
	Size float64
}

// Page holds the text of one page and, when available, the glyph for every
// rune of that text.
type Page struct {
	Index int // 0-based
	Text  string

	glyphs  []Glyph
	glyphAt []int // rune offset in Text -> index into glyphs, -1 for synthetic separators
}

// Number returns the 1-based page number.
func (p *Page) Number() int {
	return p.Index + 1
}

// Glyphs returns the positioned glyphs of the page; empty for text-only pages.
func (p *Page) Glyphs() []Glyph {
	return p.glyphs
}

// HasGeometry reports whether glyph positions are known for this page.
func (p *Page) HasGeometry() bool {
	return len(p.glyphs) > 0 && len(p.glyphAt) == len([]rune(p.Text))
}

// Document is an ordered sequence of pages plus the positional index built
// over them. It is immutable once returned by Extract.
type Document struct {
	pages []*Page
	index *Index
}

// New builds a Document from already extracted pages. The index is built
// immediately.
func New(pages []*Page) *Document {
	for i, p := range pages {
		p.Index = i
	}
	return &Document{pages: pages, index: buildIndex(pages)}
}

// FromTexts builds a text-only Document (no geometry), one page per entry.
func FromTexts(texts ...string) *Document {
	pages := make([]*Page, len(texts))
	for i, t := range texts {
		pages[i] = &Page{Text: t}
	}
	return New(pages)
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.pages)
}

// Pages returns the pages in order.
func (d *Document) Pages() []*Page {
	return d.pages
}

// Page returns the page with the given 1-based number, or nil.
func (d *Document) Page(number int) *Page {
	if number < 1 || number > len(d.pages) {
		return nil
	}
	return d.pages[number-1]
}

// Locate resolves every occurrence of term in the document. Geometry is
// attached when the page has it; otherwise the occurrence carries a zero box.
func (d *Document) Locate(term string) []Occurrence {
	hits := d.index.lookup(term)
	var out []Occurrence
	for pi := range d.pages {
		spans, ok := hits[pi]
		if !ok {
			continue
		}
		out = append(out, d.occurrences(pi, term, spans)...)
	}
	return out
}

// LocateOnPage resolves the occurrences of term on a single 1-based page.
func (d *Document) LocateOnPage(number int, term string) []Occurrence {
	p := d.Page(number)
	if p == nil {
		return nil
	}
	spans := d.index.lookup(term)[p.Index]
	return d.occurrences(p.Index, term, spans)
}

// BoxesOnPage returns one box per text line of every occurrence of term on
// the page. Pages without geometry yield nil.
func (d *Document) BoxesOnPage(number int, term string) []BBox {
	p := d.Page(number)
	if p == nil || !p.HasGeometry() {
		return nil
	}
	var boxes []BBox
	for _, span := range d.index.lookup(term)[p.Index] {
		boxes = append(boxes, p.lineBoxes(span)...)
	}
	return boxes
}

func (d *Document) occurrences(pi int, term string, spans []Span) []Occurrence {
	p := d.pages[pi]
	runes := []rune(p.Text)
	out := make([]Occurrence, 0, len(spans))
	for _, span := range spans {
		occ := Occurrence{
			Term:     term,
			Page:     pi + 1,
			Context:  contextWindow(runes, span, ContextRadius),
			Position: span.Start,
		}
		if p.HasGeometry() {
			if boxes := p.lineBoxes(span); len(boxes) > 0 {
				occ.BBox = boxes[0]
			}
		}
		out = append(out, occ)
	}
	return out
}

// lineBoxes splits the glyphs covering span into one box per baseline.
func (p *Page) lineBoxes(span Span) []BBox {
	var (
		boxes   []BBox
		current BBox
		lastY   = math.NaN()
	)
	for i := span.Start; i < span.End && i < len(p.glyphAt); i++ {
		gi := p.glyphAt[i]
		if gi < 0 {
			continue
		}
		g := p.glyphs[gi]
		if strings.TrimSpace(g.S) == "" {
			continue
		}
		box := glyphBox(g)
		if !math.IsNaN(lastY) && math.Abs(g.Y-lastY) > g.Size*0.5 {
			boxes = append(boxes, current)
			current = BBox{}
		}
		current = current.Union(box)
		lastY = g.Y
	}
	if !current.IsZero() {
		boxes = append(boxes, current)
	}
	return boxes
}

func glyphBox(g Glyph) BBox {
	size := g.Size
	if size <= 0 {
		size = 10
	}
	w := g.W
	if w <= 0 {
		w = size * 0.5
	}
	return BBox{
		X0: g.X,
		Y0: g.Y - size*0.22,
		X1: g.X + w,
		Y1: g.Y + size*0.88,
	}
}

func contextWindow(runes []rune, span Span, radius int) string {
	start := span.Start - radius
	if start < 0 {
		start = 0
	}
	end := span.End + radius
	if end > len(runes) {
		end = len(runes)
	}
	return strings.Join(strings.Fields(string(runes[start:end])), " ")
}
