package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrUnreadableDocument is returned when the bytes are not a readable PDF.
	ErrUnreadableDocument = errors.New("unreadable PDF document")

	// ErrTooManyPages is returned when the document exceeds the configured page limit.
	ErrTooManyPages = errors.New("document exceeds page limit")
)

type extractOptions struct {
	logger   *slog.Logger
	maxPages int
}

// Option configures Extract.
type Option func(*extractOptions)

// WithLogger sets the logger used for per-page diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *extractOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxPages rejects documents with more than n pages. Zero disables the check.
func WithMaxPages(n int) Option {
	return func(o *extractOptions) {
		o.maxPages = n
	}
}

// ValidationConfig returns the pdfcpu configuration shared by the extractor
// and the composer.
func ValidationConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Extract reads a PDF from memory and returns its pages with text and, where
// the content stream can be walked, per-rune glyph geometry.
func Extract(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	o := extractOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("component", "extractor")

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnreadableDocument)
	}

	count, err := api.PageCount(bytes.NewReader(data), ValidationConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	if o.maxPages > 0 && count > o.maxPages {
		return nil, fmt.Errorf("%w: %d pages (limit %d)", ErrTooManyPages, count, o.maxPages)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	n := r.NumPage()
	pages := make([]*Page, 0, n)
	fallbacks := 0
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := &Page{Index: i - 1}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, page)
			continue
		}

		glyphs, err := pageGlyphs(p)
		if err != nil {
			logger.Debug("glyph walk failed, using plain text", "page", i, "error", err)
		}
		if len(glyphs) > 0 {
			page.Text, page.glyphAt = layoutGlyphs(glyphs)
			page.glyphs = glyphs
		}
		if strings.TrimSpace(page.Text) == "" {
			page.glyphs, page.glyphAt = nil, nil
			text, err := plainText(p)
			if err != nil {
				logger.Debug("plain text decode failed", "page", i, "error", err)
			}
			page.Text = norm.NFC.String(text)
			fallbacks++
		}
		pages = append(pages, page)
	}

	doc := New(pages)
	logger.Debug("document extracted",
		"pages", doc.PageCount(),
		"tokens", doc.index.Tokens(),
		"text_only_pages", fallbacks)
	return doc, nil
}

// pageGlyphs walks the page content stream. The underlying reader panics on
// malformed streams, so the walk is isolated per page.
func pageGlyphs(p pdf.Page) (glyphs []Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs = nil
			err = fmt.Errorf("content stream: %v", r)
		}
	}()
	for _, t := range p.Content().Text {
		if t.S == "" {
			continue
		}
		glyphs = append(glyphs, Glyph{
			S:    norm.NFC.String(t.S),
			X:    t.X,
			Y:    t.Y,
			W:    t.W,
			Size: t.FontSize,
		})
	}
	return glyphs, nil
}

func plainText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plain text: %v", r)
		}
	}()
	return p.GetPlainText(nil)
}

// layoutGlyphs turns the glyph stream into page text. A baseline jump starts a
// new line; a horizontal gap wider than a quarter of the font size inserts a
// space. Inserted separators map to glyph -1.
func layoutGlyphs(glyphs []Glyph) (string, []int) {
	var (
		sb      strings.Builder
		glyphAt []int
	)
	for gi, g := range glyphs {
		if gi > 0 {
			prev := glyphs[gi-1]
			size := math.Max(math.Max(g.Size, prev.Size), 1)
			switch {
			case math.Abs(g.Y-prev.Y) > size*0.5:
				sb.WriteByte('\n')
				glyphAt = append(glyphAt, -1)
			case g.X-(prev.X+prev.W) > size*0.25 && !endsWithSpace(prev.S) && !startsWithSpace(g.S):
				sb.WriteByte(' ')
				glyphAt = append(glyphAt, -1)
			}
		}
		for range g.S {
			glyphAt = append(glyphAt, gi)
		}
		sb.WriteString(g.S)
	}
	return sb.String(), glyphAt
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r == ' ' || r == '\n' || r == '\t'
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == ' ' || r == '\n' || r == '\t'
}
