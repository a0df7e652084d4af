// Package compose writes the annotated output PDF: the source pages with
// highlight annotations, summary pages appended at the end and an outline
// grouping every result.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

// ErrNoArtifact is returned when no output PDF could be produced. Results
// computed before composition stay valid.
var ErrNoArtifact = errors.New("annotated PDF could not be produced")

// Grouping selects the level-1 outline key.
type Grouping string

const (
	ByTerm     Grouping = "term"
	ByCategory Grouping = "category"
)

// Entry is one result to annotate and list.
type Entry struct {
	Page     int
	Context  string
	Terms    []string // highlighted on the page
	Original []string // subset of Terms drawn in the original color
	Category string
	// Confidence is shown next to the category when HasConfidence is set.
	Confidence    float64
	HasConfidence bool
}

// Input describes one composition.
type Input struct {
	Title       string
	Query       string
	Perspective string
	Strictness  float64
	// Notes are extra lines printed under the query metadata.
	Notes    []string
	Entries  []Entry
	Grouping Grouping
	// Document supplies term geometry. When nil the source is extracted.
	Document *document.Document
}

// SearchEntries converts search results in their ranked order.
func SearchEntries(results []search.Result) []Entry {
	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, Entry{
			Page:     r.Page,
			Context:  r.RawContext,
			Terms:    r.FoundTerms,
			Original: r.FoundOriginal,
			Category: r.Category,
		})
	}
	return entries
}

// Bookmark is one node of the output outline.
type Bookmark struct {
	Title    string     `json:"title" yaml:"title"`
	Page     int        `json:"page" yaml:"page"`
	Children []Bookmark `json:"children,omitempty" yaml:"children,omitempty"`
}

// Artifact is the composed PDF.
type Artifact struct {
	Data         []byte     `json:"-" yaml:"-"`
	Bookmarks    []Bookmark `json:"bookmarks" yaml:"bookmarks"`
	SourcePages  int        `json:"source_pages" yaml:"source_pages"`
	SummaryPages int        `json:"summary_pages" yaml:"summary_pages"`
	Highlights   int        `json:"highlights" yaml:"highlights"`
}

// WriteFunc serializes a finished pdfcpu context.
type WriteFunc func(pctx *model.Context, w io.Writer) error

// Config configures a Composer.
type Config struct {
	MaxInline    int       // entries listed per group before "+N weitere"; 5 when zero
	ContextChars int       // context length on summary pages; 90 when zero
	SkipOptimize bool      // write without pdfcpu optimization
	Write        WriteFunc // api.WriteContext when nil
	Logger       *slog.Logger
}

// Composer builds annotated PDFs. It is safe for concurrent use; every call
// works on its own pdfcpu context.
type Composer struct {
	maxInline    int
	contextChars int
	optimize     bool
	write        WriteFunc
	logger       *slog.Logger
}

// New creates a Composer.
func New(cfg Config) *Composer {
	if cfg.MaxInline <= 0 {
		cfg.MaxInline = 5
	}
	if cfg.ContextChars <= 0 {
		cfg.ContextChars = 90
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Write == nil {
		cfg.Write = api.WriteContext
	}
	return &Composer{
		maxInline:    cfg.MaxInline,
		contextChars: cfg.ContextChars,
		optimize:     !cfg.SkipOptimize,
		write:        cfg.Write,
		logger:       cfg.Logger.With("component", "composer"),
	}
}

// Compose annotates source and appends the summary. Every failure wraps
// ErrNoArtifact.
func (c *Composer) Compose(ctx context.Context, source []byte, in Input) (*Artifact, error) {
	doc := in.Document
	if doc == nil {
		var err error
		doc, err = document.Extract(ctx, source, document.WithLogger(c.logger))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoArtifact, err)
		}
	}

	pctx, err := readContext(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoArtifact, err)
	}
	sourcePages := pctx.PageCount

	highlights := 0
	for _, e := range in.Entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoArtifact, err)
		}
		if e.Page < 1 || e.Page > sourcePages {
			continue
		}
		n, err := highlightEntry(pctx, doc, e)
		if err != nil {
			// Geometry problems cost the highlight, not the entry.
			c.logger.Debug("failed to highlight entry", "page", e.Page, "error", err)
		}
		highlights += n
	}

	groups := groupEntries(in.Entries, in.Grouping, sourcePages)
	summaryPages, err := c.appendSummary(ctx, pctx, in, groups)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoArtifact, err)
	}

	bookmarks := outlineFor(groups, c.contextChars)
	if err := writeOutline(pctx, bookmarks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoArtifact, err)
	}

	data, err := c.save(pctx)
	if err != nil {
		return nil, err
	}

	c.logger.Info("composed annotated PDF",
		"source_pages", sourcePages,
		"summary_pages", summaryPages,
		"groups", len(groups),
		"highlights", highlights,
		"bytes", len(data))

	return &Artifact{
		Data:         data,
		Bookmarks:    bookmarks,
		SourcePages:  sourcePages,
		SummaryPages: summaryPages,
		Highlights:   highlights,
	}, nil
}

func readContext(source []byte) (*model.Context, error) {
	conf := document.ValidationConfig()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	pctx, err := api.ReadContext(bytes.NewReader(source), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}
	return pctx, nil
}

// save writes the context, optimized first when enabled. A failed optimized
// write is retried once without optimization.
func (c *Composer) save(pctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if c.optimize {
		err := api.OptimizeContext(pctx)
		if err == nil {
			err = c.write(pctx, &buf)
		}
		if err == nil {
			return buf.Bytes(), nil
		}
		c.logger.Warn("optimized write failed, retrying plain write", "error", err)
		buf.Reset()
	}
	if err := c.write(pctx, &buf); err != nil {
		return nil, fmt.Errorf("%w: failed to write PDF: %w", ErrNoArtifact, err)
	}
	return buf.Bytes(), nil
}
