// Package pipeline wires extraction, keyword resolution, classification,
// search and composition into the two operations callers use: Classify and
// Search. Every call owns its document and results; the Service itself only
// holds collaborators.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/ampel"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/compose"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/expand"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

// Sentinel errors for the pipeline package.
var (
	// ErrExtraction is returned when the PDF cannot be read. Nothing else runs.
	ErrExtraction = errors.New("failed to extract document")

	// ErrEmptyQuery is returned when a search query yields no usable term.
	ErrEmptyQuery = errors.New("query contains no search terms")
)

// Config configures a Service. Only Keywords is required; a nil Expander
// searches original terms only and a nil Inferrer leaves inference to the
// built-in vocabulary and patterns.
type Config struct {
	Keywords *keywords.Provider
	Expander expand.Expander
	Inferrer search.Inferrer
	Composer *compose.Composer

	Perspective      expand.Perspective
	Strictness       float64
	MaxExpandedTerms int
	MaxPages         int
	Logger           *slog.Logger
}

// Service runs classification and search requests. It is safe for
// concurrent use.
type Service struct {
	keywords    *keywords.Provider
	expander    expand.Expander
	classifier  *ampel.Classifier
	engine      *search.Engine
	composer    *compose.Composer
	perspective expand.Perspective
	strictness  float64
	maxTerms    int
	maxPages    int
	logger      *slog.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Keywords == nil {
		return nil, errors.New("pipeline: keyword provider is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Composer == nil {
		cfg.Composer = compose.New(compose.Config{Logger: cfg.Logger})
	}
	if cfg.Perspective == "" {
		cfg.Perspective = expand.Technical
	}
	if cfg.MaxExpandedTerms <= 0 {
		cfg.MaxExpandedTerms = expand.MaxExpandedTerms
	}
	return &Service{
		keywords:    cfg.Keywords,
		expander:    cfg.Expander,
		classifier:  ampel.NewClassifier(cfg.Logger),
		engine:      search.NewEngine(search.EngineConfig{Inferrer: cfg.Inferrer, Logger: cfg.Logger}),
		composer:    cfg.Composer,
		perspective: cfg.Perspective,
		strictness:  cfg.Strictness,
		maxTerms:    cfg.MaxExpandedTerms,
		maxPages:    cfg.MaxPages,
		logger:      cfg.Logger.With("component", "pipeline"),
	}, nil
}

// ClassifyOutcome is the result of Classify.
type ClassifyOutcome struct {
	Pages      int                 `json:"pages" yaml:"pages"`
	Keywords   map[string][]string `json:"keywords" yaml:"keywords"`
	Results    ampel.Results       `json:"results" yaml:"results"`
	Summary    ampel.Summary       `json:"summary" yaml:"summary"`
	Artifact   *compose.Artifact   `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Warnings   []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	DurationMS int64               `json:"duration_ms" yaml:"duration_ms"`
}

// SearchRequest describes one search.
type SearchRequest struct {
	Query       string
	Perspective expand.Perspective // service default when empty
	Strictness  *float64           // service default when nil
	PageRange   search.PageRange
	Grouping    compose.Grouping // term when empty
	NoExpand    bool
}

// SearchOutcome is the result of Search.
type SearchOutcome struct {
	Query       string             `json:"query" yaml:"query"`
	Perspective expand.Perspective `json:"perspective" yaml:"perspective"`
	Strictness  float64            `json:"strictness" yaml:"strictness"`
	Pages       int                `json:"pages" yaml:"pages"`
	Terms       search.TermSet     `json:"terms" yaml:"terms"`
	Results     []search.Result    `json:"results" yaml:"results"`
	Artifact    *compose.Artifact  `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Warnings    []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	DurationMS  int64              `json:"duration_ms" yaml:"duration_ms"`
}

// Classify rates pdf against the resolved keyword categories. Collaborator
// failures degrade into Warnings; when render is set and composition fails,
// Artifact stays nil and the results are still returned.
func (s *Service) Classify(ctx context.Context, pdf []byte, uc keywords.UserContext, render bool) (*ClassifyOutcome, error) {
	start := time.Now()

	doc, err := s.extract(ctx, pdf)
	if err != nil {
		return nil, err
	}

	res, err := s.keywords.Resolve(ctx, uc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve keywords: %w", err)
	}
	out := &ClassifyOutcome{Pages: doc.PageCount(), Keywords: res.Keywords}
	for _, name := range res.Degraded {
		out.Warnings = append(out.Warnings, fmt.Sprintf("keyword generation failed for %q, fallback keywords used", name))
	}

	results, err := s.classifier.Classify(ctx, doc, res.Keywords)
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	var classErr *ampel.ClassificationError
	if errors.As(err, &classErr) {
		for _, name := range results.Names() {
			if e, ok := classErr.Failures[name]; ok {
				out.Warnings = append(out.Warnings, fmt.Sprintf("category %q could not be scanned: %v", name, e))
			}
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to classify: %w", err)
	}
	out.Results = results
	out.Summary = results.Summary()

	if render {
		art, err := s.composer.ComposeClassification(ctx, pdf, doc, results)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
			s.logger.Warn("classification results kept without annotated PDF", "error", err)
			out.Warnings = append(out.Warnings, err.Error())
		}
		out.Artifact = art
	}

	out.DurationMS = time.Since(start).Milliseconds()
	s.logger.Info("classified document",
		"pages", out.Pages,
		"categories", len(results),
		"green", out.Summary.Green,
		"red", out.Summary.Red,
		"warnings", len(out.Warnings),
		"duration_ms", out.DurationMS)
	return out, nil
}

// Search runs a relevance search over pdf. Expansion failures degrade to an
// originals-only search recorded in Warnings.
func (s *Service) Search(ctx context.Context, pdf []byte, req SearchRequest, render bool) (*SearchOutcome, error) {
	start := time.Now()

	if len(search.SplitQuery(req.Query)) == 0 {
		return nil, ErrEmptyQuery
	}
	p := req.Perspective
	if p == "" {
		p = s.perspective
	}
	strictness := s.strictness
	if req.Strictness != nil {
		strictness = *req.Strictness
	}
	strictness = min(max(strictness, 0), 1)

	doc, err := s.extract(ctx, pdf)
	if err != nil {
		return nil, err
	}

	var exp expand.Expander
	if !req.NoExpand {
		exp = s.expander
	}
	terms := expand.BuildTermSet(ctx, req.Query, p, exp, s.maxTerms)
	out := &SearchOutcome{
		Query:       req.Query,
		Perspective: p,
		Strictness:  strictness,
		Pages:       doc.PageCount(),
		Terms:       terms,
	}
	if terms.Degraded {
		out.Warnings = append(out.Warnings, "query expansion unavailable, searched original terms only")
	}

	results, err := s.engine.Search(ctx, doc, terms, search.Options{PageRange: req.PageRange, Strictness: strictness})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	out.Results = results

	if render {
		grouping := req.Grouping
		if grouping == "" {
			grouping = compose.ByTerm
		}
		art, err := s.composer.Compose(ctx, pdf, compose.Input{
			Query:       req.Query,
			Perspective: string(p),
			Strictness:  strictness,
			Entries:     compose.SearchEntries(results),
			Grouping:    grouping,
			Document:    doc,
		})
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, cerr
			}
			s.logger.Warn("search results kept without annotated PDF", "error", err)
			out.Warnings = append(out.Warnings, err.Error())
		}
		out.Artifact = art
	}

	out.DurationMS = time.Since(start).Milliseconds()
	s.logger.Info("searched document",
		"pages", out.Pages,
		"originals", len(terms.Original),
		"expanded", len(terms.Expanded),
		"results", len(results),
		"warnings", len(out.Warnings),
		"duration_ms", out.DurationMS)
	return out, nil
}

func (s *Service) extract(ctx context.Context, pdf []byte) (*document.Document, error) {
	doc, err := document.Extract(ctx, pdf, document.WithLogger(s.logger), document.WithMaxPages(s.maxPages))
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return doc, nil
}
