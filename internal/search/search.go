// Package search ranks document pages against a query's original and
// expanded terms, and renders the context shown for each hit.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

// ErrInvalidPageRange is returned for a range that selects no page.
var ErrInvalidPageRange = errors.New("invalid page range")

// BestFallback is how many results a strict search returns when no page
// matched an original term.
const BestFallback = 3

// PageRange is an inclusive 1-based range. Zero bounds mean the first and
// last page.
type PageRange struct {
	From int `json:"from,omitempty" yaml:"from,omitempty"`
	To   int `json:"to,omitempty" yaml:"to,omitempty"`
}

// resolve clamps the range to the document.
func (r PageRange) resolve(pageCount int) (int, int, error) {
	from, to := r.From, r.To
	if from == 0 {
		from = 1
	}
	if to == 0 || to > pageCount {
		to = pageCount
	}
	if from < 1 || r.To < 0 || from > to {
		return 0, 0, fmt.Errorf("%w: %d-%d of %d pages", ErrInvalidPageRange, r.From, r.To, pageCount)
	}
	return from, to, nil
}

// Options control a search.
type Options struct {
	PageRange PageRange
	// Strictness in [0,1] weights original against expanded matches and,
	// above 0.5, requires an original match. Out-of-range values are clamped.
	Strictness float64
}

// Result is one matching page.
type Result struct {
	Page               int                   `json:"page" yaml:"page"`
	RawContext         string                `json:"raw_context" yaml:"raw_context"`
	HighlightedContext string                `json:"highlighted_context" yaml:"highlighted_context"`
	Relevance          float64               `json:"relevance" yaml:"relevance"`
	FoundTerms         []string              `json:"found_terms" yaml:"found_terms"`
	FoundOriginal      []string              `json:"found_original" yaml:"found_original"`
	FoundExpanded      []string              `json:"found_expanded" yaml:"found_expanded"`
	Category           string                `json:"category,omitempty" yaml:"category,omitempty"`
	Quantity           *int                  `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Occurrences        []document.Occurrence `json:"-" yaml:"-"`
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Inferrer Inferrer // optional
	Logger   *slog.Logger
}

// Engine runs searches. It holds no per-search state.
type Engine struct {
	inferrer Inferrer
	logger   *slog.Logger
}

// NewEngine creates a search engine.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		inferrer: cfg.Inferrer,
		logger:   logger.With("component", "search"),
	}
}

// Search scores every page in range and returns the kept results ordered by
// relevance, ties broken by page number.
func (e *Engine) Search(ctx context.Context, doc *document.Document, terms TermSet, opts Options) ([]Result, error) {
	from, to, err := opts.PageRange.resolve(doc.PageCount())
	if err != nil {
		return nil, err
	}
	s := clamp01(opts.Strictness)

	// One lookup per distinct term, bucketed by page.
	byPage := make(map[int]map[string][]document.Occurrence)
	seen := make(map[string]bool)
	for _, term := range terms.Candidates() {
		key := document.NormalizeTerm(term)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		for _, occ := range doc.Locate(term) {
			if occ.Page < from || occ.Page > to {
				continue
			}
			if byPage[occ.Page] == nil {
				byPage[occ.Page] = make(map[string][]document.Occurrence)
			}
			byPage[occ.Page][term] = append(byPage[occ.Page][term], occ)
		}
	}

	var results []Result
	for page := from; page <= to; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits := byPage[page]
		if len(hits) == 0 {
			continue
		}
		results = append(results, score(page, hits, terms, s))
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Page < results[j].Page
	})
	results = filter(results, s)

	for i := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := &results[i]
		text := doc.Page(r.Page).Text
		r.RawContext = ExtractContext(text, r.FoundTerms)
		r.HighlightedContext = Highlight(r.RawContext, r.FoundTerms, terms.Original)
		r.Category = e.inferCategory(ctx, r.RawContext)
		r.Quantity = e.inferQuantity(ctx, r.RawContext)
	}

	e.logger.Debug("search finished",
		"originals", len(terms.Original),
		"expanded", len(terms.Expanded),
		"strictness", s,
		"results", len(results))
	return results, nil
}

// score builds the result for one page. Terms are walked in candidate order
// so the found lists are deterministic.
func score(page int, hits map[string][]document.Occurrence, terms TermSet, s float64) Result {
	r := Result{Page: page}
	counted := make(map[string]bool)
	for _, term := range terms.Candidates() {
		occs, ok := hits[term]
		key := document.NormalizeTerm(term)
		if !ok || counted[key] {
			continue
		}
		counted[key] = true
		r.FoundTerms = append(r.FoundTerms, term)
		r.Occurrences = append(r.Occurrences, occs...)
		if terms.OriginOf(term) == Original {
			r.FoundOriginal = append(r.FoundOriginal, term)
		} else {
			r.FoundExpanded = append(r.FoundExpanded, term)
		}
	}

	origScore := float64(len(r.FoundOriginal)) / float64(max(len(terms.Original), 1)) * s
	expScore := float64(len(r.FoundExpanded)) / float64(max(len(terms.Candidates())-len(terms.Original), 1)) * (1 - s)
	r.Relevance = clamp01(origScore + expScore)
	return r
}

// filter applies the strictness rule to results sorted by relevance.
func filter(results []Result, s float64) []Result {
	if s <= 0.5 {
		return results
	}
	var kept []Result
	for _, r := range results {
		if len(r.FoundOriginal) > 0 {
			kept = append(kept, r)
		}
	}
	if len(kept) > 0 {
		return kept
	}
	if len(results) > BestFallback {
		return results[:BestFallback]
	}
	return results
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
