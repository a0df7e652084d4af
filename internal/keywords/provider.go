// Package keywords resolves the category → keyword lists used by the
// classifier, either from user input or from the built-in catalog, with
// optional AI generation on top.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoCategories is returned when neither the user nor the catalog provide
// any category.
var ErrNoCategories = errors.New("no keyword categories available")

// Generator produces keywords for a category. seed carries the user's own
// keywords when expanding a user category and is nil for catalog defaults.
type Generator interface {
	GenerateKeywords(ctx context.Context, category string, seed []string, n int) ([]string, error)
}

// UserContext describes what the caller asked for.
type UserContext struct {
	UserCategories []Category
	Expand         bool
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Keywords   map[string][]string
	Categories []Category
	// Degraded lists categories whose generation failed and fell back to
	// static or user-supplied keywords.
	Degraded []string
}

// Names returns the resolved category names in resolution order.
func (r *Resolution) Names() []string {
	out := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		out[i] = c.Name
	}
	return out
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	Catalog       *Catalog
	Generator     Generator // optional
	GenerateCount int
	// StaticDefaults keeps the catalog lists for default categories and only
	// uses the generator to expand user categories.
	StaticDefaults bool
	Timeout        time.Duration
	Logger         *slog.Logger
}

// Provider resolves keyword categories.
type Provider struct {
	catalog   *Catalog
	generator Generator
	count     int
	static    bool
	timeout   time.Duration
	logger    *slog.Logger
}

// NewProvider creates a provider. A nil catalog means the built-in one.
func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.GenerateCount <= 0 {
		cfg.GenerateCount = 15
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Provider{
		catalog:   cfg.Catalog,
		generator: cfg.Generator,
		count:     cfg.GenerateCount,
		static:    cfg.StaticDefaults,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger.With("component", "keyword_provider"),
	}
}

// Resolve returns the categories to classify against. Generator failures
// never surface as errors; the affected category falls back and is listed in
// Resolution.Degraded.
func (p *Provider) Resolve(ctx context.Context, uc UserContext) (*Resolution, error) {
	res := &Resolution{Keywords: make(map[string][]string)}

	if len(uc.UserCategories) == 0 {
		for _, cat := range p.catalog.Categories {
			terms := Dedupe(p.catalog.Fallback(cat.Name))
			if p.generator != nil && !p.static {
				generated, err := p.generate(ctx, cat.Name, nil)
				if err != nil || len(generated) == 0 {
					p.logger.Warn("keyword generation failed, using static list",
						"category", cat.Name, "error", err)
					res.Degraded = append(res.Degraded, cat.Name)
				} else {
					terms = generated
				}
			}
			res.add(cat.Name, terms, cat.Keywords)
		}
	} else {
		for _, cat := range uc.UserCategories {
			name := strings.TrimSpace(cat.Name)
			if name == "" {
				continue
			}
			terms := Dedupe(cat.Terms())
			if uc.Expand && p.generator != nil {
				generated, err := p.generate(ctx, name, terms)
				if err != nil {
					p.logger.Warn("keyword expansion failed, using user keywords",
						"category", name, "error", err)
					res.Degraded = append(res.Degraded, name)
				}
				terms = Dedupe(append(terms, generated...))
			}
			res.add(name, terms, cat.Keywords)
		}
	}

	if len(res.Categories) == 0 {
		return nil, ErrNoCategories
	}
	return res, nil
}

func (p *Provider) generate(ctx context.Context, category string, seed []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	terms, err := p.generator.GenerateKeywords(ctx, category, seed, p.count)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keywords for %s: %w", category, err)
	}
	return Dedupe(terms), nil
}

// add records terms for a category, keeping the weight of any term that
// already had one.
func (r *Resolution) add(name string, terms []string, known []Keyword) {
	weights := make(map[string]float64, len(known))
	for _, k := range known {
		key := strings.ToLower(strings.Join(strings.Fields(k.Term), " "))
		if _, ok := weights[key]; !ok {
			weights[key] = k.Weight
		}
	}
	cat := Category{Name: name, Keywords: make([]Keyword, 0, len(terms))}
	for _, t := range terms {
		w, ok := weights[strings.ToLower(t)]
		if !ok || w == 0 {
			w = 1
		}
		cat.Keywords = append(cat.Keywords, Keyword{Term: t, Weight: w})
	}
	r.Keywords[name] = terms
	r.Categories = append(r.Categories, cat)
}

// Dedupe trims terms, drops those shorter than two runes and removes
// case-insensitive duplicates, keeping the first spelling.
func Dedupe(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.Join(strings.Fields(t), " ")
		if utf8.RuneCountInString(t) < 2 {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
