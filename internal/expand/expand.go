// Package expand turns a raw query into a term set, using an LLM to add
// related terms. It also hosts the LLM-backed keyword generation and snippet
// inference used by the classifier and search engine.
package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/providers"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

// MaxExpandedTerms caps the expanded part of a term set.
const MaxExpandedTerms = 30

// Perspective biases expansion toward commercial or technical vocabulary.
type Perspective string

const (
	Sales     Perspective = "sales"
	Technical Perspective = "technical"
)

// ParsePerspective maps user input to a Perspective. Anything other than a
// sales alias is technical.
func ParsePerspective(s string) Perspective {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sales", "vertrieb", "verkauf":
		return Sales
	default:
		return Technical
	}
}

// Expander produces terms related to a query.
type Expander interface {
	Expand(ctx context.Context, query string, p Perspective) ([]string, error)
}

// Config configures an LLMExpander.
type Config struct {
	Client      providers.LLMClient
	Model       string  // client default when empty
	Temperature float64 // 0.3 when zero
	MaxTerms    int     // MaxExpandedTerms when zero
	Logger      *slog.Logger
}

// LLMExpander implements Expander, keywords.Generator and search.Inferrer
// on top of an LLM client with structured output.
type LLMExpander struct {
	client      providers.LLMClient
	model       string
	temperature float64
	maxTerms    int
	logger      *slog.Logger
}

// NewLLMExpander creates an LLM-backed expander.
func NewLLMExpander(cfg Config) *LLMExpander {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTerms <= 0 {
		cfg.MaxTerms = MaxExpandedTerms
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LLMExpander{
		client:      cfg.Client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTerms:    cfg.MaxTerms,
		logger:      cfg.Logger.With("component", "expander"),
	}
}

// Expand asks the model for terms related to query.
func (e *LLMExpander) Expand(ctx context.Context, query string, p Perspective) ([]string, error) {
	system, user := expandPrompt(query, p, e.maxTerms)
	var out termsResponse
	if err := e.chat(ctx, system, user, "expanded_terms", TermsSchema, &out); err != nil {
		return nil, fmt.Errorf("failed to expand query: %w", err)
	}
	terms := usableTerms(out.Terms, e.maxTerms)
	e.logger.Debug("query expanded", "perspective", p, "terms", len(terms))
	return terms, nil
}

// GenerateKeywords asks the model for n keywords for a category. seed holds
// keywords the category already has.
func (e *LLMExpander) GenerateKeywords(ctx context.Context, category string, seed []string, n int) ([]string, error) {
	var out termsResponse
	if err := e.chat(ctx, keywordSystem, keywordPrompt(category, seed, n), "category_keywords", TermsSchema, &out); err != nil {
		return nil, fmt.Errorf("failed to generate keywords: %w", err)
	}
	terms := keywords.Dedupe(out.Terms)
	if n > 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms, nil
}

// InferCategory returns a short product label for snippet, or "".
func (e *LLMExpander) InferCategory(ctx context.Context, snippet string) (string, error) {
	var out categoryResponse
	if err := e.chat(ctx, categorySystem, snippetPrompt(snippet), "snippet_category", CategorySchema, &out); err != nil {
		return "", fmt.Errorf("failed to infer category: %w", err)
	}
	return strings.TrimSpace(out.Category), nil
}

// InferQuantity returns the unit count mentioned in snippet. ok is false
// when the model found none.
func (e *LLMExpander) InferQuantity(ctx context.Context, snippet string) (int, bool, error) {
	var out quantityResponse
	if err := e.chat(ctx, quantitySystem, snippetPrompt(snippet), "snippet_quantity", QuantitySchema, &out); err != nil {
		return 0, false, fmt.Errorf("failed to infer quantity: %w", err)
	}
	if out.Quantity == nil || *out.Quantity < 0 || *out.Quantity > search.MaxQuantity {
		return 0, false, nil
	}
	return *out.Quantity, true, nil
}

func (e *LLMExpander) chat(ctx context.Context, system, user, name string, schema map[string]any, out any) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	req := &providers.ChatRequest{
		Messages:       []providers.Message{providers.System(system), providers.User(user)},
		Model:          e.model,
		Temperature:    e.temperature,
		ResponseFormat: providers.JSONSchemaFormat(name, raw),
	}
	return providers.ChatStructured(ctx, e.client, req, out)
}

var (
	_ Expander           = (*LLMExpander)(nil)
	_ keywords.Generator = (*LLMExpander)(nil)
	_ search.Inferrer    = (*LLMExpander)(nil)
)
