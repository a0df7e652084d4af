// Package ampel rates a document against keyword categories: a category is
// green when any of its keywords occurs in the document and red otherwise.
package ampel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

// Status is the traffic-light rating of a category.
type Status string

const (
	Green Status = "green"
	Red   Status = "red"
)

const (
	// MaxFoundKeywords caps FoundKeywords for display. PageLocations keeps all.
	MaxFoundKeywords = 10
	// MaxSnippets caps ContextSnippets.
	MaxSnippets = 3
	// confidenceSaturation is the number of distinct found keywords at which
	// confidence reaches 1.
	confidenceSaturation = 5
)

// Locator resolves term occurrences. *document.Document implements it.
type Locator interface {
	Locate(term string) []document.Occurrence
}

// CategoryResult is the rating of one category.
type CategoryResult struct {
	Status          Status                           `json:"status" yaml:"status"`
	FoundKeywords   []string                         `json:"found_keywords" yaml:"found_keywords"`
	Confidence      float64                          `json:"confidence" yaml:"confidence"`
	ContextSnippets []string                         `json:"context_snippets" yaml:"context_snippets"`
	PageLocations   map[string][]document.Occurrence `json:"page_locations" yaml:"page_locations"`
	FoundCount      int                              `json:"found_count" yaml:"found_count"`
	Error           string                           `json:"error,omitempty" yaml:"error,omitempty"`

	// Err is set when scanning this category failed.
	Err error `json:"-" yaml:"-"`
}

// redResult returns an empty red result.
func redResult() CategoryResult {
	return CategoryResult{
		Status:          Red,
		FoundKeywords:   []string{},
		ContextSnippets: []string{},
		PageLocations:   map[string][]document.Occurrence{},
	}
}

// Results maps category names to their rating.
type Results map[string]CategoryResult

// Names returns the category names sorted.
func (r Results) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary counts green and red categories.
type Summary struct {
	Green  int `json:"green" yaml:"green"`
	Red    int `json:"red" yaml:"red"`
	Failed int `json:"failed" yaml:"failed"`
}

// Summary returns status counts.
func (r Results) Summary() Summary {
	var s Summary
	for _, res := range r {
		if res.Status == Green {
			s.Green++
		} else {
			s.Red++
		}
		if res.Err != nil {
			s.Failed++
		}
	}
	return s
}

// AllRed builds a result set where every named category is red and empty.
func AllRed(names []string) Results {
	out := make(Results, len(names))
	for _, name := range names {
		out[name] = redResult()
	}
	return out
}

// ClassificationError reports categories whose scan failed. The Results
// returned alongside it are still complete: failed categories are red.
type ClassificationError struct {
	Failures map[string]error
}

func (e *ClassificationError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %v", name, e.Failures[name])
	}
	return fmt.Sprintf("classification failed for %d categories (%s)", len(names), strings.Join(parts, "; "))
}

// Unwrap exposes the per-category errors to errors.Is / errors.As.
func (e *ClassificationError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		out = append(out, err)
	}
	return out
}

// Classifier rates documents against keyword categories. It holds no state
// between calls.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger means slog.Default().
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{logger: logger.With("component", "classifier")}
}

// Classify rates doc against every category. Categories are processed in
// sorted name order. A failure in one category marks it red and does not stop
// the others; in that case the returned error is a *ClassificationError.
func (c *Classifier) Classify(ctx context.Context, doc Locator, categories map[string][]string) (Results, error) {
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(Results, len(names))
	failures := make(map[string]error)

	if doc == nil {
		for _, name := range names {
			results[name] = failed(errors.New("no document"))
			failures[name] = results[name].Err
		}
		return results, &ClassificationError{Failures: failures}
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			results[name] = failed(err)
			failures[name] = err
			continue
		}
		res, err := c.classifyOne(doc, categories[name])
		if err != nil {
			c.logger.Warn("category scan failed", "category", name, "error", err)
			results[name] = failed(err)
			failures[name] = err
			continue
		}
		results[name] = res
	}

	s := results.Summary()
	c.logger.Debug("classification complete", "categories", len(names), "green", s.Green, "red", s.Red)

	if len(failures) > 0 {
		return results, &ClassificationError{Failures: failures}
	}
	return results, nil
}

func (c *Classifier) classifyOne(doc Locator, kws []string) (res CategoryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during scan: %v", r)
		}
	}()

	res = redResult()
	seen := make(map[string]bool, len(kws))
	var found []string
	for _, kw := range kws {
		key := document.NormalizeTerm(kw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		occs := doc.Locate(kw)
		if len(occs) == 0 {
			continue
		}
		found = append(found, kw)
		res.PageLocations[kw] = occs
		if len(res.ContextSnippets) < MaxSnippets {
			res.ContextSnippets = append(res.ContextSnippets, occs[0].Context)
		}
	}

	res.FoundCount = len(found)
	res.Confidence = math.Min(1, float64(len(found))/confidenceSaturation)
	if len(found) > 0 {
		res.Status = Green
	}
	if len(found) > MaxFoundKeywords {
		found = found[:MaxFoundKeywords]
	}
	if found != nil {
		res.FoundKeywords = found
	}
	return res, nil
}

func failed(err error) CategoryResult {
	res := redResult()
	res.Err = err
	res.Error = err.Error()
	return res
}
