package search

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const MaxQuantity = 9999

// Inferrer guesses a category label and a quantity for a snippet. Both are
// best effort; callers treat errors as "unknown".
type Inferrer interface {
	InferCategory(ctx context.Context, snippet string) (string, error)
	InferQuantity(ctx context.Context, snippet string) (int, bool, error)
}

// fixtureVocabulary holds the lighting fixture labels recognized without a
// model call, longest first so compounds win over their suffixes.
var fixtureVocabulary = sortedByLength([]string{
	"Leuchte", "Strahler", "Downlight", "Panel", "Pendelleuchte",
	"Einbauleuchte", "Anbauleuchte", "Wandleuchte", "Stehleuchte",
	"Lichtband", "Feuchtraumleuchte", "Notleuchte", "Hallenleuchte",
	"Flutlicht", "Spot", "Lampe", "LED-Streifen", "Röhre",
})

var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,5})\s*(?:stück|stk\.?|pcs|mal|einheiten|x\b)`),
	regexp.MustCompile(`(?i)\b(\d{1,5})x\b`),
	regexp.MustCompile(`(?i)anzahl\s*:\s*(\d{1,5})\b`),
	regexp.MustCompile(`(?i)menge\s*:\s*(\d{1,5})\b`),
}

func sortedByLength(words []string) []string {
	sort.SliceStable(words, func(i, j int) bool {
		return utf8.RuneCountInString(words[i]) > utf8.RuneCountInString(words[j])
	})
	return words
}

// VocabularyCategory returns the first fixture label found in snippet.
func VocabularyCategory(snippet string) (string, bool) {
	lower := strings.ToLower(snippet)
	for _, word := range fixtureVocabulary {
		if strings.Contains(lower, strings.ToLower(word)) {
			return word, true
		}
	}
	return "", false
}

// PatternQuantity applies the quantity patterns in order. A match outside
// 0..MaxQuantity counts as no match.
func PatternQuantity(snippet string) (int, bool) {
	for _, re := range quantityPatterns {
		m := re.FindStringSubmatch(snippet)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 0 || n > MaxQuantity {
			continue
		}
		return n, true
	}
	return 0, false
}

// NormalizeLabel trims a model label to at most two title-cased words.
func NormalizeLabel(label string) string {
	words := strings.Fields(strings.Trim(label, " \t\n\"'.:"))
	if len(words) > 2 {
		words = words[:2]
	}
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.German, cases.NoLower).String(strings.Join(words, " "))
}

func (e *Engine) inferCategory(ctx context.Context, snippet string) string {
	if label, ok := VocabularyCategory(snippet); ok {
		return label
	}
	if e.inferrer == nil {
		return ""
	}
	label, err := e.inferrer.InferCategory(ctx, snippet)
	if err != nil {
		e.logger.Debug("category inference failed", "error", err)
		return ""
	}
	return NormalizeLabel(label)
}

func (e *Engine) inferQuantity(ctx context.Context, snippet string) *int {
	if n, ok := PatternQuantity(snippet); ok {
		return &n
	}
	if e.inferrer == nil {
		return nil
	}
	n, ok, err := e.inferrer.InferQuantity(ctx, snippet)
	if err != nil {
		e.logger.Debug("quantity inference failed", "error", err)
		return nil
	}
	if !ok || n < 0 || n > MaxQuantity {
		return nil
	}
	return &n
}
