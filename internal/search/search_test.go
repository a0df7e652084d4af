package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
)

func pagesOf(results []Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Page
	}
	return out
}

// sevenPages has "LED" on page 3 only and "IP65" on page 7 only.
func sevenPages() *document.Document {
	return document.FromTexts(
		"Deckblatt",
		"Inhaltsverzeichnis",
		"LED Panel für Büros",
		"Allgemeine Hinweise",
		"Lieferbedingungen",
		"Zahlungsbedingungen",
		"Schutzart IP65 für Außenbereiche",
	)
}

func TestSearch_StrictnessFiltersExpandedOnlyPages(t *testing.T) {
	doc := sevenPages()
	terms := TermSet{Original: SplitQuery("LED, Feuchtraum"), Expanded: []string{"IP65"}}
	engine := NewEngine(EngineConfig{})

	strict, err := engine.Search(context.Background(), doc, terms, Options{Strictness: 0.8})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := pagesOf(strict); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("strict pages = %v, want [3]", got)
	}
	if r := strict[0]; r.Relevance != 0.4 || !reflect.DeepEqual(r.FoundOriginal, []string{"LED"}) {
		t.Errorf("page 3 result = %+v", r)
	}

	loose, err := engine.Search(context.Background(), doc, terms, Options{Strictness: 0.5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// page 7: 1/1 * 0.5, page 3: 1/2 * 0.5
	if got := pagesOf(loose); !reflect.DeepEqual(got, []int{7, 3}) {
		t.Errorf("loose pages = %v, want [7 3]", got)
	}
	if loose[0].FoundExpanded[0] != "IP65" {
		t.Errorf("page 7 expanded = %v", loose[0].FoundExpanded)
	}
}

func TestSearch_MultiWordExactPhrase(t *testing.T) {
	doc := document.FromTexts(
		"Not aus Schalter, Preis pro stück",
		"Not stück Zubehör",
	)
	terms := TermSet{Original: []string{"Not stück"}}
	results, err := NewEngine(EngineConfig{}).Search(context.Background(), doc, terms, Options{Strictness: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := pagesOf(results); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("pages = %v, want [2]", got)
	}
}

func TestSearch_BestThreeFallback(t *testing.T) {
	texts := make([]string, 6)
	for i := range texts {
		texts[i] = fmt.Sprintf("Seite %d mit Downlight", i+1)
	}
	texts[4] += " und Strahler"
	doc := document.FromTexts(texts...)
	terms := TermSet{Original: []string{"Feuchtraum"}, Expanded: []string{"Downlight", "Strahler"}}

	results, err := NewEngine(EngineConfig{}).Search(context.Background(), doc, terms, Options{Strictness: 0.9})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := pagesOf(results); !reflect.DeepEqual(got, []int{5, 1, 2}) {
		t.Errorf("pages = %v, want [5 1 2]", got)
	}
}

func TestSearch_StrictnessMonotonicity(t *testing.T) {
	doc := document.FromTexts(
		"LED Leuchte IP65",
		"IP65 Gehäuse",
		"LED Streifen",
		"Feuchtraum IP65 LED",
		"nichts",
	)
	terms := TermSet{Original: []string{"LED", "Feuchtraum"}, Expanded: []string{"IP65", "Gehäuse"}}
	engine := NewEngine(EngineConfig{})

	originalsOnly := 0
	for _, text := range []string{"LED Leuchte IP65", "IP65 Gehäuse", "LED Streifen", "Feuchtraum IP65 LED", "nichts"} {
		if document.Contains(text, "LED") || document.Contains(text, "Feuchtraum") {
			originalsOnly++
		}
	}

	prev := -1
	for _, s := range []float64{0.51, 0.6, 0.75, 0.9, 1.0} {
		results, err := engine.Search(context.Background(), doc, terms, Options{Strictness: s})
		if err != nil {
			t.Fatalf("Search(%v) error = %v", s, err)
		}
		if len(results) > originalsOnly {
			t.Errorf("strictness %v returned %d results, originals-only subset has %d", s, len(results), originalsOnly)
		}
		if prev >= 0 && len(results) > prev {
			t.Errorf("strictness %v returned more results (%d) than a lower strictness (%d)", s, len(results), prev)
		}
		prev = len(results)
		for _, r := range results {
			if r.Relevance < 0 || r.Relevance > 1 {
				t.Errorf("relevance %v out of range", r.Relevance)
			}
		}
	}
}

func TestSearch_RelevanceBounds(t *testing.T) {
	// Expanded terms containing an original count as original, which can
	// push the raw original score above the strictness weight.
	doc := document.FromTexts("LED LED-Panel LED Spot")
	terms := TermSet{Original: []string{"LED"}, Expanded: []string{"LED-Panel", "LED Spot"}}
	for _, s := range []float64{-1, 0, 0.3, 1, 2} {
		results, err := NewEngine(EngineConfig{}).Search(context.Background(), doc, terms, Options{Strictness: s})
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		for _, r := range results {
			if r.Relevance < 0 || r.Relevance > 1 {
				t.Errorf("strictness %v: relevance %v out of range", s, r.Relevance)
			}
		}
	}
}

func TestSearch_PageRange(t *testing.T) {
	doc := sevenPages()
	terms := TermSet{Original: []string{"LED"}, Expanded: []string{"IP65"}}
	engine := NewEngine(EngineConfig{})

	results, err := engine.Search(context.Background(), doc, terms, Options{PageRange: PageRange{From: 4, To: 9}, Strictness: 0.3})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := pagesOf(results); !reflect.DeepEqual(got, []int{7}) {
		t.Errorf("pages = %v, want [7]", got)
	}

	for _, r := range []PageRange{{From: 5, To: 2}, {From: -1}, {From: 9}} {
		if _, err := engine.Search(context.Background(), doc, terms, Options{PageRange: r}); !errors.Is(err, ErrInvalidPageRange) {
			t.Errorf("range %+v: error = %v, want ErrInvalidPageRange", r, err)
		}
	}
}

func TestSearch_Idempotent(t *testing.T) {
	doc := sevenPages()
	terms := TermSet{Original: []string{"LED"}, Expanded: []string{"IP65", "Panel"}}
	engine := NewEngine(EngineConfig{})
	a, _ := engine.Search(context.Background(), doc, terms, Options{Strictness: 0.4})
	b, _ := engine.Search(context.Background(), doc, terms, Options{Strictness: 0.4})
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated searches differ")
	}
}

func TestSearch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine(EngineConfig{}).Search(ctx, sevenPages(), TermSet{Original: []string{"LED"}}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type stubInferrer struct {
	category    string
	quantity    int
	err         error
	categoryHit int
	quantityHit int
}

func (s *stubInferrer) InferCategory(ctx context.Context, snippet string) (string, error) {
	s.categoryHit++
	return s.category, s.err
}

func (s *stubInferrer) InferQuantity(ctx context.Context, snippet string) (int, bool, error) {
	s.quantityHit++
	return s.quantity, s.err == nil, s.err
}

func TestSearch_Inference(t *testing.T) {
	doc := document.FromTexts(
		"Position 1: 12 Stück Downlight LED",
		"Position 2: Sensor LED mit Zubehör",
	)
	terms := TermSet{Original: []string{"LED"}}

	inferrer := &stubInferrer{category: "präsenz melder modul", quantity: 4}
	results, err := NewEngine(EngineConfig{Inferrer: inferrer}).Search(context.Background(), doc, terms, Options{Strictness: 0.5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	first, second := results[0], results[1]
	if first.Category != "Downlight" || first.Quantity == nil || *first.Quantity != 12 {
		t.Errorf("page 1 inference = %q / %v", first.Category, first.Quantity)
	}
	if second.Category != "Präsenz Melder" || second.Quantity == nil || *second.Quantity != 4 {
		t.Errorf("page 2 inference = %q / %v", second.Category, second.Quantity)
	}
	if inferrer.categoryHit != 1 || inferrer.quantityHit != 1 {
		t.Errorf("inferrer calls = %d/%d, want 1/1", inferrer.categoryHit, inferrer.quantityHit)
	}

	failing := &stubInferrer{err: errors.New("timeout")}
	results, err = NewEngine(EngineConfig{Inferrer: failing}).Search(context.Background(), doc, terms, Options{Strictness: 0.5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if results[1].Category != "" || results[1].Quantity != nil {
		t.Errorf("failed inference should leave fields empty: %+v", results[1])
	}
}

func TestPatternQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"12 Stück Downlight", 12, true},
		{"5 stk. Panel", 5, true},
		{"Anzahl: 40", 40, true},
		{"Menge: 7 Einheiten", 7, true},
		{"3x Strahler", 3, true},
		{"20 pcs", 20, true},
		{"Panel 60x60", 0, false},
		{"12000 Stück", 0, false},
		{"keine Angabe", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := PatternQuantity(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("PatternQuantity(%q) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestVocabularyCategory(t *testing.T) {
	tests := map[string]string{
		"Pendelleuchte 40W":      "Pendelleuchte",
		"LED-Streifen 5m":        "LED-Streifen",
		"Feuchtraumleuchte IP65": "Feuchtraumleuchte",
		"Deckenleuchte rund":     "Leuchte",
		"Kabel 3x1,5":            "",
	}
	for in, want := range tests {
		got, _ := VocabularyCategory(in)
		if got != want {
			t.Errorf("VocabularyCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitQuery(t *testing.T) {
	got := SplitQuery("LED, Feuchtraum\nled ,x,  Not   stück ")
	want := []string{"LED", "Feuchtraum", "Not stück"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitQuery() = %v, want %v", got, want)
	}
}

func TestOriginOf(t *testing.T) {
	ts := TermSet{Original: []string{"LED", "Feuchtraum"}}
	tests := map[string]Origin{
		"led":               Original,
		"LED-Panel":         Original,
		"Feuchtraumleuchte": Original,
		"IP65":              Expanded,
		"":                  Expanded,
	}
	for term, want := range tests {
		if got := ts.OriginOf(term); got != want {
			t.Errorf("OriginOf(%q) = %s, want %s", term, got, want)
		}
	}
}
