package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/ampel"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/compose"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/config"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/expand"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/providers"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/testutil"
)

func fixture() []byte {
	pages := make([]string, 10)
	for i := range pages {
		pages[i] = fmt.Sprintf("Seite %d\nAllgemeine Angaben", i+1)
	}
	pages[2] = "Position 1\nLED Panel 60x60 IP40\n12 Stück"
	pages[4] = "Position 2\nLED Downlight rund"
	pages[6] = "Position 3\nFeuchtraumleuchte IP65"
	return testutil.PDF(pages...)
}

func testCatalog() *keywords.Catalog {
	return &keywords.Catalog{Categories: []keywords.Category{
		keywords.NewCategory("Beleuchtung", "LED", "Downlight"),
		keywords.NewCategory("Feuchtraum", "IP65", "IP44"),
		keywords.NewCategory("Notbeleuchtung", "Notleuchte"),
	}}
}

// llmMock answers by response schema name.
func llmMock() *providers.MockClient {
	client := providers.NewMockClient()
	client.Respond = func(req *providers.ChatRequest) (string, error) {
		schema := string(req.ResponseFormat.JSONSchema)
		switch {
		case strings.Contains(schema, `"name":"expanded_terms"`):
			return `{"terms": ["IP65", "led", "Downlight"]}`, nil
		case strings.Contains(schema, `"name":"category_keywords"`):
			return `{"terms": ["Akzentlicht"]}`, nil
		case strings.Contains(schema, `"name":"snippet_quantity"`):
			return `{"quantity": null}`, nil
		default:
			return `{"category": ""}`, nil
		}
	}
	return client
}

func guarded(client providers.LLMClient) *expand.Guarded {
	return expand.NewGuarded(expand.GuardedConfig{
		Backend:    expand.NewLLMExpander(expand.Config{Client: client}),
		Timeout:    2 * time.Second,
		Attempts:   1,
		RetryDelay: time.Millisecond,
	})
}

func newService(t *testing.T, backend *expand.Guarded) *Service {
	t.Helper()
	pcfg := keywords.ProviderConfig{Catalog: testCatalog(), StaticDefaults: true}
	cfg := Config{Strictness: 0.5}
	if backend != nil {
		pcfg.Generator = backend
		cfg.Expander = backend
		cfg.Inferrer = backend
	}
	cfg.Keywords = keywords.NewProvider(pcfg)
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNew_RequiresKeywords(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without keyword provider")
	}
}

func TestService_Classify(t *testing.T) {
	s := newService(t, nil)

	out, err := s.Classify(context.Background(), fixture(), keywords.UserContext{}, true)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if out.Pages != 10 {
		t.Errorf("Pages = %d, want 10", out.Pages)
	}
	if out.Summary != (ampel.Summary{Green: 2, Red: 1}) {
		t.Errorf("Summary = %+v", out.Summary)
	}
	light := out.Results["Beleuchtung"]
	if light.Status != ampel.Green || !reflect.DeepEqual(light.FoundKeywords, []string{"LED", "Downlight"}) || light.Confidence != 0.4 {
		t.Errorf("Beleuchtung = %+v", light)
	}
	if out.Results["Notbeleuchtung"].Status != ampel.Red {
		t.Errorf("Notbeleuchtung = %+v", out.Results["Notbeleuchtung"])
	}
	if len(out.Warnings) != 0 {
		t.Errorf("Warnings = %v", out.Warnings)
	}
	if out.Artifact == nil || len(out.Artifact.Bookmarks) != 2 || out.Artifact.SourcePages != 10 {
		t.Fatalf("Artifact = %+v", out.Artifact)
	}
}

func TestService_Classify_ZeroHitsAllRed(t *testing.T) {
	s := newService(t, nil)
	out, err := s.Classify(context.Background(), testutil.PDF("nichts", "gar nichts"), keywords.UserContext{}, false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for name, res := range out.Results {
		if res.Status != ampel.Red || res.Confidence != 0 || len(res.FoundKeywords) != 0 {
			t.Errorf("%s = %+v, want empty red", name, res)
		}
	}
	if out.Artifact != nil {
		t.Error("Artifact set without render")
	}
}

func TestService_Classify_GeneratorFailureWarns(t *testing.T) {
	failing := providers.NewMockClient()
	failing.ShouldFail = true
	s := newService(t, guarded(failing))

	out, err := s.Classify(context.Background(), fixture(), keywords.UserContext{
		UserCategories: []keywords.Category{keywords.NewCategory("Eigene", "Downlight")},
		Expand:         true,
	}, false)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "Eigene") {
		t.Errorf("Warnings = %v", out.Warnings)
	}
	if got := out.Keywords["Eigene"]; !reflect.DeepEqual(got, []string{"Downlight"}) {
		t.Errorf("Keywords = %v", got)
	}
	if out.Results["Eigene"].Status != ampel.Green {
		t.Errorf("Eigene = %+v", out.Results["Eigene"])
	}
}

func TestService_Classify_Unreadable(t *testing.T) {
	s := newService(t, nil)
	_, err := s.Classify(context.Background(), []byte("not a pdf"), keywords.UserContext{}, true)
	if !errors.Is(err, ErrExtraction) || !errors.Is(err, document.ErrUnreadableDocument) {
		t.Errorf("error = %v, want ErrExtraction wrapping ErrUnreadableDocument", err)
	}
}

func TestService_Search(t *testing.T) {
	s := newService(t, guarded(llmMock()))

	out, err := s.Search(context.Background(), fixture(), SearchRequest{Query: "LED"}, true)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(out.Terms, search.TermSet{Original: []string{"LED"}, Expanded: []string{"IP65", "led", "Downlight"}}) {
		t.Errorf("Terms = %+v", out.Terms)
	}
	if out.Perspective != expand.Technical || out.Strictness != 0.5 {
		t.Errorf("defaults not applied: %s %v", out.Perspective, out.Strictness)
	}

	var pages []int
	for _, r := range out.Results {
		pages = append(pages, r.Page)
	}
	if !reflect.DeepEqual(pages, []int{5, 3, 7}) {
		t.Fatalf("result pages = %v, want [5 3 7]", pages)
	}
	// LED is original (0.5); Downlight is one of three expanded terms (1/3 * 0.5).
	if r := out.Results[0]; math.Abs(r.Relevance-(0.5+0.5/3)) > 1e-9 || r.Category != "Downlight" || r.Quantity != nil {
		t.Errorf("page 5 = %+v", r)
	}
	if r := out.Results[1]; r.Category != "Panel" || r.Quantity == nil || *r.Quantity != 12 {
		t.Errorf("page 3 = %+v", r)
	}
	if !strings.Contains(out.Results[2].HighlightedContext, `<mark class="hl-expanded">IP65</mark>`) {
		t.Errorf("page 7 highlight = %q", out.Results[2].HighlightedContext)
	}
	if out.Artifact == nil || len(out.Artifact.Bookmarks) != 3 {
		t.Errorf("Artifact = %+v", out.Artifact)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("Warnings = %v", out.Warnings)
	}
}

func TestService_CompositionFailureKeepsResults(t *testing.T) {
	failing := func(*model.Context, io.Writer) error { return errors.New("disk full") }
	s, err := New(Config{
		Keywords:   keywords.NewProvider(keywords.ProviderConfig{Catalog: testCatalog(), StaticDefaults: true}),
		Composer:   compose.New(compose.Config{Write: failing}),
		Strictness: 0.5,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Run("search", func(t *testing.T) {
		out, err := s.Search(context.Background(), fixture(), SearchRequest{Query: "LED"}, true)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(out.Results) != 2 {
			t.Errorf("results = %+v, want pages 3 and 5", out.Results)
		}
		if out.Artifact != nil {
			t.Error("Artifact set although writing failed")
		}
		if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], compose.ErrNoArtifact.Error()) {
			t.Errorf("Warnings = %v", out.Warnings)
		}
	})

	t.Run("classify", func(t *testing.T) {
		out, err := s.Classify(context.Background(), fixture(), keywords.UserContext{}, true)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if out.Summary != (ampel.Summary{Green: 2, Red: 1}) {
			t.Errorf("Summary = %+v", out.Summary)
		}
		if out.Artifact != nil {
			t.Error("Artifact set although writing failed")
		}
		if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], compose.ErrNoArtifact.Error()) {
			t.Errorf("Warnings = %v", out.Warnings)
		}
	})
}

func TestService_Search_Strictness(t *testing.T) {
	s := newService(t, nil)
	strict := 0.8
	out, err := s.Search(context.Background(), fixture(), SearchRequest{Query: "Downlight", Strictness: &strict}, false)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].Page != 5 {
		t.Errorf("results = %+v", out.Results)
	}
}

func TestService_Search_ExpansionFailureMatchesOriginalsOnly(t *testing.T) {
	failing := providers.NewMockClient()
	failing.ShouldFail = true
	s := newService(t, guarded(failing))

	degraded, err := s.Search(context.Background(), fixture(), SearchRequest{Query: "LED"}, false)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !degraded.Terms.Degraded || len(degraded.Warnings) != 1 {
		t.Errorf("Terms = %+v Warnings = %v", degraded.Terms, degraded.Warnings)
	}

	plain, err := s.Search(context.Background(), fixture(), SearchRequest{Query: "LED", NoExpand: true}, false)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(degraded.Results, plain.Results) {
		t.Errorf("degraded results %+v differ from originals-only %+v", degraded.Results, plain.Results)
	}
}

func TestService_Search_Errors(t *testing.T) {
	s := newService(t, nil)

	if _, err := s.Search(context.Background(), fixture(), SearchRequest{Query: " , x"}, false); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("empty query error = %v", err)
	}
	_, err := s.Search(context.Background(), fixture(), SearchRequest{Query: "LED", PageRange: search.PageRange{From: 8, To: 2}}, false)
	if !errors.Is(err, search.ErrInvalidPageRange) {
		t.Errorf("page range error = %v", err)
	}
	if _, err := s.Search(context.Background(), nil, SearchRequest{Query: "LED"}, false); !errors.Is(err, ErrExtraction) {
		t.Errorf("extraction error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Search(ctx, fixture(), SearchRequest{Query: "LED"}, false); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled error = %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Run("without provider", func(t *testing.T) {
		s, err := FromConfig(config.DefaultConfig(), providers.NewRegistry(), nil)
		if err != nil {
			t.Fatalf("FromConfig() error = %v", err)
		}
		if s.expander != nil {
			t.Error("expander set without any LLM provider")
		}
		if s.perspective != expand.Technical || s.strictness != 0.5 || s.maxTerms != 30 {
			t.Errorf("service defaults = %s %v %d", s.perspective, s.strictness, s.maxTerms)
		}
	})

	t.Run("with provider", func(t *testing.T) {
		reg := providers.NewRegistry()
		reg.RegisterLLM(providers.MockClientName, llmMock())
		cfg := config.DefaultConfig()
		cfg.Defaults.Perspective = "vertrieb"

		s, err := FromConfig(cfg, reg, nil)
		if err != nil {
			t.Fatalf("FromConfig() error = %v", err)
		}
		if s.expander == nil {
			t.Fatal("expander not wired")
		}
		if s.perspective != expand.Sales {
			t.Errorf("perspective = %s, want sales", s.perspective)
		}
	})

	t.Run("missing catalog file", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Keywords.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
		if _, err := FromConfig(cfg, providers.NewRegistry(), nil); err == nil {
			t.Error("expected error for missing catalog file")
		}
	})
}
