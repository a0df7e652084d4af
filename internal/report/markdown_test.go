package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/ampel"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/compose"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/document"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/expand"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

func classificationFile() File {
	return File{
		Source: "lv.pdf",
		Output: "out/lv_ampel.pdf",
		Classification: &pipeline.ClassifyOutcome{
			Pages: 10,
			Results: ampel.Results{
				"Beleuchtung": {
					Status:          ampel.Green,
					FoundKeywords:   []string{"LED", "Downlight"},
					Confidence:      0.4,
					ContextSnippets: []string{"...LED Panel 60x60..."},
					PageLocations: map[string][]document.Occurrence{
						"LED":       {{Term: "LED", Page: 3}, {Term: "LED", Page: 5}},
						"Downlight": {{Term: "Downlight", Page: 5}},
					},
				},
				"Notbeleuchtung": {Status: ampel.Red},
			},
			Summary:    ampel.Summary{Green: 1, Red: 1},
			Warnings:   []string{`keyword generation failed for "Eigene", fallback keywords used`},
			DurationMS: 12,
			Artifact: &compose.Artifact{Bookmarks: []compose.Bookmark{
				{Title: "Beleuchtung (2)", Page: 11},
			}},
		},
	}
}

func searchFile() File {
	qty := 12
	return File{
		Source: "lv.pdf",
		Search: &pipeline.SearchOutcome{
			Query:       "LED",
			Perspective: expand.Technical,
			Strictness:  0.5,
			Pages:       10,
			Terms:       search.TermSet{Original: []string{"LED"}, Expanded: []string{"IP65"}},
			Results: []search.Result{{
				Page:       3,
				RawContext: "Position 1 | LED Panel\n12 Stück",
				Relevance:  0.5,
				FoundTerms: []string{"LED"},
				Category:   "Panel",
				Quantity:   &qty,
			}},
		},
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("classification", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write([]File{classificationFile()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{
			"# Ampel Report",
			"## Klassifizierung: lv.pdf",
			"mermaid",
			"🟢 grün",
			"🔴 rot",
			"40%",
			"3, 5",
			"Eigene",
			"Beleuchtung (2) → Seite 11",
			"out/lv_ampel.pdf",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("search", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write([]File{searchFile()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{
			"## Suche: lv.pdf",
			"LED (Original)",
			"IP65 (erweitert)",
			"LED Panel 12 Stück",
			"Panel",
			"0.50",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("search without results", func(t *testing.T) {
		t.Parallel()

		f := searchFile()
		f.Search.Results = nil
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write([]File{f}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Keine Treffer.") {
			t.Error("expected no-results note")
		}
	})

	t.Run("overview with failed file", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		files := []File{classificationFile(), {Source: "kaputt.pdf", Error: "failed to extract document"}}
		if _, err := NewMarkdownWriter(&buf).Write(files); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"❌", "⚠️", "kaputt.pdf", "2 Datei(en) verarbeitet"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}

func TestCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"", 0, "-"},
		{"a | b", 0, `a \| b`},
		{"zeile\neins  zwei", 0, "zeile eins zwei"},
		{"abcdefgh", 5, "abcd…"},
		{"abc", 5, "abc"},
	}
	for _, tt := range tests {
		if got := cell(tt.in, tt.max); got != tt.want {
			t.Errorf("cell(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestPageList(t *testing.T) {
	t.Parallel()

	res := ampel.CategoryResult{PageLocations: map[string][]document.Occurrence{}}
	if got := pageList(res); got != "-" {
		t.Errorf("pageList(empty) = %q", got)
	}
	var occs []document.Occurrence
	for p := 20; p >= 1; p-- {
		occs = append(occs, document.Occurrence{Page: p})
	}
	res.PageLocations["x"] = occs
	if got := pageList(res); got != "1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, +8" {
		t.Errorf("pageList = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"json", FormatJSON, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteFiles(t *testing.T) {
	t.Parallel()

	files := []File{searchFile()}
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, `"query": "LED"`},
		{FormatYAML, "query: LED"},
		{FormatMarkdown, "## Suche: lv.pdf"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := WriteFiles(&buf, tt.format, files); err != nil {
			t.Fatalf("WriteFiles(%s) error = %v", tt.format, err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("WriteFiles(%s) missing %q:\n%s", tt.format, tt.want, buf.String())
		}
	}
	if err := WriteFiles(&bytes.Buffer{}, Format("xml"), files); err == nil {
		t.Error("expected error for unknown format")
	}
}
