package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/ampel"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/compose"
)

const (
	contextCellRunes = 80
	maxPagesListed   = 12
)

// MarkdownWriter writes reports as GitHub-flavored Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write outputs one section per file.
func (w *MarkdownWriter) Write(files []File) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Ampel Report")
	md.PlainText("")
	if len(files) > 1 {
		w.writeOverview(md, files)
	}

	for _, f := range files {
		switch {
		case f.Failed():
			md.H2(f.Source)
			md.PlainText("")
			md.Cautionf("Datei konnte nicht verarbeitet werden: %s", f.Error)
			md.PlainText("")
		case f.Classification != nil:
			w.writeClassification(md, f)
		case f.Search != nil:
			w.writeSearch(md, f)
		}
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*%d Datei(en) verarbeitet*", len(files))

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeOverview(md *markdown.Markdown, files []File) {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		status := "✅"
		switch {
		case f.Failed():
			status = "❌"
		case warnings(f) > 0:
			status = "⚠️"
		}
		rows = append(rows, []string{cell(f.Source, 0), status, cell(f.Output, 0)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Datei", "Status", "Annotiertes PDF"},
		Rows:   rows,
	})
	md.PlainText("")
}

func warnings(f File) int {
	switch {
	case f.Classification != nil:
		return len(f.Classification.Warnings)
	case f.Search != nil:
		return len(f.Search.Warnings)
	}
	return 0
}

func (w *MarkdownWriter) writeClassification(md *markdown.Markdown, f File) {
	out := f.Classification
	md.H2("Klassifizierung: " + f.Source)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Eigenschaft", "Wert"},
		Rows: [][]string{
			{"Seiten", strconv.Itoa(out.Pages)},
			{"Kategorien grün", strconv.Itoa(out.Summary.Green)},
			{"Kategorien rot", strconv.Itoa(out.Summary.Red)},
			{"Dauer", fmt.Sprintf("%d ms", out.DurationMS)},
			{"Annotiertes PDF", cell(f.Output, 0)},
		},
	})
	md.PlainText("")

	if out.Summary.Green+out.Summary.Red > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Ampel"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue("grün", uint64(out.Summary.Green))
		chart.LabelAndIntValue("rot", uint64(out.Summary.Red))
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
	writeWarnings(md, out.Warnings)

	rows := make([][]string, 0, len(out.Results))
	for _, name := range out.Results.Names() {
		res := out.Results[name]
		status := "🔴 rot"
		switch {
		case res.Error != "":
			status = "⚠️ Fehler"
		case res.Status == ampel.Green:
			status = "🟢 grün"
		}
		rows = append(rows, []string{
			cell(name, 0),
			status,
			fmt.Sprintf("%.0f%%", res.Confidence*100),
			cell(strings.Join(res.FoundKeywords, ", "), 0),
			pageList(res),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kategorie", "Status", "Konfidenz", "Gefunden", "Seiten"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, name := range out.Results.Names() {
		res := out.Results[name]
		if len(res.ContextSnippets) == 0 {
			continue
		}
		md.Details(name, strings.Join(res.ContextSnippets, "\n\n"))
	}
	md.PlainText("")
	writeBookmarks(md, out.Artifact)
}

// pageList returns the distinct pages of a category's occurrences.
func pageList(res ampel.CategoryResult) string {
	seen := make(map[int]bool)
	var pages []int
	for _, occs := range res.PageLocations {
		for _, o := range occs {
			if !seen[o.Page] {
				seen[o.Page] = true
				pages = append(pages, o.Page)
			}
		}
	}
	if len(pages) == 0 {
		return "-"
	}
	sort.Ints(pages)
	parts := make([]string, 0, min(len(pages), maxPagesListed)+1)
	for i, p := range pages {
		if i == maxPagesListed {
			parts = append(parts, fmt.Sprintf("+%d", len(pages)-maxPagesListed))
			break
		}
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ", ")
}

func (w *MarkdownWriter) writeSearch(md *markdown.Markdown, f File) {
	out := f.Search
	md.H2("Suche: " + f.Source)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Eigenschaft", "Wert"},
		Rows: [][]string{
			{"Suchanfrage", cell(out.Query, 0)},
			{"Perspektive", string(out.Perspective)},
			{"Strenge", strconv.FormatFloat(out.Strictness, 'f', 2, 64)},
			{"Seiten", strconv.Itoa(out.Pages)},
			{"Treffer", strconv.Itoa(len(out.Results))},
			{"Dauer", fmt.Sprintf("%d ms", out.DurationMS)},
			{"Annotiertes PDF", cell(f.Output, 0)},
		},
	})
	md.PlainText("")
	writeWarnings(md, out.Warnings)

	md.PlainText("### Suchbegriffe")
	md.PlainText("")
	items := make([]string, 0, len(out.Terms.Original)+len(out.Terms.Expanded))
	for _, t := range out.Terms.Original {
		items = append(items, t+" (Original)")
	}
	for _, t := range out.Terms.Expanded {
		items = append(items, t+" (erweitert)")
	}
	md.BulletList(items...)
	md.PlainText("")

	md.PlainText("### Treffer")
	md.PlainText("")
	if len(out.Results) == 0 {
		md.Note("Keine Treffer.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(out.Results))
	for _, r := range out.Results {
		qty := "-"
		if r.Quantity != nil {
			qty = strconv.Itoa(*r.Quantity)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Page),
			strconv.FormatFloat(r.Relevance, 'f', 2, 64),
			cell(strings.Join(r.FoundTerms, ", "), 0),
			cell(r.Category, 0),
			qty,
			cell(r.RawContext, contextCellRunes),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Seite", "Relevanz", "Begriffe", "Kategorie", "Menge", "Kontext"},
		Rows:   rows,
	})
	md.PlainText("")
	writeBookmarks(md, out.Artifact)
}

func writeWarnings(md *markdown.Markdown, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	md.Warningf("%d Hinweis(e): %s", len(warnings), strings.Join(warnings, "; "))
	md.PlainText("")
}

func writeBookmarks(md *markdown.Markdown, art *compose.Artifact) {
	if art == nil || len(art.Bookmarks) == 0 {
		return
	}
	md.PlainText("### Lesezeichen")
	md.PlainText("")
	items := make([]string, 0, len(art.Bookmarks))
	for _, b := range art.Bookmarks {
		items = append(items, fmt.Sprintf("%s → Seite %d", b.Title, b.Page))
	}
	md.BulletList(items...)
	md.PlainText("")
}
