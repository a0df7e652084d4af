package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/compose"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/expand"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/report"
)

var (
	searchQuery       string
	searchPerspective string
	searchStrictness  float64
	searchPages       string
	searchGroup       string
	searchOut         string
	searchOutDir      string
	searchNoExpand    bool
	searchNoPDF       bool
)

var searchCmd = &cobra.Command{
	Use:   "search <pdf>...",
	Short: "Rank pages by relevance to a query",
	Long: `Search finds the pages relevant to a query. Terms are separated by
commas or newlines, so "LED Panel" is one phrase.

Unless --no-expand is given, the configured LLM widens the query with
synonyms and related terms for the chosen perspective (technical or sales).
Strictness weights original terms against expanded ones. Up to 0.5 every
page with a hit is kept; above 0.5 only pages with at least one original
term are kept, or the best three pages when none has one.

Examples:
  ampel search lv.pdf --query "LED, Downlight"
  ampel search lv.pdf --query Notleuchte --strictness 0.8 --pages 3-9
  ampel search lv.pdf --query Leuchte --perspective sales --out treffer.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchOut != "" && len(args) > 1 {
			return errors.New("--out needs exactly one input, use --out-dir for several")
		}
		pages, err := parsePageRange(searchPages)
		if err != nil {
			return err
		}
		grouping := compose.Grouping(searchGroup)
		if grouping != compose.ByTerm && grouping != compose.ByCategory {
			return errors.New("--group must be term or category")
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		req := pipeline.SearchRequest{
			Query:     searchQuery,
			PageRange: pages,
			Grouping:  grouping,
			NoExpand:  searchNoExpand,
		}
		if searchPerspective != "" {
			req.Perspective = expand.ParsePerspective(searchPerspective)
		}
		if cmd.Flags().Changed("strictness") {
			req.Strictness = &searchStrictness
		}

		files, err := processFiles(cmd.Context(), a, args, func(ctx context.Context, path string) report.File {
			out := searchOut
			if out == "" {
				out = a.home.OutputFor(searchOutDir, path, searchSuffix)
			}
			return searchFile(ctx, a.service, req, path, out, !searchNoPDF)
		})
		return finish(cmd, files, err)
	},
}

// searchFile searches one PDF and writes its annotated copy to out.
func searchFile(ctx context.Context, svc *pipeline.Service, req pipeline.SearchRequest, path, out string, render bool) report.File {
	f := report.File{Source: path}
	data, err := os.ReadFile(path)
	if err != nil {
		f.Error = err.Error()
		return f
	}
	res, err := svc.Search(ctx, data, req, render)
	if err != nil {
		logger.Warn("search failed", "file", path, "error", err)
		f.Error = err.Error()
		return f
	}
	f.Search = res
	if res.Artifact != nil {
		if err := writeArtifact(out, res.Artifact.Data); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			f.Output = out
		}
	}
	return f
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().StringVar(&searchPerspective, "perspective", "", "expansion perspective: technical or sales (default from config)")
	searchCmd.Flags().Float64Var(&searchStrictness, "strictness", 0.5, "weight of original terms, 0..1; above 0.5 pages need an original term (default from config)")
	searchCmd.Flags().StringVar(&searchPages, "pages", "", "page range, e.g. 3-9")
	searchCmd.Flags().StringVar(&searchGroup, "group", string(compose.ByTerm), "bookmark grouping: term or category")
	searchCmd.Flags().StringVar(&searchOut, "out", "", "annotated PDF path (single input only)")
	searchCmd.Flags().StringVar(&searchOutDir, "out-dir", "", "directory for annotated PDFs (default: ~/.ampel/out)")
	searchCmd.Flags().BoolVar(&searchNoExpand, "no-expand", false, "search the query terms only")
	searchCmd.Flags().BoolVar(&searchNoPDF, "no-pdf", false, "skip writing annotated PDFs")
	_ = searchCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchCmd)
}
