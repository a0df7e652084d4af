package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/report"
)

var (
	classifyCategories []string
	classifyExpand     bool
	classifyOutDir     string
	classifyNoPDF      bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <pdf>...",
	Short: "Rate keyword categories green or red",
	Long: `Classify rates every keyword category green (found) or red (not found)
and writes an annotated PDF with highlights and one bookmark per category.

Categories come from the built-in catalog, the configured catalog file and
--category flags. Annotated PDFs are written to --out-dir, by default the
out directory of the ampel home.

Examples:
  ampel classify lv.pdf
  ampel classify *.pdf -o markdown > bericht.md
  ampel classify lv.pdf --category "Brandschutz=F90,Rauchmelder" --expand`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		cats, err := parseCategories(classifyCategories)
		if err != nil {
			return err
		}
		uc := keywords.UserContext{UserCategories: cats, Expand: classifyExpand}
		if !cmd.Flags().Changed("expand") {
			uc.Expand = a.config.Get().Keywords.ExpandUserKeywords
		}

		files, err := processFiles(cmd.Context(), a, args, func(ctx context.Context, path string) report.File {
			return classifyFile(ctx, a.service, uc, path, a.home.OutputFor(classifyOutDir, path, classifySuffix), !classifyNoPDF)
		})
		return finish(cmd, files, err)
	},
}

// classifyFile classifies one PDF and writes its annotated copy to out.
func classifyFile(ctx context.Context, svc *pipeline.Service, uc keywords.UserContext, path, out string, render bool) report.File {
	f := report.File{Source: path}
	data, err := os.ReadFile(path)
	if err != nil {
		f.Error = err.Error()
		return f
	}
	res, err := svc.Classify(ctx, data, uc, render)
	if err != nil {
		logger.Warn("classification failed", "file", path, "error", err)
		f.Error = err.Error()
		return f
	}
	f.Classification = res
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
	classifyCmd.Flags().StringArrayVar(&classifyCategories, "category", nil, `extra category "Name=term1,term2" (repeatable)`)
	classifyCmd.Flags().BoolVar(&classifyExpand, "expand", false, "let the LLM add keywords to --category lists")
	classifyCmd.Flags().StringVar(&classifyOutDir, "out-dir", "", "directory for annotated PDFs (default: ~/.ampel/out)")
	classifyCmd.Flags().BoolVar(&classifyNoPDF, "no-pdf", false, "skip writing annotated PDFs")

	rootCmd.AddCommand(classifyCmd)
}
