package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/report"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/search"
)

const (
	classifySuffix = "_ampel.pdf"
	searchSuffix   = "_suche.pdf"
)

// processFiles runs fn over paths with the configured worker limit.
func processFiles(ctx context.Context, a *app, paths []string, fn func(ctx context.Context, path string) report.File) ([]report.File, error) {
	return pipeline.RunBatch(ctx, a.config.Get().Defaults.MaxWorkers, paths, logger, fn)
}

// writeArtifact writes data to path, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write annotated PDF: %w", err)
	}
	return nil
}

// finish prints the run outcome and fails when any file failed.
func finish(cmd *cobra.Command, files []report.File, batchErr error) error {
	if err := report.WriteFiles(cmd.OutOrStdout(), format, files); err != nil {
		return err
	}
	if batchErr != nil {
		return batchErr
	}
	failed := 0
	for _, f := range files {
		if f.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// parsePageRange parses "3-9", "5", "3-" or "-9".
func parsePageRange(s string) (search.PageRange, error) {
	var r search.PageRange
	s = strings.TrimSpace(s)
	if s == "" {
		return r, nil
	}
	from, to, isRange := strings.Cut(s, "-")
	if !isRange {
		to = from
	}
	var err error
	if from = strings.TrimSpace(from); from != "" {
		if r.From, err = strconv.Atoi(from); err != nil {
			return r, fmt.Errorf("invalid page range %q", s)
		}
	}
	if to = strings.TrimSpace(to); to != "" {
		if r.To, err = strconv.Atoi(to); err != nil {
			return r, fmt.Errorf("invalid page range %q", s)
		}
	}
	return r, nil
}

// parseCategories parses --category values of the form "Name=term1,term2".
func parseCategories(values []string) ([]keywords.Category, error) {
	cats := make([]keywords.Category, 0, len(values))
	for _, v := range values {
		name, list, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid category %q, want Name=term1,term2", v)
		}
		var terms []string
		for _, t := range strings.Split(list, ",") {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		cats = append(cats, keywords.NewCategory(name, terms...))
	}
	return cats, nil
}
