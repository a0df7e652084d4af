// Package report renders run outcomes for people: a Markdown document per
// run, one section per processed file.
package report

import (
	"strings"
	"unicode/utf8"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
)

// File is the outcome for one input PDF. Exactly one of Classification and
// Search is set unless Error is.
type File struct {
	Source         string                    `json:"source" yaml:"source"`
	Output         string                    `json:"output,omitempty" yaml:"output,omitempty"` // annotated PDF path
	Error          string                    `json:"error,omitempty" yaml:"error,omitempty"`
	Classification *pipeline.ClassifyOutcome `json:"classification,omitempty" yaml:"classification,omitempty"`
	Search         *pipeline.SearchOutcome   `json:"search,omitempty" yaml:"search,omitempty"`
}

// Failed reports whether the file could not be processed at all.
func (f File) Failed() bool {
	return f.Error != ""
}

// cell makes s safe for a table cell.
func cell(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		r := []rune(s)
		s = string(r[:maxRunes-1]) + "…"
	}
	if s == "" {
		return "-"
	}
	return s
}
