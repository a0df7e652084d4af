package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects how run outcomes are written.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatYAML

// ParseFormat maps a --output flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Structured reports whether f is machine-readable. Commands print
// human-friendly progress only otherwise.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// WriteFiles writes per-file outcomes in the given format.
func WriteFiles(w io.Writer, format Format, files []File) error {
	if format == FormatMarkdown {
		_, err := NewMarkdownWriter(w).Write(files)
		return err
	}
	return WriteTo(w, format, files)
}

// WriteTo writes arbitrary data as JSON or YAML.
func WriteTo(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML, FormatMarkdown:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
