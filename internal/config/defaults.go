package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry is a single configuration key with its default value.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries.
// These are registered as viper defaults and listed by `ampel config list`.
func DefaultEntries() []Entry {
	return []Entry{
		// ===================
		// LLM Providers
		// ===================

		// LLM Providers - OpenRouter
		{
			Key:         "llm_providers.openrouter.type",
			Value:       "openrouter",
			Description: "LLM provider type for OpenRouter",
		},
		{
			Key:         "llm_providers.openrouter.model",
			Value:       "openai/gpt-4o-mini",
			Description: "Default model for OpenRouter",
		},
		{
			Key:         "llm_providers.openrouter.api_key",
			Value:       "${OPENROUTER_API_KEY}",
			Description: "OpenRouter API key (uses environment variable)",
		},
		{
			Key:         "llm_providers.openrouter.enabled",
			Value:       true,
			Description: "Whether the OpenRouter provider is enabled",
		},

		// LLM Providers - OpenAI
		{
			Key:         "llm_providers.openai.type",
			Value:       "openai",
			Description: "LLM provider type for OpenAI",
		},
		{
			Key:         "llm_providers.openai.model",
			Value:       "gpt-4o-mini",
			Description: "Default OpenAI chat model",
		},
		{
			Key:         "llm_providers.openai.api_key",
			Value:       "${OPENAI_API_KEY}",
			Description: "OpenAI API key (uses environment variable)",
		},
		{
			Key:         "llm_providers.openai.enabled",
			Value:       true,
			Description: "Whether the OpenAI provider is enabled",
		},

		// ===================
		// Run Defaults
		// ===================
		{
			Key:         "defaults.llm_provider",
			Value:       "openrouter",
			Description: "Preferred LLM provider for expansion, keyword generation and inference",
		},
		{
			Key:         "defaults.perspective",
			Value:       "technical",
			Description: "Query expansion perspective: technical or sales",
		},
		{
			Key:         "defaults.strictness",
			Value:       0.5,
			Description: "Search strictness (0..1); above 0.5 only pages with original terms are kept",
		},
		{
			Key:         "defaults.expand_timeout_seconds",
			Value:       15,
			Description: "Timeout for a single LLM call made while expanding or inferring",
		},
		{
			Key:         "defaults.expand_attempts",
			Value:       2,
			Description: "Attempts per LLM call before falling back",
		},
		{
			Key:         "defaults.max_expanded_terms",
			Value:       30,
			Description: "Maximum number of AI-expanded search terms",
		},
		{
			Key:         "defaults.max_workers",
			Value:       4,
			Description: "Files processed concurrently by the CLI",
		},
		{
			Key:         "defaults.max_pages",
			Value:       0,
			Description: "Refuse documents with more pages (0 = no limit)",
		},

		// ===================
		// Keywords
		// ===================
		{
			Key:         "keywords.catalog_file",
			Value:       "",
			Description: "YAML keyword catalog merged over the built-in categories",
		},
		{
			Key:         "keywords.expand_user_keywords",
			Value:       false,
			Description: "Let the LLM add keywords to user supplied categories",
		},
		{
			Key:         "keywords.generate_count",
			Value:       15,
			Description: "Keywords requested per category from the LLM",
		},
		{
			Key:         "keywords.generate_defaults",
			Value:       true,
			Description: "Generate keywords for the built-in categories instead of using the static lists",
		},

		// ===================
		// Compose
		// ===================
		{
			Key:         "compose.max_inline",
			Value:       5,
			Description: "Entries listed per group on the summary pages before \"+N weitere\"",
		},
		{
			Key:         "compose.context_chars",
			Value:       90,
			Description: "Context length per entry on the summary pages",
		},
		{
			Key:         "compose.optimize",
			Value:       true,
			Description: "Optimize the annotated PDF before writing",
		},
	}
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
