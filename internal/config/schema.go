package config

import "time"

// Config holds ampel configuration.
// Stored at: ./config.yaml or {home}/config.yaml
type Config struct {
	LLMProviders map[string]LLMProviderCfg `mapstructure:"llm_providers" yaml:"llm_providers"`
	Defaults     DefaultsCfg               `mapstructure:"defaults" yaml:"defaults"`
	Keywords     KeywordsCfg               `mapstructure:"keywords" yaml:"keywords"`
	Compose      ComposeCfg                `mapstructure:"compose" yaml:"compose"`
}

// LLMProviderCfg configures an LLM provider.
type LLMProviderCfg struct {
	Type    string `mapstructure:"type" yaml:"type"`                   // "openrouter", "openai", "local"
	Model   string `mapstructure:"model" yaml:"model"`                 // Model name
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`             // API key (supports ${ENV_VAR} syntax)
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"` // Required for local hosts
	RPM     int    `mapstructure:"rpm" yaml:"rpm,omitempty"`           // Requests per minute, 0 = unlimited
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg holds defaults for classification and search runs.
type DefaultsCfg struct {
	LLMProvider      string  `mapstructure:"llm_provider" yaml:"llm_provider"` // Preferred LLM provider
	Perspective      string  `mapstructure:"perspective" yaml:"perspective"`   // "technical" or "sales"
	Strictness       float64 `mapstructure:"strictness" yaml:"strictness"`     // 0..1
	ExpandTimeout    int     `mapstructure:"expand_timeout_seconds" yaml:"expand_timeout_seconds"`
	ExpandAttempts   int     `mapstructure:"expand_attempts" yaml:"expand_attempts"`
	MaxExpandedTerms int     `mapstructure:"max_expanded_terms" yaml:"max_expanded_terms"`
	MaxWorkers       int     `mapstructure:"max_workers" yaml:"max_workers"` // Files processed concurrently
	MaxPages         int     `mapstructure:"max_pages" yaml:"max_pages"`     // 0 = no limit
}

// KeywordsCfg configures keyword resolution.
type KeywordsCfg struct {
	CatalogFile        string `mapstructure:"catalog_file" yaml:"catalog_file"` // Merged over the built-in catalog
	ExpandUserKeywords bool   `mapstructure:"expand_user_keywords" yaml:"expand_user_keywords"`
	GenerateCount      int    `mapstructure:"generate_count" yaml:"generate_count"`
	GenerateDefaults   bool   `mapstructure:"generate_defaults" yaml:"generate_defaults"` // Ask the LLM for default categories
}

// ComposeCfg configures the annotated PDF.
type ComposeCfg struct {
	MaxInline    int  `mapstructure:"max_inline" yaml:"max_inline"`
	ContextChars int  `mapstructure:"context_chars" yaml:"context_chars"`
	Optimize     bool `mapstructure:"optimize" yaml:"optimize"`
}

// ExpandTimeoutDuration returns the expansion timeout, 15s when unset.
func (d DefaultsCfg) ExpandTimeoutDuration() time.Duration {
	if d.ExpandTimeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(d.ExpandTimeout) * time.Second
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]LLMProviderCfg{
			"openrouter": {
				Type:    "openrouter",
				Model:   "openai/gpt-4o-mini",
				APIKey:  "${OPENROUTER_API_KEY}",
				Enabled: true,
			},
			"openai": {
				Type:    "openai",
				Model:   "gpt-4o-mini",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
		Defaults: DefaultsCfg{
			LLMProvider:      "openrouter",
			Perspective:      "technical",
			Strictness:       0.5,
			ExpandTimeout:    15,
			ExpandAttempts:   2,
			MaxExpandedTerms: 30,
			MaxWorkers:       4,
		},
		Keywords: KeywordsCfg{
			ExpandUserKeywords: false,
			GenerateCount:      15,
			GenerateDefaults:   true,
		},
		Compose: ComposeCfg{
			MaxInline:    5,
			ContextChars: 90,
			Optimize:     true,
		},
	}
}

// GetLLMProvider returns an LLM provider config by name.
func (c *Config) GetLLMProvider(name string) (LLMProviderCfg, bool) {
	cfg, ok := c.LLMProviders[name]
	return cfg, ok
}

// EnabledLLMProviders returns all enabled LLM providers.
func (c *Config) EnabledLLMProviders() map[string]LLMProviderCfg {
	result := make(map[string]LLMProviderCfg)
	for name, cfg := range c.LLMProviders {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
