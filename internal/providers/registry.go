package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the configured LLM clients by name. It supports
// config-driven instantiation and hot reload, with thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	llmClients map[string]LLMClient
	configs    map[string]LLMProviderConfig
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		configs:    make(map[string]LLMProviderConfig),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	r.logger.Debug("registered LLM client", "name", name)
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLLMProvider, name)
	}
	return client, nil
}

// Preferred returns the named client when registered, otherwise the first
// registered client in name order.
func (r *Registry) Preferred(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.llmClients[name]; ok {
		return client, nil
	}
	names := r.namesLocked()
	if len(names) == 0 {
		return nil, ErrNoLLMProvider
	}
	return r.llmClients[names[0]], nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
}

// LLMProviderConfig mirrors config.LLMProviderCfg with a resolved API key.
type LLMProviderConfig struct {
	Type    string // "openrouter", "openai", "local"
	Model   string
	APIKey  string
	BaseURL string
	RPM     int
	Enabled bool
}

// usable reports whether the provider can be instantiated. Local hosts need
// a URL instead of a key.
func (c LLMProviderConfig) usable() bool {
	if !c.Enabled {
		return false
	}
	if c.Type == LocalName {
		return c.BaseURL != ""
	}
	return c.APIKey != ""
}

// NewRegistryFromConfig creates a registry with the usable providers.
func NewRegistryFromConfig(cfg RegistryConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.Reload(cfg)
	return r
}

// Reload applies a new configuration. Providers that disappeared are
// removed, providers whose settings changed are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.usable() {
			continue
		}
		want[name] = true

		old, hasExisting := r.configs[name]
		if hasExisting && old == provCfg {
			continue
		}
		client, err := createLLMClient(provCfg)
		if err != nil {
			r.logger.Warn("failed to create LLM client", "name", name, "type", provCfg.Type, "error", err)
			delete(want, name)
			continue
		}
		r.llmClients[name] = client
		r.configs[name] = provCfg
		if hasExisting {
			r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
		} else {
			r.logger.Debug("registered LLM client", "name", name, "type", provCfg.Type)
		}
	}

	for name := range r.configs {
		if !want[name] {
			delete(r.llmClients, name)
			delete(r.configs, name)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}
}

// createLLMClient creates an LLM client based on provider type.
func createLLMClient(cfg LLMProviderConfig) (LLMClient, error) {
	switch cfg.Type {
	case OpenRouterName:
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			RPM:          cfg.RPM,
		}), nil
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			RPM:          cfg.RPM,
		}), nil
	case LocalName:
		return NewLocalClient(LocalConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Token:   cfg.APIKey,
		})
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
