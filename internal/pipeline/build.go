package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/compose"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/config"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/expand"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/keywords"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/providers"
)

// FromConfig builds a Service from loaded configuration. LLM collaborators
// come from reg; when no provider is usable the service runs without
// expansion, generation and model inference.
func FromConfig(cfg *config.Config, reg *providers.Registry, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog, err := keywords.LoadCatalog(cfg.Keywords.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load keyword catalog: %w", err)
	}

	var backend *expand.Guarded
	client, err := reg.Preferred(cfg.Defaults.LLMProvider)
	switch {
	case errors.Is(err, providers.ErrNoLLMProvider):
		logger.Info("no LLM provider configured, running without expansion")
	case err != nil:
		return nil, err
	default:
		llm := expand.NewLLMExpander(expand.Config{
			Client:   client,
			MaxTerms: cfg.Defaults.MaxExpandedTerms,
			Logger:   logger,
		})
		backend = expand.NewGuarded(expand.GuardedConfig{
			Backend:  llm,
			Timeout:  cfg.Defaults.ExpandTimeoutDuration(),
			Attempts: uint(max(cfg.Defaults.ExpandAttempts, 0)),
			Logger:   logger,
		})
		logger.Debug("LLM collaborators enabled", "provider", client.Name())
	}

	pcfg := keywords.ProviderConfig{
		Catalog:        catalog,
		GenerateCount:  cfg.Keywords.GenerateCount,
		StaticDefaults: !cfg.Keywords.GenerateDefaults,
		Timeout:        cfg.Defaults.ExpandTimeoutDuration(),
		Logger:         logger,
	}
	scfg := Config{
		Composer: compose.New(compose.Config{
			MaxInline:    cfg.Compose.MaxInline,
			ContextChars: cfg.Compose.ContextChars,
			SkipOptimize: !cfg.Compose.Optimize,
			Logger:       logger,
		}),
		Perspective:      expand.ParsePerspective(cfg.Defaults.Perspective),
		Strictness:       cfg.Defaults.Strictness,
		MaxExpandedTerms: cfg.Defaults.MaxExpandedTerms,
		MaxPages:         cfg.Defaults.MaxPages,
		Logger:           logger,
	}
	// Assigned only when set so the interfaces stay nil otherwise.
	if backend != nil {
		pcfg.Generator = backend
		scfg.Expander = backend
		scfg.Inferrer = backend
	}
	scfg.Keywords = keywords.NewProvider(pcfg)

	return New(scfg)
}
