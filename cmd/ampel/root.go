package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/config"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/home"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/pipeline"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/providers"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/report"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string

	format report.Format
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "ampel",
	Short: "Traffic-light keyword classification and relevance search for PDFs",
	Long: `Ampel scans PDF documents such as tender specifications (Leistungsverzeichnisse).

  - classify rates keyword categories green or red and bookmarks every hit
  - search ranks pages by relevance to a query, optionally widened by an LLM
  - watch classifies every PDF dropped into an inbox directory

Annotated PDFs carry highlights, a summary page and a bookmark tree.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.ampel/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "ampel home directory (default: ~/.ampel)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or markdown",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		if format, err = report.ParseFormat(outputFormat); err != nil {
			return err
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
			return fmt.Errorf("invalid --log-level %q", logLevel)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

// app holds what every processing command needs.
type app struct {
	home     *home.Dir
	config   *config.Manager
	registry *providers.Registry
	service  *pipeline.Service
}

// loadApp loads .env files and configuration, then builds the service.
func loadApp() (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	loadEnv(".env", h.EnvPath())

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	reg := providers.NewRegistryFromConfig(cfg.ToProviderRegistryConfig(), logger)
	svc, err := pipeline.FromConfig(cfg, reg, logger)
	if err != nil {
		return nil, err
	}
	if f := mgr.File(); f != "" {
		logger.Debug("using config file", "file", f)
	}
	return &app{home: h, config: mgr, registry: reg, service: svc}, nil
}

// loadEnv loads env files that exist without overriding the environment.
func loadEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.Warn("failed to load env file", "file", p, "error", err)
		}
	}
}
