package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/config"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/home"
	"github.com/TarasYkv/Arealo-Schuch-Django-sub001/internal/report"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the home directory and a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "Drop PDFs into %s and run: ampel watch\n", h.InboxPath())
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every key with its effective value",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		mgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		entries := config.DefaultEntries()
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		out := make([]config.Entry, 0, len(entries))
		for _, e := range entries {
			v, err := mgr.Value(e.Key)
			if err != nil {
				return err
			}
			e.Value = v
			out = append(out, e)
		}
		if format == report.FormatMarkdown {
			format = report.FormatYAML
		}
		return report.WriteTo(cmd.OutOrStdout(), format, out)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of one key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		mgr, err := config.NewManager(cfgFile, h.Path())
		if err != nil {
			return err
		}
		v, err := mgr.Value(args[0])
		if errors.Is(err, config.ErrInvalidKey) {
			return fmt.Errorf("%w (see: ampel config list)", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configListCmd, configGetCmd)
	rootCmd.AddCommand(configCmd)
}
