package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/guides/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:               "guides",
	Short:             "guides - compile reStructuredText and Markdown trees into HTML, LaTeX and DOCX",
	PersistentPreRunE: before,
	SilenceUsage:      true,
}

// cfg starts from the environment; flags overwrite it.
var (
	cfg     = config.Load()
	formats []string
	noCache bool
	log     *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&cfg.SourceDir, "source", cfg.SourceDir, "Source tree to compile")
	rootCmd.PersistentFlags().IntVar(&cfg.InitialHeaderLevel, "initial-header-level", cfg.InitialHeaderLevel, "Level of the first section title")
	rootCmd.PersistentFlags().StringVar(&cfg.DefaultRole, "default-role", cfg.DefaultRole, "Role applied to bare `text` spans")

	rootCmd.AddCommand(buildCmd, renderCmd, versionCmd)
}

func before(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("formats") {
		cfg.Formats = config.ParseFormats(strings.Join(formats, ","))
	}
	if noCache {
		cfg.UseCache = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
