package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"axe/internal/config"
	"axe/internal/logging"
	"axe/internal/version"
)

var (
	verboseFlag bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "axe",
	Short: "axe - C++ axiom extractor",
	Long: `axe extracts machine-checkable axioms (preconditions, hazards, effects,
invariants) from C++ sources by walking their syntax trees, control flow,
and macro tables, and emits them as structured JSON for downstream
consumers such as contract checkers and LLM grounding layers.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env values feed the AXE_* configuration overrides.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.SetVersionTemplate("axe version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
}

// newContext creates a new context for command execution.
func newContext() context.Context {
	return context.Background()
}

// projectRoot is the directory commands resolve config, cache, and
// relative ignore patterns against.
func projectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cwd
}

// loadProjectConfig reads .axe/config.json under root, falling back to
// defaults when the project is not initialized or the file is bad.
func loadProjectConfig(root string) *config.Config {
	cfg, err := config.LoadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// newLogger builds the shared stderr logger. --verbose and --quiet win
// over the configured level; output stays on stderr because stdout
// carries extraction results.
func newLogger(cfg *config.Config) *logging.Logger {
	level := logging.ParseLevel(cfg.Logging.Level)
	if verboseFlag {
		level = logging.DebugLevel
	}
	if quietFlag {
		level = logging.ErrorLevel
	}
	format := logging.HumanFormat
	if logging.Format(cfg.Logging.Format) == logging.JSONFormat {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{Format: format, Level: level})
}
