package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"axe/internal/config"
	"axe/internal/emit"
	"axe/internal/ignore"
	"axe/internal/logging"
	"axe/internal/pipeline"
	"axe/internal/rules"
	"axe/internal/scipindex"
	"axe/internal/storage"
	"axe/internal/testassert"
	"axe/internal/version"
)

var (
	extractOutput     string
	extractHazards    bool
	extractCallGraph  bool
	extractMacros     bool
	extractRecursive  bool
	extractIgnoreFile string
	extractNoIgnore   bool
	extractTestMode   bool
	extractFramework  string
	extractJobs       int
	extractFormat     string
	extractFlat       bool
	extractPretty     bool
	extractCompress   bool
	extractNoCache    bool
	extractScipIndex  string
	extractRules      string
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract axioms from C++ sources",
	Long: `Extract axioms from the given files and directories and emit a JSON
report on stdout or to --output. Explicitly named files are always
processed; directories are scanned for C++ extensions.

Examples:
  axe extract src/main.cpp
  axe extract -r -o axioms.json src/ include/
  axe extract --test-mode --test-framework catch2 tests/
  axe extract --flat --compress -o axioms.json.zst -r src/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output path (default stdout, .zst compresses)")
	extractCmd.Flags().BoolVar(&extractHazards, "hazards", true, "Detect hazards and analyze their guards")
	extractCmd.Flags().BoolVar(&extractCallGraph, "call-graph", true, "Extract the call graph")
	extractCmd.Flags().BoolVar(&extractMacros, "macros", false, "Analyze preprocessor macros")
	extractCmd.Flags().BoolVarP(&extractRecursive, "recursive", "r", false, "Recurse into directories")
	extractCmd.Flags().StringVar(&extractIgnoreFile, "ignore-file", "", "Explicit .axignore path")
	extractCmd.Flags().BoolVar(&extractNoIgnore, "no-ignore", false, "Disable ignore filtering")
	extractCmd.Flags().BoolVar(&extractTestMode, "test-mode", false, "Mine test assertions as axioms")
	extractCmd.Flags().StringVar(&extractFramework, "test-framework", "", "Test framework (auto, catch2, gtest, boost)")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", 0, "Worker count (0 = one per CPU)")
	extractCmd.Flags().StringVar(&extractFormat, "format", "", "Output format (json, human)")
	extractCmd.Flags().BoolVar(&extractFlat, "flat", false, "Emit the flat document instead of the report")
	extractCmd.Flags().BoolVar(&extractPretty, "pretty", false, "Indent the JSON output")
	extractCmd.Flags().BoolVar(&extractCompress, "compress", false, "Compress the output with zstd")
	extractCmd.Flags().BoolVar(&extractNoCache, "no-cache", false, "Bypass the extraction cache")
	extractCmd.Flags().StringVar(&extractScipIndex, "scip-index", "", "SCIP index for cross-file call resolution")
	extractCmd.Flags().StringVar(&extractRules, "rules", "", "rules.toml with confidence overrides")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg := loadProjectConfig(root)
	logger := newLogger(cfg)

	opts, db, err := buildExtractOptions(cmd, cfg, logger, root, args)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	run := pipeline.Run(newContext(), opts)

	format := extractFormat
	if format == "" {
		format = cfg.Output.Format
	}
	pretty := extractPretty || cfg.Output.Pretty
	flat := extractFlat || cfg.Output.Flat
	compress := extractCompress || cfg.Output.Compress

	out, err := emit.Destination(extractOutput, compress)
	if err != nil {
		return err
	}
	switch OutputFormat(format) {
	case FormatHuman:
		_, err = fmt.Fprintln(out, formatRunHuman(run))
	case FormatJSON, "":
		var doc interface{}
		if flat {
			doc = emit.NewFlat(run, version.Version)
		} else {
			doc = emit.NewReport(run)
		}
		err = emit.Encode(out, doc, pretty)
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		_ = out.Close()
		return err
	}
	// Close flushes the compressor, so its error is part of emission.
	return out.Close()
}

// buildExtractOptions folds config defaults and flags into pipeline
// options. Flags that were explicitly set win over the config file.
func buildExtractOptions(cmd *cobra.Command, cfg *config.Config, logger *logging.Logger, root string, args []string) (pipeline.Options, *storage.DB, error) {
	flags := cmd.Flags()
	boolOpt := func(name string, flagValue, cfgValue bool) bool {
		if flags.Changed(name) {
			return flagValue
		}
		return cfgValue
	}

	opts := pipeline.Options{
		Paths:       args,
		Recursive:   extractRecursive,
		Extensions:  cfg.Extract.Extensions,
		Hazards:     boolOpt("hazards", extractHazards, cfg.Extract.Hazards),
		CallGraph:   boolOpt("call-graph", extractCallGraph, cfg.Extract.CallGraph),
		Macros:      boolOpt("macros", extractMacros, cfg.Extract.Macros),
		TestMode:    boolOpt("test-mode", extractTestMode, cfg.Extract.TestMode),
		Jobs:        extractJobs,
		ProjectRoot: root,
		ToolVersion: version.Version,
		Logger:      logger,
	}
	if !flags.Changed("jobs") {
		opts.Jobs = cfg.Extract.Jobs
	}

	fwName := extractFramework
	if fwName == "" {
		fwName = cfg.Extract.TestFramework
	}
	fw, err := testassert.ParseFramework(fwName)
	if err != nil {
		return opts, nil, err
	}
	opts.TestFramework = fw

	if !extractNoIgnore && !cfg.Ignore.Disabled {
		ignorePath := extractIgnoreFile
		if ignorePath == "" {
			ignorePath = cfg.Ignore.File
		}
		if ignorePath == "" {
			ignorePath = ignore.Find(root)
		}
		if ignorePath != "" {
			filter, err := ignore.Load(ignorePath)
			if err != nil {
				return opts, nil, err
			}
			opts.Filter = filter
			opts.ProjectRoot = ignore.ProjectRoot(ignorePath)
		}
	}

	var db *storage.DB
	if !extractNoCache && cfg.Cache.Enabled {
		db, err = storage.Open(root, logger)
		if err != nil {
			logger.Warn("cache unavailable, extracting without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			cache, err := storage.NewCache(db)
			if err != nil {
				logger.Warn("cache unavailable, extracting without it", map[string]interface{}{
					"error": err.Error(),
				})
				_ = db.Close()
				db = nil
			} else {
				opts.Cache = cache
			}
		}
	}

	rulesPath := extractRules
	if rulesPath == "" {
		rulesPath = cfg.Rules.Path
	}
	if rulesPath != "" {
		r, err := rules.Load(rulesPath)
		if err != nil {
			closeDB(db)
			return opts, nil, err
		}
		opts.Rules = r
	}

	indexPath := extractScipIndex
	if indexPath == "" {
		indexPath = cfg.Scip.IndexPath
	}
	if indexPath != "" {
		idx, err := scipindex.Load(indexPath)
		if err != nil {
			closeDB(db)
			return opts, nil, err
		}
		opts.Index = idx
	}

	return opts, db, nil
}

func closeDB(db *storage.DB) {
	if db != nil {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing cache: %v\n", err)
		}
	}
}
