package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"axe/internal/errors"
	"axe/internal/storage"
)

var cacheFormat string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction cache",
	Long: `Inspect or clear the per-project extraction cache under .axe/.

Examples:
  axe cache status
  axe cache clear`,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache contents and location",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatus,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached extraction results",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheStatusCmd.Flags().StringVar(&cacheFormat, "format", "human", "Output format (json, human)")
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*storage.DB, *storage.Cache, error) {
	root := projectRoot()
	cfg := loadProjectConfig(root)
	logger := newLogger(cfg)

	db, err := storage.Open(root, logger)
	if err != nil {
		return nil, nil, errors.New(errors.CacheUnavailable, "cannot open cache", err)
	}
	cache, err := storage.NewCache(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, errors.New(errors.CacheUnavailable, "cannot open cache", err)
	}
	return db, cache, nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	db, cache, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := cache.Stats()
	if err != nil {
		return err
	}
	status := &CacheStatusCLI{
		Path:   db.Path(),
		Files:  stats.Files,
		Axioms: stats.Axioms,
		Calls:  stats.Calls,
		Runs:   stats.Runs,
	}
	out, err := FormatResponse(status, OutputFormat(cacheFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	db, cache, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := cache.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}
