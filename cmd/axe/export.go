package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"axe/internal/manifest"
	"axe/internal/storage"
	"axe/internal/version"
)

var (
	exportOutput        string
	exportFormat        string
	exportFunction      string
	exportHeader        string
	exportMinConfidence float64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cached axioms as a manifest",
	Long: `Render cached axioms as a manifest grouped by function, for review
or for checking into the repository. Formats: toml, yaml, json.

Examples:
  axe export -o axioms.toml
  axe export --format yaml --min-confidence 0.9
  axe export --header include/ring.hpp --format json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (default stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "toml", "Manifest format (toml, yaml, json)")
	exportCmd.Flags().StringVar(&exportFunction, "function", "", "Limit to one qualified function name")
	exportCmd.Flags().StringVar(&exportHeader, "header", "", "Limit to headers matching this substring")
	exportCmd.Flags().Float64Var(&exportMinConfidence, "min-confidence", 0, "Minimum confidence")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := manifest.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	db, cache, err := openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	axioms, err := cache.QueryAxioms(storage.QueryOptions{
		Function:      exportFunction,
		Header:        exportHeader,
		MinConfidence: exportMinConfidence,
	})
	if err != nil {
		return err
	}

	m := manifest.Build(axioms, version.Version, time.Now().UTC())
	data, err := manifest.Render(m, format)
	if err != nil {
		return err
	}

	if exportOutput == "" || exportOutput == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Wrote %d function manifest(s) to %s\n", len(m.Functions), exportOutput)
	return nil
}
