package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"axe/internal/axiom"
	"axe/internal/cpp"
	"axe/internal/errors"
	"axe/internal/macros"
)

var macrosFormat string

var macrosCmd = &cobra.Command{
	Use:   "macros <file>",
	Short: "Show macro axioms for one file",
	Long: `Parse a single C++ file and list the axioms derived from its
function-like macro definitions: multiple-evaluation warnings,
unparenthesized-body warnings, and definition records.

Examples:
  axe macros include/util.hpp
  axe macros --format json include/util.hpp`,
	Args: cobra.ExactArgs(1),
	RunE: runMacros,
}

func init() {
	macrosCmd.Flags().StringVar(&macrosFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(macrosCmd)
}

func runMacros(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.FileUnreadable, fmt.Sprintf("cannot read %s", path), err)
	}

	f, err := cpp.NewParser().Parse(newContext(), path, source)
	if err != nil {
		return errors.New(errors.ParseFailed, fmt.Sprintf("cannot parse %s", path), err)
	}
	defer f.Close()

	facts := cpp.ExtractFacts(f)
	var axioms []axiom.Axiom
	for _, m := range facts.Macros {
		axioms = append(axioms, macros.Axioms(m)...)
	}

	list := &AxiomListCLI{Axioms: axioms, Total: len(axioms)}
	out, err := FormatResponse(list, OutputFormat(macrosFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
