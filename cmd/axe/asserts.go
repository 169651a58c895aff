package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"axe/internal/cpp"
	"axe/internal/errors"
	"axe/internal/testassert"
)

var (
	assertsFramework string
	assertsFormat    string
)

var assertsCmd = &cobra.Command{
	Use:   "asserts <file>",
	Short: "Mine test assertions from one test file",
	Long: `Parse a single C++ test file and list the axioms mined from its
assertions. The framework is detected from includes unless forced
with --framework.

Examples:
  axe asserts tests/ring_test.cpp
  axe asserts --framework gtest tests/ring_test.cpp`,
	Args: cobra.ExactArgs(1),
	RunE: runAsserts,
}

func init() {
	assertsCmd.Flags().StringVar(&assertsFramework, "framework", "auto", "Test framework (auto, catch2, gtest, boost)")
	assertsCmd.Flags().StringVar(&assertsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(assertsCmd)
}

func runAsserts(cmd *cobra.Command, args []string) error {
	fw, err := testassert.ParseFramework(assertsFramework)
	if err != nil {
		return err
	}

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

	asserts, detected := testassert.Extract(f, fw)
	axioms := testassert.Axioms(f, asserts)

	list := &AxiomListCLI{Axioms: axioms, Total: len(axioms)}
	out, err := FormatResponse(list, OutputFormat(assertsFormat))
	if err != nil {
		return err
	}
	if assertsFormat == string(FormatHuman) && len(asserts) > 0 {
		fmt.Printf("Framework: %s\n", detected)
	}
	fmt.Println(out)
	return nil
}
