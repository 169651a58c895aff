package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"axe/internal/cpp"
	"axe/internal/errors"
	"axe/internal/hazards"
)

var hazardsFormat string

var hazardsCmd = &cobra.Command{
	Use:   "hazards <file>",
	Short: "Show hazards and their guards for one file",
	Long: `Parse a single C++ file and list every hazard site together with the
guard analysis verdict, without emitting axioms. Useful for checking
why a precondition did or did not appear in a report.

Examples:
  axe hazards src/ring.cpp
  axe hazards --format json src/ring.cpp`,
	Args: cobra.ExactArgs(1),
	RunE: runHazards,
}

func init() {
	hazardsCmd.Flags().StringVar(&hazardsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(hazardsCmd)
}

func runHazards(cmd *cobra.Command, args []string) error {
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

	report := &HazardReportCLI{File: path}
	facts := cpp.ExtractFacts(f)
	for _, rec := range facts.Functions {
		hz := hazards.Detect(f, rec.Body)
		if len(hz) == 0 {
			continue
		}
		hazards.Analyze(f, rec.Body, hz)
		for _, h := range hz {
			row := HazardRowCLI{
				Function:   rec.Info.Name,
				Kind:       h.Kind,
				Expression: h.Expression,
				Operand:    h.Operand,
				Line:       h.Line,
				Guarded:    h.Guard.Found,
			}
			if h.Guard.Found {
				row.Guard = h.Guard.Expression
				row.GuardLine = h.Guard.Line
			}
			report.Hazards = append(report.Hazards, row)
		}
	}

	out, err := FormatResponse(report, OutputFormat(hazardsFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
