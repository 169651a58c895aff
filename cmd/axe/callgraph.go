package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"axe/internal/pipeline"
	"axe/internal/scipindex"
	"axe/internal/version"
)

var (
	callgraphRecursive bool
	callgraphScipIndex string
	callgraphFormat    string
)

var callgraphCmd = &cobra.Command{
	Use:   "callgraph [paths...]",
	Short: "Extract the call graph without axioms",
	Long: `Extract caller/callee edges from the given files and directories and
print them, skipping all axiom analyses. With a SCIP index, edges that
resolve to another indexed file carry the callee signature.

Examples:
  axe callgraph src/main.cpp
  axe callgraph -r --scip-index index.scip src/
  axe callgraph --format json src/*.cpp`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCallgraph,
}

func init() {
	callgraphCmd.Flags().BoolVarP(&callgraphRecursive, "recursive", "r", false, "Recurse into directories")
	callgraphCmd.Flags().StringVar(&callgraphScipIndex, "scip-index", "", "SCIP index for cross-file call resolution")
	callgraphCmd.Flags().StringVar(&callgraphFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(callgraphCmd)
}

func runCallgraph(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg := loadProjectConfig(root)
	logger := newLogger(cfg)

	opts := pipeline.Options{
		Paths:       args,
		Recursive:   callgraphRecursive,
		Extensions:  cfg.Extract.Extensions,
		CallGraph:   true,
		ProjectRoot: root,
		ToolVersion: version.Version,
		Logger:      logger,
	}
	indexPath := callgraphScipIndex
	if indexPath == "" {
		indexPath = cfg.Scip.IndexPath
	}
	if indexPath != "" {
		idx, err := scipindex.Load(indexPath)
		if err != nil {
			return err
		}
		opts.Index = idx
	}

	run := pipeline.Run(newContext(), opts)

	graph := &CallGraphCLI{Calls: run.CallGraph, Total: len(run.CallGraph)}
	out, err := FormatResponse(graph, OutputFormat(callgraphFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
