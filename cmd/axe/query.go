package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"axe/internal/axiom"
	"axe/internal/errors"
	"axe/internal/storage"
)

var (
	queryFunction      string
	queryType          string
	queryHeader        string
	queryMinConfidence float64
	queryLimit         int
	queryCalls         bool
	queryFormat        string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query cached axioms",
	Long: `Query the extraction cache in the current project without
re-extracting. Filters combine; the match on --header is a substring,
the others are exact. With --calls the query returns cached call
edges instead, and --function filters on the caller.

Examples:
  axe query --function Ring::at
  axe query --type PRECONDITION --min-confidence 0.9
  axe query --header include/ring.hpp --limit 20
  axe query --calls --function Ring::at`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryFunction, "function", "", "Qualified function name (exact match)")
	queryCmd.Flags().StringVar(&queryType, "type", "", "Axiom type (PRECONDITION, EFFECT, ...)")
	queryCmd.Flags().StringVar(&queryHeader, "header", "", "Header path (substring match)")
	queryCmd.Flags().Float64Var(&queryMinConfidence, "min-confidence", 0, "Minimum confidence")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum results (0 = unlimited)")
	queryCmd.Flags().BoolVar(&queryCalls, "calls", false, "Query cached call edges instead of axioms")
	queryCmd.Flags().StringVar(&queryFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	cfg := loadProjectConfig(root)
	logger := newLogger(cfg)

	db, err := storage.Open(root, logger)
	if err != nil {
		return errors.New(errors.CacheUnavailable, "cannot open cache", err)
	}
	defer db.Close()
	cache, err := storage.NewCache(db)
	if err != nil {
		return errors.New(errors.CacheUnavailable, "cannot open cache", err)
	}

	if queryCalls {
		calls, err := cache.QueryCalls(queryFunction)
		if err != nil {
			return err
		}
		graph := &CallGraphCLI{Calls: calls, Total: len(calls)}
		out, err := FormatResponse(graph, OutputFormat(queryFormat))
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	opts := storage.QueryOptions{
		Function:      queryFunction,
		Header:        queryHeader,
		MinConfidence: queryMinConfidence,
		Limit:         queryLimit,
	}
	if queryType != "" {
		t, ok := axiom.ParseType(queryType)
		if !ok {
			return fmt.Errorf("unknown axiom type %q", queryType)
		}
		opts.Type = t
	}

	axioms, err := cache.QueryAxioms(opts)
	if err != nil {
		return err
	}
	list := &AxiomListCLI{Axioms: axioms, Total: len(axioms)}
	out, err := FormatResponse(list, OutputFormat(queryFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
