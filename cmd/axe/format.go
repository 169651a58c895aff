package main

import (
	"fmt"
	"strings"

	"axe/internal/axiom"
	"axe/internal/emit"
	"axe/internal/output"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON renders through the deterministic encoder so CLI output
// obeys the same field rules as report emission.
func formatJSON(resp interface{}) (string, error) {
	data, err := output.DeterministicEncodeIndented(resp, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *HazardReportCLI:
		return formatHazardsHuman(v), nil
	case *CallGraphCLI:
		return formatCallGraphHuman(v), nil
	case *AxiomListCLI:
		return formatAxiomsHuman(v), nil
	case *CacheStatusCLI:
		return formatCacheStatusHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

// HazardReportCLI lists the hazard sites of one file.
type HazardReportCLI struct {
	File    string         `json:"file"`
	Hazards []HazardRowCLI `json:"hazards"`
}

// HazardRowCLI is one hazard site with its guard verdict.
type HazardRowCLI struct {
	Function   string           `json:"function"`
	Kind       axiom.HazardKind `json:"kind"`
	Expression string           `json:"expression"`
	Operand    string           `json:"operand"`
	Line       int              `json:"line"`
	Guarded    bool             `json:"guarded"`
	Guard      string           `json:"guard,omitempty"`
	GuardLine  int              `json:"guard_line,omitempty"`
}

func formatHazardsHuman(r *HazardReportCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d hazard site(s)\n", r.File, len(r.Hazards))
	for _, h := range r.Hazards {
		fmt.Fprintf(&b, "  %4d  %-13s %s  in %s", h.Line, h.Kind, h.Expression, h.Function)
		if h.Guarded {
			fmt.Fprintf(&b, "  [guarded: %s @%d]", h.Guard, h.GuardLine)
		} else {
			b.WriteString("  [unguarded]")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// CallGraphCLI carries extracted call edges.
type CallGraphCLI struct {
	Calls []axiom.FunctionCall `json:"calls"`
	Total int                  `json:"total"`
}

func formatCallGraphHuman(g *CallGraphCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d call(s)\n", g.Total)
	for _, c := range g.Calls {
		fmt.Fprintf(&b, "  %s -> %s", c.Caller, c.Callee)
		if c.IsVirtual {
			b.WriteString(" [virtual]")
		}
		if c.IsExternal {
			b.WriteString(" [external]")
		}
		fmt.Fprintf(&b, " (line %d)\n", c.Line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// AxiomListCLI carries axioms from a query or a single-file analysis.
type AxiomListCLI struct {
	Axioms []axiom.Axiom `json:"axioms"`
	Total  int           `json:"total"`
}

func formatAxiomsHuman(l *AxiomListCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d axiom(s)\n", l.Total)
	for _, a := range l.Axioms {
		fmt.Fprintf(&b, "  [%s %.2f] %s: %s", a.AxiomType, a.Confidence, a.ID, a.Content)
		if a.FormalSpec != "" {
			fmt.Fprintf(&b, "  {%s}", a.FormalSpec)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// CacheStatusCLI reports cache row counts.
type CacheStatusCLI struct {
	Path   string `json:"path"`
	Files  int    `json:"files"`
	Axioms int    `json:"axioms"`
	Calls  int    `json:"calls"`
	Runs   int    `json:"runs"`
}

func formatCacheStatusHuman(s *CacheStatusCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cache: %s\n", s.Path)
	fmt.Fprintf(&b, "  Files:  %d\n", s.Files)
	fmt.Fprintf(&b, "  Axioms: %d\n", s.Axioms)
	fmt.Fprintf(&b, "  Calls:  %d\n", s.Calls)
	fmt.Fprintf(&b, "  Runs:   %d", s.Runs)
	return b.String()
}

// formatRunHuman summarizes an extraction run for the terminal: per-file
// axiom listings and errors, then the run totals.
func formatRunHuman(run emit.Run) string {
	var b strings.Builder
	totalAxioms := 0
	totalErrors := 0
	for _, f := range run.Files {
		totalAxioms += len(f.Axioms)
		totalErrors += len(f.Errors)
	}
	fmt.Fprintf(&b, "%d file(s), %d axiom(s), %d error(s)\n", len(run.Files), totalAxioms, totalErrors)
	for _, f := range run.Files {
		if len(f.Axioms) == 0 && len(f.Errors) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", f.File)
		for _, a := range f.Axioms {
			fmt.Fprintf(&b, "  [%s %.2f] %s: %s", a.AxiomType, a.Confidence, a.ID, a.Content)
			if a.FormalSpec != "" {
				fmt.Fprintf(&b, "  {%s}", a.FormalSpec)
			}
			b.WriteString("\n")
		}
		for _, e := range f.Errors {
			fmt.Fprintf(&b, "  ERROR %s\n", e)
		}
	}
	if len(run.CallGraph) > 0 {
		fmt.Fprintf(&b, "\n%d call edge(s)\n", len(run.CallGraph))
	}
	return strings.TrimRight(b.String(), "\n")
}
