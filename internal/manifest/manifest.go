// Package manifest renders extracted axioms as curated per-function
// manifests, the shape `axe export` writes for review or for checking
// into source control next to the code the axioms describe.
package manifest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"axe/internal/axiom"
	"axe/internal/errors"
	"axe/internal/output"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format selects the manifest serialization.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTOML:
		return FormatTOML, nil
	case FormatYAML:
		return FormatYAML, nil
	case FormatJSON, "":
		return FormatJSON, nil
	}
	return "", errors.New(errors.ConfigInvalid,
		fmt.Sprintf("unknown manifest format %q (use toml, yaml or json)", s), nil)
}

// Manifest is the exported document: run metadata plus axioms grouped
// by the function they describe.
type Manifest struct {
	Metadata  Metadata   `toml:"metadata" yaml:"metadata" json:"metadata"`
	Functions []Function `toml:"functions" yaml:"functions" json:"functions"`
}

// Metadata records where and when the manifest came from.
type Metadata struct {
	Tool          string `toml:"tool" yaml:"tool" json:"tool"`
	ToolVersion   string `toml:"tool_version" yaml:"tool_version" json:"tool_version"`
	Generated     string `toml:"generated" yaml:"generated" json:"generated"`
	FunctionCount int    `toml:"function_count" yaml:"function_count" json:"function_count"`
	AxiomCount    int    `toml:"axiom_count" yaml:"axiom_count" json:"axiom_count"`
}

// Function groups the axioms of one function.
type Function struct {
	Function string  `toml:"function" yaml:"function" json:"function"`
	Header   string  `toml:"header,omitempty" yaml:"header,omitempty" json:"header,omitempty"`
	Axioms   []Entry `toml:"axioms" yaml:"axioms" json:"axioms"`
}

// Entry is one axiom reduced to the fields a reviewer cares about.
type Entry struct {
	ID         string  `toml:"id" yaml:"id" json:"id"`
	Type       string  `toml:"type" yaml:"type" json:"type"`
	Content    string  `toml:"content" yaml:"content" json:"content"`
	FormalSpec string  `toml:"formal_spec,omitempty" yaml:"formal_spec,omitempty" json:"formal_spec,omitempty"`
	Confidence float64 `toml:"confidence" yaml:"confidence" json:"confidence"`
	Source     string  `toml:"source" yaml:"source" json:"source"`
	Line       int     `toml:"line" yaml:"line" json:"line"`
}

// Build groups axioms by function in a stable order: functions by
// (header, function name), entries by (line, id). Axioms without a
// function (macro axioms) group under their own names.
func Build(axioms []axiom.Axiom, toolVersion string, now time.Time) *Manifest {
	byFunction := make(map[string]*Function)
	var order []string

	for _, ax := range axioms {
		name := ax.Function
		if name == "" {
			name = ax.ID
		}
		key := ax.Header + "\x00" + name
		fn, ok := byFunction[key]
		if !ok {
			fn = &Function{Function: name, Header: ax.Header}
			byFunction[key] = fn
			order = append(order, key)
		}
		fn.Axioms = append(fn.Axioms, Entry{
			ID:         ax.ID,
			Type:       string(ax.AxiomType),
			Content:    ax.Content,
			FormalSpec: ax.FormalSpec,
			Confidence: output.RoundFloat(ax.Confidence),
			Source:     string(ax.SourceType),
			Line:       ax.Line,
		})
	}

	sort.Strings(order)
	m := &Manifest{
		Metadata: Metadata{
			Tool:        "axe",
			ToolVersion: toolVersion,
			Generated:   now.UTC().Format(time.RFC3339),
			AxiomCount:  len(axioms),
		},
		Functions: make([]Function, 0, len(order)),
	}
	for _, key := range order {
		fn := byFunction[key]
		sort.SliceStable(fn.Axioms, func(i, j int) bool {
			if fn.Axioms[i].Line != fn.Axioms[j].Line {
				return fn.Axioms[i].Line < fn.Axioms[j].Line
			}
			return fn.Axioms[i].ID < fn.Axioms[j].ID
		})
		m.Functions = append(m.Functions, *fn)
	}
	m.Metadata.FunctionCount = len(m.Functions)
	return m
}

// Render serializes the manifest in the requested format. JSON goes
// through the deterministic encoder so exports diff cleanly.
func Render(m *Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(m)
	case FormatYAML:
		return yaml.Marshal(m)
	case FormatJSON:
		data, err := output.DeterministicEncodeIndented(m, "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return nil, errors.New(errors.ConfigInvalid,
		fmt.Sprintf("unknown manifest format %q", format), nil)
}
