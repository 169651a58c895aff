package manifest

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"axe/internal/axiom"
	"axe/internal/errors"
)

func sampleAxioms() []axiom.Axiom {
	return []axiom.Axiom{
		{
			ID: "Ring::at.effect.calls_size", Content: "Calls size()",
			Function: "Ring::at", Header: "src/ring.hpp",
			AxiomType: axiom.Effect, Confidence: 0.9,
			SourceType: axiom.SourcePattern, Line: 14,
		},
		{
			ID: "Ring::at.precond.bounds_check", Content: "Index must be within bounds",
			FormalSpec: "requires i < size()",
			Function:   "Ring::at", Header: "src/ring.hpp",
			AxiomType: axiom.Precondition, Confidence: 0.95,
			SourceType: axiom.SourcePattern, Line: 12,
		},
		{
			ID: "Pool::get.noexcept", Content: "Never throws exceptions",
			Function: "Pool::get", Header: "src/pool.hpp",
			AxiomType: axiom.Constraint, Confidence: 1.0,
			SourceType: axiom.SourceExplicit, Line: 8,
		},
		{
			ID: "macro.CHECKED_DIV.definition", Content: "Macro CHECKED_DIV",
			Header:    "src/util.hpp",
			AxiomType: axiom.Constraint, Confidence: 0.9,
			SourceType: axiom.SourcePattern, Line: 3,
		},
	}
}

func TestBuildGroupsAndOrders(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	m := Build(sampleAxioms(), "0.4.0", now)

	if m.Metadata.Tool != "axe" || m.Metadata.ToolVersion != "0.4.0" {
		t.Errorf("metadata tool fields = %+v", m.Metadata)
	}
	if m.Metadata.Generated != "2025-06-01T12:30:00Z" {
		t.Errorf("Generated = %q", m.Metadata.Generated)
	}
	if m.Metadata.AxiomCount != 4 || m.Metadata.FunctionCount != 3 {
		t.Errorf("counts = %+v", m.Metadata)
	}

	// Functions sort by (header, name): pool before ring before util.
	wantOrder := []string{"Pool::get", "Ring::at", "macro.CHECKED_DIV.definition"}
	if len(m.Functions) != len(wantOrder) {
		t.Fatalf("functions = %d, want %d", len(m.Functions), len(wantOrder))
	}
	for i, want := range wantOrder {
		if m.Functions[i].Function != want {
			t.Errorf("Functions[%d] = %q, want %q", i, m.Functions[i].Function, want)
		}
	}

	// Within Ring::at, line 12 precedes line 14.
	ring := m.Functions[1]
	if len(ring.Axioms) != 2 || ring.Axioms[0].Line != 12 || ring.Axioms[1].Line != 14 {
		t.Errorf("Ring::at entries out of order: %+v", ring.Axioms)
	}
	if ring.Axioms[0].FormalSpec != "requires i < size()" {
		t.Errorf("formal spec lost: %+v", ring.Axioms[0])
	}
}

func TestRenderTOML(t *testing.T) {
	m := Build(sampleAxioms(), "0.4.0", time.Now())
	data, err := Render(m, FormatTOML)
	if err != nil {
		t.Fatalf("Render(toml) error = %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"[metadata]",
		"[[functions]]",
		"Ring::at",
		"Ring::at.precond.bounds_check",
		"axiom_count = 4",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("TOML output missing %q:\n%s", want, text)
		}
	}
}

func TestRenderYAML(t *testing.T) {
	m := Build(sampleAxioms(), "0.4.0", time.Now())
	data, err := Render(m, FormatYAML)
	if err != nil {
		t.Fatalf("Render(yaml) error = %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"metadata:",
		"tool: axe",
		"function: Ring::at",
		"confidence: 0.95",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("YAML output missing %q:\n%s", want, text)
		}
	}
}

func TestRenderJSONDeterministic(t *testing.T) {
	m := Build(sampleAxioms(), "0.4.0", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	first, err := Render(m, FormatJSON)
	if err != nil {
		t.Fatalf("Render(json) error = %v", err)
	}
	second, err := Render(m, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("JSON rendering is not byte-stable")
	}
	if !strings.Contains(string(first), `"tool": "axe"`) {
		t.Errorf("JSON output missing tool field:\n%s", first)
	}
	if !strings.HasSuffix(string(first), "\n") {
		t.Error("JSON output should end with a newline")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"toml", FormatTOML, true},
		{" YAML ", FormatYAML, true},
		{"json", FormatJSON, true},
		{"", FormatJSON, true},
		{"xml", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("ParseFormat(%q) should fail", tt.in)
			continue
		}
		var ee *errors.ExtractError
		if !stderrors.As(err, &ee) || ee.Code != errors.ConfigInvalid {
			t.Errorf("ParseFormat(%q) error = %v, want CONFIG_INVALID", tt.in, err)
		}
	}
}
