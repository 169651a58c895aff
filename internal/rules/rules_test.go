package rules

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"axe/internal/axiom"
	"axe/internal/errors"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndApply(t *testing.T) {
	path := writeRules(t, `
min_confidence = 0.5
disabled_types = ["complexity"]

[confidence]
"precond.divisor_nonzero" = 0.99
"effect.calls_begin" = 0.3
`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if r.MinConfidence() != 0.5 {
		t.Errorf("MinConfidence() = %v, want 0.5", r.MinConfidence())
	}

	in := []axiom.Axiom{
		{ID: "f.noexcept", AxiomType: axiom.Exception, Confidence: 1.0, SourceType: axiom.SourceExplicit},
		{ID: "f.precond.divisor_nonzero", AxiomType: axiom.Precondition, Confidence: 0.95, SourceType: axiom.SourcePattern},
		{ID: "f.effect.calls_begin", AxiomType: axiom.Effect, Confidence: 0.90, SourceType: axiom.SourcePattern},
		{ID: "T.instantiation_cost", AxiomType: axiom.Complexity, Confidence: 0.90, SourceType: axiom.SourcePattern},
	}
	out := r.Apply(in)

	// COMPLEXITY disabled, calls_begin rescored to 0.3 and floored out.
	if len(out) != 2 {
		t.Fatalf("Apply() kept %d axioms, want 2: %+v", len(out), out)
	}
	if out[0].ID != "f.noexcept" || out[0].Confidence != 1.0 {
		t.Errorf("explicit axiom changed: %+v", out[0])
	}
	if out[1].ID != "f.precond.divisor_nonzero" || out[1].Confidence != 0.99 {
		t.Errorf("override not applied: %+v", out[1])
	}
}

func TestExplicitAxiomsKeepConfidence(t *testing.T) {
	r, err := Compile(File{Confidence: map[string]float64{"noexcept": 0.5}})
	if err != nil {
		t.Fatal(err)
	}
	out := r.Apply([]axiom.Axiom{
		{ID: "f.noexcept", Confidence: 1.0, SourceType: axiom.SourceExplicit},
	})
	if out[0].Confidence != 1.0 {
		t.Errorf("explicit confidence = %v, want 1.0 regardless of overrides", out[0].Confidence)
	}
}

func TestPatternOverrideClampedBelowOne(t *testing.T) {
	r, err := Compile(File{Confidence: map[string]float64{"precond.ptr_valid": 1.0}})
	if err != nil {
		t.Fatal(err)
	}
	out := r.Apply([]axiom.Axiom{
		{ID: "f.precond.ptr_valid", Confidence: 0.95, SourceType: axiom.SourcePattern},
	})
	if out[0].Confidence != maxPatternConfidence {
		t.Errorf("pattern override = %v, want clamp to %v", out[0].Confidence, maxPatternConfidence)
	}
}

func TestLongestOverrideWins(t *testing.T) {
	r, err := Compile(File{Confidence: map[string]float64{
		"calls_begin":        0.4,
		"effect.calls_begin": 0.8,
	}})
	if err != nil {
		t.Fatal(err)
	}
	out := r.Apply([]axiom.Axiom{
		{ID: "f.effect.calls_begin", Confidence: 0.9, SourceType: axiom.SourcePattern},
	})
	if out[0].Confidence != 0.8 {
		t.Errorf("confidence = %v, want the more specific 0.8", out[0].Confidence)
	}
}

func TestNilRulesPassThrough(t *testing.T) {
	var r *Rules
	in := []axiom.Axiom{{ID: "f.const", Confidence: 1.0}}
	out := r.Apply(in)
	if len(out) != 1 || out[0].ID != "f.const" {
		t.Errorf("nil rules should pass through, got %+v", out)
	}
}

func TestInvalidRules(t *testing.T) {
	cases := map[string]string{
		"bad syntax":     `min_confidence = [`,
		"bad floor":      `min_confidence = 1.5`,
		"unknown type":   `disabled_types = ["BOGUS"]`,
		"bad override":   "[confidence]\n\"x\" = 2.0",
		"negative floor": `min_confidence = -0.1`,
	}
	for name, content := range cases {
		_, err := Load(writeRules(t, content))
		if err == nil {
			t.Errorf("%s: Load() should fail", name)
			continue
		}
		var xe *errors.ExtractError
		if !stderrors.As(err, &xe) || xe.Code != errors.RulesInvalid {
			t.Errorf("%s: error = %v, want RULES_INVALID", name, err)
		}
	}
}

func TestMissingRulesFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "rules.toml"))
	if err == nil {
		t.Fatal("Load() on a missing file should fail")
	}
	var xe *errors.ExtractError
	if !stderrors.As(err, &xe) || xe.Code != errors.RulesInvalid {
		t.Errorf("error = %v, want RULES_INVALID", err)
	}
}
