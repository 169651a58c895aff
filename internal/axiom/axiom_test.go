package axiom

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAxiomJSONFieldNames(t *testing.T) {
	a := Axiom{
		ID:         "Foo::bar.precond.ptr_valid",
		Content:    "Pointer p must not be null",
		FormalSpec: "p != nullptr",
		Function:   "Foo::bar",
		Signature:  "void Foo::bar(int* p)",
		Header:     "src/foo.cpp",
		AxiomType:  Precondition,
		Confidence: 0.95,
		SourceType: SourcePattern,
		Line:       14,
		HazardType: HazardPointerDeref,
		HazardLine: 14,
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	out := string(data)

	// The field names are a stable consumer contract.
	for _, field := range []string{
		`"id"`, `"content"`, `"formal_spec"`, `"function"`, `"signature"`,
		`"header"`, `"axiom_type"`, `"confidence"`, `"source_type"`, `"line"`,
		`"hazard_type"`, `"hazard_line"`,
	} {
		if !strings.Contains(out, field) {
			t.Errorf("marshaled axiom missing %s: %s", field, out)
		}
	}

	// Optional hazard fields stay out when unset.
	plain, _ := json.Marshal(Axiom{ID: "x", AxiomType: Constraint, SourceType: SourceExplicit, Confidence: 1.0})
	if strings.Contains(string(plain), "hazard_type") || strings.Contains(string(plain), "guard_expression") {
		t.Errorf("unset hazard fields should be omitted: %s", plain)
	}
}

func TestSanitizeID(t *testing.T) {
	cases := map[string]string{
		"v.begin":     "v_begin",
		"get_value":   "get_value",
		"ns::helper":  "ns__helper",
		"a->b":        "a__b",
		"plain123":    "plain123",
	}
	for in, want := range cases {
		if got := SanitizeID(in); got != want {
			t.Errorf("SanitizeID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp("", 100); got != "<unknown>" {
		t.Errorf("Clamp empty = %q", got)
	}
	if got := Clamp("  spaced  ", 100); got != "spaced" {
		t.Errorf("Clamp should trim: %q", got)
	}
	long := strings.Repeat("x", 150)
	if got := Clamp(long, 100); len(got) != 100 {
		t.Errorf("Clamp long = %d chars, want 100", len(got))
	}
}
