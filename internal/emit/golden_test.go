package emit

import (
	"bytes"
	"testing"
	"time"

	"axe/internal/axiom"
	"axe/internal/testutil"
)

// TestReportGolden pins the full report document byte for byte: key
// ordering, float formatting, optional-section gating, and the omission
// rules for empty and false-valued fields.
func TestReportGolden(t *testing.T) {
	run := Run{
		RunID:       "8d3f1a2b-4c5d-4e6f-8a9b-0c1d2e3f4a5b",
		ExtractedAt: time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC),
		Files: []axiom.ExtractionResult{
			{
				File: "/work/acme/src/ring.cpp",
				Axioms: []axiom.Axiom{
					{
						ID:         "Ring::at.precond.bounds_check",
						Content:    "Index must be within bounds for buf[i]",
						FormalSpec: "valid_index(i)",
						Function:   "Ring::at",
						Signature:  "int Ring::at(int) const",
						Header:     "src/ring.hpp",
						AxiomType:  axiom.Precondition,
						Confidence: 0.95,
						SourceType: axiom.SourcePattern,
						Line:       12,
						HazardType: axiom.HazardArrayAccess,
						HazardLine: 12,
						HasGuard:   axiom.Bool(false),
					},
					{
						ID:         "Ring::at.noexcept",
						Content:    "at is guaranteed not to throw exceptions",
						FormalSpec: "noexcept == true",
						Function:   "Ring::at",
						Signature:  "int Ring::at(int) const",
						Header:     "src/ring.hpp",
						AxiomType:  axiom.Exception,
						Confidence: 1.0,
						SourceType: axiom.SourceExplicit,
						Line:       11,
					},
				},
			},
			{
				File:   "/work/acme/src/broken.cpp",
				Errors: []string{"[PARSE_FAILED] cannot parse /work/acme/src/broken.cpp"},
			},
		},
		CallGraph: []axiom.FunctionCall{{
			Caller:          "Ring::at",
			Callee:          "Ring::size",
			CalleeSignature: "int Ring::size() const noexcept",
			Line:            12,
		}},
		HasFilter:   true,
		IgnoreCount: 2,
		ProjectRoot: "/work/acme",
	}

	var buf bytes.Buffer
	if err := Encode(&buf, NewReport(run), true); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	testutil.Golden(t, "report.json", testutil.NormalizeReport(buf.Bytes(), "/work/acme"))
}
