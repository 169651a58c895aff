package emit

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"axe/internal/axiom"

	"github.com/klauspost/compress/zstd"
)

func sampleRun() Run {
	return Run{
		RunID:       "3f1a9b2c-run",
		ExtractedAt: time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC),
		Files: []axiom.ExtractionResult{
			{
				File: "src/ring.cpp",
				Axioms: []axiom.Axiom{
					{
						ID: "Ring::at.precond.bounds_check", Content: "Index must be within bounds",
						Function: "Ring::at", Header: "src/ring.hpp",
						AxiomType: axiom.Precondition, Confidence: 0.95,
						SourceType: axiom.SourcePattern, Line: 12,
					},
					{
						ID: "Ring::size.noexcept", Content: "Never throws exceptions",
						Function: "Ring::size", Header: "src/ring.hpp",
						AxiomType: axiom.Constraint, Confidence: 1.0,
						SourceType: axiom.SourceExplicit, Line: 8,
					},
				},
			},
			{
				File:   "src/broken.cpp",
				Errors: []string{"parse failed: unbalanced braces"},
			},
		},
		CallGraph: []axiom.FunctionCall{
			{Caller: "Ring::at", Callee: "Ring::size", Line: 13},
		},
		HasFilter:   true,
		IgnoreCount: 3,
		ProjectRoot: "/work/acme",
	}
}

func decode(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, v, false); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	return m
}

func TestReportShape(t *testing.T) {
	m := decode(t, NewReport(sampleRun()))

	if m["version"] != "1.0" || m["run_id"] != "3f1a9b2c-run" {
		t.Errorf("header fields = %v, %v", m["version"], m["run_id"])
	}
	if m["extracted_at"] != "2025-07-14T09:30:00Z" {
		t.Errorf("extracted_at = %v", m["extracted_at"])
	}
	if m["total_axioms"] != float64(2) || m["total_calls"] != float64(1) {
		t.Errorf("totals = %v, %v", m["total_axioms"], m["total_calls"])
	}
	if m["ignore_patterns"] != float64(3) || m["project_root"] != "/work/acme" {
		t.Errorf("filter fields = %v, %v", m["ignore_patterns"], m["project_root"])
	}
	if _, ok := m["test_mode"]; ok {
		t.Error("test_mode should be absent outside test mode")
	}

	files, ok := m["files"].([]interface{})
	if !ok || len(files) != 2 {
		t.Fatalf("files = %v", m["files"])
	}
	first := files[0].(map[string]interface{})
	if first["file"] != "src/ring.cpp" {
		t.Errorf("files[0].file = %v", first["file"])
	}
	if _, ok := first["errors"]; ok {
		t.Error("clean file should carry no errors field")
	}
	second := files[1].(map[string]interface{})
	if _, ok := second["axioms"]; ok {
		t.Error("failed file extracted nothing, axioms should be absent")
	}
	errs := second["errors"].([]interface{})
	if len(errs) != 1 || !strings.Contains(errs[0].(string), "unbalanced braces") {
		t.Errorf("files[1].errors = %v", second["errors"])
	}
}

func TestReportOmitsInactiveSections(t *testing.T) {
	run := sampleRun()
	run.HasFilter = false
	run.ProjectRoot = ""
	run.CallGraph = nil
	run.TestMode = true
	run.TestFramework = "catch2"

	m := decode(t, NewReport(run))
	for _, absent := range []string{"ignore_patterns", "project_root", "call_graph", "total_calls"} {
		if _, ok := m[absent]; ok {
			t.Errorf("%s should be absent: %v", absent, m[absent])
		}
	}
	if m["test_mode"] != true || m["test_framework"] != "catch2" {
		t.Errorf("test fields = %v, %v", m["test_mode"], m["test_framework"])
	}
}

func TestEmptyFilterStillReportsZero(t *testing.T) {
	run := sampleRun()
	run.IgnoreCount = 0

	m := decode(t, NewReport(run))
	v, ok := m["ignore_patterns"]
	if !ok {
		t.Fatal("ignore_patterns should be present when a filter is active")
	}
	if v != float64(0) {
		t.Errorf("ignore_patterns = %v, want 0", v)
	}
}

func TestFlatShape(t *testing.T) {
	m := decode(t, NewFlat(sampleRun(), "0.4.0"))

	if m["tool"] != "axe" || m["tool_version"] != "0.4.0" {
		t.Errorf("tool fields = %v, %v", m["tool"], m["tool_version"])
	}

	sources, _ := m["source_files"].([]interface{})
	if len(sources) != 2 || sources[0] != "src/ring.cpp" {
		t.Errorf("source_files = %v", m["source_files"])
	}
	axioms, _ := m["axioms"].([]interface{})
	if len(axioms) != 2 {
		t.Fatalf("axioms = %v", m["axioms"])
	}

	errs, _ := m["errors"].([]interface{})
	if len(errs) != 1 {
		t.Fatalf("errors = %v", m["errors"])
	}
	e := errs[0].(map[string]interface{})
	if e["file"] != "src/broken.cpp" || !strings.Contains(e["message"].(string), "parse failed") {
		t.Errorf("errors[0] = %v", e)
	}

	stats := m["statistics"].(map[string]interface{})
	if stats["files_processed"] != float64(2) || stats["axioms_extracted"] != float64(2) ||
		stats["errors_encountered"] != float64(1) {
		t.Errorf("statistics = %v", stats)
	}
	byType := stats["by_type"].(map[string]interface{})
	if byType["PRECONDITION"] != float64(1) || byType["CONSTRAINT"] != float64(1) {
		t.Errorf("by_type = %v", byType)
	}
	bySource := stats["by_source"].(map[string]interface{})
	if bySource["pattern"] != float64(1) || bySource["explicit"] != float64(1) {
		t.Errorf("by_source = %v", bySource)
	}
}

func TestEncodeStable(t *testing.T) {
	report := NewReport(sampleRun())

	var first, second bytes.Buffer
	if err := Encode(&first, report, false); err != nil {
		t.Fatal(err)
	}
	if err := Encode(&second, report, false); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("compact encoding is not byte-stable")
	}

	var pretty bytes.Buffer
	if err := Encode(&pretty, report, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pretty.String(), "\n  ") {
		t.Error("pretty encoding should be indented")
	}
}

func TestDestinationCompressesBySuffix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json.zst")
	w, err := Destination(path, false)
	if err != nil {
		t.Fatalf("Destination() error = %v", err)
	}
	if err := Encode(w, NewReport(sampleRun()), false); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("output is not a zstd stream: %v", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatal(err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decompressed output is not JSON: %v", err)
	}
	if m["total_axioms"] != float64(2) {
		t.Errorf("round-tripped total_axioms = %v", m["total_axioms"])
	}
}

func TestDestinationPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	w, err := Destination(path, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := Encode(w, NewFlat(sampleRun(), "0.4.0"), false); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(bytes.TrimSpace(data)) {
		t.Errorf("plain destination should hold raw JSON:\n%s", data)
	}
}
