// Package emit serializes extraction runs into the two report shapes
// consumers read: the default per-file report and the flat aggregate
// document. Both go through the deterministic encoder so identical runs
// produce identical bytes.
package emit

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"axe/internal/axiom"
	"axe/internal/output"

	"github.com/klauspost/compress/zstd"
)

const reportVersion = "1.0"

// zstExt triggers transparent compression from the output path alone.
const zstExt = ".zst"

// Run carries everything one extraction run learned, in the order the
// pipeline produced it.
type Run struct {
	RunID         string
	ExtractedAt   time.Time
	Files         []axiom.ExtractionResult
	CallGraph     []axiom.FunctionCall
	HasFilter     bool
	IgnoreCount   int
	ProjectRoot   string
	TestMode      bool
	TestFramework string
}

// Report is the default output document: per-file results plus the
// sections optional features contribute. IgnorePatterns is a pointer so
// a filter with zero patterns still reports 0 while no filter at all
// omits the field.
type Report struct {
	Version        string                   `json:"version"`
	RunID          string                   `json:"run_id"`
	ExtractedAt    string                   `json:"extracted_at"`
	Files          []axiom.ExtractionResult `json:"files"`
	TotalAxioms    int                      `json:"total_axioms"`
	IgnorePatterns *int                     `json:"ignore_patterns"`
	ProjectRoot    string                   `json:"project_root,omitempty"`
	CallGraph      []axiom.FunctionCall     `json:"call_graph,omitempty"`
	TotalCalls     int                      `json:"total_calls,omitempty"`
	TestMode       bool                     `json:"test_mode,omitempty"`
	TestFramework  string                   `json:"test_framework,omitempty"`
}

// Flat is the aggregate document: every axiom in one list with run
// statistics, for consumers that do not care which file owns what.
type Flat struct {
	Version     string        `json:"version"`
	ExtractedAt string        `json:"extracted_at"`
	Tool        string        `json:"tool"`
	ToolVersion string        `json:"tool_version"`
	SourceFiles []string      `json:"source_files"`
	Axioms      []axiom.Axiom `json:"axioms"`
	Errors      []FlatError   `json:"errors"`
	Statistics  Statistics    `json:"statistics"`
}

// FlatError attributes one per-file error string to its file.
type FlatError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Statistics summarizes a run for the flat document.
type Statistics struct {
	FilesProcessed    int            `json:"files_processed"`
	AxiomsExtracted   int            `json:"axioms_extracted"`
	ErrorsEncountered int            `json:"errors_encountered"`
	ByType            map[string]int `json:"by_type"`
	BySource          map[string]int `json:"by_source"`
}

// NewReport assembles the default report from a run.
func NewReport(run Run) *Report {
	total := 0
	for _, fr := range run.Files {
		total += len(fr.Axioms)
	}

	r := &Report{
		Version:     reportVersion,
		RunID:       run.RunID,
		ExtractedAt: run.ExtractedAt.UTC().Format(time.RFC3339),
		Files:       run.Files,
		TotalAxioms: total,
		CallGraph:   run.CallGraph,
		TotalCalls:  len(run.CallGraph),
	}
	// The filter and test-mode sections only appear when those features
	// were active for the run.
	if run.HasFilter {
		count := run.IgnoreCount
		r.IgnorePatterns = &count
		r.ProjectRoot = run.ProjectRoot
	}
	if run.TestMode {
		r.TestMode = true
		r.TestFramework = run.TestFramework
	}
	return r
}

// NewFlat assembles the flat aggregate document from a run.
func NewFlat(run Run, toolVersion string) *Flat {
	f := &Flat{
		Version:     reportVersion,
		ExtractedAt: run.ExtractedAt.UTC().Format(time.RFC3339),
		Tool:        "axe",
		ToolVersion: toolVersion,
		Statistics: Statistics{
			FilesProcessed: len(run.Files),
			ByType:         make(map[string]int),
			BySource:       make(map[string]int),
		},
	}

	for _, fr := range run.Files {
		f.SourceFiles = append(f.SourceFiles, fr.File)
		f.Axioms = append(f.Axioms, fr.Axioms...)
		for _, msg := range fr.Errors {
			f.Errors = append(f.Errors, FlatError{File: fr.File, Message: msg})
		}
	}

	f.Statistics.AxiomsExtracted = len(f.Axioms)
	f.Statistics.ErrorsEncountered = len(f.Errors)
	for _, ax := range f.Axioms {
		f.Statistics.ByType[string(ax.AxiomType)]++
		f.Statistics.BySource[string(ax.SourceType)]++
	}
	return f
}

// Encode writes v as deterministic JSON followed by a newline.
func Encode(w io.Writer, v interface{}, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = output.DeterministicEncodeIndented(v, "  ")
	} else {
		data, err = output.DeterministicEncode(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Destination opens the output stream. An empty path or "-" selects
// stdout. Compression applies when asked for or when the path carries
// a .zst suffix.
func Destination(path string, compress bool) (io.WriteCloser, error) {
	if strings.HasSuffix(path, zstExt) {
		compress = true
	}

	var sink io.WriteCloser
	switch path {
	case "", "-":
		sink = nopCloser{os.Stdout}
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		sink = f
	}

	if !compress {
		return sink, nil
	}
	enc, err := zstd.NewWriter(sink)
	if err != nil {
		sink.Close()
		return nil, fmt.Errorf("failed to initialize zstd writer: %w", err)
	}
	return &compressedSink{enc: enc, under: sink}, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// compressedSink closes the encoder before the file so the zstd frame
// is flushed ahead of the underlying close.
type compressedSink struct {
	enc   *zstd.Encoder
	under io.WriteCloser
}

func (c *compressedSink) Write(p []byte) (int, error) { return c.enc.Write(p) }

func (c *compressedSink) Close() error {
	if err := c.enc.Close(); err != nil {
		c.under.Close()
		return err
	}
	return c.under.Close()
}
