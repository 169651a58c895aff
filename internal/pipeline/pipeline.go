// Package pipeline drives extraction over a batch of C++ files: it
// collects the file list, fans the files out to a bounded worker pool,
// runs every enabled analysis per file, and merges the per-file results
// into a single run in input order.
//
// A file that cannot be read or parsed contributes an error entry to its
// own result and never aborts the batch. Workers share nothing: each
// file gets its own parser, and results land in per-index slots so the
// merge is a plain concatenation.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"axe/internal/axiom"
	"axe/internal/callgraph"
	"axe/internal/config"
	"axe/internal/constraints"
	"axe/internal/cpp"
	"axe/internal/effects"
	"axe/internal/emit"
	"axe/internal/errors"
	"axe/internal/hazards"
	"axe/internal/ignore"
	"axe/internal/logging"
	"axe/internal/macros"
	"axe/internal/rules"
	"axe/internal/scipindex"
	"axe/internal/storage"
	"axe/internal/testassert"
)

// Options selects which analyses run and over which files.
type Options struct {
	// Paths are the files and directories named on the command line.
	// Explicitly named files are always processed regardless of
	// extension; directories are scanned for files matching Extensions.
	Paths      []string
	Recursive  bool
	Extensions []string

	Hazards   bool
	CallGraph bool
	Macros    bool

	TestMode      bool
	TestFramework testassert.Framework

	// Jobs bounds the worker pool; 0 means one worker per CPU.
	Jobs int

	Filter      *ignore.Filter
	ProjectRoot string

	Cache *storage.Cache
	Rules *rules.Rules
	Index *scipindex.Index

	ToolVersion string
	Logger      *logging.Logger
}

type pipeline struct {
	opts   Options
	logger *logging.Logger
	runID  string
}

// outcome is one worker's slot: the per-file result plus the call edges
// that join the run-wide graph after all workers finish.
type outcome struct {
	result axiom.ExtractionResult
	calls  []axiom.FunctionCall
}

// Run extracts axioms from every file Options selects and returns the
// merged run. It never fails as a whole: per-file problems are recorded
// in that file's errors, and cache trouble degrades to a warning.
func Run(ctx context.Context, opts Options) emit.Run {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
	}
	p := &pipeline{opts: opts, logger: logger, runID: uuid.NewString()}

	files := collectFiles(opts, logger)
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	logger.Info("starting extraction", map[string]interface{}{
		"run_id":  p.runID,
		"files":   len(files),
		"workers": jobs,
	})

	if opts.Cache != nil {
		if err := opts.Cache.BeginRun(p.runID, opts.ToolVersion); err != nil {
			logger.Warn("cache unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
			p.opts.Cache = nil
		}
	}

	results := make([]outcome, len(files))
	g := new(errgroup.Group)
	g.SetLimit(jobs)
	for i, path := range files {
		g.Go(func() error {
			results[i] = p.processFile(ctx, path)
			return nil
		})
	}
	// Workers report failures through their own result slot.
	_ = g.Wait()

	run := emit.Run{
		RunID:       p.runID,
		ExtractedAt: time.Now().UTC(),
		ProjectRoot: opts.ProjectRoot,
	}
	totalAxioms := 0
	for i := range results {
		res := results[i].result
		res.Axioms = opts.Rules.Apply(res.Axioms)
		totalAxioms += len(res.Axioms)
		run.Files = append(run.Files, res)
		if opts.CallGraph {
			run.CallGraph = append(run.CallGraph, results[i].calls...)
		}
	}
	if opts.Index != nil && len(run.CallGraph) > 0 {
		resolved := opts.Index.Enrich(run.CallGraph)
		logger.Debug("call graph enriched from index", map[string]interface{}{
			"edges":    len(run.CallGraph),
			"resolved": resolved,
		})
	}
	if opts.Filter != nil {
		run.HasFilter = true
		run.IgnoreCount = opts.Filter.PatternCount()
	}
	if opts.TestMode {
		run.TestMode = true
		run.TestFramework = string(opts.TestFramework)
	}

	if p.opts.Cache != nil {
		if err := p.opts.Cache.FinishRun(p.runID, len(run.Files), totalAxioms); err != nil {
			logger.Warn("cache run bookkeeping failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	logger.Info("extraction finished", map[string]interface{}{
		"run_id": p.runID,
		"files":  len(run.Files),
		"axioms": totalAxioms,
	})
	return run
}

// processFile runs every enabled analysis over one file. All failures
// stay inside the returned result.
func (p *pipeline) processFile(ctx context.Context, path string) outcome {
	out := outcome{result: axiom.ExtractionResult{File: path}}

	source, err := os.ReadFile(path)
	if err != nil {
		out.result.Errors = append(out.result.Errors,
			errors.New(errors.FileUnreadable, fmt.Sprintf("cannot read %s", path), err).Error())
		return out
	}

	hash := storage.ContentHash(source)
	if p.opts.Cache != nil {
		rec, hit, err := p.opts.Cache.Lookup(path, hash)
		if err != nil {
			p.logger.Warn("cache lookup failed", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
		} else if hit {
			p.logger.Debug("cache hit", map[string]interface{}{"file": path})
			out.result.Axioms = rec.Axioms
			out.calls = rec.Calls
			return out
		}
	}

	parser := cpp.NewParser()
	f, err := parser.Parse(ctx, path, source)
	if err != nil {
		out.result.Errors = append(out.result.Errors,
			errors.New(errors.ParseFailed, fmt.Sprintf("cannot parse %s", path), err).Error())
		return out
	}
	defer f.Close()

	facts := cpp.ExtractFacts(f)
	var axioms []axiom.Axiom
	for _, rec := range facts.Functions {
		axioms = append(axioms, constraints.Extract(rec.Info)...)
		if p.opts.Hazards {
			hz := hazards.Detect(f, rec.Body)
			if len(hz) > 0 {
				if truncated := hazards.Analyze(f, rec.Body, hz); truncated {
					p.logger.Debug("guard analysis truncated", map[string]interface{}{
						"file":     path,
						"function": rec.Info.Name,
					})
				}
				axioms = append(axioms, hazards.Axioms(rec.Info, hz)...)
			}
		}
		effs := effects.Detect(f, rec, facts)
		axioms = append(axioms, effects.Axioms(rec.Info, effs)...)
		if p.opts.CallGraph {
			out.calls = append(out.calls, callgraph.Extract(f, rec, facts)...)
		}
	}
	for _, c := range facts.Classes {
		axioms = append(axioms, constraints.ClassAxioms(c)...)
	}
	for _, e := range facts.Enums {
		axioms = append(axioms, constraints.EnumAxioms(e)...)
	}
	for _, sa := range facts.StaticAsserts {
		axioms = append(axioms, constraints.StaticAssertAxiom(sa))
	}
	for _, cn := range facts.Concepts {
		axioms = append(axioms, constraints.ConceptAxiom(cn))
	}
	for _, al := range facts.Aliases {
		if ax, ok := constraints.AliasAxiom(al); ok {
			axioms = append(axioms, ax)
		}
	}
	if p.opts.TestMode {
		asserts, fw := testassert.Extract(f, p.opts.TestFramework)
		if len(asserts) > 0 {
			p.logger.Debug("test assertions mined", map[string]interface{}{
				"file":      path,
				"framework": string(fw),
				"asserts":   len(asserts),
			})
		}
		axioms = append(axioms, testassert.Axioms(f, asserts)...)
	}
	// Macro axioms come from the preprocessor scan and always trail the
	// AST-derived axioms for the file.
	if p.opts.Macros {
		for _, m := range facts.Macros {
			axioms = append(axioms, macros.Axioms(m)...)
		}
	}
	out.result.Axioms = axioms

	// Cached axioms are raw: confidence rules apply on the way out, so
	// editing rules never invalidates the cache.
	if p.opts.Cache != nil {
		rec := storage.FileRecord{Path: path, Hash: hash, Axioms: axioms, Calls: out.calls}
		if err := p.opts.Cache.Store(p.runID, rec); err != nil {
			p.logger.Warn("cache store failed", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
		}
	}
	return out
}

// collectFiles expands Options.Paths into the sorted, deduplicated list
// of files to process. Directories are scanned for matching extensions;
// explicitly named files skip the extension check. The ignore filter
// applies to both. Paths that cannot be scanned are skipped with a
// warning rather than failing the run.
func collectFiles(opts Options, logger *logging.Logger) []string {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		clean := filepath.Clean(path)
		if _, dup := seen[clean]; dup {
			return
		}
		if ignored(opts, clean) {
			return
		}
		seen[clean] = struct{}{}
		files = append(files, clean)
	}

	for _, path := range opts.Paths {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if err := scanDir(opts, path, add); err != nil {
				logger.Warn("skipping unreadable directory", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
			}
			continue
		}
		// Explicit files are taken as-is; a missing one surfaces as a
		// read error in its own result instead of vanishing here.
		add(path)
	}
	sort.Strings(files)
	return files
}

func scanDir(opts Options, dir string, add func(string)) error {
	if !opts.Recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if matchesExtension(opts.Extensions, name) {
				add(filepath.Join(dir, name))
			}
		}
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !matchesExtension(opts.Extensions, d.Name()) {
			return nil
		}
		add(path)
		return nil
	})
}

// matchesExtension is a case-sensitive extension check against the
// configured set, falling back to config.DefaultExtensions.
func matchesExtension(extensions []string, name string) bool {
	if len(extensions) == 0 {
		extensions = config.DefaultExtensions
	}
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func ignored(opts Options, path string) bool {
	if opts.Filter == nil {
		return false
	}
	rel := ignore.Rel(path, opts.ProjectRoot)
	if opts.TestMode {
		return opts.Filter.ShouldIgnoreInTestMode(rel)
	}
	return opts.Filter.ShouldIgnore(rel)
}
