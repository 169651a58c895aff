// Package scipindex resolves call-graph callees across translation
// units using a SCIP protobuf index. The per-file resolver in callgraph
// only sees one file at a time; a scip-clang index knows where every
// function is defined, so edges into other files gain a definition path
// and calls into indexed dependencies are marked external.
package scipindex

import (
	"fmt"
	"os"
	"strings"

	"axe/internal/axiom"
	"axe/internal/errors"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
)

// Definition is one function definition site recorded by the index.
type Definition struct {
	// Symbol is the raw SCIP symbol string.
	Symbol string

	// Path is the defining document, relative to the indexed project root.
	Path string
}

// Index is a loaded SCIP index reduced to a function-name lookup table.
type Index struct {
	// Path the index was loaded from.
	Path string

	byQualified map[string]Definition
	byBare      map[string]Definition
	externals   map[string]struct{}
	documents   int
}

// Load reads and decodes a SCIP index. A missing file is INDEX_MISSING
// and an undecodable one INDEX_INVALID; callers that received no
// --scip-index flag should skip enrichment instead of calling Load.
func Load(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.New(errors.IndexMissing,
			fmt.Sprintf("SCIP index not found at %s", path), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.IndexInvalid,
			fmt.Sprintf("failed to read SCIP index %s", path), err)
	}

	var raw scippb.Index
	if err := proto.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(errors.IndexInvalid,
			fmt.Sprintf("failed to decode SCIP index %s", path), err)
	}

	ix := &Index{
		Path:        path,
		byQualified: make(map[string]Definition),
		byBare:      make(map[string]Definition),
		externals:   make(map[string]struct{}),
	}

	for _, doc := range raw.Documents {
		ix.documents++
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) == 0 {
				continue
			}
			ix.record(occ.Symbol, doc.RelativePath)
		}
	}

	// External symbols that never resolve locally mark calls out of the
	// indexed project. Locals registered above take precedence.
	for _, sym := range raw.ExternalSymbols {
		qualified, bare, ok := symbolName(sym.Symbol)
		if !ok {
			continue
		}
		if _, local := ix.byQualified[qualified]; !local {
			ix.externals[qualified] = struct{}{}
		}
		if _, local := ix.byBare[bare]; !local {
			ix.externals[bare] = struct{}{}
		}
	}

	return ix, nil
}

// Documents reports how many documents the index covers.
func (ix *Index) Documents() int { return ix.documents }

// Functions reports how many distinct qualified functions were recorded.
func (ix *Index) Functions() int { return len(ix.byQualified) }

// Resolve looks a callee name up, qualified form first.
func (ix *Index) Resolve(name string) (Definition, bool) {
	if def, ok := ix.byQualified[name]; ok {
		return def, true
	}
	if def, ok := ix.byBare[name]; ok {
		return def, true
	}
	return Definition{}, false
}

// Enrich fills callee definition paths on the edges the index resolves
// and flags callees known only as external symbols. Unresolved callees
// are left untouched. Returns the number of edges that gained a path.
func (ix *Index) Enrich(calls []axiom.FunctionCall) int {
	resolved := 0
	for i := range calls {
		call := &calls[i]
		if def, ok := ix.Resolve(call.Callee); ok {
			call.CalleePath = def.Path
			resolved++
			continue
		}
		if _, ok := ix.externals[call.Callee]; ok {
			call.IsExternal = true
		}
	}
	return resolved
}

func (ix *Index) record(symbol, docPath string) {
	qualified, bare, ok := symbolName(symbol)
	if !ok {
		return
	}
	def := Definition{Symbol: symbol, Path: docPath}
	// First definition wins, matching the per-file resolver.
	if _, dup := ix.byQualified[qualified]; !dup {
		ix.byQualified[qualified] = def
	}
	if _, dup := ix.byBare[bare]; !dup {
		ix.byBare[bare] = def
	}
}

// symbolName converts a SCIP method symbol into C++ spelling.
// "cxx . acme 1.0 util/Ring#at(d4f7)." becomes ("util::Ring::at", "at").
// Non-method symbols (types, fields, locals) report ok=false.
func symbolName(symbol string) (qualified, bare string, ok bool) {
	if strings.HasPrefix(symbol, "local ") {
		return "", "", false
	}

	// scheme manager package version descriptor
	parts := strings.SplitN(symbol, " ", 5)
	if len(parts) < 5 {
		return "", "", false
	}
	desc := parts[4]

	// Method descriptors end with "(disambiguator)." per the SCIP grammar.
	if !strings.HasSuffix(desc, ").") {
		return "", "", false
	}
	desc = strings.TrimSuffix(desc, ".")
	if i := strings.LastIndex(desc, "("); i >= 0 {
		desc = desc[:i]
	}

	// Backticks quote names with special characters (~Ring, operator()).
	desc = strings.ReplaceAll(desc, "`", "")

	segments := strings.FieldsFunc(desc, func(r rune) bool {
		return r == '/' || r == '#' || r == '.'
	})
	if len(segments) == 0 {
		return "", "", false
	}
	return strings.Join(segments, "::"), segments[len(segments)-1], true
}
