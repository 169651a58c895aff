// Package cpp is the C++ frontend for the extraction pipeline. It wraps
// tree-sitter parsing and recovers per-declaration fact records from the
// syntax tree: functions with their contract-bearing attributes, classes,
// enums, static assertions, concepts, type aliases, and macro definitions.
package cpp

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// Parser wraps a tree-sitter parser configured for C++.
// A Parser is not safe for concurrent use; create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new C++ parser.
func NewParser() *Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	return &Parser{parser: parser}
}

// File is one parsed translation unit.
type File struct {
	Path   string
	Source []byte
	Root   *sitter.Node

	tree *sitter.Tree
}

// Parse parses source bytes into a File. Partial trees with error nodes
// are returned as-is: extraction works on whatever parsed.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tree == nil || tree.RootNode() == nil {
		return nil, fmt.Errorf("parse %s: no syntax tree produced", path)
	}

	return &File{
		Path:   path,
		Source: source,
		Root:   tree.RootNode(),
		tree:   tree,
	}, nil
}

// ParseFile reads and parses a file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path, source)
}

// Close releases the parse tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
	}
}

// Text returns the source text of a node.
func (f *File) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(f.Source[n.StartByte():n.EndByte()])
}
