// Package cfg builds an approximate intra-function control-flow graph from
// the syntax tree. Blocks carry line spans and the branch condition that
// terminates them; guard analysis walks predecessor edges to find the
// condition that dominates a hazard site.
//
// The graph is branch-insensitive: an if produces one condition block feeding
// both arms, and the search does not distinguish the then-path from the
// else-path. Break, continue, goto, and exception edges are not modeled.
package cfg

import (
	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/cpp"
)

// Span is an inclusive line range covered by one statement.
type Span struct {
	StartLine int
	EndLine   int
}

func (s Span) contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

func (s Span) width() int {
	return s.EndLine - s.StartLine
}

// Block is a straight-line run of statements. Cond, when set, is the branch
// condition evaluated after the block's statements.
type Block struct {
	ID    int
	Spans []Span
	Cond  *sitter.Node
	Preds []*Block
}

func (b *Block) addSpan(start, end int) {
	b.Spans = append(b.Spans, Span{StartLine: start, EndLine: end})
}

// Graph is the control-flow graph of one function body.
type Graph struct {
	Blocks []*Block
	Entry  *Block
}

// BlockAt returns the innermost block covering a line: the block whose
// covering span is narrowest, with later (more deeply nested) blocks winning
// ties. Returns nil when no block covers the line.
func (g *Graph) BlockAt(line int) *Block {
	var (
		best      *Block
		bestWidth = int(^uint(0) >> 1)
	)
	for _, b := range g.Blocks {
		for _, s := range b.Spans {
			if !s.contains(line) {
				continue
			}
			if s.width() <= bestWidth {
				best = b
				bestWidth = s.width()
			}
		}
	}
	return best
}

// Build constructs the graph for a function body. A nil body yields a graph
// with a single empty entry block.
func Build(f *cpp.File, body *sitter.Node) *Graph {
	b := &builder{f: f, g: &Graph{}}
	b.cur = b.newBlock()
	b.g.Entry = b.cur
	if body != nil {
		b.walkInto(body)
	}
	return b.g
}

type builder struct {
	f   *cpp.File
	g   *Graph
	cur *Block
}

func (b *builder) newBlock(preds ...*Block) *Block {
	blk := &Block{ID: len(b.g.Blocks), Preds: preds}
	b.g.Blocks = append(b.g.Blocks, blk)
	return blk
}

// walkInto walks the children of a compound statement, or a single
// statement, extending the current block chain.
func (b *builder) walkInto(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "compound_statement" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.stmt(n.NamedChild(i))
		}
		return
	}
	b.stmt(n)
}

func (b *builder) stmt(n *sitter.Node) {
	switch n.Type() {
	case "comment":
	case "compound_statement":
		b.walkInto(n)
	case "if_statement":
		b.ifStmt(n)
	case "while_statement":
		b.whileStmt(n)
	case "do_statement":
		b.doStmt(n)
	case "for_statement":
		b.forStmt(n)
	case "for_range_loop":
		b.rangeForStmt(n)
	case "switch_statement":
		b.switchStmt(n)
	case "labeled_statement":
		if inner := cpp.LastNamed(n); inner != nil {
			b.stmt(inner)
		}
	case "try_statement":
		// Exception edges are not modeled; the body and every handler
		// extend the current chain.
		b.walkInto(n.ChildByFieldName("body"))
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "catch_clause" {
				b.walkInto(c.ChildByFieldName("body"))
			}
		}
	default:
		b.cur.addSpan(cpp.Line(n), cpp.EndLine(n))
	}
}

func (b *builder) ifStmt(n *sitter.Node) {
	cond := n.ChildByFieldName("condition")
	condBlock := b.cur
	if cond != nil {
		condBlock.addSpan(cpp.Line(cond), cpp.EndLine(cond))
		condBlock.Cond = cond
	}

	thenEntry := b.newBlock(condBlock)
	b.cur = thenEntry
	b.walkInto(n.ChildByFieldName("consequence"))
	thenExit := b.cur

	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		b.cur = b.newBlock(thenExit, condBlock)
		return
	}
	if alt.Type() == "else_clause" {
		if inner := cpp.LastNamed(alt); inner != nil {
			alt = inner
		}
	}
	elseEntry := b.newBlock(condBlock)
	b.cur = elseEntry
	b.walkInto(alt)
	elseExit := b.cur

	b.cur = b.newBlock(thenExit, elseExit)
}

func (b *builder) whileStmt(n *sitter.Node) {
	condBlock := b.newBlock(b.cur)
	if cond := n.ChildByFieldName("condition"); cond != nil {
		condBlock.addSpan(cpp.Line(cond), cpp.EndLine(cond))
		condBlock.Cond = cond
	}

	bodyEntry := b.newBlock(condBlock)
	b.cur = bodyEntry
	b.walkInto(n.ChildByFieldName("body"))
	condBlock.Preds = append(condBlock.Preds, b.cur)

	b.cur = b.newBlock(condBlock)
}

func (b *builder) doStmt(n *sitter.Node) {
	bodyEntry := b.newBlock(b.cur)
	b.cur = bodyEntry
	b.walkInto(n.ChildByFieldName("body"))
	bodyExit := b.cur

	condBlock := b.newBlock(bodyExit)
	if cond := n.ChildByFieldName("condition"); cond != nil {
		condBlock.addSpan(cpp.Line(cond), cpp.EndLine(cond))
		condBlock.Cond = cond
	}
	bodyEntry.Preds = append(bodyEntry.Preds, condBlock)

	b.cur = b.newBlock(condBlock)
}

func (b *builder) forStmt(n *sitter.Node) {
	if init := n.ChildByFieldName("initializer"); init != nil {
		b.cur.addSpan(cpp.Line(init), cpp.EndLine(init))
	}

	condBlock := b.newBlock(b.cur)
	if cond := n.ChildByFieldName("condition"); cond != nil {
		condBlock.addSpan(cpp.Line(cond), cpp.EndLine(cond))
		condBlock.Cond = cond
	}

	bodyEntry := b.newBlock(condBlock)
	b.cur = bodyEntry
	b.walkInto(n.ChildByFieldName("body"))
	if update := n.ChildByFieldName("update"); update != nil {
		b.cur.addSpan(cpp.Line(update), cpp.EndLine(update))
	}
	condBlock.Preds = append(condBlock.Preds, b.cur)

	b.cur = b.newBlock(condBlock)
}

func (b *builder) rangeForStmt(n *sitter.Node) {
	header := b.newBlock(b.cur)
	start := cpp.Line(n)
	if body := n.ChildByFieldName("body"); body != nil {
		header.addSpan(start, cpp.Line(body))
	} else {
		header.addSpan(start, start)
	}

	bodyEntry := b.newBlock(header)
	b.cur = bodyEntry
	b.walkInto(n.ChildByFieldName("body"))
	header.Preds = append(header.Preds, b.cur)

	b.cur = b.newBlock(header)
}

func (b *builder) switchStmt(n *sitter.Node) {
	cond := n.ChildByFieldName("condition")
	condBlock := b.cur
	if cond != nil {
		condBlock.addSpan(cpp.Line(cond), cpp.EndLine(cond))
		condBlock.Cond = cond
	}

	exits := []*Block{condBlock}
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			c := body.NamedChild(i)
			if c.Type() != "case_statement" {
				continue
			}
			entry := b.newBlock(condBlock)
			b.cur = entry
			for j := 0; j < int(c.NamedChildCount()); j++ {
				s := c.NamedChild(j)
				if s == c.ChildByFieldName("value") {
					continue
				}
				b.stmt(s)
			}
			exits = append(exits, b.cur)
		}
	}

	b.cur = b.newBlock(exits...)
}

