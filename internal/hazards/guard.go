package hazards

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
	"axe/internal/cfg"
	"axe/internal/cpp"
)

// maxGuardBlocks bounds the predecessor search. Ten blocks reaches every
// guard that sits within a handful of nested branches; anything further
// away is reported as not found within the bound.
const maxGuardBlocks = 10

// Analyze runs guard search over every hazard in place and reports
// whether any search hit the block budget before exhausting the reachable
// predecessors.
func Analyze(f *cpp.File, body *sitter.Node, hazards []axiom.Hazard) (truncated bool) {
	if body == nil || len(hazards) == 0 {
		return false
	}
	g := cfg.Build(f, body)
	for i := range hazards {
		guard, trunc := FindGuard(f, g, hazards[i])
		hazards[i].Guard = guard
		truncated = truncated || trunc
	}
	return truncated
}

// FindGuard walks the control-flow graph backward from the hazard's block
// looking for a branch condition that tests the hazardous operand. The
// walk is a breadth-first search over predecessor edges with a shared
// visited set; the nearest matching guard wins. The second result reports
// that the block budget ran out with predecessors still unexplored, so a
// guard further up may have been missed.
func FindGuard(f *cpp.File, g *cfg.Graph, hz axiom.Hazard) (axiom.Guard, bool) {
	start := g.BlockAt(hz.Line)
	if start == nil {
		return axiom.Guard{}, false
	}

	visited := map[*cfg.Block]bool{start: true}
	frontier := []*cfg.Block{start}
	truncated := false

	for len(frontier) > 0 {
		blk := frontier[0]
		frontier = frontier[1:]

		for _, pred := range blk.Preds {
			if pred.Cond != nil && checkCondition(f, pred.Cond, hz) {
				cond := cpp.Unwrap(pred.Cond)
				return axiom.Guard{
					Found:      true,
					Expression: axiom.Clamp(f.Text(cond), maxGuardLen),
					Line:       cpp.Line(cond),
				}, false
			}
			if visited[pred] {
				continue
			}
			if len(visited) >= maxGuardBlocks {
				truncated = true
				continue
			}
			visited[pred] = true
			frontier = append(frontier, pred)
		}
	}
	return axiom.Guard{}, truncated
}

// checkCondition decides whether one branch condition guards the hazard.
// Matching is textual: the condition's operand side and the hazard operand
// must contain one another. A negated condition (!ptr) deliberately does
// not count — the false branch is the guarded one, and this analysis does
// not track which branch the hazard sits on.
func checkCondition(f *cpp.File, cond *sitter.Node, hz axiom.Hazard) bool {
	cond = cpp.Unwrap(cond)
	if cond == nil {
		return false
	}

	switch cond.Type() {
	case "binary_expression":
		op := binaryOperator(cond)
		lhs := cond.ChildByFieldName("left")
		rhs := cond.ChildByFieldName("right")
		if lhs == nil || rhs == nil {
			return false
		}
		lhsText := f.Text(lhs)
		rhsText := f.Text(rhs)

		switch hz.Kind {
		case axiom.HazardPointerDeref:
			if op == "!=" {
				if isNullLiteral(f, rhs) && operandMatches(lhsText, hz.Operand) {
					return true
				}
				if isNullLiteral(f, lhs) && operandMatches(rhsText, hz.Operand) {
					return true
				}
			}
		case axiom.HazardDivision:
			if op == "!=" {
				if isZeroLiteral(f, rhs) && operandMatches(lhsText, hz.Operand) {
					return true
				}
				if isZeroLiteral(f, lhs) && operandMatches(rhsText, hz.Operand) {
					return true
				}
			}
		case axiom.HazardArrayAccess:
			if (op == "<" || op == "<=") && operandMatches(lhsText, hz.Operand) {
				return true
			}
			if (op == ">" || op == ">=") && operandMatches(rhsText, hz.Operand) {
				return true
			}
		}

		// A conjunction guards if either conjunct does.
		if op == "&&" {
			return checkCondition(f, lhs, hz) || checkCondition(f, rhs, hz)
		}
		return false

	case "unary_expression":
		return false

	default:
		// Bare pointer used as a boolean: if (ptr) { *ptr... }
		if hz.Kind == axiom.HazardPointerDeref {
			return operandMatches(f.Text(cond), hz.Operand)
		}
		return false
	}
}

func binaryOperator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if !c.IsNamed() {
			return c.Type()
		}
	}
	return ""
}

// operandMatches reports whether the condition side mentions the hazard
// operand: "ptr->next != nullptr" matches operand "ptr->next", and
// "idx < size" matches operand "idx".
func operandMatches(text, operand string) bool {
	if text == "" || operand == "" {
		return false
	}
	return strings.Contains(text, operand)
}

func isNullLiteral(f *cpp.File, n *sitter.Node) bool {
	n = cpp.Unwrap(n)
	text := f.Text(n)
	if text == "nullptr" || text == "NULL" {
		return true
	}
	if n.Type() == "number_literal" {
		v, ok := integerValue(text)
		return ok && v == 0
	}
	return false
}

func isZeroLiteral(f *cpp.File, n *sitter.Node) bool {
	n = cpp.Unwrap(n)
	if n.Type() != "number_literal" {
		return false
	}
	text := f.Text(n)
	if v, ok := integerValue(text); ok {
		return v == 0
	}
	// Float zero also counts as a divisor guard: x != 0.0.
	s := strings.TrimRight(strings.ReplaceAll(text, "'", ""), "fFlL")
	for _, r := range s {
		if r >= '1' && r <= '9' {
			return false
		}
	}
	return s != ""
}
