// Package hazards finds syntactically risky operations in function bodies
// (division, pointer dereference, array subscript, reinterpret_cast) and
// searches the control-flow graph for guards that make them safe. Only
// unguarded hazards surface as precondition axioms.
package hazards

import (
	"errors"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
	"axe/internal/cpp"
)

const (
	maxExprLen  = 100
	maxGuardLen = 200
)

// Detect scans a function body in one traversal and records every hazard
// site. A nil body yields nothing; detection never fails.
func Detect(f *cpp.File, body *sitter.Node) []axiom.Hazard {
	if body == nil {
		return nil
	}
	d := &detector{f: f}
	d.walk(body)
	return d.hazards
}

type detector struct {
	f       *cpp.File
	hazards []axiom.Hazard
}

func (d *detector) walk(n *sitter.Node) {
	switch n.Type() {
	case "binary_expression":
		d.checkDivision(n)
	case "pointer_expression":
		d.checkDeref(n)
	case "field_expression":
		d.checkArrow(n)
	case "subscript_expression":
		d.checkSubscript(n)
	case "call_expression":
		d.checkReinterpretCast(n)
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		d.walk(n.Child(int(i)))
	}
}

func (d *detector) record(kind axiom.HazardKind, expr, operand *sitter.Node, line int) {
	d.hazards = append(d.hazards, axiom.Hazard{
		Kind:       kind,
		Expression: axiom.Clamp(d.f.Text(expr), maxExprLen),
		Operand:    axiom.Clamp(d.f.Text(operand), maxExprLen),
		Line:       line,
	})
}

// checkDivision flags / and % unless the divisor is a non-zero integer
// literal. Float literals are never safe here: 2.0 still produces a
// hazard, matching the literal filter being integer-only.
func (d *detector) checkDivision(n *sitter.Node) {
	op := operatorToken(n, "/", "%")
	if op == nil {
		return
	}
	rhs := n.ChildByFieldName("right")
	if rhs == nil {
		return
	}
	if lit := cpp.Unwrap(rhs); lit.Type() == "number_literal" {
		if v, ok := integerValue(d.f.Text(lit)); ok && v != 0 {
			return
		}
	}
	d.record(axiom.HazardDivision, n, rhs, cpp.Line(op))
}

// checkDeref flags unary * dereference. Dereferencing this is always
// valid inside a member function, so it is skipped.
func (d *detector) checkDeref(n *sitter.Node) {
	if operatorToken(n, "*") == nil {
		return
	}
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		return
	}
	sub := cpp.Unwrap(arg)
	if d.f.Text(sub) == "this" {
		return
	}
	d.record(axiom.HazardPointerDeref, n, sub, cpp.Line(n))
}

// checkArrow flags -> member access as a pointer dereference; plain .
// access is not a hazard.
func (d *detector) checkArrow(n *sitter.Node) {
	op := operatorToken(n, "->")
	if op == nil || op.Type() != "->" {
		return
	}
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		return
	}
	base := cpp.Unwrap(arg)
	if d.f.Text(base) == "this" {
		return
	}
	d.record(axiom.HazardPointerDeref, n, base, cpp.Line(op))
}

// checkSubscript flags every array subscript; constant indices are still
// recorded because the array bound is unknown at this level.
func (d *detector) checkSubscript(n *sitter.Node) {
	idx := n.ChildByFieldName("index")
	if idx == nil {
		idx = n.ChildByFieldName("indices")
	}
	if idx == nil {
		idx = cpp.LastNamed(n)
	}
	if idx == nil {
		return
	}
	line := cpp.Line(n)
	if rb := lastChildOfType(n, "]"); rb != nil {
		line = cpp.Line(rb)
	}
	d.record(axiom.HazardArrayAccess, n, idx, line)
}

// checkReinterpretCast flags reinterpret_cast call forms. The named cast
// parses as a call whose callee is the template-shaped cast keyword.
func (d *detector) checkReinterpretCast(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	if !strings.HasPrefix(d.f.Text(fn), "reinterpret_cast") {
		return
	}
	operand := n
	if args := n.ChildByFieldName("arguments"); args != nil {
		if first := cpp.FirstNamed(args); first != nil {
			operand = first
		}
	}
	d.record(axiom.HazardCast, n, operand, cpp.Line(n))
}

// operatorToken returns the operator child of an expression node, falling
// back to a direct-child scan when the grammar exposes no operator field.
func operatorToken(n *sitter.Node, ops ...string) *sitter.Node {
	if op := n.ChildByFieldName("operator"); op != nil {
		for _, o := range ops {
			if op.Type() == o {
				return op
			}
		}
		return nil
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		for _, o := range ops {
			if c.Type() == o {
				return c
			}
		}
	}
	return nil
}

func lastChildOfType(n *sitter.Node, t string) *sitter.Node {
	for i := int(n.ChildCount()) - 1; i >= 0; i-- {
		if c := n.Child(i); c.Type() == t {
			return c
		}
	}
	return nil
}

// integerValue parses a C++ integer literal, tolerating digit separators
// and size suffixes. Float literals report !ok.
func integerValue(text string) (uint64, bool) {
	s := strings.ReplaceAll(text, "'", "")
	s = strings.TrimRight(s, "uUlLzZ")
	lower := strings.ToLower(s)
	if s == "" || strings.Contains(s, ".") {
		return 0, false
	}
	if !strings.HasPrefix(lower, "0x") && strings.Contains(lower, "e") {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			// Too large for uint64 is still a non-zero integer.
			return 1, true
		}
		return 0, false
	}
	return v, true
}
