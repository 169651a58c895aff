package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Line returns the 1-based line of a node's first byte.
func Line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// EndLine returns the 1-based line of a node's last byte.
func EndLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// FindAll walks the subtree under node and collects every node whose type
// matches one of nodeTypes, in document order.
func FindAll(node *sitter.Node, nodeTypes ...string) []*sitter.Node {
	var results []*sitter.Node

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		for _, t := range nodeTypes {
			if n.Type() == t {
				results = append(results, n)
				break
			}
		}
		for i := uint32(0); i < n.ChildCount(); i++ {
			walk(n.Child(int(i)))
		}
	}

	walk(node)
	return results
}

// findFirst returns the first node of one of the given types in a
// depth-first walk, or nil.
func findFirst(node *sitter.Node, nodeTypes ...string) *sitter.Node {
	var found *sitter.Node

	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n == nil {
			return false
		}
		for _, t := range nodeTypes {
			if n.Type() == t {
				found = n
				return true
			}
		}
		for i := uint32(0); i < n.ChildCount(); i++ {
			if walk(n.Child(int(i))) {
				return true
			}
		}
		return false
	}

	walk(node)
	return found
}

// directChildren returns all direct children of a node, named and anonymous.
func directChildren(n *sitter.Node) []*sitter.Node {
	children := make([]*sitter.Node, 0, n.ChildCount())
	for i := uint32(0); i < n.ChildCount(); i++ {
		children = append(children, n.Child(int(i)))
	}
	return children
}

// hasAncestor reports whether any ancestor of n has one of the given types.
func hasAncestor(n *sitter.Node, nodeTypes ...string) bool {
	return ancestorOfType(n, nodeTypes...) != nil
}

// ancestorOfType returns the nearest ancestor of n whose type matches one of
// nodeTypes, or nil.
func ancestorOfType(n *sitter.Node, nodeTypes ...string) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		for _, t := range nodeTypes {
			if p.Type() == t {
				return p
			}
		}
	}
	return nil
}

// Unwrap strips parenthesized_expression and condition wrappers so
// guard and hazard matching sees the underlying expression.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "condition_clause":
			inner := FirstNamed(n)
			if inner == nil {
				return n
			}
			n = inner
		default:
			return n
		}
	}
	return n
}

// FirstNamed returns the first named child that is not a comment.
func FirstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// LastNamed returns the last named child that is not a comment.
func LastNamed(n *sitter.Node) *sitter.Node {
	for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
		c := n.NamedChild(i)
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// IsNamedCast reports whether a spelled callee is one of the C++ named
// casts, which the grammar parses as template-shaped calls.
func IsNamedCast(callee string) bool {
	for _, kw := range []string{"static_cast", "dynamic_cast", "const_cast", "reinterpret_cast"} {
		if strings.HasPrefix(callee, kw) {
			return true
		}
	}
	return false
}
