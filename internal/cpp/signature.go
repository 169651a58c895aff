package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
)

const maxSignatureLen = 200

// buildSignature renders a normalized one-line signature from the parsed
// declaration: specifiers, return type, qualified name, parameter list, and
// trailing qualifiers, in a fixed order so the same declaration always
// produces the same string.
func buildSignature(f *File, n *sitter.Node, fd *sitter.Node, info axiom.FunctionInfo, params []Param) string {
	outerDecl := n.ChildByFieldName("declarator")
	if outerDecl == nil {
		outerDecl = fd
	}
	pre := string(f.Source[n.StartByte():outerDecl.StartByte()])

	var parts []string
	switch {
	case hasWord(pre, "static"):
		parts = append(parts, "static")
	case hasWord(pre, "extern"):
		parts = append(parts, "extern")
	}
	if hasWord(pre, "inline") {
		parts = append(parts, "inline")
	}
	if hasWord(pre, "virtual") {
		parts = append(parts, "virtual")
	}
	if hasWord(pre, "explicit") {
		parts = append(parts, "explicit")
	}
	if info.IsConsteval {
		parts = append(parts, "consteval")
	} else if info.IsConstexpr {
		parts = append(parts, "constexpr")
	}

	if ret := returnType(f, n, outerDecl, fd); ret != "" {
		parts = append(parts, ret)
	}

	displays := make([]string, 0, len(params))
	for _, p := range params {
		displays = append(displays, p.Display)
	}
	parts = append(parts, info.Name+"("+strings.Join(displays, ", ")+")")

	for _, c := range directChildren(fd) {
		switch c.Type() {
		case "type_qualifier", "ref_qualifier", "noexcept":
			parts = append(parts, normalizeWS(f.Text(c)))
		case "trailing_return_type":
			parts = append(parts, normalizeWS(f.Text(c)))
		}
	}

	sig := strings.Join(parts, " ")
	switch {
	case info.IsDeleted:
		sig += " = delete"
	case info.IsDefaulted:
		sig += " = default"
	}
	if len(sig) > maxSignatureLen {
		sig = sig[:maxSignatureLen] + "..."
	}
	return sig
}

// returnType renders the declared return type, folding pointer and
// reference declarator wrappers back onto the type text. Constructors and
// destructors have none.
func returnType(f *File, n, outerDecl, fd *sitter.Node) string {
	tn := n.ChildByFieldName("type")
	if tn == nil {
		return ""
	}
	ret := normalizeWS(f.Text(tn))
	for d := outerDecl; d != nil && d != fd; {
		switch d.Type() {
		case "pointer_declarator":
			ret += "*"
		case "reference_declarator":
			if strings.HasPrefix(f.Text(d), "&&") {
				ret += "&&"
			} else {
				ret += "&"
			}
		}
		next := d.ChildByFieldName("declarator")
		if next == nil {
			next = FirstNamed(d)
		}
		if next == d {
			break
		}
		d = next
	}
	return ret
}

func normalizeWS(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
