// Package callgraph records the calls a function body makes: direct
// calls, member calls, explicit operator calls, and non-default
// constructor invocations. Callees are resolved against same-file
// function facts when possible; unresolved callees keep their spelled
// name and carry no signature.
package callgraph

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
	"axe/internal/cpp"
)

const maxArgLen = 100

// Extract collects every call made inside one function body. A nil body
// yields nothing.
func Extract(f *cpp.File, rec cpp.FunctionRecord, facts *cpp.Facts) []axiom.FunctionCall {
	if rec.Body == nil {
		return nil
	}
	e := &extractor{f: f, facts: facts, caller: rec.Info.Name}
	if facts != nil {
		e.byQualified = make(map[string]*cpp.FunctionRecord)
		e.byBare = make(map[string]*cpp.FunctionRecord)
		for i := range facts.Functions {
			r := &facts.Functions[i]
			if _, ok := e.byQualified[r.Info.Name]; !ok {
				e.byQualified[r.Info.Name] = r
			}
			// First record wins for overload sets; resolution is a
			// naming aid, not overload selection.
			b := bareName(r.Info.Name)
			if _, ok := e.byBare[b]; !ok {
				e.byBare[b] = r
			}
		}
	}
	e.walk(rec.Body)
	return e.calls
}

type extractor struct {
	f           *cpp.File
	facts       *cpp.Facts
	caller      string
	byQualified map[string]*cpp.FunctionRecord
	byBare      map[string]*cpp.FunctionRecord
	calls       []axiom.FunctionCall
}

func (e *extractor) walk(n *sitter.Node) {
	switch n.Type() {
	case "call_expression":
		e.checkCall(n)
	case "new_expression":
		e.checkNew(n)
	case "declaration":
		e.checkDeclaration(n)
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		e.walk(n.Child(int(i)))
	}
}

func (e *extractor) record(callee, signature string, line int, args []string, virtual bool) {
	e.calls = append(e.calls, axiom.FunctionCall{
		Caller:          e.caller,
		Callee:          callee,
		CalleeSignature: signature,
		Line:            line,
		Arguments:       args,
		IsVirtual:       virtual,
	})
}

func (e *extractor) checkCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	line := cpp.Line(n)
	args := e.arguments(n.ChildByFieldName("arguments"))

	switch fn.Type() {
	case "identifier", "qualified_identifier":
		callee := e.f.Text(fn)
		if cpp.IsNamedCast(callee) {
			return
		}
		if rec := e.resolve(callee); rec != nil {
			// Implicit this-> calls spell as bare identifiers; the
			// resolved record knows whether dispatch is virtual.
			e.record(rec.Info.Name, e.signature(rec), line, args, rec.Info.IsVirtual)
			return
		}
		e.record(callee, "", line, args, false)

	case "template_function":
		full := e.f.Text(fn)
		if cpp.IsNamedCast(full) {
			return
		}
		callee := full
		if name := fn.ChildByFieldName("name"); name != nil {
			callee = e.f.Text(name)
		}
		if rec := e.resolve(callee); rec != nil {
			e.record(rec.Info.Name, e.signature(rec), line, args, rec.Info.IsVirtual)
			return
		}
		e.record(callee, "", line, args, false)

	case "field_expression":
		method := memberName(e.f, fn)
		if method == "" {
			return
		}
		if rec := e.resolve(method); rec != nil {
			e.record(rec.Info.Name, e.signature(rec), line, args, rec.Info.IsVirtual)
			return
		}
		virtual := e.facts != nil && e.facts.IsVirtualMethod(method)
		e.record(method, "", line, args, virtual)
	}
}

// checkNew records heap constructor calls. Zero-argument news are default
// construction and stay out of the graph.
func (e *extractor) checkNew(n *sitter.Node) {
	argList := n.ChildByFieldName("arguments")
	if argList == nil || argList.Type() != "argument_list" {
		return
	}
	args := e.arguments(argList)
	if len(args) == 0 {
		return
	}
	tn := n.ChildByFieldName("type")
	if tn == nil {
		return
	}
	callee := ctorName(e.f.Text(tn))
	sig := ""
	if rec := e.resolveExact(callee); rec != nil {
		sig = e.signature(rec)
	}
	e.record(callee, sig, cpp.Line(n), args, false)
}

// checkDeclaration records stack constructor calls of the Foo f(x) form.
// Only class-shaped types qualify; paren-initialized scalars are not
// constructor calls.
func (e *extractor) checkDeclaration(n *sitter.Node) {
	tn := n.ChildByFieldName("type")
	if tn == nil {
		return
	}
	switch tn.Type() {
	case "type_identifier", "qualified_identifier", "template_type":
	default:
		return
	}
	callee := ctorName(e.f.Text(tn))

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c.Type() != "init_declarator" {
			continue
		}
		value := c.ChildByFieldName("value")
		if value == nil || value.Type() != "argument_list" {
			continue
		}
		args := e.arguments(value)
		if len(args) == 0 {
			continue
		}
		sig := ""
		if rec := e.resolveExact(callee); rec != nil {
			sig = e.signature(rec)
		}
		e.record(callee, sig, cpp.Line(c), args, false)
	}
}

func (e *extractor) arguments(list *sitter.Node) []string {
	if list == nil {
		return nil
	}
	var args []string
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		args = append(args, axiom.Clamp(e.f.Text(c), maxArgLen))
	}
	return args
}

func (e *extractor) resolve(name string) *cpp.FunctionRecord {
	if rec := e.resolveExact(name); rec != nil {
		return rec
	}
	if e.byBare == nil {
		return nil
	}
	return e.byBare[bareName(name)]
}

func (e *extractor) resolveExact(name string) *cpp.FunctionRecord {
	if e.byQualified == nil {
		return nil
	}
	return e.byQualified[name]
}

// signature rebuilds a callee signature from its facts record:
// return type, qualified name, parameter types, and trailing
// const/noexcept qualifiers.
func (e *extractor) signature(rec *cpp.FunctionRecord) string {
	var types []string
	for _, p := range rec.Params {
		types = append(types, paramType(p))
	}
	sig := e.returnType(rec) + " " + rec.Info.Name + "(" + strings.Join(types, ", ") + ")"
	if rec.Info.IsConst {
		sig += " const"
	}
	if rec.Info.IsNoexcept {
		sig += " noexcept"
	}
	return sig
}

// returnType re-spells the declared return type, restoring pointer and
// reference markers that the grammar hangs on the declarator chain.
// Constructors and destructors have no type node and read as void.
func (e *extractor) returnType(rec cpp.FunctionRecord) string {
	base := "void"
	if tn := rec.Node.ChildByFieldName("type"); tn != nil {
		base = e.f.Text(tn)
		for i := uint32(0); i < rec.Node.ChildCount(); i++ {
			c := rec.Node.Child(int(i))
			if c.Type() == "type_qualifier" && e.f.Text(c) == "const" {
				base = "const " + base
				break
			}
		}
	}
	d := rec.Node.ChildByFieldName("declarator")
	for d != nil {
		switch d.Type() {
		case "pointer_declarator":
			base += "*"
			if inner := d.ChildByFieldName("declarator"); inner != nil {
				d = inner
			} else {
				d = cpp.FirstNamed(d)
			}
		case "reference_declarator":
			base += refToken(e.f, d)
			d = cpp.FirstNamed(d)
		default:
			return base
		}
	}
	return base
}

func refToken(f *cpp.File, ref *sitter.Node) string {
	for i := uint32(0); i < ref.ChildCount(); i++ {
		c := ref.Child(int(i))
		if !c.IsNamed() {
			if t := f.Text(c); t == "&" || t == "&&" {
				return t
			}
		}
	}
	return "&"
}

// paramType strips the parameter name from its display text, leaving the
// spelled type with its qualifiers and ref/pointer markers.
func paramType(p cpp.Param) string {
	if p.Name == "" {
		return p.Display
	}
	t := strings.TrimSuffix(p.Display, p.Name)
	if t == p.Display {
		return p.Display
	}
	return strings.TrimSpace(t)
}

// memberName returns the called method's bare name from a member access,
// unwrapping template method spellings like obj.get<int>.
func memberName(f *cpp.File, fe *sitter.Node) string {
	field := fe.ChildByFieldName("field")
	if field == nil {
		return ""
	}
	if field.Type() == "template_method" {
		if name := field.ChildByFieldName("name"); name != nil {
			return f.Text(name)
		}
	}
	return f.Text(field)
}

// ctorName maps a spelled type to its constructor's qualified name:
// ns::Foo becomes ns::Foo::Foo, template arguments dropped.
func ctorName(typeText string) string {
	if i := strings.Index(typeText, "<"); i >= 0 {
		typeText = typeText[:i]
	}
	typeText = strings.TrimSpace(typeText)
	return typeText + "::" + bareName(typeText)
}

func bareName(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}
