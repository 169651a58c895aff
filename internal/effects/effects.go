// Package effects detects side effects in function bodies: parameter
// mutation, member writes, heap allocation and release, container
// mutation, and per-callee call frequencies. Detection is syntactic and
// single-file; calls are keyed by their spelled callee text.
package effects

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
	"axe/internal/cpp"
)

// containerMutators are the method names treated as container writes.
var containerMutators = map[string]bool{
	"push_back": true, "push_front": true, "pop_back": true, "pop_front": true,
	"insert": true, "emplace": true, "emplace_back": true, "emplace_front": true,
	"erase": true, "clear": true, "resize": true, "reserve": true,
	"assign": true, "swap": true, "append": true, "replace": true,
}

const maxExprLen = 100

// Detect analyses one function body for side effects. Facts, when
// available, decide whether the function is a method of a class seen in
// this file, which enables implicit member-write detection. A nil body
// yields nothing.
func Detect(f *cpp.File, rec cpp.FunctionRecord, facts *cpp.Facts) []axiom.SideEffect {
	if rec.Body == nil {
		return nil
	}

	d := &detector{
		f:           f,
		isMethod:    methodOf(rec.Info.Name, facts),
		constMethod: rec.Info.IsConst,
		params:      make(map[string]bool),
		refParams:   make(map[string]bool),
		ptrParams:   make(map[string]bool),
		calls:       make(map[string][]callSite),
	}
	for _, p := range rec.Params {
		if p.Name == "" {
			continue
		}
		d.params[p.Name] = true
		if p.IsRef && !p.IsConst {
			d.refParams[p.Name] = true
		}
		if p.IsPointer && !p.IsConst {
			d.ptrParams[p.Name] = true
		}
	}
	d.locals = declaredLocals(f, rec.Body)

	d.walk(rec.Body)
	d.emitCallFrequencies()
	return d.effects
}

type callSite struct {
	expression string
	line       int
	cached     bool
}

type detector struct {
	f           *cpp.File
	isMethod    bool
	constMethod bool
	params      map[string]bool
	refParams   map[string]bool
	ptrParams   map[string]bool
	locals      map[string]bool

	effects   []axiom.SideEffect
	calls     map[string][]callSite
	loopLines []int
}

func (d *detector) walk(n *sitter.Node) {
	switch n.Type() {
	case "for_statement", "while_statement", "for_range_loop":
		d.loopLines = append(d.loopLines, cpp.Line(n))
	case "assignment_expression":
		d.checkAssignment(n)
	case "update_expression":
		d.checkUpdate(n)
	case "new_expression":
		d.checkNew(n)
	case "delete_expression":
		d.checkDelete(n)
	case "call_expression":
		d.checkCall(n)
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		d.walk(n.Child(int(i)))
	}
}

func (d *detector) add(kind axiom.EffectKind, target string, expr *sitter.Node, line int, confidence float64) {
	d.effects = append(d.effects, axiom.SideEffect{
		Kind:       kind,
		Target:     target,
		Expression: axiom.Clamp(d.f.Text(expr), maxExprLen),
		Line:       line,
		Confidence: confidence,
	})
}

// checkAssignment handles plain and compound assignment: mutation of a
// non-const reference parameter, a member write, or a store through a
// non-const pointer parameter.
func (d *detector) checkAssignment(n *sitter.Node) {
	lhs := n.ChildByFieldName("left")
	if lhs == nil {
		return
	}
	line := operatorLine(n)
	target := cpp.Unwrap(lhs)

	switch target.Type() {
	case "identifier":
		name := d.f.Text(target)
		if d.refParams[name] {
			d.add(axiom.EffectParamModify, name, n, line, 0.95)
			return
		}
		if d.implicitMember(name) {
			d.add(axiom.EffectMemberWrite, name, n, line, 0.95)
		}
	case "field_expression":
		if member, ok := d.memberOfThis(target); ok {
			d.add(axiom.EffectMemberWrite, member, n, line, 0.95)
		}
	case "pointer_expression":
		if op := target.ChildByFieldName("operator"); op != nil && d.f.Text(op) != "*" {
			return
		}
		sub := cpp.Unwrap(target.ChildByFieldName("argument"))
		if sub != nil && sub.Type() == "identifier" {
			name := d.f.Text(sub)
			if d.ptrParams[name] {
				d.add(axiom.EffectParamModify, "*"+name, n, line, 0.95)
			}
		}
	}
}

// checkUpdate handles ++ and -- in both positions.
func (d *detector) checkUpdate(n *sitter.Node) {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		arg = cpp.FirstNamed(n)
	}
	if arg == nil {
		return
	}
	line := operatorLine(n)
	target := cpp.Unwrap(arg)

	switch target.Type() {
	case "identifier":
		name := d.f.Text(target)
		if d.refParams[name] {
			d.add(axiom.EffectParamModify, name, n, line, 0.95)
			return
		}
		if d.implicitMember(name) {
			d.add(axiom.EffectMemberWrite, name, n, line, 0.95)
		}
	case "field_expression":
		if member, ok := d.memberOfThis(target); ok {
			d.add(axiom.EffectMemberWrite, member, n, line, 0.95)
		}
	}
}

func (d *detector) checkNew(n *sitter.Node) {
	target := "unknown"
	if tn := n.ChildByFieldName("type"); tn != nil {
		target = d.f.Text(tn)
	}
	d.add(axiom.EffectMemoryAlloc, target, n, cpp.Line(n), 0.95)
}

func (d *detector) checkDelete(n *sitter.Node) {
	target := "unknown"
	if arg := cpp.FirstNamed(n); arg != nil {
		target = axiom.Clamp(d.f.Text(arg), maxExprLen)
	}
	d.add(axiom.EffectMemoryFree, target, n, cpp.Line(n), 0.95)
}

// checkCall tracks every call site for frequency aggregation and flags
// allocator, deallocator, and container-mutator calls.
func (d *detector) checkCall(n *sitter.Node) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := d.f.Text(fn)
	if callee == "" || cpp.IsNamedCast(callee) {
		return
	}
	line := cpp.Line(n)

	d.calls[callee] = append(d.calls[callee], callSite{
		expression: axiom.Clamp(d.f.Text(n), maxExprLen),
		line:       line,
		cached:     resultStored(n),
	})

	switch fn.Type() {
	case "field_expression":
		method := ""
		if fieldNode := fn.ChildByFieldName("field"); fieldNode != nil {
			method = d.f.Text(fieldNode)
		}
		if containerMutators[method] {
			object := "unknown"
			if base := fn.ChildByFieldName("argument"); base != nil {
				object = axiom.Clamp(d.f.Text(base), maxExprLen)
			}
			d.add(axiom.EffectContainerModify, object, n, line, 0.90)
		}
	case "identifier", "qualified_identifier":
		switch name := bareCallee(callee); name {
		case "malloc", "calloc", "realloc":
			d.add(axiom.EffectMemoryAlloc, name, n, line, 0.95)
		case "free":
			target := "unknown"
			if args := n.ChildByFieldName("arguments"); args != nil {
				if first := cpp.FirstNamed(args); first != nil {
					target = axiom.Clamp(d.f.Text(first), maxExprLen)
				}
			}
			d.add(axiom.EffectMemoryFree, target, n, line, 0.95)
		}
	}
}

// emitCallFrequencies appends one aggregated effect per callee, in
// sorted callee order so output is deterministic.
func (d *detector) emitCallFrequencies() {
	callees := make([]string, 0, len(d.calls))
	for callee := range d.calls {
		callees = append(callees, callee)
	}
	sort.Strings(callees)

	firstLoop := 0
	for _, l := range d.loopLines {
		if firstLoop == 0 || l < firstLoop {
			firstLoop = l
		}
	}

	for _, callee := range callees {
		sites := d.calls[callee]
		atStart := true
		if firstLoop > 0 {
			for _, s := range sites {
				if s.line >= firstLoop {
					atStart = false
					break
				}
			}
		}
		d.effects = append(d.effects, axiom.SideEffect{
			Kind:          axiom.EffectCallFrequency,
			Target:        callee,
			Expression:    sites[0].expression,
			Line:          sites[0].line,
			Confidence:    0.90,
			CallCount:     len(sites),
			IsCached:      len(sites) == 1 && sites[0].cached,
			OccursAtStart: atStart,
		})
	}
}

// implicitMember decides whether a bare identifier assignment writes a
// member: the function must be a method, not const, and the name must
// be neither a parameter nor a declared local.
func (d *detector) implicitMember(name string) bool {
	return d.isMethod && !d.constMethod && !d.params[name] && !d.locals[name]
}

// memberOfThis matches explicit this->member targets.
func (d *detector) memberOfThis(fe *sitter.Node) (string, bool) {
	if d.constMethod {
		return "", false
	}
	base := cpp.Unwrap(fe.ChildByFieldName("argument"))
	if base == nil || d.f.Text(base) != "this" {
		return "", false
	}
	member := fe.ChildByFieldName("field")
	if member == nil {
		return "", false
	}
	return d.f.Text(member), true
}

// resultStored reports whether a call's value is bound to a variable,
// either by initialization or assignment.
func resultStored(call *sitter.Node) bool {
	p := call.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "init_declarator", "assignment_expression":
		return true
	}
	return false
}

// methodOf reports whether the qualified name's class scope names a
// class seen in this file; without facts it falls back to treating any
// scoped name as a method.
func methodOf(qualified string, facts *cpp.Facts) bool {
	i := strings.LastIndex(qualified, "::")
	if i < 0 {
		return false
	}
	if facts == nil {
		return true
	}
	scope := qualified[:i]
	for _, cls := range facts.Classes {
		if scope == cls.Name || strings.HasSuffix(scope, "::"+cls.Name) {
			return true
		}
	}
	return false
}

// bareCallee strips any scope qualification so std::malloc and malloc
// match the same allocator names.
func bareCallee(callee string) string {
	if i := strings.LastIndex(callee, "::"); i >= 0 {
		return callee[i+2:]
	}
	return callee
}

// declaredLocals collects every variable name declared inside the body.
func declaredLocals(f *cpp.File, body *sitter.Node) map[string]bool {
	locals := make(map[string]bool)
	for _, decl := range cpp.FindAll(body, "declaration") {
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			c := decl.NamedChild(i)
			if c.Type() == "init_declarator" {
				c = c.ChildByFieldName("declarator")
			}
			if name := declaredName(f, c); name != "" {
				locals[name] = true
			}
		}
	}
	// Range-for loop variables are declarations too.
	for _, loop := range cpp.FindAll(body, "for_range_loop") {
		if decl := loop.ChildByFieldName("declarator"); decl != nil {
			if name := declaredName(f, decl); name != "" {
				locals[name] = true
			}
		}
	}
	return locals
}

func declaredName(f *cpp.File, n *sitter.Node) string {
	for n != nil {
		switch n.Type() {
		case "identifier":
			return f.Text(n)
		case "pointer_declarator", "reference_declarator", "array_declarator",
			"init_declarator", "parenthesized_declarator", "structured_binding_declarator":
			n = cpp.FirstNamed(n)
		default:
			return ""
		}
	}
	return ""
}

// operatorLine returns the line of the first anonymous token, which for
// assignment and update expressions is the operator itself.
func operatorLine(n *sitter.Node) int {
	if op := n.ChildByFieldName("operator"); op != nil {
		return cpp.Line(op)
	}
	for i := uint32(0); i < n.ChildCount(); i++ {
		c := n.Child(int(i))
		if !c.IsNamed() {
			return cpp.Line(c)
		}
	}
	return cpp.Line(n)
}
