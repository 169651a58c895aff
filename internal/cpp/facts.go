package cpp

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
)

// Param is one declared function parameter.
type Param struct {
	Name      string
	Type      string
	Display   string // normalized "type name" text used in signatures
	IsConst   bool
	IsRef     bool
	IsPointer bool
}

// FunctionRecord pairs the extracted facts about a function with the syntax
// nodes downstream analyses need. Body is nil for deleted and defaulted
// functions.
type FunctionRecord struct {
	Info       axiom.FunctionInfo
	Params     []Param
	Node       *sitter.Node
	Declarator *sitter.Node
	Body       *sitter.Node
}

// Facts is everything recovered from one parsed file.
type Facts struct {
	Functions     []FunctionRecord
	Classes       []axiom.ClassInfo
	Enums         []axiom.EnumInfo
	StaticAsserts []axiom.StaticAssertInfo
	Concepts      []axiom.ConceptInfo
	Aliases       []axiom.AliasInfo
	Macros        []axiom.MacroInfo

	// virtualMethods maps bare method names declared virtual somewhere in
	// this file. Used to mark dynamic dispatch on calls and out-of-class
	// definitions.
	virtualMethods map[string]bool
}

// IsVirtualMethod reports whether a bare method name was declared virtual
// anywhere in the file.
func (fs *Facts) IsVirtualMethod(name string) bool {
	return fs.virtualMethods[name]
}

var (
	deletedRe   = regexp.MustCompile(`=\s*delete\b`)
	defaultedRe = regexp.MustCompile(`=\s*default\b`)
	pureRe      = regexp.MustCompile(`=\s*0\s*;?\s*$`)
	wordRe      = regexp.MustCompile(`[A-Za-z_][A-Za-z_0-9]*`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// ExtractFacts walks a parsed file and collects declaration-level facts.
func ExtractFacts(f *File) *Facts {
	facts := &Facts{virtualMethods: make(map[string]bool)}

	for _, fn := range FindAll(f.Root, "function_definition") {
		rec, ok := buildFunctionRecord(f, fn)
		if !ok {
			continue
		}
		facts.Functions = append(facts.Functions, rec)
	}

	// Deleted and defaulted special members are declarations, not
	// definitions, so they need their own pass.
	for _, decl := range FindAll(f.Root, "declaration", "field_declaration") {
		if findFirst(decl, "function_declarator") == nil {
			continue
		}
		text := f.Text(decl)
		if !deletedRe.MatchString(text) && !defaultedRe.MatchString(text) {
			continue
		}
		rec, ok := buildFunctionRecord(f, decl)
		if !ok {
			continue
		}
		facts.Functions = append(facts.Functions, rec)
	}

	for _, cls := range FindAll(f.Root, "class_specifier", "struct_specifier") {
		info, ok := extractClass(f, cls, facts)
		if !ok {
			continue
		}
		facts.Classes = append(facts.Classes, info)
	}

	for _, en := range FindAll(f.Root, "enum_specifier") {
		info, ok := extractEnum(f, en)
		if !ok {
			continue
		}
		facts.Enums = append(facts.Enums, info)
	}

	for _, sa := range FindAll(f.Root, "static_assert_declaration") {
		facts.StaticAsserts = append(facts.StaticAsserts, extractStaticAssert(f, sa))
	}

	for _, cd := range FindAll(f.Root, "concept_definition") {
		info, ok := extractConcept(f, cd)
		if !ok {
			continue
		}
		facts.Concepts = append(facts.Concepts, info)
	}

	for _, ad := range FindAll(f.Root, "alias_declaration") {
		info, ok := extractAlias(f, ad)
		if !ok {
			continue
		}
		facts.Aliases = append(facts.Aliases, info)
	}

	for _, m := range FindAll(f.Root, "preproc_def", "preproc_function_def") {
		info, ok := extractMacro(f, m)
		if !ok {
			continue
		}
		facts.Macros = append(facts.Macros, info)
	}

	// Out-of-class definitions do not repeat the virtual keyword; resolve
	// them against the in-class declarations seen above.
	for i := range facts.Functions {
		if facts.Functions[i].Info.IsVirtual {
			continue
		}
		if facts.virtualMethods[bareName(facts.Functions[i].Info.Name)] {
			facts.Functions[i].Info.IsVirtual = true
		}
	}

	return facts
}

func buildFunctionRecord(f *File, n *sitter.Node) (FunctionRecord, bool) {
	fd := findFirst(n, "function_declarator")
	if fd == nil {
		return FunctionRecord{}, false
	}

	name := declaratorName(f, fd)
	if name == "" {
		return FunctionRecord{}, false
	}
	qualified := qualifyName(f, n, name)

	outerDecl := n.ChildByFieldName("declarator")
	if outerDecl == nil {
		outerDecl = fd
	}
	preText := string(f.Source[n.StartByte():outerDecl.StartByte()])

	info := axiom.FunctionInfo{
		Name:         qualified,
		Header:       f.Path,
		Line:         Line(n),
		EndLine:      EndLine(n),
		IsNodiscard:  strings.Contains(preText, "nodiscard"),
		IsDeprecated: strings.Contains(preText, "deprecated"),
		IsConstexpr:  hasWord(preText, "constexpr"),
		IsConsteval:  hasWord(preText, "consteval"),
		IsVirtual:    hasWord(preText, "virtual"),
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		tail := string(f.Source[fd.EndByte():n.EndByte()])
		info.IsDeleted = deletedRe.MatchString(tail)
		info.IsDefaulted = defaultedRe.MatchString(tail)
		if !info.IsDeleted && !info.IsDefaulted {
			// Plain prototype: only definitions and explicitly
			// deleted/defaulted declarations become records.
			return FunctionRecord{}, false
		}
	}

	// Trailing qualifiers and the exception specification live directly on
	// the function_declarator; a deep search would pick up qualifiers from
	// function-pointer parameters.
	var noexceptNode *sitter.Node
	for _, c := range directChildren(fd) {
		switch c.Type() {
		case "type_qualifier":
			if f.Text(c) == "const" {
				info.IsConst = true
			}
		case "noexcept":
			noexceptNode = c
		}
	}
	if noexceptNode != nil {
		expr := FirstNamed(noexceptNode)
		info.IsNoexcept = expr == nil || strings.TrimSpace(f.Text(expr)) != "false"
	}

	if req := requiresClause(f, n); req != "" {
		info.RequiresText = req
	}

	if tmpl := enclosingTemplate(n); tmpl != nil {
		info.IsTemplate = true
		info.TemplateArity, info.IsVariadic = templateParams(f, tmpl)
	}

	params := extractParams(f, fd)
	info.Signature = buildSignature(f, n, fd, info, params)

	return FunctionRecord{
		Info:       info,
		Params:     params,
		Node:       n,
		Declarator: fd,
		Body:       body,
	}, true
}

// declaratorName returns the declared name from a function_declarator:
// identifiers, qualified names, operator names, and destructor names.
func declaratorName(f *File, fd *sitter.Node) string {
	decl := fd.ChildByFieldName("declarator")
	if decl == nil {
		return ""
	}
	switch decl.Type() {
	case "identifier", "field_identifier", "qualified_identifier",
		"operator_name", "destructor_name", "template_function":
		return f.Text(decl)
	case "parenthesized_declarator":
		if inner := findFirst(decl, "identifier", "field_identifier", "qualified_identifier"); inner != nil {
			return f.Text(inner)
		}
	}
	return f.Text(decl)
}

// qualifyName prefixes a declared name with the enclosing namespace and
// class scope. Names already qualified (out-of-class definitions) only get
// the namespace prefix.
func qualifyName(f *File, n *sitter.Node, name string) string {
	var scopes []string
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_specifier", "struct_specifier":
			if strings.Contains(name, "::") {
				continue
			}
			if nn := p.ChildByFieldName("name"); nn != nil {
				scopes = append(scopes, f.Text(nn))
			}
		case "namespace_definition":
			if nn := p.ChildByFieldName("name"); nn != nil {
				scopes = append(scopes, f.Text(nn))
			}
		}
	}
	for _, s := range scopes {
		name = s + "::" + name
	}
	return name
}

func bareName(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}

// requiresClause returns the constraint text of a requires clause attached
// to the function or its template head, without the leading keyword.
func requiresClause(f *File, n *sitter.Node) string {
	nodes := directChildren(n)
	if tmpl := enclosingTemplate(n); tmpl != nil {
		nodes = append(nodes, directChildren(tmpl)...)
	}
	for _, c := range nodes {
		if c.Type() == "requires_clause" {
			text := strings.TrimSpace(strings.TrimPrefix(f.Text(c), "requires"))
			return spaceRe.ReplaceAllString(text, " ")
		}
	}
	return ""
}

// enclosingTemplate finds the template_declaration a function belongs to,
// either directly or through its enclosing class template.
func enclosingTemplate(n *sitter.Node) *sitter.Node {
	return ancestorOfType(n, "template_declaration")
}

// templateParams counts declared template parameters and reports whether
// any is a parameter pack.
func templateParams(f *File, tmpl *sitter.Node) (arity int, variadic bool) {
	list := tmpl.ChildByFieldName("parameters")
	if list == nil {
		list = findFirst(tmpl, "template_parameter_list")
	}
	if list == nil {
		return 0, false
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		if c.Type() == "comment" {
			continue
		}
		arity++
		if strings.HasPrefix(c.Type(), "variadic") || strings.Contains(f.Text(c), "...") {
			variadic = true
		}
	}
	return arity, variadic
}

func extractParams(f *File, fd *sitter.Node) []Param {
	list := fd.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		switch c.Type() {
		case "parameter_declaration", "optional_parameter_declaration",
			"variadic_parameter_declaration":
		case "variadic_declarator":
			params = append(params, Param{Display: "..."})
			continue
		default:
			continue
		}

		p := Param{}
		if tn := c.ChildByFieldName("type"); tn != nil {
			p.Type = f.Text(tn)
		}
		for _, q := range directChildren(c) {
			if q.Type() == "type_qualifier" && f.Text(q) == "const" {
				p.IsConst = true
			}
		}
		decl := c.ChildByFieldName("declarator")
		for d := decl; d != nil; {
			switch d.Type() {
			case "reference_declarator", "abstract_reference_declarator":
				p.IsRef = true
				d = FirstNamed(d)
			case "pointer_declarator", "abstract_pointer_declarator":
				p.IsPointer = true
				d = FirstNamed(d)
			case "identifier":
				p.Name = f.Text(d)
				d = nil
			case "variadic_declarator":
				if inner := FirstNamed(d); inner != nil {
					p.Name = f.Text(inner)
				}
				d = nil
			default:
				d = nil
			}
		}

		display := f.Text(c)
		if eq := strings.Index(display, "="); eq >= 0 {
			display = display[:eq]
		}
		p.Display = strings.TrimSpace(spaceRe.ReplaceAllString(display, " "))
		params = append(params, p)
	}
	return params
}

func hasWord(s, w string) bool {
	for _, m := range wordRe.FindAllString(s, -1) {
		if m == w {
			return true
		}
	}
	return false
}
