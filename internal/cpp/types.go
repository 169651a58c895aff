package cpp

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
)

// trivialMemberTypes are the word-level spellings accepted for members of a
// trivially copyable class, beyond what the grammar already classifies as a
// primitive type.
var trivialMemberTypes = map[string]bool{
	"bool": true, "char": true, "signed": true, "unsigned": true,
	"short": true, "int": true, "long": true, "float": true, "double": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
	"size_t": true, "ssize_t": true, "ptrdiff_t": true,
	"intptr_t": true, "uintptr_t": true,
	"int8_t": true, "int16_t": true, "int32_t": true, "int64_t": true,
	"uint8_t": true, "uint16_t": true, "uint32_t": true, "uint64_t": true,
	"const": true, "volatile": true,
}

func extractClass(f *File, cls *sitter.Node, facts *Facts) (axiom.ClassInfo, bool) {
	body := cls.ChildByFieldName("body")
	nameNode := cls.ChildByFieldName("name")
	if body == nil || nameNode == nil {
		return axiom.ClassInfo{}, false
	}

	info := axiom.ClassInfo{
		Name:   qualifyName(f, cls, f.Text(nameNode)),
		Header: f.Path,
		Line:   Line(cls),
	}

	var (
		hasBase        bool
		hasUserSpecial bool
		allTrivial     = true
	)
	bare := bareName(info.Name)

	for _, c := range directChildren(cls) {
		switch c.Type() {
		case "virtual_specifier":
			if f.Text(c) == "final" {
				info.IsFinal = true
			}
		case "base_class_clause":
			hasBase = true
		}
	}
	// Older grammar revisions expose final as a bare token between the
	// class name and the base clause.
	if !info.IsFinal {
		head := string(f.Source[nameNode.EndByte():body.StartByte()])
		if i := strings.Index(head, ":"); i >= 0 {
			head = head[:i]
		}
		info.IsFinal = hasWord(head, "final")
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		switch m.Type() {
		case "function_definition", "field_declaration", "declaration":
		default:
			continue
		}

		fd := findFirst(m, "function_declarator")
		if fd == nil {
			// Data member.
			if m.Type() != "field_declaration" {
				continue
			}
			pre := memberPrefix(f, m)
			if hasWord(pre, "static") {
				continue
			}
			if !trivialDataMember(f, m) {
				allTrivial = false
			}
			continue
		}

		mName := bareName(declaratorName(f, fd))
		pre := memberPrefix(f, m)
		virtual := hasWord(pre, "virtual")
		if !virtual {
			// Overriders may spell it override or final instead.
			for _, vs := range FindAll(m, "virtual_specifier") {
				if t := f.Text(vs); t == "override" || t == "final" {
					virtual = true
					break
				}
			}
		}
		if virtual {
			facts.virtualMethods[mName] = true
			info.VirtualMethods = append(info.VirtualMethods, mName)
			if strings.HasPrefix(mName, "~") {
				info.HasVirtualDestructor = true
			}
			if pureRe.MatchString(f.Text(m)) {
				info.IsAbstract = true
			}
		}
		if mName == bare || mName == "~"+bare || mName == "operator=" {
			hasUserSpecial = true
		}
	}

	info.IsTriviallyCopyable = !hasBase && !hasUserSpecial && allTrivial &&
		len(info.VirtualMethods) == 0
	return info, true
}

// memberPrefix returns the member text preceding its declarator, where
// virtual/static/constexpr specifiers live.
func memberPrefix(f *File, m *sitter.Node) string {
	end := m.EndByte()
	if decl := m.ChildByFieldName("declarator"); decl != nil {
		end = decl.StartByte()
	} else if tn := m.ChildByFieldName("type"); tn != nil {
		end = tn.StartByte()
	}
	return string(f.Source[m.StartByte():end])
}

// trivialDataMember reports whether a field declaration could belong to a
// trivially copyable class: builtin value types and raw pointers qualify,
// references and class-typed members do not.
func trivialDataMember(f *File, m *sitter.Node) bool {
	if findFirst(m, "reference_declarator") != nil {
		return false
	}
	if findFirst(m, "pointer_declarator") != nil {
		return true
	}
	tn := m.ChildByFieldName("type")
	if tn == nil {
		return false
	}
	switch tn.Type() {
	case "primitive_type", "sized_type_specifier":
		return true
	case "enum_specifier":
		return true
	}
	for _, w := range wordRe.FindAllString(f.Text(tn), -1) {
		if !trivialMemberTypes[w] {
			return false
		}
	}
	return true
}

func extractEnum(f *File, en *sitter.Node) (axiom.EnumInfo, bool) {
	nameNode := en.ChildByFieldName("name")
	if nameNode == nil || en.ChildByFieldName("body") == nil {
		return axiom.EnumInfo{}, false
	}
	info := axiom.EnumInfo{
		Name:   qualifyName(f, en, f.Text(nameNode)),
		Header: f.Path,
		Line:   Line(en),
	}
	for _, c := range directChildren(en) {
		if t := f.Text(c); !c.IsNamed() && (t == "class" || t == "struct") {
			info.IsScoped = true
			break
		}
	}
	return info, true
}

func extractStaticAssert(f *File, sa *sitter.Node) axiom.StaticAssertInfo {
	info := axiom.StaticAssertInfo{
		Header: f.Path,
		Line:   Line(sa),
	}
	cond := sa.ChildByFieldName("condition")
	if cond == nil {
		cond = FirstNamed(sa)
	}
	if cond != nil {
		info.Condition = strings.TrimSpace(f.Text(cond))
	}
	msg := sa.ChildByFieldName("message")
	if msg == nil {
		for i := 0; i < int(sa.NamedChildCount()); i++ {
			c := sa.NamedChild(i)
			if c != cond && strings.Contains(c.Type(), "string") {
				msg = c
				break
			}
		}
	}
	if msg != nil {
		info.Message = trimQuotes(f.Text(msg))
	}
	return info
}

func extractConcept(f *File, cd *sitter.Node) (axiom.ConceptInfo, bool) {
	nameNode := cd.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = findFirst(cd, "identifier")
	}
	if nameNode == nil {
		return axiom.ConceptInfo{}, false
	}
	info := axiom.ConceptInfo{
		Name:   f.Text(nameNode),
		Header: f.Path,
		Line:   Line(cd),
	}
	if n := int(cd.NamedChildCount()); n > 0 {
		expr := cd.NamedChild(n - 1)
		if expr != nameNode {
			info.Expression = strings.TrimSpace(spaceRe.ReplaceAllString(f.Text(expr), " "))
		}
	}
	return info, true
}

func extractAlias(f *File, ad *sitter.Node) (axiom.AliasInfo, bool) {
	nameNode := ad.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = findFirst(ad, "type_identifier")
	}
	if nameNode == nil {
		return axiom.AliasInfo{}, false
	}
	info := axiom.AliasInfo{
		Name:   qualifyName(f, ad, f.Text(nameNode)),
		Header: f.Path,
		Line:   Line(ad),
	}
	if tn := ad.ChildByFieldName("type"); tn != nil {
		info.Target = strings.TrimSpace(spaceRe.ReplaceAllString(f.Text(tn), " "))
	} else if n := int(ad.NamedChildCount()); n > 0 {
		last := ad.NamedChild(n - 1)
		if last != nameNode {
			info.Target = strings.TrimSpace(spaceRe.ReplaceAllString(f.Text(last), " "))
		}
	}
	return info, true
}

func extractMacro(f *File, m *sitter.Node) (axiom.MacroInfo, bool) {
	nameNode := m.ChildByFieldName("name")
	if nameNode == nil {
		return axiom.MacroInfo{}, false
	}
	info := axiom.MacroInfo{
		Name:           f.Text(nameNode),
		IsFunctionLike: m.Type() == "preproc_function_def",
		Header:         f.Path,
		Line:           Line(m),
	}
	if params := m.ChildByFieldName("parameters"); params != nil {
		for _, c := range directChildren(params) {
			t := f.Text(c)
			if c.Type() == "identifier" || t == "..." {
				info.Parameters = append(info.Parameters, t)
			}
		}
	}
	if value := m.ChildByFieldName("value"); value != nil {
		body := strings.ReplaceAll(f.Text(value), "\\\n", "\n")
		info.Body = strings.TrimSpace(body)
	}
	return info, true
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
