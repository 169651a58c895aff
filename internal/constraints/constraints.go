// Package constraints derives axioms from function declarations alone:
// compiler-enforced attributes and specifiers become explicit axioms, and
// the declared return type feeds a small set of heuristic postconditions.
// Extraction is pure — no I/O, no syntax tree access, never fails.
package constraints

import (
	"fmt"
	"regexp"
	"strings"

	"axe/internal/axiom"
)

// returnTypeRe pulls the return type off a normalized signature: everything
// before the last space preceding "name(" or "Qualified::name(".
var returnTypeRe = regexp.MustCompile(`^(.+?)\s+\S+::\S+\(|^(.+?)\s+\S+\(`)

// leadingQualifiers are stripped off the front of a return type until none
// match. Order matters only in that longer keywords must not be prefixes of
// shorter ones; these are not.
var leadingQualifiers = []string{
	"constexpr ", "consteval ", "inline ", "static ", "virtual ",
	"explicit ", "friend ", "mutable ", "volatile ", "const ",
}

type returnTypeInfo struct {
	typeName   string
	isVoid     bool
	isBool     bool
	isOptional bool
	isExpected bool
	isPointer  bool
}

func analyzeReturnType(signature string) returnTypeInfo {
	var info returnTypeInfo

	m := returnTypeRe.FindStringSubmatch(signature)
	if m == nil {
		return info
	}
	typeName := m[1]
	if typeName == "" {
		typeName = m[2]
	}
	typeName = strings.TrimSpace(typeName)

	for {
		stripped := false
		for _, q := range leadingQualifiers {
			if strings.HasPrefix(typeName, q) {
				typeName = typeName[len(q):]
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}

	info.typeName = typeName
	info.isVoid = typeName == "void"
	info.isBool = typeName == "bool" || typeName == "_Bool"
	info.isOptional = strings.Contains(typeName, "optional")
	info.isExpected = strings.Contains(typeName, "expected")
	info.isPointer = typeName != "" && typeName[len(typeName)-1] == '*'
	return info
}

// Extract derives every declaration-level axiom for one function. Explicit
// attributes always yield confidence 1.0; return-type and template
// heuristics stay below it.
func Extract(fn axiom.FunctionInfo) []axiom.Axiom {
	var axioms []axiom.Axiom
	name := bare(fn.Name)

	explicit := func(suffix string, at axiom.Type, content, formal string) {
		axioms = append(axioms, axiom.Axiom{
			ID:         fn.Name + "." + suffix,
			Content:    content,
			FormalSpec: formal,
			Function:   fn.Name,
			Signature:  fn.Signature,
			Header:     fn.Header,
			AxiomType:  at,
			Confidence: 1.0,
			SourceType: axiom.SourceExplicit,
			Line:       fn.Line,
		})
	}
	pattern := func(suffix string, at axiom.Type, confidence float64, content, formal string) {
		axioms = append(axioms, axiom.Axiom{
			ID:         fn.Name + "." + suffix,
			Content:    content,
			FormalSpec: formal,
			Function:   fn.Name,
			Signature:  fn.Signature,
			Header:     fn.Header,
			AxiomType:  at,
			Confidence: confidence,
			SourceType: axiom.SourcePattern,
			Line:       fn.Line,
		})
	}

	if fn.IsNoexcept {
		explicit("noexcept", axiom.Exception,
			name+" is guaranteed not to throw exceptions",
			"noexcept == true")
	}
	if fn.IsNodiscard {
		explicit("nodiscard", axiom.Postcondition,
			"Return value of "+name+" must not be discarded",
			"[[nodiscard]]")
	}
	if fn.IsConst {
		explicit("const", axiom.Effect,
			name+" does not modify object state",
			"this->state == old(this->state)")
	}
	if fn.IsDeleted {
		explicit("deleted", axiom.Constraint,
			name+" is explicitly deleted and cannot be called",
			"callable == false")
	}
	if fn.IsConsteval {
		explicit("consteval", axiom.Constraint,
			name+" must be evaluated at compile time",
			"consteval == true")
	} else if fn.IsConstexpr {
		explicit("constexpr", axiom.Constraint,
			name+" can be evaluated at compile time",
			"constexpr == true")
	}
	if fn.IsDeprecated {
		explicit("deprecated", axiom.AntiPattern,
			name+" is deprecated and should not be used",
			"[[deprecated]]")
	}
	if fn.RequiresText != "" {
		explicit("requires", axiom.Constraint,
			"Template parameters must satisfy: "+fn.RequiresText,
			fn.RequiresText)
	}

	ret := analyzeReturnType(fn.Signature)
	if ret.isOptional {
		pattern("postcond.optional_value", axiom.Postcondition, 0.95,
			name+" returns std::optional which may or may not contain a value; caller must check has_value() before accessing",
			"result.has_value() || result == std::nullopt")
	}
	if ret.isBool {
		pattern("postcond.bool_result", axiom.Postcondition, 0.85,
			name+" returns a boolean indicating success/validity; true typically indicates success or valid state",
			"result in {true, false}")
	}
	if ret.isExpected {
		pattern("postcond.expected_value", axiom.Postcondition, 0.95,
			name+" returns std::expected which contains either a value or an error; caller must check has_value() before accessing value",
			"result.has_value() xor result.error()")
	}
	if ret.isPointer && !ret.isVoid {
		pattern("postcond.pointer_nullable", axiom.Postcondition, 0.80,
			name+" returns a pointer that may be null; caller should check for nullptr before dereferencing",
			"result == nullptr || is_valid_pointer(result)")
	}

	if fn.IsTemplate {
		switch {
		case fn.IsVariadic:
			pattern("complexity.template_instantiation", axiom.Complexity, 0.90,
				name+" is a variadic template; each unique parameter pack expansion causes a separate instantiation, potentially increasing code size",
				"instantiation_count = O(unique_pack_expansions)")
		case fn.TemplateArity > 0:
			pattern("complexity.template_instantiation", axiom.Complexity, 0.95,
				name+" is a template function; each unique combination of template arguments causes a separate instantiation",
				fmt.Sprintf("instantiation_count = O(unique_template_args^%d)", fn.TemplateArity))
		default:
			pattern("complexity.template_instantiation", axiom.Complexity, 0.90,
				name+" is a template function that may generate multiple instantiations",
				"instantiation_count >= 1")
		}
	}

	return axioms
}

func bare(qualified string) string {
	if i := strings.LastIndex(qualified, "::"); i >= 0 {
		return qualified[i+2:]
	}
	return qualified
}
