package constraints

import (
	"fmt"
	"path/filepath"

	"axe/internal/axiom"
)

// ClassAxioms derives the shape constraints of one class definition:
// final, abstract, virtual destructor and trivial copyability. All are
// compiler-enforced facts, so every axiom is explicit.
func ClassAxioms(info axiom.ClassInfo) []axiom.Axiom {
	var axioms []axiom.Axiom
	name := bare(info.Name)

	add := func(suffix, content, formal string) {
		axioms = append(axioms, axiom.Axiom{
			ID:         info.Name + "." + suffix,
			Content:    content,
			FormalSpec: formal,
			Function:   info.Name,
			Header:     info.Header,
			AxiomType:  axiom.Constraint,
			Confidence: 1.0,
			SourceType: axiom.SourceExplicit,
			Line:       info.Line,
		})
	}

	if info.IsFinal {
		add("final",
			name+" cannot be inherited from (final class)",
			"is_final("+name+")")
	}
	if info.IsAbstract {
		add("abstract",
			name+" is abstract and cannot be instantiated directly",
			"is_abstract("+name+")")
	}
	if info.HasVirtualDestructor {
		add("virtual_dtor",
			name+" has virtual destructor (safe for polymorphic use)",
			"has_virtual_destructor("+name+")")
	}
	if info.IsTriviallyCopyable {
		add("trivially_copyable",
			name+" is trivially copyable (safe for memcpy/memmove)",
			"is_trivially_copyable("+name+")")
	}
	return axioms
}

// EnumAxioms derives the scoped-enum constraint.
func EnumAxioms(info axiom.EnumInfo) []axiom.Axiom {
	if !info.IsScoped {
		return nil
	}
	name := bare(info.Name)
	return []axiom.Axiom{{
		ID:         info.Name + ".scoped",
		Content:    name + " is a scoped enum (enum class) - values require qualification",
		FormalSpec: "is_scoped_enum(" + name + ")",
		Function:   info.Name,
		Header:     info.Header,
		AxiomType:  axiom.Constraint,
		Confidence: 1.0,
		SourceType: axiom.SourceExplicit,
		Line:       info.Line,
	}}
}

// StaticAssertAxiom turns a static_assert into an invariant. The message
// becomes the content when present; the condition always carries the
// formal side. Assertions belong to no function, so the id is keyed by
// file and line instead.
func StaticAssertAxiom(info axiom.StaticAssertInfo) axiom.Axiom {
	content := info.Message
	if content == "" {
		content = "Static assertion: " + info.Condition
	}
	return axiom.Axiom{
		ID:         fmt.Sprintf("%s.static_assert.%d", filepath.Base(info.Header), info.Line),
		Content:    content,
		FormalSpec: info.Condition,
		Header:     info.Header,
		AxiomType:  axiom.Invariant,
		Confidence: 1.0,
		SourceType: axiom.SourceExplicit,
		Line:       info.Line,
	}
}

// ConceptAxiom records a C++20 concept's constraint expression.
func ConceptAxiom(info axiom.ConceptInfo) axiom.Axiom {
	return axiom.Axiom{
		ID:         info.Name + ".concept",
		Content:    "Concept " + bare(info.Name) + " requires: " + info.Expression,
		FormalSpec: info.Expression,
		Function:   info.Name,
		Header:     info.Header,
		AxiomType:  axiom.Constraint,
		Confidence: 1.0,
		SourceType: axiom.SourceExplicit,
		Line:       info.Line,
	}
}

// AliasAxiom records a type alias. Aliases without a recoverable target
// yield nothing.
func AliasAxiom(info axiom.AliasInfo) (axiom.Axiom, bool) {
	if info.Target == "" {
		return axiom.Axiom{}, false
	}
	name := bare(info.Name)
	return axiom.Axiom{
		ID:         info.Name + ".type_alias",
		Content:    name + " is an alias for " + info.Target,
		FormalSpec: "type(" + name + ") == " + info.Target,
		Function:   info.Name,
		Header:     info.Header,
		AxiomType:  axiom.Constraint,
		Confidence: 1.0,
		SourceType: axiom.SourceExplicit,
		Line:       info.Line,
	}, true
}
