package constraints

import (
	"testing"

	"axe/internal/axiom"
)

func TestClassAxioms(t *testing.T) {
	info := axiom.ClassInfo{
		Name:                 "net::Connection",
		Header:               "src/connection.hpp",
		Line:                 20,
		IsFinal:              true,
		IsAbstract:           false,
		HasVirtualDestructor: true,
		IsTriviallyCopyable:  false,
	}
	axioms := ClassAxioms(info)
	if len(axioms) != 2 {
		t.Fatalf("got %d axioms, want 2: %+v", len(axioms), axioms)
	}

	final := findAxiom(t, axioms, ".final")
	if final.ID != "net::Connection.final" {
		t.Errorf("id = %q", final.ID)
	}
	if final.Content != "Connection cannot be inherited from (final class)" {
		t.Errorf("content = %q", final.Content)
	}
	if final.FormalSpec != "is_final(Connection)" {
		t.Errorf("formal_spec = %q", final.FormalSpec)
	}
	if final.AxiomType != axiom.Constraint || final.Confidence != 1.0 ||
		final.SourceType != axiom.SourceExplicit {
		t.Errorf("constraint fields = %+v", final)
	}

	dtor := findAxiom(t, axioms, ".virtual_dtor")
	if dtor.Content != "Connection has virtual destructor (safe for polymorphic use)" {
		t.Errorf("content = %q", dtor.Content)
	}
	if hasAxiom(axioms, ".abstract") || hasAxiom(axioms, ".trivially_copyable") {
		t.Errorf("unset properties produced axioms: %+v", axioms)
	}
}

func TestAbstractAndTrivialClass(t *testing.T) {
	axioms := ClassAxioms(axiom.ClassInfo{
		Name: "Shape", Header: "shape.hpp", Line: 5,
		IsAbstract: true,
	})
	ab := findAxiom(t, axioms, ".abstract")
	if ab.Content != "Shape is abstract and cannot be instantiated directly" {
		t.Errorf("content = %q", ab.Content)
	}

	axioms = ClassAxioms(axiom.ClassInfo{
		Name: "geom::Point", Header: "point.hpp", Line: 3,
		IsTriviallyCopyable: true,
	})
	tc := findAxiom(t, axioms, ".trivially_copyable")
	if tc.Content != "Point is trivially copyable (safe for memcpy/memmove)" {
		t.Errorf("content = %q", tc.Content)
	}
	if tc.FormalSpec != "is_trivially_copyable(Point)" {
		t.Errorf("formal_spec = %q", tc.FormalSpec)
	}
}

func TestEnumAxioms(t *testing.T) {
	scoped := EnumAxioms(axiom.EnumInfo{
		Name: "net::State", Header: "state.hpp", Line: 7, IsScoped: true,
	})
	if len(scoped) != 1 {
		t.Fatalf("got %d axioms, want 1", len(scoped))
	}
	ax := scoped[0]
	if ax.ID != "net::State.scoped" {
		t.Errorf("id = %q", ax.ID)
	}
	if ax.Content != "State is a scoped enum (enum class) - values require qualification" {
		t.Errorf("content = %q", ax.Content)
	}
	if ax.FormalSpec != "is_scoped_enum(State)" {
		t.Errorf("formal_spec = %q", ax.FormalSpec)
	}

	if got := EnumAxioms(axiom.EnumInfo{Name: "Color", IsScoped: false}); got != nil {
		t.Errorf("plain enum should yield nothing, got %+v", got)
	}
}

func TestStaticAssertAxiom(t *testing.T) {
	ax := StaticAssertAxiom(axiom.StaticAssertInfo{
		Condition: "sizeof(void*) == 8",
		Message:   "64-bit platform required",
		Header:    "src/platform.hpp",
		Line:      4,
	})
	if ax.ID != "platform.hpp.static_assert.4" {
		t.Errorf("id = %q", ax.ID)
	}
	if ax.Content != "64-bit platform required" {
		t.Errorf("content = %q", ax.Content)
	}
	if ax.FormalSpec != "sizeof(void*) == 8" {
		t.Errorf("formal_spec = %q", ax.FormalSpec)
	}
	if ax.AxiomType != axiom.Invariant || ax.Function != "" {
		t.Errorf("type/function = %q/%q", ax.AxiomType, ax.Function)
	}

	bare := StaticAssertAxiom(axiom.StaticAssertInfo{
		Condition: "N > 0", Header: "ring.hpp", Line: 9,
	})
	if bare.Content != "Static assertion: N > 0" {
		t.Errorf("messageless content = %q", bare.Content)
	}
}

func TestConceptAxiom(t *testing.T) {
	ax := ConceptAxiom(axiom.ConceptInfo{
		Name:       "Hashable",
		Expression: "requires(T a) { { std::hash<T>{}(a) } -> std::convertible_to<std::size_t>; }",
		Header:     "concepts.hpp",
		Line:       11,
	})
	if ax.ID != "Hashable.concept" {
		t.Errorf("id = %q", ax.ID)
	}
	if ax.Content != "Concept Hashable requires: "+ax.FormalSpec {
		t.Errorf("content = %q", ax.Content)
	}
	if ax.AxiomType != axiom.Constraint || ax.SourceType != axiom.SourceExplicit {
		t.Errorf("type/source = %q/%q", ax.AxiomType, ax.SourceType)
	}
}

func TestAliasAxiom(t *testing.T) {
	ax, ok := AliasAxiom(axiom.AliasInfo{
		Name:   "db::RowId",
		Target: "std::uint64_t",
		Header: "row.hpp",
		Line:   6,
	})
	if !ok {
		t.Fatal("alias with target should produce an axiom")
	}
	if ax.ID != "db::RowId.type_alias" {
		t.Errorf("id = %q", ax.ID)
	}
	if ax.Content != "RowId is an alias for std::uint64_t" {
		t.Errorf("content = %q", ax.Content)
	}
	if ax.FormalSpec != "type(RowId) == std::uint64_t" {
		t.Errorf("formal_spec = %q", ax.FormalSpec)
	}

	if _, ok := AliasAxiom(axiom.AliasInfo{Name: "Opaque"}); ok {
		t.Error("alias without target should yield nothing")
	}
}
