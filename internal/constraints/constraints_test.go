package constraints

import (
	"strings"
	"testing"

	"axe/internal/axiom"
)

func findAxiom(t *testing.T, axioms []axiom.Axiom, idSuffix string) axiom.Axiom {
	t.Helper()
	for _, a := range axioms {
		if strings.HasSuffix(a.ID, idSuffix) {
			return a
		}
	}
	t.Fatalf("no axiom with id suffix %q in %d axioms", idSuffix, len(axioms))
	return axiom.Axiom{}
}

func hasAxiom(axioms []axiom.Axiom, idSuffix string) bool {
	for _, a := range axioms {
		if strings.HasSuffix(a.ID, idSuffix) {
			return true
		}
	}
	return false
}

func TestNoexceptAxiom(t *testing.T) {
	fn := axiom.FunctionInfo{
		Name:       "Buffer::size",
		Signature:  "size_t Buffer::size() const noexcept",
		Header:     "buffer.hpp",
		Line:       12,
		IsNoexcept: true,
		IsConst:    true,
	}
	axioms := Extract(fn)

	ne := findAxiom(t, axioms, ".noexcept")
	if ne.ID != "Buffer::size.noexcept" {
		t.Errorf("id = %q", ne.ID)
	}
	if ne.AxiomType != axiom.Exception {
		t.Errorf("axiom_type = %q, want EXCEPTION", ne.AxiomType)
	}
	if ne.Content != "size is guaranteed not to throw exceptions" {
		t.Errorf("content = %q", ne.Content)
	}
	if ne.FormalSpec != "noexcept == true" {
		t.Errorf("formal_spec = %q", ne.FormalSpec)
	}
	if ne.Confidence != 1.0 || ne.SourceType != axiom.SourceExplicit {
		t.Errorf("confidence/source = %v/%q, want 1.0/explicit", ne.Confidence, ne.SourceType)
	}
	if ne.Line != 12 {
		t.Errorf("line = %d, want 12", ne.Line)
	}

	c := findAxiom(t, axioms, ".const")
	if c.AxiomType != axiom.Effect || c.Content != "size does not modify object state" {
		t.Errorf("const axiom = %+v", c)
	}
}

func TestConstevalExcludesConstexpr(t *testing.T) {
	fn := axiom.FunctionInfo{
		Name:        "square",
		Signature:   "consteval int square(int x)",
		IsConstexpr: true,
		IsConsteval: true,
	}
	axioms := Extract(fn)
	ce := findAxiom(t, axioms, ".consteval")
	if ce.Content != "square must be evaluated at compile time" {
		t.Errorf("content = %q", ce.Content)
	}
	if hasAxiom(axioms, ".constexpr") {
		t.Error("consteval function also produced a constexpr axiom")
	}

	fn2 := axiom.FunctionInfo{Name: "cube", Signature: "constexpr int cube(int x)", IsConstexpr: true}
	cx := findAxiom(t, Extract(fn2), ".constexpr")
	if cx.Content != "cube can be evaluated at compile time" || cx.FormalSpec != "constexpr == true" {
		t.Errorf("constexpr axiom = %+v", cx)
	}
}

func TestDeletedAndDeprecated(t *testing.T) {
	del := findAxiom(t, Extract(axiom.FunctionInfo{
		Name:      "Pinned::Pinned",
		Signature: "Pinned::Pinned(const Pinned &) = delete",
		IsDeleted: true,
	}), ".deleted")
	if del.AxiomType != axiom.Constraint {
		t.Errorf("axiom_type = %q, want CONSTRAINT", del.AxiomType)
	}
	if del.Content != "Pinned is explicitly deleted and cannot be called" || del.FormalSpec != "callable == false" {
		t.Errorf("deleted axiom = %+v", del)
	}

	dep := findAxiom(t, Extract(axiom.FunctionInfo{
		Name:         "legacy_parse",
		Signature:    "int legacy_parse(const char *s)",
		IsDeprecated: true,
	}), ".deprecated")
	if dep.AxiomType != axiom.AntiPattern || dep.FormalSpec != "[[deprecated]]" {
		t.Errorf("deprecated axiom = %+v", dep)
	}
}

func TestRequiresClause(t *testing.T) {
	fn := axiom.FunctionInfo{
		Name:         "add",
		Signature:    "T add(T a, T b)",
		RequiresText: "std::integral<T>",
		IsTemplate:   true,
	}
	req := findAxiom(t, Extract(fn), ".requires")
	if req.Content != "Template parameters must satisfy: std::integral<T>" {
		t.Errorf("content = %q", req.Content)
	}
	if req.FormalSpec != "std::integral<T>" {
		t.Errorf("formal_spec = %q", req.FormalSpec)
	}
	if req.Confidence != 1.0 || req.SourceType != axiom.SourceExplicit {
		t.Errorf("confidence/source = %v/%q", req.Confidence, req.SourceType)
	}
}

func TestReturnTypeHeuristics(t *testing.T) {
	tests := []struct {
		name       string
		signature  string
		idSuffix   string
		confidence float64
	}{
		{"optional", "std::optional<int> find(int key)", ".postcond.optional_value", 0.95},
		{"optional qualified", "std::optional<Entry> Table::lookup(int key) const", ".postcond.optional_value", 0.95},
		{"bool", "bool is_valid(const State &s)", ".postcond.bool_result", 0.85},
		{"bool with qualifiers", "static inline bool check(int x)", ".postcond.bool_result", 0.85},
		{"expected", "std::expected<int, Error> parse(const std::string &s)", ".postcond.expected_value", 0.95},
		{"pointer", "Node* next(Node *n)", ".postcond.pointer_nullable", 0.80},
		{"void pointer still nullable", "void* alloc(size_t n)", ".postcond.pointer_nullable", 0.80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axioms := Extract(axiom.FunctionInfo{Name: "fn", Signature: tt.signature})
			a := findAxiom(t, axioms, tt.idSuffix)
			if a.Confidence != tt.confidence {
				t.Errorf("confidence = %v, want %v", a.Confidence, tt.confidence)
			}
			if a.SourceType != axiom.SourcePattern {
				t.Errorf("source_type = %q, want pattern", a.SourceType)
			}
		})
	}
}

func TestReturnTypeNonMatches(t *testing.T) {
	for _, sig := range []string{
		"void reset()",
		"int count(const std::vector<int> &v)",
		"MyClass::MyClass(int x)", // no return type at all
	} {
		for _, a := range Extract(axiom.FunctionInfo{Name: "fn", Signature: sig}) {
			if strings.Contains(a.ID, ".postcond.") {
				t.Errorf("signature %q produced unexpected %s", sig, a.ID)
			}
		}
	}
}

func TestTemplateInstantiationAxiom(t *testing.T) {
	two := findAxiom(t, Extract(axiom.FunctionInfo{
		Name:          "make_pair",
		Signature:     "std::pair<A, B> make_pair(A a, B b)",
		IsTemplate:    true,
		TemplateArity: 2,
	}), ".complexity.template_instantiation")
	if two.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", two.Confidence)
	}
	if two.FormalSpec != "instantiation_count = O(unique_template_args^2)" {
		t.Errorf("formal_spec = %q", two.FormalSpec)
	}

	variadic := findAxiom(t, Extract(axiom.FunctionInfo{
		Name:          "log_all",
		Signature:     "void log_all(Args &&... args)",
		IsTemplate:    true,
		TemplateArity: 1,
		IsVariadic:    true,
	}), ".complexity.template_instantiation")
	if variadic.Confidence != 0.90 {
		t.Errorf("variadic confidence = %v, want 0.90", variadic.Confidence)
	}
	if !strings.Contains(variadic.Content, "parameter pack") {
		t.Errorf("variadic content = %q", variadic.Content)
	}
	if variadic.FormalSpec != "instantiation_count = O(unique_pack_expansions)" {
		t.Errorf("variadic formal_spec = %q", variadic.FormalSpec)
	}
}

// Every axiom this package produces must respect the source/confidence
// pairing: explicit means certainty, pattern means strictly less.
func TestConfidenceSourceInvariant(t *testing.T) {
	fns := []axiom.FunctionInfo{
		{Name: "a", Signature: "bool a()", IsNoexcept: true, IsNodiscard: true},
		{Name: "b", Signature: "std::optional<int> b()", IsConst: true, IsDeprecated: true},
		{Name: "c", Signature: "int* c()", IsTemplate: true, TemplateArity: 1},
		{Name: "d", Signature: "void d()", IsDeleted: true, RequiresText: "std::movable<T>"},
	}
	for _, fn := range fns {
		for _, a := range Extract(fn) {
			switch a.SourceType {
			case axiom.SourceExplicit:
				if a.Confidence != 1.0 {
					t.Errorf("%s: explicit axiom with confidence %v", a.ID, a.Confidence)
				}
			case axiom.SourcePattern:
				if a.Confidence >= 1.0 {
					t.Errorf("%s: pattern axiom with confidence %v", a.ID, a.Confidence)
				}
			default:
				t.Errorf("%s: unexpected source type %q", a.ID, a.SourceType)
			}
		}
	}
}
