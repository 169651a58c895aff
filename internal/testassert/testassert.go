// Package testassert mines axioms from test suites. Assertion macros
// encode the contracts a test exercises: REQUIRE(s.size() == 1) is a
// postcondition on size, ASSERT_THROW(..., std::domain_error) is an
// exception contract. Each recognized assertion becomes one axiom
// attributed to the first function called inside the asserted expression.
//
// Catch2, GoogleTest and Boost.Test are recognized. Assertions are read
// from unexpanded source, so the macro invocations themselves are the
// syntax of interest; the framework headers never need to resolve.
package testassert

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"axe/internal/axiom"
	"axe/internal/cpp"
	"axe/internal/errors"
)

// Framework identifies a C++ test framework.
type Framework string

const (
	// Auto picks the framework from the assertion macros present in the file.
	Auto   Framework = "auto"
	Catch2 Framework = "catch2"
	GTest  Framework = "gtest"
	Boost  Framework = "boost"
)

// ParseFramework validates a --test-framework flag value.
func ParseFramework(s string) (Framework, error) {
	fw := Framework(strings.ToLower(strings.TrimSpace(s)))
	switch fw {
	case Auto, Catch2, GTest, Boost:
		return fw, nil
	}
	return "", errors.New(errors.UnsupportedFramework,
		fmt.Sprintf("unknown test framework %q", s), nil)
}

// Assertion is one recognized assertion macro invocation.
type Assertion struct {
	// TestName is the enclosing test case name. Empty for assertions in
	// helper functions outside any test case.
	TestName string
	// Condition is the asserted expression, with " throws <type>"
	// appended for exception assertions when a type is visible.
	Condition string
	// FunctionTested is the bare name of the first function called inside
	// the asserted expression, or empty when the assertion has no call.
	FunctionTested string
	Framework      Framework
	AxiomType      axiom.Type
	// Confidence is 0.85 for fatal assertions and 0.80 for the
	// non-fatal CHECK/EXPECT forms a test may survive.
	Confidence float64
	Fatal      bool
	Line       int
}

type assertMacro struct {
	framework Framework
	fatal     bool
}

var assertionMacros = buildMacroTable()

func buildMacroTable() map[string]assertMacro {
	table := make(map[string]assertMacro)
	add := func(fw Framework, fatal bool, names ...string) {
		for _, n := range names {
			table[n] = assertMacro{framework: fw, fatal: fatal}
		}
	}
	add(Catch2, true,
		"REQUIRE", "REQUIRE_FALSE",
		"REQUIRE_THROWS", "REQUIRE_THROWS_AS", "REQUIRE_THROWS_WITH",
		"REQUIRE_NOTHROW")
	add(Catch2, false,
		"CHECK", "CHECK_FALSE",
		"CHECK_THROWS", "CHECK_THROWS_AS",
		"CHECK_NOTHROW")
	add(GTest, true,
		"ASSERT_TRUE", "ASSERT_FALSE",
		"ASSERT_EQ", "ASSERT_NE", "ASSERT_LT", "ASSERT_LE", "ASSERT_GT", "ASSERT_GE",
		"ASSERT_THROW", "ASSERT_NO_THROW")
	add(GTest, false,
		"EXPECT_TRUE", "EXPECT_FALSE",
		"EXPECT_EQ", "EXPECT_NE", "EXPECT_LT", "EXPECT_LE", "EXPECT_GT", "EXPECT_GE",
		"EXPECT_THROW", "EXPECT_NO_THROW")
	add(Boost, true,
		"BOOST_REQUIRE", "BOOST_REQUIRE_EQUAL", "BOOST_REQUIRE_NE",
		"BOOST_REQUIRE_LT", "BOOST_REQUIRE_LE", "BOOST_REQUIRE_GT", "BOOST_REQUIRE_GE",
		"BOOST_REQUIRE_THROW", "BOOST_REQUIRE_NO_THROW")
	add(Boost, false,
		"BOOST_CHECK", "BOOST_CHECK_EQUAL", "BOOST_CHECK_NE",
		"BOOST_CHECK_LT", "BOOST_CHECK_LE", "BOOST_CHECK_GT", "BOOST_CHECK_GE",
		"BOOST_CHECK_THROW", "BOOST_CHECK_NO_THROW")
	return table
}

// macroKind reads the axiom type off the macro name. NOTHROW must be
// checked before THROW: it contains it.
func macroKind(name string) axiom.Type {
	switch {
	case strings.Contains(name, "NOTHROW"), strings.Contains(name, "NO_THROW"):
		return axiom.Constraint
	case strings.Contains(name, "THROW"):
		return axiom.Exception
	default:
		return axiom.Postcondition
	}
}

// exceptionTypeRe spots a thrown type near an exception assertion: a std
// type, or anything spelled like an Exception or Error class.
var exceptionTypeRe = regexp.MustCompile(`(std::\w+|[\w:]+Exception|[\w:]+Error)`)

// testHeaderRe matches the macros that open a test case. Test bodies with
// string-literal names do not always survive the parser intact, so test
// names are recovered textually and assertions are matched to the nearest
// preceding header by byte offset.
var testHeaderRe = regexp.MustCompile(`\b(TEST_CASE|TEST_F|TEST|BOOST_AUTO_TEST_CASE)\s*\(([^)]*)\)`)

type testHeader struct {
	name      string
	framework Framework
	start     int
}

func scanTestHeaders(source []byte) []testHeader {
	var headers []testHeader
	for _, m := range testHeaderRe.FindAllSubmatchIndex(source, -1) {
		macro := string(source[m[2]:m[3]])
		args := string(source[m[4]:m[5]])
		h := testHeader{start: m[0]}
		switch macro {
		case "TEST_CASE":
			h.framework = Catch2
			h.name = testTitle(args)
		case "TEST", "TEST_F":
			h.framework = GTest
			if i := strings.Index(args, ","); i >= 0 {
				h.name = strings.TrimSpace(args[:i]) + "_" + strings.TrimSpace(args[i+1:])
			} else {
				h.name = strings.TrimSpace(args)
			}
		case "BOOST_AUTO_TEST_CASE":
			h.framework = Boost
			h.name = strings.TrimSpace(args)
		}
		headers = append(headers, h)
	}
	return headers
}

// testTitle extracts a Catch2 test name: the first string literal when one
// is present (tags follow as a second literal), the raw argument otherwise.
func testTitle(args string) string {
	s := strings.TrimSpace(args)
	if strings.HasPrefix(s, `"`) {
		if end := strings.Index(s[1:], `"`); end >= 0 {
			return s[1 : 1+end]
		}
		return strings.Trim(s, `"`)
	}
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Extract mines assertions from a parsed test file. fw restricts matching
// to one framework; Auto recognizes all of them and reports the framework
// of the last assertion seen, which is how mixed files settle in practice.
func Extract(f *cpp.File, fw Framework) ([]Assertion, Framework) {
	headers := scanTestHeaders(f.Source)
	detected := fw

	var asserts []Assertion
	for _, call := range cpp.FindAll(f.Root, "call_expression") {
		fn := call.ChildByFieldName("function")
		if fn == nil || fn.Type() != "identifier" {
			continue
		}
		name := f.Text(fn)
		info, ok := assertionMacros[name]
		if !ok || (fw != Auto && info.framework != fw) {
			continue
		}
		detected = info.framework

		arg0 := firstArgument(call)
		cond := strings.TrimSpace(f.Text(arg0))
		kind := macroKind(name)
		if kind == axiom.Exception {
			if t := exceptionTypeRe.FindString(f.Text(call)); t != "" {
				cond += " throws " + t
			}
		}

		conf := 0.80
		if info.fatal {
			conf = 0.85
		}
		asserts = append(asserts, Assertion{
			TestName:       enclosingTest(headers, int(call.StartByte())),
			Condition:      cond,
			FunctionTested: testedFunction(f, arg0),
			Framework:      info.framework,
			AxiomType:      kind,
			Confidence:     conf,
			Fatal:          info.fatal,
			Line:           cpp.Line(call),
		})
	}
	return asserts, detected
}

// enclosingTest names the last test header opened before offset.
func enclosingTest(headers []testHeader, offset int) string {
	name := ""
	for _, h := range headers {
		if h.start >= offset {
			break
		}
		name = h.name
	}
	return name
}

func firstArgument(call *sitter.Node) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	return cpp.FirstNamed(args)
}

// testedFunction finds the first function called inside the asserted
// expression. Named casts are call-shaped in the grammar and are skipped
// in favor of whatever they wrap.
func testedFunction(f *cpp.File, arg *sitter.Node) string {
	if arg == nil {
		return ""
	}
	for _, call := range cpp.FindAll(arg, "call_expression") {
		fn := call.ChildByFieldName("function")
		if fn == nil || cpp.IsNamedCast(f.Text(fn)) {
			continue
		}
		if name := bareCallee(f, fn); name != "" {
			return name
		}
	}
	return ""
}

// bareCallee reduces a callee expression to an unqualified name.
func bareCallee(f *cpp.File, fn *sitter.Node) string {
	switch fn.Type() {
	case "identifier":
		return f.Text(fn)
	case "qualified_identifier", "template_function":
		name := f.Text(fn)
		if i := strings.LastIndex(name, "::"); i >= 0 {
			name = name[i+2:]
		}
		if i := strings.Index(name, "<"); i >= 0 {
			name = name[:i]
		}
		return name
	case "field_expression":
		field := fn.ChildByFieldName("field")
		if field == nil {
			return ""
		}
		if field.Type() == "template_method" {
			if n := field.ChildByFieldName("name"); n != nil {
				return f.Text(n)
			}
		}
		return f.Text(field)
	}
	return ""
}

// Axioms converts mined assertions into axioms. Assertion axioms are
// pattern-sourced: a passing test demonstrates behavior, it does not
// declare it.
func Axioms(f *cpp.File, asserts []Assertion) []axiom.Axiom {
	var out []axiom.Axiom
	for _, a := range asserts {
		ax := axiom.Axiom{
			ID:         fmt.Sprintf("test.%s.line%d", a.TestName, a.Line),
			FormalSpec: a.Condition,
			Function:   a.FunctionTested,
			Header:     f.Path,
			AxiomType:  a.AxiomType,
			Confidence: a.Confidence,
			SourceType: axiom.SourcePattern,
			Line:       a.Line,
		}
		switch a.AxiomType {
		case axiom.Exception:
			ax.Content = "Throws exception: " + a.Condition
		case axiom.Constraint:
			ax.Content = "Does not throw (noexcept behavior)"
		default:
			if a.FunctionTested != "" {
				ax.Content = a.FunctionTested + " satisfies: " + a.Condition
			} else {
				ax.Content = "Postcondition: " + a.Condition
			}
		}
		out = append(out, ax)
	}
	return out
}
