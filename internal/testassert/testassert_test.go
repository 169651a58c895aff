package testassert

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"axe/internal/axiom"
	"axe/internal/cpp"
	"axe/internal/errors"
)

func mine(t *testing.T, source string, fw Framework) ([]Assertion, Framework) {
	t.Helper()
	p := cpp.NewParser()
	f, err := p.Parse(context.Background(), "widget_test.cpp", []byte(source))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	t.Cleanup(f.Close)
	return Extract(f, fw)
}

func TestGoogleTestAssertions(t *testing.T) {
	source := `
TEST(MathTest, SquaresPositive) {
    ASSERT_EQ(square(3), 9);
    EXPECT_TRUE(square(0) == 0);
}

TEST_F(MathFixture, RejectsNegative) {
    ASSERT_THROW(checked_sqrt(-1), std::domain_error);
    EXPECT_NO_THROW(checked_sqrt(4));
}
`
	asserts, detected := mine(t, source, Auto)
	if detected != GTest {
		t.Fatalf("detected framework = %q, want %q", detected, GTest)
	}
	if len(asserts) != 4 {
		t.Fatalf("got %d assertions, want 4: %+v", len(asserts), asserts)
	}

	eq := asserts[0]
	if eq.TestName != "MathTest_SquaresPositive" {
		t.Errorf("test name = %q, want MathTest_SquaresPositive", eq.TestName)
	}
	if eq.Condition != "square(3)" || eq.FunctionTested != "square" {
		t.Errorf("ASSERT_EQ mined condition %q function %q", eq.Condition, eq.FunctionTested)
	}
	if eq.AxiomType != axiom.Postcondition || eq.Confidence != 0.85 || !eq.Fatal {
		t.Errorf("ASSERT_EQ classified %+v", eq)
	}

	expect := asserts[1]
	if expect.Confidence != 0.80 || expect.Fatal {
		t.Errorf("EXPECT_TRUE should be non-fatal at 0.80, got %+v", expect)
	}
	if expect.Condition != "square(0) == 0" {
		t.Errorf("EXPECT_TRUE condition = %q", expect.Condition)
	}

	throw := asserts[2]
	if throw.TestName != "MathFixture_RejectsNegative" {
		t.Errorf("test name = %q, want MathFixture_RejectsNegative", throw.TestName)
	}
	if throw.AxiomType != axiom.Exception {
		t.Errorf("ASSERT_THROW type = %q, want EXCEPTION", throw.AxiomType)
	}
	if throw.Condition != "checked_sqrt(-1) throws std::domain_error" {
		t.Errorf("ASSERT_THROW condition = %q", throw.Condition)
	}

	nothrow := asserts[3]
	if nothrow.AxiomType != axiom.Constraint || nothrow.Confidence != 0.80 {
		t.Errorf("EXPECT_NO_THROW classified %+v", nothrow)
	}
	if nothrow.FunctionTested != "checked_sqrt" {
		t.Errorf("EXPECT_NO_THROW function = %q", nothrow.FunctionTested)
	}
}

func TestCatch2Assertions(t *testing.T) {
	source := `
#include <catch2/catch.hpp>

TEST_CASE("stack grows", "[stack]") {
    Stack s;
    s.push(1);
    REQUIRE(s.size() == 1);
    CHECK_FALSE(s.empty());
}

TEST_CASE("pop on empty") {
    Stack s;
    REQUIRE_THROWS_AS(s.pop(), std::out_of_range);
    CHECK_NOTHROW(s.clear());
}
`
	asserts, detected := mine(t, source, Auto)
	if detected != Catch2 {
		t.Fatalf("detected framework = %q, want %q", detected, Catch2)
	}
	if len(asserts) != 4 {
		t.Fatalf("got %d assertions, want 4: %+v", len(asserts), asserts)
	}

	req := asserts[0]
	if req.TestName != "stack grows" {
		t.Errorf("test name = %q, want %q", req.TestName, "stack grows")
	}
	if req.Condition != "s.size() == 1" || req.FunctionTested != "size" {
		t.Errorf("REQUIRE mined condition %q function %q", req.Condition, req.FunctionTested)
	}

	throws := asserts[2]
	if throws.TestName != "pop on empty" {
		t.Errorf("test name = %q, want %q", throws.TestName, "pop on empty")
	}
	if throws.Condition != "s.pop() throws std::out_of_range" {
		t.Errorf("REQUIRE_THROWS_AS condition = %q", throws.Condition)
	}
	if throws.AxiomType != axiom.Exception || throws.Confidence != 0.85 {
		t.Errorf("REQUIRE_THROWS_AS classified %+v", throws)
	}
}

func TestBoostAssertions(t *testing.T) {
	source := `
BOOST_AUTO_TEST_CASE(wraps_at_capacity) {
    Ring r(2);
    BOOST_REQUIRE_EQUAL(r.capacity(), 2);
    BOOST_CHECK(r.empty());
    BOOST_CHECK_THROW(r.at(5), std::out_of_range);
}
`
	asserts, detected := mine(t, source, Auto)
	if detected != Boost {
		t.Fatalf("detected framework = %q, want %q", detected, Boost)
	}
	if len(asserts) != 3 {
		t.Fatalf("got %d assertions, want 3: %+v", len(asserts), asserts)
	}
	for _, a := range asserts {
		if a.TestName != "wraps_at_capacity" {
			t.Errorf("test name = %q, want wraps_at_capacity", a.TestName)
		}
	}
	if asserts[0].FunctionTested != "capacity" || !asserts[0].Fatal {
		t.Errorf("BOOST_REQUIRE_EQUAL mined %+v", asserts[0])
	}
	if asserts[1].Fatal {
		t.Errorf("BOOST_CHECK should be non-fatal")
	}
	if asserts[2].AxiomType != axiom.Exception || asserts[2].Confidence != 0.80 {
		t.Errorf("BOOST_CHECK_THROW classified %+v", asserts[2])
	}
}

func TestFrameworkFilter(t *testing.T) {
	source := `
TEST(Mixed, Case) {
    ASSERT_TRUE(flag());
    REQUIRE(flag());
}
`
	asserts, detected := mine(t, source, GTest)
	if detected != GTest {
		t.Errorf("detected framework = %q, want %q", detected, GTest)
	}
	if len(asserts) != 1 {
		t.Fatalf("got %d assertions, want only the gtest one: %+v", len(asserts), asserts)
	}
	if asserts[0].Framework != GTest || asserts[0].Condition != "flag()" {
		t.Errorf("filtered assertion = %+v", asserts[0])
	}
}

func TestAssertionOutsideTestCase(t *testing.T) {
	source := `
static void check_invariants(const Pool& p) {
    REQUIRE(p.size() <= p.capacity());
}
`
	asserts, _ := mine(t, source, Auto)
	if len(asserts) != 1 {
		t.Fatalf("got %d assertions, want 1", len(asserts))
	}
	if asserts[0].TestName != "" {
		t.Errorf("helper assertion should have no test name, got %q", asserts[0].TestName)
	}
}

func TestNamedCastSkippedWhenFindingSubject(t *testing.T) {
	source := `
TEST_CASE("conversion is lossless") {
    REQUIRE(static_cast<int>(parse("4")) == 4);
}
`
	asserts, _ := mine(t, source, Auto)
	if len(asserts) != 1 {
		t.Fatalf("got %d assertions, want 1", len(asserts))
	}
	if asserts[0].FunctionTested != "parse" {
		t.Errorf("function tested = %q, want parse (cast skipped)", asserts[0].FunctionTested)
	}
}

func TestAssertionAxioms(t *testing.T) {
	source := `
TEST(Stack, PushPop) {
    ASSERT_EQ(depth(), 0);
    ASSERT_THROW(pop_all(), StackError);
    ASSERT_NO_THROW(reset());
    EXPECT_TRUE(done);
}
`
	p := cpp.NewParser()
	f, err := p.Parse(context.Background(), "stack_test.cpp", []byte(source))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	defer f.Close()

	asserts, _ := Extract(f, Auto)
	axioms := Axioms(f, asserts)
	if len(axioms) != 4 {
		t.Fatalf("got %d axioms, want 4: %+v", len(axioms), axioms)
	}

	want := []struct {
		id      string
		content string
		formal  string
		fn      string
	}{
		{"test.Stack_PushPop.line3", "depth satisfies: depth()", "depth()", "depth"},
		{"test.Stack_PushPop.line4", "Throws exception: pop_all() throws StackError", "pop_all() throws StackError", "pop_all"},
		{"test.Stack_PushPop.line5", "Does not throw (noexcept behavior)", "reset()", "reset"},
		{"test.Stack_PushPop.line6", "Postcondition: done", "done", ""},
	}
	for i, w := range want {
		ax := axioms[i]
		if ax.ID != w.id {
			t.Errorf("axiom %d id = %q, want %q", i, ax.ID, w.id)
		}
		if ax.Content != w.content {
			t.Errorf("axiom %d content = %q, want %q", i, ax.Content, w.content)
		}
		if ax.FormalSpec != w.formal {
			t.Errorf("axiom %d formal_spec = %q, want %q", i, ax.FormalSpec, w.formal)
		}
		if ax.Function != w.fn {
			t.Errorf("axiom %d function = %q, want %q", i, ax.Function, w.fn)
		}
		if ax.SourceType != axiom.SourcePattern {
			t.Errorf("axiom %d source = %q, want pattern", i, ax.SourceType)
		}
		if ax.Header != "stack_test.cpp" {
			t.Errorf("axiom %d header = %q", i, ax.Header)
		}
		if ax.Confidence >= 1.0 {
			t.Errorf("axiom %d confidence %v not below 1.0", i, ax.Confidence)
		}
	}
}

func TestParseFramework(t *testing.T) {
	for _, s := range []string{"auto", "catch2", "GTest", " boost "} {
		if _, err := ParseFramework(s); err != nil {
			t.Errorf("ParseFramework(%q) error = %v", s, err)
		}
	}

	_, err := ParseFramework("cppunit")
	if err == nil {
		t.Fatal("ParseFramework(cppunit) should fail")
	}
	var xe *errors.ExtractError
	if !stderrors.As(err, &xe) || xe.Code != errors.UnsupportedFramework {
		t.Errorf("error = %v, want UNSUPPORTED_FRAMEWORK", err)
	}
	if !strings.Contains(errors.Suggest(errors.UnsupportedFramework), "catch2") {
		t.Errorf("suggestion for UNSUPPORTED_FRAMEWORK should list frameworks")
	}
}
