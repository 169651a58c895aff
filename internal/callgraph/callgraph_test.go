package callgraph

import (
	"context"
	"strings"
	"testing"

	"axe/internal/axiom"
	"axe/internal/cpp"
)

func extractFrom(t *testing.T, source, caller string) []axiom.FunctionCall {
	t.Helper()
	p := cpp.NewParser()
	f, err := p.Parse(context.Background(), "test.cpp", []byte(source))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	t.Cleanup(f.Close)

	facts := cpp.ExtractFacts(f)
	for _, rec := range facts.Functions {
		if rec.Info.Name == caller {
			return Extract(f, rec, facts)
		}
	}
	t.Fatalf("no function %q in fixture", caller)
	return nil
}

func callees(calls []axiom.FunctionCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Callee
	}
	return out
}

func TestResolvedFreeCall(t *testing.T) {
	calls := extractFrom(t, `
namespace math {
int square(int x) { return x * x; }
int cube(int x) { return square(x) * x; }
}
`, "math::cube")

	if len(calls) != 1 {
		t.Fatalf("calls = %v, want one", callees(calls))
	}
	c := calls[0]
	if c.Caller != "math::cube" {
		t.Errorf("caller = %q", c.Caller)
	}
	if c.Callee != "math::square" {
		t.Errorf("callee = %q, want math::square", c.Callee)
	}
	if c.CalleeSignature != "int math::square(int)" {
		t.Errorf("signature = %q", c.CalleeSignature)
	}
	if len(c.Arguments) != 1 || c.Arguments[0] != "x" {
		t.Errorf("arguments = %v", c.Arguments)
	}
	if c.Line != 4 {
		t.Errorf("line = %d, want 4", c.Line)
	}
	if c.IsVirtual {
		t.Error("free call marked virtual")
	}
}

func TestImplicitMemberCallKeepsVirtualFlag(t *testing.T) {
	calls := extractFrom(t, `
class Shape {
public:
    virtual double area() const { return 0.0; }
    double scaled(double k) const { return k * area(); }
};
`, "Shape::scaled")

	if len(calls) != 1 {
		t.Fatalf("calls = %v, want one", callees(calls))
	}
	c := calls[0]
	if c.Callee != "Shape::area" {
		t.Errorf("callee = %q", c.Callee)
	}
	if !c.IsVirtual {
		t.Error("virtual method call not flagged")
	}
	if c.CalleeSignature != "double Shape::area() const" {
		t.Errorf("signature = %q", c.CalleeSignature)
	}
}

func TestMemberCallSignatureQualifiers(t *testing.T) {
	calls := extractFrom(t, `
struct Counter {
    int value() const noexcept { return v_; }
    int v_;
};
int read(const Counter& c) {
    return c.value();
}
`, "read")

	if len(calls) != 1 {
		t.Fatalf("calls = %v, want one", callees(calls))
	}
	c := calls[0]
	if c.Callee != "Counter::value" {
		t.Errorf("callee = %q", c.Callee)
	}
	if c.CalleeSignature != "int Counter::value() const noexcept" {
		t.Errorf("signature = %q", c.CalleeSignature)
	}
	if c.IsVirtual {
		t.Error("non-virtual method flagged virtual")
	}
}

func TestConstructorCalls(t *testing.T) {
	calls := extractFrom(t, `
struct Widget {
    Widget(int size) {}
};
void build() {
    Widget w(10);
    Widget* p = new Widget(20);
    Widget* d = new Widget();
}
`, "build")

	got := callees(calls)
	if len(got) != 2 {
		t.Fatalf("calls = %v, want stack and heap constructions only", got)
	}
	for i, c := range calls {
		if c.Callee != "Widget::Widget" {
			t.Errorf("callee[%d] = %q, want Widget::Widget", i, c.Callee)
		}
		if c.CalleeSignature != "void Widget::Widget(int)" {
			t.Errorf("signature[%d] = %q", i, c.CalleeSignature)
		}
	}
	if calls[0].Arguments[0] != "10" || calls[1].Arguments[0] != "20" {
		t.Errorf("arguments = %v, %v", calls[0].Arguments, calls[1].Arguments)
	}
}

func TestUnresolvedCallsKeepSpelledNames(t *testing.T) {
	calls := extractFrom(t, `
void log_all(std::vector<int>& v) {
    std::sort(v.begin(), v.end());
    printf("%d", v.size());
}
`, "log_all")

	want := []string{"std::sort", "begin", "end", "printf", "size"}
	got := callees(calls)
	if len(got) != len(want) {
		t.Fatalf("callees = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("callee[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	for _, c := range calls {
		if c.CalleeSignature != "" {
			t.Errorf("unresolved %q has signature %q", c.Callee, c.CalleeSignature)
		}
	}
	sortCall := calls[0]
	if len(sortCall.Arguments) != 2 || sortCall.Arguments[0] != "v.begin()" {
		t.Errorf("std::sort arguments = %v", sortCall.Arguments)
	}
}

func TestNamedCastsAreNotCalls(t *testing.T) {
	calls := extractFrom(t, `
void convert(void* p) {
    int* q = static_cast<int*>(p);
    use(q);
}
`, "convert")

	got := callees(calls)
	if len(got) != 1 || got[0] != "use" {
		t.Errorf("callees = %v, want [use]", got)
	}
}

func TestPointerReturnAndArgumentClamp(t *testing.T) {
	long := strings.Repeat("x", 150)
	calls := extractFrom(t, `
char* buffer_at(int i) { return nullptr; }
void touch() {
    buffer_at(`+long+`);
}
`, "touch")

	if len(calls) != 1 {
		t.Fatalf("calls = %v, want one", callees(calls))
	}
	c := calls[0]
	if c.CalleeSignature != "char* buffer_at(int)" {
		t.Errorf("signature = %q", c.CalleeSignature)
	}
	if len(c.Arguments) != 1 || len(c.Arguments[0]) > 100 {
		t.Errorf("argument not clamped: %d chars", len(c.Arguments[0]))
	}
}

func TestNoBodyNoCalls(t *testing.T) {
	calls := extractFrom(t, `void gone(int x) = delete;`, "gone")
	if calls != nil {
		t.Errorf("Extract() on deleted function = %v, want nil", calls)
	}
}
