package cfg

import (
	"context"
	"strings"
	"testing"

	"axe/internal/cpp"
)

func buildFixture(t *testing.T, source string) (*cpp.File, *Graph) {
	t.Helper()
	p := cpp.NewParser()
	f, err := p.Parse(context.Background(), "test.cpp", []byte(source))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	t.Cleanup(f.Close)

	fns := cpp.FindAll(f.Root, "function_definition")
	if len(fns) == 0 {
		t.Fatal("fixture has no function definition")
	}
	body := fns[0].ChildByFieldName("body")
	return f, Build(f, body)
}

func TestStraightLineBody(t *testing.T) {
	_, g := buildFixture(t, `
int sum(int a, int b) {
    int s = a + b;
    return s;
}
`)

	if g.Entry == nil {
		t.Fatal("no entry block")
	}
	for _, line := range []int{3, 4} {
		b := g.BlockAt(line)
		if b == nil {
			t.Fatalf("BlockAt(%d) = nil", line)
		}
		if b != g.Entry {
			t.Errorf("line %d should be in the entry block", line)
		}
	}
}

func TestIfProducesConditionBlock(t *testing.T) {
	f, g := buildFixture(t, `
int divide(int a, int b) {
    if (b != 0) {
        return a / b;
    }
    return 0;
}
`)

	then := g.BlockAt(4)
	if then == nil {
		t.Fatal("BlockAt(4) = nil")
	}
	if len(then.Preds) != 1 {
		t.Fatalf("then block preds = %d, want 1", len(then.Preds))
	}
	cond := then.Preds[0]
	if cond.Cond == nil {
		t.Fatal("predecessor has no condition")
	}
	if text := f.Text(cond.Cond); !strings.Contains(text, "b != 0") {
		t.Errorf("condition = %q", text)
	}

	after := g.BlockAt(6)
	if after == nil || after == then {
		t.Fatal("return 0 should live in the join block")
	}
}

func TestIfElseJoins(t *testing.T) {
	_, g := buildFixture(t, `
int pick(bool flag) {
    int v;
    if (flag) {
        v = 1;
    } else {
        v = 2;
    }
    return v;
}
`)

	thenBlock := g.BlockAt(5)
	elseBlock := g.BlockAt(7)
	join := g.BlockAt(9)
	if thenBlock == nil || elseBlock == nil || join == nil {
		t.Fatal("missing blocks")
	}
	if thenBlock == elseBlock {
		t.Error("then and else should be distinct blocks")
	}
	if len(join.Preds) != 2 {
		t.Errorf("join preds = %d, want 2", len(join.Preds))
	}
}

func TestWhileLoop(t *testing.T) {
	f, g := buildFixture(t, `
void countdown(int n) {
    int i = n;
    while (i > 0) {
        i--;
    }
    int done = i;
}
`)

	body := g.BlockAt(5)
	if body == nil || len(body.Preds) != 1 {
		t.Fatalf("loop body block = %+v", body)
	}
	cond := body.Preds[0]
	if cond.Cond == nil || !strings.Contains(f.Text(cond.Cond), "i > 0") {
		t.Error("loop body predecessor should carry the loop condition")
	}
	// Back edge: the condition block is also reachable from the body.
	var hasBackEdge bool
	for _, p := range cond.Preds {
		if p == body {
			hasBackEdge = true
		}
	}
	if !hasBackEdge {
		t.Error("missing back edge from body to condition")
	}

	after := g.BlockAt(7)
	if after == nil || len(after.Preds) != 1 || after.Preds[0] != cond {
		t.Error("after block should succeed the condition block")
	}
}

func TestForLoop(t *testing.T) {
	f, g := buildFixture(t, `
int total(int n) {
    int sum = 0;
    for (int i = 0; i < n; i++) {
        sum += i;
    }
    return sum;
}
`)

	body := g.BlockAt(5)
	if body == nil {
		t.Fatal("BlockAt(5) = nil")
	}
	cond := body.Preds[0]
	if cond.Cond == nil || !strings.Contains(f.Text(cond.Cond), "i < n") {
		t.Errorf("for condition missing, got %+v", cond)
	}
}

func TestRangeForHasNoCondition(t *testing.T) {
	_, g := buildFixture(t, `
int count(const std::vector<int>& v) {
    int n = 0;
    for (const auto& x : v) {
        n++;
    }
    return n;
}
`)

	body := g.BlockAt(5)
	if body == nil {
		t.Fatal("BlockAt(5) = nil")
	}
	if len(body.Preds) != 1 {
		t.Fatalf("body preds = %d", len(body.Preds))
	}
	if body.Preds[0].Cond != nil {
		t.Error("range-for header should not carry a guardable condition")
	}
}

func TestSwitchFansOut(t *testing.T) {
	f, g := buildFixture(t, `
int name(int code) {
    switch (code) {
    case 0:
        return 10;
    case 1:
        return 20;
    }
    return -1;
}
`)

	case0 := g.BlockAt(5)
	case1 := g.BlockAt(7)
	if case0 == nil || case1 == nil || case0 == case1 {
		t.Fatal("case arms should be distinct blocks")
	}
	if len(case0.Preds) != 1 || case0.Preds[0].Cond == nil {
		t.Fatal("case arm should descend from the switch condition")
	}
	if !strings.Contains(f.Text(case0.Preds[0].Cond), "code") {
		t.Errorf("switch condition = %q", f.Text(case0.Preds[0].Cond))
	}
}

func TestBlockAtPrefersInnermost(t *testing.T) {
	_, g := buildFixture(t, `
void nested(int a, int b) {
    if (a > 0) {
        if (b > 0) {
            int x = a + b;
        }
    }
}
`)

	inner := g.BlockAt(5)
	if inner == nil {
		t.Fatal("BlockAt(5) = nil")
	}
	if len(inner.Preds) != 1 || inner.Preds[0].Cond == nil {
		t.Fatal("inner statement should sit under the inner condition")
	}
	// Walking two predecessor hops reaches the outer condition.
	outer := inner.Preds[0].Preds[0]
	if outer.Cond == nil {
		t.Error("outer condition not reachable through preds")
	}
}

func TestNilBody(t *testing.T) {
	g := Build(nil, nil)
	if g.Entry == nil || len(g.Blocks) != 1 {
		t.Fatalf("empty graph = %+v", g)
	}
	if g.BlockAt(1) != nil {
		t.Error("no line should resolve in an empty graph")
	}
}
