package starparse

import (
	"bytes"
	"errors"
	"testing"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

func parse(t *testing.T, src string) *pyast.Module {
	t.Helper()
	mod, err := Parse("test", src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return mod
}

func TestParseStatements(t *testing.T) {
	mod := parse(t, "x = 1\nx += 2\na, b = 1, 2\ndef f(a, b=1, *args, c, **kw):\n    \"doc\"\n    return a\n")
	if len(mod.Body) != 4 {
		t.Fatalf("got %d statements", len(mod.Body))
	}
	if _, ok := mod.Body[0].(*pyast.Assign); !ok {
		t.Fatalf("got %T", mod.Body[0])
	}
	aug, ok := mod.Body[1].(*pyast.AugAssign)
	if !ok {
		t.Fatalf("got %T", mod.Body[1])
	}
	if aug.Op != pyast.Add {
		t.Fatalf("got %v", aug.Op)
	}
	assign := mod.Body[2].(*pyast.Assign)
	if tuple, ok := assign.Targets[0].(*pyast.Tuple); !ok || len(tuple.Elts) != 2 {
		t.Fatalf("got %#v", assign.Targets[0])
	}
	def, ok := mod.Body[3].(*pyast.FunctionDef)
	if !ok {
		t.Fatalf("got %T", mod.Body[3])
	}
	if def.Doc != "doc" {
		t.Fatalf("got %q", def.Doc)
	}
	params := def.Params
	if len(params.Args) != 2 || params.Vararg != "args" || len(params.KwOnly) != 1 || params.Kwarg != "kw" {
		t.Fatalf("got %#v", params)
	}
	if params.Args[1].Default == nil {
		t.Fatal("expected default")
	}
	if def.Pos.Line != 4 || def.Pos.Column != 1 {
		t.Fatalf("got %v", def.Pos)
	}
}

func TestParseExpr(t *testing.T) {
	expr, err := ParseExpr("test", "a < b and not c in d")
	if err != nil {
		t.Fatal(err)
	}
	b, ok := expr.(*pyast.BoolOp)
	if !ok || b.Op != pyast.And {
		t.Fatalf("got %#v", expr)
	}
	if cmp, ok := b.Values[0].(*pyast.Compare); !ok || cmp.Ops[0] != pyast.Lt {
		t.Fatalf("got %#v", b.Values[0])
	}
	if u, ok := b.Values[1].(*pyast.UnaryOp); !ok || u.Op != pyast.Not {
		t.Fatalf("got %#v", b.Values[1])
	}

	expr, err = ParseExpr("test", "None")
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := expr.(*pyast.Constant); !ok || c.Value != nil {
		t.Fatalf("got %#v", expr)
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse("test", "x = (1,\n")
	if err == nil {
		t.Fatal("should fail")
	}
	e := evalerr.From(err)
	if !errors.Is(e, evalerr.ErrSyntax) {
		t.Fatalf("got %v", e)
	}
	if e.Pos.Line == 0 {
		t.Fatalf("got %v", e.Pos)
	}

	// chained comparisons are not Starlark
	if _, err := Parse("test", "1 < 2 < 3"); err == nil {
		t.Fatal("should fail")
	}
}

func TestEvaluate(t *testing.T) {
	in, err := interp.New(
		interp.WithParser(Parser{}),
		interp.WithStdout(new(bytes.Buffer)),
		interp.WithStderr(new(bytes.Buffer)),
	)
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		src      string
		expected string
	}{
		{"1 + 2 * 3", "7"},
		{"def fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\nfib(10)", "55"},
		{"[x * x for x in range(5) if x % 2 == 0]", "[0, 4, 16]"},
		{"{k: v for k, v in [('a', 1), ('b', 2)]}", "{'a': 1, 'b': 2}"},
		{"f = lambda x, y=2: x * y\nf(3)", "6"},
		{"d = dict(a=1, **{'b': 2})\nsorted(d.keys())", "['a', 'b']"},
		{"args = [1, 2, 3]\nmax(*args)", "3"},
		{"x = 0\nfor i in range(10):\n    if i == 5:\n        break\n    x += i\nx", "10"},
		{"'a' if True else 'b'", "'a'"},
		{"'%s-%d' % ('x', 1)", "'x-1'"},
		{"s = [1, 2, 3, 4]\ns[1:3]", "[2, 3]"},
		{"b'ab'", "b'ab'"},
		{"sqrt(16)", "4.0"},
	}
	for _, c := range cases {
		ret, err := in.Eval(c.src, interp.RaiseErrors(true))
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(ret); got != c.expected {
			t.Fatalf("%q: got %s", c.src, got)
		}
	}

	if _, err := in.Eval("(1).__class__", interp.RaiseErrors(true)); !errors.Is(err, evalerr.ErrAttributeDenied) {
		t.Fatalf("got %v", err)
	}
}

func TestLoad(t *testing.T) {
	in, err := interp.New(
		interp.WithParser(Parser{}),
		interp.WithStderr(new(bytes.Buffer)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := in.Eval("load('math', 'floor')", interp.RaiseErrors(true)); !errors.Is(err, evalerr.ErrConstructDisabled) {
		t.Fatalf("got %v", err)
	}

	in, err = interp.New(
		interp.WithParser(Parser{}),
		interp.WithConstruct("importfrom", true),
		interp.WithStderr(new(bytes.Buffer)),
	)
	if err != nil {
		t.Fatal(err)
	}
	ret, err := interp.Eval[int](in, "load('math', 'floor', c='ceil')\nfloor(2.5) + c(2.5)")
	if err != nil {
		t.Fatal(err)
	}
	if ret != 5 {
		t.Fatalf("got %v", ret)
	}
}

func TestMinimal(t *testing.T) {
	in, err := interp.New(
		interp.WithParser(Parser{}),
		interp.WithMinimal(true),
		interp.WithStderr(new(bytes.Buffer)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := in.Eval("def f():\n    pass", interp.RaiseErrors(true)); !errors.Is(err, evalerr.ErrConstructDisabled) {
		t.Fatalf("got %v", err)
	}
	if len(in.Errors()) != 1 {
		t.Fatalf("got %v", in.Errors())
	}
}
