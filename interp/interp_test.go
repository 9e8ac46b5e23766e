package interp

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
)

func newInterp(t *testing.T, opts ...Option) (*Interpreter, *bytes.Buffer) {
	t.Helper()
	stderr := new(bytes.Buffer)
	in, err := New(append([]Option{
		WithStdout(new(bytes.Buffer)),
		WithStderr(stderr),
	}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return in, stderr
}

func TestMinimal(t *testing.T) {
	in, _ := newInterp(t, WithMinimal(true))

	ret, err := in.Eval("(1 + 2) * 3 - 4 / 2 ** 2", RaiseErrors(true))
	if err != nil {
		t.Fatal(err)
	}
	if ret != 8.0 {
		t.Fatalf("got %v", ret)
	}

	ret, err = in.Eval("for i in range(3):\n    x = i")
	if err != nil {
		t.Fatal(err)
	}
	if ret != nil {
		t.Fatalf("got %v", ret)
	}
	errs := in.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %v", errs)
	}
	if !errors.Is(errs[0], evalerr.ErrConstructDisabled) {
		t.Fatalf("got %v", errs[0])
	}
	if _, ok := in.Lookup("x"); ok {
		t.Fatal("should not assign")
	}
}

func TestAssignLookup(t *testing.T) {
	in, _ := newInterp(t)
	if _, err := in.Eval("x = 5", RaiseErrors(true)); err != nil {
		t.Fatal(err)
	}
	v, ok := in.Lookup("x")
	if !ok {
		t.Fatal("not found")
	}
	if v != int64(5) {
		t.Fatalf("got %v", v)
	}

	in.Define("y", int64(7))
	ret, err := Eval[int](in, "x * y")
	if err != nil {
		t.Fatal(err)
	}
	if ret != 35 {
		t.Fatalf("got %v", ret)
	}
}

func TestDeniedAttribute(t *testing.T) {
	in, _ := newInterp(t,
		WithConstruct("import", true),
		WithConstruct("importfrom", true),
	)
	for _, src := range []string{
		"(1).__class__",
		"'a'.__class__.__bases__",
		"f = lambda: 1\nf.__globals__",
		"getattr(1, '__class__')",
		"[].__class__",
		"import math\nmath.__dict__",
	} {
		_, err := in.Eval(src, RaiseErrors(true))
		if !errors.Is(err, evalerr.ErrAttributeDenied) {
			t.Fatalf("%q: got %v", src, err)
		}
	}
}

func TestExponentLimit(t *testing.T) {
	in, _ := newInterp(t)
	_, err := in.Eval("2 ** 20000", RaiseErrors(true))
	if !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	ret, err := in.Eval("2 ** 10", RaiseErrors(true))
	if err != nil {
		t.Fatal(err)
	}
	if ret != int64(1024) {
		t.Fatalf("got %v", ret)
	}

	limits := pyvalue.DefaultLimits()
	limits.MaxExponent = 100
	in, _ = newInterp(t, WithLimits(limits))
	if _, err := in.Eval("2 ** 200", RaiseErrors(true)); !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
}

func TestNestedReadonly(t *testing.T) {
	in, _ := newInterp(t, WithNested(true), WithBuiltinsReadonly(true))
	for _, src := range []string{
		"_searchgroups = ()",
		"math._searchgroups = ()",
		"math.cos = 1",
		"math['cos'] = 1",
		"del math.cos",
		"cos = 1",
	} {
		_, err := in.Eval(src, RaiseErrors(true))
		if !errors.Is(err, evalerr.ErrNameResolution) {
			t.Fatalf("%q: got %v", src, err)
		}
	}
	ret, err := Eval[float64](in, "cos(0)")
	if err != nil {
		t.Fatal(err)
	}
	if ret != 1 {
		t.Fatalf("got %v", ret)
	}
}

func TestNestedSearchOrder(t *testing.T) {
	in, _ := newInterp(t, WithNested(true), WithNumeric(true))

	ret, err := Eval[string](in, "repr(_searchgroups)")
	if err != nil {
		t.Fatal(err)
	}
	if ret != "('math', 'np')" {
		t.Fatalf("got %v", ret)
	}

	cos, ok := in.Lookup("cos")
	if !ok {
		t.Fatal("not found")
	}
	mathCos, _ := in.Lookup("math.cos")
	if pyvalue.Repr(cos) != pyvalue.Repr(mathCos) {
		t.Fatalf("got %v", pyvalue.Repr(cos))
	}

	in.Define("cos", int64(1))
	v, err := Eval[int](in, "cos")
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("got %v", v)
	}
	f, err := Eval[float64](in, "math.cos(0)")
	if err != nil {
		t.Fatal(err)
	}
	if f != 1 {
		t.Fatalf("got %v", f)
	}
	m, err := Eval[float64](in, "mean([1, 2, 3])")
	if err != nil {
		t.Fatal(err)
	}
	if m != 2 {
		t.Fatalf("got %v", m)
	}
}

func TestErrorReset(t *testing.T) {
	in, _ := newInterp(t)
	in.Eval("1 / 0")
	if n := len(in.Errors()); n != 1 {
		t.Fatalf("got %v", n)
	}
	if !errors.Is(in.Errors()[0], evalerr.ErrArithmetic) {
		t.Fatalf("got %v", in.Errors()[0])
	}
	if _, err := in.Eval("1 + 1"); err != nil {
		t.Fatal(err)
	}
	if n := len(in.Errors()); n != 0 {
		t.Fatalf("got %v", n)
	}

	in.Eval("x = ")
	if errs := in.Errors(); len(errs) != 1 || !errors.Is(errs[0], evalerr.ErrSyntax) {
		t.Fatalf("got %v", errs)
	}
	in.Eval("2")
	if n := len(in.Errors()); n != 0 {
		t.Fatalf("got %v", n)
	}
}

func TestReadonlyBuiltins(t *testing.T) {
	in, _ := newInterp(t, WithBuiltinsReadonly(true))
	pi, _ := in.Lookup("pi")
	_, err := in.Eval("pi = 3", RaiseErrors(true))
	if !errors.Is(err, evalerr.ErrNameResolution) {
		t.Fatalf("got %v", err)
	}
	if v, _ := in.Lookup("pi"); v != pi {
		t.Fatalf("got %v", v)
	}
	if err := in.Remove("pi"); err == nil {
		t.Fatal("should fail")
	}

	in, _ = newInterp(t)
	if _, err := in.Eval("pi = 3", RaiseErrors(true)); err != nil {
		t.Fatal(err)
	}

	in, _ = newInterp(t, WithReadonlySymbols("answer"))
	in.Define("answer", int64(42))
	if _, err := in.Eval("answer = 1", RaiseErrors(true)); !errors.Is(err, evalerr.ErrNameResolution) {
		t.Fatalf("got %v", err)
	}
}

func TestSumLoop(t *testing.T) {
	in, _ := newInterp(t)
	if _, err := in.Eval("sum=0\nfor i in range(5):\n sum += i\n", RaiseErrors(true)); err != nil {
		t.Fatal(err)
	}
	v, _ := in.Lookup("sum")
	if v != int64(10) {
		t.Fatalf("got %v", v)
	}
}

func TestLongSequences(t *testing.T) {
	in, _ := newInterp(t)
	for _, src := range []string{
		"len([i for i in range(300000)])",
		"len(list(i for i in range(300000)))",
		"xs = list(range(200000))\nlen(xs + xs)",
		"xs = []\nxs.extend(range(300000))\nxs.append(1)\nlen(xs)",
	} {
		ret, err := in.Eval(src, RaiseErrors(true))
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		if n, ok := ret.(int64); !ok || n < 262144 {
			t.Fatalf("%q: got %v", src, ret)
		}
	}
	if _, err := in.Eval("'a' * 300000", RaiseErrors(true)); !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
}

func TestPrintErrors(t *testing.T) {
	in, stderr := newInterp(t)
	in.Eval("x = 1\ny = undefined_name + 1", LineOffset(10))
	errs := in.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %v", errs)
	}
	if errs[0].Pos.Line != 12 {
		t.Fatalf("got %v", errs[0].Pos)
	}
	out := stderr.String()
	if !strings.Contains(out, "NameError") {
		t.Fatalf("got %s", out)
	}
	if !strings.Contains(out, "y = undefined_name + 1\n    ^") {
		t.Fatalf("got %s", out)
	}

	stderr.Reset()
	in.Eval("1 / 0", PrintErrors(false))
	if stderr.Len() != 0 {
		t.Fatalf("got %s", stderr.String())
	}
}

func TestRaiseErrors(t *testing.T) {
	in, _ := newInterp(t)
	ret, err := in.Eval("x = 1\nraise ValueError('bad')\nx = 2")
	if err != nil || ret != nil {
		t.Fatalf("got %v %v", ret, err)
	}
	_, err = in.Call("raise ValueError('bad')", RaiseErrors(true))
	var e *evalerr.Error
	if !errors.As(err, &e) {
		t.Fatalf("got %v", err)
	}
	if e.Name != "ValueError" || e.Msg != "bad" {
		t.Fatalf("got %v", e)
	}
	if v, _ := in.Lookup("x"); v != int64(1) {
		t.Fatalf("got %v", v)
	}
}

func TestStatementLength(t *testing.T) {
	limits := pyvalue.DefaultLimits()
	limits.MaxStatementLength = 10
	in, _ := newInterp(t, WithLimits(limits))
	_, err := in.Eval("x = 1 + 2 + 3 + 4", RaiseErrors(true))
	if !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	if _, err := in.Eval("x = 1", RaiseErrors(true)); err != nil {
		t.Fatal(err)
	}
}

func TestDefineFunc(t *testing.T) {
	in, _ := newInterp(t)
	if err := in.DefineFunc("join", func(sep string, parts []string) string {
		return strings.Join(parts, sep)
	}); err != nil {
		t.Fatal(err)
	}
	ret, err := Eval[string](in, "join('-', ['a', 'b', 'c'])")
	if err != nil {
		t.Fatal(err)
	}
	if ret != "a-b-c" {
		t.Fatalf("got %v", ret)
	}
	if err := in.DefineFunc("bad", 1); err == nil {
		t.Fatal("should fail")
	}
}

func TestNames(t *testing.T) {
	in, _ := newInterp(t)
	names, err := in.Names("a + b * sqrt(a) - c.d")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(names, ","); got != "a,b,sqrt,c" {
		t.Fatalf("got %v", got)
	}
}

func TestTrace(t *testing.T) {
	in, _ := newInterp(t, WithTrace(true))
	if _, err := in.Eval("def f(x):\n    return x * 2\ny = f(2)", RaiseErrors(true)); err != nil {
		t.Fatal(err)
	}
	var lines []string
	for _, ev := range in.Trace() {
		lines = append(lines, ev.String())
	}
	got := strings.Join(lines, "\n")
	if !strings.Contains(got, "Line 3: Assigned value of 4 to `y`.") {
		t.Fatalf("got %s", got)
	}

	in.Eval("z = 1")
	for _, ev := range in.Trace() {
		if strings.Contains(ev.Message, "`y`") {
			t.Fatalf("trace not reset: %v", ev)
		}
	}
}

func TestImportModules(t *testing.T) {
	in, _ := newInterp(t)
	if _, err := in.Eval("import math", RaiseErrors(true)); !errors.Is(err, evalerr.ErrConstructDisabled) {
		t.Fatalf("got %v", err)
	}

	in, _ = newInterp(t,
		WithConstruct("import", true),
		WithConstruct("importfrom", true),
		WithModules(map[string]map[string]any{
			"units": {
				"km": int64(1000),
			},
		}),
	)
	ret, err := Eval[int](in, "import units\nfrom math import floor\nunits.km * floor(2.5)")
	if err != nil {
		t.Fatal(err)
	}
	if ret != 2000 {
		t.Fatalf("got %v", ret)
	}
	if _, err := in.Eval("import os", RaiseErrors(true)); !errors.Is(err, evalerr.ErrImportDenied) {
		t.Fatalf("got %v", err)
	}
}

func TestConfig(t *testing.T) {
	in, _ := newInterp(t, WithConfig(map[string]bool{
		"while": false,
	}))
	if _, err := in.Eval("while False:\n    pass", RaiseErrors(true)); !errors.Is(err, evalerr.ErrConstructDisabled) {
		t.Fatalf("got %v", err)
	}
	if in.Policy().Enabled("while") {
		t.Fatal("should be disabled")
	}

	if _, err := New(WithConstruct("goto", true)); err == nil {
		t.Fatal("should fail")
	}
}

func TestSuppliedSymbolTable(t *testing.T) {
	table := symtable.NewFlat()
	table.Define("a", int64(2))
	in, _ := newInterp(t, WithSymbolTable(table))
	ret, err := Eval[int](in, "a * 3")
	if err != nil {
		t.Fatal(err)
	}
	if ret != 6 {
		t.Fatalf("got %v", ret)
	}
	if _, err := in.Eval("abs(-1)", RaiseErrors(true)); !errors.Is(err, evalerr.ErrNameResolution) {
		t.Fatalf("got %v", err)
	}
	if in.Symtable() != symtable.Table(table) {
		t.Fatal("should be the same table")
	}
}

func TestParseRun(t *testing.T) {
	in, _ := newInterp(t)
	mod, err := in.Parse("x = 3\nx + 1")
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		ret, err := in.Run(mod, RaiseErrors(true))
		if err != nil {
			t.Fatal(err)
		}
		if ret != int64(4) {
			t.Fatalf("got %v", ret)
		}
	}
	if _, err := in.Parse("x ="); !errors.Is(err, evalerr.ErrSyntax) {
		t.Fatalf("got %v", err)
	}
}

func TestModule(t *testing.T) {
	logBuf := new(bytes.Buffer)
	dscope.New(
		new(Module),
		dscope.Provide(Options{
			Minimal: true,
			Stderr:  new(bytes.Buffer),
		}),
	).Fork(
		func() logs.Writer {
			return logBuf
		},
	).Call(func(
		newInterpreter NewInterpreter,
	) {
		in, err := newInterpreter()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := in.Eval("if 1:\n    pass", RaiseErrors(true)); !errors.Is(err, evalerr.ErrConstructDisabled) {
			t.Fatalf("got %v", err)
		}
		if !strings.Contains(logBuf.String(), "evaluation error") {
			t.Fatalf("got %s", logBuf.String())
		}

		in, err = newInterpreter(WithConstruct("if", true))
		if err != nil {
			t.Fatal(err)
		}
		ret, err := Eval[int](in, "x = 0\nif 1:\n    x = 2\nx")
		if err != nil {
			t.Fatal(err)
		}
		if ret != 2 {
			t.Fatalf("got %v", ret)
		}
	})
}

func TestImportable(t *testing.T) {
	in, _ := newInterp(t,
		WithConstruct("import", true),
		WithModules(map[string]map[string]any{
			"units": {
				"km": int64(1000),
			},
		}),
		WithImportable("units"),
	)
	if _, err := in.Eval("import units", RaiseErrors(true)); err != nil {
		t.Fatal(err)
	}
	if _, err := in.Eval("import math", RaiseErrors(true)); !errors.Is(err, evalerr.ErrImportDenied) {
		t.Fatalf("got %v", err)
	}
}

func TestDefineGoValues(t *testing.T) {
	in, _ := newInterp(t)
	in.Define("n", 3)
	in.Define("weights", map[string]float64{
		"a": 0.5,
	})
	in.Define("xs", []int{1, 2, 3})
	ret, err := Eval[float64](in, "n * weights['a'] + xs[-1] + sum(xs)")
	if err != nil {
		t.Fatal(err)
	}
	if ret != 10.5 {
		t.Fatalf("got %v", ret)
	}
	if _, err := in.Eval("weights['b']", RaiseErrors(true)); !errors.Is(err, evalerr.ErrLookup) {
		t.Fatalf("got %v", err)
	}
}
