package evaluator

import (
	"errors"
	"strings"
	"testing"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/policy"
	"github.com/reusee/taieval/pyparse"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
)

func testTable() *symtable.Flat {
	table := symtable.NewFlat()
	for _, name := range pyvalue.ExceptionNames() {
		class, _ := pyvalue.ClassByName(name)
		table.Define(name, class)
	}
	for name, typ := range pyvalue.Types {
		table.Define(name, typ)
	}
	table.Protection().MarkBuiltins(table.Names()...)
	return table
}

func newTestEvaluator(t *testing.T, opts Options) (*Evaluator, *symtable.Flat) {
	t.Helper()
	table := testTable()
	return New(table, opts), table
}

func run(t *testing.T, ev *Evaluator, src string) (any, error) {
	t.Helper()
	mod, err := pyparse.Parse("test", src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return ev.Run(mod)
}

func TestEval(t *testing.T) {
	cases := []struct {
		src      string
		expected string
	}{
		{"1 + 2", "3"},
		{"x = 5\nx * 2", "10"},
		{"x = 1", "None"},
		{"a = b = [1]\na is b", "True"},
		{"a, *b, c = range(5)\n(a, b, c)", "(0, [1, 2, 3], 4)"},
		{"[a, b] = 'xy'\nb + a", "'yx'"},
		{"0 or 'x'", "'x'"},
		{"1 and 0", "0"},
		{"not []", "True"},
		{"1 < 2 < 3", "True"},
		{"1 < 3 < 2", "False"},
		{"3 if 1 > 2 else 4", "4"},
		{"[1, 2, 3, 4][1:3]", "[2, 3]"},
		{"'hello'[::-1]", "'olleh'"},
		{"[*range(2), *'ab']", "[0, 1, 'a', 'b']"},
		{"{'a': 1, **{'b': 2}}", "{'a': 1, 'b': 2}"},
		{"{1, 2, 2}", "{1, 2}"},
		{"d = {'a': 1}\nd['a'] += 2\nd", "{'a': 3}"},
		{"l = [1, 2]\nl[0], l[1] = l[1], l[0]\nl", "[2, 1]"},
		{"x = 3.14159\nf'{x:.2f} {x!r:>9}'", "'3.14   3.14159'"},

		{"r = []\nfor i in range(5):\n    if i == 3:\n        break\n    r.append(i)\nelse:\n    r.append(-1)\nr", "[0, 1, 2]"},
		{"r = []\nfor i in range(2):\n    r.append(i)\nelse:\n    r.append(-1)\nr", "[0, 1, -1]"},
		{"i = 0\nwhile i < 3:\n    i += 1\nelse:\n    i = 10\ni", "10"},
		{"s = 0\nfor i in range(10):\n    if i % 2:\n        continue\n    s += i\ns", "20"},
		{"s = 0\nfor i in range(3):\n    for j in range(3):\n        if j == 1:\n            break\n        s += 1\ns", "3"},

		{"def f(a, b=2, *rest, k=3, **kw):\n    return (a, b, rest, k, kw)\nf(1, 5, 6, 7, k=4, z=9)", "(1, 5, (6, 7), 4, {'z': 9})"},
		{"def f(a, b=2):\n    return a - b\nf(b=1, a=5)", "4"},
		{"def f(a, b, c):\n    return a + b + c\nf(*[1, 2], **{'c': 3})", "6"},
		{"def f(x):\n    if x:\n        return 1\nf(0)", "None"},
		{"def outer(n):\n    def inner(x):\n        return x + n\n    return inner\nouter(10)(5)", "15"},
		{"def fib(n):\n    if n < 2:\n        return n\n    return fib(n - 1) + fib(n - 2)\nfib(10)", "55"},
		{"(lambda x, y=2: x * y)(4)", "8"},
		{"def twice(f):\n    return lambda x: f(f(x))\n@twice\ndef inc(x):\n    return x + 1\ninc(1)", "3"},
		{"n = 1\ndef bump():\n    global n\n    n += 1\nbump()\nn", "2"},
		{"n = 1\ndef shadow():\n    n = 2\n    return n\n(shadow(), n)", "(2, 1)"},
		{"def f(a, b=[1]):\n    pass\nf", "<Function f(a, b=[1])>"},
		{"def f(*args, k, **kw):\n    pass\nf", "<Function f(*args, k, **kw)>"},
		{"def f():\n    for i in range(10):\n        if i == 4:\n            return i\nf()", "4"},

		{"[x * x for x in range(5) if x % 2 == 0]", "[0, 4, 16]"},
		{"[(i, j) for i in range(2) for j in range(i, 2)]", "[(0, 0), (0, 1), (1, 1)]"},
		{"{k: v for k, v in [('a', 1), ('b', 2)]}", "{'a': 1, 'b': 2}"},
		{"{x % 3 for x in range(10)}", "{0, 1, 2}"},
		{"list(x + 1 for x in range(3))", "[1, 2, 3]"},
		{"n = 10\ndef f():\n    n = 1\n    return [n + i for i in range(2)]\nf()", "[1, 2]"},

		{"log = []\ntry:\n    1 / 0\nexcept ZeroDivisionError as e:\n    log.append('caught')\nelse:\n    log.append('else')\nfinally:\n    log.append('finally')\nlog", "['caught', 'finally']"},
		{"log = []\ntry:\n    pass\nexcept Exception:\n    log.append('caught')\nelse:\n    log.append('else')\nfinally:\n    log.append('finally')\nlog", "['else', 'finally']"},
		{"try:\n    [][1]\nexcept (KeyError, IndexError) as e:\n    r = 'lookup'\nr", "'lookup'"},
		{"try:\n    {}['k']\nexcept LookupError as e:\n    r = e.args\nr", "('k',)"},
		{"try:\n    raise ValueError('bad')\nexcept Exception as e:\n    r = e.args\nr", "('bad',)"},
		{"try:\n    undefined\nexcept NameError:\n    r = 1\nr", "1"},
		{"try:\n    try:\n        1 / 0\n    except ZeroDivisionError:\n        raise\nexcept ArithmeticError:\n    r = 'outer'\nr", "'outer'"},
		{"def f():\n    try:\n        return 1\n    finally:\n        r.append(2)\nr = []\n(f(), r)", "(1, [2])"},

		{"x = 1\ndel x\ny = 2", "None"},
		{"d = {'a': 1, 'b': 2}\ndel d['a']\nd", "{'b': 2}"},
		{"assert 1 == 1\n2", "2"},
		{"pass", "None"},
		{"'%s-%d' % ('a', 3)", "'a-3'"},
	}

	for _, c := range cases {
		ev, _ := newTestEvaluator(t, Options{})
		ret, err := run(t, ev, c.src)
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(ret); got != c.expected {
			t.Fatalf("%q: got %s", c.src, got)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind error
		name string
		msg  string
	}{
		{"undefined_name", evalerr.ErrNameResolution, "NameError", "name 'undefined_name' is not defined"},
		{"(1).__class__", evalerr.ErrAttributeDenied, "AttributeError", "__class__"},
		{"x = []\nx.__class__ = 1", evalerr.ErrAttributeDenied, "AttributeError", "__class__"},
		{"del (1).real.__doc__", evalerr.ErrAttributeDenied, "AttributeError", "__doc__"},
		{"(1).func_globals", evalerr.ErrAttributeDenied, "AttributeError", "func_globals"},
		{"2 ** 100000", evalerr.ErrResourceLimit, "RuntimeError", "max exponent is 10000"},
		{"1 << 2000", evalerr.ErrResourceLimit, "RuntimeError", "max left shift is 1000"},
		{"'a' * 300000", evalerr.ErrResourceLimit, "RuntimeError", "max string length"},
		{"1 / 0", evalerr.ErrArithmetic, "ZeroDivisionError", "division by zero"},
		{"raise ValueError('x')", evalerr.ErrUserRaised, "ValueError", "x"},
		{"raise", evalerr.ErrRuntime, "RuntimeError", "No active exception"},
		{"raise 1", evalerr.ErrTypeMismatch, "TypeError", "must derive from BaseException"},
		{"import os", evalerr.ErrConstructDisabled, "NotImplementedError", "'Import' not supported"},
		{"def f():\n    return f()\nf()", evalerr.ErrResourceLimit, "RecursionError", "maximum recursion depth"},
		{"a, b = 1, 2, 3", evalerr.ErrValue, "ValueError", "too many values to unpack"},
		{"a, b, c = 1, 2", evalerr.ErrValue, "ValueError", "not enough values to unpack"},
		{"a, b = 1", evalerr.ErrTypeMismatch, "TypeError", "cannot unpack non-iterable int"},
		{"def f(a):\n    pass\nf()", evalerr.ErrTypeMismatch, "TypeError", "not enough positional parameters [expected `1`, got `0`]"},
		{"def f(a):\n    pass\nf(1, 2)", evalerr.ErrTypeMismatch, "TypeError", "too many positional parameters"},
		{"def f(a):\n    pass\nf(1, a=2)", evalerr.ErrTypeMismatch, "TypeError", "multiple values for keyword argument `a`"},
		{"def f(a):\n    pass\nf(1, b=2, c=3)", evalerr.ErrTypeMismatch, "TypeError", "extra keyword arguments (`b,c`)"},
		{"def f(*, k):\n    pass\nf()", evalerr.ErrTypeMismatch, "TypeError", "missing keyword-only argument `k`"},
		{"break", evalerr.ErrSyntax, "SyntaxError", "'break' outside loop"},
		{"return 1", evalerr.ErrSyntax, "SyntaxError", "'return' outside function"},
		{"assert 1 == 2, 'nope'", evalerr.ErrUserRaised, "AssertionError", "nope"},
		{"try:\n    1 / 0\nexcept 5:\n    pass", evalerr.ErrTypeMismatch, "TypeError", "catching classes"},
		{"try:\n    1 / 0\nexcept KeyError:\n    pass", evalerr.ErrArithmetic, "ZeroDivisionError", "division by zero"},
		{"1()", evalerr.ErrTypeMismatch, "TypeError", "'int' object is not callable"},
		{"for = 1", nil, "", ""},
		{"del undefined_name", evalerr.ErrNameResolution, "NameError", "name 'undefined_name' is not defined"},
		{"f(*1)", evalerr.ErrNameResolution, "NameError", "name 'f' is not defined"},
		{"list(**1)", evalerr.ErrTypeMismatch, "TypeError", "argument after ** must be a mapping"},
		{"x = [i for i in range(3)]\ni", evalerr.ErrNameResolution, "NameError", "name 'i' is not defined"},
		{"def f():\n    y = 1\nf()\ny", evalerr.ErrNameResolution, "NameError", "name 'y' is not defined"},
	}

	for _, c := range cases {
		ev, _ := newTestEvaluator(t, Options{})
		mod, err := pyparse.Parse("test", c.src)
		if c.kind == nil {
			if err == nil {
				t.Fatalf("%q: should not parse", c.src)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parse %q: %v", c.src, err)
		}
		_, err = ev.Run(mod)
		if err == nil {
			t.Fatalf("%q: should fail", c.src)
		}
		if !errors.Is(err, c.kind) {
			t.Fatalf("%q: got %v", c.src, err)
		}
		var e *evalerr.Error
		if !errors.As(err, &e) {
			t.Fatalf("%q: got %T", c.src, err)
		}
		if e.Name != c.name {
			t.Fatalf("%q: got %s", c.src, e.Name)
		}
		if !strings.Contains(e.Msg, c.msg) {
			t.Fatalf("%q: got %s", c.src, e.Msg)
		}
		if ev.Errors().Len() != 1 || ev.Errors().First() != e {
			t.Fatalf("%q: got %v", c.src, ev.Errors().All())
		}
	}
}

func TestErrorPosition(t *testing.T) {
	ev, _ := newTestEvaluator(t, Options{})
	_, err := run(t, ev, "x = 1\ny = x + undefined")
	var e *evalerr.Error
	if !errors.As(err, &e) {
		t.Fatalf("got %v", err)
	}
	if e.Pos.Line != 2 || e.Pos.Column != 9 {
		t.Fatalf("got %v", e.Pos)
	}
	if e.Source != "test" {
		t.Fatalf("got %s", e.Source)
	}

	_, err = run(t, ev, "def f(x):\n    return 1 / x\nf(0)")
	if !errors.As(err, &e) {
		t.Fatalf("got %v", err)
	}
	if e.Pos.Line != 2 {
		t.Fatalf("got %v", e.Pos)
	}
}

func TestPartialCommit(t *testing.T) {
	ev, table := newTestEvaluator(t, Options{})
	if _, err := run(t, ev, "a = 1\nb = 1 / 0\nc = 3"); err == nil {
		t.Fatal("should fail")
	}
	if v, ok := table.Lookup("a"); !ok || v != int64(1) {
		t.Fatalf("got %v", v)
	}
	if table.Contains("c") {
		t.Fatal("c should not be assigned")
	}

	// errors are reset by the next run
	ret, err := run(t, ev, "a + 1")
	if err != nil {
		t.Fatal(err)
	}
	if ret != int64(2) {
		t.Fatalf("got %v", ret)
	}
	if ev.Errors().Len() != 0 {
		t.Fatalf("got %v", ev.Errors().All())
	}
}

func TestMinimalPolicy(t *testing.T) {
	ev, table := newTestEvaluator(t, Options{
		Policy: policy.Minimal(),
	})
	ret, err := run(t, ev, "x = 1 + 2\nx * 2")
	if err != nil {
		t.Fatal(err)
	}
	if ret != int64(6) {
		t.Fatalf("got %v", ret)
	}

	for _, src := range []string{
		"if 1:\n    y = 1",
		"for i in range(3):\n    y = i",
		"while False:\n    pass",
		"def f():\n    pass",
		"y = lambda: 1",
		"y = [i for i in range(3)]",
		"y = {i for i in range(3)}",
		"y = {i: i for i in range(3)}",
		"y = list(i for i in range(3))",
		"y = 1 if x else 2",
		"try:\n    pass\nexcept:\n    pass",
		"raise ValueError",
		"assert x",
		"del x",
		"x += 1",
		"y = f'{x}'",
	} {
		_, err := run(t, ev, src)
		if !errors.Is(err, evalerr.ErrConstructDisabled) {
			t.Fatalf("%q: got %v", src, err)
		}
		if table.Contains("y") {
			t.Fatalf("%q: should have no side effects", src)
		}
	}
	if v, _ := table.Lookup("x"); v != int64(3) {
		t.Fatalf("got %v", v)
	}
}

func TestReadonly(t *testing.T) {
	ev, table := newTestEvaluator(t, Options{})
	table.Define("pi", 3.14)
	table.Protection().MarkBuiltins("pi")
	table.Protection().BuiltinsReadonly = true

	for _, src := range []string{
		"pi = 3",
		"pi += 1",
		"del pi",
		"def f():\n    pi = 3\nf()",
		"for pi in range(3):\n    pass",
		"[1 for pi in range(3)]",
		"def pi():\n    pass",
		"int = 1",
	} {
		_, err := run(t, ev, src)
		if !errors.Is(err, evalerr.ErrNameResolution) {
			t.Fatalf("%q: got %v", src, err)
		}
		if v, _ := table.Lookup("pi"); v != 3.14 {
			t.Fatalf("%q: got %v", src, v)
		}
	}

	table.Protection().SetReadonly("pi", false)
	if _, err := run(t, ev, "pi = 3"); err != nil {
		t.Fatal(err)
	}
	if v, _ := table.Lookup("pi"); v != int64(3) {
		t.Fatalf("got %v", v)
	}
}

func TestNestedTable(t *testing.T) {
	top := symtable.NewGroup()
	top.Define("math.pi", 3.14)
	top.Define("math.tau", 6.28)
	top.Define("np.pi", "np-pi")
	top.Define("np.mean", "mean")
	top.SetSearchGroups("math", "np")
	ev := New(top, Options{})

	cases := []struct {
		src      string
		expected string
	}{
		{"pi", "3.14"},
		{"mean", "'mean'"},
		{"np.pi", "'np-pi'"},
		{"_searchgroups", "('math', 'np')"},
		{"_searchgroups = ('np', 'math')\npi", "'np-pi'"},
		{"math.e = 2.71\ne", "2.71"},
		{"pi = 3\n(pi, math.pi)", "(3, 3.14)"},
	}
	for _, c := range cases {
		ret, err := run(t, ev, c.src)
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(ret); got != c.expected {
			t.Fatalf("%q: got %s", c.src, got)
		}
	}
}

func TestMaxSteps(t *testing.T) {
	limits := pyvalue.DefaultLimits()
	limits.MaxSteps = 100
	ev, _ := newTestEvaluator(t, Options{
		Limits: limits,
	})
	_, err := run(t, ev, "while True:\n    pass")
	if !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	_, err = run(t, ev, "while True:\n    try:\n        while True:\n            pass\n    except:\n        pass")
	if !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	if _, err := run(t, ev, "for i in range(50):\n    pass"); err != nil {
		t.Fatal(err)
	}
}

func TestImport(t *testing.T) {
	p, err := policy.New(false, []policy.Override{
		policy.With("import", true),
		policy.With("importfrom", true),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ev, _ := newTestEvaluator(t, Options{
		Policy: p,
		Modules: map[string]*Module{
			"m": NewModule("m", map[string]any{
				"x":       int64(1),
				"_hidden": int64(2),
			}),
		},
	})

	cases := []struct {
		src      string
		expected string
	}{
		{"import m\nm.x", "1"},
		{"import m as n\nn", "<module 'm'>"},
		{"from m import x as y\ny", "1"},
		{"from m import *\nx", "1"},
	}
	for _, c := range cases {
		ret, err := run(t, ev, c.src)
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(ret); got != c.expected {
			t.Fatalf("%q: got %s", c.src, got)
		}
	}

	for _, src := range []string{
		"import os",
		"from os import path",
		"from m import nope",
		"from m import __dict__",
	} {
		_, err := run(t, ev, src)
		if !errors.Is(err, evalerr.ErrImportDenied) {
			t.Fatalf("%q: got %v", src, err)
		}
	}
	if _, err := run(t, ev, "from m import *\n_hidden"); !errors.Is(err, evalerr.ErrNameResolution) {
		t.Fatalf("got %v", err)
	}
}

type recorder struct {
	log []string
}

func (r *recorder) Enter(rt pyvalue.Runtime) (any, error) {
	r.log = append(r.log, "enter")
	return "resource", nil
}

func (r *recorder) Exit(rt pyvalue.Runtime, err *evalerr.Error) (bool, error) {
	if err != nil {
		r.log = append(r.log, "exit "+err.Name)
		return err.Name == "KeyError", nil
	}
	r.log = append(r.log, "exit")
	return false, nil
}

func TestWith(t *testing.T) {
	ev, table := newTestEvaluator(t, Options{})
	rec := new(recorder)
	table.Define("cm", rec)

	ret, err := run(t, ev, "with cm as r:\n    x = r\nx")
	if err != nil {
		t.Fatal(err)
	}
	if ret != "resource" {
		t.Fatalf("got %v", ret)
	}

	if _, err := run(t, ev, "with cm:\n    {}['k']\n"); err != nil {
		t.Fatalf("handled error should be suppressed: %v", err)
	}
	if _, err := run(t, ev, "with cm:\n    1 / 0\n"); !errors.Is(err, evalerr.ErrArithmetic) {
		t.Fatalf("got %v", err)
	}
	if got := strings.Join(rec.log, ","); got != "enter,exit,enter,exit KeyError,enter,exit ZeroDivisionError" {
		t.Fatalf("got %s", got)
	}

	if _, err := run(t, ev, "with 1:\n    pass"); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestTrace(t *testing.T) {
	var events []Event
	ev, _ := newTestEvaluator(t, Options{
		Trace: func(ev Event) {
			events = append(events, ev)
		},
	})
	if _, err := run(t, ev, "def f(x):\n    return x\ny = f(1)"); err != nil {
		t.Fatal(err)
	}
	var lines []string
	for _, e := range events {
		lines = append(lines, e.Kind.String()+": "+e.String())
	}
	got := strings.Join(lines, "\n")
	for _, expected := range []string{
		"assign: Line 1: Assigned value of <Function f(x)> to `f`.",
		"call: Line 3: Calling function f()...",
		"return: Line 1: Function `f` returned 1.",
		"assign: Line 3: Assigned value of 1 to `y`.",
	} {
		if !strings.Contains(got, expected) {
			t.Fatalf("missing %q in\n%s", expected, got)
		}
	}
}

func TestGoFunc(t *testing.T) {
	ev, table := newTestEvaluator(t, Options{})
	table.Define("add", func(a, b int) int {
		return a + b
	})
	table.Define("apply", pyvalue.WrapGoFunc("apply", func(fn func(int) int, v int) int {
		return fn(v)
	}))
	ret, err := run(t, ev, "add(1, 2) + apply(lambda x: x * 10, 4)")
	if err != nil {
		t.Fatal(err)
	}
	if ret != int64(43) {
		t.Fatalf("got %v", ret)
	}
}

func TestFunctionValueAttrs(t *testing.T) {
	ev, _ := newTestEvaluator(t, Options{})
	ret, err := run(t, ev, "def f():\n    'doc'\n(f.name, f.doc)")
	if err != nil {
		t.Fatal(err)
	}
	if got := pyvalue.Repr(ret); got != "('f', 'doc')" {
		t.Fatalf("got %s", got)
	}
	if _, err := run(t, ev, "def f():\n    pass\nf.__globals__"); !errors.Is(err, evalerr.ErrAttributeDenied) {
		t.Fatalf("got %v", err)
	}
}
