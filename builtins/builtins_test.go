package builtins

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/evaluator"
	"github.com/reusee/taieval/policy"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyparse"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
)

func newEvaluator(t *testing.T, opts evaluator.Options) *evaluator.Evaluator {
	t.Helper()
	table := symtable.NewFlat()
	// builtins go last so pow is the builtin, not math.pow
	for name, v := range Math() {
		table.Define(name, v)
	}
	table.Define("np", evaluator.NewModule("np", Numeric()))
	for name, v := range Builtins() {
		table.Define(name, v)
	}
	table.Protection().MarkBuiltins(table.Names()...)
	return evaluator.New(table, opts)
}

func eval(t *testing.T, ev *evaluator.Evaluator, src string) (any, error) {
	t.Helper()
	mod, err := pyparse.Parse("test", src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return ev.Run(mod)
}

func TestBuiltins(t *testing.T) {
	cases := []struct {
		src      string
		expected string
	}{
		{"abs(-3)", "3"},
		{"abs(-2.5)", "2.5"},
		{"abs(3+4j)", "5.0"},
		{"abs(-2**70)", "1180591620717411303424"},
		{"all([1, 2, 0])", "False"},
		{"all([])", "True"},
		{"any([0, '', 3])", "True"},
		{"ascii('é')", `"'\\xe9'"`},
		{"bin(5)", "'0b101'"},
		{"hex(255)", "'0xff'"},
		{"oct(-8)", "'-0o10'"},
		{"callable(len)", "True"},
		{"callable(1)", "False"},
		{"chr(97) + chr(0x4e2d)", "'a中'"},
		{"ord('a')", "97"},
		{"divmod(7, -2)", "(-4, -1)"},
		{"divmod(7.5, 2)", "(3.0, 1.5)"},
		{"list(enumerate('ab', 1))", "[(1, 'a'), (2, 'b')]"},
		{"list(filter(None, [0, 1, 2]))", "[1, 2]"},
		{"list(filter(lambda x: x > 1, [0, 1, 2, 3]))", "[2, 3]"},
		{"format(3.14159, '.3f')", "'3.142'"},
		{"getattr('abc', 'nope', 7)", "7"},
		{"getattr([], 'append') is not None", "True"},
		{"hasattr('abc', 'upper')", "True"},
		{"hasattr('abc', '__class__')", "False"},
		{"hash(1) == hash(1.0) == hash(True)", "True"},
		{"hash('a') == hash('a')", "True"},
		{"isinstance(1, int)", "True"},
		{"isinstance(True, (str, int))", "True"},
		{"isinstance(ValueError('x'), Exception)", "True"},
		{"it = iter([1, 2])\nnext(it) + next(it)", "3"},
		{"next(iter([]), 'done')", "'done'"},
		{"len('héllo')", "5"},
		{"len({'a': 1})", "1"},
		{"list(map(lambda a, b: a * b, [1, 2, 3], [4, 5]))", "[4, 10]"},
		{"max(3, 1, 2)", "3"},
		{"max([1, 5, 3])", "5"},
		{"min(['bb', 'a', 'ccc'], key=len)", "'a'"},
		{"max([], default=-1)", "-1"},
		{"pow(2, 10)", "1024"},
		{"pow(3, 4, 5)", "1"},
		{"pow(3, -1, 7)", "5"},
		{"pow(2, 3, -5)", "-2"},
		{"repr('a')", `"'a'"`},
		{"list(reversed([1, 2, 3]))", "[3, 2, 1]"},
		{"''.join(reversed('abc'))", "'cba'"},
		{"round(2.5)", "2"},
		{"round(3.5)", "4"},
		{"round(-0.5)", "0"},
		{"round(2.675, 2)", "2.67"},
		{"round(1234, -2)", "1200"},
		{"round(1250, -2)", "1200"},
		{"round(1350, -2)", "1400"},
		{"round(15.0, -1)", "20.0"},
		{"sorted([3, 1, 2])", "[1, 2, 3]"},
		{"sorted('bca', reverse=True)", "['c', 'b', 'a']"},
		{"sorted([(2, 'a'), (1, 'b')], key=lambda p: p[1])", "[(2, 'a'), (1, 'b')]"},
		{"sum([1, 2, 3])", "6"},
		{"sum([[1], [2]], [])", "[1, 2]"},
		{"sum([0.5] * 3, 1)", "2.5"},
		{"list(zip('ab', [1, 2, 3]))", "[('a', 1), ('b', 2)]"},
		{"list(zip())", "[]"},
		{"type(1) is int", "True"},
		{"bytearray(b'ab')", "b'ab'"},
		{"'x' in dir()", "False"},
		{"x = 1\n'x' in dir()", "True"},
		{"'upper' in dir('')", "True"},
		{"print('a', 1, sep='-', end='!')", "None"},
	}
	for _, c := range cases {
		ev := newEvaluator(t, evaluator.Options{})
		v, err := eval(t, ev, c.src)
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(v); got != c.expected {
			t.Fatalf("%q: got %s, expected %s", c.src, got, c.expected)
		}
	}
}

func TestMath(t *testing.T) {
	cases := []struct {
		src      string
		expected string
	}{
		{"sqrt(16)", "4.0"},
		{"floor(-2.5)", "-3"},
		{"ceil(2.1)", "3"},
		{"trunc(-2.7)", "-2"},
		{"floor(10**30)", "1000000000000000000000000000000"},
		{"factorial(20)", "2432902008176640000"},
		{"factorial(0)", "1"},
		{"gcd(12, 18, -8)", "2"},
		{"lcm(4, 6)", "12"},
		{"comb(5, 2)", "10"},
		{"perm(5, 2)", "20"},
		{"perm(3, 5)", "0"},
		{"isqrt(17)", "4"},
		{"isclose(0.1 + 0.2, 0.3)", "True"},
		{"fsum([0.1] * 10)", "1.0"},
		{"prod([1, 2, 3, 4])", "24"},
		{"hypot(3, 4)", "5.0"},
		{"dist((0, 0), (3, 4))", "5.0"},
		{"log(100, 10)", "2.0"},
		{"log2(8)", "3.0"},
		{"round(log(10**400), 4)", "921.034"},
		{"degrees(pi)", "180.0"},
		{"frexp(8.0)", "(0.5, 4)"},
		{"modf(2.5)", "(0.5, 2.0)"},
		{"isnan(nan)", "True"},
		{"isinf(-inf)", "True"},
		{"copysign(1, -0.0)", "-1.0"},
		{"tau == 2 * pi", "True"},
	}
	for _, c := range cases {
		ev := newEvaluator(t, evaluator.Options{})
		v, err := eval(t, ev, c.src)
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(v); got != c.expected {
			t.Fatalf("%q: got %s, expected %s", c.src, got, c.expected)
		}
	}
}

func TestNumeric(t *testing.T) {
	cases := []struct {
		src      string
		expected string
	}{
		{"np.arange(4)", "[0, 1, 2, 3]"},
		{"np.arange(0, 1, 0.25)", "[0.0, 0.25, 0.5, 0.75]"},
		{"np.linspace(0, 1, 5)", "[0.0, 0.25, 0.5, 0.75, 1.0]"},
		{"np.zeros(2)", "[0.0, 0.0]"},
		{"np.ones(2)", "[1.0, 1.0]"},
		{"np.full(2, 'x')", "['x', 'x']"},
		{"np.mean([1, 2, 3, 4])", "2.5"},
		{"np.median([3, 1, 2])", "2.0"},
		{"np.var([1, 2, 3, 4])", "1.25"},
		{"np.std([2, 4, 4, 4, 5, 5, 7, 9])", "2.0"},
		{"np.cumsum([1, 2, 3])", "[1, 3, 6]"},
		{"np.cumprod([1, 2, 3])", "[1, 2, 6]"},
		{"np.diff([1, 4, 9])", "[3, 5]"},
		{"np.dot([1, 2, 3], [4, 5, 6])", "32"},
		{"np.cross([1, 0, 0], [0, 1, 0])", "[0, 0, 1]"},
		{"np.clip([1, 5, 10], 2, 8)", "[2, 5, 8]"},
		{"np.argmax([1, 9, 3])", "1"},
		{"np.argmin([4, 2, 8])", "1"},
		{"np.sort([3, 1, 2])", "[1, 2, 3]"},
		{"np.unique([3, 1, 3, 2, 1])", "[1, 2, 3]"},
		{"np.where([True, False, True])", "[0, 2]"},
		{"np.where([True, False], [1, 2], 0)", "[1, 0]"},
		{"np.sqrt([1, 4, 9])", "[1.0, 2.0, 3.0]"},
		{"np.sign(-3)", "-1.0"},
		{"np.absolute([-1, 2])", "[1.0, 2.0]"},
	}
	for _, c := range cases {
		ev := newEvaluator(t, evaluator.Options{})
		v, err := eval(t, ev, c.src)
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if got := pyvalue.Repr(v); got != c.expected {
			t.Fatalf("%q: got %s, expected %s", c.src, got, c.expected)
		}
	}
}

func TestBuiltinErrors(t *testing.T) {
	cases := []struct {
		src  string
		kind error
		name string
		msg  string
	}{
		{"sqrt(-1)", evalerr.ErrValue, "ValueError", "math domain error"},
		{"log(0)", evalerr.ErrValue, "ValueError", "math domain error"},
		{"exp(1000)", evalerr.ErrArithmetic, "OverflowError", "math range error"},
		{"factorial(-1)", evalerr.ErrValue, "ValueError", "negative"},
		{"factorial(10**6)", evalerr.ErrResourceLimit, "RuntimeError", "too large"},
		{"pow(2, 100000)", evalerr.ErrResourceLimit, "RuntimeError", "max exponent"},
		{"pow(2, 3, 0)", evalerr.ErrValue, "ValueError", "cannot be 0"},
		{"pow(2.0, 3, 5)", evalerr.ErrTypeMismatch, "TypeError", "3rd argument"},
		{"chr(-1)", evalerr.ErrValue, "ValueError", "range"},
		{"ord('ab')", evalerr.ErrTypeMismatch, "TypeError", "length 2"},
		{"len(1)", evalerr.ErrTypeMismatch, "TypeError", "has no len()"},
		{"max([])", evalerr.ErrValue, "ValueError", "empty sequence"},
		{"next(iter([]))", evalerr.ErrRuntime, "StopIteration", ""},
		{"sum(['a'], '')", evalerr.ErrTypeMismatch, "TypeError", "can't sum strings"},
		{"getattr(1, '__class__', None)", evalerr.ErrAttributeDenied, "AttributeError", "no safe attribute"},
		{"list(reversed({1}))", evalerr.ErrTypeMismatch, "TypeError", "not reversible"},
		{"list(zip([1], [1, 2], strict=True))", evalerr.ErrValue, "ValueError", "different lengths"},
		{"np.mean([])", evalerr.ErrValue, "ValueError", "empty"},
		{"round(float('inf'))", evalerr.ErrArithmetic, "OverflowError", "infinity"},
	}
	for _, c := range cases {
		ev := newEvaluator(t, evaluator.Options{})
		_, err := eval(t, ev, c.src)
		if err == nil {
			t.Fatalf("%q: expected error", c.src)
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
			t.Fatalf("%q: got %q", c.src, e.Msg)
		}
	}
}

func TestCatchBuiltinErrors(t *testing.T) {
	ev := newEvaluator(t, evaluator.Options{})
	v, err := eval(t, ev, `
r = []
try:
    next(iter([]))
except StopIteration:
    r.append('stop')
try:
    sqrt(-1)
except ValueError as e:
    r.append(str(e))
r
`)
	if err != nil {
		t.Fatal(err)
	}
	if got := pyvalue.Repr(v); got != "['stop', 'math domain error']" {
		t.Fatalf("got %s", got)
	}
}

func TestPrint(t *testing.T) {
	out := new(bytes.Buffer)
	ev := newEvaluator(t, evaluator.Options{
		Stdout: out,
	})
	if _, err := eval(t, ev, "print('a', 1, [2])\nprint('x', 'y', sep='-', end='!')"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "a 1 [2]\nx-y!" {
		t.Fatalf("got %q", got)
	}

	ev = newEvaluator(t, evaluator.Options{
		Stdout: out,
		Policy: policy.Minimal(),
	})
	_, err := eval(t, ev, "print(1)")
	if !errors.Is(err, evalerr.ErrConstructDisabled) {
		t.Fatalf("got %v", err)
	}

	p, err := policy.New(true, []policy.Override{policy.With(pyast.ConstructPrint, true)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	out.Reset()
	ev = newEvaluator(t, evaluator.Options{
		Stdout: out,
		Policy: p,
	})
	if _, err := eval(t, ev, "print(1)"); err != nil {
		t.Fatal(err)
	}
	if out.String() != "1\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("one\ntwo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ev := newEvaluator(t, evaluator.Options{})
	ev.Table().Define("path", path)

	v, err := eval(t, ev, "with open(path) as f:\n    lines = f.readlines()\nlines")
	if err != nil {
		t.Fatal(err)
	}
	if got := pyvalue.Repr(v); got != "['one\\n', 'two\\n']" {
		t.Fatalf("got %s", got)
	}

	_, err = eval(t, ev, "open(path, 'w')")
	if err == nil {
		t.Fatal("expected error")
	}

	_, err = eval(t, ev, "open(path + '.missing')")
	var e *evalerr.Error
	if !errors.As(err, &e) || e.Name != "FileNotFoundError" {
		t.Fatalf("got %v", err)
	}
}

func TestModules(t *testing.T) {
	mods := Modules()
	m, ok := mods["math"]
	if !ok {
		t.Fatal("no math module")
	}
	if _, ok := m["sqrt"]; !ok {
		t.Fatal("no sqrt")
	}
	names := Builtins()
	for _, name := range []string{"len", "print", "ValueError", "int", "open", "sorted"} {
		if _, ok := names[name]; !ok {
			t.Fatalf("missing %s", name)
		}
	}
}
