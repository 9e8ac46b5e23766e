package pyvalue

import (
	"errors"
	"math/big"
	"testing"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
)

func TestBinary(t *testing.T) {
	limits := DefaultLimits()
	cases := []struct {
		op       pyast.Op
		x, y     any
		expected any
	}{
		{pyast.Add, int64(1), int64(2), int64(3)},
		{pyast.Add, int64(1), 0.5, 1.5},
		{pyast.Add, true, true, int64(2)},
		{pyast.Div, int64(7), int64(2), 3.5},
		{pyast.FloorDiv, int64(-7), int64(2), int64(-4)},
		{pyast.Mod, int64(7), int64(-3), int64(-2)},
		{pyast.Mod, -1.0, 3.0, 2.0},
		{pyast.Pow, int64(2), int64(10), int64(1024)},
		{pyast.Pow, int64(2), int64(-1), 0.5},
		{pyast.LShift, int64(1), int64(4), int64(16)},
		{pyast.RShift, int64(-16), int64(2), int64(-4)},
		{pyast.BitAnd, true, false, false},
		{pyast.BitXor, int64(6), int64(3), int64(5)},
		{pyast.Add, "foo", "bar", "foobar"},
		{pyast.Mult, "ab", int64(3), "ababab"},
		{pyast.Mult, int64(2), "x", "xx"},
		{pyast.Mod, "%d-%s", Tuple{int64(1), "a"}, "1-a"},
	}
	for _, c := range cases {
		got, err := Binary(c.op, c.x, c.y, limits)
		if err != nil {
			t.Fatalf("%v %v %v: %v", c.x, c.op, c.y, err)
		}
		if !Equal(got, c.expected) || TypeName(got) != TypeName(c.expected) {
			t.Fatalf("%v %v %v: got %v", Repr(c.x), c.op, Repr(c.y), Repr(got))
		}
	}
}

func TestBinaryBigInt(t *testing.T) {
	got, err := Binary(pyast.Pow, int64(2), int64(100), DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	b, ok := got.(*big.Int)
	if !ok {
		t.Fatalf("got %T", got)
	}
	if b.String() != "1267650600228229401496703205376" {
		t.Fatalf("got %v", b)
	}
	got, err = Binary(pyast.Sub, got, got, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(0) {
		t.Fatalf("got %#v", got)
	}
}

func TestBinaryErrors(t *testing.T) {
	limits := DefaultLimits()
	cases := []struct {
		op   pyast.Op
		x, y any
		kind evalerr.Kind
		name string
		msg  string
	}{
		{pyast.Div, int64(1), int64(0), evalerr.KindArithmetic, "ZeroDivisionError", "division by zero"},
		{pyast.Mod, 1.0, 0.0, evalerr.KindArithmetic, "ZeroDivisionError", "float modulo"},
		{pyast.Pow, int64(2), int64(10001), evalerr.KindResourceLimit, "RuntimeError", "Invalid exponent, max exponent is 10000"},
		{pyast.LShift, int64(1), int64(1001), evalerr.KindResourceLimit, "RuntimeError", "Invalid left shift, max left shift is 1000"},
		{pyast.RShift, int64(1), int64(1001), evalerr.KindResourceLimit, "RuntimeError", "Invalid right shift, max right shift is 1000"},
		{pyast.Add, "a", int64(1), evalerr.KindTypeMismatch, "TypeError", `can only concatenate str (not "int") to str`},
		{pyast.Sub, "a", "b", evalerr.KindTypeMismatch, "TypeError", "unsupported operand type(s) for -: 'str' and 'str'"},
		{pyast.Mult, "ab", int64(1 << 20), evalerr.KindResourceLimit, "RuntimeError", "String length exceeded, max string length is 262144"},
	}
	for _, c := range cases {
		_, err := Binary(c.op, c.x, c.y, limits)
		var e *evalerr.Error
		if !errors.As(err, &e) {
			t.Fatalf("%v %v %v: got %v", c.x, c.op, c.y, err)
		}
		if e.Kind != c.kind || e.Name != c.name || e.Msg != c.msg {
			t.Fatalf("%v %v %v: got %v %v %q", c.x, c.op, c.y, e.Kind, e.Name, e.Msg)
		}
	}
}

func TestUnary(t *testing.T) {
	got, err := Unary(pyast.USub, int64(3))
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(-3) {
		t.Fatalf("got %v", got)
	}
	got, err = Unary(pyast.Invert, int64(0))
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(-1) {
		t.Fatalf("got %v", got)
	}
	got, err = Unary(pyast.Not, NewList(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got != true {
		t.Fatalf("got %v", got)
	}
	if _, err := Unary(pyast.USub, "a"); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestTruth(t *testing.T) {
	for _, v := range []any{nil, false, int64(0), 0.0, "", Bytes{}, NewList(nil), Tuple{}, NewDict(), NewSet(), &Range{Start: 0, Stop: 0, Step: 1}} {
		if Truth(v) {
			t.Fatalf("%s should be false", Repr(v))
		}
	}
	for _, v := range []any{true, int64(1), 0.1, "a", Tuple{nil}, Ellipsis} {
		if !Truth(v) {
			t.Fatalf("%s should be true", Repr(v))
		}
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		op       pyast.CmpOp
		x, y     any
		expected bool
	}{
		{pyast.Eq, int64(1), 1.0, true},
		{pyast.Eq, true, int64(1), true},
		{pyast.Lt, int64(1), 1.5, true},
		{pyast.Lt, "a", "b", true},
		{pyast.Lt, Tuple{int64(1), int64(2)}, Tuple{int64(1), int64(3)}, true},
		{pyast.GtE, NewList([]any{int64(2)}), NewList([]any{int64(1), int64(9)}), true},
		{pyast.In, "b", "abc", true},
		{pyast.NotIn, int64(3), NewList([]any{int64(1)}), true},
		{pyast.In, int64(4), &Range{Start: 0, Stop: 10, Step: 2}, true},
		{pyast.Is, nil, nil, true},
		{pyast.IsNot, int64(1), nil, true},
	}
	for _, c := range cases {
		got, err := Compare(c.op, c.x, c.y)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.expected {
			t.Fatalf("%s %v %s: got %v", Repr(c.x), c.op, Repr(c.y), got)
		}
	}

	if _, err := Compare(pyast.Lt, int64(1), "a"); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestHashKey(t *testing.T) {
	a, err := HashKey(int64(1))
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashKey(1.0)
	if err != nil {
		t.Fatal(err)
	}
	c, err := HashKey(true)
	if err != nil {
		t.Fatal(err)
	}
	if a != b || a != c {
		t.Fatalf("got %q %q %q", a, b, c)
	}
	if _, err := HashKey(NewList(nil)); err == nil {
		t.Fatal("list should be unhashable")
	}
	if _, err := HashKey(Tuple{int64(1), "a"}); err != nil {
		t.Fatal(err)
	}
}
