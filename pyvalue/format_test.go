package pyvalue

import (
	"errors"
	"math"
	"testing"

	"github.com/reusee/taieval/evalerr"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		v        any
		spec     string
		expected string
	}{
		{int64(42), "", "42"},
		{int64(42), "5d", "   42"},
		{int64(42), "<5", "42   "},
		{int64(42), "^6", "  42  "},
		{int64(42), "*>6", "****42"},
		{int64(-42), "06", "-00042"},
		{int64(1234567), ",", "1,234,567"},
		{int64(255), "#x", "0xff"},
		{int64(255), "X", "FF"},
		{int64(5), "b", "101"},
		{int64(5), "+d", "+5"},
		{int64(65), "c", "A"},
		{3.14159, ".2f", "3.14"},
		{3.14159, "8.3f", "   3.142"},
		{1234.5, ",.1f", "1,234.5"},
		{0.5, ".0%", "50%"},
		{12345.678, ".3e", "1.235e+04"},
		{0.0001, "g", "0.0001"},
		{1e20, "g", "1e+20"},
		{2.0, "", "2.0"},
		{math.Inf(1), "f", "inf"},
		{int64(3), ".2f", "3.00"},
		{"abc", ">5", "  abc"},
		{"abcdef", ".3", "abc"},
		{true, "", "True"},
		{nil, ">6", "  None"},
	}
	for _, c := range cases {
		got, err := Format(c.v, c.spec)
		if err != nil {
			t.Fatalf("%s %q: %v", Repr(c.v), c.spec, err)
		}
		if got != c.expected {
			t.Fatalf("%s %q: got %q", Repr(c.v), c.spec, got)
		}
	}

	if _, err := Format("a", "d"); !errors.Is(err, evalerr.ErrValue) {
		t.Fatalf("got %v", err)
	}
	if _, err := Format(int64(1), ".2d"); !errors.Is(err, evalerr.ErrValue) {
		t.Fatalf("got %v", err)
	}
}

func TestPercentFormat(t *testing.T) {
	d := NewDict()
	d.SetString("name", "x")
	d.SetString("n", int64(3))
	cases := []struct {
		format   string
		args     any
		expected string
	}{
		{"%s", "a", "a"},
		{"%r", "a", "'a'"},
		{"%5.2f|%-4d|", Tuple{3.14159, int64(7)}, " 3.14|7   |"},
		{"%x %o %X", Tuple{int64(255), int64(8), int64(255)}, "ff 10 FF"},
		{"%05d", int64(42), "00042"},
		{"%+d", int64(5), "+5"},
		{"%e", 12345.678, "1.234568e+04"},
		{"%c%c", Tuple{int64(72), "i"}, "Hi"},
		{"%(name)s=%(n)d", d, "x=3"},
		{"%*d", Tuple{int64(4), int64(1)}, "   1"},
		{"100%%", Tuple{}, "100%"},
	}
	for _, c := range cases {
		got, err := PercentFormat(c.format, c.args)
		if err != nil {
			t.Fatalf("%q: %v", c.format, err)
		}
		if got != c.expected {
			t.Fatalf("%q: got %q", c.format, got)
		}
	}

	if _, err := PercentFormat("%d %d", Tuple{int64(1)}); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}
	if _, err := PercentFormat("%d", Tuple{int64(1), int64(2)}); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestStrFormat(t *testing.T) {
	limits := DefaultLimits()
	got, err := StrFormat("{} and {}", []any{int64(1), "b"}, nil, limits)
	if err != nil {
		t.Fatal(err)
	}
	if got != "1 and b" {
		t.Fatalf("got %q", got)
	}

	got, err = StrFormat("{1}{0}{1}", []any{"a", "b"}, nil, limits)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bab" {
		t.Fatalf("got %q", got)
	}

	got, err = StrFormat("{x:>{w}} {y!r}", nil, []Kwarg{
		{Name: "x", Value: "a"},
		{Name: "w", Value: int64(3)},
		{Name: "y", Value: "b"},
	}, limits)
	if err != nil {
		t.Fatal(err)
	}
	if got != "  a 'b'" {
		t.Fatalf("got %q", got)
	}

	got, err = StrFormat("{0[1]} {0.real} {{}}", []any{NewList([]any{"p", "q"})}, nil, limits)
	if err == nil {
		t.Fatalf("got %q", got)
	}

	got, err = StrFormat("{0[1]} {1.real} {{}}", []any{NewList([]any{"p", "q"}), int64(2)}, nil, limits)
	if err != nil {
		t.Fatal(err)
	}
	if got != "q 2 {}" {
		t.Fatalf("got %q", got)
	}

	_, err = StrFormat("{0.__class__}", []any{int64(1)}, nil, limits)
	if !errors.Is(err, evalerr.ErrAttributeDenied) {
		t.Fatalf("got %v", err)
	}

	_, err = StrFormat("{} {0}", []any{int64(1)}, nil, limits)
	if !errors.Is(err, evalerr.ErrValue) {
		t.Fatalf("got %v", err)
	}
}
