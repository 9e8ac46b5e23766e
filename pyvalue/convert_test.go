package pyvalue

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
)

type point struct {
	X, Y   int
	hidden int
}

func (p point) Sum() int {
	return p.X + p.Y
}

func TestFromGo(t *testing.T) {
	if got := FromGo(42); got != int64(42) {
		t.Fatalf("got %#v", got)
	}
	if got := FromGo(uint64(1 << 63)); TypeName(got) != "int" {
		t.Fatalf("got %#v", got)
	}
	if got := FromGo(big.NewInt(3)); got != int64(3) {
		t.Fatalf("got %#v", got)
	}
	if got := FromGo(float32(0.5)); got != 0.5 {
		t.Fatalf("got %#v", got)
	}
	if got := FromGo([]any{1, "a"}); Repr(got) != "[1, 'a']" {
		t.Fatalf("got %s", Repr(got))
	}
	if got := FromGo(map[string]any{"b": 2, "a": 1}); Repr(got) != "{'a': 1, 'b': 2}" {
		t.Fatalf("got %s", Repr(got))
	}
}

func TestToGo(t *testing.T) {
	rt := newTestRuntime()
	v, err := ToGo(rt, NewList(ints(1, 2)), reflect.TypeFor[[]int]())
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Interface().([]int); len(got) != 2 || got[1] != 2 {
		t.Fatalf("got %v", got)
	}

	if _, err := ToGo(rt, int64(300), reflect.TypeFor[int8]()); !errors.Is(err, evalerr.ErrArithmetic) {
		t.Fatalf("got %v", err)
	}
	if _, err := ToGo(rt, "a", reflect.TypeFor[int]()); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}

	double := NewBuiltin("double", func(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
		return Binary(pyast.Add, args[0], args[0], nil)
	})
	v, err = ToGo(rt, double, reflect.TypeFor[func(int) (int, error)]())
	if err != nil {
		t.Fatal(err)
	}
	n, err := v.Interface().(func(int) (int, error))(21)
	if err != nil {
		t.Fatal(err)
	}
	if n != 42 {
		t.Fatalf("got %v", n)
	}
}

func TestWrapGoFunc(t *testing.T) {
	rt := newTestRuntime()

	add := WrapGoFunc("add", func(a, b float64) float64 {
		return a + b
	})
	got, err := add.Call(rt, ints(1, 2), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3.0 {
		t.Fatalf("got %v", got)
	}
	if _, err := add.Call(rt, ints(1), nil); !errors.Is(err, evalerr.ErrTypeMismatch) {
		t.Fatalf("got %v", err)
	}

	sum := WrapGoFunc("sum", func(xs ...int) int {
		n := 0
		for _, x := range xs {
			n += x
		}
		return n
	})
	got, err = sum.Call(rt, ints(1, 2, 3), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(6) {
		t.Fatalf("got %v", got)
	}

	fail := WrapGoFunc("fail", func() (int, error) {
		return 0, fmt.Errorf("boom")
	})
	_, err = fail.Call(rt, nil, nil)
	var e *evalerr.Error
	if !errors.As(err, &e) || e.Kind != evalerr.KindRuntime || e.Msg != "boom" {
		t.Fatalf("got %v", err)
	}

	pair := WrapGoFunc("pair", func(rt Runtime) (string, int64) {
		return "a", rt.Limits().MaxShift
	})
	got, err = pair.Call(rt, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if Repr(got) != "('a', 1000)" {
		t.Fatalf("got %s", Repr(got))
	}
}

func TestReflectAttr(t *testing.T) {
	rt := newTestRuntime()
	p := &point{X: 1, Y: 2}
	x, err := GetAttr(p, "X")
	if err != nil {
		t.Fatal(err)
	}
	if x != int64(1) {
		t.Fatalf("got %v", x)
	}
	if got := callMethod(t, rt, p, "Sum", nil, nil); got != int64(3) {
		t.Fatalf("got %v", got)
	}
	if err := SetAttr(p, "Y", int64(5)); err != nil {
		t.Fatal(err)
	}
	if p.Y != 5 {
		t.Fatalf("got %v", p.Y)
	}
	if _, err := GetAttr(p, "hidden"); !errors.Is(err, evalerr.ErrAttribute) {
		t.Fatalf("got %v", err)
	}
	if _, err := GetAttr(NewBuiltin("f", nil), "Call"); !errors.Is(err, evalerr.ErrAttribute) {
		t.Fatalf("got %v", err)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rt := newTestRuntime()
	f, err := rt.files.Open(path, "r", 0)
	if err != nil {
		t.Fatal(err)
	}
	if rt.files.Len() != 1 {
		t.Fatalf("got %d", rt.files.Len())
	}
	lines := callMethod(t, rt, f, "readlines", nil, nil)
	if Repr(lines) != "['a\\n', 'b\\n']" {
		t.Fatalf("got %s", Repr(lines))
	}
	if _, err := f.Exit(rt, nil); err != nil {
		t.Fatal(err)
	}
	if rt.files.Len() != 0 {
		t.Fatalf("got %d", rt.files.Len())
	}
	if _, err := f.read(-1); !errors.Is(err, evalerr.ErrValue) {
		t.Fatalf("got %v", err)
	}

	_, err = rt.files.Open(path, "w", 0)
	if !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	_, err = rt.files.Open(path, "rb", 2<<18)
	if !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	_, err = rt.files.Open(filepath.Join(dir, "missing"), "rb", 0)
	var e *evalerr.Error
	if !errors.As(err, &e) || e.Name != "FileNotFoundError" {
		t.Fatalf("got %v", err)
	}

	rt.limits.MaxOpenFiles = 1
	if _, err := rt.files.Open(path, "rb", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.files.Open(path, "rb", 0); !errors.Is(err, evalerr.ErrResourceLimit) {
		t.Fatalf("got %v", err)
	}
	if err := rt.files.CloseAll(); err != nil {
		t.Fatal(err)
	}
}
