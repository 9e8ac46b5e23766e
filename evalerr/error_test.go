package evalerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/reusee/taieval/pyast"
)

func TestErrorIs(t *testing.T) {
	err := Errorf(KindResourceLimit, "exponent %d too large", 20000)
	if !errors.Is(err, ErrResourceLimit) {
		t.Fatal("expected resource limit")
	}
	if errors.Is(err, ErrSyntax) {
		t.Fatal("unexpected syntax kind")
	}
	wrapped := fmt.Errorf("eval: %w", err)
	if !errors.Is(wrapped, ErrResourceLimit) {
		t.Fatal("expected wrapped resource limit")
	}
	if err.Name != "RuntimeError" {
		t.Fatalf("got %s", err.Name)
	}
}

func TestErrorString(t *testing.T) {
	err := Named(KindArithmetic, "ZeroDivisionError", "division by zero")
	if got := err.Error(); got != "ZeroDivisionError: division by zero" {
		t.Fatalf("got %q", got)
	}
	err.At(pyast.Pos{Line: 2, Column: 5})
	if got := err.Error(); got != "line 2, column 5: ZeroDivisionError: division by zero" {
		t.Fatalf("got %q", got)
	}
	// position is kept once set
	err.At(pyast.Pos{Line: 9, Column: 9})
	if err.Pos.Line != 2 {
		t.Fatalf("got %v", err.Pos)
	}
}

func TestRender(t *testing.T) {
	err := Named(KindArithmetic, "ZeroDivisionError", "division by zero").
		At(pyast.Pos{Line: 2, Column: 5})
	got := err.Render("a = 1\nb = 1 / 0\n")
	want := "ZeroDivisionError: division by zero at line 2, column 5\n" +
		"b = 1 / 0\n" +
		"    ^\n"
	if got != want {
		t.Fatalf("got %q", got)
	}

	err = Errorf(KindNameResolution, "name 'x' is not defined")
	if got := err.Render("x"); got != "NameError: name 'x' is not defined\n" {
		t.Fatalf("got %q", got)
	}
}

type posErr struct{}

func (posErr) Error() string       { return "bad" }
func (posErr) Position() pyast.Pos { return pyast.Pos{Line: 3, Column: 1} }
func (posErr) Message() string     { return "invalid syntax" }

func TestFrom(t *testing.T) {
	e := From(posErr{})
	if e.Kind != KindSyntax || e.Pos.Line != 3 || e.Msg != "invalid syntax" {
		t.Fatalf("got %#v", e)
	}
	e = From(errors.New("boom"))
	if e.Kind != KindRuntime || !strings.Contains(e.Msg, "boom") {
		t.Fatalf("got %#v", e)
	}
	orig := Errorf(KindValue, "bad value")
	if From(fmt.Errorf("x: %w", orig)) != orig {
		t.Fatal("expected same error")
	}
	if From(nil) != nil {
		t.Fatal("expected nil")
	}
}

func TestHolder(t *testing.T) {
	var h Holder
	if h.First() != nil || h.Err() != nil {
		t.Fatal("expected empty")
	}
	h.Record(Errorf(KindTypeMismatch, "a"))
	h.Recordf(KindValue, pyast.Pos{Line: 1, Column: 1}, "b %d", 1)
	if h.Len() != 2 {
		t.Fatalf("got %d", h.Len())
	}
	if h.First().Msg != "a" {
		t.Fatalf("got %s", h.First().Msg)
	}
	all := h.All()
	if all[1].Msg != "b 1" || all[1].Pos.Line != 1 {
		t.Fatalf("got %#v", all[1])
	}
	if !errors.Is(h.Err(), ErrValue) {
		t.Fatal("expected joined value error")
	}
	h.Clear()
	if h.Len() != 0 || len(all) != 2 {
		t.Fatal("expected cleared holder and intact snapshot")
	}
}
