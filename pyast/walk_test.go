package pyast

import (
	"slices"
	"testing"
)

func pos(line, col int) Pos {
	return Pos{Line: line, Column: col}
}

func TestNames(t *testing.T) {
	// x = a + b
	// for i in items: total = total + i
	mod := &Module{
		Body: []Stmt{
			&Assign{
				Pos:     pos(1, 1),
				Targets: []Expr{&Name{Pos: pos(1, 1), Id: "x"}},
				Value: &BinOp{
					Pos: pos(1, 5),
					X:   &Name{Pos: pos(1, 5), Id: "a"},
					Op:  Add,
					Y:   &Name{Pos: pos(1, 9), Id: "b"},
				},
			},
			&For{
				Pos:    pos(2, 1),
				Target: &Name{Pos: pos(2, 5), Id: "i"},
				Iter:   &Name{Pos: pos(2, 10), Id: "items"},
				Body: []Stmt{
					&Assign{
						Pos:     pos(2, 17),
						Targets: []Expr{&Name{Pos: pos(2, 17), Id: "total"}},
						Value: &BinOp{
							Pos: pos(2, 25),
							X:   &Name{Pos: pos(2, 25), Id: "total"},
							Op:  Add,
							Y:   &Name{Pos: pos(2, 33), Id: "i"},
						},
					},
				},
			},
		},
	}
	names := Names(mod)
	want := []string{"a", "b", "items", "total", "i"}
	if !slices.Equal(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestWalkSkip(t *testing.T) {
	call := &Call{
		Func: &Name{Id: "f"},
		Args: []Expr{
			&Lambda{
				Params: &Params{},
				Body:   &Name{Id: "hidden"},
			},
		},
	}
	var seen []string
	Walk(call, func(n Node) bool {
		if name, ok := n.(*Name); ok {
			seen = append(seen, name.Id)
		}
		_, isLambda := n.(*Lambda)
		return !isLambda
	})
	if !slices.Equal(seen, []string{"f"}) {
		t.Fatalf("got %v", seen)
	}
}

func TestConstructOf(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{&If{}, ConstructIf},
		{&For{}, ConstructFor},
		{&While{}, ConstructWhile},
		{&Try{}, ConstructTry},
		{&Import{}, ConstructImport},
		{&ImportFrom{}, ConstructImportFrom},
		{&Lambda{}, ConstructLambda},
		{&FormattedValue{}, ConstructFormattedValue},
		{&Assign{}, ""},
		{&BinOp{}, ""},
		{&Name{}, ""},
	}
	for _, test := range tests {
		if got := ConstructOf(test.node); got != test.want {
			t.Errorf("%s: got %q, want %q", NodeName(test.node), got, test.want)
		}
	}
	if !slices.IsSorted(Constructs) {
		t.Fatal("constructs not sorted")
	}
}
