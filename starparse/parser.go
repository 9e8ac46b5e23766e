// Package starparse reads the Starlark dialect with go.starlark.net/syntax and
// lowers the result into the same tree the Python front end produces, so the
// evaluator and its construct policy apply unchanged.
package starparse

import (
	"errors"

	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyparse"
	"go.starlark.net/syntax"
)

// Parser is the Starlark front end.
type Parser struct{}

func (Parser) Parse(name string, src string) (*pyast.Module, error) {
	return Parse(name, src)
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

func Parse(name string, src string) (*pyast.Module, error) {
	file, err := fileOptions.Parse(name, src, 0)
	if err != nil {
		return nil, convertError(name, err)
	}
	l := &lowerer{
		name: name,
	}
	body, err := l.stmts(file.Stmts)
	if err != nil {
		return nil, err
	}
	return &pyast.Module{
		Pos:    pyast.Pos{Line: 1, Column: 1},
		Name:   name,
		Source: src,
		Body:   body,
	}, nil
}

// ParseExpr parses src as a single expression.
func ParseExpr(name string, src string) (pyast.Expr, error) {
	expr, err := fileOptions.ParseExpr(name, src, 0)
	if err != nil {
		return nil, convertError(name, err)
	}
	l := &lowerer{
		name: name,
	}
	return l.expr(expr)
}

func convertError(name string, err error) error {
	var synErr syntax.Error
	if errors.As(err, &synErr) {
		return &pyparse.Error{
			Name: name,
			Pos:  pos(synErr.Pos),
			Msg:  synErr.Msg,
		}
	}
	return err
}

func pos(p syntax.Position) pyast.Pos {
	return pyast.Pos{
		Line:   int(p.Line),
		Column: int(p.Col),
	}
}

func start(n syntax.Node) pyast.Pos {
	p, _ := n.Span()
	return pos(p)
}
