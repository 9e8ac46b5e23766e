package pyparse

import (
	"fmt"

	"github.com/reusee/taieval/pyast"
)

// Error is a syntax error with the position it was detected at.
type Error struct {
	Name string
	Pos  pyast.Pos
	Msg  string
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Name, e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *Error) Position() pyast.Pos {
	return e.Pos
}

func (e *Error) Message() string {
	return e.Msg
}
