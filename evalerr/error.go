package evalerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reusee/taieval/pyast"
)

type Error struct {
	Kind Kind
	// Name is the exception class name, like ZeroDivisionError
	Name   string
	Msg    string
	Pos    pyast.Pos
	Source string
	// Value holds the exception object for raised and caught errors
	Value any
	Cause error
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Name: kind.ExceptionName(),
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Named creates an error with a specific exception class name.
func Named(kind Kind, name string, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Name: name,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s: %s", e.Pos.Line, e.Pos.Column, e.Name, e.Msg)
	}
	return e.Name + ": " + e.Msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	k, ok := target.(kindError)
	return ok && Kind(k) == e.Kind
}

// At sets the position if it is not already known.
func (e *Error) At(pos pyast.Pos) *Error {
	if e.Pos.Line == 0 {
		e.Pos = pos
	}
	return e
}

// Render formats the error with the offending source line and a caret.
func (e *Error) Render(source string) string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Pos.Line == 0 {
		sb.WriteString("\n")
		return sb.String()
	}
	if e.Source != "" {
		fmt.Fprintf(&sb, " at %s:%d:%d\n", e.Source, e.Pos.Line, e.Pos.Column)
	} else {
		fmt.Fprintf(&sb, " at line %d, column %d\n", e.Pos.Line, e.Pos.Column)
	}

	lines := strings.Split(source, "\n")
	idx := e.Pos.Line - 1
	if idx < 0 || idx >= len(lines) {
		return sb.String()
	}
	line := strings.TrimRight(lines[idx], "\r")
	sb.WriteString(line)
	sb.WriteString("\n")
	col := e.Pos.Column - 1
	for i, r := range []rune(line) {
		if i >= col {
			break
		}
		if r == '\t' {
			sb.WriteString("\t")
		} else {
			sb.WriteString(strings.Repeat(" ", runeWidth(r)))
		}
	}
	sb.WriteString("^\n")
	return sb.String()
}

type positioned interface {
	Position() pyast.Pos
	Message() string
}

// From converts any error to an *Error. Parser errors become syntax errors,
// other foreign errors runtime errors.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var p positioned
	if errors.As(err, &p) {
		return &Error{
			Kind:  KindSyntax,
			Name:  KindSyntax.ExceptionName(),
			Msg:   p.Message(),
			Pos:   p.Position(),
			Cause: err,
		}
	}
	return &Error{
		Kind:  KindRuntime,
		Name:  KindRuntime.ExceptionName(),
		Msg:   err.Error(),
		Cause: err,
	}
}

func runeWidth(r rune) int {
	if r == 0 {
		return 0
	}
	if r >= 0x1100 &&
		(r <= 0x115f || r == 0x2329 || r == 0x232a ||
			(r >= 0x2e80 && r <= 0xa4cf && r != 0x303f) ||
			(r >= 0xac00 && r <= 0xd7a3) ||
			(r >= 0xf900 && r <= 0xfaff) ||
			(r >= 0xfe30 && r <= 0xfe6f) ||
			(r >= 0xff00 && r <= 0xff60) ||
			(r >= 0xffe0 && r <= 0xffe6)) {
		return 2
	}
	return 1
}
