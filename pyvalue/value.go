package pyvalue

import (
	"io"
	"math/big"
	"reflect"

	"github.com/reusee/taieval/evalerr"
)

// Kwarg is one keyword argument of a call.
type Kwarg struct {
	Name  string
	Value any
}

// Runtime is the view of the evaluator available to builtins and methods.
type Runtime interface {
	Call(fn any, args []any, kwargs []Kwarg) (any, error)
	Stdout() io.Writer
	Stderr() io.Writer
	Limits() *Limits
	Enabled(construct string) bool
	Files() *Files
}

// Object values resolve attributes themselves.
type Object interface {
	Attr(name string) (any, error)
}

type AttrSetter interface {
	SetAttr(name string, value any) error
}

type AttrDeleter interface {
	DelAttr(name string) error
}

// AttrLister is consulted by dir().
type AttrLister interface {
	AttrNames() []string
}

type Callable interface {
	Call(rt Runtime, args []any, kwargs []Kwarg) (any, error)
}

// ContextManager implements the with statement. Exit receives the pending
// error, if any, and reports whether it was handled.
type ContextManager interface {
	Enter(rt Runtime) (any, error)
	Exit(rt Runtime, err *evalerr.Error) (bool, error)
}

// Iterable values produce a fresh iterator on each call.
type Iterable interface {
	Iter() (*Iterator, error)
}

type Lener interface {
	Len() int
}

// Bytes is an immutable byte string.
type Bytes []byte

type List struct {
	Elems []any
}

func NewList(elems []any) *List {
	return &List{Elems: elems}
}

func (l *List) Len() int {
	return len(l.Elems)
}

type Tuple []any

// EllipsisType is the type of the ... literal.
type EllipsisType struct{}

var Ellipsis = EllipsisType{}

// Iterator is a single-pass sequence.
type Iterator struct {
	Name string
	next func() (any, bool, error)
	done bool
}

func NewIterator(name string, next func() (any, bool, error)) *Iterator {
	return &Iterator{
		Name: name,
		next: next,
	}
}

// Next returns the next element; ok is false once exhausted.
func (it *Iterator) Next() (v any, ok bool, err error) {
	if it.done {
		return nil, false, nil
	}
	v, ok, err = it.next()
	if err != nil || !ok {
		it.done = true
	}
	return
}

func (it *Iterator) Iter() (*Iterator, error) {
	return it, nil
}

// BuiltinFunc is the signature of Go-implemented callables.
type BuiltinFunc func(rt Runtime, args []any, kwargs []Kwarg) (any, error)

type Builtin struct {
	Name string
	Doc  string
	Fn   BuiltinFunc
}

func NewBuiltin(name string, fn BuiltinFunc) *Builtin {
	return &Builtin{
		Name: name,
		Fn:   fn,
	}
}

func (b *Builtin) Call(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	return b.Fn(rt, args, kwargs)
}

// MethodFunc implements a method of a builtin type.
type MethodFunc func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error)

type BoundMethod struct {
	Name string
	Self any
	Fn   MethodFunc
}

func (m *BoundMethod) Call(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	return m.Fn(rt, m.Self, args, kwargs)
}

// TypeName is the Python type name of v, used in messages.
func TypeName(v any) string {
	switch v := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64, *big.Int:
		return "int"
	case float64:
		return "float"
	case complex128:
		return "complex"
	case string:
		return "str"
	case Bytes:
		return "bytes"
	case *List:
		return "list"
	case Tuple:
		return "tuple"
	case *Dict:
		return "dict"
	case *Set:
		if v.Frozen {
			return "frozenset"
		}
		return "set"
	case *Range:
		return "range"
	case *Slice:
		return "slice"
	case EllipsisType:
		return "ellipsis"
	case *Iterator:
		if v.Name != "" {
			return v.Name
		}
		return "iterator"
	case *Exception:
		return v.Class.Name
	case *ExceptionClass, *Type:
		return "type"
	case *Builtin:
		return "builtin_function_or_method"
	case *BoundMethod:
		return "builtin_function_or_method"
	case *File:
		return "TextIOWrapper"
	case interface{ TypeName() string }:
		return v.TypeName()
	}
	return reflect.TypeOf(v).String()
}
