package pyvalue

import (
	"sort"

	"github.com/reusee/taieval/evalerr"
)

type ExceptionClass struct {
	Name string
	Base *ExceptionClass
}

// IsSubclass reports whether c is base or derives from it.
func (c *ExceptionClass) IsSubclass(base *ExceptionClass) bool {
	for k := c; k != nil; k = k.Base {
		if k == base {
			return true
		}
	}
	return false
}

func (c *ExceptionClass) Call(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs(c.Name, kwargs); err != nil {
		return nil, err
	}
	return &Exception{
		Class: c,
		Args:  Tuple(append([]any(nil), args...)),
	}, nil
}

// Exception is an exception instance.
type Exception struct {
	Class *ExceptionClass
	Args  Tuple
	Cause *Exception
}

func (e *Exception) Message() string {
	switch len(e.Args) {
	case 0:
		return ""
	case 1:
		return Str(e.Args[0])
	}
	return Repr(e.Args)
}

func (e *Exception) Attr(name string) (any, error) {
	switch name {
	case "args":
		return e.Args, nil
	}
	return nil, noAttribute(e, name)
}

// ToError converts the exception to a raised error.
func (e *Exception) ToError() *evalerr.Error {
	err := evalerr.Named(evalerr.KindUserRaised, e.Class.Name, "%s", e.Message())
	err.Value = e
	return err
}

var exceptionClasses = map[string]*ExceptionClass{}

func newClass(name string, base *ExceptionClass) *ExceptionClass {
	c := &ExceptionClass{
		Name: name,
		Base: base,
	}
	exceptionClasses[name] = c
	return c
}

var (
	ClassBaseException     = newClass("BaseException", nil)
	ClassSystemExit        = newClass("SystemExit", ClassBaseException)
	ClassKeyboardInterrupt = newClass("KeyboardInterrupt", ClassBaseException)
	ClassGeneratorExit     = newClass("GeneratorExit", ClassBaseException)
	ClassException         = newClass("Exception", ClassBaseException)

	ClassArithmeticError    = newClass("ArithmeticError", ClassException)
	ClassFloatingPointError = newClass("FloatingPointError", ClassArithmeticError)
	ClassOverflowError      = newClass("OverflowError", ClassArithmeticError)
	ClassZeroDivisionError  = newClass("ZeroDivisionError", ClassArithmeticError)

	ClassAssertionError = newClass("AssertionError", ClassException)
	ClassAttributeError = newClass("AttributeError", ClassException)
	ClassBufferError    = newClass("BufferError", ClassException)
	ClassEOFError       = newClass("EOFError", ClassException)
	ClassImportError    = newClass("ImportError", ClassException)

	ClassLookupError = newClass("LookupError", ClassException)
	ClassIndexError  = newClass("IndexError", ClassLookupError)
	ClassKeyError    = newClass("KeyError", ClassLookupError)

	ClassMemoryError       = newClass("MemoryError", ClassException)
	ClassNameError         = newClass("NameError", ClassException)
	ClassUnboundLocalError = newClass("UnboundLocalError", ClassNameError)

	ClassOSError           = newClass("OSError", ClassException)
	ClassFileNotFoundError = newClass("FileNotFoundError", ClassOSError)
	ClassPermissionError   = newClass("PermissionError", ClassOSError)

	ClassReferenceError      = newClass("ReferenceError", ClassException)
	ClassRuntimeError        = newClass("RuntimeError", ClassException)
	ClassNotImplementedError = newClass("NotImplementedError", ClassRuntimeError)
	ClassRecursionError      = newClass("RecursionError", ClassRuntimeError)
	ClassStopIteration       = newClass("StopIteration", ClassException)

	ClassSyntaxError      = newClass("SyntaxError", ClassException)
	ClassIndentationError = newClass("IndentationError", ClassSyntaxError)
	ClassSystemError      = newClass("SystemError", ClassException)
	ClassTypeError        = newClass("TypeError", ClassException)

	ClassValueError            = newClass("ValueError", ClassException)
	ClassUnicodeError          = newClass("UnicodeError", ClassValueError)
	ClassUnicodeDecodeError    = newClass("UnicodeDecodeError", ClassUnicodeError)
	ClassUnicodeEncodeError    = newClass("UnicodeEncodeError", ClassUnicodeError)
	ClassUnicodeTranslateError = newClass("UnicodeTranslateError", ClassUnicodeError)
	ClassWarning               = newClass("Warning", ClassException)
	ClassBytesWarning          = newClass("BytesWarning", ClassWarning)
	ClassDeprecationWarning    = newClass("DeprecationWarning", ClassWarning)
	ClassImportWarning         = newClass("ImportWarning", ClassWarning)
	ClassRuntimeWarning        = newClass("RuntimeWarning", ClassWarning)
	ClassSyntaxWarning         = newClass("SyntaxWarning", ClassWarning)
	ClassUnicodeWarning        = newClass("UnicodeWarning", ClassWarning)
	_                          = aliasClass("EnvironmentError", ClassOSError)
	_                          = aliasClass("IOError", ClassOSError)
)

func aliasClass(name string, c *ExceptionClass) *ExceptionClass {
	exceptionClasses[name] = c
	return c
}

// ClassByName looks up a builtin exception class.
func ClassByName(name string) (*ExceptionClass, bool) {
	c, ok := exceptionClasses[name]
	return c, ok
}

// ExceptionNames lists builtin exception class names, sorted.
func ExceptionNames() []string {
	names := make([]string, 0, len(exceptionClasses))
	for name := range exceptionClasses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExceptionOf returns the exception object carried by err, creating one
// from the error's class name when the error was raised internally.
func ExceptionOf(err *evalerr.Error) *Exception {
	if e, ok := err.Value.(*Exception); ok {
		return e
	}
	class, ok := ClassByName(err.Name)
	if !ok {
		class = ClassException
	}
	e := &Exception{
		Class: class,
		Args:  Tuple{err.Msg},
	}
	err.Value = e
	return e
}

// Matches reports whether err is caught by an except clause naming class.
func Matches(err *evalerr.Error, class *ExceptionClass) bool {
	return ExceptionOf(err).Class.IsSubclass(class)
}
