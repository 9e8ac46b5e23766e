// Package builtins provides the functions, types and libraries installed in
// a fresh symbol table.
package builtins

import (
	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

type fn = pyvalue.BuiltinFunc

// Builtins returns the builtin namespace: exception classes, type objects
// and builtin functions.
func Builtins() map[string]any {
	ret := make(map[string]any)
	for _, name := range pyvalue.ExceptionNames() {
		class, _ := pyvalue.ClassByName(name)
		ret[name] = class
	}
	for name, typ := range pyvalue.Types {
		ret[name] = typ
	}
	for name, f := range functions {
		ret[name] = pyvalue.NewBuiltin(name, f)
	}
	return ret
}

// Modules returns the members of the importable library modules.
func Modules() map[string]map[string]any {
	return map[string]map[string]any{
		"math": Math(),
	}
}

var functions map[string]fn

func init() {
	functions = map[string]fn{
		"abs":        abs,
		"all":        all,
		"any":        anyFn,
		"ascii":      ascii,
		"bin":        radix("bin", "#b"),
		"bytearray":  pyvalue.TypeBytes.New,
		"callable":   callable,
		"chr":        chr,
		"dir":        dir,
		"divmod":     divmod,
		"enumerate":  enumerate,
		"filter":     filter,
		"format":     format,
		"getattr":    getattr,
		"hasattr":    hasattr,
		"hash":       hash,
		"hex":        radix("hex", "#x"),
		"id":         id,
		"isinstance": isinstance,
		"iter":       iter,
		"len":        length,
		"map":        mapFn,
		"max":        extreme("max", 1),
		"min":        extreme("min", -1),
		"next":       next,
		"oct":        radix("oct", "#o"),
		"open":       open,
		"ord":        ord,
		"pow":        pow,
		"print":      print,
		"repr":       repr,
		"reversed":   reversed,
		"round":      round,
		"sorted":     sorted,
		"sum":        sum,
		"zip":        zip,
	}
}

// print writes to the runtime's output; it is gated like a construct.
func print(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if !rt.Enabled(pyast.ConstructPrint) {
		return nil, evalerr.Errorf(evalerr.KindConstructDisabled, "'print' not supported")
	}
	sep, end := " ", "\n"
	for _, kw := range kwargs {
		switch kw.Name {
		case "sep", "end":
			var s string
			switch v := kw.Value.(type) {
			case nil:
				continue
			case string:
				s = v
			default:
				return nil, pyvalue.TypeErrorf("%s must be None or a string, not %s", kw.Name, pyvalue.TypeName(v))
			}
			if kw.Name == "sep" {
				sep = s
			} else {
				end = s
			}
		case "flush":
		case "file":
			if kw.Value != nil {
				return nil, pyvalue.TypeErrorf("print() does not support writing to files")
			}
		default:
			return nil, pyvalue.TypeErrorf("print() got an unexpected keyword argument '%s'", kw.Name)
		}
	}
	w := rt.Stdout()
	for i, arg := range args {
		if i > 0 {
			if _, err := w.Write([]byte(sep)); err != nil {
				return nil, err
			}
		}
		if _, err := w.Write([]byte(pyvalue.Str(arg))); err != nil {
			return nil, err
		}
	}
	if _, err := w.Write([]byte(end)); err != nil {
		return nil, err
	}
	return nil, nil
}

// open opens files for reading only, within the runtime's file limits.
func open(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("open", args, kwargs, "file", "mode?", "buffering?", "encoding?", "errors?", "newline?")
	if err != nil {
		return nil, err
	}
	name, ok := a[0].(string)
	if !ok {
		return nil, pyvalue.TypeErrorf("expected str, bytes or os.PathLike object, not %s", pyvalue.TypeName(a[0]))
	}
	mode := "r"
	if a[1] != nil {
		mode, ok = a[1].(string)
		if !ok {
			return nil, pyvalue.TypeErrorf("open() argument 'mode' must be str, not %s", pyvalue.TypeName(a[1]))
		}
	}
	buffering := -1
	if a[2] != nil {
		buffering, err = pyvalue.ToIndex(a[2])
		if err != nil {
			return nil, err
		}
	}
	return rt.Files().Open(name, mode, buffering)
}
