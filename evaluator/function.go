package evaluator

import (
	"fmt"
	"strings"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

// Function is a function defined by evaluated code, by def or lambda.
type Function struct {
	Name string
	Doc  string

	params   *pyast.Params
	defaults map[string]any
	body     []pyast.Stmt
	// expr is the body of a lambda
	expr    pyast.Expr
	closure *frame
	eval    *Evaluator
	pos     pyast.Pos
}

var _ pyvalue.Callable = new(Function)

func (f *Function) Call(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	return f.eval.callFunction(f, args, kwargs)
}

func (f *Function) TypeName() string {
	return "function"
}

func (f *Function) Repr() string {
	var parts []string
	for _, p := range f.params.Args {
		if d, ok := f.defaults[p.Name]; ok {
			parts = append(parts, p.Name+"="+pyvalue.Repr(d))
		} else {
			parts = append(parts, p.Name)
		}
	}
	if f.params.Vararg != "" {
		parts = append(parts, "*"+f.params.Vararg)
	} else if len(f.params.KwOnly) > 0 {
		parts = append(parts, "*")
	}
	for _, p := range f.params.KwOnly {
		if d, ok := f.defaults[p.Name]; ok {
			parts = append(parts, p.Name+"="+pyvalue.Repr(d))
		} else {
			parts = append(parts, p.Name)
		}
	}
	if f.params.Kwarg != "" {
		parts = append(parts, "**"+f.params.Kwarg)
	}
	return fmt.Sprintf("<Function %s(%s)>", f.Name, strings.Join(parts, ", "))
}

func (f *Function) Attr(name string) (any, error) {
	switch name {
	case "name":
		return f.Name, nil
	case "doc":
		if f.Doc == "" {
			return nil, nil
		}
		return f.Doc, nil
	}
	return nil, pyvalue.AttrErrorf("'function' object has no attribute '%s'", name)
}

func (f *Function) AttrNames() []string {
	return []string{"doc", "name"}
}

func (e *Evaluator) newFunction(name string, params *pyast.Params, pos pyast.Pos) (*Function, error) {
	if params == nil {
		params = new(pyast.Params)
	}
	fn := &Function{
		Name:     name,
		params:   params,
		defaults: make(map[string]any),
		closure:  e.frame,
		eval:     e,
		pos:      pos,
	}
	for _, list := range [][]*pyast.Param{params.Args, params.KwOnly} {
		for _, p := range list {
			if p.Default == nil {
				continue
			}
			v, err := e.eval(p.Default)
			if err != nil {
				return nil, err
			}
			fn.defaults[p.Name] = v
		}
	}
	return fn, nil
}

func (e *Evaluator) execFunctionDef(s *pyast.FunctionDef) error {
	decorators := make([]any, 0, len(s.Decorators))
	for _, d := range s.Decorators {
		v, err := e.eval(d)
		if err != nil {
			return err
		}
		decorators = append(decorators, v)
	}
	fn, err := e.newFunction(s.Name, s.Params, s.Position())
	if err != nil {
		return err
	}
	fn.body = s.Body
	fn.Doc = s.Doc
	var value any = fn
	for i := len(decorators) - 1; i >= 0; i-- {
		value, err = e.Call(decorators[i], []any{value}, nil)
		if err != nil {
			return e.fail(s.Decorators[i], err)
		}
	}
	return e.fail(s, e.setName(s.Name, value))
}

func argError(format string, args ...any) *evalerr.Error {
	return pyvalue.TypeErrorf(format, args...)
}

// bind maps call arguments to parameter names.
func (f *Function) bind(args []any, kwargs []pyvalue.Kwarg) (map[string]any, error) {
	params := f.params
	locals := make(map[string]any, len(params.Args)+len(params.KwOnly)+2)

	required := 0
	for _, p := range params.Args {
		if _, ok := f.defaults[p.Name]; !ok {
			required++
		}
	}

	n := len(params.Args)
	if len(args) > n && params.Vararg == "" {
		return nil, argError("too many positional parameters [expected `%d`, got `%d`]", n, len(args))
	}
	for i, p := range params.Args {
		if i >= len(args) {
			break
		}
		locals[p.Name] = args[i]
	}
	if params.Vararg != "" {
		var rest pyvalue.Tuple
		if len(args) > n {
			rest = append(rest, args[n:]...)
		} else {
			rest = pyvalue.Tuple{}
		}
		locals[params.Vararg] = rest
	}

	var extraKw *pyvalue.Dict
	if params.Kwarg != "" {
		extraKw = pyvalue.NewDict()
		locals[params.Kwarg] = extraKw
	}
	var unknown []string
kwargs:
	for _, kw := range kwargs {
		for _, list := range [][]*pyast.Param{params.Args, params.KwOnly} {
			for _, p := range list {
				if p.Name != kw.Name {
					continue
				}
				if _, ok := locals[p.Name]; ok {
					return nil, argError("multiple values for keyword argument `%s`", kw.Name)
				}
				locals[p.Name] = kw.Value
				continue kwargs
			}
		}
		if extraKw != nil {
			extraKw.SetString(kw.Name, kw.Value)
			continue
		}
		unknown = append(unknown, kw.Name)
	}
	if len(unknown) > 0 {
		return nil, argError("extra keyword arguments (`%s`)", strings.Join(unknown, ","))
	}

	for _, p := range params.Args {
		if _, ok := locals[p.Name]; ok {
			continue
		}
		d, ok := f.defaults[p.Name]
		if !ok {
			return nil, argError("not enough positional parameters [expected `%d`, got `%d`]", required, len(args))
		}
		locals[p.Name] = d
	}
	for _, p := range params.KwOnly {
		if _, ok := locals[p.Name]; ok {
			continue
		}
		d, ok := f.defaults[p.Name]
		if !ok {
			return nil, argError("missing keyword-only argument `%s`", p.Name)
		}
		locals[p.Name] = d
	}
	return locals, nil
}

func (e *Evaluator) callFunction(f *Function, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	locals, err := f.bind(args, kwargs)
	if err != nil {
		return nil, err
	}
	if max := e.limits.MaxRecursionDepth; max > 0 && e.depth >= max {
		return nil, evalerr.Named(evalerr.KindResourceLimit, "RecursionError", "maximum recursion depth exceeded")
	}
	if err := e.tick(f.pos); err != nil {
		return nil, err
	}

	fr := newFrame(f.Name, f.closure)
	fr.locals = locals
	savedFrame, savedLoops, savedPos := e.frame, e.loops, e.pos
	e.frame = fr
	e.loops = 0
	e.depth++
	defer func() {
		e.frame = savedFrame
		e.loops = savedLoops
		e.pos = savedPos
		e.depth--
	}()

	if e.tracer != nil {
		e.trace(e.pos, EventCall, "Calling function %s()...", f.Name)
	}

	var ret any
	if f.expr != nil {
		ret, err = e.eval(f.expr)
		if err != nil {
			return nil, err
		}
	} else {
		flow, err := e.execBlock(f.body)
		if err != nil {
			return nil, err
		}
		if flow == flowReturn {
			ret = fr.retval
		}
	}

	if e.tracer != nil {
		e.trace(f.pos, EventReturn, "Function `%s` returned %s.", f.Name, pyvalue.Repr(ret))
	}
	return ret, nil
}
