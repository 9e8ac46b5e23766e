package evaluator

import (
	"fmt"
	"io"
	"reflect"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/policy"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
)

// Evaluator walks syntax trees against one symbol table. It is not safe for
// concurrent use.
type Evaluator struct {
	table   symtable.Table
	policy  policy.Config
	limits  *pyvalue.Limits
	files   *pyvalue.Files
	stdout  io.Writer
	stderr  io.Writer
	errors  *evalerr.Holder
	modules map[string]*Module
	tracer  func(Event)

	source string
	// pos is the statement being executed
	pos   pyast.Pos
	frame *frame
	loops int
	depth int
	steps int
	// handling is the stack of exceptions being handled, for bare raise
	handling []*evalerr.Error
}

type Options struct {
	Policy  policy.Config
	Limits  *pyvalue.Limits
	Stdout  io.Writer
	Stderr  io.Writer
	Errors  *evalerr.Holder
	Modules map[string]*Module
	Trace   func(Event)
}

var _ pyvalue.Runtime = new(Evaluator)

func New(table symtable.Table, opts Options) *Evaluator {
	limits := opts.Limits
	if limits == nil {
		limits = pyvalue.DefaultLimits()
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	holder := opts.Errors
	if holder == nil {
		holder = new(evalerr.Holder)
	}
	return &Evaluator{
		table:   table,
		policy:  opts.Policy,
		limits:  limits,
		files:   pyvalue.NewFiles(limits),
		stdout:  stdout,
		stderr:  stderr,
		errors:  holder,
		modules: opts.Modules,
		tracer:  opts.Trace,
	}
}

func (e *Evaluator) Stdout() io.Writer {
	return e.stdout
}

func (e *Evaluator) Stderr() io.Writer {
	return e.stderr
}

func (e *Evaluator) SetOutput(stdout, stderr io.Writer) {
	if stdout != nil {
		e.stdout = stdout
	}
	if stderr != nil {
		e.stderr = stderr
	}
}

func (e *Evaluator) Limits() *pyvalue.Limits {
	return e.limits
}

func (e *Evaluator) Enabled(construct string) bool {
	return e.policy.Enabled(construct)
}

func (e *Evaluator) Files() *pyvalue.Files {
	return e.files
}

func (e *Evaluator) Table() symtable.Table {
	return e.table
}

func (e *Evaluator) Errors() *evalerr.Holder {
	return e.errors
}

func (e *Evaluator) Policy() policy.Config {
	return e.policy
}

// Call invokes any callable value: user functions, builtins, exception
// classes and plain Go funcs.
func (e *Evaluator) Call(fn any, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	switch fn := fn.(type) {
	case *Function:
		return e.callFunction(fn, args, kwargs)
	case pyvalue.Callable:
		ret, err := fn.Call(e, args, kwargs)
		if err != nil {
			return nil, evalerr.From(err)
		}
		return ret, nil
	}
	if fn != nil && reflect.TypeOf(fn).Kind() == reflect.Func {
		return pyvalue.WrapGoFunc(reflect.TypeOf(fn).String(), fn).Call(e, args, kwargs)
	}
	return nil, pyvalue.TypeErrorf("'%s' object is not callable", pyvalue.TypeName(fn))
}

// Run evaluates a module and returns the value of its last statement when
// that statement is an expression. An unhandled error is recorded in the
// holder, which is cleared first, and returned.
func (e *Evaluator) Run(mod *pyast.Module) (ret any, err error) {
	e.errors.Clear()
	e.source = mod.Name
	e.frame = nil
	e.loops = 0
	e.depth = 0
	e.steps = 0
	e.handling = e.handling[:0]

	defer func() {
		if p := recover(); p != nil {
			ret = nil
			err = e.record(evalerr.Errorf(evalerr.KindRuntime, "internal error: %v", p))
		}
	}()

	for _, stmt := range mod.Body {
		if s, ok := stmt.(*pyast.ExprStmt); ok {
			v, err := e.eval(s.X)
			if err != nil {
				return nil, e.record(err)
			}
			ret = v
			continue
		}
		ret = nil
		if _, err := e.exec(stmt); err != nil {
			return nil, e.record(err)
		}
	}
	return ret, nil
}

// Eval evaluates one expression in the top-level scope, without touching
// the error holder.
func (e *Evaluator) Eval(expr pyast.Expr) (any, error) {
	saved := e.frame
	e.frame = nil
	defer func() {
		e.frame = saved
	}()
	return e.eval(expr)
}

func (e *Evaluator) record(err error) error {
	ee := evalerr.From(err)
	if ee.Source == "" {
		ee.Source = e.source
	}
	e.errors.Record(ee)
	e.trace(ee.Pos, EventException, "Unhandled exception: %s: %s", ee.Name, ee.Msg)
	return ee
}

// fail positions err at n. The innermost node wins.
func (e *Evaluator) fail(n pyast.Node, err error) error {
	if err == nil {
		return nil
	}
	ee := evalerr.From(err)
	ee.At(n.Position())
	if ee.Source == "" {
		ee.Source = e.source
	}
	return ee
}

func syntaxError(n pyast.Node, format string, args ...any) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindSyntax, format, args...).At(n.Position())
}

// gate rejects nodes whose construct is disabled.
func (e *Evaluator) gate(n pyast.Node) error {
	construct := pyast.ConstructOf(n)
	if construct == "" || e.policy.Enabled(construct) {
		return nil
	}
	return evalerr.Errorf(evalerr.KindConstructDisabled, "'%s' not supported", pyast.NodeName(n)).At(n.Position())
}

// tick counts one loop iteration or call against MaxSteps.
func (e *Evaluator) tick(n pyast.Node) error {
	e.steps++
	if max := e.limits.MaxSteps; max > 0 && e.steps > max {
		return pyvalue.LimitErrorf("Exceeded maximum number of steps, max is %d", max).At(n.Position())
	}
	return nil
}

func (e *Evaluator) trace(pos pyast.Pos, kind EventKind, format string, args ...any) {
	if e.tracer == nil {
		return
	}
	e.tracer(Event{
		Kind:    kind,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}
