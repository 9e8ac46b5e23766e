// Package interp is the embedding entry point: an Interpreter owns a symbol
// table, a construct policy, output writers and the errors of the last
// evaluation.
package interp

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/reusee/taieval/builtins"
	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/evaluator"
	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/policy"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyparse"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
	"github.com/samber/lo"
)

// Interpreter evaluates source text. It is not safe for concurrent use.
type Interpreter struct {
	table  symtable.Table
	policy policy.Config
	limits *pyvalue.Limits
	errors *evalerr.Holder
	eval   *evaluator.Evaluator
	parser Parser
	logger logs.Logger
	stderr io.Writer
	trace  []evaluator.Event
}

func New(opts ...Option) (*Interpreter, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return NewFromOptions(options)
}

func NewFromOptions(options Options) (*Interpreter, error) {
	p, err := policy.New(options.Minimal, options.Overrides, options.Config)
	if err != nil {
		return nil, err
	}

	limits := options.Limits
	if limits == nil {
		limits = pyvalue.DefaultLimits()
	}
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := options.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parser := options.Parser
	if parser == nil {
		parser = pyparse.Parser{}
	}

	table := options.SymbolTable
	if table == nil {
		if options.Nested {
			table = newNestedTable(options.Numeric)
		} else {
			table = newFlatTable(options.Numeric)
		}
	}
	protection := table.Protection()
	protection.BuiltinsReadonly = options.BuiltinsReadonly
	for _, name := range options.ReadonlySymbols {
		protection.SetReadonly(name, true)
	}

	modules := make(map[string]*evaluator.Module)
	for name, members := range builtins.Modules() {
		modules[name] = evaluator.NewModule(name, members)
	}
	for name, members := range options.Modules {
		modules[name] = evaluator.NewModule(name, members)
	}
	if options.Importable != nil {
		modules = lo.PickByKeys(modules, options.Importable)
	}

	in := &Interpreter{
		table:  table,
		policy: p,
		limits: limits,
		errors: new(evalerr.Holder),
		parser: parser,
		logger: logger,
		stderr: stderr,
	}
	var trace func(evaluator.Event)
	if options.Trace {
		trace = in.addTrace
	}
	in.eval = evaluator.New(table, evaluator.Options{
		Policy:  p,
		Limits:  limits,
		Stdout:  stdout,
		Stderr:  stderr,
		Errors:  in.errors,
		Modules: modules,
		Trace:   trace,
	})

	if disabled := p.Disabled(); len(disabled) > 0 {
		logger.Debug("new interpreter", "disabled", strings.Join(disabled, ","))
	}
	return in, nil
}

func install(table symtable.Table, prefix string, members map[string]any) {
	for name, v := range members {
		table.Define(prefix+name, v)
	}
}

func newFlatTable(numeric bool) *symtable.Flat {
	table := symtable.NewFlat()
	install(table, "", builtins.Math())
	if numeric {
		install(table, "", builtins.Numeric())
	}
	install(table, "", builtins.Builtins())
	table.Protection().MarkBuiltins(table.Names()...)
	return table
}

func newNestedTable(numeric bool) *symtable.Group {
	table := symtable.NewGroup()
	install(table, "", builtins.Builtins())
	install(table, "math.", builtins.Math())
	groups := []string{"math"}
	if numeric {
		install(table, "np.", builtins.Numeric())
		groups = append(groups, "np")
	}
	table.SetSearchGroups(groups...)
	table.Protection().MarkBuiltins(table.Names()...)
	return table
}

func (in *Interpreter) addTrace(ev evaluator.Event) {
	in.trace = append(in.trace, ev)
	in.logger.Debug("trace", "kind", ev.Kind.String(), "line", ev.Pos.Line, "message", ev.Message)
}

// Parse checks the statement length and parses src.
func (in *Interpreter) Parse(src string) (*pyast.Module, error) {
	if max := in.limits.MaxStatementLength; max > 0 && len(src) > max {
		return nil, evalerr.Errorf(evalerr.KindResourceLimit, "length of text longer than %d", max)
	}
	mod, err := in.parser.Parse("<eval>", src)
	if err != nil {
		return nil, evalerr.From(err)
	}
	return mod, nil
}

// Eval parses and evaluates src. It returns the value of the last statement
// when it is an expression. Errors are recorded and, by default, rendered to
// the error writer; the returned error is nil unless RaiseErrors is given.
func (in *Interpreter) Eval(src string, opts ...EvalOption) (any, error) {
	options := evalOptions{
		printErrors: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	in.errors.Clear()
	in.trace = in.trace[:0]

	mod, err := in.Parse(src)
	if err != nil {
		in.errors.Record(evalerr.From(err))
		return in.finish(src, nil, options, time.Now())
	}
	return in.run(src, mod, options)
}

// Call is Eval.
func (in *Interpreter) Call(src string, opts ...EvalOption) (any, error) {
	return in.Eval(src, opts...)
}

// Run evaluates a module returned by Parse.
func (in *Interpreter) Run(mod *pyast.Module, opts ...EvalOption) (any, error) {
	options := evalOptions{
		printErrors: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	in.trace = in.trace[:0]
	return in.run(mod.Source, mod, options)
}

func (in *Interpreter) run(src string, mod *pyast.Module, options evalOptions) (any, error) {
	start := time.Now()
	ret, err := in.eval.Run(mod)
	if err != nil {
		ret = nil
	}
	return in.finish(src, ret, options, start)
}

func (in *Interpreter) finish(src string, ret any, options evalOptions, start time.Time) (any, error) {
	errs := in.errors.All()
	for _, e := range errs {
		if e.Pos.Line > 0 {
			e.Pos.Line += options.lineOffset
		}
		in.logger.Warn("evaluation error",
			"kind", e.Kind.String(),
			"name", e.Name,
			"msg", e.Msg,
			"line", e.Pos.Line,
		)
	}
	if options.printErrors && len(errs) > 0 {
		source := strings.Repeat("\n", options.lineOffset) + src
		for _, e := range errs {
			io.WriteString(in.stderr, e.Render(source))
		}
	}
	in.logger.Debug("eval",
		"length", len(src),
		"errors", len(errs),
		"duration", time.Since(start),
	)
	if len(errs) > 0 {
		if options.raiseErrors {
			return nil, errs[0]
		}
		return nil, nil
	}
	return ret, nil
}

// Errors returns the errors recorded by the last evaluation.
func (in *Interpreter) Errors() []*evalerr.Error {
	return in.errors.All()
}

// Trace returns the events of the last evaluation, when tracing is on.
func (in *Interpreter) Trace() []evaluator.Event {
	ret := make([]evaluator.Event, len(in.trace))
	copy(ret, in.trace)
	return ret
}

func (in *Interpreter) Symtable() symtable.Table {
	return in.table
}

func (in *Interpreter) Policy() policy.Config {
	return in.policy
}

func (in *Interpreter) Limits() *pyvalue.Limits {
	return in.limits
}

// Define stores a Go value without read-only checks.
func (in *Interpreter) Define(name string, value any) {
	in.table.Define(name, pyvalue.FromGo(value))
}

// DefineFunc makes a Go function callable by name.
func (in *Interpreter) DefineFunc(name string, fn any) error {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("%s: not a function: %T", name, fn)
	}
	in.table.Define(name, pyvalue.WrapGoFunc(name, fn))
	return nil
}

func (in *Interpreter) Lookup(name string) (any, bool) {
	return in.table.Lookup(name)
}

// Remove deletes a symbol, honouring read-only flags.
func (in *Interpreter) Remove(name string) error {
	return in.table.Remove(name)
}

// Close closes files left open by evaluated code.
func (in *Interpreter) Close() error {
	return in.eval.Files().CloseAll()
}

// Names lists the names referenced by src, in order of first appearance.
func (in *Interpreter) Names(src string) ([]string, error) {
	mod, err := in.Parse(src)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	pyast.Walk(mod, func(n pyast.Node) bool {
		if name, ok := n.(*pyast.Name); ok && !seen[name.Id] {
			seen[name.Id] = true
			names = append(names, name.Id)
		}
		return true
	})
	return names, nil
}

// Eval evaluates src and converts the result to T. Evaluation errors are
// returned.
func Eval[T any](in *Interpreter, src string, opts ...EvalOption) (ret T, err error) {
	v, err := in.Eval(src, append(opts, RaiseErrors(true))...)
	if err != nil {
		return ret, err
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	rv, err := pyvalue.ToGo(in.eval, v, reflect.TypeFor[T]())
	if err != nil {
		return ret, err
	}
	return rv.Interface().(T), nil
}
