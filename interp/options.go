package interp

import (
	"io"

	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/policy"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
)

// Parser turns source text into a syntax tree.
type Parser interface {
	Parse(name string, src string) (*pyast.Module, error)
}

type Options struct {
	// SymbolTable is used as is when set; no builtins are installed
	SymbolTable symtable.Table
	// Nested selects the group symbol table with math and np subgroups
	Nested    bool
	Minimal   bool
	Overrides []policy.Override
	// Config is merged over the baseline and the overrides
	Config           map[string]bool
	Stdout           io.Writer // if nil, default to os.Stdout
	Stderr           io.Writer // if nil, default to os.Stderr
	Numeric          bool
	BuiltinsReadonly bool
	ReadonlySymbols  []string
	Limits           *pyvalue.Limits
	Logger           logs.Logger
	Parser           Parser
	// Modules are importable in addition to math
	Modules map[string]map[string]any
	// Importable restricts imports to the named modules when not nil
	Importable []string
	Trace      bool
}

type Option func(*Options)

func WithSymbolTable(table symtable.Table) Option {
	return func(o *Options) {
		o.SymbolTable = table
	}
}

func WithNested(nested bool) Option {
	return func(o *Options) {
		o.Nested = nested
	}
}

func WithMinimal(minimal bool) Option {
	return func(o *Options) {
		o.Minimal = minimal
	}
}

func WithConstruct(name string, enabled bool) Option {
	return func(o *Options) {
		o.Overrides = append(o.Overrides, policy.With(name, enabled))
	}
}

func WithConfig(config map[string]bool) Option {
	return func(o *Options) {
		o.Config = config
	}
}

func WithStdout(w io.Writer) Option {
	return func(o *Options) {
		o.Stdout = w
	}
}

func WithStderr(w io.Writer) Option {
	return func(o *Options) {
		o.Stderr = w
	}
}

func WithNumeric(numeric bool) Option {
	return func(o *Options) {
		o.Numeric = numeric
	}
}

func WithBuiltinsReadonly(readonly bool) Option {
	return func(o *Options) {
		o.BuiltinsReadonly = readonly
	}
}

func WithReadonlySymbols(names ...string) Option {
	return func(o *Options) {
		o.ReadonlySymbols = append(o.ReadonlySymbols, names...)
	}
}

func WithLimits(limits *pyvalue.Limits) Option {
	return func(o *Options) {
		o.Limits = limits
	}
}

func WithLogger(logger logs.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithParser(parser Parser) Option {
	return func(o *Options) {
		o.Parser = parser
	}
}

// WithModules registers importable modules by name.
func WithModules(modules map[string]map[string]any) Option {
	return func(o *Options) {
		if o.Modules == nil {
			o.Modules = make(map[string]map[string]any)
		}
		for name, members := range modules {
			o.Modules[name] = members
		}
	}
}

func WithImportable(names ...string) Option {
	return func(o *Options) {
		o.Importable = append(o.Importable, names...)
	}
}

func WithTrace(trace bool) Option {
	return func(o *Options) {
		o.Trace = trace
	}
}

type evalOptions struct {
	lineOffset  int
	printErrors bool
	raiseErrors bool
}

type EvalOption func(*evalOptions)

// LineOffset is added to the line numbers of reported errors.
func LineOffset(n int) EvalOption {
	return func(o *evalOptions) {
		o.lineOffset = n
	}
}

func PrintErrors(print bool) EvalOption {
	return func(o *evalOptions) {
		o.printErrors = print
	}
}

// RaiseErrors returns the first recorded error from Eval instead of only
// recording it.
func RaiseErrors(raise bool) EvalOption {
	return func(o *evalOptions) {
		o.raiseErrors = raise
	}
}
