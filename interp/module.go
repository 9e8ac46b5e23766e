package interp

import (
	"maps"
	"slices"

	"github.com/reusee/dscope"
	"github.com/reusee/taieval/logs"
)

type Module struct {
	dscope.Module
	Logs logs.Module
}

// NewInterpreter builds an Interpreter from the scope's Options, with extra
// options applied on top.
type NewInterpreter func(opts ...Option) (*Interpreter, error)

func (Module) NewInterpreter(
	base Options,
	logger logs.Logger,
) NewInterpreter {
	return func(opts ...Option) (*Interpreter, error) {
		options := base
		options.Overrides = slices.Clone(base.Overrides)
		options.ReadonlySymbols = slices.Clone(base.ReadonlySymbols)
		options.Modules = maps.Clone(base.Modules)
		options.Importable = slices.Clone(base.Importable)
		if options.Logger == nil {
			options.Logger = logger
		}
		for _, opt := range opts {
			opt(&options)
		}
		return NewFromOptions(options)
	}
}
