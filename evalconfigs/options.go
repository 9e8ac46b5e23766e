package evalconfigs

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/reusee/taieval/cmds"
	"github.com/reusee/taieval/configs"
	"github.com/reusee/taieval/interp"
	"github.com/reusee/taieval/logs"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/starparse"
	"github.com/samber/lo"
)

type Flags struct {
	Minimal          bool
	Nested           bool
	Numeric          bool
	Starlark         bool
	BuiltinsReadonly bool
	Trace            bool
	Enable           []string
	Disable          []string
}

var (
	minimalFlag          = cmds.Switch("-minimal", "start with every optional construct off")
	nestedFlag           = cmds.Switch("-nested", "use the nested symbol table")
	numericFlag          = cmds.Switch("-numeric", "install the numeric array functions")
	starlarkFlag         = cmds.Switch("-starlark", "parse the Starlark dialect")
	builtinsReadonlyFlag = cmds.Switch("-builtins-readonly", "protect builtin names from assignment")
	traceFlag            = cmds.Switch("-trace", "log each evaluated node")
	enableFlag           = cmds.Collect[string]("-enable", "turn a construct on")
	disableFlag          = cmds.Collect[string]("-disable", "turn a construct off")
)

func (Module) Flags() Flags {
	return Flags{
		Minimal:          *minimalFlag,
		Nested:           *nestedFlag,
		Numeric:          *numericFlag,
		Starlark:         *starlarkFlag,
		BuiltinsReadonly: *builtinsReadonlyFlag,
		Trace:            *traceFlag,
		Enable:           *enableFlag,
		Disable:          *disableFlag,
	}
}

// GetOptions loads the interpreter options once.
type GetOptions func() (interp.Options, error)

func (Module) GetOptions(
	loader configs.Loader,
	flags Flags,
	logger logs.Logger,
) GetOptions {
	return sync.OnceValues(func() (interp.Options, error) {
		options, err := LoadOptions(loader, flags)
		if err != nil {
			return options, err
		}
		options.Logger = logger
		return options, nil
	})
}

// Options panics on a bad configuration. Callers that must report it check
// GetOptions first.
func (Module) Options(
	getOptions GetOptions,
) interp.Options {
	options, err := getOptions()
	if err != nil {
		panic(err)
	}
	return options
}

// LoadOptions reads the configuration files of loader and applies flags over
// them. A switch given on the command line always turns the feature on.
func LoadOptions(loader configs.Loader, flags Flags) (options interp.Options, err error) {
	for path, target := range map[string]any{
		"minimal":           &options.Minimal,
		"nested_symtable":   &options.Nested,
		"use_numeric":       &options.Numeric,
		"builtins_readonly": &options.BuiltinsReadonly,
		"readonly_symbols":  &options.ReadonlySymbols,
		"modules":           &options.Importable,
		"trace":             &options.Trace,
	} {
		if err := configs.Optional(loader, path, target); err != nil {
			return options, err
		}
	}
	dialect, err := configs.First[string](loader, "dialect")
	if err != nil {
		return options, err
	}

	options.Config, err = constructs(loader)
	if err != nil {
		return options, err
	}
	options.Limits, err = limits(loader)
	if err != nil {
		return options, err
	}

	options.Minimal = cmp.Or(flags.Minimal, options.Minimal)
	options.Nested = cmp.Or(flags.Nested, options.Nested)
	options.Numeric = cmp.Or(flags.Numeric, options.Numeric)
	options.BuiltinsReadonly = cmp.Or(flags.BuiltinsReadonly, options.BuiltinsReadonly)
	options.Trace = cmp.Or(flags.Trace, options.Trace)
	if flags.Starlark {
		dialect = "starlark"
	}
	for _, name := range flags.Enable {
		interp.WithConstruct(name, true)(&options)
	}
	for _, name := range flags.Disable {
		interp.WithConstruct(name, false)(&options)
	}

	switch dialect {
	case "", "python":
	case "starlark":
		options.Parser = starparse.Parser{}
	default:
		return options, fmt.Errorf("unknown dialect: %s", dialect)
	}

	return options, nil
}

// constructs merges the construct tables of all files, earlier files winning.
func constructs(loader configs.Loader) (map[string]bool, error) {
	var tables []map[string]bool
	for table, err := range configs.All[map[string]bool](loader, "constructs") {
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	if len(tables) == 0 {
		return nil, nil
	}
	slices.Reverse(tables)
	return lo.Assign(tables...), nil
}

func limits(loader configs.Loader) (*pyvalue.Limits, error) {
	ret := pyvalue.DefaultLimits()
	var maxExponent, maxShift int
	for path, target := range map[string]any{
		"limits.max_statement_length": &ret.MaxStatementLength,
		"limits.max_exponent":         &maxExponent,
		"limits.max_shift":            &maxShift,
		"limits.max_string_length":    &ret.MaxStringLength,
		"limits.max_open_files":       &ret.MaxOpenFiles,
		"limits.max_buffer_size":      &ret.MaxBufferSize,
		"limits.max_recursion_depth":  &ret.MaxRecursionDepth,
		"limits.max_steps":            &ret.MaxSteps,
		"limits.file_modes":           &ret.FileModes,
	} {
		if err := configs.Optional(loader, path, target); err != nil {
			return nil, err
		}
	}
	if maxExponent > 0 {
		ret.MaxExponent = int64(maxExponent)
	}
	if maxShift > 0 {
		ret.MaxShift = int64(maxShift)
	}
	return ret, nil
}
