package policy

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/reusee/taieval/pyast"
)

var ErrUnknownConstruct = errors.New("unknown construct")

// Config reports which constructs evaluated code may use. A Config never
// changes after it is built.
type Config struct {
	enabled map[string]bool
}

// Override switches one construct on or off.
type Override struct {
	Name    string
	Enabled bool
}

func With(name string, enabled bool) Override {
	return Override{
		Name:    name,
		Enabled: enabled,
	}
}

func baseline(minimal bool) map[string]bool {
	ret := make(map[string]bool, len(pyast.Constructs))
	for _, name := range pyast.Constructs {
		ret[name] = !minimal
	}
	ret[pyast.ConstructImport] = false
	ret[pyast.ConstructImportFrom] = false
	return ret
}

func known(name string) error {
	if !slices.Contains(pyast.Constructs, name) {
		return fmt.Errorf("%w: %s", ErrUnknownConstruct, name)
	}
	return nil
}

// New merges the baseline, the overrides and the configuration mapping, in
// that order.
func New(minimal bool, overrides []Override, config map[string]bool) (Config, error) {
	enabled := baseline(minimal)
	for _, o := range overrides {
		if err := known(o.Name); err != nil {
			return Config{}, err
		}
		enabled[o.Name] = o.Enabled
	}
	for _, name := range slices.Sorted(maps.Keys(config)) {
		if err := known(name); err != nil {
			return Config{}, err
		}
		enabled[name] = config[name]
	}
	return Config{
		enabled: enabled,
	}, nil
}

func Default() Config {
	return Config{
		enabled: baseline(false),
	}
}

func Minimal() Config {
	return Config{
		enabled: baseline(true),
	}
}

// Enabled reports whether construct may be evaluated. The zero Config
// behaves like Default.
func (c Config) Enabled(construct string) bool {
	if c.enabled == nil {
		return Default().Enabled(construct)
	}
	return c.enabled[construct]
}

// Names lists every construct name.
func Names() []string {
	return slices.Clone(pyast.Constructs)
}

func (c Config) Disabled() []string {
	var ret []string
	for _, name := range pyast.Constructs {
		if !c.Enabled(name) {
			ret = append(ret, name)
		}
	}
	return ret
}

// Map returns a copy of the effective flags.
func (c Config) Map() map[string]bool {
	ret := make(map[string]bool, len(pyast.Constructs))
	for _, name := range pyast.Constructs {
		ret[name] = c.Enabled(name)
	}
	return ret
}
