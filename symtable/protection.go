package symtable

import (
	"maps"
	"strings"
)

// Protection decides which names evaluated code may not rebind or delete.
// An explicit entry in ReadonlySymbols takes precedence over
// BuiltinsReadonly, so a builtin can be made writable by name.
type Protection struct {
	BuiltinsReadonly bool
	ReadonlySymbols  map[string]bool
	builtins         map[string]bool
}

func NewProtection() *Protection {
	return &Protection{
		ReadonlySymbols: make(map[string]bool),
		builtins:        make(map[string]bool),
	}
}

// MarkBuiltins records names installed at construction.
func (p *Protection) MarkBuiltins(names ...string) {
	if p.builtins == nil {
		p.builtins = make(map[string]bool)
	}
	for _, name := range names {
		p.builtins[name] = true
	}
}

func (p *Protection) IsBuiltin(name string) bool {
	return p != nil && p.builtins[name]
}

func (p *Protection) SetReadonly(name string, readonly bool) {
	if p.ReadonlySymbols == nil {
		p.ReadonlySymbols = make(map[string]bool)
	}
	p.ReadonlySymbols[name] = readonly
}

func (p *Protection) Readonly(name string) bool {
	if p == nil {
		return false
	}
	if ro, ok := p.ReadonlySymbols[name]; ok {
		return ro
	}
	return p.BuiltinsReadonly && (p.builtins[name] || isSearchGroups(name))
}

// the search order of any group is protected along with the builtins
func isSearchGroups(name string) bool {
	return name == searchGroupsAttr || strings.HasSuffix(name, "."+searchGroupsAttr)
}

func (p *Protection) Clone() *Protection {
	return &Protection{
		BuiltinsReadonly: p.BuiltinsReadonly,
		ReadonlySymbols:  maps.Clone(p.ReadonlySymbols),
		builtins:         maps.Clone(p.builtins),
	}
}
