package symtable

import (
	"maps"
	"slices"
)

// Flat is a single-level symbol table.
type Flat struct {
	symbols    map[string]any
	protection *Protection
}

var _ Table = new(Flat)

func NewFlat() *Flat {
	return &Flat{
		symbols:    make(map[string]any),
		protection: NewProtection(),
	}
}

func (f *Flat) Lookup(name string) (any, bool) {
	v, ok := f.symbols[name]
	return v, ok
}

func (f *Flat) Assign(name string, value any) error {
	if err := f.CheckAssign(name); err != nil {
		return err
	}
	f.symbols[name] = value
	return nil
}

func (f *Flat) CheckAssign(name string) error {
	if !ValidName(name) {
		return invalidName(name)
	}
	if f.protection.Readonly(name) {
		return readonly(name)
	}
	return nil
}

func (f *Flat) Remove(name string) error {
	if _, ok := f.symbols[name]; !ok {
		return notFound(name)
	}
	if f.protection.Readonly(name) {
		return readonly(name)
	}
	delete(f.symbols, name)
	return nil
}

func (f *Flat) Contains(name string) bool {
	_, ok := f.symbols[name]
	return ok
}

func (f *Flat) Define(name string, value any) {
	f.symbols[name] = value
}

func (f *Flat) Names() []string {
	return slices.Sorted(maps.Keys(f.symbols))
}

func (f *Flat) Protection() *Protection {
	return f.protection
}

func (f *Flat) Len() int {
	return len(f.symbols)
}
