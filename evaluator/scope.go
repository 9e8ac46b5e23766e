package evaluator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyvalue"
	"github.com/reusee/taieval/symtable"
)

// frame is a local scope of a function call or comprehension. The parent
// is the scope the function was defined in; nil parents fall through to
// the symbol table.
type frame struct {
	name    string
	locals  map[string]any
	globals map[string]bool
	parent  *frame
	retval  any
}

func newFrame(name string, parent *frame) *frame {
	return &frame{
		name:   name,
		locals: make(map[string]any),
		parent: parent,
	}
}

func (f *frame) global(name string) bool {
	return f.globals[name]
}

func (e *Evaluator) lookup(name string) (any, error) {
	for f := e.frame; f != nil; f = f.parent {
		if f.global(name) {
			break
		}
		if v, ok := f.locals[name]; ok {
			return v, nil
		}
	}
	if v, ok := e.table.Lookup(name); ok {
		return v, nil
	}
	return nil, evalerr.Errorf(evalerr.KindNameResolution, "name '%s' is not defined", name)
}

func (e *Evaluator) setName(name string, value any) error {
	if f := e.frame; f != nil && !f.global(name) {
		if err := e.table.CheckAssign(name); err != nil {
			return symbolError(err, name, "assign to")
		}
		f.locals[name] = value
	} else if err := e.table.Assign(name, value); err != nil {
		return symbolError(err, name, "assign to")
	}
	if e.tracer != nil {
		e.trace(e.pos, EventAssign, "Assigned value of %s to `%s`.", pyvalue.Repr(value), name)
	}
	return nil
}

func (e *Evaluator) deleteName(name string) error {
	if f := e.frame; f != nil && !f.global(name) {
		if _, ok := f.locals[name]; !ok {
			return evalerr.Errorf(evalerr.KindNameResolution, "name '%s' is not defined", name)
		}
		if err := e.table.CheckAssign(name); err != nil {
			return symbolError(err, name, "delete")
		}
		delete(f.locals, name)
		return nil
	}
	if err := e.table.Remove(name); err != nil {
		return symbolError(err, name, "delete")
	}
	return nil
}

// symbolError maps symbol table errors to NameError.
func symbolError(err error, name string, verb string) error {
	switch {
	case errors.Is(err, symtable.ErrReadonly):
		return evalerr.Errorf(evalerr.KindNameResolution, "cannot %s read-only symbol '%s'", verb, name)
	case errors.Is(err, symtable.ErrInvalidName):
		return evalerr.Errorf(evalerr.KindNameResolution, "invalid symbol name (reserved word?) '%s'", name)
	case errors.Is(err, symtable.ErrNotFound):
		return evalerr.Errorf(evalerr.KindNameResolution, "name '%s' is not defined", name)
	}
	return err
}

// memberError maps symbol table errors from writes through a group member.
func memberError(err error, name any, verb string) error {
	if errors.Is(err, symtable.ErrReadonly) || errors.Is(err, symtable.ErrInvalidName) {
		return symbolError(err, fmt.Sprint(name), verb)
	}
	return err
}

// ScopeNames lists the names visible from the current scope, for dir().
func (e *Evaluator) ScopeNames() []string {
	seen := make(map[string]bool)
	var names []string
	for f := e.frame; f != nil; f = f.parent {
		for name := range f.locals {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	for _, name := range e.table.Names() {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
