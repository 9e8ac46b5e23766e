package evaluator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/reusee/taieval/pyvalue"
)

// Module is an importable namespace.
type Module struct {
	Name    string
	Members map[string]any
}

var (
	_ pyvalue.Object     = new(Module)
	_ pyvalue.AttrLister = new(Module)
)

func NewModule(name string, members map[string]any) *Module {
	return &Module{
		Name:    name,
		Members: members,
	}
}

func (m *Module) Attr(name string) (any, error) {
	if v, ok := m.Members[name]; ok {
		return v, nil
	}
	return nil, pyvalue.AttrErrorf("module '%s' has no attribute '%s'", m.Name, name)
}

func (m *Module) AttrNames() []string {
	return slices.Sorted(maps.Keys(m.Members))
}

func (m *Module) TypeName() string {
	return "module"
}

func (m *Module) Repr() string {
	return fmt.Sprintf("<module '%s'>", m.Name)
}
