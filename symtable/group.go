package symtable

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/reusee/taieval/pyvalue"
)

const searchGroupsAttr = "_searchgroups"

// Group is a nested symbol table. Names missing from a group are looked up
// in the child groups listed by its search groups, in order. Dotted names
// address child groups directly.
type Group struct {
	path         string
	symbols      map[string]any
	searchGroups []string
	protection   *Protection
}

var (
	_ Table               = new(Group)
	_ pyvalue.Object      = new(Group)
	_ pyvalue.AttrSetter  = new(Group)
	_ pyvalue.AttrDeleter = new(Group)
	_ pyvalue.AttrLister  = new(Group)
	_ pyvalue.ItemGetter  = new(Group)
	_ pyvalue.ItemSetter  = new(Group)
	_ pyvalue.ItemDeleter = new(Group)
	_ pyvalue.Iterable    = new(Group)
	_ pyvalue.Lener       = new(Group)
)

func NewGroup() *Group {
	return &Group{
		symbols:    make(map[string]any),
		protection: NewProtection(),
	}
}

func (g *Group) qualified(name string) string {
	if g.path == "" {
		return name
	}
	return g.path + "." + name
}

// adopt links a child group into g's path and protection.
func (g *Group) adopt(name string, value any) {
	child, ok := value.(*Group)
	if !ok || child == g {
		return
	}
	child.path = g.qualified(name)
	child.protection = g.protection
	for childName, v := range child.symbols {
		child.adopt(childName, v)
	}
}

// resolve walks a dotted name to the group holding its last component.
func (g *Group) resolve(name string) (*Group, string, error) {
	parts := strings.Split(name, ".")
	group := g
	for _, part := range parts[:len(parts)-1] {
		v, ok := group.symbols[part]
		if !ok {
			return nil, "", notFound(group.qualified(part))
		}
		child, ok := v.(*Group)
		if !ok {
			return nil, "", fmt.Errorf("%w: '%s' is not a group", ErrInvalidName, group.qualified(part))
		}
		group = child
	}
	return group, parts[len(parts)-1], nil
}

func (g *Group) Lookup(name string) (any, bool) {
	group, name, err := g.resolve(name)
	if err != nil {
		return nil, false
	}
	return group.lookup(name)
}

func (g *Group) lookup(name string) (any, bool) {
	if name == searchGroupsAttr {
		return g.SearchGroups(), true
	}
	if v, ok := g.symbols[name]; ok {
		return v, true
	}
	for _, groupName := range g.searchGroups {
		child, ok := g.symbols[groupName].(*Group)
		if !ok {
			continue
		}
		if v, ok := child.symbols[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// owner returns the qualified name the unqualified name currently resolves
// to, so that protected members of search groups are not shadowed.
func (g *Group) owner(name string) string {
	if _, ok := g.symbols[name]; ok {
		return g.qualified(name)
	}
	for _, groupName := range g.searchGroups {
		child, ok := g.symbols[groupName].(*Group)
		if !ok {
			continue
		}
		if _, ok := child.symbols[name]; ok {
			return child.qualified(name)
		}
	}
	return g.qualified(name)
}

func (g *Group) Assign(name string, value any) error {
	group, last, err := g.resolve(name)
	if err != nil {
		return err
	}
	return group.assign(last, value)
}

func (g *Group) CheckAssign(name string) error {
	group, last, err := g.resolve(name)
	if err != nil {
		return err
	}
	return group.checkAssign(last)
}

func (g *Group) checkAssign(name string) error {
	if !ValidName(name) {
		return invalidName(name)
	}
	if g.protection.Readonly(g.qualified(name)) || g.protection.Readonly(g.owner(name)) {
		return readonly(g.qualified(name))
	}
	return nil
}

func (g *Group) assign(name string, value any) error {
	if name == searchGroupsAttr {
		if g.protection.Readonly(g.qualified(name)) {
			return readonly(g.qualified(name))
		}
		return g.setSearchGroupsValue(value)
	}
	if err := g.checkAssign(name); err != nil {
		return err
	}
	g.adopt(name, value)
	g.symbols[name] = value
	return nil
}

func (g *Group) Remove(name string) error {
	group, last, err := g.resolve(name)
	if err != nil {
		return err
	}
	if _, ok := group.symbols[last]; !ok {
		return notFound(group.qualified(last))
	}
	if group.protection.Readonly(group.qualified(last)) {
		return readonly(group.qualified(last))
	}
	delete(group.symbols, last)
	return nil
}

func (g *Group) Contains(name string) bool {
	_, ok := g.Lookup(name)
	return ok
}

// Define stores value unchecked. Dotted names create missing groups.
func (g *Group) Define(name string, value any) {
	parts := strings.Split(name, ".")
	group := g
	for _, part := range parts[:len(parts)-1] {
		child, ok := group.symbols[part].(*Group)
		if !ok {
			child = NewGroup()
			group.adopt(part, child)
			group.symbols[part] = child
		}
		group = child
	}
	last := parts[len(parts)-1]
	if last == searchGroupsAttr {
		_ = group.setSearchGroupsValue(value)
		return
	}
	group.adopt(last, value)
	group.symbols[last] = value
}

// Names lists all symbols, members of child groups qualified by the group
// name.
func (g *Group) Names() []string {
	var names []string
	for name, v := range g.symbols {
		names = append(names, name)
		if child, ok := v.(*Group); ok {
			for _, childName := range child.Names() {
				names = append(names, name+"."+childName)
			}
		}
	}
	slices.Sort(names)
	return names
}

func (g *Group) Protection() *Protection {
	return g.protection
}

func (g *Group) SearchGroups() pyvalue.Tuple {
	ret := make(pyvalue.Tuple, len(g.searchGroups))
	for i, name := range g.searchGroups {
		ret[i] = name
	}
	return ret
}

func (g *Group) SetSearchGroups(names ...string) {
	g.searchGroups = slices.Clone(names)
}

func (g *Group) setSearchGroupsValue(value any) error {
	elems, err := pyvalue.ToSlice(value)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(elems))
	for _, e := range elems {
		s, ok := e.(string)
		if !ok {
			return pyvalue.TypeErrorf("%s must contain group names, not %s", searchGroupsAttr, pyvalue.TypeName(e))
		}
		names = append(names, s)
	}
	g.searchGroups = names
	return nil
}

// Child returns the named child group.
func (g *Group) Child(name string) (*Group, bool) {
	child, ok := g.symbols[name].(*Group)
	return child, ok
}

func (g *Group) Attr(name string) (any, error) {
	if v, ok := g.lookup(name); ok {
		return v, nil
	}
	return nil, pyvalue.AttrErrorf("Group '%s' has no attribute '%s'", g.displayName(), name)
}

func (g *Group) SetAttr(name string, value any) error {
	return g.assign(name, value)
}

func (g *Group) DelAttr(name string) error {
	return g.Remove(name)
}

func (g *Group) AttrNames() []string {
	return slices.Sorted(maps.Keys(g.symbols))
}

func (g *Group) GetItem(key any) (any, error) {
	name, ok := key.(string)
	if !ok {
		return nil, pyvalue.TypeErrorf("group keys must be str, not %s", pyvalue.TypeName(key))
	}
	if v, ok := g.lookup(name); ok {
		return v, nil
	}
	return nil, pyvalue.KeyError(key)
}

func (g *Group) SetItem(key, value any) error {
	name, ok := key.(string)
	if !ok {
		return pyvalue.TypeErrorf("group keys must be str, not %s", pyvalue.TypeName(key))
	}
	return g.assign(name, value)
}

func (g *Group) DelItem(key any) error {
	name, ok := key.(string)
	if !ok {
		return pyvalue.TypeErrorf("group keys must be str, not %s", pyvalue.TypeName(key))
	}
	return g.Remove(name)
}

func (g *Group) Iter() (*pyvalue.Iterator, error) {
	names := g.AttrNames()
	i := 0
	return pyvalue.NewIterator("group", func() (any, bool, error) {
		if i >= len(names) {
			return nil, false, nil
		}
		i++
		return names[i-1], true, nil
	}), nil
}

func (g *Group) Len() int {
	return len(g.symbols)
}

func (g *Group) displayName() string {
	if g.path == "" {
		return "<top>"
	}
	return g.path
}

func (g *Group) TypeName() string {
	return "Group"
}

func (g *Group) Repr() string {
	return fmt.Sprintf("Group('%s', %d symbols)", g.displayName(), len(g.symbols))
}
