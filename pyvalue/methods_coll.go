package pyvalue

import (
	"slices"
	"sort"
)

var listMethods, tupleMethods, dictMethods, setMethods, frozenSetMethods map[string]MethodFunc

// SortValues sorts elems in place, stable, optionally by a key function.
func SortValues(rt Runtime, elems []any, key any, reverse bool) error {
	keys := elems
	if key != nil {
		keys = make([]any, len(elems))
		for i, e := range elems {
			k, err := rt.Call(key, []any{e}, nil)
			if err != nil {
				return err
			}
			keys[i] = k
		}
	}
	idx := make([]int, len(elems))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		x, y := keys[idx[a]], keys[idx[b]]
		if reverse {
			x, y = y, x
		}
		less, err := Less(x, y)
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return sortErr
	}
	sorted := make([]any, len(elems))
	for i, j := range idx {
		sorted[i] = elems[j]
	}
	copy(elems, sorted)
	return nil
}

func indexOf(name string, elems []any, args []any) (any, error) {
	if err := ArgCount(name, args, 1, 3); err != nil {
		return nil, err
	}
	start, stop, _, err := (&Slice{Start: argAt(args, 1), Stop: argAt(args, 2)}).Indices(len(elems))
	if err != nil {
		return nil, err
	}
	for i := start; i < stop; i++ {
		if Equal(elems[i], args[0]) {
			return int64(i), nil
		}
	}
	return nil, valueErrorf("%s is not in %s", Repr(args[0]), name)
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func countOf(elems []any, args []any) (any, error) {
	if err := ArgCount("count", args, 1, 1); err != nil {
		return nil, err
	}
	n := int64(0)
	for _, e := range elems {
		if Equal(e, args[0]) {
			n++
		}
	}
	return n, nil
}

func setArgs(name string, args []any) ([]*Set, error) {
	ret := make([]*Set, 0, len(args))
	for _, a := range args {
		if s, ok := a.(*Set); ok {
			ret = append(ret, s)
			continue
		}
		elems, err := ToSlice(a)
		if err != nil {
			return nil, err
		}
		s, err := SetOf(elems...)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func setCombine(name string, op func(ret, other *Set) *Set) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		others, err := setArgs(name, args)
		if err != nil {
			return nil, err
		}
		ret := self.(*Set).Copy()
		for _, o := range others {
			ret = op(ret, o)
		}
		return ret, nil
	}
}

func setUpdate(name string, op func(ret, other *Set) *Set) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		others, err := setArgs(name, args)
		if err != nil {
			return nil, err
		}
		s := self.(*Set)
		ret := s
		for _, o := range others {
			ret = op(ret, o)
		}
		if ret != s {
			*s = *ret
		}
		return nil, nil
	}
}

func union(ret, other *Set) *Set {
	for _, v := range other.items {
		ret.add(v)
	}
	return ret
}

func intersection(ret, other *Set) *Set {
	out := NewSet()
	out.Frozen = ret.Frozen
	for _, v := range ret.items {
		if other.has(v) {
			out.add(v)
		}
	}
	return out
}

func difference(ret, other *Set) *Set {
	out := NewSet()
	out.Frozen = ret.Frozen
	for _, v := range ret.items {
		if !other.has(v) {
			out.add(v)
		}
	}
	return out
}

func symmetricDifference(ret, other *Set) *Set {
	out := difference(ret, other)
	for _, v := range other.items {
		if !ret.has(v) {
			out.add(v)
		}
	}
	return out
}

func setRelation(name string, rel func(s, other *Set) bool) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		if err := ArgCount(name, args, 1, 1); err != nil {
			return nil, err
		}
		others, err := setArgs(name, args)
		if err != nil {
			return nil, err
		}
		return rel(self.(*Set), others[0]), nil
	}
}

func init() {
	listMethods = map[string]MethodFunc{
		"append": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("append", args, 1, 1); err != nil {
				return nil, err
			}
			l := self.(*List)
			l.Elems = append(l.Elems, args[0])
			return nil, nil
		},
		"extend": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("extend", args, 1, 1); err != nil {
				return nil, err
			}
			elems, err := ToSlice(args[0])
			if err != nil {
				return nil, err
			}
			l := self.(*List)
			l.Elems = append(l.Elems, elems...)
			return nil, nil
		},
		"insert": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("insert", args, 2, 2); err != nil {
				return nil, err
			}
			l := self.(*List)
			i, err := ToIndex(args[0])
			if err != nil {
				return nil, err
			}
			if i < 0 {
				i = max(i+len(l.Elems), 0)
			}
			i = min(i, len(l.Elems))
			l.Elems = slices.Insert(l.Elems, i, args[1])
			return nil, nil
		},
		"pop": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("pop", args, 0, 1); err != nil {
				return nil, err
			}
			l := self.(*List)
			if len(l.Elems) == 0 {
				return nil, indexErrorf("pop from empty list")
			}
			var key any = int64(-1)
			if len(args) > 0 {
				key = args[0]
			}
			i, err := normIndex(key, len(l.Elems), "pop")
			if err != nil {
				return nil, err
			}
			v := l.Elems[i]
			l.Elems = slices.Delete(l.Elems, i, i+1)
			return v, nil
		},
		"remove": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("remove", args, 1, 1); err != nil {
				return nil, err
			}
			l := self.(*List)
			for i, e := range l.Elems {
				if Equal(e, args[0]) {
					l.Elems = slices.Delete(l.Elems, i, i+1)
					return nil, nil
				}
			}
			return nil, valueErrorf("list.remove(x): x not in list")
		},
		"clear": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			self.(*List).Elems = nil
			return nil, nil
		},
		"copy": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return NewList(slices.Clone(self.(*List).Elems)), nil
		},
		"count": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return countOf(self.(*List).Elems, args)
		},
		"index": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return indexOf("list", self.(*List).Elems, args)
		},
		"reverse": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			slices.Reverse(self.(*List).Elems)
			return nil, nil
		},
		"sort": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if len(args) > 0 {
				return nil, typeErrorf("sort() takes no positional arguments")
			}
			a, err := UnpackArgs("sort", nil, kwargs, "key?", "reverse?")
			if err != nil {
				return nil, err
			}
			return nil, SortValues(rt, self.(*List).Elems, a[0], Truth(a[1]))
		},
	}

	tupleMethods = map[string]MethodFunc{
		"count": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return countOf(self.(Tuple), args)
		},
		"index": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return indexOf("tuple", self.(Tuple), args)
		},
	}

	dictMethods = map[string]MethodFunc{
		"keys": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return NewList(self.(*Dict).Keys()), nil
		},
		"values": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return NewList(self.(*Dict).Values()), nil
		},
		"items": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			items := self.(*Dict).Items()
			ret := make([]any, len(items))
			for i, item := range items {
				ret[i] = item
			}
			return NewList(ret), nil
		},
		"get": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("get", args, 1, 2); err != nil {
				return nil, err
			}
			v, ok, err := self.(*Dict).Get(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				return argAt(args, 1), nil
			}
			return v, nil
		},
		"setdefault": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("setdefault", args, 1, 2); err != nil {
				return nil, err
			}
			d := self.(*Dict)
			v, ok, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				return v, nil
			}
			def := argAt(args, 1)
			return def, d.Set(args[0], def)
		},
		"pop": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("pop", args, 1, 2); err != nil {
				return nil, err
			}
			d := self.(*Dict)
			v, ok, err := d.Get(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				if len(args) > 1 {
					return args[1], nil
				}
				return nil, keyError(args[0])
			}
			_, err = d.Delete(args[0])
			return v, err
		},
		"popitem": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			d := self.(*Dict)
			if d.Len() == 0 {
				return nil, keyErrorMsg("popitem(): dictionary is empty")
			}
			k, v := d.keys[len(d.keys)-1], d.values[len(d.values)-1]
			_, err := d.Delete(k)
			return Tuple{k, v}, err
		},
		"update": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("update", args, 0, 1); err != nil {
				return nil, err
			}
			d := self.(*Dict)
			if len(args) > 0 {
				if err := DictUpdate(d, args[0]); err != nil {
					return nil, err
				}
			}
			for _, kw := range kwargs {
				d.SetString(kw.Name, kw.Value)
			}
			return nil, nil
		},
		"clear": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			self.(*Dict).Clear()
			return nil, nil
		},
		"copy": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return self.(*Dict).Copy(), nil
		},
	}

	frozenSetMethods = map[string]MethodFunc{
		"copy": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return self.(*Set).Copy(), nil
		},
		"union":                setCombine("union", union),
		"intersection":         setCombine("intersection", intersection),
		"difference":           setCombine("difference", difference),
		"symmetric_difference": setCombine("symmetric_difference", symmetricDifference),
		"issubset": setRelation("issubset", func(s, o *Set) bool {
			return s.subsetOf(o)
		}),
		"issuperset": setRelation("issuperset", func(s, o *Set) bool {
			return o.subsetOf(s)
		}),
		"isdisjoint": setRelation("isdisjoint", func(s, o *Set) bool {
			return intersection(s, o).Len() == 0
		}),
	}

	setMethods = map[string]MethodFunc{
		"add": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("add", args, 1, 1); err != nil {
				return nil, err
			}
			return nil, self.(*Set).Add(args[0])
		},
		"discard": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("discard", args, 1, 1); err != nil {
				return nil, err
			}
			_, err := self.(*Set).Remove(args[0])
			return nil, err
		},
		"remove": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("remove", args, 1, 1); err != nil {
				return nil, err
			}
			ok, err := self.(*Set).Remove(args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, keyError(args[0])
			}
			return nil, nil
		},
		"pop": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			s := self.(*Set)
			if s.Len() == 0 {
				return nil, keyErrorMsg("pop from an empty set")
			}
			v := s.items[0]
			_, err := s.Remove(v)
			return v, err
		},
		"clear": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			self.(*Set).Clear()
			return nil, nil
		},
		"update":                      setUpdate("update", union),
		"intersection_update":         setUpdate("intersection_update", intersection),
		"difference_update":           setUpdate("difference_update", difference),
		"symmetric_difference_update": setUpdate("symmetric_difference_update", symmetricDifference),
	}
	for name, fn := range frozenSetMethods {
		setMethods[name] = fn
	}
}
