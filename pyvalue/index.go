package pyvalue

import (
	"reflect"
	"slices"
)

type ItemGetter interface {
	GetItem(key any) (any, error)
}

type ItemSetter interface {
	SetItem(key, value any) error
}

type ItemDeleter interface {
	DelItem(key any) error
}

func normIndex(key any, length int, typ string) (int, error) {
	i, err := ToIndex(key)
	if err != nil {
		if IsInt(key) {
			return 0, err
		}
		return 0, typeErrorf("%s indices must be integers or slices, not %s", typ, TypeName(key))
	}
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, indexErrorf("%s index out of range", typ)
	}
	return i, nil
}

func sliceElems(s []any, sl *Slice) ([]any, error) {
	start, stop, step, err := sl.Indices(len(s))
	if err != nil {
		return nil, err
	}
	if step == 1 {
		if start >= stop {
			return []any{}, nil
		}
		return slices.Clone(s[start:stop]), nil
	}
	n := SliceLen(start, stop, step)
	ret := make([]any, 0, n)
	for i := 0; i < n; i++ {
		ret = append(ret, s[start+i*step])
	}
	return ret, nil
}

// GetItem implements v[key].
func GetItem(v, key any) (any, error) {
	switch c := v.(type) {
	case *List:
		if sl, ok := key.(*Slice); ok {
			elems, err := sliceElems(c.Elems, sl)
			if err != nil {
				return nil, err
			}
			return NewList(elems), nil
		}
		i, err := normIndex(key, len(c.Elems), "list")
		if err != nil {
			return nil, err
		}
		return c.Elems[i], nil
	case Tuple:
		if sl, ok := key.(*Slice); ok {
			elems, err := sliceElems(c, sl)
			if err != nil {
				return nil, err
			}
			return Tuple(elems), nil
		}
		i, err := normIndex(key, len(c), "tuple")
		if err != nil {
			return nil, err
		}
		return c[i], nil
	case string:
		rs := []rune(c)
		if sl, ok := key.(*Slice); ok {
			start, stop, step, err := sl.Indices(len(rs))
			if err != nil {
				return nil, err
			}
			n := SliceLen(start, stop, step)
			out := make([]rune, 0, n)
			for i := 0; i < n; i++ {
				out = append(out, rs[start+i*step])
			}
			return string(out), nil
		}
		i, err := normIndex(key, len(rs), "string")
		if err != nil {
			return nil, err
		}
		return string(rs[i]), nil
	case Bytes:
		if sl, ok := key.(*Slice); ok {
			start, stop, step, err := sl.Indices(len(c))
			if err != nil {
				return nil, err
			}
			n := SliceLen(start, stop, step)
			out := make(Bytes, 0, n)
			for i := 0; i < n; i++ {
				out = append(out, c[start+i*step])
			}
			return out, nil
		}
		i, err := normIndex(key, len(c), "index")
		if err != nil {
			return nil, err
		}
		return int64(c[i]), nil
	case *Range:
		n := c.Len()
		if sl, ok := key.(*Slice); ok {
			start, stop, step, err := sl.Indices(n)
			if err != nil {
				return nil, err
			}
			return &Range{
				Start: c.At(start),
				Stop:  c.Start + int64(stop)*c.Step,
				Step:  c.Step * int64(step),
			}, nil
		}
		i, err := normIndex(key, n, "range object")
		if err != nil {
			return nil, err
		}
		return c.At(i), nil
	case *Dict:
		val, ok, err := c.Get(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, keyError(key)
		}
		return val, nil
	case ItemGetter:
		return c.GetItem(key)
	}

	// embedder supplied Go maps and slices are read through reflection
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		k, err := ToGo(nil, key, rv.Type().Key())
		if err != nil {
			return nil, keyError(key)
		}
		elem := rv.MapIndex(k)
		if !elem.IsValid() {
			return nil, keyError(key)
		}
		return FromGo(elem.Interface()), nil
	case reflect.Slice, reflect.Array:
		i, err := normIndex(key, rv.Len(), TypeName(v))
		if err != nil {
			return nil, err
		}
		return FromGo(rv.Index(i).Interface()), nil
	}
	return nil, typeErrorf("'%s' object is not subscriptable", TypeName(v))
}

// SetItem implements v[key] = value.
func SetItem(v, key, value any) error {
	switch c := v.(type) {
	case *List:
		if sl, ok := key.(*Slice); ok {
			return setSlice(c, sl, value)
		}
		i, err := normIndex(key, len(c.Elems), "list assignment")
		if err != nil {
			return err
		}
		c.Elems[i] = value
		return nil
	case *Dict:
		return c.Set(key, value)
	case ItemSetter:
		return c.SetItem(key, value)
	}
	return typeErrorf("'%s' object does not support item assignment", TypeName(v))
}

func setSlice(l *List, sl *Slice, value any) error {
	elems, err := ToSlice(value)
	if err != nil {
		return typeErrorf("can only assign an iterable")
	}
	elems = slices.Clone(elems)
	start, stop, step, err := sl.Indices(len(l.Elems))
	if err != nil {
		return err
	}
	if step == 1 {
		stop = max(stop, start)
		l.Elems = slices.Concat(l.Elems[:start], elems, l.Elems[stop:])
		return nil
	}
	n := SliceLen(start, stop, step)
	if n != len(elems) {
		return valueErrorf("attempt to assign sequence of size %d to extended slice of size %d", len(elems), n)
	}
	for i := 0; i < n; i++ {
		l.Elems[start+i*step] = elems[i]
	}
	return nil
}

// DelItem implements del v[key].
func DelItem(v, key any) error {
	switch c := v.(type) {
	case *List:
		if sl, ok := key.(*Slice); ok {
			start, stop, step, err := sl.Indices(len(c.Elems))
			if err != nil {
				return err
			}
			n := SliceLen(start, stop, step)
			if n == 0 {
				return nil
			}
			drop := make(map[int]bool, n)
			for i := 0; i < n; i++ {
				drop[start+i*step] = true
			}
			kept := c.Elems[:0:0]
			for i, e := range c.Elems {
				if !drop[i] {
					kept = append(kept, e)
				}
			}
			c.Elems = kept
			return nil
		}
		i, err := normIndex(key, len(c.Elems), "list assignment")
		if err != nil {
			return err
		}
		c.Elems = slices.Delete(c.Elems, i, i+1)
		return nil
	case *Dict:
		ok, err := c.Delete(key)
		if err != nil {
			return err
		}
		if !ok {
			return keyError(key)
		}
		return nil
	case ItemDeleter:
		return c.DelItem(key)
	}
	return typeErrorf("'%s' object doesn't support item deletion", TypeName(v))
}
