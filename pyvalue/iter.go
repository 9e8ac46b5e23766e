package pyvalue

import (
	"reflect"
	"unicode/utf8"
)

// Iterate returns a pull function over the elements of v.
func Iterate(v any) (func() (any, bool, error), error) {
	switch v := v.(type) {
	case *List:
		i := 0
		return func() (any, bool, error) {
			if i >= len(v.Elems) {
				return nil, false, nil
			}
			i++
			return v.Elems[i-1], true, nil
		}, nil
	case Tuple:
		return sliceIter(v), nil
	case string:
		i := 0
		return func() (any, bool, error) {
			if i >= len(v) {
				return nil, false, nil
			}
			_, size := utf8.DecodeRuneInString(v[i:])
			s := v[i : i+size]
			i += size
			return s, true, nil
		}, nil
	case Bytes:
		i := 0
		return func() (any, bool, error) {
			if i >= len(v) {
				return nil, false, nil
			}
			i++
			return int64(v[i-1]), true, nil
		}, nil
	case *Dict:
		return sliceIter(v.Keys()), nil
	case *Set:
		return sliceIter(v.Items()), nil
	case *Range:
		i, n := 0, v.Len()
		return func() (any, bool, error) {
			if i >= n {
				return nil, false, nil
			}
			i++
			return v.At(i - 1), true, nil
		}, nil
	case *Iterator:
		return v.Next, nil
	case Iterable:
		it, err := v.Iter()
		if err != nil {
			return nil, err
		}
		return it.Next, nil
	}

	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			i := 0
			return func() (any, bool, error) {
				if i >= rv.Len() {
					return nil, false, nil
				}
				i++
				return FromGo(rv.Index(i - 1).Interface()), true, nil
			}, nil
		}
	}
	return nil, typeErrorf("'%s' object is not iterable", TypeName(v))
}

func sliceIter(s []any) func() (any, bool, error) {
	i := 0
	return func() (any, bool, error) {
		if i >= len(s) {
			return nil, false, nil
		}
		i++
		return s[i-1], true, nil
	}
}

// ToSlice collects the elements of an iterable. The result may share
// storage with v for tuples.
func ToSlice(v any) ([]any, error) {
	switch v := v.(type) {
	case *List:
		ret := make([]any, len(v.Elems))
		copy(ret, v.Elems)
		return ret, nil
	case Tuple:
		return v, nil
	}
	next, err := Iterate(v)
	if err != nil {
		return nil, err
	}
	var ret []any
	for {
		e, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return ret, nil
		}
		ret = append(ret, e)
	}
}

// IterOf wraps an iterable as an *Iterator.
func IterOf(v any) (*Iterator, error) {
	if it, ok := v.(*Iterator); ok {
		return it, nil
	}
	next, err := Iterate(v)
	if err != nil {
		return nil, err
	}
	name := TypeName(v) + "_iterator"
	return NewIterator(name, next), nil
}
