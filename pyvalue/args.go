package pyvalue

import "strings"

// UnpackArgs binds arguments to parameter names. A name ending in "?" is
// optional and stays nil when not given.
func UnpackArgs(fn string, args []any, kwargs []Kwarg, names ...string) ([]any, error) {
	if len(args) > len(names) {
		return nil, typeErrorf("%s() takes at most %d arguments (%d given)", fn, len(names), len(args))
	}
	ret := make([]any, len(names))
	set := make([]bool, len(names))
	for i, a := range args {
		ret[i] = a
		set[i] = true
	}
kwargs:
	for _, kw := range kwargs {
		for i, name := range names {
			if strings.TrimSuffix(name, "?") != kw.Name {
				continue
			}
			if set[i] {
				return nil, typeErrorf("%s() got multiple values for argument '%s'", fn, kw.Name)
			}
			ret[i] = kw.Value
			set[i] = true
			continue kwargs
		}
		return nil, typeErrorf("%s() got an unexpected keyword argument '%s'", fn, kw.Name)
	}
	for i, name := range names {
		if !set[i] && !strings.HasSuffix(name, "?") {
			return nil, typeErrorf("%s() missing required argument '%s' (pos %d)", fn, name, i+1)
		}
	}
	return ret, nil
}

// NoKwargs rejects keyword arguments for functions that take none.
func NoKwargs(fn string, kwargs []Kwarg) error {
	if len(kwargs) > 0 {
		return typeErrorf("%s() takes no keyword arguments", fn)
	}
	return nil
}

// ArgCount checks the number of positional arguments.
func ArgCount(fn string, args []any, min, max int) error {
	switch {
	case min == max && len(args) != min:
		return typeErrorf("%s() takes exactly %d argument(s) (%d given)", fn, min, len(args))
	case len(args) < min:
		return typeErrorf("%s() takes at least %d argument(s) (%d given)", fn, min, len(args))
	case max >= 0 && len(args) > max:
		return typeErrorf("%s() takes at most %d argument(s) (%d given)", fn, max, len(args))
	}
	return nil
}
