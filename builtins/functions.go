package builtins

import (
	"hash/fnv"
	"math"
	"math/big"
	"math/cmplx"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

func one(name string, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs(name, kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount(name, args, 1, 1); err != nil {
		return nil, err
	}
	return args[0], nil
}

func abs(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("abs", args, kwargs)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		if v >= 0 {
			return v, nil
		}
		if v == math.MinInt64 {
			return new(big.Int).Neg(big.NewInt(v)), nil
		}
		return -v, nil
	case *big.Int:
		return pyvalue.NormalizeInt(new(big.Int).Abs(v)), nil
	case float64:
		return math.Abs(v), nil
	case complex128:
		return cmplx.Abs(v), nil
	}
	return nil, pyvalue.TypeErrorf("bad operand type for abs(): '%s'", pyvalue.TypeName(v))
}

func truthOf(name string, args []any, kwargs []pyvalue.Kwarg, stopOn bool) (any, error) {
	v, err := one(name, args, kwargs)
	if err != nil {
		return nil, err
	}
	next, err := pyvalue.Iterate(v)
	if err != nil {
		return nil, err
	}
	for {
		e, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return !stopOn, nil
		}
		if pyvalue.Truth(e) == stopOn {
			return stopOn, nil
		}
	}
}

func all(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	return truthOf("all", args, kwargs, false)
}

func anyFn(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	return truthOf("any", args, kwargs, true)
}

func ascii(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("ascii", args, kwargs)
	if err != nil {
		return nil, err
	}
	return pyvalue.ASCII(v), nil
}

// radix formats an integer with a base prefix, like bin(5) == '0b101'.
func radix(name string, spec string) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		v, err := one(name, args, kwargs)
		if err != nil {
			return nil, err
		}
		if !pyvalue.IsInt(v) {
			return nil, pyvalue.TypeErrorf("'%s' object cannot be interpreted as an integer", pyvalue.TypeName(v))
		}
		return pyvalue.Format(v, spec)
	}
}

func callable(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("callable", args, kwargs)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(pyvalue.Callable); ok {
		return true, nil
	}
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func, nil
}

func chr(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("chr", args, kwargs)
	if err != nil {
		return nil, err
	}
	i, err := pyvalue.ToInt(v)
	if err != nil {
		return nil, err
	}
	if i < 0 || i > utf8.MaxRune {
		return nil, pyvalue.ValueErrorf("chr() arg not in range(0x110000)")
	}
	return string(rune(i)), nil
}

// scoped is implemented by runtimes that can list the names in scope.
type scoped interface {
	ScopeNames() []string
}

func dir(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("dir", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("dir", args, 0, 1); err != nil {
		return nil, err
	}
	var names []string
	if len(args) == 0 {
		if s, ok := rt.(scoped); ok {
			names = s.ScopeNames()
		}
	} else {
		names = pyvalue.Dir(args[0])
	}
	ret := make([]any, 0, len(names))
	for _, name := range names {
		ret = append(ret, name)
	}
	return pyvalue.NewList(ret), nil
}

func divmod(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("divmod", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("divmod", args, 2, 2); err != nil {
		return nil, err
	}
	q, err := pyvalue.Binary(pyast.FloorDiv, args[0], args[1], rt.Limits())
	if err != nil {
		return nil, err
	}
	r, err := pyvalue.Binary(pyast.Mod, args[0], args[1], rt.Limits())
	if err != nil {
		return nil, err
	}
	return pyvalue.Tuple{q, r}, nil
}

func enumerate(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("enumerate", args, kwargs, "iterable", "start?")
	if err != nil {
		return nil, err
	}
	next, err := pyvalue.Iterate(a[0])
	if err != nil {
		return nil, err
	}
	var i any = int64(0)
	if a[1] != nil {
		if !pyvalue.IsInt(a[1]) {
			return nil, pyvalue.TypeErrorf("'%s' object cannot be interpreted as an integer", pyvalue.TypeName(a[1]))
		}
		i = a[1]
	}
	return pyvalue.NewIterator("enumerate", func() (any, bool, error) {
		v, ok, err := next()
		if err != nil || !ok {
			return nil, ok, err
		}
		ret := pyvalue.Tuple{i, v}
		i, err = pyvalue.Binary(pyast.Add, i, int64(1), nil)
		if err != nil {
			return nil, false, err
		}
		return ret, true, nil
	}), nil
}

func filter(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("filter", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("filter", args, 2, 2); err != nil {
		return nil, err
	}
	pred := args[0]
	next, err := pyvalue.Iterate(args[1])
	if err != nil {
		return nil, err
	}
	return pyvalue.NewIterator("filter", func() (any, bool, error) {
		for {
			v, ok, err := next()
			if err != nil || !ok {
				return nil, ok, err
			}
			test := v
			if pred != nil {
				test, err = rt.Call(pred, []any{v}, nil)
				if err != nil {
					return nil, false, err
				}
			}
			if pyvalue.Truth(test) {
				return v, true, nil
			}
		}
	}), nil
}

func format(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("format", args, kwargs, "value", "format_spec?")
	if err != nil {
		return nil, err
	}
	spec := ""
	if a[1] != nil {
		s, ok := a[1].(string)
		if !ok {
			return nil, pyvalue.TypeErrorf("format() argument 2 must be str, not %s", pyvalue.TypeName(a[1]))
		}
		spec = s
	}
	s, err := pyvalue.Format(a[0], spec)
	if err != nil {
		return nil, err
	}
	if err := rt.Limits().CheckLength(len(s)); err != nil {
		return nil, err
	}
	return s, nil
}

func attrName(fn string, v any) (string, error) {
	name, ok := v.(string)
	if !ok {
		return "", pyvalue.TypeErrorf("%s(): attribute name must be string", fn)
	}
	return name, nil
}

func getattr(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("getattr", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("getattr", args, 2, 3); err != nil {
		return nil, err
	}
	name, err := attrName("getattr", args[1])
	if err != nil {
		return nil, err
	}
	v, err := pyvalue.GetAttr(args[0], name)
	if err != nil && len(args) == 3 && evalerr.From(err).Kind == evalerr.KindAttribute {
		return args[2], nil
	}
	return v, err
}

func hasattr(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("hasattr", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("hasattr", args, 2, 2); err != nil {
		return nil, err
	}
	name, err := attrName("hasattr", args[1])
	if err != nil {
		return nil, err
	}
	return pyvalue.HasAttr(args[0], name), nil
}

// hashOf returns integers unchanged and a digest of the hash key otherwise,
// so equal values hash equal.
func hashOf(v any) (int64, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int64:
		return v, nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < math.MaxInt64 {
			return int64(v), nil
		}
	}
	key, err := pyvalue.HashKey(v)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64() >> 1), nil
}

func hash(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("hash", args, kwargs)
	if err != nil {
		return nil, err
	}
	h, err := hashOf(v)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func id(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("id", args, kwargs)
	if err != nil {
		return nil, err
	}
	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan:
			return int64(rv.Pointer()), nil
		}
	}
	h, err := hashOf(v)
	if err != nil {
		// unhashable values without identity
		return int64(reflect.ValueOf(v).Pointer()), nil
	}
	return h, nil
}

func isinstance(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("isinstance", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("isinstance", args, 2, 2); err != nil {
		return nil, err
	}
	return pyvalue.IsInstance(args[0], args[1])
}

func iter(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("iter", args, kwargs)
	if err != nil {
		return nil, err
	}
	return pyvalue.IterOf(v)
}

func length(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("len", args, kwargs)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case string:
		return int64(utf8.RuneCountInString(v)), nil
	case pyvalue.Bytes:
		return int64(len(v)), nil
	case pyvalue.Tuple:
		return int64(len(v)), nil
	case pyvalue.Lener:
		return int64(v.Len()), nil
	}
	if v != nil {
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return int64(rv.Len()), nil
		}
	}
	return nil, pyvalue.TypeErrorf("object of type '%s' has no len()", pyvalue.TypeName(v))
}

func mapFn(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("map", kwargs); err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, pyvalue.TypeErrorf("map() must have at least two arguments.")
	}
	fn := args[0]
	nexts, err := iterators(args[1:])
	if err != nil {
		return nil, err
	}
	return pyvalue.NewIterator("map", func() (any, bool, error) {
		elems, ok, err := step(nexts)
		if err != nil || !ok {
			return nil, ok, err
		}
		v, err := rt.Call(fn, elems, nil)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}), nil
}

func iterators(iterables []any) ([]func() (any, bool, error), error) {
	ret := make([]func() (any, bool, error), 0, len(iterables))
	for _, it := range iterables {
		next, err := pyvalue.Iterate(it)
		if err != nil {
			return nil, err
		}
		ret = append(ret, next)
	}
	return ret, nil
}

// step advances all iterators; ok is false when any is exhausted.
func step(nexts []func() (any, bool, error)) ([]any, bool, error) {
	elems := make([]any, 0, len(nexts))
	for _, next := range nexts {
		v, ok, err := next()
		if err != nil || !ok {
			return nil, false, err
		}
		elems = append(elems, v)
	}
	return elems, true, nil
}

func zip(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	strict := false
	for _, kw := range kwargs {
		if kw.Name != "strict" {
			return nil, pyvalue.TypeErrorf("zip() got an unexpected keyword argument '%s'", kw.Name)
		}
		strict = pyvalue.Truth(kw.Value)
	}
	nexts, err := iterators(args)
	if err != nil {
		return nil, err
	}
	return pyvalue.NewIterator("zip", func() (any, bool, error) {
		if len(nexts) == 0 {
			return nil, false, nil
		}
		elems := make(pyvalue.Tuple, 0, len(nexts))
		for i, next := range nexts {
			v, ok, err := next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				if strict && (i > 0 || !exhausted(nexts[1:])) {
					return nil, false, pyvalue.ValueErrorf("zip() arguments have different lengths")
				}
				return nil, false, nil
			}
			elems = append(elems, v)
		}
		return elems, true, nil
	}), nil
}

func exhausted(nexts []func() (any, bool, error)) bool {
	for _, next := range nexts {
		if _, ok, _ := next(); ok {
			return false
		}
	}
	return true
}

// extreme implements max (sign 1) and min (sign -1).
func extreme(name string, sign int) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		var key, def any
		hasDefault := false
		for _, kw := range kwargs {
			switch kw.Name {
			case "key":
				key = kw.Value
			case "default":
				def = kw.Value
				hasDefault = true
			default:
				return nil, pyvalue.TypeErrorf("%s() got an unexpected keyword argument '%s'", name, kw.Name)
			}
		}
		if len(args) == 0 {
			return nil, pyvalue.TypeErrorf("%s expected at least 1 argument, got 0", name)
		}
		elems := args
		if len(args) == 1 {
			var err error
			elems, err = pyvalue.ToSlice(args[0])
			if err != nil {
				return nil, err
			}
		} else if hasDefault {
			return nil, pyvalue.TypeErrorf("Cannot specify a default for %s() with multiple positional arguments", name)
		}
		if len(elems) == 0 {
			if hasDefault {
				return def, nil
			}
			return nil, pyvalue.ValueErrorf("%s() arg is an empty sequence", name)
		}
		var best, bestKey any
		for i, e := range elems {
			k := e
			if key != nil {
				var err error
				k, err = rt.Call(key, []any{e}, nil)
				if err != nil {
					return nil, err
				}
			}
			if i == 0 {
				best, bestKey = e, k
				continue
			}
			x, y := bestKey, k
			if sign < 0 {
				x, y = y, x
			}
			less, err := pyvalue.Less(x, y)
			if err != nil {
				return nil, err
			}
			if less {
				best, bestKey = e, k
			}
		}
		return best, nil
	}
}

func next(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("next", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("next", args, 1, 2); err != nil {
		return nil, err
	}
	it, ok := args[0].(*pyvalue.Iterator)
	if !ok {
		return nil, pyvalue.TypeErrorf("'%s' object is not an iterator", pyvalue.TypeName(args[0]))
	}
	v, ok, err := it.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, evalerr.Named(evalerr.KindRuntime, "StopIteration", "")
	}
	return v, nil
}

func ord(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("ord", args, kwargs)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case string:
		if n := utf8.RuneCountInString(v); n != 1 {
			return nil, pyvalue.TypeErrorf("ord() expected a character, but string of length %d found", n)
		}
		r, _ := utf8.DecodeRuneInString(v)
		return int64(r), nil
	case pyvalue.Bytes:
		if len(v) != 1 {
			return nil, pyvalue.TypeErrorf("ord() expected a character, but string of length %d found", len(v))
		}
		return int64(v[0]), nil
	}
	return nil, pyvalue.TypeErrorf("ord() expected string of length 1, but %s found", pyvalue.TypeName(v))
}

func pow(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("pow", args, kwargs, "base", "exp", "mod?")
	if err != nil {
		return nil, err
	}
	if a[2] == nil {
		return pyvalue.Binary(pyast.Pow, a[0], a[1], rt.Limits())
	}
	if !pyvalue.IsInt(a[0]) || !pyvalue.IsInt(a[1]) || !pyvalue.IsInt(a[2]) {
		return nil, pyvalue.TypeErrorf("pow() 3rd argument not allowed unless all arguments are integers")
	}
	base, exp, mod := pyvalue.ToBig(a[0]), pyvalue.ToBig(a[1]), pyvalue.ToBig(a[2])
	if mod.Sign() == 0 {
		return nil, pyvalue.ValueErrorf("pow() 3rd argument cannot be 0")
	}
	m := new(big.Int).Abs(mod)
	base.Mod(base, m)
	if exp.Sign() < 0 {
		if base.ModInverse(base, m) == nil {
			return nil, pyvalue.ValueErrorf("base is not invertible for the given modulus")
		}
		exp.Neg(exp)
	}
	ret := new(big.Int).Exp(base, exp, m)
	if mod.Sign() < 0 && ret.Sign() != 0 {
		ret.Add(ret, mod)
	}
	return pyvalue.NormalizeInt(ret), nil
}

func repr(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("repr", args, kwargs)
	if err != nil {
		return nil, err
	}
	return pyvalue.Repr(v), nil
}

func reversed(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("reversed", args, kwargs)
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case *pyvalue.List, pyvalue.Tuple, string, pyvalue.Bytes, *pyvalue.Range, *pyvalue.Dict:
	default:
		return nil, pyvalue.TypeErrorf("'%s' object is not reversible", pyvalue.TypeName(v))
	}
	elems, err := pyvalue.ToSlice(v)
	if err != nil {
		return nil, err
	}
	i := len(elems)
	return pyvalue.NewIterator("reversed", func() (any, bool, error) {
		if i == 0 {
			return nil, false, nil
		}
		i--
		return elems[i], true, nil
	}), nil
}

func round(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("round", args, kwargs, "number", "ndigits?")
	if err != nil {
		return nil, err
	}
	x := a[0]

	if a[1] == nil {
		switch v := x.(type) {
		case bool:
			return pyvalue.ToBig(v).Int64(), nil
		case int64, *big.Int:
			return v, nil
		case float64:
			return floatToInt(math.RoundToEven(v))
		}
		return nil, pyvalue.TypeErrorf("type %s doesn't define __round__ method", pyvalue.TypeName(x))
	}

	if !pyvalue.IsInt(a[1]) {
		return nil, pyvalue.TypeErrorf("'%s' object cannot be interpreted as an integer", pyvalue.TypeName(a[1]))
	}
	nd, err := pyvalue.ToInt(a[1])
	if err != nil {
		return nil, err
	}

	switch v := x.(type) {
	case bool, int64, *big.Int:
		i := pyvalue.ToBig(v)
		if nd >= 0 {
			return pyvalue.NormalizeInt(i), nil
		}
		if nd < -400 {
			return int64(0), nil
		}
		unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(-nd), nil)
		q, r := new(big.Int).DivMod(i, unit, new(big.Int))
		// half even
		c := new(big.Int).Lsh(r, 1).Cmp(unit)
		if c > 0 || c == 0 && q.Bit(0) == 1 {
			q.Add(q, big.NewInt(1))
		}
		return pyvalue.NormalizeInt(q.Mul(q, unit)), nil

	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) || v == 0 {
			return v, nil
		}
		if nd > 323 {
			return v, nil
		}
		if nd < -308 {
			return math.Copysign(0, v), nil
		}
		if nd >= 0 {
			r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', int(nd), 64), 64)
			if err != nil {
				return nil, pyvalue.OverflowErrorf("rounded value too large to represent")
			}
			return r, nil
		}
		unit := math.Pow(10, float64(-nd))
		return math.RoundToEven(v/unit) * unit, nil
	}
	return nil, pyvalue.TypeErrorf("type %s doesn't define __round__ method", pyvalue.TypeName(x))
}

// floatToInt converts an integral float to an int value.
func floatToInt(f float64) (any, error) {
	if math.IsInf(f, 0) {
		return nil, pyvalue.OverflowErrorf("cannot convert float infinity to integer")
	}
	if math.IsNaN(f) {
		return nil, pyvalue.ValueErrorf("cannot convert float NaN to integer")
	}
	if f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f), nil
	}
	i, _ := big.NewFloat(f).Int(nil)
	return pyvalue.NormalizeInt(i), nil
}

func sorted(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.ArgCount("sorted", args, 1, 1); err != nil {
		return nil, err
	}
	var key any
	reverse := false
	for _, kw := range kwargs {
		switch kw.Name {
		case "key":
			key = kw.Value
		case "reverse":
			reverse = pyvalue.Truth(kw.Value)
		default:
			return nil, pyvalue.TypeErrorf("sorted() got an unexpected keyword argument '%s'", kw.Name)
		}
	}
	elems, err := pyvalue.ToSlice(args[0])
	if err != nil {
		return nil, err
	}
	elems = slices.Clone(elems)
	if err := pyvalue.SortValues(rt, elems, key, reverse); err != nil {
		return nil, err
	}
	return pyvalue.NewList(elems), nil
}

func sum(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("sum", args, kwargs, "iterable", "start?")
	if err != nil {
		return nil, err
	}
	var total any = int64(0)
	if a[1] != nil {
		total = a[1]
	}
	switch total.(type) {
	case string:
		return nil, pyvalue.TypeErrorf("sum() can't sum strings [use ''.join(seq) instead]")
	case pyvalue.Bytes:
		return nil, pyvalue.TypeErrorf("sum() can't sum bytes [use b''.join(seq) instead]")
	}
	next, err := pyvalue.Iterate(a[0])
	if err != nil {
		return nil, err
	}
	for {
		v, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return total, nil
		}
		total, err = pyvalue.Binary(pyast.Add, total, v, rt.Limits())
		if err != nil {
			return nil, err
		}
	}
}
