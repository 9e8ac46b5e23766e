package builtins

import (
	"math"
	"slices"

	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

// Numeric returns list-based array helpers. Arrays are lists of numbers;
// elementwise functions also accept scalars.
func Numeric() map[string]any {
	funcs := map[string]fn{
		"absolute": elementwise("absolute", math.Abs),
		"arange":   arange,
		"argmax":   argExtreme("argmax", 1),
		"argmin":   argExtreme("argmin", -1),
		"array":    array,
		"ceil":     elementwise("ceil", math.Ceil),
		"clip":     clip,
		"cos":      elementwise("cos", math.Cos),
		"cross":    cross,
		"cumprod":  cumulative("cumprod", pyast.Mult),
		"cumsum":   cumulative("cumsum", pyast.Add),
		"diff":     diff,
		"dot":      dot,
		"exp":      elementwise("exp", math.Exp),
		"floor":    elementwise("floor", math.Floor),
		"full":     full,
		"linspace": linspace,
		"log":      elementwise("log", math.Log),
		"log10":    elementwise("log10", math.Log10),
		"log2":     elementwise("log2", math.Log2),
		"mean":     mean,
		"median":   median,
		"ones":     filled("ones", 1),
		"prod":     prod,
		"sign":     elementwise("sign", sign),
		"sin":      elementwise("sin", math.Sin),
		"sort":     npSort,
		"sqrt":     elementwise("sqrt", math.Sqrt),
		"std":      std,
		"tan":      elementwise("tan", math.Tan),
		"unique":   unique,
		"var":      variance,
		"where":    where,
		"zeros":    filled("zeros", 0),
	}
	ret := map[string]any{
		"pi":  math.Pi,
		"e":   math.E,
		"inf": math.Inf(1),
		"nan": math.NaN(),
	}
	for name, f := range funcs {
		ret[name] = pyvalue.NewBuiltin(name, f)
	}
	return ret
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x
}

func floatList(xs []float64) *pyvalue.List {
	elems := make([]any, len(xs))
	for i, x := range xs {
		elems[i] = x
	}
	return pyvalue.NewList(elems)
}

// size converts a length argument.
func size(rt pyvalue.Runtime, v any) (int, error) {
	n, err := pyvalue.ToIndex(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, pyvalue.ValueErrorf("negative dimensions are not allowed")
	}
	return n, nil
}

func array(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("array", args, kwargs)
	if err != nil {
		return nil, err
	}
	elems, err := pyvalue.ToSlice(v)
	if err != nil {
		return nil, err
	}
	return pyvalue.NewList(slices.Clone(elems)), nil
}

func elementwise(name string, f func(float64) float64) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		v, err := one(name, args, kwargs)
		if err != nil {
			return nil, err
		}
		if pyvalue.IsNumber(v) {
			x, err := pyvalue.ToFloat(v)
			if err != nil {
				return nil, err
			}
			return f(x), nil
		}
		xs, err := floatSeq(v)
		if err != nil {
			return nil, err
		}
		for i, x := range xs {
			xs[i] = f(x)
		}
		return floatList(xs), nil
	}
}

func arange(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("arange", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("arange", args, 1, 3); err != nil {
		return nil, err
	}
	allInt := true
	for _, a := range args {
		if !pyvalue.IsInt(a) {
			allInt = false
		}
	}
	xs, err := floatSeq(pyvalue.Tuple(args))
	if err != nil {
		return nil, err
	}
	start, stop, step := 0.0, 0.0, 1.0
	switch len(xs) {
	case 1:
		stop = xs[0]
	case 2:
		start, stop = xs[0], xs[1]
	case 3:
		start, stop, step = xs[0], xs[1], xs[2]
	}
	if step == 0 {
		return nil, pyvalue.ZeroDivision("arange step must not be zero")
	}
	n := int(math.Ceil((stop - start) / step))
	if n < 0 {
		n = 0
	}
	elems := make([]any, n)
	for i := range elems {
		x := start + float64(i)*step
		if allInt {
			elems[i] = int64(x)
		} else {
			elems[i] = x
		}
	}
	return pyvalue.NewList(elems), nil
}

func linspace(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("linspace", args, kwargs, "start", "stop", "num?", "endpoint?")
	if err != nil {
		return nil, err
	}
	start, err := pyvalue.ToFloat(a[0])
	if err != nil {
		return nil, err
	}
	stop, err := pyvalue.ToFloat(a[1])
	if err != nil {
		return nil, err
	}
	n := 50
	if a[2] != nil {
		n, err = size(rt, a[2])
		if err != nil {
			return nil, err
		}
	}
	endpoint := a[3] == nil || pyvalue.Truth(a[3])
	xs := make([]float64, n)
	div := float64(n)
	if endpoint {
		div = float64(n - 1)
	}
	for i := range xs {
		if div == 0 {
			xs[i] = start
			continue
		}
		xs[i] = start + (stop-start)*float64(i)/div
	}
	if endpoint && n > 1 {
		xs[n-1] = stop
	}
	return floatList(xs), nil
}

func filled(name string, value float64) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		v, err := one(name, args, kwargs)
		if err != nil {
			return nil, err
		}
		n, err := size(rt, v)
		if err != nil {
			return nil, err
		}
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = value
		}
		return floatList(xs), nil
	}
}

func full(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("full", args, kwargs, "shape", "fill_value")
	if err != nil {
		return nil, err
	}
	n, err := size(rt, a[0])
	if err != nil {
		return nil, err
	}
	elems := make([]any, n)
	for i := range elems {
		elems[i] = a[1]
	}
	return pyvalue.NewList(elems), nil
}

func nonEmpty(name string, args []any, kwargs []pyvalue.Kwarg) ([]float64, error) {
	v, err := one(name, args, kwargs)
	if err != nil {
		return nil, err
	}
	xs, err := floatSeq(v)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, pyvalue.ValueErrorf("%s of empty array", name)
	}
	return xs, nil
}

func meanOf(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func mean(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := nonEmpty("mean", args, kwargs)
	if err != nil {
		return nil, err
	}
	return meanOf(xs), nil
}

func median(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := nonEmpty("median", args, kwargs)
	if err != nil {
		return nil, err
	}
	slices.Sort(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2], nil
	}
	return (xs[n/2-1] + xs[n/2]) / 2, nil
}

func varianceOf(xs []float64) float64 {
	m := meanOf(xs)
	s := 0.0
	for _, x := range xs {
		s += (x - m) * (x - m)
	}
	return s / float64(len(xs))
}

func variance(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := nonEmpty("var", args, kwargs)
	if err != nil {
		return nil, err
	}
	return varianceOf(xs), nil
}

func std(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := nonEmpty("std", args, kwargs)
	if err != nil {
		return nil, err
	}
	return math.Sqrt(varianceOf(xs)), nil
}

// cumulative keeps integer results exact by folding with the value operators.
func cumulative(name string, op pyast.Op) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		v, err := one(name, args, kwargs)
		if err != nil {
			return nil, err
		}
		elems, err := pyvalue.ToSlice(v)
		if err != nil {
			return nil, err
		}
		ret := make([]any, len(elems))
		for i, e := range elems {
			if i == 0 {
				ret[i] = e
				continue
			}
			ret[i], err = pyvalue.Binary(op, ret[i-1], e, rt.Limits())
			if err != nil {
				return nil, err
			}
		}
		return pyvalue.NewList(ret), nil
	}
}

func diff(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("diff", args, kwargs)
	if err != nil {
		return nil, err
	}
	elems, err := pyvalue.ToSlice(v)
	if err != nil {
		return nil, err
	}
	var ret []any
	for i := 1; i < len(elems); i++ {
		d, err := pyvalue.Binary(pyast.Sub, elems[i], elems[i-1], rt.Limits())
		if err != nil {
			return nil, err
		}
		ret = append(ret, d)
	}
	if ret == nil {
		ret = []any{}
	}
	return pyvalue.NewList(ret), nil
}

func pair(name string, args []any, kwargs []pyvalue.Kwarg) ([]any, []any, error) {
	if err := pyvalue.NoKwargs(name, kwargs); err != nil {
		return nil, nil, err
	}
	if err := pyvalue.ArgCount(name, args, 2, 2); err != nil {
		return nil, nil, err
	}
	a, err := pyvalue.ToSlice(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := pyvalue.ToSlice(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func dot(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, b, err := pair("dot", args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, pyvalue.ValueErrorf("shapes (%d,) and (%d,) not aligned", len(a), len(b))
	}
	var ret any = int64(0)
	for i := range a {
		p, err := pyvalue.Binary(pyast.Mult, a[i], b[i], rt.Limits())
		if err != nil {
			return nil, err
		}
		ret, err = pyvalue.Binary(pyast.Add, ret, p, rt.Limits())
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func cross(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, b, err := pair("cross", args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(a) != 3 || len(b) != 3 {
		return nil, pyvalue.ValueErrorf("incompatible dimensions for cross product (dimension must be 3)")
	}
	term := func(i, j int) (any, error) {
		x, err := pyvalue.Binary(pyast.Mult, a[i], b[j], rt.Limits())
		if err != nil {
			return nil, err
		}
		y, err := pyvalue.Binary(pyast.Mult, a[j], b[i], rt.Limits())
		if err != nil {
			return nil, err
		}
		return pyvalue.Binary(pyast.Sub, x, y, rt.Limits())
	}
	ret := make([]any, 3)
	for k, ij := range [3][2]int{{1, 2}, {2, 0}, {0, 1}} {
		ret[k], err = term(ij[0], ij[1])
		if err != nil {
			return nil, err
		}
	}
	return pyvalue.NewList(ret), nil
}

func clip(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("clip", args, kwargs, "a", "a_min", "a_max")
	if err != nil {
		return nil, err
	}
	elems, err := pyvalue.ToSlice(a[0])
	if err != nil {
		return nil, err
	}
	ret := make([]any, len(elems))
	for i, e := range elems {
		if a[1] != nil {
			if less, err := pyvalue.Less(e, a[1]); err != nil {
				return nil, err
			} else if less {
				e = a[1]
			}
		}
		if a[2] != nil {
			if less, err := pyvalue.Less(a[2], e); err != nil {
				return nil, err
			} else if less {
				e = a[2]
			}
		}
		ret[i] = e
	}
	return pyvalue.NewList(ret), nil
}

func argExtreme(name string, sign int) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		v, err := one(name, args, kwargs)
		if err != nil {
			return nil, err
		}
		elems, err := pyvalue.ToSlice(v)
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return nil, pyvalue.ValueErrorf("attempt to get %s of an empty sequence", name)
		}
		best := 0
		for i := 1; i < len(elems); i++ {
			x, y := elems[best], elems[i]
			if sign < 0 {
				x, y = y, x
			}
			less, err := pyvalue.Less(x, y)
			if err != nil {
				return nil, err
			}
			if less {
				best = i
			}
		}
		return int64(best), nil
	}
}

func npSort(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("sort", args, kwargs)
	if err != nil {
		return nil, err
	}
	elems, err := pyvalue.ToSlice(v)
	if err != nil {
		return nil, err
	}
	elems = slices.Clone(elems)
	if err := pyvalue.SortValues(rt, elems, nil, false); err != nil {
		return nil, err
	}
	return pyvalue.NewList(elems), nil
}

func unique(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("unique", args, kwargs)
	if err != nil {
		return nil, err
	}
	elems, err := pyvalue.ToSlice(v)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ret []any
	for _, e := range elems {
		k, err := pyvalue.HashKey(e)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		ret = append(ret, e)
	}
	if ret == nil {
		ret = []any{}
	}
	if err := pyvalue.SortValues(rt, ret, nil, false); err != nil {
		return nil, err
	}
	return pyvalue.NewList(ret), nil
}

// where selects from x or y by cond; with only cond it returns the indices
// of true elements.
func where(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("where", kwargs); err != nil {
		return nil, err
	}
	if len(args) != 1 && len(args) != 3 {
		return nil, pyvalue.TypeErrorf("where() takes 1 or 3 arguments (%d given)", len(args))
	}
	cond, err := pyvalue.ToSlice(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		ret := []any{}
		for i, c := range cond {
			if pyvalue.Truth(c) {
				ret = append(ret, int64(i))
			}
		}
		return pyvalue.NewList(ret), nil
	}
	pick := func(v any, i int) (any, error) {
		if pyvalue.IsNumber(v) {
			return v, nil
		}
		elems, err := pyvalue.ToSlice(v)
		if err != nil {
			return nil, err
		}
		if i >= len(elems) {
			return nil, pyvalue.ValueErrorf("operands could not be broadcast together")
		}
		return elems[i], nil
	}
	ret := make([]any, len(cond))
	for i, c := range cond {
		src := args[2]
		if pyvalue.Truth(c) {
			src = args[1]
		}
		ret[i], err = pick(src, i)
		if err != nil {
			return nil, err
		}
	}
	return pyvalue.NewList(ret), nil
}
