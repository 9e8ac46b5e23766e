package builtins

import (
	"math"
	"math/big"

	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

// maxFactorial bounds factorial, comb and perm arguments.
const maxFactorial = 100000

func domainError() error {
	return pyvalue.ValueErrorf("math domain error")
}

func rangeError() error {
	return pyvalue.OverflowErrorf("math range error")
}

// checked maps NaN and infinite results of finite arguments to the math
// module's errors.
func checked(ret float64, args ...float64) (any, error) {
	for _, a := range args {
		if math.IsNaN(a) {
			return ret, nil
		}
	}
	if math.IsNaN(ret) {
		return nil, domainError()
	}
	if math.IsInf(ret, 0) {
		for _, a := range args {
			if math.IsInf(a, 0) {
				return ret, nil
			}
		}
		return nil, rangeError()
	}
	return ret, nil
}

func floats(name string, args []any, kwargs []pyvalue.Kwarg, n int) ([]float64, error) {
	if err := pyvalue.NoKwargs(name, kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount(name, args, n, n); err != nil {
		return nil, err
	}
	ret := make([]float64, n)
	for i, a := range args {
		f, err := pyvalue.ToFloat(a)
		if err != nil {
			return nil, err
		}
		ret[i] = f
	}
	return ret, nil
}

// unary wraps a float function. domain reports arguments outside the
// function's domain that Go would not signal with NaN.
func unary(name string, f func(float64) float64, domain func(float64) bool) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		xs, err := floats(name, args, kwargs, 1)
		if err != nil {
			return nil, err
		}
		if domain != nil && domain(xs[0]) {
			return nil, domainError()
		}
		return checked(f(xs[0]), xs[0])
	}
}

func binary(name string, f func(x, y float64) float64) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		xs, err := floats(name, args, kwargs, 2)
		if err != nil {
			return nil, err
		}
		return checked(f(xs[0], xs[1]), xs...)
	}
}

func predicate(name string, f func(float64) bool) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		xs, err := floats(name, args, kwargs, 1)
		if err != nil {
			return nil, err
		}
		return f(xs[0]), nil
	}
}

// integral implements ceil, floor and trunc, which return ints.
func integral(name string, f func(float64) float64) fn {
	return func(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
		v, err := one(name, args, kwargs)
		if err != nil {
			return nil, err
		}
		if pyvalue.IsInt(v) {
			return pyvalue.NormalizeInt(pyvalue.ToBig(v)), nil
		}
		x, err := pyvalue.ToFloat(v)
		if err != nil {
			return nil, err
		}
		return floatToInt(f(x))
	}
}

func nonPositive(x float64) bool {
	return x <= 0
}

func negative(x float64) bool {
	return x < 0
}

func infinite(x float64) bool {
	return math.IsInf(x, 0)
}

// Math returns the members of the math library.
func Math() map[string]any {
	funcs := map[string]fn{
		"acos":      unary("acos", math.Acos, nil),
		"acosh":     unary("acosh", math.Acosh, nil),
		"asin":      unary("asin", math.Asin, nil),
		"asinh":     unary("asinh", math.Asinh, nil),
		"atan":      unary("atan", math.Atan, nil),
		"atan2":     binary("atan2", math.Atan2),
		"atanh":     unary("atanh", math.Atanh, func(x float64) bool { return x <= -1 || x >= 1 }),
		"cbrt":      unary("cbrt", math.Cbrt, nil),
		"ceil":      integral("ceil", math.Ceil),
		"comb":      comb,
		"copysign":  binary("copysign", math.Copysign),
		"cos":       unary("cos", math.Cos, infinite),
		"cosh":      unary("cosh", math.Cosh, nil),
		"degrees":   unary("degrees", func(x float64) float64 { return x * 180 / math.Pi }, nil),
		"dist":      dist,
		"erf":       unary("erf", math.Erf, nil),
		"erfc":      unary("erfc", math.Erfc, nil),
		"exp":       unary("exp", math.Exp, nil),
		"exp2":      unary("exp2", math.Exp2, nil),
		"expm1":     unary("expm1", math.Expm1, nil),
		"fabs":      unary("fabs", math.Abs, nil),
		"factorial": factorial,
		"floor":     integral("floor", math.Floor),
		"fmod":      fmod,
		"frexp":     frexp,
		"fsum":      fsum,
		"gamma":     unary("gamma", math.Gamma, func(x float64) bool { return x <= 0 && x == math.Trunc(x) }),
		"gcd":       gcd,
		"hypot":     hypot,
		"isclose":   isclose,
		"isfinite":  predicate("isfinite", func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }),
		"isinf":     predicate("isinf", func(x float64) bool { return math.IsInf(x, 0) }),
		"isnan":     predicate("isnan", math.IsNaN),
		"isqrt":     isqrt,
		"lcm":       lcm,
		"ldexp":     ldexp,
		"lgamma": unary("lgamma", func(x float64) float64 {
			ret, _ := math.Lgamma(x)
			return ret
		}, func(x float64) bool { return x <= 0 && x == math.Trunc(x) }),
		"log":       logFn,
		"log10":     unary("log10", math.Log10, nonPositive),
		"log1p":     unary("log1p", math.Log1p, func(x float64) bool { return x <= -1 }),
		"log2":      unary("log2", math.Log2, nonPositive),
		"modf":      modf,
		"nextafter": binary("nextafter", math.Nextafter),
		"perm":      perm,
		"pow":       mathPow,
		"prod":      prod,
		"radians":   unary("radians", func(x float64) float64 { return x * math.Pi / 180 }, nil),
		"remainder": binary("remainder", math.Remainder),
		"sin":       unary("sin", math.Sin, infinite),
		"sinh":      unary("sinh", math.Sinh, nil),
		"sqrt":      unary("sqrt", math.Sqrt, negative),
		"tan":       unary("tan", math.Tan, infinite),
		"tanh":      unary("tanh", math.Tanh, nil),
		"trunc":     integral("trunc", math.Trunc),
		"ulp":       unary("ulp", ulp, nil),
	}
	ret := map[string]any{
		"pi":  math.Pi,
		"e":   math.E,
		"tau": 2 * math.Pi,
		"inf": math.Inf(1),
		"nan": math.NaN(),
	}
	for name, f := range funcs {
		ret[name] = pyvalue.NewBuiltin(name, f)
	}
	return ret
}

func ulp(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return math.Abs(x)
	}
	x = math.Abs(x)
	if x == math.MaxFloat64 {
		return x - math.Nextafter(x, 0)
	}
	return math.Nextafter(x, math.Inf(1)) - x
}

func logFn(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("log", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("log", args, 1, 2); err != nil {
		return nil, err
	}
	ln := func(v any) (float64, error) {
		// big ints beyond float range
		if b, ok := v.(*big.Int); ok && b.Sign() > 0 {
			if f, _ := new(big.Float).SetInt(b).Float64(); math.IsInf(f, 0) {
				n := b.BitLen()
				shifted := new(big.Int).Rsh(b, uint(n-53))
				m, _ := new(big.Float).SetInt(shifted).Float64()
				return math.Log(m) + float64(n-53)*math.Ln2, nil
			}
		}
		x, err := pyvalue.ToFloat(v)
		if err != nil {
			return 0, err
		}
		if x <= 0 {
			return 0, domainError()
		}
		return math.Log(x), nil
	}
	x, err := ln(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return x, nil
	}
	base, err := ln(args[1])
	if err != nil {
		return nil, err
	}
	if base == 0 {
		return nil, pyvalue.ZeroDivision("float division by zero")
	}
	return x / base, nil
}

func fmod(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := floats("fmod", args, kwargs, 2)
	if err != nil {
		return nil, err
	}
	if xs[1] == 0 || math.IsInf(xs[0], 0) {
		if !math.IsNaN(xs[0]) && !math.IsNaN(xs[1]) {
			return nil, domainError()
		}
	}
	return math.Mod(xs[0], xs[1]), nil
}

func frexp(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := floats("frexp", args, kwargs, 1)
	if err != nil {
		return nil, err
	}
	frac, exp := math.Frexp(xs[0])
	return pyvalue.Tuple{frac, int64(exp)}, nil
}

func ldexp(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("ldexp", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("ldexp", args, 2, 2); err != nil {
		return nil, err
	}
	x, err := pyvalue.ToFloat(args[0])
	if err != nil {
		return nil, err
	}
	if !pyvalue.IsInt(args[1]) {
		return nil, pyvalue.TypeErrorf("Expected an int as second argument to ldexp.")
	}
	e, err := pyvalue.ToInt(args[1])
	if err != nil {
		return nil, err
	}
	if e > math.MaxInt32 {
		e = math.MaxInt32
	} else if e < math.MinInt32 {
		e = math.MinInt32
	}
	return checked(math.Ldexp(x, int(e)), x)
}

func modf(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := floats("modf", args, kwargs, 1)
	if err != nil {
		return nil, err
	}
	i, f := math.Modf(xs[0])
	if math.IsInf(xs[0], 0) {
		f = math.Copysign(0, xs[0])
	}
	return pyvalue.Tuple{f, i}, nil
}

func mathPow(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := floats("pow", args, kwargs, 2)
	if err != nil {
		return nil, err
	}
	x, y := xs[0], xs[1]
	if x == 0 && y < 0 {
		return nil, domainError()
	}
	if limits := rt.Limits(); limits != nil && limits.MaxExponent > 0 && y > float64(limits.MaxExponent) {
		return nil, pyvalue.LimitErrorf("Invalid exponent, max exponent is %d", limits.MaxExponent)
	}
	return checked(math.Pow(x, y), x, y)
}

func hypot(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("hypot", kwargs); err != nil {
		return nil, err
	}
	ret := 0.0
	for _, a := range args {
		x, err := pyvalue.ToFloat(a)
		if err != nil {
			return nil, err
		}
		ret = math.Hypot(ret, x)
	}
	return ret, nil
}

func dist(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.NoKwargs("dist", kwargs); err != nil {
		return nil, err
	}
	if err := pyvalue.ArgCount("dist", args, 2, 2); err != nil {
		return nil, err
	}
	p, err := floatSeq(args[0])
	if err != nil {
		return nil, err
	}
	q, err := floatSeq(args[1])
	if err != nil {
		return nil, err
	}
	if len(p) != len(q) {
		return nil, pyvalue.ValueErrorf("both points must have the same number of dimensions")
	}
	ret := 0.0
	for i := range p {
		ret = math.Hypot(ret, p[i]-q[i])
	}
	return ret, nil
}

func floatSeq(v any) ([]float64, error) {
	elems, err := pyvalue.ToSlice(v)
	if err != nil {
		return nil, err
	}
	ret := make([]float64, len(elems))
	for i, e := range elems {
		ret[i], err = pyvalue.ToFloat(e)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// fsum adds with Neumaier compensation.
func fsum(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	v, err := one("fsum", args, kwargs)
	if err != nil {
		return nil, err
	}
	xs, err := floatSeq(v)
	if err != nil {
		return nil, err
	}
	sum, c := 0.0, 0.0
	for _, x := range xs {
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			c += (sum - t) + x
		} else {
			c += (x - t) + sum
		}
		sum = t
	}
	return sum + c, nil
}

func prod(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	a, err := pyvalue.UnpackArgs("prod", args, kwargs, "iterable", "start?")
	if err != nil {
		return nil, err
	}
	var ret any = int64(1)
	if a[1] != nil {
		ret = a[1]
	}
	elems, err := pyvalue.ToSlice(a[0])
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		ret, err = pyvalue.Binary(pyast.Mult, ret, e, rt.Limits())
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func isclose(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	if err := pyvalue.ArgCount("isclose", args, 2, 2); err != nil {
		return nil, err
	}
	a, err := pyvalue.ToFloat(args[0])
	if err != nil {
		return nil, err
	}
	b, err := pyvalue.ToFloat(args[1])
	if err != nil {
		return nil, err
	}
	relTol, absTol := 1e-9, 0.0
	for _, kw := range kwargs {
		f, err := pyvalue.ToFloat(kw.Value)
		if err != nil {
			return nil, err
		}
		switch kw.Name {
		case "rel_tol":
			relTol = f
		case "abs_tol":
			absTol = f
		default:
			return nil, pyvalue.TypeErrorf("isclose() got an unexpected keyword argument '%s'", kw.Name)
		}
	}
	if relTol < 0 || absTol < 0 {
		return nil, pyvalue.ValueErrorf("tolerances must be non-negative")
	}
	if a == b {
		return true, nil
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return false, nil
	}
	diff := math.Abs(b - a)
	return diff <= math.Abs(relTol*b) || diff <= math.Abs(relTol*a) || diff <= absTol, nil
}

func intArgs(name string, args []any, kwargs []pyvalue.Kwarg) ([]*big.Int, error) {
	if err := pyvalue.NoKwargs(name, kwargs); err != nil {
		return nil, err
	}
	ret := make([]*big.Int, len(args))
	for i, a := range args {
		if !pyvalue.IsInt(a) {
			return nil, pyvalue.TypeErrorf("'%s' object cannot be interpreted as an integer", pyvalue.TypeName(a))
		}
		ret[i] = pyvalue.ToBig(a)
	}
	return ret, nil
}

func gcd(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := intArgs("gcd", args, kwargs)
	if err != nil {
		return nil, err
	}
	ret := new(big.Int)
	for _, x := range xs {
		ret.GCD(nil, nil, ret, new(big.Int).Abs(x))
	}
	return pyvalue.NormalizeInt(ret), nil
}

func lcm(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := intArgs("lcm", args, kwargs)
	if err != nil {
		return nil, err
	}
	ret := big.NewInt(1)
	for _, x := range xs {
		x = new(big.Int).Abs(x)
		if x.Sign() == 0 {
			return int64(0), nil
		}
		g := new(big.Int).GCD(nil, nil, ret, x)
		ret.Mul(ret, x.Quo(x, g))
	}
	return pyvalue.NormalizeInt(ret), nil
}

func isqrt(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := intArgs("isqrt", args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, pyvalue.TypeErrorf("isqrt() takes exactly one argument (%d given)", len(xs))
	}
	if xs[0].Sign() < 0 {
		return nil, pyvalue.ValueErrorf("isqrt() argument must be nonnegative")
	}
	return pyvalue.NormalizeInt(new(big.Int).Sqrt(xs[0])), nil
}

func smallInt(name string, x *big.Int) (int64, error) {
	if x.Sign() < 0 {
		return 0, pyvalue.ValueErrorf("%s must be a non-negative integer", name)
	}
	if !x.IsInt64() || x.Int64() > maxFactorial {
		return 0, pyvalue.LimitErrorf("%s argument too large, max is %d", name, maxFactorial)
	}
	return x.Int64(), nil
}

func factorial(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := intArgs("factorial", args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, pyvalue.TypeErrorf("factorial() takes exactly one argument (%d given)", len(xs))
	}
	if xs[0].Sign() < 0 {
		return nil, pyvalue.ValueErrorf("factorial() not defined for negative values")
	}
	n, err := smallInt("factorial()", xs[0])
	if err != nil {
		return nil, err
	}
	return pyvalue.NormalizeInt(new(big.Int).MulRange(1, n)), nil
}

func perm(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := intArgs("perm", args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(xs) < 1 || len(xs) > 2 {
		return nil, pyvalue.TypeErrorf("perm expected 1 or 2 arguments, got %d", len(xs))
	}
	n, err := smallInt("n", xs[0])
	if err != nil {
		return nil, err
	}
	k := n
	if len(xs) == 2 {
		k, err = smallInt("k", xs[1])
		if err != nil {
			return nil, err
		}
	}
	if k > n {
		return int64(0), nil
	}
	return pyvalue.NormalizeInt(new(big.Int).MulRange(n-k+1, n)), nil
}

func comb(rt pyvalue.Runtime, args []any, kwargs []pyvalue.Kwarg) (any, error) {
	xs, err := intArgs("comb", args, kwargs)
	if err != nil {
		return nil, err
	}
	if len(xs) != 2 {
		return nil, pyvalue.TypeErrorf("comb expected 2 arguments, got %d", len(xs))
	}
	n, err := smallInt("n", xs[0])
	if err != nil {
		return nil, err
	}
	k, err := smallInt("k", xs[1])
	if err != nil {
		return nil, err
	}
	if k > n {
		return int64(0), nil
	}
	return pyvalue.NormalizeInt(new(big.Int).Binomial(n, k)), nil
}
