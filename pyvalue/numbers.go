package pyvalue

import (
	"math"
	"math/big"
)

// NormalizeInt returns an int64 when i fits, otherwise i.
func NormalizeInt(i *big.Int) any {
	if i.IsInt64() {
		return i.Int64()
	}
	return i
}

// ToBig converts an integer value to a new *big.Int.
func ToBig(v any) *big.Int {
	switch v := v.(type) {
	case int64:
		return big.NewInt(v)
	case *big.Int:
		return new(big.Int).Set(v)
	case bool:
		if v {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	}
	return nil
}

// IsInt reports whether v is an integer value. bool counts as int.
func IsInt(v any) bool {
	switch v.(type) {
	case int64, *big.Int, bool:
		return true
	}
	return false
}

func IsNumber(v any) bool {
	switch v.(type) {
	case int64, *big.Int, bool, float64, complex128:
		return true
	}
	return false
}

func boolInt(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return int64(1)
		}
		return int64(0)
	}
	return v
}

// ToInt converts integer values, accepting bool, to int64.
func ToInt(v any) (int64, error) {
	switch v := v.(type) {
	case int64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case *big.Int:
		return 0, overflowErrorf("Python int too large to convert to C long")
	}
	return 0, typeErrorf("'%s' object cannot be interpreted as an integer", TypeName(v))
}

// ToIndex converts an integer to an int usable as an index.
func ToIndex(v any) (int, error) {
	switch v := v.(type) {
	case int64:
		if int64(int(v)) != v {
			return 0, indexErrorf("cannot fit 'int' into an index-sized integer")
		}
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case *big.Int:
		return 0, indexErrorf("cannot fit 'int' into an index-sized integer")
	}
	return 0, typeErrorf("'%s' object cannot be interpreted as an integer", TypeName(v))
}

// ToFloat converts real numbers to float64.
func ToFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		if math.IsInf(f, 0) {
			return 0, overflowErrorf("int too large to convert to float")
		}
		return f, nil
	}
	return 0, typeErrorf("must be real number, not %s", TypeName(v))
}

func toComplex(v any) (complex128, error) {
	if c, ok := v.(complex128); ok {
		return c, nil
	}
	f, err := ToFloat(v)
	if err != nil {
		return 0, err
	}
	return complex(f, 0), nil
}

type numKind uint8

const (
	notNumber numKind = iota
	intNum
	floatNum
	complexNum
)

func kindOf(v any) numKind {
	switch v.(type) {
	case int64, *big.Int, bool:
		return intNum
	case float64:
		return floatNum
	case complex128:
		return complexNum
	}
	return notNumber
}

func addInt(a, b any) any {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			s := x + y
			if (s > x) == (y > 0) {
				return s
			}
		}
	}
	return NormalizeInt(new(big.Int).Add(ToBig(a), ToBig(b)))
}

func subInt(a, b any) any {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			s := x - y
			if (s < x) == (y > 0) {
				return s
			}
		}
	}
	return NormalizeInt(new(big.Int).Sub(ToBig(a), ToBig(b)))
}

func mulInt(a, b any) any {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			if x == 0 || y == 0 {
				return int64(0)
			}
			p := x * y
			if p/y == x && !(x == -1 && y == math.MinInt64) && !(y == -1 && x == math.MinInt64) {
				return p
			}
		}
	}
	return NormalizeInt(new(big.Int).Mul(ToBig(a), ToBig(b)))
}

// divModInt implements floored division: the remainder has the sign of the
// divisor.
func divModInt(a, b any) (q, r any, err error) {
	x, y := ToBig(a), ToBig(b)
	if y.Sign() == 0 {
		return nil, nil, zeroDivision("integer division or modulo by zero")
	}
	bq, br := new(big.Int).QuoRem(x, y, new(big.Int))
	if br.Sign() != 0 && br.Sign() != y.Sign() {
		bq.Sub(bq, big.NewInt(1))
		br.Add(br, y)
	}
	return NormalizeInt(bq), NormalizeInt(br), nil
}

func trueDivInt(a, b any) (any, error) {
	x, y := ToBig(a), ToBig(b)
	if y.Sign() == 0 {
		return nil, zeroDivision("division by zero")
	}
	if x.IsInt64() && y.IsInt64() {
		xi, yi := x.Int64(), y.Int64()
		if xi > -1<<53 && xi < 1<<53 && yi > -1<<53 && yi < 1<<53 {
			return float64(xi) / float64(yi), nil
		}
	}
	f, _ := new(big.Rat).SetFrac(x, y).Float64()
	if math.IsInf(f, 0) {
		return nil, overflowErrorf("integer division result too large for a float")
	}
	return f, nil
}

func powInt(a, b any) (any, error) {
	y := ToBig(b)
	if y.Sign() < 0 {
		x, err := ToFloat(a)
		if err != nil {
			return nil, err
		}
		e, err := ToFloat(b)
		if err != nil {
			return nil, err
		}
		return powFloat(x, e)
	}
	return NormalizeInt(new(big.Int).Exp(ToBig(a), y, nil)), nil
}

func powFloat(x, y float64) (any, error) {
	if x == 0 && y < 0 {
		return nil, zeroDivision("0.0 cannot be raised to a negative power")
	}
	if x < 0 && y != math.Trunc(y) {
		return powComplex(complex(x, 0), complex(y, 0))
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return nil, overflowErrorf("(34, 'Numerical result out of range')")
	}
	return r, nil
}

func floorDivFloat(x, y float64) (any, error) {
	if y == 0 {
		return nil, zeroDivision("float floor division by zero")
	}
	return math.Floor(x / y), nil
}

func modFloat(x, y float64) (any, error) {
	if y == 0 {
		return nil, zeroDivision("float modulo")
	}
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r, nil
}

func shiftInt(a, b any, left bool) (any, error) {
	n := ToBig(b)
	if n.Sign() < 0 {
		return nil, valueErrorf("negative shift count")
	}
	if !n.IsInt64() {
		if left {
			return nil, overflowErrorf("too many digits in integer")
		}
		if ToBig(a).Sign() < 0 {
			return int64(-1), nil
		}
		return int64(0), nil
	}
	if left {
		return NormalizeInt(new(big.Int).Lsh(ToBig(a), uint(n.Int64()))), nil
	}
	return NormalizeInt(new(big.Int).Rsh(ToBig(a), uint(n.Int64()))), nil
}
