package pyvalue

import (
	"bytes"
	"math"
	"math/big"
	"math/cmplx"
	"slices"
	"strings"

	"github.com/reusee/taieval/pyast"
)

// Binary applies a binary operator, enforcing limits on exponents, shifts
// and result lengths.
func Binary(op pyast.Op, x, y any, limits *Limits) (any, error) {
	// bool op bool stays bool for the bitwise operators
	if bx, ok := x.(bool); ok {
		if by, ok := y.(bool); ok {
			switch op {
			case pyast.BitAnd:
				return bx && by, nil
			case pyast.BitOr:
				return bx || by, nil
			case pyast.BitXor:
				return bx != by, nil
			}
		}
	}

	kx, ky := kindOf(x), kindOf(y)
	if kx != notNumber && ky != notNumber {
		return arith(op, x, y, max(kx, ky), limits)
	}

	switch op {
	case pyast.Add:
		return add(x, y, limits)
	case pyast.Mult:
		if ky == intNum {
			return repeat(x, y, limits)
		}
		if kx == intNum {
			return repeat(y, x, limits)
		}
	case pyast.Mod:
		switch x := x.(type) {
		case string:
			s, err := PercentFormat(x, y)
			if err != nil {
				return nil, err
			}
			if err := limits.CheckLength(len(s)); err != nil {
				return nil, err
			}
			return s, nil
		}
	case pyast.Sub, pyast.BitAnd, pyast.BitOr, pyast.BitXor:
		if sx, ok := x.(*Set); ok {
			if sy, ok := y.(*Set); ok {
				return setOp(op, sx, sy)
			}
		}
		if op == pyast.BitOr {
			if dx, ok := x.(*Dict); ok {
				if dy, ok := y.(*Dict); ok {
					ret := dx.Copy()
					if err := ret.Update(dy); err != nil {
						return nil, err
					}
					return ret, nil
				}
			}
		}
	}
	return nil, unsupported(op.String(), x, y)
}

func arith(op pyast.Op, x, y any, kind numKind, limits *Limits) (any, error) {
	switch kind {

	case intNum:
		x, y = boolInt(x), boolInt(y)
		switch op {
		case pyast.Add:
			return addInt(x, y), nil
		case pyast.Sub:
			return subInt(x, y), nil
		case pyast.Mult:
			return mulInt(x, y), nil
		case pyast.Div:
			return trueDivInt(x, y)
		case pyast.FloorDiv:
			q, _, err := divModInt(x, y)
			return q, err
		case pyast.Mod:
			_, r, err := divModInt(x, y)
			return r, err
		case pyast.Pow:
			if err := limits.checkExponent(y); err != nil {
				return nil, err
			}
			return powInt(x, y)
		case pyast.LShift, pyast.RShift:
			if err := limits.checkShift(y, op == pyast.LShift); err != nil {
				return nil, err
			}
			return shiftInt(x, y, op == pyast.LShift)
		case pyast.BitAnd:
			return NormalizeInt(new(big.Int).And(ToBig(x), ToBig(y))), nil
		case pyast.BitOr:
			return NormalizeInt(new(big.Int).Or(ToBig(x), ToBig(y))), nil
		case pyast.BitXor:
			return NormalizeInt(new(big.Int).Xor(ToBig(x), ToBig(y))), nil
		}

	case floatNum:
		a, err := ToFloat(x)
		if err != nil {
			return nil, err
		}
		b, err := ToFloat(y)
		if err != nil {
			return nil, err
		}
		switch op {
		case pyast.Add:
			return a + b, nil
		case pyast.Sub:
			return a - b, nil
		case pyast.Mult:
			return a * b, nil
		case pyast.Div:
			if b == 0 {
				return nil, zeroDivision("float division by zero")
			}
			return a / b, nil
		case pyast.FloorDiv:
			return floorDivFloat(a, b)
		case pyast.Mod:
			return modFloat(a, b)
		case pyast.Pow:
			if err := limits.checkExponent(b); err != nil {
				return nil, err
			}
			return powFloat(a, b)
		}

	case complexNum:
		a, err := toComplex(x)
		if err != nil {
			return nil, err
		}
		b, err := toComplex(y)
		if err != nil {
			return nil, err
		}
		switch op {
		case pyast.Add:
			return a + b, nil
		case pyast.Sub:
			return a - b, nil
		case pyast.Mult:
			return a * b, nil
		case pyast.Div:
			if b == 0 {
				return nil, zeroDivision("complex division by zero")
			}
			return a / b, nil
		case pyast.Pow:
			if err := limits.checkExponent(b); err != nil {
				return nil, err
			}
			return powComplex(a, b)
		}
	}

	return nil, unsupported(op.String(), x, y)
}

func powComplex(a, b complex128) (any, error) {
	if a == 0 {
		if real(b) < 0 || imag(b) != 0 {
			return nil, zeroDivision("0.0 to a negative or complex power")
		}
		if b == 0 {
			return complex(1, 0), nil
		}
		return complex(0, 0), nil
	}
	return cmplx.Pow(a, b), nil
}

func add(x, y any, limits *Limits) (any, error) {
	switch x := x.(type) {
	case string:
		s, ok := y.(string)
		if !ok {
			return nil, typeErrorf(`can only concatenate str (not "%s") to str`, TypeName(y))
		}
		if err := limits.CheckLength(len(x) + len(s)); err != nil {
			return nil, err
		}
		return x + s, nil
	case Bytes:
		b, ok := y.(Bytes)
		if !ok {
			return nil, typeErrorf("can't concat %s to bytes", TypeName(y))
		}
		if err := limits.CheckLength(len(x) + len(b)); err != nil {
			return nil, err
		}
		return Bytes(slices.Concat(x, b)), nil
	case *List:
		l, ok := y.(*List)
		if !ok {
			return nil, typeErrorf(`can only concatenate list (not "%s") to list`, TypeName(y))
		}
		return NewList(slices.Concat(x.Elems, l.Elems)), nil
	case Tuple:
		t, ok := y.(Tuple)
		if !ok {
			return nil, typeErrorf(`can only concatenate tuple (not "%s") to tuple`, TypeName(y))
		}
		return Tuple(slices.Concat(x, t)), nil
	}
	return nil, unsupported("+", x, y)
}

func repeat(seq, count any, limits *Limits) (any, error) {
	n := int64(0)
	switch c := boolInt(count).(type) {
	case int64:
		n = max(c, 0)
	case *big.Int:
		if c.Sign() > 0 {
			return nil, overflowErrorf("cannot fit 'int' into an index-sized integer")
		}
	}
	length := func(l int) error {
		if l == 0 || n == 0 {
			return nil
		}
		if int64(l) > int64(math.MaxInt32)/n {
			return overflowErrorf("repeated sequence is too long")
		}
		return limits.CheckLength(l * int(n))
	}
	switch s := seq.(type) {
	case string:
		if err := length(len(s)); err != nil {
			return nil, err
		}
		return strings.Repeat(s, int(n)), nil
	case Bytes:
		if err := length(len(s)); err != nil {
			return nil, err
		}
		return Bytes(bytes.Repeat(s, int(n))), nil
	case *List:
		if err := length(len(s.Elems)); err != nil {
			return nil, err
		}
		return NewList(repeatSlice(s.Elems, int(n))), nil
	case Tuple:
		if err := length(len(s)); err != nil {
			return nil, err
		}
		return Tuple(repeatSlice(s, int(n))), nil
	}
	return nil, unsupported("*", seq, count)
}

func repeatSlice(s []any, n int) []any {
	ret := make([]any, 0, len(s)*n)
	for range n {
		ret = append(ret, s...)
	}
	return ret
}

func setOp(op pyast.Op, x, y *Set) (any, error) {
	ret := NewSet()
	ret.Frozen = x.Frozen
	switch op {
	case pyast.BitOr:
		for _, v := range x.items {
			ret.add(v)
		}
		for _, v := range y.items {
			ret.add(v)
		}
	case pyast.BitAnd:
		for _, v := range x.items {
			if y.has(v) {
				ret.add(v)
			}
		}
	case pyast.Sub:
		for _, v := range x.items {
			if !y.has(v) {
				ret.add(v)
			}
		}
	case pyast.BitXor:
		for _, v := range x.items {
			if !y.has(v) {
				ret.add(v)
			}
		}
		for _, v := range y.items {
			if !x.has(v) {
				ret.add(v)
			}
		}
	}
	return ret, nil
}

// Unary applies -, + or ~. not is handled by Truth.
func Unary(op pyast.Op, x any) (any, error) {
	if op == pyast.Not {
		return !Truth(x), nil
	}
	x = boolInt(x)
	switch op {
	case pyast.USub:
		switch x := x.(type) {
		case int64:
			if x == math.MinInt64 {
				return new(big.Int).Neg(ToBig(x)), nil
			}
			return -x, nil
		case *big.Int:
			return NormalizeInt(new(big.Int).Neg(x)), nil
		case float64:
			return -x, nil
		case complex128:
			return -x, nil
		}
	case pyast.UAdd:
		switch x.(type) {
		case int64, *big.Int, float64, complex128:
			return x, nil
		}
	case pyast.Invert:
		switch x.(type) {
		case int64, *big.Int:
			return NormalizeInt(new(big.Int).Not(ToBig(x))), nil
		}
	}
	return nil, typeErrorf("bad operand type for unary %s: '%s'", op, TypeName(x))
}

// Truth is the truth value of v.
func Truth(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case *big.Int:
		return v.Sign() != 0
	case float64:
		return v != 0
	case complex128:
		return v != 0
	case string:
		return v != ""
	case Bytes:
		return len(v) > 0
	case Tuple:
		return len(v) > 0
	case *Exception:
		return true
	case Lener:
		return v.Len() > 0
	}
	return true
}
