package pyvalue

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/reusee/taieval/pyast"
)

// HashKey encodes a hashable value so that equal values share a key:
// True, 1 and 1.0 all encode as i:1.
func HashKey(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "n", nil
	case bool:
		if v {
			return "i:1", nil
		}
		return "i:0", nil
	case int64:
		return "i:" + strconv.FormatInt(v, 10), nil
	case *big.Int:
		return "i:" + v.String(), nil
	case float64:
		return floatKey(v), nil
	case complex128:
		if imag(v) == 0 {
			return floatKey(real(v)), nil
		}
		return "c:" + strconv.FormatFloat(real(v), 'g', -1, 64) + "," + strconv.FormatFloat(imag(v), 'g', -1, 64), nil
	case string:
		return "s:" + strconv.Quote(v), nil
	case Bytes:
		return "b:" + strconv.Quote(string(v)), nil
	case Tuple:
		var sb strings.Builder
		sb.WriteString("t(")
		for i, e := range v {
			k, err := HashKey(e)
			if err != nil {
				return "", err
			}
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(k)
		}
		sb.WriteString(")")
		return sb.String(), nil
	case *Set:
		if !v.Frozen {
			break
		}
		keys := slices.Clone(v.keys)
		slices.Sort(keys)
		return "f{" + strings.Join(keys, ",") + "}", nil
	case *List, *Dict:
		return "", typeErrorf("unhashable type: '%s'", TypeName(v))
	case EllipsisType:
		return "e", nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("p:%T:%x", v, rv.Pointer()), nil
	}
	if rv.Type().Comparable() {
		return fmt.Sprintf("g:%T:%v", v, v), nil
	}
	return "", typeErrorf("unhashable type: '%s'", TypeName(v))
}

func floatKey(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		if f >= -(1<<63) && f < 1<<63 {
			return "i:" + strconv.FormatInt(int64(f), 10)
		}
		i, _ := new(big.Float).SetFloat64(f).Int(nil)
		return "i:" + i.String()
	}
	return "f:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal implements ==.
func Equal(x, y any) bool {
	kx, ky := kindOf(x), kindOf(y)
	if kx != notNumber && ky != notNumber {
		return numEqual(x, y, max(kx, ky))
	}
	switch x := x.(type) {
	case nil:
		return y == nil
	case string:
		s, ok := y.(string)
		return ok && x == s
	case Bytes:
		b, ok := y.(Bytes)
		return ok && bytes.Equal(x, b)
	case *List:
		l, ok := y.(*List)
		return ok && (x == l || seqEqual(x.Elems, l.Elems))
	case Tuple:
		t, ok := y.(Tuple)
		return ok && seqEqual(x, t)
	case *Dict:
		d, ok := y.(*Dict)
		if !ok || x.Len() != d.Len() {
			return false
		}
		if x == d {
			return true
		}
		for i, k := range x.keys {
			v, ok, _ := d.Get(k)
			if !ok || !Equal(x.values[i], v) {
				return false
			}
		}
		return true
	case *Set:
		s, ok := y.(*Set)
		if !ok || x.Len() != s.Len() {
			return false
		}
		for _, k := range x.keys {
			if _, ok := s.index[k]; !ok {
				return false
			}
		}
		return true
	case *Range:
		r, ok := y.(*Range)
		if !ok {
			return false
		}
		n := x.Len()
		if n != r.Len() {
			return false
		}
		if n == 0 {
			return true
		}
		if x.Start != r.Start {
			return false
		}
		return n == 1 || x.Step == r.Step
	case *Slice:
		s, ok := y.(*Slice)
		return ok && Equal(x.Start, s.Start) && Equal(x.Stop, s.Stop) && Equal(x.Step, s.Step)
	case *Exception:
		return x == y
	}
	return Identical(x, y)
}

func numEqual(x, y any, kind numKind) bool {
	switch kind {
	case intNum:
		return ToBig(x).Cmp(ToBig(y)) == 0
	case floatNum:
		return realCmp(x, y) == 0
	case complexNum:
		a, _ := toComplex(x)
		b, _ := toComplex(y)
		if _, ok := x.(complex128); !ok {
			return imag(b) == 0 && realCmp(x, real(b)) == 0
		}
		if _, ok := y.(complex128); !ok {
			return imag(a) == 0 && realCmp(real(a), y) == 0
		}
		return a == b
	}
	return false
}

// realCmp compares ints and floats exactly. NaN compares as 2.
func realCmp(x, y any) int {
	if kindOf(x) == intNum && kindOf(y) == intNum {
		return ToBig(x).Cmp(ToBig(y))
	}
	fx, okx := bigFloat(x)
	fy, oky := bigFloat(y)
	if !okx || !oky {
		return 2
	}
	return fx.Cmp(fy)
}

func bigFloat(v any) (*big.Float, bool) {
	if f, ok := v.(float64); ok {
		if math.IsNaN(f) {
			return nil, false
		}
		return new(big.Float).SetFloat64(f), true
	}
	return new(big.Float).SetInt(ToBig(v)), true
}

func seqEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Identical implements is.
func Identical(x, y any) bool {
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	switch a := x.(type) {
	case Tuple:
		b, ok := y.(Tuple)
		if !ok || len(a) != len(b) {
			return false
		}
		return len(a) == 0 || &a[0] == &b[0]
	case Bytes:
		b, ok := y.(Bytes)
		if !ok || len(a) != len(b) {
			return false
		}
		return len(a) == 0 || &a[0] == &b[0]
	case *big.Int:
		return x == y || (IsInt(y) && a.Cmp(ToBig(y)) == 0)
	}
	if reflect.TypeOf(x) != reflect.TypeOf(y) {
		return false
	}
	if !reflect.TypeOf(x).Comparable() {
		return false
	}
	return x == y
}

// Compare evaluates one link of a comparison chain.
func Compare(op pyast.CmpOp, x, y any) (bool, error) {
	switch op {
	case pyast.Eq:
		return Equal(x, y), nil
	case pyast.NotEq:
		return !Equal(x, y), nil
	case pyast.Is:
		return Identical(x, y), nil
	case pyast.IsNot:
		return !Identical(x, y), nil
	case pyast.In:
		return Contains(y, x)
	case pyast.NotIn:
		ok, err := Contains(y, x)
		return !ok, err
	}

	if sx, ok := x.(*Set); ok {
		if sy, ok := y.(*Set); ok {
			switch op {
			case pyast.Lt:
				return sx.Len() < sy.Len() && sx.subsetOf(sy), nil
			case pyast.LtE:
				return sx.subsetOf(sy), nil
			case pyast.Gt:
				return sy.Len() < sx.Len() && sy.subsetOf(sx), nil
			case pyast.GtE:
				return sy.subsetOf(sx), nil
			}
		}
	}

	c, err := order(op, x, y)
	if err != nil {
		return false, err
	}
	switch op {
	case pyast.Lt:
		return c == -1, nil
	case pyast.LtE:
		return c == -1 || c == 0, nil
	case pyast.Gt:
		return c == 1, nil
	case pyast.GtE:
		return c == 1 || c == 0, nil
	}
	return false, typeErrorf("unknown comparison %s", op)
}

// order returns -1, 0, 1, or 2 for unordered NaN comparisons.
func order(op pyast.CmpOp, x, y any) (int, error) {
	kx, ky := kindOf(x), kindOf(y)
	if kx != notNumber && ky != notNumber && kx != complexNum && ky != complexNum {
		return realCmp(x, y), nil
	}
	switch a := x.(type) {
	case string:
		if b, ok := y.(string); ok {
			return strings.Compare(a, b), nil
		}
	case Bytes:
		if b, ok := y.(Bytes); ok {
			return bytes.Compare(a, b), nil
		}
	case *List:
		if b, ok := y.(*List); ok {
			return seqOrder(op, a.Elems, b.Elems)
		}
	case Tuple:
		if b, ok := y.(Tuple); ok {
			return seqOrder(op, a, b)
		}
	}
	return 0, typeErrorf("'%s' not supported between instances of '%s' and '%s'", op, TypeName(x), TypeName(y))
}

func seqOrder(op pyast.CmpOp, a, b []any) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if Equal(a[i], b[i]) {
			continue
		}
		return order(op, a[i], b[i])
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}

// Less orders values for sorted, min and max.
func Less(x, y any) (bool, error) {
	return Compare(pyast.Lt, x, y)
}

// Contains implements the in operator.
func Contains(container, item any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, typeErrorf("'in <string>' requires string as left operand, not %s", TypeName(item))
		}
		return strings.Contains(c, s), nil
	case Bytes:
		switch b := item.(type) {
		case Bytes:
			return bytes.Contains(c, b), nil
		case int64:
			if b < 0 || b > 255 {
				return false, valueErrorf("byte must be in range(0, 256)")
			}
			return bytes.IndexByte(c, byte(b)) >= 0, nil
		}
		return false, typeErrorf("a bytes-like object is required, not '%s'", TypeName(item))
	case *List:
		return slices.ContainsFunc(c.Elems, func(e any) bool { return Equal(e, item) }), nil
	case Tuple:
		return slices.ContainsFunc(c, func(e any) bool { return Equal(e, item) }), nil
	case *Dict:
		_, ok, err := c.Get(item)
		return ok, err
	case *Set:
		return c.Contains(item)
	case *Range:
		return c.Contains(item), nil
	}
	next, err := Iterate(container)
	if err != nil {
		return false, typeErrorf("argument of type '%s' is not iterable", TypeName(container))
	}
	for {
		v, ok, err := next()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if Equal(v, item) {
			return true, nil
		}
	}
}
