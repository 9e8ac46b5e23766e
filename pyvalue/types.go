package pyvalue

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Type is a builtin type object. Calling it constructs or converts.
type Type struct {
	Name     string
	Instance func(v any) bool
	New      BuiltinFunc
}

func (t *Type) Call(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if t.New == nil {
		return nil, typeErrorf("cannot create '%s' instances", t.Name)
	}
	return t.New(rt, args, kwargs)
}

func is[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

var (
	TypeNone    = &Type{Name: "NoneType", Instance: func(v any) bool { return v == nil }}
	TypeBool    = &Type{Name: "bool", Instance: is[bool]}
	TypeInt     = &Type{Name: "int", Instance: IsInt}
	TypeFloat   = &Type{Name: "float", Instance: is[float64]}
	TypeComplex = &Type{Name: "complex", Instance: is[complex128]}
	TypeStr     = &Type{Name: "str", Instance: is[string]}
	TypeBytes   = &Type{Name: "bytes", Instance: is[Bytes]}
	TypeList    = &Type{Name: "list", Instance: is[*List]}
	TypeTuple   = &Type{Name: "tuple", Instance: is[Tuple]}
	TypeDict    = &Type{Name: "dict", Instance: is[*Dict]}
	TypeSet     = &Type{Name: "set", Instance: func(v any) bool {
		s, ok := v.(*Set)
		return ok && !s.Frozen
	}}
	TypeFrozenSet = &Type{Name: "frozenset", Instance: func(v any) bool {
		s, ok := v.(*Set)
		return ok && s.Frozen
	}}
	TypeRange = &Type{Name: "range", Instance: is[*Range]}
	TypeSlice = &Type{Name: "slice", Instance: is[*Slice]}
	TypeType  = &Type{Name: "type", Instance: func(v any) bool {
		return is[*Type](v) || is[*ExceptionClass](v)
	}}
)

// Types lists the builtin type objects by name.
var Types = map[string]*Type{}

func init() {
	TypeBool.New = newBool
	TypeInt.New = newInt
	TypeFloat.New = newFloat
	TypeComplex.New = newComplex
	TypeStr.New = newStr
	TypeBytes.New = newBytes
	TypeList.New = newList
	TypeTuple.New = newTuple
	TypeDict.New = newDict
	TypeSet.New = newSet(false)
	TypeFrozenSet.New = newSet(true)
	TypeRange.New = newRange
	TypeSlice.New = newSlice
	TypeType.New = newType
	for _, t := range []*Type{
		TypeBool, TypeInt, TypeFloat, TypeComplex, TypeStr, TypeBytes,
		TypeList, TypeTuple, TypeDict, TypeSet, TypeFrozenSet, TypeRange,
		TypeSlice, TypeType,
	} {
		Types[t.Name] = t
	}
}

// TypeOf returns the type object of v. Values without a builtin type get
// an anonymous type carrying their name.
func TypeOf(v any) any {
	switch v := v.(type) {
	case nil:
		return TypeNone
	case bool:
		return TypeBool
	case int64, *big.Int:
		return TypeInt
	case float64:
		return TypeFloat
	case complex128:
		return TypeComplex
	case string:
		return TypeStr
	case Bytes:
		return TypeBytes
	case *List:
		return TypeList
	case Tuple:
		return TypeTuple
	case *Dict:
		return TypeDict
	case *Set:
		if v.Frozen {
			return TypeFrozenSet
		}
		return TypeSet
	case *Range:
		return TypeRange
	case *Slice:
		return TypeSlice
	case *Type, *ExceptionClass:
		return TypeType
	case *Exception:
		return v.Class
	}
	name := TypeName(v)
	return &Type{
		Name: name,
		Instance: func(x any) bool {
			return TypeName(x) == name
		},
	}
}

// IsInstance implements isinstance for one class.
func IsInstance(v any, class any) (bool, error) {
	switch c := class.(type) {
	case *Type:
		return c.Instance(v), nil
	case *ExceptionClass:
		if e, ok := v.(*Exception); ok {
			return e.Class.IsSubclass(c), nil
		}
		return false, nil
	case Tuple:
		for _, cls := range c {
			ok, err := IsInstance(v, cls)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return false, typeErrorf("isinstance() arg 2 must be a type or tuple of types")
}

func newBool(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := ArgCount("bool", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return false, nil
	}
	return Truth(args[0]), nil
}

func newInt(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	a, err := UnpackArgs("int", args, kwargs, "x?", "base?")
	if err != nil {
		return nil, err
	}
	if a[0] == nil {
		return int64(0), nil
	}
	if a[1] != nil {
		base, err := ToInt(a[1])
		if err != nil {
			return nil, err
		}
		switch s := a[0].(type) {
		case string:
			return ParseInt(s, int(base))
		case Bytes:
			return ParseInt(string(s), int(base))
		}
		return nil, typeErrorf("int() can't convert non-string with explicit base")
	}
	return ToIntValue(a[0])
}

// ToIntValue implements int(x) for a single argument.
func ToIntValue(v any) (any, error) {
	switch x := v.(type) {
	case int64, *big.Int:
		return x, nil
	case bool:
		return boolInt(x), nil
	case float64:
		if math.IsInf(x, 0) {
			return nil, overflowErrorf("cannot convert float infinity to integer")
		}
		if math.IsNaN(x) {
			return nil, valueErrorf("cannot convert float NaN to integer")
		}
		i, _ := new(big.Float).SetFloat64(math.Trunc(x)).Int(nil)
		return NormalizeInt(i), nil
	case string:
		return ParseInt(x, 10)
	case Bytes:
		return ParseInt(string(x), 10)
	}
	return nil, typeErrorf("int() argument must be a string, a bytes-like object or a real number, not '%s'", TypeName(v))
}

// ParseInt parses an integer literal; base 0 honours 0x, 0o and 0b prefixes.
func ParseInt(s string, base int) (any, error) {
	invalid := func() error {
		return valueErrorf("invalid literal for int() with base %d: %s", base, Repr(s))
	}
	if base != 0 && (base < 2 || base > 36) {
		return nil, valueErrorf("int() base must be >= 2 and <= 36, or 0")
	}
	t := strings.TrimSpace(s)
	neg := false
	if t != "" && (t[0] == '+' || t[0] == '-') {
		neg = t[0] == '-'
		t = t[1:]
	}
	lower := strings.ToLower(t)
	prefixBase := 0
	switch {
	case strings.HasPrefix(lower, "0x"):
		prefixBase = 16
	case strings.HasPrefix(lower, "0o"):
		prefixBase = 8
	case strings.HasPrefix(lower, "0b"):
		prefixBase = 2
	}
	if prefixBase != 0 && (base == 0 || base == prefixBase) {
		base = prefixBase
		t = t[2:]
		t = strings.TrimPrefix(t, "_")
	} else if base == 0 {
		base = 10
		if len(t) > 1 && t[0] == '0' && strings.Trim(t, "0_") != "" {
			return nil, invalid()
		}
	}
	if t == "" || strings.HasPrefix(t, "_") || strings.HasSuffix(t, "_") || strings.Contains(t, "__") {
		return nil, invalid()
	}
	t = strings.ReplaceAll(t, "_", "")
	i, ok := new(big.Int).SetString(t, base)
	if !ok {
		return nil, invalid()
	}
	if neg {
		i.Neg(i)
	}
	return NormalizeInt(i), nil
}

func newFloat(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs("float", kwargs); err != nil {
		return nil, err
	}
	if err := ArgCount("float", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return 0.0, nil
	}
	switch x := args[0].(type) {
	case string:
		return ParseFloat(x)
	case Bytes:
		return ParseFloat(string(x))
	}
	return ToFloat(args[0])
}

// ParseFloat parses float literals including inf and nan spellings.
func ParseFloat(s string) (any, error) {
	t := strings.TrimSpace(s)
	switch strings.ToLower(strings.TrimLeft(t, "+-")) {
	case "inf", "infinity":
		if strings.HasPrefix(t, "-") {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	case "nan":
		return math.NaN(), nil
	}
	if strings.Contains(t, "__") || strings.HasPrefix(t, "_") || strings.HasSuffix(t, "_") {
		return nil, valueErrorf("could not convert string to float: %s", Repr(s))
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(t, "_", ""), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, nil
		}
		return nil, valueErrorf("could not convert string to float: %s", Repr(s))
	}
	return f, nil
}

func newComplex(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	a, err := UnpackArgs("complex", args, kwargs, "real?", "imag?")
	if err != nil {
		return nil, err
	}
	if s, ok := a[0].(string); ok {
		if a[1] != nil {
			return nil, typeErrorf("complex() can't take second arg if first is a string")
		}
		t := strings.ReplaceAll(strings.TrimSpace(s), "j", "i")
		t = strings.TrimSuffix(strings.TrimPrefix(t, "("), ")")
		c, err := strconv.ParseComplex(t, 128)
		if err != nil {
			return nil, valueErrorf("complex() arg is a malformed string")
		}
		return c, nil
	}
	var re, im complex128
	if a[0] != nil {
		if re, err = toComplex(a[0]); err != nil {
			return nil, typeErrorf("complex() first argument must be a string or a number, not '%s'", TypeName(a[0]))
		}
	}
	if a[1] != nil {
		if im, err = toComplex(a[1]); err != nil {
			return nil, typeErrorf("complex() second argument must be a number, not '%s'", TypeName(a[1]))
		}
	}
	return re + im*1i, nil
}

func newStr(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	a, err := UnpackArgs("str", args, kwargs, "object?", "encoding?", "errors?")
	if err != nil {
		return nil, err
	}
	if a[0] == nil && len(args) == 0 {
		return "", nil
	}
	if b, ok := a[0].(Bytes); ok && a[1] != nil {
		return decodeBytes(b, a[1], a[2])
	}
	return Str(a[0]), nil
}

func decodeBytes(b Bytes, encoding, errors any) (any, error) {
	enc, _ := encoding.(string)
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case "", "utf8", "ascii":
	default:
		return nil, valueErrorf("unknown encoding: %s", enc)
	}
	if !utf8.Valid(b) {
		if mode, _ := errors.(string); mode == "replace" || mode == "ignore" {
			if mode == "ignore" {
				return strings.ToValidUTF8(string(b), ""), nil
			}
			return strings.ToValidUTF8(string(b), "�"), nil
		}
		return nil, unicodeError("UnicodeDecodeError", "'utf-8' codec can't decode bytes")
	}
	return string(b), nil
}

func encodeString(s string, encoding any) (Bytes, error) {
	enc, _ := encoding.(string)
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case "", "utf8":
		return Bytes(s), nil
	case "ascii":
		for _, r := range s {
			if r >= 0x80 {
				return nil, unicodeError("UnicodeEncodeError", "'ascii' codec can't encode character")
			}
		}
		return Bytes(s), nil
	}
	return nil, valueErrorf("unknown encoding: %s", enc)
}

func newBytes(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	a, err := UnpackArgs("bytes", args, kwargs, "source?", "encoding?", "errors?")
	if err != nil {
		return nil, err
	}
	switch x := a[0].(type) {
	case nil:
		return Bytes{}, nil
	case string:
		if a[1] == nil {
			return nil, typeErrorf("string argument without an encoding")
		}
		return encodeString(x, a[1])
	case Bytes:
		return Bytes(append([]byte(nil), x...)), nil
	case int64, bool:
		n, _ := ToInt(x)
		if n < 0 {
			return nil, valueErrorf("negative count")
		}
		if rt != nil {
			if err := rt.Limits().CheckLength(int(n)); err != nil {
				return nil, err
			}
		}
		return make(Bytes, n), nil
	}
	elems, err := ToSlice(a[0])
	if err != nil {
		return nil, typeErrorf("cannot convert '%s' object to bytes", TypeName(a[0]))
	}
	ret := make(Bytes, len(elems))
	for i, e := range elems {
		n, err := ToInt(e)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > 255 {
			return nil, valueErrorf("bytes must be in range(0, 256)")
		}
		ret[i] = byte(n)
	}
	return ret, nil
}

func newList(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs("list", kwargs); err != nil {
		return nil, err
	}
	if err := ArgCount("list", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return NewList(nil), nil
	}
	elems, err := ToSlice(args[0])
	if err != nil {
		return nil, err
	}
	if t, ok := args[0].(Tuple); ok {
		elems = append([]any(nil), t...)
	}
	return NewList(elems), nil
}

func newTuple(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs("tuple", kwargs); err != nil {
		return nil, err
	}
	if err := ArgCount("tuple", args, 0, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return Tuple{}, nil
	}
	elems, err := ToSlice(args[0])
	if err != nil {
		return nil, err
	}
	return Tuple(elems), nil
}

func newDict(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := ArgCount("dict", args, 0, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	if len(args) == 1 {
		if err := DictUpdate(d, args[0]); err != nil {
			return nil, err
		}
	}
	for _, kw := range kwargs {
		d.SetString(kw.Name, kw.Value)
	}
	return d, nil
}

// DictUpdate merges a mapping or an iterable of pairs into d.
func DictUpdate(d *Dict, src any) error {
	if other, ok := src.(*Dict); ok {
		return d.Update(other)
	}
	elems, err := ToSlice(src)
	if err != nil {
		return err
	}
	for i, e := range elems {
		pair, err := ToSlice(e)
		if err != nil {
			return typeErrorf("cannot convert dictionary update sequence element #%d to a sequence", i)
		}
		if len(pair) != 2 {
			return valueErrorf("dictionary update sequence element #%d has length %d; 2 is required", i, len(pair))
		}
		if err := d.Set(pair[0], pair[1]); err != nil {
			return err
		}
	}
	return nil
}

func newSet(frozen bool) BuiltinFunc {
	name := "set"
	if frozen {
		name = "frozenset"
	}
	return func(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
		if err := NoKwargs(name, kwargs); err != nil {
			return nil, err
		}
		if err := ArgCount(name, args, 0, 1); err != nil {
			return nil, err
		}
		s := NewSet()
		s.Frozen = frozen
		if len(args) == 0 {
			return s, nil
		}
		elems, err := ToSlice(args[0])
		if err != nil {
			return nil, err
		}
		for _, e := range elems {
			if err := s.Add(e); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
}

func newRange(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs("range", kwargs); err != nil {
		return nil, err
	}
	if err := ArgCount("range", args, 1, 3); err != nil {
		return nil, err
	}
	ints := make([]int64, len(args))
	for i, a := range args {
		n, err := ToInt(a)
		if err != nil {
			return nil, err
		}
		ints[i] = n
	}
	r := &Range{Step: 1}
	switch len(ints) {
	case 1:
		r.Stop = ints[0]
	case 2:
		r.Start, r.Stop = ints[0], ints[1]
	case 3:
		r.Start, r.Stop, r.Step = ints[0], ints[1], ints[2]
		if r.Step == 0 {
			return nil, valueErrorf("range() arg 3 must not be zero")
		}
	}
	return r, nil
}

func newSlice(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs("slice", kwargs); err != nil {
		return nil, err
	}
	if err := ArgCount("slice", args, 1, 3); err != nil {
		return nil, err
	}
	switch len(args) {
	case 1:
		return &Slice{Stop: args[0]}, nil
	case 2:
		return &Slice{Start: args[0], Stop: args[1]}, nil
	}
	return &Slice{Start: args[0], Stop: args[1], Step: args[2]}, nil
}

func newType(rt Runtime, args []any, kwargs []Kwarg) (any, error) {
	if err := NoKwargs("type", kwargs); err != nil {
		return nil, err
	}
	if len(args) != 1 {
		return nil, typeErrorf("type() takes 1 argument")
	}
	return TypeOf(args[0]), nil
}
