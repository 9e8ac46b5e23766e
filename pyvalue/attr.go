package pyvalue

import (
	"math"
	"math/big"
	"slices"
	"sort"
	"strings"

	"github.com/reusee/taieval/evalerr"
)

var deniedAttrs = map[string]bool{
	"func_globals": true,
	"func_code":    true,
	"func_closure": true,
	"im_class":     true,
	"im_func":      true,
	"im_self":      true,
	"gi_code":      true,
	"gi_frame":     true,
	"f_locals":     true,
	"f_globals":    true,
	"f_builtins":   true,
	"f_code":       true,
	"tb_frame":     true,
	"co_code":      true,
	"mro":          true,
	"format_map":   true,
}

// DeniedAttr reports whether an attribute name may never be read, written
// or deleted: dunder names and the names that reach interpreter internals.
func DeniedAttr(name string) bool {
	if len(name) >= 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return deniedAttrs[name]
}

// DeniedAttrs lists the explicit denylist, sorted.
func DeniedAttrs() []string {
	names := make([]string, 0, len(deniedAttrs))
	for name := range deniedAttrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func deniedError(v any, name string) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindAttributeDenied, "no safe attribute '%s' for %s", name, Repr(v))
}

// GetAttr implements v.name.
func GetAttr(v any, name string) (any, error) {
	if DeniedAttr(name) {
		return nil, deniedError(v, name)
	}
	if o, ok := v.(Object); ok {
		return o.Attr(name)
	}
	if table := methodTable(v); table != nil {
		if fn, ok := table[name]; ok {
			return &BoundMethod{
				Name: name,
				Self: v,
				Fn:   fn,
			}, nil
		}
	}
	if ret, ok := property(v, name); ok {
		return ret, nil
	}
	if ret, ok := reflectAttr(v, name); ok {
		return ret, nil
	}
	return nil, noAttribute(v, name)
}

// HasAttr reports whether GetAttr would succeed.
func HasAttr(v any, name string) bool {
	_, err := GetAttr(v, name)
	return err == nil
}

// SetAttr implements v.name = value.
func SetAttr(v any, name string, value any) error {
	if DeniedAttr(name) {
		return deniedError(v, name)
	}
	if s, ok := v.(AttrSetter); ok {
		return s.SetAttr(name, value)
	}
	if ok, err := reflectSetAttr(v, name, value); ok {
		return err
	}
	if HasAttr(v, name) {
		return attributeErrorf("'%s' object attribute '%s' is read-only", TypeName(v), name)
	}
	return noAttribute(v, name)
}

// DelAttr implements del v.name.
func DelAttr(v any, name string) error {
	if DeniedAttr(name) {
		return deniedError(v, name)
	}
	if d, ok := v.(AttrDeleter); ok {
		return d.DelAttr(name)
	}
	if HasAttr(v, name) {
		return attributeErrorf("'%s' object attribute '%s' is read-only", TypeName(v), name)
	}
	return noAttribute(v, name)
}

// Dir lists the attribute names of v.
func Dir(v any) []string {
	var names []string
	if l, ok := v.(AttrLister); ok {
		names = append(names, l.AttrNames()...)
	}
	for name := range methodTable(v) {
		names = append(names, name)
	}
	names = append(names, propertyNames(v)...)
	names = append(names, reflectAttrNames(v)...)
	sort.Strings(names)
	return slices.Compact(names)
}

func methodTable(v any) map[string]MethodFunc {
	switch x := v.(type) {
	case string:
		return strMethods
	case Bytes:
		return bytesMethods
	case *List:
		return listMethods
	case Tuple:
		return tupleMethods
	case *Dict:
		return dictMethods
	case *Set:
		if x.Frozen {
			return frozenSetMethods
		}
		return setMethods
	case int64, *big.Int, bool:
		return intMethods
	case float64:
		return floatMethods
	case complex128:
		return complexMethods
	case *Range:
		return rangeMethods
	}
	return nil
}

func property(v any, name string) (any, bool) {
	switch x := v.(type) {
	case int64, *big.Int, bool:
		switch name {
		case "real", "numerator":
			return boolInt(x), true
		case "imag":
			return int64(0), true
		case "denominator":
			return int64(1), true
		}
	case float64:
		switch name {
		case "real":
			return x, true
		case "imag":
			return 0.0, true
		}
	case complex128:
		switch name {
		case "real":
			return real(x), true
		case "imag":
			return imag(x), true
		}
	case *Range:
		switch name {
		case "start":
			return x.Start, true
		case "stop":
			return x.Stop, true
		case "step":
			return x.Step, true
		}
	case *Slice:
		switch name {
		case "start":
			return x.Start, true
		case "stop":
			return x.Stop, true
		case "step":
			return x.Step, true
		}
	}
	return nil, false
}

func propertyNames(v any) []string {
	switch v.(type) {
	case int64, *big.Int, bool:
		return []string{"denominator", "imag", "numerator", "real"}
	case float64, complex128:
		return []string{"imag", "real"}
	case *Range, *Slice:
		return []string{"start", "step", "stop"}
	}
	return nil
}

var intMethods, floatMethods, complexMethods, rangeMethods map[string]MethodFunc

func init() {
	intMethods = map[string]MethodFunc{
		"bit_length": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("bit_length", args, 0, 0); err != nil {
				return nil, err
			}
			return int64(new(big.Int).Abs(ToBig(self)).BitLen()), nil
		},
		"conjugate": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return boolInt(self), nil
		},
		"as_integer_ratio": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return Tuple{boolInt(self), int64(1)}, nil
		},
	}

	floatMethods = map[string]MethodFunc{
		"is_integer": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			f := self.(float64)
			return f == math.Trunc(f) && !math.IsInf(f, 0), nil
		},
		"conjugate": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return self, nil
		},
		"as_integer_ratio": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			f := self.(float64)
			if math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, valueErrorf("cannot convert %s to integer ratio", FormatFloat(f))
			}
			r, _ := new(big.Rat).SetString(new(big.Float).SetFloat64(f).Text('g', -1))
			return Tuple{NormalizeInt(r.Num()), NormalizeInt(r.Denom())}, nil
		},
	}

	complexMethods = map[string]MethodFunc{
		"conjugate": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			c := self.(complex128)
			return complex(real(c), -imag(c)), nil
		},
	}

	rangeMethods = map[string]MethodFunc{
		"count": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("count", args, 1, 1); err != nil {
				return nil, err
			}
			if self.(*Range).Contains(args[0]) {
				return int64(1), nil
			}
			return int64(0), nil
		},
		"index": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("index", args, 1, 1); err != nil {
				return nil, err
			}
			r := self.(*Range)
			if !r.Contains(args[0]) {
				return nil, valueErrorf("%s is not in range", Repr(args[0]))
			}
			iv, _ := ToIntValue(args[0])
			n, _ := ToInt(iv)
			return (n - r.Start) / r.Step, nil
		},
	}
}

func limitsOf(rt Runtime) *Limits {
	if rt == nil {
		return nil
	}
	return rt.Limits()
}
