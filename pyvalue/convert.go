package pyvalue

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"unicode"

	"github.com/reusee/taieval/evalerr"
)

var (
	errorType   = reflect.TypeFor[error]()
	runtimeType = reflect.TypeFor[Runtime]()
	anyType     = reflect.TypeFor[any]()
)

// FromGo converts a Go value supplied by the embedder to a runtime value.
// Values without a natural counterpart are returned as is and reached
// through reflection.
func FromGo(v any) any {
	if b, ok := v.(*big.Int); ok {
		return NormalizeInt(b)
	}
	if native(v) {
		return v
	}
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return NormalizeInt(new(big.Int).SetUint64(uint64(v)))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return NormalizeInt(new(big.Int).SetUint64(v))
	case float32:
		return float64(v)
	case complex64:
		return complex128(v)
	case []byte:
		return Bytes(v)
	case []any:
		return NewList(v)
	case map[string]any:
		d := NewDict()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d.SetString(k, FromGo(v[k]))
		}
		return d
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		return WrapGoFunc("", v)
	}
	return v
}

// ToGo converts a runtime value to the Go type target. Callables become Go
// functions calling back into rt.
func ToGo(rt Runtime, v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}

	switch target.Kind() {
	case reflect.Func:
		if rt == nil {
			break
		}
		return reflect.MakeFunc(target, func(args []reflect.Value) []reflect.Value {
			callArgs := make([]any, len(args))
			for i, arg := range args {
				callArgs[i] = FromGo(arg.Interface())
			}
			res, err := rt.Call(v, callArgs, nil)
			numOut := target.NumOut()
			results := make([]reflect.Value, numOut)
			if numOut > 0 && target.Out(numOut-1) == errorType {
				numOut--
				results[numOut] = reflect.Zero(errorType)
				if err != nil {
					results[numOut] = reflect.ValueOf(&err).Elem()
				}
			} else if err != nil {
				panic(err)
			}
			for i := range numOut {
				results[i] = reflect.Zero(target.Out(i))
			}
			if err != nil {
				return results
			}
			outs := []any{res}
			if numOut > 1 {
				if outs, err = ToSlice(res); err != nil || len(outs) != numOut {
					panic(typeErrorf("expected %d results, got %s", numOut, Repr(res)))
				}
			}
			for i := range numOut {
				out, err := ToGo(rt, outs[i], target.Out(i))
				if err != nil {
					panic(err)
				}
				results[i] = out
			}
			return results
		}), nil

	case reflect.Slice:
		if b, ok := v.(Bytes); ok && target.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(b)).Convert(target), nil
		}
		elems, err := ToSlice(v)
		if err != nil {
			break
		}
		slice := reflect.MakeSlice(target, len(elems), len(elems))
		for i, e := range elems {
			ev, err := ToGo(rt, e, target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			slice.Index(i).Set(ev)
		}
		return slice, nil

	case reflect.Map:
		d, ok := v.(*Dict)
		if !ok {
			break
		}
		m := reflect.MakeMapWithSize(target, d.Len())
		for _, item := range d.Items() {
			k, err := ToGo(rt, item[0], target.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			e, err := ToGo(rt, item[1], target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			m.SetMapIndex(k, e)
		}
		return m, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !IsInt(v) {
			break
		}
		b := ToBig(v)
		ret := reflect.New(target).Elem()
		if !b.IsInt64() || ret.OverflowInt(b.Int64()) {
			return reflect.Value{}, overflowErrorf("Python int too large to convert to %s", target)
		}
		ret.SetInt(b.Int64())
		return ret, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !IsInt(v) {
			break
		}
		b := ToBig(v)
		ret := reflect.New(target).Elem()
		if b.Sign() < 0 || !b.IsUint64() || ret.OverflowUint(b.Uint64()) {
			return reflect.Value{}, overflowErrorf("Python int too large to convert to %s", target)
		}
		ret.SetUint(b.Uint64())
		return ret, nil

	case reflect.Float32, reflect.Float64:
		if !IsNumber(v) {
			break
		}
		f, err := ToFloat(v)
		if err != nil {
			return reflect.Value{}, err
		}
		ret := reflect.New(target).Elem()
		if target.Kind() == reflect.Float32 && math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return reflect.Value{}, overflowErrorf("float too large to convert to %s", target)
		}
		ret.SetFloat(f)
		return ret, nil

	case reflect.Complex64, reflect.Complex128:
		if !IsNumber(v) {
			break
		}
		c, err := toComplex(v)
		if err != nil {
			return reflect.Value{}, err
		}
		ret := reflect.New(target).Elem()
		ret.SetComplex(c)
		return ret, nil
	}

	if target.Kind() != reflect.Func && rv.Type().ConvertibleTo(target) && rv.Kind() == target.Kind() {
		return rv.Convert(target), nil
	}
	return reflect.Value{}, typeErrorf("cannot convert '%s' to %s", TypeName(v), target)
}

// WrapGoFunc makes a Go function callable from evaluated code. A leading
// Runtime parameter receives the calling runtime. A trailing error result
// is raised when non-nil; several results are returned as a tuple.
func WrapGoFunc(name string, fn any) *Builtin {
	rv := reflect.ValueOf(fn)
	t := rv.Type()
	if t.Kind() != reflect.Func {
		panic(fmt.Errorf("not a function: %T", fn))
	}
	if name == "" {
		name = "function"
	}
	withRuntime := t.NumIn() > 0 && t.In(0) == runtimeType
	numOut := t.NumOut()
	withError := numOut > 0 && t.Out(numOut-1) == errorType
	if withError {
		numOut--
	}

	return &Builtin{
		Name: name,
		Fn: func(rt Runtime, args []any, kwargs []Kwarg) (ret any, err error) {
			if err := NoKwargs(name, kwargs); err != nil {
				return nil, err
			}
			in := make([]reflect.Value, 0, t.NumIn())
			first := 0
			if withRuntime {
				in = append(in, reflect.ValueOf(&rt).Elem())
				first = 1
			}
			fixed := t.NumIn() - first
			if t.IsVariadic() {
				fixed--
				if len(args) < fixed {
					return nil, typeErrorf("%s() takes at least %d positional arguments but %d were given", name, fixed, len(args))
				}
			} else if len(args) != fixed {
				return nil, typeErrorf("%s() takes %d positional arguments but %d were given", name, fixed, len(args))
			}
			for i, arg := range args {
				var paramType reflect.Type
				if i < fixed {
					paramType = t.In(first + i)
				} else {
					paramType = t.In(t.NumIn() - 1).Elem()
				}
				v, err := ToGo(rt, arg, paramType)
				if err != nil {
					return nil, err
				}
				in = append(in, v)
			}

			defer func() {
				if p := recover(); p != nil {
					if e, ok := p.(error); ok {
						err = evalerr.From(e)
						return
					}
					err = evalerr.Errorf(evalerr.KindRuntime, "%s() panicked: %v", name, p)
				}
			}()
			out := rv.Call(in)

			if withError {
				if e := out[numOut].Interface(); e != nil {
					return nil, evalerr.From(e.(error))
				}
			}
			switch numOut {
			case 0:
				return nil, nil
			case 1:
				return fromGoValue(out[0]), nil
			}
			tuple := make(Tuple, numOut)
			for i := range numOut {
				tuple[i] = fromGoValue(out[i])
			}
			return tuple, nil
		},
	}
}

// native reports whether v belongs to the runtime value model, so that
// its Go methods and fields stay hidden.
func native(v any) bool {
	switch v.(type) {
	case nil, bool, int64, *big.Int, float64, complex128, string, Bytes,
		*List, Tuple, *Dict, *Set, *Range, *Slice, EllipsisType,
		*Iterator, *Builtin, *BoundMethod, *Exception, *ExceptionClass, *Type, *File,
		Object, Callable:
		return true
	}
	return false
}

func fromGoValue(v reflect.Value) any {
	if v.Type() == anyType && v.IsNil() {
		return nil
	}
	return FromGo(v.Interface())
}

func structValue(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}

func exported(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

// reflectAttr resolves exported fields and methods of embedder-supplied Go
// values.
func reflectAttr(v any, name string) (any, bool) {
	if native(v) || !exported(name) {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if m := rv.MethodByName(name); m.IsValid() {
		return WrapGoFunc(name, m.Interface()), true
	}
	sv, ok := structValue(v)
	if !ok {
		return nil, false
	}
	field, ok := sv.Type().FieldByName(name)
	if !ok || !field.IsExported() {
		return nil, false
	}
	return FromGo(sv.FieldByIndex(field.Index).Interface()), true
}

func reflectSetAttr(v any, name string, value any) (bool, error) {
	if native(v) || !exported(name) {
		return false, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return false, nil
	}
	sv, ok := structValue(v)
	if !ok {
		return false, nil
	}
	field, ok := sv.Type().FieldByName(name)
	if !ok || !field.IsExported() {
		return false, nil
	}
	fv, err := ToGo(nil, value, field.Type)
	if err != nil {
		return true, err
	}
	sv.FieldByIndex(field.Index).Set(fv)
	return true, nil
}

func reflectAttrNames(v any) []string {
	if native(v) {
		return nil
	}
	var names []string
	t := reflect.TypeOf(v)
	for i := range t.NumMethod() {
		names = append(names, t.Method(i).Name)
	}
	if sv, ok := structValue(v); ok {
		for _, f := range reflect.VisibleFields(sv.Type()) {
			if f.IsExported() && !f.Anonymous {
				names = append(names, f.Name)
			}
		}
	}
	return names
}
