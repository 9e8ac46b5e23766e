package pyvalue

import "github.com/reusee/taieval/evalerr"

func typeErrorf(format string, args ...any) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindTypeMismatch, format, args...)
}

func valueErrorf(format string, args ...any) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindValue, format, args...)
}

func zeroDivision(msg string) *evalerr.Error {
	return evalerr.Named(evalerr.KindArithmetic, "ZeroDivisionError", "%s", msg)
}

func overflowErrorf(format string, args ...any) *evalerr.Error {
	return evalerr.Named(evalerr.KindArithmetic, "OverflowError", format, args...)
}

func indexErrorf(format string, args ...any) *evalerr.Error {
	return evalerr.Named(evalerr.KindLookup, "IndexError", format, args...)
}

func keyError(key any) *evalerr.Error {
	err := evalerr.Named(evalerr.KindLookup, "KeyError", "%s", Repr(key))
	err.Value = &Exception{
		Class: ClassKeyError,
		Args:  Tuple{key},
	}
	return err
}

func limitErrorf(format string, args ...any) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindResourceLimit, format, args...)
}

func attributeErrorf(format string, args ...any) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindAttribute, format, args...)
}

func noAttribute(v any, name string) *evalerr.Error {
	return attributeErrorf("'%s' object has no attribute '%s'", TypeName(v), name)
}

func unsupported(op string, x, y any) *evalerr.Error {
	return typeErrorf("unsupported operand type(s) for %s: '%s' and '%s'", op, TypeName(x), TypeName(y))
}

// TypeErrorf, ValueErrorf and friends build errors for builtins defined
// outside this package.
func TypeErrorf(format string, args ...any) *evalerr.Error {
	return typeErrorf(format, args...)
}

func ValueErrorf(format string, args ...any) *evalerr.Error {
	return valueErrorf(format, args...)
}

func LimitErrorf(format string, args ...any) *evalerr.Error {
	return limitErrorf(format, args...)
}

func IndexErrorf(format string, args ...any) *evalerr.Error {
	return indexErrorf(format, args...)
}

func KeyError(key any) *evalerr.Error {
	return keyError(key)
}

func ZeroDivision(msg string) *evalerr.Error {
	return zeroDivision(msg)
}

func OverflowErrorf(format string, args ...any) *evalerr.Error {
	return overflowErrorf(format, args...)
}

func unicodeError(name, msg string) *evalerr.Error {
	return evalerr.Named(evalerr.KindValue, name, "%s", msg)
}

func keyErrorMsg(msg string) *evalerr.Error {
	return evalerr.Named(evalerr.KindLookup, "KeyError", "%s", msg)
}

func AttrErrorf(format string, args ...any) *evalerr.Error {
	return attributeErrorf(format, args...)
}
