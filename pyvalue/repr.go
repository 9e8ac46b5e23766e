package pyvalue

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// Repr is the repr() of v.
func Repr(v any) string {
	var sb strings.Builder
	writeRepr(&sb, v, map[any]bool{})
	return sb.String()
}

// Str is the str() of v.
func Str(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case *Exception:
		return v.Message()
	case fmt.Stringer:
		return v.String()
	}
	return Repr(v)
}

func writeRepr(sb *strings.Builder, v any, seen map[any]bool) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("None")
	case bool:
		if v {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case int64:
		sb.WriteString(strconv.FormatInt(v, 10))
	case *big.Int:
		sb.WriteString(v.String())
	case float64:
		sb.WriteString(FormatFloat(v))
	case complex128:
		sb.WriteString(formatComplex(v))
	case string:
		sb.WriteString(quoteString(v))
	case Bytes:
		sb.WriteString(quoteBytes(v))
	case *List:
		if seen[v] {
			sb.WriteString("[...]")
			return
		}
		seen[v] = true
		defer delete(seen, v)
		sb.WriteString("[")
		writeElems(sb, v.Elems, seen)
		sb.WriteString("]")
	case Tuple:
		sb.WriteString("(")
		writeElems(sb, v, seen)
		if len(v) == 1 {
			sb.WriteString(",")
		}
		sb.WriteString(")")
	case *Dict:
		if seen[v] {
			sb.WriteString("{...}")
			return
		}
		seen[v] = true
		defer delete(seen, v)
		sb.WriteString("{")
		for i, k := range v.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, k, seen)
			sb.WriteString(": ")
			writeRepr(sb, v.values[i], seen)
		}
		sb.WriteString("}")
	case *Set:
		if v.Len() == 0 {
			if v.Frozen {
				sb.WriteString("frozenset()")
			} else {
				sb.WriteString("set()")
			}
			return
		}
		if v.Frozen {
			sb.WriteString("frozenset(")
		}
		sb.WriteString("{")
		writeElems(sb, v.items, seen)
		sb.WriteString("}")
		if v.Frozen {
			sb.WriteString(")")
		}
	case *Range:
		if v.Step == 1 {
			fmt.Fprintf(sb, "range(%d, %d)", v.Start, v.Stop)
		} else {
			fmt.Fprintf(sb, "range(%d, %d, %d)", v.Start, v.Stop, v.Step)
		}
	case *Slice:
		fmt.Fprintf(sb, "slice(%s, %s, %s)", Repr(v.Start), Repr(v.Stop), Repr(v.Step))
	case EllipsisType:
		sb.WriteString("Ellipsis")
	case *Iterator:
		fmt.Fprintf(sb, "<%s object>", TypeName(v))
	case *Exception:
		sb.WriteString(v.Class.Name)
		sb.WriteString("(")
		writeElems(sb, v.Args, seen)
		sb.WriteString(")")
	case *ExceptionClass:
		fmt.Fprintf(sb, "<class '%s'>", v.Name)
	case *Type:
		fmt.Fprintf(sb, "<class '%s'>", v.Name)
	case *Builtin:
		fmt.Fprintf(sb, "<built-in function %s>", v.Name)
	case *BoundMethod:
		fmt.Fprintf(sb, "<built-in method %s of %s object>", v.Name, TypeName(v.Self))
	case *File:
		fmt.Fprintf(sb, "<file name=%s mode=%s>", quoteString(v.Name), quoteString(v.Mode))
	case interface{ Repr() string }:
		sb.WriteString(v.Repr())
	case fmt.Stringer:
		sb.WriteString(v.String())
	default:
		fmt.Fprintf(sb, "%v", v)
	}
}

func writeElems(sb *strings.Builder, elems []any, seen map[any]bool) {
	for i, e := range elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeRepr(sb, e, seen)
	}
}

// FormatFloat renders a float the way Python's repr does: the shortest
// round-tripping digits, exponent notation outside [1e-4, 1e16).
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		exp = strings.TrimLeft(exp[1:], "0")
		if len(exp) < 2 {
			exp = strings.Repeat("0", 2-len(exp)) + exp
		}
		return mant + "e" + string(sign) + exp
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func formatComplex(c complex128) string {
	part := func(f float64) string {
		s := FormatFloat(f)
		return strings.TrimSuffix(s, ".0")
	}
	if real(c) == 0 && !math.Signbit(real(c)) {
		return part(imag(c)) + "j"
	}
	im := part(imag(c))
	if !strings.HasPrefix(im, "-") {
		im = "+" + im
	}
	return "(" + part(real(c)) + im + "j)"
}

func quoteString(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(quote):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < 0x80 || unicode.IsPrint(r):
			sb.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

func quoteBytes(b []byte) string {
	quote := byte('\'')
	if strings.Contains(string(b), "'") && !strings.Contains(string(b), `"`) {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteString("b")
	sb.WriteByte(quote)
	for _, c := range b {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == quote:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// ASCII is the ascii() of v: repr with non-ASCII escaped.
func ASCII(v any) string {
	var sb strings.Builder
	for _, r := range Repr(v) {
		switch {
		case r < 0x80:
			sb.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}
	return sb.String()
}
