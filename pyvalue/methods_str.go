package pyvalue

import (
	"bytes"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

var strMethods, bytesMethods map[string]MethodFunc

func strArg(fn string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", typeErrorf("%s() argument must be str, not %s", fn, TypeName(v))
	}
	return s, nil
}

// runeRange resolves optional start and end arguments against a rune count.
func runeRange(args []any, n int) (int, int, error) {
	var lo, hi any
	if len(args) > 0 {
		lo = args[0]
	}
	if len(args) > 1 {
		hi = args[1]
	}
	start, stop, _, err := (&Slice{Start: lo, Stop: hi}).Indices(n)
	return start, stop, err
}

func strPredicate(pred func(r rune) bool) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		s := self.(string)
		if s == "" {
			return false, nil
		}
		for _, r := range s {
			if !pred(r) {
				return false, nil
			}
		}
		return true, nil
	}
}

func strTransform(fn func(string) string) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		return fn(self.(string)), nil
	}
}

func strStrip(fn func(s, cutset string) string, def func(string) string) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		if len(args) == 0 || args[0] == nil {
			return def(self.(string)), nil
		}
		chars, err := strArg("strip", args[0])
		if err != nil {
			return nil, err
		}
		return fn(self.(string), chars), nil
	}
}

func strFind(name string, last, raise bool) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		if err := ArgCount(name, args, 1, 3); err != nil {
			return nil, err
		}
		sub, err := strArg(name, args[0])
		if err != nil {
			return nil, err
		}
		rs := []rune(self.(string))
		start, stop, err := runeRange(args[1:], len(rs))
		if err != nil {
			return nil, err
		}
		idx := -1
		if start <= stop {
			window := string(rs[start:stop])
			var i int
			if last {
				i = strings.LastIndex(window, sub)
			} else {
				i = strings.Index(window, sub)
			}
			if i >= 0 {
				idx = start + utf8.RuneCountInString(window[:i])
			}
		}
		if idx < 0 && raise {
			return nil, valueErrorf("substring not found")
		}
		return int64(idx), nil
	}
}

func strJustify(name string, where byte) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		if err := ArgCount(name, args, 1, 2); err != nil {
			return nil, err
		}
		width, err := ToIndex(args[0])
		if err != nil {
			return nil, err
		}
		if err := limitsOf(rt).CheckLength(width); err != nil {
			return nil, err
		}
		fill := ' '
		if len(args) > 1 {
			f, err := strArg(name, args[1])
			if err != nil {
				return nil, err
			}
			if utf8.RuneCountInString(f) != 1 {
				return nil, typeErrorf("The fill character must be exactly one character long")
			}
			fill, _ = utf8.DecodeRuneInString(f)
		}
		spec := &formatSpec{fill: fill, align: where, width: width}
		return spec.pad(self.(string), where), nil
	}
}

func affix(name string, has func(s, affix string) bool) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		if err := ArgCount(name, args, 1, 3); err != nil {
			return nil, err
		}
		rs := []rune(self.(string))
		start, stop, err := runeRange(args[1:], len(rs))
		if err != nil {
			return nil, err
		}
		window := ""
		if start <= stop {
			window = string(rs[start:stop])
		}
		candidates := []any{args[0]}
		if t, ok := args[0].(Tuple); ok {
			candidates = t
		}
		for _, c := range candidates {
			a, err := strArg(name, c)
			if err != nil {
				return nil, err
			}
			if has(window, a) {
				return true, nil
			}
		}
		return false, nil
	}
}

func splitFields(s string, sep any, maxsplit int, right bool) ([]any, error) {
	var parts []string
	if sep == nil {
		fields := strings.Fields(s)
		if maxsplit >= 0 && len(fields) > maxsplit+1 {
			// keep the unsplit remainder intact
			if right {
				trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
				rest := trimmed
				tail := []string{}
				for range maxsplit {
					i := strings.LastIndexFunc(rest, unicode.IsSpace)
					tail = append([]string{rest[i+1:]}, tail...)
					rest = strings.TrimRightFunc(rest[:i], unicode.IsSpace)
				}
				parts = append([]string{strings.TrimLeftFunc(rest, unicode.IsSpace)}, tail...)
			} else {
				rest := strings.TrimLeftFunc(s, unicode.IsSpace)
				for range maxsplit {
					i := strings.IndexFunc(rest, unicode.IsSpace)
					parts = append(parts, rest[:i])
					rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
				}
				parts = append(parts, rest)
			}
		} else {
			parts = fields
		}
	} else {
		sepStr, err := strArg("split", sep)
		if err != nil {
			return nil, err
		}
		if sepStr == "" {
			return nil, valueErrorf("empty separator")
		}
		switch {
		case maxsplit < 0:
			parts = strings.Split(s, sepStr)
		case right:
			parts = rsplitN(s, sepStr, maxsplit+1)
		default:
			parts = strings.SplitN(s, sepStr, maxsplit+1)
		}
	}
	ret := make([]any, len(parts))
	for i, p := range parts {
		ret[i] = p
	}
	return ret, nil
}

func rsplitN(s, sep string, n int) []string {
	var ret []string
	for len(ret) < n-1 {
		i := strings.LastIndex(s, sep)
		if i < 0 {
			break
		}
		ret = append([]string{s[i+len(sep):]}, ret...)
		s = s[:i]
	}
	return append([]string{s}, ret...)
}

func splitMethod(name string, right bool) MethodFunc {
	return func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
		a, err := UnpackArgs(name, args, kwargs, "sep?", "maxsplit?")
		if err != nil {
			return nil, err
		}
		maxsplit := -1
		if a[1] != nil {
			maxsplit, err = ToIndex(a[1])
			if err != nil {
				return nil, err
			}
		}
		parts, err := splitFields(self.(string), a[0], maxsplit, right)
		if err != nil {
			return nil, err
		}
		return NewList(parts), nil
	}
}

func title(s string) string {
	var sb strings.Builder
	prevCased := false
	for _, r := range s {
		if prevCased {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(unicode.ToTitle(r))
		}
		prevCased = unicode.IsLetter(r)
	}
	return sb.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func init() {
	strMethods = map[string]MethodFunc{
		"capitalize": strTransform(func(s string) string {
			if s == "" {
				return s
			}
			r, size := utf8.DecodeRuneInString(s)
			return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
		}),
		"casefold": strTransform(strings.ToLower),
		"lower":    strTransform(strings.ToLower),
		"upper":    strTransform(strings.ToUpper),
		"title":    strTransform(title),
		"swapcase": strTransform(func(s string) string {
			return strings.Map(func(r rune) rune {
				if unicode.IsUpper(r) {
					return unicode.ToLower(r)
				}
				return unicode.ToUpper(r)
			}, s)
		}),
		"strip":  strStrip(strings.Trim, strings.TrimSpace),
		"lstrip": strStrip(strings.TrimLeft, func(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }),
		"rstrip": strStrip(strings.TrimRight, func(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }),

		"isalnum": strPredicate(func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }),
		"isalpha": strPredicate(unicode.IsLetter),
		"isascii": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			for _, r := range self.(string) {
				if r >= 0x80 {
					return false, nil
				}
			}
			return true, nil
		},
		"isdecimal": strPredicate(unicode.IsDigit),
		"isdigit":   strPredicate(unicode.IsDigit),
		"isnumeric": strPredicate(unicode.IsNumber),
		"isspace":   strPredicate(unicode.IsSpace),
		"islower": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			s := self.(string)
			return strings.ToLower(s) == s && strings.ToUpper(s) != s, nil
		},
		"isupper": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			s := self.(string)
			return strings.ToUpper(s) == s && strings.ToLower(s) != s, nil
		},
		"istitle": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			s := self.(string)
			return s != "" && title(s) == s && strings.ToLower(s) != s, nil
		},
		"isidentifier": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return isIdentifier(self.(string)), nil
		},

		"find":       strFind("find", false, false),
		"rfind":      strFind("rfind", true, false),
		"index":      strFind("index", false, true),
		"rindex":     strFind("rindex", true, true),
		"startswith": affix("startswith", strings.HasPrefix),
		"endswith":   affix("endswith", strings.HasSuffix),
		"center":     strJustify("center", '^'),
		"ljust":      strJustify("ljust", '<'),
		"rjust":      strJustify("rjust", '>'),
		"split":      splitMethod("split", false),
		"rsplit":     splitMethod("rsplit", true),

		"count": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("count", args, 1, 3); err != nil {
				return nil, err
			}
			sub, err := strArg("count", args[0])
			if err != nil {
				return nil, err
			}
			rs := []rune(self.(string))
			start, stop, err := runeRange(args[1:], len(rs))
			if err != nil {
				return nil, err
			}
			if start > stop {
				return int64(0), nil
			}
			return int64(strings.Count(string(rs[start:stop]), sub)), nil
		},

		"join": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("join", args, 1, 1); err != nil {
				return nil, err
			}
			elems, err := ToSlice(args[0])
			if err != nil {
				return nil, err
			}
			sep := self.(string)
			var sb strings.Builder
			for i, e := range elems {
				s, ok := e.(string)
				if !ok {
					return nil, typeErrorf("sequence item %d: expected str instance, %s found", i, TypeName(e))
				}
				if i > 0 {
					sb.WriteString(sep)
				}
				sb.WriteString(s)
				if err := limitsOf(rt).CheckLength(sb.Len()); err != nil {
					return nil, err
				}
			}
			return sb.String(), nil
		},

		"replace": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("replace", args, 2, 3); err != nil {
				return nil, err
			}
			old, err := strArg("replace", args[0])
			if err != nil {
				return nil, err
			}
			repl, err := strArg("replace", args[1])
			if err != nil {
				return nil, err
			}
			n := -1
			if len(args) > 2 {
				c, err := ToInt(args[2])
				if err != nil {
					return nil, err
				}
				n = int(c)
			}
			s := self.(string)
			count := strings.Count(s, old)
			if old == "" {
				count = utf8.RuneCountInString(s) + 1
			}
			if n >= 0 {
				count = min(count, n)
			}
			if err := limitsOf(rt).CheckLength(len(s) + count*(len(repl)-len(old))); err != nil {
				return nil, err
			}
			return strings.Replace(s, old, repl, n), nil
		},

		"partition": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("partition", args, 1, 1); err != nil {
				return nil, err
			}
			sep, err := strArg("partition", args[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, valueErrorf("empty separator")
			}
			before, after, found := strings.Cut(self.(string), sep)
			if !found {
				return Tuple{self, "", ""}, nil
			}
			return Tuple{before, sep, after}, nil
		},

		"rpartition": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("rpartition", args, 1, 1); err != nil {
				return nil, err
			}
			sep, err := strArg("rpartition", args[0])
			if err != nil {
				return nil, err
			}
			if sep == "" {
				return nil, valueErrorf("empty separator")
			}
			s := self.(string)
			i := strings.LastIndex(s, sep)
			if i < 0 {
				return Tuple{"", "", s}, nil
			}
			return Tuple{s[:i], sep, s[i+len(sep):]}, nil
		},

		"removeprefix": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("removeprefix", args, 1, 1); err != nil {
				return nil, err
			}
			p, err := strArg("removeprefix", args[0])
			if err != nil {
				return nil, err
			}
			return strings.TrimPrefix(self.(string), p), nil
		},

		"removesuffix": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("removesuffix", args, 1, 1); err != nil {
				return nil, err
			}
			p, err := strArg("removesuffix", args[0])
			if err != nil {
				return nil, err
			}
			return strings.TrimSuffix(self.(string), p), nil
		},

		"splitlines": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			a, err := UnpackArgs("splitlines", args, kwargs, "keepends?")
			if err != nil {
				return nil, err
			}
			keep := Truth(a[0])
			s := self.(string)
			var ret []any
			for s != "" {
				i := strings.IndexAny(s, "\n\r")
				if i < 0 {
					ret = append(ret, s)
					break
				}
				end := i + 1
				if s[i] == '\r' && end < len(s) && s[end] == '\n' {
					end++
				}
				if keep {
					ret = append(ret, s[:end])
				} else {
					ret = append(ret, s[:i])
				}
				s = s[end:]
			}
			return NewList(ret), nil
		},

		"expandtabs": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			a, err := UnpackArgs("expandtabs", args, kwargs, "tabsize?")
			if err != nil {
				return nil, err
			}
			size := 8
			if a[0] != nil {
				if size, err = ToIndex(a[0]); err != nil {
					return nil, err
				}
			}
			var sb strings.Builder
			col := 0
			for _, r := range self.(string) {
				switch r {
				case '\t':
					if size > 0 {
						n := size - col%size
						sb.WriteString(strings.Repeat(" ", n))
						col += n
					}
				case '\n', '\r':
					sb.WriteRune(r)
					col = 0
				default:
					sb.WriteRune(r)
					col++
				}
				if err := limitsOf(rt).CheckLength(sb.Len()); err != nil {
					return nil, err
				}
			}
			return sb.String(), nil
		},

		"zfill": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("zfill", args, 1, 1); err != nil {
				return nil, err
			}
			width, err := ToIndex(args[0])
			if err != nil {
				return nil, err
			}
			if err := limitsOf(rt).CheckLength(width); err != nil {
				return nil, err
			}
			s := self.(string)
			n := width - utf8.RuneCountInString(s)
			if n <= 0 {
				return s, nil
			}
			sign := ""
			if s != "" && (s[0] == '+' || s[0] == '-') {
				sign, s = s[:1], s[1:]
			}
			return sign + strings.Repeat("0", n) + s, nil
		},

		"format": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return StrFormat(self.(string), args, kwargs, limitsOf(rt))
		},

		"encode": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			a, err := UnpackArgs("encode", args, kwargs, "encoding?", "errors?")
			if err != nil {
				return nil, err
			}
			return encodeString(self.(string), a[0])
		},
	}

	bytesMethods = map[string]MethodFunc{
		"decode": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			a, err := UnpackArgs("decode", args, kwargs, "encoding?", "errors?")
			if err != nil {
				return nil, err
			}
			return decodeBytes(self.(Bytes), a[0], a[1])
		},
		"hex": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return hex.EncodeToString(self.(Bytes)), nil
		},
		"lower": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return Bytes(bytes.ToLower(self.(Bytes))), nil
		},
		"upper": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			return Bytes(bytes.ToUpper(self.(Bytes))), nil
		},
		"strip": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if len(args) > 0 {
				chars, ok := args[0].(Bytes)
				if !ok {
					return nil, typeErrorf("a bytes-like object is required, not '%s'", TypeName(args[0]))
				}
				return Bytes(bytes.Trim(self.(Bytes), string(chars))), nil
			}
			return Bytes(bytes.TrimSpace(self.(Bytes))), nil
		},
		"startswith": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("startswith", args, 1, 1); err != nil {
				return nil, err
			}
			p, ok := args[0].(Bytes)
			if !ok {
				return nil, typeErrorf("a bytes-like object is required, not '%s'", TypeName(args[0]))
			}
			return bytes.HasPrefix(self.(Bytes), p), nil
		},
		"endswith": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("endswith", args, 1, 1); err != nil {
				return nil, err
			}
			p, ok := args[0].(Bytes)
			if !ok {
				return nil, typeErrorf("a bytes-like object is required, not '%s'", TypeName(args[0]))
			}
			return bytes.HasSuffix(self.(Bytes), p), nil
		},
		"count": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("count", args, 1, 1); err != nil {
				return nil, err
			}
			p, ok := args[0].(Bytes)
			if !ok {
				return nil, typeErrorf("a bytes-like object is required, not '%s'", TypeName(args[0]))
			}
			return int64(bytes.Count(self.(Bytes), p)), nil
		},
		"find": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("find", args, 1, 1); err != nil {
				return nil, err
			}
			p, ok := args[0].(Bytes)
			if !ok {
				return nil, typeErrorf("a bytes-like object is required, not '%s'", TypeName(args[0]))
			}
			return int64(bytes.Index(self.(Bytes), p)), nil
		},
		"split": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			var parts [][]byte
			if len(args) == 0 || args[0] == nil {
				parts = bytes.Fields(self.(Bytes))
			} else {
				sep, ok := args[0].(Bytes)
				if !ok {
					return nil, typeErrorf("a bytes-like object is required, not '%s'", TypeName(args[0]))
				}
				if len(sep) == 0 {
					return nil, valueErrorf("empty separator")
				}
				parts = bytes.Split(self.(Bytes), sep)
			}
			ret := make([]any, len(parts))
			for i, p := range parts {
				ret[i] = Bytes(p)
			}
			return NewList(ret), nil
		},
		"replace": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("replace", args, 2, 2); err != nil {
				return nil, err
			}
			old, ok1 := args[0].(Bytes)
			repl, ok2 := args[1].(Bytes)
			if !ok1 || !ok2 {
				return nil, typeErrorf("a bytes-like object is required")
			}
			ret := bytes.ReplaceAll(self.(Bytes), old, repl)
			if err := limitsOf(rt).CheckLength(len(ret)); err != nil {
				return nil, err
			}
			return Bytes(ret), nil
		},
		"join": func(rt Runtime, self any, args []any, kwargs []Kwarg) (any, error) {
			if err := ArgCount("join", args, 1, 1); err != nil {
				return nil, err
			}
			elems, err := ToSlice(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([][]byte, len(elems))
			for i, e := range elems {
				b, ok := e.(Bytes)
				if !ok {
					return nil, typeErrorf("sequence item %d: expected a bytes-like object, %s found", i, TypeName(e))
				}
				parts[i] = b
			}
			ret := bytes.Join(parts, self.(Bytes))
			if err := limitsOf(rt).CheckLength(len(ret)); err != nil {
				return nil, err
			}
			return Bytes(ret), nil
		},
	}
}
