package pyvalue

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"
)

// formatSpec is a parsed format specification:
// [[fill]align][sign][#][0][width][grouping][.precision][type]
type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	alt       bool
	zero      bool
	width     int
	grouping  byte
	precision int
	typ       byte
}

func parseFormatSpec(spec string) (*formatSpec, error) {
	f := &formatSpec{
		fill:      ' ',
		precision: -1,
	}
	rs := []rune(spec)
	i := 0
	isAlign := func(r rune) bool {
		return r == '<' || r == '>' || r == '^' || r == '='
	}
	if len(rs) >= 2 && isAlign(rs[1]) {
		f.fill = rs[0]
		f.align = byte(rs[1])
		i = 2
	} else if len(rs) >= 1 && isAlign(rs[0]) {
		f.align = byte(rs[0])
		i = 1
	}
	if i < len(rs) && (rs[i] == '+' || rs[i] == '-' || rs[i] == ' ') {
		f.sign = byte(rs[i])
		i++
	}
	if i < len(rs) && rs[i] == '#' {
		f.alt = true
		i++
	}
	if i < len(rs) && rs[i] == '0' {
		f.zero = true
		i++
	}
	start := i
	for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
		i++
	}
	if i > start {
		f.width, _ = strconv.Atoi(string(rs[start:i]))
	}
	if i < len(rs) && (rs[i] == ',' || rs[i] == '_') {
		f.grouping = byte(rs[i])
		i++
	}
	if i < len(rs) && rs[i] == '.' {
		i++
		start = i
		for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
			i++
		}
		if i == start {
			return nil, valueErrorf("Format specifier missing precision")
		}
		f.precision, _ = strconv.Atoi(string(rs[start:i]))
	}
	if i < len(rs) {
		if i != len(rs)-1 || rs[i] > 0x7f {
			return nil, valueErrorf("Invalid format specifier '%s'", spec)
		}
		f.typ = byte(rs[i])
	}
	if f.zero && f.align == 0 {
		f.fill = '0'
		f.align = '='
	}
	return f, nil
}

// Format implements format(v, spec).
func Format(v any, spec string) (string, error) {
	if spec == "" {
		return Str(v), nil
	}
	f, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return f.formatString(x)
	case bool:
		if f.typ == 0 {
			return f.formatString(Str(x))
		}
		return f.formatInt(boolInt(x))
	case int64, *big.Int:
		switch f.typ {
		case 'e', 'E', 'f', 'F', 'g', 'G', '%':
			fl, err := ToFloat(x)
			if err != nil {
				return "", err
			}
			return f.formatFloat(fl)
		}
		return f.formatInt(x)
	case float64:
		return f.formatFloat(x)
	case complex128:
		if f.typ != 0 {
			return "", valueErrorf("Unknown format code '%c' for object of type 'complex'", f.typ)
		}
		return f.pad(formatComplex(x), '>'), nil
	}
	if f.typ == 0 || f.typ == 's' {
		return f.formatString(Str(v))
	}
	return "", typeErrorf("unsupported format string passed to %s.__format__", TypeName(v))
}

func (f *formatSpec) formatString(s string) (string, error) {
	if f.typ != 0 && f.typ != 's' {
		return "", valueErrorf("Unknown format code '%c' for object of type 'str'", f.typ)
	}
	if f.sign != 0 {
		return "", valueErrorf("Sign not allowed in string format specifier")
	}
	if f.align == '=' {
		if !f.zero {
			return "", valueErrorf("'=' alignment not allowed in string format specifier")
		}
		f.align = 0
	}
	if f.precision >= 0 && utf8.RuneCountInString(s) > f.precision {
		s = string([]rune(s)[:f.precision])
	}
	return f.pad(s, '<'), nil
}

func (f *formatSpec) formatInt(v any) (string, error) {
	n := ToBig(v)
	if f.precision >= 0 {
		return "", valueErrorf("Precision not allowed in integer format specifier")
	}
	neg := n.Sign() < 0
	abs := new(big.Int).Abs(n)
	var digits, prefix string
	switch f.typ {
	case 0, 'd', 'n':
		digits = abs.String()
	case 'b':
		digits, prefix = abs.Text(2), "0b"
	case 'o':
		digits, prefix = abs.Text(8), "0o"
	case 'x':
		digits, prefix = abs.Text(16), "0x"
	case 'X':
		digits, prefix = strings.ToUpper(abs.Text(16)), "0X"
	case 'c':
		if !n.IsInt64() || n.Int64() < 0 || n.Int64() > utf8.MaxRune {
			return "", overflowErrorf("%%c arg not in range(0x110000)")
		}
		return f.pad(string(rune(n.Int64())), '<'), nil
	default:
		return "", valueErrorf("Unknown format code '%c' for object of type 'int'", f.typ)
	}
	if f.grouping != 0 {
		every := 3
		if f.typ == 'b' || f.typ == 'o' || f.typ == 'x' || f.typ == 'X' {
			every = 4
		}
		digits = group(digits, f.grouping, every)
	}
	if !f.alt {
		prefix = ""
	}
	return f.padNumber(neg, prefix, digits), nil
}

func (f *formatSpec) formatFloat(x float64) (string, error) {
	neg := math.Signbit(x) && !math.IsNaN(x)
	abs := math.Abs(x)
	prec := f.precision
	var body string
	switch f.typ {
	case 'e', 'E', 'f', 'F', '%':
		if prec < 0 {
			prec = 6
		}
	}
	switch {
	case math.IsInf(abs, 0):
		body = "inf"
	case math.IsNaN(abs):
		body = "nan"
	default:
		switch f.typ {
		case 'e', 'E':
			body = pyExp(strconv.FormatFloat(abs, 'e', prec, 64))
		case 'f', 'F':
			body = strconv.FormatFloat(abs, 'f', prec, 64)
		case '%':
			body = strconv.FormatFloat(abs*100, 'f', prec, 64) + "%"
		case 'g', 'G', 'n':
			if prec < 0 {
				prec = 6
			}
			if prec == 0 {
				prec = 1
			}
			body = pyExp(strconv.FormatFloat(abs, 'g', prec, 64))
			if f.alt && !strings.Contains(body, ".") {
				body += "."
			}
		case 0:
			if prec < 0 {
				body = FormatFloat(abs)
			} else {
				if prec == 0 {
					prec = 1
				}
				body = pyExp(strconv.FormatFloat(abs, 'g', prec, 64))
				if !strings.ContainsAny(body, ".e") {
					body += ".0"
				}
			}
		default:
			return "", valueErrorf("Unknown format code '%c' for object of type 'float'", f.typ)
		}
	}
	if f.typ == 'E' || f.typ == 'F' || f.typ == 'G' {
		body = strings.ToUpper(body)
	}
	if f.grouping != 0 {
		intPart, rest := body, ""
		if i := strings.IndexAny(body, ".eE%"); i >= 0 {
			intPart, rest = body[:i], body[i:]
		}
		if intPart != "inf" && intPart != "nan" {
			body = group(intPart, f.grouping, 3) + rest
		}
	}
	return f.padNumber(neg, "", body), nil
}

// pyExp rewrites Go exponents to Python's two-digit minimum form.
func pyExp(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return s
	}
	mant, exp := s[:i+1], s[i+1:]
	sign := ""
	if exp != "" && (exp[0] == '+' || exp[0] == '-') {
		sign, exp = exp[:1], exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	for len(exp) < 2 {
		exp = "0" + exp
	}
	return mant + sign + exp
}

func group(digits string, sep byte, every int) string {
	if len(digits) <= every {
		return digits
	}
	var sb strings.Builder
	first := len(digits) % every
	if first > 0 {
		sb.WriteString(digits[:first])
	}
	for i := first; i < len(digits); i += every {
		if sb.Len() > 0 {
			sb.WriteByte(sep)
		}
		sb.WriteString(digits[i : i+every])
	}
	return sb.String()
}

func (f *formatSpec) padNumber(neg bool, prefix, digits string) string {
	sign := ""
	switch {
	case neg:
		sign = "-"
	case f.sign == '+':
		sign = "+"
	case f.sign == ' ':
		sign = " "
	}
	if f.align == '=' {
		n := f.width - utf8.RuneCountInString(sign+prefix+digits)
		if n > 0 {
			return sign + prefix + strings.Repeat(string(f.fill), n) + digits
		}
		return sign + prefix + digits
	}
	return f.pad(sign+prefix+digits, '>')
}

func (f *formatSpec) pad(s string, defaultAlign byte) string {
	n := f.width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	align := f.align
	if align == 0 || align == '=' {
		align = defaultAlign
	}
	fill := string(f.fill)
	switch align {
	case '<':
		return s + strings.Repeat(fill, n)
	case '^':
		left := n / 2
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, n-left)
	}
	return strings.Repeat(fill, n) + s
}

// PercentFormat implements the printf-style str % args operator.
func PercentFormat(format string, args any) (string, error) {
	var positional []any
	var mapping *Dict
	switch a := args.(type) {
	case Tuple:
		positional = a
	case *Dict:
		mapping = a
		positional = []any{a}
	default:
		positional = []any{a}
	}
	next := 0
	nextArg := func() (any, error) {
		if next >= len(positional) {
			return nil, typeErrorf("not enough arguments for format string")
		}
		next++
		return positional[next-1], nil
	}

	var sb strings.Builder
	rs := []rune(format)
	usedMapping := false
	for i := 0; i < len(rs); i++ {
		if rs[i] != '%' {
			sb.WriteRune(rs[i])
			continue
		}
		i++
		if i >= len(rs) {
			return "", valueErrorf("incomplete format")
		}
		if rs[i] == '%' {
			sb.WriteByte('%')
			continue
		}

		var arg any
		hasArg := false
		if rs[i] == '(' {
			if mapping == nil {
				return "", typeErrorf("format requires a mapping")
			}
			depth := 1
			start := i + 1
			for i++; i < len(rs) && depth > 0; i++ {
				switch rs[i] {
				case '(':
					depth++
				case ')':
					depth--
				}
			}
			if depth > 0 {
				return "", valueErrorf("incomplete format key")
			}
			key := string(rs[start : i-1])
			v, ok, err := mapping.Get(key)
			if err != nil {
				return "", err
			}
			if !ok {
				return "", keyError(key)
			}
			arg, hasArg = v, true
			usedMapping = true
		}

		spec := &formatSpec{fill: ' ', precision: -1, align: '>'}
	flags:
		for ; i < len(rs); i++ {
			switch rs[i] {
			case '-':
				spec.align = '<'
			case '+':
				spec.sign = '+'
			case ' ':
				if spec.sign == 0 {
					spec.sign = ' '
				}
			case '#':
				spec.alt = true
			case '0':
				spec.zero = true
			default:
				break flags
			}
		}
		readNum := func() (int, error) {
			if i < len(rs) && rs[i] == '*' {
				i++
				v, err := nextArg()
				if err != nil {
					return 0, err
				}
				n, err := ToIndex(v)
				if err != nil {
					return 0, typeErrorf("* wants int")
				}
				return n, nil
			}
			start := i
			for i < len(rs) && rs[i] >= '0' && rs[i] <= '9' {
				i++
			}
			if i == start {
				return -1, nil
			}
			return strconv.Atoi(string(rs[start:i]))
		}
		w, err := readNum()
		if err != nil {
			return "", err
		}
		if w < 0 && w != -1 {
			spec.align = '<'
			w = -w
		}
		spec.width = max(w, 0)
		if i < len(rs) && rs[i] == '.' {
			i++
			p, err := readNum()
			if err != nil {
				return "", err
			}
			spec.precision = max(p, 0)
		}
		for i < len(rs) && (rs[i] == 'h' || rs[i] == 'l' || rs[i] == 'L') {
			i++
		}
		if i >= len(rs) {
			return "", valueErrorf("incomplete format")
		}
		conv := rs[i]
		if !hasArg {
			arg, err = nextArg()
			if err != nil {
				return "", err
			}
		}
		if spec.zero && spec.align != '<' {
			spec.fill = '0'
			spec.align = '='
		}

		var out string
		switch conv {
		case 's', 'r', 'a':
			var s string
			switch conv {
			case 's':
				s = Str(arg)
			case 'r':
				s = Repr(arg)
			default:
				s = ASCII(arg)
			}
			if spec.precision >= 0 && utf8.RuneCountInString(s) > spec.precision {
				s = string([]rune(s)[:spec.precision])
			}
			if spec.align == '=' {
				spec.align = '>'
				spec.fill = ' '
			}
			out = spec.pad(s, '>')
		case 'd', 'i', 'u', 'x', 'X', 'o':
			if !IsNumber(arg) {
				return "", typeErrorf("%%%c format: a real number is required, not %s", conv, TypeName(arg))
			}
			n, err := ToIntValue(arg)
			if err != nil {
				return "", err
			}
			spec.typ = byte(conv)
			if conv == 'i' || conv == 'u' {
				spec.typ = 'd'
			}
			// precision has no effect on integer conversions
			spec.precision = -1
			out, err = spec.formatInt(n)
			if err != nil {
				return "", err
			}
		case 'e', 'E', 'f', 'F', 'g', 'G':
			fl, err := ToFloat(arg)
			if err != nil {
				return "", typeErrorf("must be real number, not %s", TypeName(arg))
			}
			spec.typ = byte(conv)
			if spec.precision < 0 {
				spec.precision = 6
			}
			out, err = spec.formatFloat(fl)
			if err != nil {
				return "", err
			}
		case 'c':
			switch a := arg.(type) {
			case string:
				if utf8.RuneCountInString(a) != 1 {
					return "", typeErrorf("%%c requires int or char")
				}
				out = spec.pad(a, '>')
			default:
				spec.typ = 'c'
				out, err = spec.formatInt(arg)
				if err != nil {
					return "", err
				}
			}
		default:
			return "", valueErrorf("unsupported format character '%c' (0x%x) at index %d", conv, conv, i)
		}
		sb.WriteString(out)
	}
	if next < len(positional) && mapping == nil && !usedMapping {
		return "", typeErrorf("not all arguments converted during string formatting")
	}
	return sb.String(), nil
}

// StrFormat implements str.format.
func StrFormat(format string, args []any, kwargs []Kwarg, limits *Limits) (string, error) {
	f := &fieldFormatter{
		args:   args,
		kwargs: kwargs,
		limits: limits,
	}
	return f.format(format, 0)
}

type fieldFormatter struct {
	args   []any
	kwargs []Kwarg
	limits *Limits
	auto   int
	manual bool
}

func (f *fieldFormatter) format(format string, depth int) (string, error) {
	if depth > 2 {
		return "", valueErrorf("Max string recursion exceeded")
	}
	var sb strings.Builder
	rs := []rune(format)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch r {
		case '}':
			if i+1 < len(rs) && rs[i+1] == '}' {
				sb.WriteRune('}')
				i++
				continue
			}
			return "", valueErrorf("Single '}' encountered in format string")
		case '{':
			if i+1 < len(rs) && rs[i+1] == '{' {
				sb.WriteRune('{')
				i++
				continue
			}
			level := 1
			start := i + 1
			for i++; i < len(rs); i++ {
				if rs[i] == '{' {
					level++
				} else if rs[i] == '}' {
					level--
					if level == 0 {
						break
					}
				}
			}
			if level != 0 {
				return "", valueErrorf("expected '}' before end of string")
			}
			s, err := f.field(string(rs[start:i]), depth)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
			if err := f.limits.CheckLength(sb.Len()); err != nil {
				return "", err
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String(), nil
}

func (f *fieldFormatter) field(field string, depth int) (string, error) {
	name, spec, hasSpec := field, "", false
	// the spec starts at the first colon outside brackets
	bracket := false
	for i, r := range field {
		if r == '[' {
			bracket = true
		} else if r == ']' {
			bracket = false
		} else if r == ':' && !bracket {
			name, spec, hasSpec = field[:i], field[i+1:], true
			break
		}
	}
	conv := byte(0)
	if i := strings.IndexByte(name, '!'); i >= 0 {
		c := name[i+1:]
		if len(c) != 1 || !strings.Contains("rsa", c) {
			return "", valueErrorf("Unknown conversion specifier %s", c)
		}
		conv = c[0]
		name = name[:i]
	}

	v, err := f.lookup(name)
	if err != nil {
		return "", err
	}
	switch conv {
	case 'r':
		v = Repr(v)
	case 's':
		v = Str(v)
	case 'a':
		v = ASCII(v)
	}
	if hasSpec && strings.Contains(spec, "{") {
		spec, err = f.format(spec, depth+1)
		if err != nil {
			return "", err
		}
	}
	return Format(v, spec)
}

func (f *fieldFormatter) lookup(name string) (any, error) {
	end := strings.IndexAny(name, ".[")
	if end < 0 {
		end = len(name)
	}
	first, rest := name[:end], name[end:]

	var v any
	switch {
	case first == "":
		if f.manual {
			return nil, valueErrorf("cannot switch from manual field specification to automatic field numbering")
		}
		if f.auto >= len(f.args) {
			return nil, indexErrorf("Replacement index %d out of range for positional args tuple", f.auto)
		}
		v = f.args[f.auto]
		f.auto++
	case first[0] >= '0' && first[0] <= '9':
		if f.auto > 0 {
			return nil, valueErrorf("cannot switch from automatic field numbering to manual field specification")
		}
		f.manual = true
		idx, err := strconv.Atoi(first)
		if err != nil || idx >= len(f.args) {
			return nil, indexErrorf("Replacement index %s out of range for positional args tuple", first)
		}
		v = f.args[idx]
	default:
		found := false
		for _, kw := range f.kwargs {
			if kw.Name == first {
				v, found = kw.Value, true
			}
		}
		if !found {
			return nil, keyError(first)
		}
	}

	for rest != "" {
		switch rest[0] {
		case '.':
			end := strings.IndexAny(rest[1:], ".[")
			if end < 0 {
				end = len(rest) - 1
			}
			attr := rest[1 : end+1]
			rest = rest[end+1:]
			var err error
			v, err = GetAttr(v, attr)
			if err != nil {
				return nil, err
			}
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, valueErrorf("Missing ']' in format string")
			}
			key := rest[1:end]
			rest = rest[end+1:]
			var k any = key
			if n, err := strconv.Atoi(key); err == nil {
				k = int64(n)
			}
			var err error
			v, err = GetItem(v, k)
			if err != nil {
				return nil, err
			}
		default:
			return nil, valueErrorf("Only '.' or '[' may follow ']' in format field specifier")
		}
	}
	return v, nil
}
