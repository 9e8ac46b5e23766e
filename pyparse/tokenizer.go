package pyparse

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/reusee/taieval/pyast"
)

type Tokenizer struct {
	name   string
	src    []rune
	i      int
	pos    pyast.Pos
	depth  int
	indent []int
	tokens []Token

	atLineStart bool
}

func NewTokenizer(name string, source string) *Tokenizer {
	return &Tokenizer{
		name:        name,
		src:         []rune(source),
		pos:         pyast.Pos{Line: 1, Column: 1},
		indent:      []int{0},
		atLineStart: true,
	}
}

// Tokenize splits the whole source into tokens, ending with TokenEOF.
func Tokenize(name string, source string) ([]Token, error) {
	t := NewTokenizer(name, source)
	if err := t.run(); err != nil {
		return nil, err
	}
	return t.tokens, nil
}

func (t *Tokenizer) errorf(pos pyast.Pos, format string, args ...any) error {
	return &Error{
		Name: t.name,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (t *Tokenizer) peek(offset int) rune {
	if t.i+offset < len(t.src) {
		return t.src[t.i+offset]
	}
	return 0
}

func (t *Tokenizer) advance() rune {
	r := t.src[t.i]
	t.i++
	if r == '\n' {
		t.pos.Line++
		t.pos.Column = 1
	} else {
		t.pos.Column++
	}
	return r
}

func (t *Tokenizer) emit(kind TokenKind, value string, pos pyast.Pos) *Token {
	t.tokens = append(t.tokens, Token{
		Kind:  kind,
		Value: value,
		Pos:   pos,
	})
	return &t.tokens[len(t.tokens)-1]
}

func (t *Tokenizer) lastKind() TokenKind {
	if len(t.tokens) == 0 {
		return TokenNewline
	}
	return t.tokens[len(t.tokens)-1].Kind
}

func (t *Tokenizer) run() error {
	for {
		if t.atLineStart && t.depth == 0 {
			done, err := t.lineStart()
			if err != nil {
				return err
			}
			if done {
				break
			}
			continue
		}

		if t.i >= len(t.src) {
			break
		}

		r := t.peek(0)
		switch {

		case r == ' ' || r == '\t' || r == '\f' || r == '\r':
			t.advance()

		case r == '#':
			for t.i < len(t.src) && t.peek(0) != '\n' {
				t.advance()
			}

		case r == '\\':
			pos := t.pos
			t.advance()
			if t.peek(0) == '\r' {
				t.advance()
			}
			if t.peek(0) != '\n' {
				return t.errorf(pos, "unexpected character after line continuation character")
			}
			t.advance()

		case r == '\n':
			pos := t.pos
			t.advance()
			if t.depth > 0 {
				continue
			}
			if t.lastKind() != TokenNewline {
				t.emit(TokenNewline, "", pos)
			}
			t.atLineStart = true

		case r == '_' || unicode.IsLetter(r):
			if err := t.nameOrString(); err != nil {
				return err
			}

		case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(t.peek(1))):
			if err := t.number(); err != nil {
				return err
			}

		case r == '\'' || r == '"':
			if err := t.str(t.pos, ""); err != nil {
				return err
			}

		default:
			if err := t.operator(); err != nil {
				return err
			}
		}
	}

	pos := t.pos
	// an unclosed bracket leaves the logical line open
	if t.lastKind() != TokenNewline && t.depth == 0 {
		t.emit(TokenNewline, "", pos)
	}
	for len(t.indent) > 1 {
		t.indent = t.indent[:len(t.indent)-1]
		t.emit(TokenDedent, "", pos)
	}
	t.emit(TokenEOF, "", pos)
	return nil
}

// lineStart handles indentation of a new logical line. It returns true at
// end of input.
func (t *Tokenizer) lineStart() (bool, error) {
	col := 0
	j := t.i
	for j < len(t.src) {
		switch t.src[j] {
		case ' ':
			col++
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			goto measured
		}
		j++
	}
measured:
	// blank and comment-only lines do not affect indentation
	if j >= len(t.src) {
		for t.i < j {
			t.advance()
		}
		return true, nil
	}
	switch t.src[j] {
	case '\n', '#', '\r':
		for t.i < len(t.src) && t.peek(0) != '\n' {
			t.advance()
		}
		if t.i < len(t.src) {
			t.advance()
		}
		return false, nil
	}

	for t.i < j {
		t.advance()
	}
	t.atLineStart = false

	top := t.indent[len(t.indent)-1]
	if col > top {
		t.indent = append(t.indent, col)
		t.emit(TokenIndent, "", t.pos)
		return false, nil
	}
	for col < t.indent[len(t.indent)-1] {
		t.indent = t.indent[:len(t.indent)-1]
		t.emit(TokenDedent, "", t.pos)
	}
	if col != t.indent[len(t.indent)-1] {
		return false, t.errorf(t.pos, "unindent does not match any outer indentation level")
	}
	return false, nil
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (t *Tokenizer) nameOrString() error {
	pos := t.pos
	start := t.i
	for t.i < len(t.src) {
		r := t.peek(0)
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			t.advance()
			continue
		}
		break
	}
	name := string(t.src[start:t.i])
	if q := t.peek(0); (q == '\'' || q == '"') && isStringPrefix(name) {
		return t.str(pos, strings.ToLower(name))
	}
	t.emit(TokenName, name, pos)
	return nil
}

func (t *Tokenizer) operator() error {
	pos := t.pos
	for _, op := range operators {
		n := len(op)
		if t.i+n > len(t.src) {
			continue
		}
		if string(t.src[t.i:t.i+n]) != op {
			continue
		}
		for range n {
			t.advance()
		}
		switch op {
		case "(", "[", "{":
			t.depth++
		case ")", "]", "}":
			if t.depth > 0 {
				t.depth--
			}
		}
		t.emit(TokenOp, op, pos)
		return nil
	}
	return t.errorf(pos, "invalid character '%c' (U+%04X)", t.peek(0), t.peek(0))
}

func (t *Tokenizer) number() error {
	pos := t.pos
	start := t.i

	digits := func(valid func(rune) bool) {
		for t.i < len(t.src) {
			r := t.peek(0)
			if valid(r) || (r == '_' && valid(t.peek(1))) {
				t.advance()
				continue
			}
			break
		}
	}
	isDec := func(r rune) bool { return r >= '0' && r <= '9' }

	if t.peek(0) == '0' {
		base := 0
		var valid func(rune) bool
		switch t.peek(1) {
		case 'x', 'X':
			base = 16
			valid = func(r rune) bool {
				return isDec(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
			}
		case 'o', 'O':
			base = 8
			valid = func(r rune) bool { return r >= '0' && r <= '7' }
		case 'b', 'B':
			base = 2
			valid = func(r rune) bool { return r == '0' || r == '1' }
		}
		if base != 0 {
			t.advance()
			t.advance()
			if t.peek(0) == '_' {
				t.advance()
			}
			digitsStart := t.i
			digits(valid)
			text := strings.ReplaceAll(string(t.src[digitsStart:t.i]), "_", "")
			if text == "" {
				return t.errorf(pos, "invalid number literal")
			}
			i, ok := new(big.Int).SetString(text, base)
			if !ok {
				return t.errorf(pos, "invalid number literal")
			}
			tok := t.emit(TokenNumber, string(t.src[start:t.i]), pos)
			tok.Number = normalizeInt(i)
			return nil
		}
	}

	isFloat := false
	digits(isDec)
	if t.peek(0) == '.' && !(t.peek(1) == '.' && t.peek(2) == '.') {
		isFloat = true
		t.advance()
		digits(isDec)
	}
	if r := t.peek(0); r == 'e' || r == 'E' {
		next := t.peek(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(t.peek(2))) {
			isFloat = true
			t.advance()
			if next == '+' || next == '-' {
				t.advance()
			}
			digits(isDec)
		}
	}
	imaginary := false
	if r := t.peek(0); r == 'j' || r == 'J' {
		imaginary = true
		t.advance()
	}

	literal := string(t.src[start:t.i])
	text := strings.ReplaceAll(strings.TrimRight(literal, "jJ"), "_", "")
	tok := t.emit(TokenNumber, literal, pos)

	if isFloat || imaginary {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			// out of range values become inf, as in Python
			if numErr, ok := err.(*strconv.NumError); !ok || numErr.Err != strconv.ErrRange {
				return t.errorf(pos, "invalid number literal %q", literal)
			}
		}
		if imaginary {
			tok.Number = complex(0, f)
		} else {
			tok.Number = f
		}
		return nil
	}

	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		return t.errorf(pos, "leading zeros in decimal integer literals are not permitted")
	}
	i, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return t.errorf(pos, "invalid number literal %q", literal)
	}
	tok.Number = normalizeInt(i)
	return nil
}

func normalizeInt(i *big.Int) any {
	if i.IsInt64() {
		return i.Int64()
	}
	return i
}

func (t *Tokenizer) str(pos pyast.Pos, prefix string) error {
	raw := strings.Contains(prefix, "r")
	isBytes := strings.Contains(prefix, "b")
	isFormat := strings.Contains(prefix, "f")

	quote := t.peek(0)
	triple := t.peek(1) == quote && t.peek(2) == quote
	if triple {
		t.advance()
		t.advance()
	}
	t.advance()
	bodyPos := t.pos

	var body []rune
	for {
		if t.i >= len(t.src) {
			if triple {
				return t.errorf(pos, "unterminated triple-quoted string literal")
			}
			return t.errorf(pos, "unterminated string literal")
		}
		r := t.peek(0)
		if r == '\\' && t.i+1 < len(t.src) {
			body = append(body, t.advance(), t.advance())
			continue
		}
		if r == '\n' && !triple {
			return t.errorf(pos, "unterminated string literal")
		}
		if r == quote {
			if !triple {
				t.advance()
				break
			}
			if t.peek(1) == quote && t.peek(2) == quote {
				t.advance()
				t.advance()
				t.advance()
				break
			}
		}
		body = append(body, t.advance())
	}

	tok := t.emit(TokenString, "", pos)
	tok.Bytes = isBytes
	tok.Raw = raw
	tok.Format = isFormat
	tok.BodyPos = bodyPos
	if isFormat {
		tok.Value = string(body)
		return nil
	}
	value, err := decodeString(string(body), raw, isBytes)
	if err != nil {
		return t.errorf(pos, "%v", err)
	}
	tok.Value = value
	return nil
}

// decodeString processes backslash escapes. For bytes literals the result
// holds one byte per escaped value.
func decodeString(body string, raw bool, isBytes bool) (string, error) {
	if raw {
		return body, nil
	}
	if !strings.Contains(body, "\\") {
		if isBytes {
			for _, r := range body {
				if r > 0x7f {
					return "", fmt.Errorf("bytes can only contain ASCII literal characters")
				}
			}
		}
		return body, nil
	}

	var sb strings.Builder
	runes := []rune(body)
	writeValue := func(v rune) {
		if isBytes {
			sb.WriteByte(byte(v))
		} else {
			sb.WriteRune(v)
		}
	}
	hex := func(i, n int) (rune, error) {
		if i+n > len(runes) {
			return 0, fmt.Errorf("truncated \\x escape")
		}
		v, err := strconv.ParseUint(string(runes[i:i+n]), 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid escape sequence")
		}
		return rune(v), nil
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' || i+1 >= len(runes) {
			if isBytes && r > 0x7f {
				return "", fmt.Errorf("bytes can only contain ASCII literal characters")
			}
			sb.WriteRune(r)
			continue
		}
		i++
		switch c := runes[i]; c {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteRune(c)
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'v':
			sb.WriteByte('\v')
		case 'x':
			v, err := hex(i+1, 2)
			if err != nil {
				return "", err
			}
			writeValue(v)
			i += 2
		case 'u', 'U':
			if isBytes {
				sb.WriteRune('\\')
				sb.WriteRune(c)
				continue
			}
			n := 4
			if c == 'U' {
				n = 8
			}
			v, err := hex(i+1, n)
			if err != nil {
				return "", err
			}
			sb.WriteRune(v)
			i += n
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(runes) && j < i+3 && runes[j] >= '0' && runes[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(string(runes[i:j]), 8, 32)
			writeValue(rune(v))
			i = j - 1
		default:
			// unknown escapes are kept verbatim
			sb.WriteRune('\\')
			sb.WriteRune(c)
		}
	}
	return sb.String(), nil
}
