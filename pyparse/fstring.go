package pyparse

import (
	"strings"

	"github.com/reusee/taieval/pyast"
)

type fstringScanner struct {
	p    *parser
	body []rune
	i    int
	pos  pyast.Pos
	raw  bool
}

// fstring splits the body of an f-string token into string constants and
// formatted values.
func (p *parser) fstring(tok *Token) ([]pyast.Expr, error) {
	s := &fstringScanner{
		p:    p,
		body: []rune(tok.Value),
		pos:  tok.BodyPos,
		raw:  tok.Raw,
	}
	return s.parse(false, 0)
}

func (s *fstringScanner) peek(offset int) rune {
	if s.i+offset < len(s.body) {
		return s.body[s.i+offset]
	}
	return 0
}

func (s *fstringScanner) advance() rune {
	r := s.body[s.i]
	s.i++
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
	return r
}

// parse reads literal text and replacement fields. Inside a format spec it
// stops before the closing brace.
func (s *fstringScanner) parse(inSpec bool, depth int) ([]pyast.Expr, error) {
	var values []pyast.Expr
	var literal []rune
	litPos := s.pos
	add := func(r rune) {
		literal = append(literal, r)
	}
	mark := func() {
		if len(literal) == 0 {
			litPos = s.pos
		}
	}
	flush := func() error {
		if len(literal) == 0 {
			return nil
		}
		text, err := decodeString(string(literal), s.raw, false)
		if err != nil {
			return s.p.errorf(litPos, "%v", err)
		}
		values = appendValue(values, &pyast.Constant{
			Pos:   litPos,
			Value: text,
		})
		literal = literal[:0]
		return nil
	}

	for s.i < len(s.body) {
		r := s.peek(0)
		switch {

		case r == '{' && s.peek(1) == '{' && !inSpec:
			mark()
			add('{')
			s.advance()
			s.advance()

		case r == '}' && s.peek(1) == '}' && !inSpec:
			mark()
			add('}')
			s.advance()
			s.advance()

		case r == '}':
			if inSpec {
				if err := flush(); err != nil {
					return nil, err
				}
				return values, nil
			}
			return nil, s.p.errorf(s.pos, "f-string: single '}' is not allowed")

		case r == '{':
			if err := flush(); err != nil {
				return nil, err
			}
			field, err := s.field(depth)
			if err != nil {
				return nil, err
			}
			for _, v := range field {
				values = appendValue(values, v)
			}

		case r == '\\' && !s.raw && s.peek(1) != '{' && s.peek(1) != '}' && s.i+1 < len(s.body):
			mark()
			add(s.advance())
			add(s.advance())

		default:
			mark()
			add(s.advance())
		}
	}

	if inSpec {
		return nil, s.p.errorf(s.pos, "f-string: expecting '}'")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *fstringScanner) field(depth int) ([]pyast.Expr, error) {
	open := s.pos
	if depth >= 2 {
		return nil, s.p.errorf(open, "f-string: expressions nested too deeply")
	}
	s.advance()
	exprPos := s.pos
	start := s.i

	nesting := 0
	var quote rune
	for {
		if s.i >= len(s.body) {
			return nil, s.p.errorf(open, "f-string: expecting '}'")
		}
		r := s.peek(0)
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			s.advance()
			continue
		}
		if r == '\'' || r == '"' {
			quote = r
			s.advance()
			continue
		}
		if nesting == 0 && (r == '}' || r == ':' || (r == '!' && s.peek(1) != '=')) {
			break
		}
		switch r {
		case '(', '[', '{':
			nesting++
		case ')', ']', '}':
			nesting--
		}
		s.advance()
	}

	text := string(s.body[start:s.i])
	// f"{expr=}" echoes the expression text before its value
	debugText := ""
	trimmed := strings.TrimRight(text, " \t\r\n")
	if n := len(trimmed); n > 0 && trimmed[n-1] == '=' &&
		(n == 1 || !strings.ContainsRune("=!<>", rune(trimmed[n-2]))) {
		debugText = text
		text = trimmed[:n-1]
	}
	if strings.TrimSpace(text) == "" {
		return nil, s.p.errorf(open, "f-string: empty expression not allowed")
	}
	expr, err := s.p.subExpr(text, exprPos)
	if err != nil {
		return nil, err
	}

	node := &pyast.FormattedValue{
		Pos:   open,
		Value: expr,
	}
	if s.peek(0) == '!' {
		s.advance()
		if s.i >= len(s.body) {
			return nil, s.p.errorf(s.pos, "f-string: expecting '}'")
		}
		c := s.advance()
		if c != 's' && c != 'r' && c != 'a' {
			return nil, s.p.errorf(s.pos, "f-string: invalid conversion character %q: expected 's', 'r', or 'a'", c)
		}
		node.Conversion = c
	}
	if s.peek(0) == ':' {
		specPos := s.pos
		s.advance()
		values, err := s.parse(true, depth+1)
		if err != nil {
			return nil, err
		}
		node.Spec = &pyast.JoinedStr{
			Pos:    specPos,
			Values: values,
		}
	}
	if s.i >= len(s.body) || s.peek(0) != '}' {
		return nil, s.p.errorf(s.pos, "f-string: expecting '}'")
	}
	s.advance()

	if debugText == "" {
		return []pyast.Expr{node}, nil
	}
	if node.Conversion == 0 && node.Spec == nil {
		node.Conversion = 'r'
	}
	return []pyast.Expr{
		&pyast.Constant{Pos: open, Value: debugText},
		node,
	}, nil
}

// subExpr parses an expression embedded at pos, as if it were parenthesized.
func (p *parser) subExpr(text string, pos pyast.Pos) (pyast.Expr, error) {
	shift := func(at pyast.Pos) pyast.Pos {
		if at.Line == 1 {
			return pyast.Pos{
				Line:   pos.Line,
				Column: pos.Column + at.Column - 2,
			}
		}
		return pyast.Pos{
			Line:   pos.Line + at.Line - 1,
			Column: at.Column,
		}
	}

	tokens, err := Tokenize(p.name, "("+text+")")
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Pos = shift(e.Pos)
		}
		return nil, err
	}
	for i := range tokens {
		tokens[i].Pos = shift(tokens[i].Pos)
		tokens[i].BodyPos = shift(tokens[i].BodyPos)
	}

	sub := &parser{
		name:   p.name,
		tokens: tokens,
		depth:  p.depth,
	}
	expr, err := sub.testList(false)
	if err != nil {
		return nil, err
	}
	if sub.cur().Kind != TokenNewline {
		return nil, sub.errorf(sub.cur().Pos, "f-string: invalid syntax")
	}
	return expr, nil
}
