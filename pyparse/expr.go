package pyparse

import (
	"github.com/reusee/taieval/pyast"
)

func (p *parser) startsExpr() bool {
	tok := p.cur()
	switch tok.Kind {
	case TokenNumber, TokenString:
		return true
	case TokenName:
		if !IsKeyword(tok.Value) {
			return true
		}
		switch tok.Value {
		case "None", "True", "False", "not", "lambda":
			return true
		}
	case TokenOp:
		switch tok.Value {
		case "(", "[", "{", "-", "+", "~", "...", "*":
			return true
		}
	}
	return false
}

// testList parses comma separated expressions, producing a tuple when a
// comma is present.
func (p *parser) testList(allowStar bool) (pyast.Expr, error) {
	pos := p.cur().Pos
	first, err := p.testOrStar(allowStar)
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []pyast.Expr{first}
	for p.acceptOp(",") {
		if !p.startsExpr() {
			break
		}
		e, err := p.testOrStar(allowStar)
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &pyast.Tuple{
		Pos:  pos,
		Elts: elts,
	}, nil
}

func (p *parser) testOrStar(allowStar bool) (pyast.Expr, error) {
	if allowStar && p.isOp("*") {
		pos := p.next().Pos
		x, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		return &pyast.Starred{
			Pos: pos,
			X:   x,
		}, nil
	}
	return p.test()
}

// targetList parses loop targets. Targets stop at bitwise-or level so that
// the following 'in' is not taken as a comparison.
func (p *parser) targetList() (pyast.Expr, error) {
	pos := p.cur().Pos
	first, err := p.starOrBitOr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []pyast.Expr{first}
	for p.acceptOp(",") {
		if !p.startsExpr() {
			break
		}
		e, err := p.starOrBitOr()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &pyast.Tuple{
		Pos:  pos,
		Elts: elts,
	}, nil
}

func (p *parser) starOrBitOr() (pyast.Expr, error) {
	if p.isOp("*") {
		pos := p.next().Pos
		x, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		return &pyast.Starred{
			Pos: pos,
			X:   x,
		}, nil
	}
	return p.bitOr()
}

func (p *parser) test() (pyast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.isKeyword("lambda") {
		return p.lambda()
	}
	pos := p.cur().Pos
	body, err := p.orTest()
	if err != nil {
		return nil, err
	}
	if p.acceptKeyword("if") {
		cond, err := p.orTest()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("else"); err != nil {
			return nil, err
		}
		orElse, err := p.test()
		if err != nil {
			return nil, err
		}
		return &pyast.IfExp{
			Pos:  pos,
			Test: cond,
			Body: body,
			Else: orElse,
		}, nil
	}
	if p.isOp(":=") {
		return nil, p.errorf(p.cur().Pos, "assignment expressions are not supported")
	}
	return body, nil
}

func (p *parser) lambda() (pyast.Expr, error) {
	pos := p.next().Pos
	params, err := p.params(":", false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	body, err := p.test()
	if err != nil {
		return nil, err
	}
	return &pyast.Lambda{
		Pos:    pos,
		Params: params,
		Body:   body,
	}, nil
}

func (p *parser) boolOp(keyword string, op pyast.Op, next func() (pyast.Expr, error)) (pyast.Expr, error) {
	pos := p.cur().Pos
	x, err := next()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword(keyword) {
		return x, nil
	}
	values := []pyast.Expr{x}
	for p.acceptKeyword(keyword) {
		y, err := next()
		if err != nil {
			return nil, err
		}
		values = append(values, y)
	}
	return &pyast.BoolOp{
		Pos:    pos,
		Op:     op,
		Values: values,
	}, nil
}

func (p *parser) orTest() (pyast.Expr, error) {
	return p.boolOp("or", pyast.Or, p.andTest)
}

func (p *parser) andTest() (pyast.Expr, error) {
	return p.boolOp("and", pyast.And, p.notTest)
}

func (p *parser) notTest() (pyast.Expr, error) {
	if p.isKeyword("not") {
		pos := p.next().Pos
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		x, err := p.notTest()
		if err != nil {
			return nil, err
		}
		return &pyast.UnaryOp{
			Pos: pos,
			Op:  pyast.Not,
			X:   x,
		}, nil
	}
	return p.comparison()
}

func (p *parser) compOp() (pyast.CmpOp, bool) {
	tok := p.cur()
	switch {
	case tok.Kind == TokenOp:
		var op pyast.CmpOp
		switch tok.Value {
		case "<":
			op = pyast.Lt
		case ">":
			op = pyast.Gt
		case "==":
			op = pyast.Eq
		case ">=":
			op = pyast.GtE
		case "<=":
			op = pyast.LtE
		case "!=":
			op = pyast.NotEq
		default:
			return 0, false
		}
		p.next()
		return op, true
	case tok.is(TokenName, "in"):
		p.next()
		return pyast.In, true
	case tok.is(TokenName, "not") && p.peekTok(1).is(TokenName, "in"):
		p.next()
		p.next()
		return pyast.NotIn, true
	case tok.is(TokenName, "is"):
		p.next()
		if p.acceptKeyword("not") {
			return pyast.IsNot, true
		}
		return pyast.Is, true
	}
	return 0, false
}

func (p *parser) comparison() (pyast.Expr, error) {
	pos := p.cur().Pos
	left, err := p.bitOr()
	if err != nil {
		return nil, err
	}
	var ops []pyast.CmpOp
	var comparators []pyast.Expr
	for {
		op, ok := p.compOp()
		if !ok {
			break
		}
		right, err := p.bitOr()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	if len(ops) == 0 {
		return left, nil
	}
	return &pyast.Compare{
		Pos:         pos,
		Left:        left,
		Ops:         ops,
		Comparators: comparators,
	}, nil
}

func (p *parser) binary(next func() (pyast.Expr, error), ops map[string]pyast.Op) (pyast.Expr, error) {
	x, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		if tok.Kind != TokenOp {
			return x, nil
		}
		op, ok := ops[tok.Value]
		if !ok {
			return x, nil
		}
		p.next()
		y, err := next()
		if err != nil {
			return nil, err
		}
		x = &pyast.BinOp{
			Pos: x.Position(),
			X:   x,
			Op:  op,
			Y:   y,
		}
	}
}

var (
	bitOrOps  = map[string]pyast.Op{"|": pyast.BitOr}
	bitXorOps = map[string]pyast.Op{"^": pyast.BitXor}
	bitAndOps = map[string]pyast.Op{"&": pyast.BitAnd}
	shiftOps  = map[string]pyast.Op{"<<": pyast.LShift, ">>": pyast.RShift}
	arithOps  = map[string]pyast.Op{"+": pyast.Add, "-": pyast.Sub}
	termOps   = map[string]pyast.Op{
		"*":  pyast.Mult,
		"/":  pyast.Div,
		"//": pyast.FloorDiv,
		"%":  pyast.Mod,
		"@":  pyast.MatMult,
	}
)

func (p *parser) bitOr() (pyast.Expr, error) {
	return p.binary(p.bitXor, bitOrOps)
}

func (p *parser) bitXor() (pyast.Expr, error) {
	return p.binary(p.bitAnd, bitXorOps)
}

func (p *parser) bitAnd() (pyast.Expr, error) {
	return p.binary(p.shift, bitAndOps)
}

func (p *parser) shift() (pyast.Expr, error) {
	return p.binary(p.arith, shiftOps)
}

func (p *parser) arith() (pyast.Expr, error) {
	return p.binary(p.term, arithOps)
}

func (p *parser) term() (pyast.Expr, error) {
	return p.binary(p.factor, termOps)
}

func (p *parser) factor() (pyast.Expr, error) {
	tok := p.cur()
	if tok.Kind == TokenOp {
		var op pyast.Op
		switch tok.Value {
		case "+":
			op = pyast.UAdd
		case "-":
			op = pyast.USub
		case "~":
			op = pyast.Invert
		}
		if op != 0 {
			p.next()
			if err := p.enter(); err != nil {
				return nil, err
			}
			defer p.leave()
			x, err := p.factor()
			if err != nil {
				return nil, err
			}
			return &pyast.UnaryOp{
				Pos: tok.Pos,
				Op:  op,
				X:   x,
			}, nil
		}
	}
	return p.power()
}

func (p *parser) power() (pyast.Expr, error) {
	x, err := p.atomExpr()
	if err != nil {
		return nil, err
	}
	if p.acceptOp("**") {
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &pyast.BinOp{
			Pos: x.Position(),
			X:   x,
			Op:  pyast.Pow,
			Y:   y,
		}, nil
	}
	return x, nil
}

func (p *parser) atomExpr() (pyast.Expr, error) {
	x, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		switch {

		case tok.is(TokenOp, "("):
			x, err = p.call(x)
			if err != nil {
				return nil, err
			}

		case tok.is(TokenOp, "["):
			p.next()
			index, err := p.subscriptList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = &pyast.Subscript{
				Pos:   x.Position(),
				X:     x,
				Index: index,
			}

		case tok.is(TokenOp, "."):
			p.next()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			x = &pyast.Attribute{
				Pos:  x.Position(),
				X:    x,
				Name: name.Value,
			}

		default:
			return x, nil
		}
	}
}

func (p *parser) call(fn pyast.Expr) (pyast.Expr, error) {
	p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	node := &pyast.Call{
		Pos:  fn.Position(),
		Func: fn,
	}
	keywords := make(map[string]bool)
	seenKeyword := false
	seenUnpack := false

	for !p.isOp(")") {
		tok := p.cur()
		switch {

		case tok.is(TokenOp, "*"):
			p.next()
			x, err := p.test()
			if err != nil {
				return nil, err
			}
			if seenUnpack {
				return nil, p.errorf(tok.Pos, "iterable argument unpacking follows keyword argument unpacking")
			}
			node.Args = append(node.Args, &pyast.Starred{
				Pos: tok.Pos,
				X:   x,
			})

		case tok.is(TokenOp, "**"):
			p.next()
			x, err := p.test()
			if err != nil {
				return nil, err
			}
			node.Keywords = append(node.Keywords, &pyast.Keyword{
				Pos:   tok.Pos,
				Value: x,
			})
			seenUnpack = true

		case tok.Kind == TokenName && !IsKeyword(tok.Value) && p.peekTok(1).is(TokenOp, "="):
			p.next()
			p.next()
			x, err := p.test()
			if err != nil {
				return nil, err
			}
			if keywords[tok.Value] {
				return nil, p.errorf(tok.Pos, "keyword argument repeated: %s", tok.Value)
			}
			keywords[tok.Value] = true
			node.Keywords = append(node.Keywords, &pyast.Keyword{
				Pos:   tok.Pos,
				Name:  tok.Value,
				Value: x,
			})
			seenKeyword = true

		default:
			x, err := p.test()
			if err != nil {
				return nil, err
			}
			if p.isKeyword("for") {
				generators, err := p.compFor()
				if err != nil {
					return nil, err
				}
				x = &pyast.GeneratorExp{
					Pos:        x.Position(),
					Elt:        x,
					Generators: generators,
				}
				if len(node.Args) > 0 || len(node.Keywords) > 0 || !p.isOp(")") {
					return nil, p.errorf(x.Position(), "generator expression must be parenthesized")
				}
			}
			if seenUnpack {
				return nil, p.errorf(tok.Pos, "positional argument follows keyword argument unpacking")
			}
			if seenKeyword {
				return nil, p.errorf(tok.Pos, "positional argument follows keyword argument")
			}
			node.Args = append(node.Args, x)
		}

		if !p.acceptOp(",") {
			break
		}
	}

	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) subscriptList() (pyast.Expr, error) {
	pos := p.cur().Pos
	first, err := p.subscript()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []pyast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		e, err := p.subscript()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &pyast.Tuple{
		Pos:  pos,
		Elts: elts,
	}, nil
}

func (p *parser) subscript() (pyast.Expr, error) {
	pos := p.cur().Pos
	var lo pyast.Expr
	if !p.isOp(":") {
		var err error
		lo, err = p.test()
		if err != nil {
			return nil, err
		}
		if !p.isOp(":") {
			return lo, nil
		}
	}
	p.next()
	node := &pyast.Slice{
		Pos: pos,
		Lo:  lo,
	}
	sliceEnd := func() bool {
		return p.isOp(":") || p.isOp("]") || p.isOp(",")
	}
	if !sliceEnd() {
		hi, err := p.test()
		if err != nil {
			return nil, err
		}
		node.Hi = hi
	}
	if p.acceptOp(":") && !sliceEnd() {
		step, err := p.test()
		if err != nil {
			return nil, err
		}
		node.Step = step
	}
	return node, nil
}

func (p *parser) compFor() ([]*pyast.Comprehension, error) {
	var generators []*pyast.Comprehension
	for p.acceptKeyword("for") {
		target, err := p.targetList()
		if err != nil {
			return nil, err
		}
		if err := p.checkTarget(target); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("in"); err != nil {
			return nil, err
		}
		iter, err := p.orTest()
		if err != nil {
			return nil, err
		}
		gen := &pyast.Comprehension{
			Target: target,
			Iter:   iter,
		}
		for p.acceptKeyword("if") {
			cond, err := p.orTest()
			if err != nil {
				return nil, err
			}
			gen.Ifs = append(gen.Ifs, cond)
		}
		generators = append(generators, gen)
	}
	return generators, nil
}

func (p *parser) atom() (pyast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {

	case TokenNumber:
		p.next()
		return &pyast.Constant{
			Pos:   tok.Pos,
			Value: tok.Number,
		}, nil

	case TokenString:
		return p.strings()

	case TokenName:
		switch tok.Value {
		case "None":
			p.next()
			return &pyast.Constant{Pos: tok.Pos}, nil
		case "True":
			p.next()
			return &pyast.Constant{Pos: tok.Pos, Value: true}, nil
		case "False":
			p.next()
			return &pyast.Constant{Pos: tok.Pos, Value: false}, nil
		}
		if IsKeyword(tok.Value) {
			return nil, p.unexpected()
		}
		p.next()
		return &pyast.Name{
			Pos: tok.Pos,
			Id:  tok.Value,
		}, nil

	case TokenOp:
		switch tok.Value {
		case "(":
			return p.parenAtom()
		case "[":
			return p.listAtom()
		case "{":
			return p.braceAtom()
		case "...":
			p.next()
			return &pyast.Ellipsis{Pos: tok.Pos}, nil
		}
	}

	return nil, p.unexpected()
}

func (p *parser) parenAtom() (pyast.Expr, error) {
	lparen := p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.acceptOp(")") {
		return &pyast.Tuple{Pos: lparen.Pos}, nil
	}
	first, err := p.testOrStar(true)
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		generators, err := p.compFor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return &pyast.GeneratorExp{
			Pos:        lparen.Pos,
			Elt:        first,
			Generators: generators,
		}, nil
	}
	if p.acceptOp(")") {
		if _, ok := first.(*pyast.Starred); ok {
			return nil, p.errorf(first.Position(), "cannot use starred expression here")
		}
		return first, nil
	}
	elts := []pyast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		e, err := p.testOrStar(true)
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return &pyast.Tuple{
		Pos:  lparen.Pos,
		Elts: elts,
	}, nil
}

func (p *parser) listAtom() (pyast.Expr, error) {
	lbracket := p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.acceptOp("]") {
		return &pyast.List{Pos: lbracket.Pos}, nil
	}
	first, err := p.testOrStar(true)
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		generators, err := p.compFor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &pyast.ListComp{
			Pos:        lbracket.Pos,
			Elt:        first,
			Generators: generators,
		}, nil
	}
	elts := []pyast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		e, err := p.testOrStar(true)
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &pyast.List{
		Pos:  lbracket.Pos,
		Elts: elts,
	}, nil
}

func (p *parser) braceAtom() (pyast.Expr, error) {
	lbrace := p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if p.acceptOp("}") {
		return &pyast.Dict{Pos: lbrace.Pos}, nil
	}
	if p.isOp("**") {
		return p.dictEntries(lbrace.Pos, nil, nil)
	}

	first, err := p.testOrStar(true)
	if err != nil {
		return nil, err
	}

	if p.acceptOp(":") {
		value, err := p.test()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("for") {
			generators, err := p.compFor()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("}"); err != nil {
				return nil, err
			}
			return &pyast.DictComp{
				Pos:        lbrace.Pos,
				Key:        first,
				Value:      value,
				Generators: generators,
			}, nil
		}
		return p.dictEntries(lbrace.Pos, []pyast.Expr{first}, []pyast.Expr{value})
	}

	if p.isKeyword("for") {
		generators, err := p.compFor()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp("}"); err != nil {
			return nil, err
		}
		return &pyast.SetComp{
			Pos:        lbrace.Pos,
			Elt:        first,
			Generators: generators,
		}, nil
	}

	elts := []pyast.Expr{first}
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		e, err := p.testOrStar(true)
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if _, err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &pyast.Set{
		Pos:  lbrace.Pos,
		Elts: elts,
	}, nil
}

func (p *parser) dictEntries(pos pyast.Pos, keys []pyast.Expr, values []pyast.Expr) (pyast.Expr, error) {
	for {
		if len(values) > 0 {
			if !p.acceptOp(",") || p.isOp("}") {
				break
			}
		}
		if p.acceptOp("**") {
			v, err := p.bitOr()
			if err != nil {
				return nil, err
			}
			keys = append(keys, nil)
			values = append(values, v)
			continue
		}
		k, err := p.test()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		v, err := p.test()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		values = append(values, v)
	}
	if _, err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return &pyast.Dict{
		Pos:    pos,
		Keys:   keys,
		Values: values,
	}, nil
}

func (p *parser) strings() (pyast.Expr, error) {
	first := p.cur()
	var parts []*Token
	for p.cur().Kind == TokenString {
		parts = append(parts, p.next())
	}

	isFormat := false
	for _, part := range parts {
		if part.Bytes != first.Bytes {
			return nil, p.errorf(part.Pos, "cannot mix bytes and nonbytes literals")
		}
		if part.Format {
			isFormat = true
		}
	}

	if !isFormat {
		var s string
		for _, part := range parts {
			s += part.Value
		}
		node := &pyast.Constant{
			Pos:   first.Pos,
			Value: s,
		}
		if first.Bytes {
			node.Value = []byte(s)
		}
		return node, nil
	}

	node := &pyast.JoinedStr{
		Pos: first.Pos,
	}
	for _, part := range parts {
		if !part.Format {
			node.Values = appendValue(node.Values, &pyast.Constant{
				Pos:   part.Pos,
				Value: part.Value,
			})
			continue
		}
		values, err := p.fstring(part)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			node.Values = appendValue(node.Values, v)
		}
	}
	return node, nil
}

// appendValue appends to f-string parts, merging adjacent string constants.
func appendValue(values []pyast.Expr, v pyast.Expr) []pyast.Expr {
	c, ok := v.(*pyast.Constant)
	if !ok {
		return append(values, v)
	}
	s, _ := c.Value.(string)
	if s == "" {
		return values
	}
	if len(values) > 0 {
		if last, ok := values[len(values)-1].(*pyast.Constant); ok {
			values[len(values)-1] = &pyast.Constant{
				Pos:   last.Pos,
				Value: last.Value.(string) + s,
			}
			return values
		}
	}
	return append(values, v)
}
