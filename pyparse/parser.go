package pyparse

import (
	"fmt"

	"github.com/reusee/taieval/pyast"
)

const maxNesting = 200

// Parser is the default front end.
type Parser struct{}

func (Parser) Parse(name string, source string) (*pyast.Module, error) {
	return Parse(name, source)
}

// Parse parses a whole module.
func Parse(name string, source string) (*pyast.Module, error) {
	tokens, err := Tokenize(name, source)
	if err != nil {
		return nil, err
	}
	p := &parser{
		name:   name,
		tokens: tokens,
	}
	body, err := p.module()
	if err != nil {
		return nil, err
	}
	return &pyast.Module{
		Pos:    pyast.Pos{Line: 1, Column: 1},
		Name:   name,
		Source: source,
		Body:   body,
	}, nil
}

// ParseExpr parses source as a single expression.
func ParseExpr(name string, source string) (pyast.Expr, error) {
	tokens, err := Tokenize(name, source)
	if err != nil {
		return nil, err
	}
	p := &parser{
		name:   name,
		tokens: tokens,
	}
	expr, err := p.testList(true)
	if err != nil {
		return nil, err
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	if p.cur().Kind != TokenEOF {
		return nil, p.unexpected()
	}
	return expr, nil
}

type parser struct {
	name   string
	tokens []Token
	i      int
	depth  int
}

func (p *parser) cur() *Token {
	return &p.tokens[p.i]
}

func (p *parser) peekTok(n int) *Token {
	if p.i+n < len(p.tokens) {
		return &p.tokens[p.i+n]
	}
	return &p.tokens[len(p.tokens)-1]
}

func (p *parser) next() *Token {
	tok := &p.tokens[p.i]
	if tok.Kind != TokenEOF {
		p.i++
	}
	return tok
}

func (p *parser) isOp(value string) bool {
	return p.cur().is(TokenOp, value)
}

func (p *parser) isKeyword(value string) bool {
	return p.cur().is(TokenName, value)
}

func (p *parser) acceptOp(value string) bool {
	if p.isOp(value) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(value string) bool {
	if p.isKeyword(value) {
		p.next()
		return true
	}
	return false
}

func (p *parser) errorf(pos pyast.Pos, format string, args ...any) error {
	return &Error{
		Name: p.name,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (p *parser) unexpected() error {
	tok := p.cur()
	switch tok.Kind {
	case TokenEOF:
		return p.errorf(tok.Pos, "unexpected end of input")
	case TokenIndent:
		return p.errorf(tok.Pos, "unexpected indent")
	case TokenName:
		switch tok.Value {
		case "yield", "await", "async", "class", "nonlocal":
			return p.errorf(tok.Pos, "'%s' is not supported", tok.Value)
		}
	}
	return p.errorf(tok.Pos, "invalid syntax")
}

func (p *parser) expectOp(value string) (*Token, error) {
	tok := p.cur()
	if !tok.is(TokenOp, value) {
		return nil, p.errorf(tok.Pos, "expected '%s', got %s", value, tok)
	}
	return p.next(), nil
}

func (p *parser) expectKeyword(value string) error {
	tok := p.cur()
	if !tok.is(TokenName, value) {
		return p.errorf(tok.Pos, "expected '%s', got %s", value, tok)
	}
	p.next()
	return nil
}

func (p *parser) expectName() (*Token, error) {
	tok := p.cur()
	if tok.Kind != TokenName || IsKeyword(tok.Value) {
		return nil, p.errorf(tok.Pos, "expected name, got %s", tok)
	}
	return p.next(), nil
}

func (p *parser) expectNewline() error {
	switch p.cur().Kind {
	case TokenNewline:
		p.next()
		return nil
	case TokenEOF:
		return nil
	}
	return p.unexpected()
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxNesting {
		return p.errorf(p.cur().Pos, "too many nested blocks or expressions")
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) module() ([]pyast.Stmt, error) {
	var body []pyast.Stmt
	for p.cur().Kind != TokenEOF {
		if p.cur().Kind == TokenNewline {
			p.next()
			continue
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	return body, nil
}

func one(stmt pyast.Stmt, err error) ([]pyast.Stmt, error) {
	if err != nil {
		return nil, err
	}
	return []pyast.Stmt{stmt}, nil
}

func (p *parser) statement() ([]pyast.Stmt, error) {
	tok := p.cur()
	switch tok.Kind {

	case TokenIndent:
		return nil, p.errorf(tok.Pos, "unexpected indent")

	case TokenDedent:
		return nil, p.errorf(tok.Pos, "unindent does not match any outer indentation level")

	case TokenName:
		switch tok.Value {
		case "if":
			return one(p.ifStmt())
		case "while":
			return one(p.whileStmt())
		case "for":
			return one(p.forStmt())
		case "try":
			return one(p.tryStmt())
		case "with":
			return one(p.withStmt())
		case "def":
			return one(p.funcDef(nil))
		case "class", "async":
			return nil, p.unexpected()
		}

	case TokenOp:
		if tok.Value == "@" {
			return one(p.decorated())
		}
	}

	return p.simpleStatements()
}

func (p *parser) simpleStatements() ([]pyast.Stmt, error) {
	var stmts []pyast.Stmt
	for {
		stmt, err := p.smallStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if !p.acceptOp(";") {
			break
		}
		if kind := p.cur().Kind; kind == TokenNewline || kind == TokenEOF {
			break
		}
	}
	if err := p.expectNewline(); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) block() ([]pyast.Stmt, error) {
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.cur().Kind != TokenNewline {
		return p.simpleStatements()
	}
	p.next()
	if p.cur().Kind != TokenIndent {
		return nil, p.errorf(p.cur().Pos, "expected an indented block")
	}
	p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	var body []pyast.Stmt
	for {
		kind := p.cur().Kind
		if kind == TokenDedent || kind == TokenEOF {
			break
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	p.next()
	return body, nil
}

func (p *parser) ifStmt() (pyast.Stmt, error) {
	pos := p.next().Pos // if or elif
	test, err := p.test()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &pyast.If{
		Pos:  pos,
		Test: test,
		Body: body,
	}
	if p.isKeyword("elif") {
		elif, err := p.ifStmt()
		if err != nil {
			return nil, err
		}
		node.Else = []pyast.Stmt{elif}
	} else if p.acceptKeyword("else") {
		node.Else, err = p.block()
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (p *parser) whileStmt() (pyast.Stmt, error) {
	pos := p.next().Pos
	test, err := p.test()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &pyast.While{
		Pos:  pos,
		Test: test,
		Body: body,
	}
	if p.acceptKeyword("else") {
		node.Else, err = p.block()
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (p *parser) forStmt() (pyast.Stmt, error) {
	pos := p.next().Pos
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
	iter, err := p.testList(true)
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &pyast.For{
		Pos:    pos,
		Target: target,
		Iter:   iter,
		Body:   body,
	}
	if p.acceptKeyword("else") {
		node.Else, err = p.block()
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (p *parser) tryStmt() (pyast.Stmt, error) {
	pos := p.next().Pos
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &pyast.Try{
		Pos:  pos,
		Body: body,
	}
	bare := false
	for p.isKeyword("except") {
		handler := &pyast.ExceptHandler{
			Pos: p.next().Pos,
		}
		if bare {
			return nil, p.errorf(handler.Pos, "default 'except:' must be last")
		}
		if p.isOp(":") {
			bare = true
		} else {
			handler.Type, err = p.test()
			if err != nil {
				return nil, err
			}
			if p.acceptKeyword("as") {
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				handler.Name = name.Value
			}
		}
		handler.Body, err = p.block()
		if err != nil {
			return nil, err
		}
		node.Handlers = append(node.Handlers, handler)
	}
	if len(node.Handlers) > 0 && p.acceptKeyword("else") {
		node.Else, err = p.block()
		if err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("finally") {
		node.Finally, err = p.block()
		if err != nil {
			return nil, err
		}
		if node.Finally == nil {
			node.Finally = []pyast.Stmt{}
		}
	}
	if len(node.Handlers) == 0 && node.Finally == nil {
		return nil, p.errorf(p.cur().Pos, "expected 'except' or 'finally' block")
	}
	return node, nil
}

func (p *parser) withStmt() (pyast.Stmt, error) {
	pos := p.next().Pos
	node := &pyast.With{
		Pos: pos,
	}
	for {
		ctx, err := p.test()
		if err != nil {
			return nil, err
		}
		item := pyast.WithItem{
			Context: ctx,
		}
		if p.acceptKeyword("as") {
			item.Target, err = p.starOrBitOr()
			if err != nil {
				return nil, err
			}
			if err := p.checkTarget(item.Target); err != nil {
				return nil, err
			}
		}
		node.Items = append(node.Items, item)
		if !p.acceptOp(",") {
			break
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	node.Body = body
	return node, nil
}

func (p *parser) decorated() (pyast.Stmt, error) {
	var decorators []pyast.Expr
	for p.isOp("@") {
		p.next()
		d, err := p.test()
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, d)
		if err := p.expectNewline(); err != nil {
			return nil, err
		}
	}
	if !p.isKeyword("def") {
		if p.isKeyword("class") {
			return nil, p.unexpected()
		}
		return nil, p.errorf(p.cur().Pos, "expected 'def' after decorator")
	}
	return p.funcDef(decorators)
}

func (p *parser) funcDef(decorators []pyast.Expr) (pyast.Stmt, error) {
	pos := p.next().Pos
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	params, err := p.params(")", true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	if p.acceptOp("->") {
		if _, err := p.test(); err != nil {
			return nil, err
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	node := &pyast.FunctionDef{
		Pos:        pos,
		Name:       name.Value,
		Params:     params,
		Body:       body,
		Decorators: decorators,
	}
	if len(body) > 0 {
		if stmt, ok := body[0].(*pyast.ExprStmt); ok {
			if c, ok := stmt.X.(*pyast.Constant); ok {
				if doc, ok := c.Value.(string); ok {
					node.Doc = doc
				}
			}
		}
	}
	return node, nil
}

// params parses a parameter list up to the closing token, which is left
// unconsumed.
func (p *parser) params(closing string, annotations bool) (*pyast.Params, error) {
	params := new(pyast.Params)
	seen := make(map[string]bool)
	addName := func(tok *Token) error {
		if seen[tok.Value] {
			return p.errorf(tok.Pos, "duplicate argument '%s' in function definition", tok.Value)
		}
		seen[tok.Value] = true
		return nil
	}
	annotation := func() error {
		if annotations && p.acceptOp(":") {
			_, err := p.test()
			return err
		}
		return nil
	}
	star := false
	seenDefault := false

	for !p.isOp(closing) {
		if params.Kwarg != "" {
			return nil, p.errorf(p.cur().Pos, "arguments cannot follow var-keyword argument")
		}
		switch {

		case p.isOp("/"):
			p.next()

		case p.isOp("*"):
			tok := p.next()
			if star {
				return nil, p.errorf(tok.Pos, "* argument may appear only once")
			}
			star = true
			if cur := p.cur(); cur.Kind == TokenName && !IsKeyword(cur.Value) {
				name := p.next()
				if err := addName(name); err != nil {
					return nil, err
				}
				params.Vararg = name.Value
				if err := annotation(); err != nil {
					return nil, err
				}
			} else if !p.isOp(",") {
				return nil, p.errorf(p.cur().Pos, "named arguments must follow bare *")
			}

		case p.isOp("**"):
			p.next()
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			if err := addName(name); err != nil {
				return nil, err
			}
			params.Kwarg = name.Value
			if err := annotation(); err != nil {
				return nil, err
			}

		default:
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			if err := addName(name); err != nil {
				return nil, err
			}
			param := &pyast.Param{
				Pos:  name.Pos,
				Name: name.Value,
			}
			if err := annotation(); err != nil {
				return nil, err
			}
			if p.acceptOp("=") {
				param.Default, err = p.test()
				if err != nil {
					return nil, err
				}
			}
			if star {
				params.KwOnly = append(params.KwOnly, param)
			} else {
				if param.Default != nil {
					seenDefault = true
				} else if seenDefault {
					return nil, p.errorf(name.Pos, "non-default argument follows default argument")
				}
				params.Args = append(params.Args, param)
			}
		}

		if !p.acceptOp(",") {
			break
		}
	}

	if star && params.Vararg == "" && len(params.KwOnly) == 0 {
		return nil, p.errorf(p.cur().Pos, "named arguments must follow bare *")
	}
	return params, nil
}

var augOps = map[string]pyast.Op{
	"+=":  pyast.Add,
	"-=":  pyast.Sub,
	"*=":  pyast.Mult,
	"@=":  pyast.MatMult,
	"/=":  pyast.Div,
	"//=": pyast.FloorDiv,
	"%=":  pyast.Mod,
	"**=": pyast.Pow,
	"<<=": pyast.LShift,
	">>=": pyast.RShift,
	"&=":  pyast.BitAnd,
	"|=":  pyast.BitOr,
	"^=":  pyast.BitXor,
}

func (p *parser) smallStatement() (pyast.Stmt, error) {
	tok := p.cur()
	if tok.Kind == TokenName {
		switch tok.Value {

		case "pass":
			p.next()
			return &pyast.Pass{Pos: tok.Pos}, nil

		case "break":
			p.next()
			return &pyast.Break{Pos: tok.Pos}, nil

		case "continue":
			p.next()
			return &pyast.Continue{Pos: tok.Pos}, nil

		case "return":
			p.next()
			node := &pyast.Return{Pos: tok.Pos}
			if p.startsExpr() {
				value, err := p.testList(true)
				if err != nil {
					return nil, err
				}
				node.Value = value
			}
			return node, nil

		case "raise":
			p.next()
			node := &pyast.Raise{Pos: tok.Pos}
			if p.startsExpr() {
				exc, err := p.test()
				if err != nil {
					return nil, err
				}
				node.Exc = exc
				if p.acceptKeyword("from") {
					node.Cause, err = p.test()
					if err != nil {
						return nil, err
					}
				}
			}
			return node, nil

		case "global":
			p.next()
			node := &pyast.Global{Pos: tok.Pos}
			for {
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				node.Names = append(node.Names, name.Value)
				if !p.acceptOp(",") {
					break
				}
			}
			return node, nil

		case "del":
			p.next()
			node := &pyast.Delete{Pos: tok.Pos}
			for {
				target, err := p.bitOr()
				if err != nil {
					return nil, err
				}
				if err := p.checkTarget(target); err != nil {
					return nil, err
				}
				node.Targets = append(node.Targets, target)
				if !p.acceptOp(",") || !p.startsExpr() {
					break
				}
			}
			return node, nil

		case "assert":
			p.next()
			test, err := p.test()
			if err != nil {
				return nil, err
			}
			node := &pyast.Assert{
				Pos:  tok.Pos,
				Test: test,
			}
			if p.acceptOp(",") {
				node.Msg, err = p.test()
				if err != nil {
					return nil, err
				}
			}
			return node, nil

		case "import":
			p.next()
			node := &pyast.Import{Pos: tok.Pos}
			for {
				name, err := p.dottedName()
				if err != nil {
					return nil, err
				}
				alias := pyast.Alias{Name: name}
				if p.acceptKeyword("as") {
					as, err := p.expectName()
					if err != nil {
						return nil, err
					}
					alias.AsName = as.Value
				}
				node.Names = append(node.Names, alias)
				if !p.acceptOp(",") {
					break
				}
			}
			return node, nil

		case "from":
			return p.importFrom()

		case "nonlocal", "yield":
			return nil, p.unexpected()
		}
	}

	return p.exprStatement()
}

func (p *parser) dottedName() (string, error) {
	name, err := p.expectName()
	if err != nil {
		return "", err
	}
	ret := name.Value
	for p.acceptOp(".") {
		part, err := p.expectName()
		if err != nil {
			return "", err
		}
		ret += "." + part.Value
	}
	return ret, nil
}

func (p *parser) importFrom() (pyast.Stmt, error) {
	pos := p.next().Pos
	module := ""
	for p.isOp(".") || p.isOp("...") {
		module += p.next().Value
	}
	if !p.isKeyword("import") {
		name, err := p.dottedName()
		if err != nil {
			return nil, err
		}
		module += name
	}
	if err := p.expectKeyword("import"); err != nil {
		return nil, err
	}
	node := &pyast.ImportFrom{
		Pos:    pos,
		Module: module,
	}
	if p.acceptOp("*") {
		node.Names = []pyast.Alias{{Name: "*"}}
		return node, nil
	}
	paren := p.acceptOp("(")
	for {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		alias := pyast.Alias{Name: name.Value}
		if p.acceptKeyword("as") {
			as, err := p.expectName()
			if err != nil {
				return nil, err
			}
			alias.AsName = as.Value
		}
		node.Names = append(node.Names, alias)
		if !p.acceptOp(",") {
			break
		}
		if paren && p.isOp(")") {
			break
		}
	}
	if paren {
		if _, err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func (p *parser) exprStatement() (pyast.Stmt, error) {
	pos := p.cur().Pos
	first, err := p.testList(true)
	if err != nil {
		return nil, err
	}

	if p.isOp("=") {
		exprs := []pyast.Expr{first}
		for p.acceptOp("=") {
			value, err := p.testList(true)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, value)
		}
		targets := exprs[:len(exprs)-1]
		for _, target := range targets {
			if err := p.checkTarget(target); err != nil {
				return nil, err
			}
		}
		return &pyast.Assign{
			Pos:     pos,
			Targets: targets,
			Value:   exprs[len(exprs)-1],
		}, nil
	}

	if tok := p.cur(); tok.Kind == TokenOp {
		if op, ok := augOps[tok.Value]; ok {
			p.next()
			switch first.(type) {
			case *pyast.Name, *pyast.Attribute, *pyast.Subscript:
			default:
				return nil, p.errorf(pos, "'%s' is an illegal expression for augmented assignment", describe(first))
			}
			value, err := p.testList(false)
			if err != nil {
				return nil, err
			}
			return &pyast.AugAssign{
				Pos:    pos,
				Target: first,
				Op:     op,
				Value:  value,
			}, nil
		}
	}

	if p.acceptOp(":") {
		// annotated assignment; the annotation is parsed and dropped
		switch first.(type) {
		case *pyast.Name, *pyast.Attribute, *pyast.Subscript:
		default:
			return nil, p.errorf(pos, "only single target can be annotated")
		}
		if _, err := p.test(); err != nil {
			return nil, err
		}
		if !p.acceptOp("=") {
			return &pyast.Pass{Pos: pos}, nil
		}
		value, err := p.testList(true)
		if err != nil {
			return nil, err
		}
		return &pyast.Assign{
			Pos:     pos,
			Targets: []pyast.Expr{first},
			Value:   value,
		}, nil
	}

	return &pyast.ExprStmt{
		Pos: pos,
		X:   first,
	}, nil
}

func describe(e pyast.Expr) string {
	switch e := e.(type) {
	case *pyast.Constant:
		return "literal"
	case *pyast.Call:
		return "function call"
	case *pyast.Tuple:
		return "tuple"
	case *pyast.List:
		return "list"
	case *pyast.Starred:
		return "starred"
	case *pyast.Lambda:
		return "lambda"
	case *pyast.Compare:
		return "comparison"
	case *pyast.BinOp, *pyast.UnaryOp, *pyast.BoolOp:
		return "expression"
	default:
		return pyast.NodeName(e)
	}
}

func (p *parser) checkTarget(e pyast.Expr) error {
	switch e := e.(type) {
	case *pyast.Name, *pyast.Attribute, *pyast.Subscript:
		return nil
	case *pyast.Starred:
		return p.checkTarget(e.X)
	case *pyast.Tuple:
		return p.checkTargets(e.Elts)
	case *pyast.List:
		return p.checkTargets(e.Elts)
	}
	return p.errorf(e.Position(), "cannot assign to %s", describe(e))
}

func (p *parser) checkTargets(elts []pyast.Expr) error {
	starred := 0
	for _, elt := range elts {
		if s, ok := elt.(*pyast.Starred); ok {
			starred++
			if starred > 1 {
				return p.errorf(s.Pos, "multiple starred expressions in assignment")
			}
		}
		if err := p.checkTarget(elt); err != nil {
			return err
		}
	}
	return nil
}
