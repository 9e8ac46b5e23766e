package starparse

import (
	"fmt"

	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyparse"
	"go.starlark.net/syntax"
)

type lowerer struct {
	name string
}

func (l *lowerer) errorf(n syntax.Node, format string, args ...any) error {
	return &pyparse.Error{
		Name: l.name,
		Pos:  start(n),
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (l *lowerer) stmts(stmts []syntax.Stmt) ([]pyast.Stmt, error) {
	ret := make([]pyast.Stmt, 0, len(stmts))
	for _, stmt := range stmts {
		s, err := l.stmt(stmt)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func (l *lowerer) stmt(stmt syntax.Stmt) (pyast.Stmt, error) {
	p := start(stmt)
	switch s := stmt.(type) {

	case *syntax.ExprStmt:
		x, err := l.expr(s.X)
		if err != nil {
			return nil, err
		}
		return &pyast.ExprStmt{
			Pos: p,
			X:   x,
		}, nil

	case *syntax.AssignStmt:
		return l.assign(s)

	case *syntax.DefStmt:
		params, err := l.params(s.Params)
		if err != nil {
			return nil, err
		}
		body, err := l.stmts(s.Body)
		if err != nil {
			return nil, err
		}
		def := &pyast.FunctionDef{
			Pos:    p,
			Name:   s.Name.Name,
			Params: params,
			Body:   body,
		}
		if len(body) > 0 {
			if es, ok := body[0].(*pyast.ExprStmt); ok {
				if c, ok := es.X.(*pyast.Constant); ok {
					if doc, ok := c.Value.(string); ok {
						def.Doc = doc
					}
				}
			}
		}
		return def, nil

	case *syntax.ReturnStmt:
		ret := &pyast.Return{
			Pos: p,
		}
		if s.Result != nil {
			v, err := l.expr(s.Result)
			if err != nil {
				return nil, err
			}
			ret.Value = v
		}
		return ret, nil

	case *syntax.IfStmt:
		test, err := l.expr(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := l.stmts(s.True)
		if err != nil {
			return nil, err
		}
		var orElse []pyast.Stmt
		if len(s.False) > 0 {
			orElse, err = l.stmts(s.False)
			if err != nil {
				return nil, err
			}
		}
		return &pyast.If{
			Pos:  p,
			Test: test,
			Body: body,
			Else: orElse,
		}, nil

	case *syntax.WhileStmt:
		test, err := l.expr(s.Cond)
		if err != nil {
			return nil, err
		}
		body, err := l.stmts(s.Body)
		if err != nil {
			return nil, err
		}
		return &pyast.While{
			Pos:  p,
			Test: test,
			Body: body,
		}, nil

	case *syntax.ForStmt:
		target, err := l.target(s.Vars)
		if err != nil {
			return nil, err
		}
		iter, err := l.expr(s.X)
		if err != nil {
			return nil, err
		}
		body, err := l.stmts(s.Body)
		if err != nil {
			return nil, err
		}
		return &pyast.For{
			Pos:    p,
			Target: target,
			Iter:   iter,
			Body:   body,
		}, nil

	case *syntax.BranchStmt:
		switch s.Token {
		case syntax.PASS:
			return &pyast.Pass{Pos: p}, nil
		case syntax.BREAK:
			return &pyast.Break{Pos: p}, nil
		case syntax.CONTINUE:
			return &pyast.Continue{Pos: p}, nil
		}
		return nil, l.errorf(s, "unexpected %s", s.Token)

	case *syntax.LoadStmt:
		// load("m", "x", y="z") binds like from m import x, z as y
		imp := &pyast.ImportFrom{
			Pos:    p,
			Module: s.ModuleName(),
		}
		for i, from := range s.From {
			alias := pyast.Alias{
				Name: from.Name,
			}
			if to := s.To[i].Name; to != from.Name {
				alias.AsName = to
			}
			imp.Names = append(imp.Names, alias)
		}
		return imp, nil

	}
	return nil, l.errorf(stmt, "unsupported statement %T", stmt)
}

var augOps = map[syntax.Token]pyast.Op{
	syntax.PLUS_EQ:       pyast.Add,
	syntax.MINUS_EQ:      pyast.Sub,
	syntax.STAR_EQ:       pyast.Mult,
	syntax.SLASH_EQ:      pyast.Div,
	syntax.SLASHSLASH_EQ: pyast.FloorDiv,
	syntax.PERCENT_EQ:    pyast.Mod,
	syntax.AMP_EQ:        pyast.BitAnd,
	syntax.PIPE_EQ:       pyast.BitOr,
	syntax.CIRCUMFLEX_EQ: pyast.BitXor,
	syntax.LTLT_EQ:       pyast.LShift,
	syntax.GTGT_EQ:       pyast.RShift,
}

func (l *lowerer) assign(s *syntax.AssignStmt) (pyast.Stmt, error) {
	target, err := l.target(s.LHS)
	if err != nil {
		return nil, err
	}
	value, err := l.expr(s.RHS)
	if err != nil {
		return nil, err
	}
	if s.Op == syntax.EQ {
		return &pyast.Assign{
			Pos:     start(s),
			Targets: []pyast.Expr{target},
			Value:   value,
		}, nil
	}
	op, ok := augOps[s.Op]
	if !ok {
		return nil, l.errorf(s, "unsupported assignment operator %s", s.Op)
	}
	return &pyast.AugAssign{
		Pos:    start(s),
		Target: target,
		Op:     op,
		Value:  value,
	}, nil
}

// target lowers an assignment or loop target.
func (l *lowerer) target(expr syntax.Expr) (pyast.Expr, error) {
	switch e := expr.(type) {
	case *syntax.ParenExpr:
		return l.target(e.X)
	case *syntax.Ident, *syntax.DotExpr, *syntax.IndexExpr, *syntax.SliceExpr:
		return l.expr(e)
	case *syntax.TupleExpr:
		elts, err := l.targets(e.List)
		if err != nil {
			return nil, err
		}
		return &pyast.Tuple{
			Pos:  start(e),
			Elts: elts,
		}, nil
	case *syntax.ListExpr:
		elts, err := l.targets(e.List)
		if err != nil {
			return nil, err
		}
		return &pyast.List{
			Pos:  start(e),
			Elts: elts,
		}, nil
	}
	return nil, l.errorf(expr, "cannot assign to %T", expr)
}

func (l *lowerer) targets(exprs []syntax.Expr) ([]pyast.Expr, error) {
	ret := make([]pyast.Expr, 0, len(exprs))
	for _, expr := range exprs {
		t, err := l.target(expr)
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	return ret, nil
}

func (l *lowerer) exprs(exprs []syntax.Expr) ([]pyast.Expr, error) {
	ret := make([]pyast.Expr, 0, len(exprs))
	for _, expr := range exprs {
		e, err := l.expr(expr)
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

// optional lowers a possibly absent expression.
func (l *lowerer) optional(expr syntax.Expr) (pyast.Expr, error) {
	if expr == nil {
		return nil, nil
	}
	return l.expr(expr)
}

var binaryOps = map[syntax.Token]pyast.Op{
	syntax.PLUS:       pyast.Add,
	syntax.MINUS:      pyast.Sub,
	syntax.STAR:       pyast.Mult,
	syntax.SLASH:      pyast.Div,
	syntax.SLASHSLASH: pyast.FloorDiv,
	syntax.PERCENT:    pyast.Mod,
	syntax.STARSTAR:   pyast.Pow,
	syntax.AMP:        pyast.BitAnd,
	syntax.PIPE:       pyast.BitOr,
	syntax.CIRCUMFLEX: pyast.BitXor,
	syntax.LTLT:       pyast.LShift,
	syntax.GTGT:       pyast.RShift,
}

var compareOps = map[syntax.Token]pyast.CmpOp{
	syntax.EQL:    pyast.Eq,
	syntax.NEQ:    pyast.NotEq,
	syntax.LT:     pyast.Lt,
	syntax.LE:     pyast.LtE,
	syntax.GT:     pyast.Gt,
	syntax.GE:     pyast.GtE,
	syntax.IN:     pyast.In,
	syntax.NOT_IN: pyast.NotIn,
}

var unaryOps = map[syntax.Token]pyast.Op{
	syntax.PLUS:  pyast.UAdd,
	syntax.MINUS: pyast.USub,
	syntax.NOT:   pyast.Not,
	syntax.TILDE: pyast.Invert,
}

func (l *lowerer) expr(expr syntax.Expr) (pyast.Expr, error) {
	p := start(expr)
	switch e := expr.(type) {

	case *syntax.Ident:
		switch e.Name {
		case "None":
			return &pyast.Constant{Pos: p, Value: nil}, nil
		case "True":
			return &pyast.Constant{Pos: p, Value: true}, nil
		case "False":
			return &pyast.Constant{Pos: p, Value: false}, nil
		}
		return &pyast.Name{
			Pos: p,
			Id:  e.Name,
		}, nil

	case *syntax.Literal:
		switch e.Token {
		case syntax.STRING, syntax.INT, syntax.FLOAT:
			return &pyast.Constant{
				Pos:   p,
				Value: e.Value,
			}, nil
		case syntax.BYTES:
			s, _ := e.Value.(string)
			return &pyast.Constant{
				Pos:   p,
				Value: []byte(s),
			}, nil
		}
		return nil, l.errorf(e, "unsupported literal %s", e.Raw)

	case *syntax.ParenExpr:
		return l.expr(e.X)

	case *syntax.UnaryExpr:
		op, ok := unaryOps[e.Op]
		if !ok || e.X == nil {
			return nil, l.errorf(e, "unexpected %s", e.Op)
		}
		x, err := l.expr(e.X)
		if err != nil {
			return nil, err
		}
		return &pyast.UnaryOp{
			Pos: p,
			Op:  op,
			X:   x,
		}, nil

	case *syntax.BinaryExpr:
		return l.binary(e)

	case *syntax.CallExpr:
		return l.call(e)

	case *syntax.DotExpr:
		x, err := l.expr(e.X)
		if err != nil {
			return nil, err
		}
		return &pyast.Attribute{
			Pos:  p,
			X:    x,
			Name: e.Name.Name,
		}, nil

	case *syntax.IndexExpr:
		x, err := l.expr(e.X)
		if err != nil {
			return nil, err
		}
		index, err := l.expr(e.Y)
		if err != nil {
			return nil, err
		}
		return &pyast.Subscript{
			Pos:   p,
			X:     x,
			Index: index,
		}, nil

	case *syntax.SliceExpr:
		x, err := l.expr(e.X)
		if err != nil {
			return nil, err
		}
		slice := &pyast.Slice{
			Pos: pos(e.Lbrack),
		}
		if slice.Lo, err = l.optional(e.Lo); err != nil {
			return nil, err
		}
		if slice.Hi, err = l.optional(e.Hi); err != nil {
			return nil, err
		}
		if slice.Step, err = l.optional(e.Step); err != nil {
			return nil, err
		}
		return &pyast.Subscript{
			Pos:   p,
			X:     x,
			Index: slice,
		}, nil

	case *syntax.ListExpr:
		elts, err := l.exprs(e.List)
		if err != nil {
			return nil, err
		}
		return &pyast.List{
			Pos:  p,
			Elts: elts,
		}, nil

	case *syntax.TupleExpr:
		elts, err := l.exprs(e.List)
		if err != nil {
			return nil, err
		}
		return &pyast.Tuple{
			Pos:  p,
			Elts: elts,
		}, nil

	case *syntax.DictExpr:
		dict := &pyast.Dict{
			Pos: p,
		}
		for _, item := range e.List {
			entry, ok := item.(*syntax.DictEntry)
			if !ok {
				return nil, l.errorf(item, "expected dict entry")
			}
			k, err := l.expr(entry.Key)
			if err != nil {
				return nil, err
			}
			v, err := l.expr(entry.Value)
			if err != nil {
				return nil, err
			}
			dict.Keys = append(dict.Keys, k)
			dict.Values = append(dict.Values, v)
		}
		return dict, nil

	case *syntax.CondExpr:
		test, err := l.expr(e.Cond)
		if err != nil {
			return nil, err
		}
		body, err := l.expr(e.True)
		if err != nil {
			return nil, err
		}
		orElse, err := l.expr(e.False)
		if err != nil {
			return nil, err
		}
		return &pyast.IfExp{
			Pos:  p,
			Test: test,
			Body: body,
			Else: orElse,
		}, nil

	case *syntax.LambdaExpr:
		params, err := l.params(e.Params)
		if err != nil {
			return nil, err
		}
		body, err := l.expr(e.Body)
		if err != nil {
			return nil, err
		}
		return &pyast.Lambda{
			Pos:    p,
			Params: params,
			Body:   body,
		}, nil

	case *syntax.Comprehension:
		return l.comprehension(e)

	}
	return nil, l.errorf(expr, "unsupported expression %T", expr)
}

func (l *lowerer) binary(e *syntax.BinaryExpr) (pyast.Expr, error) {
	p := start(e)
	if e.Op == syntax.EQ {
		return nil, l.errorf(e, "unexpected =")
	}
	x, err := l.expr(e.X)
	if err != nil {
		return nil, err
	}
	y, err := l.expr(e.Y)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case syntax.AND:
		return &pyast.BoolOp{
			Pos:    p,
			Op:     pyast.And,
			Values: []pyast.Expr{x, y},
		}, nil
	case syntax.OR:
		return &pyast.BoolOp{
			Pos:    p,
			Op:     pyast.Or,
			Values: []pyast.Expr{x, y},
		}, nil
	}
	if op, ok := compareOps[e.Op]; ok {
		return &pyast.Compare{
			Pos:         p,
			Left:        x,
			Ops:         []pyast.CmpOp{op},
			Comparators: []pyast.Expr{y},
		}, nil
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		return nil, l.errorf(e, "unsupported operator %s", e.Op)
	}
	return &pyast.BinOp{
		Pos: p,
		X:   x,
		Op:  op,
		Y:   y,
	}, nil
}

func (l *lowerer) call(e *syntax.CallExpr) (pyast.Expr, error) {
	fn, err := l.expr(e.Fn)
	if err != nil {
		return nil, err
	}
	call := &pyast.Call{
		Pos:  start(e),
		Func: fn,
	}
	for _, arg := range e.Args {
		switch a := arg.(type) {

		case *syntax.BinaryExpr:
			if a.Op == syntax.EQ {
				name, ok := a.X.(*syntax.Ident)
				if !ok {
					return nil, l.errorf(a, "keyword must be an identifier")
				}
				v, err := l.expr(a.Y)
				if err != nil {
					return nil, err
				}
				call.Keywords = append(call.Keywords, &pyast.Keyword{
					Pos:   start(a),
					Name:  name.Name,
					Value: v,
				})
				continue
			}

		case *syntax.UnaryExpr:
			switch a.Op {
			case syntax.STAR:
				v, err := l.expr(a.X)
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, &pyast.Starred{
					Pos: start(a),
					X:   v,
				})
				continue
			case syntax.STARSTAR:
				v, err := l.expr(a.X)
				if err != nil {
					return nil, err
				}
				call.Keywords = append(call.Keywords, &pyast.Keyword{
					Pos:   start(a),
					Value: v,
				})
				continue
			}

		}
		v, err := l.expr(arg)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, v)
	}
	return call, nil
}

// params lowers def and lambda parameters. Names after * or *args are
// keyword-only.
func (l *lowerer) params(exprs []syntax.Expr) (*pyast.Params, error) {
	params := new(pyast.Params)
	kwOnly := false
	add := func(param *pyast.Param) {
		if kwOnly {
			params.KwOnly = append(params.KwOnly, param)
		} else {
			params.Args = append(params.Args, param)
		}
	}
	for _, expr := range exprs {
		switch e := expr.(type) {

		case *syntax.Ident:
			add(&pyast.Param{
				Pos:  start(e),
				Name: e.Name,
			})

		case *syntax.BinaryExpr:
			name, ok := e.X.(*syntax.Ident)
			if e.Op != syntax.EQ || !ok {
				return nil, l.errorf(e, "invalid parameter")
			}
			def, err := l.expr(e.Y)
			if err != nil {
				return nil, err
			}
			add(&pyast.Param{
				Pos:     start(e),
				Name:    name.Name,
				Default: def,
			})

		case *syntax.UnaryExpr:
			switch e.Op {
			case syntax.STAR:
				kwOnly = true
				if e.X != nil {
					name, ok := e.X.(*syntax.Ident)
					if !ok {
						return nil, l.errorf(e, "invalid parameter")
					}
					params.Vararg = name.Name
				}
			case syntax.STARSTAR:
				name, ok := e.X.(*syntax.Ident)
				if !ok {
					return nil, l.errorf(e, "invalid parameter")
				}
				params.Kwarg = name.Name
			default:
				return nil, l.errorf(e, "invalid parameter")
			}

		default:
			return nil, l.errorf(expr, "invalid parameter")
		}
	}
	return params, nil
}

func (l *lowerer) comprehension(e *syntax.Comprehension) (pyast.Expr, error) {
	var generators []*pyast.Comprehension
	for _, clause := range e.Clauses {
		switch c := clause.(type) {
		case *syntax.ForClause:
			target, err := l.target(c.Vars)
			if err != nil {
				return nil, err
			}
			iter, err := l.expr(c.X)
			if err != nil {
				return nil, err
			}
			generators = append(generators, &pyast.Comprehension{
				Target: target,
				Iter:   iter,
			})
		case *syntax.IfClause:
			if len(generators) == 0 {
				return nil, l.errorf(c, "comprehension must start with for")
			}
			cond, err := l.expr(c.Cond)
			if err != nil {
				return nil, err
			}
			last := generators[len(generators)-1]
			last.Ifs = append(last.Ifs, cond)
		default:
			return nil, l.errorf(clause, "unsupported comprehension clause %T", clause)
		}
	}

	p := start(e)
	if e.Curly {
		entry, ok := e.Body.(*syntax.DictEntry)
		if !ok {
			return nil, l.errorf(e.Body, "expected dict entry")
		}
		k, err := l.expr(entry.Key)
		if err != nil {
			return nil, err
		}
		v, err := l.expr(entry.Value)
		if err != nil {
			return nil, err
		}
		return &pyast.DictComp{
			Pos:        p,
			Key:        k,
			Value:      v,
			Generators: generators,
		}, nil
	}
	elt, err := l.expr(e.Body)
	if err != nil {
		return nil, err
	}
	return &pyast.ListComp{
		Pos:        p,
		Elt:        elt,
		Generators: generators,
	}, nil
}
