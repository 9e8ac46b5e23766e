package pyast

// Walk visits n and its descendants in depth-first order. If fn returns
// false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range Children(n) {
		Walk(child, fn)
	}
}

// Children returns the direct child nodes of n in source order.
func Children(n Node) []Node {
	var ret []Node
	add := func(nodes ...Node) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			ret = append(ret, node)
		}
	}
	addStmts := func(stmts []Stmt) {
		for _, s := range stmts {
			add(s)
		}
	}
	addExprs := func(exprs []Expr) {
		for _, e := range exprs {
			add(e)
		}
	}
	addParams := func(params *Params) {
		if params == nil {
			return
		}
		for _, p := range params.Args {
			add(p.Default)
		}
		for _, p := range params.KwOnly {
			add(p.Default)
		}
	}
	addGenerators := func(gens []*Comprehension) {
		for _, g := range gens {
			add(g.Iter, g.Target)
			addExprs(g.Ifs)
		}
	}

	switch n := n.(type) {
	case *Module:
		addStmts(n.Body)
	case *ExprStmt:
		add(n.X)
	case *Assign:
		addExprs(n.Targets)
		add(n.Value)
	case *AugAssign:
		add(n.Target, n.Value)
	case *If:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Else)
	case *For:
		add(n.Target, n.Iter)
		addStmts(n.Body)
		addStmts(n.Else)
	case *While:
		add(n.Test)
		addStmts(n.Body)
		addStmts(n.Else)
	case *Try:
		addStmts(n.Body)
		for _, h := range n.Handlers {
			add(h.Type)
			addStmts(h.Body)
		}
		addStmts(n.Else)
		addStmts(n.Finally)
	case *FunctionDef:
		addExprs(n.Decorators)
		addParams(n.Params)
		addStmts(n.Body)
	case *Return:
		add(n.Value)
	case *Delete:
		addExprs(n.Targets)
	case *Assert:
		add(n.Test, n.Msg)
	case *Raise:
		add(n.Exc, n.Cause)
	case *With:
		for _, item := range n.Items {
			add(item.Context, item.Target)
		}
		addStmts(n.Body)
	case *BinOp:
		add(n.X, n.Y)
	case *UnaryOp:
		add(n.X)
	case *BoolOp:
		addExprs(n.Values)
	case *Compare:
		add(n.Left)
		addExprs(n.Comparators)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
		for _, kw := range n.Keywords {
			add(kw.Value)
		}
	case *Attribute:
		add(n.X)
	case *Subscript:
		add(n.X, n.Index)
	case *Slice:
		add(n.Lo, n.Hi, n.Step)
	case *Starred:
		add(n.X)
	case *List:
		addExprs(n.Elts)
	case *Tuple:
		addExprs(n.Elts)
	case *Set:
		addExprs(n.Elts)
	case *Dict:
		for i := range n.Values {
			add(n.Keys[i], n.Values[i])
		}
	case *IfExp:
		add(n.Test, n.Body, n.Else)
	case *Lambda:
		addParams(n.Params)
		add(n.Body)
	case *ListComp:
		addGenerators(n.Generators)
		add(n.Elt)
	case *SetComp:
		addGenerators(n.Generators)
		add(n.Elt)
	case *GeneratorExp:
		addGenerators(n.Generators)
		add(n.Elt)
	case *DictComp:
		addGenerators(n.Generators)
		add(n.Key, n.Value)
	case *JoinedStr:
		addExprs(n.Values)
	case *FormattedValue:
		add(n.Value, n.Spec)
	}
	return ret
}

// Names returns the names read by n, in order of first use. Names that are
// only assigned to are not included.
func Names(n Node) []string {
	var names []string
	seen := make(map[string]bool)
	stores := make(map[*Name]bool)
	markStore := func(target Expr) {
		var mark func(Expr)
		mark = func(e Expr) {
			switch e := e.(type) {
			case *Name:
				stores[e] = true
			case *Tuple:
				for _, elt := range e.Elts {
					mark(elt)
				}
			case *List:
				for _, elt := range e.Elts {
					mark(elt)
				}
			case *Starred:
				mark(e.X)
			}
		}
		mark(target)
	}
	Walk(n, func(node Node) bool {
		switch node := node.(type) {
		case *Assign:
			for _, target := range node.Targets {
				markStore(target)
			}
		case *For:
			markStore(node.Target)
		case *Delete:
			for _, target := range node.Targets {
				markStore(target)
			}
		case *With:
			for _, item := range node.Items {
				if item.Target != nil {
					markStore(item.Target)
				}
			}
		case *ListComp:
			for _, g := range node.Generators {
				markStore(g.Target)
			}
		case *SetComp:
			for _, g := range node.Generators {
				markStore(g.Target)
			}
		case *DictComp:
			for _, g := range node.Generators {
				markStore(g.Target)
			}
		case *GeneratorExp:
			for _, g := range node.Generators {
				markStore(g.Target)
			}
		case *Name:
			if !stores[node] && !seen[node.Id] {
				seen[node.Id] = true
				names = append(names, node.Id)
			}
		}
		return true
	})
	return names
}
