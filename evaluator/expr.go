package evaluator

import (
	"math/big"
	"strings"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

func (e *Evaluator) eval(expr pyast.Expr) (any, error) {
	if err := e.gate(expr); err != nil {
		return nil, err
	}
	v, err := e.evalNode(expr)
	if err != nil {
		return nil, e.fail(expr, err)
	}
	return v, nil
}

func (e *Evaluator) evalNode(expr pyast.Expr) (any, error) {
	switch x := expr.(type) {

	case *pyast.Constant:
		switch v := x.Value.(type) {
		case []byte:
			return pyvalue.Bytes(v), nil
		case *big.Int:
			return pyvalue.NormalizeInt(v), nil
		}
		return x.Value, nil

	case *pyast.Ellipsis:
		return pyvalue.Ellipsis, nil

	case *pyast.Name:
		return e.lookup(x.Id)

	case *pyast.BinOp:
		l, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		r, err := e.eval(x.Y)
		if err != nil {
			return nil, err
		}
		return pyvalue.Binary(x.Op, l, r, e.limits)

	case *pyast.UnaryOp:
		v, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		return pyvalue.Unary(x.Op, v)

	case *pyast.BoolOp:
		var v any
		for _, operand := range x.Values {
			var err error
			v, err = e.eval(operand)
			if err != nil {
				return nil, err
			}
			truth := pyvalue.Truth(v)
			if x.Op == pyast.And && !truth || x.Op == pyast.Or && truth {
				return v, nil
			}
		}
		return v, nil

	case *pyast.Compare:
		left, err := e.eval(x.Left)
		if err != nil {
			return nil, err
		}
		for i, op := range x.Ops {
			right, err := e.eval(x.Comparators[i])
			if err != nil {
				return nil, err
			}
			ok, err := pyvalue.Compare(op, left, right)
			if err != nil {
				return nil, e.fail(x.Comparators[i], err)
			}
			if !ok {
				return false, nil
			}
			left = right
		}
		return true, nil

	case *pyast.Call:
		return e.evalCall(x)

	case *pyast.Attribute:
		if pyvalue.DeniedAttr(x.Name) {
			return nil, deniedAttr(x.Name)
		}
		obj, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		return pyvalue.GetAttr(obj, x.Name)

	case *pyast.Subscript:
		obj, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		key, err := e.evalIndex(x.Index)
		if err != nil {
			return nil, err
		}
		return pyvalue.GetItem(obj, key)

	case *pyast.Slice:
		return e.evalSlice(x)

	case *pyast.Starred:
		return nil, evalerr.Errorf(evalerr.KindSyntax, "can't use starred expression here")

	case *pyast.List:
		elems, err := e.evalElems(x.Elts)
		if err != nil {
			return nil, err
		}
		return pyvalue.NewList(elems), nil

	case *pyast.Tuple:
		elems, err := e.evalElems(x.Elts)
		if err != nil {
			return nil, err
		}
		return pyvalue.Tuple(elems), nil

	case *pyast.Set:
		elems, err := e.evalElems(x.Elts)
		if err != nil {
			return nil, err
		}
		return pyvalue.SetOf(elems...)

	case *pyast.Dict:
		d := pyvalue.NewDict()
		for i, k := range x.Keys {
			v, err := e.eval(x.Values[i])
			if err != nil {
				return nil, err
			}
			if k == nil {
				if err := pyvalue.DictUpdate(d, v); err != nil {
					return nil, e.fail(x.Values[i], err)
				}
				continue
			}
			key, err := e.eval(k)
			if err != nil {
				return nil, err
			}
			if err := d.Set(key, v); err != nil {
				return nil, e.fail(k, err)
			}
		}
		return d, nil

	case *pyast.IfExp:
		test, err := e.eval(x.Test)
		if err != nil {
			return nil, err
		}
		if pyvalue.Truth(test) {
			return e.eval(x.Body)
		}
		return e.eval(x.Else)

	case *pyast.Lambda:
		fn, err := e.newFunction("<lambda>", x.Params, x.Position())
		if err != nil {
			return nil, err
		}
		fn.expr = x.Body
		return fn, nil

	case *pyast.ListComp:
		var elems []any
		err := e.comprehend(x.Generators, func() error {
			v, err := e.eval(x.Elt)
			if err != nil {
				return err
			}
			elems = append(elems, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return pyvalue.NewList(elems), nil

	case *pyast.SetComp:
		set := pyvalue.NewSet()
		err := e.comprehend(x.Generators, func() error {
			v, err := e.eval(x.Elt)
			if err != nil {
				return err
			}
			return e.fail(x.Elt, set.Add(v))
		})
		if err != nil {
			return nil, err
		}
		return set, nil

	case *pyast.DictComp:
		d := pyvalue.NewDict()
		err := e.comprehend(x.Generators, func() error {
			k, err := e.eval(x.Key)
			if err != nil {
				return err
			}
			v, err := e.eval(x.Value)
			if err != nil {
				return err
			}
			return e.fail(x.Key, d.Set(k, v))
		})
		if err != nil {
			return nil, err
		}
		return d, nil

	case *pyast.GeneratorExp:
		var elems []any
		err := e.comprehend(x.Generators, func() error {
			v, err := e.eval(x.Elt)
			if err != nil {
				return err
			}
			elems = append(elems, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		i := 0
		return pyvalue.NewIterator("generator", func() (any, bool, error) {
			if i >= len(elems) {
				return nil, false, nil
			}
			i++
			return elems[i-1], true, nil
		}), nil

	case *pyast.JoinedStr:
		var sb strings.Builder
		for _, part := range x.Values {
			v, err := e.eval(part)
			if err != nil {
				return nil, err
			}
			s, ok := v.(string)
			if !ok {
				s = pyvalue.Str(v)
			}
			sb.WriteString(s)
			if err := e.limits.CheckLength(sb.Len()); err != nil {
				return nil, err
			}
		}
		return sb.String(), nil

	case *pyast.FormattedValue:
		v, err := e.eval(x.Value)
		if err != nil {
			return nil, err
		}
		switch x.Conversion {
		case 's':
			v = pyvalue.Str(v)
		case 'r':
			v = pyvalue.Repr(v)
		case 'a':
			v = pyvalue.ASCII(v)
		}
		spec := ""
		if x.Spec != nil {
			sv, err := e.eval(x.Spec)
			if err != nil {
				return nil, err
			}
			spec = pyvalue.Str(sv)
		}
		s, err := pyvalue.Format(v, spec)
		if err != nil {
			return nil, err
		}
		if err := e.limits.CheckLength(len(s)); err != nil {
			return nil, err
		}
		return s, nil

	}

	return nil, evalerr.Errorf(evalerr.KindConstructDisabled, "'%s' not supported", pyast.NodeName(expr))
}

func deniedAttr(name string) *evalerr.Error {
	return evalerr.Errorf(evalerr.KindAttributeDenied, "no safe attribute '%s'", name)
}

// evalElems evaluates display elements, expanding starred ones.
func (e *Evaluator) evalElems(elts []pyast.Expr) ([]any, error) {
	ret := make([]any, 0, len(elts))
	for _, elt := range elts {
		if s, ok := elt.(*pyast.Starred); ok {
			v, err := e.eval(s.X)
			if err != nil {
				return nil, err
			}
			elems, err := pyvalue.ToSlice(v)
			if err != nil {
				return nil, e.fail(s, err)
			}
			ret = append(ret, elems...)
		} else {
			v, err := e.eval(elt)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
	}
	return ret, nil
}

func (e *Evaluator) evalIndex(index pyast.Expr) (any, error) {
	switch x := index.(type) {
	case *pyast.Slice:
		return e.evalSlice(x)
	case *pyast.Tuple:
		ret := make(pyvalue.Tuple, 0, len(x.Elts))
		for _, elt := range x.Elts {
			v, err := e.evalIndex(elt)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil
	}
	return e.eval(index)
}

func (e *Evaluator) evalSlice(x *pyast.Slice) (any, error) {
	var bounds [3]any
	for i, b := range []pyast.Expr{x.Lo, x.Hi, x.Step} {
		if b == nil {
			continue
		}
		v, err := e.eval(b)
		if err != nil {
			return nil, err
		}
		bounds[i] = v
	}
	return &pyvalue.Slice{
		Start: bounds[0],
		Stop:  bounds[1],
		Step:  bounds[2],
	}, nil
}

func (e *Evaluator) evalCall(x *pyast.Call) (any, error) {
	fn, err := e.eval(x.Func)
	if err != nil {
		return nil, err
	}
	args, err := e.evalElems(x.Args)
	if err != nil {
		return nil, err
	}
	var kwargs []pyvalue.Kwarg
	for _, kw := range x.Keywords {
		v, err := e.eval(kw.Value)
		if err != nil {
			return nil, err
		}
		if kw.Name != "" {
			kwargs = append(kwargs, pyvalue.Kwarg{
				Name:  kw.Name,
				Value: v,
			})
			continue
		}
		d, ok := v.(*pyvalue.Dict)
		if !ok {
			return nil, pyvalue.TypeErrorf("argument after ** must be a mapping, not %s", pyvalue.TypeName(v)).At(kw.Position())
		}
		for _, item := range d.Items() {
			name, ok := item[0].(string)
			if !ok {
				return nil, pyvalue.TypeErrorf("keywords must be strings").At(kw.Position())
			}
			kwargs = append(kwargs, pyvalue.Kwarg{
				Name:  name,
				Value: item[1],
			})
		}
	}
	return e.Call(fn, args, kwargs)
}

// comprehend runs yield once per combination of the generators, in a
// frame of its own so targets do not leak.
func (e *Evaluator) comprehend(gens []*pyast.Comprehension, yield func() error) error {
	saved := e.frame
	e.frame = newFrame("<comprehension>", saved)
	defer func() {
		e.frame = saved
	}()
	return e.generate(gens, yield)
}

func (e *Evaluator) generate(gens []*pyast.Comprehension, yield func() error) error {
	if len(gens) == 0 {
		return yield()
	}
	gen := gens[0]
	iterable, err := e.eval(gen.Iter)
	if err != nil {
		return err
	}
	next, err := pyvalue.Iterate(iterable)
	if err != nil {
		return e.fail(gen.Iter, err)
	}
outer:
	for {
		v, ok, err := next()
		if err != nil {
			return e.fail(gen.Iter, err)
		}
		if !ok {
			return nil
		}
		if err := e.tick(gen.Iter); err != nil {
			return err
		}
		if err := e.assign(gen.Target, v); err != nil {
			return err
		}
		for _, cond := range gen.Ifs {
			c, err := e.eval(cond)
			if err != nil {
				return err
			}
			if !pyvalue.Truth(c) {
				continue outer
			}
		}
		if err := e.generate(gens[1:], yield); err != nil {
			return err
		}
	}
}
