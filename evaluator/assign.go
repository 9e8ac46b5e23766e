package evaluator

import (
	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

func (e *Evaluator) assign(target pyast.Expr, value any) error {
	switch t := target.(type) {

	case *pyast.Name:
		return e.fail(t, e.setName(t.Id, value))

	case *pyast.Attribute:
		if pyvalue.DeniedAttr(t.Name) {
			return e.fail(t, deniedAttr(t.Name))
		}
		obj, err := e.eval(t.X)
		if err != nil {
			return err
		}
		return e.fail(t, memberError(pyvalue.SetAttr(obj, t.Name, value), t.Name, "assign to"))

	case *pyast.Subscript:
		obj, err := e.eval(t.X)
		if err != nil {
			return err
		}
		key, err := e.evalIndex(t.Index)
		if err != nil {
			return err
		}
		return e.fail(t, memberError(pyvalue.SetItem(obj, key, value), key, "assign to"))

	case *pyast.Tuple:
		return e.unpack(t, t.Elts, value)

	case *pyast.List:
		return e.unpack(t, t.Elts, value)

	case *pyast.Starred:
		return syntaxError(t, "starred assignment target must be in a list or tuple")
	}

	return syntaxError(target, "cannot assign to %s", pyast.NodeName(target))
}

// unpack assigns the elements of value to targets, at most one of which may
// be starred.
func (e *Evaluator) unpack(n pyast.Node, targets []pyast.Expr, value any) error {
	elems, err := pyvalue.ToSlice(value)
	if err != nil {
		return e.fail(n, pyvalue.TypeErrorf("cannot unpack non-iterable %s object", pyvalue.TypeName(value)))
	}

	star := -1
	for i, t := range targets {
		if _, ok := t.(*pyast.Starred); ok {
			if star >= 0 {
				return syntaxError(t, "multiple starred expressions in assignment")
			}
			star = i
		}
	}

	if star < 0 {
		if len(elems) > len(targets) {
			return e.fail(n, pyvalue.ValueErrorf("too many values to unpack (expected %d)", len(targets)))
		}
		if len(elems) < len(targets) {
			return e.fail(n, pyvalue.ValueErrorf("not enough values to unpack (expected %d, got %d)", len(targets), len(elems)))
		}
		for i, t := range targets {
			if err := e.assign(t, elems[i]); err != nil {
				return err
			}
		}
		return nil
	}

	after := len(targets) - star - 1
	if len(elems) < star+after {
		return e.fail(n, pyvalue.ValueErrorf("not enough values to unpack (expected at least %d, got %d)", star+after, len(elems)))
	}
	for i := 0; i < star; i++ {
		if err := e.assign(targets[i], elems[i]); err != nil {
			return err
		}
	}
	rest := make([]any, len(elems)-star-after)
	copy(rest, elems[star:len(elems)-after])
	if err := e.assign(targets[star].(*pyast.Starred).X, pyvalue.NewList(rest)); err != nil {
		return err
	}
	for i := 0; i < after; i++ {
		if err := e.assign(targets[star+1+i], elems[len(elems)-after+i]); err != nil {
			return err
		}
	}
	return nil
}

// augAssign evaluates the target's container and key once.
func (e *Evaluator) augAssign(s *pyast.AugAssign) error {
	value, err := e.eval(s.Value)
	if err != nil {
		return err
	}

	switch t := s.Target.(type) {

	case *pyast.Name:
		cur, err := e.lookup(t.Id)
		if err != nil {
			return e.fail(t, err)
		}
		v, err := pyvalue.Binary(s.Op, cur, value, e.limits)
		if err != nil {
			return e.fail(s, err)
		}
		return e.fail(t, e.setName(t.Id, v))

	case *pyast.Attribute:
		if pyvalue.DeniedAttr(t.Name) {
			return e.fail(t, deniedAttr(t.Name))
		}
		obj, err := e.eval(t.X)
		if err != nil {
			return err
		}
		cur, err := pyvalue.GetAttr(obj, t.Name)
		if err != nil {
			return e.fail(t, err)
		}
		v, err := pyvalue.Binary(s.Op, cur, value, e.limits)
		if err != nil {
			return e.fail(s, err)
		}
		return e.fail(t, memberError(pyvalue.SetAttr(obj, t.Name, v), t.Name, "assign to"))

	case *pyast.Subscript:
		obj, err := e.eval(t.X)
		if err != nil {
			return err
		}
		key, err := e.evalIndex(t.Index)
		if err != nil {
			return err
		}
		cur, err := pyvalue.GetItem(obj, key)
		if err != nil {
			return e.fail(t, err)
		}
		v, err := pyvalue.Binary(s.Op, cur, value, e.limits)
		if err != nil {
			return e.fail(s, err)
		}
		return e.fail(t, memberError(pyvalue.SetItem(obj, key, v), key, "assign to"))
	}

	return syntaxError(s.Target, "'%s' is an illegal expression for augmented assignment", pyast.NodeName(s.Target))
}

func (e *Evaluator) delete(target pyast.Expr) error {
	switch t := target.(type) {

	case *pyast.Name:
		return e.fail(t, e.deleteName(t.Id))

	case *pyast.Attribute:
		if pyvalue.DeniedAttr(t.Name) {
			return e.fail(t, deniedAttr(t.Name))
		}
		obj, err := e.eval(t.X)
		if err != nil {
			return err
		}
		return e.fail(t, memberError(pyvalue.DelAttr(obj, t.Name), t.Name, "delete"))

	case *pyast.Subscript:
		obj, err := e.eval(t.X)
		if err != nil {
			return err
		}
		key, err := e.evalIndex(t.Index)
		if err != nil {
			return err
		}
		return e.fail(t, memberError(pyvalue.DelItem(obj, key), key, "delete"))

	case *pyast.Tuple:
		for _, elt := range t.Elts {
			if err := e.delete(elt); err != nil {
				return err
			}
		}
		return nil

	case *pyast.List:
		for _, elt := range t.Elts {
			if err := e.delete(elt); err != nil {
				return err
			}
		}
		return nil
	}

	return evalerr.Errorf(evalerr.KindSyntax, "cannot delete %s", pyast.NodeName(target)).At(target.Position())
}
