package evaluator

import (
	"strings"

	"github.com/reusee/taieval/evalerr"
	"github.com/reusee/taieval/pyast"
	"github.com/reusee/taieval/pyvalue"
)

// flow is how a statement left its block.
type flow uint8

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
	flowReturn
)

func (e *Evaluator) execBlock(stmts []pyast.Stmt) (flow, error) {
	for _, stmt := range stmts {
		f, err := e.exec(stmt)
		if err != nil || f != flowNormal {
			return f, err
		}
	}
	return flowNormal, nil
}

func (e *Evaluator) exec(stmt pyast.Stmt) (flow, error) {
	if err := e.gate(stmt); err != nil {
		return flowNormal, err
	}
	e.pos = stmt.Position()

	switch s := stmt.(type) {

	case *pyast.ExprStmt:
		_, err := e.eval(s.X)
		return flowNormal, err

	case *pyast.Assign:
		value, err := e.eval(s.Value)
		if err != nil {
			return flowNormal, err
		}
		for _, target := range s.Targets {
			if err := e.assign(target, value); err != nil {
				return flowNormal, err
			}
		}
		return flowNormal, nil

	case *pyast.AugAssign:
		return flowNormal, e.augAssign(s)

	case *pyast.If:
		test, err := e.eval(s.Test)
		if err != nil {
			return flowNormal, err
		}
		if pyvalue.Truth(test) {
			return e.execBlock(s.Body)
		}
		return e.execBlock(s.Else)

	case *pyast.For:
		return e.execFor(s)

	case *pyast.While:
		return e.execWhile(s)

	case *pyast.Try:
		return e.execTry(s)

	case *pyast.FunctionDef:
		return flowNormal, e.execFunctionDef(s)

	case *pyast.Return:
		if e.depth == 0 {
			return flowNormal, syntaxError(s, "'return' outside function")
		}
		var value any
		if s.Value != nil {
			v, err := e.eval(s.Value)
			if err != nil {
				return flowNormal, err
			}
			value = v
		}
		e.frame.retval = value
		return flowReturn, nil

	case *pyast.Break:
		if e.loops == 0 {
			return flowNormal, syntaxError(s, "'break' outside loop")
		}
		return flowBreak, nil

	case *pyast.Continue:
		if e.loops == 0 {
			return flowNormal, syntaxError(s, "'continue' not properly in loop")
		}
		return flowContinue, nil

	case *pyast.Pass:
		return flowNormal, nil

	case *pyast.Delete:
		for _, target := range s.Targets {
			if err := e.delete(target); err != nil {
				return flowNormal, err
			}
		}
		return flowNormal, nil

	case *pyast.Assert:
		test, err := e.eval(s.Test)
		if err != nil {
			return flowNormal, err
		}
		if pyvalue.Truth(test) {
			return flowNormal, nil
		}
		exc := &pyvalue.Exception{
			Class: pyvalue.ClassAssertionError,
		}
		if s.Msg != nil {
			msg, err := e.eval(s.Msg)
			if err != nil {
				return flowNormal, err
			}
			exc.Args = pyvalue.Tuple{msg}
		}
		return flowNormal, e.raised(s, exc)

	case *pyast.Raise:
		return flowNormal, e.execRaise(s)

	case *pyast.Import:
		return flowNormal, e.execImport(s)

	case *pyast.ImportFrom:
		return flowNormal, e.execImportFrom(s)

	case *pyast.With:
		return e.execWith(s, s.Items)

	case *pyast.Global:
		if e.frame != nil {
			if e.frame.globals == nil {
				e.frame.globals = make(map[string]bool)
			}
			for _, name := range s.Names {
				e.frame.globals[name] = true
			}
		}
		return flowNormal, nil

	}

	return flowNormal, evalerr.Errorf(evalerr.KindConstructDisabled, "'%s' not supported", pyast.NodeName(stmt)).At(stmt.Position())
}

func (e *Evaluator) execFor(s *pyast.For) (flow, error) {
	iterable, err := e.eval(s.Iter)
	if err != nil {
		return flowNormal, err
	}
	next, err := pyvalue.Iterate(iterable)
	if err != nil {
		return flowNormal, e.fail(s.Iter, err)
	}
	broke, f, err := e.loop(s, s.Body, func() (bool, error) {
		v, ok, err := next()
		if err != nil {
			return false, e.fail(s.Iter, err)
		}
		if !ok {
			return false, nil
		}
		return true, e.assign(s.Target, v)
	})
	if err != nil || broke || f != flowNormal {
		return f, err
	}
	return e.execBlock(s.Else)
}

func (e *Evaluator) execWhile(s *pyast.While) (flow, error) {
	broke, f, err := e.loop(s, s.Body, func() (bool, error) {
		test, err := e.eval(s.Test)
		if err != nil {
			return false, err
		}
		return pyvalue.Truth(test), nil
	})
	if err != nil || broke || f != flowNormal {
		return f, err
	}
	return e.execBlock(s.Else)
}

// loop runs body while next reports true, and reports whether it ended by
// break. break and continue in the else clause belong to the outer loop.
func (e *Evaluator) loop(n pyast.Node, body []pyast.Stmt, next func() (bool, error)) (broke bool, f flow, err error) {
	e.loops++
	defer func() {
		e.loops--
	}()
	for {
		ok, err := next()
		if err != nil || !ok {
			return false, flowNormal, err
		}
		if err := e.tick(n); err != nil {
			return false, flowNormal, err
		}
		f, err := e.execBlock(body)
		if err != nil {
			return false, flowNormal, err
		}
		switch f {
		case flowBreak:
			return true, flowNormal, nil
		case flowReturn:
			return false, f, nil
		}
	}
}

func (e *Evaluator) execTry(s *pyast.Try) (f flow, err error) {
	e.trace(s.Position(), EventException, "Executing `try` block.")
	f, err = e.execBlock(s.Body)

	if err != nil {
		ee := evalerr.From(err)
		handled := false
		for _, h := range s.Handlers {
			ok, matchErr := e.matchHandler(h, ee)
			if matchErr != nil {
				err = matchErr
				break
			}
			if !ok {
				continue
			}
			handled = true
			f, err = e.runHandler(h, ee)
			break
		}
		if !handled && err == error(ee) {
			e.trace(ee.Pos, EventException, "Unhandled exception, unrolling stack...")
		}
	} else if f == flowNormal && len(s.Else) > 0 {
		e.trace(s.Position(), EventException, "Executing `else` block.")
		f, err = e.execBlock(s.Else)
	}

	if len(s.Finally) > 0 {
		e.trace(s.Position(), EventException, "Executing `finally` block.")
		ff, ferr := e.execBlock(s.Finally)
		if ferr != nil || ff != flowNormal {
			return ff, ferr
		}
	}
	return f, err
}

func (e *Evaluator) matchHandler(h *pyast.ExceptHandler, err *evalerr.Error) (bool, error) {
	if h.Type == nil {
		return true, nil
	}
	class, evalErr := e.eval(h.Type)
	if evalErr != nil {
		return false, evalErr
	}
	var classes []any
	if t, ok := class.(pyvalue.Tuple); ok {
		classes = t
	} else {
		classes = []any{class}
	}
	for _, c := range classes {
		ec, ok := c.(*pyvalue.ExceptionClass)
		if !ok {
			return false, pyvalue.TypeErrorf("catching classes that do not inherit from BaseException is not allowed").At(h.Position())
		}
		if pyvalue.Matches(err, ec) {
			return true, nil
		}
	}
	return false, nil
}

func (e *Evaluator) runHandler(h *pyast.ExceptHandler, err *evalerr.Error) (flow, error) {
	if h.Name != "" {
		if setErr := e.setName(h.Name, pyvalue.ExceptionOf(err)); setErr != nil {
			return flowNormal, e.fail(h, setErr)
		}
	}
	e.handling = append(e.handling, err)
	defer func() {
		e.handling = e.handling[:len(e.handling)-1]
	}()
	return e.execBlock(h.Body)
}

func (e *Evaluator) raised(n pyast.Node, exc *pyvalue.Exception) error {
	err := exc.ToError().At(n.Position())
	err.Source = e.source
	if exc.Cause != nil {
		err.Cause = exc.Cause.ToError()
	}
	e.trace(n.Position(), EventException, "Exception `%s` raised: %s", err.Name, err.Msg)
	return err
}

func (e *Evaluator) execRaise(s *pyast.Raise) error {
	if s.Exc == nil {
		if len(e.handling) == 0 {
			return evalerr.Errorf(evalerr.KindRuntime, "No active exception to reraise").At(s.Position())
		}
		return e.handling[len(e.handling)-1]
	}
	v, err := e.eval(s.Exc)
	if err != nil {
		return err
	}
	exc, err := e.toException(s.Exc, v)
	if err != nil {
		return err
	}
	if s.Cause != nil {
		cv, err := e.eval(s.Cause)
		if err != nil {
			return err
		}
		if cv != nil {
			cause, err := e.toException(s.Cause, cv)
			if err != nil {
				return err
			}
			exc.Cause = cause
		}
	}
	return e.raised(s, exc)
}

func (e *Evaluator) toException(n pyast.Node, v any) (*pyvalue.Exception, error) {
	switch v := v.(type) {
	case *pyvalue.Exception:
		return v, nil
	case *pyvalue.ExceptionClass:
		return &pyvalue.Exception{
			Class: v,
		}, nil
	}
	return nil, pyvalue.TypeErrorf("exceptions must derive from BaseException").At(n.Position())
}

func (e *Evaluator) execWith(s *pyast.With, items []pyast.WithItem) (f flow, err error) {
	if len(items) == 0 {
		return e.execBlock(s.Body)
	}
	item := items[0]
	ctx, err := e.eval(item.Context)
	if err != nil {
		return flowNormal, err
	}
	cm, ok := ctx.(pyvalue.ContextManager)
	if !ok {
		return flowNormal, pyvalue.TypeErrorf("'%s' object does not support the context manager protocol", pyvalue.TypeName(ctx)).At(item.Context.Position())
	}
	v, err := cm.Enter(e)
	if err != nil {
		return flowNormal, e.fail(item.Context, err)
	}

	defer func() {
		var pending *evalerr.Error
		if err != nil {
			pending = evalerr.From(err)
		}
		handled, exitErr := cm.Exit(e, pending)
		if exitErr != nil {
			err = e.fail(item.Context, exitErr)
			return
		}
		if handled {
			err = nil
		}
	}()

	if item.Target != nil {
		if err := e.assign(item.Target, v); err != nil {
			return flowNormal, err
		}
	}
	return e.execWith(s, items[1:])
}

func (e *Evaluator) execImport(s *pyast.Import) error {
	for _, alias := range s.Names {
		mod, err := e.module(alias.Name)
		if err != nil {
			return e.fail(s, err)
		}
		name := alias.AsName
		if name == "" {
			name = alias.Name
			if strings.Contains(name, ".") {
				return evalerr.Errorf(evalerr.KindImportDenied, "cannot bind dotted module name '%s' without 'as'", name).At(s.Position())
			}
		}
		if err := e.setName(name, mod); err != nil {
			return e.fail(s, err)
		}
	}
	return nil
}

func (e *Evaluator) execImportFrom(s *pyast.ImportFrom) error {
	mod, err := e.module(s.Module)
	if err != nil {
		return e.fail(s, err)
	}
	for _, alias := range s.Names {
		if alias.Name == "*" {
			for _, name := range mod.AttrNames() {
				if strings.HasPrefix(name, "_") {
					continue
				}
				if err := e.setName(name, mod.Members[name]); err != nil {
					return e.fail(s, err)
				}
			}
			continue
		}
		v, ok := mod.Members[alias.Name]
		if !ok || pyvalue.DeniedAttr(alias.Name) {
			return evalerr.Errorf(evalerr.KindImportDenied, "cannot import name '%s' from '%s'", alias.Name, s.Module).At(s.Position())
		}
		name := alias.AsName
		if name == "" {
			name = alias.Name
		}
		if err := e.setName(name, v); err != nil {
			return e.fail(s, err)
		}
	}
	return nil
}

func (e *Evaluator) module(name string) (*Module, error) {
	mod, ok := e.modules[name]
	if !ok {
		return nil, evalerr.Errorf(evalerr.KindImportDenied, "import of module '%s' is not allowed", name)
	}
	return mod, nil
}
