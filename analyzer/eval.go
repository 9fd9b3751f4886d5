// Copyright © 2024 The LISPC authors

package analyzer

import (
	"errors"
	"fmt"

	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
)

// nativeFn implements a core function at compile time.
type nativeFn func(ev *evaluator, args []*lisp.LVal) (*lisp.LVal, error)

// evaluator interprets analyzed macro definitions so that user macros can be
// expanded during analysis.  Only the pure subset of the language is
// supported: host interop is limited to arithmetic and comparison operators.
type evaluator struct {
	reg     *Registry
	globals map[*Definition]*lisp.LVal
}

func newEvaluator(reg *Registry) *evaluator {
	return &evaluator{
		reg:     reg,
		globals: make(map[*Definition]*lisp.LVal),
	}
}

type scope struct {
	vars   map[string]*lisp.LVal
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]*lisp.LVal), parent: parent}
}

func (s *scope) lookup(name string) (*lisp.LVal, bool) {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

type closure struct {
	fn    *ast.FnNode
	scope *scope
}

// recurSignal carries the arguments of a recur to the enclosing loop or
// function.
type recurSignal struct {
	args []*lisp.LVal
}

func (*recurSignal) Error() string {
	return "recur used outside of a recursion point"
}

// userMacro returns an expander that applies the macro function fn to the
// unevaluated arguments of a macro call.
func (a *Analyzer) userMacro(fn *ast.FnNode) Expander {
	return func(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
		f := lisp.Fun("macro", &closure{fn: fn, scope: newScope(nil)})
		out, err := a.eval.call(f, form.Cells[1:])
		if err != nil {
			if _, ok := err.(*Error); ok {
				return nil, err
			}
			return nil, errorf(form, "error expanding macro %s: %v", form.Cells[0].FullName(), err)
		}
		return out, nil
	}
}

func (ev *evaluator) eval(n ast.Node, s *scope) (*lisp.LVal, error) {
	switch n := n.(type) {
	case *ast.LiteralNode:
		return n.Value, nil
	case *ast.QuoteNode:
		return n.Value, nil
	case *ast.VectorNode:
		vals, err := ev.evalArgs(n.Args, s)
		if err != nil {
			return nil, err
		}
		return lisp.Vector(vals...), nil
	case *ast.MapNode:
		vals, err := ev.evalArgs(n.Args, s)
		if err != nil {
			return nil, err
		}
		return lisp.Map(vals...), nil
	case *ast.TableNode:
		vals, err := ev.evalArgs(n.Args, s)
		if err != nil {
			return nil, err
		}
		return lisp.Table(vals...), nil
	case *ast.LocalVarNode:
		v, ok := s.lookup(n.Name.Str)
		if !ok {
			return nil, fmt.Errorf("unbound local %s", n.Name.Str)
		}
		return v, nil
	case *ast.GlobalVarNode:
		return ev.global(n)
	case *ast.PhpVarNode:
		fn, ok := hostOperators[n.Name]
		if !ok {
			return nil, fmt.Errorf("php/%s is not available during macro expansion", n.Name)
		}
		return lisp.Fun("php/"+n.Name, fn), nil
	case *ast.CallNode:
		fn, err := ev.eval(n.Fn, s)
		if err != nil {
			return nil, err
		}
		args, err := ev.evalArgs(n.Args, s)
		if err != nil {
			return nil, err
		}
		return ev.call(fn, args)
	case *ast.ApplyNode:
		fn, err := ev.eval(n.Fn, s)
		if err != nil {
			return nil, err
		}
		args, err := ev.evalArgs(n.Args, s)
		if err != nil {
			return nil, err
		}
		last := args[len(args)-1]
		spread, err := seqCells(last)
		if err != nil {
			return nil, err
		}
		return ev.call(fn, append(args[:len(args)-1:len(args)-1], spread...))
	case *ast.FnNode:
		return lisp.Fun("fn", &closure{fn: n, scope: s}), nil
	case *ast.LetNode:
		return ev.evalLet(n, s)
	case *ast.DoNode:
		for _, stmt := range n.Stmts {
			if _, err := ev.eval(stmt, s); err != nil {
				return nil, err
			}
		}
		return ev.eval(n.Ret, s)
	case *ast.IfNode:
		test, err := ev.eval(n.Test, s)
		if err != nil {
			return nil, err
		}
		if test.IsTruthy() {
			return ev.eval(n.Then, s)
		}
		return ev.eval(n.Else, s)
	case *ast.RecurNode:
		args, err := ev.evalArgs(n.Args, s)
		if err != nil {
			return nil, err
		}
		return nil, &recurSignal{args: args}
	case *ast.ThrowNode:
		v, err := ev.eval(n.Exception, s)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("exception thrown: %v", v)
	}
	return nil, fmt.Errorf("%T cannot be evaluated during macro expansion", n)
}

func (ev *evaluator) evalArgs(nodes []ast.Node, s *scope) ([]*lisp.LVal, error) {
	vals := make([]*lisp.LVal, len(nodes))
	for i, n := range nodes {
		v, err := ev.eval(n, s)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (ev *evaluator) evalLet(n *ast.LetNode, s *scope) (*lisp.LVal, error) {
	local := newScope(s)
	for _, b := range n.Bindings {
		v, err := ev.eval(b.Init, local)
		if err != nil {
			return nil, err
		}
		local.vars[b.Shadow.Str] = v
	}
	for {
		v, err := ev.eval(n.Body, local)
		var sig *recurSignal
		if n.IsLoop && errors.As(err, &sig) {
			for i, b := range n.Bindings {
				local.vars[b.Shadow.Str] = sig.args[i]
			}
			continue
		}
		return v, err
	}
}

func (ev *evaluator) global(n *ast.GlobalVarNode) (*lisp.LVal, error) {
	def, ok := ev.reg.Definition(n.Ns, n.Name)
	if !ok {
		return nil, fmt.Errorf("%s/%s is not defined", n.Ns, n.Name)
	}
	if def.native != nil {
		return lisp.Fun(n.Name, def.native), nil
	}
	if v, ok := ev.globals[def]; ok {
		return v, nil
	}
	if def.Value == nil {
		return nil, fmt.Errorf("%s/%s has no value during macro expansion", n.Ns, n.Name)
	}
	v, err := ev.eval(def.Value, newScope(nil))
	if err != nil {
		return nil, err
	}
	ev.globals[def] = v
	return v, nil
}

func (ev *evaluator) call(fn *lisp.LVal, args []*lisp.LVal) (*lisp.LVal, error) {
	switch impl := fn.Native.(type) {
	case nativeFn:
		return impl(ev, args)
	case *closure:
		return ev.apply(impl, args)
	}
	if fn.Type == lisp.LKeyword {
		if len(args) == 0 {
			return nil, fmt.Errorf("keyword %v called without arguments", fn)
		}
		return coreGet(ev, append([]*lisp.LVal{args[0], fn}, args[1:]...))
	}
	return nil, fmt.Errorf("%v is not a function", fn)
}

func (ev *evaluator) apply(c *closure, args []*lisp.LVal) (*lisp.LVal, error) {
	params := c.fn.Params
	required := len(params)
	if c.fn.IsVariadic {
		required--
	}
	if len(args) < required || (!c.fn.IsVariadic && len(args) > required) {
		return nil, fmt.Errorf("wrong number of arguments: expected %d, got %d", required, len(args))
	}
	local := newScope(c.scope)
	for i := 0; i < required; i++ {
		local.vars[params[i].Str] = args[i]
	}
	if c.fn.IsVariadic {
		rest := lisp.Nil()
		if len(args) > required {
			rest = lisp.List(append([]*lisp.LVal(nil), args[required:]...)...)
		}
		local.vars[params[required].Str] = rest
	}
	for {
		v, err := ev.eval(c.fn.Body, local)
		var sig *recurSignal
		if errors.As(err, &sig) {
			for i, p := range params {
				local.vars[p.Str] = sig.args[i]
			}
			continue
		}
		return v, err
	}
}
