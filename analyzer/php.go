// Copyright © 2024 The LISPC authors

package analyzer

import (
	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
)

// analyzeClassOrExpr analyzes x as a class name if it is a symbol and as an
// expression otherwise.
func (a *Analyzer) analyzeClassOrExpr(x *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if x.Type == lisp.LSymbol && !(x.Ns == "" && env.HasLocal(x.Str)) {
		return a.resolveClassName(x, env)
	}
	return a.Analyze(x, expressionEnv(env))
}

func analyzePhpNew(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) < 2 {
		return nil, errorf(form, "At least one argument is required for 'php/new")
	}
	class, err := a.analyzeClassOrExpr(form.Cells[1], env)
	if err != nil {
		return nil, err
	}
	args, err := a.analyzeArgs(form.Cells[2:], env)
	if err != nil {
		return nil, err
	}
	return &ast.PhpNewNode{Base: ast.NewBase(env, form), Class: class, Args: args}, nil
}

func analyzePhpObjectCall(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) < 3 {
		return nil, errorf(form, "'php/-> requires an object and at least one method call or property")
	}
	target, err := a.Analyze(form.Cells[1], expressionEnv(env))
	if err != nil {
		return nil, err
	}
	return a.analyzeMemberChain(form, target, form.Cells[2:], env, false)
}

func analyzePhpStaticCall(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 3 {
		return nil, errorf(form, "'php/:: requires a class and a method call or constant")
	}
	class, err := a.analyzeClassOrExpr(form.Cells[1], env)
	if err != nil {
		return nil, err
	}
	return a.analyzeMemberChain(form, class, form.Cells[2:], env, true)
}

// analyzeMemberChain applies each member access to the result of the
// previous one, starting with target.
func (a *Analyzer) analyzeMemberChain(form *lisp.LVal, target ast.Node, members []*lisp.LVal, env *ast.NodeEnvironment, static bool) (ast.Node, error) {
	for i, m := range members {
		base := ast.NewBase(env, form)
		if i < len(members)-1 {
			base = ast.NewBase(expressionEnv(env), form)
		}
		call := &ast.PhpObjectCallNode{Base: base, Target: target, IsStatic: static}
		switch {
		case m.Type == lisp.LSymbol && m.Ns == "":
			call.Name = m.Str
			call.IsProperty = true
		case m.Type == lisp.LList && len(m.Cells) > 0 && m.Cells[0].Type == lisp.LSymbol && m.Cells[0].Ns == "":
			call.Name = m.Cells[0].Str
			args, err := a.analyzeArgs(m.Cells[1:], env)
			if err != nil {
				return nil, err
			}
			call.Args = args
		default:
			return nil, errorf(m, "expected a method call or a property name: %v", m)
		}
		target = call
		static = false
	}
	return target, nil
}

func analyzePhpArrayGet(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 3 {
		return nil, errorf(form, "'php/aget requires exactly two arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	return &ast.PhpArrayGetNode{Base: ast.NewBase(env, form), Array: args[0], Index: args[1]}, nil
}

func analyzePhpArraySet(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 4 {
		return nil, errorf(form, "'php/aset requires exactly three arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	return &ast.PhpArraySetNode{Base: ast.NewBase(env, form), Array: args[0], Index: args[1], Value: args[2]}, nil
}

func analyzePhpArrayPush(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 3 {
		return nil, errorf(form, "'php/apush requires exactly two arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	return &ast.PhpArrayPushNode{Base: ast.NewBase(env, form), Array: args[0], Value: args[1]}, nil
}

func analyzePhpArrayUnset(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 3 {
		return nil, errorf(form, "'php/aunset requires exactly two arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	return &ast.PhpArrayUnsetNode{Base: ast.NewBase(env, form), Array: args[0], Index: args[1]}, nil
}

func analyzePhpObjectSet(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 3 {
		return nil, errorf(form, "'php/oset requires exactly two arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	target, ok := args[0].(*ast.PhpObjectCallNode)
	if !ok || !target.IsProperty {
		return nil, errorf(form.Cells[1], "First argument of 'php/oset must be a property access")
	}
	return &ast.PhpObjectSetNode{Base: ast.NewBase(env, form), Target: target, Value: args[1]}, nil
}
