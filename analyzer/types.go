// Copyright © 2024 The LISPC authors

package analyzer

import (
	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
)

func analyzeDefInterface(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if !isTopLevel(env) {
		return nil, errorf(form, "'definterface* can only be used at the top level")
	}
	if len(form.Cells) < 2 || form.Cells[1].Type != lisp.LSymbol || form.Cells[1].Ns != "" {
		return nil, errorf(form, "First argument of 'definterface* must be an unqualified symbol")
	}
	node := &ast.DefInterfaceNode{
		Base: ast.NewBase(env, form),
		Ns:   a.reg.current,
		Name: form.Cells[1].Str,
	}
	for _, m := range form.Cells[2:] {
		if m.Type != lisp.LList || len(m.Cells) < 2 || m.Cells[0].Type != lisp.LSymbol || m.Cells[1].Type != lisp.LVector {
			return nil, errorf(m, "interface methods must have the form (name [this args...] docstring?)")
		}
		args := m.Cells[1].Cells
		if len(args) == 0 {
			return nil, errorf(m, "interface method %s requires at least one argument", m.Cells[0].Str)
		}
		for _, arg := range args {
			if arg.Type != lisp.LSymbol || arg.IsSymbol("&") {
				return nil, errorf(arg, "interface method arguments must be symbols")
			}
		}
		method := &ast.InterfaceMethod{Name: m.Cells[0].Str, Args: args}
		if len(m.Cells) > 2 && m.Cells[2].Type == lisp.LString {
			method.Comment = m.Cells[2].Str
		}
		node.Methods = append(node.Methods, method)
	}
	a.reg.AddInterface(node.Ns, node)
	return node, nil
}

func analyzeDefStruct(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if !isTopLevel(env) {
		return nil, errorf(form, "'defstruct* can only be used at the top level")
	}
	if len(form.Cells) < 3 || form.Cells[1].Type != lisp.LSymbol || form.Cells[1].Ns != "" {
		return nil, errorf(form, "'defstruct* requires a name and a vector of fields")
	}
	if form.Cells[2].Type != lisp.LVector {
		return nil, errorf(form.Cells[2], "Second argument of 'defstruct* must be a vector of fields")
	}
	fields := form.Cells[2].Cells
	for _, f := range fields {
		if f.Type != lisp.LSymbol || f.Ns != "" {
			return nil, errorf(f, "struct fields must be unqualified symbols")
		}
	}
	node := &ast.DefStructNode{
		Base:   ast.NewBase(env, form),
		Ns:     a.reg.current,
		Name:   form.Cells[1].Str,
		Fields: fields,
	}
	a.reg.AddClass(node.Ns, node.Name, node)

	methodEnv := env.WithLocals(nil).WithMergedLocals(fields...)
	var iface *ast.StructInterface
	var decl *ast.DefInterfaceNode
	for _, x := range form.Cells[3:] {
		switch {
		case x.Type == lisp.LSymbol:
			ns := a.reg.current
			if x.Ns != "" {
				ns = a.reg.resolveNamespace(ns, x.Ns)
			}
			var ok bool
			decl, ok = a.reg.Interface(ns, x.Str)
			if !ok {
				return nil, errorf(x, "Interface '%s' is not defined", x.FullName())
			}
			iface = &ast.StructInterface{Ns: ns, Name: x.Str}
			node.Interfaces = append(node.Interfaces, iface)
		case x.Type == lisp.LList && iface != nil:
			method, err := a.analyzeStructMethod(x, decl, methodEnv)
			if err != nil {
				return nil, err
			}
			iface.Methods = append(iface.Methods, method)
		default:
			return nil, errorf(x, "expected an interface name or a method implementation")
		}
	}
	for _, si := range node.Interfaces {
		decl, _ := a.reg.Interface(si.Ns, si.Name)
		if len(si.Methods) != len(decl.Methods) {
			return nil, errorf(form, "struct %s must implement every method of interface %s", node.Name, si.Name)
		}
	}
	return node, nil
}

func (a *Analyzer) analyzeStructMethod(x *lisp.LVal, decl *ast.DefInterfaceNode, env *ast.NodeEnvironment) (*ast.StructMethod, error) {
	if len(x.Cells) < 2 || x.Cells[0].Type != lisp.LSymbol || x.Cells[1].Type != lisp.LVector {
		return nil, errorf(x, "method implementations must have the form (name [this args...] body...)")
	}
	name := x.Cells[0].Str
	var sig *ast.InterfaceMethod
	for _, m := range decl.Methods {
		if m.Name == name {
			sig = m
		}
	}
	if sig == nil {
		return nil, errorf(x.Cells[0], "method %s is not declared by interface %s", name, decl.Name)
	}
	if len(x.Cells[1].Cells) != len(sig.Args) {
		return nil, errorf(x, "The number of parameters of method '%s' does not match the interface", name)
	}
	fnForm := lisp.List(append([]*lisp.LVal{lisp.Symbol("fn")}, x.Cells[1:]...)...).At(x.Source, x.End)
	node, err := analyzeFn(a, fnForm, env)
	if err != nil {
		return nil, err
	}
	return &ast.StructMethod{Name: name, Fn: node.(*ast.FnNode)}, nil
}

func analyzeDefException(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if !isTopLevel(env) {
		return nil, errorf(form, "'defexception* can only be used at the top level")
	}
	if len(form.Cells) < 2 || len(form.Cells) > 3 || form.Cells[1].Type != lisp.LSymbol || form.Cells[1].Ns != "" {
		return nil, errorf(form, "'defexception* requires a name and an optional parent class")
	}
	parent := &ast.PhpClassNameNode{Base: ast.NewBase(env, nil), Name: `\Exception`}
	if len(form.Cells) == 3 {
		var err error
		parent, err = a.resolveClassName(form.Cells[2], env)
		if err != nil {
			return nil, err
		}
	}
	node := &ast.DefExceptionNode{
		Base:   ast.NewBase(env, form),
		Ns:     a.reg.current,
		Name:   form.Cells[1].Str,
		Parent: parent,
	}
	a.reg.AddClass(node.Ns, node.Name, node)
	return node, nil
}
