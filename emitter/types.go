// Copyright © 2024 The LISPC authors

package emitter

import (
	"strings"

	"github.com/luthersystems/lispc/ast"
)

// classDecl checks that a class or interface declaration is a top-level
// statement.
func classDecl(n ast.Node, what string) error {
	if !n.Env().IsContext(ast.Statement) {
		return errorf(n, "%s declarations must be top-level statements", what)
	}
	return nil
}

func qualifiedClass(ns string, name string) string {
	return `\` + MungeNamespace(ns) + `\` + Munge(name)
}

func (e *Emitter) emitDefStruct(n *ast.DefStructNode) error {
	if err := classDecl(n, "struct"); err != nil {
		return err
	}
	e.buf.Write("class " + Munge(n.Name))
	if len(n.Interfaces) > 0 {
		names := make([]string, len(n.Interfaces))
		for i, iface := range n.Interfaces {
			names[i] = qualifiedClass(iface.Ns, iface.Name)
		}
		e.buf.Write(" implements " + strings.Join(names, ", "))
	}
	e.buf.Write(" {")
	e.buf.Newline()
	e.buf.Indent()
	fields := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		fields[i] = variable(f.Str)
		e.buf.Write("public " + fields[i] + ";")
		e.buf.Newline()
	}
	e.buf.Write("public function __construct(" + strings.Join(fields, ", ") + ") {")
	e.buf.Newline()
	e.buf.Indent()
	for _, f := range fields {
		e.buf.Writef("$this->%s = %s;", f[1:], f)
		e.buf.Newline()
	}
	e.buf.Dedent()
	e.buf.Write("}")
	e.buf.Newline()
	for _, iface := range n.Interfaces {
		for _, m := range iface.Methods {
			if err := e.emitMethod(m); err != nil {
				return err
			}
		}
	}
	e.buf.Dedent()
	e.buf.Write("}")
	e.buf.Newline()
	return nil
}

// emitMethod emits a struct method.  The first parameter of the function is
// bound to the instance and fields not shadowed by parameters are bound to
// their values.
func (e *Emitter) emitMethod(m *ast.StructMethod) error {
	fn := m.Fn
	e.mark(fn)
	if len(fn.Params) == 0 {
		return errorf(fn, "method %s requires a receiver parameter", m.Name)
	}
	params := fn.Params[1:]
	e.buf.Write("public function " + Munge(m.Name) + "(" + paramList(params, fn.IsVariadic) + ") {")
	e.buf.Newline()
	e.buf.Indent()
	e.buf.Write(variable(fn.Params[0].Str) + " = $this;")
	e.buf.Newline()
	for _, u := range fn.Uses {
		v := variable(u.Str)
		e.buf.Writef("%s = $this->%s;", v, v[1:])
		e.buf.Newline()
	}
	if fn.IsVariadic && len(params) > 0 {
		rest := variable(params[len(params)-1].Str)
		e.buf.Writef("%s = %s->persistentListFromArray(%s);", rest, typeFactory, rest)
		e.buf.Newline()
	}
	if err := e.emitFnBody(fn); err != nil {
		return err
	}
	e.buf.Dedent()
	e.buf.Write("}")
	e.buf.Newline()
	return nil
}

func (e *Emitter) emitDefInterface(n *ast.DefInterfaceNode) error {
	if err := classDecl(n, "interface"); err != nil {
		return err
	}
	e.buf.Write("interface " + Munge(n.Name) + " {")
	e.buf.Newline()
	e.buf.Indent()
	for _, m := range n.Methods {
		if m.Comment != "" {
			e.buf.Write("/** " + strings.ReplaceAll(m.Comment, "*/", "* /") + " */")
			e.buf.Newline()
		}
		var args []string
		for _, arg := range m.Args[min(1, len(m.Args)):] {
			args = append(args, variable(arg.Str))
		}
		e.buf.Write("public function " + Munge(m.Name) + "(" + strings.Join(args, ", ") + ");")
		e.buf.Newline()
	}
	e.buf.Dedent()
	e.buf.Write("}")
	e.buf.Newline()
	return nil
}

func (e *Emitter) emitDefException(n *ast.DefExceptionNode) error {
	if err := classDecl(n, "exception"); err != nil {
		return err
	}
	parent := `\Exception`
	if n.Parent != nil {
		parent = MungeNamespace(n.Parent.Name)
	}
	e.buf.Write("class " + Munge(n.Name) + " extends " + parent + " {}")
	e.buf.Newline()
	return nil
}
