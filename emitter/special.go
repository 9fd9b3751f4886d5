// Copyright © 2024 The LISPC authors

package emitter

import (
	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
)

func (e *Emitter) emitLet(n *ast.LetNode) error {
	return e.emitBlock(n.Env(), func() error {
		for _, b := range n.Bindings {
			e.mark(b)
			e.buf.Write(variable(b.Shadow.Str) + " = ")
			if err := e.emit(b.Init); err != nil {
				return err
			}
			e.buf.Write(";")
			e.buf.Newline()
		}
		if n.IsLoop && n.Recurs {
			return e.emitLoop(n.Body)
		}
		return e.emit(n.Body)
	})
}

// emitLoop emits body in a loop that recur restarts with continue.
func (e *Emitter) emitLoop(body ast.Node) error {
	e.buf.Write("while (true) {")
	e.buf.Newline()
	e.buf.Indent()
	if err := e.emit(body); err != nil {
		return err
	}
	e.buf.Write("break;")
	e.buf.Newline()
	e.buf.Dedent()
	e.buf.Write("}")
	e.buf.Newline()
	return nil
}

func (e *Emitter) emitDo(n *ast.DoNode) error {
	return e.emitBlock(n.Env(), func() error {
		for _, stmt := range n.Stmts {
			if err := e.emit(stmt); err != nil {
				return err
			}
		}
		return e.emit(n.Ret)
	})
}

func (e *Emitter) emitTest(test ast.Node) error {
	e.buf.Write(truthy + "(")
	if err := e.emit(test); err != nil {
		return err
	}
	e.buf.Write(")")
	return nil
}

func isNilLiteral(n ast.Node) bool {
	lit, ok := n.(*ast.LiteralNode)
	return ok && lit.Value.IsNil()
}

func (e *Emitter) emitIf(n *ast.IfNode) error {
	if n.Env().IsContext(ast.Expression) {
		e.buf.Write("(")
		if err := e.emitTest(n.Test); err != nil {
			return err
		}
		e.buf.Write(" ? ")
		if err := e.emit(n.Then); err != nil {
			return err
		}
		e.buf.Write(" : ")
		if err := e.emit(n.Else); err != nil {
			return err
		}
		e.buf.Write(")")
		return nil
	}
	e.buf.Write("if (")
	if err := e.emitTest(n.Test); err != nil {
		return err
	}
	e.buf.Write(") {")
	if err := e.emitIndented(n.Then); err != nil {
		return err
	}
	e.buf.Write("}")
	if !(n.Env().IsContext(ast.Statement) && isNilLiteral(n.Else)) {
		e.buf.Write(" else {")
		if err := e.emitIndented(n.Else); err != nil {
			return err
		}
		e.buf.Write("}")
	}
	e.buf.Newline()
	return nil
}

// emitIndented emits the statements of a block on their own indented lines.
func (e *Emitter) emitIndented(n ast.Node) error {
	e.buf.Newline()
	e.buf.Indent()
	defer e.buf.Dedent()
	return e.emit(n)
}

func (e *Emitter) emitDef(n *ast.DefNode) error {
	return e.emitStatement(n.Env(), func() error {
		e.buf.Writef("%s->addDefinition(%s, %s, ", registry, phpString(n.Ns), phpString(n.Name))
		if err := e.emit(n.Init); err != nil {
			return err
		}
		if n.Meta != nil && n.Meta.Map.Len() > 0 {
			e.buf.Write(", ")
			if err := e.literals.EmitLiteral(e.buf, n.Meta); err != nil {
				return err
			}
		}
		e.buf.Write(");")
		e.buf.Newline()
		return nil
	})
}

func (e *Emitter) emitNs(n *ast.NsNode) error {
	if !n.Env().IsContext(ast.Statement) {
		return errorf(n, "namespace declarations must be top-level statements")
	}
	e.buf.Write("namespace " + MungeNamespace(n.Ns) + ";")
	e.buf.Newline()
	for _, req := range n.Requires {
		e.buf.Writef("%s->loadNs(%s);", runtime, phpString(req))
		e.buf.Newline()
	}
	return nil
}

func (e *Emitter) emitTry(n *ast.TryNode) error {
	return e.emitBlock(n.Env(), func() error {
		e.buf.Write("try {")
		if err := e.emitIndented(n.Body); err != nil {
			return err
		}
		e.buf.Write("}")
		for _, c := range n.Catches {
			e.mark(c)
			e.buf.Writef(" catch (%s %s) {", MungeNamespace(c.Type.Name), variable(c.Name.Str))
			if err := e.emitIndented(c.Body); err != nil {
				return err
			}
			e.buf.Write("}")
		}
		if n.Finally != nil {
			e.buf.Write(" finally {")
			if err := e.emitIndented(n.Finally); err != nil {
				return err
			}
			e.buf.Write("}")
		}
		e.buf.Newline()
		return nil
	})
}

func (e *Emitter) emitThrow(n *ast.ThrowNode) error {
	if n.Env().IsContext(ast.Expression) {
		e.buf.Write("(throw ")
		if err := e.emit(n.Exception); err != nil {
			return err
		}
		e.buf.Write(")")
		return nil
	}
	e.buf.Write("throw ")
	if err := e.emit(n.Exception); err != nil {
		return err
	}
	e.buf.Write(";")
	e.buf.Newline()
	return nil
}

func (e *Emitter) emitForeach(n *ast.ForeachNode) error {
	return e.emitStatement(n.Env(), func() error {
		e.buf.Write("foreach ((")
		if err := e.emit(n.Coll); err != nil {
			return err
		}
		e.buf.Write(" ?? []) as ")
		if n.Key != nil {
			e.buf.Write(variable(n.Key.Str) + " => ")
		}
		e.buf.Write(variable(n.Value.Str) + ") {")
		if err := e.emitIndented(n.Body); err != nil {
			return err
		}
		e.buf.Write("}")
		e.buf.Newline()
		return nil
	})
}

// emitRecur rebinds the parameters of the recursion point and restarts its
// loop.  Arguments are evaluated before any parameter is assigned.
func (e *Emitter) emitRecur(n *ast.RecurNode) error {
	if n.Env().IsContext(ast.Expression) {
		return errorf(n, "recur must be in tail position")
	}
	temps := make([]string, len(n.Args))
	for i, arg := range n.Args {
		temps[i] = e.nextTemp("recur")
		e.buf.Write(temps[i] + " = ")
		if err := e.emit(arg); err != nil {
			return err
		}
		e.buf.Write(";")
		e.buf.Newline()
	}
	for i, p := range n.Frame.Params {
		e.buf.Write(variable(p.Str) + " = " + temps[i] + ";")
		e.buf.Newline()
	}
	e.buf.Write("continue;")
	e.buf.Newline()
	return nil
}

func (e *Emitter) emitSetVar(n *ast.SetVarNode) error {
	switch v := n.Var.(type) {
	case *ast.LocalVarNode:
		return e.emitAssignment(n, func() error {
			e.buf.Write(variable(v.Name.Str) + " = ")
			return e.emit(n.Value)
		})
	case *ast.GlobalVarNode:
		return e.emitExpr(n, func() error {
			e.buf.Writef("%s->setDefinition(%s, %s, ", registry, phpString(v.Ns), phpString(v.Name))
			if err := e.emit(n.Value); err != nil {
				return err
			}
			e.buf.Write(")")
			return nil
		})
	}
	return errorf(n, "set-var requires a variable")
}

// paramList returns the host parameter list for params.
func paramList(params []*lisp.LVal, variadic bool) string {
	var out string
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		if variadic && i == len(params)-1 {
			out += "..."
		}
		out += variable(p.Str)
	}
	return out
}
