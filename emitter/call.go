// Copyright © 2024 The LISPC authors

package emitter

import (
	"fmt"
	"strings"

	"github.com/luthersystems/lispc/ast"
)

// infixFn returns a closure that applies the binary operator op.
func infixFn(op string) string {
	return fmt.Sprintf("function($a, $b) { return ($a %s $b); }", op)
}

func (e *Emitter) emitPhpVarValue(n *ast.PhpVarNode) {
	if n.IsInfix() {
		e.buf.Write(infixFn(n.Name))
		return
	}
	e.buf.Write(n.Name + "(...)")
}

func (e *Emitter) emitCall(n *ast.CallNode) error {
	return e.emitExpr(n, func() error {
		if php, ok := n.Fn.(*ast.PhpVarNode); ok {
			if php.IsInfix() {
				return e.emitInfix(php.Name, n.Args)
			}
			e.buf.Write(php.Name + "(")
			if err := e.emitArgs(n.Args); err != nil {
				return err
			}
			e.buf.Write(")")
			return nil
		}
		if err := e.emitCallee(n.Fn); err != nil {
			return err
		}
		return e.emitWrappedArgs("(", n.Args, ")")
	})
}

// emitCallee emits the function value of a call.
func (e *Emitter) emitCallee(fn ast.Node) error {
	e.buf.Write("(")
	if err := e.emit(fn); err != nil {
		return err
	}
	e.buf.Write(")")
	return nil
}

func (e *Emitter) emitInfix(op string, args []ast.Node) error {
	e.buf.Write("(")
	defer e.buf.Write(")")
	if len(args) == 1 {
		if op == "-" {
			e.buf.Write("-")
		}
		return e.emit(args[0])
	}
	for i, arg := range args {
		if i > 0 {
			e.buf.Write(" " + op + " ")
		}
		if class, ok := arg.(*ast.PhpClassNameNode); ok && op == "instanceof" && i > 0 {
			e.mark(class)
			e.buf.Write(MungeNamespace(class.Name))
			continue
		}
		if err := e.emit(arg); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitApply(n *ast.ApplyNode) error {
	return e.emitExpr(n, func() error {
		php, isPhp := n.Fn.(*ast.PhpVarNode)
		switch {
		case isPhp && php.IsInfix():
			e.buf.Writef("(function($xs) { return array_reduce(array_slice($xs, 1), %s, $xs[0]); })([", infixFn(php.Name))
			if err := e.emitSpreadArgs(n.Args); err != nil {
				return err
			}
			e.buf.Write("])")
			return nil
		case isPhp:
			e.buf.Write(php.Name)
		default:
			if err := e.emitCallee(n.Fn); err != nil {
				return err
			}
		}
		e.buf.Write("(")
		if err := e.emitSpreadArgs(n.Args); err != nil {
			return err
		}
		e.buf.Write(")")
		return nil
	})
}

// emitFn emits a function literal as an instance of an anonymous class.
// Captured locals are passed to the constructor and the parameters are
// those of __invoke.
func (e *Emitter) emitFn(n *ast.FnNode) error {
	return e.emitExpr(n, func() error {
		uses := make([]string, len(n.Uses))
		for i, u := range n.Uses {
			uses[i] = variable(u.Str)
		}
		e.buf.Write("new class(")
		for i, u := range uses {
			if i > 0 {
				e.buf.Write(", ")
			}
			e.buf.Write(u)
		}
		e.buf.Write(") extends " + abstractFn + " {")
		e.buf.Newline()
		e.buf.Indent()
		if bound := n.Env().BoundTo(); bound != "" {
			e.buf.Writef("public const BOUND_TO = %s;", phpString(bound))
			e.buf.Newline()
		}
		if len(uses) > 0 {
			for _, u := range uses {
				e.buf.Write("private " + u + ";")
				e.buf.Newline()
			}
			e.buf.Write("public function __construct(" + strings.Join(uses, ", ") + ") {")
			e.buf.Newline()
			e.buf.Indent()
			for _, u := range uses {
				e.buf.Writef("$this->%s = %s;", u[1:], u)
				e.buf.Newline()
			}
			e.buf.Dedent()
			e.buf.Write("}")
			e.buf.Newline()
		}
		e.buf.Write("public function __invoke(" + paramList(n.Params, n.IsVariadic) + ") {")
		e.buf.Newline()
		e.buf.Indent()
		for _, u := range uses {
			e.buf.Writef("%s = $this->%s;", u, u[1:])
			e.buf.Newline()
		}
		if n.IsVariadic {
			rest := variable(n.Params[len(n.Params)-1].Str)
			e.buf.Writef("%s = %s->persistentListFromArray(%s);", rest, typeFactory, rest)
			e.buf.Newline()
		}
		if err := e.emitFnBody(n); err != nil {
			return err
		}
		e.buf.Dedent()
		e.buf.Write("}")
		e.buf.Newline()
		e.buf.Dedent()
		e.buf.Write("}")
		return nil
	})
}

func (e *Emitter) emitFnBody(n *ast.FnNode) error {
	if n.Recurs {
		return e.emitLoop(n.Body)
	}
	return e.emit(n.Body)
}
