// Copyright © 2024 The LISPC authors

package emitter

import (
	"github.com/luthersystems/lispc/ast"
)

func (e *Emitter) emitPhpNew(n *ast.PhpNewNode) error {
	return e.emitExpr(n, func() error {
		e.buf.Write("new ")
		if class, ok := n.Class.(*ast.PhpClassNameNode); ok {
			e.mark(class)
			e.buf.Write(MungeNamespace(class.Name))
		} else {
			e.buf.Write("(")
			if err := e.emit(n.Class); err != nil {
				return err
			}
			e.buf.Write(")")
		}
		return e.emitWrappedArgs("(", n.Args, ")")
	})
}

// emitTarget emits the object or class of a member access.
func (e *Emitter) emitTarget(target ast.Node) error {
	switch t := target.(type) {
	case *ast.PhpClassNameNode:
		e.mark(t)
		e.buf.Write(MungeNamespace(t.Name))
		return nil
	case *ast.LocalVarNode, *ast.PhpObjectCallNode:
		return e.emit(target)
	}
	e.buf.Write("(")
	if err := e.emit(target); err != nil {
		return err
	}
	e.buf.Write(")")
	return nil
}

// emitMember emits a method call or property access without a statement
// terminator.
func (e *Emitter) emitMember(n *ast.PhpObjectCallNode) error {
	if err := e.emitTarget(n.Target); err != nil {
		return err
	}
	sep := "->"
	if n.IsStatic {
		sep = "::"
	}
	e.buf.Write(sep)
	if n.IsProperty {
		if n.IsStatic {
			e.buf.Write("$")
		}
		e.buf.Write(Munge(n.Name))
		return nil
	}
	e.buf.Write(Munge(n.Name))
	return e.emitWrappedArgs("(", n.Args, ")")
}

func (e *Emitter) emitPhpArrayGet(n *ast.PhpArrayGetNode) error {
	return e.emitExpr(n, func() error {
		e.buf.Write("(")
		if err := e.emitArrayElement(n.Array, n.Index); err != nil {
			return err
		}
		e.buf.Write(" ?? null)")
		return nil
	})
}

// emitArrayElement emits arr[idx].  A nil index emits arr[].
func (e *Emitter) emitArrayElement(arr ast.Node, idx ast.Node) error {
	if err := e.emit(arr); err != nil {
		return err
	}
	e.buf.Write("[")
	if idx != nil {
		if err := e.emit(idx); err != nil {
			return err
		}
	}
	e.buf.Write("]")
	return nil
}

func (e *Emitter) emitPhpArraySet(n *ast.PhpArraySetNode) error {
	return e.emitAssignment(n, func() error {
		if err := e.emitArrayElement(n.Array, n.Index); err != nil {
			return err
		}
		e.buf.Write(" = ")
		return e.emit(n.Value)
	})
}

func (e *Emitter) emitPhpArrayPush(n *ast.PhpArrayPushNode) error {
	return e.emitAssignment(n, func() error {
		if err := e.emitArrayElement(n.Array, nil); err != nil {
			return err
		}
		e.buf.Write(" = ")
		return e.emit(n.Value)
	})
}

func (e *Emitter) emitPhpArrayUnset(n *ast.PhpArrayUnsetNode) error {
	return e.emitStatement(n.Env(), func() error {
		e.buf.Write("unset(")
		if err := e.emitArrayElement(n.Array, n.Index); err != nil {
			return err
		}
		e.buf.Write(");")
		e.buf.Newline()
		return nil
	})
}

func (e *Emitter) emitPhpObjectSet(n *ast.PhpObjectSetNode) error {
	return e.emitAssignment(n, func() error {
		e.mark(n.Target)
		if err := e.emitMember(n.Target); err != nil {
			return err
		}
		e.buf.Write(" = ")
		return e.emit(n.Value)
	})
}
