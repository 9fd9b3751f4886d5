// Copyright © 2024 The LISPC authors

// Package ast defines the typed syntax tree produced by the analyzer and
// consumed by the emitter.
package ast

import (
	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/parser/token"
)

// Node is a node of the abstract syntax tree.
type Node interface {
	// Env returns the lexical environment of the node.
	Env() *NodeEnvironment
	// Loc returns the source location of the node, or nil for synthesized
	// code.
	Loc() *token.Location
}

// Base holds the fields common to all nodes.
type Base struct {
	Environment *NodeEnvironment
	Source      *token.Location
}

func (b *Base) Env() *NodeEnvironment { return b.Environment }
func (b *Base) Loc() *token.Location  { return b.Source }

// NewBase returns a Base for a node created from form.
func NewBase(env *NodeEnvironment, form *lisp.LVal) Base {
	var loc *token.Location
	if form != nil {
		loc = form.Source
	}
	return Base{Environment: env, Source: loc}
}

// LiteralNode is a self-evaluating value: nil, a boolean, a number, a string
// or a keyword.
type LiteralNode struct {
	Base
	Value *lisp.LVal
}

// QuoteNode is quoted data.
type QuoteNode struct {
	Base
	Value *lisp.LVal
}

// VectorNode builds a vector from evaluated elements.
type VectorNode struct {
	Base
	Args []Node
}

// MapNode builds a map from evaluated keys and values.  Args alternate
// between keys and values.
type MapNode struct {
	Base
	Args []Node
}

// TableNode builds a table from evaluated keys and values.
type TableNode struct {
	Base
	Args []Node
}

// LocalVarNode references a local binding.  Name is the symbol used in the
// generated code, after shadow renaming.
type LocalVarNode struct {
	Base
	Name *lisp.LVal
}

// GlobalVarNode references a definition in the registry.
type GlobalVarNode struct {
	Base
	Ns   string
	Name string
	Meta *lisp.LVal
}

// IsMacro returns true if the referenced definition is a macro.
func (n *GlobalVarNode) IsMacro() bool {
	return n.Meta != nil && n.Meta.HasMetaFlag("macro")
}

// PhpVarNode references a host function or operator, e.g. php/strlen.
type PhpVarNode struct {
	Base
	Name string
}

var infixOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	".": true, "==": true, "===": true, "!=": true, "!==": true,
	"<": true, ">": true, "<=": true, ">=": true, "<=>": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
	"&&": true, "||": true, "instanceof": true,
}

// IsInfixOperator returns true if name is a host binary operator.
func IsInfixOperator(name string) bool {
	return infixOperators[name]
}

var comparisonOperators = map[string]bool{
	"==": true, "===": true, "!=": true, "!==": true, "<": true, ">": true,
	"<=": true, ">=": true, "<=>": true, "instanceof": true,
}

// IsComparisonOperator returns true if name is a host operator that compares
// exactly two operands.
func IsComparisonOperator(name string) bool {
	return comparisonOperators[name]
}

// IsInfix returns true if the node names a host binary operator.
func (n *PhpVarNode) IsInfix() bool {
	return IsInfixOperator(n.Name)
}

// PhpClassNameNode names a host class, e.g. \DateTime.
type PhpClassNameNode struct {
	Base
	Name string
}

// CallNode applies Fn to Args.
type CallNode struct {
	Base
	Fn   Node
	Args []Node
}

// ApplyNode applies Fn to Args where the last argument is a sequence of
// further arguments.
type ApplyNode struct {
	Base
	Fn   Node
	Args []Node
}

// FnNode is a function literal.
type FnNode struct {
	Base
	Params []*lisp.LVal
	Body   Node
	// Uses are the locals of the enclosing scope captured by the function.
	Uses       []*lisp.LVal
	IsVariadic bool
	// Recurs is true if the body contains a recur targeting the function.
	Recurs bool
}

// BindingNode binds Symbol to the value of Init.  Shadow is the name used in
// generated code.
type BindingNode struct {
	Base
	Symbol *lisp.LVal
	Shadow *lisp.LVal
	Init   Node
}

// LetNode evaluates Body with Bindings in scope.  A loop is a let whose body
// may recur.
type LetNode struct {
	Base
	Bindings []*BindingNode
	Body     Node
	IsLoop   bool
	Recurs   bool
}

// DoNode evaluates Stmts for effect and then Ret.
type DoNode struct {
	Base
	Stmts []Node
	Ret   Node
}

// IfNode is a conditional.
type IfNode struct {
	Base
	Test Node
	Then Node
	Else Node
}

// DefNode adds a definition to the registry.
type DefNode struct {
	Base
	Ns   string
	Name string
	Meta *lisp.LVal
	Init Node
}

// NsNode switches the current namespace.
type NsNode struct {
	Base
	Ns       string
	Requires []string
	// Uses maps host class aliases to fully qualified class names.
	Uses []*UseAlias
}

// UseAlias is a host class imported into a namespace.
type UseAlias struct {
	Class string
	Alias string
}

// TryNode evaluates Body handling exceptions with Catches and always running
// Finally.
type TryNode struct {
	Base
	Body    Node
	Catches []*CatchNode
	Finally Node
}

// CatchNode handles exceptions of Type bound to Name.
type CatchNode struct {
	Base
	Type *PhpClassNameNode
	Name *lisp.LVal
	Body Node
}

// ThrowNode raises an exception.
type ThrowNode struct {
	Base
	Exception Node
}

// ForeachNode iterates over a collection.  Key is nil when only values are
// bound.
type ForeachNode struct {
	Base
	Key   *lisp.LVal
	Value *lisp.LVal
	Coll  Node
	Body  Node
}

// RecurNode jumps to the innermost recursion point.
type RecurNode struct {
	Base
	Frame *RecurFrame
	Args  []Node
}

// PhpNewNode instantiates a host class.
type PhpNewNode struct {
	Base
	Class Node
	Args  []Node
}

// PhpObjectCallNode calls a method or reads a property of a host object or
// class.
type PhpObjectCallNode struct {
	Base
	Target     Node
	Name       string
	Args       []Node
	IsStatic   bool
	IsProperty bool
}

// PhpArrayGetNode reads an element of a host array.
type PhpArrayGetNode struct {
	Base
	Array Node
	Index Node
}

// PhpArraySetNode writes an element of a host array.
type PhpArraySetNode struct {
	Base
	Array Node
	Index Node
	Value Node
}

// PhpArrayPushNode appends to a host array.
type PhpArrayPushNode struct {
	Base
	Array Node
	Value Node
}

// PhpArrayUnsetNode removes an element of a host array.
type PhpArrayUnsetNode struct {
	Base
	Array Node
	Index Node
}

// PhpObjectSetNode writes a property of a host object.
type PhpObjectSetNode struct {
	Base
	Target *PhpObjectCallNode
	Value  Node
}

// DefStructNode defines a struct type with the given fields.
type DefStructNode struct {
	Base
	Ns         string
	Name       string
	Fields     []*lisp.LVal
	Interfaces []*StructInterface
}

// StructInterface is an interface implemented by a struct.
type StructInterface struct {
	Ns      string
	Name    string
	Methods []*StructMethod
}

// StructMethod implements an interface method.  The first parameter of Fn
// is bound to the struct instance.
type StructMethod struct {
	Name string
	Fn   *FnNode
}

// DefInterfaceNode defines an interface.
type DefInterfaceNode struct {
	Base
	Ns      string
	Name    string
	Methods []*InterfaceMethod
}

// InterfaceMethod is a method signature of an interface.  The first
// argument is the receiver.
type InterfaceMethod struct {
	Name    string
	Args    []*lisp.LVal
	Comment string
}

// DefExceptionNode defines an exception class.
type DefExceptionNode struct {
	Base
	Ns     string
	Name   string
	Parent *PhpClassNameNode
}

// SetVarNode sets the value of a variable.
type SetVarNode struct {
	Base
	Var   Node
	Value Node
}
