// Copyright © 2024 The LISPC authors

// Package emitter generates PHP source code from analyzed syntax trees.
package emitter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/parser/token"
	"github.com/luthersystems/lispc/sourcemap"
)

// DefaultIndent is the indentation unit of generated code.
const DefaultIndent = "  "

// Option configures an Emitter.
type Option func(*Emitter)

// WithSourceMap enables or disables recording of source mappings.
func WithSourceMap(enabled bool) Option {
	return func(e *Emitter) {
		e.sourceMap = enabled
	}
}

// WithLiteralEmitter replaces the emitter used for quoted data.
func WithLiteralEmitter(lit ValueLiteralEmitter) Option {
	return func(e *Emitter) {
		e.literals = lit
	}
}

// WithIndent sets the indentation unit of generated code.
func WithIndent(unit string) Option {
	return func(e *Emitter) {
		e.indent = unit
	}
}

// Emitter generates code for a sequence of top-level nodes.  An Emitter is
// not safe for concurrent use.
type Emitter struct {
	literals  ValueLiteralEmitter
	sourceMap bool
	indent    string
	out       *OutputBuffer
	buf       *OutputBuffer
	gen       *sourcemap.Generator
	pending   []sourcemap.Mapping
	tmp       int
}

// New returns an Emitter.
func New(opts ...Option) *Emitter {
	e := &Emitter{
		literals: PHPLiteralEmitter{},
		indent:   DefaultIndent,
		gen:      sourcemap.NewGenerator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.out = NewOutputBuffer(0, e.indent)
	return e
}

// EmitterResult is the code generated for all emitted nodes.
type EmitterResult struct {
	Code string
	// SourceMap holds the encoded mappings, empty unless source maps are
	// enabled.
	SourceMap          string
	OriginalSourceName string
	Sources            []string
}

type sourceMapDocument struct {
	Version  int      `json:"version"`
	File     string   `json:"file,omitempty"`
	Sources  []string `json:"sources"`
	Names    []string `json:"names"`
	Mappings string   `json:"mappings"`
}

// SourceMapJSON renders a version 3 source map for the generated file.
func (r *EmitterResult) SourceMapJSON(file string) ([]byte, error) {
	sources := r.Sources
	if sources == nil {
		sources = []string{}
	}
	return json.Marshal(&sourceMapDocument{
		Version:  3,
		File:     file,
		Sources:  sources,
		Names:    []string{},
		Mappings: r.SourceMap,
	})
}

// Result returns the code generated so far.
func (e *Emitter) Result() *EmitterResult {
	r := &EmitterResult{Code: e.out.String()}
	if e.sourceMap {
		r.SourceMap = e.gen.Mappings()
		r.Sources = e.gen.Sources()
		if len(r.Sources) > 0 {
			r.OriginalSourceName = r.Sources[0]
		}
	}
	return r
}

// EmitRaw appends code verbatim, e.g. a file header.
func (e *Emitter) EmitRaw(code string) {
	e.out.Write(code)
}

// EmitNode generates code for the top-level node n.
func (e *Emitter) EmitNode(n ast.Node) error {
	_, err := e.Emit(n)
	return err
}

// Emit generates code for the top-level node n and returns it.  When an
// error occurs nothing is added to the result.
func (e *Emitter) Emit(n ast.Node) (string, error) {
	e.buf = NewOutputBuffer(e.out.Line(), e.indent)
	e.pending = e.pending[:0]
	defer func() { e.buf = nil }()
	if err := e.emit(n); err != nil {
		return "", err
	}
	if !e.buf.bol {
		e.buf.Newline()
	}
	code := e.buf.String()
	e.out.Write(code)
	for _, m := range e.pending {
		e.gen.AddMapping(m)
	}
	return code, nil
}

// Error is a node that cannot be emitted.
type Error struct {
	Msg  string
	Node ast.Node
}

func (err *Error) Error() string {
	if loc := err.Start(); loc != nil {
		return fmt.Sprintf("%v: %s", loc, err.Msg)
	}
	return err.Msg
}

// Start returns the location of the node.
func (err *Error) Start() *token.Location {
	if err.Node == nil {
		return nil
	}
	return err.Node.Loc()
}

// End returns nil; nodes only record where they start.
func (err *Error) End() *token.Location {
	return nil
}

func errorf(n ast.Node, format string, v ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, v...), Node: n}
}

// mark records a mapping from the current output position to the source of
// n.
func (e *Emitter) mark(n ast.Node) {
	if !e.sourceMap {
		return
	}
	loc := n.Loc()
	if loc == nil || loc.Line < 1 {
		return
	}
	line, col := e.buf.Position()
	e.pending = append(e.pending, sourcemap.Mapping{
		GenLine: line,
		GenCol:  col,
		Source:  e.gen.SourceIndex(loc.File),
		SrcLine: loc.Line - 1,
		SrcCol:  max(loc.Col-1, 0),
	})
}

func (e *Emitter) emit(n ast.Node) error {
	e.mark(n)
	switch n := n.(type) {
	case *ast.LiteralNode:
		return e.emitExpr(n, func() error { return e.literals.EmitLiteral(e.buf, n.Value) })
	case *ast.QuoteNode:
		return e.emitExpr(n, func() error { return e.literals.EmitLiteral(e.buf, n.Value) })
	case *ast.VectorNode:
		return e.emitExpr(n, func() error {
			return e.emitWrappedArgs(typeFactory+"->persistentVectorFromArray([", n.Args, "])")
		})
	case *ast.MapNode:
		return e.emitExpr(n, func() error {
			return e.emitWrappedArgs(typeFactory+"->persistentMapFromKVs(", n.Args, ")")
		})
	case *ast.TableNode:
		return e.emitExpr(n, func() error {
			return e.emitWrappedArgs(langNamespace+`\Table::fromKVs(`, n.Args, ")")
		})
	case *ast.LocalVarNode:
		return e.emitExpr(n, func() error {
			e.buf.Write(variable(n.Name.Str))
			return nil
		})
	case *ast.GlobalVarNode:
		return e.emitExpr(n, func() error {
			e.buf.Writef("%s->getDefinition(%s, %s)", registry, phpString(n.Ns), phpString(n.Name))
			return nil
		})
	case *ast.PhpVarNode:
		return e.emitExpr(n, func() error {
			e.emitPhpVarValue(n)
			return nil
		})
	case *ast.PhpClassNameNode:
		return e.emitExpr(n, func() error {
			e.buf.Write(MungeNamespace(n.Name) + "::class")
			return nil
		})
	case *ast.CallNode:
		return e.emitCall(n)
	case *ast.ApplyNode:
		return e.emitApply(n)
	case *ast.FnNode:
		return e.emitFn(n)
	case *ast.LetNode:
		return e.emitLet(n)
	case *ast.DoNode:
		return e.emitDo(n)
	case *ast.IfNode:
		return e.emitIf(n)
	case *ast.DefNode:
		return e.emitDef(n)
	case *ast.NsNode:
		return e.emitNs(n)
	case *ast.TryNode:
		return e.emitTry(n)
	case *ast.ThrowNode:
		return e.emitThrow(n)
	case *ast.ForeachNode:
		return e.emitForeach(n)
	case *ast.RecurNode:
		return e.emitRecur(n)
	case *ast.PhpNewNode:
		return e.emitPhpNew(n)
	case *ast.PhpObjectCallNode:
		return e.emitExpr(n, func() error { return e.emitMember(n) })
	case *ast.PhpArrayGetNode:
		return e.emitPhpArrayGet(n)
	case *ast.PhpArraySetNode:
		return e.emitPhpArraySet(n)
	case *ast.PhpArrayPushNode:
		return e.emitPhpArrayPush(n)
	case *ast.PhpArrayUnsetNode:
		return e.emitPhpArrayUnset(n)
	case *ast.PhpObjectSetNode:
		return e.emitPhpObjectSet(n)
	case *ast.SetVarNode:
		return e.emitSetVar(n)
	case *ast.DefStructNode:
		return e.emitDefStruct(n)
	case *ast.DefInterfaceNode:
		return e.emitDefInterface(n)
	case *ast.DefExceptionNode:
		return e.emitDefException(n)
	}
	return errorf(n, "cannot emit %T", n)
}

// emitExpr emits an expression node.  In statement position the expression
// is terminated and in return position its value is returned.
func (e *Emitter) emitExpr(n ast.Node, emit func() error) error {
	env := n.Env()
	if env.IsContext(ast.Return) {
		e.buf.Write("return ")
	}
	if err := emit(); err != nil {
		return err
	}
	if !env.IsContext(ast.Expression) {
		e.buf.Write(";")
		e.buf.Newline()
	}
	return nil
}

// emitAssignment emits an expression with side effects which must be
// parenthesized when its value is used.
func (e *Emitter) emitAssignment(n ast.Node, emit func() error) error {
	return e.emitExpr(n, func() error {
		paren := n.Env().IsContext(ast.Expression)
		if paren {
			e.buf.Write("(")
		}
		if err := emit(); err != nil {
			return err
		}
		if paren {
			e.buf.Write(")")
		}
		return nil
	})
}

// emitBlock emits statements whose last statement is in the node's context.
// In expression position the statements are wrapped in an immediately
// invoked closure whose body returns the value.
func (e *Emitter) emitBlock(env *ast.NodeEnvironment, emit func() error) error {
	if env.IsContext(ast.Expression) {
		return e.emitClosure(env, emit)
	}
	return emit()
}

// emitStatement emits a statement that has no value.  Its value is nil in
// return and expression position.
func (e *Emitter) emitStatement(env *ast.NodeEnvironment, emit func() error) error {
	returnNil := func() error {
		if err := emit(); err != nil {
			return err
		}
		e.buf.Write("return null;")
		e.buf.Newline()
		return nil
	}
	switch env.Context() {
	case ast.Expression:
		return e.emitClosure(env, returnNil)
	case ast.Return:
		return returnNil()
	}
	return emit()
}

// emitClosure wraps statements in an immediately invoked closure that
// captures the locals of env by reference.
func (e *Emitter) emitClosure(env *ast.NodeEnvironment, emit func() error) error {
	e.buf.Write("(function()")
	if captures := captures(env); len(captures) > 0 {
		e.buf.Write(" use (&" + strings.Join(captures, ", &") + ")")
	}
	e.buf.Write(" {")
	e.buf.Newline()
	e.buf.Indent()
	if err := emit(); err != nil {
		return err
	}
	e.buf.Dedent()
	e.buf.Write("})()")
	return nil
}

// captures returns the host variables of the locals bound in env.
func captures(env *ast.NodeEnvironment) []string {
	var vars []string
	seen := make(map[string]bool)
	for _, l := range env.Locals() {
		name := l
		if shadow, ok := env.Shadowed(l.Str); ok {
			name = shadow
		}
		v := variable(name.Str)
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	return vars
}

func (e *Emitter) emitArgs(args []ast.Node) error {
	for i, arg := range args {
		if i > 0 {
			e.buf.Write(", ")
		}
		if err := e.emit(arg); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) emitWrappedArgs(open string, args []ast.Node, close string) error {
	e.buf.Write(open)
	if err := e.emitArgs(args); err != nil {
		return err
	}
	e.buf.Write(close)
	return nil
}

// emitSpreadArgs emits args where the last argument is a sequence of
// further arguments.
func (e *Emitter) emitSpreadArgs(args []ast.Node) error {
	if len(args) == 0 {
		return nil
	}
	last := len(args) - 1
	if err := e.emitArgs(args[:last]); err != nil {
		return err
	}
	if last > 0 {
		e.buf.Write(", ")
	}
	e.buf.Write("...((")
	if err := e.emit(args[last]); err != nil {
		return err
	}
	e.buf.Write(") ?? [])")
	return nil
}

func (e *Emitter) nextTemp(prefix string) string {
	e.tmp++
	return fmt.Sprintf("$__%s_%d", prefix, e.tmp)
}
