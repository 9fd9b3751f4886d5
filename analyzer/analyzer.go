// Copyright © 2024 The LISPC authors

// Package analyzer converts lisp forms into an abstract syntax tree.  The
// analyzer resolves symbols, expands macros and checks the shape of special
// forms.  Global definitions are kept in a Registry shared by every form of
// a compilation session.
package analyzer

import (
	"io"
	"strings"

	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
	"github.com/sirupsen/logrus"
)

// DefaultMaxExpansions is the default limit on consecutive macro expansions
// of a single form.
const DefaultMaxExpansions = 1000

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger logs macro expansions and definitions to log.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		a.log = log
	}
}

// WithMaxExpansions limits the number of consecutive macro expansions of a
// single form.
func WithMaxExpansions(n int) Option {
	return func(a *Analyzer) {
		a.maxExpansions = n
	}
}

// Analyzer converts forms to AST nodes.  An Analyzer is not safe for
// concurrent use.
type Analyzer struct {
	reg           *Registry
	log           logrus.FieldLogger
	eval          *evaluator
	maxExpansions int
}

// New returns an analyzer that defines globals in reg.
func New(reg *Registry, opts ...Option) *Analyzer {
	a := &Analyzer{
		reg:           reg,
		maxExpansions: DefaultMaxExpansions,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		a.log = log
	}
	a.eval = newEvaluator(reg)
	return a
}

// Registry returns the analyzer's global environment.
func (a *Analyzer) Registry() *Registry {
	return a.reg
}

type specialForm func(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error)

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"quote":         analyzeQuote,
		"def":           analyzeDef,
		"ns":            analyzeNs,
		"fn":            analyzeFn,
		"let":           analyzeLet,
		"loop":          analyzeLoop,
		"recur":         analyzeRecur,
		"do":            analyzeDo,
		"if":            analyzeIf,
		"try":           analyzeTry,
		"throw":         analyzeThrow,
		"apply":         analyzeApply,
		"foreach":       analyzeForeach,
		"php/new":       analyzePhpNew,
		"php/->":        analyzePhpObjectCall,
		"php/::":        analyzePhpStaticCall,
		"php/aget":      analyzePhpArrayGet,
		"php/aset":      analyzePhpArraySet,
		"php/apush":     analyzePhpArrayPush,
		"php/aunset":    analyzePhpArrayUnset,
		"php/oset":      analyzePhpObjectSet,
		"defstruct*":    analyzeDefStruct,
		"definterface*": analyzeDefInterface,
		"defexception*": analyzeDefException,
		"set-var":       analyzeSetVar,
	}
}

func lookupSpecialForm(sym *lisp.LVal) (specialForm, bool) {
	switch sym.Ns {
	case "":
		fn, ok := specialForms[sym.Str]
		return fn, ok
	case "php":
		fn, ok := specialForms["php/"+sym.Str]
		return fn, ok
	}
	return nil, false
}

// IsSpecialForm returns true if sym names a special form.
func IsSpecialForm(sym *lisp.LVal) bool {
	_, ok := lookupSpecialForm(sym)
	return ok
}

// AnalyzeTopLevel analyzes a form in a fresh top-level environment.
func (a *Analyzer) AnalyzeTopLevel(form *lisp.LVal) (ast.Node, error) {
	return a.Analyze(form, ast.NewNodeEnvironment())
}

// Analyze converts form into an AST node.  Macro calls are expanded
// iteratively until the form is no longer a macro call.
func (a *Analyzer) Analyze(form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	for i := 0; ; i++ {
		node, next, err := a.step(form, env)
		if err != nil {
			return nil, err
		}
		if node != nil {
			return node, nil
		}
		if i >= a.maxExpansions {
			return nil, errorf(form, "macro expansion limit of %d exceeded", a.maxExpansions)
		}
		form = next
	}
}

// step analyzes form.  It returns either a node or, for a macro call, the
// expansion to analyze next.
func (a *Analyzer) step(form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, *lisp.LVal, error) {
	switch form.Type {
	case lisp.LSymbol:
		node, err := a.Resolve(form, env)
		return node, nil, err
	case lisp.LList:
		return a.analyzeList(form, env)
	case lisp.LVector:
		args, err := a.analyzeArgs(form.Cells, env)
		if err != nil {
			return nil, nil, err
		}
		return &ast.VectorNode{Base: ast.NewBase(env, form), Args: args}, nil, nil
	case lisp.LMap:
		args, err := a.analyzeArgs(form.Map.KVs(), env)
		if err != nil {
			return nil, nil, err
		}
		return &ast.MapNode{Base: ast.NewBase(env, form), Args: args}, nil, nil
	case lisp.LTable:
		args, err := a.analyzeArgs(form.Map.KVs(), env)
		if err != nil {
			return nil, nil, err
		}
		return &ast.TableNode{Base: ast.NewBase(env, form), Args: args}, nil, nil
	case lisp.LFun:
		return nil, nil, errorf(form, "function values cannot be compiled: %v", form)
	}
	return &ast.LiteralNode{Base: ast.NewBase(env, form), Value: form}, nil, nil
}

func (a *Analyzer) analyzeList(form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, *lisp.LVal, error) {
	if len(form.Cells) == 0 {
		return &ast.QuoteNode{Base: ast.NewBase(env, form), Value: form}, nil, nil
	}
	head := form.Cells[0]
	if head.Type == lisp.LSymbol {
		if special, ok := lookupSpecialForm(head); ok {
			if !head.IsSymbol("fn") {
				env = env.WithBoundTo("")
			}
			node, err := special(a, form, env)
			return node, nil, locate(err, form)
		}
		if head.Ns != "" || !env.HasLocal(head.Str) {
			if def, ok := a.reg.lookup(a.reg.current, head); ok && def.IsMacro() {
				next, err := a.macroexpand(def, form, env)
				return nil, next, err
			}
		}
	}
	node, err := a.analyzeCall(form, env.WithBoundTo(""))
	return node, nil, err
}

func (a *Analyzer) macroexpand(def *Definition, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	if def.expander == nil {
		return nil, errorf(form, "macro %s/%s is declared but not defined", def.Ns, def.Name)
	}
	a.log.WithFields(logrus.Fields{
		"macro":    def.Ns + "/" + def.Name,
		"location": form.Source.String(),
	}).Debug("expanding macro")
	out, err := def.expander(a, form, env)
	if err != nil {
		return nil, locate(err, form)
	}
	if out == nil {
		out = lisp.Nil()
	}
	if out.Source == nil {
		cp := *out
		cp.Source = form.Source
		cp.End = form.End
		out = &cp
	}
	return out, nil
}

// Macroexpand expands form once if it is a macro call.  The second return
// value is false if form is not a macro call.
func (a *Analyzer) Macroexpand(form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, bool, error) {
	if form.Type != lisp.LList || len(form.Cells) == 0 || form.Cells[0].Type != lisp.LSymbol {
		return form, false, nil
	}
	head := form.Cells[0]
	if IsSpecialForm(head) || (head.Ns == "" && env.HasLocal(head.Str)) {
		return form, false, nil
	}
	def, ok := a.reg.lookup(a.reg.current, head)
	if !ok || !def.IsMacro() {
		return form, false, nil
	}
	out, err := a.macroexpand(def, form, env)
	return out, err == nil, err
}

// Resolve analyzes the symbol sym.  Symbols resolve to a local binding, a
// global definition reachable from the current namespace, or a host symbol
// in the php namespace, in that order.
func (a *Analyzer) Resolve(sym *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	base := ast.NewBase(env, sym)
	if sym.Ns == "" && env.HasLocal(sym.Str) {
		name := sym
		if shadow, ok := env.Shadowed(sym.Str); ok {
			name = shadow
		}
		return &ast.LocalVarNode{Base: base, Name: name}, nil
	}
	if sym.Ns == "" && strings.HasPrefix(sym.Str, `\`) {
		return &ast.PhpClassNameNode{Base: base, Name: sym.Str}, nil
	}
	if def, ok := a.reg.lookup(a.reg.current, sym); ok {
		if def.IsMacro() {
			return nil, errorf(sym, "Can't take the value of macro '%s'", sym.FullName())
		}
		return &ast.GlobalVarNode{Base: base, Ns: def.Ns, Name: def.Name, Meta: def.Meta}, nil
	}
	if sym.Ns == "php" {
		return &ast.PhpVarNode{Base: base, Name: sym.Str}, nil
	}
	return nil, a.unresolved(sym, env)
}

func (a *Analyzer) unresolved(sym *lisp.LVal, env *ast.NodeEnvironment) *Error {
	err := errorf(sym, "Cannot resolve symbol '%s'", sym.FullName())
	candidates := a.reg.Names(a.reg.current)
	for _, l := range env.Locals() {
		candidates = append(candidates, l.Str)
	}
	err.Suggestions = Suggest(sym.FullName(), candidates)
	return err
}

// resolveClassName returns the host class named by sym.
func (a *Analyzer) resolveClassName(sym *lisp.LVal, env *ast.NodeEnvironment) (*ast.PhpClassNameNode, error) {
	base := ast.NewBase(env, sym)
	if sym.Type != lisp.LSymbol {
		return nil, errorf(sym, "expected a class name: %v", sym)
	}
	ns := a.reg.current
	if sym.Ns != "" {
		ns = a.reg.resolveNamespace(ns, sym.Ns)
		if _, ok := a.reg.Class(ns, sym.Str); !ok {
			return nil, errorf(sym, "Cannot resolve class '%s'", sym.FullName())
		}
		return &ast.PhpClassNameNode{Base: base, Name: className(ns, sym.Str)}, nil
	}
	if strings.HasPrefix(sym.Str, `\`) {
		return &ast.PhpClassNameNode{Base: base, Name: sym.Str}, nil
	}
	if class, ok := a.reg.UseAlias(ns, sym.Str); ok {
		return &ast.PhpClassNameNode{Base: base, Name: class}, nil
	}
	if _, ok := a.reg.Class(ns, sym.Str); ok {
		return &ast.PhpClassNameNode{Base: base, Name: className(ns, sym.Str)}, nil
	}
	return &ast.PhpClassNameNode{Base: base, Name: `\` + sym.Str}, nil
}

// expressionEnv returns the environment of a value used by its parent.
// Such values are never in tail position.
func expressionEnv(env *ast.NodeEnvironment) *ast.NodeEnvironment {
	return env.WithContext(ast.Expression).WithDisallowRecurFrame().WithBoundTo("")
}

// isTopLevel returns true if declarations of namespaces and classes may
// appear at the position described by env.
func isTopLevel(env *ast.NodeEnvironment) bool {
	return env.DefAllowed() && !env.IsContext(ast.Expression)
}

// bodyContext returns the context of the last form of a body.  Bodies in
// expression position are emitted as functions so their last form returns.
func bodyContext(env *ast.NodeEnvironment) ast.Context {
	if env.IsContext(ast.Expression) {
		return ast.Return
	}
	return env.Context()
}

func (a *Analyzer) analyzeArgs(forms []*lisp.LVal, env *ast.NodeEnvironment) ([]ast.Node, error) {
	argEnv := expressionEnv(env)
	args := make([]ast.Node, len(forms))
	for i, form := range forms {
		node, err := a.Analyze(form, argEnv)
		if err != nil {
			return nil, err
		}
		args[i] = node
	}
	return args, nil
}

// analyzeBody analyzes a sequence of forms evaluated for the value of the
// last one.
func (a *Analyzer) analyzeBody(form *lisp.LVal, body []*lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	switch len(body) {
	case 0:
		return &ast.LiteralNode{Base: ast.NewBase(env, form), Value: lisp.Nil()}, nil
	case 1:
		return a.Analyze(body[0], env)
	}
	stmtEnv := env.WithContext(ast.Statement).WithDisallowRecurFrame()
	stmts := make([]ast.Node, len(body)-1)
	for i, stmt := range body[:len(body)-1] {
		node, err := a.Analyze(stmt, stmtEnv)
		if err != nil {
			return nil, err
		}
		stmts[i] = node
	}
	ret, err := a.Analyze(body[len(body)-1], env.WithContext(bodyContext(env)))
	if err != nil {
		return nil, err
	}
	return &ast.DoNode{Base: ast.NewBase(env, form), Stmts: stmts, Ret: ret}, nil
}

func (a *Analyzer) analyzeCall(form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	argEnv := expressionEnv(env)
	fn, err := a.Analyze(form.Cells[0], argEnv)
	if err != nil {
		return nil, err
	}
	php, isPhp := fn.(*ast.PhpVarNode)
	args := make([]ast.Node, len(form.Cells)-1)
	for i, arg := range form.Cells[1:] {
		var node ast.Node
		if isPhp && php.Name == "instanceof" && i == 1 && arg.Type == lisp.LSymbol {
			node, err = a.resolveClassName(arg, argEnv)
		} else {
			node, err = a.Analyze(arg, argEnv)
		}
		if err != nil {
			return nil, err
		}
		args[i] = node
	}
	if isPhp && php.IsInfix() && len(args) == 0 {
		return nil, errorf(form, "operator php/%s requires at least one argument", php.Name)
	}
	if isPhp && ast.IsComparisonOperator(php.Name) && len(args) != 2 {
		return nil, errorf(form, "operator php/%s requires exactly two arguments", php.Name)
	}
	return &ast.CallNode{Base: ast.NewBase(env, form), Fn: fn, Args: args}, nil
}
