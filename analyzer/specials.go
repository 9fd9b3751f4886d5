// Copyright © 2024 The LISPC authors

package analyzer

import (
	"strings"

	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
	"github.com/sirupsen/logrus"
)

func analyzeQuote(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 2 {
		return nil, errorf(form, "Exactly one argument is required for 'quote")
	}
	return &ast.QuoteNode{Base: ast.NewBase(env, form), Value: form.Cells[1]}, nil
}

func analyzeDo(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	return a.analyzeBody(form, form.Cells[1:], env)
}

func analyzeIf(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) < 3 || len(form.Cells) > 4 {
		return nil, errorf(form, "'if requires two or three arguments")
	}
	test, err := a.Analyze(form.Cells[1], expressionEnv(env))
	if err != nil {
		return nil, err
	}
	then, err := a.Analyze(form.Cells[2], env)
	if err != nil {
		return nil, err
	}
	var els ast.Node
	if len(form.Cells) == 4 {
		els, err = a.Analyze(form.Cells[3], env)
		if err != nil {
			return nil, err
		}
	} else {
		els = &ast.LiteralNode{Base: ast.NewBase(env, nil), Value: lisp.Nil()}
	}
	return &ast.IfNode{Base: ast.NewBase(env, form), Test: test, Then: then, Else: els}, nil
}

func analyzeDef(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if !env.DefAllowed() {
		return nil, errorf(form, "'def inside of a 'def is forbidden")
	}
	args := form.Cells[1:]
	if len(args) < 1 || len(args) > 3 {
		return nil, errorf(form, "'def requires one to three arguments")
	}
	name := args[0]
	if name.Type != lisp.LSymbol || name.Ns != "" {
		return nil, errorf(name, "First argument of 'def must be an unqualified symbol")
	}
	meta := lisp.Map()
	if name.Meta != nil {
		meta.Map.Merge(name.Meta.Map)
	}
	var init *lisp.LVal
	switch len(args) {
	case 1:
		init = lisp.Nil()
	case 2:
		init = args[1]
	case 3:
		switch args[1].Type {
		case lisp.LString:
			meta.Map.Set(lisp.Keyword("doc"), args[1])
		case lisp.LMap:
			meta.Map.Merge(args[1].Map)
		default:
			return nil, errorf(args[1], "Second argument of 'def must be a docstring or a metadata map")
		}
		init = args[2]
	}

	ns := a.reg.current
	prev, hadPrev := a.reg.Definition(ns, name.Str)
	// The definition exists while its initializer is analyzed so functions
	// may refer to themselves.
	def := a.reg.AddDefinition(ns, name.Str, nil, meta)
	initEnv := expressionEnv(env).
		WithDefAllowed(false).
		WithBoundTo(ns + `\` + name.Str)
	value, err := a.Analyze(init, initEnv)
	if err != nil {
		if hadPrev {
			a.reg.Namespace(ns).defs[name.Str] = prev
		} else {
			delete(a.reg.Namespace(ns).defs, name.Str)
		}
		return nil, err
	}
	def.Value = value
	if def.IsMacro() {
		fn, ok := value.(*ast.FnNode)
		if !ok {
			return nil, errorf(form, "macro %s must be defined as a function", name.Str)
		}
		def.expander = a.userMacro(fn)
	}
	a.log.WithFields(logrus.Fields{
		"namespace":  ns,
		"definition": name.Str,
		"macro":      def.IsMacro(),
	}).Debug("added definition")
	return &ast.DefNode{
		Base: ast.NewBase(env, form),
		Ns:   ns,
		Name: name.Str,
		Meta: meta,
		Init: value,
	}, nil
}

func analyzeNs(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if !isTopLevel(env) {
		return nil, errorf(form, "'ns can only be used at the top level")
	}
	if len(form.Cells) < 2 {
		return nil, errorf(form, "'ns requires a namespace name")
	}
	name := form.Cells[1]
	if name.Type != lisp.LSymbol || name.Ns != "" {
		return nil, errorf(name, "First argument of 'ns must be an unqualified symbol")
	}
	ns := strings.TrimPrefix(name.Str, `\`)
	a.reg.SetCurrentNamespace(ns)
	a.log.WithField("namespace", ns).Debug("entered namespace")
	node := &ast.NsNode{Base: ast.NewBase(env, form), Ns: ns}
	for _, clause := range form.Cells[2:] {
		if clause.Type != lisp.LList || len(clause.Cells) == 0 || clause.Cells[0].Type != lisp.LKeyword {
			return nil, errorf(clause, "'ns clauses must be lists starting with :require or :use")
		}
		var err error
		switch clause.Cells[0].Str {
		case "require":
			err = a.analyzeRequire(node, clause)
		case "use":
			err = a.analyzeUse(node, clause)
		default:
			err = errorf(clause.Cells[0], "unknown 'ns clause :%s", clause.Cells[0].Str)
		}
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// analyzeRequire handles (:require ns [:as alias] [:refer [sym...]] ...).
func (a *Analyzer) analyzeRequire(node *ast.NsNode, clause *lisp.LVal) error {
	args := clause.Cells[1:]
	for i := 0; i < len(args); {
		required := args[i]
		if required.Type != lisp.LSymbol || required.Ns != "" {
			return errorf(required, ":require expects a namespace name")
		}
		ns := strings.TrimPrefix(required.Str, `\`)
		alias := lastSegment(ns)
		var refers []*lisp.LVal
		i++
		for i+1 < len(args) && args[i].Type == lisp.LKeyword {
			opt, val := args[i], args[i+1]
			switch opt.Str {
			case "as":
				if val.Type != lisp.LSymbol || val.Ns != "" {
					return errorf(val, ":as expects a symbol")
				}
				alias = val.Str
			case "refer":
				if val.Type != lisp.LVector {
					return errorf(val, ":refer expects a vector of symbols")
				}
				for _, sym := range val.Cells {
					if sym.Type != lisp.LSymbol || sym.Ns != "" {
						return errorf(sym, ":refer expects a vector of symbols")
					}
				}
				refers = val.Cells
			default:
				return errorf(opt, "unknown :require option :%s", opt.Str)
			}
			i += 2
		}
		if i < len(args) && args[i].Type == lisp.LKeyword {
			return errorf(args[i], "missing value for :%s", args[i].Str)
		}
		a.reg.AddRequireAlias(node.Ns, alias, ns)
		for _, sym := range refers {
			a.reg.AddRefer(node.Ns, sym.Str, ns)
		}
		node.Requires = append(node.Requires, ns)
	}
	return nil
}

// analyzeUse handles (:use \Host\Class [:as Alias] ...).
func (a *Analyzer) analyzeUse(node *ast.NsNode, clause *lisp.LVal) error {
	args := clause.Cells[1:]
	for i := 0; i < len(args); {
		class := args[i]
		if class.Type != lisp.LSymbol || class.Ns != "" {
			return errorf(class, ":use expects a class name")
		}
		name := class.Str
		if !strings.HasPrefix(name, `\`) {
			name = `\` + name
		}
		alias := lastSegment(name)
		i++
		if i+1 < len(args) && args[i].Type == lisp.LKeyword && args[i].Str == "as" {
			if args[i+1].Type != lisp.LSymbol {
				return errorf(args[i+1], ":as expects a symbol")
			}
			alias = args[i+1].Str
			i += 2
		}
		a.reg.AddUseAlias(node.Ns, alias, name)
		node.Uses = append(node.Uses, &ast.UseAlias{Class: name, Alias: alias})
	}
	return nil
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, `\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

func analyzeFn(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) < 2 || form.Cells[1].Type != lisp.LVector {
		return nil, errorf(form, "First argument of 'fn must be a vector")
	}
	params, err := DestructureParams(form.Cells[1])
	if err != nil {
		return nil, err
	}
	body := form.Cells[2:]
	if len(params.Bindings) > 0 {
		bindings := make([]*lisp.LVal, 0, 2*len(params.Bindings))
		for _, b := range params.Bindings {
			bindings = append(bindings, b.Pattern, b.Init)
		}
		let := lisp.List(append([]*lisp.LVal{lisp.Symbol("let"), lisp.Vector(bindings...)}, body...)...)
		let = let.At(form.Source, form.End)
		body = []*lisp.LVal{let}
	}

	isParam := make(map[string]bool, len(params.Symbols))
	fnEnv := env
	for _, p := range params.Symbols {
		isParam[p.Str] = true
		fnEnv = fnEnv.WithoutShadowedLocal(p.Str)
	}
	frame := ast.NewRecurFrame(params.Symbols)
	fnEnv = fnEnv.WithMergedLocals(params.Symbols...).
		WithContext(ast.Return).
		WithRecurFrame(frame).
		WithBoundTo("").
		WithDefAllowed(false)
	bodyNode, err := a.analyzeBody(form, body, fnEnv)
	if err != nil {
		return nil, err
	}

	var uses []*lisp.LVal
	for _, l := range env.Locals() {
		if isParam[l.Str] {
			continue
		}
		if shadow, ok := env.Shadowed(l.Str); ok {
			uses = append(uses, shadow)
		} else {
			uses = append(uses, l)
		}
	}
	return &ast.FnNode{
		Base:       ast.NewBase(env, form),
		Params:     params.Symbols,
		Body:       bodyNode,
		Uses:       uses,
		IsVariadic: params.Variadic,
		Recurs:     frame.IsActive(),
	}, nil
}

func analyzeLet(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	return a.analyzeLetForm(form, env, false)
}

func analyzeLoop(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	return a.analyzeLetForm(form, env, true)
}

func (a *Analyzer) analyzeLetForm(form *lisp.LVal, env *ast.NodeEnvironment, isLoop bool) (ast.Node, error) {
	if len(form.Cells) < 2 || form.Cells[1].Type != lisp.LVector {
		return nil, errorf(form, "Binding parameter must be a vector")
	}
	vec := form.Cells[1]
	if len(vec.Cells)%2 != 0 {
		return nil, errorf(vec, "Bindings must be a even number of parameters")
	}
	if isLoop && !symbolBindings(vec.Cells) {
		return a.Analyze(rewriteLoop(form), env)
	}
	bindings, err := DestructureBindings(vec)
	if err != nil {
		return nil, err
	}

	letEnv := env
	nodes := make([]*ast.BindingNode, len(bindings))
	for i, b := range bindings {
		init, err := a.Analyze(b.Init, expressionEnv(letEnv))
		if err != nil {
			return nil, err
		}
		sym := b.Pattern
		shadow := sym
		if letEnv.HasLocal(sym.Str) {
			shadow = lisp.GensymPrefix(sym.Str)
			letEnv = letEnv.WithShadowedLocal(sym.Str, shadow)
		} else {
			letEnv = letEnv.WithoutShadowedLocal(sym.Str)
		}
		letEnv = letEnv.WithMergedLocals(sym)
		nodes[i] = &ast.BindingNode{
			Base:   ast.NewBase(letEnv, sym),
			Symbol: sym,
			Shadow: shadow,
			Init:   init,
		}
	}

	bodyEnv := letEnv.WithContext(bodyContext(env))
	var frame *ast.RecurFrame
	if isLoop {
		params := make([]*lisp.LVal, len(nodes))
		for i, b := range nodes {
			params[i] = b.Shadow
		}
		frame = ast.NewRecurFrame(params)
		bodyEnv = bodyEnv.WithRecurFrame(frame)
	}
	body, err := a.analyzeBody(form, form.Cells[2:], bodyEnv)
	if err != nil {
		return nil, err
	}
	return &ast.LetNode{
		Base:     ast.NewBase(env, form),
		Bindings: nodes,
		Body:     body,
		IsLoop:   isLoop,
		Recurs:   frame.IsActive(),
	}, nil
}

func symbolBindings(cells []*lisp.LVal) bool {
	for i := 0; i < len(cells); i += 2 {
		if cells[i].Type != lisp.LSymbol || cells[i].IsSymbol("_") {
			return false
		}
	}
	return true
}

// rewriteLoop converts a loop with destructuring patterns into a loop over
// generated symbols whose body destructures them.  Recur rebinds the
// generated symbols.
func rewriteLoop(form *lisp.LVal) *lisp.LVal {
	vec := form.Cells[1]
	var loopBindings, letBindings []*lisp.LVal
	for i := 0; i < len(vec.Cells); i += 2 {
		pattern, init := vec.Cells[i], vec.Cells[i+1]
		if pattern.Type == lisp.LSymbol && !pattern.IsSymbol("_") {
			loopBindings = append(loopBindings, pattern, init)
			continue
		}
		g := lisp.Gensym()
		loopBindings = append(loopBindings, g, init)
		letBindings = append(letBindings, pattern, g)
	}
	let := lisp.List(append([]*lisp.LVal{lisp.Symbol("let"), lisp.Vector(letBindings...)}, form.Cells[2:]...)...)
	let = let.At(form.Source, form.End)
	loop := lisp.List(lisp.Symbol("loop"), lisp.Vector(loopBindings...), let)
	return loop.At(form.Source, form.End)
}

func analyzeRecur(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	frame := env.CurrentRecurFrame()
	if frame == nil || env.IsContext(ast.Expression) {
		return nil, errorf(form, "Can't call 'recur here")
	}
	args := form.Cells[1:]
	if len(args) != len(frame.Params) {
		return nil, errorf(form, "Wrong number of arguments for 'recur. Expected: %d args, got: %d", len(frame.Params), len(args))
	}
	nodes, err := a.analyzeArgs(args, env)
	if err != nil {
		return nil, err
	}
	frame.SetActive()
	return &ast.RecurNode{Base: ast.NewBase(env, form), Frame: frame, Args: nodes}, nil
}

func analyzeTry(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	var body, catches []*lisp.LVal
	var finally *lisp.LVal
	for _, x := range form.Cells[1:] {
		switch {
		case isListHeaded(x, "catch"):
			if finally != nil {
				return nil, errorf(x, "'catch must precede 'finally")
			}
			catches = append(catches, x)
		case isListHeaded(x, "finally"):
			if finally != nil {
				return nil, errorf(x, "'try accepts only one 'finally")
			}
			finally = x
		default:
			if len(catches) > 0 || finally != nil {
				return nil, errorf(x, "body forms of 'try must precede 'catch and 'finally")
			}
			body = append(body, x)
		}
	}
	bodyEnv := env.WithContext(bodyContext(env)).WithDisallowRecurFrame()
	if len(catches) == 0 && finally == nil {
		return a.analyzeBody(form, body, env)
	}
	bodyNode, err := a.analyzeBody(form, body, bodyEnv)
	if err != nil {
		return nil, err
	}
	node := &ast.TryNode{Base: ast.NewBase(env, form), Body: bodyNode}
	for _, c := range catches {
		if len(c.Cells) < 3 || c.Cells[1].Type != lisp.LSymbol || c.Cells[2].Type != lisp.LSymbol {
			return nil, errorf(c, "'catch requires a class name and a symbol")
		}
		class, err := a.resolveClassName(c.Cells[1], env)
		if err != nil {
			return nil, err
		}
		name := c.Cells[2]
		catchEnv := bodyEnv.WithoutShadowedLocal(name.Str).WithMergedLocals(name)
		catchBody, err := a.analyzeBody(c, c.Cells[3:], catchEnv)
		if err != nil {
			return nil, err
		}
		node.Catches = append(node.Catches, &ast.CatchNode{
			Base: ast.NewBase(catchEnv, c),
			Type: class,
			Name: name,
			Body: catchBody,
		})
	}
	if finally != nil {
		finEnv := env.WithContext(ast.Statement).WithDisallowRecurFrame()
		fin, err := a.analyzeBody(finally, finally.Cells[1:], finEnv)
		if err != nil {
			return nil, err
		}
		node.Finally = fin
	}
	return node, nil
}

func isListHeaded(x *lisp.LVal, name string) bool {
	return x.Type == lisp.LList && len(x.Cells) > 0 && x.Cells[0].IsSymbol(name)
}

func analyzeThrow(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 2 {
		return nil, errorf(form, "'throw requires exactly one argument")
	}
	exc, err := a.Analyze(form.Cells[1], expressionEnv(env))
	if err != nil {
		return nil, err
	}
	return &ast.ThrowNode{Base: ast.NewBase(env, form), Exception: exc}, nil
}

func analyzeApply(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) < 3 {
		return nil, errorf(form, "'apply requires at least two arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	return &ast.ApplyNode{Base: ast.NewBase(env, form), Fn: args[0], Args: args[1:]}, nil
}

func analyzeForeach(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) < 2 || form.Cells[1].Type != lisp.LVector {
		return nil, errorf(form, "First argument of 'foreach must be a vector")
	}
	vec := form.Cells[1]
	if len(vec.Cells) != 2 && len(vec.Cells) != 3 {
		return nil, errorf(vec, "Vector of 'foreach must have exactly two or three elements")
	}
	coll, err := a.Analyze(vec.Cells[len(vec.Cells)-1], expressionEnv(env))
	if err != nil {
		return nil, err
	}
	body := form.Cells[2:]
	var key, value *lisp.LVal
	var patterns []*lisp.LVal
	bindSym := func(x *lisp.LVal) *lisp.LVal {
		if x.Type == lisp.LSymbol && !x.IsSymbol("_") {
			return x
		}
		g := lisp.Gensym()
		patterns = append(patterns, x, g)
		return g
	}
	if len(vec.Cells) == 3 {
		key = bindSym(vec.Cells[0])
		value = bindSym(vec.Cells[1])
	} else {
		value = bindSym(vec.Cells[0])
	}
	if len(patterns) > 0 {
		let := lisp.List(append([]*lisp.LVal{lisp.Symbol("let"), lisp.Vector(patterns...)}, body...)...)
		body = []*lisp.LVal{let.At(form.Source, form.End)}
	}
	bodyEnv := env.WithContext(ast.Statement).WithDisallowRecurFrame()
	for _, sym := range []*lisp.LVal{key, value} {
		if sym != nil {
			bodyEnv = bodyEnv.WithoutShadowedLocal(sym.Str).WithMergedLocals(sym)
		}
	}
	bodyNode, err := a.analyzeBody(form, body, bodyEnv)
	if err != nil {
		return nil, err
	}
	return &ast.ForeachNode{
		Base:  ast.NewBase(env, form),
		Key:   key,
		Value: value,
		Coll:  coll,
		Body:  bodyNode,
	}, nil
}

func analyzeSetVar(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (ast.Node, error) {
	if len(form.Cells) != 3 {
		return nil, errorf(form, "'set-var requires exactly two arguments")
	}
	args, err := a.analyzeArgs(form.Cells[1:], env)
	if err != nil {
		return nil, err
	}
	return &ast.SetVarNode{Base: ast.NewBase(env, form), Var: args[0], Value: args[1]}, nil
}
