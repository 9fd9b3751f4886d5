// Copyright © 2024 The LISPC authors

package analyzer

import (
	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/lisp"
)

// coreMacros are the macros of the core namespace.  They are implemented
// natively so the core library needs no bootstrap phase.
var coreMacros map[string]Expander

func init() {
	coreMacros = map[string]Expander{
		"defn":         expandDefn(false, false),
		"defn-":        expandDefn(true, false),
		"defmacro":     expandDefn(false, true),
		"defmacro-":    expandDefn(true, true),
		"when":         expandWhen,
		"when-not":     expandWhenNot,
		"if-not":       expandIfNot,
		"cond":         expandCond,
		"and":          expandAnd,
		"or":           expandOr,
		"->":           expandThread(false),
		"->>":          expandThread(true),
		"comment":      expandComment,
		"declare":      expandDeclare,
		"if-let":       expandIfLet,
		"when-let":     expandWhenLet,
		"dotimes":      expandDotimes,
		"defstruct":    expandDefStruct,
		"definterface": expandDefInterface,
		"defexception": expandDefException,
	}
}

func sym(name string) *lisp.LVal {
	return lisp.Symbol(name)
}

func list(cells ...*lisp.LVal) *lisp.LVal {
	return lisp.List(cells...)
}

func prepend(head []*lisp.LVal, tail []*lisp.LVal) []*lisp.LVal {
	out := make([]*lisp.LVal, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

// expandDefn expands (defn name doc? meta? [params] body...) into a def of a
// fn.
func expandDefn(private bool, macro bool) Expander {
	return func(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
		head := form.Cells[0].Str
		args := form.Cells[1:]
		if len(args) < 2 {
			return nil, errorf(form, "'%s requires a name and a parameter vector", head)
		}
		name := args[0]
		if name.Type != lisp.LSymbol || name.Ns != "" {
			return nil, errorf(name, "First argument of '%s must be an unqualified symbol", head)
		}
		meta := lisp.Map()
		if name.Meta != nil {
			meta.Map.Merge(name.Meta.Map)
		}
		args = args[1:]
		if len(args) > 0 && args[0].Type == lisp.LString {
			meta.Map.Set(lisp.Keyword("doc"), args[0])
			args = args[1:]
		}
		if len(args) > 0 && args[0].Type == lisp.LMap {
			meta.Map.Merge(args[0].Map)
			args = args[1:]
		}
		if len(args) == 0 || args[0].Type != lisp.LVector {
			return nil, errorf(form, "'%s requires a parameter vector", head)
		}
		if private {
			meta.Map.Set(lisp.Keyword("private"), lisp.Bool(true))
		}
		if macro {
			meta.Map.Set(lisp.Keyword("macro"), lisp.Bool(true))
		}
		fn := list(prepend([]*lisp.LVal{sym("fn")}, args)...).At(form.Source, form.End)
		return list(sym("def"), name.WithMeta(meta), fn), nil
	}
}

func expandWhen(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	if len(form.Cells) < 2 {
		return nil, errorf(form, "'when requires a test")
	}
	body := list(prepend([]*lisp.LVal{sym("do")}, form.Cells[2:])...)
	return list(sym("if"), form.Cells[1], body), nil
}

func expandWhenNot(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	if len(form.Cells) < 2 {
		return nil, errorf(form, "'when-not requires a test")
	}
	body := list(prepend([]*lisp.LVal{sym("do")}, form.Cells[2:])...)
	return list(sym("if"), form.Cells[1], lisp.Nil(), body), nil
}

func expandIfNot(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	switch len(form.Cells) {
	case 3:
		return list(sym("if"), form.Cells[1], lisp.Nil(), form.Cells[2]), nil
	case 4:
		return list(sym("if"), form.Cells[1], form.Cells[3], form.Cells[2]), nil
	}
	return nil, errorf(form, "'if-not requires two or three arguments")
}

func expandCond(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	clauses := form.Cells[1:]
	if len(clauses)%2 != 0 {
		return nil, errorf(form, "'cond requires an even number of forms")
	}
	out := lisp.Nil()
	for i := len(clauses) - 2; i >= 0; i -= 2 {
		test, then := clauses[i], clauses[i+1]
		if test.Type == lisp.LKeyword && test.Str == "else" {
			test = lisp.Bool(true)
		}
		out = list(sym("if"), test, then, out)
	}
	return out, nil
}

func expandAnd(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	args := form.Cells[1:]
	switch len(args) {
	case 0:
		return lisp.Bool(true), nil
	case 1:
		return args[0], nil
	}
	g := lisp.GensymPrefix("and")
	rest := list(prepend([]*lisp.LVal{sym("and")}, args[1:])...)
	return list(sym("let"), lisp.Vector(g, args[0]), list(sym("if"), g, rest, g)), nil
}

func expandOr(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	args := form.Cells[1:]
	switch len(args) {
	case 0:
		return lisp.Nil(), nil
	case 1:
		return args[0], nil
	}
	g := lisp.GensymPrefix("or")
	rest := list(prepend([]*lisp.LVal{sym("or")}, args[1:])...)
	return list(sym("let"), lisp.Vector(g, args[0]), list(sym("if"), g, g, rest)), nil
}

// expandThread threads a value through forms as the first (or last)
// argument of each.
func expandThread(last bool) Expander {
	return func(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
		if len(form.Cells) < 2 {
			return nil, errorf(form, "'%s requires at least one argument", form.Cells[0].Str)
		}
		x := form.Cells[1]
		for _, step := range form.Cells[2:] {
			if step.Type != lisp.LList {
				x = list(step, x)
				continue
			}
			if len(step.Cells) == 0 {
				return nil, errorf(step, "cannot thread through an empty list")
			}
			if last {
				x = list(prepend(step.Cells, []*lisp.LVal{x})...)
			} else {
				x = list(prepend([]*lisp.LVal{step.Cells[0], x}, step.Cells[1:])...)
			}
			x = x.At(step.Source, step.End)
		}
		return x, nil
	}
}

func expandComment(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	return lisp.Nil(), nil
}

func expandDeclare(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	defs := []*lisp.LVal{sym("do")}
	for _, name := range form.Cells[1:] {
		if name.Type != lisp.LSymbol || name.Ns != "" {
			return nil, errorf(name, "'declare expects unqualified symbols")
		}
		defs = append(defs, list(sym("def"), name))
	}
	return list(defs...), nil
}

func bindingPair(form *lisp.LVal) (*lisp.LVal, *lisp.LVal, error) {
	if len(form.Cells) < 2 || form.Cells[1].Type != lisp.LVector || len(form.Cells[1].Cells) != 2 {
		return nil, nil, errorf(form, "'%s requires a vector with exactly one binding", form.Cells[0].Str)
	}
	return form.Cells[1].Cells[0], form.Cells[1].Cells[1], nil
}

func expandIfLet(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	pattern, test, err := bindingPair(form)
	if err != nil {
		return nil, err
	}
	if len(form.Cells) < 3 || len(form.Cells) > 4 {
		return nil, errorf(form, "'if-let requires a binding vector, a then form and an optional else form")
	}
	g := lisp.GensymPrefix("temp")
	then := list(sym("let"), lisp.Vector(pattern, g), form.Cells[2])
	els := lisp.Nil()
	if len(form.Cells) == 4 {
		els = form.Cells[3]
	}
	return list(sym("let"), lisp.Vector(g, test), list(sym("if"), g, then, els)), nil
}

func expandWhenLet(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	if _, _, err := bindingPair(form); err != nil {
		return nil, err
	}
	body := list(prepend([]*lisp.LVal{sym("do")}, form.Cells[2:])...)
	return list(sym("if-let"), form.Cells[1], body), nil
}

func expandDotimes(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	i, n, err := bindingPair(form)
	if err != nil {
		return nil, err
	}
	if i.Type != lisp.LSymbol {
		return nil, errorf(i, "'dotimes requires a symbol binding")
	}
	limit := lisp.GensymPrefix("n")
	step := list(sym("recur"), list(lisp.NsSymbol("php", "+"), i, lisp.Int(1)))
	body := prepend([]*lisp.LVal{sym("do")}, form.Cells[2:])
	body = append(body, step)
	loop := list(sym("loop"), lisp.Vector(i, lisp.Int(0)),
		list(sym("if"), list(lisp.NsSymbol("php", "<"), i, limit), list(body...), lisp.Nil()))
	return list(sym("let"), lisp.Vector(limit, n), loop), nil
}

// expandDefStruct defines a struct class, a constructor function named
// after the struct and a type predicate.
func expandDefStruct(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	if len(form.Cells) < 3 || form.Cells[1].Type != lisp.LSymbol || form.Cells[2].Type != lisp.LVector {
		return nil, errorf(form, "'defstruct requires a name and a vector of fields")
	}
	name := form.Cells[1]
	fields := form.Cells[2].Cells
	star := list(prepend([]*lisp.LVal{sym("defstruct*")}, form.Cells[1:])...).At(form.Source, form.End)
	ctor := list(sym("fn"), lisp.Vector(fields...),
		list(prepend([]*lisp.LVal{lisp.NsSymbol("php", "new"), name}, fields)...))
	x := lisp.GensymPrefix("x")
	pred := list(sym("fn"), lisp.Vector(x), list(lisp.NsSymbol("php", "instanceof"), x, name))
	return list(sym("do"),
		star,
		list(sym("def"), name, ctor),
		list(sym("def"), lisp.Symbol(name.Str+"?"), pred),
	), nil
}

// expandDefInterface defines an interface and one function per method that
// calls the method on its first argument.
func expandDefInterface(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	out := []*lisp.LVal{
		sym("do"),
		list(prepend([]*lisp.LVal{sym("definterface*")}, form.Cells[1:])...).At(form.Source, form.End),
	}
	for _, m := range form.Cells[min(2, len(form.Cells)):] {
		if m.Type != lisp.LList || len(m.Cells) < 2 || m.Cells[1].Type != lisp.LVector || len(m.Cells[1].Cells) == 0 {
			// Reported by definterface*.
			continue
		}
		name, args := m.Cells[0], m.Cells[1].Cells
		call := list(prepend([]*lisp.LVal{name}, args[1:])...)
		fn := list(sym("fn"), lisp.Vector(args...), list(lisp.NsSymbol("php", "->"), args[0], call))
		out = append(out, list(sym("def"), name, fn))
	}
	return list(out...), nil
}

func expandDefException(a *Analyzer, form *lisp.LVal, env *ast.NodeEnvironment) (*lisp.LVal, error) {
	return list(prepend([]*lisp.LVal{sym("defexception*")}, form.Cells[1:])...), nil
}
