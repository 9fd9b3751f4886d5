// Copyright © 2024 The LISPC authors

package reader

import (
	"errors"
	"strings"

	"github.com/luthersystems/lispc/lisp"
)

// quasiquoter rewrites the body of a quasiquote form into code that builds
// the quoted data at runtime.  Each quasiquote form gets its own quasiquoter
// so auto-gensyms (name#) are consistent within one expansion and fresh
// across expansions.
type quasiquoter struct {
	resolver SymbolResolver
	gensyms  map[string]*lisp.LVal
}

func coreSymbol(name string) *lisp.LVal {
	return lisp.NsSymbol(lisp.CoreNamespace, name)
}

func (q *quasiquoter) transform(form *lisp.LVal) (*lisp.LVal, error) {
	if isUnquote(form, "unquote") {
		return form.Cells[1], nil
	}
	if isUnquote(form, "unquote-splicing") {
		return nil, errors.New("unquote-splicing used outside of a collection")
	}
	switch form.Type {
	case lisp.LList:
		if len(form.Cells) == 0 {
			return lisp.List(coreSymbol("list")).At(form.Source, form.End), nil
		}
		return q.transformSeq(form, "list", form.Cells)
	case lisp.LVector:
		return q.transformSeq(form, "vector", form.Cells)
	case lisp.LMap:
		return q.transformSeq(form, "hash-map", form.Map.KVs())
	case lisp.LTable:
		return q.transformSeq(form, "table", form.Map.KVs())
	case lisp.LSymbol:
		return quote(q.symbol(form)), nil
	}
	// Self-evaluating values need no quoting.
	return form, nil
}

// transformSeq returns (apply ctor (concat part...)).  Each element becomes a
// part: (list x') for ordinary elements and x for ~@x.
func (q *quasiquoter) transformSeq(form *lisp.LVal, ctor string, cells []*lisp.LVal) (*lisp.LVal, error) {
	parts := []*lisp.LVal{coreSymbol("concat")}
	for _, c := range cells {
		if isUnquote(c, "unquote-splicing") {
			parts = append(parts, c.Cells[1])
			continue
		}
		x, err := q.transform(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, lisp.List(coreSymbol("list"), x))
	}
	apply := lisp.List(
		lisp.Symbol("apply"),
		coreSymbol(ctor),
		lisp.List(parts...),
	)
	return apply.At(form.Source, form.End), nil
}

func (q *quasiquoter) symbol(sym *lisp.LVal) *lisp.LVal {
	if sym.Ns != "" {
		return sym
	}
	if len(sym.Str) > 1 && strings.HasSuffix(sym.Str, "#") {
		name := strings.TrimSuffix(sym.Str, "#")
		g, ok := q.gensyms[name]
		if !ok {
			g = lisp.GensymPrefix(name)
			q.gensyms[name] = g
		}
		return g
	}
	if q.resolver != nil {
		if qualified, ok := q.resolver.QualifySymbol(sym); ok {
			return qualified.At(sym.Source, sym.End)
		}
	}
	return sym
}

func quote(v *lisp.LVal) *lisp.LVal {
	return lisp.List(lisp.Symbol("quote"), v)
}

func isUnquote(form *lisp.LVal, name string) bool {
	return form.Type == lisp.LList && len(form.Cells) == 2 && form.Cells[0].IsSymbol(name)
}
