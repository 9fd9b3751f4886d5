// Copyright © 2024 The LISPC authors

package analyzer

import (
	"github.com/luthersystems/lispc/lisp"
)

// Binding pairs a binding pattern with the form that initializes it.
type Binding struct {
	Pattern *lisp.LVal
	Init    *lisp.LVal
}

type paramState int

const (
	collectingRequired paramState = iota
	collectingRest
	paramsDone
)

// Params is a destructured function parameter list.
type Params struct {
	// Symbols are the parameters of the function.  When Variadic is true
	// the last symbol is bound to the remaining arguments.
	Symbols  []*lisp.LVal
	Variadic bool
	// Bindings destructure the arguments passed in place of patterns.  Each
	// pattern is bound to a generated parameter symbol.
	Bindings []*Binding
}

// DestructureParams parses the parameter vector of a function.  Parameters
// named _ and parameters that are patterns are replaced by generated
// symbols.
func DestructureParams(params *lisp.LVal) (*Params, error) {
	if params.Type != lisp.LVector {
		return nil, errorf(params, "function parameters must be a vector")
	}
	p := &Params{}
	state := collectingRequired
	add := func(param *lisp.LVal) error {
		switch {
		case param.IsSymbol("_"):
			p.Symbols = append(p.Symbols, lisp.Gensym())
		case param.Type == lisp.LSymbol:
			if param.Ns != "" {
				return errorf(param, "parameter names must be unqualified: %s", param.FullName())
			}
			p.Symbols = append(p.Symbols, param)
		case param.Type == lisp.LVector || param.IsMapLike():
			sym := lisp.Gensym()
			p.Symbols = append(p.Symbols, sym)
			p.Bindings = append(p.Bindings, &Binding{Pattern: param, Init: sym})
		default:
			return errorf(param, "invalid parameter: %v", param)
		}
		return nil
	}
	for _, param := range params.Cells {
		switch state {
		case collectingRequired:
			if param.IsSymbol("&") {
				p.Variadic = true
				state = collectingRest
				continue
			}
			if err := add(param); err != nil {
				return nil, err
			}
		case collectingRest:
			if param.IsSymbol("&") {
				return nil, errorf(param, "unexpected & in parameter list")
			}
			if err := add(param); err != nil {
				return nil, err
			}
			state = paramsDone
		case paramsDone:
			return nil, errorf(param, "Unsupported parameter form, only one symbol can follow the & parameter")
		}
	}
	if state == collectingRest {
		return nil, errorf(params, "a symbol must follow the & parameter")
	}
	return p, nil
}

// DestructureBindings flattens a binding vector of pattern/init pairs into
// bindings whose patterns are all symbols.
func DestructureBindings(bindings *lisp.LVal) ([]*Binding, error) {
	if bindings.Type != lisp.LVector {
		return nil, errorf(bindings, "bindings must be a vector")
	}
	if len(bindings.Cells)%2 != 0 {
		return nil, errorf(bindings, "bindings must contain an even number of forms")
	}
	d := &destructurer{}
	for i := 0; i < len(bindings.Cells); i += 2 {
		if err := d.bind(bindings.Cells[i], bindings.Cells[i+1]); err != nil {
			return nil, err
		}
	}
	return d.out, nil
}

// Destructure binds pattern to the value of init.  The result binds only
// symbols and is ordered so each binding may refer to the ones before it.
func Destructure(pattern *lisp.LVal, init *lisp.LVal) ([]*Binding, error) {
	d := &destructurer{}
	if err := d.bind(pattern, init); err != nil {
		return nil, err
	}
	return d.out, nil
}

type destructurer struct {
	out []*Binding
}

func (d *destructurer) emit(sym *lisp.LVal, init *lisp.LVal) {
	d.out = append(d.out, &Binding{Pattern: sym, Init: init})
}

func (d *destructurer) bind(pattern *lisp.LVal, init *lisp.LVal) error {
	switch {
	case pattern.IsSymbol("_"):
		d.emit(lisp.Gensym(), init)
		return nil
	case pattern.Type == lisp.LSymbol:
		if pattern.Ns != "" {
			return errorf(pattern, "binding names must be unqualified: %s", pattern.FullName())
		}
		if pattern.Str == "&" {
			return errorf(pattern, "unexpected & in binding")
		}
		d.emit(pattern, init)
		return nil
	case pattern.Type == lisp.LVector:
		return d.bindSeq(pattern, init)
	case pattern.IsMapLike():
		return d.bindMap(pattern, init)
	}
	return errorf(pattern, "Can not destructure %s", pattern.Type)
}

// bindSeq walks the elements of a sequence with first and next.  An element
// following & is bound to the remaining sequence.
func (d *destructurer) bindSeq(pattern *lisp.LVal, init *lisp.LVal) error {
	cur := lisp.Gensym()
	d.emit(cur, init)
	cells := pattern.Cells
	for i := 0; i < len(cells); i++ {
		if cells[i].IsSymbol("&") {
			if i != len(cells)-2 {
				return errorf(pattern, "Unsupported binding form, only one symbol can follow the & parameter")
			}
			return d.bind(cells[i+1], cur)
		}
		if err := d.bind(cells[i], lisp.List(coreSym("first"), cur)); err != nil {
			return err
		}
		if i < len(cells)-1 {
			next := lisp.Gensym()
			d.emit(next, lisp.List(coreSym("next"), cur))
			cur = next
		}
	}
	return nil
}

// bindMap binds each value pattern of a map pattern to the entry of its key.
func (d *destructurer) bindMap(pattern *lisp.LVal, init *lisp.LVal) error {
	m := lisp.Gensym()
	d.emit(m, init)
	for _, entry := range pattern.Map.Entries() {
		get := lisp.List(coreSym("get"), m, entry.Key)
		if err := d.bind(entry.Val, get); err != nil {
			return err
		}
	}
	return nil
}

func coreSym(name string) *lisp.LVal {
	return lisp.NsSymbol(lisp.CoreNamespace, name)
}
