// Copyright © 2024 The LISPC authors

package ast

import (
	"github.com/luthersystems/lispc/lisp"
)

// Context describes the position of a node in the generated code.
type Context uint8

const (
	// Statement nodes produce no value.
	Statement Context = iota
	// Expression nodes produce a value used by the enclosing node.
	Expression
	// Return nodes produce the value returned by the enclosing function.
	Return
)

func (c Context) String() string {
	switch c {
	case Statement:
		return "statement"
	case Expression:
		return "expression"
	case Return:
		return "return"
	}
	return "invalid"
}

// RecurFrame is a recursion point: a fn or a loop.  Params are the symbols
// rebound by recur.
type RecurFrame struct {
	Params []*lisp.LVal
	active bool
}

// NewRecurFrame returns a frame rebinding params.
func NewRecurFrame(params []*lisp.LVal) *RecurFrame {
	return &RecurFrame{Params: params}
}

// SetActive marks the frame as the target of at least one recur.
func (f *RecurFrame) SetActive() {
	f.active = true
}

// IsActive returns true if a recur targets the frame.
func (f *RecurFrame) IsActive() bool {
	return f != nil && f.active
}

// NodeEnvironment is the lexical context of a node.  Environments are
// immutable; every With method returns a modified copy.
type NodeEnvironment struct {
	locals      []*lisp.LVal
	context     Context
	shadowed    map[string]*lisp.LVal
	recurFrames []*RecurFrame
	boundTo     string
	defAllowed  bool
}

// NewNodeEnvironment returns the environment of a top-level form.
func NewNodeEnvironment() *NodeEnvironment {
	return &NodeEnvironment{
		context:    Statement,
		defAllowed: true,
	}
}

func (env *NodeEnvironment) copy() *NodeEnvironment {
	cp := *env
	return &cp
}

// Locals returns the bound local symbols, outermost first.
func (env *NodeEnvironment) Locals() []*lisp.LVal {
	return env.locals
}

// HasLocal returns true if name is bound in env.
func (env *NodeEnvironment) HasLocal(name string) bool {
	for _, l := range env.locals {
		if l.Str == name {
			return true
		}
	}
	return false
}

// Context returns the position of the node.
func (env *NodeEnvironment) Context() Context {
	return env.context
}

// IsContext returns true if the environment's context is c.
func (env *NodeEnvironment) IsContext(c Context) bool {
	return env.context == c
}

// Shadowed returns the symbol that replaces the local name in generated
// code, if the binding was renamed.
func (env *NodeEnvironment) Shadowed(name string) (*lisp.LVal, bool) {
	sym, ok := env.shadowed[name]
	return sym, ok
}

// CurrentRecurFrame returns the innermost recursion point.  It returns nil
// when recur is not allowed at the current position.
func (env *NodeEnvironment) CurrentRecurFrame() *RecurFrame {
	if len(env.recurFrames) == 0 {
		return nil
	}
	return env.recurFrames[len(env.recurFrames)-1]
}

// BoundTo returns the qualified name of the definition the node initializes,
// or the empty string.
func (env *NodeEnvironment) BoundTo() string {
	return env.boundTo
}

// DefAllowed returns true if def forms may appear at the current position.
func (env *NodeEnvironment) DefAllowed() bool {
	return env.defAllowed
}

// WithContext returns a copy of env with context c.
func (env *NodeEnvironment) WithContext(c Context) *NodeEnvironment {
	cp := env.copy()
	cp.context = c
	return cp
}

// WithMergedLocals returns a copy of env with syms added to the locals.
// Symbols already bound keep their position.
func (env *NodeEnvironment) WithMergedLocals(syms ...*lisp.LVal) *NodeEnvironment {
	cp := env.copy()
	cp.locals = make([]*lisp.LVal, len(env.locals), len(env.locals)+len(syms))
	copy(cp.locals, env.locals)
	for _, sym := range syms {
		if !cp.HasLocal(sym.Str) {
			cp.locals = append(cp.locals, lisp.Symbol(sym.Str))
		}
	}
	return cp
}

// WithLocals returns a copy of env whose locals are exactly syms.
func (env *NodeEnvironment) WithLocals(syms []*lisp.LVal) *NodeEnvironment {
	cp := env.copy()
	cp.locals = nil
	return cp.WithMergedLocals(syms...)
}

// WithShadowedLocal returns a copy of env in which references to name are
// replaced by shadow.
func (env *NodeEnvironment) WithShadowedLocal(name string, shadow *lisp.LVal) *NodeEnvironment {
	cp := env.copy()
	cp.shadowed = make(map[string]*lisp.LVal, len(env.shadowed)+1)
	for k, v := range env.shadowed {
		cp.shadowed[k] = v
	}
	cp.shadowed[name] = shadow
	return cp
}

// WithoutShadowedLocal returns a copy of env in which name is no longer
// renamed.  A new binding of name hides an outer renamed binding.
func (env *NodeEnvironment) WithoutShadowedLocal(name string) *NodeEnvironment {
	if _, ok := env.shadowed[name]; !ok {
		return env
	}
	cp := env.copy()
	cp.shadowed = make(map[string]*lisp.LVal, len(env.shadowed))
	for k, v := range env.shadowed {
		if k != name {
			cp.shadowed[k] = v
		}
	}
	return cp
}

// WithRecurFrame returns a copy of env with a new innermost recursion point.
func (env *NodeEnvironment) WithRecurFrame(frame *RecurFrame) *NodeEnvironment {
	cp := env.copy()
	cp.recurFrames = make([]*RecurFrame, len(env.recurFrames), len(env.recurFrames)+1)
	copy(cp.recurFrames, env.recurFrames)
	cp.recurFrames = append(cp.recurFrames, frame)
	return cp
}

// WithDisallowRecurFrame returns a copy of env in which recur is invalid.
// It is used for every position that is not in tail position.
func (env *NodeEnvironment) WithDisallowRecurFrame() *NodeEnvironment {
	if env.CurrentRecurFrame() == nil {
		return env
	}
	return env.WithRecurFrame(nil)
}

// WithBoundTo returns a copy of env naming the definition being initialized.
func (env *NodeEnvironment) WithBoundTo(name string) *NodeEnvironment {
	cp := env.copy()
	cp.boundTo = name
	return cp
}

// WithDefAllowed returns a copy of env that permits or forbids def forms.
func (env *NodeEnvironment) WithDefAllowed(allowed bool) *NodeEnvironment {
	cp := env.copy()
	cp.defAllowed = allowed
	return cp
}
