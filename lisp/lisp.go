// Copyright © 2024 The LISPC authors

// Package lisp defines the values the reader produces from source text and
// the analyzer consumes.  Code is data: a program is a sequence of LVals.
package lisp

import (
	"strings"

	"github.com/luthersystems/lispc/parser/token"
)

// LType is the type of an LVal
type LType uint

// Possible LType values
const (
	// LInvalid (0) is not a valid lisp type.
	LInvalid LType = iota
	LNil
	// LBool values store their value in LVal.Bool.
	LBool
	// LInt values store an int64 in the LVal.Int field.
	LInt
	// LFloat values store a float64 in the LVal.Float field.
	LFloat
	// LString values store a string in the LVal.Str field.
	LString
	// LSymbol values store their name in LVal.Str and an optional namespace
	// in LVal.Ns.
	LSymbol
	// LKeyword values are stored like symbols.
	LKeyword
	// LList values store their elements in LVal.Cells.
	LList
	// LVector values store their elements in LVal.Cells.
	LVector
	// LMap values store their entries in LVal.Map.  Entries keep insertion
	// order.
	LMap
	// LTable values are mutable host arrays.  They are stored like maps.
	LTable
	// LFun values are functions created while expanding macros at compile
	// time.  The implementation is stored in LVal.Native.
	LFun
	// LTypeMax is not a real type but represents a value numerically greater
	// than all valid LType values.
	LTypeMax
)

var lvalTypeStrings = []string{
	LInvalid: "INVALID",
	LNil:     "nil",
	LBool:    "boolean",
	LInt:     "int",
	LFloat:   "float",
	LString:  "string",
	LSymbol:  "symbol",
	LKeyword: "keyword",
	LList:    "list",
	LVector:  "vector",
	LMap:     "map",
	LTable:   "table",
	LFun:     "function",
}

func (t LType) String() string {
	if t >= LType(len(lvalTypeStrings)) {
		return lvalTypeStrings[LInvalid]
	}
	return lvalTypeStrings[t]
}

// LVal is a lisp value
type LVal struct {
	// Source is the value's originating location in source code, if any.
	// Programs should not modify the contents of Source as the reference may
	// be shared by multiple LVals.
	Source *token.Location
	// End is the location just past the value's source text.
	End *token.Location

	// Type is the type of the value.
	Type LType

	// Str is used by LString, LSymbol and LKeyword values.
	Str string
	// Ns is the namespace of a qualified LSymbol or LKeyword.
	Ns string

	// Cells stores the elements of LList and LVector values.
	Cells []*LVal
	// Map stores the entries of LMap and LTable values.
	Map *MapData

	Int   int64
	Float float64
	Bool  bool

	// Native holds the implementation of an LFun.
	Native interface{}

	// Meta is an LMap of metadata attached to the value, or nil.
	Meta *LVal
}

var (
	singletonNil   = &LVal{Type: LNil}
	singletonTrue  = &LVal{Type: LBool, Bool: true}
	singletonFalse = &LVal{Type: LBool}
)

// Nil returns an LVal representing nil.
//
// The returned value is a shared singleton, callers must not mutate it.  Use
// At to obtain a located copy.
func Nil() *LVal {
	return singletonNil
}

// Bool returns the boolean LVal for b.  The returned value is shared.
func Bool(b bool) *LVal {
	if b {
		return singletonTrue
	}
	return singletonFalse
}

// Int returns an LVal representing the number x.
func Int(x int64) *LVal {
	return &LVal{Type: LInt, Int: x}
}

// Float returns an LVal representation of the number x
func Float(x float64) *LVal {
	return &LVal{Type: LFloat, Float: x}
}

// String returns an LVal representing the string str.
func String(str string) *LVal {
	return &LVal{Type: LString, Str: str}
}

// Symbol returns an unqualified symbol.
func Symbol(name string) *LVal {
	return &LVal{Type: LSymbol, Str: name}
}

// NsSymbol returns a symbol qualified by namespace ns.
func NsSymbol(ns string, name string) *LVal {
	return &LVal{Type: LSymbol, Ns: ns, Str: name}
}

// ParseSymbol returns the symbol written as text.  A slash separates the
// namespace from the name unless it is the first or last character, so "/"
// and "php//" name the division operator.
func ParseSymbol(text string) *LVal {
	ns, name := splitName(text)
	return NsSymbol(ns, name)
}

// Keyword returns an unqualified keyword.  The name excludes the colon.
func Keyword(name string) *LVal {
	return &LVal{Type: LKeyword, Str: name}
}

// NsKeyword returns a keyword qualified by namespace ns.
func NsKeyword(ns string, name string) *LVal {
	return &LVal{Type: LKeyword, Ns: ns, Str: name}
}

// List returns a list containing cells.  The cells slice is not copied.
func List(cells ...*LVal) *LVal {
	return &LVal{Type: LList, Cells: cells}
}

// Vector returns a vector containing cells.  The cells slice is not copied.
func Vector(cells ...*LVal) *LVal {
	return &LVal{Type: LVector, Cells: cells}
}

// Map returns a map from alternating keys and values.  A trailing key without
// a value maps to nil.
func Map(kvs ...*LVal) *LVal {
	return &LVal{Type: LMap, Map: mapFromKVs(kvs)}
}

// Table returns a table from alternating keys and values.
func Table(kvs ...*LVal) *LVal {
	return &LVal{Type: LTable, Map: mapFromKVs(kvs)}
}

// Fun returns a function value named name.
func Fun(name string, native interface{}) *LVal {
	return &LVal{Type: LFun, Str: name, Native: native}
}

func splitName(text string) (ns, name string) {
	i := strings.Index(text, "/")
	if i <= 0 || i >= len(text)-1 {
		return "", text
	}
	return text[:i], text[i+1:]
}

// At sets the source span of v and returns it.  The shared nil and boolean
// values are copied first.
func (v *LVal) At(start, end *token.Location) *LVal {
	if v == singletonNil || v == singletonTrue || v == singletonFalse {
		cp := *v
		v = &cp
	}
	v.Source = start
	v.End = end
	return v
}

// FullName returns the qualified name of a symbol or keyword, without the
// leading colon of a keyword.
func (v *LVal) FullName() string {
	if v.Ns == "" {
		return v.Str
	}
	return v.Ns + "/" + v.Str
}

// IsSymbol returns true if v is an unqualified symbol named name.
func (v *LVal) IsSymbol(name string) bool {
	return v != nil && v.Type == LSymbol && v.Ns == "" && v.Str == name
}

// IsNil returns true if v is nil.
func (v *LVal) IsNil() bool {
	return v == nil || v.Type == LNil
}

// IsSeq returns true for lists and vectors.
func (v *LVal) IsSeq() bool {
	return v.Type == LList || v.Type == LVector
}

// IsMapLike returns true for maps and tables.
func (v *LVal) IsMapLike() bool {
	return v.Type == LMap || v.Type == LTable
}

// IsNumeric returns true for ints and floats.
func (v *LVal) IsNumeric() bool {
	return v.Type == LInt || v.Type == LFloat
}

// IsTruthy returns false only for nil and false.
func (v *LVal) IsTruthy() bool {
	switch v.Type {
	case LNil:
		return false
	case LBool:
		return v.Bool
	}
	return true
}

// Len returns the number of elements in a collection or the number of bytes
// in a string.
func (v *LVal) Len() int {
	switch v.Type {
	case LList, LVector:
		return len(v.Cells)
	case LMap, LTable:
		return v.Map.Len()
	case LString:
		return len(v.Str)
	}
	return 0
}

// SupportsMeta returns true if metadata can be attached to v.
func (v *LVal) SupportsMeta() bool {
	switch v.Type {
	case LSymbol, LKeyword, LList, LVector, LMap, LTable:
		return true
	}
	return false
}

// WithMeta returns a shallow copy of v carrying the metadata map meta.
func (v *LVal) WithMeta(meta *LVal) *LVal {
	cp := *v
	cp.Meta = meta
	return &cp
}

// MetaGet returns the metadata value stored under key, or nil.
func (v *LVal) MetaGet(key *LVal) *LVal {
	if v.Meta == nil {
		return Nil()
	}
	x, ok := v.Meta.Map.Get(key)
	if !ok {
		return Nil()
	}
	return x
}

// HasMetaFlag returns true if the keyword :name is truthy in v's metadata.
func (v *LVal) HasMetaFlag(name string) bool {
	return v.MetaGet(Keyword(name)).IsTruthy()
}

// Copy returns a copy of v.  Collections are copied deeply.
func (v *LVal) Copy() *LVal {
	if v == nil {
		return nil
	}
	cp := *v
	if len(v.Cells) > 0 {
		cp.Cells = make([]*LVal, len(v.Cells))
		for i, c := range v.Cells {
			cp.Cells[i] = c.Copy()
		}
	}
	if v.Map != nil {
		cp.Map = v.Map.Copy()
	}
	return &cp
}

// Equal returns true if v and other are structurally equal.  Metadata and
// source locations are ignored.  Numbers of different types are never equal.
func (v *LVal) Equal(other *LVal) bool {
	if v == nil || other == nil {
		return v.IsNil() && other.IsNil()
	}
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case LNil:
		return true
	case LBool:
		return v.Bool == other.Bool
	case LInt:
		return v.Int == other.Int
	case LFloat:
		return v.Float == other.Float
	case LString:
		return v.Str == other.Str
	case LSymbol, LKeyword:
		return v.Ns == other.Ns && v.Str == other.Str
	case LList, LVector:
		if len(v.Cells) != len(other.Cells) {
			return false
		}
		for i := range v.Cells {
			if !v.Cells[i].Equal(other.Cells[i]) {
				return false
			}
		}
		return true
	case LMap, LTable:
		return v.Map.Equal(other.Map)
	case LFun:
		return v == other
	}
	return false
}

// Names shared by the reader and the analyzer.
const (
	// CoreNamespace holds the language's core definitions.  It is referred
	// into every namespace.
	CoreNamespace = `lispc\core`
	// DefaultNamespace is the namespace in effect before any ns form.
	DefaultNamespace = "user"
)
