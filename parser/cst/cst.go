// Copyright © 2024 The LISPC authors

// Package cst defines the concrete syntax tree produced by the parser.  The
// tree keeps every token of the source, whitespace and comments included, so
// the original text can be reproduced exactly with Code.
package cst

import (
	"strings"

	"github.com/luthersystems/lispc/parser/token"
)

// Node is a node in the concrete syntax tree.
type Node interface {
	// Code returns the exact source text of the node.
	Code() string
	// Start returns the location of the first rune of the node.
	Start() *token.Location
	// End returns the location just beyond the last rune of the node.
	End() *token.Location
	// IsTrivia returns true for nodes that have no meaning to the reader.
	IsTrivia() bool
}

type leaf struct {
	Token *token.Token
}

func (n *leaf) Code() string           { return n.Token.Text }
func (n *leaf) Start() *token.Location { return n.Token.Source }
func (n *leaf) End() *token.Location   { return n.Token.End }

// Whitespace is a run of horizontal whitespace (commas included).
type Whitespace struct{ leaf }

func (*Whitespace) IsTrivia() bool { return true }

// Newline is a single line break.
type Newline struct{ leaf }

func (*Newline) IsTrivia() bool { return true }

// Comment is a line comment, a block comment or a hash-bang line.
type Comment struct{ leaf }

func (*Comment) IsTrivia() bool { return true }

// NewTrivia returns the trivia node for tok.  NewTrivia returns nil if tok is
// not a trivia token.
func NewTrivia(tok *token.Token) Node {
	switch tok.Type {
	case token.WHITESPACE:
		return &Whitespace{leaf{tok}}
	case token.NEWLINE:
		return &Newline{leaf{tok}}
	case token.COMMENT:
		return &Comment{leaf{tok}}
	}
	return nil
}

type AtomKind uint

const (
	AtomSymbol AtomKind = iota
	AtomKeyword
	AtomNumber
	AtomString
	AtomBool
	AtomNil
)

func (k AtomKind) String() string {
	switch k {
	case AtomSymbol:
		return "symbol"
	case AtomKeyword:
		return "keyword"
	case AtomNumber:
		return "number"
	case AtomString:
		return "string"
	case AtomBool:
		return "bool"
	case AtomNil:
		return "nil"
	}
	return "invalid"
}

// Atom is a single token expression.
type Atom struct {
	leaf
	Kind AtomKind
}

// NewAtom returns an Atom for tok, classifying symbol tokens that name the
// literals nil, true and false.
func NewAtom(tok *token.Token) *Atom {
	kind := AtomSymbol
	switch tok.Type {
	case token.KEYWORD:
		kind = AtomKeyword
	case token.NUMBER:
		kind = AtomNumber
	case token.STRING:
		kind = AtomString
	case token.SYMBOL:
		switch tok.Text {
		case "nil":
			kind = AtomNil
		case "true", "false":
			kind = AtomBool
		}
	}
	return &Atom{leaf: leaf{tok}, Kind: kind}
}

func (*Atom) IsTrivia() bool { return false }

// Text returns the atom's token text.
func (n *Atom) Text() string { return n.Token.Text }

// CommentMacro is a #_ prefix together with the form it discards.  The whole
// node is trivia.
type CommentMacro struct {
	Prefix   *token.Token
	Children []Node // trivia followed by the discarded form
}

func (n *CommentMacro) Code() string {
	return n.Prefix.Text + joinCode(n.Children)
}

func (n *CommentMacro) Start() *token.Location { return n.Prefix.Source }
func (n *CommentMacro) End() *token.Location   { return childrenEnd(n.Children, n.Prefix.End) }
func (*CommentMacro) IsTrivia() bool           { return true }

type ListKind uint

const (
	ListParen   ListKind = iota // (...)
	ListVector                  // [...]
	ListMap                     // {...}
	ListTable                   // #{...}
	ListShortFn                 // #(...)
)

func (k ListKind) String() string {
	switch k {
	case ListParen:
		return "list"
	case ListVector:
		return "vector"
	case ListMap:
		return "map"
	case ListTable:
		return "table"
	case ListShortFn:
		return "short-fn"
	}
	return "invalid"
}

// Closer returns the text of the token that terminates a list of kind k.
func (k ListKind) Closer() string {
	switch k {
	case ListVector:
		return "]"
	case ListMap, ListTable:
		return "}"
	}
	return ")"
}

// List is any bracketed sequence.
type List struct {
	Kind     ListKind
	Open     *token.Token
	Close    *token.Token
	Children []Node
	// Placeholders holds the distinct %, %N and %& symbols found in the body
	// of a ListShortFn, in order of appearance.
	Placeholders []string
}

func (n *List) Code() string {
	var b strings.Builder
	b.WriteString(n.Open.Text)
	for _, c := range n.Children {
		b.WriteString(c.Code())
	}
	if n.Close != nil {
		b.WriteString(n.Close.Text)
	}
	return b.String()
}

func (n *List) Start() *token.Location { return n.Open.Source }

func (n *List) End() *token.Location {
	if n.Close != nil {
		return n.Close.End
	}
	return childrenEnd(n.Children, n.Open.End)
}

func (*List) IsTrivia() bool { return false }

// Forms returns the children of n that are not trivia.
func (n *List) Forms() []Node {
	return Forms(n.Children)
}

type QuoteKind uint

const (
	Quote QuoteKind = iota
	Quasiquote
	Unquote
	UnquoteSplicing
)

func (k QuoteKind) String() string {
	switch k {
	case Quote:
		return "quote"
	case Quasiquote:
		return "quasiquote"
	case Unquote:
		return "unquote"
	case UnquoteSplicing:
		return "unquote-splicing"
	}
	return "invalid"
}

// QuoteKindOf returns the QuoteKind of a prefix token type.
func QuoteKindOf(typ token.Type) (QuoteKind, bool) {
	switch typ {
	case token.QUOTE:
		return Quote, true
	case token.QUASIQUOTE:
		return Quasiquote, true
	case token.UNQUOTE:
		return Unquote, true
	case token.UNQUOTE_SPLICING:
		return UnquoteSplicing, true
	}
	return 0, false
}

// QuoteNode is a prefix operator applied to exactly one form.  Trivia may
// appear between the prefix and the form.
type QuoteNode struct {
	Kind     QuoteKind
	Prefix   *token.Token
	Children []Node
	Form     Node
}

func (n *QuoteNode) Code() string           { return n.Prefix.Text + joinCode(n.Children) }
func (n *QuoteNode) Start() *token.Location { return n.Prefix.Source }
func (n *QuoteNode) End() *token.Location   { return childrenEnd(n.Children, n.Prefix.End) }
func (*QuoteNode) IsTrivia() bool           { return false }

// Meta attaches the metadata form Meta to the form Target: ^meta target.
type Meta struct {
	Caret    *token.Token
	Children []Node
	Meta     Node
	Target   Node
}

func (n *Meta) Code() string           { return n.Caret.Text + joinCode(n.Children) }
func (n *Meta) Start() *token.Location { return n.Caret.Source }
func (n *Meta) End() *token.Location   { return childrenEnd(n.Children, n.Caret.End) }
func (*Meta) IsTrivia() bool           { return false }

// File is the sequence of top-level nodes of a source text.
type File struct {
	Name     string
	Children []Node
}

func (n *File) Code() string { return joinCode(n.Children) }

func (n *File) Start() *token.Location {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0].Start()
}

func (n *File) End() *token.Location { return childrenEnd(n.Children, nil) }
func (*File) IsTrivia() bool         { return false }

// Forms returns the top-level forms of the file.
func (n *File) Forms() []Node {
	return Forms(n.Children)
}

// Forms returns the nodes in children which are not trivia.
func Forms(children []Node) []Node {
	var forms []Node
	for _, c := range children {
		if !c.IsTrivia() {
			forms = append(forms, c)
		}
	}
	return forms
}

// Children returns the direct children of n, trivia included.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *List:
		return n.Children
	case *QuoteNode:
		return n.Children
	case *Meta:
		return n.Children
	case *CommentMacro:
		return n.Children
	case *File:
		return n.Children
	}
	return nil
}

// Inspect traverses the tree rooted at n in depth-first order.  If fn returns
// false the children of the node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, fn)
	}
}

func joinCode(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Code())
	}
	return b.String()
}

func childrenEnd(nodes []Node, def *token.Location) *token.Location {
	if len(nodes) == 0 {
		return def
	}
	return nodes[len(nodes)-1].End()
}
