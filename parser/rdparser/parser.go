// Copyright © 2024 The LISPC authors

package rdparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/lexer"
	"github.com/luthersystems/lispc/parser/token"
)

// Parser is a recursive descent parser producing concrete syntax trees.
type Parser struct {
	src  *TokenSource
	name string
	// open is the stack of lists currently being parsed.
	open    []*cst.List
	shortFn *cst.List
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource) *Parser {
	return &Parser{
		src: src,
	}
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner) *Parser {
	return NewFromSource(NewTokenSource(scanner))
}

// NewString returns a Parser over source named name.
func NewString(name string, source string) *Parser {
	p := NewFromSource(Lex(source, name, 1))
	p.name = name
	return p
}

// Source returns the TokenSource read by p.
func (p *Parser) Source() *TokenSource {
	return p.src
}

// IsParsing returns true if p is in the middle of a bracketed expression.
func (p *Parser) IsParsing() bool {
	return len(p.open) > 0
}

// ParseNext parses the next node of the input, which may be trivia.  At the
// end of input ParseNext returns io.EOF.
func (p *Parser) ParseNext() (cst.Node, error) {
	if p.src.IsEOF() {
		return nil, io.EOF
	}
	return p.parseNode()
}

// ParseForm parses the next top-level form, collecting any trivia preceding
// it.  At the end of input ParseForm returns the collected trivia and io.EOF.
func (p *Parser) ParseForm() (cst.Node, []cst.Node, error) {
	var trivia []cst.Node
	for {
		n, err := p.ParseNext()
		if err != nil {
			return nil, trivia, err
		}
		if !n.IsTrivia() {
			return n, trivia, nil
		}
		trivia = append(trivia, n)
	}
}

// ParseAll parses the entire input.
func (p *Parser) ParseAll() (*cst.File, error) {
	file := &cst.File{Name: p.name}
	for {
		n, err := p.ParseNext()
		if err == io.EOF {
			return file, nil
		}
		if err != nil {
			return file, err
		}
		file.Children = append(file.Children, n)
	}
}

func (p *Parser) parseNode() (cst.Node, error) {
	tok := p.src.Peek()
	switch {
	case tok.Type.IsTrivia():
		p.src.Scan()
		return cst.NewTrivia(tok), nil
	case tok.Type.IsAtom():
		return p.parseAtom()
	case tok.Type.IsPrefix():
		return p.parseQuote()
	}
	switch tok.Type {
	case token.COMMENT_MACRO:
		return p.parseCommentMacro()
	case token.CARET:
		return p.parseMeta()
	case token.PAREN_L:
		return p.parseList(cst.ListParen, token.PAREN_R)
	case token.BRACKET_L:
		return p.parseList(cst.ListVector, token.BRACKET_R)
	case token.BRACE_L:
		return p.parseList(cst.ListMap, token.BRACE_R)
	case token.HASH_BRACE_L:
		return p.parseList(cst.ListTable, token.BRACE_R)
	case token.HASH_PAREN_L:
		return p.parseList(cst.ListShortFn, token.PAREN_R)
	case token.ERROR:
		p.src.Scan()
		return nil, lexer.NewError(tok, p.snippetBefore())
	case token.EOF:
		return nil, p.eofError()
	default:
		p.src.Scan()
		return nil, p.unexpected(tok, "unexpected %q", tok.Text)
	}
}

// parseExpr parses trivia followed by one non-trivia expression.
func (p *Parser) parseExpr(what string) ([]cst.Node, cst.Node, error) {
	var nodes []cst.Node
	for {
		tok := p.src.Peek()
		switch tok.Type {
		case token.EOF:
			return nodes, nil, p.eofError()
		case token.PAREN_R, token.BRACKET_R, token.BRACE_R:
			p.src.Scan()
			return nodes, nil, p.unexpected(tok, "expected a form after %s but found %q", what, tok.Text)
		}
		n, err := p.parseNode()
		if err != nil {
			return nodes, nil, err
		}
		nodes = append(nodes, n)
		if !n.IsTrivia() {
			return nodes, n, nil
		}
	}
}

func (p *Parser) parseAtom() (cst.Node, error) {
	p.src.Scan()
	atom := cst.NewAtom(p.src.Token)
	if p.shortFn != nil && atom.Kind == cst.AtomSymbol && isPlaceholder(atom.Text()) {
		p.addPlaceholder(atom.Text())
	}
	return atom, nil
}

func (p *Parser) parseQuote() (cst.Node, error) {
	p.src.Scan()
	prefix := p.src.Token
	kind, _ := cst.QuoteKindOf(prefix.Type)
	children, form, err := p.parseExpr(prefix.Text)
	if err != nil {
		return nil, err
	}
	return &cst.QuoteNode{
		Kind:     kind,
		Prefix:   prefix,
		Children: children,
		Form:     form,
	}, nil
}

func (p *Parser) parseCommentMacro() (cst.Node, error) {
	p.src.Scan()
	prefix := p.src.Token
	children, _, err := p.parseExpr(prefix.Text)
	if err != nil {
		return nil, err
	}
	return &cst.CommentMacro{
		Prefix:   prefix,
		Children: children,
	}, nil
}

func (p *Parser) parseMeta() (cst.Node, error) {
	p.src.Scan()
	caret := p.src.Token
	children, meta, err := p.parseExpr(caret.Text)
	if err != nil {
		return nil, err
	}
	rest, target, err := p.parseExpr("metadata")
	if err != nil {
		return nil, err
	}
	return &cst.Meta{
		Caret:    caret,
		Children: append(children, rest...),
		Meta:     meta,
		Target:   target,
	}, nil
}

func (p *Parser) parseList(kind cst.ListKind, closer token.Type) (cst.Node, error) {
	p.src.Scan()
	list := &cst.List{
		Kind: kind,
		Open: p.src.Token,
	}
	if kind == cst.ListShortFn {
		if p.shortFn != nil {
			return nil, p.unexpected(list.Open, "nested #() forms are not allowed")
		}
		p.shortFn = list
		defer func() { p.shortFn = nil }()
	}
	p.open = append(p.open, list)
	defer func() { p.open = p.open[:len(p.open)-1] }()
	for {
		tok := p.src.Peek()
		switch tok.Type {
		case closer:
			p.src.Scan()
			list.Close = tok
			return list, nil
		case token.PAREN_R, token.BRACKET_R, token.BRACE_R:
			p.src.Scan()
			return nil, p.unexpected(tok, "unexpected %q: expected %q to close %s", tok.Text, kind.Closer(), kind)
		case token.EOF:
			return nil, p.eofError()
		}
		n, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		list.Children = append(list.Children, n)
	}
}

func (p *Parser) addPlaceholder(name string) {
	if name == "%" {
		name = "%1"
	}
	for _, ph := range p.shortFn.Placeholders {
		if ph == name {
			return
		}
	}
	p.shortFn.Placeholders = append(p.shortFn.Placeholders, name)
}

// eofError reports the end of input.  When a list is open the innermost one
// is unterminated.
func (p *Parser) eofError() error {
	eof := p.src.Peek()
	if len(p.open) == 0 {
		return p.unexpected(eof, "unexpected end of input")
	}
	list := p.open[len(p.open)-1]
	return &UnterminatedError{
		Kind:    list.Kind,
		Open:    list.Open,
		EOF:     eof,
		snippet: p.src.Snippet(),
	}
}

func (p *Parser) unexpected(tok *token.Token, format string, v ...interface{}) error {
	return &UnexpectedTokenError{
		Token:   tok,
		Msg:     fmt.Sprintf(format, v...),
		snippet: p.src.Snippet(),
	}
}

// snippetBefore returns the snippet of tokens read before the current one.
func (p *Parser) snippetBefore() *token.CodeSnippet {
	toks := p.src.Tokens()
	if len(toks) == 0 {
		return token.NewCodeSnippet(nil)
	}
	return token.NewCodeSnippet(toks[:len(toks)-1])
}

// isPlaceholder reports whether name is an implicit argument of a #() form:
// %, %& or % followed by a positive decimal number.
func isPlaceholder(name string) bool {
	if name == "%" || name == "%&" {
		return true
	}
	if !strings.HasPrefix(name, "%") || len(name) < 2 || name[1] == '0' {
		return false
	}
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
