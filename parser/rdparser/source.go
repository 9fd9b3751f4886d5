// Copyright © 2024 The LISPC authors

package rdparser

import (
	"github.com/luthersystems/lispc/parser/lexer"
	"github.com/luthersystems/lispc/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer but other implementations may be desirable for
// testing or for re-parsing a slice of previously scanned tokens.
type TokenStream interface {
	// ReadToken returns a set of token from an input source.  When no more
	// tokens can be generated ReadToken returns a token with type token.EOF.
	// ReadToken never returns an empty slice.
	ReadToken() []*token.Token
}

// TokenGenerator implements TokenStream.  The function will be called any time
// a TokenSource wants a token.
type TokenGenerator func() []*token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() []*token.Token {
	return fn()
}

// TokenSlice returns a TokenStream that yields toks followed by EOF tokens.
func TokenSlice(toks []*token.Token) TokenStream {
	var last *token.Location
	return TokenGenerator(func() []*token.Token {
		if len(toks) == 0 {
			return []*token.Token{{Type: token.EOF, Source: last, End: last}}
		}
		tok := toks[0]
		toks = toks[1:]
		last = tok.End
		return []*token.Token{tok}
	})
}

// TokenSource is a forward-only view of a TokenStream with one token of
// lookahead.  Every token scanned is retained so the text of any span read so
// far can be reconstructed for diagnostics.
type TokenSource struct {
	lex   TokenStream
	Token *token.Token
	peek  []*token.Token
	read  []*token.Token
}

func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{
		lex: stream,
	}
}

// NewTokenSource initializes and returns a new TokenSource that scans tokens
// from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	return NewTokenStreamSource(lexer.New(scanner))
}

// Lex returns a TokenSource over source.  The first line of source is
// numbered startingLine.
func Lex(source string, sourceName string, startingLine int) *TokenSource {
	return NewTokenSource(token.NewScannerLine(sourceName, source, startingLine))
}

func (s *TokenSource) Peek() *token.Token {
	if len(s.peek) == 0 {
		s.peek = s.lex.ReadToken()
	}
	return s.peek[0]
}

func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

// Tokens returns every token scanned so far.
func (s *TokenSource) Tokens() []*token.Token {
	return s.read
}

// Mark returns a position that can be passed to SnippetSince.
func (s *TokenSource) Mark() int {
	return len(s.read)
}

// Snippet returns the text of every token scanned so far.
func (s *TokenSource) Snippet() *token.CodeSnippet {
	return token.NewCodeSnippet(s.read)
}

// SnippetSince returns the text of the tokens scanned after mark.
func (s *TokenSource) SnippetSince(mark int) *token.CodeSnippet {
	if mark < 0 || mark > len(s.read) {
		mark = 0
	}
	return token.NewCodeSnippet(s.read[mark:])
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.peek = s.peek[1:]
	s.read = append(s.read, s.Token)
}
