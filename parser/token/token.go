// Copyright © 2024 The LISPC authors

package token

import (
	"fmt"
	"strings"
)

// Source is an abstract stream of tokens which allows one token lookahead.
type Source interface {
	// Token returns the current token.  Token returns nil if Scan has not been
	// called.
	Token() *Token
	// Peek returns the next token in the stream.  At the end of the stream
	// Peek should return a value to indicate the lack of a token (EOF).
	Peek() *Token
	// Scan advances the token stream if possible.  If there are no tokens
	// remaining Scan returns false.
	Scan() bool
}

// Token is a lexical unit of source text.  Every byte of the source belongs to
// exactly one token so concatenating the Text of every token reproduces the
// source.
type Token struct {
	Type   Type
	Text   string
	Source *Location // location of the first rune
	End    *Location // location just beyond the last rune
}

// IsTrivia returns true for tokens that carry no meaning for the reader.
func (tok *Token) IsTrivia() bool {
	return tok.Type.IsTrivia()
}

func (tok *Token) String() string {
	return fmt.Sprintf("%s %q", tok.Type, tok.Text)
}

type Type uint

// Type constants used by the lexer and parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Trivia
	WHITESPACE
	NEWLINE
	COMMENT
	COMMENT_MACRO

	// Atoms
	SYMBOL
	KEYWORD
	NUMBER
	STRING

	// Prefix operators
	QUOTE
	QUASIQUOTE
	UNQUOTE
	UNQUOTE_SPLICING
	CARET

	// Delimiters
	PAREN_L
	PAREN_R
	BRACKET_L
	BRACKET_R
	BRACE_L
	BRACE_R
	HASH_BRACE_L
	HASH_PAREN_L

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:          "invalid",
		ERROR:            "error",
		EOF:              "EOF",
		WHITESPACE:       "whitespace",
		NEWLINE:          "newline",
		COMMENT:          ";",
		COMMENT_MACRO:    "#_",
		SYMBOL:           "symbol",
		KEYWORD:          "keyword",
		NUMBER:           "number",
		STRING:           "string",
		QUOTE:            "'",
		QUASIQUOTE:       "`",
		UNQUOTE:          "~",
		UNQUOTE_SPLICING: "~@",
		CARET:            "^",
		PAREN_L:          "(",
		PAREN_R:          ")",
		BRACKET_L:        "[",
		BRACKET_R:        "]",
		BRACE_L:          "{",
		BRACE_R:          "}",
		HASH_BRACE_L:     "#{",
		HASH_PAREN_L:     "#(",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsTrivia returns true for whitespace, newlines and comments.
func (typ Type) IsTrivia() bool {
	switch typ {
	case WHITESPACE, NEWLINE, COMMENT:
		return true
	}
	return false
}

// IsAtom returns true for token types that form a complete expression.
func (typ Type) IsAtom() bool {
	switch typ {
	case SYMBOL, KEYWORD, NUMBER, STRING:
		return true
	}
	return false
}

// IsPrefix returns true for token types that wrap the following expression.
func (typ Type) IsPrefix() bool {
	switch typ {
	case QUOTE, QUASIQUOTE, UNQUOTE, UNQUOTE_SPLICING:
		return true
	}
	return false
}

type Location struct {
	File string // a name representing the source stream
	Path string // a physical location which may differ from File
	Pos  int    // byte offset
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	switch {
	case loc == nil:
		return "<unknown>"
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// Copy returns a shallow copy of loc.
func (loc *Location) Copy() *Location {
	if loc == nil {
		return nil
	}
	cp := *loc
	return &cp
}

type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}

// CodeSnippet is a span of source text reconstructed from buffered tokens.
// Diagnostics use it to print the offending code.
type CodeSnippet struct {
	Start *Location
	End   *Location
	Code  string
}

// NewCodeSnippet joins the text of toks into a snippet spanning them.
func NewCodeSnippet(toks []*Token) *CodeSnippet {
	if len(toks) == 0 {
		return &CodeSnippet{}
	}
	var b strings.Builder
	for _, tok := range toks {
		b.WriteString(tok.Text)
	}
	return &CodeSnippet{
		Start: toks[0].Source,
		End:   toks[len(toks)-1].End,
		Code:  b.String(),
	}
}

// Line returns the text of the given line number (1-based, relative to the
// file) if the snippet covers it.
func (s *CodeSnippet) Line(n int) (string, bool) {
	if s == nil || s.Start == nil {
		return "", false
	}
	lines := strings.Split(s.Code, "\n")
	i := n - s.Start.Line
	if i < 0 || i >= len(lines) {
		return "", false
	}
	line := lines[i]
	if i == 0 && s.Start.Col > 1 {
		line = strings.Repeat(" ", s.Start.Col-1) + line
	}
	return line, true
}
