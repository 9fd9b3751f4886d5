// Copyright © 2024 The LISPC authors

package lexer

import (
	"fmt"

	"github.com/luthersystems/lispc/parser/token"
)

// Error is returned when source text cannot be split into tokens, e.g. an
// unterminated string literal or an invalid character.
type Error struct {
	Msg     string
	Token   *token.Token
	snippet *token.CodeSnippet
}

// NewError returns an Error for the ERROR token tok.  The snippet holds the
// text of every token read before tok.
func NewError(tok *token.Token, snippet *token.CodeSnippet) *Error {
	return &Error{
		Msg:     tok.Text,
		Token:   tok,
		snippet: snippet,
	}
}

func (err *Error) Error() string {
	return fmt.Sprintf("%v: %s", err.Token.Source, err.Msg)
}

// Start returns the location where the offending text begins.
func (err *Error) Start() *token.Location {
	return err.Token.Source
}

// End returns the location just past the offending text.
func (err *Error) End() *token.Location {
	return err.Token.End
}

// Snippet returns the source text scanned before the error.
func (err *Error) Snippet() *token.CodeSnippet {
	return err.snippet
}
