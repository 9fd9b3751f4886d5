// Copyright © 2024 The LISPC authors

package rdparser

import (
	"fmt"

	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/token"
)

// UnexpectedTokenError is returned when a token cannot start or continue an
// expression, e.g. a closing bracket that does not match the open list.
type UnexpectedTokenError struct {
	Token   *token.Token
	Msg     string
	snippet *token.CodeSnippet
}

func (err *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("%v: %s", err.Token.Source, err.Msg)
}

func (err *UnexpectedTokenError) Start() *token.Location { return err.Token.Source }
func (err *UnexpectedTokenError) End() *token.Location   { return err.Token.End }

func (err *UnexpectedTokenError) Snippet() *token.CodeSnippet { return err.snippet }

// UnterminatedError is returned when the input ends before a bracketed
// expression is closed.
type UnterminatedError struct {
	Kind    cst.ListKind
	Open    *token.Token // the opening bracket
	EOF     *token.Token
	snippet *token.CodeSnippet
}

func (err *UnterminatedError) Error() string {
	return fmt.Sprintf("%v: unterminated %s: missing %q", err.Open.Source, err.Kind, err.Kind.Closer())
}

func (err *UnterminatedError) Start() *token.Location { return err.Open.Source }

func (err *UnterminatedError) End() *token.Location {
	if err.EOF != nil && err.EOF.Source != nil {
		return err.EOF.Source
	}
	return err.Open.End
}

func (err *UnterminatedError) Snippet() *token.CodeSnippet { return err.snippet }
