// Copyright © 2024 The LISPC authors

package reader

import (
	"fmt"

	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/token"
)

// Error is returned when a syntactically valid tree does not denote a value,
// e.g. a map literal with an odd number of forms.
type Error struct {
	Msg     string
	start   *token.Location
	end     *token.Location
	snippet *token.CodeSnippet
}

func newError(n cst.Node, format string, v ...interface{}) *Error {
	return &Error{
		Msg:   fmt.Sprintf(format, v...),
		start: n.Start(),
		end:   n.End(),
		snippet: &token.CodeSnippet{
			Start: n.Start(),
			End:   n.End(),
			Code:  n.Code(),
		},
	}
}

func (err *Error) Error() string {
	return fmt.Sprintf("%v: %s", err.start, err.Msg)
}

func (err *Error) Start() *token.Location      { return err.start }
func (err *Error) End() *token.Location        { return err.end }
func (err *Error) Snippet() *token.CodeSnippet { return err.snippet }
