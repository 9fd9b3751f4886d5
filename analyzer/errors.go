// Copyright © 2024 The LISPC authors

package analyzer

import (
	"fmt"

	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/parser/token"
)

// Error is returned when a form cannot be analyzed.
type Error struct {
	Msg string
	// Form is the offending form.
	Form *lisp.LVal
	// Suggestions are similarly named symbols for an unresolved symbol.
	Suggestions []string

	snippet *token.CodeSnippet
}

func errorf(form *lisp.LVal, format string, v ...interface{}) *Error {
	return &Error{
		Msg:  fmt.Sprintf(format, v...),
		Form: form,
	}
}

func (err *Error) Error() string {
	if err.Start() == nil {
		return err.Msg
	}
	return fmt.Sprintf("%v: %s", err.Start(), err.Msg)
}

// Start returns the location of the offending form.  Forms generated by a
// macro have no location.
func (err *Error) Start() *token.Location {
	if err.Form == nil {
		return nil
	}
	return err.Form.Source
}

func (err *Error) End() *token.Location {
	if err.Form == nil {
		return nil
	}
	return err.Form.End
}

// Snippet returns the source text of the top-level form being analyzed, if
// it was attached with SetSnippet.
func (err *Error) Snippet() *token.CodeSnippet {
	return err.snippet
}

// SetSnippet attaches the source text of the enclosing top-level form.
func (err *Error) SetSnippet(s *token.CodeSnippet) {
	err.snippet = s
}

// locate gives err the location of form when the form that failed was
// synthesized by a macro.
func locate(err error, form *lisp.LVal) error {
	if e, ok := err.(*Error); ok && e.Start() == nil && form != nil && form.Source != nil {
		e.Form = form
	}
	return err
}
