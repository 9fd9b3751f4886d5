// Copyright © 2024 The LISPC authors

package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luthersystems/lispc/analyzer"
	"github.com/luthersystems/lispc/parser/rdparser"
	"github.com/luthersystems/lispc/parser/token"
)

// LocatedError is implemented by the errors of each compilation stage.
type LocatedError interface {
	error
	Start() *token.Location
	End() *token.Location
}

// SnippetError is implemented by errors that carry the source text around
// the error.
type SnippetError interface {
	error
	Snippet() *token.CodeSnippet
}

// FromError converts an error returned by the compiler into a Diagnostic.
// Errors without a source location produce a diagnostic without spans.
func FromError(err error) Diagnostic {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  err.Error(),
	}
	var lerr LocatedError
	if !errors.As(err, &lerr) {
		return d
	}
	start := lerr.Start()
	d.Message = trimLocation(lerr.Error(), start)
	if start != nil && start.Line > 0 {
		span := Span{
			File: start.File,
			Line: start.Line,
			Col:  start.Col,
		}
		if end := lerr.End(); end != nil && end.Line == start.Line && end.Col > start.Col {
			span.EndCol = end.Col - 1
		}
		var serr SnippetError
		if errors.As(err, &serr) {
			if line, ok := serr.Snippet().Line(start.Line); ok {
				span.Source = line
			}
		}
		var uerr *rdparser.UnterminatedError
		if errors.As(err, &uerr) {
			span.EndCol = span.Col
			span.Label = fmt.Sprintf("this %s is never closed", uerr.Kind)
		}
		d.Spans = append(d.Spans, span)
	}
	var aerr *analyzer.Error
	if errors.As(err, &aerr) && len(aerr.Suggestions) > 0 {
		d.Help = append(d.Help, "did you mean "+quoteList(aerr.Suggestions)+"?")
	}
	return d
}

// trimLocation removes the location prefix the stage errors put on their
// messages.
func trimLocation(msg string, loc *token.Location) string {
	if loc == nil {
		return msg
	}
	return strings.TrimPrefix(msg, loc.String()+": ")
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "`" + name + "`"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
