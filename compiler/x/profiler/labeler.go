// Copyright © 2024 The LISPC authors

package profiler

import (
	"fmt"
	"regexp"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/parser/token"
)

// SpanLabeler provides an alternative name for a span in the trace.
type SpanLabeler func(stage compiler.Stage, loc *token.Location) string

// WithSpanLabeler sets the labeler for tracing spans.
func WithSpanLabeler(labeler SpanLabeler) Option {
	return func(p *profiler) {
		p.labeler = labeler
	}
}

// WithSourceLabeler labels spans with their stage and the source location of
// the form being compiled, e.g. "analyze:main.lisp:12".
func WithSourceLabeler() Option {
	return WithSpanLabeler(sourceLabeler)
}

func sourceLabeler(stage compiler.Stage, loc *token.Location) string {
	if loc == nil {
		return ""
	}
	if loc.Line == 0 {
		return fmt.Sprintf("%s:%s", stage, loc.File)
	}
	return fmt.Sprintf("%s:%s:%d", stage, loc.File, loc.Line)
}

var (
	sanitizeRegExp   = regexp.MustCompile(`[\s_]+`)
	validLabelRegExp = regexp.MustCompile(`[[:graph:]]*`)
)

func sanitizeLabel(userLabel string) string {
	if userLabel == "" {
		return ""
	}

	// Replace spaces with underscores
	userLabel = sanitizeRegExp.ReplaceAllString(userLabel, "_")

	// Find the first valid label match
	matches := validLabelRegExp.FindStringSubmatch(userLabel)
	if len(matches) > 0 {
		return matches[0]
	}

	return ""
}
