// Copyright © 2024 The LISPC authors

package profiler

import (
	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/parser/token"
)

// SkipFilter returns true for stages that should not be traced.
type SkipFilter func(stage compiler.Stage, loc *token.Location) bool

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// WithStages only traces the given stages.
func WithStages(stages ...compiler.Stage) Option {
	traced := make(map[compiler.Stage]bool, len(stages))
	for _, s := range stages {
		traced[s] = true
	}
	return WithSkipFilter(func(stage compiler.Stage, _ *token.Location) bool {
		return !traced[stage]
	})
}
