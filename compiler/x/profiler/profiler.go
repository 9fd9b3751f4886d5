// Copyright © 2024 The LISPC authors

// Package profiler implements compiler.Profiler annotators that record the
// stages of compilation as trace spans, pprof labels or callgrind profiles.
package profiler

import (
	"fmt"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/parser/token"
)

// profiler is a minimal compiler.Profiler
type profiler struct {
	enabled    bool
	skipFilter SkipFilter
	labeler    SpanLabeler
}

var _ compiler.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Complete() error {
	return nil
}

func (p *profiler) Start(stage compiler.Stage, loc *token.Location) func() {
	return func() {}
}

// defaultLabel names a span after its stage.
func defaultLabel(stage compiler.Stage) string {
	return "lispc." + string(stage)
}

// label returns the label of the span for stage.  Labels chosen by a
// SpanLabeler are sanitized; an empty label falls back to the default.
func (p *profiler) label(stage compiler.Stage, loc *token.Location) string {
	if p.labeler != nil {
		if l := sanitizeLabel(p.labeler(stage, loc)); l != "" {
			return l
		}
	}
	return defaultLabel(stage)
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(stage compiler.Stage, loc *token.Location) bool {
	return !p.enabled || p.skipFilter != nil && p.skipFilter(stage, loc)
}

// sourceOf returns the file and line of loc for annotations.
func sourceOf(loc *token.Location) (string, int) {
	if loc == nil {
		return "no-source", 0
	}
	return loc.File, loc.Line
}
