// Copyright © 2024 The LISPC authors

package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/parser/token"
)

// pprofAnnotator labels the goroutine with the current stage so CPU
// profiles taken with pprof can be broken down by stage.  It does not start
// pprof itself.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ compiler.Profiler = &pprofAnnotator{}

// NewPprofAnnotator returns a profiler that sets pprof labels.
func NewPprofAnnotator(parentContext context.Context, opts ...Option) *pprofAnnotator {
	p := &pprofAnnotator{
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

// Labels returns the labels currently applied by the annotator.
func (p *pprofAnnotator) Labels() map[string]string {
	labels := make(map[string]string)
	if p.currentContext == nil {
		return labels
	}
	pprof.ForLabels(p.currentContext, func(key, value string) bool {
		labels[key] = value
		return true
	})
	return labels
}

func (p *pprofAnnotator) Start(stage compiler.Stage, loc *token.Location) func() {
	if p.skipTrace(stage, loc) {
		return func() {}
	}
	oldContext := p.currentContext
	file, _ := sourceOf(loc)
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("stage", p.label(stage, loc), "file", file))
	pprof.SetGoroutineLabels(p.currentContext)
	return func() {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
