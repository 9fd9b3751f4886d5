// Copyright © 2024 The LISPC authors

package compiler

import (
	"github.com/luthersystems/lispc/parser/token"
)

// Stage is a phase of compilation observed by a Profiler.
type Stage string

const (
	// StageFile spans the compilation of a whole input.
	StageFile    Stage = "file"
	StageParse   Stage = "parse"
	StageRead    Stage = "read"
	StageAnalyze Stage = "analyze"
	StageEmit    Stage = "emit"
)

// Profiler observes compilation stages.
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// End the profiling session and output summary lines
	Complete() error
	// Marks the start of a stage for the form at loc.  The returned function
	// marks the end of the stage.
	Start(stage Stage, loc *token.Location) func()
}

func (s *Session) startStage(stage Stage, loc *token.Location) func() {
	if s.profiler == nil || !s.profiler.IsEnabled() {
		return func() {}
	}
	return s.profiler.Start(stage, loc)
}
