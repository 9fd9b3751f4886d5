// Copyright © 2024 The LISPC authors

package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/parser/token"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in  string
		out string
	}{
		{"", ""},
		{"lispc.emit", "lispc.emit"},
		{"add it", "add_it"},
		{"add__it  again", "add_it_again"},
		{"tab\there", "tab_here"},
		{"ok\x00bad", "ok"},
	}
	for _, test := range tests {
		assert.Equal(t, test.out, sanitizeLabel(test.in), "%q", test.in)
	}
}

func TestSourceLabeler(t *testing.T) {
	assert.Equal(t, "", sourceLabeler(compiler.StageParse, nil))
	assert.Equal(t, "file:a.lisp", sourceLabeler(compiler.StageFile, &token.Location{File: "a.lisp", Pos: -1}))
	assert.Equal(t, "emit:a.lisp:3", sourceLabeler(compiler.StageEmit, &token.Location{File: "a.lisp", Line: 3}))
}

func TestLabelFallback(t *testing.T) {
	p := &profiler{}
	assert.Equal(t, "lispc.read", p.label(compiler.StageRead, nil))
	p.applyConfigs(WithSpanLabeler(func(compiler.Stage, *token.Location) string { return "\x00" }))
	assert.Equal(t, "lispc.read", p.label(compiler.StageRead, nil))
	p.applyConfigs(WithSourceLabeler())
	assert.Equal(t, "read:b.lisp:1", p.label(compiler.StageRead, &token.Location{File: "b.lisp", Line: 1}))
}

func TestSkipTrace(t *testing.T) {
	p := &profiler{}
	assert.True(t, p.skipTrace(compiler.StageEmit, nil))
	p.applyConfigs(WithStages(compiler.StageEmit))
	assert.NoError(t, p.Enable())
	assert.False(t, p.skipTrace(compiler.StageEmit, nil))
	assert.True(t, p.skipTrace(compiler.StageParse, nil))
}
