// Copyright © 2024 The LISPC authors

package profiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/compiler/x/profiler"
	"github.com/luthersystems/lispc/parser/token"
)

func TestNewPprofAnnotator(t *testing.T) {
	ppa := profiler.NewPprofAnnotator(nil)
	end := ppa.Start(compiler.StageAnalyze, nil)
	assert.Empty(t, ppa.Labels())
	end()

	require.NoError(t, ppa.Enable())
	endFile := ppa.Start(compiler.StageFile, &token.Location{File: "a.lisp", Pos: -1})
	endAnalyze := ppa.Start(compiler.StageAnalyze, &token.Location{File: "a.lisp", Line: 2, Col: 1})
	assert.Equal(t, map[string]string{"stage": "lispc.analyze", "file": "a.lisp"}, ppa.Labels())
	endAnalyze()
	assert.Equal(t, map[string]string{"stage": "lispc.file", "file": "a.lisp"}, ppa.Labels())
	endFile()
	assert.Empty(t, ppa.Labels())

	_, err := compiler.Compile(context.Background(), testLisp, "test.lisp", compiler.WithProfiler(ppa))
	require.NoError(t, err)
	assert.Empty(t, ppa.Labels())
	assert.NoError(t, ppa.Complete())
}

func TestPprofAnnotatorParse(t *testing.T) {
	ppa := profiler.NewPprofAnnotator(context.Background())
	require.NoError(t, ppa.Enable())
	end := ppa.Start(compiler.StageParse, nil)
	assert.Equal(t, map[string]string{"stage": "lispc.parse", "file": "no-source"}, ppa.Labels())
	end()
}
