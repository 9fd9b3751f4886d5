// Copyright © 2024 The LISPC authors

package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/parser/rdparser"
)

func TestParseString(t *testing.T) {
	file, err := ParseString("test", "(+ 1 2) ; sum\n")
	require.NoError(t, err)
	assert.Equal(t, "test", file.Name)
	assert.Len(t, file.Forms(), 1)
	assert.Equal(t, "(+ 1 2) ; sum\n", file.Code())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.lisp")
	require.NoError(t, os.WriteFile(path, []byte("(ns main)\n(def x 1)\n"), 0600))

	file, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "main.lisp", file.Name)
	forms := file.Forms()
	require.Len(t, forms, 2)
	assert.Equal(t, "main.lisp", forms[1].Start().File)
	assert.Equal(t, path, forms[1].Start().Path)
	assert.Equal(t, 2, forms[1].Start().Line)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.lisp"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseStringUnterminated(t *testing.T) {
	_, err := ParseString("test", "(a (b c")
	var unterminated *rdparser.UnterminatedError
	require.True(t, errors.As(err, &unterminated))
	assert.Contains(t, err.Error(), "unterminated list")
}
