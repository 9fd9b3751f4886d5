// Copyright © 2024 The LISPC authors

package token

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerEOF(t *testing.T) {
	s := NewScanner("", "xxxxxxxxxx")
	for i := 0; i < 10; i++ {
		require.NoError(t, s.ScanRune())
	}
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, "xxxxxxxxxx", tok.Text)
	for i := 0; i < 3; i++ {
		tok := s.EmitToken(SYMBOL)
		assert.Equal(t, "", tok.Text)
		assert.Equal(t, io.EOF, s.ScanRune())
		assert.True(t, s.EOF())
	}
}

func TestScannerAcceptSeq(t *testing.T) {
	s := NewScanner("", "xxxxxxxxxx")
	assert.Equal(t, 10, s.AcceptSeq(func(c rune) bool { return true }))
	s.Ignore()
	assert.False(t, s.Accept(func(c rune) bool { return true }))
	assert.True(t, s.EOF())
}

func TestScannerLocations(t *testing.T) {
	s := NewScanner("test", "ab\ncd")
	s.AcceptSeq(func(c rune) bool { return c != '\n' })
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, "ab", tok.Text)
	assert.Equal(t, &Location{File: "test", Pos: 0, Line: 1, Col: 1}, tok.Source)
	assert.Equal(t, &Location{File: "test", Pos: 2, Line: 1, Col: 3}, tok.End)

	require.True(t, s.AcceptRune('\n'))
	tok = s.EmitToken(NEWLINE)
	assert.Equal(t, 1, tok.Source.Line)
	assert.Equal(t, 2, tok.End.Line)
	assert.Equal(t, 1, tok.End.Col)

	s.AcceptSeq(func(c rune) bool { return true })
	tok = s.EmitToken(SYMBOL)
	assert.Equal(t, "cd", tok.Text)
	assert.Equal(t, &Location{File: "test", Pos: 3, Line: 2, Col: 1}, tok.Source)
}

func TestScannerStartingLine(t *testing.T) {
	s := NewScannerLine("repl", "x", 10)
	s.AcceptSeq(func(c rune) bool { return true })
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, 10, tok.Source.Line)
}

func TestScannerUnicodeColumns(t *testing.T) {
	s := NewScanner("", "λx")
	require.True(t, s.AcceptRune('λ'))
	tok := s.EmitToken(SYMBOL)
	assert.Equal(t, 2, tok.End.Col)
	assert.Equal(t, 2, tok.End.Pos)
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("", "a\xffb")
	require.NoError(t, s.ScanRune())
	_, ok := s.Peek()
	assert.False(t, ok)
	assert.Error(t, s.ScanRune())
	assert.Error(t, s.Err())
}

func TestScannerAcceptString(t *testing.T) {
	s := NewScanner("", "|#rest")
	n, ok := s.AcceptString("|#")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = s.AcceptString("nope")
	assert.False(t, ok)
	assert.Equal(t, "|#", s.Text())
}

func TestNewScannerReader(t *testing.T) {
	s, err := NewScannerReader("r", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.AcceptSeq(func(rune) bool { return true }))
}

func TestScannerPeekN(t *testing.T) {
	s := NewScanner("", "~@x")
	c, ok := s.PeekN(1)
	assert.True(t, ok)
	assert.Equal(t, '@', c)
	_, ok = s.PeekN(3)
	assert.False(t, ok)
}
