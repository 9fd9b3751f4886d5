// Copyright © 2024 The LISPC authors

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	used := make(map[string]bool)
	for tok := Type(0); tok < numTokenTypes; tok++ {
		str := tok.String()
		if str == "" {
			t.Errorf("token type %x has empty string value", tok)
			continue
		}
		if used[str] {
			t.Errorf("token type string used twice: %v", tok)
		}
		used[str] = true
	}
}

func TestTypeClasses(t *testing.T) {
	assert.True(t, WHITESPACE.IsTrivia())
	assert.True(t, NEWLINE.IsTrivia())
	assert.True(t, COMMENT.IsTrivia())
	assert.False(t, COMMENT_MACRO.IsTrivia())
	assert.True(t, SYMBOL.IsAtom())
	assert.True(t, STRING.IsAtom())
	assert.False(t, PAREN_L.IsAtom())
	assert.True(t, UNQUOTE_SPLICING.IsPrefix())
	assert.False(t, CARET.IsPrefix())
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "a.lisp:3:7", (&Location{File: "a.lisp", Line: 3, Col: 7}).String())
	assert.Equal(t, "a.lisp:3", (&Location{File: "a.lisp", Line: 3}).String())
	assert.Equal(t, "a.lisp[12]", (&Location{File: "a.lisp", Pos: 12}).String())
	assert.Equal(t, "<unknown>", (*Location)(nil).String())
}

func TestCodeSnippet(t *testing.T) {
	toks := []*Token{
		{Type: PAREN_L, Text: "(", Source: &Location{Line: 2, Col: 3}, End: &Location{Line: 2, Col: 4}},
		{Type: SYMBOL, Text: "a", Source: &Location{Line: 2, Col: 4}, End: &Location{Line: 2, Col: 5}},
		{Type: NEWLINE, Text: "\n", Source: &Location{Line: 2, Col: 5}, End: &Location{Line: 3, Col: 1}},
		{Type: SYMBOL, Text: "b", Source: &Location{Line: 3, Col: 1}, End: &Location{Line: 3, Col: 2}},
	}
	s := NewCodeSnippet(toks)
	assert.Equal(t, "(a\nb", s.Code)
	assert.Equal(t, 2, s.Start.Line)
	assert.Equal(t, 3, s.End.Line)

	line, ok := s.Line(2)
	assert.True(t, ok)
	assert.Equal(t, "  (a", line)
	line, ok = s.Line(3)
	assert.True(t, ok)
	assert.Equal(t, "b", line)
	_, ok = s.Line(4)
	assert.False(t, ok)

	empty := NewCodeSnippet(nil)
	assert.Equal(t, "", empty.Code)
}
