// Copyright © 2024 The LISPC authors

package cst

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luthersystems/lispc/parser/token"
)

func tok(typ token.Type, text string, col int) *token.Token {
	return &token.Token{
		Type:   typ,
		Text:   text,
		Source: &token.Location{Line: 1, Col: col, Pos: col - 1},
		End:    &token.Location{Line: 1, Col: col + len(text), Pos: col - 1 + len(text)},
	}
}

func TestListCode(t *testing.T) {
	list := &List{
		Kind: ListVector,
		Open: tok(token.BRACKET_L, "[", 1),
		Children: []Node{
			NewAtom(tok(token.SYMBOL, "a", 2)),
			NewTrivia(tok(token.WHITESPACE, " ", 3)),
			NewAtom(tok(token.NUMBER, "1", 4)),
		},
		Close: tok(token.BRACKET_R, "]", 5),
	}
	assert.Equal(t, "[a 1]", list.Code())
	assert.Equal(t, 1, list.Start().Col)
	assert.Equal(t, 6, list.End().Col)
	assert.Len(t, list.Forms(), 2)
	assert.False(t, list.IsTrivia())
}

func TestNewTrivia(t *testing.T) {
	assert.IsType(t, &Whitespace{}, NewTrivia(tok(token.WHITESPACE, " ", 1)))
	assert.IsType(t, &Newline{}, NewTrivia(tok(token.NEWLINE, "\n", 1)))
	assert.IsType(t, &Comment{}, NewTrivia(tok(token.COMMENT, "; x", 1)))
	assert.Nil(t, NewTrivia(tok(token.SYMBOL, "x", 1)))
}

func TestListKindStrings(t *testing.T) {
	assert.Equal(t, "list", ListParen.String())
	assert.Equal(t, "short-fn", ListShortFn.String())
	assert.Equal(t, "]", ListVector.Closer())
	assert.Equal(t, "}", ListTable.Closer())
	assert.Equal(t, ")", ListShortFn.Closer())
}

func TestInspect(t *testing.T) {
	q := &QuoteNode{
		Kind:   Quote,
		Prefix: tok(token.QUOTE, "'", 1),
	}
	inner := NewAtom(tok(token.SYMBOL, "x", 2))
	q.Children = []Node{inner}
	q.Form = inner
	file := &File{Children: []Node{q, NewTrivia(tok(token.NEWLINE, "\n", 3))}}

	var seen []string
	Inspect(file, func(n Node) bool {
		seen = append(seen, n.Code())
		return true
	})
	assert.Equal(t, []string{"'x\n", "'x", "x", "\n"}, seen)

	seen = nil
	Inspect(file, func(n Node) bool {
		seen = append(seen, n.Code())
		_, isQuote := n.(*QuoteNode)
		return !isQuote
	})
	assert.Equal(t, []string{"'x\n", "'x", "\n"}, seen)
}

func TestEmptyFile(t *testing.T) {
	file := &File{}
	assert.Nil(t, file.Start())
	assert.Nil(t, file.End())
	assert.Equal(t, "", file.Code())
}
