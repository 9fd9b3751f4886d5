// Copyright © 2024 The LISPC authors

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/luthersystems/lispc/parser/lexer"
)

func TestWriteTokens(t *testing.T) {
	toks, err := lexer.All("test", "(def x 1) ; one")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeTokens(&buf, toks, false, false))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{
		"test:1:1\t(\t\"(\"",
		"test:1:2\tsymbol\t\"def\"",
		"test:1:6\tsymbol\t\"x\"",
		"test:1:8\tnumber\t\"1\"",
		"test:1:9\t)\t\")\"",
	}, lines[:5])
	assert.True(t, strings.HasSuffix(lines[5], "\tEOF\t\"\""), lines[5])

	buf.Reset()
	require.NoError(t, writeTokens(&buf, toks, true, false))
	assert.Contains(t, buf.String(), "test:1:11\t;\t\"; one\"\n")
}

func TestWriteTokens_YAML(t *testing.T) {
	toks, err := lexer.All("test", "(f\n :k)")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeTokens(&buf, toks, false, true))
	var records []tokenRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 5)
	assert.Equal(t, tokenRecord{Type: "keyword", Text: ":k", Line: 2, Col: 2}, records[2])
	assert.Equal(t, "EOF", records[4].Type)
	assert.Empty(t, records[4].Text)
}
