// Copyright © 2024 The LISPC authors

package repl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/compiler"
)

func TestSymbolCompleter(t *testing.T) {
	s := compiler.NewSession()
	_, err := s.CompileString(context.Background(), "(def deflection 1)", "test")
	require.NoError(t, err)

	c := &symbolCompleter{reg: s.Registry()}

	// "def" should match defn, defmacro and user definitions.
	candidates, offset := c.Do([]rune("(def"), 4)
	assert.Equal(t, 3, offset)
	assert.Contains(t, candidates, []rune("n"))
	assert.Contains(t, candidates, []rune("lection"))

	// "user/" should complete with the definitions of the namespace.
	candidates, offset = c.Do([]rune("[user/de"), 8)
	assert.Equal(t, 7, offset)
	assert.Equal(t, [][]rune{[]rune("flection")}, candidates)

	// "us" completes the namespace name.
	candidates, _ = c.Do([]rune("(us"), 3)
	assert.Contains(t, candidates, []rune("er/"))

	// "zzz-nonexistent" should have no completions.
	candidates, _ = c.Do([]rune("(zzz-nonexistent"), 16)
	assert.Empty(t, candidates)
}
