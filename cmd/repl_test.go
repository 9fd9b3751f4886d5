// Copyright © 2024 The LISPC authors

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplHelp(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"repl"})
	require.NoError(t, err)
	assert.Same(t, replCmd, cmd)
	assert.Contains(t, cmd.Long, "(defmacro unless [c & body] `(if ~c nil (do ~@body)))\n")
	assert.Contains(t, cmd.Long, "(unless (php/empty x) (php/echo x))")
}
