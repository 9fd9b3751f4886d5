// Copyright © 2024 The LISPC authors

package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/reader"
)

func readForm(t *testing.T, src string) *lisp.LVal {
	t.Helper()
	vals, err := reader.New().ReadString(src, "test")
	require.NoError(t, err)
	require.Len(t, vals, 1)
	return vals[0]
}

func TestDestructureParams(t *testing.T) {
	params, err := DestructureParams(readForm(t, `[a [b c] & rest]`))
	require.NoError(t, err)
	require.Len(t, params.Symbols, 3)
	assert.Equal(t, "a", params.Symbols[0].Str)
	assert.True(t, strings.HasPrefix(params.Symbols[1].Str, "G__"))
	assert.Equal(t, "rest", params.Symbols[2].Str)
	assert.True(t, params.Variadic)
	require.Len(t, params.Bindings, 1)
	assert.Equal(t, "[b c]", params.Bindings[0].Pattern.String())
	assert.Same(t, params.Symbols[1], params.Bindings[0].Init)

	params, err = DestructureParams(readForm(t, `[_ x]`))
	require.NoError(t, err)
	assert.False(t, params.Variadic)
	assert.True(t, strings.HasPrefix(params.Symbols[0].Str, "G__"))
	assert.Empty(t, params.Bindings)
}

func TestDestructureParamsErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{`[a & b c]`, "Unsupported parameter form, only one symbol can follow the & parameter"},
		{`[a &]`, "a symbol must follow the & parameter"},
		{`[& & a]`, "unexpected & in parameter list"},
		{`[1]`, "invalid parameter: 1"},
		{`[x/y]`, "parameter names must be unqualified: x/y"},
	}
	for _, test := range tests {
		_, err := DestructureParams(readForm(t, test.src))
		require.Error(t, err, test.src)
		assert.Equal(t, test.msg, err.(*Error).Msg, test.src)
	}
}

func TestDestructureSeq(t *testing.T) {
	bindings, err := Destructure(readForm(t, `[a [b c] & rest]`), lisp.Symbol("xs"))
	require.NoError(t, err)
	require.Len(t, bindings, 9)
	var names []string
	for _, b := range bindings {
		if !strings.HasPrefix(b.Pattern.Str, "G__") {
			names = append(names, b.Pattern.Str)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "rest"}, names)
	assert.Equal(t, "xs", bindings[0].Init.Str)
	assert.Equal(t, "(lispc\\core/first "+bindings[0].Pattern.Str+")", bindings[1].Init.String())
	rest := bindings[8]
	assert.Same(t, bindings[7].Pattern, rest.Init)
	assert.Equal(t, "(lispc\\core/next "+bindings[2].Pattern.Str+")", bindings[7].Init.String())
}

func TestDestructureMap(t *testing.T) {
	bindings, err := Destructure(readForm(t, `{:k v :other [x]}`), lisp.Symbol("m"))
	require.NoError(t, err)
	require.Len(t, bindings, 4)
	g := bindings[0].Pattern.Str
	assert.Equal(t, "v", bindings[1].Pattern.Str)
	assert.Equal(t, "(lispc\\core/get "+g+" :k)", bindings[1].Init.String())
	assert.Equal(t, "x", bindings[3].Pattern.Str)
}

func TestDestructureErrors(t *testing.T) {
	_, err := Destructure(readForm(t, `[a & b c]`), lisp.Symbol("xs"))
	assert.Error(t, err)
	_, err = Destructure(lisp.Int(1), lisp.Symbol("xs"))
	assert.Error(t, err)
	_, err = DestructureBindings(readForm(t, `[a 1 b]`))
	assert.Error(t, err)
	bindings, err := DestructureBindings(readForm(t, `[a 1 _ 2]`))
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.True(t, strings.HasPrefix(bindings[1].Pattern.Str, "G__"))
}
