// Copyright © 2024 The LISPC authors

package astutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/rdparser"
)

func parseForms(t *testing.T, src string) []cst.Node {
	t.Helper()
	file, err := rdparser.NewString("test.lisp", src).ParseAll()
	require.NoError(t, err)
	return file.Forms()
}

func parseForm(t *testing.T, src string) cst.Node {
	t.Helper()
	forms := parseForms(t, src)
	require.Len(t, forms, 1)
	return forms[0]
}

func TestHeadSymbol(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"()", ""},
		{"42", ""},
		{"(1 2)", ""},
		{"[foo 1]", ""},
		{"(foo)", "foo"},
		{"(^:private foo 1)", "foo"},
		{"(php/strlen s)", "php/strlen"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeadSymbol(parseForm(t, tt.src)), tt.src)
	}
}

func TestArgCount(t *testing.T) {
	assert.Equal(t, 0, ArgCount(parseForm(t, "()")))
	assert.Equal(t, 0, ArgCount(parseForm(t, "(foo)")))
	assert.Equal(t, 2, ArgCount(parseForm(t, "(foo 1 ; one\n 2)")))
}

func TestSymbolText(t *testing.T) {
	name, ok := SymbolText(parseForm(t, "^:private x"))
	assert.True(t, ok)
	assert.Equal(t, "x", name)

	_, ok = SymbolText(parseForm(t, ":x"))
	assert.False(t, ok)
}

func TestWalk_VisitsAllNodes(t *testing.T) {
	var visited []string
	var depths []int
	Walk(parseForms(t, "(foo (bar baz)) ; done"), func(node cst.Node, parent cst.Node, depth int) {
		if name, ok := SymbolText(node); ok {
			visited = append(visited, name)
			depths = append(depths, depth)
		}
	})
	assert.Equal(t, []string{"foo", "bar", "baz"}, visited)
	assert.Equal(t, []int{1, 2, 2}, depths)
}

func TestWalkCalls_SkipsQuasiquoted(t *testing.T) {
	var heads []string
	WalkCalls(parseForms(t, "(defmacro m [n] `(defn ~n [] (inner)))\n(foo '(bar))"), func(call *cst.List, depth int) {
		heads = append(heads, HeadSymbol(call))
	})
	// Quoted lists are still walked; only templates are skipped.
	assert.Equal(t, []string{"defmacro", "foo", "bar"}, heads)
}

func TestUserDefined(t *testing.T) {
	defs := UserDefined(parseForms(t, `
(def ^:private limit 10)
(defn my-fn "Doc." [x [y & more] & rest]
  (let [a 1 [b _] (php/f)]
    (fn [z] (loop [i 0] i))))
(defmacro m [form] `+"`"+`(let [hidden 1] ~form))
`))
	for _, name := range []string{"limit", "my-fn", "x", "y", "more", "rest", "a", "b", "z", "i", "m", "form"} {
		assert.True(t, defs[name], name)
	}
	for _, name := range []string{"&", "_", "hidden", "php/f"} {
		assert.False(t, defs[name], name)
	}
}

func TestCollectFormals_SkipsMarkers(t *testing.T) {
	defs := make(map[string]bool)
	CollectFormals(parseForm(t, "[a [b c] & d]"), defs)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true, "d": true}, defs)

	CollectFormals(parseForm(t, "(not formals)"), defs)
	assert.Len(t, defs, 4)
}
