// Copyright © 2024 The LISPC authors

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/diagnostic"
)

const defX = `\Lispc\Lang\Registry::getInstance()->addDefinition("user", "x", 1);` + "\n"

func writeLisp(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestCompileInputs(t *testing.T) {
	stdin := strings.NewReader("")
	tests := []struct {
		name  string
		paths []string
		exprs []string
		want  []string
	}{
		{name: "stdin by default", want: []string{"stdin"}},
		{name: "dash is stdin", paths: []string{"a.lisp", "-"}, want: []string{"a.lisp", "stdin"}},
		{name: "one expression", exprs: []string{"1"}, want: []string{"expression"}},
		{
			name:  "files then expressions",
			paths: []string{"a.lisp"},
			exprs: []string{"1", "2"},
			want:  []string{"a.lisp", "expression-1", "expression-2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, in := range compileInputs(tt.paths, tt.exprs, stdin) {
				names = append(names, in.name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRunCompile_Stdout(t *testing.T) {
	dir := t.TempDir()
	path := writeLisp(t, dir, "main.lisp", "(def x 1)")

	var stdout, stderr bytes.Buffer
	inputs := compileInputs([]string{path}, []string{"x"}, nil)
	failed := runCompile(context.Background(), compiler.NewSession(), inputs,
		&compileOutput{stdout: &stdout}, &stderr, &diagnostic.Renderer{Color: diagnostic.ColorNever})
	assert.Equal(t, 0, failed)
	assert.Empty(t, stderr.String())
	// The expression sees the definition made by the file.
	assert.True(t, strings.HasPrefix(stdout.String(), compiler.Header+"namespace user;\n"+defX), stdout.String())
	assert.Equal(t, 2, strings.Count(stdout.String(), compiler.Header))
}

func TestRunCompile_OutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "build")
	path := writeLisp(t, dir, "main.lisp", "(def x 1)")

	var stdout, stderr bytes.Buffer
	failed := runCompile(context.Background(), compiler.NewSession(compiler.WithSourceMap(true)),
		compileInputs([]string{path}, nil, nil),
		&compileOutput{stdout: &stdout, outputDir: out}, &stderr, &diagnostic.Renderer{Color: diagnostic.ColorNever})
	require.Equal(t, 0, failed, stderr.String())
	assert.Empty(t, stdout.String())

	code, err := os.ReadFile(filepath.Join(out, "main.php"))
	require.NoError(t, err)
	assert.Contains(t, string(code), defX)
	assert.Contains(t, string(code), compiler.SourceMapPrefix)
}

func TestRunCompile_Error(t *testing.T) {
	dir := t.TempDir()
	bad := writeLisp(t, dir, "bad.lisp", "(def y 1)\n(mep y)\n")
	good := writeLisp(t, dir, "good.lisp", "(def x 1)")

	var stdout, stderr bytes.Buffer
	failed := runCompile(context.Background(), compiler.NewSession(),
		compileInputs([]string{bad, good}, nil, nil),
		&compileOutput{stdout: &stdout}, &stderr, &diagnostic.Renderer{Color: diagnostic.ColorNever})
	assert.Equal(t, 1, failed)
	assert.Contains(t, stderr.String(), "Cannot resolve symbol")
	assert.Contains(t, stderr.String(), "did you mean `map`")
	// Compilation continues with the next input.
	assert.Contains(t, stdout.String(), defX)
}

func TestPHPName(t *testing.T) {
	assert.Equal(t, "main.php", phpName("src/main.lisp"))
	assert.Equal(t, "main.php", phpName("main"))
	assert.Equal(t, "a.b.php", phpName("/x/a.b.lisp"))
}
