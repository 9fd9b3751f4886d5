// Copyright © 2024 The LISPC authors

// Package compilertest runs table and golden file tests against the
// compiler.
package compilertest

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/diagnostic"
	"github.com/luthersystems/lispc/parser"
)

// UpdateEnv names the environment variable that makes Runner.RunFile
// rewrite golden files instead of comparing against them.
const UpdateEnv = "LISPC_UPDATE_GOLDEN"

func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := parser.ParseString("test", string(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// Runner is a golden file test runner.
type Runner struct {
	// Options are applied to the session of every test.
	Options []compiler.Option

	// Update rewrites the golden file of each test with the generated code.
	// Update is also enabled by setting UpdateEnv to a non-empty value.
	Update bool
}

// NewSession returns a session which logs to t.
func (r *Runner) NewSession(t testing.TB) (*compiler.Session, *Logger) {
	logger, w := NewLogrus(t)
	opts := append([]compiler.Option{compiler.WithLogger(logger)}, r.Options...)
	return compiler.NewSession(opts...), w
}

// RunFile compiles the source file at path and compares the generated code
// against the golden file next to it, path with the extension .php.  When a
// file with the extension .err exists instead the compilation must fail
// with an error containing its trimmed contents.
func (r *Runner) RunFile(t *testing.T, path string) {
	t.Helper()
	base := strings.TrimSuffix(path, filepath.Ext(path))
	session, w := r.NewSession(t)
	defer w.Flush()
	res, err := session.CompileFile(context.Background(), path)

	if want, ok := readOptional(t, base+".err"); ok {
		if err == nil {
			t.Errorf("%s: expected error containing %q", path, want)
			return
		}
		if !strings.Contains(err.Error(), strings.TrimSpace(want)) {
			t.Errorf("%s: expected error containing %q, got: %v", path, strings.TrimSpace(want), err)
		}
		return
	}
	if err != nil {
		r.CompileError(t, err)
		return
	}

	golden := base + ".php"
	if r.Update || os.Getenv(UpdateEnv) != "" {
		if err := os.WriteFile(golden, []byte(res.Code), 0o644); err != nil { //#nosec G306
			t.Fatalf("Unable to write golden file: %v", err)
		}
		return
	}
	want, ok := readOptional(t, golden)
	if !ok {
		t.Errorf("%s: missing golden file %s", path, golden)
		return
	}
	if res.Code != want {
		t.Errorf("%s: generated code differs from %s\n--- want\n%s--- got\n%s", path, golden, want, res.Code)
	}
}

// RunDir runs RunFile as a subtest for each .lisp file in dir.
func (r *Runner) RunDir(t *testing.T, dir string) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lisp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatalf("no source files in %s", dir)
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			r.RunFile(t, path)
		})
	}
}

// CompileError reports err as a test failure, rendered with its source
// snippet when it has one.
func (r *Runner) CompileError(t testing.TB, err error) {
	t.Helper()
	var buf bytes.Buffer
	renderer := &diagnostic.Renderer{Color: diagnostic.ColorNever}
	if rerr := renderer.Render(&buf, diagnostic.FromError(err)); rerr != nil {
		t.Errorf("io error: %v", rerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

func readOptional(t testing.TB, path string) (string, bool) {
	b, err := os.ReadFile(path) //#nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return "", false
	}
	if err != nil {
		t.Fatalf("Unable to read %s: %v", path, err)
	}
	return string(b), true
}

// TestSequence is a sequence of top-level forms compiled in order by one
// session.
type TestSequence []struct {
	Expr string // a single top-level form
	Code string // the code generated for it, without a file header
	// Err, when not empty, is a substring of the expected compile error.
	Err string
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// RunTestSuite runs each TestSequence in tests in an isolated session.
func RunTestSuite(t *testing.T, tests TestSuite, opts ...compiler.Option) {
	for i, test := range tests {
		t.Logf("test %d -- %s", i, test.Name)
		session := compiler.NewSession(opts...)
		for j, expr := range test.TestSequence {
			file, err := parser.ParseString("test", expr.Expr)
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			forms := file.Forms()
			if len(forms) != 1 {
				t.Errorf("test %d %q: expr %d: expected one form (got %d)", i, test.Name, j, len(forms))
				continue
			}
			code, err := session.CompileForm(forms[0])
			if expr.Err != "" {
				if err == nil || !strings.Contains(err.Error(), expr.Err) {
					t.Errorf("test %d %q: expr %d: expected error %q (got %v)", i, test.Name, j, expr.Err, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("test %d %q: expr %d: %v", i, test.Name, j, err)
				continue
			}
			if code != expr.Code {
				t.Errorf("test %d %q: expr %d: expected code %q (got %q)", i, test.Name, j, expr.Code, code)
			}
		}
	}
}

// RunBenchmark compiles source in a fresh session b.N times.
func RunBenchmark(b *testing.B, source string, opts ...compiler.Option) {
	b.SetBytes(int64(len(source)))
	for i := 0; i < b.N; i++ {
		_, err := compiler.NewSession(opts...).CompileReader(context.Background(), "benchmark", strings.NewReader(source))
		if err != nil {
			b.Fatalf("compile error: %v", err)
		}
	}
}
