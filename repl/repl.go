// Copyright © 2024 The LISPC authors

// Package repl implements an interactive loop that compiles each form typed
// at the prompt and prints the generated code.
package repl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/luthersystems/lispc/compiler"
	"github.com/luthersystems/lispc/diagnostic"
	"github.com/luthersystems/lispc/parser/rdparser"
)

// SourceName names the input typed at the prompt in locations.
const SourceName = "stdin"

type config struct {
	stdin  io.ReadCloser
	stderr io.WriteCloser
	color  diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	config := &config{}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithColor sets when errors are rendered in color.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl runs a simple repl with a fresh compilation session.
func RunRepl(prompt string, opts ...Option) {
	err := Run(compiler.NewSession(), prompt, strings.Repeat(" ", len(prompt)), opts...)
	if err != nil {
		errlnf("%v", err)
		os.Exit(1)
	}
}

// Run runs a simple repl compiling forms in session s.  The cont prompt is
// shown while a form is incomplete.
func Run(s *compiler.Session, prompt, cont string, opts ...Option) error {
	cfg := newConfig(opts...)
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}

	history := historyPath()
	ensureHistoryFilePermissions(history)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       history,
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{reg: s.Registry()},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	r := &diagnostic.Renderer{Color: cfg.color}
	var buf bytes.Buffer
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(cont)
		}
		line, err := rl.ReadSlice()
		if err == readline.ErrInterrupt {
			buf.Reset()
			continue
		}
		if err != nil {
			return nil
		}
		if buf.Len() == 0 && len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		buf.Write(line)
		buf.WriteByte('\n')
		src := buf.String()
		file, err := rdparser.NewString(SourceName, src).ParseAll()
		var unterminated *rdparser.UnterminatedError
		if errors.As(err, &unterminated) {
			continue
		}
		buf.Reset()
		if err != nil {
			renderError(out, r, src, err)
			continue
		}
		for _, form := range file.Forms() {
			code, err := s.CompileForm(form)
			if err != nil {
				renderError(out, r, src, err)
				break
			}
			fmt.Fprint(out, code) //nolint:errcheck // best-effort REPL output
		}
	}
}

// renderError renders err using the diagnostic renderer.  The source of the
// renderer is the text read for the current form.
func renderError(w io.Writer, r *diagnostic.Renderer, src string, err error) {
	r.SourceReader = func(name string) ([]byte, error) {
		if name != SourceName {
			return nil, os.ErrNotExist
		}
		return []byte(src), nil
	}
	_ = r.Render(w, diagnostic.FromError(err))
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lispc_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600) //#nosec G304
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}

func errlnf(format string, v ...interface{}) {
	if strings.HasSuffix(format, "\n") {
		errf(format, v...)
		return
	}
	errf(format+"\n", v...)
}

func errf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}
