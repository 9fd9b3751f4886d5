// Copyright © 2024 The LISPC authors

// Package compiler drives the compilation pipeline.  A Session reads source
// one top-level form at a time, analyzing and emitting each form before the
// next one is parsed so macros and namespaces defined by earlier forms are
// visible to later ones.
package compiler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/luthersystems/lispc/analyzer"
	"github.com/luthersystems/lispc/ast"
	"github.com/luthersystems/lispc/emitter"
	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/rdparser"
	"github.com/luthersystems/lispc/parser/token"
	"github.com/luthersystems/lispc/reader"
)

// Header starts every generated file.
const Header = "<?php\n"

// SourceMapPrefix starts the comment that embeds the source map of a
// generated file.
const SourceMapPrefix = "//# sourceMappingURL=data:application/json;base64,"

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger of the session and its analyzer.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithSourceMap enables source maps for compiled files.
func WithSourceMap(enabled bool) Option {
	return func(s *Session) {
		s.sourceMap = enabled
	}
}

// WithProfiler sets a profiler observing each stage of compilation.
func WithProfiler(p Profiler) Option {
	return func(s *Session) {
		s.profiler = p
	}
}

// WithIndent sets the indentation unit of generated code.
func WithIndent(unit string) Option {
	return func(s *Session) {
		s.indent = unit
	}
}

// WithRegistry compiles against an existing registry, e.g. one populated by
// compiling the dependencies of a file.
func WithRegistry(reg *analyzer.Registry) Option {
	return func(s *Session) {
		s.reg = reg
	}
}

// Session compiles files against a single Registry.  Definitions made while
// compiling one file are visible when compiling the next.  A Session is not
// safe for concurrent use.
type Session struct {
	log       logrus.FieldLogger
	reg       *analyzer.Registry
	analyzer  *analyzer.Analyzer
	reader    *reader.Reader
	profiler  Profiler
	sourceMap bool
	indent    string
}

// NewSession returns a Session with a fresh Registry.
func NewSession(opts ...Option) *Session {
	s := &Session{
		indent: emitter.DefaultIndent,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		logger := logrus.New()
		logger.Out = io.Discard
		s.log = logger
	}
	if s.reg == nil {
		s.reg = analyzer.NewRegistry()
	}
	s.analyzer = analyzer.New(s.reg, analyzer.WithLogger(s.log))
	s.reader = reader.New(reader.WithResolver(s.reg))
	return s
}

// Registry returns the registry of definitions made by compiled code.
func (s *Session) Registry() *analyzer.Registry {
	return s.reg
}

// Result is the code generated for one input.
type Result struct {
	emitter.EmitterResult
	// Forms is the number of top-level forms compiled.
	Forms int
}

// CompileFile compiles the file at path.
func (s *Session) CompileFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return s.CompileReader(ctx, path, f)
}

// CompileReader compiles the source read from r.
func (s *Session) CompileReader(ctx context.Context, name string, r io.Reader) (*Result, error) {
	scanner, err := token.NewScannerReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return s.compile(ctx, name, rdparser.New(scanner))
}

// CompileString compiles src, a file named name.  When a form fails to
// compile CompileString returns the error along with the code generated for
// the preceding forms.
func (s *Session) CompileString(ctx context.Context, src string, name string) (*Result, error) {
	return s.compile(ctx, name, rdparser.NewString(name, src))
}

func (s *Session) compile(ctx context.Context, name string, p *rdparser.Parser) (*Result, error) {
	defer s.startStage(StageFile, &token.Location{File: name, Pos: -1})()
	log := s.log.WithField("file", name)
	log.Debug("compiling")

	e := emitter.New(emitter.WithSourceMap(s.sourceMap), emitter.WithIndent(s.indent))
	e.EmitRaw(Header)
	forms := 0
	var err error
	for {
		if err = ctx.Err(); err != nil {
			break
		}
		var form cst.Node
		form, err = s.parse(p)
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if err != nil {
			break
		}
		ns := s.reg.CurrentNamespace()
		err = s.translate(form, func(node ast.Node) error {
			if forms == 0 {
				if _, ok := node.(*ast.NsNode); !ok {
					e.EmitRaw("namespace " + emitter.MungeNamespace(ns) + ";\n")
				}
			}
			return s.emit(e, node)
		})
		if err != nil {
			break
		}
		forms++
	}
	res := s.result(name, e, forms)
	if err != nil {
		log.WithError(err).Debug("compilation failed")
		return res, fmt.Errorf("compile %s: %w", name, err)
	}
	log.WithField("forms", forms).Debug("compiled")
	return res, nil
}

func (s *Session) parse(p *rdparser.Parser) (cst.Node, error) {
	defer s.startStage(StageParse, nil)()
	form, _, err := p.ParseForm()
	return form, err
}

// CompileForm compiles a single parsed form, returning the code generated
// for it without a file header.
func (s *Session) CompileForm(form cst.Node) (string, error) {
	e := emitter.New(emitter.WithIndent(s.indent))
	err := s.translate(form, func(node ast.Node) error {
		return s.emit(e, node)
	})
	if err != nil {
		return "", err
	}
	return e.Result().Code, nil
}

// translate analyzes form and passes the result to emit.  A form is
// compiled completely or not at all: when either step fails the
// definitions it made are removed from the registry.
func (s *Session) translate(form cst.Node, emit func(ast.Node) error) error {
	s.reg.Begin()
	node, err := s.analyze(form)
	if err == nil {
		err = emit(node)
	}
	if err != nil {
		s.reg.Rollback()
		return err
	}
	s.reg.Commit()
	return nil
}

// analyze reads and analyzes a top-level form.
func (s *Session) analyze(form cst.Node) (ast.Node, error) {
	loc := form.Start()
	s.log.WithField("form", loc.String()).Debug("analyzing form")
	endRead := s.startStage(StageRead, loc)
	v, err := s.reader.Read(form)
	endRead()
	if err != nil {
		return nil, err
	}
	defer s.startStage(StageAnalyze, loc)()
	node, err := s.analyzer.AnalyzeTopLevel(v)
	if err != nil {
		var aerr *analyzer.Error
		if errors.As(err, &aerr) && aerr.Snippet() == nil {
			aerr.SetSnippet(formSnippet(form))
		}
		return nil, err
	}
	return node, nil
}

func (s *Session) emit(e *emitter.Emitter, node ast.Node) error {
	defer s.startStage(StageEmit, node.Loc())()
	return e.EmitNode(node)
}

func (s *Session) result(name string, e *emitter.Emitter, forms int) *Result {
	res := &Result{EmitterResult: *e.Result(), Forms: forms}
	if !s.sourceMap {
		return res
	}
	if res.OriginalSourceName == "" {
		res.OriginalSourceName = name
	}
	b, err := res.SourceMapJSON(generatedName(name))
	if err != nil {
		s.log.WithError(err).Warn("unable to render source map")
		return res
	}
	res.Code += SourceMapPrefix + base64.StdEncoding.EncodeToString(b) + "\n"
	return res
}

// generatedName returns the name of the file generated from the source file
// name.
func generatedName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".php"
}

// formSnippet returns the source text of form.
func formSnippet(form cst.Node) *token.CodeSnippet {
	return &token.CodeSnippet{
		Start: form.Start(),
		End:   form.End(),
		Code:  form.Code(),
	}
}

// Compile compiles src with a new Session.
func Compile(ctx context.Context, src string, name string, opts ...Option) (*Result, error) {
	return NewSession(opts...).CompileString(ctx, src, name)
}

// Emit generates code for a single analyzed node.
func Emit(node ast.Node, opts ...emitter.Option) (*emitter.EmitterResult, error) {
	e := emitter.New(opts...)
	if err := e.EmitNode(node); err != nil {
		return nil, err
	}
	return e.Result(), nil
}
