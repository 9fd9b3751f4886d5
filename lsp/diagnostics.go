// Copyright © 2024 The LISPC authors

package lsp

import (
	"errors"
	"strings"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/diagnostic"
	"github.com/luthersystems/lispc/parser/rdparser"
)

const debounceDelay = 300 * time.Millisecond

const diagnosticSource = "lispc"

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.compileAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	// Debounce: delay compilation to avoid thrashing during rapid edits.
	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on a compiler panic
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.compileAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.compileAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// compileAndPublish compiles a document and publishes the resulting
// diagnostics to the client.  Compilation stops at the first error so at
// most one diagnostic is published.
func (s *Server) compileAndPublish(doc *Document) {
	s.ensureCompiled(doc)

	doc.mu.Lock()
	err := doc.compileErr
	uri := doc.URI
	doc.mu.Unlock()

	diags := []protocol.Diagnostic{}
	if err != nil {
		diags = append(diags, convertError(err))
	}
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// convertError converts a compilation error to an LSP Diagnostic.
func convertError(err error) protocol.Diagnostic {
	d := diagnostic.FromError(err)
	msg := d.Message
	if len(d.Help) > 0 {
		msg += "\n" + strings.Join(d.Help, "\n")
	}
	var r protocol.Range
	var lerr diagnostic.LocatedError
	if errors.As(err, &lerr) {
		r = lspRange(lerr.Start(), lerr.End())
	}
	var uerr *rdparser.UnterminatedError
	if errors.As(err, &uerr) {
		// Highlight only the unclosed opener.
		r.End = protocol.Position{Line: r.Start.Line, Character: r.Start.Character + 1}
	}
	return protocol.Diagnostic{
		Range:    r,
		Severity: severity(protocol.DiagnosticSeverityError),
		Source:   strPtr(diagnosticSource),
		Message:  msg,
	}
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func strPtr(s string) *string {
	return &s
}
