// Copyright © 2024 The LISPC authors

package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/parser/token"
)

func testServer() *Server {
	return New()
}

// openDoc opens a document in the test server and returns it.
func openDoc(s *Server, uri, content string) *Document {
	return s.docs.Open(uri, 1, content)
}

// mockContext returns a minimal glsp.Context for testing.
func mockContext() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {},
	}
}

// capturingContext returns a context that captures published diagnostics.
func capturingContext() (*glsp.Context, *[]*protocol.PublishDiagnosticsParams) {
	var captured []*protocol.PublishDiagnosticsParams
	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				captured = append(captured, params.(*protocol.PublishDiagnosticsParams))
			}
		},
	}
	return ctx, &captured
}

func didOpen(t *testing.T, s *Server, ctx *glsp.Context, uri, text string) {
	t.Helper()
	err := s.textDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "lispc",
			Version:    1,
			Text:       text,
		},
	})
	require.NoError(t, err)
}

func textPosition(uri string, line, char protocol.UInteger) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: line, Character: char},
	}
}

// completionLabels extracts labels from a completion result.
func completionLabels(t *testing.T, result any) []string {
	t.Helper()
	require.NotNil(t, result, "completion result should not be nil")
	items, ok := result.([]protocol.CompletionItem)
	require.True(t, ok, "completion result should be []CompletionItem, got %T", result)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}

func TestPositionConversion(t *testing.T) {
	t.Run("1-based to 0-based", func(t *testing.T) {
		pos := lspPosition(&token.Location{File: "test.lisp", Line: 1, Col: 1})
		assert.Equal(t, protocol.UInteger(0), pos.Line)
		assert.Equal(t, protocol.UInteger(0), pos.Character)
	})
	t.Run("multi-digit", func(t *testing.T) {
		pos := lspPosition(&token.Location{File: "test.lisp", Line: 5, Col: 10})
		assert.Equal(t, protocol.UInteger(4), pos.Line)
		assert.Equal(t, protocol.UInteger(9), pos.Character)
	})
	t.Run("zero values clamp", func(t *testing.T) {
		pos := lspPosition(&token.Location{File: "test.lisp", Line: 0, Col: 0})
		assert.Equal(t, protocol.UInteger(0), pos.Line)
		assert.Equal(t, protocol.UInteger(0), pos.Character)
	})
}

func TestRange(t *testing.T) {
	r := lspRange(&token.Location{Line: 3, Col: 5}, &token.Location{Line: 3, Col: 10})
	assert.Equal(t, protocol.Position{Line: 2, Character: 4}, r.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 9}, r.End)

	r = lspRange(&token.Location{Line: 1, Col: 1}, nil)
	assert.Equal(t, protocol.Position{Line: 0, Character: 1}, r.End)

	r = lspRange(&token.Location{File: "test.lisp", Pos: -1}, nil)
	assert.Equal(t, protocol.Range{}, r)
}

func TestWordAtPosition(t *testing.T) {
	content := "(defn my-func [x y]\n  (php/+ x y))"
	t.Run("middle of word", func(t *testing.T) {
		assert.Equal(t, "defn", wordAtPosition(content, 0, 1))
		assert.Equal(t, "my-func", wordAtPosition(content, 0, 8))
	})
	t.Run("qualified symbol", func(t *testing.T) {
		assert.Equal(t, "php/+", wordAtPosition(content, 1, 4))
	})
	t.Run("on paren", func(t *testing.T) {
		assert.Equal(t, "", wordAtPosition(content, 0, 0))
	})
	t.Run("out of range", func(t *testing.T) {
		assert.Equal(t, "", wordAtPosition(content, 5, 0))
		assert.Equal(t, "", wordAtPosition(content, 0, 100))
	})
	t.Run("prefix", func(t *testing.T) {
		assert.Equal(t, "my-", prefixAtPosition(content, 0, 9))
		assert.Equal(t, "", prefixAtPosition(content, 0, 0))
	})
}

func TestNamespaceAt(t *testing.T) {
	s := testServer()
	doc := openDoc(s, "file:///test/ns.lisp", "(def a 1)\n(ns my-app)\n(def b 2)\n(ns other)")
	assert.Equal(t, "user", namespaceAt(doc.file, 0))
	assert.Equal(t, "my-app", namespaceAt(doc.file, 2))
	assert.Equal(t, "other", namespaceAt(doc.file, 3))
	assert.Equal(t, "user", namespaceAt(nil, 3))
}

func TestDiagnostics(t *testing.T) {
	t.Run("unresolved symbol", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		didOpen(t, s, ctx, "file:///test/err.lisp", "(def x 1)\n(mep x)")
		require.Len(t, *captured, 1)
		params := (*captured)[0]
		assert.Equal(t, "file:///test/err.lisp", params.URI)
		require.Len(t, params.Diagnostics, 1)
		d := params.Diagnostics[0]
		assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
		assert.Contains(t, d.Message, "Cannot resolve symbol 'mep'")
		assert.Contains(t, d.Message, "did you mean `map`")
		require.NotNil(t, d.Source)
		assert.Equal(t, "lispc", *d.Source)
		require.NotNil(t, d.Severity)
		assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	})

	t.Run("unterminated list", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		didOpen(t, s, ctx, "file:///test/open.lisp", "(def x")
		require.Len(t, *captured, 1)
		require.Len(t, (*captured)[0].Diagnostics, 1)
		d := (*captured)[0].Diagnostics[0]
		assert.Equal(t, protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		}, d.Range)
		assert.Contains(t, d.Message, "unterminated")
	})

	t.Run("clean document", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		didOpen(t, s, ctx, "file:///test/ok.lisp", "(def x 1)\n(php/strlen \"a\")")
		require.Len(t, *captured, 1)
		assert.NotNil(t, (*captured)[0].Diagnostics)
		assert.Empty(t, (*captured)[0].Diagnostics)
	})

	t.Run("save recompiles the changed document", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		uri := "file:///test/save.lisp"
		didOpen(t, s, ctx, uri, "(def x 1)")
		err := s.textDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
			TextDocument: protocol.VersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
				Version:                2,
			},
			ContentChanges: []any{
				protocol.TextDocumentContentChangeEventWhole{Text: "(nope)"},
			},
		})
		require.NoError(t, err)
		err = s.textDocumentDidSave(ctx, &protocol.DidSaveTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		require.NoError(t, err)
		require.Len(t, *captured, 2)
		require.Len(t, (*captured)[1].Diagnostics, 1)
		assert.Contains(t, (*captured)[1].Diagnostics[0].Message, "nope")
		assert.Equal(t, int32(2), s.docs.Get(uri).Version)
	})

	t.Run("close clears diagnostics", func(t *testing.T) {
		s := testServer()
		ctx, captured := capturingContext()
		uri := "file:///test/close.lisp"
		didOpen(t, s, ctx, uri, "(nope)")
		err := s.textDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		})
		require.NoError(t, err)
		require.Len(t, *captured, 2)
		assert.Empty(t, (*captured)[1].Diagnostics)
		assert.Nil(t, s.docs.Get(uri))
	})
}

func TestHover(t *testing.T) {
	s := testServer()
	uri := "file:///test/hover.lisp"
	didOpen(t, s, mockContext(), uri, "(defn add \"Adds numbers.\" [a b] (php/+ a b))\n(when true (add 1 2))\n(first [1])")

	hover := func(line, char protocol.UInteger) string {
		h, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
			TextDocumentPositionParams: textPosition(uri, line, char),
		})
		require.NoError(t, err)
		if h == nil {
			return ""
		}
		return h.Contents.(protocol.MarkupContent).Value
	}

	value := hover(1, 12)
	assert.Contains(t, value, "**function** `user/add`")
	assert.Contains(t, value, "(add [a b])")
	assert.Contains(t, value, "Adds numbers.")

	assert.Contains(t, hover(1, 2), "**macro** `lispc\\core/when`")
	assert.Contains(t, hover(2, 2), "**builtin** `lispc\\core/first`")
	assert.Equal(t, "", hover(1, 0))

	h, err := s.textDocumentHover(mockContext(), &protocol.HoverParams{
		TextDocumentPositionParams: textPosition("file:///missing.lisp", 0, 0),
	})
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestDefinition(t *testing.T) {
	s := testServer()
	uri := "file:///test/def.lisp"
	didOpen(t, s, mockContext(), uri, "(defn add [a b] (php/+ a b))\n(add 1 2)")

	result, err := s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: textPosition(uri, 1, 2),
	})
	require.NoError(t, err)
	loc, ok := result.(protocol.Location)
	require.True(t, ok, "%T", result)
	assert.Equal(t, uri, loc.URI)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 0, Character: 6},
		End:   protocol.Position{Line: 0, Character: 9},
	}, loc.Range)

	// Core definitions have no location in the document.
	result, err = s.textDocumentDefinition(mockContext(), &protocol.DefinitionParams{
		TextDocumentPositionParams: textPosition(uri, 0, 2),
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCompletion(t *testing.T) {
	s := testServer()
	uri := "file:///test/complete.lisp"
	didOpen(t, s, mockContext(), uri, "(defn deflection [] 1)\n(def")

	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: textPosition(uri, 1, 4),
	})
	require.NoError(t, err)
	labels := completionLabels(t, result)
	assert.Contains(t, labels, "deflection")
	assert.Contains(t, labels, "defn")
	assert.NotContains(t, labels, "first")

	items := result.([]protocol.CompletionItem)
	for _, item := range items {
		if item.Label == "deflection" {
			require.NotNil(t, item.Kind)
			assert.Equal(t, protocol.CompletionItemKindFunction, *item.Kind)
		}
		if item.Label == "defn" {
			require.NotNil(t, item.Kind)
			assert.Equal(t, protocol.CompletionItemKindKeyword, *item.Kind)
		}
	}
}

func TestCompletion_Locals(t *testing.T) {
	s := testServer()
	uri := "file:///test/locals.lisp"
	didOpen(t, s, mockContext(), uri, "(defn area [width height]\n  (php/* wi height))")

	result, err := s.textDocumentCompletion(mockContext(), &protocol.CompletionParams{
		TextDocumentPositionParams: textPosition(uri, 1, 11),
	})
	require.NoError(t, err)
	items := result.([]protocol.CompletionItem)
	require.NotEmpty(t, items)
	last := items[len(items)-1]
	assert.Equal(t, "width", last.Label)
	require.NotNil(t, last.Detail)
	assert.Equal(t, "local", *last.Detail)
	assert.NotContains(t, completionLabels(t, result), "height")
}

func TestDocumentSymbols(t *testing.T) {
	s := testServer()
	uri := "file:///test/symbols.lisp"
	openDoc(s, uri, "(ns my-app)\n(def ^:private x 1)\n(defn f [] x)\n(foo)\n(defstruct Point [x y])")

	result, err := s.textDocumentDocumentSymbol(mockContext(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	syms, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok)
	var names []string
	var kinds []protocol.SymbolKind
	for _, sym := range syms {
		names = append(names, sym.Name)
		kinds = append(kinds, sym.Kind)
	}
	assert.Equal(t, []string{"my-app", "x", "f", "Point"}, names)
	assert.Equal(t, []protocol.SymbolKind{
		protocol.SymbolKindNamespace,
		protocol.SymbolKindVariable,
		protocol.SymbolKindFunction,
		protocol.SymbolKindStruct,
	}, kinds)
	assert.Equal(t, protocol.Position{Line: 1, Character: 15}, syms[1].SelectionRange.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 0}, syms[1].Range.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 19}, syms[1].Range.End)
}

func TestFormatting(t *testing.T) {
	s := testServer()
	uri := "file:///test/fmt.lisp"
	openDoc(s, uri, "(defn f [x]\n(php/+ x 1))")

	format := func(opts protocol.FormattingOptions) []protocol.TextEdit {
		edits, err := s.textDocumentFormatting(mockContext(), &protocol.DocumentFormattingParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Options:      opts,
		})
		require.NoError(t, err)
		return edits
	}

	edits := format(protocol.FormattingOptions{})
	require.Len(t, edits, 1)
	assert.Equal(t, "(defn f [x]\n  (php/+ x 1))\n", edits[0].NewText)
	assert.Equal(t, protocol.Position{Line: 2, Character: 0}, edits[0].Range.End)

	edits = format(protocol.FormattingOptions{"tabSize": float64(4)})
	require.Len(t, edits, 1)
	assert.Equal(t, "(defn f [x]\n    (php/+ x 1))\n", edits[0].NewText)

	openDoc(s, uri, "(def x 1)\n")
	assert.Nil(t, format(protocol.FormattingOptions{}))

	openDoc(s, uri, "(def x")
	assert.Nil(t, format(protocol.FormattingOptions{}))
}

func TestInitialize(t *testing.T) {
	s := testServer()
	root := "file:///workspace"
	result, err := s.initialize(mockContext(), &protocol.InitializeParams{RootURI: &root})
	require.NoError(t, err)
	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	assert.Equal(t, "/workspace", s.rootPath)
	assert.Equal(t, serverName, init.ServerInfo.Name)
	assert.NotNil(t, init.Capabilities.HoverProvider)
	assert.NotNil(t, init.Capabilities.DocumentFormattingProvider)
	assert.NotNil(t, init.Capabilities.FoldingRangeProvider)
	require.NotNil(t, init.Capabilities.CompletionProvider)
	assert.Equal(t, []string{"(", "/"}, init.Capabilities.CompletionProvider.TriggerCharacters)
}

func TestExit(t *testing.T) {
	s := testServer()
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.shutdown(mockContext()))
	require.NoError(t, s.exit(mockContext()))
	assert.Equal(t, 0, code)
}
