// Copyright © 2024 The LISPC authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/analyzer"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	def := s.definitionAt(doc, int(params.Position.Line), int(params.Position.Character))
	if def == nil {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: buildHoverContent(def),
		},
	}, nil
}

// definitionAt returns the global definition named by the word at the given
// 0-based position.
func (s *Server) definitionAt(doc *Document, line, col int) *analyzer.Definition {
	s.ensureCompiled(doc)
	doc.mu.Lock()
	defer doc.mu.Unlock()
	if doc.registry == nil {
		return nil
	}
	word := wordAtPosition(doc.Content, line, col)
	if word == "" {
		return nil
	}
	def, ok := doc.registry.Lookup(namespaceAt(doc.file, line), word)
	if !ok {
		return nil
	}
	return def
}

// buildHoverContent builds Markdown hover text for a definition.
func buildHoverContent(def *analyzer.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s/%s`", def.Kind(), def.Ns, def.Name)
	if sig := def.Signature(); sig != "" {
		fmt.Fprintf(&sb, "\n\n```lisp\n%s\n```", sig)
	}
	if doc := def.Doc(); doc != "" {
		fmt.Fprintf(&sb, "\n\n%s", doc)
	}
	return sb.String()
}
