// Copyright © 2024 The LISPC authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/formatter"
)

// textDocumentFormatting handles textDocument/formatting requests.
// It formats the document content using the LISPC formatter and returns
// a single whole-document text edit, or nil if no changes are needed.
func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	content := doc.Content
	uri := doc.URI
	doc.mu.Unlock()

	if content == "" {
		return nil, nil
	}

	cfg := *s.formatCfg
	if tabSize, ok := params.Options["tabSize"]; ok {
		switch v := tabSize.(type) {
		case float64:
			if v > 0 {
				cfg.IndentSize = int(v)
			}
		case int:
			if v > 0 {
				cfg.IndentSize = v
			}
		}
	}

	formatted, err := formatter.FormatFile([]byte(content), uriToPath(uri), &cfg)
	if err != nil {
		// Parse error: return no edits so the editor doesn't show an error
		// dialog for incomplete code.
		return nil, nil
	}
	if string(formatted) == content {
		return nil, nil
	}

	return []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: safeUint(strings.Count(content, "\n") + 1), Character: 0},
			},
			NewText: string(formatted),
		},
	}, nil
}
