// Copyright © 2024 The LISPC authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.  Only
// definitions made by the document itself are navigable.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	def := s.definitionAt(doc, int(params.Position.Line), int(params.Position.Character))
	if def == nil {
		return nil, nil
	}

	doc.mu.Lock()
	file := doc.file
	doc.mu.Unlock()
	for _, sym := range topLevelSymbols(file) {
		if sym.Head != "ns" && sym.Name == def.Name && sym.Ns == def.Ns {
			return protocol.Location{
				URI:   params.TextDocument.URI,
				Range: nodeRange(sym.NameAt),
			}, nil
		}
	}
	return nil, nil
}
