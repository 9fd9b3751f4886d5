// Copyright © 2024 The LISPC authors

package lsp

import (
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/analyzer"
	"github.com/luthersystems/lispc/astutil"
)

// textDocumentCompletion handles the textDocument/completion request.  It
// offers the global names visible from the namespace at the cursor,
// followed by the other names bound in the document.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureCompiled(doc)

	line := int(params.Position.Line)
	col := int(params.Position.Character)

	doc.mu.Lock()
	defer doc.mu.Unlock()
	prefix := prefixAtPosition(doc.Content, line, col)
	ns := namespaceAt(doc.file, line)

	items := []protocol.CompletionItem{}
	seen := make(map[string]bool)
	var globals []string
	if doc.registry != nil {
		globals = doc.registry.Names(ns)
	}
	for _, name := range globals {
		seen[name] = true
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		item := protocol.CompletionItem{Label: name}
		if def, ok := doc.registry.Lookup(ns, name); ok {
			kind := completionItemKind(def)
			item.Kind = &kind
			label := def.Kind()
			item.Detail = &label
			if text := def.Doc(); text != "" {
				item.Documentation = &protocol.MarkupContent{
					Kind:  protocol.MarkupKindMarkdown,
					Value: text,
				}
			}
		}
		items = append(items, item)
	}
	if doc.file != nil {
		var locals []string
		for name := range astutil.UserDefined(doc.file.Forms()) {
			if !seen[name] && strings.HasPrefix(name, prefix) {
				locals = append(locals, name)
			}
		}
		sort.Strings(locals)
		kind := protocol.CompletionItemKindVariable
		detail := "local"
		for _, name := range locals {
			items = append(items, protocol.CompletionItem{Label: name, Kind: &kind, Detail: &detail})
		}
	}
	return items, nil
}

func completionItemKind(def *analyzer.Definition) protocol.CompletionItemKind {
	switch def.Kind() {
	case "macro":
		return protocol.CompletionItemKindKeyword
	case "function", "builtin":
		return protocol.CompletionItemKindFunction
	}
	return protocol.CompletionItemKindVariable
}
