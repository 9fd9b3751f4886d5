// Copyright © 2024 The LISPC authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/astutil"
	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/parser/cst"
)

// definers maps the heads of defining forms to the kind of symbol they
// define.
var definers = map[string]protocol.SymbolKind{
	"ns":            protocol.SymbolKindNamespace,
	"def":           protocol.SymbolKindVariable,
	"defn":          protocol.SymbolKindFunction,
	"defn-":         protocol.SymbolKindFunction,
	"defmacro":      protocol.SymbolKindFunction,
	"defmacro-":     protocol.SymbolKindFunction,
	"defstruct":     protocol.SymbolKindStruct,
	"definterface":  protocol.SymbolKindInterface,
	"defexception":  protocol.SymbolKindClass,
	"defexception*": protocol.SymbolKindClass,
}

// topLevelSymbol is a name defined by a top-level form.
type topLevelSymbol struct {
	Name   string
	Ns     string
	Head   string
	Kind   protocol.SymbolKind
	Form   cst.Node
	NameAt cst.Node
}

// topLevelSymbols returns the names defined by the top-level forms of file
// in source order.
func topLevelSymbols(file *cst.File) []topLevelSymbol {
	if file == nil {
		return nil
	}
	var syms []topLevelSymbol
	ns := lisp.DefaultNamespace
	for _, form := range file.Forms() {
		head, args := astutil.CallForm(form)
		kind, ok := definers[head]
		if !ok || len(args) == 0 {
			continue
		}
		name, ok := astutil.SymbolText(args[0])
		if !ok {
			continue
		}
		if head == "ns" {
			ns = name
		}
		nameAt := args[0]
		if m, ok := nameAt.(*cst.Meta); ok {
			nameAt = m.Target
		}
		syms = append(syms, topLevelSymbol{
			Name:   name,
			Ns:     ns,
			Head:   head,
			Kind:   kind,
			Form:   form,
			NameAt: nameAt,
		})
	}
	return syms
}

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	file := doc.file
	doc.mu.Unlock()

	symbols := []protocol.DocumentSymbol{}
	for _, sym := range topLevelSymbols(file) {
		detail := sym.Head
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           sym.Name,
			Detail:         &detail,
			Kind:           sym.Kind,
			Range:          nodeRange(sym.Form),
			SelectionRange: nodeRange(sym.NameAt),
		})
	}
	return symbols, nil
}
