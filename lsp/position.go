// Copyright © 2024 The LISPC authors

package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/astutil"
	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/token"
)

// lspPosition converts a 1-based source location to a 0-based LSP position.
func lspPosition(loc *token.Location) protocol.Position {
	line := loc.Line
	col := loc.Col
	if line > 0 {
		line--
	}
	if col > 0 {
		col--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// lspRange converts the source region from start up to end to an LSP
// range.  Without a usable end the range covers one character.
func lspRange(start, end *token.Location) protocol.Range {
	if start == nil || start.Line == 0 {
		return protocol.Range{}
	}
	r := protocol.Range{Start: lspPosition(start)}
	if end != nil && end.Line > 0 {
		r.End = lspPosition(end)
	} else {
		r.End = protocol.Position{Line: r.Start.Line, Character: r.Start.Character + 1}
	}
	return r
}

// nodeRange returns the LSP range of a syntax node.
func nodeRange(n cst.Node) protocol.Range {
	return lspRange(n.Start(), n.End())
}

// wordAtPosition extracts the symbol-like word at the given 0-based LSP
// position from the document content. The cursor can be inside or at the
// end of a word; in both cases the full word is returned.
func wordAtPosition(content string, line, col int) string {
	start, end, ln := wordBounds(content, line, col)
	return ln[start:end]
}

// prefixAtPosition returns the part of the word at the given position that
// precedes the cursor.
func prefixAtPosition(content string, line, col int) string {
	start, _, ln := wordBounds(content, line, col)
	if col > len(ln) {
		col = len(ln)
	}
	if start > col {
		return ""
	}
	return ln[start:col]
}

func wordBounds(content string, line, col int) (int, int, string) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return 0, 0, ""
	}
	ln := lines[line]
	if col < 0 || col > len(ln) {
		return 0, 0, ""
	}
	start := col
	for start > 0 && isSymbolChar(ln[start-1]) {
		start--
	}
	end := col
	for end < len(ln) && isSymbolChar(ln[end]) {
		end++
	}
	return start, end, ln
}

func isSymbolChar(c byte) bool {
	if c >= 'a' && c <= 'z' {
		return true
	}
	if c >= 'A' && c <= 'Z' {
		return true
	}
	if c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '-', '_', '!', '?', '+', '*', '/', '<', '>', '=', '.', '\\', '&', '%', '$':
		return true
	}
	return false
}

// namespaceAt returns the namespace in effect at the 0-based line, the
// name of the last top-level ns form that starts before it.
func namespaceAt(file *cst.File, line int) string {
	ns := lisp.DefaultNamespace
	if file == nil {
		return ns
	}
	for _, form := range file.Forms() {
		start := form.Start()
		if start == nil || start.Line-1 > line {
			break
		}
		head, args := astutil.CallForm(form)
		if head == "ns" && len(args) > 0 {
			if name, ok := astutil.SymbolText(args[0]); ok {
				ns = name
			}
		}
	}
	return ns
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}
