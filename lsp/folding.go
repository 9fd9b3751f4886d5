// Copyright © 2024 The LISPC authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/lispc/parser/cst"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line collections, block comments and
// consecutive line comments.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	file := doc.file
	content := doc.Content
	doc.mu.Unlock()

	ranges := []protocol.FoldingRange{}
	if file != nil {
		cst.Inspect(file, func(n cst.Node) bool {
			switch n := n.(type) {
			case *cst.List:
				ranges = appendFold(ranges, n, protocol.FoldingRangeKindRegion)
			case *cst.Comment:
				if strings.HasPrefix(n.Code(), "#|") {
					ranges = appendFold(ranges, n, protocol.FoldingRangeKindComment)
				}
			}
			return true
		})
	}
	ranges = append(ranges, commentFoldingRanges(content)...)
	return ranges, nil
}

// appendFold adds a fold for n if it spans more than one line.
func appendFold(ranges []protocol.FoldingRange, n cst.Node, kind protocol.FoldingRangeKind) []protocol.FoldingRange {
	start, end := n.Start(), n.End()
	if start == nil || end == nil || start.Line == 0 || end.Line <= start.Line {
		return ranges
	}
	k := string(kind)
	return append(ranges, protocol.FoldingRange{
		StartLine: safeUint(start.Line - 1),
		EndLine:   safeUint(end.Line - 1),
		Kind:      &k,
	})
}

// commentFoldingRanges detects consecutive lines starting with ";" and
// produces a folding range for each block of 2+ lines.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	lines := strings.Split(content, "\n")
	var ranges []protocol.FoldingRange

	blockStart := -1
	flush := func(last int) {
		if blockStart >= 0 && last > blockStart {
			kind := string(protocol.FoldingRangeKindComment)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(blockStart),
				EndLine:   safeUint(last),
				Kind:      &kind,
			})
		}
		blockStart = -1
	}
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			if blockStart < 0 {
				blockStart = i
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(lines) - 1)
	return ranges
}
