// Copyright © 2024 The LISPC authors

package formatter

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/lispc/parser/cst"
)

type printer struct {
	buf   bytes.Buffer
	cfg   *Config
	col   int  // current column (0-indexed)
	atBOL bool // at beginning of line (nothing written on current line)
}

func newPrinter(cfg *Config) *printer {
	return &printer{
		cfg:   cfg,
		atBOL: true,
	}
}

// item is a form or comment together with the layout that preceded it in
// the source.
type item struct {
	node     cst.Node
	newlines int // line breaks between the previous item and this one
	spaces   int // width of the whitespace just before this item
}

// isComment returns true for comments, which are kept in place.
func (it item) isComment() bool {
	_, ok := it.node.(*cst.Comment)
	return ok
}

// endsLine returns true if nothing may follow the item on its line.
func (it item) endsLine() bool {
	if c, ok := it.node.(*cst.Comment); ok {
		text := c.Code()
		return strings.HasPrefix(text, ";") || strings.HasPrefix(text, "#!")
	}
	return false
}

// layout groups children into items.  The number of line breaks after the
// last item is returned as well.
func layout(children []cst.Node) ([]item, int) {
	var items []item
	newlines, spaces := 0, 0
	for _, c := range children {
		switch c.(type) {
		case *cst.Newline:
			newlines++
			spaces = 0
		case *cst.Whitespace:
			spaces += utf8.RuneCountInString(c.Code())
		default:
			items = append(items, item{node: c, newlines: newlines, spaces: spaces})
			newlines, spaces = 0, 0
		}
	}
	return items, newlines
}

// writeTopLevel writes a sequence of top-level nodes, one per line.
func (p *printer) writeTopLevel(children []cst.Node) {
	items, _ := layout(children)
	for i, it := range items {
		if i > 0 {
			if it.newlines == 0 && it.isComment() && !items[i-1].endsLine() {
				p.writeSpaces(it.spaces)
				p.writeNode(it.node, 0)
				continue
			}
			p.newline()
			p.writeBlankLines(it.newlines)
		}
		p.writeIndent(0)
		p.writeNode(it.node, 0)
	}
	if len(items) > 0 {
		p.newline()
	}
}

// writeBlankLines writes the blank lines found among newlines line breaks,
// clamped to the configured maximum.
func (p *printer) writeBlankLines(newlines int) {
	n := newlines - 1
	if n > p.cfg.MaxBlankLines {
		n = p.cfg.MaxBlankLines
	}
	for i := 0; i < n; i++ {
		p.newline()
	}
}

// writeNode dispatches to the appropriate printer for a node type.
func (p *printer) writeNode(n cst.Node, indent int) {
	switch n := n.(type) {
	case *cst.List:
		p.writeList(n)
	case *cst.QuoteNode:
		p.writePrefixed(n.Prefix.Text, n.Children, indent)
	case *cst.Meta:
		p.writePrefixed(n.Caret.Text, n.Children, indent)
	case *cst.CommentMacro:
		p.writePrefixed(n.Prefix.Text, n.Children, indent)
	default:
		p.writeString(n.Code())
	}
}

// writePrefixed writes a prefix operator and the nodes it applies to.  The
// first form follows the prefix directly.
func (p *printer) writePrefixed(prefix string, children []cst.Node, indent int) {
	p.writeString(prefix)
	items, _ := layout(children)
	for i, it := range items {
		switch {
		case i == 0 && !it.isComment():
		case i > 0 && items[i-1].endsLine():
			p.newline()
			p.writeIndent(indent)
		default:
			p.writeSpaces(1)
		}
		p.writeNode(it.node, indent)
	}
}

// head returns the name of the operator of a call, if l is one.
func head(l *cst.List, items []item) (string, bool) {
	if l.Kind != cst.ListParen && l.Kind != cst.ListShortFn {
		return "", false
	}
	if len(items) == 0 {
		return "", false
	}
	atom, ok := items[0].node.(*cst.Atom)
	if !ok || atom.Kind != cst.AtomSymbol {
		return "", false
	}
	name := atom.Text()
	if idx := strings.LastIndex(name, "/"); idx > 0 {
		name = name[idx+1:]
	}
	return name, true
}

// writeList writes a bracketed list.
func (p *printer) writeList(l *cst.List) {
	items, trailing := layout(l.Children)
	p.writeString(l.Open.Text)
	bracketCol := p.col - 1 // column of the opening bracket
	openCol := p.col

	if len(items) == 0 {
		p.writeString(l.Kind.Closer())
		return
	}

	name, isCall := head(l, items)
	rule := &IndentRule{Style: IndentAlign}
	firstArgCol := openCol
	first := items[0]
	if first.newlines > 0 {
		// First child on a new line, preserve bracket-on-its-own-line style
		p.newline()
		p.writeBlankLines(first.newlines)
		p.writeIndent(openCol)
	}
	p.writeNode(first.node, openCol)
	if isCall {
		rule = p.cfg.RuleFor(name)
		firstArgCol = p.col + 1
		// When the first argument wraps to a new line, fall back to body
		// indent to avoid rightward drift from long form names.
		if len(items) > 1 && items[1].newlines > 0 && rule.Style == IndentAlign {
			rule = &IndentRule{Style: IndentBody}
		}
	}

	arg := 0
	for i := 1; i < len(items); i++ {
		it := items[i]
		if !it.isComment() {
			arg++
		}
		onNewLine := it.newlines > 0 || items[i-1].endsLine()
		childIndent := p.computeChildIndent(rule, arg, firstArgCol, bracketCol, onNewLine)
		if onNewLine {
			p.newline()
			p.writeBlankLines(it.newlines)
			p.writeIndent(childIndent)
		} else {
			p.writeSpaces(it.spaces)
		}
		p.writeNode(it.node, childIndent)
	}

	if trailing > 0 || items[len(items)-1].endsLine() {
		p.newline()
		p.writeIndent(p.computeChildIndent(rule, arg+1, firstArgCol, bracketCol, true))
	}
	p.writeString(l.Kind.Closer())
}

// computeChildIndent determines the indentation for argument i.
// For IndentSpecial header args, if the child wraps to a new line, body indent
// is used instead of first-arg alignment to avoid rightward drift.
func (p *printer) computeChildIndent(rule *IndentRule, argIdx int, firstArgCol int, bracketCol int, onNewLine bool) int {
	switch rule.Style {
	case IndentBody:
		return bracketCol + p.cfg.IndentSize
	case IndentSpecial:
		if argIdx <= rule.HeaderArgs {
			if onNewLine {
				return bracketCol + p.cfg.IndentSize
			}
			return firstArgCol
		}
		return bracketCol + p.cfg.IndentSize
	default: // IndentAlign
		return firstArgCol
	}
}

// writeSpaces writes the spacing between tokens on the same line.
// If the source had extra spaces (e.g., for column alignment), they are preserved.
func (p *printer) writeSpaces(n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.buf.WriteByte(' ')
	}
	p.col += n
}

// writeIndent writes spaces to reach the desired column.
func (p *printer) writeIndent(col int) {
	if !p.atBOL {
		return
	}
	for i := 0; i < col; i++ {
		p.buf.WriteByte(' ')
	}
	p.col = col
	p.atBOL = false
}

// writeString writes a string, updating column tracking.
func (p *printer) writeString(s string) {
	if p.atBOL && s != "" {
		p.atBOL = false
	}
	p.buf.WriteString(s)
	if idx := strings.LastIndex(s, "\n"); idx >= 0 {
		p.col = utf8.RuneCountInString(s[idx+1:])
	} else {
		p.col += utf8.RuneCountInString(s)
	}
}

// newline writes a newline and marks beginning of line.
func (p *printer) newline() {
	p.buf.WriteByte('\n')
	p.col = 0
	p.atBOL = true
}
