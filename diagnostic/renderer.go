// Copyright © 2024 The LISPC authors

package diagnostic

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is the column at which notes are wrapped.
const DefaultWidth = 80

// tabWidth is the number of columns a tab occupies in rendered source.
const tabWidth = 4

// Renderer formats diagnostics as annotated source snippets in the style of
// the Rust compiler.  A Renderer caches the source files it reads and is not
// safe for concurrent use.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)

	// Width is the column at which notes are wrapped.  Zero means
	// DefaultWidth.
	Width int

	sources map[string][]string
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	out := &output{p: choosePalette(r.Color, fileFromWriter(w))}
	out.header(d.Severity, d.Message)
	for _, span := range d.Spans {
		r.renderSpan(out, span)
	}
	width := r.Width
	if width <= 0 {
		width = DefaultWidth
	}
	for _, note := range d.Notes {
		out.note("note", note, width)
	}
	for _, help := range d.Help {
		out.note("help", help, width)
	}
	_, err := w.Write(out.buf.Bytes())
	return err
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderSpan(out *output, span Span) {
	out.location(span)
	source := span.Source
	if source == "" {
		source = r.sourceLine(span.File, span.Line)
	}
	if source == "" {
		out.gutter("", "")
		return
	}

	number := strconv.Itoa(span.Line)
	blank := strings.Repeat(" ", len(number))
	col := max(span.Col, 1)
	endCol := span.EndCol
	if endCol <= 0 {
		endCol = tokenEnd(source, col)
	}
	endCol = max(endCol, col)

	var marker strings.Builder
	marker.WriteString(strings.Repeat(" ", displayWidth(prefixBefore(source, col))))
	marker.WriteString(out.p.boldRed + strings.Repeat("^", endCol-col+1) + out.p.reset)
	if span.Label != "" {
		marker.WriteString(" " + out.p.boldRed + span.Label + out.p.reset)
	}

	out.gutter(blank, "")
	out.gutter(number, expandTabs(source))
	out.gutter(blank, marker.String())
	out.gutter(blank, "")
}

// sourceLine returns the text of the 1-based line of file, or the empty
// string when the file cannot be read or is too short.
func (r *Renderer) sourceLine(file string, line int) string {
	if line <= 0 || file == "" {
		return ""
	}
	lines, ok := r.sources[file]
	if !ok {
		lines = r.readLines(file)
		if r.sources == nil {
			r.sources = make(map[string][]string)
		}
		r.sources[file] = lines
	}
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func (r *Renderer) readLines(file string) []string {
	read := r.SourceReader
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(file)
	if err != nil {
		return nil
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return strings.Split(string(data), "\n")
}

// output accumulates one rendered diagnostic.
type output struct {
	buf bytes.Buffer
	p   palette
}

func (o *output) header(sev Severity, msg string) {
	color := o.p.boldRed
	switch sev {
	case SeverityWarning:
		color = o.p.yellow
	case SeverityNote:
		color = o.p.boldCyan
	}
	fmt.Fprintf(&o.buf, "%s%s%s%s:%s %s%s%s\n",
		color, o.p.bold, sev, o.p.reset,
		o.p.reset,
		o.p.bold, msg, o.p.reset)
}

// location writes the "  --> file:line:col" line of a span.
func (o *output) location(span Span) {
	loc := span.File
	if span.Line > 0 {
		loc += ":" + strconv.Itoa(span.Line)
		if span.Col > 0 {
			loc += ":" + strconv.Itoa(span.Col)
		}
	}
	fmt.Fprintf(&o.buf, "  %s-->%s %s\n", o.p.boldBlue, o.p.reset, loc)
}

// gutter writes a line of the source panel.  An empty label with empty
// text produces the bare "   |" separator.
func (o *output) gutter(label, text string) {
	if label == "" && text == "" {
		fmt.Fprintf(&o.buf, "   %s|%s\n", o.p.boldBlue, o.p.reset)
		return
	}
	fmt.Fprintf(&o.buf, " %s%s |%s", o.p.boldBlue, label, o.p.reset)
	if text != "" {
		o.buf.WriteString("  " + text)
	}
	o.buf.WriteByte('\n')
}

// note writes a "= kind:" line, wrapping long text under its first line.
func (o *output) note(kind, text string, width int) {
	lead := len("   = " + kind + ": ")
	first, rest, wrapped := strings.Cut(wordwrap.String(text, width-lead), "\n")
	fmt.Fprintf(&o.buf, "   %s=%s %s: %s\n", o.p.boldCyan, o.p.reset, kind, first)
	if wrapped {
		o.buf.WriteString(indent.String(rest, uint(lead)) + "\n")
	}
}

// tokenEnd returns the 1-based column of the last character of the atom
// starting at col.
func tokenEnd(source string, col int) int {
	if col <= 0 || col > len(source) {
		return col
	}
	start := col - 1
	end := start
	for end < len(source) {
		ch, size := utf8.DecodeRuneInString(source[end:])
		if unicode.IsSpace(ch) || strings.ContainsRune(`()[]{}"';`, ch) {
			break
		}
		end += size
	}
	if end == start {
		return col
	}
	return end
}

func prefixBefore(source string, col int) string {
	if col > 1 && col-1 <= len(source) {
		return source[:col-1]
	}
	return ""
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// displayWidth returns the number of columns s occupies once tabs are
// expanded.
func displayWidth(s string) int {
	return utf8.RuneCountInString(s) + strings.Count(s, "\t")*(tabWidth-1)
}

// fileFromWriter returns the file behind w, or nil when w is not a file.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
