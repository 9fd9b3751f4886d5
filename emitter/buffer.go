// Copyright © 2024 The LISPC authors

package emitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/golang-collections/collections/stack"
)

// OutputBuffer accumulates generated code and tracks the zero-based line and
// column of the next character so emitted code can be mapped back to its
// source.
type OutputBuffer struct {
	b       strings.Builder
	line    int
	col     int
	unit    string
	indents *stack.Stack
	bol     bool
}

// NewOutputBuffer returns an empty buffer whose first line is numbered line.
// Each indentation level is one copy of unit.
func NewOutputBuffer(line int, unit string) *OutputBuffer {
	return &OutputBuffer{
		line:    line,
		unit:    unit,
		indents: stack.New(),
		bol:     true,
	}
}

func (b *OutputBuffer) indentation() string {
	if b.indents.Len() == 0 {
		return ""
	}
	return b.indents.Peek().(string)
}

// Indent increases the indentation of subsequent lines.
func (b *OutputBuffer) Indent() {
	b.indents.Push(b.indentation() + b.unit)
}

// Dedent reverts the last call to Indent.
func (b *OutputBuffer) Dedent() {
	if b.indents.Len() > 0 {
		b.indents.Pop()
	}
}

// flushIndent writes the indentation of the current line if nothing has
// been written on it yet.
func (b *OutputBuffer) flushIndent() {
	if !b.bol {
		return
	}
	b.bol = false
	indent := b.indentation()
	b.b.WriteString(indent)
	b.col += len(indent)
}

// Write appends s.  Newlines in s start indented lines.
func (b *OutputBuffer) Write(s string) {
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			b.writeLine(s)
			return
		}
		b.writeLine(s[:i])
		b.Newline()
		s = s[i+1:]
	}
}

func (b *OutputBuffer) writeLine(s string) {
	if s == "" {
		return
	}
	b.flushIndent()
	b.b.WriteString(s)
	b.col += utf8.RuneCountInString(s)
}

// Writef appends formatted text.
func (b *OutputBuffer) Writef(format string, v ...interface{}) {
	b.Write(fmt.Sprintf(format, v...))
}

// Newline ends the current line.
func (b *OutputBuffer) Newline() {
	b.b.WriteByte('\n')
	b.line++
	b.col = 0
	b.bol = true
}

// Position returns the zero-based line and column at which the next
// character will be written.
func (b *OutputBuffer) Position() (line int, col int) {
	b.flushIndent()
	return b.line, b.col
}

// Line returns the zero-based line of the next character.
func (b *OutputBuffer) Line() int {
	return b.line
}

func (b *OutputBuffer) String() string {
	return b.b.String()
}
