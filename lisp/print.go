// Copyright © 2024 The LISPC authors

package lisp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func (v *LVal) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v *LVal) write(b *strings.Builder) {
	if v == nil {
		b.WriteString("nil")
		return
	}
	switch v.Type {
	case LNil:
		b.WriteString("nil")
	case LBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case LInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case LFloat:
		b.WriteString(FormatFloat(v.Float))
	case LString:
		b.WriteString(QuoteString(v.Str))
	case LSymbol:
		b.WriteString(v.FullName())
	case LKeyword:
		b.WriteString(":")
		b.WriteString(v.FullName())
	case LList:
		writeSeq(b, "(", v.Cells, ")")
	case LVector:
		writeSeq(b, "[", v.Cells, "]")
	case LMap:
		writeSeq(b, "{", v.Map.KVs(), "}")
	case LTable:
		writeSeq(b, "#{", v.Map.KVs(), "}")
	case LFun:
		fmt.Fprintf(b, "#<fn %s>", v.Str)
	default:
		fmt.Fprintf(b, "#<%s>", v.Type)
	}
}

func writeSeq(b *strings.Builder, left string, cells []*LVal, right string) {
	b.WriteString(left)
	for i, c := range cells {
		if i > 0 {
			b.WriteString(" ")
		}
		c.write(b)
	}
	b.WriteString(right)
}

// FormatFloat renders x so that it always reads back as a float.
func FormatFloat(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "INF"
	case math.IsInf(x, -1):
		return "-INF"
	case math.IsNaN(x):
		return "NAN"
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// QuoteString returns s as a double quoted string literal.
func QuoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, c)
				continue
			}
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
