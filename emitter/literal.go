// Copyright © 2024 The LISPC authors

package emitter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/luthersystems/lispc/lisp"
)

// Names of the runtime support library.
const (
	langNamespace = `\Lispc\Lang`
	typeFactory   = langNamespace + `\TypeFactory::getInstance()`
	registry      = langNamespace + `\Registry::getInstance()`
	runtime       = langNamespace + `\Runtime::getInstance()`
	truthy        = langNamespace + `\Truthy::isTruthy`
	abstractFn    = langNamespace + `\AbstractFn`
)

// ValueLiteralEmitter writes values as code that constructs an equal value
// at runtime.
type ValueLiteralEmitter interface {
	EmitLiteral(b *OutputBuffer, v *lisp.LVal) error
}

// PHPLiteralEmitter renders values using the runtime support library's
// persistent collections, keywords and symbols.
type PHPLiteralEmitter struct{}

var _ ValueLiteralEmitter = PHPLiteralEmitter{}

// EmitLiteral implements ValueLiteralEmitter.
func (e PHPLiteralEmitter) EmitLiteral(b *OutputBuffer, v *lisp.LVal) error {
	if err := e.emitValue(b, v); err != nil {
		return err
	}
	return e.emitMeta(b, v)
}

func (e PHPLiteralEmitter) emitValue(b *OutputBuffer, v *lisp.LVal) error {
	if v == nil {
		b.Write("null")
		return nil
	}
	switch v.Type {
	case lisp.LNil:
		b.Write("null")
	case lisp.LBool:
		b.Write(strconv.FormatBool(v.Bool))
	case lisp.LInt:
		b.Write(strconv.FormatInt(v.Int, 10))
	case lisp.LFloat:
		b.Write(phpFloat(v.Float))
	case lisp.LString:
		b.Write(phpString(v.Str))
	case lisp.LKeyword:
		b.Write(qualifiedCreate(langNamespace+`\Keyword`, v))
	case lisp.LSymbol:
		b.Write(qualifiedCreate(langNamespace+`\Symbol`, v))
	case lisp.LList:
		return e.emitArrayCall(b, typeFactory+"->persistentListFromArray(", v.Cells)
	case lisp.LVector:
		return e.emitArrayCall(b, typeFactory+"->persistentVectorFromArray(", v.Cells)
	case lisp.LMap:
		return e.emitArgsCall(b, typeFactory+"->persistentMapFromKVs(", v.Map.KVs())
	case lisp.LTable:
		return e.emitArgsCall(b, langNamespace+`\Table::fromKVs(`, v.Map.KVs())
	default:
		return fmt.Errorf("cannot emit a %s literal", v.Type)
	}
	return nil
}

func (e PHPLiteralEmitter) emitMeta(b *OutputBuffer, v *lisp.LVal) error {
	if v == nil || v.Meta == nil || v.Meta.Map.Len() == 0 || !v.SupportsMeta() {
		return nil
	}
	b.Write("->withMeta(")
	if err := e.emitValue(b, v.Meta); err != nil {
		return err
	}
	b.Write(")")
	return nil
}

func (e PHPLiteralEmitter) emitArrayCall(b *OutputBuffer, open string, cells []*lisp.LVal) error {
	b.Write(open + "[")
	if err := e.emitList(b, cells); err != nil {
		return err
	}
	b.Write("])")
	return nil
}

func (e PHPLiteralEmitter) emitArgsCall(b *OutputBuffer, open string, cells []*lisp.LVal) error {
	b.Write(open)
	if err := e.emitList(b, cells); err != nil {
		return err
	}
	b.Write(")")
	return nil
}

func (e PHPLiteralEmitter) emitList(b *OutputBuffer, cells []*lisp.LVal) error {
	for i, c := range cells {
		if i > 0 {
			b.Write(", ")
		}
		if err := e.EmitLiteral(b, c); err != nil {
			return err
		}
	}
	return nil
}

func qualifiedCreate(class string, v *lisp.LVal) string {
	if v.Ns != "" {
		return fmt.Sprintf("%s::createForNamespace(%s, %s)", class, phpString(v.Ns), phpString(v.Str))
	}
	return fmt.Sprintf("%s::create(%s)", class, phpString(v.Str))
}

func phpFloat(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "INF"
	case math.IsInf(x, -1):
		return "-INF"
	case math.IsNaN(x):
		return "NAN"
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// phpString returns s as a double quoted string literal.
func phpString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '$':
			b.WriteString(`\$`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\v':
			b.WriteString(`\v`)
		case '\f':
			b.WriteString(`\f`)
		case 0x1b:
			b.WriteString(`\e`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\x%02X`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
