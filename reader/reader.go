// Copyright © 2024 The LISPC authors

// Package reader converts concrete syntax trees into lisp values.  The reader
// expands quote, quasiquote and #() syntax and attaches ^metadata.
package reader

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/lispc/lisp"
	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/rdparser"
)

// SymbolResolver gives the reader access to the analyzer's view of global
// definitions.
type SymbolResolver interface {
	// CurrentNamespace returns the namespace that ::keywords are read into.
	CurrentNamespace() string
	// QualifySymbol returns the namespace-qualified symbol for sym if sym
	// names a global definition.
	QualifySymbol(sym *lisp.LVal) (*lisp.LVal, bool)
}

// Option configures a Reader.
type Option func(*Reader)

// WithResolver qualifies symbols in quasiquoted forms and ::keywords using r.
func WithResolver(r SymbolResolver) Option {
	return func(rd *Reader) {
		rd.resolver = r
	}
}

// Reader converts CST nodes to values.  A Reader is not safe for concurrent
// use.
type Reader struct {
	resolver SymbolResolver
	// quasi is the depth of quasiquote forms being read.
	quasi   int
	shortFn bool
}

// New returns a new Reader.
func New(opts ...Option) *Reader {
	r := &Reader{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read returns the value denoted by n.  Trivia nodes denote no value and Read
// returns nil for them.
func (r *Reader) Read(n cst.Node) (*lisp.LVal, error) {
	if n.IsTrivia() {
		return nil, nil
	}
	return r.read(n)
}

// ReadString parses src and reads every top-level form.
func (r *Reader) ReadString(src string, name string) ([]*lisp.LVal, error) {
	p := rdparser.NewString(name, src)
	var vals []*lisp.LVal
	for {
		form, _, err := p.ParseForm()
		if errors.Is(err, io.EOF) {
			return vals, nil
		}
		if err != nil {
			return vals, err
		}
		v, err := r.Read(form)
		if err != nil {
			return vals, err
		}
		vals = append(vals, v)
	}
}

func (r *Reader) currentNamespace() string {
	if r.resolver == nil {
		return lisp.DefaultNamespace
	}
	return r.resolver.CurrentNamespace()
}

func (r *Reader) read(n cst.Node) (*lisp.LVal, error) {
	switch n := n.(type) {
	case *cst.Atom:
		return r.readAtom(n)
	case *cst.List:
		return r.readList(n)
	case *cst.QuoteNode:
		return r.readQuote(n)
	case *cst.Meta:
		return r.readMeta(n)
	}
	return nil, newError(n, "unexpected syntax node: %T", n)
}

func (r *Reader) readAtom(n *cst.Atom) (*lisp.LVal, error) {
	text := n.Text()
	var v *lisp.LVal
	switch n.Kind {
	case cst.AtomNil:
		v = lisp.Nil()
	case cst.AtomBool:
		v = lisp.Bool(text == "true")
	case cst.AtomNumber:
		x, ok := parseNumber(text)
		if !ok {
			return nil, newError(n, "invalid number literal: %s", text)
		}
		v = x
	case cst.AtomString:
		s, err := unescapeString(text)
		if err != nil {
			return nil, newError(n, "%v", err)
		}
		v = lisp.String(s)
	case cst.AtomKeyword:
		kw, err := r.readKeyword(n, text)
		if err != nil {
			return nil, err
		}
		v = kw
	default:
		if r.shortFn && text == "%" {
			text = "%1"
		}
		v = lisp.ParseSymbol(text)
	}
	return v.At(n.Start(), n.End()), nil
}

func (r *Reader) readKeyword(n *cst.Atom, text string) (*lisp.LVal, error) {
	if strings.HasPrefix(text, "::") {
		name := text[2:]
		if strings.Contains(name, "/") && name != "/" {
			return nil, newError(n, "invalid keyword: %s", text)
		}
		return lisp.NsKeyword(r.currentNamespace(), name), nil
	}
	sym := lisp.ParseSymbol(text[1:])
	return lisp.NsKeyword(sym.Ns, sym.Str), nil
}

func (r *Reader) readForms(children []cst.Node) ([]*lisp.LVal, error) {
	forms := cst.Forms(children)
	cells := make([]*lisp.LVal, 0, len(forms))
	for _, c := range forms {
		v, err := r.read(c)
		if err != nil {
			return nil, err
		}
		cells = append(cells, v)
	}
	return cells, nil
}

func (r *Reader) readList(n *cst.List) (*lisp.LVal, error) {
	if n.Kind == cst.ListShortFn {
		return r.readShortFn(n)
	}
	cells, err := r.readForms(n.Children)
	if err != nil {
		return nil, err
	}
	var v *lisp.LVal
	switch n.Kind {
	case cst.ListParen:
		v = lisp.List(cells...)
	case cst.ListVector:
		v = lisp.Vector(cells...)
	case cst.ListMap, cst.ListTable:
		if len(cells)%2 != 0 {
			return nil, newError(n, "%s literal must contain an even number of forms", n.Kind)
		}
		if i := duplicateKey(cells); i >= 0 {
			return nil, newError(n.Forms()[i], "duplicate key in %s literal: %v", n.Kind, cells[i])
		}
		if n.Kind == cst.ListMap {
			v = lisp.Map(cells...)
		} else {
			v = lisp.Table(cells...)
		}
	}
	return v.At(n.Start(), n.End()), nil
}

// duplicateKey returns the index of the first repeated key in kvs, or -1.
func duplicateKey(kvs []*lisp.LVal) int {
	seen := lisp.NewMapData()
	for i := 0; i < len(kvs); i += 2 {
		if seen.Has(kvs[i]) {
			return i
		}
		seen.Set(kvs[i], lisp.Nil())
	}
	return -1
}

// readShortFn expands #(body...) to (fn [%1 %2 & %&] (body...)).
func (r *Reader) readShortFn(n *cst.List) (*lisp.LVal, error) {
	r.shortFn = true
	cells, err := r.readForms(n.Children)
	r.shortFn = false
	if err != nil {
		return nil, err
	}
	maxArg := 0
	rest := false
	for _, ph := range n.Placeholders {
		if ph == "%&" {
			rest = true
			continue
		}
		i, err := strconv.Atoi(ph[1:])
		if err != nil {
			return nil, newError(n, "invalid argument placeholder: %s", ph)
		}
		if i > maxArg {
			maxArg = i
		}
	}
	used := make(map[string]bool, len(n.Placeholders))
	for _, ph := range n.Placeholders {
		used[ph] = true
	}
	var params []*lisp.LVal
	for i := 1; i <= maxArg; i++ {
		name := "%" + strconv.Itoa(i)
		if used[name] {
			params = append(params, lisp.Symbol(name))
		} else {
			params = append(params, lisp.Gensym())
		}
	}
	if rest {
		params = append(params, lisp.Symbol("&"), lisp.Symbol("%&"))
	}
	body := lisp.List(cells...).At(n.Start(), n.End())
	fn := lisp.List(lisp.Symbol("fn"), lisp.Vector(params...), body)
	return fn.At(n.Start(), n.End()), nil
}

func (r *Reader) readQuote(n *cst.QuoteNode) (*lisp.LVal, error) {
	switch n.Kind {
	case cst.Quote:
		x, err := r.read(n.Form)
		if err != nil {
			return nil, err
		}
		return lisp.List(lisp.Symbol("quote"), x).At(n.Start(), n.End()), nil
	case cst.Quasiquote:
		r.quasi++
		x, err := r.read(n.Form)
		r.quasi--
		if err != nil {
			return nil, err
		}
		q := &quasiquoter{
			resolver: r.resolver,
			gensyms:  make(map[string]*lisp.LVal),
		}
		v, err := q.transform(x)
		if err != nil {
			return nil, newError(n, "%v", err)
		}
		return v, nil
	default:
		if r.quasi == 0 {
			return nil, newError(n, "%s outside of quasiquote", n.Kind)
		}
		x, err := r.read(n.Form)
		if err != nil {
			return nil, err
		}
		return lisp.List(lisp.Symbol(n.Kind.String()), x).At(n.Start(), n.End()), nil
	}
}

func (r *Reader) readMeta(n *cst.Meta) (*lisp.LVal, error) {
	meta, err := r.read(n.Meta)
	if err != nil {
		return nil, err
	}
	target, err := r.read(n.Target)
	if err != nil {
		return nil, err
	}
	m, err := normalizeMeta(meta)
	if err != nil {
		return nil, newError(n.Meta, "%v", err)
	}
	if !target.SupportsMeta() {
		return nil, newError(n.Target, "metadata cannot be attached to a %s", target.Type)
	}
	merged := lisp.Map()
	if target.Meta != nil {
		merged.Map.Merge(target.Meta.Map)
	}
	merged.Map.Merge(m.Map)
	v := target.WithMeta(merged)
	return v.At(n.Start(), n.End()), nil
}

// normalizeMeta returns the metadata map denoted by meta: a map is used as is,
// a keyword k denotes {k true} and a symbol or string s denotes {:tag s}.
func normalizeMeta(meta *lisp.LVal) (*lisp.LVal, error) {
	switch meta.Type {
	case lisp.LMap:
		return meta, nil
	case lisp.LKeyword:
		return lisp.Map(meta, lisp.Bool(true)), nil
	case lisp.LSymbol, lisp.LString:
		return lisp.Map(lisp.Keyword("tag"), meta), nil
	}
	return nil, errors.New("metadata must be a symbol, string, keyword or map")
}

// unescapeString returns the contents of a string literal with escape
// sequences replaced.  Unknown escapes are kept verbatim.
func unescapeString(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", errors.New("malformed string literal")
	}
	s := lit[1 : len(lit)-1]
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'v':
			b.WriteByte('\v')
		case 'f':
			b.WriteByte('\f')
		case 'e':
			b.WriteByte(0x1b)
		case '"', '\\', '$':
			b.WriteByte(s[i])
		case 'x':
			end := i + 1
			for end < len(s) && end < i+3 && isHex(s[end]) {
				end++
			}
			if end == i+1 {
				b.WriteString(`\x`)
				continue
			}
			x, _ := strconv.ParseUint(s[i+1:end], 16, 8)
			b.WriteByte(byte(x))
			i = end - 1
		case 'u':
			if i+1 >= len(s) || s[i+1] != '{' {
				b.WriteString(`\u`)
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return "", errors.New(`unterminated \u{...} escape sequence`)
			}
			hex := s[i+2 : i+end]
			x, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || hex == "" || !utf8.ValidRune(rune(x)) {
				return "", errors.New(`invalid unicode code point in \u{` + hex + `}`)
			}
			b.WriteRune(rune(x))
			i += end
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
