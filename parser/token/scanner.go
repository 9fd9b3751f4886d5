// Copyright © 2024 The LISPC authors

package token

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from source text.  The scanner
// tracks byte offsets, lines and columns so every token can carry its exact
// start and end location.
type Scanner struct {
	file string
	path string
	src  string

	start     int // byte offset at the start of the current token
	startLine int // line number at start
	startCol  int // column number at start

	pos  int // byte offset of the next rune to scan
	line int // line number of the next rune to scan
	col  int // column number of the next rune to scan

	c   Rune
	err error
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(file string, src string) *Scanner {
	return NewScannerLine(file, src, 1)
}

// NewScannerLine initializes a Scanner whose first line is numbered line.
// It is used when the text is a fragment of a larger document (e.g. a REPL
// session or an embedded block).
func NewScannerLine(file string, src string, line int) *Scanner {
	if line < 1 {
		line = 1
	}
	return &Scanner{
		file:      file,
		src:       src,
		line:      line,
		col:       1,
		startLine: line,
		startCol:  1,
	}
}

// NewScannerReader reads all of r and returns a Scanner over its contents.
func NewScannerReader(file string, r io.Reader) (*Scanner, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewScanner(file, string(b)), nil
}

// SetPath associates a physical location (e.g. filesystem path) with s to aid
// in debugging projects which scan many ungrouped files.
func (s *Scanner) SetPath(path string) {
	s.path = path
}

// EmitToken returns a token containing the text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
		End:    s.Loc(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.pos
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns a string containing text scanned since the last call to either
// EmitToken or Ignore.
func (s *Scanner) Text() string {
	return s.src[s.start:s.pos]
}

// Rune returns the current unicode rune that is being scanned.  The rune
// returned by Rune is the last rune in a token returned by EmitToken.
func (s *Scanner) Rune() rune {
	return s.c.C
}

// Peek returns the next rune to be scanned, if there are any.  If an invalid
// utf-8 sequence or EOF prevents futher runes from being scanned Peek returns
// a false second value.
func (s *Scanner) Peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	c, n := utf8.DecodeRuneInString(s.src[s.pos:])
	if (Rune{c, n}).IsRuneError() {
		return utf8.RuneError, false
	}
	return c, true
}

// PeekN returns the rune n positions after the next rune (PeekN(0) is
// equivalent to Peek).
func (s *Scanner) PeekN(n int) (rune, bool) {
	pos := s.pos
	for i := 0; ; i++ {
		if pos >= len(s.src) {
			return 0, false
		}
		c, w := utf8.DecodeRuneInString(s.src[pos:])
		if (Rune{c, w}).IsRuneError() {
			return utf8.RuneError, false
		}
		if i == n {
			return c, true
		}
		pos += w
	}
}

// ScanRune attempts to scan a utf-8 rune from the input for inclusion in the
// current token.  If an error prevents a valid unicode rune from being scanned
// then an error will be returned.
func (s *Scanner) ScanRune() error {
	if s.pos >= len(s.src) {
		return io.EOF
	}
	c, n := utf8.DecodeRuneInString(s.src[s.pos:])
	r := Rune{c, n}
	if r.IsRuneError() {
		s.err = fmt.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.src[s.pos])
		return s.err
	}
	s.c = r
	s.pos += n
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return nil
}

// Err returns an error encountered while decoding the input.
func (s *Scanner) Err() error {
	return s.err
}

// EOF returns true when every byte of the input has been scanned.
func (s *Scanner) EOF() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok {
		return false
	}
	if fn(peek) {
		return s.ScanRune() == nil
	}
	return false
}

func (s *Scanner) AcceptRune(c rune) bool {
	peek, ok := s.Peek()
	if !ok {
		return false
	}
	if peek == c {
		return s.ScanRune() == nil
	}
	return false
}

func (s *Scanner) AcceptDigit() bool {
	return s.Accept(func(c rune) bool { return '0' <= c && c <= '9' })
}

// AcceptSpace accepts horizontal whitespace.  Newlines are tokens of their own
// and are never accepted by AcceptSpace.
func (s *Scanner) AcceptSpace() bool {
	return s.Accept(func(c rune) bool { return c != '\n' && (unicode.IsSpace(c) || c == ',') })
}

func (s *Scanner) AcceptAny(charset string) bool {
	if len(charset) == 1 {
		return s.AcceptRune(rune(charset[0]))
	}
	return s.Accept(func(c rune) bool { return strings.ContainsRune(charset, c) })
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqRune(c rune) int {
	var n int
	for s.AcceptRune(c) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqAny(charset string) int {
	var n int
	for s.AcceptAny(charset) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	var n int
	for s.AcceptDigit() {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqSpace() int {
	var n int
	for s.AcceptSpace() {
		n++
	}
	return n
}

func (s *Scanner) AcceptString(literal string) (int, bool) {
	if !strings.HasPrefix(s.src[s.pos:], literal) {
		return 0, false
	}
	var n int
	for range literal {
		if s.ScanRune() != nil {
			return n, false
		}
		n++
	}
	return n, true
}

// LocStart returns a Location referencing the beginning of the current token.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.start,
		Line: s.startLine,
		Col:  s.startCol,
	}
}

// Loc returns a Location referencing the current scanner position, just beyond
// the last rune of the current token.
func (s *Scanner) Loc() *Location {
	return &Location{
		File: s.file,
		Path: s.path,
		Pos:  s.pos,
		Line: s.line,
		Col:  s.col,
	}
}

// Rune contains a rune that read by Scanner during peeking operations.
type Rune struct {
	C rune
	N int
}

// IsRuneError returns true if Rune represents an invalid utf-8 sequence read
// by utf8.DecodeRune.
func (r Rune) IsRuneError() bool {
	return r.C == utf8.RuneError && r.N == 1
}
