// Copyright © 2024 The LISPC authors

package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/luthersystems/lispc/parser/token"
)

type LexFn func(*Lexer) []*token.Token

// delimiters terminate atoms.  Commas are whitespace.
const delimiters = "()[]{}\"';`~^,"

type Lexer struct {
	scanner *token.Scanner
	lex     LexFn
	done    bool
}

func New(s *token.Scanner) *Lexer {
	lex := &Lexer{
		scanner: s,
		lex:     (*Lexer).readToken,
	}
	return lex
}

// ReadToken returns the next tokens from the input.  After the input is
// exhausted every call returns a token of type token.EOF.  Scanning failures
// produce a token of type token.ERROR whose text is the error message.
func (lex *Lexer) ReadToken() []*token.Token {
	if lex.done {
		return lex.emit(token.EOF, "")
	}
	return lex.lex(lex)
}

// All scans the entire input, returning every token up to and including EOF.
// The first ERROR token encountered is returned as an *Error.
func All(name string, source string) ([]*token.Token, error) {
	lex := New(token.NewScanner(name, source))
	var toks []*token.Token
	for {
		for _, tok := range lex.ReadToken() {
			if tok.Type == token.ERROR {
				return toks, NewError(tok, token.NewCodeSnippet(toks))
			}
			toks = append(toks, tok)
			if tok.Type == token.EOF {
				return toks, nil
			}
		}
	}
}

func (lex *Lexer) readToken() []*token.Token {
	if lex.scanner.EOF() {
		lex.done = true
		return lex.emit(token.EOF, "")
	}
	if lex.scanner.AcceptSeqSpace() > 0 {
		return lex.emitText(token.WHITESPACE)
	}
	if lex.scanner.ScanRune() != nil {
		lex.done = true
		return lex.errorf("%v", lex.scanner.Err())
	}
	switch c := lex.scanner.Rune(); c {
	case '\n':
		return lex.emitText(token.NEWLINE)
	case '(':
		return lex.emitText(token.PAREN_L)
	case ')':
		return lex.emitText(token.PAREN_R)
	case '[':
		return lex.emitText(token.BRACKET_L)
	case ']':
		return lex.emitText(token.BRACKET_R)
	case '{':
		return lex.emitText(token.BRACE_L)
	case '}':
		return lex.emitText(token.BRACE_R)
	case '\'':
		return lex.emitText(token.QUOTE)
	case '`':
		return lex.emitText(token.QUASIQUOTE)
	case '^':
		return lex.emitText(token.CARET)
	case '~':
		if lex.scanner.AcceptRune('@') {
			return lex.emitText(token.UNQUOTE_SPLICING)
		}
		return lex.emitText(token.UNQUOTE)
	case ';':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	case '"':
		return lex.readString()
	case '#':
		return lex.readDispatch()
	default:
		if isInvalid(c) {
			return lex.errorf("invalid character %q", c)
		}
		return lex.readAtom()
	}
}

// readDispatch reads the character following '#'.
func (lex *Lexer) readDispatch() []*token.Token {
	switch {
	case lex.scanner.AcceptRune('{'):
		return lex.emitText(token.HASH_BRACE_L)
	case lex.scanner.AcceptRune('('):
		return lex.emitText(token.HASH_PAREN_L)
	case lex.scanner.AcceptRune('_'):
		return lex.emitText(token.COMMENT_MACRO)
	case lex.scanner.AcceptRune('|'):
		return lex.readBlockComment()
	case lex.scanner.LocStart().Pos == 0 && lex.scanner.AcceptRune('!'):
		// A hash-bang is only meaningful as the first line of a file.
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.emitText(token.COMMENT)
	}
	c, ok := lex.scanner.Peek()
	if !ok {
		return lex.errorf("unexpected end of input after #")
	}
	return lex.errorf("invalid dispatch macro character %q", c)
}

func (lex *Lexer) readBlockComment() []*token.Token {
	depth := 1
	for depth > 0 {
		switch {
		case lex.scanner.EOF():
			return lex.errorf("unterminated block comment")
		case lex.scanner.AcceptRune('|') && lex.scanner.AcceptRune('#'):
			depth--
		case lex.scanner.AcceptRune('#') && lex.scanner.AcceptRune('|'):
			depth++
		default:
			if lex.scanner.ScanRune() != nil && !lex.scanner.EOF() {
				return lex.errorf("%v", lex.scanner.Err())
			}
		}
	}
	return lex.emitText(token.COMMENT)
}

func (lex *Lexer) readString() []*token.Token {
	for {
		if lex.scanner.EOF() {
			return lex.errorf("unterminated string literal")
		}
		if err := lex.scanner.ScanRune(); err != nil {
			return lex.errorf("%v", err)
		}
		switch lex.scanner.Rune() {
		case '"':
			return lex.emitText(token.STRING)
		case '\\':
			// Escapes are validated by the reader.
			if lex.scanner.EOF() {
				return lex.errorf("unterminated string literal")
			}
			if err := lex.scanner.ScanRune(); err != nil {
				return lex.errorf("%v", err)
			}
		}
	}
}

// readAtom reads a symbol, keyword or number.  The first rune has already
// been scanned.
func (lex *Lexer) readAtom() []*token.Token {
	lex.scanner.AcceptSeq(isAtomRune)
	text := lex.scanner.Text()
	switch {
	case strings.HasPrefix(text, ":"):
		if text == ":" || text == "::" {
			return lex.errorf("invalid keyword %q", text)
		}
		return lex.emitText(token.KEYWORD)
	case looksNumeric(text):
		return lex.emitText(token.NUMBER)
	default:
		return lex.emitText(token.SYMBOL)
	}
}

func (lex *Lexer) emit(typ token.Type, text string) []*token.Token {
	tok := &token.Token{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
		End:    lex.scanner.Loc(),
	}
	lex.scanner.Ignore()
	return []*token.Token{tok}
}

func (lex *Lexer) emitText(typ token.Type) []*token.Token {
	return []*token.Token{lex.scanner.EmitToken(typ)}
}

func (lex *Lexer) errorf(format string, v ...interface{}) []*token.Token {
	return lex.emit(token.ERROR, fmt.Sprintf(format, v...))
}

func isAtomRune(c rune) bool {
	return !unicode.IsSpace(c) && !strings.ContainsRune(delimiters, c) && !isInvalid(c)
}

func isInvalid(c rune) bool {
	return unicode.IsControl(c) && !unicode.IsSpace(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// looksNumeric reports whether text starts like a number literal: an optional
// sign followed by a digit.  Whether the literal is valid is decided by the
// reader.
func looksNumeric(text string) bool {
	if text == "" {
		return false
	}
	if text[0] == '+' || text[0] == '-' {
		text = text[1:]
	}
	return text != "" && isDigit(rune(text[0]))
}
