// Copyright © 2024 The LISPC authors

package reader

import (
	"strconv"
	"strings"

	parsec "github.com/prataprc/goparsec"

	"github.com/luthersystems/lispc/lisp"
)

/*
Numeric literals follow the grammar

	number  := (hex | binary | octal | float | decimal) EOF
	hex     := /[+-]?0x[0-9a-fA-F](_?[0-9a-fA-F])*\/
	binary  := /[+-]?0b[01](_?[01])*\/
	octal   := /[+-]?0o[0-7](_?[0-7])*\/
	float   := digits ('.' digits exponent? | exponent)
	decimal := /[+-]?[0-9](_?[0-9])*\/

Underscores separate digits and are otherwise ignored.
*/
var numberParser = newNumberParser()

const (
	termHex     = "HEX"
	termBinary  = "BINARY"
	termOctal   = "OCTAL"
	termFloat   = "FLOAT"
	termDecimal = "DECIMAL"
)

func newNumberParser() parsec.Parser {
	first := func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		if len(nodes) == 0 {
			return nil
		}
		return nodes[0]
	}
	hex := parsec.Token(`[+-]?0[xX][0-9a-fA-F](_?[0-9a-fA-F])*`, termHex)
	binary := parsec.Token(`[+-]?0[bB][01](_?[01])*`, termBinary)
	octal := parsec.Token(`[+-]?0[oO][0-7](_?[0-7])*`, termOctal)
	float := parsec.Token(`[+-]?[0-9](_?[0-9])*(\.[0-9](_?[0-9])*([eE][+-]?[0-9]+)?|[eE][+-]?[0-9]+)`, termFloat)
	decimal := parsec.Token(`[+-]?[0-9](_?[0-9])*`, termDecimal)
	literal := parsec.OrdChoice(first, hex, binary, octal, float, decimal)
	return parsec.And(first, literal, parsec.End())
}

// parseNumber converts the text of a number token to an int or float value.
func parseNumber(text string) (*lisp.LVal, bool) {
	node, _ := numberParser(parsec.NewScanner([]byte(text)))
	term, ok := node.(*parsec.Terminal)
	if !ok {
		return nil, false
	}
	digits := strings.ReplaceAll(text, "_", "")
	switch term.GetName() {
	case termFloat:
		x, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return nil, false
		}
		return lisp.Float(x), true
	default:
		// Base prefixes (0x, 0b, 0o) are understood by ParseInt with base 0.
		// A plain decimal with leading zeros must not be read as octal.
		base := 0
		if term.GetName() == termDecimal {
			base = 10
		}
		x, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return nil, false
		}
		return lisp.Int(x), true
	}
}
