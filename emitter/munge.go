// Copyright © 2024 The LISPC authors

package emitter

import (
	"strings"
)

var mungeMapping = map[rune]string{
	'-':  "_",
	'.':  "_DOT_",
	':':  "_COLON_",
	'+':  "_PLUS_",
	'>':  "_GT_",
	'<':  "_LT_",
	'=':  "_EQ_",
	'~':  "_TILDE_",
	'!':  "_BANG_",
	'@':  "_CIRCA_",
	'#':  "_SHARP_",
	'\'': "_SINGLEQUOTE_",
	'"':  "_DOUBLEQUOTE_",
	'%':  "_PERCENT_",
	'^':  "_CARET_",
	'&':  "_AMPERSAND_",
	'*':  "_STAR_",
	'|':  "_BAR_",
	'{':  "_LBRACE_",
	'}':  "_RBRACE_",
	'[':  "_LBRACK_",
	']':  "_RBRACK_",
	'/':  "_SLASH_",
	'\\': "_BSLASH_",
	'?':  "_QMARK_",
	'$':  "_DOLLAR_",
}

// reservedNames cannot be used as host variable names.
var reservedNames = map[string]string{
	"this": "__this",
}

// Munge converts name into an identifier that is valid in generated code.
func Munge(name string) string {
	if r, ok := reservedNames[name]; ok {
		return r
	}
	var b strings.Builder
	for _, c := range name {
		if m, ok := mungeMapping[c]; ok {
			b.WriteString(m)
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// MungeNamespace munges each segment of a backslash separated name.  A
// leading backslash is preserved.
func MungeNamespace(name string) string {
	segments := strings.Split(name, `\`)
	for i, seg := range segments {
		if seg != "" {
			segments[i] = Munge(seg)
		}
	}
	return strings.Join(segments, `\`)
}

// variable returns the host variable for a local named name.
func variable(name string) string {
	return "$" + Munge(name)
}
