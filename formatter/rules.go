// Copyright © 2024 The LISPC authors

package formatter

import "strings"

// IndentStyle determines how arguments in a list are indented.
type IndentStyle int

const (
	// IndentAlign indents subsequent lines to align with the first argument.
	IndentAlign IndentStyle = iota
	// IndentBody indents all subforms at bracket column + indent size.
	IndentBody
	// IndentSpecial indents N header args aligned, rest at bracket + indent size.
	IndentSpecial
)

// IndentRule specifies the indentation behavior for a particular form.
type IndentRule struct {
	Style      IndentStyle
	HeaderArgs int // for IndentSpecial: args before the "body"
}

// Config holds formatting configuration.
type Config struct {
	IndentSize    int                    // spaces per indent level (default: 2)
	MaxBlankLines int                    // max consecutive blank lines (default: 1)
	Rules         map[string]*IndentRule // form name -> rule
}

// DefaultConfig returns the default formatting configuration.
func DefaultConfig() *Config {
	return &Config{
		IndentSize:    2,
		MaxBlankLines: 1,
		Rules:         DefaultRules(),
	}
}

// DefaultRules returns the default indent rules table.
func DefaultRules() map[string]*IndentRule {
	return map[string]*IndentRule{
		// 2 header args + body
		"defn":      {Style: IndentSpecial, HeaderArgs: 2},
		"defn-":     {Style: IndentSpecial, HeaderArgs: 2},
		"defmacro":  {Style: IndentSpecial, HeaderArgs: 2},
		"defmacro-": {Style: IndentSpecial, HeaderArgs: 2},
		"defstruct": {Style: IndentSpecial, HeaderArgs: 2},
		"catch":     {Style: IndentSpecial, HeaderArgs: 2},

		// 1 header arg + body
		"fn":           {Style: IndentSpecial, HeaderArgs: 1},
		"let":          {Style: IndentSpecial, HeaderArgs: 1},
		"loop":         {Style: IndentSpecial, HeaderArgs: 1},
		"foreach":      {Style: IndentSpecial, HeaderArgs: 1},
		"dotimes":      {Style: IndentSpecial, HeaderArgs: 1},
		"if":           {Style: IndentSpecial, HeaderArgs: 1},
		"if-not":       {Style: IndentSpecial, HeaderArgs: 1},
		"if-let":       {Style: IndentSpecial, HeaderArgs: 1},
		"when":         {Style: IndentSpecial, HeaderArgs: 1},
		"when-not":     {Style: IndentSpecial, HeaderArgs: 1},
		"when-let":     {Style: IndentSpecial, HeaderArgs: 1},
		"ns":           {Style: IndentSpecial, HeaderArgs: 1},
		"definterface": {Style: IndentSpecial, HeaderArgs: 1},

		// threading, align all forms with first arg
		"->":  {Style: IndentAlign},
		"->>": {Style: IndentAlign},

		// all body
		"do":      {Style: IndentBody},
		"try":     {Style: IndentBody},
		"finally": {Style: IndentBody},
		"cond":    {Style: IndentBody},
		"comment": {Style: IndentBody},
	}
}

// RuleFor returns the indent rule for the given form name.
// If no specific rule exists, returns the default first-arg alignment rule.
// Other forms starting with "def" get defn-style indent (2 header args +
// body).
func (c *Config) RuleFor(name string) *IndentRule {
	if r, ok := c.Rules[name]; ok {
		return r
	}
	if strings.HasPrefix(name, "def") {
		return &IndentRule{Style: IndentSpecial, HeaderArgs: 2}
	}
	return &IndentRule{Style: IndentAlign}
}
