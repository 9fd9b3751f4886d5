// Copyright © 2024 The LISPC authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/lispc/analyzer"
)

// symbolCompleter implements readline.AutoCompleter by enumerating the
// definitions of the compilation session.
type symbolCompleter struct {
	reg *analyzer.Registry
}

func (c *symbolCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed (backwards from cursor to whitespace or an open bracket).
	start := pos
	for start > 0 {
		ch := line[start-1]
		if ch == ' ' || ch == '\t' || ch == '(' || ch == '[' || ch == '{' || ch == '\n' || ch == '\'' {
			break
		}
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := c.collectSymbols(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, sym := range candidates {
		suffix := sym[len(prefix):]
		result = append(result, []rune(suffix))
	}
	return result, len(prefix)
}

func (c *symbolCompleter) collectSymbols(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	add := func(name string) {
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	// Symbols visible from the current namespace.
	for _, name := range c.reg.Names(c.reg.CurrentNamespace()) {
		add(name)
	}

	// Public definitions of all namespaces (as qualified names).
	for _, ns := range c.reg.Namespaces() {
		qualPrefix := ns + "/"
		if strings.HasPrefix(prefix, qualPrefix) {
			for _, def := range c.reg.Definitions(ns) {
				if !def.IsPrivate() {
					add(qualPrefix + def.Name)
				}
			}
		} else if strings.HasPrefix(qualPrefix, prefix) {
			// Complete the namespace name itself.
			add(qualPrefix)
		}
	}

	sort.Strings(result)
	return result
}
