// Copyright © 2024 The LISPC authors

// Package formatter provides source code formatting for lisp files.  It
// parses source into a concrete syntax tree, which keeps comments and line
// breaks, then walks the tree to produce formatted output.
package formatter

import (
	"strings"

	"github.com/luthersystems/lispc/parser"
)

// Format formats source code. If cfg is nil, DefaultConfig() is used.
func Format(source []byte, cfg *Config) ([]byte, error) {
	return FormatFile(source, "<stdin>", cfg)
}

// FormatFile formats source code, using filename for error messages.
func FormatFile(source []byte, filename string, cfg *Config) ([]byte, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	file, err := parser.ParseString(filename, string(source))
	if err != nil {
		return nil, err
	}

	pr := newPrinter(cfg)
	pr.writeTopLevel(file.Children)

	result := pr.buf.String()

	// Ensure exactly one trailing newline (if there's any content)
	if len(result) > 0 {
		result = strings.TrimRight(result, "\n") + "\n"
	}

	return []byte(result), nil
}
