// Copyright © 2024 The LISPC authors

// Package parser provides entry points for turning source text into concrete
// syntax trees.
package parser

import (
	"os"
	"path/filepath"

	"github.com/luthersystems/lispc/parser/cst"
	"github.com/luthersystems/lispc/parser/rdparser"
	"github.com/luthersystems/lispc/parser/token"
)

// ParseString parses source, naming it name in locations.
func ParseString(name string, source string) (*cst.File, error) {
	return rdparser.NewString(name, source).ParseAll()
}

// ParseFile reads and parses the file at path.  Locations name the file by
// its base name and carry the full path.
func ParseFile(path string) (*cst.File, error) {
	b, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, err
	}
	s := token.NewScanner(filepath.Base(path), string(b))
	s.SetPath(path)
	file, err := rdparser.New(s).ParseAll()
	if file != nil {
		file.Name = filepath.Base(path)
	}
	return file, err
}
