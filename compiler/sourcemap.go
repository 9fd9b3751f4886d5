// Copyright © 2024 The LISPC authors

package compiler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EmbeddedSourceMap is the source map carried by a generated file.
type EmbeddedSourceMap struct {
	File     string   `json:"file"`
	Sources  []string `json:"sources"`
	Mappings string   `json:"mappings"`
}

// ErrNoSourceMap is returned by ReadSourceMap for code without a source map
// comment.
var ErrNoSourceMap = errors.New("no source map found")

// ReadSourceMap decodes the source map embedded in generated code.
func ReadSourceMap(code string) (*EmbeddedSourceMap, error) {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		data, ok := strings.CutPrefix(lines[i], SourceMapPrefix)
		if !ok {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decoding source map: %w", err)
		}
		var m EmbeddedSourceMap
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("decoding source map: %w", err)
		}
		return &m, nil
	}
	return nil, ErrNoSourceMap
}
