// Copyright © 2024 The LISPC authors

package sourcemap

import (
	"fmt"
	"strings"
)

// Consumer answers queries about encoded mappings.
type Consumer struct {
	lines [][]Mapping
}

// NewConsumer decodes mappings.
func NewConsumer(mappings string) (*Consumer, error) {
	c := &Consumer{}
	var source, srcLine, srcCol int
	for genLine, line := range strings.Split(mappings, ";") {
		var segs []Mapping
		genCol := 0
		if line != "" {
			for _, seg := range strings.Split(line, ",") {
				values, err := Decode(seg)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", genLine+1, err)
				}
				switch len(values) {
				case 1:
					// A segment without a source position.
					genCol += values[0]
					continue
				case 4, 5:
				default:
					return nil, fmt.Errorf("line %d: invalid segment %q", genLine+1, seg)
				}
				genCol += values[0]
				source += values[1]
				srcLine += values[2]
				srcCol += values[3]
				segs = append(segs, Mapping{
					GenLine: genLine,
					GenCol:  genCol,
					Source:  source,
					SrcLine: srcLine,
					SrcCol:  srcCol,
				})
			}
		}
		c.lines = append(c.lines, segs)
	}
	return c, nil
}

// OriginalLine returns the one-based source line for the one-based
// generated line, or 0 if the line has no mapping.  When a generated line
// maps to several source lines the lowest is returned.
func (c *Consumer) OriginalLine(generatedLine int) int {
	i := generatedLine - 1
	if i < 0 || i >= len(c.lines) || len(c.lines[i]) == 0 {
		return 0
	}
	best := c.lines[i][0].SrcLine
	for _, m := range c.lines[i][1:] {
		if m.SrcLine < best {
			best = m.SrcLine
		}
	}
	return best + 1
}

// Segments returns the decoded mappings of the one-based generated line.
func (c *Consumer) Segments(generatedLine int) []Mapping {
	i := generatedLine - 1
	if i < 0 || i >= len(c.lines) {
		return nil
	}
	return c.lines[i]
}
