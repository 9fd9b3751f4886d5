// Copyright © 2024 The LISPC authors

package sourcemap

import (
	"sort"
	"strings"
)

// Mapping associates a position in generated code with a position in a
// source file.  All fields are zero-based.
type Mapping struct {
	GenLine int
	GenCol  int
	Source  int
	SrcLine int
	SrcCol  int
}

// Generator collects mappings and renders them in the mappings format of a
// version 3 source map.
type Generator struct {
	sources  []string
	index    map[string]int
	mappings []Mapping
}

// NewGenerator returns an empty Generator.
func NewGenerator() *Generator {
	return &Generator{index: make(map[string]int)}
}

// SourceIndex returns the index of the named source, adding it if needed.
func (g *Generator) SourceIndex(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.sources)
	g.sources = append(g.sources, name)
	g.index[name] = i
	return i
}

// Sources returns the source names in index order.
func (g *Generator) Sources() []string {
	return g.sources
}

// AddMapping records m.
func (g *Generator) AddMapping(m Mapping) {
	g.mappings = append(g.mappings, m)
}

// Len returns the number of recorded mappings.
func (g *Generator) Len() int {
	return len(g.mappings)
}

// Mappings returns the encoded mappings.  Segments hold the generated column
// relative to the previous segment of the line, and the source index, source
// line and source column relative to the previous segment of the file.
// Lines are separated by ';' and segments by ','.
func (g *Generator) Mappings() string {
	sorted := make([]Mapping, len(g.mappings))
	copy(sorted, g.mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GenLine != sorted[j].GenLine {
			return sorted[i].GenLine < sorted[j].GenLine
		}
		return sorted[i].GenCol < sorted[j].GenCol
	})

	var b strings.Builder
	var line, prevCol, prevSource, prevLine, prevSrcCol int
	var prev *Mapping
	for i := range sorted {
		m := &sorted[i]
		if prev != nil && *prev == *m {
			continue
		}
		if m.GenLine != line || prev == nil {
			for ; line < m.GenLine; line++ {
				b.WriteByte(';')
			}
			prevCol = 0
		} else {
			b.WriteByte(',')
		}
		b.WriteString(Encode([]int{
			m.GenCol - prevCol,
			m.Source - prevSource,
			m.SrcLine - prevLine,
			m.SrcCol - prevSrcCol,
		}))
		prevCol, prevSource, prevLine, prevSrcCol = m.GenCol, m.Source, m.SrcLine, m.SrcCol
		prev = m
	}
	return b.String()
}
