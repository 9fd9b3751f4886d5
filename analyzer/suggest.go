// Copyright © 2024 The LISPC authors

package analyzer

import (
	"sort"
)

const (
	maxSuggestions        = 3
	maxSuggestionRunes    = 255
	maxSuggestionDistance = 3
)

// Suggest returns up to three candidates within a small edit distance of
// name, closest first.  Ties are broken by name.  Exact matches are never
// suggested.
func Suggest(name string, candidates []string) []string {
	type match struct {
		name string
		dist int
	}
	var matches []match
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		d := editDistance(name, c, maxSuggestionDistance)
		if d == 0 || d > maxSuggestionDistance {
			continue
		}
		matches = append(matches, match{c, d})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	names := make([]string, len(matches))
	for i := range matches {
		names[i] = matches[i].name
	}
	return names
}

// editDistance returns the Levenshtein distance between a and b.  Distances
// greater than limit are reported as limit+1.  Only the first 255 runes of
// each string are compared.
func editDistance(a, b string, limit int) int {
	ra := truncateRunes(a)
	rb := truncateRunes(b)
	if abs(len(ra)-len(rb)) > limit {
		return limit + 1
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > limit {
			return limit + 1
		}
		prev, curr = curr, prev
	}
	if prev[len(rb)] > limit {
		return limit + 1
	}
	return prev[len(rb)]
}

func truncateRunes(s string) []rune {
	r := []rune(s)
	if len(r) > maxSuggestionRunes {
		r = r[:maxSuggestionRunes]
	}
	return r
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
