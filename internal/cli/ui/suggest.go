package ui

import (
	"sort"
	"strings"
)

const (
	maxSuggestionDistance = 3
	maxSuggestions        = 3
)

// SuggestPaths returns up to three candidates closest to target by edit
// distance, ignoring case. A candidate matches when either its full path or
// its last segment is within distance 3 of the target.
func SuggestPaths(target string, candidates []string) []string {
	type match struct {
		path     string
		distance int
	}

	target = strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		lower := strings.ToLower(c)
		d := levenshtein(target, lower)
		if i := strings.LastIndex(lower, "::"); i >= 0 {
			if nd := levenshtein(target, lower[i+2:]); nd < d {
				d = nd
			}
		}
		if d <= maxSuggestionDistance {
			matches = append(matches, match{path: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].path < matches[j].path
	})

	out := make([]string, 0, maxSuggestions)
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		out = append(out, matches[i].path)
	}
	return out
}

// levenshtein is the edit distance between a and b over bytes.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
