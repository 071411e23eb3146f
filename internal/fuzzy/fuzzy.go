// Package fuzzy provides approximate string matching for categorical label
// resolution. Similarity is a normalized edit-distance ratio in [0, 1],
// comparable to difflib-style close matching.
package fuzzy

import (
	"strings"
	"unicode/utf8"
)

// Levenshtein computes the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Single-row DP.
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

// Ratio returns the similarity of a and b in [0, 1].
// 1 means identical, 0 means nothing in common.
func Ratio(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1
	}
	longest := la
	if lb > longest {
		longest = lb
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// Closest returns the candidate most similar to target with a similarity of
// at least cutoff. The second return value is false when no candidate passes
// the cutoff. Comparison ignores leading/trailing whitespace; ties keep the
// earliest candidate.
func Closest(target string, candidates []string, cutoff float64) (string, bool) {
	target = strings.TrimSpace(target)

	best := ""
	bestScore := 0.0
	found := false
	for _, c := range candidates {
		score := Ratio(target, strings.TrimSpace(c))
		if score >= cutoff && score > bestScore {
			best = c
			bestScore = score
			found = true
		}
	}
	return best, found
}
