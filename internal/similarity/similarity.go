// Package similarity computes the composite string-similarity score used to
// rank remote source candidates against a local title.
//
// The score blends token Jaccard, normalized edit distance, longest common
// subsequence, and longest common substring. It is deterministic and
// directional: callers that need symmetry must score both orders.
package similarity

import (
	"strings"

	"danmu/internal/title"
)

// Criterion weights for the composite score. Tuned against mixed CJK/Latin
// titles; edit distance carries the most weight because danmaku catalog
// titles are usually near-verbatim copies with decorations.
const (
	weightJaccard   = 0.25
	weightEdit      = 0.30
	weightSubseq    = 0.25
	weightSubstring = 0.20
)

// Titles returns the best composite score over every variant pair of the two
// normalized titles, in [0, 1].
func Titles(a, b title.Normalized) float64 {
	best := 0.0
	for _, va := range a.Variants {
		for _, vb := range b.Variants {
			score := Strings(va, vb)
			if score > best {
				best = score
			}
			if best >= 1.0 {
				return 1.0
			}
		}
	}
	return best
}

// Strings computes the composite score for one string pair. Exact equality
// short-circuits to 1.0.
func Strings(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	ra := []rune(a)
	rb := []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	edit := 1.0 - float64(Levenshtein(ra, rb))/float64(maxLen)
	subseq := float64(commonSubsequence(ra, rb)) / float64(maxLen)
	substring := float64(commonSubstring(ra, rb)) / float64(maxLen)
	jaccard := tokenJaccard(a, b)

	return weightJaccard*jaccard + weightEdit*edit + weightSubseq*subseq + weightSubstring*substring
}

// Levenshtein returns the edit distance between two rune slices using the
// two-row dynamic program.
func Levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j-1]+cost, curr[j-1]+1, prev[j]+1)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func commonSubsequence(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(b)]
}

func commonSubstring(a, b []rune) int {
	best := 0
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return best
}

func tokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
