package grading

import (
	"strings"
	"unicode"
)

// Normalize case-folds s, trims it and collapses every run of whitespace to a
// single space. Punctuation is significant.
func Normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && len(out) > 0 {
			out = append(out, ' ')
		}
		space = false
		out = append(out, r)
	}
	return strings.ToLower(string(out))
}

// withinEdits reports whether a can be turned into b with at most k
// single-rune insertions, deletions or substitutions. It gives up as soon as
// every cell of a row exceeds k, so long unrelated answers cost little.
func withinEdits(a, b string, k int) bool {
	ar, br := []rune(a), []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(ar)-len(br) > k {
		return false
	}
	row := make([]int, len(br)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ar); i++ {
		diag := row[0]
		row[0] = i
		best := row[0]
		for j := 1; j <= len(br); j++ {
			up := row[j]
			sub := diag
			if ar[i-1] != br[j-1] {
				sub++
			}
			row[j] = min(up+1, row[j-1]+1, sub)
			diag = up
			best = min(best, row[j])
		}
		if best > k {
			return false
		}
	}
	return row[len(br)] <= k
}
