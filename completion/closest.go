package completion

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Closest picks the candidate a mistyped word most likely meant, or "" when
// nothing is close. Hints are never returned.
func Closest(word string, candidates []string) string {
	if word == "" {
		return ""
	}
	targets := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !IsHint(c) && c != word {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return ""
	}

	// Use fuzzy ranking to find best match
	ranks := fuzzy.RankFindFold(word, targets)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	// Fall back to edit distance for typos that are not subsequences
	best, bestDistance := "", max(1, len(word)/2)+1
	for _, c := range targets {
		if d := fuzzy.LevenshteinDistance(word, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
