package repository

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	suggestionLimit     = 3
	similarityThreshold = 0.6
)

// suggest returns up to suggestionLimit candidates close to query, closest first.
// A candidate qualifies when query is a case-insensitive subsequence of it or
// when their Levenshtein similarity clears the threshold.
func suggest(query string, candidates []string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	type scored struct {
		name     string
		distance int
	}

	var matches []scored
	lq := strings.ToLower(query)
	for _, c := range candidates {
		lc := strings.ToLower(c)
		distance := fuzzy.LevenshteinDistance(lq, lc)
		maxLen := float64(max(len(lq), len(lc)))
		similarity := 1 - float64(distance)/maxLen

		if fuzzy.MatchFold(query, c) || similarity > similarityThreshold {
			matches = append(matches, scored{name: c, distance: distance})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	var out []string
	for _, m := range matches {
		if len(out) == suggestionLimit {
			break
		}
		out = append(out, m.name)
	}
	return out
}
