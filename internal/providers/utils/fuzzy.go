package utils

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/justchokingaround/gscrape/internal/providers"
)

// LevenshteinDistance calculates the Levenshtein distance between two strings
// It returns the minimum number of single-character edits (insertions, deletions, or substitutions)
// required to change one string into the other
func LevenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}

// SimilarityScore calculates a similarity score between two titles (0.0 to 1.0)
// 1.0 means perfect match, 0.0 means completely different
func SimilarityScore(title1, title2 string) float64 {
	norm1 := NormalizeTitle(title1)
	norm2 := NormalizeTitle(title2)

	if norm1 == "" || norm2 == "" {
		return 0.0
	}

	distance := LevenshteinDistance(norm1, norm2)
	maxLen := max(len([]rune(norm1)), len([]rune(norm2)))

	return max(0, 1.0-float64(distance)/float64(maxLen))
}

// MatchResult is a search result with its similarity score
type MatchResult struct {
	Metadata providers.Metadata
	Score    float64
	IsExact  bool
	// IsFuzzy is set when the query only matched as an in-order subsequence
	IsFuzzy bool
}

// FindBestMatches ranks results against query. A result is kept when its
// similarity reaches minScore, when it matches exactly, or when every query
// character appears in its title in order. Exact matches sort first, then
// by score.
func FindBestMatches(query string, results []providers.Metadata, minScore float64) []MatchResult {
	if len(results) == 0 {
		return nil
	}

	normalizedQuery := NormalizeTitle(query)

	titles := make([]string, len(results))
	for i, m := range results {
		titles[i] = NormalizeTitle(m.Title)
	}
	subsequence := make(map[int]bool)
	if normalizedQuery != "" {
		for _, m := range fuzzy.Find(normalizedQuery, titles) {
			subsequence[m.Index] = true
		}
	}

	matches := make([]MatchResult, 0, len(results))
	for i, media := range results {
		score := SimilarityScore(query, media.Title)
		origIsExact := strings.EqualFold(query, media.Title)
		isExact := origIsExact || (normalizedQuery != "" && titles[i] == normalizedQuery)

		switch {
		case score >= minScore || isExact:
			// original-title matches outrank normalized-only ones
			if origIsExact {
				score = 1.1
			}
			matches = append(matches, MatchResult{Metadata: media, Score: score, IsExact: isExact})
		case subsequence[i]:
			matches = append(matches, MatchResult{Metadata: media, Score: score, IsFuzzy: true})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].IsExact != matches[j].IsExact {
			return matches[i].IsExact
		}
		if matches[i].IsFuzzy != matches[j].IsFuzzy {
			return !matches[i].IsFuzzy
		}
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// FindBestMatch finds the single best matching result
// Returns nil if nothing qualifies
func FindBestMatch(query string, results []providers.Metadata, minScore float64) *MatchResult {
	matches := FindBestMatches(query, results, minScore)
	if len(matches) == 0 {
		return nil
	}
	return &matches[0]
}
