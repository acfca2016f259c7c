package analyzer

import "strings"

// DefaultMatchThreshold is the minimum blended score a candidate needs to be
// accepted by BestMatch.
const DefaultMatchThreshold = 0.8

const (
	sequenceWeight = 0.7
	overlapWeight  = 0.3
)

// Match is a fuzzy match outcome.
type Match struct {
	Candidate string
	Score     float64
}

// FuzzyMatcher scores textual similarity between a query and catalog
// candidate names, blending character-level alignment with token overlap to
// recover inexact matches.
type FuzzyMatcher struct {
	threshold float64
}

// NewFuzzyMatcher creates a matcher with the given acceptance threshold.
// Values outside (0, 1] fall back to DefaultMatchThreshold.
func NewFuzzyMatcher(threshold float64) *FuzzyMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}
	return &FuzzyMatcher{threshold: threshold}
}

// BestMatch returns the highest-scoring candidate when its score reaches the
// threshold. Candidates are scanned in order and ties keep the first one
// encountered.
func (m *FuzzyMatcher) BestMatch(query string, candidates []string) (Match, bool) {
	return m.BestMatchWithThreshold(query, candidates, m.threshold)
}

// BestMatchWithThreshold is BestMatch with a per-call threshold override.
func (m *FuzzyMatcher) BestMatchWithThreshold(query string, candidates []string, threshold float64) (Match, bool) {
	if len(candidates) == 0 {
		return Match{}, false
	}

	queryClean := cleanForComparison(query)

	var best Match
	for _, candidate := range candidates {
		score := Score(queryClean, cleanForComparison(candidate))
		if score > best.Score {
			best = Match{Candidate: candidate, Score: score}
		}
	}

	if best.Score >= threshold && best.Candidate != "" {
		return best, true
	}
	return Match{}, false
}

// Score blends a character-alignment ratio (weight 0.7) with the share of
// query tokens present in the candidate (weight 0.3). Inputs are expected
// already cleaned for comparison.
func Score(queryClean, candidateClean string) float64 {
	seq := sequenceRatio(queryClean, candidateClean)

	queryWords := strings.Fields(queryClean)
	candidateWords := make(map[string]bool)
	for _, w := range strings.Fields(candidateClean) {
		candidateWords[w] = true
	}

	overlap := 0
	for _, w := range queryWords {
		if candidateWords[w] {
			overlap++
		}
	}

	wordOverlap := 0.0
	if len(queryWords) > 0 {
		wordOverlap = float64(overlap) / float64(len(queryWords))
	}

	return seq*sequenceWeight + wordOverlap*overlapWeight
}

// sequenceRatio is the character-level alignment ratio in [0,1]:
// 2*matches/(len(a)+len(b)) with matches counted over the longest common
// subsequence.
func sequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	ra := []rune(a)
	rb := []rune(b)

	// Single-row LCS table
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
