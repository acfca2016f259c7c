package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	t.Run("identical strings score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, Score("HONDA BIZ 125", "HONDA BIZ 125"), 1e-9)
	})

	t.Run("disjoint strings score near 0", func(t *testing.T) {
		assert.Less(t, Score("XYZ", "QQQ"), 0.1)
	})

	t.Run("both empty score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, Score("", ""), 1e-9)
	})

	t.Run("one empty scores 0", func(t *testing.T) {
		assert.Zero(t, Score("HONDA", ""))
		assert.Zero(t, Score("", "HONDA"))
	})

	t.Run("shared tokens lift the score", func(t *testing.T) {
		with := Score("HONDA BIZ 125", "HONDA BIZ 125 ES")
		without := Score("HONDA BIZ 125", "YAMAHA FACTOR 150")
		assert.Greater(t, with, without)
		assert.Greater(t, with, 0.8)
	})

	t.Run("score is bounded", func(t *testing.T) {
		pairs := [][2]string{
			{"HONDA BIZ", "HONDA BIZ 125"},
			{"FORD KA 2017", "FIAT UNO 2017"},
			{"A", "ABCDEFGH"},
		}
		for _, p := range pairs {
			s := Score(p[0], p[1])
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	})
}

func TestBestMatch(t *testing.T) {
	m := NewFuzzyMatcher(DefaultMatchThreshold)

	t.Run("case and punctuation insensitive", func(t *testing.T) {
		match, ok := m.BestMatch("Honda Biz!", []string{"HONDA BIZ", "YAMAHA FACTOR"})
		assert.True(t, ok)
		assert.Equal(t, "HONDA BIZ", match.Candidate)
		assert.InDelta(t, 1.0, match.Score, 1e-9)
	})

	t.Run("below threshold rejects", func(t *testing.T) {
		_, ok := m.BestMatch("HONDA BIZ 125", []string{"SCANIA R450", "VOLVO FH 540"})
		assert.False(t, ok)
	})

	t.Run("empty candidates reject", func(t *testing.T) {
		_, ok := m.BestMatch("HONDA BIZ", nil)
		assert.False(t, ok)
	})

	t.Run("ties keep the first candidate", func(t *testing.T) {
		match, ok := m.BestMatchWithThreshold("AB", []string{"ABC", "ABD"}, 0.5)
		assert.True(t, ok)
		assert.Equal(t, "ABC", match.Candidate)
	})

	t.Run("per-call threshold override", func(t *testing.T) {
		query := "GOL"
		candidates := []string{"GOL 1.0"}

		strict, okStrict := m.BestMatchWithThreshold(query, candidates, 0.95)
		loose, okLoose := m.BestMatchWithThreshold(query, candidates, 0.5)

		assert.False(t, okStrict, "score %f", strict.Score)
		assert.True(t, okLoose)
		assert.Equal(t, "GOL 1.0", loose.Candidate)
	})
}

func TestNewFuzzyMatcherThresholdFallback(t *testing.T) {
	for _, bad := range []float64{-1, 0, 1.5} {
		m := NewFuzzyMatcher(bad)
		assert.Equal(t, DefaultMatchThreshold, m.threshold, "threshold %f", bad)
	}
}

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "abc", 1.0},
		{"abcd", "bcde", 0.75},
		{"abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, sequenceRatio(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
	}
}
