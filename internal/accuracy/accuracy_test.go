package accuracy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "deep learning for nlp", Normalize("  Deep   Learning\tfor NLP \n"))
	// NFKC folds the ligature
	assert.Equal(t, "efficient", Normalize("eﬃcient"))
}

func TestLevenshteinSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		score    float64
		distance int
	}{
		{name: "identical", expected: "Attention Is All You Need", actual: "attention is all you need", score: 1, distance: 0},
		{name: "both empty", expected: "", actual: "", score: 1, distance: 0},
		{name: "one empty", expected: "abc", actual: "", score: 0, distance: 3},
		{name: "one substitution", expected: "kitten", actual: "sitten", score: 1 - 1.0/6, distance: 1},
		{name: "kitten sitting", expected: "kitten", actual: "sitting", score: 1 - 3.0/7, distance: 3},
		{name: "umlaut substitution", expected: "Müller", actual: "Möller", score: 1 - 1.0/6, distance: 1},
		{name: "accented insertion", expected: "Jose", actual: "José", score: 1 - 1.0/4, distance: 1},
		{name: "cjk", expected: "深度学习", actual: "深度学", score: 1 - 1.0/4, distance: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, dist := LevenshteinSimilarity(tt.expected, tt.actual)
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.Equal(t, tt.distance, dist)
		})
	}
}

func TestRuneDistance_WideAlphabet(t *testing.T) {
	a := make([]rune, 0, 300)
	for r := rune(0x4e00); r < 0x4e00+300; r++ {
		a = append(a, r)
	}
	b := append([]rune{}, a...)
	b[10] = 'x'
	b = b[:len(b)-1]

	assert.Equal(t, 2, runeDistance(a, b))
	assert.Equal(t, 0, runeDistance(a, a))
	assert.Equal(t, len(a), runeDistance(a, nil))
}

func TestTokenF1(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		score    float64
	}{
		{name: "same tokens different order", expected: "graph neural networks", actual: "networks, graph neural", score: 1},
		{name: "partial overlap", expected: "a b c d", actual: "a b", score: 2 * 1 * 0.5 / 1.5},
		{name: "no overlap", expected: "alpha", actual: "beta", score: 0},
		{name: "both empty", expected: "", actual: "", score: 1},
		{name: "actual empty", expected: "alpha", actual: "", score: 0},
		{name: "duplicates count once each", expected: "the the cat", actual: "the cat cat", score: 2.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.score, TokenF1(tt.expected, tt.actual), 1e-9)
		})
	}
}

func TestSpecialCharScore(t *testing.T) {
	assert.Equal(t, 1.0, SpecialCharScore("plain title", "plain title"))
	assert.Equal(t, 0.5, SpecialCharScore("plain title", "plain: title"))
	assert.Equal(t, 1.0, SpecialCharScore("BERT: pre-training", "bert: pre-training"))
	assert.InDelta(t, 0.5, SpecialCharScore("BERT: pre-training", "bert pre-training"), 1e-9)
	assert.Equal(t, 0.0, SpecialCharScore("C++ & Go", "C and Go"))
}

func TestScoreMetadataField(t *testing.T) {
	w := DefaultMetadataWeights()
	require.NoError(t, w.Validate())

	exact := ScoreMetadataField("BERT: Pre-training of Deep Bidirectional Transformers", "BERT: Pre-training of Deep Bidirectional Transformers", w)
	assert.InDelta(t, 1.0, exact.Score, 1e-9)

	partial := ScoreMetadataField("BERT: Pre-training of Deep Bidirectional Transformers", "BERT Pre-training of Transformers", w)
	assert.Greater(t, partial.Score, 0.0)
	assert.Less(t, partial.Score, 1.0)
	assert.InDelta(t, w.Levenshtein*partial.Levenshtein+w.TokenF1*partial.TokenF1+w.SpecialChar*partial.SpecialChar, partial.Score, 1e-9)

	// no punctuation on either side still counts as preserved
	missing := ScoreMetadataField("Some Title", "", w)
	assert.InDelta(t, 0.2, missing.Score, 1e-9)
	assert.Equal(t, 10, missing.Distance)
}

func TestWeightsValidate(t *testing.T) {
	assert.NoError(t, DefaultMetadataWeights().Validate())
	assert.NoError(t, DefaultResearchFieldWeights().Validate())
	assert.Error(t, MetadataWeights{Levenshtein: 0.5, TokenF1: 0.5, SpecialChar: 0.5}.Validate())
	assert.Error(t, ResearchFieldWeights{ExactMatch: 1.2, TopN: -0.2}.Validate())
}

func TestScoreResearchField(t *testing.T) {
	w := DefaultResearchFieldWeights()
	predictions := []string{"Machine Learning", "Computer Vision", "Natural Language Processing", "Robotics"}

	tests := []struct {
		name        string
		truth       string
		topN        int
		matchIndex  int
		exact       bool
		inTopN      bool
		expectScore float64
	}{
		{name: "first prediction", truth: "machine learning", topN: 3, matchIndex: 0, exact: true, inTopN: true, expectScore: 1.0},
		{name: "second prediction", truth: "Computer Vision", topN: 3, matchIndex: 1, exact: false, inTopN: true, expectScore: 0.3 + 0.3*0.75},
		{name: "outside top n", truth: "Robotics", topN: 2, matchIndex: 3, exact: false, inTopN: false, expectScore: 0.3 * 0.25},
		{name: "default top n", truth: "Natural Language Processing", topN: 0, matchIndex: 2, exact: false, inTopN: true, expectScore: 0.3 + 0.3*0.5},
		{name: "not predicted", truth: "Databases", topN: 3, matchIndex: -1, expectScore: 0},
		{name: "empty truth", truth: "  ", topN: 3, matchIndex: -1, expectScore: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreResearchField(tt.truth, predictions, tt.topN, w)
			assert.Equal(t, tt.matchIndex, res.MatchIndex)
			assert.Equal(t, tt.exact, res.ExactMatch)
			assert.Equal(t, tt.inTopN, res.InTopN)
			assert.InDelta(t, tt.expectScore, res.Score, 1e-9)
		})
	}
}
