package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/extraction-eval/internal/blend"
	"github.com/ZanzyTHEbar/extraction-eval/internal/evaluation"
	"github.com/ZanzyTHEbar/extraction-eval/internal/sentiment"
	"github.com/ZanzyTHEbar/extraction-eval/internal/wordcloud"
)

func TestWordCloudScatter(t *testing.T) {
	words := []wordcloud.WordEntry{
		{Word: "accurate", Count: 5, DominantSentiment: sentiment.Positive},
		{Word: "missing", Count: 3, DominantSentiment: sentiment.Negative},
		{Word: "venue", Count: 1, DominantSentiment: sentiment.Neutral},
	}
	placed := wordcloud.Layout(words, 800, 600, wordcloud.Spiral, 0)
	require.NotEmpty(t, placed)

	html, err := WordCloudScatter(placed, 800, 600, wordcloud.Spiral)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Word Cloud Layout")
	assert.Contains(t, out, "spiral layout")
	assert.Contains(t, out, "accurate")
	assert.Contains(t, out, "echarts")
}

func TestWordCloudScatter_Empty(t *testing.T) {
	html, err := WordCloudScatter(nil, 400, 300, wordcloud.Grid)
	require.NoError(t, err)
	assert.Contains(t, string(html), "0 words placed")
}

func TestScoreHistogram(t *testing.T) {
	scored := []evaluation.ScoredRecord{
		{Result: blend.Blend(0.8, nil, 1)},
		{Result: blend.Blend(0.35, nil, 1)},
	}
	html, err := ScoreHistogram(evaluation.Summarize(scored))
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Final Score Distribution")
	assert.Contains(t, out, "0.8-0.9")
	assert.Contains(t, out, "2 records")
}
