package wordcloud

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/extraction-eval/internal/sentiment"
)

const eps = 1e-9

var allStrategies = []Strategy{Spiral, Grid, Bubble, Wave}

func sampleWords(n int) []WordEntry {
	vocab := []string{
		"accurate", "title", "authors", "missing", "venue", "abstract", "year",
		"doi", "keywords", "methodology", "dataset", "results", "citation",
		"field", "journal", "incomplete", "precise", "wrong", "summary", "figure",
		"table", "reference", "affiliation", "contribution", "limitation",
	}
	words := make([]WordEntry, 0, n)
	for i := 0; i < n; i++ {
		word := vocab[i%len(vocab)]
		if i >= len(vocab) {
			word = fmt.Sprintf("%s%d", word, i/len(vocab))
		}
		words = append(words, WordEntry{
			Word:              word,
			Count:             n - i + (i % 3),
			DominantSentiment: sentiment.Neutral,
			NeutralRatio:      1,
		})
	}
	return words
}

func TestLayout_EmptyInputs(t *testing.T) {
	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			out := Layout(nil, 800, 600, s, 50)
			require.NotNil(t, out)
			assert.Empty(t, out)

			out = Layout(sampleWords(5), 0, 600, s, 50)
			require.NotNil(t, out)
			assert.Empty(t, out)

			out = Layout(sampleWords(5), 800, -1, s, 50)
			assert.Empty(t, out)
		})
	}
}

func TestLayout_IgnoresZeroCounts(t *testing.T) {
	words := []WordEntry{
		{Word: "kept", Count: 2},
		{Word: "zero", Count: 0},
		{Word: "", Count: 5},
	}
	out := Layout(words, 800, 600, Grid, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Word)
}

func TestLayout_MaxWords(t *testing.T) {
	words := sampleWords(20)
	for _, s := range []Strategy{Grid, Wave} {
		t.Run(string(s), func(t *testing.T) {
			out := Layout(words, 1200, 800, s, 7)
			require.Len(t, out, 7)

			top := selectTop(words, 7)
			for i := range out {
				assert.Equal(t, top[i].Word, out[i].Word)
			}
		})
	}

	for _, s := range []Strategy{Spiral, Bubble} {
		t.Run(string(s), func(t *testing.T) {
			out := Layout(words, 1200, 800, s, 7)
			assert.LessOrEqual(t, len(out), 7)
		})
	}
}

func TestLayout_WithinCanvas(t *testing.T) {
	canvases := []struct{ w, h float64 }{
		{800, 600},
		{300, 200},
		{120, 900},
		{60, 40},
	}

	for _, s := range allStrategies {
		for _, c := range canvases {
			t.Run(fmt.Sprintf("%s/%vx%v", s, c.w, c.h), func(t *testing.T) {
				out := Layout(sampleWords(40), c.w, c.h, s, 0)
				for _, p := range out {
					if s == Bubble {
						assert.GreaterOrEqual(t, p.X-p.Radius, -eps, p.Word)
						assert.GreaterOrEqual(t, p.Y-p.Radius, -eps, p.Word)
						assert.LessOrEqual(t, p.X+p.Radius, c.w+eps, p.Word)
						assert.LessOrEqual(t, p.Y+p.Radius, c.h+eps, p.Word)
						continue
					}
					assert.GreaterOrEqual(t, p.X-p.Width/2, -eps, p.Word)
					assert.GreaterOrEqual(t, p.Y-p.Height/2, -eps, p.Word)
					assert.LessOrEqual(t, p.X+p.Width/2, c.w+eps, p.Word)
					assert.LessOrEqual(t, p.Y+p.Height/2, c.h+eps, p.Word)
				}
			})
		}
	}
}

func TestLayout_SpiralNoOverlap(t *testing.T) {
	out := Layout(sampleWords(60), 1000, 700, Spiral, 0)
	require.NotEmpty(t, out)

	for i := range out {
		a := rectAt(out[i].X, out[i].Y, out[i].Width, out[i].Height)
		for j := i + 1; j < len(out); j++ {
			b := rectAt(out[j].X, out[j].Y, out[j].Width, out[j].Height)
			assert.False(t, a.overlaps(b, 0), "%s overlaps %s", out[i].Word, out[j].Word)
		}
	}
}

func TestLayout_BubbleNoOverlap(t *testing.T) {
	out := Layout(sampleWords(40), 1000, 700, Bubble, 0)
	require.NotEmpty(t, out)

	for i := range out {
		for j := i + 1; j < len(out); j++ {
			d := math.Hypot(out[i].X-out[j].X, out[i].Y-out[j].Y)
			assert.GreaterOrEqual(t, d, out[i].Radius+out[j].Radius+bubblePadding-eps,
				"%s too close to %s", out[i].Word, out[j].Word)
		}
	}
}

func TestLayout_FixedLayoutsPlaceEverything(t *testing.T) {
	for _, s := range []Strategy{Grid, Wave} {
		for _, n := range []int{1, 2, 5, 13, 50} {
			t.Run(fmt.Sprintf("%s/%d", s, n), func(t *testing.T) {
				out := Layout(sampleWords(n), 640, 480, s, 0)
				assert.Len(t, out, n)
			})
		}
	}
}

func TestLayout_TinyCanvas(t *testing.T) {
	out := Layout(sampleWords(10), 10, 10, Spiral, 0)
	require.NotNil(t, out)
	assert.Empty(t, out, "minimum font size cannot fit a 10x10 canvas")

	out = Layout(sampleWords(10), 10, 10, Bubble, 0)
	assert.Empty(t, out)

	// fixed layouts shrink instead of dropping
	out = Layout(sampleWords(10), 10, 10, Grid, 0)
	assert.Len(t, out, 10)
	for _, p := range out {
		assert.Less(t, p.Size, DefaultMinSize)
	}
}

func TestLayout_SizeFollowsCount(t *testing.T) {
	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			out := Layout(sampleWords(30), 1200, 900, s, 0)
			for i := range out {
				for j := range out {
					if out[i].Count > out[j].Count {
						assert.GreaterOrEqual(t, out[i].Size, out[j].Size-eps,
							"%s (%d) smaller than %s (%d)", out[i].Word, out[i].Count, out[j].Word, out[j].Count)
					}
				}
			}
		})
	}
}

func TestLayout_SizeRange(t *testing.T) {
	out := Layout(sampleWords(10), 2000, 2000, Spiral, 0, WithSizeRange(10, 20))
	require.NotEmpty(t, out)
	for _, p := range out {
		assert.GreaterOrEqual(t, p.Size, 10.0)
		assert.LessOrEqual(t, p.Size, 20.0)
	}

	out = Layout(sampleWords(10), 2000, 2000, Bubble, 0, WithRadiusRange(10, 30))
	require.NotEmpty(t, out)
	for _, p := range out {
		assert.GreaterOrEqual(t, p.Radius, 10.0)
		assert.LessOrEqual(t, p.Radius, 30.0)
		assert.InDelta(t, p.Radius*bubbleFontRatio, p.Size, eps)
	}
}

func TestLayout_EqualCountsUseMidpoint(t *testing.T) {
	words := []WordEntry{{Word: "alpha", Count: 3}, {Word: "beta", Count: 3}}
	out := Layout(words, 800, 600, Spiral, 0)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.InDelta(t, (DefaultMinSize+DefaultMaxSize)/2, p.Size, eps)
	}
}

func TestLayout_Reproducible(t *testing.T) {
	words := sampleWords(25)

	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			a := Layout(words, 900, 600, s, 0, WithSeed(7))
			b := Layout(words, 900, 600, s, 0, WithSeed(7))
			assert.Equal(t, a, b)

			// default seed is fixed too
			assert.Equal(t, Layout(words, 900, 600, s, 0), Layout(words, 900, 600, s, 0))
		})
	}
}

func TestLayout_SpiralSeedChangesRotation(t *testing.T) {
	words := sampleWords(5)
	a := Layout(words, 1200, 900, Spiral, 0, WithSeed(1))
	b := Layout(words, 1200, 900, Spiral, 0, WithSeed(2))
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)
	assert.NotEqual(t, a[0].Rotation, b[0].Rotation)

	for _, p := range a {
		assert.LessOrEqual(t, math.Abs(p.Rotation), spiralMaxRotation)
	}
}

func TestLayout_WaveRotationAlternates(t *testing.T) {
	out := Layout(sampleWords(6), 1200, 800, Wave, 0)
	require.Len(t, out, 6)
	for i, p := range out {
		if i%2 == 0 {
			assert.Equal(t, waveRotation, p.Rotation)
		} else {
			assert.Equal(t, -waveRotation, p.Rotation)
		}
	}
}

func TestLayout_UnknownStrategyFallsBackToSpiral(t *testing.T) {
	words := sampleWords(8)
	assert.Equal(t,
		Layout(words, 800, 600, Spiral, 0),
		Layout(words, 800, 600, Strategy("hexagonal"), 0))
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"spiral", Spiral, true},
		{" Grid ", Grid, true},
		{"BUBBLE", Bubble, true},
		{"wave", Wave, true},
		{"", Spiral, false},
		{"radial", Spiral, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStrategy(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestTextBox(t *testing.T) {
	w, h := textBox("abcd", 10, 0)
	assert.InDelta(t, 24.0, w, eps)
	assert.InDelta(t, 12.0, h, eps)

	w, h = textBox("abcd", 10, 90)
	assert.InDelta(t, 12.0, w, 1e-6)
	assert.InDelta(t, 24.0, h, 1e-6)
}

func TestPlacedWord_JSONShape(t *testing.T) {
	for _, strategy := range allStrategies {
		t.Run(string(strategy), func(t *testing.T) {
			placed := Layout(sampleWords(12), 800, 600, strategy, 0, WithSeed(7))
			require.NotEmpty(t, placed)

			for _, p := range placed {
				data, err := json.Marshal(p)
				require.NoError(t, err)

				var fields map[string]any
				require.NoError(t, json.Unmarshal(data, &fields))
				assert.Contains(t, fields, "word")
				assert.Contains(t, fields, "x")
				assert.Contains(t, fields, "y")

				if strategy == Bubble {
					assert.Contains(t, fields, "radius")
					assert.NotContains(t, fields, "rotation")
					continue
				}
				assert.Contains(t, fields, "width")
				assert.Contains(t, fields, "height")
				assert.Contains(t, fields, "rotation")
				assert.NotContains(t, fields, "radius")
				if strategy == Grid {
					assert.Equal(t, 0.0, fields["rotation"])
				}
			}
		})
	}
}

func TestPlacedWord_RoundTrip(t *testing.T) {
	in := PlacedWord{WordEntry: WordEntry{Word: "venue", Count: 3}, X: 10, Y: 20, Size: 14, Width: 40, Height: 14}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rotation":0`)

	var out PlacedWord
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
