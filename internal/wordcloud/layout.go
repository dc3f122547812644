package wordcloud

import (
	"math/rand/v2"
	"sort"
)

const (
	DefaultMinSize   = 12.0
	DefaultMaxSize   = 48.0
	DefaultMinRadius = 20.0
	DefaultMaxRadius = 60.0
	DefaultSeed      = 42
)

type config struct {
	rng       *rand.Rand
	minSize   float64
	maxSize   float64
	minRadius float64
	maxRadius float64
}

// Option tunes a Layout call.
type Option func(*config)

// WithRand injects the PRNG used for rotation jitter.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithSeed seeds a fresh PCG source for rotation jitter.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.rng = newRand(seed) }
}

// WithSizeRange sets the font-size range used by text layouts.
func WithSizeRange(lo, hi float64) Option {
	return func(c *config) {
		if lo > 0 && hi >= lo {
			c.minSize, c.maxSize = lo, hi
		}
	}
}

// WithRadiusRange sets the circle radius range used by the bubble layout.
func WithRadiusRange(lo, hi float64) Option {
	return func(c *config) {
		if lo > 0 && hi >= lo {
			c.minRadius, c.maxRadius = lo, hi
		}
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Layout places up to maxWords of the most frequent words on a width x height
// canvas. Spiral and bubble may drop words they cannot fit within their
// attempt budget, so the result can be shorter than the input. Without
// WithRand or WithSeed the jitter source is seeded with DefaultSeed, which
// keeps repeated calls identical.
func Layout(words []WordEntry, width, height float64, strategy Strategy, maxWords int, opts ...Option) []PlacedWord {
	if width <= 0 || height <= 0 {
		return []PlacedWord{}
	}

	cfg := config{
		minSize:   DefaultMinSize,
		maxSize:   DefaultMaxSize,
		minRadius: DefaultMinRadius,
		maxRadius: DefaultMaxRadius,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = newRand(DefaultSeed)
	}

	top := selectTop(words, maxWords)
	if len(top) == 0 {
		return []PlacedWord{}
	}

	switch strategy {
	case Grid:
		return layoutGrid(top, width, height, cfg)
	case Bubble:
		return layoutBubble(top, width, height, cfg)
	case Wave:
		return layoutWave(top, width, height, cfg)
	default:
		return layoutSpiral(top, width, height, cfg)
	}
}

// selectTop sorts by count descending (word ascending on ties) and keeps the
// first maxWords. maxWords <= 0 keeps everything. Entries with count < 1 are ignored.
func selectTop(words []WordEntry, maxWords int) []WordEntry {
	out := make([]WordEntry, 0, len(words))
	for _, w := range words {
		if w.Count >= 1 && w.Word != "" {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if maxWords > 0 && len(out) > maxWords {
		out = out[:maxWords]
	}
	return out
}

// scaler maps counts linearly onto [lo, hi]. When every count is equal the
// midpoint is used.
type scaler struct {
	minCount, maxCount float64
	lo, hi             float64
}

func newScaler(words []WordEntry, lo, hi float64) scaler {
	s := scaler{lo: lo, hi: hi}
	if len(words) == 0 {
		return s
	}
	// words arrive sorted by count descending
	s.maxCount = float64(words[0].Count)
	s.minCount = float64(words[len(words)-1].Count)
	return s
}

func (s scaler) scale(count int) float64 {
	if s.maxCount == s.minCount {
		return (s.lo + s.hi) / 2
	}
	t := (float64(count) - s.minCount) / (s.maxCount - s.minCount)
	return s.lo + t*(s.hi-s.lo)
}

// fitFactor is the largest factor <= 1 that, applied to every size, makes
// every rotated box fit the canvas. One factor for all words keeps sizes
// ordered by count.
func fitFactor(words []WordEntry, sizes, rotations []float64, width, height float64) float64 {
	factor := 1.0
	for i, w := range words {
		bw, bh := textBox(w.Word, sizes[i], rotations[i])
		if bw > 0 {
			factor = min(factor, width/bw)
		}
		if bh > 0 {
			factor = min(factor, height/bh)
		}
	}
	return factor
}

// placeFixed sizes, fits and clamps words at precomputed centres. Used by the
// layouts that never search.
func placeFixed(words []WordEntry, centres [][2]float64, rotations []float64, width, height float64, cfg config) []PlacedWord {
	sc := newScaler(words, cfg.minSize, cfg.maxSize)
	sizes := make([]float64, len(words))
	for i, w := range words {
		sizes[i] = sc.scale(w.Count)
	}
	factor := fitFactor(words, sizes, rotations, width, height)

	placed := make([]PlacedWord, 0, len(words))
	for i, w := range words {
		size := sizes[i] * factor
		bw, bh := textBox(w.Word, size, rotations[i])
		x := clip(centres[i][0], bw/2, width-bw/2)
		y := clip(centres[i][1], bh/2, height-bh/2)
		placed = append(placed, PlacedWord{
			WordEntry: w,
			X:         x,
			Y:         y,
			Size:      size,
			Width:     bw,
			Height:    bh,
			Rotation:  rotations[i],
		})
	}
	return placed
}
