package wordcloud

import (
	"encoding/json"
	"strings"

	"github.com/ZanzyTHEbar/extraction-eval/internal/sentiment"
)

// Strategy selects a placement algorithm.
type Strategy string

const (
	Spiral Strategy = "spiral"
	Grid   Strategy = "grid"
	Bubble Strategy = "bubble"
	Wave   Strategy = "wave"
)

// ParseStrategy maps a user-supplied name to a Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	switch Strategy(strings.ToLower(strings.TrimSpace(name))) {
	case Spiral:
		return Spiral, true
	case Grid:
		return Grid, true
	case Bubble:
		return Bubble, true
	case Wave:
		return Wave, true
	default:
		return Spiral, false
	}
}

// WordEntry is one word of the cloud with its sentiment mix.
type WordEntry struct {
	Word              string             `json:"word"`
	Count             int                `json:"count"`
	DominantSentiment sentiment.Category `json:"dominantSentiment"`
	PositiveRatio     float64            `json:"positiveRatio"`
	NeutralRatio      float64            `json:"neutralRatio"`
	NegativeRatio     float64            `json:"negativeRatio"`
}

// PlacedWord is a WordEntry with a position on the canvas. X and Y are the
// centre of the word. Text layouts fill Width/Height (the axis-aligned box
// after rotation) and Rotation in degrees; the bubble layout fills Radius.
type PlacedWord struct {
	WordEntry
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	Radius   float64 `json:"radius,omitempty"`
}

// MarshalJSON always writes rotation for text layouts, including grid words
// whose rotation is zero. Bubble words carry radius instead.
func (p PlacedWord) MarshalJSON() ([]byte, error) {
	type plain PlacedWord
	if p.Radius != 0 {
		return json.Marshal(plain(p))
	}
	return json.Marshal(struct {
		plain
		Rotation float64 `json:"rotation"`
	}{plain(p), p.Rotation})
}
