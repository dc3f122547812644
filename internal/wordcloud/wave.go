package wordcloud

import "math"

var (
	waveRows      = 5
	waveFrequency = 0.8 // radians per column
	waveAmplitude = 0.3 // fraction of the row height
	waveRotation  = 8.0 // degrees, sign alternates per word
)

// layoutWave lays words on five rows and bends each column along a sine wave.
func layoutWave(words []WordEntry, width, height float64, cfg config) []PlacedWord {
	n := len(words)
	cols := int(math.Ceil(float64(n) / float64(waveRows)))

	cellW := width / float64(cols)
	rowH := height / float64(waveRows)

	centres := make([][2]float64, n)
	rotations := make([]float64, n)
	for i := range words {
		col, row := i%cols, i/cols
		offset := math.Sin(float64(col)*waveFrequency) * rowH * waveAmplitude
		centres[i] = [2]float64{
			(float64(col) + 0.5) * cellW,
			(float64(row)+0.5)*rowH + offset,
		}
		if i%2 == 0 {
			rotations[i] = waveRotation
		} else {
			rotations[i] = -waveRotation
		}
	}

	return placeFixed(words, centres, rotations, width, height, cfg)
}
