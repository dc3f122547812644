package wordcloud

import "math"

// layoutGrid assigns words row by row to the cells of a grid whose aspect
// follows the canvas. Long words may overlap their neighbours.
func layoutGrid(words []WordEntry, width, height float64, cfg config) []PlacedWord {
	n := len(words)
	cols := int(math.Ceil(math.Sqrt(float64(n) * width / height)))
	cols = max(1, min(cols, n))
	rows := int(math.Ceil(float64(n) / float64(cols)))

	cellW := width / float64(cols)
	cellH := height / float64(rows)

	centres := make([][2]float64, n)
	rotations := make([]float64, n)
	for i := range words {
		col, row := i%cols, i/cols
		centres[i] = [2]float64{(float64(col) + 0.5) * cellW, (float64(row) + 0.5) * cellH}
	}

	return placeFixed(words, centres, rotations, width, height, cfg)
}
