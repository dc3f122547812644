package wordcloud

import "math"

var (
	spiralAttempts    = 500
	spiralAngleStep   = 0.5
	spiralRadiusStep  = 0.5
	spiralPadding     = 5.0
	spiralMaxRotation = 15.0 // degrees either way
)

// layoutSpiral walks an Archimedean spiral out from the centre for each word
// and takes the first in-bounds position that clears every placed box.
func layoutSpiral(words []WordEntry, width, height float64, cfg config) []PlacedWord {
	sc := newScaler(words, cfg.minSize, cfg.maxSize)
	cx, cy := width/2, height/2

	placed := make([]PlacedWord, 0, len(words))
	boxes := make([]rect, 0, len(words))

	for _, w := range words {
		size := sc.scale(w.Count)
		// always draw, so later words see the same sequence whether or not this one fits
		rotation := (cfg.rng.Float64()*2 - 1) * spiralMaxRotation
		bw, bh := textBox(w.Word, size, rotation)

		angle, radius := 0.0, 0.0
		for attempt := 0; attempt < spiralAttempts; attempt++ {
			x := cx + radius*math.Cos(angle)
			y := cy + radius*math.Sin(angle)
			box := rectAt(x, y, bw, bh)

			if box.within(width, height) && !collidesAny(box, boxes, spiralPadding) {
				boxes = append(boxes, box)
				placed = append(placed, PlacedWord{
					WordEntry: w,
					X:         x,
					Y:         y,
					Size:      size,
					Width:     bw,
					Height:    bh,
					Rotation:  rotation,
				})
				break
			}

			angle += spiralAngleStep
			radius += spiralRadiusStep
		}
	}

	return placed
}
