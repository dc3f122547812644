package wordcloud

import "math"

var (
	bubbleAttempts     = 300
	bubbleAngleStep    = 0.3
	bubbleDistanceStep = 2.0
	bubblePadding      = 8.0
	// label font size relative to the circle radius
	bubbleFontRatio = 0.45
)

// layoutBubble packs circles, largest first, searching outward on a spiral
// for a spot that keeps bubblePadding clear of every placed circle.
func layoutBubble(words []WordEntry, width, height float64, cfg config) []PlacedWord {
	sc := newScaler(words, cfg.minRadius, cfg.maxRadius)
	cx, cy := width/2, height/2

	placed := make([]PlacedWord, 0, len(words))
	circles := make([]circle, 0, len(words))

	for _, w := range words {
		r := sc.scale(w.Count)

		angle, dist := 0.0, 0.0
		for attempt := 0; attempt < bubbleAttempts; attempt++ {
			c := circle{x: cx + dist*math.Cos(angle), y: cy + dist*math.Sin(angle), r: r}

			if c.within(width, height) && !circleCollidesAny(c, circles, bubblePadding) {
				circles = append(circles, c)
				placed = append(placed, PlacedWord{
					WordEntry: w,
					X:         c.x,
					Y:         c.y,
					Size:      r * bubbleFontRatio,
					Radius:    r,
				})
				break
			}

			angle += bubbleAngleStep
			dist += bubbleDistanceStep
		}
	}

	return placed
}
