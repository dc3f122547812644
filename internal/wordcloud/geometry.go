package wordcloud

import (
	"math"
	"unicode/utf8"
)

var (
	// average glyph advance and line box, as fractions of the font size
	charWidthRatio  = 0.6
	lineHeightRatio = 1.2
)

type rect struct {
	x0, y0, x1, y1 float64
}

func rectAt(cx, cy, w, h float64) rect {
	return rect{x0: cx - w/2, y0: cy - h/2, x1: cx + w/2, y1: cy + h/2}
}

func (r rect) within(width, height float64) bool {
	return r.x0 >= 0 && r.y0 >= 0 && r.x1 <= width && r.y1 <= height
}

// overlaps treats both boxes as grown by pad on every side of one of them.
func (r rect) overlaps(o rect, pad float64) bool {
	return r.x0 < o.x1+pad && r.x1+pad > o.x0 &&
		r.y0 < o.y1+pad && r.y1+pad > o.y0
}

func collidesAny(r rect, placed []rect, pad float64) bool {
	for _, p := range placed {
		if r.overlaps(p, pad) {
			return true
		}
	}
	return false
}

type circle struct {
	x, y, r float64
}

func (c circle) within(width, height float64) bool {
	return c.x-c.r >= 0 && c.y-c.r >= 0 && c.x+c.r <= width && c.y+c.r <= height
}

func (c circle) overlaps(o circle, pad float64) bool {
	return math.Hypot(c.x-o.x, c.y-o.y) < c.r+o.r+pad
}

func circleCollidesAny(c circle, placed []circle, pad float64) bool {
	for _, p := range placed {
		if c.overlaps(p, pad) {
			return true
		}
	}
	return false
}

// textBox is the axis-aligned box of a word drawn at size and rotated by deg.
func textBox(word string, size, deg float64) (float64, float64) {
	w := float64(utf8.RuneCountInString(word)) * size * charWidthRatio
	h := size * lineHeightRatio
	if deg == 0 {
		return w, h
	}
	rad := deg * math.Pi / 180
	c, s := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	return w*c + h*s, w*s + h*c
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
