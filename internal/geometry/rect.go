// Package geometry maps rendering-surface pixels onto the remote screen.
package geometry

import "math"

// Rect describes a rectangle using top-left origin and size.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Contains reports whether a point is inside the rectangle (edges inclusive).
func (r Rect) Contains(x, y float64) bool {
	if r.W < 0 || r.H < 0 {
		return false
	}
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Grow returns the rectangle expanded by d on every side.
func (r Rect) Grow(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// clampInt bounds v to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// roundInt rounds v to the nearest int, saturating at +/-math.MaxInt32.
// NaN rounds to 0.
func roundInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < -math.MaxInt32:
		return -math.MaxInt32
	}
	return int(math.Round(v))
}
