// Package geom holds the coordinate math shared by the input router,
// renderer, and capture paths: an infinite logical drawing space viewed
// through a pan/zoom transform.
package geom

import (
	"math"
)

// Point is a coordinate in logical drawing space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform maps between screen space and world (drawing) space.
// Scale is always > 0.
type Transform struct {
	PanX  float64
	PanY  float64
	Scale float64
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Scale: 1}
}

// ScreenToWorld converts a screen coordinate to drawing space.
func (t Transform) ScreenToWorld(sx, sy float64) Point {
	return Point{
		X: (sx - t.PanX) / t.Scale,
		Y: (sy - t.PanY) / t.Scale,
	}
}

// WorldToScreen converts a drawing-space point to screen coordinates.
// It is the exact inverse of ScreenToWorld.
func (t Transform) WorldToScreen(p Point) (float64, float64) {
	return p.X*t.Scale + t.PanX, p.Y*t.Scale + t.PanY
}

// Gesture tracks an active two-pointer pan/zoom interaction.
type Gesture struct {
	lastDistance float64
	lastCenterX  float64
	lastCenterY  float64

	minScale float64
	maxScale float64
}

// NewGesture starts a gesture from the two pointer positions. The scale
// clamp bounds zoom; pass zeros to disable clamping.
func NewGesture(p1x, p1y, p2x, p2y, minScale, maxScale float64) *Gesture {
	g := &Gesture{minScale: minScale, maxScale: maxScale}
	g.lastDistance = math.Hypot(p2x-p1x, p2y-p1y)
	g.lastCenterX = (p1x + p2x) / 2
	g.lastCenterY = (p1y + p2y) / 2
	return g
}

// Update advances the gesture with new pointer positions and returns the
// updated transform. Pan follows the midpoint delta; zoom scales about the
// midpoint so the content under the fingers stays visually fixed.
func (g *Gesture) Update(t Transform, p1x, p1y, p2x, p2y float64) Transform {
	distance := math.Hypot(p2x-p1x, p2y-p1y)
	centerX := (p1x + p2x) / 2
	centerY := (p1y + p2y) / 2

	t.PanX += centerX - g.lastCenterX
	t.PanY += centerY - g.lastCenterY

	// Zero last distance means the pointers started coincident; skip the
	// zoom step for this tick rather than dividing by zero.
	if g.lastDistance > 0 {
		factor := distance / g.lastDistance
		factor = g.clampFactor(t.Scale, factor)
		t.PanX = centerX - (centerX-t.PanX)*factor
		t.PanY = centerY - (centerY-t.PanY)*factor
		t.Scale *= factor
	}

	g.lastDistance = distance
	g.lastCenterX = centerX
	g.lastCenterY = centerY
	return t
}

// clampFactor adjusts the zoom factor so the resulting scale stays within
// the configured bounds. Applying the clamp to the factor, not the result,
// keeps the re-anchor step consistent with the scale actually applied.
func (g *Gesture) clampFactor(scale, factor float64) float64 {
	if factor <= 0 {
		return 1
	}
	if g.minScale > 0 && scale*factor < g.minScale {
		return g.minScale / scale
	}
	if g.maxScale > 0 && scale*factor > g.maxScale {
		return g.maxScale / scale
	}
	return factor
}
