// Package render rasterizes the stroke model under the current transform.
// Redrawing is dirty-flag driven: a pass runs only when something changed,
// bounding CPU use to actual content and transform changes.
package render

import (
	"bytes"
	"image"
	"math"
	"time"

	"github.com/fogleman/gg"

	"github.com/grahamonica/gemini-build-day/internal/domain/geom"
	"github.com/grahamonica/gemini-build-day/internal/domain/stroke"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Default surface styling.
const (
	defaultBackground = "#ffffff"
	gridColor         = "#d1d5db"
	gridDotRadius     = 1.5
	// Below this on-screen spacing the grid is too dense to read; skip it.
	minGridStepPx = 4
)

// Renderer rasterizes one session's board. Only the renderer writes pixels.
type Renderer struct {
	width      int
	height     int
	background string
	gridWorld  float64 // dot spacing in world units; 0 disables the grid

	dirty bool
	last  image.Image
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithBackground sets the background fill color (hex).
func WithBackground(hex string) Option {
	return func(r *Renderer) {
		if hex != "" {
			r.background = hex
		}
	}
}

// WithGridSpacing enables the transform-relative dot grid.
func WithGridSpacing(worldUnits float64) Option {
	return func(r *Renderer) {
		if worldUnits >= 0 {
			r.gridWorld = worldUnits
		}
	}
}

// NewRenderer creates a renderer for a raster surface of the given size.
func NewRenderer(width, height int, opts ...Option) *Renderer {
	r := &Renderer{
		width:      width,
		height:     height,
		background: defaultBackground,
		dirty:      true, // first pass always paints the background
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MarkDirty requests a redraw on the next loop tick.
func (r *Renderer) MarkDirty() {
	r.dirty = true
}

// Dirty reports whether a redraw is pending.
func (r *Renderer) Dirty() bool {
	return r.dirty
}

// Size returns the raster dimensions.
func (r *Renderer) Size() (int, int) {
	return r.width, r.height
}

// RenderIfDirty runs a raster pass when the dirty flag is set, clearing it
// first. Returns true when a pass ran.
func (r *Renderer) RenderIfDirty(t geom.Transform, finished []stroke.Stroke, current *stroke.Stroke) bool {
	if !r.dirty {
		return false
	}
	r.dirty = false
	start := time.Now()
	r.last = r.rasterize(t, finished, current)
	metrics.RecordRenderPass(float64(time.Since(start).Microseconds()) / 1000.0)
	return true
}

// Image returns the last rendered raster, rasterizing on demand if no pass
// has run yet.
func (r *Renderer) Image(t geom.Transform, finished []stroke.Stroke, current *stroke.Stroke) image.Image {
	if r.last == nil || r.dirty {
		r.RenderIfDirty(t, finished, current)
	}
	return r.last
}

// PNG force-rasterizes the current state and encodes it. Captures use this
// so the snapshot always reflects the moment of capture, not the last tick.
func (r *Renderer) PNG(t geom.Transform, finished []stroke.Stroke, current *stroke.Stroke) ([]byte, error) {
	img := r.rasterize(t, finished, current)
	r.last = img
	var buf bytes.Buffer
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) rasterize(t geom.Transform, finished []stroke.Stroke, current *stroke.Stroke) image.Image {
	dc := gg.NewContext(r.width, r.height)
	dc.SetHexColor(r.background)
	dc.Clear()

	if r.gridWorld > 0 {
		r.drawGrid(dc, t)
	}
	for i := range finished {
		drawStroke(dc, t, &finished[i])
	}
	if current != nil {
		drawStroke(dc, t, current)
	}
	return dc.Image()
}

// drawGrid paints a fixed-spacing dot grid anchored in world space so it
// scrolls and zooms with the content.
func (r *Renderer) drawGrid(dc *gg.Context, t geom.Transform) {
	step := r.gridWorld * t.Scale
	if step < minGridStepPx {
		return
	}
	topLeft := t.ScreenToWorld(0, 0)
	startX := math.Floor(topLeft.X/r.gridWorld) * r.gridWorld
	startY := math.Floor(topLeft.Y/r.gridWorld) * r.gridWorld

	dc.SetHexColor(gridColor)
	for wx := startX; ; wx += r.gridWorld {
		sx, _ := t.WorldToScreen(geom.Point{X: wx})
		if sx > float64(r.width) {
			break
		}
		if sx < 0 {
			continue
		}
		for wy := startY; ; wy += r.gridWorld {
			_, sy := t.WorldToScreen(geom.Point{X: wx, Y: wy})
			if sy > float64(r.height) {
				break
			}
			if sy < 0 {
				continue
			}
			dc.DrawCircle(sx, sy, gridDotRadius)
			dc.Fill()
		}
	}
}

func drawStroke(dc *gg.Context, t geom.Transform, s *stroke.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	dc.SetHexColor(s.Color)
	if len(s.Points) == 1 {
		// Degenerate stroke renders as a dot.
		sx, sy := t.WorldToScreen(s.Points[0])
		dc.DrawCircle(sx, sy, s.Width*t.Scale/2)
		dc.Fill()
		return
	}
	sx, sy := t.WorldToScreen(s.Points[0])
	dc.MoveTo(sx, sy)
	for _, p := range s.Points[1:] {
		px, py := t.WorldToScreen(p)
		dc.LineTo(px, py)
	}
	dc.SetLineWidth(s.Width * t.Scale)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.Stroke()
}
