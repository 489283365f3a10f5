// Package input classifies raw pointer traffic into drawing and gesture
// interactions and feeds the stroke log and transform accordingly.
//
// The state machine is driven by the number of concurrently active pointers:
// 0 idle, 1 drawing, 2 pan/zoom gesture. Pointers beyond the second are
// tracked but never change the current mode.
package input

import (
	"github.com/grahamonica/gemini-build-day/internal/domain/geom"
	"github.com/grahamonica/gemini-build-day/internal/domain/stroke"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Mode is the router's interaction state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDrawing
	ModeGesturing
)

// Sample is one screen-space pointer report. Move events may carry several
// coalesced samples; each is ingested individually in batch order.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Notifier receives side effects from the router. Mutations never render or
// capture synchronously; they only signal.
type Notifier interface {
	// Dirty marks the render loop for a redraw.
	Dirty()
	// PointerDown fires on every pointer-down, cancelling any pending
	// idle capture.
	PointerDown()
	// Activity fires on drawing/gesture progress for the periodic sampler.
	Activity()
	// StrokeFinalized fires when a pointer-up commits the in-progress stroke.
	StrokeFinalized()
}

// Router consumes pointer events for one board session.
type Router struct {
	transform *geom.Transform
	strokes   *stroke.Log
	notifier  Notifier

	mode     Mode
	pointers map[int64]Sample
	drawID   int64
	gesture  *geom.Gesture
	gestIDs  [2]int64

	penColor string
	penWidth float64

	minScale float64
	maxScale float64
}

// Option applies a configuration option to the Router.
type Option func(*Router)

// WithPen sets the initial stroke color and width.
func WithPen(color string, width float64) Option {
	return func(r *Router) {
		if color != "" {
			r.penColor = color
		}
		if width > 0 {
			r.penWidth = width
		}
	}
}

// WithScaleClamp bounds pinch zoom. Zeros disable clamping.
func WithScaleClamp(minScale, maxScale float64) Option {
	return func(r *Router) {
		r.minScale = minScale
		r.maxScale = maxScale
	}
}

// NewRouter creates a router mutating the given transform and stroke log.
func NewRouter(t *geom.Transform, strokes *stroke.Log, n Notifier, opts ...Option) *Router {
	r := &Router{
		transform: t,
		strokes:   strokes,
		notifier:  n,
		pointers:  make(map[int64]Sample),
		penColor:  "#111827",
		penWidth:  3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the current interaction mode.
func (r *Router) Mode() Mode {
	return r.mode
}

// ActivePointers reports how many pointers are currently down.
func (r *Router) ActivePointers() int {
	return len(r.pointers)
}

// SetPen changes the stroke color and width for subsequent strokes.
func (r *Router) SetPen(color string, width float64) {
	if color != "" {
		r.penColor = color
	}
	if width > 0 {
		r.penWidth = width
	}
}

// PointerDown registers a new pointer and advances the mode.
func (r *Router) PointerDown(id int64, x, y float64) {
	r.pointers[id] = Sample{X: x, Y: y}
	r.notifier.PointerDown()

	switch len(r.pointers) {
	case 1:
		r.mode = ModeDrawing
		r.drawID = id
		r.strokes.Begin(r.transform.ScreenToWorld(x, y), r.penColor, r.penWidth)
		r.notifier.Dirty()
		r.notifier.Activity()
	case 2:
		// An accidental second touch must not leave a stray mark: the
		// in-progress stroke is discarded, not finalized.
		if r.strokes.Discard() {
			metrics.RecordStrokeDiscarded()
			r.notifier.Dirty()
		}
		r.mode = ModeGesturing
		first := r.otherPointer(id)
		p1 := r.pointers[first]
		r.gesture = geom.NewGesture(p1.X, p1.Y, x, y, r.minScale, r.maxScale)
		r.gestIDs = [2]int64{first, id}
		metrics.RecordGesture()
	default:
		// Extra pointers are tracked but do not affect the mode.
	}
}

// PointerMove ingests coalesced samples for a pointer. The last sample is
// the pointer's final reported position for this event.
func (r *Router) PointerMove(id int64, samples []Sample) {
	if len(samples) == 0 {
		return
	}
	if _, ok := r.pointers[id]; !ok {
		return
	}
	r.pointers[id] = samples[len(samples)-1]

	switch {
	case r.mode == ModeDrawing && id == r.drawID:
		for _, s := range samples {
			r.strokes.Append(r.transform.ScreenToWorld(s.X, s.Y))
		}
		metrics.RecordPointsIngested(len(samples))
		r.notifier.Dirty()
		r.notifier.Activity()
	case r.mode == ModeGesturing && (id == r.gestIDs[0] || id == r.gestIDs[1]):
		p1 := r.pointers[r.gestIDs[0]]
		p2 := r.pointers[r.gestIDs[1]]
		*r.transform = r.gesture.Update(*r.transform, p1.X, p1.Y, p2.X, p2.Y)
		r.notifier.Dirty()
		r.notifier.Activity()
	}
}

// PointerUp removes a pointer and advances the mode. A drawing pointer's up
// finalizes the in-progress stroke; either gesture pointer lifting ends the
// gesture without resuming drawing, even if one pointer stays down.
func (r *Router) PointerUp(id int64) {
	if _, ok := r.pointers[id]; !ok {
		return
	}
	delete(r.pointers, id)

	switch {
	case r.mode == ModeDrawing && id == r.drawID:
		r.mode = ModeIdle
		if r.strokes.Finalize() {
			metrics.RecordStrokeFinalized()
			r.notifier.Dirty()
			r.notifier.StrokeFinalized()
		}
	case r.mode == ModeGesturing && (id == r.gestIDs[0] || id == r.gestIDs[1]):
		r.mode = ModeIdle
		r.gesture = nil
	}
}

// PointerCancel is handled like an up: the pointer is forgotten, and a
// cancelled drawing pointer still commits what was drawn so far.
func (r *Router) PointerCancel(id int64) {
	r.PointerUp(id)
}

func (r *Router) otherPointer(id int64) int64 {
	for pid := range r.pointers {
		if pid != id {
			return pid
		}
	}
	return id
}
