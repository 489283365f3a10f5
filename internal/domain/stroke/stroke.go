// Package stroke holds the append-only drawing log: finished strokes plus at
// most one in-progress stroke being extended by the input router.
package stroke

import (
	"github.com/grahamonica/gemini-build-day/internal/domain/geom"
)

// Stroke is one continuous pointer-down-to-pointer-up polyline. Finished
// strokes are immutable; a single-point stroke is a valid degenerate dot.
type Stroke struct {
	Points []geom.Point
	Color  string // hex, e.g. "#111827"
	Width  float64
}

// Log owns the finished stroke list and the in-progress stroke. The
// in-progress stroke is never simultaneously a member of the finished list.
type Log struct {
	finished []Stroke
	current  *Stroke
}

// NewLog returns an empty stroke log.
func NewLog() *Log {
	return &Log{}
}

// Begin starts a new in-progress stroke at p. Any previous in-progress
// stroke is replaced; callers decide whether it was finalized or discarded.
func (l *Log) Begin(p geom.Point, color string, width float64) {
	l.current = &Stroke{
		Points: []geom.Point{p},
		Color:  color,
		Width:  width,
	}
}

// Append extends the in-progress stroke. A no-op when nothing is in progress.
func (l *Log) Append(p geom.Point) {
	if l.current == nil {
		return
	}
	l.current.Points = append(l.current.Points, p)
}

// Finalize moves the in-progress stroke into the finished list and returns
// true. Returns false when there is nothing to finalize.
func (l *Log) Finalize() bool {
	if l.current == nil {
		return false
	}
	l.finished = append(l.finished, *l.current)
	l.current = nil
	return true
}

// Discard drops the in-progress stroke without recording it, e.g. when a
// second touch turns the interaction into a gesture.
func (l *Log) Discard() bool {
	if l.current == nil {
		return false
	}
	l.current = nil
	return true
}

// Current returns a copy of the in-progress stroke, or nil.
func (l *Log) Current() *Stroke {
	if l.current == nil {
		return nil
	}
	c := *l.current
	c.Points = append([]geom.Point(nil), l.current.Points...)
	return &c
}

// Finished returns the finished strokes. The returned slice must be treated
// as read-only; it aliases the log to avoid copying on every render pass.
func (l *Log) Finished() []Stroke {
	return l.finished
}

// Len reports the number of finished strokes.
func (l *Log) Len() int {
	return len(l.finished)
}

// Clear removes all strokes, finished and in-progress.
func (l *Log) Clear() {
	l.finished = nil
	l.current = nil
}
