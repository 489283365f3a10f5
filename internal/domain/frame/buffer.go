// Package frame keeps the time-windowed raster history used to assemble a
// replay animation of the drawing process.
package frame

import (
	"time"

	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// DefaultRetention is the trailing window kept in the buffer.
const DefaultRetention = 5 * time.Minute

// Frame is one timestamped raster snapshot. PNG bytes are treated as
// immutable once appended.
type Frame struct {
	PNG       []byte
	Timestamp time.Time
}

// Buffer is an append-only frame list with lazy retention eviction. Frames
// are strictly ordered by capture time; capture is sequential per session,
// so no internal locking is needed.
type Buffer struct {
	frames    []Frame
	retention time.Duration
}

// Option applies a configuration option to the Buffer.
type Option func(*Buffer)

// WithRetention overrides the trailing retention window.
func WithRetention(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.retention = d
		}
	}
}

// NewBuffer creates an empty frame buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{retention: DefaultRetention}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Append adds a frame stamped at ts, evicting entries older than the
// retention window first. Eviction keys off ts rather than wall time so the
// buffer behaves the same under a virtual clock.
func (b *Buffer) Append(png []byte, ts time.Time) {
	cutoff := ts.Add(-b.retention)
	evicted := 0
	for evicted < len(b.frames) && b.frames[evicted].Timestamp.Before(cutoff) {
		evicted++
	}
	if evicted > 0 {
		b.frames = append(b.frames[:0], b.frames[evicted:]...)
		metrics.RecordFramesEvicted(evicted)
	}
	b.frames = append(b.frames, Frame{PNG: png, Timestamp: ts})
	metrics.UpdateFrameBufferSize(len(b.frames))
}

// Len reports the number of buffered frames.
func (b *Buffer) Len() int {
	return len(b.frames)
}

// Snapshot returns a copy of the buffered frames plus a synthetic final
// frame holding the current raster. The buffer itself is never mutated by
// consumers.
func (b *Buffer) Snapshot(finalPNG []byte, now time.Time) []Frame {
	out := make([]Frame, 0, len(b.frames)+1)
	out = append(out, b.frames...)
	if len(finalPNG) > 0 {
		out = append(out, Frame{PNG: finalPNG, Timestamp: now})
	}
	return out
}

// Clear drops all buffered frames.
func (b *Buffer) Clear() {
	b.frames = nil
	metrics.UpdateFrameBufferSize(0)
}
