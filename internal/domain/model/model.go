// Package model contains domain models passed between layers.
package model

import "time"

// Pointer event types accepted over HTTP and WebSocket.
const (
	PointerDown   = "down"
	PointerMove   = "move"
	PointerUp     = "up"
	PointerCancel = "cancel"
)

// Sample is one screen-space coordinate report.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerEvent is one low-level pointer transition. Move events may carry
// coalesced samples; the batch order is the arrival order.
type PointerEvent struct {
	Type      string   `json:"type"`
	PointerID int64    `json:"pointer_id"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Coalesced []Sample `json:"coalesced,omitempty"`
}

// EventBatch groups pointer events applied atomically to one session.
// BatchID makes retried submissions idempotent.
type EventBatch struct {
	BatchID string         `json:"batch_id"`
	Events  []PointerEvent `json:"events"`
}

// Turn is one tutoring exchange unit: the settled raster handed to the
// tutoring collaborator.
type Turn struct {
	SessionID  string
	PNG        []byte
	CapturedAt time.Time
}

// Comment is the tutoring collaborator's reply attached to a session.
type Comment struct {
	Text  string    `json:"text"`
	Topic string    `json:"topic,omitempty"`
	At    time.Time `json:"at"`
}

// BBox is a normalized bounding box (all fields in [0,1]).
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Problem is one extracted problem statement from a page raster.
type Problem struct {
	Index int      `json:"index"`
	Text  string   `json:"text"`
	LaTeX []string `json:"latex,omitempty"`
	BBox  *BBox    `json:"bbox,omitempty"`
}
