package drawgen

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
)

// Canvas bounds the generated strokes stay inside.
const (
	canvasWidth  = 1280.0
	canvasHeight = 800.0
	strokeMargin = 60.0
)

// batch is one POST payload: a batch ID plus its events.
type batch struct {
	BatchID string               `json:"batch_id"`
	Events  []model.PointerEvent `json:"events"`
}

// generateStroke builds the event batches of one wandering stroke: a down,
// a run of move events with coalesced samples, and an up. The path follows
// a damped sine wave with jitter so it resembles handwriting rather than a
// straight line.
func generateStroke(pointerID int64, points int) []batch {
	if points < 2 {
		points = 2
	}
	startX := strokeMargin + rand.Float64()*(canvasWidth-2*strokeMargin)
	startY := strokeMargin + rand.Float64()*(canvasHeight-2*strokeMargin)
	length := 80 + rand.Float64()*240
	angle := rand.Float64() * 2 * math.Pi
	amplitude := 4 + rand.Float64()*12

	path := make([]model.Sample, points)
	for i := 0; i < points; i++ {
		t := float64(i) / float64(points-1)
		wave := amplitude * math.Sin(t*math.Pi*3)
		jitterX := (rand.Float64() - 0.5) * 1.5
		jitterY := (rand.Float64() - 0.5) * 1.5
		path[i] = model.Sample{
			X: clampCoord(startX+math.Cos(angle)*length*t-math.Sin(angle)*wave+jitterX, canvasWidth),
			Y: clampCoord(startY+math.Sin(angle)*length*t+math.Cos(angle)*wave+jitterY, canvasHeight),
		}
	}

	// Real input arrives a few samples per move event.
	const samplesPerMove = 4
	events := []model.PointerEvent{
		{Type: model.PointerDown, PointerID: pointerID, X: path[0].X, Y: path[0].Y},
	}
	for i := 1; i < len(path); i += samplesPerMove {
		end := i + samplesPerMove
		if end > len(path) {
			end = len(path)
		}
		chunk := path[i:end]
		last := chunk[len(chunk)-1]
		events = append(events, model.PointerEvent{
			Type:      model.PointerMove,
			PointerID: pointerID,
			X:         last.X,
			Y:         last.Y,
			Coalesced: chunk,
		})
	}
	events = append(events, model.PointerEvent{Type: model.PointerUp, PointerID: pointerID})

	return []batch{{BatchID: uuid.NewString(), Events: events}}
}

// generatePinch builds one two-finger pinch gesture batch: both pointers
// down, a few symmetric moves around a shared center, both up.
func generatePinch() []batch {
	cx := canvasWidth / 2
	cy := canvasHeight / 2
	spread := 60 + rand.Float64()*40
	factor := 1.2 + rand.Float64()*0.8
	steps := 5

	events := []model.PointerEvent{
		{Type: model.PointerDown, PointerID: 1, X: cx - spread, Y: cy},
		{Type: model.PointerDown, PointerID: 2, X: cx + spread, Y: cy},
	}
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		d := spread * (1 + (factor-1)*t)
		events = append(events,
			model.PointerEvent{Type: model.PointerMove, PointerID: 1, X: cx - d, Y: cy},
			model.PointerEvent{Type: model.PointerMove, PointerID: 2, X: cx + d, Y: cy},
		)
	}
	events = append(events,
		model.PointerEvent{Type: model.PointerUp, PointerID: 1},
		model.PointerEvent{Type: model.PointerUp, PointerID: 2},
	)

	return []batch{{BatchID: uuid.NewString(), Events: events}}
}

func clampCoord(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
