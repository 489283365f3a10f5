// Package drawgen generates synthetic drawing traffic against a running
// whiteboard service: it creates sessions, streams pointer-event batches
// that look like handwriting, waits for the boards to settle, and verifies
// that snapshots and tutoring comments come back.
package drawgen

import "time"

// Config holds configuration for the drawing generator.
type Config struct {
	BaseURL         string        // Base URL of the service
	Sessions        int           // Number of sessions to drive
	StrokesPer      int           // Strokes drawn per session
	PointsPerStroke int           // Samples per stroke
	Workers         int           // Number of concurrent workers
	Timeout         time.Duration // HTTP request timeout
	SettleWait      time.Duration // How long to wait for boards to settle
	Verbose         bool          // Enable verbose logging
}

// Stats holds generator statistics.
type Stats struct {
	SessionsCreated  int
	BatchesSubmitted int
	BatchesDuplicate int
	BatchesFailed    int
	SnapshotsOK      int
	CommentsSeen     int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
