// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) returning defaults; Load(ctx) layers file and env on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration for the whiteboard service.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CanvasWidth and CanvasHeight size the raster surface in pixels.
	CanvasWidth  int `koanf:"canvas_width"`
	CanvasHeight int `koanf:"canvas_height"`

	// GridSpacing is the dot-grid spacing in world units; 0 disables the grid.
	GridSpacing float64 `koanf:"grid_spacing"`

	// MinScale and MaxScale clamp pinch zoom.
	MinScale float64 `koanf:"min_scale"`
	MaxScale float64 `koanf:"max_scale"`

	// SettleDelayMS is the idle-capture debounce after the last stroke.
	SettleDelayMS int `koanf:"settle_delay_ms"`

	// SampleIntervalMS is the periodic frame-sampling cadence while drawing.
	SampleIntervalMS int `koanf:"sample_interval_ms"`

	// SampleGraceMS keeps the sampler alive this long after the last activity.
	SampleGraceMS int `koanf:"sample_grace_ms"`

	// MinSpacingMS is the minimum gap between two buffered frames.
	MinSpacingMS int `koanf:"min_spacing_ms"`

	// FrameRetentionSec bounds the frame buffer's trailing time window.
	FrameRetentionSec int `koanf:"frame_retention_sec"`

	// RenderTickMS drives the dirty-flag render loop.
	RenderTickMS int `koanf:"render_tick_ms"`

	// TurnQueueSize bounds the tutoring turn queue.
	TurnQueueSize int `koanf:"turn_queue_size"`

	// WorkerCount sets the number of tutoring dispatch workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the event-batch idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Tutoring collaborator endpoint.
	TutorBaseURL string `koanf:"tutor_base_url"`
	TutorAPIKey  string `koanf:"tutor_api_key"`
	TutorModel   string `koanf:"tutor_model"`

	// Frame-to-video collaborator endpoint.
	VideoBaseURL string `koanf:"video_base_url"`

	// Problem-extraction collaborator endpoint.
	ExtractBaseURL string `koanf:"extract_base_url"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8090",
		CanvasWidth:       1280,
		CanvasHeight:      800,
		GridSpacing:       40,
		MinScale:          0.05,
		MaxScale:          20,
		SettleDelayMS:     1500,
		SampleIntervalMS:  500,
		SampleGraceMS:     2000,
		MinSpacingMS:      400,
		FrameRetentionSec: 300,
		RenderTickMS:      16,
		TurnQueueSize:     1024,
		WorkerCount:       runtime.NumCPU(),
		DedupeSize:        50_000,
		TutorBaseURL:      "https://api.anthropic.com",
		TutorModel:        "claude-sonnet-4-5",
		VideoBaseURL:      "http://localhost:9901",
		ExtractBaseURL:    "http://localhost:9902",
	}
}
