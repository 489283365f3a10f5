package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/grahamonica/gemini-build-day/internal/drawgen"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions   = 10
	defaultStrokes    = 5
	defaultPoints     = 24
	defaultTimeout    = 30 * time.Second
	defaultSettleWait = 3 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8090", "Base URL of the service")
		sessions   = flag.Int("sessions", defaultSessions, "Number of sessions to drive")
		strokes    = flag.Int("strokes", defaultStrokes, "Strokes drawn per session")
		points     = flag.Int("points", defaultPoints, "Samples per stroke")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settleWait = flag.Duration("settle-wait", defaultSettleWait, "How long to wait for boards to settle")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &drawgen.Config{
		BaseURL:         *baseURL,
		Sessions:        *sessions,
		StrokesPer:      *strokes,
		PointsPerStroke: *points,
		Workers:         *workers,
		Timeout:         *timeout,
		SettleWait:      *settleWait,
		Verbose:         *verbose,
	}

	if err := drawgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
