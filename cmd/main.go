package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/extract"
	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/tutor"
	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/video"
	"github.com/grahamonica/gemini-build-day/internal/adapters/http/api"
	"github.com/grahamonica/gemini-build-day/internal/adapters/http/ws"
	app "github.com/grahamonica/gemini-build-day/internal/app"
	"github.com/grahamonica/gemini-build-day/internal/config"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 5 * time.Minute // replay generation streams block
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.TurnQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCanvasSize(cfg.CanvasWidth, cfg.CanvasHeight),
		app.WithGridSpacing(cfg.GridSpacing),
		app.WithScaleClamp(cfg.MinScale, cfg.MaxScale),
		app.WithCaptureTimings(
			time.Duration(cfg.SettleDelayMS)*time.Millisecond,
			time.Duration(cfg.SampleIntervalMS)*time.Millisecond,
			time.Duration(cfg.SampleGraceMS)*time.Millisecond,
			time.Duration(cfg.MinSpacingMS)*time.Millisecond,
		),
		app.WithFrameRetention(time.Duration(cfg.FrameRetentionSec)*time.Second),
		app.WithRenderInterval(time.Duration(cfg.RenderTickMS)*time.Millisecond),
		app.WithTutorClient(tutor.NewHTTPClient(cfg.TutorBaseURL, cfg.TutorAPIKey, tutor.WithModel(cfg.TutorModel))),
		app.WithVideoClient(video.NewHTTPClient(cfg.VideoBaseURL)),
		app.WithExtractClient(extract.NewHTTPClient(cfg.ExtractBaseURL)),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	streamHandler := ws.NewHandler(svc, ws.WithLogger(log.Named("ws")))
	mux.HandleFunc("GET /sessions/{id}/stream", streamHandler.HandleStream)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
