// Package metrics exposes Prometheus instrumentation for the whiteboard
// service: drawing activity, capture scheduling, frame buffering, the
// tutoring turn pipeline, and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Default latency buckets in milliseconds.
var defaultBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager owns the metric vectors and the registry they live in.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	registry  *prometheus.Registry

	// Drawing activity
	strokesFinalized prometheus.Counter
	strokesDiscarded prometheus.Counter
	pointsIngested   prometheus.Counter
	gestures         prometheus.Counter

	// Capture scheduling and frame buffer
	settleCaptures   prometheus.Counter
	framesSampled    prometheus.Counter
	framesEvicted    prometheus.Counter
	frameBufferSize  prometheus.Gauge
	renderPasses     prometheus.Counter
	renderDurationMS prometheus.Histogram

	// Tutoring pipeline
	tutorTurns     prometheus.Counter
	tutorErrors    prometheus.Counter
	tutorLatencyMS prometheus.Histogram

	// Collaborators
	videoGenerations prometheus.Counter
	videoErrors      prometheus.Counter
	videoCancelled   prometheus.Counter
	extractRequests  prometheus.Counter
	extractErrors    prometheus.Counter

	// Turn queue and workers
	turnQueueSize     prometheus.Gauge
	turnQueueCapacity prometheus.Gauge
	turnEnqueueErrors prometheus.Counter
	workerCount       prometheus.Gauge

	// Sessions and transport
	sessionsActive  prometheus.Gauge
	sessionsCreated prometheus.Counter
	eventBatches    prometheus.Counter
	batchDuplicates prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDurationMS  *prometheus.HistogramVec

	// System
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
}

var defaultManager *Manager

func init() { //nolint:gochecknoinits // global metrics need to exist before any component records
	defaultManager = NewManager()
}

// NewManager builds a Manager and registers all vectors with its registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "whiteboard",
		buckets:   defaultBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
	m.registry.MustRegister(c)
	return c
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
	m.registry.MustRegister(g)
	return g
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.buckets,
	})
	m.registry.MustRegister(h)
	return h
}

func (m *Manager) initializeMetrics() {
	m.strokesFinalized = m.counter("strokes_finalized_total", "Strokes appended to the finished log.")
	m.strokesDiscarded = m.counter("strokes_discarded_total", "In-progress strokes discarded by a second touch.")
	m.pointsIngested = m.counter("points_ingested_total", "Pointer samples appended to in-progress strokes.")
	m.gestures = m.counter("gestures_total", "Two-pointer pan/zoom gestures started.")

	m.settleCaptures = m.counter("settle_captures_total", "Idle-capture timer fires that produced a tutoring turn.")
	m.framesSampled = m.counter("frames_sampled_total", "Rasters appended to the frame buffer by the periodic sampler.")
	m.framesEvicted = m.counter("frames_evicted_total", "Frames dropped by retention-window eviction.")
	m.frameBufferSize = m.gauge("frame_buffer_size", "Frames currently held across all sessions.")
	m.renderPasses = m.counter("render_passes_total", "Dirty-flag render passes executed.")
	m.renderDurationMS = m.histogram("render_duration_ms", "Rasterization pass duration in milliseconds.")

	m.tutorTurns = m.counter("tutor_turns_total", "Tutoring turns dispatched to the collaborator.")
	m.tutorErrors = m.counter("tutor_errors_total", "Tutoring collaborator failures.")
	m.tutorLatencyMS = m.histogram("tutor_latency_ms", "Tutoring collaborator round-trip latency in milliseconds.")

	m.videoGenerations = m.counter("video_generations_total", "Replay video generations completed.")
	m.videoErrors = m.counter("video_errors_total", "Replay video generation failures.")
	m.videoCancelled = m.counter("video_cancelled_total", "Replay video generations cancelled by the user.")
	m.extractRequests = m.counter("extract_requests_total", "Problem extraction requests forwarded.")
	m.extractErrors = m.counter("extract_errors_total", "Problem extraction collaborator failures.")

	m.turnQueueSize = m.gauge("turn_queue_size", "Tutoring turns waiting in the queue.")
	m.turnQueueCapacity = m.gauge("turn_queue_capacity", "Configured tutoring turn queue capacity.")
	m.turnEnqueueErrors = m.counter("turn_enqueue_errors_total", "Tutoring turns rejected by the queue.")
	m.workerCount = m.gauge("worker_count", "Tutoring dispatch workers running.")

	m.sessionsActive = m.gauge("sessions_active", "Board sessions currently registered.")
	m.sessionsCreated = m.counter("sessions_created_total", "Board sessions created.")
	m.eventBatches = m.counter("event_batches_total", "Pointer event batches applied.")
	m.batchDuplicates = m.counter("event_batch_duplicates_total", "Pointer event batches skipped as duplicates.")

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "HTTP requests by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})
	m.registry.MustRegister(m.httpRequests)

	m.httpDurationMS = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_ms", Help: "HTTP request duration in milliseconds.",
		Buckets: m.buckets,
	}, []string{"endpoint", "method", "status"})
	m.registry.MustRegister(m.httpDurationMS)

	m.systemMemory = m.gauge("system_memory_bytes", "Process heap in use.")
	m.systemGoroutines = m.gauge("system_goroutines", "Goroutines running.")
}

// Package-level recording helpers against the default manager.

func RecordStrokeFinalized()          { defaultManager.strokesFinalized.Inc() }
func RecordStrokeDiscarded()          { defaultManager.strokesDiscarded.Inc() }
func RecordPointsIngested(n int)      { defaultManager.pointsIngested.Add(float64(n)) }
func RecordGesture()                  { defaultManager.gestures.Inc() }
func RecordSettleCapture()            { defaultManager.settleCaptures.Inc() }
func RecordFrameSampled()             { defaultManager.framesSampled.Inc() }
func RecordFramesEvicted(n int)       { defaultManager.framesEvicted.Add(float64(n)) }
func UpdateFrameBufferSize(n int)     { defaultManager.frameBufferSize.Set(float64(n)) }
func RecordRenderPass(durMS float64)  { defaultManager.renderPasses.Inc(); defaultManager.renderDurationMS.Observe(durMS) }
func RecordTutorTurn()                { defaultManager.tutorTurns.Inc() }
func RecordTutorError()               { defaultManager.tutorErrors.Inc() }
func RecordTutorLatency(ms float64)   { defaultManager.tutorLatencyMS.Observe(ms) }
func RecordVideoGeneration()          { defaultManager.videoGenerations.Inc() }
func RecordVideoError()               { defaultManager.videoErrors.Inc() }
func RecordVideoCancelled()           { defaultManager.videoCancelled.Inc() }
func RecordExtractRequest()           { defaultManager.extractRequests.Inc() }
func RecordExtractError()             { defaultManager.extractErrors.Inc() }
func UpdateTurnQueueSize(n int)       { defaultManager.turnQueueSize.Set(float64(n)) }
func UpdateTurnQueueCapacity(n int)   { defaultManager.turnQueueCapacity.Set(float64(n)) }
func RecordTurnEnqueueError()         { defaultManager.turnEnqueueErrors.Inc() }
func UpdateWorkerCount(n int)         { defaultManager.workerCount.Set(float64(n)) }
func UpdateActiveSessions(n int)      { defaultManager.sessionsActive.Set(float64(n)) }
func RecordSessionCreated()           { defaultManager.sessionsCreated.Inc() }
func RecordEventBatch()               { defaultManager.eventBatches.Inc() }
func RecordEventBatchDuplicate()      { defaultManager.batchDuplicates.Inc() }
func UpdateSystemMemoryUsage(b uint64) { defaultManager.systemMemory.Set(float64(b)) }
func UpdateSystemGoroutineCount(n int) { defaultManager.systemGoroutines.Set(float64(n)) }

// RecordHTTPRequest counts a completed request.
func RecordHTTPRequest(endpoint, method, status string) {
	defaultManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration observes a request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	defaultManager.httpDurationMS.WithLabelValues(endpoint, method, status).Observe(ms)
}

// GetRegistry exposes the default registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return defaultManager.registry
}
