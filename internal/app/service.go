// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"bytes"
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/extract"
	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/tutor"
	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/video"
	"github.com/grahamonica/gemini-build-day/internal/adapters/export"
	turnqueue "github.com/grahamonica/gemini-build-day/internal/adapters/mq/queue"
	workerpool "github.com/grahamonica/gemini-build-day/internal/adapters/mq/worker"
	"github.com/grahamonica/gemini-build-day/internal/adapters/registry"
	"github.com/grahamonica/gemini-build-day/internal/board"
	"github.com/grahamonica/gemini-build-day/internal/domain/capture"
	"github.com/grahamonica/gemini-build-day/internal/domain/dedupe"
	"github.com/grahamonica/gemini-build-day/internal/domain/frame"
	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Service implements the API dependencies for the whiteboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions *registry.InMemory
	deduper  dedupe.Deduper
	queue    turnqueue.Queue
	pool     *workerpool.Pool

	// Collaborators
	tutorClient   tutor.Client
	videoClient   video.Client
	extractClient extract.Client

	// Configuration
	clk            clock.Clock
	workerCount    int
	queueSize      int
	dedupeSize     int
	canvasW        int
	canvasH        int
	gridSpacing    float64
	minScale       float64
	maxScale       float64
	renderInterval time.Duration
	settleDelay    time.Duration
	sampleInterval time.Duration
	sampleGrace    time.Duration
	minSpacing     time.Duration
	frameRetention time.Duration

	// In-flight replay generations, cancellable per session.
	replays map[string]*replayGen

	// State
	started bool
	runCtx  context.Context

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of tutoring dispatch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the turn queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the batch-ID idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCanvasSize sets the raster surface for new sessions.
func WithCanvasSize(w, h int) Option {
	return func(s *Service) {
		if w > 0 && h > 0 {
			s.canvasW, s.canvasH = w, h
		}
	}
}

// WithGridSpacing sets the background grid for new sessions.
func WithGridSpacing(worldUnits float64) Option {
	return func(s *Service) {
		s.gridSpacing = worldUnits
	}
}

// WithScaleClamp bounds pinch zoom for new sessions.
func WithScaleClamp(minScale, maxScale float64) Option {
	return func(s *Service) {
		s.minScale, s.maxScale = minScale, maxScale
	}
}

// WithCaptureTimings sets the settle and frame sampling cadence.
func WithCaptureTimings(settle, interval, grace, minSpacing time.Duration) Option {
	return func(s *Service) {
		if settle > 0 {
			s.settleDelay = settle
		}
		if interval > 0 {
			s.sampleInterval = interval
		}
		if grace > 0 {
			s.sampleGrace = grace
		}
		if minSpacing > 0 {
			s.minSpacing = minSpacing
		}
	}
}

// WithFrameRetention sets the replay window for new sessions.
func WithFrameRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.frameRetention = d
		}
	}
}

// WithRenderInterval sets the render loop tick for new sessions.
func WithRenderInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.renderInterval = d
		}
	}
}

// WithClock injects the clock driving session timers.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithTutorClient sets the tutoring collaborator.
func WithTutorClient(c tutor.Client) Option {
	return func(s *Service) {
		s.tutorClient = c
	}
}

// WithVideoClient sets the frame-to-video collaborator.
func WithVideoClient(c video.Client) Option {
	return func(s *Service) {
		s.videoClient = c
	}
}

// WithExtractClient sets the problem-extraction collaborator.
func WithExtractClient(c extract.Client) Option {
	return func(s *Service) {
		s.extractClient = c
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clk:         clock.New(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		canvasW:     1280,
		canvasH:     800,
		replays:     make(map[string]*replayGen),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting whiteboard service...")

	s.runCtx = ctx
	s.sessions = registry.NewInMemory()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = turnqueue.NewInMemoryQueue(
		turnqueue.WithCapacity(s.queueSize),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, &reviewer{svc: s}, &recorder{svc: s},
		workerpool.WithLogger(s.logger.Named("tutor-dispatch")),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "whiteboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping whiteboard service...")

	for _, gen := range s.replays {
		gen.cancel()
	}
	s.replays = make(map[string]*replayGen)

	s.sessions.Close()
	for _, sess := range s.sessions.List(ctx) {
		sess.Close()
	}

	_ = s.queue.Close()
	s.pool.Stop()

	s.started = false
	s.logger.Info(ctx, "whiteboard service stopped")
}

// SeenAndRecord atomically checks if a batch id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a batch ID from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// CreateSession starts a new whiteboard session and registers it.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", ErrNotStarted
	}

	id := uuid.NewString()
	opts := []board.Option{
		board.WithClock(s.clk),
		board.WithCanvasSize(s.canvasW, s.canvasH),
		board.WithGridSpacing(s.gridSpacing),
		board.WithScaleClamp(s.minScale, s.maxScale),
		board.WithLogger(s.logger.Named("session")),
		board.WithTurnSink(func(t model.Turn) {
			if !s.queue.Enqueue(s.runCtx, t) {
				s.logger.Warn(s.runCtx, "turn dropped, queue full",
					logger.String("session", t.SessionID),
				)
			}
		}),
	}
	if s.renderInterval > 0 {
		opts = append(opts, board.WithRenderInterval(s.renderInterval))
	}
	if s.frameRetention > 0 {
		opts = append(opts, board.WithFrameOptions(frame.WithRetention(s.frameRetention)))
	}
	var schedOpts []capture.Option
	if s.settleDelay > 0 {
		schedOpts = append(schedOpts, capture.WithSettleDelay(s.settleDelay))
	}
	if s.sampleInterval > 0 {
		schedOpts = append(schedOpts, capture.WithSampleInterval(s.sampleInterval))
	}
	if s.sampleGrace > 0 {
		schedOpts = append(schedOpts, capture.WithSampleGrace(s.sampleGrace))
	}
	if s.minSpacing > 0 {
		schedOpts = append(schedOpts, capture.WithMinSpacing(s.minSpacing))
	}
	if len(schedOpts) > 0 {
		opts = append(opts, board.WithSchedulerOptions(schedOpts...))
	}

	sess := board.NewSession(id, opts...)
	if err := s.sessions.Put(ctx, sess); err != nil {
		sess.Close()
		return "", err
	}
	sess.Start(s.runCtx)
	metrics.RecordSessionCreated()

	s.logger.Info(ctx, "session created", logger.String("session", id))
	return id, nil
}

// ApplyEvents routes a pointer-event batch into a session in arrival order.
func (s *Service) ApplyEvents(ctx context.Context, sessionID string, events []model.PointerEvent) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.ApplyEvents(events)
	return nil
}

// SnapshotPNG rasterizes the current board state of a session.
func (s *Service) SnapshotPNG(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.SnapshotPNG()
}

// ClearSession wipes the session's strokes.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.Clear()
	return nil
}

// ExportPDF renders the finished strokes of a session as a PDF document.
func (s *Service) ExportPDF(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.PDF(&buf, sess.Strokes(), s.canvasW, s.canvasH); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// replayGen identifies one in-flight replay generation. The pointer doubles
// as the ownership token: a finished request only unregisters the map entry
// when the entry is still its own, so a superseding request's cancel func is
// never clobbered.
type replayGen struct {
	cancel context.CancelFunc
}

// GenerateReplay assembles the session's buffered frames into a video. The
// call blocks until the collaborator answers or CancelReplay aborts it.
func (s *Service) GenerateReplay(ctx context.Context, sessionID string) (video.Result, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return video.Result{}, err
	}
	frames, err := sess.ReplayFrames()
	if err != nil {
		return video.Result{}, err
	}
	pngs := make([][]byte, len(frames))
	for i, f := range frames {
		pngs[i] = f.PNG
	}

	genCtx, cancel := context.WithCancel(ctx)
	gen := &replayGen{cancel: cancel}
	s.mu.Lock()
	if prev, ok := s.replays[sessionID]; ok {
		prev.cancel()
	}
	s.replays[sessionID] = gen
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		// A superseding request may have registered its own generation by
		// now; only remove the entry if it is still ours.
		if s.replays[sessionID] == gen {
			delete(s.replays, sessionID)
		}
		s.mu.Unlock()
		cancel()
	}()

	res, err := s.videoClient.Assemble(genCtx, pngs)
	if err != nil {
		if genCtx.Err() == context.Canceled {
			metrics.RecordVideoCancelled()
			return video.Result{}, context.Canceled
		}
		metrics.RecordVideoError()
		return video.Result{}, err
	}
	metrics.RecordVideoGeneration()
	return res, nil
}

// CancelReplay aborts an in-flight replay generation for the session.
func (s *Service) CancelReplay(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen, ok := s.replays[sessionID]
	if !ok {
		return ErrReplayNotFound
	}
	gen.cancel()
	delete(s.replays, sessionID)
	return nil
}

// Comments returns the tutoring replies recorded on a session.
func (s *Service) Comments(ctx context.Context, sessionID string) ([]model.Comment, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Comments(), nil
}

// ExtractProblems sends page rasters to the extraction collaborator.
func (s *Service) ExtractProblems(ctx context.Context, pages [][]byte) ([]model.Problem, error) {
	metrics.RecordExtractRequest()
	problems, err := s.extractClient.Extract(ctx, pages)
	if err != nil {
		metrics.RecordExtractError()
		return nil, err
	}
	return problems, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		stats["sessions"] = s.sessions.Count(ctx)
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
	}
	return stats
}

// reviewer adapts the tutoring client to the worker pool contract. The
// conversation history is rebuilt from the session's turns and comments in
// capture order, so every review sees the whole exchange so far.
type reviewer struct {
	svc *Service
}

func (r *reviewer) Review(ctx context.Context, t model.Turn) (model.Comment, error) {
	history := r.history(ctx, t)
	reply, err := r.svc.tutorClient.Tutor(ctx, t.PNG, history)
	if err != nil {
		return model.Comment{}, err
	}
	return model.Comment{Text: reply.Comment, Topic: reply.Topic, At: t.CapturedAt}, nil
}

func (r *reviewer) history(ctx context.Context, t model.Turn) []tutor.Message {
	sess, err := r.svc.sessions.Get(ctx, t.SessionID)
	if err != nil {
		return nil
	}

	type entry struct {
		at  time.Time
		msg tutor.Message
	}
	var entries []entry
	for _, turn := range sess.Turns() {
		if !turn.CapturedAt.Before(t.CapturedAt) {
			continue
		}
		entries = append(entries, entry{at: turn.CapturedAt, msg: tutor.Message{Role: "user", ImagePNG: turn.PNG}})
	}
	for _, c := range sess.Comments() {
		entries = append(entries, entry{at: c.At, msg: tutor.Message{Role: "assistant", Text: c.Text}})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	msgs := make([]tutor.Message, len(entries))
	for i, e := range entries {
		msgs[i] = e.msg
	}
	return msgs
}

// recorder attaches tutoring replies to their session.
type recorder struct {
	svc *Service
}

func (r *recorder) RecordComment(ctx context.Context, sessionID string, c model.Comment) error {
	sess, err := r.svc.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.AddComment(c)
	return nil
}
