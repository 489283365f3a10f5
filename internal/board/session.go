// Package board owns the per-canvas session: one controller instance that
// ties the transform, stroke log, input router, renderer, capture scheduler,
// and frame buffer together. All entry points serialize through the session
// lock, so stroke and frame ordering matches a single-threaded event loop.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/grahamonica/gemini-build-day/internal/domain/capture"
	"github.com/grahamonica/gemini-build-day/internal/domain/frame"
	"github.com/grahamonica/gemini-build-day/internal/domain/geom"
	"github.com/grahamonica/gemini-build-day/internal/domain/input"
	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/internal/domain/render"
	"github.com/grahamonica/gemini-build-day/internal/domain/stroke"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
)

// Default session configuration.
const (
	defaultCanvasWidth    = 1280
	defaultCanvasHeight   = 800
	defaultRenderInterval = 16 * time.Millisecond
)

// TurnSink receives settled captures for tutoring dispatch.
type TurnSink func(model.Turn)

// Session is one whiteboard canvas and its pipeline state.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	clk       clock.Clock
	log       logger.Logger

	transform geom.Transform
	strokes   *stroke.Log
	router    *input.Router
	renderer  *render.Renderer
	sched     *capture.Scheduler
	frames    *frame.Buffer
	loop      *render.Loop

	turns    []model.Turn
	comments []model.Comment

	onTurn TurnSink
	closed bool

	// deferred construction knobs
	width, height      int
	gridSpacing        float64
	minScale, maxScale float64
	penColor           string
	penWidth           float64
	renderInterval     time.Duration
	schedOpts          []capture.Option
	frameOpts          []frame.Option
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithClock injects the clock driving capture timers and the render loop.
func WithClock(clk clock.Clock) Option {
	return func(s *Session) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithCanvasSize sets the raster surface dimensions.
func WithCanvasSize(w, h int) Option {
	return func(s *Session) {
		if w > 0 && h > 0 {
			s.width, s.height = w, h
		}
	}
}

// WithGridSpacing enables the background dot grid.
func WithGridSpacing(worldUnits float64) Option {
	return func(s *Session) {
		s.gridSpacing = worldUnits
	}
}

// WithScaleClamp bounds pinch zoom.
func WithScaleClamp(minScale, maxScale float64) Option {
	return func(s *Session) {
		s.minScale, s.maxScale = minScale, maxScale
	}
}

// WithPen sets the initial pen.
func WithPen(color string, width float64) Option {
	return func(s *Session) {
		s.penColor, s.penWidth = color, width
	}
}

// WithRenderInterval sets the render loop tick.
func WithRenderInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.renderInterval = d
		}
	}
}

// WithSchedulerOptions forwards capture scheduler configuration.
func WithSchedulerOptions(opts ...capture.Option) Option {
	return func(s *Session) {
		s.schedOpts = append(s.schedOpts, opts...)
	}
}

// WithFrameOptions forwards frame buffer configuration.
func WithFrameOptions(opts ...frame.Option) Option {
	return func(s *Session) {
		s.frameOpts = append(s.frameOpts, opts...)
	}
}

// WithTurnSink sets the destination for settled captures.
func WithTurnSink(sink TurnSink) Option {
	return func(s *Session) {
		s.onTurn = sink
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession builds a session and its pipeline.
func NewSession(id string, opts ...Option) *Session {
	s := &Session{
		id:             id,
		clk:            clock.New(),
		transform:      geom.NewTransform(),
		strokes:        stroke.NewLog(),
		width:          defaultCanvasWidth,
		height:         defaultCanvasHeight,
		penColor:       "#111827",
		penWidth:       3,
		renderInterval: defaultRenderInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("session")
	}
	s.createdAt = s.clk.Now()

	s.frames = frame.NewBuffer(s.frameOpts...)
	s.renderer = render.NewRenderer(s.width, s.height, render.WithGridSpacing(s.gridSpacing))
	s.router = input.NewRouter(&s.transform, s.strokes, (*notifier)(s),
		input.WithPen(s.penColor, s.penWidth),
		input.WithScaleClamp(s.minScale, s.maxScale),
	)
	s.sched = capture.NewScheduler(s.clk, s.settleCapture, s.sampleFrame, s.schedOpts...)
	s.loop = render.NewLoop(s.clk, s.renderInterval, s.renderTick)
	return s
}

// notifier adapts the session to input.Notifier. The router invokes these
// while the session lock is held, so they must not re-lock the session.
type notifier Session

func (n *notifier) Dirty()           { n.renderer.MarkDirty() }
func (n *notifier) PointerDown()     { n.sched.PointerDown() }
func (n *notifier) Activity()        { n.sched.Activity() }
func (n *notifier) StrokeFinalized() { n.sched.StrokeFinalized() }

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Start launches the render loop.
func (s *Session) Start(ctx context.Context) {
	s.loop.Start(ctx)
}

// Close stops timers and the render loop.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sched.Close()
	s.loop.Stop()
}

// ApplyEvents routes a batch of pointer events through the input router in
// arrival order.
func (s *Session) ApplyEvents(events []model.PointerEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, e := range events {
		switch e.Type {
		case model.PointerDown:
			s.router.PointerDown(e.PointerID, e.X, e.Y)
		case model.PointerMove:
			samples := coalesced(e)
			s.router.PointerMove(e.PointerID, samples)
		case model.PointerUp:
			s.router.PointerUp(e.PointerID)
		case model.PointerCancel:
			s.router.PointerCancel(e.PointerID)
		}
	}
}

func coalesced(e model.PointerEvent) []input.Sample {
	if len(e.Coalesced) == 0 {
		return []input.Sample{{X: e.X, Y: e.Y}}
	}
	out := make([]input.Sample, len(e.Coalesced))
	for i, c := range e.Coalesced {
		out[i] = input.Sample{X: c.X, Y: c.Y}
	}
	return out
}

// SetPen changes the pen for subsequent strokes.
func (s *Session) SetPen(color string, width float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router.SetPen(color, width)
}

// SnapshotPNG rasterizes the current board state.
func (s *Session) SnapshotPNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderer.PNG(s.transform, s.strokes.Finished(), s.strokes.Current())
}

// Clear wipes all strokes. Buffered frames are kept; the replay still covers
// the drawing history inside the retention window.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strokes.Clear()
	s.renderer.MarkDirty()
}

// HasContent reports whether any stroke exists. Used by the explicit
// visualization path; automatic captures never skip on emptiness.
func (s *Session) HasContent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strokes.Len() > 0 || s.strokes.Current() != nil
}

// StrokeCount returns the number of finished strokes.
func (s *Session) StrokeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strokes.Len()
}

// FrameCount returns the number of buffered frames.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames.Len()
}

// Strokes returns the finished strokes for export. Read-only.
func (s *Session) Strokes() []stroke.Stroke {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strokes.Finished()
}

// ReplayFrames returns a copy of the buffered frames plus a synthetic final
// frame reflecting the board at the moment of export.
func (s *Session) ReplayFrames() ([]frame.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	final, err := s.renderer.PNG(s.transform, s.strokes.Finished(), s.strokes.Current())
	if err != nil {
		return nil, err
	}
	return s.frames.Snapshot(final, s.clk.Now()), nil
}

// AddComment records a tutoring reply on the session.
func (s *Session) AddComment(c model.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, c)
}

// Comments returns the tutoring replies so far.
func (s *Session) Comments() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// Turns returns the settled captures dispatched so far.
func (s *Session) Turns() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// settleCapture runs when the idle-capture timer fires uncancelled: the
// current raster becomes one logical tutoring turn.
func (s *Session) settleCapture() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	png, err := s.renderer.PNG(s.transform, s.strokes.Finished(), s.strokes.Current())
	if err != nil {
		s.mu.Unlock()
		s.log.Error(context.Background(), "settle capture failed", logger.Error(err))
		return
	}
	turn := model.Turn{SessionID: s.id, PNG: png, CapturedAt: s.clk.Now()}
	s.turns = append(s.turns, turn)
	sink := s.onTurn
	s.mu.Unlock()

	if sink != nil {
		sink(turn)
	}
}

// sampleFrame appends the current raster to the frame buffer.
func (s *Session) sampleFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	png, err := s.renderer.PNG(s.transform, s.strokes.Finished(), s.strokes.Current())
	if err != nil {
		s.log.Error(context.Background(), "frame sample failed", logger.Error(err))
		return
	}
	s.frames.Append(png, s.clk.Now())
}

// renderTick is the render loop callback: redraw only when dirty.
func (s *Session) renderTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer.RenderIfDirty(s.transform, s.strokes.Finished(), s.strokes.Current())
}
