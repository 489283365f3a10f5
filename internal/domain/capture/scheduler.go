// Package capture decides when the canvas raster is snapshotted: a settle
// (idle-capture) debounce that fires one tutoring turn after a genuine pause
// in drawing, and a rate-limited periodic sampler that feeds the frame
// buffer while the user is active.
//
// All timing runs against an injected clock so the state machine is testable
// without wall-clock waits.
package capture

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Default timing configuration.
const (
	defaultSettleDelay    = 1500 * time.Millisecond
	defaultSampleInterval = 500 * time.Millisecond
	defaultSampleGrace    = 2 * time.Second
	defaultMinSpacing     = 400 * time.Millisecond
)

// Scheduler owns the two capture timing mechanisms for one session.
type Scheduler struct {
	clk clock.Clock

	settleDelay    time.Duration
	sampleInterval time.Duration
	grace          time.Duration
	minSpacing     time.Duration

	// onSettle fires one tutoring turn; onSample appends a frame. Both are
	// invoked without the scheduler lock held.
	onSettle func()
	onSample func()

	mu sync.Mutex
	// settleGen invalidates settle fires that were already dispatched when
	// their timer was stopped; only a fire carrying the current generation
	// may capture or touch the timer handle.
	settleGen      uint64
	settleTimer    *clock.Timer
	samplerRunning bool
	lastActivity   time.Time
	lastSample     time.Time
	closed         bool
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithSettleDelay sets the idle-capture debounce.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.settleDelay = d
		}
	}
}

// WithSampleInterval sets the periodic sampling cadence.
func WithSampleInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.sampleInterval = d
		}
	}
}

// WithSampleGrace sets how long sampling continues after the last activity.
func WithSampleGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithMinSpacing sets the minimum gap between two sampled frames.
func WithMinSpacing(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.minSpacing = d
		}
	}
}

// NewScheduler creates a scheduler. onSettle runs when the idle-capture
// timer fires uncancelled; onSample runs at each accepted sampling instant.
func NewScheduler(clk clock.Clock, onSettle, onSample func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		clk:            clk,
		settleDelay:    defaultSettleDelay,
		sampleInterval: defaultSampleInterval,
		grace:          defaultSampleGrace,
		minSpacing:     defaultMinSpacing,
		onSettle:       onSettle,
		onSample:       onSample,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PointerDown cancels any pending settle capture and marks activity.
// Cancellation here is a correctness requirement: a stale capture must not
// fire mid-stroke.
func (s *Scheduler) PointerDown() {
	s.mu.Lock()
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	s.settleGen++
	s.markActivityLocked()
	s.mu.Unlock()
}

// StrokeFinalized (re)starts the settle timer. Rapid successive strokes
// collapse into one downstream capture fired only after a genuine pause.
func (s *Scheduler) StrokeFinalized() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.settleTimer != nil {
		s.settleTimer.Stop()
	}
	s.settleGen++
	gen := s.settleGen
	s.settleTimer = s.clk.AfterFunc(s.settleDelay, func() { s.settleFire(gen) })
	s.markActivityLocked()
	s.mu.Unlock()
}

// Activity marks drawing or gesture progress, keeping the sampler alive.
func (s *Scheduler) Activity() {
	s.mu.Lock()
	s.markActivityLocked()
	s.mu.Unlock()
}

// Close cancels pending timers and stops the sampler.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
}

func (s *Scheduler) markActivityLocked() {
	if s.closed {
		return
	}
	s.lastActivity = s.clk.Now()
	if !s.samplerRunning {
		s.samplerRunning = true
		s.clk.AfterFunc(s.sampleInterval, s.sampleTick)
	}
}

func (s *Scheduler) settleFire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.settleGen {
		s.mu.Unlock()
		return
	}
	s.settleTimer = nil
	s.mu.Unlock()

	metrics.RecordSettleCapture()
	s.onSettle()
}

func (s *Scheduler) sampleTick() {
	s.mu.Lock()
	if s.closed {
		s.samplerRunning = false
		s.mu.Unlock()
		return
	}
	now := s.clk.Now()
	if now.Sub(s.lastActivity) > s.grace {
		// The board has settled; stop sampling so the buffer does not grow
		// while nothing changes.
		s.samplerRunning = false
		s.mu.Unlock()
		return
	}
	fire := now.Sub(s.lastSample) >= s.minSpacing
	if fire {
		s.lastSample = now
	}
	s.clk.AfterFunc(s.sampleInterval, s.sampleTick)
	s.mu.Unlock()

	if fire {
		metrics.RecordFrameSampled()
		s.onSample()
	}
}
