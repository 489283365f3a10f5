// Package worker dispatches settled tutoring turns to the tutoring
// collaborator. A failed turn is logged and dropped: local session state is
// left unchanged and drawing continues unaffected.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/grahamonica/gemini-build-day/internal/adapters/mq/queue"
	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Reviewer sends one turn to the tutoring collaborator and returns its
// reply. An empty comment text means the tutor had nothing to say.
type Reviewer interface {
	Review(ctx context.Context, t model.Turn) (model.Comment, error)
}

// Recorder attaches a tutoring reply to its session.
type Recorder interface {
	RecordComment(ctx context.Context, sessionID string, c model.Comment) error
}

// Pool runs a fixed set of dispatch workers over the turn queue.
type Pool struct {
	count    int
	queue    queue.Queue
	reviewer Reviewer
	recorder Recorder
	log      logger.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets the pool logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPool creates a dispatch pool.
func NewPool(count int, q queue.Queue, reviewer Reviewer, recorder Recorder, opts ...Option) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		count:    count,
		queue:    q,
		reviewer: reviewer,
		recorder: recorder,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("tutor-dispatch")
	}
	return p
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	metrics.UpdateWorkerCount(p.count)
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx)
	}
}

// Stop cancels the workers and waits for in-flight turns to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}

func (p *Pool) run(ctx context.Context) {
	defer p.wg.Done()
	turns := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case turn, ok := <-turns:
			if !ok {
				return
			}
			p.process(ctx, turn)
			metrics.UpdateTurnQueueSize(p.queue.Len(ctx))
		}
	}
}

func (p *Pool) process(ctx context.Context, turn model.Turn) {
	start := time.Now()
	comment, err := p.reviewer.Review(ctx, turn)
	metrics.RecordTutorLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		// The turn is not finalized: no comment is recorded and the session
		// keeps drawing and capturing as if nothing happened.
		metrics.RecordTutorError()
		p.log.Warn(ctx, "tutoring turn failed",
			logger.String("session", turn.SessionID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordTutorTurn()

	if comment.Text == "" {
		p.log.Debug(ctx, "tutor had no comment", logger.String("session", turn.SessionID))
		return
	}
	if err := p.recorder.RecordComment(ctx, turn.SessionID, comment); err != nil {
		p.log.Warn(ctx, "recording tutor comment failed",
			logger.String("session", turn.SessionID),
			logger.Error(err),
		)
	}
}
