// Package queue buffers settled tutoring turns between the capture path and
// the dispatch workers. The capture path must never block on a slow
// collaborator; a full queue drops the turn instead.
package queue

import (
	"context"
	"sync"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

const defaultCapacity = 1024

// Turn is the payload flowing through the queue.
type Turn = model.Turn

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a turn. Returns false when the queue is full or closed.
	Enqueue(ctx context.Context, t Turn) bool

	// Dequeue returns a channel receiving turns; closed when the queue closes.
	Dequeue(ctx context.Context) <-chan Turn

	// Len returns the number of queued turns.
	Len(ctx context.Context) int

	// Close shuts the queue down; no further enqueues are accepted.
	Close() error
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	turns  chan Turn
	cap    int
	mu     sync.RWMutex
	closed bool
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the queue.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.cap = n
		}
	}
}

// NewInMemoryQueue creates a bounded in-memory turn queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{cap: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.turns = make(chan Turn, q.cap)
	metrics.UpdateTurnQueueCapacity(q.cap)
	metrics.UpdateTurnQueueSize(0)
	return q
}

// Enqueue adds a turn without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Turn) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		metrics.RecordTurnEnqueueError()
		return false
	}
	select {
	case q.turns <- t:
		metrics.UpdateTurnQueueSize(len(q.turns))
		return true
	case <-ctx.Done():
		metrics.RecordTurnEnqueueError()
		return false
	default:
		metrics.RecordTurnEnqueueError()
		return false
	}
}

// Dequeue exposes the receive side.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Turn {
	return q.turns
}

// Len returns the number of queued turns.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.turns)
}

// Close shuts the queue down and closes the dequeue channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.turns)
	return nil
}
