package render

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Loop drives the per-frame redraw cycle. Each tick invokes the callback,
// which checks the dirty flag and rasterizes if needed; the loop itself
// never touches pixels.
type Loop struct {
	clk      clock.Clock
	interval time.Duration
	tick     func()

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewLoop creates a render loop ticking at the given interval.
func NewLoop(clk clock.Clock, interval time.Duration, tick func()) *Loop {
	return &Loop{
		clk:      clk,
		interval: interval,
		tick:     tick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins ticking until ctx is cancelled or Stop is called. A second
// Start is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started || l.stopped {
		return
	}
	l.started = true
	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	ticker := l.clk.Ticker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop halts the loop and waits for the running tick to finish. Stopping a
// loop that never started returns immediately.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		close(l.stop)
	}
	started := l.started
	l.mu.Unlock()

	if started {
		<-l.done
	}
}
