package drawgen

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grahamonica/gemini-build-day/pkg/logger"
)

// One in pinchEvery sessions also performs a pinch gesture.
const pinchEvery = 3

// Run executes the complete drawing generation pass.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("drawgen")

	log.Info(ctx, "starting drawing generator",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.Sessions),
		logger.Int("strokesPer", config.StrokesPer),
		logger.Int("workers", config.Workers),
		logger.Duration("settleWait", config.SettleWait),
	)

	c := newClient(config.BaseURL, config.Timeout)
	if err := c.healthy(ctx); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	sessionIDs, err := driveSessions(ctx, config, c, stats, log)
	if err != nil {
		return err
	}

	log.Info(ctx, "waiting for boards to settle")
	select {
	case <-ctx.Done():
		return fmt.Errorf("cancelled while waiting for settle: %w", ctx.Err())
	case <-time.After(config.SettleWait):
	}

	for _, id := range sessionIDs {
		if c.snapshotOK(ctx, id) {
			stats.SnapshotsOK++
		}
		stats.CommentsSeen += c.commentCount(ctx, id)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(log, stats)

	if stats.BatchesFailed > 0 {
		return fmt.Errorf("%d batches failed", stats.BatchesFailed)
	}
	return nil
}

// driveSessions creates the sessions and draws into them concurrently.
func driveSessions(ctx context.Context, config *Config, c *client, stats *Stats, log logger.Logger) ([]string, error) {
	var (
		submitted int64
		duplicate int64
		failed    int64
	)

	sessionIDs := make([]string, 0, config.Sessions)
	var idMu sync.Mutex

	work := make(chan int, config.Sessions)
	var wg sync.WaitGroup

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}

				id, err := c.createSession(ctx)
				if err != nil {
					log.Warn(ctx, "session creation failed", logger.Error(err))
					atomic.AddInt64(&failed, 1)
					continue
				}
				idMu.Lock()
				sessionIDs = append(sessionIDs, id)
				idMu.Unlock()

				for s := 0; s < config.StrokesPer; s++ {
					for _, b := range generateStroke(1, config.PointsPerStroke) {
						submitCounted(ctx, c, id, b, &submitted, &duplicate, &failed)
					}
				}
				if n%pinchEvery == 0 {
					for _, b := range generatePinch() {
						submitCounted(ctx, c, id, b, &submitted, &duplicate, &failed)
					}
				}
				if config.Verbose {
					log.Info(ctx, "session drawn",
						logger.String("session", id),
						logger.Int("strokes", config.StrokesPer),
					)
				}
			}
		}()
	}

	for n := 0; n < config.Sessions; n++ {
		select {
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return nil, fmt.Errorf("cancelled during generation: %w", ctx.Err())
		case work <- n:
		}
	}
	close(work)
	wg.Wait()

	stats.SessionsCreated = len(sessionIDs)
	stats.BatchesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.BatchesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.BatchesFailed = int(atomic.LoadInt64(&failed))
	return sessionIDs, nil
}

func submitCounted(ctx context.Context, c *client, id string, b batch, submitted, duplicate, failed *int64) {
	atomic.AddInt64(submitted, 1)
	switch c.submitBatch(ctx, id, b) {
	case "duplicate":
		atomic.AddInt64(duplicate, 1)
	case "failed":
		atomic.AddInt64(failed, 1)
	}
}

func displayFinalStats(log logger.Logger, stats *Stats) {
	var batchesPerSecond float64
	if stats.Duration > 0 {
		batchesPerSecond = float64(stats.BatchesSubmitted) / stats.Duration.Seconds()
	}
	log.Info(context.Background(), "final statistics",
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesDuplicate", stats.BatchesDuplicate),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("snapshotsOK", stats.SnapshotsOK),
		logger.Int("commentsSeen", stats.CommentsSeen),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("batchesPerSecond", batchesPerSecond),
	)
}
