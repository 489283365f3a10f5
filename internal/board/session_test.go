package board_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/grahamonica/gemini-build-day/internal/board"
	"github.com/grahamonica/gemini-build-day/internal/domain/capture"
	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// turnCollector records dispatched tutoring turns.
type turnCollector struct {
	mu    sync.Mutex
	turns []model.Turn
}

func (c *turnCollector) sink(t model.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, t)
}

func (c *turnCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func newTestSession(mock *clock.Mock, col *turnCollector) *board.Session {
	return board.NewSession("test-session",
		board.WithClock(mock),
		board.WithCanvasSize(64, 64),
		board.WithTurnSink(col.sink),
		board.WithSchedulerOptions(
			capture.WithSettleDelay(1500*time.Millisecond),
			capture.WithSampleInterval(500*time.Millisecond),
			capture.WithSampleGrace(2*time.Second),
			capture.WithMinSpacing(400*time.Millisecond),
		),
	)
}

func drawStroke(s *board.Session, id int64, pts [][2]float64) {
	s.ApplyEvents([]model.PointerEvent{{Type: model.PointerDown, PointerID: id, X: pts[0][0], Y: pts[0][1]}})
	for _, p := range pts[1:] {
		s.ApplyEvents([]model.PointerEvent{{Type: model.PointerMove, PointerID: id, X: p[0], Y: p[1]}})
	}
	s.ApplyEvents([]model.PointerEvent{{Type: model.PointerUp, PointerID: id}})
}

func TestSettleDispatchesOneTurn(t *testing.T) {
	Convey("Given a session on a virtual clock", t, func() {
		mock := clock.NewMock()
		col := &turnCollector{}
		s := newTestSession(mock, col)
		defer s.Close()

		Convey("When one five-point stroke is drawn and the board settles", func() {
			drawStroke(s, 1, [][2]float64{{10, 10}, {14, 12}, {18, 16}, {22, 20}, {26, 24}})
			mock.Add(3 * time.Second)

			Convey("Then exactly one tutoring turn is dispatched", func() {
				So(col.count(), ShouldEqual, 1)
			})

			Convey("And the turn carries a PNG raster of the stroke", func() {
				turn := col.turns[0]
				So(bytes.HasPrefix(turn.PNG, []byte{0x89, 'P', 'N', 'G'}), ShouldBeTrue)
				So(turn.SessionID, ShouldEqual, "test-session")
				So(s.StrokeCount(), ShouldEqual, 1)
			})
		})

		Convey("When a new pointer-down interrupts the settle window", func() {
			drawStroke(s, 1, [][2]float64{{10, 10}, {20, 20}})
			mock.Add(1 * time.Second)
			s.ApplyEvents([]model.PointerEvent{{Type: model.PointerDown, PointerID: 2, X: 30, Y: 30}})
			mock.Add(1 * time.Second)

			Convey("Then the interrupted capture never fires", func() {
				So(col.count(), ShouldEqual, 0)
			})

			Convey("And settling after the second stroke fires once", func() {
				s.ApplyEvents([]model.PointerEvent{{Type: model.PointerUp, PointerID: 2}})
				mock.Add(2 * time.Second)
				So(col.count(), ShouldEqual, 1)
			})
		})
	})
}

func TestFrameSamplingLifecycle(t *testing.T) {
	Convey("Given a session on a virtual clock", t, func() {
		mock := clock.NewMock()
		col := &turnCollector{}
		s := newTestSession(mock, col)
		defer s.Close()

		Convey("When drawing continuously for 3 seconds then stopping", func() {
			s.ApplyEvents([]model.PointerEvent{{Type: model.PointerDown, PointerID: 1, X: 0, Y: 0}})
			for i := 0; i < 6; i++ {
				mock.Add(500 * time.Millisecond)
				s.ApplyEvents([]model.PointerEvent{{
					Type: model.PointerMove, PointerID: 1,
					X: float64(i + 1), Y: float64(i + 1),
				}})
			}
			s.ApplyEvents([]model.PointerEvent{{Type: model.PointerUp, PointerID: 1}})
			mock.Add(10 * time.Second)

			Convey("Then the frame buffer holds the sampled frames", func() {
				So(s.FrameCount(), ShouldBeGreaterThanOrEqualTo, 6)
			})

			Convey("And a replay snapshot appends a synthetic final frame", func() {
				n := s.FrameCount()
				frames, err := s.ReplayFrames()
				So(err, ShouldBeNil)
				So(len(frames), ShouldEqual, n+1)
				So(s.FrameCount(), ShouldEqual, n)
			})
		})
	})
}

func TestCloseWithoutStart(t *testing.T) {
	Convey("Given a session whose render loop was never started", t, func() {
		mock := clock.NewMock()
		s := newTestSession(mock, &turnCollector{})

		Convey("When it is closed", func() {
			done := make(chan struct{})
			go func() {
				s.Close()
				close(done)
			}()

			Convey("Then Close returns promptly", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					So("Close did not return", ShouldBeEmpty)
				}
			})
		})
	})
}

func TestCoalescedSamplesPreserveOrder(t *testing.T) {
	Convey("Given a session", t, func() {
		mock := clock.NewMock()
		col := &turnCollector{}
		s := newTestSession(mock, col)
		defer s.Close()

		Convey("When a move event carries coalesced samples", func() {
			s.ApplyEvents([]model.PointerEvent{
				{Type: model.PointerDown, PointerID: 1, X: 0, Y: 0},
				{Type: model.PointerMove, PointerID: 1, X: 3, Y: 3, Coalesced: []model.Sample{
					{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3},
				}},
				{Type: model.PointerUp, PointerID: 1},
			})

			Convey("Then every sample lands in the stroke in batch order", func() {
				strokes := s.Strokes()
				So(len(strokes), ShouldEqual, 1)
				pts := strokes[0].Points
				So(len(pts), ShouldEqual, 4)
				for i := 1; i < len(pts); i++ {
					So(pts[i].X, ShouldBeGreaterThan, pts[i-1].X)
				}
			})
		})
	})
}
