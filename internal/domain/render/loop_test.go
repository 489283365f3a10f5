package render_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/grahamonica/gemini-build-day/internal/domain/render"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoopLifecycle(t *testing.T) {
	Convey("Given a render loop", t, func() {
		Convey("When it is stopped without ever being started", func() {
			l := render.NewLoop(clock.NewMock(), 16*time.Millisecond, func() {})

			done := make(chan struct{})
			go func() {
				l.Stop()
				close(done)
			}()

			Convey("Then Stop returns immediately", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					So("Stop did not return", ShouldBeEmpty)
				}
			})
		})

		Convey("When it runs on a real clock", func() {
			var ticks atomic.Int64
			l := render.NewLoop(clock.New(), time.Millisecond, func() { ticks.Add(1) })
			l.Start(context.Background())

			deadline := time.Now().Add(2 * time.Second)
			for ticks.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}

			Convey("Then ticks arrive and Stop halts them", func() {
				So(ticks.Load(), ShouldBeGreaterThan, 0)
				l.Stop()
				n := ticks.Load()
				time.Sleep(20 * time.Millisecond)
				So(ticks.Load(), ShouldEqual, n)
			})
		})

		Convey("When it is stopped twice", func() {
			l := render.NewLoop(clock.New(), time.Millisecond, func() {})
			l.Start(context.Background())
			l.Stop()

			Convey("Then the second Stop is a no-op", func() {
				So(l.Stop, ShouldNotPanic)
			})
		})
	})
}
