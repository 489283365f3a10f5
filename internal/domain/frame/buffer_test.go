package frame_test

import (
	"testing"
	"time"

	"github.com/grahamonica/gemini-build-day/internal/domain/frame"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRetentionEviction(t *testing.T) {
	Convey("Given a buffer with a one-minute retention window", t, func() {
		b := frame.NewBuffer(frame.WithRetention(time.Minute))
		start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		Convey("When appending frames every 10s across three minutes", func() {
			var last time.Time
			for i := 0; i < 19; i++ {
				last = start.Add(time.Duration(i) * 10 * time.Second)
				b.Append([]byte{byte(i)}, last)
			}

			Convey("Then only frames within the trailing window remain", func() {
				snap := b.Snapshot(nil, last)
				So(len(snap), ShouldBeLessThanOrEqualTo, 7)
				cutoff := last.Add(-time.Minute)
				for _, f := range snap {
					So(f.Timestamp.Before(cutoff), ShouldBeFalse)
				}
			})

			Convey("And frames stay strictly ordered by timestamp", func() {
				snap := b.Snapshot(nil, last)
				for i := 1; i < len(snap); i++ {
					So(snap[i].Timestamp.After(snap[i-1].Timestamp), ShouldBeTrue)
				}
			})
		})

		Convey("When taking a snapshot with a final frame", func() {
			b.Append([]byte("a"), start)
			now := start.Add(5 * time.Second)
			snap := b.Snapshot([]byte("final"), now)

			Convey("Then the synthetic final frame is appended last", func() {
				So(len(snap), ShouldEqual, 2)
				So(string(snap[1].PNG), ShouldEqual, "final")
				So(snap[1].Timestamp, ShouldEqual, now)
			})

			Convey("And the buffer itself is unchanged", func() {
				So(b.Len(), ShouldEqual, 1)
			})
		})
	})
}
