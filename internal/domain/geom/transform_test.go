package geom_test

import (
	"testing"

	"github.com/grahamonica/gemini-build-day/internal/domain/geom"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func TestTransformRoundTrip(t *testing.T) {
	Convey("Given a set of transforms", t, func() {
		transforms := []geom.Transform{
			geom.NewTransform(),
			{PanX: 120, PanY: -45, Scale: 1},
			{PanX: -300.5, PanY: 17.25, Scale: 0.33},
			{PanX: 8, PanY: 8, Scale: 12.5},
		}
		points := []geom.Point{
			{X: 0, Y: 0},
			{X: 50, Y: 50},
			{X: -123.75, Y: 9001},
		}

		Convey("When converting world -> screen -> world", func() {
			for _, tr := range transforms {
				for _, p := range points {
					sx, sy := tr.WorldToScreen(p)
					back := tr.ScreenToWorld(sx, sy)

					So(back.X, ShouldAlmostEqual, p.X, tolerance)
					So(back.Y, ShouldAlmostEqual, p.Y, tolerance)
				}
			}
		})
	})
}

func TestGesturePinch(t *testing.T) {
	Convey("Given a pinch centered at (50,50) starting at scale 1, pan (0,0)", t, func() {
		tr := geom.NewTransform()
		// Two pointers 100 apart, centered on (50,50).
		g := geom.NewGesture(0, 50, 100, 50, 0, 0)
		worldBefore := tr.ScreenToWorld(50, 50)

		Convey("When the pointers spread to distance 200 about the same center", func() {
			tr = g.Update(tr, -50, 50, 150, 50)

			Convey("Then scale doubles", func() {
				So(tr.Scale, ShouldAlmostEqual, 2, tolerance)
			})

			Convey("And the world point under the pinch center stays fixed", func() {
				sx, sy := tr.WorldToScreen(worldBefore)
				So(sx, ShouldAlmostEqual, 50, tolerance)
				So(sy, ShouldAlmostEqual, 50, tolerance)
			})
		})

		Convey("When the midpoint moves without a distance change", func() {
			tr = g.Update(tr, 10, 60, 110, 60)

			Convey("Then the transform pans by the midpoint delta", func() {
				So(tr.Scale, ShouldAlmostEqual, 1, tolerance)
				So(tr.PanX, ShouldAlmostEqual, 10, tolerance)
				So(tr.PanY, ShouldAlmostEqual, 10, tolerance)
			})
		})
	})
}

func TestGestureEdgeCases(t *testing.T) {
	Convey("Given a gesture that starts with coincident pointers", t, func() {
		tr := geom.NewTransform()
		g := geom.NewGesture(40, 40, 40, 40, 0, 0)

		Convey("When the pointers separate", func() {
			tr = g.Update(tr, 20, 40, 60, 40)

			Convey("Then the zoom step is skipped for that tick", func() {
				So(tr.Scale, ShouldAlmostEqual, 1, tolerance)
			})

			Convey("And the following tick zooms normally", func() {
				tr = g.Update(tr, 0, 40, 80, 40)
				So(tr.Scale, ShouldAlmostEqual, 2, tolerance)
			})
		})
	})

	Convey("Given a gesture with a scale clamp", t, func() {
		tr := geom.NewTransform()
		g := geom.NewGesture(0, 50, 100, 50, 0.5, 4)

		Convey("When zooming far past the maximum", func() {
			tr = g.Update(tr, -450, 50, 550, 50) // distance 1000, raw factor 10

			Convey("Then scale stops at the clamp", func() {
				So(tr.Scale, ShouldAlmostEqual, 4, tolerance)
			})

			Convey("And the pinch center still maps to the same screen point", func() {
				world := geom.NewTransform().ScreenToWorld(50, 50)
				sx, sy := tr.WorldToScreen(world)
				So(sx, ShouldAlmostEqual, 50, tolerance)
				So(sy, ShouldAlmostEqual, 50, tolerance)
			})
		})
	})
}
