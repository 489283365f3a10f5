package config_test

import (
	"context"
	"testing"

	"github.com/grahamonica/gemini-build-day/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given default configuration", t, func() {
		Convey("When loading with no file or env overrides", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults should apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8090")
				So(cfg.SettleDelayMS, ShouldEqual, 1500)
				So(cfg.SampleIntervalMS, ShouldEqual, 500)
				So(cfg.FrameRetentionSec, ShouldEqual, 300)
				So(cfg.MinScale, ShouldBeGreaterThan, 0)
				So(cfg.MaxScale, ShouldBeGreaterThan, cfg.MinScale)
			})
		})

		Convey("When env vars override defaults", func() {
			t.Setenv("BOARD_ADDR", ":7070")
			t.Setenv("BOARD_SETTLE_DELAY_MS", "900")

			cfg, err := config.Load(context.Background())

			Convey("Then the overridden values win", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.SettleDelayMS, ShouldEqual, 900)
				So(cfg.SampleIntervalMS, ShouldEqual, 500)
			})
		})

		Convey("When env vars produce an invalid config", func() {
			t.Setenv("BOARD_CANVAS_WIDTH", "-1")

			_, err := config.Load(context.Background())

			Convey("Then validation should fail with the sentinel kind", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "canvas dimensions")
			})
		})
	})
}
