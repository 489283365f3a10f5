package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a custom registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the default manager", t, func() {
		Convey("When recording drawing activity", func() {
			So(func() {
				RecordStrokeFinalized()
				RecordStrokeDiscarded()
				RecordPointsIngested(12)
				RecordGesture()
			}, ShouldNotPanic)
		})

		Convey("When recording capture and render activity", func() {
			So(func() {
				RecordSettleCapture()
				RecordFrameSampled()
				RecordFramesEvicted(3)
				UpdateFrameBufferSize(7)
				RecordRenderPass(4.2)
			}, ShouldNotPanic)
		})

		Convey("When recording pipeline activity", func() {
			So(func() {
				RecordTutorTurn()
				RecordTutorError()
				RecordTutorLatency(120)
				UpdateTurnQueueSize(2)
				UpdateTurnQueueCapacity(1024)
				RecordTurnEnqueueError()
				UpdateWorkerCount(4)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP activity", func() {
			So(func() {
				RecordHTTPRequest("events", "POST", "202")
				RecordHTTPRequestDuration("events", "POST", "202", 1.7)
			}, ShouldNotPanic)
		})

		Convey("Then the default registry gathers without error", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
