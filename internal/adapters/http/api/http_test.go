package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/video"
	"github.com/grahamonica/gemini-build-day/internal/domain/dedupe"
	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
)

func init() {
	logger.Init()
}

// fakeDeps is a controllable Dependencies implementation for handler tests.
type fakeDeps struct {
	dedupe.Deduper

	applied    map[string][]model.PointerEvent
	applyErr   error
	snapshot   []byte
	replay     video.Result
	replayErr  error
	comments   []model.Comment
	notFoundID string
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		Deduper:  dedupe.NewInMemoryDeduper(),
		applied:  make(map[string][]model.PointerEvent),
		snapshot: []byte("\x89PNG\r\n\x1a\nfake"),
	}
}

var errSessionNotFound = fmt.Errorf("session %w", model.ErrNotFound)

func (f *fakeDeps) CreateSession(context.Context) (string, error) { return "sess-1", nil }

func (f *fakeDeps) ApplyEvents(_ context.Context, id string, events []model.PointerEvent) error {
	if id == f.notFoundID {
		return errSessionNotFound
	}
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied[id] = append(f.applied[id], events...)
	return nil
}

func (f *fakeDeps) SnapshotPNG(_ context.Context, id string) ([]byte, error) {
	if id == f.notFoundID {
		return nil, errSessionNotFound
	}
	return f.snapshot, nil
}

func (f *fakeDeps) ClearSession(_ context.Context, id string) error {
	if id == f.notFoundID {
		return errSessionNotFound
	}
	return nil
}

func (f *fakeDeps) ExportPDF(_ context.Context, id string) ([]byte, error) {
	if id == f.notFoundID {
		return nil, errSessionNotFound
	}
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakeDeps) GenerateReplay(_ context.Context, id string) (video.Result, error) {
	if id == f.notFoundID {
		return video.Result{}, errSessionNotFound
	}
	return f.replay, f.replayErr
}

func (f *fakeDeps) CancelReplay(_ context.Context, id string) error {
	if id == f.notFoundID {
		return errSessionNotFound
	}
	return nil
}

func (f *fakeDeps) Comments(_ context.Context, id string) ([]model.Comment, error) {
	if id == f.notFoundID {
		return nil, errSessionNotFound
	}
	return f.comments, nil
}

func (f *fakeDeps) ExtractProblems(context.Context, [][]byte) ([]model.Problem, error) {
	return []model.Problem{{Index: 1, Text: "solve for x"}}, nil
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"sessions": 1}
}

func newTestMux(deps *fakeDeps) *http.ServeMux {
	mux := http.NewServeMux()
	NewServer(deps, deps).Register(context.Background(), mux)
	return mux
}

func postJSON(mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestEventBatchEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		mux := newTestMux(deps)

		batch := eventBatchRequest{
			BatchID: "batch-1",
			Events: []model.PointerEvent{
				{Type: model.PointerDown, PointerID: 1, X: 10, Y: 10},
				{Type: model.PointerMove, PointerID: 1, X: 12, Y: 14},
				{Type: model.PointerUp, PointerID: 1},
			},
		}

		Convey("When a valid batch is posted", func() {
			rec := postJSON(mux, "/sessions/sess-1/events", batch)

			Convey("Then it is accepted and applied in order", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				So(deps.applied["sess-1"], ShouldHaveLength, 3)
				So(deps.applied["sess-1"][0].Type, ShouldEqual, model.PointerDown)
			})

			Convey("And reposting the same batch_id is a duplicate no-op", func() {
				rec2 := postJSON(mux, "/sessions/sess-1/events", batch)
				So(rec2.Code, ShouldEqual, http.StatusOK)

				var ack ackResponse
				So(json.Unmarshal(rec2.Body.Bytes(), &ack), ShouldBeNil)
				So(ack.Duplicate, ShouldBeTrue)
				So(deps.applied["sess-1"], ShouldHaveLength, 3)
			})
		})

		Convey("When the batch is missing its batch_id", func() {
			bad := batch
			bad.BatchID = ""
			rec := postJSON(mux, "/sessions/sess-1/events", bad)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an event has an unknown type", func() {
			bad := batch
			bad.Events = []model.PointerEvent{{Type: "hover", PointerID: 1}}
			rec := postJSON(mux, "/sessions/sess-1/events", bad)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When applying fails, the batch_id can be retried", func() {
			deps.applyErr = errors.New("boom")
			rec := postJSON(mux, "/sessions/sess-1/events", batch)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)

			deps.applyErr = nil
			rec2 := postJSON(mux, "/sessions/sess-1/events", batch)
			So(rec2.Code, ShouldEqual, http.StatusAccepted)
			So(deps.applied["sess-1"], ShouldHaveLength, 3)
		})

		Convey("When the session does not exist", func() {
			deps.notFoundID = "ghost"
			rec := postJSON(mux, "/sessions/ghost/events", batch)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When a failure merely mentions not found in its message", func() {
			deps.applyErr = errors.New("flag not found in config")
			rec := postJSON(mux, "/sessions/sess-1/events", batch)

			Convey("Then it stays an internal error, not a 404", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestSessionEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		mux := newTestMux(deps)

		Convey("POST /sessions creates a session", func() {
			rec := postJSON(mux, "/sessions", nil)
			So(rec.Code, ShouldEqual, http.StatusCreated)

			var resp createSessionResponse
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.SessionID, ShouldEqual, "sess-1")
		})

		Convey("GET snapshot returns a PNG", func() {
			rec := get(mux, "/sessions/sess-1/snapshot")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "image/png")
			So(rec.Body.Bytes(), ShouldResemble, deps.snapshot)
		})

		Convey("GET export.pdf returns a PDF attachment", func() {
			rec := get(mux, "/sessions/sess-1/export.pdf")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "application/pdf")
		})

		Convey("GET comments returns recorded tutoring replies", func() {
			deps.comments = []model.Comment{{Text: "nice factoring", Topic: "algebra"}}
			rec := get(mux, "/sessions/sess-1/comments")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "nice factoring")
		})

		Convey("Unknown session IDs map to 404", func() {
			deps.notFoundID = "ghost"
			So(get(mux, "/sessions/ghost/snapshot").Code, ShouldEqual, http.StatusNotFound)
			So(postJSON(mux, "/sessions/ghost/clear", nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestReplayEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		deps.replay = video.Result{Data: []byte("mp4-bytes"), ContentType: "video/mp4"}
		mux := newTestMux(deps)

		Convey("POST replay returns the assembled video", func() {
			rec := postJSON(mux, "/sessions/sess-1/replay", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "video/mp4")
			So(rec.Body.String(), ShouldEqual, "mp4-bytes")
		})

		Convey("An unavailable encoder maps to 503 with a clear code", func() {
			deps.replayErr = video.ErrEncoderUnavailable
			rec := postJSON(mux, "/sessions/sess-1/replay", nil)
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)

			var resp errorResponse
			So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
			So(resp.Code, ShouldEqual, "encoder_unavailable")
		})

		Convey("DELETE replay acknowledges cancellation", func() {
			req := httptest.NewRequest(http.MethodDelete, "/sessions/sess-1/replay", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		mux := newTestMux(deps)

		Convey("GET /healthz reports ok", func() {
			rec := get(mux, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "ok")
		})

		Convey("GET /stats returns provider data", func() {
			rec := get(mux, "/stats")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "sessions")
		})

		Convey("GET /metrics serves the Prometheus registry", func() {
			rec := get(mux, "/metrics")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})
	})
}
