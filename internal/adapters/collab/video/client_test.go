package video

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAssemble(t *testing.T) {
	ctx := context.Background()

	Convey("Given an encoding endpoint", t, func() {
		var got assembleRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "video/webm")
			_, _ = w.Write([]byte("webm-bytes"))
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, WithFPS(8))
		frames := [][]byte{[]byte("frame-1"), []byte("frame-2")}

		Convey("When frames are assembled", func() {
			res, err := c.Assemble(ctx, frames)

			Convey("Then the encoded bytes and content type come back", func() {
				So(err, ShouldBeNil)
				So(res.Data, ShouldResemble, []byte("webm-bytes"))
				So(res.ContentType, ShouldEqual, "video/webm")
			})

			Convey("And the request carries the frames in order at the set rate", func() {
				So(got.FPS, ShouldEqual, 8)
				So(len(got.Frames), ShouldEqual, 2)
				first, decErr := base64.StdEncoding.DecodeString(got.Frames[0])
				So(decErr, ShouldBeNil)
				So(first, ShouldResemble, []byte("frame-1"))
			})
		})

		Convey("When there are no frames to assemble", func() {
			_, err := c.Assemble(ctx, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestAssembleErrors(t *testing.T) {
	ctx := context.Background()
	frames := [][]byte{[]byte("frame-1")}

	Convey("Given a failing encoding endpoint", t, func() {
		Convey("When the encoder is reported unavailable", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(assembleError{
					Code: "encoder_unavailable", Message: "ffmpeg not installed",
				})
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL).Assemble(ctx, frames)

			Convey("Then the sentinel surfaces with the remote message", func() {
				So(errors.Is(err, ErrEncoderUnavailable), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "ffmpeg not installed")
			})
		})

		Convey("When the endpoint fails for any other reason", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "frame 3 is corrupt", http.StatusBadRequest)
			}))
			defer srv.Close()

			_, err := NewHTTPClient(srv.URL).Assemble(ctx, frames)

			Convey("Then a plain error comes back, not the sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrEncoderUnavailable), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "400")
			})
		})
	})
}
