package tutor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTutorRoundTrip(t *testing.T) {
	Convey("Given a tutoring endpoint", t, func() {
		var got apiRequest
		var gotKey, gotVersion string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("x-api-key")
			gotVersion = r.Header.Get("anthropic-version")
			_ = json.NewDecoder(r.Body).Decode(&got)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]string{
					{"type": "text", "text": `{"comment": "carry the two", "topic": "arithmetic"}`},
				},
			})
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "key-123", WithModel("tutor-model"))
		board := []byte("board-png")
		history := []Message{
			{Role: "user", ImagePNG: []byte("earlier-png")},
			{Role: "assistant", Text: "nice start"},
		}

		Convey("When the board and history are sent", func() {
			reply, err := c.Tutor(context.Background(), board, history)

			Convey("Then the reply is parsed from the JSON text block", func() {
				So(err, ShouldBeNil)
				So(reply.Comment, ShouldEqual, "carry the two")
				So(reply.Topic, ShouldEqual, "arithmetic")
			})

			Convey("And the request carries the auth headers and model", func() {
				So(gotKey, ShouldEqual, "key-123")
				So(gotVersion, ShouldEqual, "2023-06-01")
				So(got.Model, ShouldEqual, "tutor-model")
			})

			Convey("And the history precedes the board image in order", func() {
				So(len(got.Messages), ShouldEqual, 3)
				So(got.Messages[0].Role, ShouldEqual, "user")
				So(got.Messages[0].Content[0].Type, ShouldEqual, "image")
				So(got.Messages[1].Role, ShouldEqual, "assistant")
				So(got.Messages[1].Content[0].Text, ShouldEqual, "nice start")

				last := got.Messages[2]
				So(last.Role, ShouldEqual, "user")
				raw, decErr := base64.StdEncoding.DecodeString(last.Content[0].Source.Data)
				So(decErr, ShouldBeNil)
				So(raw, ShouldResemble, board)
			})
		})
	})
}

func TestTutorAPIError(t *testing.T) {
	Convey("Given an endpoint returning an API error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"type": "rate_limit_error", "message": "slow down"},
			})
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, "key-123")

		Convey("When a turn is sent", func() {
			_, err := c.Tutor(context.Background(), []byte("png"), nil)

			Convey("Then the error surfaces the status and message", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "429")
				So(err.Error(), ShouldContainSubstring, "slow down")
			})
		})
	})
}

func TestParseReply(t *testing.T) {
	Convey("Given tutor reply texts", t, func() {
		Convey("A JSON reply is decoded into comment and topic", func() {
			r := parseReply(` {"comment": "check the sign", "topic": "algebra"} `)
			So(r.Comment, ShouldEqual, "check the sign")
			So(r.Topic, ShouldEqual, "algebra")
		})

		Convey("A plain-text reply becomes the whole comment", func() {
			r := parseReply("Try factoring the left side first.")
			So(r.Comment, ShouldEqual, "Try factoring the left side first.")
			So(r.Topic, ShouldBeEmpty)
		})

		Convey("A JSON reply with an empty comment stays empty", func() {
			r := parseReply(`{"comment": "", "topic": "geometry"}`)
			So(r.Comment, ShouldBeEmpty)
			So(r.Topic, ShouldEqual, "geometry")
		})
	})
}
