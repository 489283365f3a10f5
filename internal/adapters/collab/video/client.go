// Package video wraps the frame-to-video collaborator: an ordered sequence
// of PNG frames goes out, encoded video bytes come back. The bytes are
// opaque pass-through; nothing here interprets them.
package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	assemblePath   = "/v1/assemble"
	requestTimeout = 5 * time.Minute
	defaultFPS     = 4
)

// ErrEncoderUnavailable indicates the remote encoder is missing or down.
// Callers surface this with an actionable message instead of a generic 500.
var ErrEncoderUnavailable = errors.New("video encoder unavailable")

// Result is the assembled video.
type Result struct {
	Data        []byte
	ContentType string
}

// Client is the frame-to-video collaborator contract.
type Client interface {
	Assemble(ctx context.Context, frames [][]byte) (Result, error)
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	fps     int
	hc      *http.Client
}

// Option applies a configuration option to the HTTPClient.
type Option func(*HTTPClient)

// WithFPS sets the target frame rate of the assembled video.
func WithFPS(fps int) Option {
	return func(c *HTTPClient) {
		if fps > 0 {
			c.fps = fps
		}
	}
}

// WithHTTPClient injects a custom transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// NewHTTPClient creates a video assembly client.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		fps:     defaultFPS,
		hc:      &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type assembleRequest struct {
	Frames []string `json:"frames"` // base64 PNG, in order
	FPS    int      `json:"fps"`
}

type assembleError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Assemble posts the frames and returns the encoded video. The request is
// aborted when ctx is cancelled.
func (c *HTTPClient) Assemble(ctx context.Context, frames [][]byte) (Result, error) {
	if len(frames) == 0 {
		return Result{}, errors.New("no frames to assemble")
	}
	encoded := make([]string, len(frames))
	for i, f := range frames {
		encoded[i] = base64.StdEncoding.EncodeToString(f)
	}
	body, err := json.Marshal(assembleRequest{Frames: encoded, FPS: c.fps})
	if err != nil {
		return Result{}, fmt.Errorf("marshal assemble request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+assemblePath, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build assemble request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("assemble request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var ae assembleError
		if json.Unmarshal(raw, &ae) == nil && ae.Code == "encoder_unavailable" {
			return Result{}, fmt.Errorf("%w: %s", ErrEncoderUnavailable, ae.Message)
		}
		return Result{}, fmt.Errorf("assemble API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read assembled video: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "video/mp4"
	}
	return Result{Data: data, ContentType: ct}, nil
}
