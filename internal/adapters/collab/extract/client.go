// Package extract wraps the problem-extraction collaborator: page rasters in,
// a structured problem list out. The whiteboard pipeline is independent of
// this path; bounding boxes are used only to crop locally rendered pages.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
)

const (
	extractPath    = "/v1/extract"
	requestTimeout = 2 * time.Minute
)

// Client is the problem-extraction collaborator contract.
type Client interface {
	Extract(ctx context.Context, pages [][]byte) ([]model.Problem, error)
}

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
}

// Option applies a configuration option to the HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient injects a custom transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// NewHTTPClient creates an extraction client.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type extractRequest struct {
	Pages []string `json:"pages"` // base64 PNG, in page order
}

type extractResponse struct {
	Problems []model.Problem `json:"problems"`
}

// Extract posts page rasters and returns the ordered problem list.
func (c *HTTPClient) Extract(ctx context.Context, pages [][]byte) ([]model.Problem, error) {
	encoded := make([]string, len(pages))
	for i, p := range pages {
		encoded[i] = base64.StdEncoding.EncodeToString(p)
	}
	body, err := json.Marshal(extractRequest{Pages: encoded})
	if err != nil {
		return nil, fmt.Errorf("marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+extractPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read extract response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extract API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var er extractResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		return nil, fmt.Errorf("parse extract response: %w", err)
	}
	return er.Problems, nil
}
