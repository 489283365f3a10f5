package drawgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client is a thin JSON/HTTP wrapper over the whiteboard API.
type client struct {
	baseURL string
	hc      *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type commentsResponse struct {
	Comments []struct {
		Text  string `json:"text"`
		Topic string `json:"topic"`
	} `json:"comments"`
}

func (c *client) postJSON(ctx context.Context, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) createSession(ctx context.Context) (string, error) {
	var resp createSessionResponse
	status, err := c.postJSON(ctx, "/sessions", nil, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("create session returned %d", status)
	}
	return resp.SessionID, nil
}

// submitBatch posts one event batch. Returns "success", "duplicate" or
// "failed".
func (c *client) submitBatch(ctx context.Context, sessionID string, b batch) string {
	var ack ackResponse
	status, err := c.postJSON(ctx, "/sessions/"+sessionID+"/events", b, &ack)
	if err != nil {
		return "failed"
	}
	switch status {
	case http.StatusAccepted:
		return "success"
	case http.StatusOK:
		if ack.Duplicate {
			return "duplicate"
		}
		return "success"
	default:
		return "failed"
	}
}

func (c *client) snapshotOK(ctx context.Context, sessionID string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sessions/"+sessionID+"/snapshot", nil)
	if err != nil {
		return false
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return false
	}
	return bytes.HasPrefix(raw, []byte{0x89, 'P', 'N', 'G'})
}

func (c *client) commentCount(ctx context.Context, sessionID string) int {
	var resp commentsResponse
	status, err := c.getJSON(ctx, "/sessions/"+sessionID+"/comments", &resp)
	if err != nil || status != http.StatusOK {
		return 0
	}
	return len(resp.Comments)
}

func (c *client) healthy(ctx context.Context) error {
	status, err := c.getJSON(ctx, "/healthz", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned %d", status)
	}
	return nil
}
