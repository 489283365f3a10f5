package tutor

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
)

const (
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
	requestTimeout   = 2 * time.Minute
)

const systemPrompt = "You are a patient math tutor watching a student's " +
	"whiteboard. Reply with JSON: {\"comment\": short encouraging hint or " +
	"empty string if nothing useful to say, \"topic\": the topic being " +
	"worked on, if identifiable}."

// HTTPClient implements Client against an Anthropic-style messages API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	hc      *http.Client
}

// Option applies a configuration option to the HTTPClient.
type Option func(*HTTPClient)

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *HTTPClient) {
		if model != "" {
			c.model = model
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

// NewHTTPClient creates a tutoring client.
func NewHTTPClient(baseURL, apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   defaultModel,
		hc:      &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string     `json:"role"`
	Content []apiBlock `json:"content"`
}

type apiBlock struct {
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Source *apiSource `json:"source,omitempty"`
}

type apiSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func textBlock(text string) apiBlock {
	return apiBlock{Type: "text", Text: text}
}

func imageBlock(png []byte) apiBlock {
	return apiBlock{Type: "image", Source: &apiSource{
		Type:      "base64",
		MediaType: "image/png",
		Data:      base64.StdEncoding.EncodeToString(png),
	}}
}

// Tutor sends the board raster and conversation history and parses the reply.
func (c *HTTPClient) Tutor(ctx context.Context, boardPNG []byte, history []Message) (Reply, error) {
	msgs := make([]apiMessage, 0, len(history)+1)
	for _, m := range history {
		block := textBlock(m.Text)
		if len(m.ImagePNG) > 0 {
			block = imageBlock(m.ImagePNG)
		}
		msgs = append(msgs, apiMessage{Role: m.Role, Content: []apiBlock{block}})
	}
	msgs = append(msgs, apiMessage{Role: "user", Content: []apiBlock{imageBlock(boardPNG)}})

	body, err := json.Marshal(apiRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System:    systemPrompt,
		Messages:  msgs,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal tutor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build tutor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.hc.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("tutor request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("read tutor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			return Reply{}, fmt.Errorf("tutor API error (%d): %s", resp.StatusCode, ae.Error.Message)
		}
		return Reply{}, fmt.Errorf("tutor API error (%d)", resp.StatusCode)
	}

	var ar apiResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return Reply{}, fmt.Errorf("parse tutor response: %w", err)
	}
	var text string
	for _, b := range ar.Content {
		if b.Type == "text" {
			text += b.Text
		}
	}
	return parseReply(text), nil
}

// parseReply accepts the requested JSON shape but tolerates a plain-text
// answer by treating the whole body as the comment.
func parseReply(text string) Reply {
	text = strings.TrimSpace(text)
	var r struct {
		Comment string `json:"comment"`
		Topic   string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(text), &r); err == nil {
		return Reply{Comment: strings.TrimSpace(r.Comment), Topic: strings.TrimSpace(r.Topic)}
	}
	return Reply{Comment: text}
}
