// Package ws streams pointer-event batches into a session over a websocket.
// The stream path skips batch dedupe: a websocket delivers in order or dies,
// so replayed batches only happen on the HTTP path.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/logger"
)

const (
	readLimit  = 1 << 20 // 1 MiB per message
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// EventSink routes one batch of pointer events into a session.
type EventSink interface {
	ApplyEvents(ctx context.Context, sessionID string, events []model.PointerEvent) error
}

// Handler upgrades connections and pumps event batches into the sink.
type Handler struct {
	sink     EventSink
	log      logger.Logger
	upgrader websocket.Upgrader
}

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler creates a websocket stream handler.
func NewHandler(sink EventSink, opts ...Option) *Handler {
	h := &Handler{
		sink: sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = logger.Get().Named("ws")
	}
	return h
}

// streamMessage is one inbound websocket frame: a batch of pointer events.
type streamMessage struct {
	Events []model.PointerEvent `json:"events"`
}

// HandleStream handles GET /sessions/{id}/stream upgrade requests.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed",
			logger.String("session", sessionID),
			logger.Error(err),
		)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pingLoop(ctx, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug(ctx, "websocket closed",
					logger.String("session", sessionID),
					logger.Error(err),
				)
			}
			return
		}
		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.writeErr(conn, "bad_message", err)
			continue
		}
		if len(msg.Events) == 0 {
			continue
		}
		if err := h.sink.ApplyEvents(ctx, sessionID, msg.Events); err != nil {
			h.writeErr(conn, "apply_failed", err)
			return
		}
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) writeErr(conn *websocket.Conn, code string, err error) {
	_ = conn.WriteJSON(map[string]string{"code": code, "message": err.Error()})
}
