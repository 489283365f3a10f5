// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grahamonica/gemini-build-day/internal/adapters/collab/video"
	"github.com/grahamonica/gemini-build-day/internal/domain/dedupe"
	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// CreateSession starts a new whiteboard session and returns its ID.
	CreateSession(ctx context.Context) (string, error)
	// ApplyEvents routes a pointer-event batch into a session in order.
	ApplyEvents(ctx context.Context, sessionID string, events []model.PointerEvent) error
	// SnapshotPNG rasterizes the current board state.
	SnapshotPNG(ctx context.Context, sessionID string) ([]byte, error)
	// ClearSession wipes the session's strokes.
	ClearSession(ctx context.Context, sessionID string) error
	// ExportPDF renders the finished strokes as a PDF document.
	ExportPDF(ctx context.Context, sessionID string) ([]byte, error)
	// GenerateReplay assembles the buffered frames into a video.
	GenerateReplay(ctx context.Context, sessionID string) (video.Result, error)
	// CancelReplay aborts an in-flight replay generation.
	CancelReplay(ctx context.Context, sessionID string) error
	// Comments returns the tutoring replies recorded so far.
	Comments(ctx context.Context, sessionID string) ([]model.Comment, error)
	// ExtractProblems sends page rasters to the extraction collaborator.
	ExtractProblems(ctx context.Context, pages [][]byte) ([]model.Problem, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	sessionHandler *SessionHandler
	eventsHandler  *EventsHandler
	replayHandler  *ReplayHandler
	extractHandler *ExtractHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		sessionHandler: NewSessionHandler(deps),
		eventsHandler:  NewEventsHandler(deps),
		replayHandler:  NewReplayHandler(deps),
		extractHandler: NewExtractHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionHandler.HandleCreate, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/events", MetricsMiddleware(s.eventsHandler.HandlePostEvents, "events"))
	mux.HandleFunc("GET /sessions/{id}/snapshot", MetricsMiddleware(s.sessionHandler.HandleSnapshot, "snapshot"))
	mux.HandleFunc("POST /sessions/{id}/clear", MetricsMiddleware(s.sessionHandler.HandleClear, "clear"))
	mux.HandleFunc("GET /sessions/{id}/export.pdf", MetricsMiddleware(s.sessionHandler.HandleExportPDF, "export_pdf"))
	mux.HandleFunc("GET /sessions/{id}/comments", MetricsMiddleware(s.sessionHandler.HandleComments, "comments"))
	mux.HandleFunc("POST /sessions/{id}/replay", MetricsMiddleware(s.replayHandler.HandleGenerate, "replay"))
	mux.HandleFunc("DELETE /sessions/{id}/replay", MetricsMiddleware(s.replayHandler.HandleCancel, "replay_cancel"))
	mux.HandleFunc("POST /extract", MetricsMiddleware(s.extractHandler.HandleExtract, "extract"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps known upstream failures to HTTP statuses. Stores
// signal missing resources by wrapping model.ErrNotFound, so the mapping
// stays decoupled from any specific store package.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, video.ErrEncoderUnavailable):
		writeError(w, http.StatusServiceUnavailable, "encoder_unavailable", err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusConflict, "cancelled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
