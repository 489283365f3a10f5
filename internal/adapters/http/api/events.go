package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// EventsHandler handles pointer-event batch requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventBatchRequest mirrors the wire schema for POST /sessions/{id}/events.
type eventBatchRequest struct {
	BatchID string               `json:"batch_id"`
	Events  []model.PointerEvent `json:"events"`
}

func (b eventBatchRequest) validate() error {
	if strings.TrimSpace(b.BatchID) == "" {
		return errors.New("missing batch_id")
	}
	if len(b.Events) == 0 {
		return errors.New("empty events")
	}
	for _, e := range b.Events {
		switch e.Type {
		case model.PointerDown, model.PointerMove, model.PointerUp, model.PointerCancel:
		default:
			return errors.New("unknown event type: " + e.Type)
		}
	}
	return nil
}

// HandlePostEvents handles POST /sessions/{id}/events requests. Batches are
// idempotent on batch_id: a replayed batch is acknowledged without being
// applied twice.
func (h *EventsHandler) HandlePostEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_events"
	var req eventBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), req.BatchID) {
		metrics.RecordEventBatchDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if err := h.deps.ApplyEvents(r.Context(), r.PathValue("id"), req.Events); err != nil {
		// Roll back the seen mark so the client can retry the batch.
		h.deps.Unrecord(r.Context(), req.BatchID)
		writeDomainError(w, err)
		return
	}
	metrics.RecordEventBatch()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
