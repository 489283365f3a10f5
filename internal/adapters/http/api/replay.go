package api

import (
	"net/http"
)

// ReplayHandler handles replay video generation requests.
type ReplayHandler struct {
	deps Dependencies
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(deps Dependencies) *ReplayHandler {
	return &ReplayHandler{deps: deps}
}

// HandleGenerate handles POST /sessions/{id}/replay requests. Generation
// blocks until the video is assembled or a concurrent DELETE cancels it.
func (h *ReplayHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.GenerateReplay(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="replay.mp4"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// HandleCancel handles DELETE /sessions/{id}/replay requests.
func (h *ReplayHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CancelReplay(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "cancelled"})
}
