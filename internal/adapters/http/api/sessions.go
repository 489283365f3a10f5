package api

import (
	"net/http"
	"time"
)

// SessionHandler handles session lifecycle and read requests.
type SessionHandler struct {
	deps Dependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleCreate handles POST /sessions requests.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := h.deps.CreateSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: id, CreatedAt: time.Now().UTC()})
}

// HandleSnapshot handles GET /sessions/{id}/snapshot requests.
func (h *SessionHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	png, err := h.deps.SnapshotPNG(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// HandleClear handles POST /sessions/{id}/clear requests.
func (h *SessionHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearSession(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "cleared"})
}

// HandleExportPDF handles GET /sessions/{id}/export.pdf requests.
func (h *SessionHandler) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.deps.ExportPDF(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="board.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// HandleComments handles GET /sessions/{id}/comments requests.
func (h *SessionHandler) HandleComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.deps.Comments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}
