package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grahamonica/gemini-build-day/internal/domain/model"
)

// ExtractHandler handles problem-extraction requests.
type ExtractHandler struct {
	deps Dependencies
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(deps Dependencies) *ExtractHandler {
	return &ExtractHandler{deps: deps}
}

type extractRequest struct {
	Pages []string `json:"pages"` // base64 PNG, in page order
}

type extractResponse struct {
	Problems []model.Problem `json:"problems"`
}

// HandleExtract handles POST /extract requests. The endpoint is independent
// of whiteboard sessions: pages in, structured problems out.
func (h *ExtractHandler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	const op = "api.extract"
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Pages) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("empty pages")))
		return
	}
	pages := make([][]byte, len(req.Pages))
	for i, p := range req.Pages {
		raw, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		pages[i] = raw
	}

	problems, err := h.deps.ExtractProblems(r.Context(), pages)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Problems: problems})
}
