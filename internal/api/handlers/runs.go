package handlers

import (
	"net/http"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/ports"
	"strconv"
)

const defaultRunLimit = 20

// RunHandler serves previously recorded optimization runs.
type RunHandler struct {
	Reader ports.RunReader
	Lister ports.RunLister
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.Reader == nil {
		writeError(w, r, http.StatusNotImplemented, "run history is not configured")
		return
	}

	run, err := h.Reader.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RunToResponse(run))
}

// List returns the newest runs; ?limit= caps the count (1..100).
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.Lister == nil {
		writeError(w, r, http.StatusNotImplemented, "run history is not configured")
		return
	}

	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	runs, err := h.Lister.ListRuns(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.ListRunsResponse{Runs: make([]dto.OptimizeResponse, 0, len(runs))}
	for _, run := range runs {
		res.Runs = append(res.Runs, dto.RunToResponse(run))
	}
	writeJSON(w, r, http.StatusOK, res)
}
