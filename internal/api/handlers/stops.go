package handlers

import (
	"net/http"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/ports"

	"github.com/rs/zerolog/log"
)

// StopHandler exposes read-only stop retrieval endpoints.
type StopHandler struct {
	Repo ports.StopRepository
}

func (h *StopHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.Repo == nil {
		writeError(w, r, http.StatusNotImplemented, "no stop repository configured")
		return
	}

	stops, err := h.Repo.ListStops(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list stops failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ListStopsResponse{Stops: dto.StopsFromDomain(stops)})
}
