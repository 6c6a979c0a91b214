package handlers

import (
	"context"
	"net/http"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/services"
)

// Planner is the route planning use case consumed by the HTTP layer.
type Planner interface {
	Plan(ctx context.Context, req services.PlanRequest) (*domain.Run, error)
}

type OptimizeHandler struct {
	Planner Planner
}

// Optimize runs one tournament and returns the winning route with its ranking.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	defer r.Body.Close()
	req, err := decodeOptimizeRequest(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.Planner.Plan(r.Context(), services.PlanRequest{
		Stops:     req.DomainStops(),
		StartName: req.Start,
		Attempts:  req.Attempts,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RunToResponse(run))
}
