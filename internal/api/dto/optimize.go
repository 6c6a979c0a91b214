package dto

import (
	"route-optimizer/internal/domain"
	"time"
)

// OptimizeRequest asks for the best route from Start through Stops to the depot.
// When Stops is omitted the stored stop set is used.
type OptimizeRequest struct {
	Start    string         `json:"start" yaml:"start"`
	Stops    []StopResponse `json:"stops,omitempty" yaml:"stops,omitempty"`
	Attempts int            `json:"attempts" yaml:"attempts"`
}

// DomainStops returns nil when the request carries no stop list.
func (r OptimizeRequest) DomainStops() []domain.Stop {
	if r.Stops == nil {
		return nil
	}
	out := make([]domain.Stop, 0, len(r.Stops))
	for _, s := range r.Stops {
		out = append(out, domain.Stop{ID: s.ID, Lat: s.Lat, Lng: s.Lng})
	}
	return out
}

type CandidateResponse struct {
	Algorithm  string   `json:"algorithm" yaml:"algorithm"`
	DistanceKm float64  `json:"distance_km" yaml:"distance_km"`
	Route      []string `json:"route" yaml:"route"`
}

type OptimizeResponse struct {
	RunID          string              `json:"run_id" yaml:"run_id"`
	CreatedAt      time.Time           `json:"created_at" yaml:"created_at"`
	Start          string              `json:"start" yaml:"start"`
	Attempts       int                 `json:"attempts" yaml:"attempts"`
	Route          []StopResponse      `json:"route" yaml:"route"`
	DistanceKm     float64             `json:"distance_km" yaml:"distance_km"`
	Algorithm      string              `json:"algorithm" yaml:"algorithm"`
	ImprovementPct float64             `json:"improvement_pct" yaml:"improvement_pct"`
	Ranking        []CandidateResponse `json:"ranking" yaml:"ranking"`
}

func RunToResponse(run *domain.Run) OptimizeResponse {
	res := OptimizeResponse{
		RunID:          run.ID,
		CreatedAt:      run.CreatedAt,
		Start:          run.StartName,
		Attempts:       run.Attempts,
		Route:          StopsFromDomain(run.Result.Route),
		DistanceKm:     run.Result.Distance,
		Algorithm:      run.Result.Algorithm,
		ImprovementPct: run.Result.ImprovementPct,
		Ranking:        make([]CandidateResponse, 0, len(run.Result.Ranking)),
	}
	for _, c := range run.Result.Ranking {
		res.Ranking = append(res.Ranking, CandidateResponse{
			Algorithm:  c.Label,
			DistanceKm: c.Distance,
			Route:      c.Route.IDs(),
		})
	}
	return res
}

type ListRunsResponse struct {
	Runs []OptimizeResponse `json:"runs" yaml:"runs"`
}
