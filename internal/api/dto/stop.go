package dto

import "route-optimizer/internal/domain"

type StopResponse struct {
	ID  string  `json:"id" yaml:"id"`
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

type ListStopsResponse struct {
	Stops []StopResponse `json:"stops" yaml:"stops"`
}

func StopsFromDomain(stops []domain.Stop) []StopResponse {
	out := make([]StopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, StopResponse{ID: s.ID, Lat: s.Lat, Lng: s.Lng})
	}
	return out
}
