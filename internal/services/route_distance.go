package services

import (
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
)

// RouteDistance returns the path length start -> stop1 -> ... -> stopN -> end.
// An empty route measures the direct start -> end leg.
func RouteDistance(
	oracle ports.DistanceOracle,
	route domain.Route,
	start domain.Coordinates,
	end domain.Coordinates,
) (float64, error) {
	total := 0.0
	current := start
	for _, s := range route {
		next := s.Coordinates()
		d, err := oracle.Distance(current, next)
		if err != nil {
			return 0, fmt.Errorf("route distance: leg to %q: %w", s.ID, err)
		}
		total += d
		current = next
	}

	d, err := oracle.Distance(current, end)
	if err != nil {
		return 0, fmt.Errorf("route distance: final leg: %w", err)
	}

	return total + d, nil
}

// ReverseSegment returns a new route with the closed interval [i, j] reversed.
// This is the 2-opt move primitive; the input route is not modified.
func ReverseSegment(route domain.Route, i, j int) domain.Route {
	out := route.Clone()
	for i < j {
		out[i], out[j] = out[j], out[i]
		i++
		j--
	}
	return out
}
