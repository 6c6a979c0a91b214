package services

import (
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
	"slices"
)

// CheapestInsertion seeds the route with the stop nearest to start, then
// repeatedly inserts the (stop, position) pair with the smallest marginal cost.
// First-encountered pairs win ties. O(n^3) insertion evaluations.
func CheapestInsertion(
	oracle ports.DistanceOracle,
	stops []domain.Stop,
	start domain.Coordinates,
	end domain.Coordinates,
) (domain.Route, error) {
	route, remaining, err := seedInsertion(oracle, stops, start)
	if err != nil || len(remaining) == 0 {
		return route, err
	}

	for len(remaining) > 0 {
		base, err := RouteDistance(oracle, route, start, end)
		if err != nil {
			return nil, fmt.Errorf("cheapest insertion: %w", err)
		}

		bestStop, bestPos := -1, 0
		bestCost := 0.0
		for si, s := range remaining {
			for pos := 0; pos <= len(route); pos++ {
				c, err := insertionCostFrom(oracle, base, route, s, pos, start, end)
				if err != nil {
					return nil, fmt.Errorf("cheapest insertion: %w", err)
				}
				if bestStop == -1 || c < bestCost {
					bestStop, bestPos, bestCost = si, pos, c
				}
			}
		}

		route = slices.Insert(route, bestPos, remaining[bestStop])
		remaining = slices.Delete(remaining, bestStop, bestStop+1)
	}

	return route, nil
}

// FarthestInsertion seeds like CheapestInsertion, then repeatedly picks the
// remaining stop whose distance to the nearest routed stop is largest and
// inserts it at its cheapest position. This fixes the overall shape early.
func FarthestInsertion(
	oracle ports.DistanceOracle,
	stops []domain.Stop,
	start domain.Coordinates,
	end domain.Coordinates,
) (domain.Route, error) {
	route, remaining, err := seedInsertion(oracle, stops, start)
	if err != nil || len(remaining) == 0 {
		return route, err
	}

	for len(remaining) > 0 {
		farIdx := -1
		farDist := -1.0
		for si, s := range remaining {
			nearest := -1.0
			for _, r := range route {
				d, err := oracle.Distance(s.Coordinates(), r.Coordinates())
				if err != nil {
					return nil, fmt.Errorf("farthest insertion: %q -> %q: %w", s.ID, r.ID, err)
				}
				if nearest < 0 || d < nearest {
					nearest = d
				}
			}
			if nearest > farDist {
				farDist = nearest
				farIdx = si
			}
		}

		base, err := RouteDistance(oracle, route, start, end)
		if err != nil {
			return nil, fmt.Errorf("farthest insertion: %w", err)
		}

		far := remaining[farIdx]
		pos, _, err := bestInsertionPosition(oracle, base, route, far, start, end)
		if err != nil {
			return nil, fmt.Errorf("farthest insertion: %w", err)
		}

		route = slices.Insert(route, pos, far)
		remaining = slices.Delete(remaining, farIdx, farIdx+1)
	}

	return route, nil
}

// seedInsertion starts an insertion route with the stop nearest to start.
// Collections of zero or one stop are returned as the finished route.
func seedInsertion(
	oracle ports.DistanceOracle,
	stops []domain.Stop,
	start domain.Coordinates,
) (domain.Route, []domain.Stop, error) {
	switch len(stops) {
	case 0:
		return domain.Route{}, nil, nil
	case 1:
		return domain.Route{stops[0]}, nil, nil
	}

	remaining := slices.Clone(stops)
	first, err := nearestTo(oracle, start, remaining)
	if err != nil {
		return nil, nil, fmt.Errorf("seed insertion route: %w", err)
	}

	route := make(domain.Route, 0, len(stops))
	route = append(route, remaining[first])
	remaining = slices.Delete(remaining, first, first+1)

	return route, remaining, nil
}
