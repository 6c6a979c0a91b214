package services

import (
	"errors"
	"fmt"
	"math/rand"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
	"slices"
)

// Build a visiting order using a greedy nearest-neighbor algorithm.
//
// The algorithm minimizes the immediate leg at each step starting from the
// start coordinate. It does not attempt global route optimization; that is
// left to the 2-opt improver and the tournament.
func NearestNeighbor(
	oracle ports.DistanceOracle,
	stops []domain.Stop,
	start domain.Coordinates,
) (domain.Route, error) {
	remaining := slices.Clone(stops)
	route, err := greedyFrom(oracle, start, remaining, make(domain.Route, 0, len(stops)))
	if err != nil {
		return nil, fmt.Errorf("nearest neighbor: %w", err)
	}
	return route, nil
}

// RandomizedNearestNeighbor picks the first stop uniformly at random from the
// input set and continues greedily from it. The start coordinate is not consulted.
func RandomizedNearestNeighbor(
	oracle ports.DistanceOracle,
	stops []domain.Stop,
	rng *rand.Rand,
) (domain.Route, error) {
	if len(stops) == 0 {
		return domain.Route{}, nil
	}
	if rng == nil {
		return nil, errors.New("randomized nearest neighbor: rng must be non-nil")
	}
	return nearestNeighborFromIndex(oracle, stops, rng.Intn(len(stops)))
}

// nearestNeighborFromIndex is the deterministic core of the randomized variant:
// the stop at first is visited first, then the rest greedily.
func nearestNeighborFromIndex(
	oracle ports.DistanceOracle,
	stops []domain.Stop,
	first int,
) (domain.Route, error) {
	if len(stops) == 0 {
		return domain.Route{}, nil
	}
	if first < 0 || first >= len(stops) {
		return nil, fmt.Errorf("randomized nearest neighbor: first index %d out of range", first)
	}

	remaining := slices.Clone(stops)
	seed := remaining[first]
	remaining = slices.Delete(remaining, first, first+1)

	route := make(domain.Route, 0, len(stops))
	route = append(route, seed)

	route, err := greedyFrom(oracle, seed.Coordinates(), remaining, route)
	if err != nil {
		return nil, fmt.Errorf("randomized nearest neighbor: %w", err)
	}
	return route, nil
}

// greedyFrom appends the remaining stops to route in nearest-first order.
// Ties keep the first stop encountered in remaining.
func greedyFrom(
	oracle ports.DistanceOracle,
	current domain.Coordinates,
	remaining []domain.Stop,
	route domain.Route,
) (domain.Route, error) {
	for len(remaining) > 0 {
		bestIdx := -1
		bestDist := 0.0

		for i, s := range remaining {
			d, err := oracle.Distance(current, s.Coordinates())
			if err != nil {
				return nil, fmt.Errorf("distance to %q: %w", s.ID, err)
			}
			if bestIdx == -1 || d < bestDist {
				bestIdx = i
				bestDist = d
			}
		}

		next := remaining[bestIdx]
		route = append(route, next)
		remaining = slices.Delete(remaining, bestIdx, bestIdx+1)
		current = next.Coordinates()
	}

	return route, nil
}

// nearestTo returns the index of the stop closest to c, first encountered on ties.
func nearestTo(oracle ports.DistanceOracle, c domain.Coordinates, stops []domain.Stop) (int, error) {
	bestIdx := -1
	bestDist := 0.0
	for i, s := range stops {
		d, err := oracle.Distance(c, s.Coordinates())
		if err != nil {
			return 0, fmt.Errorf("distance to %q: %w", s.ID, err)
		}
		if bestIdx == -1 || d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	if bestIdx == -1 {
		return 0, errors.New("no stops to choose from")
	}
	return bestIdx, nil
}
