package services

import (
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
	"slices"
)

// InsertionCost returns the marginal distance of inserting stop at position pos
// (0..len(route)) relative to the route without it.
func InsertionCost(
	oracle ports.DistanceOracle,
	route domain.Route,
	stop domain.Stop,
	pos int,
	start domain.Coordinates,
	end domain.Coordinates,
) (float64, error) {
	base, err := RouteDistance(oracle, route, start, end)
	if err != nil {
		return 0, fmt.Errorf("insertion cost: %w", err)
	}
	return insertionCostFrom(oracle, base, route, stop, pos, start, end)
}

// insertionCostFrom is InsertionCost with the base route distance already known,
// so scans over many (stop, position) pairs measure the base only once.
func insertionCostFrom(
	oracle ports.DistanceOracle,
	base float64,
	route domain.Route,
	stop domain.Stop,
	pos int,
	start domain.Coordinates,
	end domain.Coordinates,
) (float64, error) {
	if pos < 0 || pos > len(route) {
		return 0, fmt.Errorf("insertion cost: position %d out of range [0,%d]", pos, len(route))
	}

	with := slices.Insert(route.Clone(), pos, stop)
	d, err := RouteDistance(oracle, with, start, end)
	if err != nil {
		return 0, fmt.Errorf("insertion cost: %q at %d: %w", stop.ID, pos, err)
	}

	return d - base, nil
}

// bestInsertionPosition scans every position for stop and returns the cheapest.
// Ties keep the first position encountered.
func bestInsertionPosition(
	oracle ports.DistanceOracle,
	base float64,
	route domain.Route,
	stop domain.Stop,
	start domain.Coordinates,
	end domain.Coordinates,
) (int, float64, error) {
	bestPos := 0
	bestCost := 0.0
	for pos := 0; pos <= len(route); pos++ {
		c, err := insertionCostFrom(oracle, base, route, stop, pos, start, end)
		if err != nil {
			return 0, 0, err
		}
		if pos == 0 || c < bestCost {
			bestCost = c
			bestPos = pos
		}
	}
	return bestPos, bestCost, nil
}
