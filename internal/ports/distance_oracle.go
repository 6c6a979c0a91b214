package ports

import (
	"context"
	"route-optimizer/internal/domain"
)

// Contract for point-to-point travel distance in kilometres.
// Implementations must be symmetric, non-negative and respect the triangle inequality.
type DistanceOracle interface {
	// Return the distance between a and b, or ErrInvalidCoordinate for malformed input.
	Distance(a, b domain.Coordinates) (float64, error)
}

// Optional extension that prepares an oracle for a known set of points,
// e.g. by fetching a distance matrix once per optimization call.
type DistanceOracleFactory interface {
	ForPoints(ctx context.Context, points []domain.Coordinates) (DistanceOracle, error)
}
