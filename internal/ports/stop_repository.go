package ports

import (
	"context"
	"route-optimizer/internal/domain"
)

// Port: a boundary for retrieving Stop entities from a data source.
type StopRepository interface {
	// Retrieve all stops available for routing.
	ListStops(ctx context.Context) ([]domain.Stop, error)
}
