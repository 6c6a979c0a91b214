package ports

import (
	"context"
	"route-optimizer/internal/domain"
)

// Port: resolves a named location (a start point or depot) to coordinates.
type LocationResolver interface {
	// Return ErrUnknownLocation when the name is not recognized.
	Resolve(ctx context.Context, name string) (domain.Coordinates, error)
}
