package location

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
)

// ChainResolver tries each resolver in order. Only ErrUnknownLocation moves on
// to the next resolver; any other error is returned immediately.
type ChainResolver []ports.LocationResolver

func (c ChainResolver) Resolve(ctx context.Context, name string) (domain.Coordinates, error) {
	for _, r := range c {
		if r == nil {
			continue
		}
		coords, err := r.Resolve(ctx, name)
		if err == nil {
			return coords, nil
		}
		if !errors.Is(err, domain.ErrUnknownLocation) {
			return domain.Coordinates{}, err
		}
	}
	return domain.Coordinates{}, fmt.Errorf("%w: %q", domain.ErrUnknownLocation, name)
}
