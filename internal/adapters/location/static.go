// Package location resolves named start points and depots to coordinates.
package location

import (
	"context"
	"fmt"
	"route-optimizer/internal/config"
	"route-optimizer/internal/domain"
)

// StaticResolver serves a fixed name registry, typically loaded from the settings file.
// Names are matched case-insensitively with whitespace collapsed.
type StaticResolver struct {
	locations map[string]domain.Coordinates
}

func NewStaticResolver(locations map[string]domain.Coordinates) *StaticResolver {
	m := make(map[string]domain.Coordinates, len(locations))
	for name, c := range locations {
		m[config.NormalizeName(name)] = c
	}
	return &StaticResolver{locations: m}
}

func (r *StaticResolver) Resolve(_ context.Context, name string) (domain.Coordinates, error) {
	c, ok := r.locations[config.NormalizeName(name)]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("%w: %q", domain.ErrUnknownLocation, name)
	}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("location %q: %w", name, err)
	}
	return c, nil
}

// Names lists the registered (normalized) names.
func (r *StaticResolver) Names() []string {
	out := make([]string, 0, len(r.locations))
	for name := range r.locations {
		out = append(out, name)
	}
	return out
}
