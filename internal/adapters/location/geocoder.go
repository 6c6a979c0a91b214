package location

import (
	"context"
	"fmt"
	"route-optimizer/internal/config"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"route-optimizer/internal/ports"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const sharedLookupTimeout = 30 * time.Second

// Geocoder turns free text into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, text string) (domain.Coordinates, error)
}

// GeocodingResolver resolves names through an external geocoder, backed by a
// persistent cache. Concurrent lookups of the same name share one request.
type GeocodingResolver struct {
	geocoder Geocoder
	cache    ports.GeocodeCache
	group    singleflight.Group
}

func NewGeocodingResolver(geocoder Geocoder, cache ports.GeocodeCache) *GeocodingResolver {
	return &GeocodingResolver{geocoder: geocoder, cache: cache}
}

func (r *GeocodingResolver) Resolve(ctx context.Context, name string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "location.Geocode")(&err)

	key := config.NormalizeName(name)
	if key == "" {
		return domain.Coordinates{}, fmt.Errorf("%w: empty name", domain.ErrUnknownLocation)
	}

	if r.cache != nil {
		hits, err := r.cache.GetMany(ctx, []string{key})
		if err != nil {
			log.Warn().Err(err).Str("name", key).Msg("geocode cache read failed")
		} else if c, ok := hits[key]; ok {
			return c, nil
		}
	}

	// The shared lookup must outlive any single caller's cancellation.
	ch := r.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		c, err := r.geocoder.Geocode(shared, key)
		if err != nil {
			return domain.Coordinates{}, err
		}
		if r.cache != nil {
			if err := r.cache.PutMany(shared, map[string]domain.Coordinates{key: c}); err != nil {
				log.Warn().Err(err).Str("name", key).Msg("geocode cache write failed")
			}
		}
		return c, nil
	})

	select {
	case <-ctx.Done():
		return domain.Coordinates{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Coordinates{}, res.Err
		}
		return res.Val.(domain.Coordinates), nil
	}
}
