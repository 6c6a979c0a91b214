package distance

import (
	"math"
	"route-optimizer/internal/domain"
)

const EarthRadiusKm = 6371.0

// Haversine is the great-circle distance oracle in kilometres.
type Haversine struct{}

func (Haversine) Distance(a, b domain.Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return HaversineKm(a, b), nil
}

// HaversineKm computes the great-circle distance without validation.
func HaversineKm(a, b domain.Coordinates) float64 {
	const rad = math.Pi / 180
	dLat := (b.Lat - a.Lat) * rad
	dLng := (b.Lng - a.Lng) * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*rad)*math.Cos(b.Lat*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding near antipodes can push h past 1.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
