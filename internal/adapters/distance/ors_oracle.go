package distance

import (
	"context"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"route-optimizer/internal/ports"

	"github.com/rs/zerolog/log"
)

// MatrixSource fetches a many-to-many distance matrix for points.
type MatrixSource interface {
	Matrix(ctx context.Context, points []domain.Coordinates) ([][]ports.DistanceResult, error)
}

// ORSMatrixOracleFactory prepares road-distance oracles backed by OpenRouteService.
//
// It coordinates:
//   - Point deduplication by coordinate key
//   - Persistent distance caching
//   - A single matrix request for all cache misses of a call
//
// The factory is safe for concurrent use.
type ORSMatrixOracleFactory struct {
	source MatrixSource
	cache  ports.DistanceCache
}

func NewORSMatrixOracleFactory(source MatrixSource, cache ports.DistanceCache) *ORSMatrixOracleFactory {
	return &ORSMatrixOracleFactory{source: source, cache: cache}
}

// ForPoints returns a MatrixOracle in kilometres covering every ordered pair of points.
func (f *ORSMatrixOracleFactory) ForPoints(
	ctx context.Context,
	points []domain.Coordinates,
) (_ ports.DistanceOracle, err error) {
	defer obs.Time(ctx, "ors.ForPoints")(&err)

	uniq := make([]domain.Coordinates, 0, len(points))
	seen := make(map[string]struct{}, len(points))
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		k := p.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, p)
	}

	if len(uniq) < 2 {
		return NewMatrixOracle(nil), nil
	}

	keys := make([]string, len(uniq))
	for i, p := range uniq {
		keys[i] = p.Key()
	}

	// Check persistent distance cache before issuing external API calls.
	hits := make(map[string]map[string]ports.DistanceResult, len(uniq))
	complete := f.cache != nil
	if f.cache != nil {
		for i, origin := range keys {
			others := make([]string, 0, len(keys)-1)
			for j, k := range keys {
				if j != i {
					others = append(others, k)
				}
			}

			row, err := f.cache.GetMany(ctx, origin, others)
			if err != nil {
				return nil, fmt.Errorf("ORS get distance cache: %w", err)
			}
			hits[origin] = row
			if len(row) < len(others) {
				complete = false
			}
		}
	}

	if complete {
		return oracleFromRows(uniq, keys, hits), nil
	}

	matrix, err := f.source.Matrix(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix: %w", err)
	}
	if len(matrix) != len(uniq) {
		return nil, fmt.Errorf("matrix has %d rows, want %d", len(matrix), len(uniq))
	}

	fresh := make(map[string]map[string]ports.DistanceResult, len(uniq))
	for i, origin := range keys {
		row := make(map[string]ports.DistanceResult, len(keys)-1)
		for j, dest := range keys {
			if i != j {
				row[dest] = matrix[i][j]
			}
		}
		fresh[origin] = row

		if f.cache != nil {
			if err := f.cache.PutMany(ctx, origin, row); err != nil {
				log.Warn().Err(err).Str("origin", origin).Msg("distance cache write failed")
			}
		}
	}

	return oracleFromRows(uniq, keys, fresh), nil
}

func oracleFromRows(
	points []domain.Coordinates,
	keys []string,
	rows map[string]map[string]ports.DistanceResult,
) *MatrixOracle {
	pairs := make([]Pair, 0, len(points)*(len(points)-1))
	for i, from := range points {
		for j, to := range points {
			if i == j {
				continue
			}
			r := rows[keys[i]][keys[j]]
			pairs = append(pairs, Pair{From: from, To: to, Km: float64(r.DistanceMeters) / 1000})
		}
	}
	return NewMatrixOracle(pairs)
}
