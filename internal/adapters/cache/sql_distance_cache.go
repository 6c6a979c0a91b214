package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer/internal/platform/obs"
	"route-optimizer/internal/ports"
	"slices"
	"strings"
	"time"
)

// SQLDistanceCache stores road distances between coordinate keys
// (see domain.Coordinates.Key) in Postgres. Rows older than MaxAge are
// treated as misses so road changes are picked up eventually.
type SQLDistanceCache struct {
	db     *sql.DB
	maxAge time.Duration
	now    func() time.Time
}

// NewSQLDistanceCache returns a cache over db. maxAge <= 0 keeps rows forever.
func NewSQLDistanceCache(db *sql.DB, maxAge time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{db: db, maxAge: maxAge, now: time.Now}
}

func (s *SQLDistanceCache) cutoff() time.Time {
	if s.maxAge <= 0 {
		return time.Unix(0, 0).UTC()
	}
	return s.now().Add(-s.maxAge).UTC()
}

func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.GetMany")(&err)

	if s.db == nil {
		return nil, errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("distance cache: origin must not be empty")
	}

	keys := uniqueKeys(destinations)
	if len(keys) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = $1
		AND destination = ANY($2::text[])
		AND fetched_at >= $3;
	`, origin, keys, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("distance cache origin=%q: query: %w", origin, err)
	}
	defer rows.Close()

	hits := make(map[string]ports.DistanceResult, len(keys))
	for rows.Next() {
		var dest string
		var r ports.DistanceResult
		if err := rows.Scan(&dest, &r.DistanceMeters, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("distance cache origin=%q: scan: %w", origin, err)
		}
		hits[dest] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distance cache origin=%q: rows: %w", origin, err)
	}
	return hits, nil
}

// PutMany upserts every destination of origin in a single statement and
// refreshes fetched_at on the touched rows.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.cache.PutMany")(&err)

	if s.db == nil {
		return errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return errors.New("distance cache: origin must not be empty")
	}

	cols, err := distanceColumns(results)
	if err != nil {
		return fmt.Errorf("distance cache origin=%q: %w", origin, err)
	}
	if len(cols.dests) == 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, fetched_at)
	SELECT $1, d.destination, d.meters, d.seconds, $5
	FROM unnest($2::text[], $3::int[], $4::int[]) AS d(destination, meters, seconds)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		fetched_at = EXCLUDED.fetched_at;
	`, origin, cols.dests, cols.meters, cols.seconds, s.now().UTC())
	if err != nil {
		return fmt.Errorf("distance cache origin=%q: upsert %d rows: %w", origin, len(cols.dests), err)
	}
	return nil
}

type distanceCols struct {
	dests   []string
	meters  []int
	seconds []int
}

// distanceColumns flattens results into parallel arrays ordered by
// destination, so concurrent upserts lock rows in the same order.
func distanceColumns(results map[string]ports.DistanceResult) (distanceCols, error) {
	dests := make([]string, 0, len(results))
	for dest := range results {
		if strings.TrimSpace(dest) == "" {
			return distanceCols{}, errors.New("empty destination key")
		}
		dests = append(dests, dest)
	}
	slices.Sort(dests)

	cols := distanceCols{
		dests:   dests,
		meters:  make([]int, len(dests)),
		seconds: make([]int, len(dests)),
	}
	for i, dest := range dests {
		r := results[dest]
		if r.DistanceMeters < 0 || r.DurationSeconds < 0 {
			return distanceCols{}, fmt.Errorf("negative result for %q", dest)
		}
		cols.meters[i] = r.DistanceMeters
		cols.seconds[i] = r.DurationSeconds
	}
	return cols, nil
}

func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
