package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"slices"
	"strings"
)

// SQLGeocodeCache maps normalized location names to coordinates in Postgres.
type SQLGeocodeCache struct {
	db *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{db: db}
}

func (s *SQLGeocodeCache) GetMany(ctx context.Context, names []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.GetMany")(&err)

	if s.db == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	keys := uniqueKeys(names)
	if len(keys) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, lat, lng FROM geocode_cache WHERE name = ANY($1::text[]);`, keys)
	if err != nil {
		return nil, fmt.Errorf("geocode cache: query: %w", err)
	}
	defer rows.Close()

	hits := make(map[string]domain.Coordinates, len(keys))
	for rows.Next() {
		var name string
		var c domain.Coordinates
		if err := rows.Scan(&name, &c.Lat, &c.Lng); err != nil {
			return nil, fmt.Errorf("geocode cache: scan: %w", err)
		}
		hits[name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("geocode cache: rows: %w", err)
	}
	return hits, nil
}

// PutMany upserts all mappings in one statement. Invalid coordinates reject
// the whole batch.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.PutMany")(&err)

	if s.db == nil {
		return errors.New("geocode cache: db is nil")
	}

	names, lats, lngs, err := geocodeColumns(results)
	if err != nil {
		return fmt.Errorf("geocode cache: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO geocode_cache (name, lat, lng)
	SELECT g.name, g.lat, g.lng
	FROM unnest($1::text[], $2::float8[], $3::float8[]) AS g(name, lat, lng)
	ON CONFLICT (name) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		fetched_at = now();
	`, names, lats, lngs)
	if err != nil {
		return fmt.Errorf("geocode cache: upsert %d rows: %w", len(names), err)
	}
	return nil
}

func geocodeColumns(results map[string]domain.Coordinates) (names []string, lats, lngs []float64, err error) {
	names = make([]string, 0, len(results))
	for name := range results {
		if strings.TrimSpace(name) == "" {
			return nil, nil, nil, errors.New("empty name key")
		}
		names = append(names, name)
	}
	slices.Sort(names)

	lats = make([]float64, len(names))
	lngs = make([]float64, len(names))
	for i, name := range names {
		c := results[name]
		if err := c.Validate(); err != nil {
			return nil, nil, nil, fmt.Errorf("name=%q: %w", name, err)
		}
		lats[i], lngs[i] = c.Lat, c.Lng
	}
	return names, lats, lngs, nil
}
