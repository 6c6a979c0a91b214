package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"route-optimizer/internal/domain"
	"strings"
)

// InitSchema creates the stops, cache and run tables when missing.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS stops (
		stop_id TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL CHECK (lat BETWEEN -90 AND 90),
		lng DOUBLE PRECISION NOT NULL CHECK (lng BETWEEN -180 AND 180)
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (origin, destination)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		name TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS optimization_runs (
		run_id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		start_name TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		stop_count INTEGER NOT NULL,
		algorithm TEXT NOT NULL,
		distance_km DOUBLE PRECISION NOT NULL,
		improvement_pct DOUBLE PRECISION NOT NULL,
		payload JSONB NOT NULL
	);
	`

	// Tables created before cache expiry existed lack fetched_at.
	addDistanceFetchedAtQuery := `
	ALTER TABLE distance_cache ADD COLUMN IF NOT EXISTS fetched_at TIMESTAMPTZ NOT NULL DEFAULT now();
	`
	addGeocodeFetchedAtQuery := `
	ALTER TABLE geocode_cache ADD COLUMN IF NOT EXISTS fetched_at TIMESTAMPTZ NOT NULL DEFAULT now();
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
	ON distance_cache(destination, origin);
	`

	createRunsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_optimization_runs_created_at
	ON optimization_runs(created_at DESC);
	`

	statements := []string{
		createStopsQuery,
		createDistanceCacheQuery,
		createGeocodeCacheQuery,
		createRunsQuery,
		addDistanceFetchedAtQuery,
		addGeocodeFetchedAtQuery,
		createIndexQuery,
		createRunsIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// ReadStopsJSON parses and validates a JSON array of stops.
func ReadStopsJSON(jsonPath string) ([]domain.Stop, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read stops %q: %w", jsonPath, err)
	}

	var data []domain.Stop
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("read stops: parse json: %w", err)
	}

	for i := range data {
		data[i].ID = strings.TrimSpace(data[i].ID)
		if data[i].ID == "" {
			return nil, fmt.Errorf("read stops: item at index %d: id cannot be empty", i+1)
		}
	}

	if err := domain.ValidateStops(data); err != nil {
		return nil, fmt.Errorf("read stops: %w", err)
	}

	return data, nil
}

// SeedFromJSON upserts the stops listed in a JSON file.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	rows, err := ReadStopsJSON(jsonPath)
	if err != nil {
		return fmt.Errorf("seed stops: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed stops: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO stops (stop_id, lat, lng)
	VALUES ($1, $2, $3)
	ON CONFLICT (stop_id) DO UPDATE
	SET lat = EXCLUDED.lat,
		lng = EXCLUDED.lng;
	`)
	if err != nil {
		return fmt.Errorf("seed stops: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range rows {
		if _, err := stmt.ExecContext(ctx, s.ID, s.Lat, s.Lng); err != nil {
			return fmt.Errorf("seed stops: insert stop_id=%q: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed stops: commit tx: %w", err)
	}

	return nil
}
