package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
)

// Postgres-backed implementation of the StopRepository port.
type PostgresStopRepository struct{ DB *sql.DB }

func NewPostgresStopRepository(db *sql.DB) *PostgresStopRepository {
	return &PostgresStopRepository{DB: db}
}

// Return all stops ordered by identifier.
func (r *PostgresStopRepository) ListStops(ctx context.Context) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "stops.ListStops")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres stop repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT stop_id, lat, lng
	FROM stops
	ORDER BY stop_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list stops: query stops table: %w", err)
	}
	defer rows.Close()

	stops := make([]domain.Stop, 0, 64)
	for rows.Next() {
		var s domain.Stop
		if err := rows.Scan(&s.ID, &s.Lat, &s.Lng); err != nil {
			return nil, fmt.Errorf("list stops: scan row: %w", err)
		}
		stops = append(stops, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stops: row iteration: %w", err)
	}

	return stops, nil
}
