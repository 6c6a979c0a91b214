package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
)

// PostgresRunRepository is the durable audit log of optimization runs.
// Summary columns are denormalized for querying; payload holds the full run.
type PostgresRunRepository struct{ DB *sql.DB }

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{DB: db}
}

func (r *PostgresRunRepository) SaveRun(ctx context.Context, run *domain.Run) (err error) {
	defer obs.Time(ctx, "runs.SaveRun")(&err)

	if r.DB == nil {
		return errors.New("postgres run repository: DB is nil")
	}
	if run == nil || run.ID == "" {
		return errors.New("save run: run has no id")
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("save run: marshal: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO optimization_runs (
		run_id, created_at, start_name, attempts, stop_count,
		algorithm, distance_km, improvement_pct, payload
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (run_id) DO NOTHING;
	`,
		run.ID, run.CreatedAt, run.StartName, run.Attempts, run.StopCount,
		run.Result.Algorithm, run.Result.Distance, run.Result.ImprovementPct, payload,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	return nil
}

func (r *PostgresRunRepository) GetRun(ctx context.Context, id string) (_ *domain.Run, err error) {
	defer obs.Time(ctx, "runs.GetRun")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}

	var payload []byte
	err = r.DB.QueryRowContext(ctx, `
	SELECT payload FROM optimization_runs WHERE run_id = $1;
	`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	return decodeRun(payload)
}

// ListRuns returns up to limit runs, newest first.
func (r *PostgresRunRepository) ListRuns(ctx context.Context, limit int) (_ []*domain.Run, err error) {
	defer obs.Time(ctx, "runs.ListRuns")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}
	if limit <= 0 {
		return []*domain.Run{}, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT payload
	FROM optimization_runs
	ORDER BY created_at DESC, run_id
	LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: query optimization_runs table: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Run, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list runs: scan row: %w", err)
		}
		run, err := decodeRun(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}

	return out, nil
}

func decodeRun(payload []byte) (*domain.Run, error) {
	var run domain.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run payload: %w", err)
	}
	return &run, nil
}
