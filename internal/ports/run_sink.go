package ports

import (
	"context"
	"route-optimizer/internal/domain"
)

// RunSink receives finished optimization runs (database, cache, archive, event bus).
type RunSink interface {
	SaveRun(ctx context.Context, run *domain.Run) error
}

// RunReader looks up previously recorded runs. Unknown IDs yield domain.ErrRunNotFound.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}

// RunLister returns the most recent runs, newest first.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]*domain.Run, error)
}
