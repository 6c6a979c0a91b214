package services

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
)

// RunHistory looks a run up in each reader in turn, typically a cache before
// the durable store. Only domain.ErrRunNotFound falls through.
type RunHistory []ports.RunReader

func (h RunHistory) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	for _, r := range h {
		if r == nil {
			continue
		}
		run, err := r.GetRun(ctx, id)
		if err == nil {
			return run, nil
		}
		if !errors.Is(err, domain.ErrRunNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
}
