package services

import (
	"context"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"route-optimizer/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlanRequest is the single entry point's input.
// When Stops is nil the planner loads every stop from the repository.
type PlanRequest struct {
	Stops     []domain.Stop
	StartName string
	Attempts  int
	Observer  Observer
}

// RoutePlanner resolves locations, prepares a distance oracle for the call's
// points, runs the Engine and records the run with every configured sink.
type RoutePlanner struct {
	Resolver ports.LocationResolver
	Oracles  ports.DistanceOracleFactory
	Engine   *Engine
	Stops    ports.StopRepository
	Sinks    []ports.RunSink
	EndName  string
	// Attempts is used when a request leaves Attempts at zero.
	// Zero falls back to DefaultAttempts.
	Attempts int

	now func() time.Time
}

func NewRoutePlanner(
	resolver ports.LocationResolver,
	oracles ports.DistanceOracleFactory,
	engine *Engine,
	endName string,
) *RoutePlanner {
	return &RoutePlanner{
		Resolver: resolver,
		Oracles:  oracles,
		Engine:   engine,
		EndName:  endName,
		now:      time.Now,
	}
}

// Plan computes the best single-vehicle route for req.
// Location and coordinate failures abort before any optimization work.
func (p *RoutePlanner) Plan(ctx context.Context, req PlanRequest) (_ *domain.Run, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	if p.Resolver == nil || p.Oracles == nil || p.Engine == nil {
		return nil, errors.New("plan route: planner is not fully configured")
	}

	startName := strings.TrimSpace(req.StartName)
	if startName == "" {
		return nil, fmt.Errorf("plan route: %w: start name is empty", domain.ErrUnknownLocation)
	}

	start, err := p.resolve(ctx, startName)
	if err != nil {
		return nil, fmt.Errorf("plan route: start: %w", err)
	}

	end, err := p.resolve(ctx, p.EndName)
	if err != nil {
		return nil, fmt.Errorf("plan route: end: %w", err)
	}

	stops := req.Stops
	if stops == nil {
		if p.Stops == nil {
			return nil, errors.New("plan route: no stops given and no stop repository configured")
		}
		stops, err = p.Stops.ListStops(ctx)
		if err != nil {
			return nil, fmt.Errorf("plan route: list stops: %w", err)
		}
	}

	if err := domain.ValidateStops(stops); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	attempts := req.Attempts
	if attempts <= 0 {
		attempts = p.Attempts
	}
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	attempts = max(attempts, MinAttempts)

	points := make([]domain.Coordinates, 0, len(stops)+2)
	points = append(points, start, end)
	for _, s := range stops {
		points = append(points, s.Coordinates())
	}

	// An empty stop set needs no distances at all.
	var oracle ports.DistanceOracle
	if len(stops) > 0 {
		oracle, err = p.Oracles.ForPoints(ctx, points)
		if err != nil {
			return nil, fmt.Errorf("plan route: prepare distances: %w", err)
		}
	}

	res, err := p.Engine.Optimize(oracle, TournamentInput{
		Stops:    stops,
		Start:    start,
		End:      end,
		Attempts: attempts,
		Observer: req.Observer,
	})
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}

	now := time.Now
	if p.now != nil {
		now = p.now
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		CreatedAt: now().UTC(),
		StartName: startName,
		Start:     start,
		End:       end,
		Attempts:  attempts,
		StopCount: len(stops),
		Result:    *res,
	}

	p.record(ctx, run)

	return run, nil
}

func (p *RoutePlanner) resolve(ctx context.Context, name string) (domain.Coordinates, error) {
	c, err := p.Resolver.Resolve(ctx, name)
	if err != nil {
		return domain.Coordinates{}, err
	}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, fmt.Errorf("location %q: %w", name, err)
	}
	return c, nil
}

// record hands the run to every sink. Sink failures are logged and never
// change the result returned to the caller.
func (p *RoutePlanner) record(ctx context.Context, run *domain.Run) {
	for _, s := range p.Sinks {
		if s == nil {
			continue
		}
		if err := s.SaveRun(ctx, run); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Str("sink", fmt.Sprintf("%T", s)).Msg("run sink failed")
		}
	}
}
