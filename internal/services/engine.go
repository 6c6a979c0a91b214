package services

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAttempts is the pipeline count used when the caller does not choose one.
	DefaultAttempts = 8
	// MinAttempts is the number of non-randomized pipelines that always run.
	MinAttempts = 4

	AlgorithmNone = "none"

	LabelNearestNeighbor    = "Nearest Neighbor"
	LabelNearestNeighbor2   = "NN + 2-opt"
	LabelCheapestInsertion  = "Cheapest Insertion + 2-opt"
	LabelFarthestInsertion  = "Farthest Insertion + 2-opt"
	labelRandomStartPattern = "Random Start %d + 2-opt"
)

// Engine runs the multi-start tournament: every construction pipeline, 2-opt
// on all but plain nearest neighbor, and a stable ranking by distance.
// An Engine is safe for concurrent use; its random source is guarded.
type Engine struct {
	twoOpt      TwoOptConfig
	parallelism int
	observer    Observer

	mu  sync.Mutex
	rng *rand.Rand
}

type EngineOption func(*Engine)

// WithRand injects the random source used to pick randomized start stops.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithSeed pins the random source to seed. Zero keeps the time-based default.
func WithSeed(seed int64) EngineOption {
	return func(e *Engine) {
		if seed != 0 {
			e.rng = rand.New(rand.NewSource(seed))
		}
	}
}

func WithTwoOptConfig(cfg TwoOptConfig) EngineOption {
	return func(e *Engine) { e.twoOpt = cfg.withDefaults() }
}

// WithParallelism runs up to n pipelines concurrently. Results and ranking are
// identical to the sequential run for the same random source.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithObserver attaches an observer that receives every run's progress events.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		twoOpt:      DefaultTwoOptConfig(),
		parallelism: 1,
		observer:    nopObserver{},
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TournamentInput is one optimization call.
type TournamentInput struct {
	Stops    []domain.Stop
	Start    domain.Coordinates
	End      domain.Coordinates
	Attempts int
	// Observer receives this call's events in addition to the engine observer.
	Observer Observer
}

type pipeline struct {
	label   string
	build   func() (domain.Route, error)
	improve bool
}

// Optimize runs all pipelines against oracle and returns the minimum-distance
// candidate with the full ranking. Attempts below MinAttempts are clamped;
// attempts-MinAttempts randomized-start pipelines run after the four fixed ones.
// An empty stop set yields an empty route with distance 0.
func (e *Engine) Optimize(oracle ports.DistanceOracle, in TournamentInput) (*domain.Result, error) {
	if len(in.Stops) == 0 {
		return &domain.Result{
			Route:     domain.Route{},
			Distance:  0,
			Algorithm: AlgorithmNone,
			Ranking:   []domain.Candidate{},
		}, nil
	}

	if oracle == nil {
		return nil, errors.New("optimize: distance oracle must be non-nil")
	}

	attempts := max(in.Attempts, MinAttempts)
	obs := MultiObserver{e.observer, in.Observer}
	pipelines := e.pipelines(oracle, in, attempts-MinAttempts)

	candidates := make([]domain.Candidate, len(pipelines))
	run := func(i int) error {
		c, err := e.runPipeline(oracle, in, pipelines[i], obs)
		if err != nil {
			return fmt.Errorf("optimize: pipeline %q: %w", pipelines[i].label, err)
		}
		candidates[i] = c
		return nil
	}

	if e.parallelism <= 1 {
		for i := range pipelines {
			if err := run(i); err != nil {
				return nil, err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.parallelism)
		for i := range pipelines {
			g.Go(func() error { return run(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := rank(candidates)
	obs.Observe(Event{Kind: EventTournamentFinished, Result: res, Distance: res.Distance, Pipeline: res.Algorithm})

	return res, nil
}

// pipelines lists the construction pipelines in execution order. Randomized
// start stops are drawn up front so parallel runs consume the source identically.
func (e *Engine) pipelines(oracle ports.DistanceOracle, in TournamentInput, randomized int) []pipeline {
	stops := in.Stops
	out := []pipeline{
		{
			label: LabelNearestNeighbor,
			build: func() (domain.Route, error) { return NearestNeighbor(oracle, stops, in.Start) },
		},
		{
			label:   LabelNearestNeighbor2,
			build:   func() (domain.Route, error) { return NearestNeighbor(oracle, stops, in.Start) },
			improve: true,
		},
		{
			label:   LabelCheapestInsertion,
			build:   func() (domain.Route, error) { return CheapestInsertion(oracle, stops, in.Start, in.End) },
			improve: true,
		},
		{
			label:   LabelFarthestInsertion,
			build:   func() (domain.Route, error) { return FarthestInsertion(oracle, stops, in.Start, in.End) },
			improve: true,
		},
	}

	firsts := e.drawFirstStops(len(stops), randomized)
	for k, first := range firsts {
		out = append(out, pipeline{
			label:   fmt.Sprintf(labelRandomStartPattern, k+1),
			build:   func() (domain.Route, error) { return nearestNeighborFromIndex(oracle, stops, first) },
			improve: true,
		})
	}

	return out
}

func (e *Engine) drawFirstStops(n, count int) []int {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]int, count)
	for i := range out {
		out[i] = e.rng.Intn(n)
	}
	return out
}

func (e *Engine) runPipeline(
	oracle ports.DistanceOracle,
	in TournamentInput,
	p pipeline,
	obs Observer,
) (domain.Candidate, error) {
	obs.Observe(Event{Kind: EventPipelineStarted, Pipeline: p.label})

	route, err := p.build()
	if err != nil {
		return domain.Candidate{}, err
	}

	var dist float64
	if p.improve {
		onMove := func(m TwoOptMove) {
			obs.Observe(Event{
				Kind:      EventTwoOptMove,
				Pipeline:  p.label,
				Iteration: m.Iteration,
				Gain:      m.Gain,
				Distance:  m.Distance,
			})
		}
		res, err := ImproveTwoOpt(oracle, route, in.Start, in.End, e.twoOpt, onMove)
		if err != nil {
			return domain.Candidate{}, err
		}
		obs.Observe(Event{
			Kind:            EventTwoOptFinished,
			Pipeline:        p.label,
			Iteration:       res.Iterations,
			Distance:        res.Distance,
			InitialDistance: res.InitialDistance,
			Gain:            res.Saved(),
			SavedPct:        res.SavedPct(),
		})
		route, dist = res.Route, res.Distance
	} else {
		dist, err = RouteDistance(oracle, route, in.Start, in.End)
		if err != nil {
			return domain.Candidate{}, err
		}
	}

	c := domain.Candidate{Route: route, Distance: dist, Label: p.label}
	obs.Observe(Event{Kind: EventPipelineFinished, Pipeline: p.label, Distance: dist})

	return c, nil
}

// rank sorts candidates ascending by distance, keeping execution order on ties,
// and reports the best candidate's improvement over the worst.
func rank(candidates []domain.Candidate) *domain.Result {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b domain.Candidate) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	best := ranked[0]
	worst := ranked[len(ranked)-1]

	improvement := 0.0
	if worst.Distance > 0 {
		improvement = (worst.Distance - best.Distance) / worst.Distance * 100
	}

	return &domain.Result{
		Route:          best.Route,
		Distance:       best.Distance,
		Algorithm:      best.Label,
		ImprovementPct: improvement,
		Ranking:        ranked,
	}
}
