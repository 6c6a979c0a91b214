package services

import (
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/ports"
)

// TwoOptConfig bounds the 2-opt local search.
type TwoOptConfig struct {
	// MaxIterations caps the number of scans.
	MaxIterations int `yaml:"max_iterations"`
	// MaxStall ends the search after this many consecutive scans without an improving move.
	MaxStall int `yaml:"max_stall"`
	// RestartThreshold is the single-move gain above which the current scan is
	// abandoned and restarted from the top on the new route.
	RestartThreshold float64 `yaml:"restart_threshold"`
}

// DefaultTwoOptConfig returns the tuned defaults: 500 scans, 50 stalled scans, 0.1 km restart gain.
func DefaultTwoOptConfig() TwoOptConfig {
	return TwoOptConfig{
		MaxIterations:    500,
		MaxStall:         50,
		RestartThreshold: 0.1,
	}
}

func (c TwoOptConfig) withDefaults() TwoOptConfig {
	d := DefaultTwoOptConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxStall <= 0 {
		c.MaxStall = d.MaxStall
	}
	if c.RestartThreshold < 0 {
		c.RestartThreshold = d.RestartThreshold
	}
	return c
}

// TwoOptMove describes one accepted improving move.
type TwoOptMove struct {
	Iteration int
	I, J      int
	Gain      float64
	Distance  float64
}

// TwoOptResult is the outcome of a 2-opt pass.
type TwoOptResult struct {
	Route           domain.Route
	Distance        float64
	InitialDistance float64
	Iterations      int
	Improvements    int
}

// Saved returns the distance removed relative to the input route.
func (r TwoOptResult) Saved() float64 { return r.InitialDistance - r.Distance }

// SavedPct returns Saved as a percentage of the input distance.
func (r TwoOptResult) SavedPct() float64 {
	if r.InitialDistance == 0 {
		return 0
	}
	return r.Saved() / r.InitialDistance * 100
}

// twoOptState is the search state threaded through the iteration loop.
type twoOptState struct {
	best      domain.Route
	bestDist  float64
	iteration int
	stall     int
	moves     int
}

// ImproveTwoOpt applies first-improvement 2-opt to route and returns the best
// route found. Each move reverses the closed segment [i, j], exchanging the
// edges entering stop i and leaving stop j. Start and end count as the fixed
// neighbours of the first and last stop, so the first stop can move too.
// Routes shorter than 3 stops are returned unchanged. The input is not modified.
// onMove may be nil.
func ImproveTwoOpt(
	oracle ports.DistanceOracle,
	route domain.Route,
	start domain.Coordinates,
	end domain.Coordinates,
	cfg TwoOptConfig,
	onMove func(TwoOptMove),
) (TwoOptResult, error) {
	cfg = cfg.withDefaults()

	initial, err := RouteDistance(oracle, route, start, end)
	if err != nil {
		return TwoOptResult{}, fmt.Errorf("2-opt: initial distance: %w", err)
	}

	st := twoOptState{best: route.Clone(), bestDist: initial}
	n := len(route)
	if n < 3 {
		return TwoOptResult{Route: st.best, Distance: initial, InitialDistance: initial}, nil
	}

	for st.stall < cfg.MaxStall && st.iteration < cfg.MaxIterations {
		st.iteration++
		improved := false

	scan:
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				candidate := ReverseSegment(st.best, i, j)
				d, err := RouteDistance(oracle, candidate, start, end)
				if err != nil {
					return TwoOptResult{}, fmt.Errorf("2-opt: iteration %d: %w", st.iteration, err)
				}
				if d >= st.bestDist {
					continue
				}

				gain := st.bestDist - d
				st.best = candidate
				st.bestDist = d
				st.stall = 0
				st.moves++
				improved = true

				if onMove != nil {
					onMove(TwoOptMove{Iteration: st.iteration, I: i, J: j, Gain: gain, Distance: d})
				}

				if gain > cfg.RestartThreshold {
					break scan
				}
			}
		}

		if !improved {
			st.stall++
		}
	}

	return TwoOptResult{
		Route:           st.best,
		Distance:        st.bestDist,
		InitialDistance: initial,
		Iterations:      st.iteration,
		Improvements:    st.moves,
	}, nil
}
