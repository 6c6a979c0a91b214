package services

import (
	"fmt"
	"route-optimizer/internal/adapters/distance"
	"route-optimizer/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(stops []domain.Stop, attempts int) TournamentInput {
	return TournamentInput{
		Stops:    stops,
		Start:    domain.Coordinates{Lat: 5, Lng: 5},
		End:      domain.Coordinates{Lat: 0, Lng: 0},
		Attempts: attempts,
	}
}

func labels(r *domain.Result) []string {
	out := make([]string, len(r.Ranking))
	for i, c := range r.Ranking {
		out[i] = c.Label
	}
	return out
}

func TestOptimize_EmptyInput(t *testing.T) {
	res, err := NewEngine().Optimize(nil, input(nil, 8))
	require.NoError(t, err)

	assert.Empty(t, res.Route)
	assert.NotNil(t, res.Route)
	assert.Zero(t, res.Distance)
	assert.Equal(t, AlgorithmNone, res.Algorithm)
	assert.Empty(t, res.Ranking)
}

func TestOptimize_NilOracle(t *testing.T) {
	_, err := NewEngine().Optimize(nil, input(randomStops(1, 3), 8))
	assert.Error(t, err)
}

func TestOptimize_Square(t *testing.T) {
	res, err := NewEngine(WithSeed(1)).Optimize(planar{}, TournamentInput{
		Stops:    []domain.Stop{sqA, sqB, sqC, sqD},
		Start:    sqStart,
		End:      sqStart,
		Attempts: 8,
	})
	require.NoError(t, err)

	assert.InDelta(t, sqBest, res.Distance, 1e-9)
	assert.Contains(t, [][]string{
		{"A", "B", "C", "D"},
		{"A", "D", "C", "B"},
		{"D", "C", "B", "A"},
		{"B", "C", "D", "A"},
	}, res.Route.IDs())

	for _, c := range res.Ranking {
		if c.Label == LabelNearestNeighbor {
			assert.Equal(t, []string{"A", "B", "C", "D"}, c.Route.IDs())
			assert.InDelta(t, sqBest, c.Distance, 1e-9)
		}
	}
}

func TestOptimize_TournamentSoundness(t *testing.T) {
	stops := randomStops(20, 20)

	res, err := NewEngine(WithSeed(99)).Optimize(planar{}, input(stops, 8))
	require.NoError(t, err)
	require.Len(t, res.Ranking, 8)

	assert.True(t, res.Route.IsPermutationOf(stops))
	for i, c := range res.Ranking {
		assert.True(t, c.Route.IsPermutationOf(stops), c.Label)
		d, err := RouteDistance(planar{}, c.Route, domain.Coordinates{Lat: 5, Lng: 5}, domain.Coordinates{})
		require.NoError(t, err)
		assert.InDelta(t, d, c.Distance, 1e-9, c.Label)
		if i > 0 {
			assert.LessOrEqual(t, res.Ranking[i-1].Distance, c.Distance)
		}
	}

	best, worst := res.Ranking[0], res.Ranking[len(res.Ranking)-1]
	assert.Equal(t, best.Label, res.Algorithm)
	assert.Equal(t, best.Distance, res.Distance)
	assert.InDelta(t, (worst.Distance-best.Distance)/worst.Distance*100, res.ImprovementPct, 1e-9)

	byLabel := map[string]float64{}
	for _, c := range res.Ranking {
		byLabel[c.Label] = c.Distance
	}
	assert.LessOrEqual(t, res.Distance, byLabel[LabelNearestNeighbor])
	assert.LessOrEqual(t, byLabel[LabelNearestNeighbor2], byLabel[LabelNearestNeighbor])
	assert.ElementsMatch(t, []string{
		LabelNearestNeighbor,
		LabelNearestNeighbor2,
		LabelCheapestInsertion,
		LabelFarthestInsertion,
		"Random Start 1 + 2-opt",
		"Random Start 2 + 2-opt",
		"Random Start 3 + 2-opt",
		"Random Start 4 + 2-opt",
	}, labels(res))
}

func TestOptimize_AttemptsClamp(t *testing.T) {
	stops := randomStops(4, 6)

	for _, tc := range []struct{ attempts, want int }{{0, 4}, {2, 4}, {4, 4}, {5, 5}, {11, 11}} {
		t.Run(fmt.Sprint(tc.attempts), func(t *testing.T) {
			res, err := NewEngine(WithSeed(3)).Optimize(planar{}, input(stops, tc.attempts))
			require.NoError(t, err)
			assert.Len(t, res.Ranking, tc.want)
		})
	}
}

func TestOptimize_SingleStopTiesKeepExecutionOrder(t *testing.T) {
	res, err := NewEngine(WithSeed(3)).Optimize(planar{}, input([]domain.Stop{stop("only", 1, 1)}, 8))
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, res.Route.IDs())
	assert.Equal(t, LabelNearestNeighbor, res.Algorithm)
	assert.Zero(t, res.ImprovementPct)
	assert.Equal(t, []string{
		LabelNearestNeighbor,
		LabelNearestNeighbor2,
		LabelCheapestInsertion,
		LabelFarthestInsertion,
		"Random Start 1 + 2-opt",
		"Random Start 2 + 2-opt",
		"Random Start 3 + 2-opt",
		"Random Start 4 + 2-opt",
	}, labels(res))
}

func TestOptimize_ParallelMatchesSequential(t *testing.T) {
	stops := randomStops(77, 18)

	seq, err := NewEngine(WithSeed(12345)).Optimize(planar{}, input(stops, 12))
	require.NoError(t, err)
	par, err := NewEngine(WithSeed(12345), WithParallelism(4)).Optimize(planar{}, input(stops, 12))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestOptimize_SameSeedSameResult(t *testing.T) {
	stops := randomStops(8, 15)

	a, err := NewEngine(WithSeed(5)).Optimize(planar{}, input(stops, 10))
	require.NoError(t, err)
	b, err := NewEngine(WithSeed(5)).Optimize(planar{}, input(stops, 10))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestOptimize_Haversine(t *testing.T) {
	stops := []domain.Stop{
		stop("chapinero", 4.6486, -74.0628),
		stop("usaquen", 4.6950, -74.0310),
		stop("kennedy", 4.6280, -74.1510),
		stop("suba", 4.7410, -74.0840),
		stop("bosa", 4.6180, -74.1900),
	}
	in := TournamentInput{
		Stops:    stops,
		Start:    domain.Coordinates{Lat: 4.5981, Lng: -74.0760},
		End:      domain.Coordinates{Lat: 4.6533, Lng: -74.0625},
		Attempts: 8,
	}

	res, err := NewEngine(WithSeed(2)).Optimize(distance.Haversine{}, in)
	require.NoError(t, err)
	assert.True(t, res.Route.IsPermutationOf(stops))
	assert.Greater(t, res.Distance, 0.0)
}

func TestOptimize_Observers(t *testing.T) {
	engineRec, callRec := &recorder{}, &recorder{}
	e := NewEngine(WithSeed(1), WithObserver(engineRec), WithParallelism(3))

	in := input(randomStops(6, 10), 6)
	in.Observer = callRec
	res, err := e.Optimize(planar{}, in)
	require.NoError(t, err)

	for _, r := range []*recorder{engineRec, callRec} {
		assert.Equal(t, 6, r.count(EventPipelineStarted))
		assert.Equal(t, 6, r.count(EventPipelineFinished))
		assert.Equal(t, 5, r.count(EventTwoOptFinished))
		assert.Equal(t, 1, r.count(EventTournamentFinished))
	}

	last := callRec.events[len(callRec.events)-1]
	assert.Equal(t, EventTournamentFinished, last.Kind)
	assert.Equal(t, res, last.Result)
}

func TestOptimize_OracleErrorAborts(t *testing.T) {
	_, err := NewEngine().Optimize(&failingOracle{limit: 3}, input(randomStops(2, 5), 8))
	assert.ErrorIs(t, err, errOracle)
}
