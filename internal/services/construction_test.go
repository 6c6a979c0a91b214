package services

import (
	"math"
	"math/rand"
	"route-optimizer/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteDistance(t *testing.T) {
	start := domain.Coordinates{}
	end := domain.Coordinates{Lat: 3, Lng: 4}

	d, err := RouteDistance(planar{}, nil, start, end)
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)

	d, err = RouteDistance(planar{}, domain.Route{stop("a", 0, 4)}, start, end)
	require.NoError(t, err)
	assert.Equal(t, 7.0, d)

	_, err = RouteDistance(&failingOracle{}, domain.Route{stop("a", 0, 4)}, start, end)
	assert.ErrorIs(t, err, errOracle)
}

func TestReverseSegment(t *testing.T) {
	in := domain.Route{stop("a", 0, 0), stop("b", 0, 1), stop("c", 0, 2), stop("d", 0, 3)}

	out := ReverseSegment(in, 1, 3)
	assert.Equal(t, []string{"a", "d", "c", "b"}, out.IDs())
	assert.Equal(t, []string{"a", "b", "c", "d"}, in.IDs())

	assert.Equal(t, in.IDs(), ReverseSegment(in, 2, 2).IDs())
}

func TestInsertionCost(t *testing.T) {
	start := domain.Coordinates{}
	end := domain.Coordinates{Lat: 0, Lng: 10}
	route := domain.Route{stop("a", 0, 5)}

	// On the straight line: free.
	c, err := InsertionCost(planar{}, route, stop("x", 0, 2), 0, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 0, c, 1e-12)

	// Detour via (3,9): a->y is 5, y->end is sqrt(10), replacing a->end of 5.
	c, err = InsertionCost(planar{}, route, stop("y", 3, 9), 1, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 5+math.Hypot(3, 1)-5, c, 1e-12)

	_, err = InsertionCost(planar{}, route, stop("z", 1, 1), 2+1, start, end)
	assert.Error(t, err)
	_, err = InsertionCost(planar{}, route, stop("z", 1, 1), -1, start, end)
	assert.Error(t, err)
}

func TestInsertionCost_NonNegative(t *testing.T) {
	stops := randomStops(3, 8)
	start := domain.Coordinates{Lat: 5, Lng: 5}
	end := domain.Coordinates{Lat: 0, Lng: 0}
	route := domain.Route(stops[:5])

	for _, s := range stops[5:] {
		for pos := 0; pos <= len(route); pos++ {
			c, err := InsertionCost(planar{}, route, s, pos, start, end)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, c, -1e-9)
		}
	}
}

func TestNearestNeighbor_GreedyOrder(t *testing.T) {
	stops := []domain.Stop{stop("far", 0, 9), stop("near", 0, 1), stop("mid", 0, 4)}

	r, err := NearestNeighbor(planar{}, stops, domain.Coordinates{})
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "mid", "far"}, r.IDs())
	assert.Equal(t, []string{"far", "near", "mid"}, domain.Route(stops).IDs(), "input untouched")
}

func TestNearestNeighbor_TiesKeepInputOrder(t *testing.T) {
	r, err := NearestNeighbor(planar{}, []domain.Stop{sqA, sqB, sqC, sqD}, sqStart)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, r.IDs())
}

func TestRandomizedNearestNeighbor(t *testing.T) {
	stops := randomStops(11, 12)
	rng := rand.New(rand.NewSource(5))

	for range 10 {
		r, err := RandomizedNearestNeighbor(planar{}, stops, rng)
		require.NoError(t, err)
		assert.True(t, r.IsPermutationOf(stops))
	}

	_, err := RandomizedNearestNeighbor(planar{}, stops, nil)
	assert.Error(t, err)

	r, err := RandomizedNearestNeighbor(planar{}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, r)

	_, err = nearestNeighborFromIndex(planar{}, stops, len(stops))
	assert.Error(t, err)
}

func TestRandomizedNearestNeighbor_FirstStop(t *testing.T) {
	stops := []domain.Stop{stop("a", 0, 0), stop("b", 0, 1), stop("c", 0, 5)}

	r, err := nearestNeighborFromIndex(planar{}, stops, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, r.IDs())
}

type constructor func([]domain.Stop) (domain.Route, error)

func constructors(start, end domain.Coordinates) map[string]constructor {
	return map[string]constructor{
		"nearest neighbor": func(s []domain.Stop) (domain.Route, error) {
			return NearestNeighbor(planar{}, s, start)
		},
		"cheapest insertion": func(s []domain.Stop) (domain.Route, error) {
			return CheapestInsertion(planar{}, s, start, end)
		},
		"farthest insertion": func(s []domain.Stop) (domain.Route, error) {
			return FarthestInsertion(planar{}, s, start, end)
		},
		"randomized": func(s []domain.Stop) (domain.Route, error) {
			return RandomizedNearestNeighbor(planar{}, s, rand.New(rand.NewSource(1)))
		},
	}
}

func TestConstructors_Permutation(t *testing.T) {
	start := domain.Coordinates{Lat: 5, Lng: 5}
	end := domain.Coordinates{Lat: 0, Lng: 0}

	for name, build := range constructors(start, end) {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{0, 1, 2, 3, 7, 15} {
				stops := randomStops(int64(n), n)
				r, err := build(stops)
				require.NoError(t, err)
				assert.True(t, r.IsPermutationOf(stops), "n=%d", n)
			}
		})
	}
}

func TestConstructors_OracleErrors(t *testing.T) {
	stops := randomStops(9, 5)
	start := domain.Coordinates{}

	_, err := NearestNeighbor(&failingOracle{limit: 2}, stops, start)
	assert.ErrorIs(t, err, errOracle)
	_, err = CheapestInsertion(&failingOracle{limit: 2}, stops, start, start)
	assert.ErrorIs(t, err, errOracle)
	_, err = FarthestInsertion(&failingOracle{limit: 8}, stops, start, start)
	assert.ErrorIs(t, err, errOracle)
}

func TestCheapestInsertion_SeedsNearestToStart(t *testing.T) {
	stops := []domain.Stop{stop("far", 0, 9), stop("near", 0, 1)}

	r, err := CheapestInsertion(planar{}, stops, domain.Coordinates{}, domain.Coordinates{Lat: 0, Lng: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "far"}, r.IDs())
}

func TestFarthestInsertion_PicksFarthestFirst(t *testing.T) {
	// After seeding with "a", "far" is inserted before "mid" and both end up in line order.
	stops := []domain.Stop{stop("a", 0, 1), stop("mid", 0, 3), stop("far", 0, 8)}

	r, err := FarthestInsertion(planar{}, stops, domain.Coordinates{}, domain.Coordinates{Lat: 0, Lng: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "mid", "far"}, r.IDs())
}
