package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"route-optimizer/internal/domain"
	"sync"
)

// planar measures straight-line distance in coordinate units.
type planar struct{}

func (planar) Distance(a, b domain.Coordinates) (float64, error) {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng), nil
}

// failingOracle errors on every call after the first limit calls.
type failingOracle struct {
	limit int
	calls int
}

var errOracle = errors.New("oracle unavailable")

func (f *failingOracle) Distance(a, b domain.Coordinates) (float64, error) {
	f.calls++
	if f.calls > f.limit {
		return 0, errOracle
	}
	return planar{}.Distance(a, b)
}

func stop(id string, lat, lng float64) domain.Stop {
	return domain.Stop{ID: id, Lat: lat, Lng: lng}
}

func randomStops(seed int64, n int) []domain.Stop {
	rng := rand.New(rand.NewSource(seed))
	out := make([]domain.Stop, n)
	for i := range out {
		out[i] = stop(fmt.Sprintf("s%02d", i), rng.Float64()*10, rng.Float64()*10)
	}
	return out
}

// square is four unit corners visited from a start diagonally below A.
var (
	sqA     = stop("A", 0, 0)
	sqB     = stop("B", 0, 1)
	sqC     = stop("C", 1, 1)
	sqD     = stop("D", 1, 0)
	sqStart = domain.Coordinates{Lat: -1, Lng: -1}
	sqBest  = math.Sqrt2 + 3 + math.Sqrt(5)
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
