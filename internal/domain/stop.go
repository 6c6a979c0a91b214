package domain

import "fmt"

// Stop is a delivery or visit location. Stops are equal when their IDs are equal.
type Stop struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (s Stop) Coordinates() Coordinates { return Coordinates{Lat: s.Lat, Lng: s.Lng} }

// Route is an ordered visiting sequence over a stop set.
// It carries no distance: distance is always relative to a start/end pair.
type Route []Stop

// Clone returns a private copy so callers can reorder it freely.
func (r Route) Clone() Route {
	out := make(Route, len(r))
	copy(out, r)
	return out
}

// IDs returns the stop identifiers in visiting order.
func (r Route) IDs() []string {
	ids := make([]string, len(r))
	for i, s := range r {
		ids[i] = s.ID
	}
	return ids
}

// IsPermutationOf reports whether r visits exactly the stops in set, each once.
func (r Route) IsPermutationOf(set []Stop) bool {
	if len(r) != len(set) {
		return false
	}

	want := make(map[string]int, len(set))
	for _, s := range set {
		want[s.ID]++
	}
	for _, s := range r {
		if want[s.ID] == 0 {
			return false
		}
		want[s.ID]--
	}
	return true
}

// ValidateStops checks coordinates and identifier uniqueness for a stop collection.
func ValidateStops(stops []Stop) error {
	seen := make(map[string]struct{}, len(stops))
	for i, s := range stops {
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStop, s.ID)
		}
		seen[s.ID] = struct{}{}

		if err := s.Coordinates().Validate(); err != nil {
			return fmt.Errorf("stop %q at index %d: %w", s.ID, i, err)
		}
	}
	return nil
}
