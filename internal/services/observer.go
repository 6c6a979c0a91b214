package services

import "route-optimizer/internal/domain"

// EventKind names a progress event emitted by the Engine.
type EventKind string

const (
	EventPipelineStarted    EventKind = "pipeline.started"
	EventTwoOptMove         EventKind = "twoopt.move"
	EventTwoOptFinished     EventKind = "twoopt.finished"
	EventPipelineFinished   EventKind = "pipeline.finished"
	EventTournamentFinished EventKind = "tournament.finished"
)

// Event is one line of progress narration. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind `json:"kind"`
	Pipeline  string    `json:"pipeline,omitempty"`
	Iteration int       `json:"iteration,omitempty"`
	Gain      float64   `json:"gain_km,omitempty"`
	Distance  float64   `json:"distance_km,omitempty"`

	// 2-opt summary.
	InitialDistance float64 `json:"initial_distance_km,omitempty"`
	SavedPct        float64 `json:"saved_pct,omitempty"`

	Result *domain.Result `json:"result,omitempty"`
}

// Observer receives progress events. Observers must not block for long and
// must be safe for concurrent use when the engine runs pipelines in parallel.
// They never influence the optimization result.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans an event out to every non-nil observer in order.
type MultiObserver []Observer

func (m MultiObserver) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
