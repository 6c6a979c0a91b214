// Package progress turns engine events into logs, metrics and live streams.
package progress

import (
	"route-optimizer/internal/platform/metrics"
	"route-optimizer/internal/services"

	"github.com/rs/zerolog"
)

// LogObserver narrates an optimization through zerolog: 2-opt moves at trace,
// pipeline summaries at debug and the final ranking at info.
type LogObserver struct {
	Logger zerolog.Logger
}

func (o LogObserver) Observe(e services.Event) {
	switch e.Kind {
	case services.EventTwoOptMove:
		o.Logger.Trace().
			Str("pipeline", e.Pipeline).
			Int("iteration", e.Iteration).
			Float64("gain_km", e.Gain).
			Float64("distance_km", e.Distance).
			Msg("2-opt move")
	case services.EventTwoOptFinished:
		o.Logger.Debug().
			Str("pipeline", e.Pipeline).
			Float64("initial_km", e.InitialDistance).
			Float64("final_km", e.Distance).
			Int("iterations", e.Iteration).
			Float64("saved_km", e.Gain).
			Float64("saved_pct", e.SavedPct).
			Msg("2-opt finished")
	case services.EventPipelineFinished:
		o.Logger.Debug().
			Str("pipeline", e.Pipeline).
			Float64("distance_km", e.Distance).
			Msg("pipeline finished")
	case services.EventTournamentFinished:
		if e.Result == nil {
			return
		}
		for i, c := range e.Result.Ranking {
			o.Logger.Info().
				Int("rank", i+1).
				Str("algorithm", c.Label).
				Float64("distance_km", c.Distance).
				Msg("ranking")
		}
		o.Logger.Info().
			Str("winner", e.Result.Algorithm).
			Float64("distance_km", e.Result.Distance).
			Float64("improvement_pct", e.Result.ImprovementPct).
			Int("stops", len(e.Result.Route)).
			Msg("tournament finished")
	}
}

// MetricsObserver records optimizer activity in Prometheus collectors.
type MetricsObserver struct {
	Metrics *metrics.Metrics
}

func (o MetricsObserver) Observe(e services.Event) {
	if o.Metrics == nil {
		return
	}

	switch e.Kind {
	case services.EventTwoOptMove:
		o.Metrics.TwoOptMoves.WithLabelValues(e.Pipeline).Inc()
	case services.EventPipelineFinished:
		o.Metrics.PipelineRuns.WithLabelValues(e.Pipeline).Inc()
	case services.EventTournamentFinished:
		if e.Result == nil || len(e.Result.Route) == 0 {
			return
		}
		o.Metrics.TournamentWins.WithLabelValues(e.Result.Algorithm).Inc()
		o.Metrics.RouteDistance.Observe(e.Result.Distance)
		o.Metrics.ImprovementPct.Observe(e.Result.ImprovementPct)
	}
}
