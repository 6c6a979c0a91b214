// Package metrics holds the Prometheus collectors for the API and the optimizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics owns a dedicated registry so tests and multiple servers do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration records request durations in seconds.
	HTTPDuration *prometheus.HistogramVec

	// PipelineRuns counts finished construction pipelines by label.
	PipelineRuns *prometheus.CounterVec
	// TwoOptMoves counts accepted improving 2-opt moves by pipeline label.
	TwoOptMoves *prometheus.CounterVec
	// TournamentWins counts tournament winners by algorithm label.
	TournamentWins *prometheus.CounterVec
	// RouteDistance records the winning route length in kilometres.
	RouteDistance prometheus.Histogram
	// ImprovementPct records the best-over-worst improvement per tournament.
	ImprovementPct prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"method", "path", "status"},
		),
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "route_pipeline_runs_total", Help: "Finished construction pipelines."},
			[]string{"pipeline"},
		),
		TwoOptMoves: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "route_twoopt_moves_total", Help: "Accepted improving 2-opt moves."},
			[]string{"pipeline"},
		),
		TournamentWins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "route_tournament_wins_total", Help: "Tournament winners by algorithm."},
			[]string{"algorithm"},
		),
		RouteDistance: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_best_distance_km",
			Help:    "Winning route length in kilometres.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		ImprovementPct: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "route_improvement_pct",
			Help:    "Best-over-worst improvement percentage per tournament.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 50},
		}),
	}

	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.PipelineRuns,
		m.TwoOptMoves,
		m.TournamentWins,
		m.RouteDistance,
		m.ImprovementPct,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}
