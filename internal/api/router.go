package api

import (
	"net/http"
	"route-optimizer/internal/api/handlers"
	"route-optimizer/internal/platform/metrics"
	"route-optimizer/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the use cases and adapters the HTTP layer depends on.
// Optional ones may be nil; their endpoints then answer 501.
type Deps struct {
	Planner handlers.Planner
	Stops   ports.StopRepository
	Runs    ports.RunReader
	History ports.RunLister
	Metrics *metrics.Metrics
	Checks  map[string]handlers.HealthCheck
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	stopHandler := &handlers.StopHandler{Repo: d.Stops}
	optimizeHandler := &handlers.OptimizeHandler{Planner: d.Planner}
	streamHandler := &handlers.StreamHandler{Planner: d.Planner}
	runHandler := &handlers.RunHandler{Reader: d.Runs, Lister: d.History}
	healthHandler := &handlers.HealthHandler{Checks: d.Checks}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.HandleFunc("/stops", stopHandler.List)
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("/optimize/stream", streamHandler.Stream)
	mux.HandleFunc("/runs", runHandler.List)
	mux.HandleFunc("/runs/{id}", runHandler.Get)

	if d.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	return requestIDMiddleware(loggingMiddleware(d.Metrics, mux))
}
