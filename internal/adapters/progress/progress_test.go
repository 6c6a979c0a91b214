package progress

import (
	"bytes"
	"encoding/json"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/metrics"
	"route-optimizer/internal/services"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finished() services.Event {
	return services.Event{
		Kind: services.EventTournamentFinished,
		Result: &domain.Result{
			Route:          domain.Route{{ID: "a"}},
			Distance:       12,
			Algorithm:      services.LabelNearestNeighbor2,
			ImprovementPct: 20,
			Ranking: []domain.Candidate{
				{Label: services.LabelNearestNeighbor2, Distance: 12},
				{Label: services.LabelNearestNeighbor, Distance: 15},
			},
		},
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	o := LogObserver{Logger: zerolog.New(&buf).Level(zerolog.InfoLevel)}

	o.Observe(services.Event{Kind: services.EventTwoOptMove, Pipeline: "x", Gain: 1})
	assert.Zero(t, buf.Len())

	o.Observe(finished())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"rank":1`)
	assert.Contains(t, lines[2], `"winner":"NN + 2-opt"`)
	assert.Contains(t, lines[2], `"improvement_pct":20`)
}

func TestMetricsObserver(t *testing.T) {
	m := metrics.New()
	o := MetricsObserver{Metrics: m}

	o.Observe(services.Event{Kind: services.EventTwoOptMove, Pipeline: "NN + 2-opt"})
	o.Observe(services.Event{Kind: services.EventTwoOptMove, Pipeline: "NN + 2-opt"})
	o.Observe(services.Event{Kind: services.EventPipelineFinished, Pipeline: "NN + 2-opt"})
	o.Observe(finished())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TwoOptMoves.WithLabelValues("NN + 2-opt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRuns.WithLabelValues("NN + 2-opt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TournamentWins.WithLabelValues("NN + 2-opt")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RouteDistance))

	// Nil metrics are ignored.
	MetricsObserver{}.Observe(finished())
}

func TestLogObserver_TwoOptSummary(t *testing.T) {
	var buf bytes.Buffer
	o := LogObserver{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	o.Observe(services.Event{
		Kind:            services.EventTwoOptFinished,
		Pipeline:        services.LabelCheapestInsertion,
		Iteration:       17,
		Distance:        7.5,
		InitialDistance: 10,
		Gain:            2.5,
		SavedPct:        25,
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "2-opt finished", line["message"])
	assert.Equal(t, 17.0, line["iterations"])
	assert.Equal(t, 2.5, line["saved_km"])
	assert.Equal(t, 25.0, line["saved_pct"])
	assert.Equal(t, 10.0, line["initial_km"])
}
