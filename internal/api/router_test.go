package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"route-optimizer/internal/api/dto"
	"route-optimizer/internal/api/handlers"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/metrics"
	"route-optimizer/internal/services"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanner struct {
	err  error
	last services.PlanRequest
}

func (p *fakePlanner) Plan(_ context.Context, req services.PlanRequest) (*domain.Run, error) {
	p.last = req
	if p.err != nil {
		return nil, p.err
	}

	if req.Observer != nil {
		req.Observer.Observe(services.Event{Kind: services.EventPipelineStarted, Pipeline: services.LabelNearestNeighbor})
		req.Observer.Observe(services.Event{Kind: services.EventPipelineFinished, Pipeline: services.LabelNearestNeighbor, Distance: 3})
	}

	route := domain.Route{{ID: "a", Lat: 1, Lng: 1}}
	return &domain.Run{
		ID:        "run-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		StartName: req.StartName,
		Attempts:  8,
		StopCount: 1,
		Result: domain.Result{
			Route:     route,
			Distance:  3,
			Algorithm: services.LabelNearestNeighbor,
			Ranking:   []domain.Candidate{{Route: route, Distance: 3, Label: services.LabelNearestNeighbor}},
		},
	}, nil
}

type fakeStops []domain.Stop

func (f fakeStops) ListStops(context.Context) ([]domain.Stop, error) { return f, nil }

type fakeRuns map[string]*domain.Run

func (f fakeRuns) GetRun(_ context.Context, id string) (*domain.Run, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
}

func (f fakeRuns) ListRuns(_ context.Context, limit int) ([]*domain.Run, error) {
	out := []*domain.Run{}
	for _, r := range f {
		if len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func newTestRouter(p *fakePlanner) (http.Handler, *metrics.Metrics) {
	m := metrics.New()
	run, _ := (&fakePlanner{}).Plan(context.Background(), services.PlanRequest{StartName: "centro"})
	return NewRouter(Deps{
		Planner: p,
		Stops:   fakeStops{{ID: "a", Lat: 1, Lng: 2}},
		Runs:    fakeRuns{"run-1": run},
		History: fakeRuns{"run-1": run},
		Metrics: m,
	}), m
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(&fakePlanner{})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth_Checks(t *testing.T) {
	h := NewRouter(Deps{
		Planner: &fakePlanner{},
		Checks: map[string]handlers.HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"connection refused"}}`, rec.Body.String())
}

func TestListStops(t *testing.T) {
	h, _ := newTestRouter(&fakePlanner{})

	rec := do(t, h, http.MethodGet, "/stops", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stops":[{"id":"a","lat":1,"lng":2}]}`, rec.Body.String())
}

func TestOptimize(t *testing.T) {
	p := &fakePlanner{}
	h, _ := newTestRouter(p)

	rec := do(t, h, http.MethodPost, "/optimize", `{"start":"centro","stops":[{"id":"a","lat":1,"lng":1}],"attempts":6}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.OptimizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, services.LabelNearestNeighbor, res.Algorithm)
	assert.Equal(t, []string{"a"}, res.Ranking[0].Route)

	assert.Equal(t, "centro", p.last.StartName)
	assert.Equal(t, 6, p.last.Attempts)
	assert.Equal(t, []domain.Stop{{ID: "a", Lat: 1, Lng: 1}}, p.last.Stops)

	metricsRec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, metricsRec.Body.String(), `http_requests_total{method="POST",path="/optimize",status="200"} 1`)
}

func TestOptimize_OmittedStopsUseRepository(t *testing.T) {
	p := &fakePlanner{}
	h, _ := newTestRouter(p)

	rec := do(t, h, http.MethodPost, "/optimize", `{"start":"centro"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, p.last.Stops)
}

func TestOptimize_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("start: %w", domain.ErrUnknownLocation), http.StatusBadRequest},
		{fmt.Errorf("stop x: %w", domain.ErrInvalidCoordinate), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: a", domain.ErrDuplicateStop), http.StatusUnprocessableEntity},
		{fmt.Errorf("matrix request failed"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h, _ := newTestRouter(&fakePlanner{err: tc.err})
			rec := do(t, h, http.MethodPost, "/optimize", `{"start":"x"}`)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestOptimize_BadBodies(t *testing.T) {
	h, _ := newTestRouter(&fakePlanner{})

	for _, body := range []string{
		`not json`,
		`{"start":"x","unknown":1}`,
		`{"start":"x"}{"start":"y"}`,
		`{"start":"x","attempts":-1}`,
	} {
		rec := do(t, h, http.MethodPost, "/optimize", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	rec := do(t, h, http.MethodGet, "/optimize", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRuns(t *testing.T) {
	h, _ := newTestRouter(&fakePlanner{})

	rec := do(t, h, http.MethodGet, "/runs/run-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)

	rec = do(t, h, http.MethodGet, "/runs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Runs, 1)

	rec = do(t, h, http.MethodGet, "/runs?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuns_NotConfigured(t *testing.T) {
	h := NewRouter(Deps{Planner: &fakePlanner{}})

	assert.Equal(t, http.StatusNotImplemented, do(t, h, http.MethodGet, "/runs/x", "").Code)
	assert.Equal(t, http.StatusNotImplemented, do(t, h, http.MethodGet, "/stops", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)
}

func TestOptimizeStream(t *testing.T) {
	h, _ := newTestRouter(&fakePlanner{})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/optimize/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(map[string]any{"start": "centro"}))

	var kinds []string
	for {
		var msg map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&msg))

		var typ string
		require.NoError(t, json.Unmarshal(msg["type"], &typ))
		kinds = append(kinds, typ)
		if typ == "complete" {
			break
		}
		if typ == "result" {
			var res dto.OptimizeResponse
			require.NoError(t, json.Unmarshal(msg["result"], &res))
			assert.Equal(t, "run-1", res.RunID)
		}
	}

	assert.Equal(t, []string{"event", "event", "result", "complete"}, kinds)
}

func TestOptimizeStream_Error(t *testing.T) {
	h, _ := newTestRouter(&fakePlanner{err: fmt.Errorf("start: %w", domain.ErrUnknownLocation)})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/optimize/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(map[string]any{"start": "atlantis"}))

	var msg struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Error, "unknown location")
}
