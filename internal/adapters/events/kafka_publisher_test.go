package events

import (
	"context"
	"encoding/json"
	"errors"
	"route-optimizer/internal/domain"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockWriter is a mock implementation of MessageWriter for testing.
type MockWriter struct {
	Messages []kafka.Message
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error {
	m.Closed = true
	return nil
}

func TestKafkaRunPublisher_SaveRun(t *testing.T) {
	w := &MockWriter{}
	p := NewKafkaRunPublisher(w)

	run := &domain.Run{
		ID:        "run-1",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		StartName: "centro",
		StopCount: 2,
		Result: domain.Result{
			Route:          domain.Route{{ID: "b"}, {ID: "a"}},
			Distance:       9.5,
			Algorithm:      "Cheapest Insertion + 2-opt",
			ImprovementPct: 12.5,
		},
	}
	require.NoError(t, p.SaveRun(context.Background(), run))

	require.Len(t, w.Messages, 1)
	msg := w.Messages[0]
	assert.Equal(t, "run-1", string(msg.Key))

	var evt RunOptimized
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, []string{"b", "a"}, evt.Route)
	assert.Equal(t, 9.5, evt.DistanceKm)
	assert.Equal(t, "Cheapest Insertion + 2-opt", evt.Algorithm)

	require.NoError(t, p.Close())
	assert.True(t, w.Closed)
}

func TestKafkaRunPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := NewKafkaRunPublisher(&MockWriter{Err: boom})

	assert.ErrorIs(t, p.SaveRun(context.Background(), &domain.Run{ID: "x"}), boom)
}

func TestNewKafkaWriter(t *testing.T) {
	w, err := NewKafkaWriter(" a:9092, ,b:9092", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, w.Topic)
	assert.Equal(t, "tcp,tcp", w.Addr.Network())
	assert.Equal(t, "a:9092,b:9092", w.Addr.String())

	w, err = NewKafkaWriter("broker:9092", "route.custom")
	require.NoError(t, err)
	assert.Equal(t, "route.custom", w.Topic)
	assert.Equal(t, "broker:9092", w.Addr.String())

	_, err = NewKafkaWriter(" , ", "x")
	assert.Error(t, err)
}
