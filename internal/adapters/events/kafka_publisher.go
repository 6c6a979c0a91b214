// Package events publishes finished runs to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "route.optimized"

// MessageWriter is the subset of *kafka.Writer used by the publisher.
// It allows for easy mocking in unit tests.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RunOptimized is the event payload: a compact summary of the winning route.
type RunOptimized struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	StartName      string    `json:"start_name"`
	StopCount      int       `json:"stop_count"`
	Algorithm      string    `json:"algorithm"`
	DistanceKm     float64   `json:"distance_km"`
	ImprovementPct float64   `json:"improvement_pct"`
	Route          []string  `json:"route"`
}

// KafkaRunPublisher emits one RunOptimized message per run, keyed by run ID.
type KafkaRunPublisher struct {
	writer MessageWriter
}

func NewKafkaRunPublisher(w MessageWriter) *KafkaRunPublisher {
	return &KafkaRunPublisher{writer: w}
}

// NewKafkaWriter builds a writer for a comma-separated broker list.
func NewKafkaWriter(brokers, topic string) (*kafka.Writer, error) {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}, nil
}

func (p *KafkaRunPublisher) SaveRun(ctx context.Context, run *domain.Run) (err error) {
	defer obs.Time(ctx, "events.PublishRun")(&err)

	if run == nil || run.ID == "" {
		return errors.New("publish run: run has no id")
	}

	value, err := json.Marshal(RunOptimized{
		RunID:          run.ID,
		CreatedAt:      run.CreatedAt,
		StartName:      run.StartName,
		StopCount:      run.StopCount,
		Algorithm:      run.Result.Algorithm,
		DistanceKm:     run.Result.Distance,
		ImprovementPct: run.Result.ImprovementPct,
		Route:          run.Result.Route.IDs(),
	})
	if err != nil {
		return fmt.Errorf("publish run: marshal: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(run.ID),
		Value: value,
		Time:  run.CreatedAt,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run %s: %w", run.ID, err)
	}

	return nil
}

func (p *KafkaRunPublisher) Close() error { return p.writer.Close() }
