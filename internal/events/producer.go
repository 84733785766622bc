package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/restockly/backend/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Publisher pushes analysis events to downstream consumers. The Noop
// implementation keeps the engine seam uniform when eventing is disabled.
type Publisher interface {
	PublishReorderRecommended(ctx context.Context, event ReorderRecommendedEvent) error
	PublishAnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

type noopPublisher struct{}

// NewPublisher returns a Kafka-backed publisher, or a Noop one when eventing
// is disabled in config.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return &noopPublisher{}, nil
	}
	if strings.TrimSpace(cfg.Brokers) == "" {
		return nil, fmt.Errorf("events enabled but no brokers configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &kafkaPublisher{writer: writer}, nil
}

func NewNoopPublisher() Publisher {
	return &noopPublisher{}
}

func (p *kafkaPublisher) PublishReorderRecommended(ctx context.Context, event ReorderRecommendedEvent) error {
	event.EventType = TypeReorderRecommended
	return p.publish(ctx, event.EventID, event)
}

func (p *kafkaPublisher) PublishAnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error {
	event.EventType = TypeAnalysisCompleted
	return p.publish(ctx, event.EventID, event)
}

func (p *kafkaPublisher) publish(ctx context.Context, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	log.Debug().Str("event_id", key).Msg("events: published")
	return nil
}

func (p *kafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func (n *noopPublisher) PublishReorderRecommended(ctx context.Context, event ReorderRecommendedEvent) error {
	return nil
}

func (n *noopPublisher) PublishAnalysisCompleted(ctx context.Context, event AnalysisCompletedEvent) error {
	return nil
}

func (n *noopPublisher) Close() error { return nil }
