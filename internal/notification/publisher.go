package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"icpep-backend/internal/logger"
	"icpep-backend/internal/models"
)

// Publisher hands domain events to the notification pipeline.
type Publisher interface {
	Publish(ctx context.Context, ev models.DomainEvent) error
}

type JSONProducer interface {
	PublishJSON(ctx context.Context, key string, value interface{}) error
}

// KafkaPublisher writes domain events to the notifications topic.
type KafkaPublisher struct {
	Producer JSONProducer
}

func NewKafkaPublisher(p JSONProducer) *KafkaPublisher {
	return &KafkaPublisher{Producer: p}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev models.DomainEvent) error {
	key := ev.RefID
	if key == "" {
		key = ev.Kind
	}
	if err := p.Producer.PublishJSON(ctx, key, ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}

// DirectPublisher delivers in-process when Kafka is disabled.
type DirectPublisher struct {
	Service *Service
}

func NewDirectPublisher(s *Service) *DirectPublisher {
	return &DirectPublisher{Service: s}
}

func (p *DirectPublisher) Publish(ctx context.Context, ev models.DomainEvent) error {
	_, err := p.Service.Deliver(ctx, ev)
	return err
}

// Notify publishes ev and logs a failure instead of returning it; callers
// have already committed their write.
func Notify(ctx context.Context, p Publisher, log *logger.Logger, ev models.DomainEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("NOTIFY", fmt.Sprintf("Failed to publish %s for %s: %v", ev.Kind, ev.RefID, err))
	}
}

// DecodeMessage is the inverse of KafkaPublisher.Publish.
func DecodeMessage(msg kafka.Message) (models.DomainEvent, error) {
	var ev models.DomainEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return ev, fmt.Errorf("decode domain event at offset %d: %w", msg.Offset, err)
	}
	return ev, nil
}
