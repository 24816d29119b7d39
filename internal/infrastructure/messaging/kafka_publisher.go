package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bibbank/mfi-repayment/internal/domain/event"
	"github.com/bibbank/mfi-repayment/internal/domain/port"
	pkgkafka "github.com/bibbank/mfi-repayment/pkg/kafka"
)

var _ port.EventPublisher = (*KafkaEventPublisher)(nil)

// MessageProducer is the subset of pkg/kafka.Producer the adapters need.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// KafkaEventPublisher implements port.EventPublisher by writing events
// straight to Kafka.
type KafkaEventPublisher struct {
	producer MessageProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaEventPublisher creates a publisher targeting the given Kafka producer and topic.
func NewKafkaEventPublisher(producer MessageProducer, topic string, logger *slog.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish serialises and sends domain events to Kafka. Events are keyed by
// loan so one loan's events stay ordered.
func (p *KafkaEventPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	messages := make([]pkgkafka.Message, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", evt.EventType(), err)
		}

		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"topic", p.topic,
			"payload_size", len(payload),
		)

		messages = append(messages, eventMessage(evt.EventID(), evt.EventType(), evt.AggregateID(), evt.AggregateType(), payload))
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}
	return nil
}

func eventMessage(id, eventType, aggregateID, aggregateType string, payload []byte) pkgkafka.Message {
	return pkgkafka.Message{
		Key:   []byte(aggregateID),
		Value: payload,
		Headers: map[string]string{
			"event_type":     eventType,
			"event_id":       id,
			"aggregate_type": aggregateType,
		},
	}
}
