package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bibbank/mfi-repayment/pkg/events"
	pkgkafka "github.com/bibbank/mfi-repayment/pkg/kafka"
)

// OutboxRelay moves stored events from the outbox to Kafka. Delivery is at
// least once: an entry is marked published only after the broker accepts it.
type OutboxRelay struct {
	outbox    events.OutboxRepository
	producer  MessageProducer
	topic     string
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewOutboxRelay wires the relay.
func NewOutboxRelay(outbox events.OutboxRepository, producer MessageProducer, topic string, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		outbox:    outbox,
		producer:  producer,
		topic:     topic,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run relays until ctx is canceled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay starting", "topic", r.topic, "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopping")
			return nil
		case <-ticker.C:
		}

		// Drain full batches before sleeping again.
		for {
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Error("outbox relay failed", "error", err)
				break
			}
			if n < r.batchSize {
				break
			}
		}
	}
}

// RelayOnce delivers one batch and reports how many entries it sent.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	messages := make([]pkgkafka.Message, 0, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, eventMessage(e.ID, e.EventType, e.AggregateID, e.AggregateType, e.Payload))
		ids = append(ids, e.ID)
	}

	if err := r.producer.Publish(ctx, r.topic, messages...); err != nil {
		return 0, fmt.Errorf("publish outbox batch: %w", err)
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}

	r.logger.Debug("outbox batch relayed", "count", len(entries))
	return len(entries), nil
}
