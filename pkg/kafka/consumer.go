package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
)

// Handler processes a consumed Kafka message. Returning an error makes the
// consumer retry the same message; handlers acknowledge messages they want to
// drop by returning nil.
type Handler func(ctx context.Context, msg Message) error

// Consumer wraps a kafka-go reader bound to one topic and consumer group.
// Messages of a partition are handled in order and committed one by one.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	logger  *slog.Logger

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithRetryBackoff sets the exponential backoff bounds used between handler
// retries.
func WithRetryBackoff(initial, maxInterval time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.initialBackoff = initial
		c.maxBackoff = maxInterval
	}
}

// NewConsumer creates a Consumer for topic. cfg.ConsumerGroup must be set so
// offsets are committed.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	readerCfg := kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
		StartOffset: kafkago.FirstOffset,
	}
	if d := cfg.dialer(); d != nil {
		readerCfg.Dialer = d
	}

	c := &Consumer{
		reader:         kafkago.NewReader(readerCfg),
		handler:        handler,
		logger:         logger.With("topic", topic, "group", cfg.ConsumerGroup),
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes messages until ctx is canceled. A failing message is retried
// with backoff and blocks its partition until it succeeds, so nothing behind
// it is committed early.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer starting")

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping")
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.handleWithRetry(ctx, fromKafkaMessage(m), m.Partition, m.Offset); err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping with message unhandled", "partition", m.Partition, "offset", m.Offset)
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("commit error", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg Message, partition int, offset int64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return c.handler(ctx, msg)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		c.logger.Error("handler error, retrying",
			"partition", partition,
			"offset", offset,
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)
	})
}

func fromKafkaMessage(m kafkago.Message) Message {
	msg := Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}
