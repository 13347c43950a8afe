package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hexboltmq/hexboltmq/internal/broker"
	"github.com/hexboltmq/hexboltmq/internal/queue"
	"github.com/hexboltmq/hexboltmq/pkg/log"
)

// Handler processes one delivered message. A nil return acknowledges the
// message; an error sends it through the retry path.
type Handler func(ctx context.Context, m *queue.Message) error

// Consumer pulls messages from one queue. The queue never blocks, so the
// consumer does the waiting: when nothing is ready it polls with a backoff
// that grows up to a cap and resets on the next delivery.
type Consumer struct {
	name   string
	broker *broker.Broker
	logger log.Logger

	pollInterval time.Duration
	pollMax      time.Duration
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithPollInterval sets the initial idle poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Consumer) { c.pollInterval = d }
}

// WithMaxPollInterval caps the idle backoff.
func WithMaxPollInterval(d time.Duration) Option {
	return func(c *Consumer) { c.pollMax = d }
}

// WithLogger sets the consumer's logger.
func WithLogger(l log.Logger) Option {
	return func(c *Consumer) { c.logger = l }
}

// New builds a Consumer over the given broker. Each consumer carries a random
// identity for log correlation.
func New(b *broker.Broker, opts ...Option) *Consumer {
	c := &Consumer{
		name:         uuid.NewString(),
		broker:       b,
		logger:       log.Nop(),
		pollInterval: 20 * time.Millisecond,
		pollMax:      time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("consumer").With(log.Str("consumer", c.name))
	return c
}

// Name returns the consumer's identity.
func (c *Consumer) Name() string { return c.name }

// Next blocks until a message is ready or ctx is done.
func (c *Consumer) Next(ctx context.Context) (*queue.Message, error) {
	wait := c.pollInterval
	for {
		m, err := c.broker.Pop(ctx)
		switch {
		case err == nil:
			return m, nil
		case errors.Is(err, queue.ErrEmpty) || errors.Is(err, queue.ErrNotReady):
			// fall through to the wait below
		default:
			return nil, err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > c.pollMax {
			wait = c.pollMax
		}
	}
}

// NextBatch blocks until at least one message is ready, then returns up to n
// in delivery order.
func (c *Consumer) NextBatch(ctx context.Context, n int) ([]*queue.Message, error) {
	wait := c.pollInterval
	for {
		msgs, err := c.broker.PopBatch(ctx, n)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 {
			return msgs, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > c.pollMax {
			wait = c.pollMax
		}
	}
}

// Consume pulls messages and runs the handler until ctx is done. A handler
// error sends the message through the retry path; exhausted messages divert
// to the dead-letter region. Consume returns nil on context cancellation.
func (c *Consumer) Consume(ctx context.Context, h Handler) error {
	for {
		m, err := c.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if herr := h(ctx, m); herr != nil {
			c.logger.Warn("handler failed",
				log.Uint64("id", m.ID), log.Int("retry", m.RetryCount), log.Err(herr))
			if _, _, rerr := c.broker.Retry(ctx, *m); rerr != nil {
				return rerr
			}
			continue
		}
		if err := c.broker.Ack(ctx, m.ID); err != nil {
			return err
		}
	}
}
