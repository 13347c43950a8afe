package broker

import (
	"context"
	"errors"
	"time"

	"github.com/hexboltmq/hexboltmq/internal/config"
	"github.com/hexboltmq/hexboltmq/internal/deadletter"
	"github.com/hexboltmq/hexboltmq/internal/metrics"
	"github.com/hexboltmq/hexboltmq/internal/queue"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
	"github.com/hexboltmq/hexboltmq/internal/store"
	"github.com/hexboltmq/hexboltmq/pkg/clock"
	"github.com/hexboltmq/hexboltmq/pkg/log"
)

// ErrPayloadTooLarge reports a push whose payload exceeds the configured bound.
var ErrPayloadTooLarge = errors.New("broker: payload exceeds configured maximum")

// Options configures a Broker. Zero values fall back to sane defaults.
type Options struct {
	Defaults config.QueueDefaults
	Metrics  *metrics.Metrics
	Logger   log.Logger
	Clock    clock.Clock
}

// Broker binds one named queue to its durable store and dead-letter sink. The
// in-memory index drives delivery; the store exists so a restart repopulates
// it. Records are saved on push, updated on requeue, and deleted once the
// message reaches a terminal state (acknowledged or dead-lettered).
type Broker struct {
	name    string
	cfg     config.QueueDefaults
	q       *queue.DelayedQueue
	st      *store.Store
	metrics *metrics.Metrics
	logger  log.Logger
	clk     clock.Clock
}

// Open builds the broker for a named queue and repopulates its index from the
// store. Remaining delays are recomputed against the wall clock, so a message
// scheduled before a restart still waits out its original availability time.
func Open(ctx context.Context, db *pebblestore.DB, name string, opts Options) (*Broker, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}

	st := store.Open(db, name)
	var policy queue.RetryPolicy = queue.DefaultRetryPolicy()
	if opts.Defaults.RetryBackoffBaseMs > 0 {
		policy = queue.ExponentialBackoff{
			Base:   time.Duration(opts.Defaults.RetryBackoffBaseMs) * time.Millisecond,
			Max:    time.Duration(opts.Defaults.RetryBackoffMaxMs) * time.Millisecond,
			Jitter: opts.Defaults.RetryJitter,
		}
	}
	q := queue.New(
		queue.WithClock(clk),
		queue.WithCapacity(opts.Defaults.Capacity),
		queue.WithRetryPolicy(policy),
		queue.WithDeadLetterSink(deadletter.NewStoreSink(st)),
		queue.WithLogger(logger.WithComponent("queue."+name)),
	)

	b := &Broker{
		name:    name,
		cfg:     opts.Defaults,
		q:       q,
		st:      st,
		metrics: opts.Metrics,
		logger:  logger.WithComponent("broker." + name),
		clk:     clk,
	}
	if err := b.repopulate(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Broker) repopulate(ctx context.Context) error {
	msgs, err := b.st.LoadAll(ctx)
	if err != nil {
		return err
	}
	now := b.clk.Now()
	for _, m := range msgs {
		delay := m.AvailableAt.Sub(now)
		if delay < 0 {
			delay = 0
		}
		if err := b.q.Push(m, delay); err != nil {
			return err
		}
	}
	if len(msgs) > 0 {
		b.logger.Info("queue repopulated from store", log.Int("messages", len(msgs)))
	}
	if b.metrics != nil {
		b.metrics.QueueSize.WithLabelValues(b.name).Set(float64(len(msgs)))
		if n, err := b.st.DeadLetterCount(ctx); err == nil {
			b.metrics.DLQSize.WithLabelValues(b.name).Set(float64(n))
		}
	}
	return nil
}

// Name returns the queue name.
func (b *Broker) Name() string { return b.name }

// Push schedules the message for delivery after the given delay and persists
// it. The returned message carries the effective AvailableAt. MaxRetries
// defaults from configuration when the caller leaves it zero.
func (b *Broker) Push(ctx context.Context, m queue.Message, delay time.Duration) (queue.Message, error) {
	if b.cfg.PayloadMaxBytes > 0 && len(m.Payload) > b.cfg.PayloadMaxBytes {
		return queue.Message{}, ErrPayloadTooLarge
	}
	if m.MaxRetries == 0 {
		m.MaxRetries = b.cfg.MaxRetries
	}
	if delay < 0 {
		delay = 0
	}
	m.AvailableAt = b.clk.Now().Add(delay)

	if err := b.q.Push(m, delay); err != nil {
		return queue.Message{}, err
	}
	if err := b.st.Save(ctx, m); err != nil {
		// Index keeps the message; delivery proceeds, only restart recovery
		// would miss it.
		b.logger.Error("persist after push failed", log.Uint64("id", m.ID), log.Err(err))
		return m, err
	}
	if b.metrics != nil {
		b.metrics.Produced.WithLabelValues(b.name).Inc()
		b.metrics.QueueSize.WithLabelValues(b.name).Set(float64(b.q.Size()))
	}
	return m, nil
}

// Pop hands out the most urgent ready message. The record stays persisted
// until Ack or a terminal Retry, so an in-flight message survives a crash.
func (b *Broker) Pop(ctx context.Context) (*queue.Message, error) {
	_ = ctx
	m, err := b.q.Pop()
	if err != nil {
		return nil, err
	}
	if b.metrics != nil {
		b.metrics.Consumed.WithLabelValues(b.name).Inc()
		b.metrics.QueueSize.WithLabelValues(b.name).Set(float64(b.q.Size()))
	}
	return m, nil
}

// PopBatch hands out up to n ready messages in delivery order. Requests above
// the configured batch maximum are clamped.
func (b *Broker) PopBatch(ctx context.Context, n int) ([]*queue.Message, error) {
	_ = ctx
	if b.cfg.BatchMax > 0 && n > b.cfg.BatchMax {
		n = b.cfg.BatchMax
	}
	msgs, err := b.q.PopBatch(n)
	if err != nil {
		return nil, err
	}
	if b.metrics != nil && len(msgs) > 0 {
		b.metrics.Consumed.WithLabelValues(b.name).Add(float64(len(msgs)))
		b.metrics.QueueSize.WithLabelValues(b.name).Set(float64(b.q.Size()))
	}
	return msgs, nil
}

// Ack marks the message done and removes its durable record. Acknowledging an
// unknown id is an idempotent no-op.
func (b *Broker) Ack(ctx context.Context, id uint64) error {
	b.q.Acknowledge(id)
	if err := b.st.Delete(ctx, id); err != nil {
		return err
	}
	if b.metrics != nil {
		b.metrics.Acknowledged.WithLabelValues(b.name).Inc()
		b.metrics.QueueSize.WithLabelValues(b.name).Set(float64(b.q.Size()))
	}
	return nil
}

// Retry resolves a failed delivery: requeue with backoff, or divert to the
// dead-letter region once the budget is exhausted. The durable record follows
// the disposition.
func (b *Broker) Retry(ctx context.Context, m queue.Message) (queue.Disposition, *queue.Message, error) {
	disp, next, err := b.q.Retry(ctx, m)
	if err != nil {
		return 0, nil, err
	}
	switch disp {
	case queue.DispositionRequeued:
		if err := b.st.Save(ctx, *next); err != nil {
			b.logger.Error("persist after requeue failed", log.Uint64("id", next.ID), log.Err(err))
			return disp, next, err
		}
		if b.metrics != nil {
			b.metrics.Retried.WithLabelValues(b.name).Inc()
			b.metrics.QueueSize.WithLabelValues(b.name).Set(float64(b.q.Size()))
		}
	case queue.DispositionDeadLettered:
		if err := b.st.Delete(ctx, m.ID); err != nil {
			return disp, nil, err
		}
		if b.metrics != nil {
			b.metrics.DeadLettered.WithLabelValues(b.name).Inc()
			if n, err := b.st.DeadLetterCount(ctx); err == nil {
				b.metrics.DLQSize.WithLabelValues(b.name).Set(float64(n))
			}
		}
	}
	return disp, next, nil
}

// DeadLetters lists the queue's dead-letter records, optionally narrowed by a
// CEL expression over id, priority, retry_count, max_retries,
// available_at_ms, size, text, json, and now_ms.
func (b *Broker) DeadLetters(ctx context.Context, filterExpr string) ([]queue.Message, error) {
	f, err := newCELFilter(filterExpr)
	if err != nil {
		return nil, err
	}
	msgs, err := b.st.ListDeadLetters(ctx)
	if err != nil {
		return nil, err
	}
	if !f.enabled {
		return msgs, nil
	}
	out := msgs[:0]
	for _, m := range msgs {
		if f.Eval(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Stats summarizes the queue.
type Stats struct {
	Name            string `json:"name"`
	Size            int    `json:"size"`
	DeadLetters     int    `json:"deadLetters"`
	NextAvailableMs int64  `json:"nextAvailableMs,omitempty"`
}

// Stats reports current queue size, dead-letter count, and the next
// availability instant when one exists.
func (b *Broker) Stats(ctx context.Context) (Stats, error) {
	dead, err := b.st.DeadLetterCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{Name: b.name, Size: b.q.Size(), DeadLetters: dead}
	if at, ok := b.q.NextAvailableAt(); ok {
		s.NextAvailableMs = at.UnixMilli()
	}
	return s, nil
}

// Size returns the number of indexed messages.
func (b *Broker) Size() int { return b.q.Size() }

// Close closes the queue. The shared database is owned by the caller.
func (b *Broker) Close() error { return b.q.Close() }
