package queue

import (
	"context"
	"sync"
	"time"

	"github.com/hexboltmq/hexboltmq/pkg/clock"
	"github.com/hexboltmq/hexboltmq/pkg/log"
)

// DeadLetterSink receives messages that exhausted their retry budget. Record
// must either durably keep the message or return an error; it must never
// silently discard.
type DeadLetterSink interface {
	Record(ctx context.Context, m Message) error
}

// Disposition is the terminal outcome of a Retry call.
type Disposition int

const (
	// DispositionRequeued means the message was reinserted with backoff.
	DispositionRequeued Disposition = iota + 1
	// DispositionDeadLettered means the retry budget was exhausted and the
	// message was handed to the dead-letter sink. This is a successful
	// terminal outcome, not a failure.
	DispositionDeadLettered
)

func (d Disposition) String() string {
	switch d {
	case DispositionRequeued:
		return "requeued"
	case DispositionDeadLettered:
		return "dead-lettered"
	default:
		return "unknown"
	}
}

// DelayedQueue orders messages by scheduled availability and priority and
// hands them out under a single exclusive-access boundary.
//
// Ownership: the queue owns every indexed message. Ownership transfers to the
// caller on Pop/PopBatch and reverts on Retry. No operation suspends while
// holding the lock; the retry backoff is enforced by reinserting with a
// future AvailableAt and letting the readiness gate do the waiting.
type DelayedQueue struct {
	mu     sync.Mutex
	idx    *orderingIndex
	closed bool

	clk      clock.Clock
	policy   RetryPolicy
	sink     DeadLetterSink
	capacity int
	logger   log.Logger
}

// Option configures a DelayedQueue.
type Option func(*DelayedQueue)

// WithClock sets the readiness time source. Defaults to the system monotonic
// clock.
func WithClock(c clock.Clock) Option {
	return func(q *DelayedQueue) { q.clk = c }
}

// WithCapacity bounds the number of indexed messages; Push fails with
// CapacityError when full. Zero means unbounded (the default).
func WithCapacity(n int) Option {
	return func(q *DelayedQueue) { q.capacity = n }
}

// WithRetryPolicy sets the backoff policy for Retry.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(q *DelayedQueue) { q.policy = p }
}

// WithDeadLetterSink sets the sink for messages that exhaust their retries.
func WithDeadLetterSink(s DeadLetterSink) Option {
	return func(q *DelayedQueue) { q.sink = s }
}

// WithLogger sets the queue's logger.
func WithLogger(l log.Logger) Option {
	return func(q *DelayedQueue) { q.logger = l }
}

// New builds a DelayedQueue.
func New(opts ...Option) *DelayedQueue {
	q := &DelayedQueue{
		idx:    newOrderingIndex(),
		clk:    clock.System(),
		policy: DefaultRetryPolicy(),
		logger: log.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push inserts the message, overriding AvailableAt with now+delay. Negative
// delays are treated as zero.
func (q *DelayedQueue) Push(m Message, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	now := q.clk.Now()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if q.capacity > 0 && q.idx.len() >= q.capacity {
		return &CapacityError{Capacity: q.capacity}
	}
	msg := m
	msg.AvailableAt = now.Add(delay)
	q.idx.insert(&msg, now)
	return nil
}

// Pop removes and returns the most urgent ready message. It returns ErrEmpty
// when nothing is indexed and ErrNotReady when messages exist but none has
// reached its availability time; both are normal outcomes. The peek and the
// conditional removal are one atomic step under the lock.
func (q *DelayedQueue) Pop() (*Message, error) {
	now := q.clk.Now()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	q.idx.promote(now)
	if m := q.idx.popReady(); m != nil {
		return m, nil
	}
	if q.idx.len() == 0 {
		return nil, ErrEmpty
	}
	return nil, ErrNotReady
}

// PopBatch removes and returns up to n ready messages in delivery order. It
// halts at the first not-yet-ready element: the index keeps the most-ready
// candidate on top, so a non-ready top implies no ready element remains.
// The result may be shorter than n or empty; PopBatch never blocks.
func (q *DelayedQueue) PopBatch(n int) ([]*Message, error) {
	if n <= 0 {
		return nil, nil
	}
	now := q.clk.Now()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrClosed
	}
	q.idx.promote(now)
	var out []*Message
	for len(out) < n {
		m := q.idx.popReady()
		if m == nil {
			break
		}
		out = append(out, m)
	}
	return out, nil
}

// Acknowledge removes the indexed message with the given id. It reports
// whether a message was removed; acknowledging an absent or already-delivered
// id is an idempotent no-op, never an error.
func (q *DelayedQueue) Acknowledge(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	_, ok := q.idx.remove(id)
	return ok
}

// Retry resolves a failed delivery. If the retry budget is exhausted the
// message goes to the dead-letter sink and DispositionDeadLettered is
// returned. Otherwise the message is reinserted with an incremented
// RetryCount and a backoff-delayed AvailableAt; the reinserted value is
// returned alongside DispositionRequeued.
//
// Reinsertion ignores the capacity bound: a full queue must not strand a
// message that is neither indexed nor dead-lettered.
func (q *DelayedQueue) Retry(ctx context.Context, m Message) (Disposition, *Message, error) {
	if m.RetryCount >= m.MaxRetries {
		if err := q.PushToDeadLetter(ctx, m); err != nil {
			return 0, nil, err
		}
		q.logger.Info("message dead-lettered",
			log.Uint64("id", m.ID), log.Int("retries", m.RetryCount))
		return DispositionDeadLettered, nil, nil
	}

	next := m
	next.RetryCount++
	backoff := q.policy.Delay(next.RetryCount)
	now := q.clk.Now()
	next.AvailableAt = now.Add(backoff)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, nil, ErrClosed
	}
	stored := next
	q.idx.insert(&stored, now)
	q.mu.Unlock()

	q.logger.Debug("message requeued with backoff",
		log.Uint64("id", next.ID), log.Int("retry", next.RetryCount), log.Dur("backoff", backoff))
	ret := next
	return DispositionRequeued, &ret, nil
}

// PushToDeadLetter hands the message to the configured sink. Failures are
// surfaced as DeadLetterError and logged loudly; the message is never
// silently dropped. The sink call happens outside the queue lock since it
// may perform I/O.
func (q *DelayedQueue) PushToDeadLetter(ctx context.Context, m Message) error {
	if q.sink == nil {
		err := &DeadLetterError{ID: m.ID, Err: ErrNoDeadLetterSink}
		q.logger.Error("dead-letter diversion failed", log.Uint64("id", m.ID), log.Err(err))
		return err
	}
	if err := q.sink.Record(ctx, m); err != nil {
		wrapped := &DeadLetterError{ID: m.ID, Err: err}
		q.logger.Error("dead-letter sink rejected message", log.Uint64("id", m.ID), log.Err(err))
		return wrapped
	}
	return nil
}

// Size returns the current element count. Advisory only: it may be stale the
// moment it returns under concurrent access.
func (q *DelayedQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idx.len()
}

// NextAvailableAt reports when the earliest indexed message becomes (or
// became) available, for consumers that want to sleep precisely.
func (q *DelayedQueue) NextAvailableAt() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if m := q.idx.peekReady(); m != nil {
		return m.AvailableAt, true
	}
	return q.idx.nextAvailableAt()
}

// Close marks the queue closed. Subsequent operations fail with ErrClosed.
func (q *DelayedQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
