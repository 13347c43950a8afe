package queue

import (
	"errors"
	"fmt"
)

// Sentinel outcomes. ErrEmpty and ErrNotReady are normal "nothing to do"
// results from Pop, not operational failures.
var (
	// ErrEmpty reports that the queue holds no messages at all.
	ErrEmpty = errors.New("queue: empty")
	// ErrNotReady reports that messages exist but none is available yet.
	ErrNotReady = errors.New("queue: no message ready")
	// ErrClosed reports an operation against a closed queue.
	ErrClosed = errors.New("queue: closed")
	// ErrNoDeadLetterSink reports a dead-letter diversion with no sink
	// configured. The message is reported as failed, never silently dropped.
	ErrNoDeadLetterSink = errors.New("queue: no dead-letter sink configured")
)

// CapacityError reports a Push against a bounded queue that is full.
type CapacityError struct {
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("queue: at capacity (%d messages)", e.Capacity)
}

// DeadLetterError reports that the dead-letter sink rejected a message. This
// is the last line of defense against silent loss, so callers must surface it.
type DeadLetterError struct {
	ID  uint64
	Err error
}

func (e *DeadLetterError) Error() string {
	return fmt.Sprintf("queue: dead-letter sink failed for message %d: %v", e.ID, e.Err)
}

func (e *DeadLetterError) Unwrap() error { return e.Err }
