package queue

import "time"

// Message is a unit of delivery.
//
// Identity for acknowledge/removal purposes is ID alone; payload, priority,
// and timestamps are not part of identity. ID uniqueness is a caller
// invariant (see pkg/id). Messages are never mutated while indexed: any
// change to an ordering-relevant field goes through remove-then-reinsert.
type Message struct {
	// ID is the unique integer identifier, producer-assigned.
	ID uint64 `json:"id"`
	// Payload is an opaque blob; the queue never interprets it.
	Payload []byte `json:"payload"`
	// Priority orders ready messages; higher means more urgent.
	Priority uint32 `json:"priority"`
	// AvailableAt is the instant before which the message must not be
	// handed to a consumer. Zero delay means "available at enqueue time".
	AvailableAt time.Time `json:"available_at"`
	// RetryCount is the number of redelivery attempts so far.
	RetryCount int `json:"retry_count"`
	// MaxRetries caps RetryCount; once reached the message is diverted to
	// the dead-letter sink and never redelivered through the normal path.
	MaxRetries int `json:"max_retries"`
}
