// Package queue implements the broker core: a delayed priority queue with
// bounded retries, exponential backoff, and a dead-letter path.
//
// # Ordering
//
// Two sort keys compete: scheduled availability and priority. The index keeps
// future-dated messages in a heap ordered by availability and ready messages
// in a heap ordered by priority; due messages are promoted between them on
// every pop. The effect is the contract consumers care about:
//
//   - A message is never delivered before its availability time.
//   - Among ready messages, the highest priority is always delivered first.
//   - A single peek decides whether anything is deliverable right now.
//
// # Message lifecycle
//
//	Pending (future-dated) -> Ready -> Delivered (popped, caller-owned)
//	   -> Acknowledged (terminal)
//	   -> Retried -> Pending (backoff-delayed reinsertion)
//	   -> DeadLettered (terminal, retry budget exhausted)
//
// # Concurrency
//
// One mutex guards the index. No operation suspends, sleeps, or performs I/O
// while holding it; in particular the retry backoff is never an in-lock wait
// but a future AvailableAt that the readiness gate enforces. Operations are
// linearizable with respect to the lock; concurrent poppers race for the top
// element with no fairness guarantee beyond mutual exclusion.
//
// # Failure semantics
//
// Empty and not-ready are reportable outcomes (ErrEmpty, ErrNotReady), not
// failures. Exhausting the retry budget is a successful terminal disposition.
// Only sink rejections and closed-queue operations are real errors.
package queue
