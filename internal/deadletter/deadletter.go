package deadletter

import (
	"context"
	"sync"

	"github.com/hexboltmq/hexboltmq/internal/queue"
	"github.com/hexboltmq/hexboltmq/internal/store"
)

// MemorySink keeps dead-lettered messages in memory. Suitable for embedded
// use and tests; a process restart loses the records.
type MemorySink struct {
	mu       sync.Mutex
	messages []queue.Message
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// Record implements queue.DeadLetterSink.
func (s *MemorySink) Record(_ context.Context, m queue.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

// Messages returns a snapshot of the recorded messages.
func (s *MemorySink) Messages() []queue.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]queue.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of recorded messages.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// StoreSink records dead-lettered messages durably in the store's dead-letter
// region. Record returns the store error unchanged, so a rejected message is
// always reported, never dropped.
type StoreSink struct {
	store *store.Store
}

// NewStoreSink binds a sink to a message store.
func NewStoreSink(s *store.Store) *StoreSink { return &StoreSink{store: s} }

// Record implements queue.DeadLetterSink.
func (s *StoreSink) Record(ctx context.Context, m queue.Message) error {
	return s.store.SaveDeadLetter(ctx, m)
}

var (
	_ queue.DeadLetterSink = (*MemorySink)(nil)
	_ queue.DeadLetterSink = (*StoreSink)(nil)
)
