package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/hexboltmq/hexboltmq/internal/queue"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
)

// Store persists message records for one named queue. The in-memory index
// remains the source of truth for delivery ordering; the store exists so a
// restart can repopulate it. Live records are written after push and deleted
// after acknowledge or dead-letter diversion.
type Store struct {
	db   *pebblestore.DB
	name string
}

// Open binds a Store to a queue name within the shared database.
func Open(db *pebblestore.DB, name string) *Store {
	return &Store{db: db, name: name}
}

// Save writes or overwrites the live record for the message.
func (s *Store) Save(ctx context.Context, m queue.Message) error {
	_ = ctx
	if err := s.db.Set(msgKey(s.name, m.ID), encodeMessage(m)); err != nil {
		return fmt.Errorf("store: save message %d: %w", m.ID, err)
	}
	return nil
}

// Load returns the live record for id. The second result reports presence.
func (s *Store) Load(ctx context.Context, id uint64) (queue.Message, bool, error) {
	_ = ctx
	val, err := s.db.Get(msgKey(s.name, id))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return queue.Message{}, false, nil
		}
		return queue.Message{}, false, fmt.Errorf("store: load message %d: %w", id, err)
	}
	m, err := decodeMessage(val)
	if err != nil {
		return queue.Message{}, false, fmt.Errorf("store: message %d: %w", id, err)
	}
	return m, true, nil
}

// LoadAll returns every live record, in id order.
func (s *Store) LoadAll(ctx context.Context) ([]queue.Message, error) {
	return s.scan(ctx, msgPrefix(s.name))
}

// Delete removes the live record for id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id uint64) error {
	_ = ctx
	if err := s.db.Delete(msgKey(s.name, id)); err != nil {
		return fmt.Errorf("store: delete message %d: %w", id, err)
	}
	return nil
}

// SaveDeadLetter writes the message into the terminal dead-letter region.
func (s *Store) SaveDeadLetter(ctx context.Context, m queue.Message) error {
	_ = ctx
	if err := s.db.Set(dlqKey(s.name, m.ID), encodeMessage(m)); err != nil {
		return fmt.Errorf("store: save dead letter %d: %w", m.ID, err)
	}
	return nil
}

// ListDeadLetters returns every dead-letter record, in id order.
func (s *Store) ListDeadLetters(ctx context.Context) ([]queue.Message, error) {
	return s.scan(ctx, dlqPrefix(s.name))
}

// DeadLetterCount returns the number of dead-letter records.
func (s *Store) DeadLetterCount(ctx context.Context) (int, error) {
	msgs, err := s.ListDeadLetters(ctx)
	if err != nil {
		return 0, err
	}
	return len(msgs), nil
}

func (s *Store) scan(_ context.Context, prefix []byte) ([]queue.Message, error) {
	lo, hi := keyRange(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, fmt.Errorf("store: iterator: %w", err)
	}
	defer iter.Close()

	var out []queue.Message
	for ok := iter.First(); ok; ok = iter.Next() {
		m, err := decodeMessage(iter.Value())
		if err != nil {
			// skip undecodable records rather than failing repopulation
			continue
		}
		out = append(out, m)
	}
	return out, iter.Error()
}
