package producer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hexboltmq/hexboltmq/internal/broker"
	"github.com/hexboltmq/hexboltmq/internal/queue"
	"github.com/hexboltmq/hexboltmq/pkg/id"
	"github.com/hexboltmq/hexboltmq/pkg/log"
)

// Producer pushes messages onto one queue, assigning chronologically sortable
// ids. Safe for concurrent use.
type Producer struct {
	name   string
	broker *broker.Broker
	gen    *id.Generator
	logger log.Logger
}

// New builds a Producer over the given broker. Each producer carries a random
// identity for log correlation.
func New(b *broker.Broker, logger log.Logger) *Producer {
	if logger == nil {
		logger = log.Nop()
	}
	name := uuid.NewString()
	return &Producer{
		name:   name,
		broker: b,
		gen:    id.NewGenerator(),
		logger: logger.WithComponent("producer").With(log.Str("producer", name)),
	}
}

// Name returns the producer's identity.
func (p *Producer) Name() string { return p.name }

// Send pushes a payload with the given priority, scheduled after delay. The
// retry budget defaults from queue configuration. It returns the assigned id.
func (p *Producer) Send(ctx context.Context, payload []byte, priority uint32, delay time.Duration) (uint64, error) {
	msgID := p.gen.Next().Uint64()
	m := queue.Message{
		ID:       msgID,
		Payload:  payload,
		Priority: priority,
	}
	if _, err := p.broker.Push(ctx, m, delay); err != nil {
		return 0, err
	}
	p.logger.Debug("message sent",
		log.Uint64("id", msgID), log.Int("bytes", len(payload)), log.Dur("delay", delay))
	return msgID, nil
}
