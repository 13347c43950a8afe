package broker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/hexboltmq/hexboltmq/internal/config"
	"github.com/hexboltmq/hexboltmq/internal/metrics"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
	"github.com/hexboltmq/hexboltmq/pkg/clock"
	"github.com/hexboltmq/hexboltmq/pkg/log"
)

var (
	// ErrInvalidQueueName reports a name rejected by the configured pattern.
	ErrInvalidQueueName = errors.New("broker: invalid queue name")
	// ErrUnknownQueue reports a missing queue when auto-create is disabled.
	ErrUnknownQueue = errors.New("broker: unknown queue")
	// ErrTooManyQueues reports the configured queue count bound.
	ErrTooManyQueues = errors.New("broker: too many queues")
)

// Registry manages the set of named queues over one shared database. Queues
// are created lazily on first use when configuration allows it.
type Registry struct {
	db      *pebblestore.DB
	cfg     config.Config
	metrics *metrics.Metrics
	logger  log.Logger
	clk     clock.Clock
	nameRe  *regexp.Regexp

	mu      sync.Mutex
	brokers map[string]*Broker
}

// NewRegistry builds a Registry. The name pattern from configuration is
// anchored so partial matches never pass.
func NewRegistry(db *pebblestore.DB, cfg config.Config, m *metrics.Metrics, logger log.Logger, clk clock.Clock) (*Registry, error) {
	re, err := regexp.Compile("^(?:" + cfg.QueueNameRegex + ")$")
	if err != nil {
		return nil, fmt.Errorf("broker: queue name regex: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Registry{
		db:      db,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		clk:     clk,
		nameRe:  re,
		brokers: make(map[string]*Broker),
	}, nil
}

// Get returns the broker for name, creating it when configuration allows.
// An empty name resolves to the configured default queue.
func (r *Registry) Get(ctx context.Context, name string) (*Broker, error) {
	if name == "" {
		name = r.cfg.DefaultQueueName
	}
	if !r.nameRe.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQueueName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.brokers[name]; ok {
		return b, nil
	}
	if !r.cfg.AllowAutoCreateQueues {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueue, name)
	}
	if r.cfg.MaxQueues > 0 && len(r.brokers) >= r.cfg.MaxQueues {
		return nil, ErrTooManyQueues
	}

	b, err := Open(ctx, r.db, name, Options{
		Defaults: r.cfg.QueueDefaults,
		Metrics:  r.metrics,
		Logger:   r.logger,
		Clock:    r.clk,
	})
	if err != nil {
		return nil, err
	}
	r.brokers[name] = b
	r.logger.Info("queue opened", log.Str("queue", name))
	return b, nil
}

// Names returns the open queue names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.brokers))
	for name := range r.brokers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close closes every open broker. The shared database is owned by the caller.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for _, b := range r.brokers {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.brokers = make(map[string]*Broker)
	return firstErr
}
