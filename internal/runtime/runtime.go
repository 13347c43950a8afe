package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/hexboltmq/hexboltmq/internal/broker"
	cfgpkg "github.com/hexboltmq/hexboltmq/internal/config"
	"github.com/hexboltmq/hexboltmq/internal/metrics"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
	"github.com/hexboltmq/hexboltmq/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval int // milliseconds, used when Fsync is interval mode
	Config        cfgpkg.Config
	Logger        log.Logger
}

// Runtime wires storage, config, metrics, and the queue registry for a
// single-node instance.
type Runtime struct {
	db       *pebblestore.DB
	config   cfgpkg.Config
	metrics  *metrics.Metrics
	registry *broker.Registry
	logger   log.Logger
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	m := metrics.New()
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: intervalDuration(opts.FsyncInterval),
		Metrics:       m,
	})
	if err != nil {
		return nil, err
	}
	reg, err := broker.NewRegistry(db, opts.Config, m, logger, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Runtime{
		db:       db,
		config:   opts.Config,
		metrics:  m,
		registry: reg,
		logger:   logger,
	}, nil
}

// Close closes the registry and underlying resources.
func (r *Runtime) Close() error {
	var firstErr error
	if r.registry != nil {
		if err := r.registry.Close(); err != nil {
			firstErr = err
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	_ = ctx
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Queue returns the broker for a queue name, creating it when configuration
// allows.
func (r *Runtime) Queue(ctx context.Context, name string) (*broker.Broker, error) {
	return r.registry.Get(ctx, name)
}

// QueueNames returns the open queue names.
func (r *Runtime) QueueNames() []string { return r.registry.Names() }

// Metrics returns the runtime's metrics collectors.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

func intervalDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
