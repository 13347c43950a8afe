package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexboltmq/hexboltmq/internal/config"
	"github.com/hexboltmq/hexboltmq/internal/queue"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
	"github.com/hexboltmq/hexboltmq/pkg/clock"
)

func openTestDB(t *testing.T) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDefaults() config.QueueDefaults {
	d := config.Default().QueueDefaults
	d.RetryBackoffBaseMs = 1000
	d.RetryBackoffMaxMs = 60_000
	return d
}

func TestPushPopAck(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))

	b, err := Open(ctx, db, "orders", Options{Defaults: testDefaults(), Clock: clk})
	require.NoError(t, err)

	_, err = b.Push(ctx, queue.Message{ID: 1, Payload: []byte("low"), Priority: 1}, 0)
	require.NoError(t, err)
	_, err = b.Push(ctx, queue.Message{ID: 2, Payload: []byte("high"), Priority: 9}, 0)
	require.NoError(t, err)

	m, err := b.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.ID)
	require.NoError(t, b.Ack(ctx, m.ID))

	m, err = b.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.ID)
	require.NoError(t, b.Ack(ctx, m.ID))

	_, err = b.Pop(ctx)
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestRestartRepopulates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))

	b, err := Open(ctx, db, "orders", Options{Defaults: testDefaults(), Clock: clk})
	require.NoError(t, err)

	_, err = b.Push(ctx, queue.Message{ID: 1, Payload: []byte("ready")}, 0)
	require.NoError(t, err)
	_, err = b.Push(ctx, queue.Message{ID: 2, Payload: []byte("later")}, 5*time.Second)
	require.NoError(t, err)

	// Acknowledged messages must not come back after a restart.
	m, err := b.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), m.ID)
	require.NoError(t, b.Ack(ctx, m.ID))
	require.NoError(t, b.Close())

	b2, err := Open(ctx, db, "orders", Options{Defaults: testDefaults(), Clock: clk})
	require.NoError(t, err)
	assert.Equal(t, 1, b2.Size())

	// The surviving message still waits out its original delay.
	_, err = b2.Pop(ctx)
	assert.ErrorIs(t, err, queue.ErrNotReady)
	clk.Advance(5 * time.Second)
	m, err = b2.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.ID)
}

func TestRetryLifecycleAndDeadLetters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))

	b, err := Open(ctx, db, "orders", Options{Defaults: testDefaults(), Clock: clk})
	require.NoError(t, err)

	_, err = b.Push(ctx, queue.Message{ID: 7, Payload: []byte(`{"kind":"charge"}`), MaxRetries: 1}, 0)
	require.NoError(t, err)

	m, err := b.Pop(ctx)
	require.NoError(t, err)

	disp, next, err := b.Retry(ctx, *m)
	require.NoError(t, err)
	require.Equal(t, queue.DispositionRequeued, disp)
	assert.Equal(t, 1, next.RetryCount)

	// Not ready again until the backoff elapses.
	_, err = b.Pop(ctx)
	assert.ErrorIs(t, err, queue.ErrNotReady)
	clk.Advance(2 * time.Second)

	m, err = b.Pop(ctx)
	require.NoError(t, err)
	disp, _, err = b.Retry(ctx, *m)
	require.NoError(t, err)
	require.Equal(t, queue.DispositionDeadLettered, disp)

	dead, err := b.DeadLetters(ctx, "")
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, uint64(7), dead[0].ID)

	// A dead-lettered message is terminal: it survives restart only in the
	// dead-letter region.
	require.NoError(t, b.Close())
	b2, err := Open(ctx, db, "orders", Options{Defaults: testDefaults(), Clock: clk})
	require.NoError(t, err)
	assert.Equal(t, 0, b2.Size())
	dead, err = b2.DeadLetters(ctx, "")
	require.NoError(t, err)
	assert.Len(t, dead, 1)
}

func TestDeadLetterFilter(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))

	b, err := Open(ctx, db, "orders", Options{Defaults: testDefaults(), Clock: clk})
	require.NoError(t, err)

	payloads := map[uint64]string{
		1: `{"kind":"charge","amount":100}`,
		2: `{"kind":"refund","amount":5}`,
	}
	for _, id := range []uint64{1, 2} {
		// MaxRetries -1 sends the first failure straight to the dead letter
		// region.
		_, err := b.Push(ctx, queue.Message{ID: id, Payload: []byte(payloads[id]), MaxRetries: -1}, 0)
		require.NoError(t, err)
		popped, err := b.Pop(ctx)
		require.NoError(t, err)
		disp, _, err := b.Retry(ctx, *popped)
		require.NoError(t, err)
		require.Equal(t, queue.DispositionDeadLettered, disp)
	}

	dead, err := b.DeadLetters(ctx, `json.kind == "charge"`)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, uint64(1), dead[0].ID)

	dead, err = b.DeadLetters(ctx, `text.contains("refund")`)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, uint64(2), dead[0].ID)

	_, err = b.DeadLetters(ctx, "not a valid ((( expression")
	assert.Error(t, err)
}

func TestBatchClampAndPayloadLimit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))

	d := testDefaults()
	d.BatchMax = 2
	d.PayloadMaxBytes = 8
	b, err := Open(ctx, db, "orders", Options{Defaults: d, Clock: clk})
	require.NoError(t, err)

	_, err = b.Push(ctx, queue.Message{ID: 1, Payload: []byte("way too large payload")}, 0)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	for id := uint64(1); id <= 4; id++ {
		_, err := b.Push(ctx, queue.Message{ID: id, Payload: []byte("ok")}, 0)
		require.NoError(t, err)
	}
	msgs, err := b.PopBatch(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cfg := config.Default()
	cfg.MaxQueues = 2

	r, err := NewRegistry(db, cfg, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	// Empty name resolves to the default queue.
	b, err := r.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "default", b.Name())

	// Same name returns the same broker.
	again, err := r.Get(ctx, "default")
	require.NoError(t, err)
	assert.Same(t, b, again)

	_, err = r.Get(ctx, "Orders!")
	assert.ErrorIs(t, err, ErrInvalidQueueName)

	_, err = r.Get(ctx, "jobs")
	require.NoError(t, err)
	_, err = r.Get(ctx, "third")
	assert.ErrorIs(t, err, ErrTooManyQueues)

	assert.Equal(t, []string{"default", "jobs"}, r.Names())
}

func TestRegistryAutoCreateDisabled(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cfg := config.Default()
	cfg.AllowAutoCreateQueues = false

	r, err := NewRegistry(db, cfg, nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Get(ctx, "orders")
	assert.True(t, errors.Is(err, ErrUnknownQueue))
}
