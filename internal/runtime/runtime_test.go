package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/hexboltmq/hexboltmq/internal/config"
	"github.com/hexboltmq/hexboltmq/internal/queue"
	pebblestore "github.com/hexboltmq/hexboltmq/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestQueueRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()
	q, err := rt.Queue(ctx, "jobs")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if _, err := q.Push(ctx, queue.Message{ID: 1, Payload: []byte("hello")}, 0); err != nil {
		t.Fatalf("push: %v", err)
	}
	m, err := q.Pop(ctx)
	if err != nil || m.ID != 1 {
		t.Fatalf("pop: %v %v", m, err)
	}
	names := rt.QueueNames()
	if len(names) != 1 || names[0] != "jobs" {
		t.Fatalf("names: %v", names)
	}
}
