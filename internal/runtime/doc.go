// Package runtime wires storage, config, metrics, and the queue registry
// into a single-node hexboltmq instance. It exposes Open/Close, basic health
// checks, and access to named queues used by higher-level surfaces.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Open a queue and push
//	q, _ := rt.Queue(context.Background(), "orders")
//	_, _ = q.Push(context.Background(), queue.Message{ID: 1, Payload: []byte("hello")}, 0)
package runtime
