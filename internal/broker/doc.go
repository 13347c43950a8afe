// Package broker composes the delivery core with its collaborators: the
// durable message store, the dead-letter sink, metrics, and per-queue
// configuration. A Registry manages the set of named queues over one shared
// database, creating them lazily when configuration allows.
//
// Persistence follows delivery state. A record is written on push, rewritten
// on requeue, and removed once the message reaches a terminal state. On
// startup the broker repopulates its in-memory index from the store,
// recomputing remaining delays against the wall clock.
package broker
