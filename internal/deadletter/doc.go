// Package deadletter provides the sinks behind the queue's dead-letter path:
// an in-memory sink for embedded use and tests, and a durable sink over the
// store's dead-letter region.
package deadletter
