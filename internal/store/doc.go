// Package store implements the persistence collaborator for the queue core:
// save/load/load-all/delete of live message records plus the dead-letter
// region, over the shared Pebble database.
//
// Records are length-prefixed binary with a crc32c (Castagnoli) trailer; see
// codec.go for the layout. The store never participates in delivery
// decisions: a deployment saves after push, deletes after acknowledge or
// dead-letter, and repopulates the in-memory index from LoadAll on startup.
package store
