// Package id generates 64-bit, chronologically sortable message identifiers.
//
// # Format
//
// An ID packs [42 bits ms_timestamp][22 bits sequence] into a uint64, so
// numeric comparison preserves creation order and up to ~4.2M ids can be
// minted per millisecond.
//
// # Monotonicity
//
// The Generator guarantees per-process strict monotonicity:
//   - If the system clock regresses, it pins to the last seen millisecond and
//     advances the sequence instead.
//   - If the sequence would overflow within a millisecond, it waits for the
//     next millisecond before emitting.
//
// Queue message-id uniqueness is a caller invariant; producers discharge it by
// drawing ids from a Generator.
package id
