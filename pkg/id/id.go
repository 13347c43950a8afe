package id

import (
	"strconv"
	"sync"
	"time"
)

// Message ids are 64-bit and numerically sortable:
// [42 bits ms_timestamp][22 bits sequence].
const (
	seqBits = 22
	seqMask = (1 << seqBits) - 1
)

// ID is a 64-bit, chronologically sortable message identifier.
type ID uint64

// Uint64 returns the raw value.
func (i ID) Uint64() uint64 { return uint64(i) }

// String returns the decimal representation.
func (i ID) String() string { return strconv.FormatUint(uint64(i), 10) }

// Time returns the millisecond timestamp embedded in the id.
func (i ID) Time() time.Time {
	ms := int64(i >> seqBits)
	return time.UnixMilli(ms)
}

// NowMs returns current time in milliseconds since Unix epoch. Overridable in tests.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Generator produces strictly increasing IDs per process.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint64
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// Next returns a new ID. If the clock regresses, it pins to the last seen
// millisecond and keeps incrementing the sequence. If the sequence would
// overflow within one millisecond, it waits for the next millisecond.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	if ms == g.lastMs {
		if g.sequence == seqMask {
			for {
				ms = NowMs()
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.sequence = 0
		} else {
			g.sequence++
		}
	} else {
		g.sequence = 0
	}

	g.lastMs = ms
	return make64(ms, g.sequence)
}

func make64(ms int64, seq uint64) ID {
	return ID(uint64(ms)<<seqBits | (seq & seqMask))
}
