package queue

import (
	"container/heap"
	"time"
)

// orderingIndex maintains the multiset of indexed messages across two heaps:
//
//   - ready: messages whose AvailableAt has elapsed, ordered by priority
//     descending (ties: earlier AvailableAt first).
//   - delayed: future-dated messages ordered by AvailableAt ascending
//     (ties: higher priority first).
//
// promote moves due messages from delayed to ready; after a promote at time
// now, a single peek of the ready top decides whether anything is deliverable,
// and an empty ready heap implies no element anywhere is ready. byID supports
// removal by identity in O(log n) for acknowledge.
//
// Not safe for concurrent use; DelayedQueue serializes access.
type orderingIndex struct {
	ready   entryHeap
	delayed entryHeap
	byID    map[uint64]*entry
}

type entry struct {
	msg *Message
	pos int
	h   *entryHeap
}

func newOrderingIndex() *orderingIndex {
	ix := &orderingIndex{byID: make(map[uint64]*entry)}
	ix.ready.less = func(a, b *Message) bool {
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.AvailableAt.Before(b.AvailableAt)
	}
	ix.delayed.less = func(a, b *Message) bool {
		if !a.AvailableAt.Equal(b.AvailableAt) {
			return a.AvailableAt.Before(b.AvailableAt)
		}
		return a.Priority > b.Priority
	}
	return ix
}

func (ix *orderingIndex) len() int { return ix.ready.Len() + ix.delayed.Len() }

// insert files the message under the heap matching its readiness at now.
func (ix *orderingIndex) insert(m *Message, now time.Time) {
	e := &entry{msg: m}
	if m.AvailableAt.After(now) {
		heap.Push(&ix.delayed, e)
	} else {
		heap.Push(&ix.ready, e)
	}
	ix.byID[m.ID] = e
}

// promote moves every message due at now from delayed to ready. It stops at
// the first future-dated top: delayed is ordered by AvailableAt, so nothing
// deeper can be due.
func (ix *orderingIndex) promote(now time.Time) {
	for ix.delayed.Len() > 0 {
		top := ix.delayed.entries[0]
		if top.msg.AvailableAt.After(now) {
			break
		}
		heap.Pop(&ix.delayed)
		heap.Push(&ix.ready, top)
	}
}

// peekReady returns the most urgent ready message without removing it, or nil.
func (ix *orderingIndex) peekReady() *Message {
	if ix.ready.Len() == 0 {
		return nil
	}
	return ix.ready.entries[0].msg
}

// popReady removes and returns the most urgent ready message, or nil.
func (ix *orderingIndex) popReady() *Message {
	if ix.ready.Len() == 0 {
		return nil
	}
	e := heap.Pop(&ix.ready).(*entry)
	ix.unmap(e)
	return e.msg
}

// nextAvailableAt reports the earliest future availability among delayed
// messages.
func (ix *orderingIndex) nextAvailableAt() (time.Time, bool) {
	if ix.delayed.Len() == 0 {
		return time.Time{}, false
	}
	return ix.delayed.entries[0].msg.AvailableAt, true
}

// remove deletes the indexed message with the given id, from whichever heap
// holds it. Reports false when no such message is indexed.
func (ix *orderingIndex) remove(id uint64) (*Message, bool) {
	e, ok := ix.byID[id]
	if !ok {
		return nil, false
	}
	heap.Remove(e.h, e.pos)
	ix.unmap(e)
	return e.msg, true
}

func (ix *orderingIndex) unmap(e *entry) {
	// Guard against a duplicate-id push having remapped the slot.
	if cur, ok := ix.byID[e.msg.ID]; ok && cur == e {
		delete(ix.byID, e.msg.ID)
	}
}

// entryHeap implements heap.Interface over entries with positional
// bookkeeping, so removal by identity stays logarithmic.
type entryHeap struct {
	entries []*entry
	less    func(a, b *Message) bool
}

func (h *entryHeap) Len() int { return len(h.entries) }

func (h *entryHeap) Less(i, j int) bool { return h.less(h.entries[i].msg, h.entries[j].msg) }

func (h *entryHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].pos = i
	h.entries[j].pos = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.pos = len(h.entries)
	e.h = h
	h.entries = append(h.entries, e)
}

func (h *entryHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries[n-1] = nil
	h.entries = h.entries[:n-1]
	e.pos = -1
	e.h = nil
	return e
}
