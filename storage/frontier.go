package storage

import (
	linkgraph "github.com/will-x86/linkgraph"
)

// Frontier is the FIFO work queue driving breadth-first expansion.
// It is only touched by the scheduler's coordinating goroutine and does no locking.
type Frontier interface {
	Push(entry linkgraph.FrontierEntry)
	Pop() (linkgraph.FrontierEntry, bool)
	Peek() (linkgraph.FrontierEntry, bool)
	PopBatch(max int) []linkgraph.FrontierEntry
	Len() int
}

type MemoryFrontier struct {
	entries []linkgraph.FrontierEntry
	head    int
}

func NewMemoryFrontier() *MemoryFrontier {
	return &MemoryFrontier{}
}

func (f *MemoryFrontier) Push(entry linkgraph.FrontierEntry) {
	f.entries = append(f.entries, entry)
}

func (f *MemoryFrontier) Pop() (linkgraph.FrontierEntry, bool) {
	if f.head >= len(f.entries) {
		return linkgraph.FrontierEntry{}, false
	}

	entry := f.entries[f.head]
	f.entries[f.head] = linkgraph.FrontierEntry{}
	f.head++
	f.compact()
	return entry, true
}

func (f *MemoryFrontier) Peek() (linkgraph.FrontierEntry, bool) {
	if f.head >= len(f.entries) {
		return linkgraph.FrontierEntry{}, false
	}
	return f.entries[f.head], true
}

// PopBatch returns up to max entries in FIFO order; fewer when the queue is shorter.
func (f *MemoryFrontier) PopBatch(max int) []linkgraph.FrontierEntry {
	n := min(max, f.Len())
	if n <= 0 {
		return nil
	}

	batch := make([]linkgraph.FrontierEntry, n)
	copy(batch, f.entries[f.head:f.head+n])
	clear(f.entries[f.head : f.head+n])
	f.head += n
	f.compact()
	return batch
}

func (f *MemoryFrontier) Len() int {
	return len(f.entries) - f.head
}

// compact releases the consumed prefix once it dominates the backing array.
func (f *MemoryFrontier) compact() {
	if f.head == len(f.entries) {
		f.entries = f.entries[:0]
		f.head = 0
		return
	}
	if f.head > 64 && f.head*2 > len(f.entries) {
		n := copy(f.entries, f.entries[f.head:])
		f.entries = f.entries[:n]
		f.head = 0
	}
}
