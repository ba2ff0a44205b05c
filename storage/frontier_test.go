package storage

import (
	"fmt"
	"testing"

	linkgraph "github.com/will-x86/linkgraph"
)

func TestMemoryFrontier_FIFO(t *testing.T) {
	f := NewMemoryFrontier()

	if _, ok := f.Pop(); ok {
		t.Fatal("Pop() on empty frontier returned ok")
	}
	if batch := f.PopBatch(5); len(batch) != 0 {
		t.Fatalf("PopBatch() on empty frontier = %v", batch)
	}

	for i := range 7 {
		f.Push(linkgraph.FrontierEntry{URL: fmt.Sprintf("https://example.com/%d", i), Depth: i / 3})
	}

	if f.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", f.Len())
	}

	peeked, ok := f.Peek()
	if !ok || peeked.URL != "https://example.com/0" {
		t.Fatalf("Peek() = %+v, %v", peeked, ok)
	}
	if f.Len() != 7 {
		t.Fatalf("Peek() consumed an entry, Len() = %d", f.Len())
	}

	first, ok := f.Pop()
	if !ok || first.URL != "https://example.com/0" {
		t.Fatalf("Pop() = %+v, %v", first, ok)
	}

	batch := f.PopBatch(4)
	if len(batch) != 4 {
		t.Fatalf("PopBatch(4) returned %d entries", len(batch))
	}
	for i, e := range batch {
		want := fmt.Sprintf("https://example.com/%d", i+1)
		if e.URL != want {
			t.Errorf("batch[%d] = %q, want %q", i, e.URL, want)
		}
	}

	rest := f.PopBatch(10)
	if len(rest) != 2 {
		t.Fatalf("PopBatch(10) returned %d entries, want 2", len(rest))
	}
	if rest[1].Depth != 2 {
		t.Errorf("last entry depth = %d, want 2", rest[1].Depth)
	}
	if f.Len() != 0 {
		t.Errorf("Len() = %d after draining, want 0", f.Len())
	}
}

func TestMemoryFrontier_Compaction(t *testing.T) {
	f := NewMemoryFrontier()

	next := 0
	for round := range 50 {
		for range 10 {
			f.Push(linkgraph.FrontierEntry{URL: fmt.Sprintf("u%d", next)})
			next++
		}
		batch := f.PopBatch(7)
		if len(batch) != 7 {
			t.Fatalf("round %d: PopBatch(7) = %d entries", round, len(batch))
		}
	}

	remaining := 0
	for {
		if _, ok := f.Pop(); !ok {
			break
		}
		remaining++
	}
	if remaining != 50*3 {
		t.Errorf("remaining entries = %d, want %d", remaining, 50*3)
	}
}

func TestMemoryFrontier_PopBatchNonPositive(t *testing.T) {
	f := NewMemoryFrontier()
	f.Push(linkgraph.FrontierEntry{URL: "a"})

	if batch := f.PopBatch(0); batch != nil {
		t.Errorf("PopBatch(0) = %v, want nil", batch)
	}
	if f.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.Len())
	}
}
