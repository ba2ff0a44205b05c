package graph

import (
	"testing"

	linkgraph "github.com/will-x86/linkgraph"
)

func TestAssembler_AddNode(t *testing.T) {
	a := NewAssembler()

	if !a.AddNode(linkgraph.Node{ID: "a", Title: "first"}) {
		t.Fatal("AddNode() = false for new node")
	}
	if a.AddNode(linkgraph.Node{ID: "a", Title: "second"}) {
		t.Fatal("AddNode() = true for duplicate id")
	}

	g := a.Snapshot()
	if len(g.Nodes) != 1 || g.Nodes[0].Title != "first" {
		t.Errorf("Snapshot().Nodes = %+v, want first writer", g.Nodes)
	}
}

func TestAssembler_AddEdge(t *testing.T) {
	a := NewAssembler()
	a.AddNode(linkgraph.Node{ID: "a"})
	a.AddNode(linkgraph.Node{ID: "b"})

	if !a.AddEdge(linkgraph.Edge{Source: "a", Target: "b"}) {
		t.Fatal("AddEdge() = false for new edge")
	}
	if a.AddEdge(linkgraph.Edge{Source: "a", Target: "b"}) {
		t.Fatal("AddEdge() = true for duplicate edge")
	}
	if !a.AddEdge(linkgraph.Edge{Source: "b", Target: "a"}) {
		t.Fatal("AddEdge() = false for reversed edge, edges are ordered pairs")
	}

	if a.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", a.EdgeCount())
	}
}

func TestAssembler_SnapshotDropsDanglingEdges(t *testing.T) {
	a := NewAssembler()
	a.AddNode(linkgraph.Node{ID: "a"})
	a.AddNode(linkgraph.Node{ID: "b"})
	a.AddEdge(linkgraph.Edge{Source: "a", Target: "b"})
	a.AddEdge(linkgraph.Edge{Source: "a", Target: "missing"})
	a.AddEdge(linkgraph.Edge{Source: "ghost", Target: "b"})

	g := a.Snapshot()
	if len(g.Links) != 1 || g.Links[0] != (linkgraph.Edge{Source: "a", Target: "b"}) {
		t.Errorf("Snapshot().Links = %+v, want only a->b", g.Links)
	}

	// the dangling edge becomes valid once its target is known
	a.AddNode(linkgraph.Node{ID: "missing"})
	if g := a.Snapshot(); len(g.Links) != 2 {
		t.Errorf("Snapshot().Links = %+v, want 2 edges", g.Links)
	}
}

func TestAssembler_SnapshotIsACopy(t *testing.T) {
	a := NewAssembler()
	a.AddNode(linkgraph.Node{ID: "a", Title: "A"})

	g := a.Snapshot()
	g.Nodes[0].Title = "mutated"

	if a.Snapshot().Nodes[0].Title != "A" {
		t.Error("Snapshot() shares node storage with the assembler")
	}
}

func TestAssembler_Empty(t *testing.T) {
	g := NewAssembler().Snapshot()
	if g.Nodes == nil || g.Links == nil {
		t.Error("Snapshot() of empty assembler should return empty, non-nil slices")
	}
}
