// Package graph accumulates crawl results into a deduplicated node and edge set.
package graph

import (
	linkgraph "github.com/will-x86/linkgraph"
)

// Assembler is owned by a single goroutine; it does no locking.
type Assembler struct {
	nodes     []linkgraph.Node
	nodeIndex map[string]int
	edges     []linkgraph.Edge
	edgeSet   map[linkgraph.Edge]struct{}
}

func NewAssembler() *Assembler {
	return &Assembler{
		nodeIndex: make(map[string]int),
		edgeSet:   make(map[linkgraph.Edge]struct{}),
	}
}

// AddNode records n unless a node with the same id exists. The first writer wins.
func (a *Assembler) AddNode(n linkgraph.Node) bool {
	if _, ok := a.nodeIndex[n.ID]; ok {
		return false
	}
	a.nodeIndex[n.ID] = len(a.nodes)
	a.nodes = append(a.nodes, n)
	return true
}

// AddEdge records e unless the same (source, target) pair was already seen.
func (a *Assembler) AddEdge(e linkgraph.Edge) bool {
	if _, ok := a.edgeSet[e]; ok {
		return false
	}
	a.edgeSet[e] = struct{}{}
	a.edges = append(a.edges, e)
	return true
}

func (a *Assembler) HasNode(id string) bool {
	_, ok := a.nodeIndex[id]
	return ok
}

func (a *Assembler) NodeCount() int {
	return len(a.nodes)
}

func (a *Assembler) EdgeCount() int {
	return len(a.edges)
}

// Snapshot copies the current graph, dropping edges whose endpoints are not both known nodes.
func (a *Assembler) Snapshot() linkgraph.Graph {
	nodes := make([]linkgraph.Node, len(a.nodes))
	copy(nodes, a.nodes)

	links := make([]linkgraph.Edge, 0, len(a.edges))
	for _, e := range a.edges {
		if a.HasNode(e.Source) && a.HasNode(e.Target) {
			links = append(links, e)
		}
	}

	return linkgraph.Graph{Nodes: nodes, Links: links}
}
