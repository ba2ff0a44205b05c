package runner

import (
	"context"
	"time"

	linkgraph "github.com/will-x86/linkgraph"
)

// Runner drives one crawl session from a seed to a graph.
type Runner interface {
	Crawl(ctx context.Context, seed string, maxDepth int) (*CrawlResult, error)
	Reset(ctx context.Context) error
}

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

type CrawlStats struct {
	State     State     `json:"state"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Batches   int       `json:"batches"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	// Err is set when the crawl was aborted.
	Err error `json:"-"`
}

type CrawlResult struct {
	ID       string          `json:"id"`
	Seed     string          `json:"seed"`
	MaxDepth int             `json:"maxDepth"`
	Graph    linkgraph.Graph `json:"graph"`
	Stats    CrawlStats      `json:"stats"`
}
