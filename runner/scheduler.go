package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	linkgraph "github.com/will-x86/linkgraph"
	"github.com/will-x86/linkgraph/graph"
	"github.com/will-x86/linkgraph/logger"
	"github.com/will-x86/linkgraph/storage"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency  = 5
	DefaultNodeBudget   = 50
	DefaultFetchTimeout = 3 * time.Second
)

// Scheduler is a breadth-first, depth-bounded crawl scheduler. It dispatches the
// frontier in batches of at most concurrency fetches and waits for each batch to
// settle before computing the next one.
//
// The registry is shared by every crawl run through the same Scheduler. Reset must
// not be called while a crawl is in progress.
type Scheduler struct {
	fetcher      linkgraph.PageFetcher
	registry     storage.Registry
	concurrency  int
	nodeBudget   int
	fetchTimeout time.Duration
	rateLimiter  RateLimiter
	linkPolicy   PolicyFactory
	logger       logger.Logger
}

type Option func(*Scheduler)

func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithNodeBudget(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.nodeBudget = n
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func WithRegistry(r storage.Registry) Option {
	return func(s *Scheduler) {
		s.registry = r
	}
}

func WithGlobalRateLimit(requestsPerSecond int) Option {
	return func(s *Scheduler) {
		s.rateLimiter = newGlobalRateLimiter(requestsPerSecond)
	}
}

func WithDomainRateLimit(maxRequests int, window time.Duration) Option {
	return func(s *Scheduler) {
		s.rateLimiter = newDomainRateLimiter(maxRequests, window)
	}
}

func WithLinkPolicy(policy PolicyFactory) Option {
	return func(s *Scheduler) {
		if policy != nil {
			s.linkPolicy = policy
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) {
		s.logger = log
	}
}

func NewScheduler(fetcher linkgraph.PageFetcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		fetcher:      fetcher,
		concurrency:  DefaultConcurrency,
		nodeBudget:   DefaultNodeBudget,
		fetchTimeout: DefaultFetchTimeout,
		rateLimiter:  &noRateLimiter{},
		linkPolicy:   PolicyAllowAll,
		logger:       logger.NewStdLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil {
		s.registry = storage.NewMemoryRegistry()
	}

	return s
}

func (s *Scheduler) Registry() storage.Registry {
	return s.registry
}

// Reset clears the visited registry. It is idempotent.
func (s *Scheduler) Reset(ctx context.Context) error {
	if err := s.registry.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset registry: %w", err)
	}
	s.logger.Info("Visited registry cleared")
	return nil
}

// Close releases the rate limiter. The registry belongs to the caller.
func (s *Scheduler) Close() {
	s.rateLimiter.Close()
}

// Crawl builds the link graph reachable from seed within maxDepth hops.
//
// Only a malformed seed or negative depth is returned as an error. Fetch failures
// become degraded nodes, and faults inside the crawl loop (registry errors, panics,
// cancellation) end the crawl early with StateAborted and whatever graph was built.
func (s *Scheduler) Crawl(ctx context.Context, seed string, maxDepth int) (*CrawlResult, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: %d", linkgraph.ErrInvalidDepth, maxDepth)
	}
	seedURL, err := linkgraph.NormalizeURL(seed)
	if err != nil {
		return nil, err
	}

	c := &crawl{
		Scheduler: s,
		id:        uuid.NewString(),
		seed:      seedURL,
		maxDepth:  maxDepth,
		frontier:  storage.NewMemoryFrontier(),
		assembler: graph.NewAssembler(),
		policy:    s.linkPolicy(seedURL),
		enqueued:  make(map[string]bool),
	}
	c.stats.State = StateRunning
	c.stats.Started = time.Now()

	s.logger.Info("Crawl %s started: seed=%s depth=%d budget=%d concurrency=%d",
		c.id, seedURL, maxDepth, s.nodeBudget, s.concurrency)

	if err := c.run(ctx); err != nil {
		c.stats.State = StateAborted
		c.stats.Err = err
		s.logger.Error("Crawl %s aborted after %d pages: %v", c.id, c.stats.Processed, err)
	} else {
		c.stats.State = StateCompleted
	}
	c.stats.Finished = time.Now()

	g := c.assembler.Snapshot()
	s.logger.Info("Crawl %s %s: %d nodes, %d links, %d fetched (%d failed) in %s",
		c.id, c.stats.State, len(g.Nodes), len(g.Links), c.stats.Processed, c.stats.Failed,
		c.stats.Finished.Sub(c.stats.Started).Round(time.Millisecond))

	return &CrawlResult{
		ID:       c.id,
		Seed:     seedURL,
		MaxDepth: maxDepth,
		Graph:    g,
		Stats:    c.stats,
	}, nil
}

// crawl holds the state of one session. Everything but the registry is touched
// only by the goroutine running run.
type crawl struct {
	*Scheduler
	id             string
	seed           string
	maxDepth       int
	frontier       storage.Frontier
	assembler      *graph.Assembler
	policy         LinkPolicy
	enqueued       map[string]bool
	seedDispatched bool
	stats          CrawlStats
}

func (c *crawl) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawl loop panicked: %v", r)
		}
	}()

	c.push(linkgraph.FrontierEntry{URL: c.seed, Depth: 0})

	for c.frontier.Len() > 0 && c.stats.Processed < c.nodeBudget {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := c.nextBatch(ctx)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}

		c.stats.Batches++
		c.logger.Debug("Crawl %s: batch %d, %d pages at depth %d, %d queued",
			c.id, c.stats.Batches, len(batch), batch[0].Depth, c.frontier.Len())

		results := c.dispatch(ctx, batch)
		if err := c.settle(ctx, results); err != nil {
			return err
		}
	}

	return nil
}

func (c *crawl) push(entry linkgraph.FrontierEntry) {
	if c.enqueued[entry.URL] {
		return
	}
	c.enqueued[entry.URL] = true
	c.frontier.Push(entry)
}

// nextBatch pops up to min(concurrency, remaining budget) entries of a single depth,
// marking each visited before it is dispatched. Entries another dispatch already
// claimed are dropped. The seed bypasses the registry check so a repeat crawl always
// refreshes it.
func (c *crawl) nextBatch(ctx context.Context) ([]linkgraph.FrontierEntry, error) {
	limit := min(c.concurrency, c.nodeBudget-c.stats.Processed)
	batch := make([]linkgraph.FrontierEntry, 0, limit)

	for len(batch) < limit {
		next, ok := c.frontier.Peek()
		if !ok {
			break
		}
		if len(batch) > 0 && next.Depth != batch[0].Depth {
			break
		}
		entry, _ := c.frontier.Pop()

		if entry.Depth > c.maxDepth {
			continue
		}

		inserted, err := c.registry.Add(ctx, entry.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to mark %s visited: %w", entry.URL, err)
		}

		isSeed := entry.Depth == 0 && entry.URL == c.seed && !c.seedDispatched
		if !inserted && !isSeed {
			c.logger.Debug("Crawl %s: skipping visited %s", c.id, entry.URL)
			continue
		}
		if isSeed {
			c.seedDispatched = true
		}

		batch = append(batch, entry)
	}

	return batch, nil
}

// dispatch fetches every entry concurrently and waits for all of them. A failing
// fetch never cancels its siblings.
func (c *crawl) dispatch(ctx context.Context, batch []linkgraph.FrontierEntry) []linkgraph.PageResult {
	results := make([]linkgraph.PageResult, len(batch))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, entry := range batch {
		g.Go(func() error {
			results[i] = c.fetch(ctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

type fetchOutcome struct {
	page *linkgraph.Page
	err  error
}

// fetch enforces the deadline itself, so a fetcher that ignores its context still
// yields a failed result on time.
func (c *crawl) fetch(ctx context.Context, entry linkgraph.FrontierEntry) linkgraph.PageResult {
	if err := c.rateLimiter.Wait(ctx, linkgraph.Host(entry.URL)); err != nil {
		return linkgraph.FailedResult(entry, fmt.Errorf("rate limiter: %w", err))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	done := make(chan fetchOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchOutcome{err: fmt.Errorf("fetcher panicked: %v", r)}
			}
		}()
		page, err := c.fetcher.Fetch(fetchCtx, entry.URL)
		done <- fetchOutcome{page: page, err: err}
	}()

	select {
	case out := <-done:
		switch {
		case out.err != nil:
			return linkgraph.FailedResult(entry, out.err)
		case out.page == nil:
			return linkgraph.FailedResult(entry, errors.New("fetcher returned no page"))
		default:
			return linkgraph.SucceededResult(entry, out.page)
		}
	case <-fetchCtx.Done():
		if ctx.Err() != nil {
			return linkgraph.FailedResult(entry, ctx.Err())
		}
		return linkgraph.FailedResult(entry, fmt.Errorf("%w: %s after %s", linkgraph.ErrFetchTimeout, entry.URL, c.fetchTimeout))
	}
}

// settle folds a finished batch into the graph and the frontier, in batch order.
func (c *crawl) settle(ctx context.Context, results []linkgraph.PageResult) error {
	for _, r := range results {
		c.assembler.AddNode(linkgraph.NodeFromResult(r))
		if !r.Success {
			c.stats.Failed++
			c.logger.Warn("Crawl %s: failed to fetch %s: %v", c.id, r.URL, r.Err)
			continue
		}
		c.stats.Succeeded++

		// Pages at the depth limit contribute a node only.
		if r.Depth >= c.maxDepth {
			continue
		}

		for _, link := range r.Links {
			target, err := linkgraph.NormalizeURL(link)
			if err != nil {
				c.logger.Debug("Crawl %s: skipping link %q on %s: %v", c.id, link, r.URL, err)
				continue
			}
			c.assembler.AddEdge(linkgraph.Edge{Source: r.URL, Target: target})

			if c.enqueued[target] {
				continue
			}
			if !c.policy.ShouldFollow(r.URL, target) {
				continue
			}
			visited, err := c.registry.Contains(ctx, target)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", target, err)
			}
			if visited {
				continue
			}
			c.push(linkgraph.FrontierEntry{URL: target, Depth: r.Depth + 1})
		}
	}

	c.stats.Processed += len(results)
	return nil
}
