package linkgraph

import (
	"context"
	"errors"
)

var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrInvalidDepth = errors.New("invalid depth")
	ErrFetchTimeout = errors.New("fetch deadline exceeded")
)

// PageFetcher loads a single page and reports its metadata.
// Implementations should honour ctx, the scheduler enforces the deadline regardless.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Page is what a fetcher extracted from a rendered document.
type Page struct {
	Title   string
	Links   []string
	Favicon string
}

type FrontierEntry struct {
	URL   string
	Depth int
}

// PageResult is the outcome of one fetch attempt.
type PageResult struct {
	URL     string
	Depth   int
	Title   string
	Links   []string
	Favicon string
	Success bool
	Err     error
}

// FailedResult builds the degraded result recorded for a page that could not be fetched.
func FailedResult(entry FrontierEntry, err error) PageResult {
	return PageResult{
		URL:     entry.URL,
		Depth:   entry.Depth,
		Title:   entry.URL,
		Success: false,
		Err:     err,
	}
}

// SucceededResult copies page metadata into a result, falling back to the url for a missing title.
func SucceededResult(entry FrontierEntry, page *Page) PageResult {
	title := page.Title
	if title == "" {
		title = entry.URL
	}
	links := make([]string, len(page.Links))
	copy(links, page.Links)

	return PageResult{
		URL:     entry.URL,
		Depth:   entry.Depth,
		Title:   title,
		Links:   links,
		Favicon: page.Favicon,
		Success: true,
	}
}

type Node struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Favicon *string `json:"favicon"`
}

// Edge is comparable and is used directly as a set key.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Edge `json:"links"`
}

// NodeFromResult maps a fetch result onto its graph node.
func NodeFromResult(r PageResult) Node {
	n := Node{ID: r.URL, Title: r.Title}
	if r.Favicon != "" {
		fav := r.Favicon
		n.Favicon = &fav
	}
	return n
}
