package fetchers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	linkgraph "github.com/will-x86/linkgraph"
	"github.com/will-x86/linkgraph/logger"
	"golang.org/x/net/html"
)

type HTTPOptions struct {
	Logger       logger.Logger
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	LinksPerPage int
	MaxBodyBytes int64
	// Client replaces the default client; Timeout and MaxRedirects are then ignored.
	Client *http.Client
}

// HTTPFetcher reads the server-sent HTML without executing scripts.
type HTTPFetcher struct {
	opts   HTTPOptions
	logger logger.Logger
	client *http.Client
}

func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Logger == nil {
		opts.Logger = logger.NewStdLogger()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.MaxRedirects == 0 {
		opts.MaxRedirects = 10
	}
	if opts.LinksPerPage == 0 {
		opts.LinksPerPage = DefaultLinksPerPage
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "linkgraph/1.0 (+https://github.com/will-x86/linkgraph)"
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= opts.MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
				}
				return nil
			},
		}
	}

	return &HTTPFetcher{
		opts:   opts,
		logger: opts.Logger,
		client: client,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*linkgraph.Page, error) {
	f.logger.Debug("Fetching: %s", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", linkgraph.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil && !strings.Contains(mediaType, "html") {
			return nil, fmt.Errorf("unsupported content type %q for %s", mediaType, rawURL)
		}
	}

	root, err := html.Parse(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	base := resp.Request.URL
	doc := goquery.NewDocumentFromNode(root)
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	return buildPage(base, scrapeDocument(doc), f.opts.LinksPerPage), nil
}

func scrapeDocument(doc *goquery.Document) rawPage {
	raw := rawPage{
		Title: doc.Find("title").First().Text(),
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		raw.Hrefs = append(raw.Hrefs, href)
	})

	doc.Find("link[rel][href]").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		raw.Icons = append(raw.Icons, iconLink{Rel: rel, Href: href})
	})

	return raw
}
