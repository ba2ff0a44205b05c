package fetchers

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	linkgraph "github.com/will-x86/linkgraph"
	"github.com/will-x86/linkgraph/logger"
)

// inspectDocument collects everything buildPage needs in one round trip.
// Browser-resolved hrefs are used so <base href> is honoured.
const inspectDocument = `(() => {
	const hrefs = [];
	for (const a of document.querySelectorAll('a[href]')) {
		const raw = (a.getAttribute('href') || '').trim();
		if (raw === '' || raw.startsWith('#')) continue;
		hrefs.push(a.href || raw);
	}
	const icons = [];
	for (const l of document.querySelectorAll('link[rel][href]')) {
		icons.push({ rel: l.getAttribute('rel') || '', href: l.href || l.getAttribute('href') || '' });
	}
	return { title: document.title || '', hrefs: hrefs, icons: icons };
})()`

type ChromeDPOptions struct {
	Logger       logger.Logger
	Headless     bool
	UserAgent    string
	Timeout      time.Duration
	LinksPerPage int
}

// ChromeDPFetcher renders pages in a shared headless Chrome, one tab per fetch.
type ChromeDPFetcher struct {
	opts       ChromeDPOptions
	logger     logger.Logger
	once       sync.Once
	browserCtx context.Context
	startErr   error
	cancels    []context.CancelFunc
}

func NewChromeDPFetcher(opts ChromeDPOptions) *ChromeDPFetcher {
	if opts.Logger == nil {
		opts.Logger = logger.NewStdLogger()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.LinksPerPage == 0 {
		opts.LinksPerPage = DefaultLinksPerPage
	}

	return &ChromeDPFetcher{
		opts:   opts,
		logger: opts.Logger,
	}
}

func (f *ChromeDPFetcher) browser() (context.Context, error) {
	f.once.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", f.opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("no-sandbox", true),
		)
		if f.opts.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(f.opts.UserAgent))
		}
		// The browser outlives individual crawls, so it hangs off Background and dies in Close.
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		f.cancels = []context.CancelFunc{cancelBrowser, cancelAlloc}

		if err := chromedp.Run(browserCtx); err != nil {
			f.startErr = fmt.Errorf("failed to start browser: %w", err)
			return
		}
		f.browserCtx = browserCtx
		f.logger.Info("Browser started (headless=%v)", f.opts.Headless)
	})
	return f.browserCtx, f.startErr
}

func (f *ChromeDPFetcher) Fetch(ctx context.Context, rawURL string) (*linkgraph.Page, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", linkgraph.ErrInvalidURL, err)
	}

	f.logger.Debug("Rendering: %s", rawURL)

	browserCtx, err := f.browser()
	if err != nil {
		return nil, err
	}

	// a context derived from the browser context opens a new tab in the same process
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	runCtx, cancel := context.WithTimeout(tabCtx, f.opts.Timeout)
	defer cancel()

	var raw rawPage
	var finalURL string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.Evaluate(inspectDocument, &raw),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %s after %s", linkgraph.ErrFetchTimeout, rawURL, f.opts.Timeout)
		}
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	if final, err := url.Parse(finalURL); err == nil && final.Host != "" {
		base = final
	}

	return buildPage(base, raw, f.opts.LinksPerPage), nil
}

// Close shuts the shared browser down.
func (f *ChromeDPFetcher) Close() error {
	for _, cancel := range f.cancels {
		cancel()
	}
	return nil
}
