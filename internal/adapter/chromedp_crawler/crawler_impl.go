package chromedp_crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/domain-crawler/internal/adapter/extractor"
	"github.com/user/domain-crawler/internal/entity"
	"github.com/user/domain-crawler/internal/repository"
)

// ChromedpCrawler is a PageFetcher that renders pages in headless Chrome
// before extracting links, so script-inserted anchors are seen too.
type ChromedpCrawler struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	extractor   extractor.Extractor
}

// NewChromedpCrawler starts a shared browser allocator. Each Fetch opens its
// own tab on it. Call Close to shut the browser down.
func NewChromedpCrawler(pageLoadTimeout time.Duration, userAgent string, ex extractor.Extractor) *ChromedpCrawler {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromedpCrawler{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		timeout:     pageLoadTimeout,
		extractor:   ex,
	}
}

// Close stops the browser process.
func (c *ChromedpCrawler) Close() {
	c.allocCancel()
}

// Fetch navigates to rawURL and extracts links from the rendered DOM.
func (c *ChromedpCrawler) Fetch(ctx context.Context, rawURL string) entity.FetchOutcome {
	links, err := c.fetch(ctx, rawURL)
	if err != nil {
		slog.Warn("Failed to fetch page in browser", "url", rawURL, "error", err)
		return entity.FetchOutcome{URL: rawURL, Err: err}
	}
	return entity.FetchOutcome{URL: rawURL, Links: links}
}

func (c *ChromedpCrawler) fetch(ctx context.Context, rawURL string) ([]*url.URL, error) {
	taskCtx, cancel := chromedp.NewContext(c.allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancel()

	// The browser tab hangs off the allocator, so the caller's deadline is
	// applied explicitly.
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		taskCtx, cancelDeadline = context.WithDeadline(taskCtx, deadline)
		defer cancelDeadline()
	}
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()

	var status atomic.Int64
	chromedp.ListenTarget(taskCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, resp.Response.Status)
		}
	})

	var html, location string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(rawURL),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	slog.Debug("Rendered page", "url", rawURL, "status", status.Load())

	base, err := url.Parse(location)
	if err != nil {
		base, _ = url.Parse(rawURL)
	}
	links, err := c.extractor.ExtractLinks(base, strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrParseFailed, err)
	}
	return links, nil
}
