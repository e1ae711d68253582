package httpfetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/user/domain-crawler/internal/adapter/extractor"
	"github.com/user/domain-crawler/internal/entity"
	"github.com/user/domain-crawler/internal/repository"
	"github.com/user/domain-crawler/pkg/proxy"
)

// Fetcher is a PageFetcher that issues plain HTTP GET requests.
type Fetcher struct {
	client    *http.Client
	proxies   *proxy.Manager
	extractor extractor.Extractor
}

// NewFetcher creates a Fetcher whose requests give up after timeout.
// A nil proxy manager sends requests directly with Go's default user agent.
func NewFetcher(timeout time.Duration, proxies *proxy.Manager, ex extractor.Extractor) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxies != nil {
		transport.Proxy = proxies.Proxy
	}
	return &Fetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		proxies:   proxies,
		extractor: ex,
	}
}

// Fetch downloads rawURL and extracts its links. The response status is not
// inspected: error pages are parsed like any other document.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) entity.FetchOutcome {
	links, err := f.fetch(ctx, rawURL)
	if err != nil {
		slog.Warn("Failed to fetch page", "url", rawURL, "error", err)
		return entity.FetchOutcome{URL: rawURL, Err: err}
	}
	return entity.FetchOutcome{URL: rawURL, Links: links}
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	if f.proxies != nil {
		req.Header.Set("User-Agent", f.proxies.UserAgent())
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", repository.ErrFetchTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrBodyUnreadable, err)
	}

	links, err := f.extractor.ExtractLinks(resp.Request.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrParseFailed, err)
	}
	return links, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
