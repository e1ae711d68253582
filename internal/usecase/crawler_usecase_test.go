package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/user/domain-crawler/internal/adapter/extractor"
	"github.com/user/domain-crawler/internal/adapter/httpfetch"
	"github.com/user/domain-crawler/internal/adapter/memory"
	"github.com/user/domain-crawler/internal/entity"
	"github.com/user/domain-crawler/internal/repository"
)

// fakeFetcher serves a fixed link graph and records every fetch.
type fakeFetcher struct {
	pages  map[string][]string
	failed map[string]bool

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) entity.FetchOutcome {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()

	if f.failed[rawURL] {
		return entity.FetchOutcome{URL: rawURL, Err: repository.ErrFetchFailed}
	}
	var links []*url.URL
	for _, raw := range f.pages[rawURL] {
		if u, err := url.Parse(raw); err == nil && u.IsAbs() {
			links = append(links, u)
		}
	}
	return entity.FetchOutcome{URL: rawURL, Links: links}
}

func (f *fakeFetcher) fetchedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.fetched...)
	sort.Strings(out)
	return out
}

type failingRepo struct {
	repository.ResultRepository
}

func (failingRepo) Insert(context.Context, string, []string) error {
	return errors.New("store unavailable")
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCrawl_SeedScenario(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"http://a.test": {"http://a.test/b", "http://external.test", "::not a url"},
	}}
	repo := memory.NewResultRepo()
	crawler := NewCrawlerUseCase(fetcher, repo, NewThrottler(2), "http")

	report, err := crawler.Crawl(context.Background(), "a.test")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	wantURLs := []string{"http://a.test", "http://a.test/b", "http://external.test"}
	if got := sorted(report.URLs); !equal(got, wantURLs) {
		t.Errorf("report URLs = %v, want %v", got, wantURLs)
	}
	if got := fetcher.fetchedURLs(); !equal(got, []string{"http://a.test", "http://a.test/b"}) {
		t.Errorf("fetched = %v, external or malformed URLs must not be fetched", got)
	}

	ctx := context.Background()
	if n, _ := repo.Count(ctx, "a.test"); n != 3 {
		t.Errorf("Count(a.test) = %d, want 3", n)
	}
	if n, _ := repo.Count(ctx, "never-crawled.example"); n != 0 {
		t.Errorf("Count(never-crawled.example) = %d, want 0", n)
	}
	if report.Rounds != 2 || report.Fetched != 2 || report.Failed != 0 {
		t.Errorf("report = %+v, want 2 rounds, 2 fetched, 0 failed", report)
	}
	if report.ID == "" || report.Domain != "a.test" {
		t.Errorf("report identity = %q/%q", report.ID, report.Domain)
	}
}

func TestCrawl_CyclesTerminateAndFetchOnce(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"http://a.test":   {"http://a.test/x", "http://a.test/y", "http://a.test"},
		"http://a.test/x": {"http://a.test/y", "http://a.test", "http://a.test/x"},
		"http://a.test/y": {"http://a.test/x", "http://a.test/z"},
		"http://a.test/z": {"http://a.test", "http://a.test/y"},
	}}
	crawler := NewCrawlerUseCase(fetcher, memory.NewResultRepo(), NewThrottler(4), "http")

	done := make(chan *entity.CrawlReport, 1)
	go func() {
		report, _ := crawler.Crawl(context.Background(), "a.test")
		done <- report
	}()

	var report *entity.CrawlReport
	select {
	case report = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("crawl of a cyclic graph did not terminate")
	}

	want := []string{"http://a.test", "http://a.test/x", "http://a.test/y", "http://a.test/z"}
	if got := fetcher.fetchedURLs(); !equal(got, want) {
		t.Errorf("fetched = %v, want each page exactly once: %v", got, want)
	}
	if got := sorted(report.URLs); !equal(got, want) {
		t.Errorf("URLs = %v, want %v", got, want)
	}
}

func TestCrawl_OffDomainRecordedNotFetched(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"http://a.test":   {"http://a.test/b", "https://other.test/page", "mailto:me@a.test"},
		"http://a.test/b": {"http://sub.a.test/", "https://other.test/page"},
	}}
	crawler := NewCrawlerUseCase(fetcher, memory.NewResultRepo(), NewThrottler(2), "http")

	report, err := crawler.Crawl(context.Background(), "a.test")
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	for _, u := range fetcher.fetchedURLs() {
		parsed, _ := url.Parse(u)
		if parsed.Host != "a.test" {
			t.Errorf("fetched off-domain URL %s", u)
		}
	}

	got := sorted(report.URLs)
	want := []string{"http://a.test", "http://a.test/b", "http://sub.a.test/", "https://other.test/page", "mailto:me@a.test"}
	if !equal(got, want) {
		t.Errorf("URLs = %v, want %v", got, want)
	}
}

func TestCrawl_NoDuplicatesInResult(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"http://a.test":   {"http://a.test/1", "http://a.test/1", "http://a.test/2", "http://x.test", "http://x.test"},
		"http://a.test/1": {"http://a.test/2", "http://x.test"},
		"http://a.test/2": {"http://a.test/1", "http://a.test"},
	}}
	repo := memory.NewResultRepo()
	crawler := NewCrawlerUseCase(fetcher, repo, NewThrottler(3), "http")

	if _, err := crawler.Crawl(context.Background(), "a.test"); err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	urls, _ := repo.Get(context.Background(), "a.test")
	seen := make(map[string]bool)
	for _, u := range urls {
		if seen[u] {
			t.Fatalf("duplicate URL %s in %v", u, urls)
		}
		seen[u] = true
	}
	if len(urls) != 4 {
		t.Errorf("got %d URLs, want 4: %v", len(urls), urls)
	}
}

func TestCrawl_FailedPagesStayInResult(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string][]string{
			"http://a.test": {"http://a.test/down", "http://a.test/up"},
		},
		failed: map[string]bool{"http://a.test/down": true},
	}
	crawler := NewCrawlerUseCase(fetcher, memory.NewResultRepo(), NewThrottler(2), "http")

	report, err := crawler.Crawl(context.Background(), "a.test")
	if err != nil {
		t.Fatalf("Crawl should not fail because a page failed: %v", err)
	}
	if report.Failed != 1 || report.Fetched != 3 {
		t.Errorf("report = %+v, want 3 fetched and 1 failed", report)
	}
	if len(report.URLs) != 3 {
		t.Errorf("URLs = %v, want all three pages", report.URLs)
	}
}

func TestCrawl_UnreachableRootStillStored(t *testing.T) {
	fetcher := &fakeFetcher{failed: map[string]bool{"https://down.test": true}}
	repo := memory.NewResultRepo()
	crawler := NewCrawlerUseCase(fetcher, repo, NewThrottler(1), "https")

	if _, err := crawler.Crawl(context.Background(), "down.test"); err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	urls, _ := repo.Get(context.Background(), "down.test")
	if !equal(urls, []string{"https://down.test"}) {
		t.Errorf("Get() = %v, want only the root", urls)
	}
}

func TestCrawl_RecrawlOverwrites(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"http://a.test": {"http://a.test/old"},
	}}
	repo := memory.NewResultRepo()
	crawler := NewCrawlerUseCase(fetcher, repo, NewThrottler(2), "http")
	ctx := context.Background()

	if _, err := crawler.Crawl(ctx, "a.test"); err != nil {
		t.Fatal(err)
	}

	fetcher.pages["http://a.test"] = []string{"http://a.test/new"}
	if _, err := crawler.Crawl(ctx, "a.test"); err != nil {
		t.Fatal(err)
	}

	urls, _ := repo.Get(ctx, "a.test")
	if got := sorted(urls); !equal(got, []string{"http://a.test", "http://a.test/new"}) {
		t.Errorf("Get() = %v, want second crawl only", got)
	}
}

func TestCrawl_ConcurrentDomainsStaySeparate(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"http://a.test":   {"http://a.test/1", "http://a.test/2"},
		"http://a.test/1": {"http://a.test/2", "http://b.test/1"},
		"http://b.test":   {"http://b.test/1"},
		"http://b.test/1": {"http://b.test/2", "http://a.test/1"},
	}}
	repo := memory.NewResultRepo()
	crawler := NewCrawlerUseCase(fetcher, repo, NewThrottler(2), "http")
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, domain := range []string{"a.test", "b.test"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := crawler.Crawl(ctx, domain); err != nil {
				t.Errorf("Crawl(%s): %v", domain, err)
			}
		}()
	}
	wg.Wait()

	a, _ := repo.Get(ctx, "a.test")
	b, _ := repo.Get(ctx, "b.test")
	if got := sorted(a); !equal(got, []string{"http://a.test", "http://a.test/1", "http://a.test/2", "http://b.test/1"}) {
		t.Errorf("a.test = %v", got)
	}
	if got := sorted(b); !equal(got, []string{"http://a.test/1", "http://b.test", "http://b.test/1", "http://b.test/2"}) {
		t.Errorf("b.test = %v", got)
	}
}

func TestCrawl_StoreErrorIsReturned(t *testing.T) {
	fetcher := &fakeFetcher{}
	crawler := NewCrawlerUseCase(fetcher, failingRepo{}, NewThrottler(1), "http")

	if _, err := crawler.Crawl(context.Background(), "a.test"); err == nil {
		t.Fatal("expected store error to surface")
	}
}

func TestFrontierState_VisitedAndFrontierDisjoint(t *testing.T) {
	s := newFrontierState("a.test", "http://a.test")
	parse := func(raws ...string) []*url.URL {
		var out []*url.URL
		for _, r := range raws {
			u, _ := url.Parse(r)
			out = append(out, u)
		}
		return out
	}
	check := func() {
		t.Helper()
		for _, u := range s.frontier {
			if _, ok := s.visited[u]; ok {
				t.Fatalf("%s is both visited and queued", u)
			}
		}
	}

	s.advance()
	s.expand(parse("http://a.test", "http://a.test/b", "http://a.test/b", "http://z.test"))
	check()
	if len(s.frontier) != 1 || s.frontier[0] != "http://a.test/b" {
		t.Fatalf("frontier = %v, want [http://a.test/b]", s.frontier)
	}

	s.advance()
	s.expand(parse("http://a.test/b", "http://a.test"))
	check()
	if !s.done() {
		t.Fatalf("frontier = %v, want empty", s.frontier)
	}
	if len(s.result()) != 3 {
		t.Errorf("result = %v, want 3 URLs", s.result())
	}
}

func TestCrawl_AgainstHTTPServer(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var hits sync.Map
	page := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			hits.Store(r.URL.Path, true)
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(strings.ReplaceAll(body, "SRV", srv.URL)))
		}
	}
	mux.HandleFunc("/{$}", page(`<a href="SRV/b">b</a><a href="http://external.test">ext</a><a href="::not a url">bad</a>`))
	mux.HandleFunc("/b", page(`<a href="SRV">home</a><a href="SRV/c">c</a>`))
	mux.HandleFunc("/c", page(`<p>leaf</p>`))

	domain := strings.TrimPrefix(srv.URL, "http://")
	repo := memory.NewResultRepo()
	fetcher := httpfetch.NewFetcher(2*time.Second, nil, extractor.Extractor{})
	crawler := NewCrawlerUseCase(fetcher, repo, NewThrottler(0), "http")

	report, err := crawler.Crawl(context.Background(), domain)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	want := []string{srv.URL, srv.URL + "/b", srv.URL + "/c", "http://external.test"}
	sort.Strings(want)
	if got := sorted(report.URLs); !equal(got, want) {
		t.Errorf("URLs = %v, want %v", got, want)
	}
	for _, path := range []string{"/", "/b", "/c"} {
		if _, ok := hits.Load(path); !ok {
			t.Errorf("page %s was never fetched", path)
		}
	}
	if n, _ := repo.Count(context.Background(), domain); n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}
