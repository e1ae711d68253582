package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/user/domain-crawler/internal/entity"
	"github.com/user/domain-crawler/internal/repository"
	"github.com/user/domain-crawler/pkg/metrics"
)

// Crawler defines the interface for the core crawling process.
type Crawler interface {
	// Crawl traverses every page reachable from the domain root without
	// leaving the domain, then stores the visited set under domain.
	Crawl(ctx context.Context, domain string) (*entity.CrawlReport, error)
}

type crawlerUseCase struct {
	fetcher    repository.PageFetcher
	resultRepo repository.ResultRepository
	throttler  *Throttler
	seedScheme string
}

// NewCrawlerUseCase creates a new instance of the crawler use case.
func NewCrawlerUseCase(
	fetcher repository.PageFetcher,
	resultRepo repository.ResultRepository,
	throttler *Throttler,
	seedScheme string,
) Crawler {
	if seedScheme == "" {
		seedScheme = "http"
	}
	metrics.Init()
	return &crawlerUseCase{
		fetcher:    fetcher,
		resultRepo: resultRepo,
		throttler:  throttler,
		seedScheme: seedScheme,
	}
}

// frontierState is the BFS bookkeeping of a single crawl. A URL lives in at
// most one of visited and frontier.
type frontierState struct {
	domain   string
	visited  map[string]struct{}
	frontier []string
}

func newFrontierState(domain, root string) *frontierState {
	return &frontierState{
		domain:   domain,
		visited:  make(map[string]struct{}),
		frontier: []string{root},
	}
}

func (s *frontierState) done() bool {
	return len(s.frontier) == 0
}

// advance moves the whole frontier into visited and returns it as the batch
// to fetch this round.
func (s *frontierState) advance() []string {
	batch := s.frontier
	for _, u := range batch {
		s.visited[u] = struct{}{}
	}
	s.frontier = nil
	return batch
}

// expand files each discovered link: unseen same-domain links join the next
// frontier, everything else is recorded as visited without being fetched.
func (s *frontierState) expand(links []*url.URL) {
	queued := make(map[string]struct{})
	for _, link := range links {
		raw := link.String()
		_, seen := s.visited[raw]
		if link.Host == s.domain && !seen {
			if _, ok := queued[raw]; !ok {
				queued[raw] = struct{}{}
				s.frontier = append(s.frontier, raw)
			}
			continue
		}
		s.visited[raw] = struct{}{}
	}
}

func (s *frontierState) result() []string {
	urls := make([]string, 0, len(s.visited))
	for u := range s.visited {
		urls = append(urls, u)
	}
	return urls
}

func (uc *crawlerUseCase) Crawl(ctx context.Context, domain string) (*entity.CrawlReport, error) {
	startTime := time.Now()
	report := &entity.CrawlReport{ID: uuid.NewString(), Domain: domain}
	root := (&url.URL{Scheme: uc.seedScheme, Host: domain}).String()

	slog.Info("Starting crawl", "domain", domain, "crawl_id", report.ID, "root", root, "concurrency", uc.throttler.Limit())

	state := newFrontierState(domain, root)
	for !state.done() {
		batch := state.advance()
		report.Rounds++
		metrics.FrontierSize.Set(float64(len(batch)))
		slog.Debug("Crawl round", "domain", domain, "crawl_id", report.ID, "round", report.Rounds, "frontier", len(batch))

		tasks := make([]RoundTask, len(batch))
		for i, u := range batch {
			tasks[i] = func(ctx context.Context) entity.FetchOutcome {
				return uc.fetcher.Fetch(ctx, u)
			}
		}

		var links []*url.URL
		for _, out := range uc.throttler.Run(ctx, tasks) {
			report.Fetched++
			recordFetch(out)
			if out.Failed() {
				report.Failed++
				continue
			}
			links = append(links, out.Links...)
		}
		state.expand(links)
	}

	report.URLs = state.result()
	if err := uc.resultRepo.Insert(ctx, domain, report.URLs); err != nil {
		return nil, fmt.Errorf("failed to save crawl result for %s: %w", domain, err)
	}

	report.Elapsed = time.Since(startTime)
	metrics.CrawlsTotal.Inc()
	metrics.CrawlDuration.Observe(report.Elapsed.Seconds())

	slog.Info("Crawl finished",
		"domain", domain,
		"crawl_id", report.ID,
		"urls", len(report.URLs),
		"rounds", report.Rounds,
		"fetched", report.Fetched,
		"failed", report.Failed,
		"duration_ms", report.Elapsed.Milliseconds(),
	)
	return report, nil
}

func recordFetch(out entity.FetchOutcome) {
	if !out.Failed() {
		metrics.PageFetchesTotal.WithLabelValues("success", "").Inc()
		return
	}

	errorType := "unknown"
	switch {
	case errors.Is(out.Err, repository.ErrFetchTimeout):
		errorType = "timeout"
	case errors.Is(out.Err, repository.ErrFetchFailed):
		errorType = "network"
	case errors.Is(out.Err, repository.ErrBodyUnreadable):
		errorType = "body"
	case errors.Is(out.Err, repository.ErrParseFailed):
		errorType = "parse"
	}
	metrics.PageFetchesTotal.WithLabelValues("failure", errorType).Inc()
}
