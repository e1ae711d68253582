package usecase

import (
	"context"
	"runtime"
	"sync"

	"github.com/user/domain-crawler/internal/entity"
	"golang.org/x/sync/errgroup"
)

// RoundTask is one independent fetch operation within a crawl round.
type RoundTask func(ctx context.Context) entity.FetchOutcome

// Throttler runs a round's tasks with bounded parallelism.
type Throttler struct {
	limit int
}

// NewThrottler returns a Throttler allowing limit concurrent tasks. A limit
// of zero or less uses the number of available CPUs.
func NewThrottler(limit int) *Throttler {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &Throttler{limit: limit}
}

func (t *Throttler) Limit() int {
	return t.limit
}

// Run executes every task and returns all outcomes once the last one has
// finished. Outcomes are in completion order, not submission order.
func (t *Throttler) Run(ctx context.Context, tasks []RoundTask) []entity.FetchOutcome {
	var (
		mu       sync.Mutex
		outcomes = make([]entity.FetchOutcome, 0, len(tasks))
	)

	// A plain errgroup rather than WithContext: no task returns an error and
	// one task must never cut the others short.
	var g errgroup.Group
	g.SetLimit(t.limit)
	for _, task := range tasks {
		g.Go(func() error {
			out := task(ctx)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
