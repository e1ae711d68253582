package memory

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	results map[string][]string
}

// ResultRepoImpl is an in-process ResultRepository. Domains are spread over
// independently locked shards so crawls of different domains rarely contend.
type ResultRepoImpl struct {
	shards [shardCount]*shard
}

// NewResultRepo creates an empty in-memory result store.
func NewResultRepo() *ResultRepoImpl {
	r := &ResultRepoImpl{}
	for i := range r.shards {
		r.shards[i] = &shard{results: make(map[string][]string)}
	}
	return r
}

func (r *ResultRepoImpl) shardFor(domain string) *shard {
	return r.shards[xxhash.Sum64String(domain)%shardCount]
}

// Insert replaces the stored list for domain with a copy of urls.
func (r *ResultRepoImpl) Insert(_ context.Context, domain string, urls []string) error {
	stored := make([]string, len(urls))
	copy(stored, urls)

	s := r.shardFor(domain)
	s.mu.Lock()
	s.results[domain] = stored
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the stored list, empty if domain is unknown.
func (r *ResultRepoImpl) Get(_ context.Context, domain string) ([]string, error) {
	s := r.shardFor(domain)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.results[domain]))
	copy(out, s.results[domain])
	return out, nil
}

func (r *ResultRepoImpl) Count(_ context.Context, domain string) (int, error) {
	s := r.shardFor(domain)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results[domain]), nil
}

func (r *ResultRepoImpl) Ping(context.Context) error {
	return nil
}
