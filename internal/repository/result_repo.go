package repository

import "context"

// ResultRepository stores the URL list discovered for each crawled domain.
// Implementations must be safe for concurrent use, and a domain's list must
// become visible all at once when Insert returns.
type ResultRepository interface {
	// Insert replaces any previous result stored for domain.
	Insert(ctx context.Context, domain string, urls []string) error
	// Get returns the stored URLs, or an empty slice if domain was never crawled.
	Get(ctx context.Context, domain string) ([]string, error)
	// Count returns the number of stored URLs, or 0 if domain was never crawled.
	Count(ctx context.Context, domain string) (int, error)
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}
