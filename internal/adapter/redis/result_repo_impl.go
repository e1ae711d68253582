package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "crawler:result:"

// ResultRepoImpl provides a concrete implementation for the ResultRepository interface using Redis Lists.
type ResultRepoImpl struct {
	client *redis.Client
}

// NewResultRepo creates a new instance of ResultRepoImpl.
func NewResultRepo(client *redis.Client) *ResultRepoImpl {
	return &ResultRepoImpl{client: client}
}

func (r *ResultRepoImpl) generateKey(domain string) string {
	return resultKeyPrefix + domain
}

// Insert replaces the domain's list inside MULTI/EXEC so readers never see
// a deleted or half-written list.
func (r *ResultRepoImpl) Insert(ctx context.Context, domain string, urls []string) error {
	key := r.generateKey(domain)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(urls) > 0 {
			values := make([]any, len(urls))
			for i, u := range urls {
				values[i] = u
			}
			pipe.RPush(ctx, key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store crawl result for %s: %w", domain, err)
	}
	return nil
}

// Get returns the stored list. A missing key reads as an empty list.
func (r *ResultRepoImpl) Get(ctx context.Context, domain string) ([]string, error) {
	urls, err := r.client.LRange(ctx, r.generateKey(domain), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl result for %s: %w", domain, err)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

func (r *ResultRepoImpl) Count(ctx context.Context, domain string) (int, error) {
	n, err := r.client.LLen(ctx, r.generateKey(domain)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count crawl result for %s: %w", domain, err)
	}
	return int(n), nil
}

func (r *ResultRepoImpl) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
