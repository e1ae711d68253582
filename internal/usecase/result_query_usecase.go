package usecase

import (
	"context"

	"github.com/user/domain-crawler/internal/repository"
)

// ResultQuery defines the read side over stored crawl results.
type ResultQuery interface {
	URLs(ctx context.Context, domain string) ([]string, error)
	Count(ctx context.Context, domain string) (int, error)
	Healthy(ctx context.Context) error
}

type resultQueryUseCase struct {
	resultRepo repository.ResultRepository
}

// NewResultQuery creates a new ResultQuery use case.
func NewResultQuery(resultRepo repository.ResultRepository) ResultQuery {
	return &resultQueryUseCase{resultRepo: resultRepo}
}

// URLs never returns nil on success, so an unknown domain renders as [].
func (uc *resultQueryUseCase) URLs(ctx context.Context, domain string) ([]string, error) {
	urls, err := uc.resultRepo.Get(ctx, domain)
	if err != nil {
		return nil, err
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

func (uc *resultQueryUseCase) Count(ctx context.Context, domain string) (int, error) {
	return uc.resultRepo.Count(ctx, domain)
}

func (uc *resultQueryUseCase) Healthy(ctx context.Context) error {
	return uc.resultRepo.Ping(ctx)
}
